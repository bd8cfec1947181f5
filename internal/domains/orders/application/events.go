package application

import (
	"context"
	"log/slog"

	"github.com/Apurer/retail-ops/internal/domains/orders/domain"
	"github.com/Apurer/retail-ops/internal/platform/changefeed"
)

// toChange projects a domain event onto the change feed.
func toChange(event domain.Event) (changefeed.Change, bool) {
	change := changefeed.Change{Kind: changefeed.KindUpdated, At: event.OccurredAt()}
	switch e := event.(type) {
	case domain.OrderPlaced:
		change.Collection = changefeed.CollectionOrders
		change.DocumentID = e.OrderID
		change.Kind = changefeed.KindCreated
		change.Fields = map[string]any{"userId": e.UserID, "storeIds": e.StoreIDs, "status": string(domain.StatusPending)}
	case domain.LineItemDecided:
		change.Collection = changefeed.CollectionLineItems
		change.DocumentID = e.ItemID
		change.ParentID = e.StoreOrderID
		change.Fields = map[string]any{
			"orderId":   e.OrderID,
			"storeId":   e.StoreID,
			"productId": e.ProductID,
			"status":    string(e.Status),
		}
		if e.Reason != "" {
			change.Fields["rejectionReason"] = e.Reason
		}
	case domain.StoreOrderStatusChanged:
		change.Collection = changefeed.CollectionStoreOrders
		change.DocumentID = e.StoreOrderID
		change.ParentID = e.OrderID
		change.Fields = map[string]any{
			"storeId":        e.StoreID,
			"status":         string(e.Status),
			"previousStatus": string(e.PreviousStatus),
		}
	case domain.OrderStatusChanged:
		statuses := make(map[string]string, len(e.StoreStatuses))
		for storeID, status := range e.StoreStatuses {
			statuses[storeID] = string(status)
		}
		change.Collection = changefeed.CollectionOrders
		change.DocumentID = e.OrderID
		change.Fields = map[string]any{"status": string(e.Status), "storeStatuses": statuses}
	case domain.OrderAssigned:
		change.Collection = changefeed.CollectionOrders
		change.DocumentID = e.OrderID
		change.Fields = map[string]any{
			"status":            string(domain.StatusOnway),
			"deliveryAgentId":   e.AgentID,
			"deliveryAgentName": e.AgentName,
		}
	case domain.OrderDelivered:
		change.Collection = changefeed.CollectionOrders
		change.DocumentID = e.OrderID
		change.Fields = map[string]any{"status": string(domain.StatusDelivered), "deliveryAgentId": e.AgentID}
	default:
		return changefeed.Change{}, false
	}
	return change, true
}

// publish forwards events to the change feed. Failures only affect live views,
// so they are logged rather than returned.
func (s *Service) publish(ctx context.Context, events ...domain.Event) {
	for _, event := range events {
		change, ok := toChange(event)
		if !ok {
			continue
		}
		if err := s.publisher.Publish(ctx, change); err != nil {
			s.logger.WarnContext(ctx, "failed to publish change",
				slog.String("event", event.EventName()),
				slog.String("document.id", change.DocumentID),
				slog.String("error", err.Error()))
		}
	}
}
