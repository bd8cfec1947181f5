package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func storeOrder(items ...Status) *StoreOrder {
	so := &StoreOrder{ID: "so-1", OrderID: "o-1", StoreID: "s-1", Status: StatusPending}
	for i, status := range items {
		so.Items = append(so.Items, LineItem{
			ID:        string(rune('a' + i)),
			ProductID: "p",
			Quantity:  1,
			UnitPrice: decimal.NewFromInt(10),
			Status:    status,
		})
	}
	return so
}

func TestTransitionTable(t *testing.T) {
	require.True(t, CanTransition(StatusPending, StatusAccepted))
	require.True(t, CanTransition(StatusPending, StatusRejected))
	require.True(t, CanTransition(StatusAccepted, StatusPackaged))
	require.True(t, CanTransition(StatusPackaged, StatusOnway))
	require.True(t, CanTransition(StatusOnway, StatusDelivered))

	require.False(t, CanTransition(StatusAccepted, StatusPending))
	require.False(t, CanTransition(StatusRejected, StatusAccepted))
	require.False(t, CanTransition(StatusAccepted, StatusOnway))
	require.False(t, CanTransition(StatusDelivered, StatusOnway))
}

func TestParseStatus(t *testing.T) {
	status, err := ParseStatus(" OnWay ")
	require.NoError(t, err)
	require.Equal(t, StatusOnway, status)

	_, err = ParseStatus("shipped")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

func TestTimestampsStampedOnce(t *testing.T) {
	var ts Timestamps
	ts.Stamp(StatusAccepted, t0)
	ts.Stamp(StatusAccepted, t0.Add(time.Hour))
	require.Equal(t, t0, *ts.At(StatusAccepted))
	require.Nil(t, ts.At(StatusDelivered))

	ts.Stamp(StatusPending, t0)
	clone := ts.Clone()
	*clone.Accepted = t0.Add(time.Minute)
	require.Equal(t, t0, *ts.At(StatusAccepted))
}

func TestAggregateStatus(t *testing.T) {
	cases := []struct {
		name    string
		current Status
		items   []Status
		want    Status
	}{
		{"all rejected", StatusPending, []Status{StatusRejected, StatusRejected}, StatusRejected},
		{"one pending", StatusPending, []Status{StatusRejected, StatusPending}, StatusPending},
		{"one accepted", StatusPending, []Status{StatusRejected, StatusAccepted}, StatusPending},
		{"all accepted stays pending", StatusPending, []Status{StatusAccepted}, StatusPending},
		{"already rejected", StatusRejected, []Status{StatusRejected}, StatusRejected},
		{"empty", StatusPending, nil, StatusPending},
		{"packaged is not rejected", StatusPackaged, []Status{StatusRejected}, StatusPackaged},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, AggregateStatus(tc.current, tc.items))
		})
	}
}

func TestAggregateStatusIsIdempotent(t *testing.T) {
	items := []Status{StatusRejected, StatusRejected}
	once := AggregateStatus(StatusPending, items)
	require.Equal(t, once, AggregateStatus(once, items))
}

func TestStoreOrderRecomputeStampsRejection(t *testing.T) {
	so := storeOrder(StatusRejected, StatusRejected)
	require.True(t, so.Recompute(t0))
	require.Equal(t, StatusRejected, so.Status)
	require.Equal(t, t0, *so.Timestamps.Rejected)

	require.False(t, so.Recompute(t0.Add(time.Hour)))
	require.Equal(t, t0, *so.Timestamps.Rejected)
}

func TestLineItemDecisions(t *testing.T) {
	so := storeOrder(StatusPending, StatusPending)
	price := decimal.RequireFromString("8.50")

	item, err := so.Item("a")
	require.NoError(t, err)
	require.NoError(t, item.Accept(&price))
	require.Equal(t, StatusAccepted, so.Items[0].Status)
	require.True(t, so.Items[0].EffectivePrice().Equal(price))
	require.ErrorIs(t, item.Reject("late"), ErrInvalidTransition)

	item, err = so.Item("b")
	require.NoError(t, err)
	item.UpdatedPrice = &price
	require.NoError(t, item.Reject("  out of stock "))
	require.Equal(t, "out of stock", so.Items[1].RejectionReason)
	require.Nil(t, so.Items[1].UpdatedPrice)
	require.Equal(t, 0, so.Items[1].EffectiveQuantity())
	require.True(t, so.Total().Equal(price))

	_, err = so.Item("zz")
	require.ErrorIs(t, err, ErrItemNotFound)
}

func TestStoreOrderTransitionAccepted(t *testing.T) {
	so := storeOrder(StatusAccepted, StatusPending)
	require.ErrorIs(t, so.Transition(StatusAccepted, t0), ErrUndecidedItems)

	so = storeOrder(StatusRejected)
	require.ErrorIs(t, so.Transition(StatusAccepted, t0), ErrNothingAccepted)

	so = storeOrder(StatusAccepted, StatusRejected)
	require.NoError(t, so.Transition(StatusAccepted, t0))
	require.NoError(t, so.Transition(StatusPackaged, t0.Add(time.Minute)))
	require.Equal(t, StatusPackaged, so.Items[0].Status)
	require.Equal(t, StatusRejected, so.Items[1].Status)
	require.ErrorIs(t, so.Transition(StatusDelivered, t0), ErrInvalidTransition)
	require.NotNil(t, so.Timestamps.Accepted)
	require.NotNil(t, so.Timestamps.Packaged)
}

func TestStoreOrderSettled(t *testing.T) {
	require.False(t, storeOrder(StatusAccepted, StatusPending).Settled())
	require.False(t, storeOrder(StatusRejected, StatusRejected).Settled())
	require.True(t, storeOrder(StatusAccepted, StatusRejected).Settled())
	require.True(t, storeOrder(StatusAccepted).Settled())

	so := storeOrder(StatusAccepted)
	require.NoError(t, so.Transition(StatusAccepted, t0))
	require.False(t, so.Settled())
}

func TestStoreOrderTransitionRejected(t *testing.T) {
	so := storeOrder(StatusAccepted, StatusPending)
	require.ErrorIs(t, so.Transition(StatusRejected, t0), ErrAcceptedItems)

	so = storeOrder(StatusPending, StatusRejected)
	require.NoError(t, so.Transition(StatusRejected, t0))
	require.Equal(t, []Status{StatusRejected, StatusRejected}, so.ItemStatuses())
}

func TestStoreOrderValidate(t *testing.T) {
	so := storeOrder()
	require.ErrorIs(t, so.Validate(), ErrEmptyItems)

	so = storeOrder(StatusPending)
	so.Items[0].Quantity = 0
	require.ErrorIs(t, so.Validate(), ErrInvalidQuantity)

	so = storeOrder(StatusPending, StatusPending)
	so.Items[1].ID = so.Items[0].ID
	require.ErrorIs(t, so.Validate(), ErrDuplicateLineItem)
}

func TestNewOrderValidation(t *testing.T) {
	_, err := NewOrder("o", "", Location{}, []string{"s"}, t0)
	require.ErrorIs(t, err, ErrEmptyUserID)

	_, err = NewOrder("o", "u", Location{}, nil, t0)
	require.ErrorIs(t, err, ErrNoStoreOrders)

	_, err = NewOrder("o", "u", Location{}, []string{"s", "s"}, t0)
	require.ErrorIs(t, err, ErrDuplicateStore)

	_, err = NewOrder("o", "u", Location{Lat: 91}, []string{"s"}, t0)
	require.ErrorIs(t, err, ErrInvalidLocation)

	order, err := NewOrder("o", "u", Location{Address: "Main St 1", Lat: 52.2, Lng: 21}, []string{"s1", "s2"}, t0)
	require.NoError(t, err)
	require.Equal(t, StatusPending, order.Status)
	require.Equal(t, map[string]Status{"s1": StatusPending, "s2": StatusPending}, order.StoreStatuses)
	require.NoError(t, order.Validate())
}

func TestApplyStoreStatusDerivesOverallStatus(t *testing.T) {
	order, err := NewOrder("o", "u", Location{}, []string{"s1", "s2"}, t0)
	require.NoError(t, err)

	changed, err := order.ApplyStoreStatus("s1", StatusRejected, t0)
	require.NoError(t, err)
	require.True(t, changed)
	require.Equal(t, StatusPending, order.Status)

	_, err = order.ApplyStoreStatus("s2", StatusRejected, t0)
	require.NoError(t, err)
	require.Equal(t, StatusRejected, order.Status)
	require.NotNil(t, order.Timestamps.Rejected)

	order, err = NewOrder("o2", "u", Location{}, []string{"s1", "s2"}, t0)
	require.NoError(t, err)
	_, _ = order.ApplyStoreStatus("s1", StatusRejected, t0)
	_, _ = order.ApplyStoreStatus("s2", StatusAccepted, t0)
	require.Equal(t, StatusAccepted, order.Status)

	changed, err = order.ApplyStoreStatus("s2", StatusAccepted, t0)
	require.NoError(t, err)
	require.False(t, changed)

	_, err = order.ApplyStoreStatus("s9", StatusAccepted, t0)
	require.ErrorIs(t, err, ErrUnknownStore)
}

func TestReadyForAssignment(t *testing.T) {
	order, err := NewOrder("o-1", "u", Location{}, []string{"s1", "s2"}, t0)
	require.NoError(t, err)
	accepted := &StoreOrder{OrderID: "o-1", StoreID: "s1", Status: StatusAccepted}
	rejected := &StoreOrder{OrderID: "o-1", StoreID: "s2", Status: StatusRejected}
	pending := &StoreOrder{OrderID: "o-1", StoreID: "s2", Status: StatusPending}

	require.True(t, ReadyForAssignment(order, []*StoreOrder{accepted, rejected}))
	require.False(t, ReadyForAssignment(order, []*StoreOrder{accepted, pending}))
	require.False(t, ReadyForAssignment(order, []*StoreOrder{rejected}))
	require.False(t, ReadyForAssignment(order, nil))

	require.NoError(t, order.BindAgent("a-1", "Ann", t0))
	require.False(t, ReadyForAssignment(order, []*StoreOrder{accepted, rejected}))
}

func TestBindAgentAndDeliver(t *testing.T) {
	order, err := NewOrder("o", "u", Location{}, []string{"s1"}, t0)
	require.NoError(t, err)
	require.ErrorIs(t, order.MarkDelivered(t0), ErrInvalidTransition)

	require.NoError(t, order.BindAgent("a-1", "Ann", t0))
	require.Equal(t, StatusOnway, order.Status)
	require.NoError(t, order.Validate())
	require.ErrorIs(t, order.BindAgent("a-2", "Bob", t0), ErrAlreadyAssigned)
	require.Equal(t, "a-1", *order.DeliveryAgentID)

	require.NoError(t, order.MarkDelivered(t0.Add(time.Hour)))
	require.Equal(t, StatusDelivered, order.Status)
	require.NoError(t, order.Validate())

	rejected, err := NewOrder("o", "u", Location{}, []string{"s1"}, t0)
	require.NoError(t, err)
	rejected.Status = StatusRejected
	require.ErrorIs(t, rejected.BindAgent("a-1", "Ann", t0), ErrNotReady)
}

func TestOrderValidateAgentBinding(t *testing.T) {
	agent := "a-1"
	order := &Order{Status: StatusAccepted, DeliveryAgentID: &agent}
	require.ErrorIs(t, order.Validate(), ErrAgentInconsistent)

	order = &Order{Status: StatusOnway}
	require.ErrorIs(t, order.Validate(), ErrAgentInconsistent)
}

func TestOrderClone(t *testing.T) {
	order, err := NewOrder("o", "u", Location{}, []string{"s1"}, t0)
	require.NoError(t, err)
	clone := order.Clone()
	clone.StoreStatuses["s1"] = StatusRejected
	require.Equal(t, StatusPending, order.StoreStatuses["s1"])
}

func TestQRPayloads(t *testing.T) {
	payload, err := OrderQRPayload(" ord-42 ")
	require.NoError(t, err)
	require.Equal(t, "ord-42", payload)

	_, err = OrderQRPayload("")
	require.ErrorIs(t, err, ErrInvalidQRPayload)

	raw, err := LineItemQR{OrderID: "ord-42", ProductID: "p-7", Action: QRActionAccept}.Encode()
	require.NoError(t, err)
	require.JSONEq(t, `{"orderId":"ord-42","productId":"p-7","action":"accept"}`, string(raw))

	parsed, err := ParseLineItemQR([]byte(`{"orderId":"o","productId":"p","action":"reject"}`))
	require.NoError(t, err)
	require.Equal(t, QRActionReject, parsed.Action)

	_, err = ParseLineItemQR([]byte(`{"orderId":"o","productId":"p","action":"ship"}`))
	require.ErrorIs(t, err, ErrInvalidQRPayload)
	_, err = ParseLineItemQR([]byte(`not json`))
	require.ErrorIs(t, err, ErrInvalidQRPayload)
}
