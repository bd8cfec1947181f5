package retailopsserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	ordermapper "github.com/Apurer/retail-ops/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/retail-ops/internal/domains/orders/application/types"
	orderdomain "github.com/Apurer/retail-ops/internal/domains/orders/domain"
	orderports "github.com/Apurer/retail-ops/internal/domains/orders/ports"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

// StoreOrdersAPI is the store staff view over the orders context.
type StoreOrdersAPI struct {
	service orderports.Service
}

func NewStoreOrdersAPI(service orderports.Service) StoreOrdersAPI {
	return StoreOrdersAPI{service: service}
}

// Get /v1/stores/:storeId/orders
func (api *StoreOrdersAPI) ListStoreOrders(c *gin.Context) {
	storeID, ok := pathParam(c, "storeId")
	if !ok {
		return
	}
	status, ok := statusQuery(c)
	if !ok {
		return
	}
	storeOrders, err := api.service.ListStoreOrders(c.Request.Context(), orderports.StoreOrderFilter{StoreID: storeID, Status: status})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromStoreOrders(storeOrders))
}

// Post /v1/stores/:storeId/orders/:orderId/items/:itemId/accept
func (api *StoreOrdersAPI) AcceptLineItem(c *gin.Context) {
	ids, ok := pathParams(c, "storeId", "orderId", "itemId")
	if !ok {
		return
	}
	var payload ordermapper.AcceptRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &payload) {
		return
	}
	result, err := api.service.AcceptLineItem(c.Request.Context(), ordertypes.AcceptLineItemInput{
		StoreID:      ids[0],
		OrderID:      ids[1],
		ItemID:       ids[2],
		UpdatedPrice: payload.UpdatedPrice,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromDecision(result))
}

// Post /v1/stores/:storeId/orders/:orderId/items/:itemId/reject
func (api *StoreOrdersAPI) RejectLineItem(c *gin.Context) {
	ids, ok := pathParams(c, "storeId", "orderId", "itemId")
	if !ok {
		return
	}
	var payload ordermapper.RejectRequest
	if c.Request.ContentLength != 0 && !bindJSON(c, &payload) {
		return
	}
	result, err := api.service.RejectLineItem(c.Request.Context(), ordertypes.RejectLineItemInput{
		StoreID: ids[0],
		OrderID: ids[1],
		ItemID:  ids[2],
		Reason:  payload.Reason,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromDecision(result))
}

// Post /v1/stores/:storeId/orders/:orderId/transition
func (api *StoreOrdersAPI) Transition(c *gin.Context) {
	ids, ok := pathParams(c, "storeId", "orderId")
	if !ok {
		return
	}
	var payload ordermapper.TransitionRequest
	if !bindJSON(c, &payload) {
		return
	}
	to, err := orderdomain.ParseStatus(payload.Status)
	if err != nil {
		respondServiceError(c, failure.Validation(err))
		return
	}
	storeOrder, err := api.service.TransitionStoreOrder(c.Request.Context(), ordertypes.TransitionInput{StoreID: ids[0], OrderID: ids[1], To: to})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromStoreOrder(storeOrder))
}

// Post /v1/stores/:storeId/orders/:orderId/recompute
func (api *StoreOrdersAPI) Recompute(c *gin.Context) {
	ids, ok := pathParams(c, "storeId", "orderId")
	if !ok {
		return
	}
	storeOrder, err := api.service.RecomputeStoreOrder(c.Request.Context(), ids[1], ids[0])
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromStoreOrder(storeOrder))
}
