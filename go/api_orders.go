package retailopsserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	qrcode "github.com/skip2/go-qrcode"

	ordermapper "github.com/Apurer/retail-ops/internal/domains/orders/adapters/http/mapper"
	ordertypes "github.com/Apurer/retail-ops/internal/domains/orders/application/types"
	orderdomain "github.com/Apurer/retail-ops/internal/domains/orders/domain"
	orderports "github.com/Apurer/retail-ops/internal/domains/orders/ports"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

// QRSize is the edge length in pixels of rendered QR codes.
const QRSize = 256

// OrdersAPI serves the dashboard's order views and the assignment workflow.
type OrdersAPI struct {
	service orderports.Service
}

func NewOrdersAPI(service orderports.Service) OrdersAPI {
	return OrdersAPI{service: service}
}

// Post /v1/orders
func (api *OrdersAPI) PlaceOrder(c *gin.Context) {
	var payload ordermapper.PlaceOrderRequest
	if !bindJSON(c, &payload) {
		return
	}
	view, err := api.service.PlaceOrder(c.Request.Context(), ordermapper.ToPlaceOrderInput(payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ordermapper.FromView(view))
}

// Get /v1/orders
func (api *OrdersAPI) ListOrders(c *gin.Context) {
	var filter orderports.OrderFilter
	status, ok := statusQuery(c)
	if !ok {
		return
	}
	filter.Status = status
	if !queryParam(c, "storeId", false, &filter.StoreID) || !queryParam(c, "agentId", false, &filter.AgentID) {
		return
	}
	orders, err := api.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromOrders(orders))
}

// Get /v1/orders/ready
func (api *OrdersAPI) ReadyForAssignment(c *gin.Context) {
	views, err := api.service.ReadyForAssignment(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromViews(views))
}

// Get /v1/orders/:orderId
func (api *OrdersAPI) GetOrder(c *gin.Context) {
	orderID, ok := pathParam(c, "orderId")
	if !ok {
		return
	}
	view, err := api.service.GetOrder(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromView(view))
}

// Post /v1/orders/:orderId/assign
func (api *OrdersAPI) Assign(c *gin.Context) {
	orderID, ok := pathParam(c, "orderId")
	if !ok {
		return
	}
	var payload ordermapper.AssignRequest
	if !bindJSON(c, &payload) {
		return
	}
	result, err := api.service.Assign(c.Request.Context(), ordertypes.AssignInput{OrderID: orderID, AgentID: payload.AgentID})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromOrderResult(result))
}

// Post /v1/orders/:orderId/deliver
func (api *OrdersAPI) MarkDelivered(c *gin.Context) {
	orderID, ok := pathParam(c, "orderId")
	if !ok {
		return
	}
	result, err := api.service.MarkDelivered(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, ordermapper.FromOrderResult(result))
}

// Get /v1/orders/:orderId/qr
// Renders the order id payload as PNG, or as text with ?format=text.
func (api *OrdersAPI) OrderQR(c *gin.Context) {
	orderID, ok := pathParam(c, "orderId")
	if !ok {
		return
	}
	payload, err := api.service.OrderQR(c.Request.Context(), orderID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	writeQR(c, payload, "text/plain; charset=utf-8")
}

// Get /v1/orders/:orderId/items/:productId/qr?action=accept|reject
func (api *OrdersAPI) LineItemQR(c *gin.Context) {
	ids, ok := pathParams(c, "orderId", "productId")
	if !ok {
		return
	}
	var action string
	if !queryParam(c, "action", true, &action) {
		return
	}
	payload, err := api.service.LineItemQR(c.Request.Context(), ordertypes.LineItemQRInput{
		OrderID:   ids[0],
		ProductID: ids[1],
		Action:    orderdomain.QRAction(action),
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	writeQR(c, string(payload), "application/json")
}

func writeQR(c *gin.Context, payload, textContentType string) {
	var format string
	if !queryParam(c, "format", false, &format) {
		return
	}
	if format == "text" {
		c.Data(http.StatusOK, textContentType, []byte(payload))
		return
	}
	png, err := qrcode.Encode(payload, qrcode.Medium, QRSize)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// statusQuery parses the optional status query parameter.
func statusQuery(c *gin.Context) (*orderdomain.Status, bool) {
	var raw string
	if !queryParam(c, "status", false, &raw) {
		return nil, false
	}
	if raw == "" {
		return nil, true
	}
	status, err := orderdomain.ParseStatus(raw)
	if err != nil {
		respondServiceError(c, failure.Validation(err))
		return nil, false
	}
	return &status, true
}
