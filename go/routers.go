package retailopsserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the routes to an existing gin engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc answers routes whose API is not wired.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

type ApiHandleFunctions struct {
	OrdersAPI      OrdersAPI
	StoreOrdersAPI StoreOrdersAPI
	StoresAPI      StoresAPI
	CatalogueAPI   CatalogueAPI
	AgentsAPI      AgentsAPI
	ChangesAPI     ChangesAPI
	HealthAPI      HealthAPI
}

func getRoutes(h ApiHandleFunctions) []Route {
	return []Route{
		{"PlaceOrder", http.MethodPost, "/v1/orders", h.OrdersAPI.PlaceOrder},
		{"ListOrders", http.MethodGet, "/v1/orders", h.OrdersAPI.ListOrders},
		{"ReadyForAssignment", http.MethodGet, "/v1/orders/ready", h.OrdersAPI.ReadyForAssignment},
		{"GetOrder", http.MethodGet, "/v1/orders/:orderId", h.OrdersAPI.GetOrder},
		{"AssignOrder", http.MethodPost, "/v1/orders/:orderId/assign", h.OrdersAPI.Assign},
		{"MarkDelivered", http.MethodPost, "/v1/orders/:orderId/deliver", h.OrdersAPI.MarkDelivered},
		{"OrderQR", http.MethodGet, "/v1/orders/:orderId/qr", h.OrdersAPI.OrderQR},
		{"LineItemQR", http.MethodGet, "/v1/orders/:orderId/items/:productId/qr", h.OrdersAPI.LineItemQR},

		{"ListStoreOrders", http.MethodGet, "/v1/stores/:storeId/orders", h.StoreOrdersAPI.ListStoreOrders},
		{"AcceptLineItem", http.MethodPost, "/v1/stores/:storeId/orders/:orderId/items/:itemId/accept", h.StoreOrdersAPI.AcceptLineItem},
		{"RejectLineItem", http.MethodPost, "/v1/stores/:storeId/orders/:orderId/items/:itemId/reject", h.StoreOrdersAPI.RejectLineItem},
		{"TransitionStoreOrder", http.MethodPost, "/v1/stores/:storeId/orders/:orderId/transition", h.StoreOrdersAPI.Transition},
		{"RecomputeStoreOrder", http.MethodPost, "/v1/stores/:storeId/orders/:orderId/recompute", h.StoreOrdersAPI.Recompute},

		{"CreateStore", http.MethodPost, "/v1/stores", h.StoresAPI.CreateStore},
		{"ListStores", http.MethodGet, "/v1/stores", h.StoresAPI.ListStores},
		{"GetStore", http.MethodGet, "/v1/stores/:storeId", h.StoresAPI.GetStore},
		{"UpdateStore", http.MethodPut, "/v1/stores/:storeId", h.StoresAPI.UpdateStore},
		{"SetStoreStatus", http.MethodPut, "/v1/stores/:storeId/status", h.StoresAPI.SetStoreStatus},
		{"ReverseGeocode", http.MethodGet, "/v1/geocode/reverse", h.StoresAPI.ReverseGeocode},

		{"CreateCategory", http.MethodPost, "/v1/stores/:storeId/categories", h.CatalogueAPI.CreateCategory},
		{"ListCategories", http.MethodGet, "/v1/stores/:storeId/categories", h.CatalogueAPI.ListCategories},
		{"DeleteCategory", http.MethodDelete, "/v1/stores/:storeId/categories/:categoryId", h.CatalogueAPI.DeleteCategory},
		{"CreateProduct", http.MethodPost, "/v1/stores/:storeId/products", h.CatalogueAPI.CreateProduct},
		{"ListProducts", http.MethodGet, "/v1/stores/:storeId/products", h.CatalogueAPI.ListProducts},
		{"GetProduct", http.MethodGet, "/v1/stores/:storeId/products/:productId", h.CatalogueAPI.GetProduct},
		{"UpdateProduct", http.MethodPut, "/v1/stores/:storeId/products/:productId", h.CatalogueAPI.UpdateProduct},
		{"DeleteProduct", http.MethodDelete, "/v1/stores/:storeId/products/:productId", h.CatalogueAPI.DeleteProduct},
		{"AdjustStock", http.MethodPost, "/v1/stores/:storeId/products/:productId/stock", h.CatalogueAPI.AdjustStock},

		{"CreateAgent", http.MethodPost, "/v1/agents", h.AgentsAPI.CreateAgent},
		{"ListAgents", http.MethodGet, "/v1/agents", h.AgentsAPI.ListAgents},
		{"GetAgent", http.MethodGet, "/v1/agents/:agentId", h.AgentsAPI.GetAgent},
		{"UpdateAgent", http.MethodPut, "/v1/agents/:agentId", h.AgentsAPI.UpdateAgent},
		{"DeleteAgent", http.MethodDelete, "/v1/agents/:agentId", h.AgentsAPI.DeleteAgent},
		{"SetAvailability", http.MethodPut, "/v1/agents/:agentId/availability", h.AgentsAPI.SetAvailability},

		{"StreamChanges", http.MethodGet, "/v1/changes", h.ChangesAPI.StreamChanges},
		{"Healthz", http.MethodGet, "/healthz", h.HealthAPI.Healthz},
		{"Metrics", http.MethodGet, "/metrics", h.HealthAPI.Metrics},
	}
}
