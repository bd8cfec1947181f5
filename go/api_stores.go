package retailopsserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	storemapper "github.com/Apurer/retail-ops/internal/domains/stores/adapters/http/mapper"
	storedomain "github.com/Apurer/retail-ops/internal/domains/stores/domain"
	storeports "github.com/Apurer/retail-ops/internal/domains/stores/ports"
	"github.com/Apurer/retail-ops/internal/shared/failure"
)

// StoresAPI provisions and manages stores.
type StoresAPI struct {
	service storeports.Service
}

func NewStoresAPI(service storeports.Service) StoresAPI {
	return StoresAPI{service: service}
}

// Post /v1/stores
// Replays of a known Idempotency-Key answer 200 with the original store.
func (api *StoresAPI) CreateStore(c *gin.Context) {
	var payload storemapper.CreateStoreRequest
	if !bindJSON(c, &payload) {
		return
	}
	result, err := api.service.CreateStore(c.Request.Context(), storemapper.ToCreateInput(payload, c.GetHeader(IdempotencyKeyHeader)))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	status := http.StatusCreated
	if result.Replayed {
		status = http.StatusOK
	}
	c.JSON(status, storemapper.FromProvision(result))
}

// Get /v1/stores
func (api *StoresAPI) ListStores(c *gin.Context) {
	var raw string
	if !queryParam(c, "status", false, &raw) {
		return
	}
	var filter storeports.Filter
	if raw != "" {
		status, err := storedomain.ParseStatus(raw)
		if err != nil {
			respondServiceError(c, failure.Validation(err))
			return
		}
		filter.Status = &status
	}
	stores, err := api.service.ListStores(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, storemapper.FromStores(stores))
}

// Get /v1/stores/:storeId
func (api *StoresAPI) GetStore(c *gin.Context) {
	storeID, ok := pathParam(c, "storeId")
	if !ok {
		return
	}
	store, err := api.service.GetStore(c.Request.Context(), storeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, storemapper.FromStore(store))
}

// Put /v1/stores/:storeId
func (api *StoresAPI) UpdateStore(c *gin.Context) {
	storeID, ok := pathParam(c, "storeId")
	if !ok {
		return
	}
	var payload storemapper.UpdateStoreRequest
	if !bindJSON(c, &payload) {
		return
	}
	result, err := api.service.UpdateStore(c.Request.Context(), storemapper.ToUpdateInput(storeID, payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, storemapper.FromProvision(result))
}

// Put /v1/stores/:storeId/status
func (api *StoresAPI) SetStoreStatus(c *gin.Context) {
	storeID, ok := pathParam(c, "storeId")
	if !ok {
		return
	}
	var payload storemapper.StatusRequest
	if !bindJSON(c, &payload) {
		return
	}
	store, err := api.service.SetStoreStatus(c.Request.Context(), storeID, storedomain.Status(payload.Status))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, storemapper.FromStore(store))
}

// Get /v1/geocode/reverse?lat=&lng=
func (api *StoresAPI) ReverseGeocode(c *gin.Context) {
	var lat, lng float64
	if !queryParam(c, "lat", true, &lat) || !queryParam(c, "lng", true, &lng) {
		return
	}
	address, err := api.service.ResolveAddress(c.Request.Context(), lat, lng)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, storemapper.ReverseGeocode{Lat: lat, Lng: lng, Address: address})
}
