package retailopsserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	cataloguemapper "github.com/Apurer/retail-ops/internal/domains/catalogue/adapters/http/mapper"
	catalogueports "github.com/Apurer/retail-ops/internal/domains/catalogue/ports"
)

// CatalogueAPI manages a store's categories, products and stock.
type CatalogueAPI struct {
	service catalogueports.Service
}

func NewCatalogueAPI(service catalogueports.Service) CatalogueAPI {
	return CatalogueAPI{service: service}
}

// Post /v1/stores/:storeId/categories
func (api *CatalogueAPI) CreateCategory(c *gin.Context) {
	storeID, ok := pathParam(c, "storeId")
	if !ok {
		return
	}
	var payload cataloguemapper.CategoryRequest
	if !bindJSON(c, &payload) {
		return
	}
	category, err := api.service.CreateCategory(c.Request.Context(), cataloguemapper.ToCategoryInput(storeID, payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cataloguemapper.FromCategory(category))
}

// Get /v1/stores/:storeId/categories
func (api *CatalogueAPI) ListCategories(c *gin.Context) {
	storeID, ok := pathParam(c, "storeId")
	if !ok {
		return
	}
	categories, err := api.service.ListCategories(c.Request.Context(), storeID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloguemapper.FromCategories(categories))
}

// Delete /v1/stores/:storeId/categories/:categoryId
func (api *CatalogueAPI) DeleteCategory(c *gin.Context) {
	ids, ok := pathParams(c, "storeId", "categoryId")
	if !ok {
		return
	}
	if err := api.service.DeleteCategory(c.Request.Context(), ids[0], ids[1]); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Post /v1/stores/:storeId/products
func (api *CatalogueAPI) CreateProduct(c *gin.Context) {
	storeID, ok := pathParam(c, "storeId")
	if !ok {
		return
	}
	var payload cataloguemapper.ProductRequest
	if !bindJSON(c, &payload) {
		return
	}
	product, err := api.service.CreateProduct(c.Request.Context(), cataloguemapper.ToProductInput(storeID, payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, cataloguemapper.FromProduct(product))
}

// Get /v1/stores/:storeId/products?categoryId=
func (api *CatalogueAPI) ListProducts(c *gin.Context) {
	storeID, ok := pathParam(c, "storeId")
	if !ok {
		return
	}
	filter := catalogueports.ProductFilter{StoreID: storeID}
	if !queryParam(c, "categoryId", false, &filter.CategoryID) {
		return
	}
	products, err := api.service.ListProducts(c.Request.Context(), filter)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloguemapper.FromProducts(products))
}

// Get /v1/stores/:storeId/products/:productId
func (api *CatalogueAPI) GetProduct(c *gin.Context) {
	ids, ok := pathParams(c, "storeId", "productId")
	if !ok {
		return
	}
	product, err := api.service.GetProduct(c.Request.Context(), ids[0], ids[1])
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloguemapper.FromProduct(product))
}

// Put /v1/stores/:storeId/products/:productId
func (api *CatalogueAPI) UpdateProduct(c *gin.Context) {
	ids, ok := pathParams(c, "storeId", "productId")
	if !ok {
		return
	}
	var payload cataloguemapper.ProductPatch
	if !bindJSON(c, &payload) {
		return
	}
	product, err := api.service.UpdateProduct(c.Request.Context(), cataloguemapper.ToUpdateInput(ids[0], ids[1], payload))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloguemapper.FromProduct(product))
}

// Delete /v1/stores/:storeId/products/:productId
func (api *CatalogueAPI) DeleteProduct(c *gin.Context) {
	ids, ok := pathParams(c, "storeId", "productId")
	if !ok {
		return
	}
	if err := api.service.DeleteProduct(c.Request.Context(), ids[0], ids[1]); err != nil {
		respondServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Post /v1/stores/:storeId/products/:productId/stock
func (api *CatalogueAPI) AdjustStock(c *gin.Context) {
	ids, ok := pathParams(c, "storeId", "productId")
	if !ok {
		return
	}
	var payload cataloguemapper.StockRequest
	if !bindJSON(c, &payload) {
		return
	}
	stock, err := api.service.AdjustStock(c.Request.Context(), ids[0], ids[1], payload.Delta)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, cataloguemapper.StockLevel{ProductID: ids[1], Stock: stock})
}
