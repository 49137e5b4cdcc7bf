package controller

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/inventory-service/internal/model"
	"github.com/iyhunko/inventory-service/internal/repository"
	"github.com/iyhunko/inventory-service/internal/service"
)

// NextPageTokenHeader carries the token of the next page of GET /selecionar.
const NextPageTokenHeader = "X-Next-Page-Token"

const (
	msgProductInserted      = "Produto inserido com sucesso! 😄"
	msgProductRemoved       = "Produto removido com sucesso! 😄"
	msgProductUpdated       = "Produto atualizado com sucesso! 😄"
	msgFieldsUpdated        = "%d campos atualizados com sucesso! 😄"
	msgUselessCall          = "Chamada inútil do método! 😠"
	msgProductsDeleted      = "Foram excluídos %d produtos!"
	msgNoProductWithStock   = "Não encontrei nenhum produto com estoque %d"
	msgInvalidID            = "ID inválido: %s"
	msgInvalidQuantity      = "Quantidade inválida: %s"
	msgInvalidBody          = "Corpo da requisição inválido"
	msgMissingNameParameter = "O parâmetro 'nome' é obrigatório"
	msgInvalidPageToken     = "Token de página inválido"
)

// ProductController handles HTTP requests for product operations.
type ProductController struct {
	productService *service.ProductService
}

// NewProductController creates a new ProductController with the given product service.
func NewProductController(productService *service.ProductService) *ProductController {
	return &ProductController{
		productService: productService,
	}
}

// Routes lists the product endpoints.
func (pc *ProductController) Routes() []Route {
	return []Route{
		{Method: http.MethodGet, Path: "/selecionar", Handler: pc.ListProducts},
		{Method: http.MethodGet, Path: "/selecionarID/:id", Handler: pc.GetProduct},
		{Method: http.MethodPost, Path: "/inserir", Handler: pc.CreateProduct},
		{Method: http.MethodDelete, Path: "/excluir/:id", Handler: pc.DeleteProduct},
		{Method: http.MethodPut, Path: "/atualizar/:id", Handler: pc.UpdateProduct},
		{Method: http.MethodPatch, Path: "/atualizarParcial/:id", Handler: pc.PartialUpdateProduct},
		{Method: http.MethodGet, Path: "/buscarPorNome", Handler: pc.FindByName},
		{Method: http.MethodDelete, Path: "/deletarPorQnt/:qnt", Handler: pc.DeleteByStock},
		{Method: http.MethodPatch, Path: "/contarPorQnt/:qnt", Handler: pc.CountByStock},
	}
}

// ListProductsRequest represents the query parameters for listing products.
type ListProductsRequest struct {
	Limit int32  `form:"limit"`
	Token string `form:"token"`
}

// ListProducts handles the HTTP GET request for listing products. Without a
// limit every product is returned.
func (pc *ProductController) ListProducts(c *gin.Context) {
	var req ListProductsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	query := repository.NewQuery()
	if err := query.ApplyPagination(req.Limit, req.Token); err != nil {
		slog.WarnContext(c.Request.Context(), "rejected page token", slog.String("token", req.Token), slog.Any("err", err))
		c.String(http.StatusBadRequest, msgInvalidPageToken)
		return
	}

	products, err := pc.productService.ListAll(c.Request.Context(), *query)
	if err != nil {
		handleError(c, err)
		return
	}

	if query.Limit > 0 && len(products) == query.Limit {
		paginator := repository.Paginator{LastID: products[len(products)-1].ID}
		c.Header(NextPageTokenHeader, paginator.Encode())
	}

	c.JSON(http.StatusOK, products)
}

// GetProduct handles the HTTP GET request for a single product.
func (pc *ProductController) GetProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	product, err := pc.productService.GetByID(c.Request.Context(), id)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, product)
}

// CreateProduct handles the HTTP POST request for creating a new product.
func (pc *ProductController) CreateProduct(c *gin.Context) {
	var in model.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.String(http.StatusBadRequest, msgInvalidBody)
		return
	}

	if _, err := pc.productService.Create(c.Request.Context(), in); err != nil {
		handleError(c, err)
		return
	}

	c.String(http.StatusOK, msgProductInserted)
}

// DeleteProduct handles the HTTP DELETE request for deleting a product by ID.
func (pc *ProductController) DeleteProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	if err := pc.productService.DeleteByID(c.Request.Context(), id); err != nil {
		handleError(c, err)
		return
	}

	c.String(http.StatusOK, msgProductRemoved)
}

// UpdateProduct handles the HTTP PUT request replacing every field of a product.
func (pc *ProductController) UpdateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var in model.ProductInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.String(http.StatusBadRequest, msgInvalidBody)
		return
	}

	if err := pc.productService.Update(c.Request.Context(), id, in); err != nil {
		handleError(c, err)
		return
	}

	c.String(http.StatusOK, msgProductUpdated)
}

// PartialUpdateProduct handles the HTTP PATCH request updating the fields present in the body.
func (pc *ProductController) PartialUpdateProduct(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var updates map[string]any
	if err := c.ShouldBindJSON(&updates); err != nil {
		c.String(http.StatusBadRequest, msgInvalidBody)
		return
	}

	changed, err := pc.productService.PartialUpdate(c.Request.Context(), id, updates)
	if err != nil {
		handleError(c, err)
		return
	}

	if changed == 0 {
		c.String(http.StatusOK, msgUselessCall)
		return
	}
	c.String(http.StatusOK, msgFieldsUpdated, changed)
}

// FindByName handles the HTTP GET request searching products by name.
func (pc *ProductController) FindByName(c *gin.Context) {
	name, ok := c.GetQuery("nome")
	if !ok {
		c.String(http.StatusBadRequest, msgMissingNameParameter)
		return
	}

	products, err := pc.productService.FindByName(c.Request.Context(), name)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, products)
}

// DeleteByStock handles the HTTP DELETE request removing every product with at most qnt units.
func (pc *ProductController) DeleteByStock(c *gin.Context) {
	qnt, ok := pathQuantity(c)
	if !ok {
		return
	}

	deleted, err := pc.productService.DeleteByStockAtMost(c.Request.Context(), qnt)
	if err != nil {
		handleError(c, err)
		return
	}

	if deleted == 0 {
		c.String(http.StatusNotFound, msgNoProductWithStock, qnt)
		return
	}
	c.String(http.StatusOK, msgProductsDeleted, deleted)
}

// CountByStock handles the HTTP PATCH request counting products with at most qnt units.
func (pc *ProductController) CountByStock(c *gin.Context) {
	qnt, ok := pathQuantity(c)
	if !ok {
		return
	}

	count, err := pc.productService.CountByStockAtMost(c.Request.Context(), qnt)
	if err != nil {
		handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, count)
}

func pathID(c *gin.Context) (int64, bool) {
	idParam := c.Param("id")
	id, err := strconv.ParseInt(idParam, 10, 64)
	if err != nil {
		c.String(http.StatusBadRequest, msgInvalidID, idParam)
		return 0, false
	}
	return id, true
}

func pathQuantity(c *gin.Context) (int, bool) {
	qntParam := c.Param("qnt")
	qnt, err := strconv.ParseInt(qntParam, 10, 32)
	if err != nil {
		c.String(http.StatusBadRequest, msgInvalidQuantity, qntParam)
		return 0, false
	}
	return int(qnt), true
}
