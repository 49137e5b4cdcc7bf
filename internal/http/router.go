package http

import (
	"github.com/gin-gonic/gin"
	"github.com/iyhunko/inventory-service/internal/http/controller"
	"github.com/iyhunko/inventory-service/internal/http/middleware"
)

// ProductsBasePath is the group every product route is mounted on.
const ProductsBasePath = "/api/produtos"

func InitRouter(server *gin.Engine, ctr *controller.Controller, productCtr *controller.ProductController) *gin.Engine {
	// Apply recovery middleware globally to prevent panics from crashing the server
	server.Use(middleware.Recovery())
	server.Use(middleware.CORS())
	server.Use(middleware.Logger())
	server.Use(middleware.Metrics())

	server.GET("/ping", ctr.Ping)

	products := server.Group(ProductsBasePath)
	for _, route := range productCtr.Routes() {
		products.Handle(route.Method, route.Path, route.Handler)
	}

	return server
}
