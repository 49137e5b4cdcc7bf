package controller

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/iyhunko/inventory-service/internal/serviceerrors"
)

const msgInternalError = "Erro interno do servidor"

// Route binds a handler to a method and a path relative to the group it is mounted on.
type Route struct {
	Method  string
	Path    string
	Handler gin.HandlerFunc
}

// Controller handles general HTTP requests.
type Controller struct{}

// New creates a new Controller.
func New() *Controller {
	return &Controller{}
}

// Ping handles the HTTP GET request for health check endpoint.
func (con *Controller) Ping(c *gin.Context) {
	c.JSON(200, gin.H{
		"message": "pong",
	})
}

// handleError writes the response for an error returned by the service layer.
func handleError(c *gin.Context, err error) {
	var svcErr *serviceerrors.ServiceError
	if errors.As(err, &svcErr) {
		switch svcErr.Kind {
		case serviceerrors.KindValidation:
			c.JSON(http.StatusBadRequest, svcErr.Fields)
			return
		case serviceerrors.KindNotFound:
			c.String(http.StatusNotFound, svcErr.Message)
			return
		case serviceerrors.KindBadRequest:
			c.String(http.StatusBadRequest, svcErr.Message)
			return
		}
	}

	slog.ErrorContext(c.Request.Context(), "request failed",
		slog.Any("err", err),
		slog.String("method", c.Request.Method),
		slog.String("path", c.Request.URL.Path),
	)
	_ = c.Error(err)
	c.String(http.StatusInternalServerError, msgInternalError)
}
