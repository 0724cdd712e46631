package catalog

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/garage-api/internal/handler"
	"github.com/jwalitptl/garage-api/internal/model"
	"github.com/jwalitptl/garage-api/internal/service/catalog"
)

type Handler struct {
	service *catalog.Service
}

func NewHandler(service *catalog.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) CreateOperation(c *gin.Context) {
	var req model.CreateOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	op, err := h.service.CreateOperation(c.Request.Context(), &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusCreated, handler.NewSuccessResponse(op))
}

func (h *Handler) GetOperation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid operation ID"))
		return
	}

	op, err := h.service.GetOperation(c.Request.Context(), id)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(op))
}

func (h *Handler) UpdateOperation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid operation ID"))
		return
	}

	var req model.UpdateOperationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	op, err := h.service.UpdateOperation(c.Request.Context(), id, &req)
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(op))
}

func (h *Handler) DeleteOperation(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid operation ID"))
		return
	}

	if err := h.service.DeleteOperation(c.Request.Context(), id); err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(nil))
}

func (h *Handler) ListOperations(c *gin.Context) {
	operations, err := h.service.ListOperations(c.Request.Context())
	if err != nil {
		c.Error(err)
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(operations))
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	operations := r.Group("/operations")
	{
		operations.POST("", h.CreateOperation)
		operations.GET("", h.ListOperations)
		operations.GET("/:id", h.GetOperation)
		operations.PUT("/:id", h.UpdateOperation)
		operations.DELETE("/:id", h.DeleteOperation)
	}
}
