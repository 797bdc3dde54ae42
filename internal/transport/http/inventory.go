package http

import (
	"net/http"
	"strconv"

	"quartermaster-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type InventoryHandler struct {
	svc service.InventoryService
	log *zap.Logger
}

func NewInventoryHandler(svc service.InventoryService, log *zap.Logger) *InventoryHandler {
	return &InventoryHandler{svc: svc, log: log}
}

func (h *InventoryHandler) GetStock(c *gin.Context) {
	sizeID, err := uuid.Parse(c.Param("sizeID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid size id"))
		return
	}
	view, err := h.svc.GetStock(c.Request.Context(), sizeID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *InventoryHandler) Adjust(c *gin.Context) {
	var body AdjustBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
		return
	}

	view, audit, err := h.svc.Adjust(c.Request.Context(), service.AdjustInput{
		SizeID: body.SizeID,
		Delta:  body.Delta,
		Reason: body.Reason,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"stock": view, "audit": audit})
}

func (h *InventoryHandler) LowStock(c *gin.Context) {
	rows, err := h.svc.LowStock(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": rows})
}

func (h *InventoryHandler) Audits(c *gin.Context) {
	sizeID, err := uuid.Parse(c.Param("sizeID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid size id"))
		return
	}
	limit := 50
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	audits, err := h.svc.Audits(c.Request.Context(), sizeID, limit)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"audits": audits})
}
