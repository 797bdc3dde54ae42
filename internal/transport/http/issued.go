package http

import (
	"net/http"

	"quartermaster-service/internal/models"
	"quartermaster-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type IssuedItemHandler struct {
	svc service.IssuedItemService
	log *zap.Logger
}

func NewIssuedItemHandler(svc service.IssuedItemService, log *zap.Logger) *IssuedItemHandler {
	return &IssuedItemHandler{svc: svc, log: log}
}

func (h *IssuedItemHandler) Issue(c *gin.Context) {
	var body IssueBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
		return
	}
	item, err := h.svc.Issue(c.Request.Context(), service.IssueInput{
		UserID:   body.UserID,
		SizeID:   body.SizeID,
		Quantity: body.Quantity,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, item)
}

func (h *IssuedItemHandler) ListOpen(c *gin.Context) {
	var userID *uuid.UUID
	if v := c.Query("user_id"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewValidationError("invalid user_id"))
			return
		}
		userID = &id
	}
	items, err := h.svc.ListOpen(c.Request.Context(), userID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

func (h *IssuedItemHandler) Return(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid issued item id"))
		return
	}
	var body ReturnBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
		return
	}
	item, err := h.svc.Return(c.Request.Context(), service.ReturnInput{
		IssuedItemID: id,
		Quantity:     body.Quantity,
		Condition:    models.ReturnCondition(body.Condition),
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, item)
}
