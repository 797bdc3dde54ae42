package http

import (
	"net/http"
	"strconv"

	"quartermaster-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type GrantHandler struct {
	svc service.GrantService
	log *zap.Logger
}

func NewGrantHandler(svc service.GrantService, log *zap.Logger) *GrantHandler {
	return &GrantHandler{svc: svc, log: log}
}

func (h *GrantHandler) Create(c *gin.Context) {
	var body CreateGrantBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
		return
	}
	g, err := h.svc.Create(c.Request.Context(), service.CreateGrantInput{
		Code:             body.Code,
		FiscalYear:       body.FiscalYear,
		TotalBudgetCents: body.TotalBudgetCents,
	})
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, g)
}

func (h *GrantHandler) List(c *gin.Context) {
	var fiscalYear *int
	if v := c.Query("fiscal_year"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewValidationError("invalid fiscal_year"))
			return
		}
		fiscalYear = &n
	}
	list, err := h.svc.Summary(c.Request.Context(), fiscalYear)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"grants": list})
}

func (h *GrantHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid grant id"))
		return
	}
	g, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, g)
}

func (h *GrantHandler) Adjust(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid grant id"))
		return
	}
	var body AdjustGrantBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
		return
	}

	var g *service.GrantSummary
	switch body.Op {
	case "debit":
		g, err = h.svc.Debit(c.Request.Context(), id, body.AmountCents)
	case "credit":
		g, err = h.svc.Credit(c.Request.Context(), id, body.AmountCents)
	case "set":
		g, err = h.svc.SetUsed(c.Request.Context(), id, body.AmountCents)
	default:
		c.JSON(http.StatusBadRequest, NewValidationError("op must be debit, credit or set"))
		return
	}
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, g)
}
