package http

import (
	"net/http"

	"quartermaster-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ProcurementHandler struct {
	svc service.ProcurementService
	log *zap.Logger
}

func NewProcurementHandler(svc service.ProcurementService, log *zap.Logger) *ProcurementHandler {
	return &ProcurementHandler{svc: svc, log: log}
}

func (h *ProcurementHandler) CreateQuoteRequest(c *gin.Context) {
	var body CreateQuoteRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
		return
	}

	in := service.CreateQuoteRequestInput{GrantSourceID: body.GrantSourceID}
	for _, l := range body.Lines {
		in.Lines = append(in.Lines, service.QuoteRequestLineInput{
			SizeID:           l.SizeID,
			Description:      l.Description,
			Quantity:         l.Quantity,
			EstUnitCostCents: l.EstUnitCostCents,
		})
	}

	qr, err := h.svc.CreateQuoteRequest(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, qr)
}

func (h *ProcurementHandler) GetQuoteRequest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid quote request id"))
		return
	}
	qr, err := h.svc.GetQuoteRequest(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, qr)
}

func (h *ProcurementHandler) SendQuoteRequest(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid quote request id"))
		return
	}
	qr, err := h.svc.SendQuoteRequest(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, qr)
}

func (h *ProcurementHandler) AddVendorQuote(c *gin.Context) {
	var body AddVendorQuoteBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
		return
	}

	in := service.AddVendorQuoteInput{
		QuoteRequestID: body.QuoteRequestID,
		VendorID:       body.VendorID,
		ShippingCents:  body.ShippingCents,
	}
	for _, l := range body.Lines {
		in.Lines = append(in.Lines, service.VendorQuoteLineInput{
			QuoteRequestLineID: l.QuoteRequestLineID,
			SizeID:             l.SizeID,
			Quantity:           l.Quantity,
			UnitPriceCents:     l.UnitPriceCents,
		})
	}

	vq, err := h.svc.AddVendorQuote(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, vq)
}

func (h *ProcurementHandler) SelectQuote(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid vendor quote id"))
		return
	}
	qr, err := h.svc.SelectQuote(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, qr)
}

func (h *ProcurementHandler) Approve(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid quote request id"))
		return
	}
	var body ApproveQuoteRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
		return
	}
	res, err := h.svc.Approve(c.Request.Context(), id, body.VendorQuoteID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ProcurementHandler) Deny(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid quote request id"))
		return
	}
	qr, err := h.svc.Deny(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, qr)
}

func (h *ProcurementHandler) Convert(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid quote request id"))
		return
	}
	po, err := h.svc.Convert(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, po)
}

func (h *ProcurementHandler) GetPurchaseOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid purchase order id"))
		return
	}
	po, err := h.svc.GetPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

func (h *ProcurementHandler) Receive(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid purchase order id"))
		return
	}
	var body ReceiveBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
		return
	}

	receipts := make([]service.ReceiptInput, 0, len(body.Receipts))
	for _, r := range body.Receipts {
		receipts = append(receipts, service.ReceiptInput{LineID: r.LineID, Quantity: r.Quantity})
	}

	po, err := h.svc.Receive(c.Request.Context(), id, receipts)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, po)
}

func (h *ProcurementHandler) CancelPurchaseOrder(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid purchase order id"))
		return
	}
	po, err := h.svc.CancelPurchaseOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, po)
}
