package http

import (
	"net/http"
	"strconv"

	"quartermaster-service/internal/models"
	"quartermaster-service/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type RequestHandler struct {
	svc service.RequestService
	log *zap.Logger
}

func NewRequestHandler(svc service.RequestService, log *zap.Logger) *RequestHandler {
	return &RequestHandler{svc: svc, log: log}
}

func (h *RequestHandler) Create(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
		return
	}

	in := service.CreateRequestInput{}
	for _, l := range body.Lines {
		var reason *string
		if l.ReplacementReason != "" {
			r := l.ReplacementReason
			reason = &r
		}
		in.Lines = append(in.Lines, service.RequestLineInput{
			ItemTypeID:        l.ItemTypeID,
			RequestedSizeID:   l.RequestedSizeID,
			Quantity:          l.Quantity,
			ReplacementReason: reason,
		})
	}

	req, err := h.svc.Create(c.Request.Context(), in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, req)
}

func (h *RequestHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request id"))
		return
	}
	req, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *RequestHandler) List(c *gin.Context) {
	f := service.RequestListFilter{Limit: 50}
	if v := c.Query("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Limit = n
		}
	}
	if v := c.Query("offset"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			f.Offset = n
		}
	}
	if v := c.Query("status"); v != "" {
		st := models.RequestStatus(v)
		f.Status = &st
	}
	if v := c.Query("requested_by"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewValidationError("invalid requested_by"))
			return
		}
		f.RequestedBy = &id
	}

	list, total, err := h.svc.List(c.Request.Context(), f)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"requests": list, "total": total})
}

func (h *RequestHandler) SetStatus(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request id"))
		return
	}
	var body SetRequestStatusBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
		return
	}

	req, err := h.svc.SetStatus(c.Request.Context(), id, models.RequestStatus(body.Status))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *RequestHandler) ResolveLine(c *gin.Context) {
	requestID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request id"))
		return
	}
	lineID, err := uuid.Parse(c.Param("lineID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid line id"))
		return
	}
	var body ResolveLineBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
		return
	}

	req, err := h.svc.ResolveLine(c.Request.Context(), requestID, lineID, body.SizeID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, req)
}

func (h *RequestHandler) Fulfill(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, NewValidationError("invalid request id"))
		return
	}
	var body FulfillBody
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, NewValidationError("invalid request body"))
			return
		}
	}

	req, err := h.svc.Fulfill(c.Request.Context(), id, body.PickupSignature)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, req)
}
