package http

import (
	"quartermaster-service/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Services struct {
	Requests    service.RequestService
	Inventory   service.InventoryService
	Grants      service.GrantService
	Procurement service.ProcurementService
	IssuedItems service.IssuedItemService
}

func Router(s Services, log *zap.Logger) *gin.Engine {
	r := gin.Default()

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", HeaderUserID, HeaderRole},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	requests := NewRequestHandler(s.Requests, log)
	inventory := NewInventoryHandler(s.Inventory, log)
	grants := NewGrantHandler(s.Grants, log)
	procurement := NewProcurementHandler(s.Procurement, log)
	issued := NewIssuedItemHandler(s.IssuedItems, log)

	api := r.Group("/", Identity())

	api.POST("/requests", requests.Create)
	api.GET("/requests", requests.List)
	api.GET("/requests/:id", requests.Get)
	api.PUT("/requests/:id/status", requests.SetStatus)
	api.PUT("/requests/:id/lines/:lineID", requests.ResolveLine)
	api.POST("/requests/:id/fulfill", requests.Fulfill)

	api.POST("/inventory/adjust", inventory.Adjust)
	api.GET("/inventory/low-stock", inventory.LowStock)
	api.GET("/inventory/:sizeID", inventory.GetStock)
	api.GET("/inventory/:sizeID/audits", inventory.Audits)

	api.POST("/grants", grants.Create)
	api.GET("/grants", grants.List)
	api.GET("/grants/:id", grants.Get)
	api.POST("/grants/:id/adjust", grants.Adjust)

	api.POST("/quoteRequests", procurement.CreateQuoteRequest)
	api.GET("/quoteRequests/:id", procurement.GetQuoteRequest)
	api.POST("/quoteRequests/:id/send", procurement.SendQuoteRequest)
	api.POST("/quoteRequests/:id/approve", procurement.Approve)
	api.POST("/quoteRequests/:id/deny", procurement.Deny)
	api.POST("/quoteRequests/:id/convert", procurement.Convert)

	api.POST("/vendorQuotes", procurement.AddVendorQuote)
	api.POST("/vendorQuotes/:id/select", procurement.SelectQuote)

	api.GET("/purchaseOrders/:id", procurement.GetPurchaseOrder)
	api.POST("/purchaseOrders/:id/receive", procurement.Receive)
	api.POST("/purchaseOrders/:id/cancel", procurement.CancelPurchaseOrder)

	api.POST("/issuedItems", issued.Issue)
	api.GET("/issuedItems", issued.ListOpen)
	api.POST("/issuedItems/:id/return", issued.Return)

	return r
}
