package repository

import "gorm.io/gorm"

type Repository struct {
	DB             *gorm.DB
	Catalog        CatalogRepo
	Vendors        VendorRepo
	Inventory      InventoryRepo
	Requests       RequestRepo
	Grants         GrantRepo
	QuoteRequests  QuoteRequestRepo
	PurchaseOrders PurchaseOrderRepo
	IssuedItems    IssuedItemRepo
	Sequences      SequenceRepo
}

func buildRepository(db *gorm.DB) *Repository {
	return &Repository{
		DB:             db,
		Catalog:        NewCatalogRepo(db),
		Vendors:        NewVendorRepo(db),
		Inventory:      NewInventoryRepo(db),
		Requests:       NewRequestRepo(db),
		Grants:         NewGrantRepo(db),
		QuoteRequests:  NewQuoteRequestRepo(db),
		PurchaseOrders: NewPurchaseOrderRepo(db),
		IssuedItems:    NewIssuedItemRepo(db),
		Sequences:      NewSequenceRepo(db),
	}
}

func New(db *gorm.DB) *Repository { return buildRepository(db) }

// WithTx runs fn with every repo rebound to one transaction. Any error rolls
// back all writes of the call.
func (r *Repository) WithTx(fn func(tx *Repository) error) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		return fn(buildRepository(tx))
	})
}
