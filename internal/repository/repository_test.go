package repository_test

import (
	"context"
	"testing"

	"quartermaster-service/internal/migrate"
	"quartermaster-service/internal/models"
	"quartermaster-service/internal/repository"
	"quartermaster-service/internal/testutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db := testutil.SetupTestPostgres(t)
	if err := migrate.MigrateQuartermasterDB(context.Background(), db, zap.NewNop(), migrate.DefaultMigrateOptions()); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

// seedSize creates the full catalog chain and returns the size id.
func seedSize(t *testing.T, repo *repository.Repository, parLevel int32) uuid.UUID {
	t.Helper()
	ctx := context.Background()

	cat := &models.Category{Name: "Cat-" + uuid.NewString()}
	if err := repo.Catalog.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	it := &models.ItemType{CategoryID: cat.ID, Name: "Boots", ParLevel: parLevel}
	if err := repo.Catalog.CreateItemType(ctx, it); err != nil {
		t.Fatalf("CreateItemType: %v", err)
	}
	v := &models.Variant{ItemTypeID: it.ID, Name: "Standard"}
	if err := repo.Catalog.CreateVariant(ctx, v); err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}
	s := &models.Size{VariantID: v.ID, Label: "10", IsActive: true}
	if err := repo.Catalog.CreateSize(ctx, s); err != nil {
		t.Fatalf("CreateSize: %v", err)
	}
	return s.ID
}

func TestInventoryRepo_Guards(t *testing.T) {
	db := setupDB(t)
	repo := repository.New(db)
	ctx := context.Background()

	sizeID := seedSize(t, repo, 0)
	if err := repo.Inventory.EnsureRow(ctx, sizeID); err != nil {
		t.Fatalf("EnsureRow: %v", err)
	}

	// AddOnHand from zero
	onHand, err := repo.Inventory.AddOnHand(ctx, sizeID, 10)
	if err != nil {
		t.Fatalf("AddOnHand: %v", err)
	}
	if onHand != 10 {
		t.Fatalf("expected on_hand=10, got %d", onHand)
	}

	// Reserve within available
	ok, err := repo.Inventory.Reserve(ctx, sizeID, 4)
	if err != nil {
		t.Fatalf("Reserve: %v", err)
	}
	if !ok {
		t.Fatal("expected Reserve ok=true")
	}

	// Reserve more than available must fail without changing anything
	ok, err = repo.Inventory.Reserve(ctx, sizeID, 7)
	if err != nil {
		t.Fatalf("Reserve overflow: %v", err)
	}
	if ok {
		t.Fatal("expected Reserve ok=false for overflow")
	}

	rec, err := repo.Inventory.Get(ctx, sizeID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.OnHand != 10 || rec.Reserved != 4 {
		t.Fatalf("expected on_hand=10, reserved=4, got %+v", rec)
	}

	// Adjust may not drop on_hand below reserved
	_, ok, err = repo.Inventory.AdjustOnHand(ctx, sizeID, -7)
	if err != nil {
		t.Fatalf("AdjustOnHand: %v", err)
	}
	if ok {
		t.Fatal("expected AdjustOnHand ok=false below reserved")
	}

	// ConsumeReserved decrements both counters
	onHand, ok, err = repo.Inventory.ConsumeReserved(ctx, sizeID, 4)
	if err != nil {
		t.Fatalf("ConsumeReserved: %v", err)
	}
	if !ok || onHand != 6 {
		t.Fatalf("expected ok=true on_hand=6, got ok=%v on_hand=%d", ok, onHand)
	}

	// ConsumeReserved with nothing reserved fails
	_, ok, err = repo.Inventory.ConsumeReserved(ctx, sizeID, 1)
	if err != nil {
		t.Fatalf("ConsumeReserved empty: %v", err)
	}
	if ok {
		t.Fatal("expected ConsumeReserved ok=false with no reservation")
	}

	// TakeAvailable respects the available window
	onHand, ok, err = repo.Inventory.TakeAvailable(ctx, sizeID, 6)
	if err != nil {
		t.Fatalf("TakeAvailable: %v", err)
	}
	if !ok || onHand != 0 {
		t.Fatalf("expected ok=true on_hand=0, got ok=%v on_hand=%d", ok, onHand)
	}

	_, ok, err = repo.Inventory.TakeAvailable(ctx, sizeID, 1)
	if err != nil {
		t.Fatalf("TakeAvailable empty: %v", err)
	}
	if ok {
		t.Fatal("expected TakeAvailable ok=false when empty")
	}

	// Release with nothing reserved fails
	ok, err = repo.Inventory.Release(ctx, sizeID, 1)
	if err != nil {
		t.Fatalf("Release: %v", err)
	}
	if ok {
		t.Fatal("expected Release ok=false with no reservation")
	}
}

func TestSequenceRepo_Next(t *testing.T) {
	db := setupDB(t)
	repo := repository.New(db)
	ctx := context.Background()

	for want := int64(1); want <= 3; want++ {
		got, err := repo.Sequences.Next(ctx, models.CounterQuoteRequest)
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if got != want {
			t.Fatalf("expected %d, got %d", want, got)
		}
	}

	// Independent counters
	got, err := repo.Sequences.Next(ctx, models.CounterPurchaseOrder)
	if err != nil {
		t.Fatalf("Next PO: %v", err)
	}
	if got != 1 {
		t.Fatalf("expected PO counter to start at 1, got %d", got)
	}
}

func TestGrantRepo_AddUsed(t *testing.T) {
	db := setupDB(t)
	repo := repository.New(db)
	ctx := context.Background()

	g := &models.GrantSource{Code: "FY26-OPS", FiscalYear: 2026, TotalBudgetCents: 10_000, IsActive: true}
	if err := repo.Grants.Create(ctx, g); err != nil {
		t.Fatalf("Create: %v", err)
	}

	used, ok, err := repo.Grants.AddUsed(ctx, g.ID, 4_000)
	if err != nil {
		t.Fatalf("AddUsed: %v", err)
	}
	if !ok || used != 4_000 {
		t.Fatalf("expected used=4000, got ok=%v used=%d", ok, used)
	}

	// Overrun is allowed
	used, ok, err = repo.Grants.AddUsed(ctx, g.ID, 9_000)
	if err != nil {
		t.Fatalf("AddUsed overrun: %v", err)
	}
	if !ok || used != 13_000 {
		t.Fatalf("expected used=13000, got ok=%v used=%d", ok, used)
	}

	// Credit below zero is not
	_, ok, err = repo.Grants.AddUsed(ctx, g.ID, -20_000)
	if err != nil {
		t.Fatalf("AddUsed underflow: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false for underflow")
	}

	fresh, err := repo.Grants.GetByID(ctx, g.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if fresh.UsedBudgetCents != 13_000 {
		t.Fatalf("expected used unchanged at 13000, got %d", fresh.UsedBudgetCents)
	}
}

func TestPurchaseOrderRepo_AddReceived(t *testing.T) {
	db := setupDB(t)
	repo := repository.New(db)
	ctx := context.Background()

	sizeID := seedSize(t, repo, 0)
	vendor := &models.Vendor{Name: "Acme Outfitters"}
	if err := repo.Vendors.Create(ctx, vendor); err != nil {
		t.Fatalf("Create vendor: %v", err)
	}

	po := &models.PurchaseOrder{
		PONumber: "PO-9001",
		VendorID: vendor.ID,
		Status:   models.PurchaseOrderStatusSubmitted,
		Lines: []models.PurchaseOrderLine{
			{SizeID: sizeID, QuantityOrdered: 10, UnitCostCents: 450},
		},
	}
	if err := repo.PurchaseOrders.Create(ctx, po); err != nil {
		t.Fatalf("Create PO: %v", err)
	}
	lineID := po.Lines[0].ID

	ok, err := repo.PurchaseOrders.AddReceived(ctx, lineID, 4)
	if err != nil {
		t.Fatalf("AddReceived: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true")
	}

	// Past the ordered quantity fails
	ok, err = repo.PurchaseOrders.AddReceived(ctx, lineID, 7)
	if err != nil {
		t.Fatalf("AddReceived overflow: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false past ordered quantity")
	}

	ok, err = repo.PurchaseOrders.AddReceived(ctx, lineID, 6)
	if err != nil {
		t.Fatalf("AddReceived remainder: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true for exact remainder")
	}

	// Full line rejects any further receipt
	ok, err = repo.PurchaseOrders.AddReceived(ctx, lineID, 1)
	if err != nil {
		t.Fatalf("AddReceived full: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false on full line")
	}
}

func TestQuoteRequestRepo_SelectVendorQuote(t *testing.T) {
	db := setupDB(t)
	repo := repository.New(db)
	ctx := context.Background()

	sizeID := seedSize(t, repo, 0)
	vendor := &models.Vendor{Name: "Vendor A"}
	if err := repo.Vendors.Create(ctx, vendor); err != nil {
		t.Fatalf("Create vendor: %v", err)
	}

	qr := &models.QuoteRequest{
		RequestNumber: "QR-9001",
		Status:        models.QuoteRequestStatusQuotesReceived,
		CreatedBy:     uuid.New(),
		Lines:         []models.QuoteRequestLine{{Description: "boots", Quantity: 10}},
	}
	if err := repo.QuoteRequests.Create(ctx, qr); err != nil {
		t.Fatalf("Create QR: %v", err)
	}

	q1 := &models.VendorQuote{QuoteRequestID: qr.ID, VendorID: vendor.ID, TotalCents: 5_500,
		Lines: []models.VendorQuoteLine{{SizeID: sizeID, Quantity: 10, UnitPriceCents: 450}}}
	q2 := &models.VendorQuote{QuoteRequestID: qr.ID, VendorID: vendor.ID, TotalCents: 6_000,
		Lines: []models.VendorQuoteLine{{SizeID: sizeID, Quantity: 10, UnitPriceCents: 500}}}
	for _, q := range []*models.VendorQuote{q1, q2} {
		if err := repo.QuoteRequests.CreateVendorQuote(ctx, q); err != nil {
			t.Fatalf("CreateVendorQuote: %v", err)
		}
	}

	err := repo.WithTx(func(tx *repository.Repository) error {
		return tx.QuoteRequests.SelectVendorQuote(ctx, qr.ID, q1.ID)
	})
	if err != nil {
		t.Fatalf("SelectVendorQuote q1: %v", err)
	}

	// Swap to q2; q1 must be deselected
	err = repo.WithTx(func(tx *repository.Repository) error {
		return tx.QuoteRequests.SelectVendorQuote(ctx, qr.ID, q2.ID)
	})
	if err != nil {
		t.Fatalf("SelectVendorQuote q2: %v", err)
	}

	sel, err := repo.QuoteRequests.SelectedVendorQuote(ctx, qr.ID)
	if err != nil {
		t.Fatalf("SelectedVendorQuote: %v", err)
	}
	if sel == nil || sel.ID != q2.ID {
		t.Fatalf("expected q2 selected, got %+v", sel)
	}

	g1, err := repo.QuoteRequests.GetVendorQuote(ctx, q1.ID)
	if err != nil {
		t.Fatalf("GetVendorQuote q1: %v", err)
	}
	if g1.IsSelected {
		t.Fatal("expected q1 deselected after swap")
	}
}

func TestIssuedItemRepo_ReduceQuantity(t *testing.T) {
	db := setupDB(t)
	repo := repository.New(db)
	ctx := context.Background()

	sizeID := seedSize(t, repo, 0)
	item := &models.IssuedItem{UserID: uuid.New(), SizeID: sizeID, Quantity: 5}
	if err := repo.IssuedItems.Create(ctx, item); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ok, err := repo.IssuedItems.ReduceQuantity(ctx, item.ID, 2)
	if err != nil {
		t.Fatalf("ReduceQuantity: %v", err)
	}
	if !ok {
		t.Fatal("expected ok=true")
	}

	got, _ := repo.IssuedItems.GetByID(ctx, item.ID)
	if got.Quantity != 3 {
		t.Fatalf("expected quantity=3, got %d", got.Quantity)
	}

	// Reducing to zero or below must fail; full returns go through Close.
	ok, err = repo.IssuedItems.ReduceQuantity(ctx, item.ID, 3)
	if err != nil {
		t.Fatalf("ReduceQuantity full: %v", err)
	}
	if ok {
		t.Fatal("expected ok=false when reducing to zero")
	}

	if err := repo.IssuedItems.Close(ctx, item.ID, models.ReturnConditionServiceable); err != nil {
		t.Fatalf("Close: %v", err)
	}
	closed, _ := repo.IssuedItems.GetByID(ctx, item.ID)
	if closed.ReturnedAt == nil || closed.ReturnCondition == nil {
		t.Fatalf("expected closed item, got %+v", closed)
	}

	open, err := repo.IssuedItems.ListOpen(ctx, nil)
	if err != nil {
		t.Fatalf("ListOpen: %v", err)
	}
	for _, it := range open {
		if it.ID == item.ID {
			t.Fatal("closed item must not be listed as open")
		}
	}
}

func TestRepository_WithTx_Rollback(t *testing.T) {
	db := setupDB(t)
	repo := repository.New(db)
	ctx := context.Background()

	sizeID := seedSize(t, repo, 0)
	if err := repo.Inventory.EnsureRow(ctx, sizeID); err != nil {
		t.Fatalf("EnsureRow: %v", err)
	}
	if _, err := repo.Inventory.AddOnHand(ctx, sizeID, 10); err != nil {
		t.Fatalf("AddOnHand: %v", err)
	}

	err := repo.WithTx(func(tx *repository.Repository) error {
		ok, err := tx.Inventory.Reserve(ctx, sizeID, 5)
		if err != nil {
			return err
		}
		if !ok {
			t.Fatal("Reserve failed in tx")
		}
		return gorm.ErrInvalidTransaction
	})
	if err == nil {
		t.Fatal("expected error from WithTx")
	}

	rec, _ := repo.Inventory.Get(ctx, sizeID)
	if rec.OnHand != 10 || rec.Reserved != 0 {
		t.Fatalf("expected rollback to on_hand=10 reserved=0, got %+v", rec)
	}
}

func TestRequestRepo_StatusCompareAndSwap(t *testing.T) {
	db := setupDB(t)
	repo := repository.New(db)
	ctx := context.Background()

	req := &models.GearRequest{RequestedBy: uuid.New(), Status: models.RequestStatusPending}
	if err := repo.Requests.Create(ctx, req); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Swap from a status the request is not in must miss
	ok, err := repo.Requests.UpdateStatus(ctx, req.ID, models.RequestStatusApproved, models.RequestStatusReadyForPickup)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if ok {
		t.Fatal("expected miss for wrong expected status")
	}
	fresh, _ := repo.Requests.GetByID(ctx, req.ID)
	if fresh.Status != models.RequestStatusPending {
		t.Fatalf("expected Pending untouched, got %s", fresh.Status)
	}

	ok, err = repo.Requests.UpdateStatus(ctx, req.ID, models.RequestStatusPending, models.RequestStatusApproved)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if !ok {
		t.Fatal("expected hit for matching status")
	}

	// MarkFulfilled only fires from ReadyForPickup
	staff := uuid.New()
	ok, err = repo.Requests.MarkFulfilled(ctx, req.ID, staff, nil)
	if err != nil {
		t.Fatalf("MarkFulfilled: %v", err)
	}
	if ok {
		t.Fatal("expected miss fulfilling an Approved request")
	}

	if _, err := repo.Requests.UpdateStatus(ctx, req.ID, models.RequestStatusApproved, models.RequestStatusReadyForPickup); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	ok, err = repo.Requests.MarkFulfilled(ctx, req.ID, staff, nil)
	if err != nil {
		t.Fatalf("MarkFulfilled: %v", err)
	}
	if !ok {
		t.Fatal("expected hit from ReadyForPickup")
	}

	// A second fulfill misses on the already-terminal row
	ok, err = repo.Requests.MarkFulfilled(ctx, req.ID, staff, nil)
	if err != nil {
		t.Fatalf("MarkFulfilled again: %v", err)
	}
	if ok {
		t.Fatal("expected miss on a fulfilled request")
	}

	fresh, _ = repo.Requests.GetByID(ctx, req.ID)
	if fresh.Status != models.RequestStatusFulfilled || fresh.FulfilledAt == nil {
		t.Fatalf("expected fulfilled with timestamp, got %+v", fresh)
	}
}

func TestQuoteRequestRepo_StatusCompareAndSwap(t *testing.T) {
	db := setupDB(t)
	repo := repository.New(db)
	ctx := context.Background()

	qr := &models.QuoteRequest{RequestNumber: "QR-9100", Status: models.QuoteRequestStatusDraft, CreatedBy: uuid.New()}
	if err := repo.QuoteRequests.Create(ctx, qr); err != nil {
		t.Fatalf("Create: %v", err)
	}

	ok, err := repo.QuoteRequests.UpdateStatus(ctx, qr.ID, models.QuoteRequestStatusQuotesReceived, models.QuoteRequestStatusApproved)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if ok {
		t.Fatal("expected miss for wrong expected status")
	}

	ok, err = repo.QuoteRequests.UpdateStatus(ctx, qr.ID, models.QuoteRequestStatusDraft, models.QuoteRequestStatusSent)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if !ok {
		t.Fatal("expected hit for matching status")
	}

	fresh, _ := repo.QuoteRequests.GetByID(ctx, qr.ID)
	if fresh.Status != models.QuoteRequestStatusSent {
		t.Fatalf("expected Sent, got %s", fresh.Status)
	}
}

func TestPurchaseOrderRepo_StatusCompareAndSwap(t *testing.T) {
	db := setupDB(t)
	repo := repository.New(db)
	ctx := context.Background()

	vendor := &models.Vendor{Name: "Vendor CAS"}
	if err := repo.Vendors.Create(ctx, vendor); err != nil {
		t.Fatalf("Create vendor: %v", err)
	}
	po := &models.PurchaseOrder{PONumber: "PO-9100", VendorID: vendor.ID, Status: models.PurchaseOrderStatusSubmitted}
	if err := repo.PurchaseOrders.Create(ctx, po); err != nil {
		t.Fatalf("Create PO: %v", err)
	}

	ok, err := repo.PurchaseOrders.UpdateStatus(ctx, po.ID, models.PurchaseOrderStatusPartialReceived, models.PurchaseOrderStatusReceived)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if ok {
		t.Fatal("expected miss for wrong expected status")
	}

	ok, err = repo.PurchaseOrders.UpdateStatus(ctx, po.ID, models.PurchaseOrderStatusSubmitted, models.PurchaseOrderStatusCancelled)
	if err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}
	if !ok {
		t.Fatal("expected hit for matching status")
	}

	fresh, _ := repo.PurchaseOrders.GetByID(ctx, po.ID)
	if fresh.Status != models.PurchaseOrderStatusCancelled {
		t.Fatalf("expected Cancelled, got %s", fresh.Status)
	}
}
