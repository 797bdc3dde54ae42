package service_test

import (
	"context"
	"sync"
	"testing"

	"quartermaster-service/internal/migrate"
	"quartermaster-service/internal/models"
	"quartermaster-service/internal/repository"
	"quartermaster-service/internal/service"
	"quartermaster-service/internal/testutil"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// recordingBus captures published events for assertions.
type recordingBus struct {
	mu        sync.Mutex
	fulfilled []service.RequestFulfilledEvent
	received  []service.PurchaseOrderReceivedEvent
	lowStock  []service.LowStockEvent
}

func (b *recordingBus) PublishRequestFulfilled(_ context.Context, e service.RequestFulfilledEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.fulfilled = append(b.fulfilled, e)
	return nil
}

func (b *recordingBus) PublishPurchaseOrderReceived(_ context.Context, e service.PurchaseOrderReceivedEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.received = append(b.received, e)
	return nil
}

func (b *recordingBus) PublishLowStock(_ context.Context, e service.LowStockEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lowStock = append(b.lowStock, e)
	return nil
}

type harness struct {
	repo *repository.Repository
	bus  *recordingBus

	requests    service.RequestService
	inventory   service.InventoryService
	grants      service.GrantService
	procurement service.ProcurementService
	issued      service.IssuedItemService

	memberID uuid.UUID
	staffID  uuid.UUID
	adminID  uuid.UUID
}

func setup(t *testing.T) *harness {
	t.Helper()
	db := testutil.SetupTestPostgres(t)
	if err := migrate.MigrateQuartermasterDB(context.Background(), db, zap.NewNop(), migrate.DefaultMigrateOptions()); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	repo := repository.New(db)
	bus := &recordingBus{}

	return &harness{
		repo:        repo,
		bus:         bus,
		requests:    service.NewRequestService(repo, bus),
		inventory:   service.NewInventoryService(repo, bus),
		grants:      service.NewGrantService(repo),
		procurement: service.NewProcurementService(repo, bus),
		issued:      service.NewIssuedItemService(repo, bus),
		memberID:    uuid.New(),
		staffID:     uuid.New(),
		adminID:     uuid.New(),
	}
}

func (h *harness) memberCtx() context.Context {
	ctx := service.WithUserID(context.Background(), h.memberID)
	return service.WithRole(ctx, service.RoleTeamMember)
}

func (h *harness) staffCtx() context.Context {
	ctx := service.WithUserID(context.Background(), h.staffID)
	return service.WithRole(ctx, service.RoleWarehouseStaff)
}

func (h *harness) adminCtx() context.Context {
	ctx := service.WithUserID(context.Background(), h.adminID)
	return service.WithRole(ctx, service.RoleWarehouseAdmin)
}

// seedSize creates a catalog chain and returns (itemTypeID, sizeID).
func (h *harness) seedSize(t *testing.T, parLevel int32) (uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := context.Background()

	cat := &models.Category{Name: "Footwear-" + uuid.NewString()}
	if err := h.repo.Catalog.CreateCategory(ctx, cat); err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}
	it := &models.ItemType{CategoryID: cat.ID, Name: "Boots", ParLevel: parLevel}
	if err := h.repo.Catalog.CreateItemType(ctx, it); err != nil {
		t.Fatalf("CreateItemType: %v", err)
	}
	v := &models.Variant{ItemTypeID: it.ID, Name: "Wildland"}
	if err := h.repo.Catalog.CreateVariant(ctx, v); err != nil {
		t.Fatalf("CreateVariant: %v", err)
	}
	s := &models.Size{VariantID: v.ID, Label: "10", IsActive: true}
	if err := h.repo.Catalog.CreateSize(ctx, s); err != nil {
		t.Fatalf("CreateSize: %v", err)
	}
	return it.ID, s.ID
}

// seedStock sets on-hand for a size through the staff adjust path.
func (h *harness) seedStock(t *testing.T, sizeID uuid.UUID, qty int32) {
	t.Helper()
	if _, _, err := h.inventory.Adjust(h.staffCtx(), service.AdjustInput{SizeID: sizeID, Delta: qty}); err != nil {
		t.Fatalf("seed stock: %v", err)
	}
}

func (h *harness) seedVendor(t *testing.T) uuid.UUID {
	t.Helper()
	v := &models.Vendor{Name: "Acme Outfitters", Email: "sales@acme.test"}
	if err := h.repo.Vendors.Create(context.Background(), v); err != nil {
		t.Fatalf("seed vendor: %v", err)
	}
	return v.ID
}

func (h *harness) stock(t *testing.T, sizeID uuid.UUID) *models.InventoryRecord {
	t.Helper()
	rec, err := h.repo.Inventory.Get(context.Background(), sizeID)
	if err != nil {
		t.Fatalf("get stock: %v", err)
	}
	if rec == nil {
		return &models.InventoryRecord{SizeID: sizeID}
	}
	return rec
}
