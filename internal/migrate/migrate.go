package migrate

import (
	"context"

	"quartermaster-service/internal/models"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

type MigrateOptions struct {
	CreateExtensions       bool // pgcrypto
	CreateChecks           bool // CHECK constraints for statuses and quantities
	CreateIndexes          bool // indexes and UNIQUE
	CreateFKsViaSQL        bool // FKs via SQL on top of GORM constraints
	CreateUpdatedAtTrigger bool // updated_at trigger
}

func DefaultMigrateOptions() MigrateOptions {
	return MigrateOptions{
		CreateExtensions:       true,
		CreateChecks:           true,
		CreateIndexes:          true,
		CreateFKsViaSQL:        true,
		CreateUpdatedAtTrigger: true,
	}
}

func MigrateQuartermasterDB(ctx context.Context, db *gorm.DB, log *zap.Logger, opt MigrateOptions) error {
	log.Info("starting quartermaster schema migration")

	if opt.CreateExtensions {
		if err := db.WithContext(ctx).Exec(`CREATE EXTENSION IF NOT EXISTS pgcrypto`).Error; err != nil {
			log.Error("enable pgcrypto failed", zap.Error(err))
			return err
		}
	}

	log.Info("creating tables")
	if err := db.WithContext(ctx).AutoMigrate(
		&models.Category{},
		&models.ItemType{},
		&models.Variant{},
		&models.Size{},
		&models.InventoryRecord{},
		&models.StockAudit{},
		&models.GearRequest{},
		&models.GearRequestLine{},
		&models.GrantSource{},
		&models.QuoteRequest{},
		&models.QuoteRequestLine{},
		&models.Vendor{},
		&models.VendorQuote{},
		&models.VendorQuoteLine{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderLine{},
		&models.IssuedItem{},
		&models.Counter{},
	); err != nil {
		log.Error("auto migrate failed", zap.Error(err))
		return err
	}

	if opt.CreateUpdatedAtTrigger {
		if err := db.WithContext(ctx).Exec(`
CREATE OR REPLACE FUNCTION set_updated_at() RETURNS trigger AS $$
BEGIN NEW.updated_at = now(); RETURN NEW; END; $$ LANGUAGE plpgsql;

DROP TRIGGER IF EXISTS trg_gear_requests_updated ON gear_requests;
CREATE TRIGGER trg_gear_requests_updated
BEFORE UPDATE ON gear_requests
FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS trg_quote_requests_updated ON quote_requests;
CREATE TRIGGER trg_quote_requests_updated
BEFORE UPDATE ON quote_requests
FOR EACH ROW EXECUTE FUNCTION set_updated_at();

DROP TRIGGER IF EXISTS trg_purchase_orders_updated ON purchase_orders;
CREATE TRIGGER trg_purchase_orders_updated
BEFORE UPDATE ON purchase_orders
FOR EACH ROW EXECUTE FUNCTION set_updated_at();
`).Error; err != nil {
			log.Error("create updated_at triggers failed", zap.Error(err))
			return err
		}
	}

	if opt.CreateChecks {
		log.Info("creating CHECK constraints")

		checks := []struct {
			name string
			sql  string
		}{
			{"chk_inventory_records_non_negative", `
ALTER TABLE inventory_records
  DROP CONSTRAINT IF EXISTS chk_inventory_records_non_negative;
ALTER TABLE inventory_records
  ADD CONSTRAINT chk_inventory_records_non_negative
  CHECK (reserved >= 0 AND on_hand >= reserved);`},
			{"chk_gear_requests_status_allowed", `
ALTER TABLE gear_requests
  DROP CONSTRAINT IF EXISTS chk_gear_requests_status_allowed;
ALTER TABLE gear_requests
  ADD CONSTRAINT chk_gear_requests_status_allowed
  CHECK (status IN ('REQUEST_STATUS_PENDING','REQUEST_STATUS_APPROVED','REQUEST_STATUS_BACKORDERED','REQUEST_STATUS_READY_FOR_PICKUP','REQUEST_STATUS_FULFILLED','REQUEST_STATUS_CANCELLED'));`},
			{"chk_gear_request_lines_quantity_gt_zero", `
ALTER TABLE gear_request_lines
  DROP CONSTRAINT IF EXISTS chk_gear_request_lines_quantity_gt_zero;
ALTER TABLE gear_request_lines
  ADD CONSTRAINT chk_gear_request_lines_quantity_gt_zero
  CHECK (quantity > 0 AND issued_quantity >= 0 AND reserved_quantity >= 0);`},
			{"chk_quote_requests_status_allowed", `
ALTER TABLE quote_requests
  DROP CONSTRAINT IF EXISTS chk_quote_requests_status_allowed;
ALTER TABLE quote_requests
  ADD CONSTRAINT chk_quote_requests_status_allowed
  CHECK (status IN ('QUOTE_REQUEST_STATUS_DRAFT','QUOTE_REQUEST_STATUS_SENT','QUOTE_REQUEST_STATUS_QUOTES_RECEIVED','QUOTE_REQUEST_STATUS_APPROVED','QUOTE_REQUEST_STATUS_DENIED','QUOTE_REQUEST_STATUS_CONVERTED'));`},
			{"chk_quote_request_lines_quantity_gt_zero", `
ALTER TABLE quote_request_lines
  DROP CONSTRAINT IF EXISTS chk_quote_request_lines_quantity_gt_zero;
ALTER TABLE quote_request_lines
  ADD CONSTRAINT chk_quote_request_lines_quantity_gt_zero
  CHECK (quantity > 0);`},
			{"chk_purchase_orders_status_allowed", `
ALTER TABLE purchase_orders
  DROP CONSTRAINT IF EXISTS chk_purchase_orders_status_allowed;
ALTER TABLE purchase_orders
  ADD CONSTRAINT chk_purchase_orders_status_allowed
  CHECK (status IN ('PO_STATUS_DRAFT','PO_STATUS_SUBMITTED','PO_STATUS_PARTIAL_RECEIVED','PO_STATUS_RECEIVED','PO_STATUS_CANCELLED'));`},
			{"chk_purchase_order_lines_quantities", `
ALTER TABLE purchase_order_lines
  DROP CONSTRAINT IF EXISTS chk_purchase_order_lines_quantities;
ALTER TABLE purchase_order_lines
  ADD CONSTRAINT chk_purchase_order_lines_quantities
  CHECK (quantity_ordered > 0 AND quantity_received >= 0 AND quantity_received <= quantity_ordered);`},
			{"chk_grant_sources_budgets_non_negative", `
ALTER TABLE grant_sources
  DROP CONSTRAINT IF EXISTS chk_grant_sources_budgets_non_negative;
ALTER TABLE grant_sources
  ADD CONSTRAINT chk_grant_sources_budgets_non_negative
  CHECK (total_budget_cents >= 0 AND used_budget_cents >= 0);`},
			{"chk_issued_items_quantity_gt_zero", `
ALTER TABLE issued_items
  DROP CONSTRAINT IF EXISTS chk_issued_items_quantity_gt_zero;
ALTER TABLE issued_items
  ADD CONSTRAINT chk_issued_items_quantity_gt_zero
  CHECK (quantity > 0);`},
		}

		for _, c := range checks {
			if err := db.WithContext(ctx).Exec(c.sql).Error; err != nil {
				log.Error("create CHECK failed", zap.String("constraint", c.name), zap.Error(err))
				return err
			}
		}
	}

	if opt.CreateIndexes {
		log.Info("creating indexes")

		indexes := []string{
			`CREATE INDEX IF NOT EXISTS ix_gear_requests_user_created ON gear_requests (requested_by, created_at DESC);`,
			`CREATE INDEX IF NOT EXISTS ix_gear_requests_status_created ON gear_requests (status, created_at DESC);`,
			`CREATE INDEX IF NOT EXISTS ix_stock_audits_size_created ON stock_audits (size_id, created_at DESC);`,
			`CREATE INDEX IF NOT EXISTS ix_issued_items_user_open ON issued_items (user_id) WHERE returned_at IS NULL;`,
			// At most one selected quote per quote request, enforced at selection
			// time; the partial unique index backstops it.
			`CREATE UNIQUE INDEX IF NOT EXISTS ux_vendor_quotes_selected ON vendor_quotes (quote_request_id) WHERE is_selected;`,
		}

		for _, sql := range indexes {
			if err := db.WithContext(ctx).Exec(sql).Error; err != nil {
				log.Error("create index failed", zap.Error(err))
				return err
			}
		}
	}

	if opt.CreateFKsViaSQL {
		log.Info("creating foreign keys")

		fks := []string{
			`ALTER TABLE gear_request_lines
  DROP CONSTRAINT IF EXISTS fk_gear_request_lines_request,
  ADD CONSTRAINT fk_gear_request_lines_request
    FOREIGN KEY (request_id) REFERENCES gear_requests(id) ON DELETE CASCADE;`,
			`ALTER TABLE inventory_records
  DROP CONSTRAINT IF EXISTS fk_inventory_records_size,
  ADD CONSTRAINT fk_inventory_records_size
    FOREIGN KEY (size_id) REFERENCES sizes(id) ON DELETE CASCADE;`,
			`ALTER TABLE quote_request_lines
  DROP CONSTRAINT IF EXISTS fk_quote_request_lines_request,
  ADD CONSTRAINT fk_quote_request_lines_request
    FOREIGN KEY (quote_request_id) REFERENCES quote_requests(id) ON DELETE CASCADE;`,
			`ALTER TABLE vendor_quotes
  DROP CONSTRAINT IF EXISTS fk_vendor_quotes_request,
  ADD CONSTRAINT fk_vendor_quotes_request
    FOREIGN KEY (quote_request_id) REFERENCES quote_requests(id) ON DELETE CASCADE;`,
			`ALTER TABLE vendor_quote_lines
  DROP CONSTRAINT IF EXISTS fk_vendor_quote_lines_quote,
  ADD CONSTRAINT fk_vendor_quote_lines_quote
    FOREIGN KEY (vendor_quote_id) REFERENCES vendor_quotes(id) ON DELETE CASCADE;`,
			`ALTER TABLE purchase_order_lines
  DROP CONSTRAINT IF EXISTS fk_purchase_order_lines_po,
  ADD CONSTRAINT fk_purchase_order_lines_po
    FOREIGN KEY (purchase_order_id) REFERENCES purchase_orders(id) ON DELETE CASCADE;`,
		}

		for _, sql := range fks {
			if err := db.WithContext(ctx).Exec(sql).Error; err != nil {
				log.Error("create FK failed", zap.Error(err))
				return err
			}
		}
	}

	log.Info("quartermaster schema migration finished")
	return nil
}
