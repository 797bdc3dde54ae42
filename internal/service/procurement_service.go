package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"quartermaster-service/internal/models"
	"quartermaster-service/internal/repository"

	"github.com/google/uuid"
)

type procurementService struct {
	repo   *repository.Repository
	events EventBus
	now    func() time.Time
}

func NewProcurementService(repo *repository.Repository, events EventBus) ProcurementService {
	return &procurementService{
		repo:   repo,
		events: events,
		now:    time.Now,
	}
}

func (s *procurementService) CreateQuoteRequest(ctx context.Context, in CreateQuoteRequestInput) (*models.QuoteRequest, error) {
	actor, err := requireStaff(ctx)
	if err != nil {
		return nil, err
	}

	if len(in.Lines) == 0 {
		return nil, ErrEmptyLines
	}

	if in.GrantSourceID != nil {
		g, err := s.repo.Grants.GetByID(ctx, *in.GrantSourceID)
		if err != nil {
			return nil, err
		}
		if g == nil {
			return nil, ErrGrantNotFound
		}
	}

	lines := make([]models.QuoteRequestLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		if l.SizeID != nil {
			size, err := s.repo.Catalog.GetSize(ctx, *l.SizeID)
			if err != nil {
				return nil, err
			}
			if size == nil {
				return nil, ErrSizeNotFound
			}
		}
		lines = append(lines, models.QuoteRequestLine{
			SizeID:           l.SizeID,
			Description:      strings.TrimSpace(l.Description),
			Quantity:         l.Quantity,
			EstUnitCostCents: l.EstUnitCostCents,
		})
	}

	var qr *models.QuoteRequest
	err = s.repo.WithTx(func(tx *repository.Repository) error {
		seq, err := tx.Sequences.Next(ctx, models.CounterQuoteRequest)
		if err != nil {
			return err
		}
		qr = &models.QuoteRequest{
			RequestNumber: fmt.Sprintf("QR-%04d", seq),
			GrantSourceID: in.GrantSourceID,
			Status:        models.QuoteRequestStatusDraft,
			CreatedBy:     actor,
			Lines:         lines,
		}
		return tx.QuoteRequests.Create(ctx, qr)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.QuoteRequests.GetByID(ctx, qr.ID)
}

func (s *procurementService) GetQuoteRequest(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	qr, err := s.repo.QuoteRequests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if qr == nil {
		return nil, ErrQuoteRequestNotFound
	}
	return qr, nil
}

func (s *procurementService) SendQuoteRequest(ctx context.Context, id uuid.UUID) (*models.QuoteRequest, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	return s.transition(ctx, id, models.QuoteRequestStatusSent)
}

func (s *procurementService) transition(ctx context.Context, id uuid.UUID, target models.QuoteRequestStatus) (*models.QuoteRequest, error) {
	qr, err := s.repo.QuoteRequests.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if qr == nil {
		return nil, ErrQuoteRequestNotFound
	}
	if !qr.Status.CanTransitionTo(target) {
		return nil, ErrStateConflict
	}
	ok, err := s.repo.QuoteRequests.UpdateStatus(ctx, id, qr.Status, target)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStateConflict
	}
	return s.repo.QuoteRequests.GetByID(ctx, id)
}

func (s *procurementService) AddVendorQuote(ctx context.Context, in AddVendorQuoteInput) (*models.VendorQuote, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}

	if len(in.Lines) == 0 {
		return nil, ErrEmptyLines
	}
	if in.ShippingCents < 0 {
		return nil, ErrInvalidQuantity
	}

	qr, err := s.repo.QuoteRequests.GetByID(ctx, in.QuoteRequestID)
	if err != nil {
		return nil, err
	}
	if qr == nil {
		return nil, ErrQuoteRequestNotFound
	}
	// Quotes are only acceptable once the request went out.
	if qr.Status != models.QuoteRequestStatusSent && qr.Status != models.QuoteRequestStatusQuotesReceived {
		return nil, ErrStateConflict
	}

	vendor, err := s.repo.Vendors.GetByID(ctx, in.VendorID)
	if err != nil {
		return nil, err
	}
	if vendor == nil {
		return nil, ErrVendorNotFound
	}

	var total int64 = in.ShippingCents
	lines := make([]models.VendorQuoteLine, 0, len(in.Lines))
	for _, l := range in.Lines {
		if l.Quantity <= 0 {
			return nil, ErrInvalidQuantity
		}
		size, err := s.repo.Catalog.GetSize(ctx, l.SizeID)
		if err != nil {
			return nil, err
		}
		if size == nil {
			return nil, ErrSizeNotFound
		}
		total += int64(l.Quantity) * l.UnitPriceCents
		lines = append(lines, models.VendorQuoteLine{
			QuoteRequestLineID: l.QuoteRequestLineID,
			SizeID:             l.SizeID,
			Quantity:           l.Quantity,
			UnitPriceCents:     l.UnitPriceCents,
		})
	}

	vq := &models.VendorQuote{
		QuoteRequestID: in.QuoteRequestID,
		VendorID:       in.VendorID,
		TotalCents:     total,
		ShippingCents:  in.ShippingCents,
		Lines:          lines,
	}

	err = s.repo.WithTx(func(tx *repository.Repository) error {
		if err := tx.QuoteRequests.CreateVendorQuote(ctx, vq); err != nil {
			return err
		}
		if qr.Status == models.QuoteRequestStatusSent {
			ok, err := tx.QuoteRequests.UpdateStatus(ctx, qr.ID,
				models.QuoteRequestStatusSent, models.QuoteRequestStatusQuotesReceived)
			if err != nil {
				return err
			}
			if !ok {
				// A sibling quote may have flipped Sent first; any other
				// status no longer accepts quotes.
				fresh, err := tx.QuoteRequests.GetByID(ctx, qr.ID)
				if err != nil {
					return err
				}
				if fresh == nil || fresh.Status != models.QuoteRequestStatusQuotesReceived {
					return ErrStateConflict
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.QuoteRequests.GetVendorQuote(ctx, vq.ID)
}

func (s *procurementService) SelectQuote(ctx context.Context, vendorQuoteID uuid.UUID) (*models.QuoteRequest, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	vq, err := s.repo.QuoteRequests.GetVendorQuote(ctx, vendorQuoteID)
	if err != nil {
		return nil, err
	}
	if vq == nil {
		return nil, ErrVendorQuoteNotFound
	}

	qr, err := s.repo.QuoteRequests.GetByID(ctx, vq.QuoteRequestID)
	if err != nil {
		return nil, err
	}
	if qr == nil {
		return nil, ErrQuoteRequestNotFound
	}
	if qr.Status != models.QuoteRequestStatusQuotesReceived {
		return nil, ErrStateConflict
	}

	// Deselect-then-select in one transaction: never two selected quotes.
	err = s.repo.WithTx(func(tx *repository.Repository) error {
		return tx.QuoteRequests.SelectVendorQuote(ctx, qr.ID, vendorQuoteID)
	})
	if err != nil {
		return nil, err
	}

	return s.repo.QuoteRequests.GetByID(ctx, qr.ID)
}

func (s *procurementService) Approve(ctx context.Context, quoteRequestID, vendorQuoteID uuid.UUID) (*ApproveResult, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	qr, err := s.repo.QuoteRequests.GetByID(ctx, quoteRequestID)
	if err != nil {
		return nil, err
	}
	if qr == nil {
		return nil, ErrQuoteRequestNotFound
	}
	// A second approve of the same request is a state conflict: the budget is
	// debited exactly once.
	if qr.Status != models.QuoteRequestStatusQuotesReceived {
		return nil, ErrStateConflict
	}

	vq, err := s.repo.QuoteRequests.GetVendorQuote(ctx, vendorQuoteID)
	if err != nil {
		return nil, err
	}
	if vq == nil {
		return nil, ErrVendorQuoteNotFound
	}
	if vq.QuoteRequestID != qr.ID {
		return nil, ErrQuoteMismatch
	}
	if !vq.IsSelected {
		return nil, ErrQuoteNotSelected
	}

	err = s.repo.WithTx(func(tx *repository.Repository) error {
		if qr.GrantSourceID != nil {
			if _, ok, err := tx.Grants.AddUsed(ctx, *qr.GrantSourceID, vq.TotalCents); err != nil {
				return err
			} else if !ok {
				return ErrGrantNotFound
			}
		}
		ok, err := tx.QuoteRequests.UpdateStatus(ctx, qr.ID,
			models.QuoteRequestStatusQuotesReceived, models.QuoteRequestStatusApproved)
		if err != nil {
			return err
		}
		if !ok {
			// A concurrent approve won; this tx rolls back, including the debit.
			return ErrStateConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	res := &ApproveResult{}
	res.QuoteRequest, err = s.repo.QuoteRequests.GetByID(ctx, qr.ID)
	if err != nil {
		return nil, err
	}

	if qr.GrantSourceID != nil {
		g, err := s.repo.Grants.GetByID(ctx, *qr.GrantSourceID)
		if err != nil {
			return nil, err
		}
		if g != nil {
			remaining := g.RemainingCents()
			res.RemainingBudgetCents = &remaining
			res.BudgetOverrun = remaining < 0
		}
	}
	return res, nil
}

func (s *procurementService) Deny(ctx context.Context, quoteRequestID uuid.UUID) (*models.QuoteRequest, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}
	return s.transition(ctx, quoteRequestID, models.QuoteRequestStatusDenied)
}

func (s *procurementService) Convert(ctx context.Context, quoteRequestID uuid.UUID) (*models.PurchaseOrder, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	qr, err := s.repo.QuoteRequests.GetByID(ctx, quoteRequestID)
	if err != nil {
		return nil, err
	}
	if qr == nil {
		return nil, ErrQuoteRequestNotFound
	}
	// Converted is terminal: a quote request becomes a PO at most once.
	if qr.Status != models.QuoteRequestStatusApproved {
		return nil, ErrStateConflict
	}

	vq, err := s.repo.QuoteRequests.SelectedVendorQuote(ctx, qr.ID)
	if err != nil {
		return nil, err
	}
	if vq == nil {
		return nil, ErrQuoteNotSelected
	}

	var po *models.PurchaseOrder
	err = s.repo.WithTx(func(tx *repository.Repository) error {
		seq, err := tx.Sequences.Next(ctx, models.CounterPurchaseOrder)
		if err != nil {
			return err
		}

		lines := make([]models.PurchaseOrderLine, 0, len(vq.Lines))
		for _, l := range vq.Lines {
			lines = append(lines, models.PurchaseOrderLine{
				SizeID:          l.SizeID,
				QuantityOrdered: l.Quantity,
				UnitCostCents:   l.UnitPriceCents,
			})
		}

		qrID := qr.ID
		po = &models.PurchaseOrder{
			PONumber:       fmt.Sprintf("PO-%04d", seq),
			VendorID:       vq.VendorID,
			QuoteRequestID: &qrID,
			Status:         models.PurchaseOrderStatusSubmitted,
			TotalCents:     vq.TotalCents,
			Lines:          lines,
		}
		if err := tx.PurchaseOrders.Create(ctx, po); err != nil {
			return err
		}
		ok, err := tx.QuoteRequests.UpdateStatus(ctx, qr.ID,
			models.QuoteRequestStatusApproved, models.QuoteRequestStatusConverted)
		if err != nil {
			return err
		}
		if !ok {
			// A concurrent convert won; this tx rolls back, including the order.
			return ErrStateConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.repo.PurchaseOrders.GetByID(ctx, po.ID)
}

func (s *procurementService) GetPurchaseOrder(ctx context.Context, id uuid.UUID) (*models.PurchaseOrder, error) {
	if _, err := requireStaff(ctx); err != nil {
		return nil, err
	}
	po, err := s.repo.PurchaseOrders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, ErrPurchaseOrderNotFound
	}
	return po, nil
}

func (s *procurementService) Receive(ctx context.Context, poID uuid.UUID, receipts []ReceiptInput) (*models.PurchaseOrder, error) {
	actor, err := requireStaff(ctx)
	if err != nil {
		return nil, err
	}

	if len(receipts) == 0 {
		return nil, ErrEmptyLines
	}

	po, err := s.repo.PurchaseOrders.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, ErrPurchaseOrderNotFound
	}
	if !po.Status.Receivable() {
		return nil, ErrStateConflict
	}

	ownLines := map[uuid.UUID]models.PurchaseOrderLine{}
	for _, l := range po.Lines {
		ownLines[l.ID] = l
	}

	finalOnHand := map[uuid.UUID]int32{}
	var complete bool

	err = s.repo.WithTx(func(tx *repository.Repository) error {
		for _, rc := range receipts {
			if rc.Quantity <= 0 {
				return ErrInvalidQuantity
			}
			line, ok := ownLines[rc.LineID]
			if !ok {
				return ErrPOLineNotFound
			}

			// Deltas accumulate; a receipt past the ordered quantity fails the
			// whole call, which also rejects replays against a full line.
			ok, err := tx.PurchaseOrders.AddReceived(ctx, rc.LineID, rc.Quantity)
			if err != nil {
				return err
			}
			if !ok {
				return ErrOverReceipt
			}

			onHand, err := tx.Inventory.AddOnHand(ctx, line.SizeID, rc.Quantity)
			if err != nil {
				return err
			}
			finalOnHand[line.SizeID] = onHand

			if err := tx.Inventory.CreateAudit(ctx, &models.StockAudit{
				SizeID:         line.SizeID,
				ActorID:        actor,
				Delta:          rc.Quantity,
				QuantityBefore: onHand - rc.Quantity,
				QuantityAfter:  onHand,
				Reason:         models.AuditReasonReceived,
			}); err != nil {
				return err
			}
		}

		// Recompute the PO status from the lines as written in this tx.
		fresh, err := tx.PurchaseOrders.GetByID(ctx, poID)
		if err != nil {
			return err
		}
		if !fresh.Status.Receivable() {
			// The order was cancelled underneath us; roll the receipts back.
			return ErrStateConflict
		}

		complete = true
		anyReceived := false
		for _, l := range fresh.Lines {
			if l.QuantityReceived > 0 {
				anyReceived = true
			}
			if l.QuantityReceived < l.QuantityOrdered {
				complete = false
			}
		}

		var target models.PurchaseOrderStatus
		switch {
		case complete:
			target = models.PurchaseOrderStatusReceived
		case anyReceived:
			target = models.PurchaseOrderStatusPartialReceived
		default:
			return nil
		}
		ok, err := tx.PurchaseOrders.UpdateStatus(ctx, poID, fresh.Status, target)
		if err != nil {
			return err
		}
		if !ok {
			return ErrStateConflict
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		_ = s.events.PublishPurchaseOrderReceived(ctx, PurchaseOrderReceivedEvent{
			PurchaseOrderID: po.ID,
			PONumber:        po.PONumber,
			Complete:        complete,
			ReceivedAt:      s.now(),
		})
	}
	for sizeID, onHand := range finalOnHand {
		publishLowStockIfNeeded(ctx, s.repo, s.events, sizeID, onHand)
	}

	return s.repo.PurchaseOrders.GetByID(ctx, poID)
}

func (s *procurementService) CancelPurchaseOrder(ctx context.Context, poID uuid.UUID) (*models.PurchaseOrder, error) {
	if _, err := requireAdmin(ctx); err != nil {
		return nil, err
	}

	po, err := s.repo.PurchaseOrders.GetByID(ctx, poID)
	if err != nil {
		return nil, err
	}
	if po == nil {
		return nil, ErrPurchaseOrderNotFound
	}
	if !po.Status.CanTransitionTo(models.PurchaseOrderStatusCancelled) {
		return nil, ErrStateConflict
	}
	// Anything already on the shelf stays; only untouched orders cancel.
	for _, l := range po.Lines {
		if l.QuantityReceived > 0 {
			return nil, ErrStateConflict
		}
	}

	// A receipt landing after the line check moves the status off Submitted,
	// so the swap misses and the cancel is refused.
	ok, err := s.repo.PurchaseOrders.UpdateStatus(ctx, poID, po.Status, models.PurchaseOrderStatusCancelled)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrStateConflict
	}
	return s.repo.PurchaseOrders.GetByID(ctx, poID)
}
