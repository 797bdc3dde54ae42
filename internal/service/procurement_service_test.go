package service_test

import (
	"errors"
	"sync"
	"testing"

	"quartermaster-service/internal/models"
	"quartermaster-service/internal/service"

	"github.com/google/uuid"
)

// quoteToSelected walks a quote request to QuotesReceived with one selected
// vendor quote and returns the pieces the caller needs.
func quoteToSelected(t *testing.T, h *harness, sizeID uuid.UUID, grantID *uuid.UUID) (*models.QuoteRequest, *models.VendorQuote) {
	t.Helper()

	vendorID := h.seedVendor(t)

	qr, err := h.procurement.CreateQuoteRequest(h.staffCtx(), service.CreateQuoteRequestInput{
		GrantSourceID: grantID,
		Lines: []service.QuoteRequestLineInput{
			{SizeID: &sizeID, Description: "wildland boots size 10", Quantity: 10, EstUnitCostCents: 500},
		},
	})
	if err != nil {
		t.Fatalf("CreateQuoteRequest: %v", err)
	}
	if qr.Status != models.QuoteRequestStatusDraft {
		t.Fatalf("expected Draft, got %s", qr.Status)
	}

	if _, err := h.procurement.SendQuoteRequest(h.staffCtx(), qr.ID); err != nil {
		t.Fatalf("SendQuoteRequest: %v", err)
	}

	// 10 x $4.50 + $10.00 shipping = $55.00
	vq, err := h.procurement.AddVendorQuote(h.staffCtx(), service.AddVendorQuoteInput{
		QuoteRequestID: qr.ID,
		VendorID:       vendorID,
		ShippingCents:  1_000,
		Lines: []service.VendorQuoteLineInput{
			{QuoteRequestLineID: &qr.Lines[0].ID, SizeID: sizeID, Quantity: 10, UnitPriceCents: 450},
		},
	})
	if err != nil {
		t.Fatalf("AddVendorQuote: %v", err)
	}
	if vq.TotalCents != 5_500 {
		t.Fatalf("expected total=5500, got %d", vq.TotalCents)
	}

	if _, err := h.procurement.SelectQuote(h.adminCtx(), vq.ID); err != nil {
		t.Fatalf("SelectQuote: %v", err)
	}
	return qr, vq
}

// quoteToApproved continues to Approved.
func quoteToApproved(t *testing.T, h *harness, sizeID uuid.UUID, grantID *uuid.UUID) (*models.QuoteRequest, *models.VendorQuote) {
	t.Helper()

	qr, vq := quoteToSelected(t, h, sizeID, grantID)
	res, err := h.procurement.Approve(h.adminCtx(), qr.ID, vq.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if res.QuoteRequest.Status != models.QuoteRequestStatusApproved {
		t.Fatalf("expected Approved, got %s", res.QuoteRequest.Status)
	}
	return res.QuoteRequest, vq
}

func TestProcurement_QuoteToPurchaseOrder(t *testing.T) {
	h := setup(t)
	_, sizeID := h.seedSize(t, 0)

	grant, err := h.grants.Create(h.adminCtx(), service.CreateGrantInput{
		Code: "FY26-EQUIP", FiscalYear: 2026, TotalBudgetCents: 100_000,
	})
	if err != nil {
		t.Fatalf("Create grant: %v", err)
	}

	qr, vq := quoteToApproved(t, h, sizeID, &grant.ID)
	if qr.RequestNumber != "QR-0001" {
		t.Fatalf("expected QR-0001, got %s", qr.RequestNumber)
	}

	// Budget debited by the selected quote total
	g, err := h.grants.Get(h.staffCtx(), grant.ID)
	if err != nil {
		t.Fatalf("Get grant: %v", err)
	}
	if g.UsedBudgetCents != 5_500 || g.RemainingBudgetCents != 94_500 || g.BudgetOverrun {
		t.Fatalf("expected used=5500 remaining=94500, got %+v", g)
	}

	// Second approve is a state conflict and must not debit again
	if _, err := h.procurement.Approve(h.adminCtx(), qr.ID, vq.ID); !errors.Is(err, service.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict on double approve, got %v", err)
	}
	g, _ = h.grants.Get(h.staffCtx(), grant.ID)
	if g.UsedBudgetCents != 5_500 {
		t.Fatalf("expected single debit, got used=%d", g.UsedBudgetCents)
	}

	po, err := h.procurement.Convert(h.adminCtx(), qr.ID)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if po.PONumber != "PO-0001" {
		t.Fatalf("expected PO-0001, got %s", po.PONumber)
	}
	if po.Status != models.PurchaseOrderStatusSubmitted || po.TotalCents != 5_500 {
		t.Fatalf("expected Submitted total=5500, got %+v", po)
	}
	if len(po.Lines) != 1 || po.Lines[0].QuantityOrdered != 10 || po.Lines[0].QuantityReceived != 0 {
		t.Fatalf("expected line ordered=10 received=0, got %+v", po.Lines)
	}

	// Converted is terminal
	if _, err := h.procurement.Convert(h.adminCtx(), qr.ID); !errors.Is(err, service.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict on double convert, got %v", err)
	}
}

func TestProcurement_ApproveGuards(t *testing.T) {
	h := setup(t)
	_, sizeID := h.seedSize(t, 0)
	vendorID := h.seedVendor(t)

	qr, err := h.procurement.CreateQuoteRequest(h.staffCtx(), service.CreateQuoteRequestInput{
		Lines: []service.QuoteRequestLineInput{{SizeID: &sizeID, Description: "boots", Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("CreateQuoteRequest: %v", err)
	}

	// No quotes before sending
	if _, err := h.procurement.AddVendorQuote(h.staffCtx(), service.AddVendorQuoteInput{
		QuoteRequestID: qr.ID,
		VendorID:       vendorID,
		Lines:          []service.VendorQuoteLineInput{{SizeID: sizeID, Quantity: 5, UnitPriceCents: 100}},
	}); !errors.Is(err, service.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict for quote on draft, got %v", err)
	}

	if _, err := h.procurement.SendQuoteRequest(h.staffCtx(), qr.ID); err != nil {
		t.Fatalf("Send: %v", err)
	}

	vq1, err := h.procurement.AddVendorQuote(h.staffCtx(), service.AddVendorQuoteInput{
		QuoteRequestID: qr.ID,
		VendorID:       vendorID,
		Lines:          []service.VendorQuoteLineInput{{SizeID: sizeID, Quantity: 5, UnitPriceCents: 100}},
	})
	if err != nil {
		t.Fatalf("AddVendorQuote: %v", err)
	}
	vq2, err := h.procurement.AddVendorQuote(h.staffCtx(), service.AddVendorQuoteInput{
		QuoteRequestID: qr.ID,
		VendorID:       vendorID,
		Lines:          []service.VendorQuoteLineInput{{SizeID: sizeID, Quantity: 5, UnitPriceCents: 90}},
	})
	if err != nil {
		t.Fatalf("AddVendorQuote 2: %v", err)
	}

	// Approving an unselected quote fails
	if _, err := h.procurement.Approve(h.adminCtx(), qr.ID, vq1.ID); !errors.Is(err, service.ErrQuoteNotSelected) {
		t.Fatalf("expected ErrQuoteNotSelected, got %v", err)
	}

	// Selection swap: picking vq2 then approving vq1 is a mismatch with the selection
	if _, err := h.procurement.SelectQuote(h.adminCtx(), vq1.ID); err != nil {
		t.Fatalf("SelectQuote vq1: %v", err)
	}
	if _, err := h.procurement.SelectQuote(h.adminCtx(), vq2.ID); err != nil {
		t.Fatalf("SelectQuote vq2: %v", err)
	}
	if _, err := h.procurement.Approve(h.adminCtx(), qr.ID, vq1.ID); !errors.Is(err, service.ErrQuoteNotSelected) {
		t.Fatalf("expected ErrQuoteNotSelected after swap, got %v", err)
	}

	// Staff cannot select or approve
	if _, err := h.procurement.SelectQuote(h.staffCtx(), vq2.ID); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if _, err := h.procurement.Approve(h.staffCtx(), qr.ID, vq2.ID); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	// Convert requires Approved
	if _, err := h.procurement.Convert(h.adminCtx(), qr.ID); !errors.Is(err, service.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict for convert before approve, got %v", err)
	}

	// Deny from QuotesReceived
	denied, err := h.procurement.Deny(h.adminCtx(), qr.ID)
	if err != nil {
		t.Fatalf("Deny: %v", err)
	}
	if denied.Status != models.QuoteRequestStatusDenied {
		t.Fatalf("expected Denied, got %s", denied.Status)
	}
}

func TestProcurement_BudgetOverrunFlagged(t *testing.T) {
	h := setup(t)
	_, sizeID := h.seedSize(t, 0)

	grant, err := h.grants.Create(h.adminCtx(), service.CreateGrantInput{
		Code: "FY26-SMALL", FiscalYear: 2026, TotalBudgetCents: 4_000,
	})
	if err != nil {
		t.Fatalf("Create grant: %v", err)
	}

	vendorID := h.seedVendor(t)
	qr, err := h.procurement.CreateQuoteRequest(h.staffCtx(), service.CreateQuoteRequestInput{
		GrantSourceID: &grant.ID,
		Lines:         []service.QuoteRequestLineInput{{SizeID: &sizeID, Description: "boots", Quantity: 10}},
	})
	if err != nil {
		t.Fatalf("CreateQuoteRequest: %v", err)
	}
	if _, err := h.procurement.SendQuoteRequest(h.staffCtx(), qr.ID); err != nil {
		t.Fatalf("Send: %v", err)
	}
	vq, err := h.procurement.AddVendorQuote(h.staffCtx(), service.AddVendorQuoteInput{
		QuoteRequestID: qr.ID,
		VendorID:       vendorID,
		ShippingCents:  1_000,
		Lines:          []service.VendorQuoteLineInput{{SizeID: sizeID, Quantity: 10, UnitPriceCents: 450}},
	})
	if err != nil {
		t.Fatalf("AddVendorQuote: %v", err)
	}
	if _, err := h.procurement.SelectQuote(h.adminCtx(), vq.ID); err != nil {
		t.Fatalf("SelectQuote: %v", err)
	}

	// 5500 against a 4000 budget: allowed, flagged
	res, err := h.procurement.Approve(h.adminCtx(), qr.ID, vq.ID)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if !res.BudgetOverrun {
		t.Fatal("expected budget_overrun=true")
	}
	if res.RemainingBudgetCents == nil || *res.RemainingBudgetCents != -1_500 {
		t.Fatalf("expected remaining=-1500, got %v", res.RemainingBudgetCents)
	}
}

func TestReceive_PartialThenComplete(t *testing.T) {
	h := setup(t)
	_, sizeID := h.seedSize(t, 0)

	qr, _ := quoteToApproved(t, h, sizeID, nil)
	po, err := h.procurement.Convert(h.adminCtx(), qr.ID)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	lineID := po.Lines[0].ID

	// First delivery: 4 of 10
	po, err = h.procurement.Receive(h.staffCtx(), po.ID, []service.ReceiptInput{{LineID: lineID, Quantity: 4}})
	if err != nil {
		t.Fatalf("Receive 4: %v", err)
	}
	if po.Status != models.PurchaseOrderStatusPartialReceived {
		t.Fatalf("expected PartialReceived, got %s", po.Status)
	}
	if rec := h.stock(t, sizeID); rec.OnHand != 4 {
		t.Fatalf("expected on_hand=4, got %d", rec.OnHand)
	}

	// Remainder: 6 more
	po, err = h.procurement.Receive(h.staffCtx(), po.ID, []service.ReceiptInput{{LineID: lineID, Quantity: 6}})
	if err != nil {
		t.Fatalf("Receive 6: %v", err)
	}
	if po.Status != models.PurchaseOrderStatusReceived {
		t.Fatalf("expected Received, got %s", po.Status)
	}
	if po.Lines[0].QuantityReceived != 10 {
		t.Fatalf("expected received=10, got %d", po.Lines[0].QuantityReceived)
	}
	if rec := h.stock(t, sizeID); rec.OnHand != 10 {
		t.Fatalf("expected on_hand=10, got %d", rec.OnHand)
	}

	// Received audit rows
	audits, err := h.inventory.Audits(h.staffCtx(), sizeID, 10)
	if err != nil {
		t.Fatalf("Audits: %v", err)
	}
	receivedRows := 0
	for _, a := range audits {
		if a.Reason == models.AuditReasonReceived {
			receivedRows++
		}
	}
	if receivedRows != 2 {
		t.Fatalf("expected 2 received audits, got %d", receivedRows)
	}
	if len(h.bus.received) != 2 || !h.bus.received[1].Complete {
		t.Fatalf("expected two received events with the last complete, got %+v", h.bus.received)
	}

	// A received PO takes no more deliveries
	if _, err := h.procurement.Receive(h.staffCtx(), po.ID, []service.ReceiptInput{{LineID: lineID, Quantity: 1}}); !errors.Is(err, service.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict on received PO, got %v", err)
	}
}

func TestReceive_OverReceiptRejectedAtomically(t *testing.T) {
	h := setup(t)
	_, sizeID := h.seedSize(t, 0)

	qr, _ := quoteToApproved(t, h, sizeID, nil)
	po, err := h.procurement.Convert(h.adminCtx(), qr.ID)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	lineID := po.Lines[0].ID

	if _, err := h.procurement.Receive(h.staffCtx(), po.ID, []service.ReceiptInput{{LineID: lineID, Quantity: 8}}); err != nil {
		t.Fatalf("Receive 8: %v", err)
	}

	// 8 + 5 > 10: the whole call fails, nothing lands on the shelf
	if _, err := h.procurement.Receive(h.staffCtx(), po.ID, []service.ReceiptInput{{LineID: lineID, Quantity: 5}}); !errors.Is(err, service.ErrOverReceipt) {
		t.Fatalf("expected ErrOverReceipt, got %v", err)
	}
	if rec := h.stock(t, sizeID); rec.OnHand != 8 {
		t.Fatalf("expected on_hand=8 after rejected receipt, got %d", rec.OnHand)
	}
	fresh, err := h.procurement.GetPurchaseOrder(h.staffCtx(), po.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrder: %v", err)
	}
	if fresh.Lines[0].QuantityReceived != 8 || fresh.Status != models.PurchaseOrderStatusPartialReceived {
		t.Fatalf("expected received=8 PartialReceived, got %+v", fresh)
	}

	// Unknown line
	if _, err := h.procurement.Receive(h.staffCtx(), po.ID, []service.ReceiptInput{{LineID: uuid.New(), Quantity: 1}}); !errors.Is(err, service.ErrPOLineNotFound) {
		t.Fatalf("expected ErrPOLineNotFound, got %v", err)
	}
}

func TestCancelPurchaseOrder(t *testing.T) {
	h := setup(t)
	_, sizeID := h.seedSize(t, 0)

	qr, _ := quoteToApproved(t, h, sizeID, nil)
	po, err := h.procurement.Convert(h.adminCtx(), qr.ID)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}

	// Staff cannot cancel
	if _, err := h.procurement.CancelPurchaseOrder(h.staffCtx(), po.ID); !errors.Is(err, service.ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	cancelled, err := h.procurement.CancelPurchaseOrder(h.adminCtx(), po.ID)
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != models.PurchaseOrderStatusCancelled {
		t.Fatalf("expected Cancelled, got %s", cancelled.Status)
	}

	// Cancelled orders take no deliveries
	if _, err := h.procurement.Receive(h.staffCtx(), po.ID, []service.ReceiptInput{{LineID: po.Lines[0].ID, Quantity: 1}}); !errors.Is(err, service.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict, got %v", err)
	}
}

func TestCancelPurchaseOrder_BlockedAfterReceipt(t *testing.T) {
	h := setup(t)
	_, sizeID := h.seedSize(t, 0)

	qr, _ := quoteToApproved(t, h, sizeID, nil)
	po, err := h.procurement.Convert(h.adminCtx(), qr.ID)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if _, err := h.procurement.Receive(h.staffCtx(), po.ID, []service.ReceiptInput{{LineID: po.Lines[0].ID, Quantity: 2}}); err != nil {
		t.Fatalf("Receive: %v", err)
	}

	if _, err := h.procurement.CancelPurchaseOrder(h.adminCtx(), po.ID); !errors.Is(err, service.ErrStateConflict) {
		t.Fatalf("expected ErrStateConflict after receipt, got %v", err)
	}
}

func TestApprove_Concurrent_SingleDebit(t *testing.T) {
	h := setup(t)
	_, sizeID := h.seedSize(t, 0)

	grant, err := h.grants.Create(h.adminCtx(), service.CreateGrantInput{
		Code: "FY26-RACE", FiscalYear: 2026, TotalBudgetCents: 100_000,
	})
	if err != nil {
		t.Fatalf("Create grant: %v", err)
	}
	qr, vq := quoteToSelected(t, h, sizeID, &grant.ID)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = h.procurement.Approve(h.adminCtx(), qr.ID, vq.ID)
		}(i)
	}
	wg.Wait()

	var won, lost int
	for _, err := range errs {
		switch {
		case err == nil:
			won++
		case errors.Is(err, service.ErrStateConflict):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("expected exactly one winner, got won=%d lost=%d", won, lost)
	}

	// The losing approve must not have debited
	g, err := h.grants.Get(h.staffCtx(), grant.ID)
	if err != nil {
		t.Fatalf("Get grant: %v", err)
	}
	if g.UsedBudgetCents != 5_500 {
		t.Fatalf("expected used=5500 after racing approves, got %d", g.UsedBudgetCents)
	}
}

func TestConvert_Concurrent_SingleOrder(t *testing.T) {
	h := setup(t)
	_, sizeID := h.seedSize(t, 0)

	qr, _ := quoteToApproved(t, h, sizeID, nil)

	pos := make([]*models.PurchaseOrder, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			pos[i], errs[i] = h.procurement.Convert(h.adminCtx(), qr.ID)
		}(i)
	}
	wg.Wait()

	var won, lost int
	for i, err := range errs {
		switch {
		case err == nil:
			won++
			if pos[i] == nil || pos[i].Status != models.PurchaseOrderStatusSubmitted {
				t.Fatalf("expected a submitted order from the winner, got %+v", pos[i])
			}
		case errors.Is(err, service.ErrStateConflict):
			lost++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if won != 1 || lost != 1 {
		t.Fatalf("expected exactly one order, got won=%d lost=%d", won, lost)
	}

	fresh, err := h.procurement.GetQuoteRequest(h.staffCtx(), qr.ID)
	if err != nil {
		t.Fatalf("GetQuoteRequest: %v", err)
	}
	if fresh.Status != models.QuoteRequestStatusConverted {
		t.Fatalf("expected Converted, got %s", fresh.Status)
	}
}
