package core_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"fleet-costing/internal/core"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func draftPayment(t *testing.T, payments core.TollPaymentService, paidOn string) *core.TollPayment {
	t.Helper()
	ref := uuid.NewString()
	p, err := payments.CreatePayment(context.Background(), core.PaymentInput{
		PaidOn:      paidOn,
		VehicleType: core.VehicleFlatbed,
		Amount:      decimal.RequireFromString("50"),
		Currency:    "EGP",
		ReceiptRef:  &ref,
	})
	if err != nil {
		t.Fatalf("failed to create draft payment: %v", err)
	}
	return p
}

func TestPaymentService_ApprovalWorkflow(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	payments := core.NewTollPaymentService(pool)

	p := draftPayment(t, payments, "2025-03-10")
	if p.Status != core.StatusDraft {
		t.Fatalf("new payment status = %s, want DRAFT", p.Status)
	}
	if p.ReceiptNumber != nil {
		t.Fatalf("draft payment already has receipt number %s", *p.ReceiptNumber)
	}

	p, err := payments.SubmitPayment(ctx, p.ID)
	if err != nil {
		t.Fatalf("submit failed: %v", err)
	}
	if p.Status != core.StatusSubmitted || p.SubmittedAt == nil {
		t.Errorf("after submit: status = %s, submitted_at = %v", p.Status, p.SubmittedAt)
	}

	// A submitted payment cannot be posted before approval.
	if _, err := payments.PostPayment(ctx, p.ID); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("posting a submitted payment: err = %v, want ErrInvalidTransition", err)
	}

	p, err = payments.ApprovePayment(ctx, p.ID)
	if err != nil {
		t.Fatalf("approve failed: %v", err)
	}
	if p.Status != core.StatusApproved || p.ApprovedAt == nil {
		t.Errorf("after approve: status = %s, approved_at = %v", p.Status, p.ApprovedAt)
	}

	p, err = payments.PostPayment(ctx, p.ID)
	if err != nil {
		t.Fatalf("post failed: %v", err)
	}
	if p.Status != core.StatusPosted || p.PostedAt == nil {
		t.Errorf("after post: status = %s, posted_at = %v", p.Status, p.PostedAt)
	}
	if p.ReceiptNumber == nil || !strings.HasPrefix(*p.ReceiptNumber, "TP-2025-") {
		t.Errorf("posted payment receipt number = %v, want a TP-2025- prefix", p.ReceiptNumber)
	}

	// POSTED is terminal.
	if _, err := payments.SubmitPayment(ctx, p.ID); !errors.Is(err, core.ErrInvalidTransition) {
		t.Errorf("submitting a posted payment: err = %v, want ErrInvalidTransition", err)
	}
}

func TestPaymentService_FastPathPosting(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	payments := core.NewTollPaymentService(pool)

	p := draftPayment(t, payments, "2025-03-11")
	p, err := payments.PostPayment(ctx, p.ID)
	if err != nil {
		t.Fatalf("fast-path post failed: %v", err)
	}
	if p.Status != core.StatusPosted {
		t.Errorf("status = %s, want POSTED", p.Status)
	}
	if p.ReceiptNumber == nil {
		t.Error("fast-path posted payment has no receipt number")
	}
}

func TestPaymentService_PostedImmutability(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	payments := core.NewTollPaymentService(pool)

	p := draftPayment(t, payments, "2025-03-12")
	if _, err := payments.PostPayment(ctx, p.ID); err != nil {
		t.Fatalf("post failed: %v", err)
	}

	changed := core.PaymentInput{
		PaidOn:      "2025-03-13",
		VehicleType: core.VehicleFlatbed,
		Amount:      decimal.RequireFromString("75"),
		Currency:    "EGP",
	}

	if _, err := payments.UpdatePayment(ctx, p.ID, changed, false); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("updating posted payment without authority: err = %v, want ErrForbidden", err)
	}
	if err := payments.DeletePayment(ctx, p.ID, false); !errors.Is(err, core.ErrForbidden) {
		t.Errorf("deleting posted payment without authority: err = %v, want ErrForbidden", err)
	}

	// With posting authority the correction goes through.
	updated, err := payments.UpdatePayment(ctx, p.ID, changed, true)
	if err != nil {
		t.Fatalf("authorized update failed: %v", err)
	}
	if !updated.Amount.Equal(decimal.RequireFromString("75")) {
		t.Errorf("updated amount = %s, want 75", updated.Amount)
	}
	if err := payments.DeletePayment(ctx, p.ID, true); err != nil {
		t.Errorf("authorized delete failed: %v", err)
	}
}

func TestPaymentService_GaplessReceiptNumbers(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	payments := core.NewTollPaymentService(pool)

	var ids []int
	for i := 0; i < 10; i++ {
		ids = append(ids, draftPayment(t, payments, "2025-04-01").ID)
	}

	var wg sync.WaitGroup
	errCh := make(chan error, len(ids))
	for _, id := range ids {
		wg.Add(1)
		go func(paymentID int) {
			defer wg.Done()
			if _, err := payments.PostPayment(ctx, paymentID); err != nil {
				errCh <- err
			}
		}(id)
	}
	wg.Wait()
	close(errCh)
	for err := range errCh {
		t.Errorf("concurrent post error: %v", err)
	}

	// Every number 1..10 must be assigned exactly once.
	seen := map[string]bool{}
	for _, id := range ids {
		p, err := payments.GetPayment(ctx, id)
		if err != nil {
			t.Fatalf("failed to fetch payment %d: %v", id, err)
		}
		if p.ReceiptNumber == nil {
			t.Fatalf("payment %d posted without a receipt number", id)
		}
		seen[*p.ReceiptNumber] = true
	}
	for i := 1; i <= 10; i++ {
		want := fmt.Sprintf("TP-2025-%05d", i)
		if !seen[want] {
			t.Errorf("receipt number %s was never assigned", want)
		}
	}
}

func TestPaymentService_ListFilters(t *testing.T) {
	pool := setupTestDB(t)
	defer pool.Close()

	ctx := context.Background()
	payments := core.NewTollPaymentService(pool)

	mk := func(paidOn string, vt core.VehicleType, amount string) *core.TollPayment {
		p, err := payments.CreatePayment(ctx, core.PaymentInput{
			PaidOn:      paidOn,
			VehicleType: vt,
			Amount:      decimal.RequireFromString(amount),
			Currency:    "EGP",
		})
		if err != nil {
			t.Fatalf("failed to create payment: %v", err)
		}
		return p
	}

	mk("2025-03-01", core.VehicleFlatbed, "50")
	inWindow := mk("2025-03-15", core.VehicleTipper, "60")
	mk("2025-04-02", core.VehicleTipper, "70")

	if _, err := payments.PostPayment(ctx, inWindow.ID); err != nil {
		t.Fatalf("post failed: %v", err)
	}

	tipper := core.VehicleTipper
	posted := core.StatusPosted
	got, err := payments.ListPayments(ctx, core.PaymentFilter{
		FromDate:    "2025-03-01",
		ToDate:      "2025-03-31",
		VehicleType: &tipper,
		Status:      &posted,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(got) != 1 || got[0].ID != inWindow.ID {
		t.Errorf("filtered list = %d payments, want exactly the posted March tipper payment", len(got))
	}
}
