package core

import (
	"strings"
	"testing"
)

func TestCanTransition(t *testing.T) {
	allowed := map[[2]PaymentStatus]bool{
		{StatusDraft, StatusSubmitted}:    true,
		{StatusDraft, StatusPosted}:       true,
		{StatusSubmitted, StatusApproved}: true,
		{StatusApproved, StatusPosted}:    true,
	}

	statuses := []PaymentStatus{StatusDraft, StatusSubmitted, StatusApproved, StatusPosted}
	for _, from := range statuses {
		for _, to := range statuses {
			want := allowed[[2]PaymentStatus{from, to}]
			if got := CanTransition(from, to); got != want {
				t.Errorf("CanTransition(%s, %s) = %v, want %v", from, to, got, want)
			}
		}
	}
}

func TestPaymentDraftNormalize(t *testing.T) {
	d := PaymentDraft{
		PaidOn:      "  2025-03-10 ",
		VehicleType: " flatbed",
		StationName: " Cairo Gate ",
		Amount:      "null",
		Currency:    "egp ",
		ReceiptRef:  " R-1001 ",
	}
	d.Normalize()

	if d.PaidOn != "2025-03-10" {
		t.Errorf("PaidOn = %q", d.PaidOn)
	}
	if d.VehicleType != "FLATBED" {
		t.Errorf("VehicleType = %q", d.VehicleType)
	}
	if d.StationName != "Cairo Gate" {
		t.Errorf("StationName = %q", d.StationName)
	}
	if d.Amount != "0.00" {
		t.Errorf("Amount = %q, want null mapped to 0.00", d.Amount)
	}
	if d.Currency != "EGP" {
		t.Errorf("Currency = %q", d.Currency)
	}
	if d.ReceiptRef != "R-1001" {
		t.Errorf("ReceiptRef = %q", d.ReceiptRef)
	}
}

func TestPaymentDraftValidate(t *testing.T) {
	valid := PaymentDraft{
		PaidOn:      "2025-03-10",
		VehicleType: "TIPPER",
		Amount:      "250.00",
		Currency:    "EGP",
	}

	tests := []struct {
		name    string
		mutate  func(d *PaymentDraft)
		wantErr string
	}{
		{
			name:   "valid draft",
			mutate: func(d *PaymentDraft) {},
		},
		{
			name:    "missing date",
			mutate:  func(d *PaymentDraft) { d.PaidOn = "" },
			wantErr: "payment date",
		},
		{
			name:    "malformed date",
			mutate:  func(d *PaymentDraft) { d.PaidOn = "10/03/2025" },
			wantErr: "date format",
		},
		{
			name:    "unknown vehicle type",
			mutate:  func(d *PaymentDraft) { d.VehicleType = "SEDAN" },
			wantErr: "vehicle type",
		},
		{
			name:    "zero amount",
			mutate:  func(d *PaymentDraft) { d.Amount = "0.00" },
			wantErr: "amount must be > 0",
		},
		{
			name:    "unparseable amount",
			mutate:  func(d *PaymentDraft) { d.Amount = "two hundred" },
			wantErr: "invalid amount",
		},
		{
			name:    "missing currency",
			mutate:  func(d *PaymentDraft) { d.Currency = "" },
			wantErr: "currency",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := valid
			tt.mutate(&d)
			err := d.Validate()
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() failed: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.wantErr)
			}
		})
	}
}
