package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// paymentTransitions is the allowed status graph for toll payments.
// POSTED is terminal; the DRAFT -> POSTED edge is the fast path for
// payments that skip the approval workflow.
var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	StatusDraft:     {StatusSubmitted, StatusPosted},
	StatusSubmitted: {StatusApproved},
	StatusApproved:  {StatusPosted},
	StatusPosted:    {},
}

// CanTransition reports whether a payment may move from one status to
// another.
func CanTransition(from, to PaymentStatus) bool {
	for _, next := range paymentTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// PaymentDraft is a toll payment proposed from free text by the expense
// agent. The user reviews and confirms it into a DRAFT payment; nothing is
// written until then.
type PaymentDraft struct {
	PaidOn      string  `json:"paid_on" jsonschema_description:"Payment date in YYYY-MM-DD format. Extrapolate from context or use today's date if unspecified."`
	VehicleType string  `json:"vehicle_type" jsonschema_description:"The vehicle type, one of FLATBED or TIPPER"`
	StationName string  `json:"station_name" jsonschema_description:"The exact toll station name from the provided station list, or empty if none matches"`
	Amount      string  `json:"amount" jsonschema_description:"The exact monetary amount paid (always positive) as a string, e.g. '250.00'"`
	Currency    string  `json:"currency" jsonschema_description:"The ISO currency code, e.g. 'EGP'"`
	ReceiptRef  string  `json:"receipt_ref" jsonschema_description:"The receipt reference printed on the toll receipt, or empty if not mentioned"`
	Confidence  float64 `json:"confidence" jsonschema_description:"Confidence score between 0.0 and 1.0"`
	Reasoning   string  `json:"reasoning" jsonschema_description:"Explanation for the proposed payment draft"`
}

// ClarificationRequest is returned by the agent when the description is
// missing critical detail (amount, date, vehicle type).
type ClarificationRequest struct {
	Message string `json:"message" jsonschema_description:"A message asking the user for the missing details (e.g. 'Which vehicle type was this toll for?')."`
}

// DraftResponse wraps the agent output to branch between a valid
// PaymentDraft and a ClarificationRequest. Exactly one is set.
type DraftResponse struct {
	IsClarificationRequest bool                  `json:"is_clarification_request" jsonschema_description:"Set to true ONLY if you lack enough information to create a confident draft."`
	Clarification          *ClarificationRequest `json:"clarification,omitempty" jsonschema_description:"Required if is_clarification_request is true."`
	Draft                  *PaymentDraft         `json:"draft,omitempty" jsonschema_description:"Required if is_clarification_request is false."`
}

// Normalize cleans up agent output before validation: trims whitespace,
// uppercases enum-like fields, and maps "null"/empty amounts to zero so
// Validate rejects them with a clear message.
func (d *PaymentDraft) Normalize() {
	d.PaidOn = strings.TrimSpace(d.PaidOn)
	d.VehicleType = strings.ToUpper(strings.TrimSpace(d.VehicleType))
	d.Currency = strings.ToUpper(strings.TrimSpace(d.Currency))
	d.StationName = strings.TrimSpace(d.StationName)
	d.ReceiptRef = strings.TrimSpace(d.ReceiptRef)

	if strings.TrimSpace(d.Amount) == "" || strings.ToLower(d.Amount) == "null" {
		d.Amount = "0.00"
	}
}

// Validate enforces the minimum a draft needs before it can become a DRAFT
// toll payment: a parseable date, a known vehicle type, and a positive
// amount with a currency.
func (d *PaymentDraft) Validate() error {
	if d.PaidOn == "" {
		return errors.New("draft must specify a payment date")
	}
	if _, err := time.Parse("2006-01-02", d.PaidOn); err != nil {
		return fmt.Errorf("invalid payment date format: %w", err)
	}

	if !VehicleType(d.VehicleType).Valid() {
		return fmt.Errorf("unknown vehicle type %q", d.VehicleType)
	}

	amt, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return fmt.Errorf("invalid amount %q: %v", d.Amount, err)
	}
	if !amt.IsPositive() {
		return fmt.Errorf("amount must be > 0, got %s", d.Amount)
	}

	if d.Currency == "" {
		return errors.New("draft must specify a currency")
	}
	return nil
}
