package app

import (
	"fleet-costing/internal/core"

	"github.com/shopspring/decimal"
)

// ExpectedTollsResult is returned by ExpectedTolls.
type ExpectedTollsResult struct {
	RouteID     int
	VehicleType core.VehicleType
	Total       decimal.Decimal
	Tolls       []core.StationToll
}

// AIResult is returned by InterpretExpense.
type AIResult struct {
	Draft                *core.PaymentDraft
	ClarificationMessage string
	IsClarification      bool
}
