package budgetline

import (
	"github.com/costline/costline/pkg/costkey"
	"github.com/shopspring/decimal"
)

// ForecastMethod selects how forecast-to-complete is produced for a line.
type ForecastMethod string

const (
	// ForecastManual and ForecastLumpSum both store an operator-supplied
	// forecast verbatim; they differ only in how the UI captures the value.
	ForecastManual  ForecastMethod = "manual"
	ForecastLumpSum ForecastMethod = "lump_sum"
	// ForecastAutomatic distributes remaining budget along the attached curve.
	ForecastAutomatic ForecastMethod = "automatic"
	// ForecastMonitored assumes spend will exactly consume remaining budget,
	// floored at zero. Displayed as "Monitored".
	ForecastMonitored ForecastMethod = "monitored_resources"
)

// ValidMethod reports whether s is a known forecast method.
func ValidMethod(s string) bool {
	switch ForecastMethod(s) {
	case ForecastManual, ForecastLumpSum, ForecastAutomatic, ForecastMonitored:
		return true
	}
	return false
}

// BudgetLine is the baseline entry for one identity key. Exactly one active
// line exists per key per project. Lines are never physically removed while
// referenced by ledger rows; deactivation only.
type BudgetLine struct {
	ID             int
	Key            costkey.Key
	Description    string
	OriginalAmount decimal.Decimal
	Quantity       *decimal.Decimal
	UnitCost       *decimal.Decimal
	ForecastMethod ForecastMethod
	ManualForecast *decimal.Decimal
	CurveID        *int
	Active         bool
}
