package forecast

import "encoding/json"

// CurveType selects the spend-distribution evaluator.
type CurveType string

const (
	CurveLinear CurveType = "linear"
	CurveSCurve CurveType = "s_curve"
	CurveCustom CurveType = "custom"
)

func ValidCurveType(t CurveType) bool {
	switch t {
	case CurveLinear, CurveSCurve, CurveCustom:
		return true
	}
	return false
}

// Curve is a company-owned forecasting curve. Many budget lines may attach
// the same curve. CurveConfig is opaque to the engine; custom evaluators are
// an extension point and currently fall back to the monitored formula.
type Curve struct {
	ID          int
	CompanyID   int
	Name        string
	CurveType   CurveType
	CurveConfig json.RawMessage
}

// spent returns the expected cumulative spend fraction at progress p, both
// in [0, 1].
func (c Curve) spent(p float64) float64 {
	if p <= 0 {
		return 0
	}
	if p >= 1 {
		return 1
	}
	switch c.CurveType {
	case CurveSCurve:
		// smoothstep: slow start, fast middle, slow finish
		return p * p * (3 - 2*p)
	default:
		return p
	}
}
