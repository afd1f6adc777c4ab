package domain

// Class is an NFPA 291 hydrant flow class.
type Class string

const (
	ClassAA Class = "AA"
	ClassA  Class = "A"
	ClassB  Class = "B"
	ClassC  Class = "C"
)

// ClassThreshold maps a minimum available flow to a class and its marking.
type ClassThreshold struct {
	Class       Class   `json:"class"`
	MinGPM      float64 `json:"min_gpm"`
	Color       string  `json:"color"`
	Description string  `json:"description"`
}

// SizeCoefficient is the default discharge coefficient for an outlet size.
type SizeCoefficient struct {
	DiameterInches float64
	Coefficient    float64
}

// Params carries the tunable parts of the calculation. The formulas and the
// 0.54 exponent are fixed; everything here may be overridden per organization.
// Params is a value type: copy it, change the copy, pass it in.
type Params struct {
	SizeCoefficients    []SizeCoefficient
	FallbackCoefficient float64
	MinCoefficient      float64
	MaxCoefficient      float64

	TargetResidualPsi float64
	CurveStepPsi      float64

	// Classes must be ordered from the highest MinGPM to the lowest. The last
	// entry is the catch-all.
	Classes []ClassThreshold

	LowStaticPsi         float64
	LowResidualPsi       float64
	LowTotalFlowGPM      float64
	HighTotalFlowGPM     float64
	MaxPressureDropRatio float64
	WarningPenalty       int
}

// DefaultParams returns the NFPA 291 defaults. Each call returns fresh slices.
func DefaultParams() Params {
	return Params{
		SizeCoefficients: []SizeCoefficient{
			{DiameterInches: 2.5, Coefficient: 0.90},
			{DiameterInches: 4.5, Coefficient: 0.85},
			{DiameterInches: 5.0, Coefficient: 0.85},
			{DiameterInches: 6.0, Coefficient: 0.80},
		},
		FallbackCoefficient: 0.85,
		MinCoefficient:      0.70,
		MaxCoefficient:      1.00,

		TargetResidualPsi: 20,
		CurveStepPsi:      5,

		Classes: []ClassThreshold{
			{Class: ClassAA, MinGPM: 1500, Color: "#0066CC", Description: "Class AA: ≥1,500 GPM (Excellent fire protection)"},
			{Class: ClassA, MinGPM: 1000, Color: "#00AA00", Description: "Class A: 1,000-1,499 GPM (Good fire protection)"},
			{Class: ClassB, MinGPM: 500, Color: "#FF8800", Description: "Class B: 500-999 GPM (Adequate fire protection)"},
			{Class: ClassC, MinGPM: 0, Color: "#CC0000", Description: "Class C: <500 GPM (Minimal fire protection)"},
		},

		LowStaticPsi:         20,
		LowResidualPsi:       10,
		LowTotalFlowGPM:      100,
		HighTotalFlowGPM:     5000,
		MaxPressureDropRatio: 0.8,
		WarningPenalty:       15,
	}
}

// Coefficient returns the discharge coefficient to apply to an outlet: the
// measured one if given, else the default for its size, else the fallback.
func (p Params) Coefficient(o Outlet) float64 {
	if o.Coefficient != nil {
		return *o.Coefficient
	}
	for _, sc := range p.SizeCoefficients {
		if sc.DiameterInches == o.DiameterInches {
			return sc.Coefficient
		}
	}
	return p.FallbackCoefficient
}
