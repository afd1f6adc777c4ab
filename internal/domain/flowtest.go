package domain

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// FlowLocation is a flow hydrant used to draw water during a test.
type FlowLocation struct {
	ID  string  `json:"id"`
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Outlet is one flowing outlet and its pitot reading.
type Outlet struct {
	ID               string   `json:"id,omitempty"`
	DiameterInches   float64  `json:"size"`
	PitotPressurePsi float64  `json:"pitot_pressure_psi"`
	Coefficient      *float64 `json:"coefficient,omitempty"` // nil selects the per-size default
}

// FlowTestInput holds the raw readings of a single flow test.
type FlowTestInput struct {
	StaticPressurePsi   float64        `json:"static_pressure_psi"`
	ResidualPressurePsi float64        `json:"residual_pressure_psi"`
	Outlets             []Outlet       `json:"outlets"`
	TargetResidualPsi   *float64       `json:"target_residual_psi,omitempty"`
	TestLocation        *Coordinates   `json:"test_location,omitempty"`
	FlowLocations       []FlowLocation `json:"flow_locations,omitempty"`
}

// OutletFlowResult is the computed flow of one outlet.
type OutletFlowResult struct {
	Outlet           int     `json:"outlet"` // 1-based position in the input
	ID               string  `json:"id,omitempty"`
	DiameterInches   float64 `json:"size"`
	PitotPressurePsi float64 `json:"pitot_pressure_psi"`
	Coefficient      float64 `json:"coefficient"`
	FlowGPM          float64 `json:"flow_gpm"`
}

// CurvePoint is one point of the water supply curve.
type CurvePoint struct {
	PressurePsi float64 `json:"pressure_psi"`
	FlowGPM     float64 `json:"flow_gpm"`
}

// Distance is the separation between the test hydrant and a flow hydrant.
type Distance struct {
	ID           string  `json:"id"`
	DistanceFeet float64 `json:"distance_feet"`
}

// FlowTestResult is everything derived from a FlowTestInput. When Errors is
// non-empty only the diagnostics are populated.
type FlowTestResult struct {
	OutletFlows       []OutletFlowResult `json:"outlet_flows"`
	TotalFlowGPM      float64            `json:"total_flow_gpm"`
	AvailableFlowGPM  float64            `json:"available_flow_gpm"`
	TargetResidualPsi float64            `json:"target_residual_psi"`
	PressureDropPsi   float64            `json:"pressure_drop_psi"`
	NFPAClass         Class              `json:"nfpa_class"`
	Color             string             `json:"color"`
	Description       string             `json:"description"`
	SupplyCurve       []CurvePoint       `json:"supply_curve"`
	Distances         []Distance         `json:"distances"`
	Warnings          []string           `json:"warnings"`
	Errors            []string           `json:"errors"`
	QualityScore      int                `json:"quality_score"`
}

// Usable reports whether the result may be kept as a record of the test.
func (r FlowTestResult) Usable() bool {
	return len(r.Errors) == 0
}
