package domain

// Classification is the NFPA class assigned to an available fire flow.
type Classification struct {
	Class       Class   `json:"nfpa_class"`
	Color       string  `json:"color"`
	Description string  `json:"description"`
	FlowGPM     float64 `json:"flow_gpm"`
}

// Classify maps an available flow to its class. Thresholds are inclusive lower
// bounds checked from highest to lowest; the first match wins and the last
// class catches everything below.
func (p Params) Classify(flowGPM float64) Classification {
	if len(p.Classes) == 0 {
		return Classification{Class: ClassC, FlowGPM: flowGPM}
	}
	t := p.Classes[len(p.Classes)-1]
	for _, c := range p.Classes[:len(p.Classes)-1] {
		if flowGPM >= c.MinGPM {
			t = c
			break
		}
	}
	return Classification{
		Class:       t.Class,
		Color:       t.Color,
		Description: t.Description,
		FlowGPM:     flowGPM,
	}
}
