package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/couchcryptid/hydrant-flow-service/internal/domain"
	"github.com/couchcryptid/hydrant-flow-service/internal/engine"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Request bodies use pointers so a missing field can be told apart from an
// explicit zero. Missing fields are a 400; impossible values are left to the
// engine and come back as a 422 with diagnostics.
type outletRequest struct {
	ID               string   `json:"id"`
	Size             *float64 `json:"size" validate:"required"`
	PitotPressurePsi *float64 `json:"pitot_pressure_psi" validate:"required"`
	Coefficient      *float64 `json:"coefficient"`
}

type flowLocationRequest struct {
	ID  string   `json:"id" validate:"required"`
	Lat *float64 `json:"lat" validate:"required"`
	Lon *float64 `json:"lon" validate:"required"`
}

type coordinatesRequest struct {
	Lat *float64 `json:"lat" validate:"required"`
	Lon *float64 `json:"lon" validate:"required"`
}

type evaluateRequest struct {
	StaticPressurePsi   *float64              `json:"static_pressure_psi" validate:"required"`
	ResidualPressurePsi *float64              `json:"residual_pressure_psi" validate:"required"`
	Outlets             []outletRequest       `json:"outlets" validate:"required,dive"`
	TargetResidualPsi   *float64              `json:"target_residual_psi"`
	TestLocation        *coordinatesRequest   `json:"test_location"`
	FlowLocations       []flowLocationRequest `json:"flow_locations" validate:"omitempty,dive"`
}

func (o outletRequest) outlet() domain.Outlet {
	return domain.Outlet{
		ID:               o.ID,
		DiameterInches:   *o.Size,
		PitotPressurePsi: *o.PitotPressurePsi,
		Coefficient:      o.Coefficient,
	}
}

func (req evaluateRequest) input() domain.FlowTestInput {
	in := domain.FlowTestInput{
		StaticPressurePsi:   *req.StaticPressurePsi,
		ResidualPressurePsi: *req.ResidualPressurePsi,
		Outlets:             make([]domain.Outlet, 0, len(req.Outlets)),
		TargetResidualPsi:   req.TargetResidualPsi,
	}
	for _, o := range req.Outlets {
		in.Outlets = append(in.Outlets, o.outlet())
	}
	if req.TestLocation != nil {
		in.TestLocation = &domain.Coordinates{Lat: *req.TestLocation.Lat, Lon: *req.TestLocation.Lon}
	}
	for _, f := range req.FlowLocations {
		in.FlowLocations = append(in.FlowLocations, domain.FlowLocation{ID: f.ID, Lat: *f.Lat, Lon: *f.Lon})
	}
	return in
}

type outletFlowResponse struct {
	Size             float64 `json:"size"`
	PitotPressurePsi float64 `json:"pitot_pressure_psi"`
	Coefficient      float64 `json:"coefficient"`
	FlowGPM          float64 `json:"flow_gpm"`
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req evaluateRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result := s.evaluator.Evaluate(engine.SourceHTTP, req.input())
	if !result.Usable() {
		sharedobs.WriteJSON(w, http.StatusUnprocessableEntity, result)
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleOutletFlow(w http.ResponseWriter, r *http.Request) {
	var req outletRequest
	if err := decodeAndValidate(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	params := s.evaluator.Params()
	o := req.outlet()
	q, err := domain.OutletFlow(o, params)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, outletFlowResponse{
		Size:             o.DiameterInches,
		PitotPressurePsi: o.PitotPressurePsi,
		Coefficient:      params.Coefficient(o),
		FlowGPM:          domain.RoundGPM(q),
	})
}

func (s *Server) handleClasses(w http.ResponseWriter, _ *http.Request) {
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{"classes": s.evaluator.Params().Classes})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("flow_gpm")
	if raw == "" {
		writeError(w, http.StatusBadRequest, "flow_gpm is required")
		return
	}
	flow, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(flow) || math.IsInf(flow, 0) || flow < 0 {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("invalid flow_gpm %q", raw))
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, s.evaluator.Params().Classify(flow))
}

// decodeAndValidate reads a single JSON object into dst and checks its shape.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if dec.More() {
		return errors.New("invalid JSON body: unexpected data after object")
	}
	if err := validate.Struct(dst); err != nil {
		return fmt.Errorf("invalid request: %w", err)
	}
	return nil
}
