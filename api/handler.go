// Package api exposes the dispatch agent over HTTP.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"

	"github.com/sunpeak/dispatchd/core/logger"
	"github.com/sunpeak/dispatchd/core/model"
)

// Runner is the agent as seen by the HTTP layer.
type Runner interface {
	Run(ctx context.Context, query string, plantMeta *model.PlantOverride) (string, error)
}

// PlantMeta is the optional caller-supplied plant configuration. It ranks
// below live telemetry in the trusted merge. Fields are pointers so an
// absent field and an explicit zero (an empty battery) stay distinct on the
// wire.
type PlantMeta struct {
	SoC            *float64 `json:"soc,omitempty"`
	CapacityMWh    *float64 `json:"capacity_mwh,omitempty"`
	MaxChargeMW    *float64 `json:"max_charge_mw,omitempty"`
	MaxDischargeMW *float64 `json:"max_discharge_mw,omitempty"`
}

// DispatchRequest is the POST /dispatch body.
type DispatchRequest struct {
	Query     string     `json:"query"`
	PlantMeta *PlantMeta `json:"plant_meta,omitempty"`
}

// DispatchResponse echoes the query with the agent's analysis.
type DispatchResponse struct {
	Query  string `json:"query"`
	Result string `json:"result"`
}

// NewHandler builds the API mux: POST /dispatch and GET /healthz.
func NewHandler(runner Runner, log logger.Logger) http.Handler {
	if log == nil {
		log = logger.Nop()
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/dispatch", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		reqID := uuid.NewString()
		w.Header().Set("X-Request-ID", reqID)

		var req DispatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid request body: "+err.Error(), http.StatusBadRequest)
			return
		}
		if req.Query == "" {
			http.Error(w, "query is required", http.StatusBadRequest)
			return
		}

		log.Debugw("dispatch request", map[string]any{"request_id": reqID})
		result, err := runner.Run(r.Context(), req.Query, req.PlantMeta.toOverride())
		if err != nil {
			log.Errorf("dispatch request %s: %v", reqID, err)
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(DispatchResponse{Query: req.Query, Result: result}); err != nil {
			log.Errorf("encode response %s: %v", reqID, err)
		}
	})
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}

// toOverride maps the wire plant metadata onto the trusted-merge override. A
// nil receiver yields nil so the agent falls back to configured defaults.
func (m *PlantMeta) toOverride() *model.PlantOverride {
	if m == nil {
		return nil
	}
	return &model.PlantOverride{
		CapacityMWh:        m.CapacityMWh,
		InitialSoCFraction: m.SoC,
		MaxChargeMW:        m.MaxChargeMW,
		MaxDischargeMW:     m.MaxDischargeMW,
	}
}
