package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/maemo32/tomasulo/engine"
)

var errNoHistory = errors.New("httpapi: no history to step back through")

// cycleDTO is the JSON shape of the live engine state returned by the
// step, run and step-back endpoints. The /cycles document serialises
// engine.CycleView values directly instead.
type cycleDTO struct {
	Clock        int                      `json:"clock"`
	Instructions []engine.InstructionView `json:"instructions"`
	Registers    []engine.RegisterView    `json:"registers"`
	Stations     []engine.StationView     `json:"stations"`
	Metrics      engine.Metrics           `json:"metrics"`
}

func cycleDTOFrom(eng *engine.CycleEngine) cycleDTO {
	return cycleDTO{
		Clock:        eng.Clock(),
		Instructions: eng.Instructions(),
		Registers:    eng.Registers(),
		Stations:     eng.Stations(),
		Metrics:      eng.Metrics(),
	}
}

// cyclesDocument is the `{cycles: […], metrics: {…}}` document described
// by spec.md §6.
type cyclesDocument struct {
	Cycles  []engine.CycleView `json:"cycles"`
	Metrics engine.Metrics     `json:"metrics"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorDTO struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorDTO{Error: err.Error()})
}
