// Package httpapi exposes the cycle engine over HTTP, per spec.md §6's
// "Persisted state" paragraph and SPEC_FULL.md §6: a simulation is
// created from a parsed program, then stepped, run, or stepped back
// through its snapshot history, with the full per-cycle history
// readable back out as one JSON document.
package httpapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/maemo32/tomasulo/engine"
	"github.com/maemo32/tomasulo/internal/asm"
	"github.com/maemo32/tomasulo/internal/logging"
)

// Server owns every live simulation. Handlers serialize access to a
// given simulation's engine with its own mutex — two requests against
// the same id must never interleave a step, the way
// ehrlich-b-go-ublk's queue runner guards per-tag state with a mutex
// around otherwise single-threaded transitions.
type Server struct {
	mu    sync.Mutex
	sims  map[uuid.UUID]*simulation
	defCfg engine.Config
}

type simulation struct {
	mu  sync.Mutex
	eng *engine.CycleEngine
}

// NewServer builds a Server whose simulations are all configured with
// defaultConfig; create requests carry no configuration of their own.
func NewServer(defaultConfig engine.Config) *Server {
	return &Server{
		sims:   make(map[uuid.UUID]*simulation),
		defCfg: defaultConfig,
	}
}

// Router builds the mux.Router wiring every endpoint described by
// SPEC_FULL.md §6.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/simulations", s.handleCreate).Methods(http.MethodPost)
	r.HandleFunc("/simulations/{id}/step", s.handleStep).Methods(http.MethodPost)
	r.HandleFunc("/simulations/{id}/run", s.handleRun).Methods(http.MethodPost)
	r.HandleFunc("/simulations/{id}/step-back", s.handleStepBack).Methods(http.MethodPost)
	r.HandleFunc("/simulations/{id}/cycles", s.handleCycles).Methods(http.MethodGet)
	return r
}

// createRequest accepts either a pre-parsed list of engine.Spec records
// or raw assembly text; ProgramText takes precedence when both are
// present, since it is the common case for a human-authored request.
type createRequest struct {
	Program     []engine.Spec `json:"program"`
	ProgramText string        `json:"program_text"`
}

type createResponse struct {
	ID string `json:"id"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	program := req.Program
	if strings.TrimSpace(req.ProgramText) != "" {
		specs, err := asm.Parse(strings.NewReader(req.ProgramText))
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		program = specs
	}

	id, err := s.CreateSimulation(program)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusCreated, createResponse{ID: id.String()})
}

// CreateSimulation loads a program into a fresh engine and registers it
// under a new id, for use both by handleCreate and by callers (such as
// cmd/tomasulo's serve command) that want to pre-load a program before
// the HTTP listener starts accepting requests.
func (s *Server) CreateSimulation(program []engine.Spec) (uuid.UUID, error) {
	eng, err := engine.NewEngine(s.defCfg)
	if err != nil {
		return uuid.UUID{}, err
	}
	eng.LoadProgram(program)

	id := uuid.New()
	s.mu.Lock()
	s.sims[id] = &simulation{eng: eng}
	s.mu.Unlock()

	logging.Info("simulation created", "id", id.String(), "instructions", len(program))
	return id, nil
}

func (s *Server) lookup(w http.ResponseWriter, r *http.Request) *simulation {
	idStr := mux.Vars(r)["id"]
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return nil
	}
	s.mu.Lock()
	sim, ok := s.sims[id]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return nil
	}
	return sim
}

func (s *Server) handleStep(w http.ResponseWriter, r *http.Request) {
	sim := s.lookup(w, r)
	if sim == nil {
		return
	}
	sim.mu.Lock()
	defer sim.mu.Unlock()

	if err := sim.eng.Step(); err != nil {
		logging.Warn("step reported error", "error", err.Error())
	}
	writeJSON(w, http.StatusOK, cycleDTOFrom(sim.eng))
}

type runRequest struct {
	MaxCycles int `json:"max_cycles"`
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	sim := s.lookup(w, r)
	if sim == nil {
		return
	}

	var req runRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	if req.MaxCycles <= 0 {
		req.MaxCycles = 100000
	}

	sim.mu.Lock()
	defer sim.mu.Unlock()

	if err := sim.eng.RunToEnd(req.MaxCycles); err != nil {
		logging.Warn("run halted early", "error", err.Error())
	}
	writeJSON(w, http.StatusOK, cycleDTOFrom(sim.eng))
}

func (s *Server) handleStepBack(w http.ResponseWriter, r *http.Request) {
	sim := s.lookup(w, r)
	if sim == nil {
		return
	}
	sim.mu.Lock()
	defer sim.mu.Unlock()

	if !sim.eng.StepBack() {
		writeError(w, http.StatusConflict, errNoHistory)
		return
	}
	writeJSON(w, http.StatusOK, cycleDTOFrom(sim.eng))
}

// handleCycles replays the engine's snapshot stack into one entry per
// elapsed cycle — the "per-cycle history for replay/scrubbing" item of
// SPEC_FULL.md's supplemented-features section. The live engine itself supplies the final entry; the
// snapshot stack supplies everything before it.
func (s *Server) handleCycles(w http.ResponseWriter, r *http.Request) {
	sim := s.lookup(w, r)
	if sim == nil {
		return
	}
	sim.mu.Lock()
	defer sim.mu.Unlock()

	writeJSON(w, http.StatusOK, cyclesDocument{
		Cycles:  sim.eng.CycleHistory(),
		Metrics: sim.eng.Metrics(),
	})
}
