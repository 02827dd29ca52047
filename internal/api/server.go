// Package api exposes the analysis engine over HTTP: one JSON compute
// endpoint plus read access to the run archive.
package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"hyperit/adapters/estimators"
	"hyperit/adapters/phiid"
	"hyperit/app"
	"hyperit/domain/core"
	"hyperit/domain/result"
	"hyperit/domain/signal"
	"hyperit/internal"
	"hyperit/ports"
)

// Server routes analysis requests to the app service.
type Server struct {
	router  *chi.Mux
	archive ports.RunArchive // nil disables archiving
	logger  *internal.Logger
}

// NewServer builds the router. A nil archive turns the run endpoints into 404s
// and skips persistence after compute.
func NewServer(archive ports.RunArchive) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		archive: archive,
		logger:  internal.DefaultLogger,
	}
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/api/estimators", s.handleEstimators)
	s.router.Post("/api/analyses", s.handleCompute)
	s.router.Get("/api/runs", s.handleListRuns)
	s.router.Get("/api/runs/{id}", s.handleGetRun)
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

type computeRequest struct {
	Measure      string     `json:"measure"` // "mi", "te" or "atoms"
	Estimator    string     `json:"estimator"`
	Significance bool       `json:"significance"`
	Permutations int        `json:"permutations"`
	Lag          int        `json:"lag"`
	Workers      int        `json:"workers"`
	Seed         int64      `json:"seed"`
	ChannelNames [][]string `json:"channel_names"`

	// Exactly one orientation per signal: a flat (channels, samples) matrix
	// or an explicit (epochs, channels, samples) block.
	X       [][]float64   `json:"x,omitempty"`
	Y       [][]float64   `json:"y,omitempty"`
	XEpochs [][][]float64 `json:"x_epochs,omitempty"`
	YEpochs [][][]float64 `json:"y_epochs,omitempty"`

	ROI *struct {
		X [][]int `json:"x"`
		Y [][]int `json:"y"`
	} `json:"roi,omitempty"`
}

type tensorResponse struct {
	Units  int       `json:"units"`
	Epochs int       `json:"epochs"`
	Stats  int       `json:"stats"`
	Data   []float64 `json:"data"`
}

type computeResponse struct {
	RunID   string           `json:"run_id"`
	Measure string           `json:"measure"`
	Tensor  *tensorResponse  `json:"tensor,omitempty"`
	Reverse *tensorResponse  `json:"reverse_tensor,omitempty"`
	AtomsXY [][]result.Atoms `json:"atoms_xy,omitempty"`
	AtomsYX [][]result.Atoms `json:"atoms_yx,omitempty"`
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	var req computeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	x, err := buildSignal(req.X, req.XEpochs)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	y, err := buildSignal(req.Y, req.YEpochs)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}

	opts := []app.Option{app.WithWorkers(req.Workers)}
	if req.Seed != 0 {
		opts = append(opts, app.WithSeed(req.Seed))
	}
	analysis, err := app.New(x, y, req.ChannelNames, opts...)
	if err != nil {
		s.writeDomainError(w, err)
		return
	}
	if req.ROI != nil {
		if err := analysis.SetGroupedROI(req.ROI.X, req.ROI.Y); err != nil {
			s.writeDomainError(w, err)
			return
		}
	}

	runID := core.RunID(core.NewID())
	resp := computeResponse{RunID: runID.String(), Measure: req.Measure}

	switch req.Measure {
	case "mi":
		cfg, err := buildConfig(estimators.MeasureMI, req)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		tensor, err := analysis.ComputeMI(r.Context(), cfg)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		resp.Tensor = toTensorResponse(tensor)
		s.archiveRun(r, runID, "mi", req.Estimator, tensor)

	case "te":
		cfg, err := buildConfig(estimators.MeasureTE, req)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		xy, yx, err := analysis.ComputeTE(r.Context(), cfg)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		resp.Tensor = toTensorResponse(xy)
		resp.Reverse = toTensorResponse(yx)
		s.archiveRun(r, runID, "te", req.Estimator, xy)

	case "atoms":
		lag := req.Lag
		if lag == 0 {
			lag = 1
		}
		xy, yx, err := analysis.ComputeAtoms(r.Context(), phiid.NewGaussianMMI(), lag)
		if err != nil {
			s.writeDomainError(w, err)
			return
		}
		resp.AtomsXY = toAtomRows(xy)
		resp.AtomsYX = toAtomRows(yx)

	default:
		s.writeError(w, http.StatusBadRequest, "measure must be one of mi, te, atoms")
		return
	}

	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleEstimators(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string][]string{
		"mi": estimators.Tokens(estimators.MeasureMI),
		"te": estimators.Tokens(estimators.MeasureTE),
	})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.writeError(w, http.StatusNotFound, "run archive not configured")
		return
	}
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	runs, err := s.archive.ListRuns(r.Context(), limit)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, runs)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		s.writeError(w, http.StatusNotFound, "run archive not configured")
		return
	}
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	run, err := s.archive.GetRun(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusNotFound, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) archiveRun(r *http.Request, id core.RunID, measure, estimator string, tensor *result.Tensor) {
	if s.archive == nil {
		return
	}
	err := s.archive.StoreRun(r.Context(), ports.ArchivedRun{
		ID:        id,
		Measure:   measure,
		Estimator: estimator,
		Units:     tensor.Units(),
		Epochs:    tensor.Epochs(),
		Stats:     tensor.Stats(),
		Tensor:    tensor.Raw(),
	})
	if err != nil {
		// Archive failures never fail the compute response.
		s.logger.Warn("archiving run %s: %v", id, err)
	}
}

func buildSignal(matrix [][]float64, epochs [][][]float64) (signal.Signal, error) {
	if len(epochs) > 0 {
		return signal.FromEpochs(epochs)
	}
	return signal.FromMatrix(matrix)
}

func buildConfig(measure estimators.Measure, req computeRequest) (estimators.Config, error) {
	t, err := estimators.ParseType(measure, req.Estimator)
	if err != nil {
		return estimators.Config{}, err
	}
	cfg := estimators.MIConfig(t)
	if measure == estimators.MeasureTE {
		cfg = estimators.TEConfig(t)
	}
	cfg.Significance = req.Significance
	if req.Permutations > 0 {
		cfg.Params.Permutations = req.Permutations
	}
	return cfg, nil
}

func toTensorResponse(t *result.Tensor) *tensorResponse {
	return &tensorResponse{
		Units:  t.Units(),
		Epochs: t.Epochs(),
		Stats:  t.Stats(),
		Data:   t.Raw(),
	}
}

func toAtomRows(g *result.AtomGrid) [][]result.Atoms {
	rows := make([][]result.Atoms, g.Units())
	for i := range rows {
		rows[i] = make([]result.Atoms, g.Units())
		for j := range rows[i] {
			rows[i][j] = g.At(i, j)
		}
	}
	return rows
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("encoding response: %v", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, msg string) {
	s.writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) writeDomainError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	if core.IsValidationError(err) || core.IsROIError(err) || core.IsUnsupportedEstimator(err) {
		status = http.StatusBadRequest
	}
	s.writeError(w, status, err.Error())
}
