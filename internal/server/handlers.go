package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/matzehuels/reqgraph/pkg/buildinfo"
	"github.com/matzehuels/reqgraph/pkg/deps/python"
	rgerrors "github.com/matzehuels/reqgraph/pkg/errors"
	"github.com/matzehuels/reqgraph/pkg/integrations"
	"github.com/matzehuels/reqgraph/pkg/pipeline"
)

// maxBodyBytes bounds POST request bodies.
const maxBodyBytes = 1 << 20

// GraphRequest is the body of POST /v1/graphs.
type GraphRequest struct {
	Roots        []string `json:"roots" validate:"required,min=1,dive,required,max=256"`
	Depth        *int     `json:"depth" validate:"omitempty,gte=0,lte=10"` // nil uses the server default
	Levels       int      `json:"levels" validate:"gte=0,lte=64"`
	View         string   `json:"view" validate:"omitempty,oneof=depth unique clusters shared"`
	Format       string   `json:"format" validate:"omitempty,oneof=json dot svg"`
	Detailed     bool     `json:"detailed"`
	Refresh      bool     `json:"refresh"`
	ShareVisited bool     `json:"share_visited"`
}

// GraphResponse is the JSON answer of POST /v1/graphs.
type GraphResponse struct {
	RunID  string          `json:"run_id"`
	Cached bool            `json:"cached"`
	Stats  GraphStats      `json:"stats"`
	Result json.RawMessage `json:"result"`
}

// GraphStats summarizes a run.
type GraphStats struct {
	Nodes     int   `json:"nodes"`
	Edges     int   `json:"edges"`
	Cycles    int   `json:"cycles"`
	ViewNodes int   `json:"view_nodes"`
	ResolveMS int64 `json:"resolve_ms"`
}

// DependenciesResponse is the answer of GET /v1/packages/{name}/dependencies.
type DependenciesResponse struct {
	Name         string   `json:"name"`
	Version      string   `json:"version,omitempty"`
	Summary      string   `json:"summary,omitempty"`
	License      string   `json:"license,omitempty"`
	HomePage     string   `json:"home_page,omitempty"`
	Dependencies []string `json:"dependencies"`
}

type errorBody struct {
	Error apiError `json:"error"`
}

type apiError struct {
	Code    rgerrors.Code `json:"code"`
	Message string        `json:"message"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"build":  buildinfo.Get(),
	})
}

func (s *Server) handleDependencies(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if err := rgerrors.ValidatePythonPackageName(name); err != nil {
		writeError(w, err)
		return
	}
	refresh, _ := strconv.ParseBool(r.URL.Query().Get("refresh"))

	pkg, err := s.fetcher.Fetch(r.Context(), python.Normalize(name), refresh)
	if err != nil {
		writeError(w, classifyFetchError(name, err))
		return
	}
	deps := pkg.Dependencies
	if deps == nil {
		deps = []string{}
	}
	writeJSON(w, http.StatusOK, DependenciesResponse{
		Name:         pkg.Name,
		Version:      pkg.Version,
		Summary:      pkg.Description,
		License:      pkg.License,
		HomePage:     pkg.HomePage,
		Dependencies: deps,
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	var req GraphRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, rgerrors.Wrap(rgerrors.ErrCodeInvalidInput, err, "malformed request body"))
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, validationError(err))
		return
	}
	if limit := s.cfg.Serve.MaxRoots; len(req.Roots) > limit {
		writeError(w, rgerrors.New(rgerrors.ErrCodeInvalidInput, "too many roots: %d (max %d)", len(req.Roots), limit))
		return
	}

	opts := s.graphOptions(req)
	runID := uuid.NewString()
	w.Header().Set("X-Run-ID", runID)

	res, err := s.runner.Execute(r.Context(), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	s.logger.Info("graph built",
		"run_id", runID,
		"roots", len(opts.Roots),
		"nodes", res.Stats.NodeCount,
		"cached", res.CacheInfo.GraphHit)

	switch opts.Formats[0] {
	case pipeline.FormatDOT:
		w.Header().Set("Content-Type", "text/vnd.graphviz; charset=utf-8")
		_, _ = w.Write(res.Artifacts[pipeline.FormatDOT])
	case pipeline.FormatSVG:
		w.Header().Set("Content-Type", "image/svg+xml")
		_, _ = w.Write(res.Artifacts[pipeline.FormatSVG])
	default:
		writeJSON(w, http.StatusOK, GraphResponse{
			RunID:  runID,
			Cached: res.CacheInfo.GraphHit,
			Stats: GraphStats{
				Nodes:     res.Stats.NodeCount,
				Edges:     res.Stats.EdgeCount,
				Cycles:    res.Stats.Cycles,
				ViewNodes: res.View.Graph.NodeCount(),
				ResolveMS: res.Stats.ResolveTime.Milliseconds(),
			},
			Result: res.Artifacts[pipeline.FormatJSON],
		})
	}
}

// graphOptions fills request gaps from the server configuration. The API
// always classifies; without explicit levels every resolved depth is shown.
func (s *Server) graphOptions(req GraphRequest) pipeline.Options {
	depth := s.cfg.Depth
	if req.Depth != nil {
		depth = *req.Depth
	}
	lv := req.Levels
	if lv == 0 {
		lv = depth + 1
	}
	view := req.View
	if view == "" {
		view = s.cfg.View
	}
	format := req.Format
	if format == "" {
		format = pipeline.FormatJSON
	}
	return pipeline.Options{
		Roots:        req.Roots,
		MaxDepth:     depth,
		MaxNodes:     s.cfg.MaxNodes,
		Workers:      s.cfg.Workers,
		ShareVisited: req.ShareVisited || s.cfg.ShareVisited,
		RuntimeOnly:  s.cfg.PyPI.RuntimeOnly,
		Refresh:      req.Refresh,
		CacheTTL:     s.cfg.Cache.TTL,
		Levels:       lv,
		View:         view,
		Formats:      []string{format},
		Detailed:     req.Detailed,
		Logger:       s.logger,
	}
}

func classifyFetchError(name string, err error) error {
	switch {
	case errors.Is(err, integrations.ErrNotFound):
		return rgerrors.Wrap(rgerrors.ErrCodePackageNotFound, err, "package %q not found", name)
	case errors.Is(err, integrations.ErrNetwork):
		return rgerrors.Wrap(rgerrors.ErrCodeNetwork, err, "lookup of %q failed", name)
	default:
		return err
	}
}

func validationError(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return rgerrors.Wrap(rgerrors.ErrCodeInvalidInput, err, "invalid request")
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := strings.TrimPrefix(fe.Namespace(), "GraphRequest.")
		if fe.Param() != "" {
			msgs = append(msgs, fmt.Sprintf("%s failed %s=%s", field, fe.Tag(), fe.Param()))
		} else {
			msgs = append(msgs, fmt.Sprintf("%s failed %s", field, fe.Tag()))
		}
	}
	code := rgerrors.ErrCodeInvalidInput
	if verrs[0].StructField() == "Roots" {
		code = rgerrors.ErrCodeEmptyRoots
	}
	return rgerrors.New(code, "invalid request: %s", strings.Join(msgs, "; "))
}

func writeError(w http.ResponseWriter, err error) {
	code := rgerrors.CodeOf(err)
	writeJSON(w, rgerrors.HTTPStatus(code), errorBody{Error: apiError{Code: code, Message: rgerrors.UserMessage(err)}})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
