package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/branchview/pkg/buildinfo"
	"github.com/matzehuels/branchview/pkg/cache"
	"github.com/matzehuels/branchview/pkg/errors"
	"github.com/matzehuels/branchview/pkg/graph"
	"github.com/matzehuels/branchview/pkg/observability"
	"github.com/matzehuels/branchview/pkg/pipeline"
	"github.com/matzehuels/branchview/pkg/timeline"
)

// Cache header values.
const (
	cacheHit    = "HIT"
	cacheMiss   = "MISS"
	cacheShared = "SHARED"
)

var contentTypes = map[string]string{
	pipeline.FormatJSON: "application/json",
	pipeline.FormatDOT:  "text/vnd.graphviz; charset=utf-8",
	pipeline.FormatSVG:  "image/svg+xml",
	pipeline.FormatPNG:  "image/png",
	pipeline.FormatPDF:  "application/pdf",
}

type layoutRequest struct {
	graph.Graph
	Direction string `json:"direction,omitempty"`
}

type visibilityRequest struct {
	graph.Graph
	Position *float64  `json:"position"`
	Now      time.Time `json:"now,omitzero"`
}

type visibilityResponse struct {
	Position     float64         `json:"position"`
	Percentage   int             `json:"percentage"`
	Cutoff       *time.Time      `json:"cutoff,omitempty"`
	VisibleNodes []string        `json:"visible_nodes"`
	VisibleEdges []visibleEdge   `json:"visible_edges"`
	Total        visibilityTotal `json:"total"`
}

type visibleEdge struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
	Target string `json:"target"`
}

type visibilityTotal struct {
	Nodes int `json:"nodes"`
	Edges int `json:"edges"`
}

type renderRequest struct {
	graph.Graph
	Direction string    `json:"direction,omitempty"`
	Format    string    `json:"format,omitempty"`
	Position  *float64  `json:"position,omitempty"`
	Now       time.Time `json:"now,omitzero"`
	Detailed  bool      `json:"detailed,omitempty"`
}

type layoutOutcome struct {
	layout graph.Layout
	hit    bool
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"version": buildinfo.Version,
	})
}

func (s *Server) layout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := validateGraph(req.Graph); err != nil {
		s.respondError(w, r, err)
		return
	}

	opts := s.options(req.Direction)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.respondError(w, r, err)
		return
	}

	data, err := graph.MarshalGraph(req.Graph)
	if err != nil {
		s.respondError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "serialize graph"))
		return
	}
	key := opts.Direction + ":" + cache.Hash(data)

	// The computation outlives any single caller that shares it.
	ctx := context.WithoutCancel(r.Context())
	v, err, shared := s.layouts.Do(key, func() (any, error) {
		l, hit, err := s.runner.LayoutWithCacheInfo(ctx, req.Graph, opts)
		return layoutOutcome{layout: l, hit: hit}, err
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	out := v.(layoutOutcome)

	switch {
	case shared:
		w.Header().Set(headerCache, cacheShared)
	case out.hit:
		w.Header().Set(headerCache, cacheHit)
	default:
		w.Header().Set(headerCache, cacheMiss)
	}
	s.respondJSON(w, http.StatusOK, out.layout)
}

func (s *Server) visibility(w http.ResponseWriter, r *http.Request) {
	var req visibilityRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if req.Position == nil {
		s.respondError(w, r, errors.New(errors.ErrCodeInvalidPosition, "position is required"))
		return
	}
	if err := errors.ValidatePosition(*req.Position); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := validateNodes(req.Nodes); err != nil {
		s.respondError(w, r, err)
		return
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	pos := timeline.Clamp(*req.Position)
	win := timeline.NewWindow(graph.Timestamps(req.Nodes), pos, now)
	nodes, edges := timeline.Filter(req.Nodes, req.Edges, win)

	resp := visibilityResponse{
		Position:     pos,
		Percentage:   timeline.Percentage(pos),
		VisibleNodes: make([]string, 0, len(nodes)),
		VisibleEdges: make([]visibleEdge, 0, len(edges)),
		Total:        visibilityTotal{Nodes: len(req.Nodes), Edges: len(req.Edges)},
	}
	if cutoff, ok := win.Cutoff(); ok {
		resp.Cutoff = &cutoff
	}
	for _, n := range nodes {
		resp.VisibleNodes = append(resp.VisibleNodes, n.ID)
	}
	for _, e := range edges {
		resp.VisibleEdges = append(resp.VisibleEdges, visibleEdge{ID: e.ID, Source: e.Source, Target: e.Target})
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	if err := decode(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}
	if err := validateGraph(req.Graph); err != nil {
		s.respondError(w, r, err)
		return
	}

	format := req.Format
	if format == "" {
		format = pipeline.FormatSVG
	}
	opts := s.options(req.Direction)
	opts.Formats = []string{format}
	opts.Position = req.Position
	opts.Now = req.Now
	opts.Detailed = req.Detailed

	res, err := s.runner.Execute(r.Context(), req.Graph, opts)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	if res.CacheInfo.RenderHit {
		w.Header().Set(headerCache, cacheHit)
	} else {
		w.Header().Set(headerCache, cacheMiss)
	}
	w.Header().Set("Content-Type", contentTypes[format])
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.Artifacts[format]); err != nil {
		s.logger.Debug("write response", "error", err)
	}
}

// options returns pipeline options seeded from the server configuration.
func (s *Server) options(direction string) pipeline.Options {
	if direction == "" {
		direction = s.cfg.Layout.Direction
	}
	return pipeline.Options{
		Direction: direction,
		Layout:    s.cfg.Layout.Config,
		Logger:    s.logger,
	}
}

func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "invalid request body")
	}
	return nil
}

func validateNodes(nodes []graph.Node) error {
	for _, n := range nodes {
		if err := errors.ValidateNodeID(n.ID); err != nil {
			return err
		}
		if n.Timestamp.IsZero() {
			return errors.New(errors.ErrCodeInvalidGraph, "node %q has no timestamp", n.ID)
		}
	}
	return nil
}

func validateGraph(g graph.Graph) error {
	if err := validateNodes(g.Nodes); err != nil {
		return err
	}
	if _, err := graph.ToDAG(g); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidGraph, err, "invalid graph")
	}
	return nil
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error("encode response", "error", err)
	}
}

func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	status := errors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", "path", r.URL.Path, "error", err)
		observability.HTTP().OnError(r.Context(), r.Method, r.URL.Path, err)
	}
	code := errors.GetCode(err)
	if code == "" {
		code = errors.ErrCodeInternal
	}
	s.respondJSON(w, status, map[string]any{
		"error":      code,
		"message":    errors.UserMessage(err),
		"request_id": chimiddleware.GetReqID(r.Context()),
	})
}
