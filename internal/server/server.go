// Package server exposes the schematic viewport over HTTP: the server-rendered page, the
// live session socket, the layout API and PNG snapshots.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/recera/solarview/internal/layoutfeed"
	"github.com/recera/solarview/pkg/grid"
	"github.com/recera/solarview/pkg/live"
	"github.com/recera/solarview/pkg/snapshot"
	"github.com/recera/solarview/pkg/viewport"
	"github.com/recera/solarview/pkg/workspace"
)

// maxLayoutBody bounds PUT /api/layout request bodies
const maxLayoutBody = 4 << 10

// Config holds server configuration.
type Config struct {
	Addr           string
	AllowedOrigins []string
	// Surface is the size the page gives the schematic viewport
	Surface       viewport.Size
	MiniMapBounds viewport.Rect
	Workspace     workspace.Options
	// MaxPanels bounds layouts set over HTTP or requested as snapshots; zero means grid.MaxPanels
	MaxPanels int
}

// Server serves the page, the live socket and the JSON/PNG endpoints.
type Server struct {
	cfg        Config
	feed       *layoutfeed.Feed
	live       *live.Server
	snapshots  *snapshot.Renderer
	router     chi.Router
	httpServer *http.Server
	unfeed     func()
}

// New wires the server. Layout changes published on feed are broadcast to every live
// session. snapshots may be nil, in which case /snapshot.png is not served.
func New(cfg Config, feed *layoutfeed.Feed, liveSrv *live.Server, snapshots *snapshot.Renderer) *Server {
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = []string{"*"}
	}
	s := &Server{
		cfg:       cfg,
		feed:      feed,
		live:      liveSrv,
		snapshots: snapshots,
	}
	if err := liveSrv.Broadcast(feed.Get()); err != nil {
		log.Printf("[Server] Initial layout not applied: %v", err)
	}
	s.unfeed = feed.Subscribe(func(spec grid.LayoutSpec) {
		log.Printf("[Server] Layout changed to %s, updating %d session(s)", spec, liveSrv.Sessions())
		if err := liveSrv.Broadcast(spec); err != nil {
			log.Printf("[Server] Layout not applied: %v", err)
		}
	})

	s.router = s.buildRouter()
	return s
}

// buildRouter creates and configures the chi router with all routes.
func (s *Server) buildRouter() chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Live sessions outlive any request timeout
	r.Get("/live", s.handleLive)
	r.Get("/live/{session}", s.handleLive)

	r.Group(func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))

		r.Get("/", s.handlePage)
		r.Get("/snapshot.png", s.handleSnapshot)

		r.Route("/api", func(r chi.Router) {
			r.Get("/layout", s.handleGetLayout)
			r.Put("/layout", s.handlePutLayout)
			r.Get("/viewport/{session}", s.handleViewport)
		})
	})

	return r
}

// Router returns the chi router.
func (s *Server) Router() chi.Router { return s.router }

// Start begins listening on the configured address.
func (s *Server) Start() error {
	s.httpServer = &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("[Server] Listening on http://%s", s.cfg.Addr)
	err := s.httpServer.ListenAndServe()
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// Shutdown stops accepting requests, then closes every live session.
func (s *Server) Shutdown(ctx context.Context) error {
	s.unfeed()
	var err error
	if s.httpServer != nil {
		err = s.httpServer.Shutdown(ctx)
	}
	s.live.Close()
	return err
}

func (s *Server) handleLive(w http.ResponseWriter, r *http.Request) {
	s.live.ServeSession(w, r, chi.URLParam(r, "session"))
}

func (s *Server) handleGetLayout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.feed.Get())
}

func (s *Server) handlePutLayout(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxLayoutBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}

	// Every count is required so a partial update cannot zero the others
	var body grid.Fields
	if err := json.Unmarshal(data, &body); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	spec, err := body.Spec(s.cfg.MaxPanels)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.feed.Set(spec)
	writeJSON(w, http.StatusOK, spec)
}

func (s *Server) handleViewport(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "session")
	session, ok := s.live.Session(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("no session %q", id))
		return
	}
	writeJSON(w, http.StatusOK, session.State())
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	if s.snapshots == nil {
		writeError(w, http.StatusNotFound, "snapshots are disabled")
		return
	}

	req, err := snapshotRequest(r, s.feed.Get(), s.cfg.MaxPanels)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, err := s.snapshots.PNG(req)
	if err != nil {
		log.Printf("[Server] Snapshot failed: %v", err)
		writeError(w, http.StatusInternalServerError, "rendering snapshot")
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(http.StatusOK)
	w.Write(data)
}

// snapshotRequest reads smb, strings, panels, scale, x and y from the query. Missing
// counts fall back to the current layout and a missing scale to 1. The resulting layout
// must fit within maxPanels.
func snapshotRequest(r *http.Request, current grid.LayoutSpec, maxPanels int) (snapshot.Request, error) {
	q := r.URL.Query()
	req := snapshot.Request{Layout: current, Transform: viewport.Identity}

	ints := []struct {
		name string
		dst  *int
	}{
		{"smb", &req.Layout.SmbCount},
		{"strings", &req.Layout.StringCount},
		{"panels", &req.Layout.PanelCount},
	}
	for _, p := range ints {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return req, fmt.Errorf("invalid %s %q", p.name, v)
			}
			*p.dst = n
		}
	}
	if err := req.Layout.Check(maxPanels); err != nil {
		return req, err
	}

	floats := []struct {
		name string
		dst  *float64
	}{
		{"scale", &req.Transform.Scale},
		{"x", &req.Transform.Position.X},
		{"y", &req.Transform.Position.Y},
	}
	for _, p := range floats {
		if v := q.Get(p.name); v != "" {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return req, fmt.Errorf("invalid %s %q", p.name, v)
			}
			*p.dst = f
		}
	}
	return req, nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// CheckOrigin builds a WebSocket origin check from the CORS origin list. "*" allows any
// origin, and requests without an Origin header (non-browser clients) are always allowed.
func CheckOrigin(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[strings.TrimSuffix(o, "/")] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || set[origin]
	}
}
