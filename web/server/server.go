// Package server streams progressive renders to a browser over Server-Sent
// Events and lets the client fly the camera between streams.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"sync"

	"github.com/df07/go-bvh-pathtracer/pkg/integrator"
	"github.com/df07/go-bvh-pathtracer/pkg/log"
	"github.com/df07/go-bvh-pathtracer/pkg/renderer"
	"github.com/df07/go-bvh-pathtracer/pkg/scene"
)

var logger = log.New("server")

// Config holds the render defaults used when a request leaves a parameter out
type Config struct {
	Width, Height int
	Progressive   renderer.ProgressiveConfig
	Integrator    integrator.Config
	MoveStep      float64
	StaticDir     string // served at / when set
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	progressive := renderer.DefaultProgressiveConfig()
	progressive.MaxSamplesPerPixel = 256
	progressive.MaxPasses = 9

	return Config{
		Width:       640,
		Height:      360,
		Progressive: progressive,
		Integrator:  integrator.DefaultConfig(),
		MoveStep:    renderer.DefaultCameraConfig().MoveStep,
	}
}

// Server owns one scene and one shared camera placement. Every stream
// renders from the placement current when it (re)starts.
type Server struct {
	scene  *scene.Scene
	config Config

	mu      sync.Mutex
	view    scene.View
	version int
	changed chan struct{} // closed and replaced whenever the view moves
}

// NewServer creates a server for s starting from its stored view
func NewServer(s *scene.Scene, config Config) *Server {
	return &Server{
		scene:   s,
		config:  config,
		view:    s.View(),
		changed: make(chan struct{}),
	}
}

// Handler returns the HTTP routes
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	if s.config.StaticDir != "" {
		mux.Handle("/", http.FileServer(http.Dir(s.config.StaticDir)))
	}
	mux.HandleFunc("/api/render", s.handleRender)
	mux.HandleFunc("/api/camera", s.handleCamera)
	mux.HandleFunc("/api/inspect", s.handleInspect)
	mux.HandleFunc("/api/health", s.handleHealth)
	return mux
}

// Start serves on addr until the listener fails
func (s *Server) Start(addr string) error {
	logger.Noticef("Starting web server on http://%s", addr)
	return http.ListenAndServe(addr, s.Handler())
}

// snapshot returns the current view with its version and change signal
func (s *Server) snapshot() (scene.View, int, <-chan struct{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.view, s.version, s.changed
}

// handleHealth provides a simple health check endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warningf("Error writing response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// parseIntParam parses an integer parameter from URL query with validation
func parseIntParam(values url.Values, key string, defaultValue, min, max int) (int, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %d and %d, got: %d", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}

// parseFloatParam parses a float parameter from URL query with validation
func parseFloatParam(values url.Values, key string, defaultValue, min, max float64) (float64, error) {
	if value := values.Get(key); value != "" {
		parsed, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid %s: %s", key, value)
		}
		if parsed < min || parsed > max {
			return 0, fmt.Errorf("%s must be between %g and %g, got: %g", key, min, max, parsed)
		}
		return parsed, nil
	}
	return defaultValue, nil
}
