package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/renderer"
)

// CameraRequest lists movement ticks, each a "+" separated command set
// such as "w+left"
type CameraRequest struct {
	Commands []string `json:"commands"`
	Step     float64  `json:"step,omitempty"` // overrides the configured move step
}

// CameraResponse describes the camera after a request
type CameraResponse struct {
	Changed       bool       `json:"changed"`
	Version       int        `json:"version"`
	Origin        [3]float64 `json:"origin"`
	Target        [3]float64 `json:"target"`
	FocalDistance float64    `json:"focalDistance"`
}

// handleCamera reports the camera on GET and moves it on POST
func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.moveCamera(nil, 0))

	case http.MethodPost:
		var req CameraRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid camera request: %w", err))
			return
		}

		ticks := make([]renderer.Commands, 0, len(req.Commands))
		for _, text := range req.Commands {
			commands, err := renderer.ParseCommands(text)
			if err != nil {
				writeError(w, http.StatusBadRequest, err)
				return
			}
			ticks = append(ticks, commands)
		}

		step := req.Step
		if step <= 0 {
			step = s.config.MoveStep
		}
		writeJSON(w, http.StatusOK, s.moveCamera(ticks, step))

	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, fmt.Errorf("method %s not allowed", r.Method))
	}
}

// moveCamera applies ticks to the shared view and wakes every stream when
// it changed
func (s *Server) moveCamera(ticks []renderer.Commands, step float64) CameraResponse {
	s.mu.Lock()
	defer s.mu.Unlock()

	config := renderer.DefaultCameraConfig()
	config.Width, config.Height = s.config.Width, s.config.Height
	camera := renderer.NewCamera(s.view, config, s.scene)

	changed := false
	for _, tick := range ticks {
		if camera.HandleInputStep(tick, step) {
			changed = true
		}
	}

	if changed {
		s.view = camera.View()
		s.version++
		close(s.changed)
		s.changed = make(chan struct{})
		logger.Debugf("Camera moved to %v looking at %v (version %d)", s.view.Origin, s.view.Target, s.version)
	}

	return CameraResponse{
		Changed:       changed,
		Version:       s.version,
		Origin:        toArray(s.view.Origin),
		Target:        toArray(s.view.Target),
		FocalDistance: camera.FocalDistance(),
	}
}

func toArray(v core.Vec3) [3]float64 {
	return [3]float64{v.X, v.Y, v.Z}
}
