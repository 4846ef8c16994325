package server

import (
	"errors"
	"net/http"

	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/material"
	"github.com/df07/go-bvh-pathtracer/pkg/renderer"
)

// InspectResponse describes what the center ray of a pixel hits
type InspectResponse struct {
	Hit          bool       `json:"hit"`
	MaterialType string     `json:"materialType,omitempty"`
	Properties   string     `json:"properties,omitempty"`
	Point        [3]float64 `json:"point"`
	Normal       [3]float64 `json:"normal"`
	Distance     float64    `json:"distance"`
	Inside       bool       `json:"inside"`
	Sky          [3]float64 `json:"sky"` // radiance from the panorama on a miss
}

// centerSampler aims through the pixel center and the lens center
type centerSampler struct{}

func (centerSampler) Get1D() float64   { return 0.5 }
func (centerSampler) Get2D() core.Vec2 { return core.NewVec2(0.5, 0.5) }

// handleInspect traces the center ray of pixel (x, y) of a width x height
// image from the current camera
func (s *Server) handleInspect(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	width, err := parseIntParam(query, "width", s.config.Width, 1, 4096)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	height, err := parseIntParam(query, "height", s.config.Height, 1, 4096)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if query.Get("x") == "" || query.Get("y") == "" {
		writeError(w, http.StatusBadRequest, errors.New("x and y are required"))
		return
	}
	x, err := parseIntParam(query, "x", 0, 0, width-1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	y, err := parseIntParam(query, "y", 0, 0, height-1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	view, _, _ := s.snapshot()
	config := renderer.DefaultCameraConfig()
	config.Width, config.Height = width, height
	camera := renderer.NewCamera(view, config, s.scene)

	ray := camera.GenerateRay(x, y, centerSampler{})
	hit, ok := s.scene.IntersectClosest(ray)
	if !ok {
		writeJSON(w, http.StatusOK, InspectResponse{Sky: toArray(s.scene.SampleSkybox(ray.Direction))})
		return
	}

	kind, params := material.Describe(hit.Material)
	writeJSON(w, http.StatusOK, InspectResponse{
		Hit:          true,
		MaterialType: kind,
		Properties:   params,
		Point:        toArray(hit.Point),
		Normal:       toArray(hit.Normal),
		Distance:     hit.Distance,
		Inside:       hit.Inside,
	})
}
