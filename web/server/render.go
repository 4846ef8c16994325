package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"net/http"
	"time"

	"github.com/df07/go-bvh-pathtracer/pkg/integrator"
	"github.com/df07/go-bvh-pathtracer/pkg/renderer"
	"github.com/df07/go-bvh-pathtracer/pkg/scene"
)

// RenderRequest represents a render request from the client
type RenderRequest struct {
	Width             int
	Height            int
	MaxSamples        int
	MaxPasses         int
	MaxDepth          int
	AdaptiveThreshold float64
	TileUpdates       bool
}

// ProgressUpdate is the payload of a "pass" event
type ProgressUpdate struct {
	PassNumber  int    `json:"passNumber"`
	TotalPasses int    `json:"totalPasses"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG
	Stats       Stats  `json:"stats"`
	IsComplete  bool   `json:"isComplete"`
	ElapsedMs   int64  `json:"elapsedMs"`
	Version     int    `json:"version"` // camera version the pass was rendered from
}

// TileUpdate is the payload of a "tile" event
type TileUpdate struct {
	TileX       int    `json:"tileX"`
	TileY       int    `json:"tileY"`
	ImageData   string `json:"imageData"` // Base64 encoded PNG of just this tile
	PassNumber  int    `json:"passNumber"`
	TileNumber  int    `json:"tileNumber"`
	TotalTiles  int    `json:"totalTiles"`
	TotalPasses int    `json:"totalPasses"`
}

// Stats represents render statistics
type Stats struct {
	TotalPixels    int     `json:"totalPixels"`
	TotalSamples   int64   `json:"totalSamples"`
	AverageSamples float64 `json:"averageSamples"`
	MaxSamples     int     `json:"maxSamples"`
	MinSamples     int     `json:"minSamples"`
	MaxSamplesUsed int     `json:"maxSamplesUsed"`
}

// sseWriter writes events from a single goroutine
type sseWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

func (e *sseWriter) send(event, data string) error {
	if _, err := fmt.Fprintf(e.w, "event: %s\ndata: %s\n\n", event, data); err != nil {
		return err
	}
	e.flusher.Flush()
	return nil
}

func (e *sseWriter) sendJSON(event string, v interface{}) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return e.send(event, string(data))
}

// handleRender streams progressive passes. When the camera moves the
// stream sends a "restart" event and starts over from the new view.
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	events := &sseWriter{w: w, flusher: flusher}

	req, err := s.parseRenderRequest(r)
	if err != nil {
		events.send("error", fmt.Sprintf("Invalid request: %v", err))
		return
	}

	ctx := r.Context()
	for {
		view, version, changed := s.snapshot()

		restart, err := s.stream(ctx, events, req, view, version, changed)
		if err != nil {
			if ctx.Err() != nil {
				logger.Infof("Client disconnected")
				return
			}
			events.send("error", fmt.Sprintf("Render error: %v", err))
			return
		}
		if !restart {
			events.send("complete", "Rendering completed")
			return
		}

		logger.Infof("Camera moved, restarting stream")
		if err := events.sendJSON("restart", map[string]int{"version": version + 1}); err != nil {
			return
		}
	}
}

// stream renders one view until the last pass or until changed fires, in
// which case it reports restart
func (s *Server) stream(ctx context.Context, events *sseWriter, req *RenderRequest, view scene.View, version int, changed <-chan struct{}) (bool, error) {
	select {
	case <-changed:
		return true, nil
	default:
	}

	renderCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	cameraConfig := renderer.DefaultCameraConfig()
	cameraConfig.Width, cameraConfig.Height = req.Width, req.Height
	cameraConfig.MoveStep = s.config.MoveStep
	camera := renderer.NewCamera(view, cameraConfig, s.scene)

	config := s.config.Progressive
	config.MaxSamplesPerPixel = req.MaxSamples
	config.MaxPasses = req.MaxPasses
	config.Adaptive.Threshold = req.AdaptiveThreshold

	integratorConfig := s.config.Integrator
	integratorConfig.MaxDepth = req.MaxDepth

	raytracer := renderer.NewProgressiveRaytracer(s.scene, camera, integrator.NewPathTracingIntegrator(integratorConfig), config)

	start := time.Now()
	passChan, tileChan, errChan := raytracer.RenderProgressive(renderCtx, renderer.RenderOptions{TileUpdates: req.TileUpdates})

	for passChan != nil || tileChan != nil {
		select {
		case <-changed:
			return true, nil

		case <-ctx.Done():
			return false, ctx.Err()

		case tile, ok := <-tileChan:
			if !ok {
				tileChan = nil
				continue
			}
			imageData, err := imageToBase64PNG(tile.TileImage)
			if err != nil {
				return false, err
			}
			update := TileUpdate{
				TileX:       tile.TileX,
				TileY:       tile.TileY,
				ImageData:   imageData,
				PassNumber:  tile.PassNumber,
				TileNumber:  tile.TileNumber,
				TotalTiles:  tile.TotalTiles,
				TotalPasses: tile.TotalPasses,
			}
			if err := events.sendJSON("tile", update); err != nil {
				return false, err
			}

		case pass, ok := <-passChan:
			if !ok {
				passChan = nil
				continue
			}
			imageData, err := imageToBase64PNG(pass.Image)
			if err != nil {
				return false, fmt.Errorf("failed to encode image: %w", err)
			}
			update := ProgressUpdate{
				PassNumber:  pass.PassNumber,
				TotalPasses: config.MaxPasses,
				ImageData:   imageData,
				Stats: Stats{
					TotalPixels:    pass.Stats.TotalPixels,
					TotalSamples:   int64(pass.Stats.TotalSamples),
					AverageSamples: pass.Stats.AverageSamples,
					MaxSamples:     pass.Stats.MaxSamples,
					MinSamples:     pass.Stats.MinSamples,
					MaxSamplesUsed: pass.Stats.MaxSamplesUsed,
				},
				IsComplete: pass.IsLast,
				ElapsedMs:  time.Since(start).Milliseconds(),
				Version:    version,
			}
			if err := events.sendJSON("pass", update); err != nil {
				return false, err
			}
		}
	}

	return false, <-errChan
}

// parseRenderRequest parses request parameters
func (s *Server) parseRenderRequest(r *http.Request) (*RenderRequest, error) {
	query := r.URL.Query()
	req := &RenderRequest{TileUpdates: query.Get("tiles") == "1" || query.Get("tiles") == "true"}

	var err error
	if req.Width, err = parseIntParam(query, "width", s.config.Width, 8, 4096); err != nil {
		return nil, err
	}
	if req.Height, err = parseIntParam(query, "height", s.config.Height, 8, 4096); err != nil {
		return nil, err
	}
	if req.MaxSamples, err = parseIntParam(query, "maxSamples", s.config.Progressive.MaxSamplesPerPixel, 1, 100000); err != nil {
		return nil, err
	}
	if req.MaxPasses, err = parseIntParam(query, "maxPasses", s.config.Progressive.MaxPasses, 1, 10000); err != nil {
		return nil, err
	}
	if req.MaxDepth, err = parseIntParam(query, "maxDepth", s.config.Integrator.MaxDepth, 1, 1000); err != nil {
		return nil, err
	}
	if req.AdaptiveThreshold, err = parseFloatParam(query, "adaptiveThreshold", s.config.Progressive.Adaptive.Threshold, 0, 0.5); err != nil {
		return nil, err
	}

	if req.Width*req.Height > 800*600 && req.MaxSamples > 1000 {
		logger.Warning("Large image with high samples may render slowly")
	}

	return req, nil
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := renderer.WritePNG(&buf, img); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
