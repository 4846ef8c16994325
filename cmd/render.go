package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-bvh-pathtracer/pkg/renderer"
	"github.com/urfave/cli"
)

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := loadScene(runCtx, ctx.String("scene"), ctx.String("sky"))
	if err != nil {
		return err
	}

	settings := settingsFromFlags(ctx)
	raytracer := newRaytracer(s, settings)
	filename := outputPath(ctx.String("out"), sceneName(ctx.String("scene")), time.Now())

	logger.Noticef("rendering %dx%d, up to %d samples per pixel in %d passes",
		settings.camera.Width, settings.camera.Height,
		raytracer.Config().MaxSamplesPerPixel, raytracer.Config().MaxPasses)

	passChan, _, errChan := raytracer.RenderProgressive(runCtx, renderer.RenderOptions{})

	var last renderer.PassResult
	var elapsed time.Duration
	for pass := range passChan {
		last = pass
		elapsed += pass.Elapsed
		if ctx.Bool("save-passes") && !pass.IsLast {
			if err := renderer.SavePNG(passFilename(filename, pass.PassNumber), pass.Image); err != nil {
				return err
			}
		}
	}

	if err := <-errChan; err != nil {
		if last.Image == nil || !errors.Is(err, context.Canceled) {
			return err
		}
		logger.Warningf("render interrupted after pass %d, saving it", last.PassNumber)
	}

	if err := renderer.SavePNG(filename, last.Image); err != nil {
		return err
	}

	logger.Noticef("render statistics\n%s", renderStatsTable(last.Stats, last.PassNumber, elapsed))
	logger.Noticef("wrote frame to %s", filename)
	return nil
}

// passFilename inserts the pass number before the extension
func passFilename(filename string, pass int) string {
	ext := filepath.Ext(filename)
	return fmt.Sprintf("%s_pass%02d%s", strings.TrimSuffix(filename, ext), pass, ext)
}
