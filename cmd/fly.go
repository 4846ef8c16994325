package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/df07/go-bvh-pathtracer/pkg/renderer"
	"github.com/urfave/cli"
)

// Render a scripted camera flight, one PNG per tick.
func Fly(ctx *cli.Context) error {
	setupLogging(ctx)

	script, err := renderer.ParseScript(ctx.String("script"))
	if err != nil {
		return err
	}
	if len(script) == 0 {
		return errors.New("empty flight script")
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	s, err := loadScene(runCtx, ctx.String("scene"), ctx.String("sky"))
	if err != nil {
		return err
	}

	settings := settingsFromFlags(ctx)
	if ctx.Float64("step") > 0 {
		settings.camera.MoveStep = ctx.Float64("step")
	}
	raytracer := newRaytracer(s, settings)
	defer raytracer.Close()

	outDir := ctx.String("out-dir")
	if outDir == "" {
		outDir = filepath.Join("output", sceneName(ctx.String("scene")), "flight")
	}

	flight := renderer.NewFlythrough(raytracer, renderer.FlythroughConfig{
		FPS:            ctx.Int("fps"),
		Frequency:      ctx.Float64("frequency"),
		Damping:        ctx.Float64("damping"),
		PassesPerFrame: ctx.Int("frame-passes"),
	})

	logger.Noticef("flying %d frames into %s", len(script), outDir)
	return flight.Run(runCtx, script, func(frame renderer.Frame) error {
		filename := filepath.Join(outDir, fmt.Sprintf("frame_%04d.png", frame.Number))
		logger.Infof("frame %d: %v (speed %.2f, %.1f spp)", frame.Number, frame.Commands, frame.Speed, frame.Stats.AverageSamples)
		return renderer.SavePNG(filename, frame.Image)
	})
}
