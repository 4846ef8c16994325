package cmd

import (
	"context"

	"github.com/df07/go-bvh-pathtracer/web/server"
	"github.com/urfave/cli"
)

// Serve the progressive web preview.
func Serve(ctx *cli.Context) error {
	setupLogging(ctx)

	s, err := loadScene(context.Background(), ctx.String("scene"), ctx.String("sky"))
	if err != nil {
		return err
	}

	settings := settingsFromFlags(ctx)
	config := server.DefaultConfig()
	config.Width, config.Height = settings.camera.Width, settings.camera.Height
	config.Integrator = settings.integrator
	config.StaticDir = ctx.String("static")
	if ctx.Int("spp") > 0 {
		config.Progressive.MaxSamplesPerPixel = settings.progressive.MaxSamplesPerPixel
	}
	if ctx.Int("passes") > 0 {
		config.Progressive.MaxPasses = settings.progressive.MaxPasses
	}
	config.Progressive.NumWorkers = settings.progressive.NumWorkers

	return server.NewServer(s, config).Start(ctx.String("addr"))
}
