package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/df07/go-bvh-pathtracer/pkg/log"
	"github.com/df07/go-bvh-pathtracer/pkg/scene"
	"github.com/df07/go-bvh-pathtracer/web/server"
)

func main() {
	port := flag.Int("port", 8080, "Port to serve on")
	sky := flag.String("sky", scene.DefaultSkyPath, "Environment map path or URL")
	sceneFile := flag.String("scene", "default", "Built-in scene name or JSON scene file")
	static := flag.String("static", "static", "Directory served at /")
	flag.Parse()

	logger := log.New("web")

	var s *scene.Scene
	var err error
	if scene.IsBuiltin(*sceneFile) {
		s, err = scene.LoadBuiltin(context.Background(), *sceneFile, *sky)
	} else {
		s, err = scene.LoadFile(context.Background(), *sceneFile)
	}
	if err != nil {
		logger.Errorf("Error loading scene: %v", err)
		os.Exit(1)
	}

	config := server.DefaultConfig()
	config.StaticDir = *static
	webServer := server.NewServer(s, config)

	logger.Noticef("Visit http://localhost:%d to start rendering", *port)
	if err := webServer.Start(fmt.Sprintf(":%d", *port)); err != nil {
		logger.Errorf("Error starting server: %v", err)
		os.Exit(1)
	}
}
