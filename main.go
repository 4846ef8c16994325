package main

import (
	"fmt"
	"os"

	"github.com/df07/go-bvh-pathtracer/cmd"
	"github.com/df07/go-bvh-pathtracer/pkg/scene"
	"github.com/urfave/cli"
)

var sceneFlags = []cli.Flag{
	cli.StringFlag{
		Name:  "scene",
		Value: "default",
		Usage: `built-in scene name ("default", "grid") or JSON scene file path or URL`,
	},
	cli.StringFlag{
		Name:  "sky",
		Value: scene.DefaultSkyPath,
		Usage: `environment map for the built-in scene (raw big-endian floats, PNG or JPEG); "none" for a white sky`,
	},
}

var renderFlags = []cli.Flag{
	cli.IntFlag{
		Name:  "width",
		Value: 640,
		Usage: "frame width",
	},
	cli.IntFlag{
		Name:  "height",
		Value: 360,
		Usage: "frame height",
	},
	cli.IntFlag{
		Name:  "spp",
		Value: 64,
		Usage: "maximum samples per pixel",
	},
	cli.IntFlag{
		Name:  "passes",
		Value: 7,
		Usage: "number of progressive passes",
	},
	cli.IntFlag{
		Name:  "depth",
		Value: 10,
		Usage: "maximum path length",
	},
	cli.IntFlag{
		Name:  "workers",
		Usage: "render workers (0 = one per CPU)",
	},
	cli.IntFlag{
		Name:  "tile",
		Value: 64,
		Usage: "tile size in pixels",
	},
	cli.Float64Flag{
		Name:  "adaptive",
		Value: 0.01,
		Usage: "relative error at which a pixel stops sampling early (0 disables)",
	},
	cli.Float64Flag{
		Name:  "lens",
		Usage: "lens diameter, overriding the scene's (0 for a pinhole)",
	},
}

func withFlags(groups ...[]cli.Flag) []cli.Flag {
	var flags []cli.Flag
	for _, group := range groups {
		flags = append(flags, group...)
	}
	return flags
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "go-bvh-pathtracer"
	app.Usage = "render sphere and triangle scenes with a BVH accelerated path tracer"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "render",
			Usage: "render a still frame progressively and save it as PNG",
			Flags: withFlags(sceneFlags, renderFlags, []cli.Flag{
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output file (default: output/<scene>/render_<timestamp>.png)",
				},
				cli.BoolFlag{
					Name:  "save-passes",
					Usage: "also save every intermediate pass",
				},
			}),
			Action: cmd.RenderFrame,
		},
		{
			Name:  "fly",
			Usage: "render a scripted camera flight",
			Description: `
Each comma separated tick of the script is a "+" separated set of camera
commands applied for one frame: w/s move forward/back, a/d strafe, r/f rise
and fall, up/down/left/right turn the view. An empty tick holds the camera
still and lets the frame keep refining.

Example: --script "w,w,w+left,,d"`,
			Flags: withFlags(sceneFlags, renderFlags, []cli.Flag{
				cli.StringFlag{
					Name:  "script",
					Usage: "flight script",
				},
				cli.Float64Flag{
					Name:  "step",
					Value: 0.1,
					Usage: "full speed move per frame",
				},
				cli.IntFlag{
					Name:  "fps",
					Value: 24,
					Usage: "frame rate used to ease the camera speed",
				},
				cli.Float64Flag{
					Name:  "frequency",
					Value: 4.0,
					Usage: "easing spring angular frequency",
				},
				cli.Float64Flag{
					Name:  "damping",
					Value: 1.0,
					Usage: "easing spring damping ratio",
				},
				cli.IntFlag{
					Name:  "frame-passes",
					Value: 1,
					Usage: "progressive passes rendered per frame",
				},
				cli.StringFlag{
					Name:  "out-dir",
					Usage: "frame directory (default: output/<scene>/flight)",
				},
			}),
			Action: cmd.Fly,
		},
		{
			Name:  "bench",
			Usage: "measure rendering throughput",
			Flags: withFlags(sceneFlags, renderFlags, []cli.Flag{
				cli.IntFlag{
					Name:  "runs",
					Value: 3,
					Usage: "number of full renders",
				},
			}),
			Action: cmd.Benchmark,
		},
		{
			Name:  "serve",
			Usage: "serve the progressive web preview",
			Flags: withFlags(sceneFlags, renderFlags, []cli.Flag{
				cli.StringFlag{
					Name:  "addr",
					Value: ":8080",
					Usage: "listen address",
				},
				cli.StringFlag{
					Name:  "static",
					Usage: "directory served at /",
				},
			}),
			Action: cmd.Serve,
		},
		{
			Name:  "info",
			Usage: "display scene and BVH statistics",
			Flags: withFlags(sceneFlags, []cli.Flag{
				cli.IntFlag{
					Name:  "leaf-size",
					Usage: "maximum primitives per BVH leaf",
				},
			}),
			Action: cmd.ShowSceneInfo,
		},
		{
			Name:  "scenes",
			Usage: "list built-in and JSON scenes",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "dir",
					Value: "scenes",
					Usage: "directory searched for JSON scene files",
				},
			},
			Action: cmd.ListScenes,
		},
	}

	return app
}

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
