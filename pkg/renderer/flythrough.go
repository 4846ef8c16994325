package renderer

import (
	"context"
	"image"

	"github.com/charmbracelet/harmonica"
)

// FlythroughConfig controls a camera flight
type FlythroughConfig struct {
	FPS            int     // frame rate the spring is stepped at
	Frequency      float64 // spring angular frequency
	Damping        float64 // spring damping ratio; 1 is critically damped
	PassesPerFrame int     // progressive passes rendered for each frame
}

// DefaultFlythroughConfig returns sensible default values
func DefaultFlythroughConfig() FlythroughConfig {
	return FlythroughConfig{
		FPS:            24,
		Frequency:      4.0,
		Damping:        1.0,
		PassesPerFrame: 1,
	}
}

// Frame is the output of one flythrough tick
type Frame struct {
	Number   int
	Commands Commands
	Moved    bool
	Speed    float64 // eased fraction of the move step used this tick
	Image    *image.RGBA
	Stats    RenderStats
}

// Flythrough drives a camera with one command set per frame. While
// commands are held the step eases up to the camera's MoveStep along a
// spring and drops back to rest when released. Any movement restarts
// accumulation; a camera at rest keeps refining the same image.
type Flythrough struct {
	renderer *ProgressiveRaytracer
	config   FlythroughConfig
	spring   harmonica.Spring
	speed    float64
	velocity float64
	frame    int
	pass     int
}

// NewFlythrough wraps a progressive raytracer. The caller still owns it and
// must Close it when done.
func NewFlythrough(renderer *ProgressiveRaytracer, config FlythroughConfig) *Flythrough {
	defaults := DefaultFlythroughConfig()
	if config.FPS <= 0 {
		config.FPS = defaults.FPS
	}
	if config.Frequency <= 0 {
		config.Frequency = defaults.Frequency
	}
	if config.Damping <= 0 {
		config.Damping = defaults.Damping
	}
	config.PassesPerFrame = max(1, config.PassesPerFrame)

	return &Flythrough{
		renderer: renderer,
		config:   config,
		spring:   harmonica.NewSpring(harmonica.FPS(config.FPS), config.Frequency, config.Damping),
	}
}

// Step applies commands, then renders PassesPerFrame passes
func (f *Flythrough) Step(ctx context.Context, commands Commands) (Frame, error) {
	f.frame++

	goal := 0.0
	if commands != 0 {
		goal = 1.0
	}
	f.speed, f.velocity = f.spring.Update(f.speed, f.velocity, goal)
	if commands == 0 {
		// Released keys stop the camera at once; only acceleration is eased
		f.speed, f.velocity = 0, 0
	}

	camera := f.renderer.Camera()
	moved := camera.HandleInputStep(commands, camera.config.MoveStep*f.speed)
	if moved {
		f.renderer.Reset()
		f.pass = 0
	}

	frame := Frame{Number: f.frame, Commands: commands, Moved: moved, Speed: f.speed}
	for i := 0; i < f.config.PassesPerFrame; i++ {
		f.pass++
		img, stats, err := f.renderer.RenderPass(ctx, f.pass, nil)
		if err != nil {
			return frame, err
		}
		frame.Image, frame.Stats = img, stats
	}

	logger.Debugf("Frame %d: %v speed %.3f pass %d", f.frame, commands, f.speed, f.pass)
	return frame, nil
}

// Run steps through a script, calling onFrame after every tick
func (f *Flythrough) Run(ctx context.Context, script []Commands, onFrame func(Frame) error) error {
	for _, commands := range script {
		if err := ctx.Err(); err != nil {
			return err
		}
		frame, err := f.Step(ctx, commands)
		if err != nil {
			return err
		}
		if onFrame != nil {
			if err := onFrame(frame); err != nil {
				return err
			}
		}
	}
	return nil
}
