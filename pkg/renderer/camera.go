package renderer

import (
	"github.com/df07/go-bvh-pathtracer/pkg/core"
	"github.com/df07/go-bvh-pathtracer/pkg/geometry"
	"github.com/df07/go-bvh-pathtracer/pkg/scene"
)

// CameraConfig contains camera parameters that do not change while flying
type CameraConfig struct {
	Width, Height int     // image size in pixels
	FocalCap      float64 // focal distance used when the probe ray hits nothing or something farther
	MoveStep      float64 // distance moved per command
}

// DefaultCameraConfig returns sensible default values
func DefaultCameraConfig() CameraConfig {
	return CameraConfig{
		Width:    640,
		Height:   360,
		FocalCap: 20,
		MoveStep: 0.1,
	}
}

// Prober finds the nearest surface along a ray; it is used to focus
type Prober interface {
	IntersectClosest(ray core.Ray) (geometry.Intersection, bool)
}

// Camera is a thin lens camera focused on whatever lies straight ahead.
// It is not safe to move the camera while a pass is rendering.
type Camera struct {
	config   CameraConfig
	prober   Prober
	lensSize float64

	origin, target core.Vec3

	// Derived by Update
	direction, right, up core.Vec3
	focalDistance        float64
	p1, p2, p3           core.Vec3 // top-left, top-right and bottom-left corners of the focal plane
}

// NewCamera places a camera at view and focuses it against prober
func NewCamera(view scene.View, config CameraConfig, prober Prober) *Camera {
	if config.FocalCap <= 0 {
		config.FocalCap = DefaultCameraConfig().FocalCap
	}
	c := &Camera{
		config:   config,
		prober:   prober,
		lensSize: view.LensSize,
		origin:   view.Origin,
		target:   view.Target,
	}
	c.Update()
	return c
}

// Update recomputes the basis, the focal distance and the screen corners
// from origin and target
func (c *Camera) Update() {
	c.direction = c.target.Subtract(c.origin).Normalize()
	if c.direction.IsZero() {
		c.direction = core.NewVec3(0, 0, -1)
	}

	c.right = c.direction.Cross(core.NewVec3(0, 1, 0)).Normalize()
	if c.right.IsZero() {
		// Looking straight up or down
		c.right = c.direction.Cross(core.NewVec3(0, 0, 1)).Normalize()
	}
	c.up = c.right.Cross(c.direction)

	c.focalDistance = c.config.FocalCap
	if hit, ok := c.prober.IntersectClosest(core.NewRay(c.origin, c.direction)); ok {
		c.focalDistance = min(hit.Distance, c.config.FocalCap)
	}

	aspect := float64(c.config.Width) / float64(c.config.Height)
	f := c.focalDistance
	center := c.origin.Add(c.direction.Multiply(f))
	halfWidth := c.right.Multiply(0.5 * f * aspect)
	halfHeight := c.up.Multiply(0.5 * f)

	c.p1 = center.Subtract(halfWidth).Add(halfHeight)
	c.p2 = center.Add(halfWidth).Add(halfHeight)
	c.p3 = center.Subtract(halfWidth).Subtract(halfHeight)
}

// GenerateRay returns a ray through a random point of pixel (x, y), where
// y counts down from the top row, leaving from a random point of the lens
func (c *Camera) GenerateRay(x, y int, sampler core.Sampler) core.Ray {
	jitter := sampler.Get2D()
	u := (float64(x) + jitter.X) / float64(c.config.Width)
	v := (float64(y) + jitter.Y) / float64(c.config.Height)
	target := c.p1.Add(c.p2.Subtract(c.p1).Multiply(u)).Add(c.p3.Subtract(c.p1).Multiply(v))

	origin := c.origin
	if c.lensSize > 0 {
		lens := core.SamplePointInUnitDisk(sampler.Get2D())
		radius := c.lensSize / 2
		origin = origin.Add(c.right.Multiply(lens.X * radius)).Add(c.up.Multiply(lens.Y * radius))
	}

	return core.NewRay(origin, target.Subtract(origin).Normalize())
}

// HandleInput applies one tick of movement commands with the configured
// step. It reports whether the camera moved; the caller must then restart
// accumulation.
func (c *Camera) HandleInput(commands Commands) bool {
	return c.HandleInputStep(commands, c.config.MoveStep)
}

// HandleInputStep is HandleInput with an explicit step size
func (c *Camera) HandleInputStep(commands Commands, step float64) bool {
	if commands == 0 || step == 0 {
		return false
	}

	axis := func(positive, negative Commands) float64 {
		var v float64
		if commands.Has(positive) {
			v += step
		}
		if commands.Has(negative) {
			v -= step
		}
		return v
	}
	strafe := axis(StrafeRight, StrafeLeft)
	forward := axis(Forward, Back)
	rise := axis(Rise, Fall)
	lookUp := axis(LookUp, LookDown)
	lookRight := axis(LookRight, LookLeft)

	// Opposing commands cancel and leave the camera untouched
	if strafe == 0 && forward == 0 && rise == 0 && lookUp == 0 && lookRight == 0 {
		return false
	}

	delta := c.right.Multiply(strafe).Add(c.direction.Multiply(forward)).Add(c.up.Multiply(rise))
	c.origin = c.origin.Add(delta)
	// Re-anchor the target one unit ahead so look commands turn by a fixed angle
	c.target = c.origin.Add(c.direction).
		Add(c.up.Multiply(lookUp)).
		Add(c.right.Multiply(lookRight))

	c.Update()
	return true
}

// Origin returns the lens center
func (c *Camera) Origin() core.Vec3 { return c.origin }

// Direction returns the unit viewing direction
func (c *Camera) Direction() core.Vec3 { return c.direction }

// Basis returns the unit right and up vectors
func (c *Camera) Basis() (right, up core.Vec3) { return c.right, c.up }

// FocalDistance returns the distance to the focal plane
func (c *Camera) FocalDistance() float64 { return c.focalDistance }

// Corners returns the top-left, top-right and bottom-left focal plane corners
func (c *Camera) Corners() (p1, p2, p3 core.Vec3) { return c.p1, c.p2, c.p3 }

// View returns the current placement
func (c *Camera) View() scene.View {
	return scene.View{Origin: c.origin, Target: c.origin.Add(c.direction), LensSize: c.lensSize}
}

// Size returns the image size the camera was configured for
func (c *Camera) Size() (width, height int) {
	return c.config.Width, c.config.Height
}
