package camera

import (
	"fmt"
	"time"

	"github.com/Faultbox/reveal-viewer/pkg/math"
)

// Mode selects the manager variant.
type Mode string

const (
	ModeOrbit      Mode = "orbit"
	ModeStationary Mode = "stationary"
)

// ParseMode validates a mode name from configuration.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeOrbit, ModeStationary:
		return Mode(s), nil
	}
	return "", fmt.Errorf("camera: unknown mode %q", s)
}

// Default manager parameters.
const (
	DefaultFOV                 = 60
	DefaultMinFOV              = 5
	DefaultNear                = 0.1
	DefaultFar                 = 1000
	DefaultStopDebounce        = 100 * time.Millisecond
	DefaultFitRadiusFactor     = 2
	DefaultFitDistance         = 10
	DefaultPinchThreshold      = 2
	DefaultRotationSensitivity = 0.0025
	DefaultWheelSensitivity    = 0.05
	DefaultPinchSensitivity    = 0.1
	DefaultOrbitSensitivity    = 0.005
	DefaultDollySensitivity    = 0.001
	DefaultMinDistance         = 0.1

	// MinNear is the lower bound for the automatically computed near plane.
	MinNear = 0.1
)

// Config holds the tunables shared by both manager variants.
type Config struct {
	Mode Mode

	FOV    float32 // default vertical FOV, degrees
	MinFOV float32 // stationary zoom limit, degrees

	StopDebounce    time.Duration
	FitRadiusFactor float32
	PinchThreshold  float32 // pixels

	RotationSensitivity float32 // stationary, radians per pixel at the default FOV
	WheelSensitivity    float32 // stationary, FOV degrees per wheel unit
	PinchSensitivity    float32 // stationary, FOV degrees per pinch pixel
	OrbitSensitivity    float32 // orbit, radians per pixel
	DollySensitivity    float32 // orbit, distance fraction per wheel unit
	MinDistance         float32 // orbit, closest approach to the target

	ViewportWidth  int
	ViewportHeight int

	Position math.Vec3
	Target   math.Vec3
}

// DefaultConfig returns the defaults for the given mode.
func DefaultConfig(mode Mode) Config {
	return Config{
		Mode:                mode,
		FOV:                 DefaultFOV,
		MinFOV:              DefaultMinFOV,
		StopDebounce:        DefaultStopDebounce,
		FitRadiusFactor:     DefaultFitRadiusFactor,
		PinchThreshold:      DefaultPinchThreshold,
		RotationSensitivity: DefaultRotationSensitivity,
		WheelSensitivity:    DefaultWheelSensitivity,
		PinchSensitivity:    DefaultPinchSensitivity,
		OrbitSensitivity:    DefaultOrbitSensitivity,
		DollySensitivity:    DefaultDollySensitivity,
		MinDistance:         DefaultMinDistance,
		ViewportWidth:       1280,
		ViewportHeight:      720,
		Position:            math.Vec3{X: 0, Y: 0, Z: 10},
		Target:              math.Vec3{},
	}
}

// withDefaults fills zero fields so partially-specified configs behave.
func (c Config) withDefaults() Config {
	d := DefaultConfig(c.Mode)
	if c.FOV <= 0 {
		c.FOV = d.FOV
	}
	if c.MinFOV <= 0 || c.MinFOV > c.FOV {
		c.MinFOV = min(d.MinFOV, c.FOV)
	}
	if c.StopDebounce <= 0 {
		c.StopDebounce = d.StopDebounce
	}
	if c.FitRadiusFactor <= 0 {
		c.FitRadiusFactor = d.FitRadiusFactor
	}
	if c.PinchThreshold < 0 {
		c.PinchThreshold = d.PinchThreshold
	}
	if c.RotationSensitivity <= 0 {
		c.RotationSensitivity = d.RotationSensitivity
	}
	if c.WheelSensitivity <= 0 {
		c.WheelSensitivity = d.WheelSensitivity
	}
	if c.PinchSensitivity <= 0 {
		c.PinchSensitivity = d.PinchSensitivity
	}
	if c.OrbitSensitivity <= 0 {
		c.OrbitSensitivity = d.OrbitSensitivity
	}
	if c.DollySensitivity <= 0 {
		c.DollySensitivity = d.DollySensitivity
	}
	if c.MinDistance <= 0 {
		c.MinDistance = d.MinDistance
	}
	if c.ViewportWidth <= 0 || c.ViewportHeight <= 0 {
		c.ViewportWidth, c.ViewportHeight = d.ViewportWidth, d.ViewportHeight
	}
	return c
}
