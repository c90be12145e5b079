package arbor

// CameraConfig describes the default camera a root creates when none is
// supplied.
type CameraConfig struct {
	Orthographic bool       `mapstructure:"orthographic" yaml:"orthographic"`
	Fov          float32    `mapstructure:"fov" yaml:"fov"`
	Near         float32    `mapstructure:"near" yaml:"near"`
	Far          float32    `mapstructure:"far" yaml:"far"`
	Zoom         float32    `mapstructure:"zoom" yaml:"zoom"`
	Position     [3]float32 `mapstructure:"position" yaml:"position"`
	// Manual keeps the camera's projection when the root is resized.
	Manual bool `mapstructure:"manual" yaml:"manual"`
}

// Config holds the settings of a root store.
type Config struct {
	Frameloop FrameLoop `mapstructure:"frameloop" yaml:"frameloop"`
	Width     float64   `mapstructure:"width" yaml:"width"`
	Height    float64   `mapstructure:"height" yaml:"height"`
	DPR       float64   `mapstructure:"dpr" yaml:"dpr"`
	DPRMin    float64   `mapstructure:"dpr_min" yaml:"dpr_min"`
	DPRMax    float64   `mapstructure:"dpr_max" yaml:"dpr_max"`

	// EventsEnabled turns raycasting for the root on or off.
	EventsEnabled bool `mapstructure:"events_enabled" yaml:"events_enabled"`
	// EventPriority orders hits from this root against hits from others.
	EventPriority int `mapstructure:"event_priority" yaml:"event_priority"`
	// ReplayPointer re-raycasts the last pointer event before every render,
	// so hover state follows objects that move under a still pointer.
	ReplayPointer bool `mapstructure:"replay_pointer" yaml:"replay_pointer"`

	Camera CameraConfig `mapstructure:"camera" yaml:"camera"`

	// Size is derived from Width and Height.
	Size Size `mapstructure:"-" yaml:"-"`
}

// DefaultConfig returns the settings used when none are given.
func DefaultConfig() Config {
	return Config{
		Frameloop:     FrameLoopAlways,
		Width:         800,
		Height:        600,
		DPR:           1,
		DPRMin:        1,
		DPRMax:        2,
		EventsEnabled: true,
		EventPriority: 1,
		Camera: CameraConfig{
			Fov:      75,
			Near:     0.1,
			Far:      1000,
			Zoom:     1,
			Position: [3]float32{0, 0, 5},
		},
	}
}

// normalize fills in defaults for zero or invalid values, warning about the
// invalid ones.
func (c Config) normalize() Config {
	def := DefaultConfig()
	if c.Frameloop == "" {
		c.Frameloop = def.Frameloop
	} else if !c.Frameloop.Valid() {
		configError(errorf(ErrConfig, "unknown frameloop %q", c.Frameloop), "default", def.Frameloop)
		c.Frameloop = def.Frameloop
	}
	if c.Width <= 0 || c.Height <= 0 {
		c.Width, c.Height = def.Width, def.Height
	}
	if c.DPRMin <= 0 {
		c.DPRMin = def.DPRMin
	}
	if c.DPRMax < c.DPRMin {
		configError(errorf(ErrConfig, "dpr range [%g, %g] is empty", c.DPRMin, c.DPRMax), "default", def.DPRMax)
		c.DPRMax = max(def.DPRMax, c.DPRMin)
	}
	if c.DPR <= 0 {
		c.DPR = def.DPR
	}
	if c.Camera.Far <= c.Camera.Near || c.Camera.Near <= 0 {
		c.Camera.Near, c.Camera.Far = def.Camera.Near, def.Camera.Far
	}
	if c.Camera.Fov <= 0 {
		c.Camera.Fov = def.Camera.Fov
	}
	if c.Camera.Zoom <= 0 {
		c.Camera.Zoom = def.Camera.Zoom
	}
	c.Size = Size{Width: c.Width, Height: c.Height}
	return c
}

func (c Config) clampDPR(dpr float64) float64 {
	return min(max(dpr, c.DPRMin), c.DPRMax)
}

// build creates the camera the config describes.
func (c CameraConfig) build() *Object {
	var cam *Object
	if c.Orthographic {
		cam = NewOrthographicCamera(-1, 1, 1, -1, c.Near, c.Far)
	} else {
		cam = NewPerspectiveCamera(c.Fov, 1, c.Near, c.Far)
	}
	cam.Zoom = c.Zoom
	cam.Manual = c.Manual
	cam.SetPosition(c.Position[0], c.Position[1], c.Position[2])
	return cam
}
