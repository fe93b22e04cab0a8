package blockwalk

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigEnv names the environment variable consulted when no config path is given.
const ConfigEnv = "BLOCKWALK_CONFIG"

type Config struct {
	Window   WindowConfig      `yaml:"window"`
	Camera   CameraConfig      `yaml:"camera"`
	World    WorldConfig       `yaml:"world"`
	Textures map[int]string    `yaml:"textures"`
	Bindings map[string]string `yaml:"bindings"`
	Log      LogConfig         `yaml:"log"`
	Metrics  MetricsConfig     `yaml:"metrics"`
}

type WindowConfig struct {
	Width  int    `yaml:"width"`
	Height int    `yaml:"height"`
	Title  string `yaml:"title"`
}

type CameraConfig struct {
	// Position is the starting eye position; nil spawns above the centre column.
	Position    *[3]float32 `yaml:"position"`
	MaxZoom     float32     `yaml:"max_zoom"`
	WalkSpeed   float32     `yaml:"walk_speed"`
	RunSpeed    float32     `yaml:"run_speed"`
	Sensitivity float32     `yaml:"sensitivity"`
}

type WorldSource string

const (
	WorldLab     WorldSource = "lab"
	WorldTerrain WorldSource = "terrain"
	WorldVox     WorldSource = "vox"
)

type WorldConfig struct {
	Source WorldSource `yaml:"source"`
	Path   string      `yaml:"path"`
	Seed   int64       `yaml:"seed"`
	Size   int         `yaml:"size"`
}

type LogConfig struct {
	Prefix string `yaml:"prefix"`
	Debug  bool   `yaml:"debug"`
}

type MetricsConfig struct {
	// Addr enables the /metrics endpoint when non-empty, e.g. "127.0.0.1:2112".
	Addr           string        `yaml:"addr"`
	ReportInterval time.Duration `yaml:"report_interval"`
}

func DefaultConfig() *Config {
	return &Config{
		Window: WindowConfig{Width: 800, Height: 600, Title: "blockwalk"},
		Camera: CameraConfig{
			MaxZoom:     45,
			WalkSpeed:   2.5,
			RunSpeed:    10,
			Sensitivity: 0.1,
		},
		World: WorldConfig{Source: WorldLab, Seed: 1, Size: 32},
		Bindings: map[string]string{
			"forward":  "W",
			"backward": "S",
			"left":     "A",
			"right":    "D",
			"jump":     "Space",
			"run":      "LeftShift",
		},
		Log:     LogConfig{Prefix: "blockwalk"},
		Metrics: MetricsConfig{ReportInterval: 5 * time.Second},
	}
}

// LoadConfig reads a YAML config on top of DefaultConfig.
// An empty path falls back to $BLOCKWALK_CONFIG, and then to the defaults alone.
func LoadConfig(path string) (*Config, error) {
	if path == "" {
		path = os.Getenv(ConfigEnv)
	}
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

var ErrInvalidConfig = errors.New("invalid config")

func (c *Config) Validate() error {
	var errs []error
	invalid := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.Window.Width <= 0 || c.Window.Height <= 0 {
		invalid("window size %dx%d", c.Window.Width, c.Window.Height)
	}
	if c.Camera.MaxZoom < 1 {
		invalid("camera.max_zoom %v < 1", c.Camera.MaxZoom)
	}
	if c.Camera.WalkSpeed <= 0 || c.Camera.RunSpeed <= 0 {
		invalid("camera speeds must be positive")
	}
	if c.World.Size < 3 {
		invalid("world.size %d < 3", c.World.Size)
	}
	switch c.World.Source {
	case WorldLab, WorldTerrain:
	case WorldVox:
		if c.World.Path == "" {
			invalid("world.path is required for source %q", c.World.Source)
		}
	default:
		invalid("unknown world.source %q", c.World.Source)
	}
	for action, key := range c.Bindings {
		if _, ok := actionNames[action]; !ok {
			invalid("unknown action %q in bindings", action)
		}
		if _, ok := keyNames[key]; !ok {
			invalid("unknown key %q bound to %q", key, action)
		}
	}
	for code := range c.Textures {
		if code <= 0 || code > 255 {
			invalid("texture block code %d outside 1..255", code)
		}
	}
	return errors.Join(errs...)
}
