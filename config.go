package willow3d

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig is wrapped by every Config validation error.
var ErrInvalidConfig = errors.New("willow3d: invalid config")

// WindowConfig sizes the viewer window.
type WindowConfig struct {
	Title   string `yaml:"title"`
	Width   int    `yaml:"width"`
	Height  int    `yaml:"height"`
	ShowFPS bool   `yaml:"showFPS"`
}

// TextureConfig holds texture defaults and loader settings.
type TextureConfig struct {
	UseMipMaps        bool    `yaml:"useMipMaps"`
	AnisotropicDegree float32 `yaml:"anisotropicDegree"`

	// Cache keeps decoded images for reuse by later loads of the same URL.
	Cache           bool `yaml:"cache"`
	LoadConcurrency int  `yaml:"loadConcurrency"`
}

// Config configures a Scene and its viewer.
type Config struct {
	Window WindowConfig `yaml:"window"`

	// MinFrameInterval caps the update rate. Zero runs at ebiten's default.
	MinFrameInterval time.Duration `yaml:"minFrameInterval"`
	Textures         TextureConfig `yaml:"textures"`
	PointSprites     bool          `yaml:"pointSprites"`
	ClearColor       Color         `yaml:"clearColor"`
	Debug            bool          `yaml:"debug"`

	// ScreenshotDir receives the PNGs queued with Scene.Screenshot.
	ScreenshotDir string `yaml:"screenshotDir"`
}

// DefaultConfig returns the configuration used for fields a YAML document
// leaves out.
func DefaultConfig() Config {
	return Config{
		Window: WindowConfig{Title: "willow3d", Width: 800, Height: 600},
		Textures: TextureConfig{
			AnisotropicDegree: 1,
			LoadConcurrency:   4,
		},
		PointSprites:  true,
		ScreenshotDir: "screenshots",
	}
}

// ParseConfig decodes a YAML document over DefaultConfig and validates it.
func ParseConfig(data []byte) (Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfig reads and parses the YAML file at path.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("willow3d: load config: %w", err)
	}
	return ParseConfig(data)
}

// Validate checks sizes and counts.
func (c Config) Validate() error {
	switch {
	case c.Window.Width <= 0 || c.Window.Height <= 0:
		return fmt.Errorf("%w: window size %dx%d", ErrInvalidConfig, c.Window.Width, c.Window.Height)
	case c.MinFrameInterval < 0:
		return fmt.Errorf("%w: minFrameInterval %v is negative", ErrInvalidConfig, c.MinFrameInterval)
	case c.Textures.AnisotropicDegree < 1:
		return fmt.Errorf("%w: anisotropicDegree %v is below 1", ErrInvalidConfig, c.Textures.AnisotropicDegree)
	case c.Textures.LoadConcurrency < 1:
		return fmt.Errorf("%w: loadConcurrency %d is below 1", ErrInvalidConfig, c.Textures.LoadConcurrency)
	case !c.ClearColor.valid():
		return fmt.Errorf("%w: clearColor %v is outside [0,1]", ErrInvalidConfig, c.ClearColor)
	}
	return nil
}

// Env derives the node environment. The frame state and reporter are left
// for the Scene to fill in.
func (c Config) Env() *Env {
	return &Env{
		Caps: Capabilities{PointSprites: c.PointSprites},
		Textures: TextureDefaults{
			UseMipMaps:        c.Textures.UseMipMaps,
			AnisotropicDegree: c.Textures.AnisotropicDegree,
		},
	}
}
