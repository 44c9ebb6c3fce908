package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

type ResizeFilter string

const (
	FilterLanczos    ResizeFilter = "lanczos"
	FilterCatmullRom ResizeFilter = "catmullrom"
	FilterBilinear   ResizeFilter = "bilinear"

	DefaultConfigPath string = "config.json"
	DefaultModelPath  string = "models/mnist_cnn.onnx"

	DefaultCanvasSize  int = 400
	DefaultStrokeWidth int = 20
	DefaultInputSize   int = 28
	DefaultClasses     int = 10

	MinCanvasSize int = DefaultInputSize
	MaxCanvasSize int = 2000

	MinStrokeWidth int = 4
	MaxStrokeWidth int = 60
)

var FiltersList = [...]string{
	string(FilterLanczos),
	string(FilterCatmullRom),
	string(FilterBilinear),
}

type ModelConfig struct {
	Path        string `json:"path"`
	LibraryPath string `json:"onnx_library_path"`
	InputName   string `json:"input_name"`
	OutputName  string `json:"output_name"`
	Classes     int    `json:"classes"`
}

type Config struct {
	mu sync.RWMutex

	CanvasSize   int          `json:"canvas_size"`
	StrokeWidth  int          `json:"stroke_width"`
	InputSize    int          `json:"input_size"`
	ResizeFilter ResizeFilter `json:"resize_filter"`
	LogLevel     string       `json:"log_level"`

	Model ModelConfig `json:"model"`
}

func (c *Config) GetStrokeWidth() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.StrokeWidth
}

func (c *Config) SetStrokeWidth(width int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.StrokeWidth = clamp(width, MinStrokeWidth, MaxStrokeWidth)
}

func (c *Config) GetFilter() ResizeFilter {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ResizeFilter
}

func (c *Config) SetFilter(f ResizeFilter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ResizeFilter = f
}

// Validate replaces out-of-range values with their defaults.
func (c *Config) Validate() {
	c.mu.Lock()
	defer c.mu.Unlock()

	def := NewDefaultConfig()

	if c.CanvasSize < MinCanvasSize || c.CanvasSize > MaxCanvasSize {
		c.CanvasSize = def.CanvasSize
	}
	if c.StrokeWidth < MinStrokeWidth || c.StrokeWidth > MaxStrokeWidth {
		c.StrokeWidth = def.StrokeWidth
	}
	// the classifier only accepts 28x28 input
	if c.InputSize != DefaultInputSize {
		c.InputSize = DefaultInputSize
	}
	if !knownFilter(c.ResizeFilter) {
		c.ResizeFilter = def.ResizeFilter
	}
	if c.LogLevel == "" {
		c.LogLevel = def.LogLevel
	}
	if c.Model.Path == "" {
		c.Model.Path = def.Model.Path
	}
	if c.Model.InputName == "" {
		c.Model.InputName = def.Model.InputName
	}
	if c.Model.OutputName == "" {
		c.Model.OutputName = def.Model.OutputName
	}
	if c.Model.Classes <= 0 {
		c.Model.Classes = def.Model.Classes
	}
}

func (c *Config) Save(path string) error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

func (c *Config) SaveByDefault() error {
	return c.Save(DefaultConfigPath)
}

// LoadConfigFile never fails: a missing or malformed file yields defaults.
func LoadConfigFile(path string) *Config {
	var cfg *Config = NewDefaultConfig()

	if _, err := os.Stat(path); err == nil {
		f, err := os.Open(path)
		if err != nil {
			return cfg
		}
		defer f.Close()

		dec := json.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return NewDefaultConfig()
		}
	}

	cfg.Validate()

	return cfg
}

func NewDefaultConfig() *Config {
	return &Config{
		CanvasSize:   DefaultCanvasSize,
		StrokeWidth:  DefaultStrokeWidth,
		InputSize:    DefaultInputSize,
		ResizeFilter: FilterLanczos,
		LogLevel:     "info",
		Model: ModelConfig{
			Path:       DefaultModelPath,
			InputName:  "input",
			OutputName: "output",
			Classes:    DefaultClasses,
		},
	}
}

func knownFilter(f ResizeFilter) bool {
	for _, name := range FiltersList {
		if string(f) == name {
			return true
		}
	}
	return false
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
