package config

import (
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/log"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/dynmotion/internal/motion"
	"github.com/san-kum/dynmotion/internal/orchestrate"
	"github.com/san-kum/dynmotion/internal/spring"
)

const (
	DefaultFrom         = 0.0
	DefaultTo           = 100.0
	DefaultTrailCount   = 3
	DefaultStaggerCount = 10
	DefaultPattern      = "linear"
	DefaultLogLevel     = "info"
	DefaultDataDir      = ".dynmotion"
)

var ErrUnknownPreset = errors.New("config: unknown preset")

type Config struct {
	Preset   string        `yaml:"preset,omitempty"`
	Stepper  string        `yaml:"stepper"`
	Spring   spring.Config `yaml:"spring"`
	From     float64       `yaml:"from"`
	To       float64       `yaml:"to"`
	Velocity float64       `yaml:"velocity"`
	Clamp    bool          `yaml:"clamp"`
	MaxSteps int           `yaml:"max_steps"`
	Trail    TrailConfig   `yaml:"trail"`
	Stagger  StaggerConfig `yaml:"stagger"`
	Log      LogConfig     `yaml:"log"`
	Storage  StorageConfig `yaml:"storage"`
}

type TrailConfig struct {
	Count int `yaml:"count"`
}

type StaggerConfig struct {
	Pattern string             `yaml:"pattern"`
	Count   int                `yaml:"count"`
	Params  orchestrate.Params `yaml:",inline"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type StorageConfig struct {
	Dir string `yaml:"dir"`
}

func DefaultConfig() *Config {
	return &Config{
		Stepper:  "euler",
		Spring:   spring.DefaultConfig(),
		From:     DefaultFrom,
		To:       DefaultTo,
		MaxSteps: spring.DefaultMaxSteps,
		Trail:    TrailConfig{Count: DefaultTrailCount},
		Stagger: StaggerConfig{
			Pattern: DefaultPattern,
			Count:   DefaultStaggerCount,
			Params:  orchestrate.Params{Step: orchestrate.DefaultStep},
		},
		Log:     LogConfig{Level: DefaultLogLevel},
		Storage: StorageConfig{Dir: DefaultDataDir},
	}
}

// Load reads a YAML file over the defaults. A preset named in the file
// replaces the spring section.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Preset != "" {
		if err := cfg.ApplyPreset(cfg.Preset); err != nil {
			return nil, err
		}
	}
	return cfg, cfg.Validate()
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ApplyPreset swaps in a named spring, keeping the rest thresholds already
// configured.
func (c *Config) ApplyPreset(name string) error {
	p, ok := GetPreset(name)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPreset, name)
	}
	c.Preset = name
	c.Spring.Stiffness, c.Spring.Damping, c.Spring.Mass = p.Stiffness, p.Damping, p.Mass
	return nil
}

func (c *Config) Validate() error {
	if err := c.Spring.WithDefaults().Validate(); err != nil {
		return err
	}
	if _, err := spring.Lookup(c.Stepper); err != nil {
		return err
	}
	if c.Stagger.Pattern != "" {
		if _, err := orchestrate.LookupPattern(c.Stagger.Pattern); err != nil {
			return err
		}
	}
	if c.Trail.Count < 0 || c.Stagger.Count < 0 || c.MaxSteps < 0 {
		return fmt.Errorf("config: counts must not be negative")
	}
	if _, err := c.LogLevel(); err != nil {
		return err
	}
	return nil
}

// MotionConfig builds the driver config for a single run.
func (c *Config) MotionConfig() (motion.Config, error) {
	st, err := spring.Lookup(c.Stepper)
	if err != nil {
		return motion.Config{}, err
	}
	mc := motion.DefaultConfig().WithSpring(c.Spring.WithDefaults())
	mc.Stepper = st
	mc.Clamp = c.Clamp
	if c.Velocity != 0 {
		v := c.Velocity
		mc.Velocity = &v
	}
	return mc, nil
}

func (c *Config) LogLevel() (log.Level, error) {
	if c.Log.Level == "" {
		return log.InfoLevel, nil
	}
	return log.ParseLevel(c.Log.Level)
}
