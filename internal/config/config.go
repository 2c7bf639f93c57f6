package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/coreman2200/radioshack-strip/strip"
)

type Hold struct {
	// "spin" | "timer"
	Mode string `yaml:"mode" toml:"mode"`
	// length of one unit, 62ns is one cycle at 16MHz
	UnitNS int `yaml:"unit_ns" toml:"unit_ns"`
	// spin iterations per unit, 0 calibrates at startup
	PerUnit int `yaml:"per_unit" toml:"per_unit"`
}

type Timing struct {
	OneHigh  int `yaml:"one_high" toml:"one_high"`
	OneLow   int `yaml:"one_low" toml:"one_low"`
	ZeroHigh int `yaml:"zero_high" toml:"zero_high"`
	ZeroLow  int `yaml:"zero_low" toml:"zero_low"`
}

type Config struct {
	Driver     string `yaml:"driver" toml:"driver"` // "gpio" | "sim"
	Pin        string `yaml:"pin" toml:"pin"`
	LEDs       int    `yaml:"leds" toml:"leds"`
	Brightness int    `yaml:"brightness" toml:"brightness"` // 0..255
	FPS        int    `yaml:"fps" toml:"fps"`
	Pattern    string `yaml:"pattern" toml:"pattern"`
	Color      string `yaml:"color" toml:"color"` // #RRGGBB
	LatchUs    int    `yaml:"latch_us" toml:"latch_us"`
	Hold       Hold   `yaml:"hold" toml:"hold"`
	Timing     Timing `yaml:"timing" toml:"timing"`
	Addr       string `yaml:"addr" toml:"addr"`
	Preview    bool   `yaml:"preview" toml:"preview"`
	LogLevel   string `yaml:"log_level" toml:"log_level"`
}

// Default returns the settings used when no file is given.
func Default() *Config {
	return &Config{
		Driver:     "gpio",
		Pin:        "GPIO18",
		LEDs:       30,
		Brightness: 255,
		FPS:        30,
		Pattern:    "rainbow",
		Color:      "#FFFFFF",
		LatchUs:    int(strip.DefaultLatch / time.Microsecond),
		Hold:       Hold{Mode: "spin", UnitNS: 62},
		Timing: Timing{
			OneHigh:  strip.DefaultTiming.One.High,
			OneLow:   strip.DefaultTiming.One.Low,
			ZeroHigh: strip.DefaultTiming.Zero.High,
			ZeroLow:  strip.DefaultTiming.Zero.Low,
		},
		Addr:     ":8080",
		LogLevel: "info",
	}
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Load reads a YAML or TOML file (by extension) over the defaults.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	c := Default()
	if isTOML(path) {
		err = toml.Unmarshal(b, c)
	} else {
		err = yaml.Unmarshal(b, c)
	}
	if err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

func Save(path string, c *Config) error {
	var (
		b   []byte
		err error
	)
	if isTOML(path) {
		b, err = toml.Marshal(c)
	} else {
		b, err = yaml.Marshal(c)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// Validate checks ranges and names.
func (c *Config) Validate() error {
	switch c.Driver {
	case "gpio", "sim":
	default:
		return fmt.Errorf("unknown driver %q", c.Driver)
	}
	if c.LEDs < 0 {
		return fmt.Errorf("invalid LED count: %d", c.LEDs)
	}
	if c.Brightness < 0 || c.Brightness > 255 {
		return fmt.Errorf("brightness %d out of 0..255", c.Brightness)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid fps: %d", c.FPS)
	}
	if c.LatchUs < 0 {
		return fmt.Errorf("invalid latch: %dus", c.LatchUs)
	}
	switch c.Hold.Mode {
	case "spin", "timer":
	default:
		return fmt.Errorf("unknown hold mode %q", c.Hold.Mode)
	}
	t := c.Timing
	if t.OneHigh <= 0 || t.OneLow <= 0 || t.ZeroHigh <= 0 || t.ZeroLow <= 0 {
		return fmt.Errorf("timing phases must be positive: %+v", t)
	}
	if t.OneHigh <= t.ZeroHigh {
		return fmt.Errorf("a one must stay high longer than a zero: %d <= %d", t.OneHigh, t.ZeroHigh)
	}
	if _, err := ParseColor(c.Color); err != nil {
		return err
	}
	return nil
}

// StripTiming converts the timing section.
func (c *Config) StripTiming() strip.Timing {
	return strip.Timing{
		One:  strip.Pulse{High: c.Timing.OneHigh, Low: c.Timing.OneLow},
		Zero: strip.Pulse{High: c.Timing.ZeroHigh, Low: c.Timing.ZeroLow},
	}
}

func (c *Config) Latch() time.Duration {
	return time.Duration(c.LatchUs) * time.Microsecond
}

func (c *Config) Interval() time.Duration {
	return time.Second / time.Duration(c.FPS)
}

// ParseColor reads "#RRGGBB", "RRGGBB" or "0xRRGGBB".
func ParseColor(s string) (uint32, error) {
	v := strings.TrimPrefix(strings.TrimPrefix(strings.TrimSpace(s), "#"), "0x")
	if len(v) != 6 {
		return 0, fmt.Errorf("invalid color %q", s)
	}
	n, err := strconv.ParseUint(v, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid color %q: %w", s, err)
	}
	return uint32(n), nil
}
