// File: internal/config/config.go
package config

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Selection() SelectionConfig
	SelectedElements() OutlineConfig
	Elements() ElementsConfig
	Activation() ActivationConfig
	Action() ActionConfig
	Timing() TimingConfig
	Browser() BrowserConfig

	// Setters used by command-line flags.
	SetBrowserHeadless(bool)
	SetDefaultAction(string)
	SetHideOnMouseLeave(bool)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg     LoggerConfig     `mapstructure:"logger" yaml:"logger"`
	SelectionCfg  SelectionConfig  `mapstructure:"selection" yaml:"selection"`
	SelectedCfg   OutlineConfig    `mapstructure:"selected_elements" yaml:"selected_elements"`
	ElementsCfg   ElementsConfig   `mapstructure:"elements" yaml:"elements"`
	ActivationCfg ActivationConfig `mapstructure:"activation" yaml:"activation"`
	ActionCfg     ActionConfig     `mapstructure:"action" yaml:"action"`
	TimingCfg     TimingConfig     `mapstructure:"timing" yaml:"timing"`
	BrowserCfg    BrowserConfig    `mapstructure:"browser" yaml:"browser"`
}

func (c *Config) Logger() LoggerConfig            { return c.LoggerCfg }
func (c *Config) Selection() SelectionConfig      { return c.SelectionCfg }
func (c *Config) SelectedElements() OutlineConfig { return c.SelectedCfg }
func (c *Config) Elements() ElementsConfig        { return c.ElementsCfg }
func (c *Config) Activation() ActivationConfig    { return c.ActivationCfg }
func (c *Config) Action() ActionConfig            { return c.ActionCfg }
func (c *Config) Timing() TimingConfig            { return c.TimingCfg }
func (c *Config) Browser() BrowserConfig          { return c.BrowserCfg }

func (c *Config) SetBrowserHeadless(b bool)  { c.BrowserCfg.Headless = b }
func (c *Config) SetDefaultAction(a string)  { c.ActionCfg.Default = a }
func (c *Config) SetHideOnMouseLeave(b bool) { c.SelectionCfg.HideOnMouseLeave = b }

// LoggerConfig holds the configuration for the zap logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color names for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// Count label placement modes.
const (
	CountOnHover     = "hover"
	CountInStatusBar = "statusbar"
)

// SelectionConfig styles the selection rectangle and its count.
type SelectionConfig struct {
	BorderWidth       int    `mapstructure:"border_width" yaml:"border_width"`
	BorderColor       string `mapstructure:"border_color" yaml:"border_color"`
	ShowCount         bool   `mapstructure:"show_count" yaml:"show_count"`
	ShowCountWhere    string `mapstructure:"show_count_where" yaml:"show_count_where"`
	HideOnMouseLeave  bool   `mapstructure:"hide_on_mouse_leave" yaml:"hide_on_mouse_leave"`
	AltMovesSelection bool   `mapstructure:"alt_moves_selection" yaml:"alt_moves_selection"`
	Locale            string `mapstructure:"locale" yaml:"locale"`
}

// OutlineConfig styles the outline drawn on selected elements.
type OutlineConfig struct {
	BorderWidth int    `mapstructure:"border_width" yaml:"border_width"`
	BorderColor string `mapstructure:"border_color" yaml:"border_color"`
}

// ToggleConfig enables highlighting of one element category.
type ToggleConfig struct {
	Highlight bool `mapstructure:"highlight" yaml:"highlight"`
}

// AnchorsConfig holds link-specific options. Links are always collected.
type AnchorsConfig struct {
	RemoveDuplicateURLs bool `mapstructure:"remove_duplicate_urls" yaml:"remove_duplicate_urls"`
}

// ElementsConfig selects which element categories take part in a selection.
type ElementsConfig struct {
	Anchors      AnchorsConfig `mapstructure:"anchors" yaml:"anchors"`
	JsLinks      ToggleConfig  `mapstructure:"js_links" yaml:"js_links"`
	Buttons      ToggleConfig  `mapstructure:"buttons" yaml:"buttons"`
	Checkboxes   ToggleConfig  `mapstructure:"checkboxes" yaml:"checkboxes"`
	RadioButtons ToggleConfig  `mapstructure:"radio_buttons" yaml:"radio_buttons"`
}

// ActivationConfig selects the pointer button that starts a gesture.
type ActivationConfig struct {
	Button string `mapstructure:"button" yaml:"button"`
}

// ActionConfig names the action run when a gesture completes.
type ActionConfig struct {
	Default string `mapstructure:"default" yaml:"default"`
}

// TimingConfig holds the gesture timers.
type TimingConfig struct {
	RecomputeInterval  time.Duration `mapstructure:"recompute_interval" yaml:"recompute_interval"`
	AutoscrollInterval time.Duration `mapstructure:"autoscroll_interval" yaml:"autoscroll_interval"`
	MinDragSize        float64       `mapstructure:"min_drag_size" yaml:"min_drag_size"`
}

// BrowserConfig configures the Chrome instance used by the live host.
type BrowserConfig struct {
	Headless          bool          `mapstructure:"headless" yaml:"headless"`
	ExecPath          string        `mapstructure:"exec_path" yaml:"exec_path"`
	Args              []string      `mapstructure:"args" yaml:"args"`
	WindowWidth       int           `mapstructure:"window_width" yaml:"window_width"`
	WindowHeight      int           `mapstructure:"window_height" yaml:"window_height"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout" yaml:"navigation_timeout"`
}

// Actions lists the action names a gesture can complete with.
var Actions = []string{"tabs", "windows", "window", "clipboard", "bookmark", "download", "menu"}

var hexColor = regexp.MustCompile(`^#([0-9a-fA-F]{3}|[0-9a-fA-F]{6})$`)

// NewDefaultConfig returns a Config populated only with defaults.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		// This should not happen with defaults, but good to be safe.
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for every configuration key.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "snaplinks")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 7)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "red")

	// -- Selection rectangle --
	v.SetDefault("selection.border_width", 3)
	v.SetDefault("selection.border_color", "#30AF00")
	v.SetDefault("selection.show_count", true)
	v.SetDefault("selection.show_count_where", CountOnHover)
	v.SetDefault("selection.hide_on_mouse_leave", false)
	v.SetDefault("selection.alt_moves_selection", false)
	v.SetDefault("selection.locale", "en")

	// -- Selected element outlines --
	v.SetDefault("selected_elements.border_width", 1)
	v.SetDefault("selected_elements.border_color", "#FF0000")

	// -- Element categories --
	v.SetDefault("elements.anchors.remove_duplicate_urls", true)
	v.SetDefault("elements.js_links.highlight", true)
	v.SetDefault("elements.buttons.highlight", true)
	v.SetDefault("elements.checkboxes.highlight", true)
	v.SetDefault("elements.radio_buttons.highlight", true)

	// -- Gesture --
	v.SetDefault("activation.button", "right")
	v.SetDefault("action.default", "tabs")
	v.SetDefault("timing.recompute_interval", "100ms")
	v.SetDefault("timing.autoscroll_interval", "25ms")
	v.SetDefault("timing.min_drag_size", 4)

	// -- Browser --
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.exec_path", "")
	v.SetDefault("browser.args", []string{})
	v.SetDefault("browser.window_width", 1280)
	v.SetDefault("browser.window_height", 800)
	v.SetDefault("browser.navigation_timeout", "30s")
}

// NewConfigFromViper unmarshals and validates a Config from a viper instance.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for values the engine cannot work with.
func (c *Config) Validate() error {
	if err := c.LoggerCfg.Validate(); err != nil {
		return fmt.Errorf("logger configuration invalid: %w", err)
	}
	if err := c.SelectionCfg.Validate(); err != nil {
		return fmt.Errorf("selection configuration invalid: %w", err)
	}
	if err := validateOutline("selected_elements", c.SelectedCfg.BorderWidth, c.SelectedCfg.BorderColor); err != nil {
		return err
	}
	switch strings.ToLower(c.ActivationCfg.Button) {
	case "left", "middle", "right":
	default:
		return fmt.Errorf("activation.button must be one of left, middle, right; got %q", c.ActivationCfg.Button)
	}
	if !isAction(c.ActionCfg.Default) {
		return fmt.Errorf("action.default must be one of %s; got %q", strings.Join(Actions, ", "), c.ActionCfg.Default)
	}
	if err := c.TimingCfg.Validate(); err != nil {
		return fmt.Errorf("timing configuration invalid: %w", err)
	}
	if c.BrowserCfg.WindowWidth <= 0 || c.BrowserCfg.WindowHeight <= 0 {
		return fmt.Errorf("browser.window_width and browser.window_height must be positive integers")
	}
	return nil
}

// Validate checks the logger format.
func (l LoggerConfig) Validate() error {
	switch l.Format {
	case "console", "json":
		return nil
	}
	return fmt.Errorf("logger.format must be console or json; got %q", l.Format)
}

// Validate checks the rectangle style and count placement.
func (s SelectionConfig) Validate() error {
	if err := validateOutline("selection", s.BorderWidth, s.BorderColor); err != nil {
		return err
	}
	switch s.ShowCountWhere {
	case CountOnHover, CountInStatusBar:
	default:
		return fmt.Errorf("selection.show_count_where must be %s or %s; got %q", CountOnHover, CountInStatusBar, s.ShowCountWhere)
	}
	return nil
}

// Validate checks that timers are positive.
func (t TimingConfig) Validate() error {
	if t.RecomputeInterval <= 0 {
		return fmt.Errorf("timing.recompute_interval must be positive")
	}
	if t.AutoscrollInterval <= 0 {
		return fmt.Errorf("timing.autoscroll_interval must be positive")
	}
	if t.MinDragSize < 0 {
		return fmt.Errorf("timing.min_drag_size must not be negative")
	}
	return nil
}

func validateOutline(section string, width int, color string) error {
	if width < 0 {
		return fmt.Errorf("%s.border_width must not be negative", section)
	}
	if !hexColor.MatchString(color) {
		return fmt.Errorf("%s.border_color must be a #RGB or #RRGGBB color; got %q", section, color)
	}
	return nil
}

func isAction(name string) bool {
	for _, a := range Actions {
		if a == name {
			return true
		}
	}
	return false
}
