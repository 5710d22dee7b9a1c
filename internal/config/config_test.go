// File: internal/config/config_test.go
package config

import (
	"bytes"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultConfig(t *testing.T) {
	cfg := NewDefaultConfig()

	assert.Equal(t, "info", cfg.Logger().Level)
	assert.Equal(t, 3, cfg.Selection().BorderWidth)
	assert.Equal(t, "#30AF00", cfg.Selection().BorderColor)
	assert.Equal(t, CountOnHover, cfg.Selection().ShowCountWhere)
	assert.Equal(t, 1, cfg.SelectedElements().BorderWidth)
	assert.Equal(t, "#FF0000", cfg.SelectedElements().BorderColor)
	assert.True(t, cfg.Elements().Anchors.RemoveDuplicateURLs)
	assert.True(t, cfg.Elements().JsLinks.Highlight)
	assert.Equal(t, "right", cfg.Activation().Button)
	assert.Equal(t, "tabs", cfg.Action().Default)
	assert.Equal(t, 100*time.Millisecond, cfg.Timing().RecomputeInterval)
	assert.Equal(t, 25*time.Millisecond, cfg.Timing().AutoscrollInterval)
	assert.Equal(t, 4.0, cfg.Timing().MinDragSize)
	assert.True(t, cfg.Browser().Headless)
	assert.Equal(t, 30*time.Second, cfg.Browser().NavigationTimeout)

	require.NoError(t, cfg.Validate(), "defaults must be valid")
}

func TestConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad log format", func(c *Config) { c.LoggerCfg.Format = "xml" }, "logger.format"},
		{"negative border", func(c *Config) { c.SelectionCfg.BorderWidth = -1 }, "selection.border_width"},
		{"bad color", func(c *Config) { c.SelectedCfg.BorderColor = "red" }, "selected_elements.border_color"},
		{"bad count placement", func(c *Config) { c.SelectionCfg.ShowCountWhere = "tooltip" }, "show_count_where"},
		{"bad button", func(c *Config) { c.ActivationCfg.Button = "fourth" }, "activation.button"},
		{"bad action", func(c *Config) { c.ActionCfg.Default = "print" }, "action.default"},
		{"zero recompute", func(c *Config) { c.TimingCfg.RecomputeInterval = 0 }, "recompute_interval"},
		{"zero autoscroll", func(c *Config) { c.TimingCfg.AutoscrollInterval = 0 }, "autoscroll_interval"},
		{"negative drag size", func(c *Config) { c.TimingCfg.MinDragSize = -1 }, "min_drag_size"},
		{"zero window", func(c *Config) { c.BrowserCfg.WindowWidth = 0 }, "browser.window_width"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewConfigFromViper(t *testing.T) {
	yamlConfig := []byte(`
selection:
  border_color: "#123456"
  show_count_where: statusbar
elements:
  js_links:
    highlight: false
timing:
  recompute_interval: 250ms
action:
  default: clipboard
`)
	v := viper.New()
	SetDefaults(v)
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(bytes.NewBuffer(yamlConfig)))

	cfg, err := NewConfigFromViper(v)
	require.NoError(t, err)

	assert.Equal(t, "#123456", cfg.Selection().BorderColor)
	assert.Equal(t, 3, cfg.Selection().BorderWidth, "unset keys keep their defaults")
	assert.Equal(t, CountInStatusBar, cfg.Selection().ShowCountWhere)
	assert.False(t, cfg.Elements().JsLinks.Highlight)
	assert.True(t, cfg.Elements().Buttons.Highlight)
	assert.Equal(t, 250*time.Millisecond, cfg.Timing().RecomputeInterval)
	assert.Equal(t, "clipboard", cfg.Action().Default)

	t.Run("invalid file is rejected", func(t *testing.T) {
		v := viper.New()
		SetDefaults(v)
		v.Set("activation.button", "thumb")
		_, err := NewConfigFromViper(v)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})
}

func TestSetters(t *testing.T) {
	var cfg Interface = NewDefaultConfig()
	cfg.SetBrowserHeadless(false)
	cfg.SetDefaultAction("menu")
	cfg.SetHideOnMouseLeave(true)

	assert.False(t, cfg.Browser().Headless)
	assert.Equal(t, "menu", cfg.Action().Default)
	assert.True(t, cfg.Selection().HideOnMouseLeave)
}
