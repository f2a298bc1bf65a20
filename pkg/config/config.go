// Package config loads the weave app manifest.
//
// A manifest names the app, configures the router outlet, logging and the
// diagnostics server, and declares pages: components built from an HTML
// template, an initial state and event bindings. Manifests are read from
// YAML, TOML or JSON by file extension; WEAVE_* environment variables
// override individual settings afterwards.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
	"golang.org/x/mod/module"
	"gopkg.in/yaml.v3"
)

// Default values applied to unset fields.
const (
	DefaultOutlet      = "router-outlet"
	DefaultInitialPath = "/"
	DefaultLogLevel    = "info"
	DefaultLogFormat   = "console"
	DefaultDebugAddr   = "localhost:6060"
	DefaultAppName     = "weave_app"
)

// ManifestNames are the file names Resolve looks for, in order.
var ManifestNames = []string{"weave.yaml", "weave.yml", "weave.toml", "weave.json"}

// Config is a weave app manifest.
type Config struct {
	App    AppConfig    `json:"app" yaml:"app" toml:"app"`
	Router RouterConfig `json:"router" yaml:"router" toml:"router"`
	Log    LogConfig    `json:"log" yaml:"log" toml:"log"`
	Debug  DebugConfig  `json:"debug" yaml:"debug" toml:"debug"`
	Pages  []Page       `json:"pages" yaml:"pages" toml:"pages"`
}

// AppConfig contains application metadata.
type AppConfig struct {
	Name string `json:"name,omitempty" yaml:"name,omitempty" toml:"name,omitempty"`
}

// RouterConfig configures the router.
type RouterConfig struct {
	Outlet      string `json:"outlet,omitempty" yaml:"outlet,omitempty" toml:"outlet,omitempty"`
	InitialPath string `json:"initial_path,omitempty" yaml:"initial_path,omitempty" toml:"initial_path,omitempty"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	// Level is a zerolog level name.
	Level string `json:"level,omitempty" yaml:"level,omitempty" toml:"level,omitempty"`
	// Format is "console" or "json".
	Format string `json:"format,omitempty" yaml:"format,omitempty" toml:"format,omitempty"`
}

// DebugConfig configures the diagnostics server.
type DebugConfig struct {
	Addr string `json:"addr,omitempty" yaml:"addr,omitempty" toml:"addr,omitempty"`
}

// Page declares a component mounted at a route.
type Page struct {
	// Tag is the custom element name.
	Tag string `json:"tag" yaml:"tag" toml:"tag"`
	// Path is the route path. Pages without a path are registered but not routed.
	Path string `json:"path,omitempty" yaml:"path,omitempty" toml:"path,omitempty"`
	// Extends makes the page a customized built-in of this tag.
	Extends string `json:"extends,omitempty" yaml:"extends,omitempty" toml:"extends,omitempty"`
	// Template is an html/template rendered against the state on every change.
	Template string `json:"template" yaml:"template" toml:"template"`
	// Sanitize passes the rendered markup through a user-content policy,
	// which drops custom elements and event attributes.
	Sanitize bool `json:"sanitize,omitempty" yaml:"sanitize,omitempty" toml:"sanitize,omitempty"`
	// State is the initial state.
	State map[string]any `json:"state,omitempty" yaml:"state,omitempty" toml:"state,omitempty"`
	// Events bind DOM events to state changes.
	Events []Binding `json:"events,omitempty" yaml:"events,omitempty" toml:"events,omitempty"`
}

// Binding reacts to an event on the first element matching Selector.
type Binding struct {
	Selector string `json:"selector" yaml:"selector" toml:"selector"`
	Event    string `json:"event" yaml:"event" toml:"event"`
	// Set is merged into the state.
	Set map[string]any `json:"set,omitempty" yaml:"set,omitempty" toml:"set,omitempty"`
	// Increment names numeric state keys to add one to.
	Increment []string `json:"increment,omitempty" yaml:"increment,omitempty" toml:"increment,omitempty"`
	// Navigate routes to this path after the state change.
	Navigate string `json:"navigate,omitempty" yaml:"navigate,omitempty" toml:"navigate,omitempty"`
	// RouterData replaces the router data.
	RouterData any `json:"router_data,omitempty" yaml:"router_data,omitempty" toml:"router_data,omitempty"`
}

// envOverrides holds settings read from the environment. Empty values
// leave the manifest untouched.
type envOverrides struct {
	LogLevel  string `env:"WEAVE_LOG_LEVEL"`
	LogFormat string `env:"WEAVE_LOG_FORMAT"`
	DebugAddr string `env:"WEAVE_DEBUG_ADDR"`
	Outlet    string `env:"WEAVE_OUTLET"`
	AppName   string `env:"WEAVE_APP_NAME"`
}

// Load reads the manifest at path, applies environment overrides and
// defaults, and validates the result.
func Load(path string) (*Config, error) {
	cfg, err := decodeFile(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.finish(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Default returns a manifest with no pages and every default applied,
// including environment overrides.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve loads the first manifest in ManifestNames found in dir. Without
// one it starts from an empty manifest. An unset app name defaults to the
// last element of the module path in dir/go.mod, or the directory name.
func Resolve(dir string) (*Config, error) {
	cfg := &Config{}
	for _, name := range ManifestNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		loaded, err := decodeFile(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
		break
	}

	if strings.TrimSpace(cfg.App.Name) == "" {
		modulePath, err := modulePath(dir)
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
		cfg.App.Name = defaultAppName(modulePath, dir)
	}

	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decodeFile(path string) (*Config, error) {
	if path == "" {
		return nil, fmt.Errorf("empty config path")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	var cfg Config
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	case ".json":
		err = json.Unmarshal(data, &cfg)
	case ".toml":
		err = toml.Unmarshal(data, &cfg)
	default:
		return nil, fmt.Errorf("unsupported config extension: %q", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &cfg, nil
}

func (c *Config) finish() error {
	if err := c.applyEnv(); err != nil {
		return err
	}
	c.applyDefaults()
	return c.Validate()
}

func (c *Config) applyEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	override(&c.Log.Level, o.LogLevel)
	override(&c.Log.Format, o.LogFormat)
	override(&c.Debug.Addr, o.DebugAddr)
	override(&c.Router.Outlet, o.Outlet)
	override(&c.App.Name, o.AppName)
	return nil
}

func override(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func (c *Config) applyDefaults() {
	def := func(dst *string, v string) {
		if strings.TrimSpace(*dst) == "" {
			*dst = v
		}
	}
	def(&c.App.Name, DefaultAppName)
	def(&c.Router.Outlet, DefaultOutlet)
	def(&c.Router.InitialPath, DefaultInitialPath)
	def(&c.Log.Level, DefaultLogLevel)
	def(&c.Log.Format, DefaultLogFormat)
	def(&c.Debug.Addr, DefaultDebugAddr)
	c.Log.Level = strings.ToLower(c.Log.Level)
	c.Log.Format = strings.ToLower(c.Log.Format)
}

// Validate checks names, paths and formats.
func (c *Config) Validate() error {
	if !strings.Contains(c.Router.Outlet, "-") {
		return fmt.Errorf("router.outlet must contain a '-' (got %q)", c.Router.Outlet)
	}
	if !strings.HasPrefix(c.Router.InitialPath, "/") {
		return fmt.Errorf("router.initial_path must start with '/' (got %q)", c.Router.InitialPath)
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return fmt.Errorf("log.format must be console or json (got %q)", c.Log.Format)
	}

	tags := make(map[string]bool)
	paths := make(map[string]bool)
	for i, p := range c.Pages {
		tag := strings.ToLower(strings.TrimSpace(p.Tag))
		if !strings.Contains(tag, "-") {
			return fmt.Errorf("pages[%d].tag must contain a '-' (got %q)", i, p.Tag)
		}
		if tag == c.Router.Outlet {
			return fmt.Errorf("pages[%d].tag %q collides with the router outlet", i, p.Tag)
		}
		if tags[tag] {
			return fmt.Errorf("pages[%d].tag %q is declared twice", i, p.Tag)
		}
		tags[tag] = true

		if p.Path != "" {
			if !strings.HasPrefix(p.Path, "/") {
				return fmt.Errorf("pages[%d].path must start with '/' (got %q)", i, p.Path)
			}
			if paths[p.Path] {
				return fmt.Errorf("pages[%d].path %q is declared twice", i, p.Path)
			}
			paths[p.Path] = true
		}
		for j, b := range p.Events {
			if strings.TrimSpace(b.Event) == "" {
				return fmt.Errorf("pages[%d].events[%d].event is required", i, j)
			}
		}
	}
	return nil
}

func modulePath(dir string) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return "", fmt.Errorf("failed to read go.mod: %w", err)
	}
	path := modfile.ModulePath(data)
	if path == "" {
		return "", fmt.Errorf("could not determine module path from go.mod")
	}
	return path, nil
}

func defaultAppName(modulePath, dir string) string {
	base := filepath.Base(dir)
	if modulePath != "" {
		if prefix, _, ok := module.SplitPathVersion(modulePath); ok {
			parts := strings.Split(prefix, "/")
			base = parts[len(parts)-1]
		}
	}
	if base == "" || base == "." || base == string(filepath.Separator) {
		return DefaultAppName
	}
	return base
}
