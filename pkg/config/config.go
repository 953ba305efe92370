// Package config loads the checker's runtime options from a TOML file via
// viper, grounded on SimplyLiz-CodeMCP's internal/config package
// (Config/DefaultConfig/LoadConfig split, viper.New + SetDefault +
// ReadInConfig, falling back to defaults when no file exists).
package config

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/viper"
)

// RuntimeVersion selects the target Lua dialect version the stdlib
// catalogue and any version-gated syntax checks key off.
type RuntimeVersion string

const (
	Lua51 RuntimeVersion = "5.1"
	Lua52 RuntimeVersion = "5.2"
	Lua53 RuntimeVersion = "5.3"
	Lua54 RuntimeVersion = "5.4"
)

// Options is the checker's full configuration surface, per spec.md §6's
// configuration-options contract.
type Options struct {
	TargetRuntimeVersion RuntimeVersion `mapstructure:"targetRuntimeVersion"`
	StrictMode           bool           `mapstructure:"strictMode"`
	NoStdlib             bool           `mapstructure:"noStdlib"`
	MaxErrors            int            `mapstructure:"maxErrors"`
	MaxLazyDepth         int            `mapstructure:"maxLazyDepth"`
	MaxReexportDepth     int            `mapstructure:"maxReexportDepth"`
}

// Default returns the option set the checker runs with when no config
// file is present, matching spec.md §6's stated defaults for the two
// recursion bounds.
func Default() *Options {
	return &Options{
		TargetRuntimeVersion: Lua54,
		StrictMode:           false,
		NoStdlib:             false,
		MaxErrors:            0, // 0 means unbounded
		MaxLazyDepth:         10,
		MaxReexportDepth:     10,
	}
}

// ValidationError reports an out-of-range or unrecognized option value.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Validate rejects option combinations the checker cannot act on: an
// unrecognized target version, or a negative recursion bound (zero is
// legal and means "fail on the very first lazy check"/"no re-export
// forwarding", which is a caller's prerogative, unlike a negative bound,
// which has no meaning).
func (o *Options) Validate() error {
	switch o.TargetRuntimeVersion {
	case Lua51, Lua52, Lua53, Lua54:
	default:
		return &ValidationError{Field: "targetRuntimeVersion", Message: "unrecognized Lua version " + string(o.TargetRuntimeVersion)}
	}
	if o.MaxLazyDepth < 0 {
		return &ValidationError{Field: "maxLazyDepth", Message: "must be >= 0"}
	}
	if o.MaxReexportDepth < 0 {
		return &ValidationError{Field: "maxReexportDepth", Message: "must be >= 0"}
	}
	if o.MaxErrors < 0 {
		return &ValidationError{Field: "maxErrors", Message: "must be >= 0"}
	}
	return nil
}

// Load reads a TOML config file named "tlc.toml" from dir, overlaying it
// onto Default(). A missing file is not an error: Load returns the
// defaults unchanged, matching LoadConfig's "no file means default
// config" behavior.
func Load(dir string) (*Options, error) {
	v := viper.New()
	v.SetConfigName("tlc")
	v.SetConfigType("toml")
	v.AddConfigPath(dir)

	def := Default()
	v.SetDefault("targetRuntimeVersion", string(def.TargetRuntimeVersion))
	v.SetDefault("strictMode", def.StrictMode)
	v.SetDefault("noStdlib", def.NoStdlib)
	v.SetDefault("maxErrors", def.MaxErrors)
	v.SetDefault("maxLazyDepth", def.MaxLazyDepth)
	v.SetDefault("maxReexportDepth", def.MaxReexportDepth)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return def, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", filepath.Join(dir, "tlc.toml"), err)
	}

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return nil, fmt.Errorf("config: unmarshalling: %w", err)
	}
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &opts, nil
}
