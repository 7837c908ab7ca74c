package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"codeberg.org/mutker/ledtop/internal/errors"
	"codeberg.org/mutker/ledtop/internal/openrgb"
)

const (
	envPrefix           = "LEDTOP"
	defaultHost         = openrgb.DefaultHost
	defaultPort         = openrgb.DefaultPort
	defaultClientName   = "ledtop"
	defaultInterval     = 1.0
	defaultLogLevel     = LogLevelWarning
	defaultSensorPolicy = SensorFail
	configDirName       = "ledtop"
	configFileName      = "config.toml"
)

type Config struct {
	Host          string       `mapstructure:"host" validate:"required"`
	Port          int          `mapstructure:"port" validate:"min=1,max=65535"`
	ClientName    string       `mapstructure:"client_name" validate:"required"`
	Interval      float64      `mapstructure:"interval" validate:"gt=0"`
	LogLevel      LogLevel     `mapstructure:"log_level"`
	Debug         bool         `mapstructure:"debug"`
	Verbose       bool         `mapstructure:"verbose"`
	NVML          bool         `mapstructure:"nvml"`
	MissingSensor SensorPolicy `mapstructure:"missing_sensor" validate:"oneof=fail first skip"`

	// File is the config file path; FileFound reports whether it was read
	File      string `mapstructure:"-"`
	FileFound bool   `mapstructure:"-"`

	CPU    []Display `mapstructure:"-"`
	Memory []Display `mapstructure:"-"`
	Temp   []Display `mapstructure:"-"`
}

// flagKeys maps command line flags to config keys
var flagKeys = map[string]string{
	"config":    "config",
	"host":      "host",
	"port":      "port",
	"interval":  "interval",
	"log-level": "log_level",
	"debug":     "debug",
	"verbose":   "verbose",
}

// RegisterFlags defines the configuration flags on fs
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "Path to the config file")
	fs.String("host", defaultHost, "OpenRGB SDK server host")
	fs.Int("port", defaultPort, "OpenRGB SDK server port")
	fs.Float64("interval", defaultInterval, "Sampling interval in seconds")
	fs.String("log-level", string(defaultLogLevel), "Log level (debug, info, warning, error)")
	fs.Bool("debug", false, "Enable debugging mode")
	fs.Bool("verbose", false, "Enable verbose logging")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("host", defaultHost)
	v.SetDefault("port", defaultPort)
	v.SetDefault("client_name", defaultClientName)
	v.SetDefault("interval", defaultInterval)
	v.SetDefault("log_level", string(defaultLogLevel))
	v.SetDefault("nvml", true)
	v.SetDefault("missing_sensor", string(defaultSensorPolicy))
}

// DefaultPath returns the per-user config file location
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = filepath.Join(os.Getenv("HOME"), ".config")
	}
	return filepath.Join(dir, configDirName, configFileName)
}

// Load reads defaults, the config file, LEDTOP_* environment variables
// and flags, in increasing precedence. A missing default config file is
// not an error; a missing file named explicitly is.
func Load(opts ...Option) (*Config, error) {
	errFactory := errors.New()

	var o options
	for _, opt := range opts {
		if err := opt(&o); err != nil {
			return nil, errFactory.Wrap(errors.ErrInvalidArgument, err)
		}
	}

	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if o.flags != nil {
		for flag, key := range flagKeys {
			f := o.flags.Lookup(flag)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return nil, errFactory.Wrap(errors.ErrBindFlags, err).WithData(flag)
			}
		}
	}

	cfg := &Config{File: o.configPath}
	explicit := cfg.File != ""
	if !explicit {
		cfg.File = v.GetString("config")
		explicit = cfg.File != ""
	}
	if !explicit {
		cfg.File = DefaultPath()
	}

	if err := readFile(v, cfg, explicit); err != nil {
		return nil, err
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	switch {
	case cfg.Debug:
		cfg.LogLevel = LogLevelDebug
	case cfg.Verbose:
		cfg.LogLevel = LogLevelInfo
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var err error
	if cfg.CPU, err = loadDisplays(v, KindCPU); err != nil {
		return nil, err
	}
	if cfg.Memory, err = loadDisplays(v, KindMemory); err != nil {
		return nil, err
	}
	if cfg.Temp, err = loadDisplays(v, KindTemp); err != nil {
		return nil, err
	}

	return cfg, nil
}

func readFile(v *viper.Viper, cfg *Config, explicit bool) error {
	errFactory := errors.New()

	if _, err := os.Stat(cfg.File); err != nil {
		if os.IsNotExist(err) && !explicit {
			return nil
		}
		if os.IsNotExist(err) {
			return errFactory.WithData(errors.ErrMissingConfig, cfg.File)
		}
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}

	v.SetConfigFile(cfg.File)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return errFactory.Wrap(errors.ErrReadConfig, err)
	}
	cfg.FileFound = true

	return nil
}

// Validate checks the global settings
func (c *Config) Validate() error {
	errFactory := errors.New()

	if !c.LogLevel.IsValid() {
		return errFactory.Wrap(errors.ErrInvalidLogLevel,
			newValidationError("log_level", c.LogLevel, "must be one of [debug info warning error]"))
	}

	if err := validate("", c); err != nil {
		return errFactory.Wrap(errors.ErrInvalidConfig, err)
	}

	return nil
}

// IntervalDuration returns the sampling interval
func (c *Config) IntervalDuration() time.Duration {
	return time.Duration(c.Interval * float64(time.Second))
}

// Displays returns every display in render order: CPU, memory, then
// temperature.
func (c *Config) Displays() []Display {
	out := make([]Display, 0, len(c.CPU)+len(c.Memory)+len(c.Temp))
	out = append(out, c.CPU...)
	out = append(out, c.Memory...)
	return append(out, c.Temp...)
}

// RequireDisplays reports whether the configuration can drive LEDs: a
// config file must have been read and declare at least one display.
func (c *Config) RequireDisplays() error {
	errFactory := errors.New()

	if !c.FileFound {
		return errFactory.WithMessage(errors.ErrMissingConfig,
			"cannot find "+c.File+"; create it or set --config")
	}
	if len(c.Displays()) == 0 {
		return errFactory.WithMessage(errors.ErrInvalidConfig,
			"no [cpu], [memory] or [temp] displays in "+c.File)
	}

	return nil
}
