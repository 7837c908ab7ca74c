package config

import (
	"fmt"
	"strconv"

	"github.com/spf13/pflag"
)

// Option defines a configuration option that can be passed to Load
type Option func(*options) error

// options holds internal configuration options
type options struct {
	configPath string
	flags      *pflag.FlagSet
}

// WithConfigFile specifies an explicit configuration file path
func WithConfigFile(path string) Option {
	return func(o *options) error {
		o.configPath = path
		return nil
	}
}

// WithFlags binds the flags registered by RegisterFlags. Flags that were
// set on the command line take precedence over every other source.
func WithFlags(fs *pflag.FlagSet) Option {
	return func(o *options) error {
		o.flags = fs
		return nil
	}
}

// LogLevel represents valid logging levels
type LogLevel string

const (
	LogLevelDebug   LogLevel = "debug"
	LogLevelInfo    LogLevel = "info"
	LogLevelWarning LogLevel = "warning"
	LogLevelError   LogLevel = "error"
)

// IsValid returns whether the log level is valid
func (l LogLevel) IsValid() bool {
	switch l {
	case LogLevelDebug, LogLevelInfo, LogLevelWarning, LogLevelError:
		return true
	default:
		return false
	}
}

// String implements the Stringer interface
func (l LogLevel) String() string {
	return string(l)
}

// SensorPolicy decides what a temperature display does when its sensor
// is missing from a sample.
type SensorPolicy string

const (
	SensorFail  SensorPolicy = "fail"
	SensorFirst SensorPolicy = "first"
	SensorSkip  SensorPolicy = "skip"
)

// Kind is the metric a display renders
type Kind string

const (
	KindCPU    Kind = "cpu"
	KindMemory Kind = "memory"
	KindTemp   Kind = "temp"
)

// Ref identifies a device or zone either by index or by name
type Ref struct {
	Index  int
	Name   string
	ByName bool
}

func IndexRef(i int) Ref { return Ref{Index: i} }

func NameRef(name string) Ref { return Ref{Name: name, ByName: true} }

func (r Ref) String() string {
	if r.ByName {
		return strconv.Quote(r.Name)
	}
	return strconv.Itoa(r.Index)
}

// ValidationError represents a configuration validation error
type ValidationError interface {
	error
	// Field returns the name of the invalid field
	Field() string
	// Value returns the invalid value
	Value() any
	// Reason returns why the value is invalid
	Reason() string
}

type validationError struct {
	field  string
	value  any
	reason string
}

func newValidationError(field string, value any, reason string) *validationError {
	return &validationError{field: field, value: value, reason: reason}
}

func (e *validationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.field, e.reason, e.value)
}

func (e *validationError) Field() string  { return e.field }
func (e *validationError) Value() any     { return e.value }
func (e *validationError) Reason() string { return e.reason }
