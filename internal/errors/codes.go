package errors

// Common error codes
const (
	// System errors
	ErrInternal        ErrorCode = "internal_error"
	ErrInvalidArgument ErrorCode = "invalid_argument"
	ErrAlreadyRunning  ErrorCode = "already_running"

	// Configuration errors
	ErrInvalidConfig ErrorCode = "invalid_configuration"
	ErrMissingConfig ErrorCode = "missing_configuration"
	ErrBindFlags     ErrorCode = "bind_flags_failed"
	ErrReadConfig    ErrorCode = "read_config_failed"
	ErrInvalidRange  ErrorCode = "invalid_led_range"
	ErrInvalidColor  ErrorCode = "invalid_color"
	ErrInvalidWeight ErrorCode = "invalid_weight"

	// Logging errors
	ErrInvalidLogLevel ErrorCode = "invalid_log_level"

	// Resource errors
	ErrDeviceNotFound ErrorCode = "device_not_found"
	ErrZoneNotFound   ErrorCode = "zone_not_found"
	ErrSensorNotFound ErrorCode = "sensor_unavailable"

	// Application errors
	ErrInitApp     ErrorCode = "init_app_failed"
	ErrMainLoop    ErrorCode = "main_loop_failed"
	ErrSample      ErrorCode = "sample_failed"
	ErrRender      ErrorCode = "render_failed"
	ErrHardwareIO  ErrorCode = "hardware_io_failed"
	ErrTurnOffLEDs ErrorCode = "turn_off_leds_failed"

	// Operation errors
	ErrOperationFailed ErrorCode = "operation_failed"
)

// Common error messages
var errorMessages = map[ErrorCode]string{
	ErrInternal:        "Internal error occurred",
	ErrInvalidArgument: "Invalid argument provided",
	ErrAlreadyRunning:  "Another instance is already running",
	ErrInvalidConfig:   "Invalid configuration",
	ErrMissingConfig:   "Missing configuration",
	ErrBindFlags:       "Failed to bind flags",
	ErrReadConfig:      "Failed to read config file",
	ErrInvalidRange:    "Invalid LED range",
	ErrInvalidColor:    "Invalid color",
	ErrInvalidWeight:   "Invalid category weight",
	ErrInvalidLogLevel: "Invalid log level",
	ErrDeviceNotFound:  "Device not found",
	ErrZoneNotFound:    "Zone not found",
	ErrSensorNotFound:  "Temperature sensor unavailable",
	ErrInitApp:         "Failed to initialize application",
	ErrMainLoop:        "Error in main loop",
	ErrSample:          "Failed to sample host telemetry",
	ErrRender:          "Failed to render display",
	ErrHardwareIO:      "Lighting hardware I/O failed",
	ErrTurnOffLEDs:     "Failed to turn off LEDs",
	ErrOperationFailed: "Operation failed",
}

// GetErrorMessage returns the message for a given error code
func GetErrorMessage(code ErrorCode) string {
	if msg, ok := errorMessages[code]; ok {
		return msg
	}

	return string(code)
}
