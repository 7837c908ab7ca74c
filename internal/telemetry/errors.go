package telemetry

import "codeberg.org/mutker/ledtop/internal/errors"

const (
	// Configuration Errors
	ErrInvalidConfig = errors.ErrorCode("telemetry_invalid_config")

	// Collection Errors
	ErrCPUTimes       = errors.ErrorCode("telemetry_cpu_times_failed")
	ErrMemoryStat     = errors.ErrorCode("telemetry_memory_stat_failed")
	ErrSampleCanceled = errors.ErrorCode("telemetry_sample_canceled")

	// Operation Errors
	ErrServiceShutdown = errors.ErrorCode("telemetry_service_shutdown_failed")
)
