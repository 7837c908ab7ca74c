package openrgb

import "codeberg.org/mutker/ledtop/internal/errors"

const (
	// Connection Errors
	ErrConnectFailed   = errors.ErrorCode("openrgb_connect_failed")
	ErrHandshakeFailed = errors.ErrorCode("openrgb_handshake_failed")
	ErrCloseFailed     = errors.ErrorCode("openrgb_close_failed")

	// Request Errors
	ErrRequestFailed = errors.ErrorCode("openrgb_request_failed")
	ErrDecodeFailed  = errors.ErrorCode("openrgb_decode_failed")
	ErrInvalidIndex  = errors.ErrorCode("openrgb_invalid_index")
)
