package ftp

import "fmt"

// ProtocolError represents an FTP protocol error with full context of the
// command/reply conversation. It is returned whenever the server rejects a
// command that the protocol requires to succeed.
type ProtocolError struct {
	// Command is the FTP command that was sent (e.g., "MKD /pub/incoming")
	Command string

	// Response is the raw response received from the server (e.g., "550 Permission denied")
	Response string

	// Code is the numeric FTP reply code (e.g., 550)
	Code int
}

// Error implements the error interface.
func (e *ProtocolError) Error() string {
	return fmt.Sprintf("ftp: %s failed: %s (code %d)", e.Command, e.Response, e.Code)
}

// IsTemporary returns true if the error is a temporary failure (4xx).
// This can be used to implement retry logic outside this package.
func (e *ProtocolError) IsTemporary() bool {
	return e.Code >= 400 && e.Code < 500
}

// IsPermanent returns true if the error is a permanent failure (5xx).
func (e *ProtocolError) IsPermanent() bool {
	return e.Code >= 500 && e.Code < 600
}

// ConfigError indicates that the client configuration is unusable, for
// example a Connect attempt without a host. No network traffic has occurred
// when a ConfigError is returned.
type ConfigError struct {
	// Reason describes what is wrong with the configuration.
	Reason string
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	return "ftp: invalid configuration: " + e.Reason
}

// SecurityError indicates that a mandatory TLS upgrade (AUTH TLS) or
// downgrade (CCC) of the control channel failed. The connection must not be
// used after a SecurityError; reconnect instead.
type SecurityError struct {
	// Command is the security command that failed ("AUTH TLS" or "CCC").
	Command string

	// Response is the server's rejection, if the server rejected the command.
	Response string

	// Code is the server's reply code, or 0 when the failure was local
	// (e.g., the TLS handshake itself failed).
	Code int

	// Err is the underlying local error, if any.
	Err error
}

// Error implements the error interface.
func (e *SecurityError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ftp: %s failed: %v", e.Command, e.Err)
	}
	return fmt.Sprintf("ftp: %s rejected: %s (code %d)", e.Command, e.Response, e.Code)
}

// Unwrap returns the underlying local error, if any.
func (e *SecurityError) Unwrap() error {
	return e.Err
}

// StateError indicates an operation was attempted on a session whose control
// channel is not established (never connected, torn down, or left behind by
// a failed Connect).
type StateError struct {
	// Op is the operation that was attempted (e.g., "MKD").
	Op string
}

// Error implements the error interface.
func (e *StateError) Error() string {
	return "ftp: " + e.Op + ": not connected"
}
