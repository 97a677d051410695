package logger

import "log/slog"

// Standard field keys for structured logging. Use these consistently so the
// server and launcher logs can be aggregated and queried together.
const (
	// Content pipeline
	KeyPath = "path" // relative or absolute file path
	KeyPass = "pass" // rehash sub-pass name

	// Profiles
	KeyProfile = "profile" // profile name
	KeyVersion = "version" // profile/game version

	// Sessions and clients
	KeyClientIP = "client_ip"
	KeyUsername = "username"
	KeyUUID     = "uuid"
	KeyOs       = "os"        // client OsType
	KeyMessage  = "message"   // protocol message tag
	KeyServerID = "server_id" // join-proof server id

	// Transfers
	KeyURL   = "url"
	KeyBytes = "bytes"

	// Operation metadata
	KeyError      = "error"
	KeyDurationMs = "duration_ms"
)

// Err returns a slog.Attr for an error, or the empty Attr for nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Path returns a slog.Attr for a file path.
func Path(p string) slog.Attr {
	return slog.String(KeyPath, p)
}

// Profile returns a slog.Attr for a profile name.
func Profile(name string) slog.Attr {
	return slog.String(KeyProfile, name)
}

// Username returns a slog.Attr for a username.
func Username(name string) slog.Attr {
	return slog.String(KeyUsername, name)
}

// ClientIP returns a slog.Attr for a client address.
func ClientIP(addr string) slog.Attr {
	return slog.String(KeyClientIP, addr)
}

// DurationMs returns a slog.Attr for duration in milliseconds.
func DurationMs(ms float64) slog.Attr {
	return slog.Float64(KeyDurationMs, ms)
}
