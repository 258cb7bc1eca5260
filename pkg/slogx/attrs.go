package slogx

import (
	"log/slog"
	"time"
)

// Error returns a slog.Attr representing the provided error.
// The attribute key is "error" and the value is the error's message.
//
// Parameters:
//   - err: The error to be converted into a slog.Attr.
//
// Returns:
//   - slog.Attr: An attribute with the key "error" and the error's message as the value.
func Error(err error) slog.Attr {
	return slog.String("error", err.Error())
}

// Op creates a slog.Attr naming the blocking operation a log line belongs
// to, e.g. "wait-for-response". The attribute key is "op".
//
// Parameters:
//   - name: The name of the operation being logged.
//
// Returns:
//   - slog.Attr: An attribute with the key "op" and the operation name as the value.
func Op(name string) slog.Attr {
	return slog.String("op", name)
}

// Duration creates a slog.Attr with the given key and a string
// representation of the duration value. It formats the duration with its
// String method, so log lines read "2.5s" rather than a raw nanosecond
// count.
//
// Parameters:
//   - key: The key for the attribute.
//   - d: The elapsed or configured duration to be logged.
//
// Returns:
//   - slog.Attr: An attribute containing the key and the formatted duration.
func Duration(key string, d time.Duration) slog.Attr {
	return slog.String(key, d.String())
}
