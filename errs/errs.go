// Package errs holds the error kinds shared by the raga loader, the
// composition engine and its sinks.
package errs

import (
	"github.com/Southclaws/fault"
	"github.com/Southclaws/fault/fmsg"
	"github.com/Southclaws/fault/ftag"
)

const (
	// ConfigError marks malformed ragas, bad time signatures and starting
	// without a raga. Always raised before playback, never from a tick.
	ConfigError ftag.Kind = "config_error"

	// CollaboratorUnavailable marks a sound or visual sink that could not
	// take an event. The tick skips that effect and continues.
	CollaboratorUnavailable ftag.Kind = "collaborator_unavailable"

	// InvariantViolation marks special-state counters found outside their
	// bound. The engine resets to Normal and keeps ticking.
	InvariantViolation ftag.Kind = "invariant_violation"
)

// Config builds a ConfigError with an internal message and a user-facing one.
func Config(msg, desc string) error {
	return fault.New(msg, fmsg.WithDesc(msg, desc), ftag.With(ConfigError))
}

// Unavailable tags err as a collaborator failure. Nil stays nil.
func Unavailable(err error, msg string) error {
	if err == nil {
		return nil
	}
	return fault.Wrap(err, fmsg.With(msg), ftag.With(CollaboratorUnavailable))
}

// Invariant builds an InvariantViolation.
func Invariant(msg string) error {
	return fault.New(msg, ftag.With(InvariantViolation))
}

// Is reports whether err carries kind.
func Is(err error, kind ftag.Kind) bool {
	return err != nil && ftag.Get(err) == kind
}

// Describe returns the user-facing message for err if it has one.
func Describe(err error) string {
	if err == nil {
		return ""
	}
	if d := fmsg.GetIssue(err); d != "" {
		return d
	}
	return err.Error()
}
