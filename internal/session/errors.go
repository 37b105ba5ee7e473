// SPDX-License-Identifier: MIT
package session

import (
	"errors"
	"fmt"
)

var (
	// ErrNoSource is returned by Play when nothing has been loaded.
	ErrNoSource = errors.New("no source loaded")
	// ErrInvalidTransition is returned for commands the current state does not allow.
	ErrInvalidTransition = errors.New("invalid state transition")
	// ErrClosed is returned by every command after Close.
	ErrClosed = errors.New("session closed")
)

// LoadError reports a source that could not be read, decoded or recognised.
// The session state is unchanged.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load %q: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// EngineStartError reports an audio stream that could not be opened or
// started. The session state is unchanged.
type EngineStartError struct {
	Source string
	Err    error
}

func (e *EngineStartError) Error() string {
	return fmt.Sprintf("failed to start audio for %q: %v", e.Source, e.Err)
}

func (e *EngineStartError) Unwrap() error { return e.Err }
