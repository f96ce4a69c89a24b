// Package speech defines the capture and synthesis collaborator contracts and
// the websocket bridge to the platform speech host.
package speech

import (
	"context"
	"errors"
)

// Common errors
var (
	ErrCaptureUnavailable = errors.New("capture device unavailable")
	ErrNoSpeech           = errors.New("no speech detected")
	ErrCancelled          = errors.New("operation cancelled")
	ErrNotConnected       = errors.New("speech bridge not connected")
)

// Recognizer captures one complete utterance and returns its transcript.
// Recognition is complete-utterance only; there is no partial transcription.
type Recognizer interface {
	// Listen blocks until an utterance is recognized, the context ends, or
	// Cancel is called. locale is the recognition locale tag (e.g. "hi-IN").
	Listen(ctx context.Context, locale string) (string, error)

	// Cancel discards any in-flight recognition. Listen returns ErrCancelled.
	Cancel()
}

// Callbacks notify playback lifecycle for a synthesized utterance.
type Callbacks struct {
	OnStart func(handle string)
	OnEnd   func(handle string)
	OnError func(handle string, err error)
}

// Synthesizer speaks text aloud and reports playback lifecycle events.
type Synthesizer interface {
	// Speak starts synthesis and playback, returning an opaque handle for the
	// utterance. Callbacks fire asynchronously as playback progresses.
	Speak(ctx context.Context, text, locale string, cb Callbacks) (string, error)

	// Cancel halts the playback identified by handle. Safe to call for
	// handles that already finished.
	Cancel(handle string)
}

// Camera captures a single still frame from the platform camera.
type Camera interface {
	CaptureStill(ctx context.Context) ([]byte, error)
}
