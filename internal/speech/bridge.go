package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

// BridgeConfig configures the websocket connection to the speech host.
type BridgeConfig struct {
	URL              string        // e.g. "ws://localhost:8765/speech"
	HandshakeTimeout time.Duration
	WriteTimeout     time.Duration
}

// DefaultBridgeConfig returns sensible defaults
func DefaultBridgeConfig() *BridgeConfig {
	return &BridgeConfig{
		URL:              "ws://localhost:8765/speech",
		HandshakeTimeout: 10 * time.Second,
		WriteTimeout:     5 * time.Second,
	}
}

// frame is the wire format exchanged with the speech host. The host owns the
// actual microphone, speaker, and camera; the bridge only relays requests and
// lifecycle events.
type frame struct {
	Type   string `json:"type"`
	ID     string `json:"id,omitempty"`
	Locale string `json:"locale,omitempty"`
	Text   string `json:"text,omitempty"`
	Image  string `json:"image,omitempty"` // base64 still frame
	Code   string `json:"code,omitempty"`  // error code
	Error  string `json:"error,omitempty"`
}

// Outbound frame types
const (
	frameListen       = "listen"
	frameCancelListen = "cancel_listen"
	frameSpeak        = "speak"
	frameCancelSpeak  = "cancel_speak"
	frameCapture      = "capture_still"
)

// Inbound frame types
const (
	frameTranscript   = "transcript"
	frameSpeakStarted = "speak_started"
	frameSpeakEnded   = "speak_ended"
	frameStill        = "still"
	frameError        = "error"
)

// Error codes the speech host may report
const (
	codeCaptureUnavailable = "capture_unavailable"
	codeNoSpeech           = "no_speech"
	codeCancelled          = "cancelled"
)

// Bridge is a websocket client for the platform speech host. It implements
// Recognizer, Synthesizer, and Camera.
type Bridge struct {
	config *BridgeConfig
	logger zerolog.Logger

	connMu    sync.Mutex
	conn      *websocket.Conn
	connected bool
	closeCh   chan struct{}

	pendingMu sync.Mutex
	pending   map[string]chan frame // request id -> response channel

	listenMu sync.Mutex
	listenID string // id of the in-flight recognition, if any

	speakMu sync.Mutex
	speaks  map[string]Callbacks // playback handle -> callbacks
}

// NewBridge creates a bridge client. Connect must be called before use.
func NewBridge(cfg *BridgeConfig, logger zerolog.Logger) *Bridge {
	if cfg == nil {
		cfg = DefaultBridgeConfig()
	}

	return &Bridge{
		config:  cfg,
		logger:  logger.With().Str("component", "speech-bridge").Logger(),
		closeCh: make(chan struct{}),
		pending: make(map[string]chan frame),
		speaks:  make(map[string]Callbacks),
	}
}

// Connect dials the speech host and starts the read loop.
func (b *Bridge) Connect(ctx context.Context) error {
	b.connMu.Lock()
	defer b.connMu.Unlock()

	if b.connected && b.conn != nil {
		return nil
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: b.config.HandshakeTimeout,
	}

	conn, resp, err := dialer.DialContext(ctx, b.config.URL, nil)
	if err != nil {
		if resp != nil {
			b.logger.Error().Int("status", resp.StatusCode).Err(err).Msg("Speech host connection failed")
		}
		return fmt.Errorf("websocket dial: %w", err)
	}

	b.conn = conn
	b.connected = true
	b.logger.Info().Str("url", b.config.URL).Msg("Connected to speech host")

	go b.readLoop()

	return nil
}

// readLoop dispatches inbound frames to waiters and playback callbacks.
func (b *Bridge) readLoop() {
	for {
		select {
		case <-b.closeCh:
			return
		default:
		}

		b.connMu.Lock()
		conn := b.conn
		b.connMu.Unlock()
		if conn == nil {
			return
		}

		_, message, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				b.logger.Debug().Msg("Speech host connection closed normally")
			} else {
				b.logger.Error().Err(err).Msg("Error reading from speech host")
			}
			b.setDisconnected()
			return
		}

		var f frame
		if err := json.Unmarshal(message, &f); err != nil {
			b.logger.Warn().Err(err).Str("message", string(message)).Msg("Failed to parse speech host frame")
			continue
		}

		b.dispatch(f)
	}
}

func (b *Bridge) dispatch(f frame) {
	switch f.Type {
	case frameSpeakStarted:
		if cb, ok := b.callbacks(f.ID); ok && cb.OnStart != nil {
			cb.OnStart(f.ID)
		}
	case frameSpeakEnded:
		cb, ok := b.takeCallbacks(f.ID)
		if ok && cb.OnEnd != nil {
			cb.OnEnd(f.ID)
		}
	case frameError:
		// An error frame may belong to a playback or a pending request.
		if cb, ok := b.takeCallbacks(f.ID); ok {
			if cb.OnError != nil {
				cb.OnError(f.ID, decodeError(f))
			}
			return
		}
		b.deliver(f)
	default:
		b.deliver(f)
	}
}

// deliver hands a frame to the waiter registered for its id.
func (b *Bridge) deliver(f frame) {
	b.pendingMu.Lock()
	ch, ok := b.pending[f.ID]
	if ok {
		delete(b.pending, f.ID)
	}
	b.pendingMu.Unlock()

	if !ok {
		b.logger.Debug().Str("type", f.Type).Str("id", f.ID).Msg("Dropping frame with no waiter")
		return
	}
	ch <- f
}

// Listen blocks until the host reports a transcript or an error.
func (b *Bridge) Listen(ctx context.Context, locale string) (string, error) {
	id := uuid.NewString()

	b.listenMu.Lock()
	b.listenID = id
	b.listenMu.Unlock()
	defer func() {
		b.listenMu.Lock()
		if b.listenID == id {
			b.listenID = ""
		}
		b.listenMu.Unlock()
	}()

	ch := b.register(id)
	defer b.unregister(id)

	if err := b.send(frame{Type: frameListen, ID: id, Locale: locale}); err != nil {
		return "", fmt.Errorf("start listening: %w", err)
	}

	select {
	case f := <-ch:
		if f.Type == frameError {
			return "", decodeError(f)
		}
		return f.Text, nil
	case <-ctx.Done():
		_ = b.send(frame{Type: frameCancelListen, ID: id})
		return "", ctx.Err()
	}
}

// CancelListen discards the in-flight recognition; the blocked Listen call
// returns ErrCancelled once the host acknowledges.
func (b *Bridge) CancelListen() {
	b.listenMu.Lock()
	id := b.listenID
	b.listenMu.Unlock()

	if id == "" {
		return
	}
	if err := b.send(frame{Type: frameCancelListen, ID: id}); err != nil {
		b.logger.Warn().Err(err).Msg("Failed to send listen cancel")
	}
}

// Speak starts synthesis and playback on the host. The returned handle
// identifies the playback for CancelSpeak and the lifecycle callbacks.
func (b *Bridge) Speak(ctx context.Context, text, locale string, cb Callbacks) (string, error) {
	handle := uuid.NewString()

	b.speakMu.Lock()
	b.speaks[handle] = cb
	b.speakMu.Unlock()

	if err := b.send(frame{Type: frameSpeak, ID: handle, Text: text, Locale: locale}); err != nil {
		b.speakMu.Lock()
		delete(b.speaks, handle)
		b.speakMu.Unlock()
		return "", fmt.Errorf("start synthesis: %w", err)
	}

	return handle, nil
}

// CancelSpeak halts the playback identified by handle.
func (b *Bridge) CancelSpeak(handle string) {
	b.speakMu.Lock()
	_, active := b.speaks[handle]
	delete(b.speaks, handle)
	b.speakMu.Unlock()

	if !active {
		return
	}
	if err := b.send(frame{Type: frameCancelSpeak, ID: handle}); err != nil {
		b.logger.Warn().Err(err).Str("handle", handle).Msg("Failed to send speak cancel")
	}
}

// CaptureStill requests a single still frame from the host camera.
func (b *Bridge) CaptureStill(ctx context.Context) ([]byte, error) {
	id := uuid.NewString()

	ch := b.register(id)
	defer b.unregister(id)

	if err := b.send(frame{Type: frameCapture, ID: id}); err != nil {
		return nil, fmt.Errorf("capture still: %w", err)
	}

	select {
	case f := <-ch:
		if f.Type == frameError {
			return nil, decodeError(f)
		}
		data, err := base64.StdEncoding.DecodeString(f.Image)
		if err != nil {
			return nil, fmt.Errorf("decode still frame: %w", err)
		}
		return data, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close shuts the bridge down.
func (b *Bridge) Close() error {
	b.connMu.Lock()
	defer b.connMu.Unlock()

	if !b.connected {
		return nil
	}
	close(b.closeCh)
	b.connected = false
	if b.conn != nil {
		return b.conn.Close()
	}
	return nil
}

// IsConnected reports whether the bridge currently holds a live connection.
func (b *Bridge) IsConnected() bool {
	b.connMu.Lock()
	defer b.connMu.Unlock()
	return b.connected
}

func (b *Bridge) setDisconnected() {
	b.connMu.Lock()
	b.connected = false
	b.connMu.Unlock()

	// Unblock all waiters; pending operations fail as capture-unavailable.
	b.pendingMu.Lock()
	for id, ch := range b.pending {
		delete(b.pending, id)
		ch <- frame{Type: frameError, ID: id, Code: codeCaptureUnavailable, Error: "speech host disconnected"}
	}
	b.pendingMu.Unlock()
}

func (b *Bridge) register(id string) chan frame {
	ch := make(chan frame, 1)
	b.pendingMu.Lock()
	b.pending[id] = ch
	b.pendingMu.Unlock()
	return ch
}

func (b *Bridge) unregister(id string) {
	b.pendingMu.Lock()
	delete(b.pending, id)
	b.pendingMu.Unlock()
}

func (b *Bridge) callbacks(handle string) (Callbacks, bool) {
	b.speakMu.Lock()
	defer b.speakMu.Unlock()
	cb, ok := b.speaks[handle]
	return cb, ok
}

func (b *Bridge) takeCallbacks(handle string) (Callbacks, bool) {
	b.speakMu.Lock()
	defer b.speakMu.Unlock()
	cb, ok := b.speaks[handle]
	if ok {
		delete(b.speaks, handle)
	}
	return cb, ok
}

func (b *Bridge) send(f frame) error {
	b.connMu.Lock()
	defer b.connMu.Unlock()

	if !b.connected || b.conn == nil {
		return ErrNotConnected
	}

	if b.config.WriteTimeout > 0 {
		_ = b.conn.SetWriteDeadline(time.Now().Add(b.config.WriteTimeout))
	}
	return b.conn.WriteJSON(f)
}

// Recognizer returns the bridge's recognition facet.
func (b *Bridge) Recognizer() Recognizer {
	return bridgeRecognizer{b}
}

// Synthesizer returns the bridge's synthesis facet.
func (b *Bridge) Synthesizer() Synthesizer {
	return bridgeSynthesizer{b}
}

// Camera returns the bridge's camera facet.
func (b *Bridge) Camera() Camera {
	return b
}

type bridgeRecognizer struct{ b *Bridge }

func (r bridgeRecognizer) Listen(ctx context.Context, locale string) (string, error) {
	return r.b.Listen(ctx, locale)
}

func (r bridgeRecognizer) Cancel() {
	r.b.CancelListen()
}

type bridgeSynthesizer struct{ b *Bridge }

func (s bridgeSynthesizer) Speak(ctx context.Context, text, locale string, cb Callbacks) (string, error) {
	return s.b.Speak(ctx, text, locale, cb)
}

func (s bridgeSynthesizer) Cancel(handle string) {
	s.b.CancelSpeak(handle)
}

// decodeError maps a host error frame to a sentinel error where possible.
func decodeError(f frame) error {
	switch f.Code {
	case codeCaptureUnavailable:
		return ErrCaptureUnavailable
	case codeNoSpeech:
		return ErrNoSpeech
	case codeCancelled:
		return ErrCancelled
	}
	if f.Error != "" {
		return errors.New(f.Error)
	}
	return fmt.Errorf("speech host error: %s", f.Code)
}
