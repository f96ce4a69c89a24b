// Package session coordinates capture, inference, synthesis, and playback for
// one active conversation.
//
// The session is a state machine: Idle -> Listening -> Processing ->
// (Speaking | Idle), with a camera variant Idle -> Capturing -> Processing ->
// (Speaking | Idle). Phases are mutually exclusive; recognition, inference,
// and playback never overlap. Every transition either appends exactly one
// message to the conversation log, mutates session state, or both.
package session

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Atharv1136/KisanDhan/internal/bus"
	"github.com/Atharv1136/KisanDhan/internal/conversation"
	"github.com/Atharv1136/KisanDhan/internal/diagnosis"
	"github.com/Atharv1136/KisanDhan/internal/language"
	"github.com/Atharv1136/KisanDhan/internal/prompt"
	"github.com/Atharv1136/KisanDhan/internal/speech"
)

// State identifies the active phase of the session.
type State string

const (
	StateIdle       State = "idle"
	StateListening  State = "listening"
	StateCapturing  State = "capturing"
	StateProcessing State = "processing"
	StateSpeaking   State = "speaking"
)

// Recording sub-state exposed to presentation.
const (
	RecordingIdle      = "idle"
	RecordingListening = "listening"
	RecordingCancelled = "cancelled"
)

// Processing sub-state exposed to presentation.
const (
	ProcessingIdle     = "idle"
	ProcessingInflight = "inflight"
)

// ErrBusy is returned when an operation is rejected because another phase is
// already active.
var ErrBusy = errors.New("session busy")

// Inferrer is the inference collaborator boundary.
type Inferrer interface {
	Infer(ctx context.Context, instruction, imageBase64 string) (string, error)
}

// Playback identifies the currently speaking message, if any.
type Playback struct {
	MessageID int64
	Handle    string
}

// Snapshot is a point-in-time copy of the session state.
type Snapshot struct {
	State           State
	RecordingState  string
	ProcessingState string
	Language        string
	AudioEnabled    bool
	Playback        *Playback
}

// Config tunes session behavior.
type Config struct {
	// ProcessingTimeout bounds the inference phase; expiry behaves exactly
	// like an inference error (default: 30s).
	ProcessingTimeout time.Duration
	// AudioEnabled is the initial value of the audio toggle.
	AudioEnabled bool
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		ProcessingTimeout: 30 * time.Second,
		AudioEnabled:      true,
	}
}

// Deps are the collaborators injected at construction. All of them admit test
// doubles that emit scripted transcripts and errors.
type Deps struct {
	Recognizer  speech.Recognizer
	Synthesizer speech.Synthesizer
	Camera      speech.Camera
	Inferrer    Inferrer
	Log         *conversation.Log
	Registry    *language.Registry
	EventBus    *bus.EventBus
	Logger      zerolog.Logger
}

// Session owns the state of one active conversation. Exactly one Session
// exists per conversation; it is destroyed with it.
type Session struct {
	recognizer  speech.Recognizer
	synthesizer speech.Synthesizer
	camera      speech.Camera
	inferrer    Inferrer
	log         *conversation.Log
	registry    *language.Registry
	eventBus    *bus.EventBus
	logger      zerolog.Logger
	cfg         Config

	ctx    context.Context
	cancel context.CancelFunc

	// playMu serializes playback transitions (start, stop, switch) so a prior
	// playback is always fully cancelled before a new one starts. mu is never
	// held across collaborator calls; playMu may be, since synthesizer control
	// operations do not block on playback.
	playMu sync.Mutex

	mu           sync.Mutex
	state        State
	profile      language.Profile
	audioEnabled bool
	playback     *Playback
	recCancelled bool
	// endedEarly remembers playback handles whose completion arrived before
	// speak committed them, so the session never sticks in Speaking.
	endedEarly map[string]bool
	// generation invalidates in-flight work: a result arriving with a stale
	// generation is discarded without appending a message.
	generation uint64
}

// New creates a session in the Idle state using the registry's default language.
func New(deps Deps, cfg Config) *Session {
	if cfg.ProcessingTimeout <= 0 {
		cfg.ProcessingTimeout = 30 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Session{
		recognizer:   deps.Recognizer,
		synthesizer:  deps.Synthesizer,
		camera:       deps.Camera,
		inferrer:     deps.Inferrer,
		log:          deps.Log,
		registry:     deps.Registry,
		eventBus:     deps.EventBus,
		logger:       deps.Logger.With().Str("component", "session").Logger(),
		cfg:          cfg,
		ctx:          ctx,
		cancel:       cancel,
		state:        StateIdle,
		profile:      deps.Registry.Default(),
		audioEnabled: cfg.AudioEnabled,
		endedEarly:   make(map[string]bool),
	}
}

// State returns a snapshot of the current session state.
func (s *Session) State() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		State:           s.state,
		RecordingState:  RecordingIdle,
		ProcessingState: ProcessingIdle,
		Language:        s.profile.Code,
		AudioEnabled:    s.audioEnabled,
	}
	if s.state == StateListening {
		snap.RecordingState = RecordingListening
	}
	if s.recCancelled {
		snap.RecordingState = RecordingCancelled
	}
	if s.state == StateProcessing {
		snap.ProcessingState = ProcessingInflight
	}
	if s.playback != nil {
		pb := *s.playback
		snap.Playback = &pb
	}
	return snap
}

// SetLanguage switches the active language. Unknown codes are a contract
// violation for the caller and are returned as language.ErrUnknownLanguage.
func (s *Session) SetLanguage(code string) error {
	profile, err := s.registry.Lookup(code)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.profile = profile
	s.mu.Unlock()

	s.logger.Info().Str("language", code).Msg("Active language changed")
	s.publish(bus.EventTypeLanguageChanged, map[string]any{"language": code})
	return nil
}

// SetAudioEnabled toggles spoken responses.
func (s *Session) SetAudioEnabled(enabled bool) {
	s.mu.Lock()
	s.audioEnabled = enabled
	s.mu.Unlock()

	s.publish(bus.EventTypeAudioToggled, map[string]any{"enabled": enabled})
}

// StartRecording begins capturing one utterance. Rejected with ErrBusy unless
// the session is Idle: at most one capture is active at any time.
func (s *Session) StartRecording() error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrBusy
	}
	s.setStateLocked(StateListening)
	s.recCancelled = false
	gen := s.generation
	profile := s.profile
	s.mu.Unlock()

	s.publish(bus.EventTypeListeningStarted, map[string]any{"locale": profile.RecognitionLocale})

	go s.listen(gen, profile)
	return nil
}

// listen blocks on the capture collaborator and drives the
// Listening -> Processing | Idle transition.
func (s *Session) listen(gen uint64, profile language.Profile) {
	text, err := s.recognizer.Listen(s.ctx, profile.RecognitionLocale)

	s.mu.Lock()
	if s.generation != gen || s.state != StateListening {
		// Cancelled or superseded; discard whatever recognition produced.
		s.recCancelled = false
		s.mu.Unlock()
		s.logger.Debug().Msg("Discarding stale recognition result")
		return
	}

	if err != nil {
		s.setStateLocked(StateIdle)
		s.mu.Unlock()

		switch {
		case errors.Is(err, speech.ErrCancelled), errors.Is(err, context.Canceled):
			// User cancel: no message appended.
			return
		case errors.Is(err, speech.ErrCaptureUnavailable):
			s.logger.Warn().Err(err).Msg("Capture unavailable")
			s.appendAssistant(profile.Errors.CaptureUnavailable, profile, nil)
		default:
			s.logger.Warn().Err(err).Msg("Recognition failed")
			s.appendAssistant(profile.Errors.Recognition, profile, nil)
		}
		s.publish(bus.EventTypeCaptureError, map[string]any{"error": err.Error()})
		return
	}

	// Transcript is appended before the answer arrives so the user sees
	// their own words immediately.
	s.setStateLocked(StateProcessing)
	s.mu.Unlock()

	userMsg := s.appendMessage(conversation.Message{
		Role:     conversation.RoleUser,
		Text:     text,
		Language: profile.Code,
	})
	s.publish(bus.EventTypeTranscript, map[string]any{"messageId": userMsg.ID, "text": text})

	s.infer(gen, profile, prompt.ComposeAdvice(text, profile), "", false)
}

// Ask submits a typed utterance, joining the voice flow at the Processing
// phase. Quick-reply buttons and text entry use this path. Blank input is
// ignored.
func (s *Session) Ask(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrBusy
	}
	s.setStateLocked(StateProcessing)
	gen := s.generation
	profile := s.profile
	s.mu.Unlock()

	userMsg := s.appendMessage(conversation.Message{
		Role:     conversation.RoleUser,
		Text:     text,
		Language: profile.Code,
	})
	s.publish(bus.EventTypeTranscript, map[string]any{"messageId": userMsg.ID, "text": text})

	go s.infer(gen, profile, prompt.ComposeAdvice(text, profile), "", false)
	return nil
}

// MarketInsights requests a market analysis for a crop, optionally scoped to
// a location. Like the camera flow it appends no user message; the advisory
// text arrives as a single assistant message. Blank crop is ignored.
func (s *Session) MarketInsights(crop, location string) error {
	crop = strings.TrimSpace(crop)
	location = strings.TrimSpace(location)
	if crop == "" {
		return nil
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrBusy
	}
	s.setStateLocked(StateProcessing)
	gen := s.generation
	profile := s.profile
	s.mu.Unlock()

	go s.infer(gen, profile, prompt.ComposeMarketInsights(crop, location, profile), "", false)
	return nil
}

// CancelRecording discards an in-flight recognition. No message is appended.
func (s *Session) CancelRecording() {
	s.mu.Lock()
	if s.state != StateListening {
		s.mu.Unlock()
		return
	}
	s.generation++
	s.recCancelled = true
	s.setStateLocked(StateIdle)
	s.mu.Unlock()

	// Halt the collaborator before anything new starts.
	s.recognizer.Cancel()

	s.mu.Lock()
	s.recCancelled = false
	s.mu.Unlock()

	s.publish(bus.EventTypeListeningStopped, map[string]any{"cancelled": true})
}

// CapturePhoto runs the camera variant: capture a still frame, diagnose it,
// and append a localized summary. Rejected with ErrBusy unless Idle.
func (s *Session) CapturePhoto() error {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return ErrBusy
	}
	s.setStateLocked(StateCapturing)
	gen := s.generation
	profile := s.profile
	s.mu.Unlock()

	go s.capture(gen, profile)
	return nil
}

func (s *Session) capture(gen uint64, profile language.Profile) {
	image, err := s.camera.CaptureStill(s.ctx)

	s.mu.Lock()
	if s.generation != gen || s.state != StateCapturing {
		s.mu.Unlock()
		s.logger.Debug().Msg("Discarding stale camera frame")
		return
	}

	if err != nil {
		s.setStateLocked(StateIdle)
		s.mu.Unlock()

		if errors.Is(err, speech.ErrCancelled) || errors.Is(err, context.Canceled) {
			return
		}
		s.logger.Warn().Err(err).Msg("Still capture failed")
		s.appendAssistant(profile.Errors.CaptureUnavailable, profile, nil)
		s.publish(bus.EventTypeCaptureError, map[string]any{"error": err.Error()})
		return
	}

	s.setStateLocked(StateProcessing)
	s.mu.Unlock()

	s.publish(bus.EventTypePhotoCaptured, map[string]any{"bytes": len(image)})

	imageBase64 := base64.StdEncoding.EncodeToString(image)
	s.infer(gen, profile, prompt.ComposeDiagnosis(profile), imageBase64, true)
}

// infer runs the inference collaborator under the processing timeout and
// drives the Processing -> Speaking | Idle transition. diagnose selects the
// image-diagnosis path, which routes the raw response through the normalizer.
func (s *Session) infer(gen uint64, profile language.Profile, instruction, imageBase64 string, diagnose bool) {
	s.publish(bus.EventTypeInferenceStarted, map[string]any{"diagnosis": diagnose})

	ctx, cancel := context.WithTimeout(s.ctx, s.cfg.ProcessingTimeout)
	defer cancel()

	raw, err := s.inferrer.Infer(ctx, instruction, imageBase64)

	s.mu.Lock()
	if s.generation != gen || s.state != StateProcessing {
		// Session moved on; the late result is discarded, no message appended.
		s.mu.Unlock()
		s.logger.Debug().Msg("Discarding superseded inference result")
		return
	}

	if err != nil {
		s.setStateLocked(StateIdle)
		s.mu.Unlock()

		// The raw error is logged but never shown to the user.
		s.logger.Error().Err(err).Msg("Inference failed")
		s.appendAssistant(profile.Errors.Inference, profile, nil)
		s.publish(bus.EventTypeInferenceFailed, map[string]any{"error": err.Error()})
		return
	}

	var text string
	var record *diagnosis.Record
	if diagnose {
		rec := diagnosis.Normalize(raw)
		record = &rec
		text = diagnosis.Summary(rec, profile)
	} else {
		text = raw
	}

	speak := s.audioEnabled
	if !speak {
		s.setStateLocked(StateIdle)
	}
	s.mu.Unlock()

	msg := s.appendAssistant(text, profile, record)
	s.publish(bus.EventTypeInferenceCompleted, map[string]any{"messageId": msg.ID})

	if speak {
		s.speak(msg, profile)
	}
}

// speak starts playback for a message, cancelling any active playback first.
func (s *Session) speak(msg conversation.Message, profile language.Profile) {
	s.playMu.Lock()
	defer s.playMu.Unlock()

	// At most one playback at any instant: the prior one is always cancelled
	// before a new one starts.
	s.mu.Lock()
	prior := s.playback
	s.playback = nil
	s.mu.Unlock()

	if prior != nil {
		s.synthesizer.Cancel(prior.Handle)
		s.publish(bus.EventTypePlaybackStopped, map[string]any{"messageId": prior.MessageID})
	}

	handle, err := s.synthesizer.Speak(s.ctx, msg.Text, profile.SynthesisLocale, speech.Callbacks{
		OnEnd:   s.onPlaybackEnd,
		OnError: s.onPlaybackError,
	})
	if err != nil {
		s.mu.Lock()
		s.setStateLocked(StateIdle)
		s.mu.Unlock()
		s.logger.Warn().Err(err).Int64("messageId", msg.ID).Msg("Synthesis failed")
		s.publish(bus.EventTypePlaybackError, map[string]any{"messageId": msg.ID, "error": err.Error()})
		return
	}

	s.mu.Lock()
	if s.endedEarly[handle] {
		// Playback completed before Speak returned; never enter Speaking.
		delete(s.endedEarly, handle)
		s.setStateLocked(StateIdle)
		s.mu.Unlock()
		s.attachAudio(msg.ID, handle)
		s.publish(bus.EventTypePlaybackStopped, map[string]any{"messageId": msg.ID, "completed": true})
		return
	}
	s.playback = &Playback{MessageID: msg.ID, Handle: handle}
	s.setStateLocked(StateSpeaking)
	s.mu.Unlock()

	s.attachAudio(msg.ID, handle)
	s.publish(bus.EventTypePlaybackStarted, map[string]any{"messageId": msg.ID, "handle": handle})
}

// attachAudio records the synthesis handle on the message, attach-once.
func (s *Session) attachAudio(messageID int64, handle string) {
	err := s.log.AttachAudio(messageID, handle)
	switch {
	case err == nil:
		s.publish(bus.EventTypeAudioAttached, map[string]any{"messageId": messageID, "handle": handle})
	case errors.Is(err, conversation.ErrAudioAttached):
		// Replay of an already-voiced message.
	default:
		s.logger.Warn().Err(err).Int64("messageId", messageID).Msg("Failed to attach audio handle")
	}
}

// TogglePlayback starts, stops, or switches playback for a logged message.
// Toggling the currently speaking message stops it; toggling another message
// cancels the current playback before the new one begins.
func (s *Session) TogglePlayback(messageID int64) error {
	msg, err := s.log.Get(messageID)
	if err != nil {
		return err
	}

	s.mu.Lock()

	if s.playback != nil && s.playback.MessageID == messageID {
		prior := *s.playback
		s.playback = nil
		if s.state == StateSpeaking {
			s.setStateLocked(StateIdle)
		}
		s.mu.Unlock()

		s.synthesizer.Cancel(prior.Handle)
		s.publish(bus.EventTypePlaybackStopped, map[string]any{"messageId": prior.MessageID})
		return nil
	}

	// Replaying is only legal while no capture or inference is in flight.
	if s.state != StateIdle && s.state != StateSpeaking {
		s.mu.Unlock()
		return ErrBusy
	}

	profile := s.profileFor(msg.Language)
	s.mu.Unlock()

	s.speak(msg, profile)
	return nil
}

// onPlaybackEnd handles playbackComplete from the synthesis collaborator.
func (s *Session) onPlaybackEnd(handle string) {
	s.mu.Lock()
	if s.playback == nil || s.playback.Handle != handle {
		s.endedEarly[handle] = true
		s.mu.Unlock()
		return
	}
	messageID := s.playback.MessageID
	s.playback = nil
	if s.state == StateSpeaking {
		s.setStateLocked(StateIdle)
	}
	s.mu.Unlock()

	s.publish(bus.EventTypePlaybackStopped, map[string]any{"messageId": messageID, "completed": true})
}

func (s *Session) onPlaybackError(handle string, err error) {
	s.mu.Lock()
	if s.playback == nil || s.playback.Handle != handle {
		s.endedEarly[handle] = true
		s.mu.Unlock()
		return
	}
	messageID := s.playback.MessageID
	s.playback = nil
	if s.state == StateSpeaking {
		s.setStateLocked(StateIdle)
	}
	s.mu.Unlock()

	s.logger.Warn().Err(err).Int64("messageId", messageID).Msg("Playback failed")
	s.publish(bus.EventTypePlaybackError, map[string]any{"messageId": messageID, "error": err.Error()})
}

// Close tears the session down, halting any in-flight work.
func (s *Session) Close() {
	s.mu.Lock()
	s.generation++
	playback := s.playback
	s.playback = nil
	s.endedEarly = make(map[string]bool)
	listening := s.state == StateListening
	s.setStateLocked(StateIdle)
	s.mu.Unlock()

	if listening {
		s.recognizer.Cancel()
	}
	if playback != nil {
		s.synthesizer.Cancel(playback.Handle)
	}
	s.cancel()
}

// setStateLocked mutates the phase and publishes the transition. Caller holds mu.
func (s *Session) setStateLocked(state State) {
	if s.state == state {
		return
	}
	old := s.state
	s.state = state
	s.logger.Debug().Str("old", string(old)).Str("new", string(state)).Msg("Session state changed")
	s.publish(bus.EventTypeSessionStateChanged, map[string]any{
		"old_state": string(old),
		"new_state": string(state),
	})
}

// appendAssistant appends an assistant message tagged with the profile language.
func (s *Session) appendAssistant(text string, profile language.Profile, record *diagnosis.Record) conversation.Message {
	return s.appendMessage(conversation.Message{
		Role:      conversation.RoleAssistant,
		Text:      text,
		Language:  profile.Code,
		Diagnosis: record,
	})
}

func (s *Session) appendMessage(msg conversation.Message) conversation.Message {
	stored := s.log.Append(msg)
	s.publish(bus.EventTypeMessageAppended, map[string]any{
		"messageId": stored.ID,
		"role":      string(stored.Role),
	})
	return stored
}

// profileFor resolves the profile for a message language, falling back to the
// active profile for anything unknown.
func (s *Session) profileFor(code string) language.Profile {
	if profile, err := s.registry.Lookup(code); err == nil {
		return profile
	}
	return s.profile
}

func (s *Session) publish(eventType bus.EventType, data map[string]any) {
	if s.eventBus == nil {
		return
	}
	s.eventBus.Publish(bus.Event{Type: eventType, Data: data})
}
