// Package language provides the registry of supported interaction languages.
//
// Each profile carries the locale tags handed to the speech collaborators and
// the localized template text used for prompts, error messages, and diagnosis
// summaries. Profiles are immutable and loaded once at process start.
package language

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrUnknownLanguage is returned when a language code is not registered.
// Callers are expected to pre-validate codes or fall back to the default profile.
var ErrUnknownLanguage = errors.New("unknown language code")

// ErrorTemplates holds localized user-facing error text for a language.
type ErrorTemplates struct {
	CaptureUnavailable string // microphone or camera missing
	Recognition        string // no speech detected / not understood
	Inference          string // model or transport failure, generic wording
}

// Profile describes one supported language.
type Profile struct {
	Code              string // short code, e.g. "hi"
	DisplayName       string // native-script name shown to the user
	EnglishName       string // name used inside prompt directives
	RecognitionLocale string // BCP-47 tag for the capture collaborator
	SynthesisLocale   string // BCP-47 tag for the synthesis collaborator
	ResponseDirective string // sentence instructing the model to answer in this language
	Errors            ErrorTemplates
	SummaryFormat     string            // fmt template: condition, severity, first treatment step
	SeverityNames     map[string]string // severity value -> localized display word
}

// SeverityName returns the localized display word for a severity value,
// falling back to the raw value for anything unmapped.
func (p Profile) SeverityName(severity string) string {
	if name, ok := p.SeverityNames[severity]; ok {
		return name
	}
	return severity
}

// Registry is an immutable lookup table of language profiles keyed by code.
type Registry struct {
	mu          sync.RWMutex
	profiles    map[string]Profile
	defaultCode string
}

// NewRegistry builds a registry from the built-in profiles with the given
// default language. The default must itself be a registered code.
func NewRegistry(defaultCode string) (*Registry, error) {
	r := &Registry{
		profiles: make(map[string]Profile, len(builtinProfiles)),
	}
	for _, p := range builtinProfiles {
		r.profiles[p.Code] = p
	}

	if _, ok := r.profiles[defaultCode]; !ok {
		return nil, fmt.Errorf("default language %q: %w", defaultCode, ErrUnknownLanguage)
	}
	r.defaultCode = defaultCode

	return r, nil
}

// Lookup returns the profile for a code.
func (r *Registry) Lookup(code string) (Profile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.profiles[code]
	if !ok {
		return Profile{}, fmt.Errorf("language %q: %w", code, ErrUnknownLanguage)
	}
	return p, nil
}

// Default returns the configured default profile.
func (r *Registry) Default() Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profiles[r.defaultCode]
}

// Codes returns all registered language codes, sorted.
func (r *Registry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	codes := make([]string, 0, len(r.profiles))
	for code := range r.profiles {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
