package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/pmstoolbox/deskbell/internal/reminders/domain"
)

// fakeStore is an in-memory settings store with scriptable save failures.
type fakeStore struct {
	mu        sync.Mutex
	settings  domain.Settings
	merged    bool
	failSaves int
	saveCalls int
}

func newFakeStore(settings domain.Settings) *fakeStore {
	return &fakeStore{settings: settings}
}

func (s *fakeStore) Load(_ context.Context) (domain.Settings, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings, s.merged
}

func (s *fakeStore) Save(_ context.Context, settings domain.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saveCalls++
	if s.failSaves > 0 {
		s.failSaves--
		return errors.New("storage write failed")
	}
	s.settings = settings
	return nil
}

func (s *fakeStore) current() domain.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.settings
}

func (s *fakeStore) saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveCalls
}

// fakeRegistry records every Replace call.
type fakeRegistry struct {
	mu    sync.Mutex
	calls [][]domain.TriggerSpec
	err   error
}

func (r *fakeRegistry) Replace(_ context.Context, specs []domain.TriggerSpec) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := make([]domain.TriggerSpec, len(specs))
	copy(copied, specs)
	r.calls = append(r.calls, copied)
	return r.err
}

func (r *fakeRegistry) replaceCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *fakeRegistry) lastSpecs(t *testing.T) []domain.TriggerSpec {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.calls)
	return r.calls[len(r.calls)-1]
}

// recordingPublisher captures published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

type publishedEvent struct {
	routingKey string
	payload    []byte
}

func (p *recordingPublisher) Publish(_ context.Context, routingKey string, payload []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{routingKey: routingKey, payload: payload})
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) byKey(routingKey string) [][]byte {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out [][]byte
	for _, e := range p.events {
		if e.routingKey == routingKey {
			out = append(out, e.payload)
		}
	}
	return out
}

func decodeLast[T any](t *testing.T, payloads [][]byte) T {
	t.Helper()
	require.NotEmpty(t, payloads)
	var v T
	require.NoError(t, json.Unmarshal(payloads[len(payloads)-1], &v))
	return v
}

// stubProbes returns fixed desktop state.
type stubProbes struct {
	locked, audible, fullscreen bool
	lockedErr                   error
	calls                       sync.Map
}

func (p *stubProbes) IsLocked(_ context.Context) (bool, error) {
	p.calls.Store("locked", true)
	return p.locked, p.lockedErr
}

func (p *stubProbes) HasAudiblePlayback(_ context.Context) (bool, error) {
	p.calls.Store("audible", true)
	return p.audible, nil
}

func (p *stubProbes) HasFullscreenWindow(_ context.Context) (bool, error) {
	p.calls.Store("fullscreen", true)
	return p.fullscreen, nil
}

// recordingNotifier captures notifications and supports clearing.
type recordingNotifier struct {
	mu       sync.Mutex
	notices  []string
	clears   []string
	ids      int
	clearOK  bool
	notifyEr error
}

func (n *recordingNotifier) Notify(_ context.Context, _, body string) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.notifyEr != nil {
		return "", n.notifyEr
	}
	n.ids++
	n.notices = append(n.notices, body)
	return "n-" + time.Now().Format("150405.000"), nil
}

func (n *recordingNotifier) Clear(_ context.Context, id string) (bool, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.clears = append(n.clears, id)
	return n.clearOK, nil
}

func (n *recordingNotifier) notified() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.notices...)
}

func (n *recordingNotifier) cleared() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.clears...)
}

// recordingSpeaker captures spoken text.
type recordingSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

func (s *recordingSpeaker) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return nil
}

func (s *recordingSpeaker) said() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

// countingResyncer records how often a resync was requested.
type countingResyncer struct {
	mu    sync.Mutex
	count int
}

func (r *countingResyncer) Resync(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.count++
	return nil
}

func (r *countingResyncer) resyncs() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

func mustEntry(t *testing.T, text string, at time.Time, kind domain.Kind) domain.Entry {
	t.Helper()
	e, err := domain.NewEntry(text, at, kind)
	require.NoError(t, err)
	return e
}
