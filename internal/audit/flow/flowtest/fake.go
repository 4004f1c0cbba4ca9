// Package flowtest provides an in-memory browser session for exercising flows
// without launching Chrome.
package flowtest

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ethpandaops/pageaudit/internal/audit/flow"
)

var (
	// ErrNotFound is returned for selectors the fake page does not contain.
	ErrNotFound = errors.New("element not found")
	// ErrUnreachable is returned by Navigate for URLs marked unreachable.
	ErrUnreachable = errors.New("page unreachable")
)

// Page describes what the fake browser renders for every URL.
type Page struct {
	Title       string
	Texts       map[string]string // selector -> text; presence means the element exists
	Unreachable map[string]bool   // URLs whose navigation fails
}

// Session is a fake browser session recording the calls made to it.
type Session struct {
	page     Page
	mu       sync.Mutex
	location string
	calls    []string
	closed   bool
}

// Factory creates fake sessions. Set Err to make every acquisition fail.
type Factory struct {
	Page Page
	Err  error

	mu       sync.Mutex
	sessions []*Session
}

// NewSession returns a fresh Session or Err.
func (f *Factory) NewSession(_ context.Context) (flow.Session, error) {
	if f.Err != nil {
		return nil, f.Err
	}

	s := &Session{page: f.Page}

	f.mu.Lock()
	f.sessions = append(f.sessions, s)
	f.mu.Unlock()

	return s, nil
}

// Sessions returns every session created so far.
func (f *Factory) Sessions() []*Session {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*Session, len(f.sessions))
	copy(out, f.sessions)

	return out
}

// AllClosed reports whether every created session was closed.
func (f *Factory) AllClosed() bool {
	for _, s := range f.Sessions() {
		if !s.Closed() {
			return false
		}
	}

	return true
}

func (s *Session) record(call string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, call)
}

func (s *Session) has(selector string) bool {
	_, ok := s.page.Texts[selector]
	return ok
}

func (s *Session) Navigate(_ context.Context, url string) error {
	s.record("navigate " + url)

	if s.page.Unreachable[url] {
		return fmt.Errorf("%w: %s", ErrUnreachable, url)
	}

	s.mu.Lock()
	s.location = url
	s.mu.Unlock()

	return nil
}

func (s *Session) Click(_ context.Context, selector string) error {
	s.record("click " + selector)

	if !s.has(selector) {
		return fmt.Errorf("%w: %s", ErrNotFound, selector)
	}

	return nil
}

func (s *Session) Type(_ context.Context, selector, text string) error {
	s.record(fmt.Sprintf("type %s %s", selector, text))

	if !s.has(selector) {
		return fmt.Errorf("%w: %s", ErrNotFound, selector)
	}

	return nil
}

func (s *Session) WaitVisible(_ context.Context, selector string) error {
	s.record("wait_visible " + selector)

	if !s.has(selector) {
		return fmt.Errorf("%w: %s", ErrNotFound, selector)
	}

	return nil
}

func (s *Session) Text(_ context.Context, selector string) (string, error) {
	s.record("text " + selector)

	text, ok := s.page.Texts[selector]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotFound, selector)
	}

	return text, nil
}

func (s *Session) Title(_ context.Context) (string, error) {
	s.record("title")
	return s.page.Title, nil
}

func (s *Session) Location(_ context.Context) (string, error) {
	s.record("location")

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.location, nil
}

func (s *Session) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true

	return nil
}

// Calls returns the recorded calls in order.
func (s *Session) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]string, len(s.calls))
	copy(out, s.calls)

	return out
}

// Closed reports whether Close was called.
func (s *Session) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// Compile-time interface compliance checks
var (
	_ flow.SessionFactory = (*Factory)(nil)
	_ flow.Session        = (*Session)(nil)
)
