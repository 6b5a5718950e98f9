// Package notify is the fire-and-forget user-notification sink. The core
// reports outcomes here; presentation (toasts, banners) is someone else's job.
package notify

import (
	"log/slog"
	"sync"
)

// Notifier receives user-facing messages. Implementations must not block and
// have no return value the core consumes.
type Notifier interface {
	Info(msg string)
	Success(msg string)
	Warning(msg string)
	Error(msg string)
}

// Log is the default notifier, writing through the process slog logger.
type Log struct{}

// NewLog creates a slog-backed notifier.
func NewLog() *Log { return &Log{} }

func (Log) Info(msg string)    { slog.Info(msg, "channel", "notify") }
func (Log) Success(msg string) { slog.Info(msg, "channel", "notify", "kind", "success") }
func (Log) Warning(msg string) { slog.Warn(msg, "channel", "notify") }
func (Log) Error(msg string)   { slog.Error(msg, "channel", "notify") }

// Spy records notifications for assertions in tests.
type Spy struct {
	mu        sync.Mutex
	Infos     []string
	Successes []string
	Warnings  []string
	Errors    []string
}

// NewSpy creates an empty recording notifier.
func NewSpy() *Spy { return &Spy{} }

func (s *Spy) Info(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Infos = append(s.Infos, msg)
}

func (s *Spy) Success(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Successes = append(s.Successes, msg)
}

func (s *Spy) Warning(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Warnings = append(s.Warnings, msg)
}

func (s *Spy) Error(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Errors = append(s.Errors, msg)
}

// LastError returns the most recent error message, or "" when none was sent.
func (s *Spy) LastError() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.Errors) == 0 {
		return ""
	}
	return s.Errors[len(s.Errors)-1]
}
