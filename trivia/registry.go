/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package trivia

import (
	"context"
	"crypto/rand"
	"math/big"
	"strings"
	"sync"
	"time"
)

const (
	codeLength   = 6
	codeAttempts = 1000
)

// Registry owns the mapping from game code to Session.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	newCode func() (string, error)
	now     func() time.Time
}

type RegistryOption func(*Registry)

// WithCodeSource overrides the game code generator.
func WithCodeSource(fn func() (string, error)) RegistryOption {
	return func(r *Registry) {
		r.newCode = fn
	}
}

// WithClock overrides the time source used for scoring and idle tracking.
func WithClock(fn func() time.Time) RegistryOption {
	return func(r *Registry) {
		r.now = fn
	}
}

func NewRegistry(opts ...RegistryOption) *Registry {
	r := &Registry{
		sessions: make(map[string]*Session),
		newCode:  randomCode,
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// randomCode returns a uniformly random 6-digit numeric string.
func randomCode() (string, error) {
	var b strings.Builder
	b.Grow(codeLength)

	ten := big.NewInt(10)
	for range codeLength {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", err
		}
		b.WriteByte(byte('0' + n.Int64()))
	}

	return b.String(), nil
}

// Create registers a new waiting session with host as its first player.
// The code is checked and claimed under the same lock.
func (r *Registry) Create(hostName string, host ConnID) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for range codeAttempts {
		code, err := r.newCode()
		if err != nil {
			return nil, err
		}

		if _, exists := r.sessions[code]; exists {
			continue
		}

		s := newSession(code, hostName, host, r.now)
		r.sessions[code] = s

		return s, nil
	}

	return nil, failf(ErrCodeSpace, "Unable to create a game right now")
}

func (r *Registry) Lookup(code string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[code]
	if !ok {
		return nil, failf(ErrNotFound, "Game not found")
	}

	return s, nil
}

func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sessions)
}

// Reap removes sessions idle for longer than idle that no connection is
// attached to, and returns their codes.
func (r *Registry) Reap(idle time.Duration, occupied func(code string) bool) []string {
	cutoff := r.now().Add(-idle)

	r.mu.Lock()
	defer r.mu.Unlock()

	var reaped []string
	for code, s := range r.sessions {
		s.mu.Lock()
		last := s.lastActive
		s.mu.Unlock()

		if last.Before(cutoff) && !occupied(code) {
			delete(r.sessions, code)
			reaped = append(reaped, code)
		}
	}

	return reaped
}

// ReapLoop calls Reap every idle/2 until ctx is done.
func (r *Registry) ReapLoop(ctx context.Context, idle time.Duration, occupied func(code string) bool, logf func(string, ...any)) {
	ticker := time.NewTicker(idle / 2)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for _, code := range r.Reap(idle, occupied) {
				logf("GAMES: Reaped idle game %s", code)
			}
		}
	}
}
