// Package id generates the prefixed ULIDs used across the server.
//
// Every id is "<prefix>_<ulid>", so ids sort by creation time and the
// prefix tells a session apart from a request or a broadcast event in logs.
package id

import (
	"crypto/rand"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies one portal render
type SessionID string

// RequestID identifies an API request
type RequestID string

// EventID identifies an event pushed to stream subscribers
type EventID string

const (
	SessionPrefix = "sess"
	RequestPrefix = "req"
	EventPrefix   = "evt"
)

// Generator generates ULIDs with optional prefixes
type Generator struct {
	entropy   io.Reader
	entropyMu sync.Mutex
}

var (
	defaultGenerator *Generator
	once             sync.Once
)

// Default returns the shared generator
func Default() *Generator {
	once.Do(func() {
		defaultGenerator = NewGenerator()
	})
	return defaultGenerator
}

// NewGenerator creates a generator that stays monotonic within a millisecond
func NewGenerator() *Generator {
	return &Generator{
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
}

// NewGeneratorWithEntropy creates a generator with a custom entropy source.
// Useful for deterministic tests.
func NewGeneratorWithEntropy(entropy io.Reader) *Generator {
	return &Generator{entropy: entropy}
}

// Generate creates a new ULID
func (g *Generator) Generate() ulid.ULID {
	g.entropyMu.Lock()
	defer g.entropyMu.Unlock()

	return ulid.MustNew(ulid.Timestamp(time.Now()), g.entropy)
}

// GenerateWithPrefix creates a prefixed ULID string
func (g *Generator) GenerateWithPrefix(prefix string) string {
	return fmt.Sprintf("%s_%s", prefix, g.Generate().String())
}

// NewSessionID generates a new session ID
func NewSessionID() SessionID {
	return SessionID(Default().GenerateWithPrefix(SessionPrefix))
}

// NewRequestID generates a new request ID
func NewRequestID() RequestID {
	return RequestID(Default().GenerateWithPrefix(RequestPrefix))
}

// NewEventID generates a new event ID
func NewEventID() EventID {
	return EventID(Default().GenerateWithPrefix(EventPrefix))
}

func (id SessionID) String() string { return string(id) }
func (id RequestID) String() string { return string(id) }
func (id EventID) String() string   { return string(id) }

// Split separates a prefixed id into its prefix and ULID
func Split(id string) (string, ulid.ULID, error) {
	prefix, raw, found := strings.Cut(id, "_")
	if !found {
		return "", ulid.ULID{}, fmt.Errorf("id %q has no prefix", id)
	}
	parsed, err := ulid.Parse(raw)
	if err != nil {
		return "", ulid.ULID{}, fmt.Errorf("id %q: %w", id, err)
	}
	return prefix, parsed, nil
}

// IsValid reports whether id is a well formed prefixed ULID
func IsValid(id string) bool {
	_, _, err := Split(id)
	return err == nil
}

// Timestamp extracts the creation time of a prefixed id
func Timestamp(id string) (time.Time, error) {
	_, parsed, err := Split(id)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(parsed.Time()), nil
}
