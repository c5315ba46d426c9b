package id

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateIsMonotonic(t *testing.T) {
	gen := NewGenerator()

	prev := gen.Generate()
	for i := 0; i < 1000; i++ {
		next := gen.Generate()
		require.Equal(t, 1, next.Compare(prev), "ids must sort in creation order")
		prev = next
	}
}

func TestTypedIDGeneration(t *testing.T) {
	tests := []struct {
		name   string
		id     string
		prefix string
	}{
		{name: "session", id: NewSessionID().String(), prefix: SessionPrefix},
		{name: "request", id: NewRequestID().String(), prefix: RequestPrefix},
		{name: "event", id: NewEventID().String(), prefix: EventPrefix},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, strings.HasPrefix(tt.id, tt.prefix+"_"))
			assert.Len(t, tt.id, len(tt.prefix)+1+26)

			prefix, _, err := Split(tt.id)
			require.NoError(t, err)
			assert.Equal(t, tt.prefix, prefix)
		})
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{name: "prefixed", id: Default().GenerateWithPrefix("evt"), want: true},
		{name: "bare ulid", id: Default().Generate().String(), want: false},
		{name: "bad ulid", id: "evt_not-a-ulid", want: false},
		{name: "empty", id: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValid(tt.id))
		})
	}
}

func TestTimestamp(t *testing.T) {
	before := time.Now().Add(-time.Second)
	sess := NewSessionID()

	ts, err := Timestamp(sess.String())
	require.NoError(t, err)
	assert.True(t, ts.After(before))
	assert.True(t, ts.Before(time.Now().Add(time.Second)))

	_, err = Timestamp("garbage")
	assert.Error(t, err)
}

func TestConcurrentGeneration(t *testing.T) {
	const workers, perWorker = 8, 200

	var (
		mu   sync.Mutex
		seen = make(map[EventID]struct{}, workers*perWorker)
		wg   sync.WaitGroup
	)

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < perWorker; i++ {
				evt := NewEventID()
				mu.Lock()
				seen[evt] = struct{}{}
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Len(t, seen, workers*perWorker)
}
