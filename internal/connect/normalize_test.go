package connect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type carrierFunc func() any

func (f carrierFunc) NativeEventData() any { return f() }

func TestNormalize(t *testing.T) {
	payload := "SUCCESS:abc"
	var nilWebView *WebViewEvent
	var nilMessage *MessageEvent
	var nilString *string

	tests := []struct {
		name   string
		raw    any
		want   string
		wantOK bool
	}{
		{
			name:   "plain string",
			raw:    "ERROR:503",
			want:   "ERROR:503",
			wantOK: true,
		},
		{
			name:   "empty string",
			raw:    "",
			want:   "",
			wantOK: true,
		},
		{
			name:   "native event map",
			raw:    map[string]any{"nativeEvent": map[string]any{"data": "ABANDONED"}},
			want:   "ABANDONED",
			wantOK: true,
		},
		{
			name:   "native event wins over data",
			raw:    map[string]any{"nativeEvent": map[string]any{"data": "first"}, "data": "second"},
			want:   "first",
			wantOK: true,
		},
		{
			name:   "non string native data falls through to data",
			raw:    map[string]any{"nativeEvent": map[string]any{"data": 42}, "data": "second"},
			want:   "second",
			wantOK: true,
		},
		{
			name:   "native event not an object",
			raw:    map[string]any{"nativeEvent": "SUCCESS:x"},
			wantOK: false,
		},
		{
			name:   "top level data",
			raw:    map[string]any{"data": "hello"},
			want:   "hello",
			wantOK: true,
		},
		{
			name:   "top level data not a string",
			raw:    map[string]any{"data": map[string]any{"type": "cookie"}},
			wantOK: false,
		},
		{
			name:   "string map data",
			raw:    map[string]string{"data": "hello"},
			want:   "hello",
			wantOK: true,
		},
		{
			name:   "web view event struct",
			raw:    WebViewEvent{NativeEvent: NativeEvent{Data: payload}},
			want:   payload,
			wantOK: true,
		},
		{
			name:   "web view event pointer",
			raw:    &WebViewEvent{NativeEvent: NativeEvent{Data: &payload}},
			want:   payload,
			wantOK: true,
		},
		{
			name:   "nil web view event pointer",
			raw:    nilWebView,
			wantOK: false,
		},
		{
			name:   "message event struct",
			raw:    MessageEvent{Data: "ABANDONED"},
			want:   "ABANDONED",
			wantOK: true,
		},
		{
			name:   "nil message event pointer",
			raw:    nilMessage,
			wantOK: false,
		},
		{
			name:   "nil string pointer",
			raw:    nilString,
			wantOK: false,
		},
		{
			name:   "panicking carrier falls through",
			raw:    carrierFunc(func() any { panic("boom") }),
			wantOK: false,
		},
		{name: "nil", raw: nil, wantOK: false},
		{name: "number", raw: 503, wantOK: false},
		{name: "bytes", raw: []byte("SUCCESS:x"), wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeEnvelope(t *testing.T) {
	t.Run("native event object", func(t *testing.T) {
		raw, err := DecodeEnvelope([]byte(`{"nativeEvent":{"data":"SUCCESS: abc123 "}}`))
		require.NoError(t, err)

		payload, ok := Normalize(raw)
		require.True(t, ok)
		assert.Equal(t, "SUCCESS: abc123 ", payload)
	})

	t.Run("json string", func(t *testing.T) {
		raw, err := DecodeEnvelope([]byte(`"ABANDONED"`))
		require.NoError(t, err)

		payload, ok := Normalize(raw)
		require.True(t, ok)
		assert.Equal(t, "ABANDONED", payload)
	})

	t.Run("json null", func(t *testing.T) {
		raw, err := DecodeEnvelope([]byte(`null`))
		require.NoError(t, err)

		_, ok := Normalize(raw)
		assert.False(t, ok)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := DecodeEnvelope([]byte(`{"nativeEvent":`))
		assert.Error(t, err)
	})
}
