package connect

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifySuccess(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantID  string
	}{
		{name: "plain id", payload: "SUCCESS:abc123", wantID: "abc123"},
		{name: "surrounding whitespace", payload: "SUCCESS: abc123 ", wantID: "abc123"},
		{name: "tabs and newlines", payload: "SUCCESS:\tauth-1\n", wantID: "auth-1"},
		{name: "empty id", payload: "SUCCESS:", wantID: ""},
		{name: "id containing prefix text", payload: "SUCCESS:ERROR:1", wantID: "ERROR:1"},
		{name: "inner whitespace kept", payload: "SUCCESS: a b ", wantID: "a b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := Classify(tt.payload)
			require.True(t, ok)

			success, isSuccess := ev.(SuccessEvent)
			require.True(t, isSuccess, "expected SuccessEvent, got %T", ev)
			assert.Equal(t, tt.wantID, success.AuthorizationID)
			assert.Equal(t, KindSuccess, success.Type)
			assert.Equal(t, "SUCCESS", success.Status)
		})
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name       string
		payload    string
		wantCode   int
		wantDetail string
	}{
		{name: "numeric code", payload: "ERROR:503", wantCode: 503, wantDetail: "Error with status code: 503"},
		{name: "padded code", payload: "ERROR: 401 ", wantCode: 401, wantDetail: "Error with status code: 401"},
		{name: "negative code", payload: "ERROR:-1", wantCode: -1, wantDetail: "Error with status code: -1"},
		{name: "zero code", payload: "ERROR:0", wantCode: 0, wantDetail: "Error with status code: 0"},
		{name: "non numeric", payload: "ERROR:abc", wantCode: 400, wantDetail: "Error with status code: abc"},
		{name: "trailing garbage", payload: "ERROR:503abc", wantCode: 503, wantDetail: "Error with status code: 503abc"},
		{name: "code with reason", payload: "ERROR:503 Service Unavailable", wantCode: 503, wantDetail: "Error with status code: 503 Service Unavailable"},
		{name: "fractional code", payload: "ERROR:12.5", wantCode: 12, wantDetail: "Error with status code: 12.5"},
		{name: "explicit plus", payload: "ERROR:+404", wantCode: 404, wantDetail: "Error with status code: +404"},
		{name: "sign only", payload: "ERROR:-", wantCode: 400, wantDetail: "Error with status code: -"},
		{name: "empty code", payload: "ERROR:", wantCode: 400, wantDetail: "Error with status code: "},
		{name: "overflow", payload: "ERROR:99999999999999999999", wantCode: 400, wantDetail: "Error with status code: 99999999999999999999"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ev, ok := Classify(tt.payload)
			require.True(t, ok)

			errEv, isErr := ev.(ErrorEvent)
			require.True(t, isErr, "expected ErrorEvent, got %T", ev)
			assert.Equal(t, tt.wantCode, errEv.StatusCode)
			assert.Equal(t, tt.wantDetail, errEv.Detail)
			assert.Equal(t, "ERROR", errEv.Status)
		})
	}
}

func TestClassifyAbandoned(t *testing.T) {
	ev, ok := Classify("ABANDONED")
	require.True(t, ok)
	assert.Equal(t, NewAbandonedEvent(), ev)
	assert.Equal(t, "ABANDONED", ev.(AbandonedEvent).Value)
}

func TestClassifyIgnored(t *testing.T) {
	payloads := []string{
		"",
		"hello",
		`{"foo":1}`,
		"ABANDONED!",
		"abandoned",
		" ABANDONED",
		"ABANDONED ",
		"success:abc",
		"Error:500",
		" SUCCESS:abc",
		"SUCCESS",
		"ERROR",
	}

	for _, payload := range payloads {
		t.Run(payload, func(t *testing.T) {
			ev, ok := Classify(payload)
			assert.False(t, ok)
			assert.Nil(t, ev)
		})
	}
}

func TestParse(t *testing.T) {
	t.Run("native event with padded id", func(t *testing.T) {
		raw := map[string]any{
			"nativeEvent": map[string]any{"data": "SUCCESS: abc123 "},
		}
		ev, ok := Parse(raw)
		require.True(t, ok)
		assert.Equal(t, "abc123", ev.(SuccessEvent).AuthorizationID)
	})

	t.Run("plain string error", func(t *testing.T) {
		ev, ok := Parse("ERROR:503")
		require.True(t, ok)
		assert.Equal(t, 503, ev.(ErrorEvent).StatusCode)
	})

	t.Run("unrecognized shape", func(t *testing.T) {
		for _, raw := range []any{nil, 42, 3.14, true, []string{"SUCCESS:x"}} {
			ev, ok := Parse(raw)
			assert.False(t, ok, "raw=%v", raw)
			assert.Nil(t, ev)
		}
	})
}
