package connect

import (
	"fmt"

	"github.com/bytedance/sonic"
)

// WebViewEvent is the envelope delivered by a native web view bridge.
type WebViewEvent struct {
	NativeEvent NativeEvent `json:"nativeEvent"`
}

// NativeEvent carries the posted payload.
type NativeEvent struct {
	Data any `json:"data"`
}

// MessageEvent is the envelope of a window message event.
type MessageEvent struct {
	Data any `json:"data"`
}

// NativeEventCarrier is implemented by envelopes exposing nativeEvent.data.
type NativeEventCarrier interface {
	NativeEventData() any
}

// DataCarrier is implemented by envelopes exposing a top-level data field.
type DataCarrier interface {
	MessageData() any
}

func (e WebViewEvent) NativeEventData() any { return e.NativeEvent.Data }
func (e MessageEvent) MessageData() any     { return e.Data }

// extractor tries one envelope shape. ok is false when the shape does not match.
type extractor func(raw any) (payload string, ok bool)

// extractors are tried in order; the first match wins.
var extractors = []extractor{
	fromNativeEvent,
	fromString,
	fromData,
}

// Normalize extracts the string payload from a raw message envelope.
// It reports false when no known shape yields a string.
func Normalize(raw any) (string, bool) {
	for _, extract := range extractors {
		if payload, ok := safeExtract(extract, raw); ok {
			return payload, true
		}
	}
	return "", false
}

// DecodeEnvelope decodes a JSON-encoded envelope into a value Normalize understands.
func DecodeEnvelope(data []byte) (any, error) {
	var raw any
	if err := sonic.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode envelope: %w", err)
	}
	return raw, nil
}

// safeExtract treats a panicking extractor as a non-match.
func safeExtract(extract extractor, raw any) (payload string, ok bool) {
	defer func() {
		if recover() != nil {
			payload, ok = "", false
		}
	}()
	return extract(raw)
}

func fromNativeEvent(raw any) (string, bool) {
	switch v := raw.(type) {
	case *WebViewEvent:
		if v == nil {
			return "", false
		}
		return asString(v.NativeEvent.Data)
	case NativeEventCarrier:
		return asString(v.NativeEventData())
	case map[string]any:
		nested, ok := v["nativeEvent"].(map[string]any)
		if !ok {
			return "", false
		}
		return asString(nested["data"])
	}
	return "", false
}

func fromString(raw any) (string, bool) {
	return asString(raw)
}

func fromData(raw any) (string, bool) {
	switch v := raw.(type) {
	case *MessageEvent:
		if v == nil {
			return "", false
		}
		return asString(v.Data)
	case DataCarrier:
		return asString(v.MessageData())
	case map[string]any:
		return asString(v["data"])
	case map[string]string:
		s, ok := v["data"]
		return s, ok
	}
	return "", false
}

func asString(v any) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case *string:
		if s == nil {
			return "", false
		}
		return *s, true
	}
	return "", false
}
