package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/portalconnect/internal/connect"
)

func decodeRecords(t *testing.T, out string) []map[string]interface{} {
	t.Helper()
	var recs []map[string]interface{}
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if line == "" {
			continue
		}
		var rec map[string]interface{}
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		recs = append(recs, rec)
	}
	return recs
}

func TestReplay(t *testing.T) {
	input := strings.Join([]string{
		"SUCCESS:auth-1",
		`{"nativeEvent":{"data":"ERROR:404"}}`,
		"hello",
		`{"data":"ABANDONED"}`,
		`{not json`,
		`"SUCCESS:quoted"`,
	}, "\n")

	counts := tally{}
	handler := connect.NewHandler(nil, connect.WithObserver(counts))

	var out bytes.Buffer
	require.NoError(t, replay(strings.NewReader(input), &out, handler, false))

	recs := decodeRecords(t, out.String())
	require.Len(t, recs, 6)

	assert.Equal(t, "SUCCESS", recs[0]["outcome"])
	assert.Equal(t, "auth-1", recs[0]["event"].(map[string]interface{})["authorizationId"])

	assert.Equal(t, "ERROR", recs[1]["outcome"])
	assert.EqualValues(t, 404, recs[1]["event"].(map[string]interface{})["statusCode"])
	assert.Equal(t, "Error with status code: 404", recs[1]["event"].(map[string]interface{})["detail"])

	assert.Equal(t, "none", recs[2]["outcome"])
	assert.NotContains(t, recs[2], "event")

	assert.Equal(t, "ABANDONED", recs[3]["outcome"])

	assert.Equal(t, "none", recs[4]["outcome"])
	assert.NotEmpty(t, recs[4]["error"])

	assert.Equal(t, "SUCCESS", recs[5]["outcome"])
	assert.EqualValues(t, 6, recs[5]["line"])

	// The malformed line never reaches the handler
	assert.Equal(t, tally{"SUCCESS": 2, "ERROR": 1, "ABANDONED": 1, "none": 1}, counts)
}

func TestReplayQuiet(t *testing.T) {
	input := "noise\nABANDONED\nmore noise\n"

	var out bytes.Buffer
	require.NoError(t, replay(strings.NewReader(input), &out, connect.NewHandler(nil), true))

	recs := decodeRecords(t, out.String())
	require.Len(t, recs, 1)
	assert.EqualValues(t, 2, recs[0]["line"])
	assert.Equal(t, "ABANDONED", recs[0]["outcome"])
}
