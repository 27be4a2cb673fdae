package relay

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSubmission(t *testing.T) {
	cases := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "plain", raw: `{"text":"hello"}`, want: "hello"},
		{name: "empty text", raw: `{"text":""}`, want: ""},
		{name: "extra fields", raw: `{"text":"hi","color":"red"}`, want: "hi"},
		{name: "escaped", raw: `{"text":"a\"bé"}`, want: "a\"bé"},
		{name: "missing", raw: `{}`, wantErr: true},
		{name: "number", raw: `{"text":42}`, wantErr: true},
		{name: "null", raw: `{"text":null}`, wantErr: true},
		{name: "array root", raw: `["text"]`, wantErr: true},
		{name: "invalid json", raw: `{"text":`, wantErr: true},
		{name: "empty", raw: ``, wantErr: true},
		{name: "last duplicate wins string", raw: `{"text":1,"text":"a"}`, want: "a"},
		{name: "last duplicate wins number", raw: `{"text":"a","text":1}`, wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseSubmission([]byte(tc.raw))
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrMalformedSubmission)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestParseSubmissionDuplicateKeysMatchEncodingJSON(t *testing.T) {
	raw := []byte(`{"text":"first","text":"second"}`)

	var decoded struct {
		Text string `json:"text"`
	}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	got, err := ParseSubmission(raw)
	require.NoError(t, err)
	assert.Equal(t, decoded.Text, got)
}

func TestParseSubmissionReplacesInvalidUTF8(t *testing.T) {
	raw := []byte("{\"text\":\"ok\xffdone\"}")

	got, err := ParseSubmission(raw)
	require.NoError(t, err)
	assert.Equal(t, "ok\uFFFDdone", got)

	encoded, err := json.Marshal(got)
	require.NoError(t, err)
	var back string
	require.NoError(t, json.Unmarshal(encoded, &back))
	assert.Equal(t, got, back)
}
