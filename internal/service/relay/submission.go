package relay

import (
	"errors"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrMalformedSubmission is returned for payloads without a string text field.
	ErrMalformedSubmission = errors.New("malformed submission")
	// ErrNotConnected is returned when a session submits after it left.
	ErrNotConnected = errors.New("session not connected")
)

// ParseSubmission extracts the text of a {"text": string} payload. Extra
// fields are ignored and a repeated "text" key resolves to its last value,
// as encoding/json does. Invalid UTF-8 is replaced with U+FFFD so the stored
// text matches what gets encoded. The text length is not limited here.
func ParseSubmission(raw []byte) (string, error) {
	if len(raw) == 0 || !gjson.ValidBytes(raw) {
		return "", ErrMalformedSubmission
	}
	root := gjson.ParseBytes(raw)
	if !root.IsObject() {
		return "", ErrMalformedSubmission
	}

	var text gjson.Result
	root.ForEach(func(key, value gjson.Result) bool {
		if key.String() == "text" {
			text = value
		}
		return true
	})
	if text.Type != gjson.String {
		return "", ErrMalformedSubmission
	}
	return strings.ToValidUTF8(text.String(), "\uFFFD"), nil
}
