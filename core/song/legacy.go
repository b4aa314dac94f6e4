package song

import (
	"bytes"
	"encoding/json"

	"github.com/FocuswithJustin/JuniperSongs/core/errors"
)

// legacyVerse is an element of the array-wrapped lyrics some older clients send in place
// of a string: [{"order":1,"content":"<verse ...>","label":null}].
type legacyVerse struct {
	Order   int             `json:"order"`
	Content json.RawMessage `json:"content"`
	Label   *string         `json:"label"`
}

// DecodeLyrics reads a lyrics payload that is either a JSON string or an array-wrapped
// legacy encoding. For the array form the first element's content string is unwrapped;
// an element without one, or any other JSON shape, decodes to empty lyrics.
func DecodeLyrics(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", &errors.ParseError{Format: "lyrics", Message: err.Error(), Err: err}
		}
		return s, nil
	case '[':
		var wrapped []json.RawMessage
		if err := json.Unmarshal(raw, &wrapped); err != nil {
			return "", &errors.ParseError{Format: "legacy lyrics", Message: err.Error(), Err: err}
		}
		if len(wrapped) == 0 {
			return "", nil
		}
		var first legacyVerse
		if err := json.Unmarshal(wrapped[0], &first); err != nil {
			return "", nil
		}
		var inner string
		if err := json.Unmarshal(first.Content, &inner); err != nil {
			return "", nil
		}
		return inner, nil
	default:
		return "", nil
	}
}
