package cli

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// jsonToken matches object keys (with their colon), string values,
// literals and numbers.
var jsonToken = regexp.MustCompile(`("(\\u[a-zA-Z0-9]{4}|\\[^u]|[^\\"])*"(\s*:)?|\b(true|false|null)\b|-?\d+(?:\.\d*)?(?:[eE][+\-]?\d+)?)`)

func tokenColor(token string) string {
	switch {
	case strings.HasPrefix(token, `"`):
		return Green
	case token == "true", token == "false":
		return Yellow
	case token == "null":
		return Dim
	default:
		return Purple
	}
}

// HighlightJSON colours the tokens of a JSON document. It is used by the
// console log encoder for structured fields.
func HighlightJSON(s string) string {
	if disableColor {
		return s
	}
	return jsonToken.ReplaceAllStringFunc(s, func(token string) string {
		if key, ok := strings.CutSuffix(token, ":"); ok {
			return Blue + key + Reset + ":"
		}
		return tokenColor(token) + token + Reset
	})
}

// PrettyFormat renders v as indented, highlighted JSON. Strings and byte
// slices are assumed to already be JSON.
func PrettyFormat(v interface{}) string {
	var raw string
	switch t := v.(type) {
	case []byte:
		raw = string(t)
	case string:
		raw = t
	default:
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return fmt.Sprintf("%+v", v)
		}
		raw = string(b)
	}
	return HighlightJSON(raw)
}
