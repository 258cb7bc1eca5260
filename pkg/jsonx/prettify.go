package jsonx

import "github.com/goccy/go-json"

// Prettify re-indents a JSON document for log output. It is fail-open:
// anything that does not parse as JSON is returned unchanged, so callers
// can feed it raw wire payloads without guarding it.
func Prettify(raw string) string {
	var obj any
	if err := json.Unmarshal([]byte(raw), &obj); err != nil {
		return raw
	}
	b, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return raw
	}
	return string(b)
}
