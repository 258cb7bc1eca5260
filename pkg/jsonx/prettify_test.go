package jsonx

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrettify(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			name: "object",
			in:   `{"id":1}`,
			want: "{\n  \"id\": 1\n}",
		},
		{
			name: "not json passes through",
			in:   "hello there",
			want: "hello there",
		},
		{
			name: "truncated json passes through",
			in:   `{"id":`,
			want: `{"id":`,
		},
		{
			name: "empty string passes through",
			in:   "",
			want: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Prettify(tt.in))
		})
	}
}

func TestToDynamicJSON(t *testing.T) {
	type payload struct {
		ID     int    `json:"id"`
		Method string `json:"method"`
	}

	m, err := ToDynamicJSON(payload{ID: 7, Method: "Debugger.resume"})
	require.NoError(t, err)
	assert.Equal(t, float64(7), m["id"])
	assert.Equal(t, "Debugger.resume", m["method"])

	_, err = ToDynamicJSON("just a string")
	assert.Error(t, err, "non-object values cannot become dynamic maps")
}
