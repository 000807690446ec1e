package extensions

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteLength(t *testing.T) {
	tests := []struct {
		name string
		data string
		want int64
	}{
		{"empty", "", 0},
		{"complete", "a\nb\n", 4},
		{"torn", "a\nbc", 2},
		{"no newline", "abc", 0},
		{"long torn tail", "x\n" + strings.Repeat("y", 200*1024), 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := CompleteLength(strings.NewReader(tt.data), int64(len(tt.data)))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
