package dedup

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnique(t *testing.T) {
	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{"example", []string{"A", "B", "A", "C", "B"}, []string{"A", "B", "C"}},
		{"empty", nil, []string{}},
		{"no duplicates", []string{"x", "y"}, []string{"x", "y"}},
		{"all same", []string{"z", "z", "z"}, []string{"z"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Unique(tt.in))
		})
	}
}

func TestUniqueProperties(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	for n := 0; n < 200; n++ {
		in := make([]int, r.Intn(50))
		for i := range in {
			in[i] = r.Intn(10)
		}
		out := Unique(in)

		seen := map[int]bool{}
		for _, v := range out {
			assert.False(t, seen[v], "repeated %d", v)
			seen[v] = true
		}
		inSet := map[int]bool{}
		for _, v := range in {
			inSet[v] = true
		}
		assert.Equal(t, inSet, seen)

		// 输出为输入的子序列
		j := 0
		for _, v := range in {
			if j < len(out) && out[j] == v {
				j++
			}
		}
		assert.Equal(t, len(out), j)
	}
}
