package tokens

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEstimator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"a", 1},
		{"abcd", 1},
		{"abcde", 2},
		{"twelve chars", 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Estimator{}.Measure(tt.text), tt.text)
	}
}

func TestWordTokenizer(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, WordTokenizer{}.Measure(""))
	assert.Equal(t, 0, WordTokenizer{}.Measure("   \n"))
	assert.Equal(t, 3, WordTokenizer{}.Measure("one  two\tthree"))
}

func TestNew_BuiltIns(t *testing.T) {
	t.Parallel()

	tok, err := New("estimate")
	require.NoError(t, err)
	assert.IsType(t, Estimator{}, tok)

	tok, err = New(" Words ")
	require.NoError(t, err)
	assert.IsType(t, WordTokenizer{}, tok)
}
