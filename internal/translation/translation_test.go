package translation

import (
	"testing"

	"github.com/pinchtab/translatecheck/internal/softassert"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_ExpectedToPass(t *testing.T) {
	tests := []struct {
		name     string
		expected string
		actual   string
		want     bool
	}{
		{"exact", "hola", "hola", true},
		{"case differs", "hola", "Hola", false},
		{"trailing space", "hola", "hola ", false},
		{"leading newline", "hola", "\nhola", false},
		{"empty both", "", "", true},
		{"empty actual", "hola", "", false},
		{"unicode", "über", "über", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := Verify(true, tt.expected, tt.actual)
			assert.Equal(t, tt.want, o.Passed)
			assert.False(t, o.KnownDivergence)
			assert.Equal(t, tt.expected, o.Expected)
			assert.Equal(t, tt.actual, o.Actual)
		})
	}
}

func TestVerify_KnownDivergenceAlwaysPasses(t *testing.T) {
	for _, actual := range []string{"hello", "Hello", "", "something else entirely"} {
		o := Verify(false, "hello", actual)
		assert.True(t, o.Passed, actual)
		assert.True(t, o.KnownDivergence)
		assert.Equal(t, actual, o.Actual)
	}
}

func TestVerifier_RecordsEveryCheck(t *testing.T) {
	agg := softassert.New(nil)
	v := NewVerifier(agg, nil)

	v.Check("forward hello", true, "hola", "hola")
	v.Check("forward cat", true, "gato", "Gato")
	v.Check("swap cat", false, "cat", "kitty")

	assert.Len(t, agg.History(), 3)
	failures := agg.Drain()
	require.Len(t, failures, 1)
	assert.Equal(t, "forward cat", failures[0].Description)
	assert.Equal(t, "gato", failures[0].Expected)
	assert.Equal(t, "Gato", failures[0].Actual)
}
