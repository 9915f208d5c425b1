package app

import (
	"strings"
	"testing"

	"github.com/dkeye/Relay/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodeGenerator(t *testing.T) {
	gen, err := NewCodeGenerator(0)
	require.NoError(t, err)

	seen := make(map[domain.RoomCode]bool)
	for i := 0; i < 500; i++ {
		code := gen()
		require.Len(t, string(code), DefaultCodeLength)
		for _, c := range code {
			assert.True(t, strings.ContainsRune(CodeAlphabet, c), "unexpected %q in %s", c, code)
		}
		seen[code] = true
	}
	assert.Greater(t, len(seen), 490)

	long, err := NewCodeGenerator(10)
	require.NoError(t, err)
	assert.Len(t, string(long()), 10)
}

func TestPolicyByName(t *testing.T) {
	p, err := PolicyByName("kick")
	require.NoError(t, err)
	assert.Equal(t, KickMember, p.OnBackPressure("ABC123", sess("a")))

	p, err = PolicyByName("drop")
	require.NoError(t, err)
	assert.Equal(t, DropFrame, p.OnBackPressure("ABC123", sess("a")))

	p, err = PolicyByName("")
	require.NoError(t, err)
	assert.IsType(t, SimplePolicy{}, p)

	_, err = PolicyByName("ignore")
	assert.Error(t, err)
}
