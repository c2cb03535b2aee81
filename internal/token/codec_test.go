package token

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var wireFormat = regexp.MustCompile(`^sispac_[0-9a-f]{32}$`)

func newTestCodec(t *testing.T) *Codec {
	t.Helper()
	c, err := NewCodec(DefaultPrefix, DefaultBodyLength, []byte("test-secret"))
	require.NoError(t, err)
	return c
}

func TestGenerate(t *testing.T) {
	c := newTestCodec(t)

	t.Run("matches wire format", func(t *testing.T) {
		tok, err := c.Generate("candidate-1")
		require.NoError(t, err)
		assert.Regexp(t, wireFormat, tok)
		assert.True(t, c.ValidFormat(tok))
	})

	t.Run("fresh body on every call", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 200; i++ {
			tok, err := c.Generate("candidate-1")
			require.NoError(t, err)
			assert.False(t, seen[tok], "duplicate token %s", tok)
			seen[tok] = true
		}
	})
}

func TestValidFormat(t *testing.T) {
	c := newTestCodec(t)
	body := strings.Repeat("a1", 16)

	cases := []struct {
		name  string
		token string
		want  bool
	}{
		{"valid", "sispac_" + body, true},
		{"empty", "", false},
		{"wrong prefix", "sispak_" + body, false},
		{"uppercase hex", "sispac_" + strings.ToUpper(body), false},
		{"non hex", "sispac_" + strings.Repeat("zz", 16), false},
		{"too short", "sispac_" + body[:31], false},
		{"too long", "sispac_" + body + "0", false},
		{"prefix only", "sispac_", false},
		{"legacy test token", "test-token-123", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, c.ValidFormat(tc.token))
		})
	}
}

func TestNewCodecRejectsBadConfig(t *testing.T) {
	_, err := NewCodec("", 32, nil)
	assert.Error(t, err)

	_, err = NewCodec("x_", 0, nil)
	assert.Error(t, err)

	_, err = NewCodec("x_", 65, nil)
	assert.Error(t, err)

	c, err := NewCodec("x_", 64, nil)
	require.NoError(t, err)
	tok, err := c.Generate("id")
	require.NoError(t, err)
	assert.Len(t, tok, 66)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "sispac_a...", Redact("sispac_a1a1a1"))
	assert.Equal(t, "short", Redact("short"))
}
