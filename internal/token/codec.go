// Package token issues and syntactically checks candidate access tokens.
//
// A token is a literal namespace prefix followed by a fixed-length lowercase hex body.
// The body is an HMAC-SHA256 over fresh random bytes, so it carries no meaning and
// cannot be predicted from the candidate's email or the issue time.
package token

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
)

const (
	DefaultPrefix     = "sispac_"
	DefaultBodyLength = 32

	nonceSize = 32
)

type Codec struct {
	prefix  string
	bodyLen int
	key     []byte
	random  io.Reader
}

// NewCodec builds a codec. bodyLength must fit in a hex-encoded SHA-256 digest.
// An empty key is replaced by a random per-process key.
func NewCodec(prefix string, bodyLength int, key []byte) (*Codec, error) {
	if prefix == "" {
		return nil, errors.New("token prefix must not be empty")
	}
	if bodyLength <= 0 || bodyLength > hex.EncodedLen(sha256.Size) {
		return nil, errors.Newf("token body length %d out of range (1..%d)", bodyLength, hex.EncodedLen(sha256.Size))
	}
	if len(key) == 0 {
		key = make([]byte, sha256.Size)
		if _, err := io.ReadFull(rand.Reader, key); err != nil {
			return nil, errors.Wrap(err, "generate token key")
		}
	}
	return &Codec{prefix: prefix, bodyLen: bodyLength, key: key, random: rand.Reader}, nil
}

// Generate returns a fresh token for the candidate. Two calls never share a body
// except by chance collision of the truncated digest.
func (c *Codec) Generate(candidateID string) (string, error) {
	nonce := make([]byte, nonceSize)
	if _, err := io.ReadFull(c.random, nonce); err != nil {
		return "", errors.Wrap(err, "read token nonce")
	}

	mac := hmac.New(sha256.New, c.key)
	mac.Write(nonce)
	mac.Write([]byte(candidateID))
	body := hex.EncodeToString(mac.Sum(nil))[:c.bodyLen]

	return c.prefix + body, nil
}

// ValidFormat reports whether tok has the exact prefix, total length and lowercase hex body.
// It never touches storage.
func (c *Codec) ValidFormat(tok string) bool {
	if len(tok) != len(c.prefix)+c.bodyLen || !strings.HasPrefix(tok, c.prefix) {
		return false
	}
	for i := len(c.prefix); i < len(tok); i++ {
		b := tok[i]
		if (b < '0' || b > '9') && (b < 'a' || b > 'f') {
			return false
		}
	}
	return true
}

func (c *Codec) Prefix() string { return c.prefix }

// Redact shortens a token for log output.
func Redact(tok string) string {
	if len(tok) > 8 {
		return tok[:8] + "..."
	}
	return tok
}
