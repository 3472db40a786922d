package videos

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"io"
)

// shareTokenBytes is the entropy drawn for each share token.
const shareTokenBytes = 32

func newShareToken(random io.Reader) (string, error) {
	if random == nil {
		random = rand.Reader
	}
	buf := make([]byte, shareTokenBytes)
	if _, err := io.ReadFull(random, buf); err != nil {
		return "", fmt.Errorf("generate share token: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
