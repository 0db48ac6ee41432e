package services

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

const shareTokenBytes = 16

// ShareService issues share-link tokens for quotations. Tokens are random,
// generated once per quotation and never rotated; there is no time-based
// expiry, only an existence check at lookup.
type ShareService struct {
	baseURL string
}

func NewShareService(baseURL string) *ShareService {
	return &ShareService{baseURL: baseURL}
}

// Generate returns a fresh token (32 hex characters) and the public URL it
// is served under.
func (s *ShareService) Generate() (token, url string, err error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", "", fmt.Errorf("generate share token: %w", err)
	}

	token = hex.EncodeToString(buf)
	return token, fmt.Sprintf("%s/q/%s", s.baseURL, token), nil
}
