package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DownloadSigner mints and verifies the tokens embedded in export download
// links. A token carries the archived file path and an expiry, both covered by
// an HMAC so recipients cannot point it at other files.
type DownloadSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewDownloadSigner builds a signer. TTL falls back to 24h when unset.
func NewDownloadSigner(secret string, ttl time.Duration) *DownloadSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &DownloadSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Sign returns a download token for the archived file path.
func (s *DownloadSigner) Sign(relPath string) (token string, expiresAt time.Time, err error) {
	if relPath == "" {
		return "", time.Time{}, fmt.Errorf("archive path required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("download signing secret missing")
	}
	expiresAt = s.now().Add(s.ttl)
	encoded := base64.RawURLEncoding.EncodeToString([]byte(relPath))
	exp := strconv.FormatInt(expiresAt.Unix(), 10)
	token = encoded + "." + exp + "." + s.mac(encoded, exp)
	return token, expiresAt, nil
}

// Verify checks the token signature and expiry and returns the archived path.
func (s *DownloadSigner) Verify(token string) (string, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return "", fmt.Errorf("malformed download token")
	}
	encoded, exp, sig := parts[0], parts[1], parts[2]
	if !hmac.Equal([]byte(s.mac(encoded, exp)), []byte(sig)) {
		return "", fmt.Errorf("download token signature mismatch")
	}
	expUnix, err := strconv.ParseInt(exp, 10, 64)
	if err != nil {
		return "", fmt.Errorf("invalid download token expiry")
	}
	if s.now().After(time.Unix(expUnix, 0)) {
		return "", fmt.Errorf("download token expired")
	}
	relPath, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("decode download token path: %w", err)
	}
	return string(relPath), nil
}

func (s *DownloadSigner) mac(encoded, exp string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encoded + "|" + exp))
	return base64.RawURLEncoding.EncodeToString(mac.Sum(nil))
}
