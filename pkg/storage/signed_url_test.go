package storage

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDownloadSignerRoundTrip(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)

	token, expiresAt, err := signer.Sign("2026-03-10/feedback-analytics.csv")
	require.NoError(t, err)
	require.NotEmpty(t, token)
	require.WithinDuration(t, time.Now().Add(time.Hour), expiresAt, time.Second)

	relPath, err := signer.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "2026-03-10/feedback-analytics.csv", relPath)
}

func TestDownloadSignerRejectsTampering(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	token, _, err := signer.Sign("2026-03-10/report.csv")
	require.NoError(t, err)

	parts := strings.Split(token, ".")
	require.Len(t, parts, 3)
	forged := "Li4vc2VjcmV0" + "." + parts[1] + "." + parts[2]

	_, err = signer.Verify(forged)
	require.ErrorContains(t, err, "signature mismatch")

	_, err = signer.Verify("not-a-token")
	require.ErrorContains(t, err, "malformed")
}

func TestDownloadSignerExpired(t *testing.T) {
	signer := NewDownloadSigner("secret", time.Hour)
	token, _, err := signer.Sign("2026-03-10/report.pdf")
	require.NoError(t, err)

	signer.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = signer.Verify(token)
	require.ErrorContains(t, err, "expired")
}

func TestArchiveStoreAndRead(t *testing.T) {
	archive, err := NewArchive(t.TempDir())
	require.NoError(t, err)
	archive.now = func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) }

	rel, err := archive.Store("feedback-analytics.csv", []byte("Professor,Email\n"))
	require.NoError(t, err)
	require.Equal(t, "2026-03-10/feedback-analytics.csv", rel)

	payload, err := archive.Read(rel)
	require.NoError(t, err)
	require.Equal(t, "Professor,Email\n", string(payload))
}

func TestArchiveRejectsEscapingPaths(t *testing.T) {
	archive, err := NewArchive(t.TempDir())
	require.NoError(t, err)

	_, err = archive.Read("../outside.csv")
	require.Error(t, err)
	_, err = archive.Read("/etc/passwd")
	require.Error(t, err)
}

func TestArchivePrune(t *testing.T) {
	archive, err := NewArchive(t.TempDir())
	require.NoError(t, err)

	rel, err := archive.Store("old.csv", []byte("stale"))
	require.NoError(t, err)

	removed, err := archive.Prune(-time.Minute)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = archive.Read(rel)
	require.Error(t, err)
}
