package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dukerupert/taxsim/internal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateKey(t *testing.T) {
	tests := []struct {
		key   string
		valid bool
	}{
		{"invoice-1-1700000000000.pdf", true},
		{"2025/invoice-1.pdf", true},
		{"", false},
		{"../secrets.env", false},
		{"a/../../etc/passwd", false},
		{"/etc/passwd", false},
		{"./invoice.pdf", false},
		{"a//b.pdf", false},
		{"..\\windows.ini", false},
		{"bad\x00name.pdf", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			err := ValidateKey(tt.key)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestLocalStorage_RoundTrip(t *testing.T) {
	ctx := context.Background()
	s, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, s.Put(ctx, "invoice-1.pdf", strings.NewReader("%PDF-1.3"), "application/pdf"))

	ok, err := s.Exists(ctx, "invoice-1.pdf")
	require.NoError(t, err)
	assert.True(t, ok)

	rc, err := s.Get(ctx, "invoice-1.pdf")
	require.NoError(t, err)
	data, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "%PDF-1.3", string(data))

	require.NoError(t, s.Delete(ctx, "invoice-1.pdf"))
	require.NoError(t, s.Delete(ctx, "invoice-1.pdf"), "delete is idempotent")

	_, err = s.Get(ctx, "invoice-1.pdf")
	assert.True(t, IsNotFound(err))
}

func TestLocalStorage_RejectsEscapes(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	outside := filepath.Join(filepath.Dir(root), "outside.txt")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o600))
	t.Cleanup(func() { os.Remove(outside) })

	s, err := NewLocalStorage(root)
	require.NoError(t, err)

	_, err = s.Get(ctx, "../outside.txt")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))

	var se *StorageError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, codeInvalid, se.ErrorCode())

	assert.Error(t, s.Put(ctx, "../x.pdf", strings.NewReader("x"), "application/pdf"))
}

func TestMemoryStorage(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStorage()

	require.NoError(t, s.Put(ctx, "a.pdf", strings.NewReader("data"), "application/pdf"))
	assert.Equal(t, "application/pdf", s.ContentType("a.pdf"))
	assert.Equal(t, 1, s.Len())

	_, err := s.Get(ctx, "missing.pdf")
	assert.True(t, IsNotFound(err))
}

func TestNewStorage_UnknownProvider(t *testing.T) {
	_, err := NewStorage(context.Background(), internal.StorageConfig{Provider: "ftp"})
	assert.Error(t, err)
}

func TestNewStorage_R2RequiresAccount(t *testing.T) {
	_, err := NewStorage(context.Background(), internal.StorageConfig{Provider: "r2"})
	assert.Equal(t, ErrR2AccountIDRequired, err)
}
