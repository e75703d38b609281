package castore

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSerialProvider_Next(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.srl")
	p := NewSerialProvider(path)
	require.NoError(t, p.Seed())

	first, err := p.Next()
	require.NoError(t, err)
	second, err := p.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, second.Cmp(first), "serials must be strictly increasing")

	t.Run("token persists across provider instances", func(t *testing.T) {
		third, err := NewSerialProvider(path).Next()
		require.NoError(t, err)
		assert.Equal(t, 1, third.Cmp(second))
	})
	t.Run("token on disk advances with every call", func(t *testing.T) {
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		fourth, err := p.Next()
		require.NoError(t, err)
		assert.NotEqual(t, string(content), fourth.Text(16))
	})
}

func TestSerialProvider_SeedRandomness(t *testing.T) {
	dir := t.TempDir()
	a := NewSerialProvider(filepath.Join(dir, "a.srl"))
	b := NewSerialProvider(filepath.Join(dir, "b.srl"))
	require.NoError(t, a.Seed())
	require.NoError(t, b.Seed())
	aTok, err := os.ReadFile(filepath.Join(dir, "a.srl"))
	require.NoError(t, err)
	bTok, err := os.ReadFile(filepath.Join(dir, "b.srl"))
	require.NoError(t, err)
	assert.NotEqual(t, string(aTok), string(bTok))
}

func TestSerialProvider_BadToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.srl")
	require.NoError(t, os.WriteFile(path, []byte("not-hex!"), 0644))
	_, err := NewSerialProvider(path).Next()
	assert.Error(t, err)
}
