package castore

import (
	"math/big"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndex_AppendAndRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.index")
	idx := NewIndex(path)

	expiry := time.Date(2027, 3, 14, 12, 0, 0, 0, time.UTC)
	require.NoError(t, idx.Append(NewIssuedRecord(expiry, big.NewInt(0x1a2b), "peer1.crt", "CN=peer1,O=peer1,C=XX")))
	require.NoError(t, idx.Append(NewIssuedRecord(expiry, big.NewInt(0x1a2c), "peer2.crt", "CN=peer2,O=peer2,C=XX")))

	records, err := idx.Records()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "1a2b", records[0].SerialHex())
	assert.Equal(t, "peer1.crt", records[0].FileName())
	assert.Equal(t, "CN=peer2,O=peer2,C=XX", records[1].DN())

	t.Run("lines carry the placeholder revocation column", func(t *testing.T) {
		content, err := os.ReadFile(path)
		require.NoError(t, err)
		lines := strings.Split(strings.TrimRight(string(content), "\n"), "\n")
		require.Len(t, lines, 2)
		fields := strings.Split(lines[0], "\t")
		require.Len(t, fields, 6)
		assert.Equal(t, "V", fields[0])
		assert.Equal(t, "", fields[2])
	})
}

func TestIndex_MissingFile(t *testing.T) {
	idx := NewIndex(filepath.Join(t.TempDir(), "ca.index"))
	records, err := idx.Records()
	require.NoError(t, err)
	assert.Empty(t, records)
}

func TestIndex_MalformedLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.index")
	require.NoError(t, os.WriteFile(path, []byte("just one field\n"), 0644))
	_, err := NewIndex(path).Records()
	assert.Error(t, err)
}
