package filehash

import (
	"bytes"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSumReaderDeterministic(t *testing.T) {
	content := []byte("Name,Email,Age\nAlice,alice@example.com,30\n")

	first, err := SumReader(bytes.NewReader(content))
	require.NoError(t, err)

	second, err := SumReader(bytes.NewReader(content))
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, first, 64) // hex-encoded SHA-256

	want := sha256.Sum256(content)
	assert.Equal(t, hex.EncodeToString(want[:]), first)
}

func TestSumReaderRestoresPosition(t *testing.T) {
	content := make([]byte, chunkSize*3+17) // spans multiple chunks
	_, err := rand.Read(content)
	require.NoError(t, err)

	r := bytes.NewReader(content)
	_, err = SumReader(r)
	require.NoError(t, err)

	pos, err := r.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	assert.Equal(t, int64(0), pos)

	// The full content must still be readable after hashing.
	again, err := io.ReadAll(r)
	require.NoError(t, err)
	assert.Equal(t, content, again)
}

func TestSumReaderEmpty(t *testing.T) {
	sum, err := SumReader(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Equal(t, "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855", sum)
}
