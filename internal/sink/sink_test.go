package sink

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStdoutWriteAccumulatesTotal(t *testing.T) {
	var buf bytes.Buffer
	s := NewStdout(&buf)

	n, err := s.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 5, n)
	assert.Equal(t, uint64(5), s.TotalBytesWritten())

	s.Write([]byte(" world"))
	assert.Equal(t, uint64(11), s.TotalBytesWritten())
	assert.Equal(t, "hello world", buf.String())
}

type shortWriter struct{ limit int }

func (s *shortWriter) Write(p []byte) (int, error) {
	if len(p) > s.limit {
		return s.limit, nil
	}
	return len(p), nil
}

func TestStdoutShortWriteIsNotAnError(t *testing.T) {
	s := NewStdout(&shortWriter{limit: 3})
	n, err := s.Write([]byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, 3, n, "the Writer stage, not Stdout.Write, decides what to do with a short count")
}

func TestFileWriteAndTotal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.bin")
	f, err := NewFile(path)
	require.NoError(t, err)
	defer f.Close()

	n, err := f.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.Equal(t, uint64(6), f.TotalBytesWritten())

	require.NoError(t, f.Close())
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abcdef", string(got))
}

func TestNewFileErrorsOnUnwritablePath(t *testing.T) {
	_, err := NewFile(filepath.Join(t.TempDir(), "nope", "out.bin"))
	assert.Error(t, err)
}
