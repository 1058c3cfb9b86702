package httpx

import (
	"bytes"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testExpectEOB(readRets ...interface{}) bool {
	bb := readRets[0].([]byte)
	if bb != nil {
		return false
	}
	err, _ := readRets[1].(error)
	return err == EOB
}

// failingReader returns data and then err.
type failingReader struct {
	data string
	err  error
}

func (r *failingReader) Read(p []byte) (int, error) {
	if r.data == "" {
		return 0, r.err
	}
	n := copy(p, r.data)
	r.data = r.data[n:]
	return n, nil
}

func TestContentLengthBasicUsage(t *testing.T) {
	r := NewContentLengthReader(strings.NewReader("root:x:0:0"), 4)

	// first Read() call returns available data and err == nil
	bb, err := r.Read()
	assert.NoError(t, err)
	assert.Equal(t, "root", string(bb))

	// Content-Length(4) has been read, the rest stays in the source
	assert.True(t, testExpectEOB(r.Read()), "expected EOB, but not.")
}

func TestContentLengthZero(t *testing.T) {
	r := NewContentLengthReader(strings.NewReader("ignored"), 0)
	assert.True(t, testExpectEOB(r.Read()))
}

func TestContentLengthBlocks(t *testing.T) {
	src := strings.Repeat("A", DefaultBodyBlockSize) + "B"
	r := NewContentLengthReader(strings.NewReader(src+"rest"), uint64(len(src)))

	d, err := DrainBody(NewStreamBody(r), 0)
	require.NoError(t, err)
	assert.Equal(t, src, string(d.Bytes()))
}

func TestContentLengthIncomplete(t *testing.T) {
	r := NewContentLengthReader(strings.NewReader("abc"), 10)

	bb, err := r.Read()
	assert.NoError(t, err)
	assert.Equal(t, "abc", string(bb))

	bb, err = r.Read()
	assert.Nil(t, bb)
	assert.Equal(t, IncompleteEOB, err)

	// sticky
	_, err = r.Read()
	assert.Equal(t, IncompleteEOB, err)
}

func TestContentLengthReadError(t *testing.T) {
	cause := errors.New("connection reset")
	r := NewContentLengthReader(&failingReader{data: "ab", err: cause}, 10)

	bb, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, "ab", string(bb))

	_, err = r.Read()
	assert.Equal(t, cause, err)
}

func TestClosingBasicUsage(t *testing.T) {
	r := NewClosingReader(strings.NewReader("nameserver 127.0.0.53\n"))

	// first Read() returns the data with err == nil, the next one EOB
	bb, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, "nameserver 127.0.0.53\n", string(bb))

	assert.True(t, testExpectEOB(r.Read()), "expected EOB, but not.")
}

func TestClosingNoRead(t *testing.T) {
	r := NewClosingReader(&bytes.Buffer{})
	assert.True(t, testExpectEOB(r.Read()), "expected EOB, but not.")
}

func TestClosingBlockBoundary(t *testing.T) {
	full := strings.Repeat("A", DefaultBodyBlockSize)

	r := NewClosingReader(bytes.NewBufferString(full))
	bb, err := r.Read()
	require.NoError(t, err)
	assert.Equal(t, full, string(bb))
	assert.True(t, testExpectEOB(r.Read()), "expected EOB, but not.")

	r = NewClosingReader(bytes.NewBufferString(full + "B"))
	bb, err = r.Read()
	require.NoError(t, err)
	assert.Equal(t, full, string(bb))

	bb, err = r.Read()
	require.NoError(t, err)
	assert.Equal(t, "B", string(bb))
	assert.True(t, testExpectEOB(r.Read()), "expected EOB, but not.")
}
