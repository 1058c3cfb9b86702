package httpx

import (
	"runtime"
	"strings"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingReader yields blocks and counts how often it was read.
type countingReader struct {
	blocks []string
	reads  int
	err    error
}

func (r *countingReader) Read() ([]byte, error) {
	r.reads++
	if len(r.blocks) == 0 {
		if r.err != nil {
			return nil, r.err
		}
		return nil, EOB
	}

	b := r.blocks[0]
	r.blocks = r.blocks[1:]
	return []byte(b), nil
}

func newTestMessage(v HTTPVersion) *Message {
	return &Message{
		Version: v,
		Headers: NewHeaders(),
		Storage: NewStorage(),
	}
}

func TestBufferDrainsStreamOnce(t *testing.T) {
	m := newTestMessage(HTTP11)
	cr := &countingReader{blocks: []string{"hello, ", "world"}}
	m.Body = NewStreamBody(cr)

	b, err := m.Buffer()
	require.NoError(t, err)
	assert.Equal(t, "hello, world", string(b))
	assert.Equal(t, BufferedBody, m.Body.Kind())

	reads := cr.reads
	b, err = m.Buffer()
	require.NoError(t, err)
	assert.Equal(t, "hello, world", string(b))
	assert.Equal(t, reads, cr.reads)
}

func TestBufferKeepsBufferedBody(t *testing.T) {
	m := newTestMessage(HTTP11)
	d := NewDrain([]byte("abc"))
	m.Body = NewBufferedBody(d)

	b, err := m.Buffer()
	require.NoError(t, err)
	assert.Equal(t, "abc", string(b))

	got, ok := m.Body.Drain()
	require.True(t, ok)
	assert.Same(t, d, got)
}

func TestSetBufferRoundTrip(t *testing.T) {
	m := newTestMessage(HTTP11)
	cr := &countingReader{blocks: []string{"discarded"}}
	m.Body = NewStreamBody(cr)

	m.SetBuffer([]byte("new"))
	assert.Equal(t, 0, cr.reads)

	b, err := m.Buffer()
	require.NoError(t, err)
	assert.Equal(t, "new", string(b))
	assert.Equal(t, 0, cr.reads)
}

func TestBufferEmptyBody(t *testing.T) {
	var m Message

	b, err := m.Buffer()
	require.NoError(t, err)
	assert.Empty(t, b)
	assert.Equal(t, BufferedBody, m.Body.Kind())
}

func TestBufferPropagatesErrors(t *testing.T) {
	m := newTestMessage(HTTP11)
	cr := &countingReader{blocks: []string{"part"}, err: IncompleteEOB}
	m.Body = NewStreamBody(cr)

	_, err := m.Buffer()
	require.Error(t, err)
	assert.True(t, errors.Is(err, IncompleteEOB))
	assert.Equal(t, StreamBody, m.Body.Kind())
}

func TestBufferLimit(t *testing.T) {
	m := newTestMessage(HTTP11)
	m.BufferLimit = 4
	m.Body = NewStreamBody(&countingReader{blocks: []string{"abc", "de"}})

	_, err := m.Buffer()
	assert.True(t, errors.Is(err, ErrBodyTooLarge))
}

func TestContentType(t *testing.T) {
	m := newTestMessage(HTTP11)
	assert.Nil(t, m.ContentType())

	m.Headers.Set("content-type", "text/html; charset=UTF-8")
	mt := m.ContentType()
	require.NotNil(t, mt)
	assert.Equal(t, "text/html", mt.Essence())
	assert.Equal(t, "UTF-8", mt.Params["charset"])

	m.Headers.Set("Content-Type", "not a media type")
	assert.Nil(t, m.ContentType())

	mt, err := NewMediaType("application", "json", nil)
	require.NoError(t, err)
	require.NoError(t, m.SetContentType(mt))
	assert.Equal(t, []string{"application/json"}, m.Headers.Values("Content-Type"))

	// whatever SetContentType stores reads back
	mt.Params = map[string]string{"bad name": "x"}
	err = m.SetContentType(mt)
	assert.True(t, errors.Is(err, ErrMalformedMediaType), "got %v", err)
	assert.Equal(t, []string{"application/json"}, m.Headers.Values("Content-Type"))
	assert.Equal(t, "application/json", m.ContentType().Essence())

	require.NoError(t, m.SetContentType(nil))
	assert.False(t, m.Headers.Has("Content-Type"))
	assert.Nil(t, m.Headers.Values("Content-Type"))
}

func TestContentLength(t *testing.T) {
	cases := []struct {
		value string
		want  int64
		ok    bool
	}{
		{"42", 42, true},
		{"0", 0, true},
		{"abc", 0, false},
		{"-1", 0, false},
		{"", 0, false},
	}

	for _, c := range cases {
		t.Run(c.value, func(t *testing.T) {
			m := newTestMessage(HTTP11)
			m.Headers.Set("Content-Length", c.value)

			n, ok := m.ContentLength()
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.want, n)
		})
	}

	m := newTestMessage(HTTP11)
	_, ok := m.ContentLength()
	assert.False(t, ok)

	m.SetContentLength(1270)
	assert.Equal(t, []string{"1270"}, m.Headers.Values("content-length"))

	m.RemoveContentLength()
	assert.False(t, m.Headers.Has("Content-Length"))
}

func TestTransferEncoding(t *testing.T) {
	m := newTestMessage(HTTP11)
	assert.Empty(t, m.TransferEncoding())
	assert.False(t, m.IsChunkEncoded())

	m.SetTransferEncoding([]string{"Chunked, gzip"})
	assert.True(t, m.IsChunkEncoded())

	m.SetTransferEncoding([]string{"gzip"})
	assert.False(t, m.IsChunkEncoded())

	m.SetTransferEncoding([]string{"gzip", "CHUNKED"})
	assert.Equal(t, []string{"gzip", "CHUNKED"}, m.TransferEncoding())
	assert.True(t, m.IsChunkEncoded())

	m.SetTransferEncoding(nil)
	assert.False(t, m.Headers.Has("Transfer-Encoding"))
}

func TestIsKeepAlive(t *testing.T) {
	cases := []struct {
		name       string
		version    HTTPVersion
		connection []string
		want       bool
	}{
		{"1.0 keep-alive", HTTP10, []string{"Keep-Alive"}, true},
		{"1.0 none", HTTP10, nil, false},
		{"1.0 close", HTTP10, []string{"close"}, false},
		{"1.1 close", HTTP11, []string{"close"}, false},
		{"1.1 none", HTTP11, nil, true},
		{"1.1 keep-alive", HTTP11, []string{"keep-alive"}, true},
		{"1.1 close and upgrade", HTTP11, []string{"close", "Upgrade"}, true},
		{"1.1 close in every value", HTTP11, []string{"Close", "x, close"}, false},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := newTestMessage(c.version)
			m.SetConnection(c.connection)
			assert.Equal(t, c.want, m.IsKeepAlive())
		})
	}
}

func TestUpgrade(t *testing.T) {
	m := newTestMessage(HTTP11)
	assert.False(t, m.IsUpgrade())
	assert.Empty(t, m.Upgrade())

	m.SetConnection([]string{"keep-alive"})
	assert.False(t, m.IsUpgrade())

	m.SetConnection([]string{"Upgrade"})
	m.SetUpgrade([]string{"websocket"})
	assert.True(t, m.IsUpgrade())
	assert.Equal(t, []string{"websocket"}, m.Upgrade())

	m.SetUpgrade([]string{})
	assert.False(t, m.Headers.Has("Upgrade"))
}

func TestSettersOnNilHeaders(t *testing.T) {
	var m Message

	m.SetConnection(nil)
	assert.Nil(t, m.Headers)

	m.SetContentLength(3)
	require.NotNil(t, m.Headers)
	n, ok := m.ContentLength()
	assert.True(t, ok)
	assert.Equal(t, int64(3), n)
}

func TestStorageDescriptionOnMessage(t *testing.T) {
	m := newTestMessage(HTTP11)
	assert.Equal(t, "Storage:\n-", m.StorageDescription())

	m.Storage.Set("a", "1")
	m.Storage.Set("b", "2")
	assert.Equal(t, "Storage:\na: 1\nb: 2", m.StorageDescription())

	var bare Message
	assert.Equal(t, "Storage:\n-", bare.StorageDescription())
}

func newChunkedTestMessage() *Message {
	m := newTestMessage(HTTP11)
	m.Headers.Set("Transfer-Encoding", "chunked")
	m.Body = NewStreamBody(NewChunkedBodyReader(NewBufferedReader(strings.NewReader(manyChunks(20)))))
	return m
}

func TestSetBufferClosesStream(t *testing.T) {
	before := runtime.NumGoroutine()

	for i := 0; i < 50; i++ {
		m := newChunkedTestMessage()
		m.SetBuffer([]byte("replaced"))

		b, err := m.Buffer()
		require.NoError(t, err)
		assert.Equal(t, "replaced", string(b))
	}

	expectGoroutinesBack(t, before)
}

func TestBufferLimitClosesStream(t *testing.T) {
	before := runtime.NumGoroutine()

	for i := 0; i < 50; i++ {
		m := newChunkedTestMessage()
		m.BufferLimit = 4

		_, err := m.Buffer()
		require.True(t, errors.Is(err, ErrBodyTooLarge), "got %v", err)
		assert.Equal(t, StreamBody, m.Body.Kind())
	}

	expectGoroutinesBack(t, before)
}

func TestCloseBodyStopsChunkedStream(t *testing.T) {
	before := runtime.NumGoroutine()

	m := newChunkedTestMessage()
	require.NoError(t, m.CloseBody())
	expectGoroutinesBack(t, before)

	_, err := m.Buffer()
	assert.True(t, errors.Is(err, ErrBodyClosed), "got %v", err)

	// closing anything but a stream is a no-op
	m.SetBuffer([]byte("x"))
	assert.NoError(t, m.CloseBody())
	assert.NoError(t, (&Message{}).CloseBody())
}
