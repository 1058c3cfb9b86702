package httpx

import (
	"strconv"
	"strings"

	"github.com/k3nju/httpx/pkg/logger"
)

// Message is the part shared by requests and responses. It is not safe for
// concurrent use: Buffer replaces Body on read.
type Message struct {
	Version HTTPVersion
	Headers *Headers
	Body    Body
	Storage *Storage

	// BufferLimit caps how many bytes Buffer materializes from a stream.
	// 0 means no limit.
	BufferLimit int64
}

// Buffer returns the whole body. A streaming body is drained once and
// replaced by its buffered form, so later calls return the same bytes
// without reading again. On error Body is left as it was, and a stream is
// closed.
func (m *Message) Buffer() ([]byte, error) {
	if d, ok := m.Body.Drain(); ok {
		return d.Bytes(), nil
	}

	d, err := DrainBody(m.Body, m.BufferLimit)
	if err != nil {
		return nil, err
	}

	logger.Debugw("body buffered", "kind", m.Body.Kind(), "size", d.Len())
	m.Body = NewBufferedBody(d)

	return d.Bytes(), nil
}

// SetBuffer replaces the body with b. The previous body is closed and
// dropped unread.
func (m *Message) SetBuffer(b []byte) {
	m.Body.Close()
	m.Body = NewBufferedBody(NewDrain(b))
}

// ContentType parses the first Content-Type value. A missing or malformed
// value yields nil.
func (m *Message) ContentType() *MediaType {
	v, ok := m.Headers.First("Content-Type")
	if !ok {
		return nil
	}

	mt, err := ParseMediaType(v)
	if err != nil {
		return nil
	}

	return mt
}

// SetContentType stores mt as the only Content-Type value; nil removes the
// header. A media type that cannot be formatted leaves the headers as they
// were.
func (m *Message) SetContentType(mt *MediaType) error {
	if mt == nil {
		m.Headers.Del("Content-Type")
		return nil
	}

	v, err := mt.Format()
	if err != nil {
		return err
	}
	m.headers().Set("Content-Type", v)

	return nil
}

// ContentLength parses the first Content-Length value. ok is false when it
// is missing, malformed or negative.
func (m *Message) ContentLength() (int64, bool) {
	v, ok := m.Headers.First("Content-Length")
	if !ok {
		return 0, false
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}

	return n, true
}

func (m *Message) SetContentLength(n int64) {
	m.headers().Set("Content-Length", strconv.FormatInt(n, 10))
}

func (m *Message) RemoveContentLength() {
	m.Headers.Del("Content-Length")
}

func (m *Message) TransferEncoding() []string {
	return m.Headers.Values("Transfer-Encoding")
}

// SetTransferEncoding replaces all Transfer-Encoding values. An empty te
// removes the header.
func (m *Message) SetTransferEncoding(te []string) {
	m.setValues("Transfer-Encoding", te)
}

func (m *Message) IsChunkEncoded() bool {
	return containsFold(m.TransferEncoding(), "chunked")
}

func (m *Message) Connection() []string {
	return m.Headers.Values("Connection")
}

// SetConnection replaces all Connection values. An empty c removes the
// header.
func (m *Message) SetConnection(c []string) {
	m.setValues("Connection", c)
}

// IsKeepAlive reports whether the connection persists after this message.
// HTTP/1.0 needs an explicit keep-alive. Later versions persist unless
// every Connection value carries close.
func (m *Message) IsKeepAlive() bool {
	c := m.Connection()
	if m.Version.Minor == 0 {
		return containsFold(c, "keep-alive")
	}
	if len(c) == 0 {
		return true
	}

	return lacksFold(c, "close")
}

// IsUpgrade reports whether a Connection value carries the upgrade option.
func (m *Message) IsUpgrade() bool {
	return containsFold(m.Connection(), "upgrade")
}

func (m *Message) Upgrade() []string {
	return m.Headers.Values("Upgrade")
}

// SetUpgrade replaces all Upgrade values. An empty u removes the header.
func (m *Message) SetUpgrade(u []string) {
	m.setValues("Upgrade", u)
}

// CloseBody releases a body that was not read to its end.
func (m *Message) CloseBody() error {
	return m.Body.Close()
}

// StorageDescription renders Storage for debugging; see Storage.Description.
func (m *Message) StorageDescription() string {
	return m.Storage.Description()
}

func (m *Message) setValues(name string, values []string) {
	if len(values) == 0 {
		m.Headers.Del(name)
		return
	}

	m.headers().SetValues(name, values)
}

func (m *Message) headers() *Headers {
	if m.Headers == nil {
		m.Headers = NewHeaders()
	}

	return m.Headers
}

// writeHead writes the header lines and the empty line after them.
func (m *Message) writeHead(b *strings.Builder) {
	for _, line := range m.Headers.List() {
		b.Write(line)
		b.Write(crlf)
	}
	b.Write(crlf)
}
