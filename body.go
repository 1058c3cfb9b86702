package httpx

import (
	"io"
	"strings"

	"github.com/pkg/errors"
	"github.com/valyala/bytebufferpool"

	"github.com/k3nju/httpx/pkg/logger"
)

var (
	EOB           = errors.New("end of body")
	IncompleteEOB = errors.New("incomplete body read")

	ErrBodyTooLarge           = errors.New("body too large")
	ErrUnsupportedEncoding    = errors.New("transfer coding is not chunked")
	ErrMultipleContentLength  = errors.New("multiple Content-Length value found")
	ErrMalformedContentLength = errors.New("malformed Content-Length value")
)

const (
	DefaultBodyBlockSize = 8192
)

// BodyReader yields a body block by block. It returns EOB once the body is
// complete; any other error means the body was cut short.
type BodyReader interface {
	Read() ([]byte, error)
}

type BodyKind uint8

const (
	// EmptyBody is the zero Body: the message has no body.
	EmptyBody BodyKind = iota
	// StreamBody is read lazily from a BodyReader.
	StreamBody
	// BufferedBody is held in memory by a Drain.
	BufferedBody
)

func (k BodyKind) String() string {
	switch k {
	case EmptyBody:
		return "empty"
	case StreamBody:
		return "stream"
	case BufferedBody:
		return "buffered"
	}
	return "unknown"
}

// Body is either nothing, a stream, or a buffered Drain. Its zero value is
// an empty body.
type Body struct {
	kind   BodyKind
	reader BodyReader
	drain  *Drain
}

func NewStreamBody(r BodyReader) Body {
	if r == nil {
		return Body{}
	}

	return Body{
		kind:   StreamBody,
		reader: r,
	}
}

func NewBufferedBody(d *Drain) Body {
	if d == nil {
		d = NewDrain(nil)
	}

	return Body{
		kind:  BufferedBody,
		drain: d,
	}
}

func (b Body) Kind() BodyKind {
	return b.kind
}

// Drain returns the buffered representation, if b holds one.
func (b Body) Drain() (*Drain, bool) {
	if b.kind != BufferedBody {
		return nil, false
	}

	return b.drain, true
}

// Reader returns a BodyReader over b. For a stream it is the stream itself,
// so reading it consumes the body.
func (b Body) Reader() BodyReader {
	switch b.kind {
	case StreamBody:
		return b.reader
	case BufferedBody:
		return b.drain.Reader()
	}

	return emptyReader{}
}

// Close releases a stream that holds resources of its own, such as the
// goroutine of a ChunkedBodyReader. It is a no-op for other bodies.
func (b Body) Close() error {
	if b.kind != StreamBody {
		return nil
	}
	if c, ok := b.reader.(io.Closer); ok {
		return c.Close()
	}

	return nil
}

// Drain is a fully materialized body.
type Drain struct {
	data []byte
}

func NewDrain(data []byte) *Drain {
	return &Drain{
		data: data,
	}
}

// DrainBody materializes b. A buffered body is returned as is; a stream is
// read up to EOB. limit caps the materialized size, 0 means unlimited. A
// stream that fails is closed, as it cannot be read further.
func DrainBody(b Body, limit int64) (*Drain, error) {
	switch b.kind {
	case EmptyBody:
		return NewDrain(nil), nil
	case BufferedBody:
		return b.drain, nil
	}

	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	for {
		data, err := b.reader.Read()
		if len(data) > 0 {
			if limit > 0 && int64(buf.Len()+len(data)) > limit {
				b.Close()
				return nil, errors.Wrapf(ErrBodyTooLarge, "exceeds %d bytes", limit)
			}
			buf.Write(data)
		}
		if err != nil {
			if err == EOB {
				break
			}
			b.Close()
			return nil, NewErrorFrom("draining body failed", err)
		}
	}

	// buf goes back to the pool, the drain keeps its own copy
	data := make([]byte, buf.Len())
	copy(data, buf.B)

	return NewDrain(data), nil
}

func (d *Drain) Bytes() []byte {
	return d.data
}

func (d *Drain) Len() int {
	return len(d.data)
}

// Reader returns a BodyReader yielding the drained bytes once.
func (d *Drain) Reader() BodyReader {
	return &drainReader{data: d.data}
}

type drainReader struct {
	data []byte
	done bool
}

func (r *drainReader) Read() ([]byte, error) {
	if r.done || len(r.data) == 0 {
		r.done = true
		return nil, EOB
	}

	r.done = true
	return r.data, nil
}

type emptyReader struct{}

func (emptyReader) Read() ([]byte, error) {
	return nil, EOB
}

// SetRequestBodyReader attaches a streaming body to req according to its
// framing headers.
func SetRequestBodyReader(req *Request, r Reader) error {
	if req.Headers.Has("transfer-encoding") {
		// NOTE: identity encoding has been removed in RFC7230
		if !req.IsChunkEncoded() {
			return errors.Wrap(ErrUnsupportedEncoding,
				strings.Join(req.TransferEncoding(), ", "))
		}

		logger.Debugw("request body", "framing", "chunked")
		req.Body = NewStreamBody(NewChunkedBodyReader(r))
		return nil
	}

	if req.Headers.Has("content-length") {
		cl, err := messageContentLength(&req.Message)
		if err != nil {
			return err
		}

		logger.Debugw("request body", "framing", "content-length", "length", cl)
		req.Body = NewStreamBody(NewContentLengthReader(r, uint64(cl)))
		return nil
	}

	req.Body = Body{}
	return nil
}

// SetResponseBodyReader attaches a streaming body to res. req is the
// request res answers; nil is taken as a GET.
func SetResponseBodyReader(res *Response, r Reader, req *Request) error {
	res.Body = Body{}

	method := "GET"
	if req != nil {
		method = req.Method
	}

	if method == "HEAD" {
		return nil
	}
	if (100 <= res.StatusCode && res.StatusCode <= 199) ||
		res.StatusCode == 204 ||
		res.StatusCode == 304 {
		return nil
	}

	if method == "CONNECT" && 200 <= res.StatusCode && res.StatusCode <= 299 {
		logger.Debugw("response body", "framing", "tunnel")
		res.Body = NewStreamBody(NewClosingReader(r))
		return nil
	}

	if res.Headers.Has("transfer-encoding") {
		if res.IsChunkEncoded() {
			logger.Debugw("response body", "framing", "chunked")
			res.Body = NewStreamBody(NewChunkedBodyReader(r))
		} else {
			logger.Debugw("response body", "framing", "close-delimited")
			res.Body = NewStreamBody(NewClosingReader(r))
		}
		return nil
	}

	if res.Headers.Has("content-length") {
		cl, err := messageContentLength(&res.Message)
		if err != nil {
			return err
		}

		logger.Debugw("response body", "framing", "content-length", "length", cl)
		res.Body = NewStreamBody(NewContentLengthReader(r, uint64(cl)))
		return nil
	}

	logger.Debugw("response body", "framing", "close-delimited")
	res.Body = NewStreamBody(NewClosingReader(r))
	return nil
}

// messageContentLength is the strict form of Message.ContentLength used for
// framing, where a bad value must not be mistaken for an absent one.
func messageContentLength(m *Message) (int64, error) {
	if vs := m.Headers.Values("content-length"); len(vs) != 1 {
		return 0, ErrMultipleContentLength
	}

	cl, ok := m.ContentLength()
	if !ok {
		v, _ := m.Headers.First("content-length")
		return 0, errors.Wrapf(ErrMalformedContentLength, "%q", v)
	}

	return cl, nil
}
