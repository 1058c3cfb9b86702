package httpx

import (
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrMalformedRequestLine = errors.New("malformed request line")
)

type Request struct {
	Method        string
	RequestTarget string

	Message
}

// NewRequest returns a bodiless HTTP/1.1 request with empty headers and
// storage.
func NewRequest(method, target string) *Request {
	return &Request{
		Method:        method,
		RequestTarget: target,
		Message: Message{
			Version: HTTP11,
			Headers: NewHeaders(),
			Storage: NewStorage(),
		},
	}
}

// Head returns the request line and header lines, terminated by the empty
// line.
func (req *Request) Head() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s\r\n", req.Method, req.RequestTarget, req.Version)
	req.writeHead(&b)

	return []byte(b.String())
}

// WriteTo writes the head and then the body. A streaming body is consumed.
func (req *Request) WriteTo(w io.Writer) (int64, error) {
	return writeMessage(w, req.Head(), req.Body)
}

func parseRequestLine(line []byte) (string, string, HTTPVersion, error) {
	m, rt, v, ok := parseStartLine(line)
	if !ok {
		return "", "", HTTPVersion{}, ErrMalformedRequestLine
	}

	hv, err := ParseHTTPVersion(v)
	if err != nil {
		return "", "", HTTPVersion{}, err
	}

	return string(m), string(rt), hv, nil
}

func ReadRequest(r Reader) (*Request, error) {
	line, err := r.ReadLine()
	// LineReader.ReadLine returns
	// * valid line data and nil error
	// OR
	// * invalid line data and non-nil error
	// It never returns
	// * valid line data and non-nil error
	if err != nil {
		return nil, err
	}

	req := &Request{}
	req.Method, req.RequestTarget, req.Version, err = parseRequestLine(line)
	if err != nil {
		return nil, err
	}

	req.Headers, err = ReadHeaders(r)
	if err != nil {
		return nil, NewErrorFrom("ReadHeaders() failed", err)
	}
	req.Storage = NewStorage()

	if err := SetRequestBodyReader(req, r); err != nil {
		return nil, NewErrorFrom("SetRequestBodyReader() failed", err)
	}

	return req, nil
}

func DumpRequest(w io.Writer, req *Request) {
	w.Write(req.Head())
}

func writeMessage(w io.Writer, head []byte, body Body) (int64, error) {
	t, err := writeAll(w, head)
	if err != nil {
		return t, err
	}

	br := body.Reader()
	for {
		bb, err := br.Read()
		if len(bb) > 0 {
			n, werr := writeAll(w, bb)
			t += n
			if werr != nil {
				return t, werr
			}
		}
		if err != nil {
			if err == EOB {
				return t, nil
			}
			// insufficient body
			return t, err
		}
	}
}
