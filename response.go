package httpx

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrMalformedResponseLine = errors.New("malformed response line")
)

type Response struct {
	StatusCode   uint
	ReasonPhrase string

	Message
}

// NewResponse returns a bodiless response in version v with empty headers
// and storage.
func NewResponse(v HTTPVersion, sc *StatusCode) *Response {
	return &Response{
		StatusCode:   sc.StatusCode,
		ReasonPhrase: sc.ReasonPhrase,
		Message: Message{
			Version: v,
			Headers: NewHeaders(),
			Storage: NewStorage(),
		},
	}
}

// Head returns the status line and header lines, terminated by the empty
// line.
func (res *Response) Head() []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %d %s\r\n", res.Version, res.StatusCode, res.ReasonPhrase)
	res.writeHead(&b)

	return []byte(b.String())
}

// WriteTo writes the head and then the body. A streaming body is consumed.
func (res *Response) WriteTo(w io.Writer) (int64, error) {
	return writeMessage(w, res.Head(), res.Body)
}

func parseStatusLine(line []byte) (HTTPVersion, uint, string, error) {
	v, sc, rp, ok := parseStartLine(line)
	if !ok {
		// reason-phrase may be empty and its preceding SP omitted
		if i := strings.IndexByte(string(line), ' '); i > 0 {
			v, sc, rp, ok = line[:i], line[i+1:], nil, true
		}
	}
	if !ok {
		return HTTPVersion{}, 0, "", ErrMalformedResponseLine
	}

	hv, err := ParseHTTPVersion(v)
	if err != nil {
		return HTTPVersion{}, 0, "", err
	}

	t, err := strconv.ParseUint(string(sc), 10, 16)
	if err != nil || len(sc) != 3 {
		return HTTPVersion{}, 0, "", ErrMalformedResponseLine
	}

	return hv, uint(t), string(rp), nil
}

func ReadResponse(r Reader, req *Request) (*Response, error) {
	line, err := r.ReadLine()
	if err != nil {
		return nil, err
	}

	res := &Response{}
	res.Version, res.StatusCode, res.ReasonPhrase, err = parseStatusLine(line)
	if err != nil {
		return nil, err
	}

	res.Headers, err = ReadHeaders(r)
	if err != nil {
		return nil, NewErrorFrom("ReadHeaders() failed", err)
	}
	res.Storage = NewStorage()

	if err := SetResponseBodyReader(res, r, req); err != nil {
		return nil, NewErrorFrom("SetResponseBodyReader() failed", err)
	}

	return res, nil
}

func DumpResponse(w io.Writer, res *Response) {
	w.Write(res.Head())
}
