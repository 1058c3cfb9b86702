package httpx

import (
	"bufio"
	"io"

	"github.com/pkg/errors"
)

// maxLineParts bounds how many bufio.Reader buffers one line may span.
const maxLineParts = 11

var (
	ErrLineTooLong = errors.New("line too long")
)

type LineReader interface {
	ReadLine() ([]byte, error)
}

// Reader is what message and body parsing read from: lines for the head,
// raw bytes for the body.
type Reader interface {
	LineReader
	io.Reader
}

type ReadWriter interface {
	Reader
	io.Writer
}

var (
	_ Reader     = (*BufferedReader)(nil)
	_ ReadWriter = (*BufConn)(nil)
)

// ReadLine reads one line without its terminator. The returned slice is
// owned by the caller.
func ReadLine(br *bufio.Reader) ([]byte, error) {
	var line []byte
	for i := 0; i < maxLineParts; i++ {
		// part aliases the bufio.Reader buffer
		part, isPrefix, err := br.ReadLine()
		if err != nil {
			return nil, err
		}
		line = append(line, part...)
		if !isPrefix {
			return line, nil
		}
	}

	return line, ErrLineTooLong
}

// BufferedReader turns any io.Reader into a Reader, e.g. a file holding a
// raw message.
type BufferedReader struct {
	*bufio.Reader
}

func NewBufferedReader(r io.Reader) *BufferedReader {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	return &BufferedReader{Reader: br}
}

func (r *BufferedReader) ReadLine() ([]byte, error) {
	return ReadLine(r.Reader)
}
