package httpx

import (
	"io"
)

// ContentLengthReader reads a body of exactly Content-Length bytes. A peer
// that closes early yields IncompleteEOB.
type ContentLengthReader struct {
	r      io.Reader
	remain uint64
	err    error
}

func NewContentLengthReader(r io.Reader, length uint64) *ContentLengthReader {
	clr := &ContentLengthReader{
		r:      r,
		remain: length,
	}
	if length == 0 {
		clr.err = EOB
	}

	return clr
}

func (r *ContentLengthReader) Read() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}

	buf := make([]byte, blockSize(r.remain))
	n, err := r.r.Read(buf)
	switch {
	case err == io.EOF:
		r.err = IncompleteEOB
	case err != nil:
		r.err = err
	}

	if n == 0 {
		// a Read of 0 bytes and no error is allowed; try again next call
		return nil, r.err
	}

	r.remain -= uint64(n)
	if r.remain == 0 {
		r.err = EOB
	}

	return buf[:n], nil
}

// ClosingReader reads a body delimited by the peer closing the connection,
// as well as the bytes of a tunnel.
type ClosingReader struct {
	r   io.Reader
	err error
}

func NewClosingReader(r io.Reader) *ClosingReader {
	return &ClosingReader{
		r: r,
	}
}

func (r *ClosingReader) Read() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}

	buf := make([]byte, DefaultBodyBlockSize)
	n, err := r.r.Read(buf)
	if err == io.EOF {
		err = EOB
	}
	r.err = err

	if n > 0 {
		return buf[:n], nil
	}

	return nil, r.err
}

// blockSize caps a read at DefaultBodyBlockSize.
func blockSize(remain uint64) uint64 {
	if remain > DefaultBodyBlockSize {
		return DefaultBodyBlockSize
	}

	return remain
}
