package httpx

import (
	"bytes"
	"math"
	"strconv"
	"sync"

	"github.com/pkg/errors"
)

const (
	MaxChunkHeaderSize = 512
	// MaxChunkSize leaves room for the CRLF after chunk-data.
	MaxChunkSize = math.MaxInt64
)

var (
	ErrTooLargeChunkHeader = errors.New("too large chunk header")
	ErrInsufficientBuffer  = errors.New("insufficient buffer")
	ErrTooLargeChunk       = errors.New("too large chunk")
	ErrBodyClosed          = errors.New("body closed")
)

type cbReadResult struct {
	data []byte
	err  error
}

// ChunkedBodyReader relays a chunked body in its wire framing: chunk
// headers, chunk data, the last-chunk, trailer fields and the final CRLF.
// Trailers is set once Read has returned EOB. A reader abandoned before EOB
// must be closed to release its goroutine.
type ChunkedBodyReader struct {
	r        Reader
	Trailers *Headers
	err      error
	ch       chan *cbReadResult

	done      chan struct{}
	closeOnce sync.Once
}

func NewChunkedBodyReader(r Reader) *ChunkedBodyReader {
	cbr := &ChunkedBodyReader{
		r:    r,
		ch:   make(chan *cbReadResult, 1),
		done: make(chan struct{}),
	}

	go cbr.read()

	return cbr
}

func (r *ChunkedBodyReader) read() {
	defer close(r.ch)
	buf := newBlockBuf(DefaultBodyBlockSize)

	for {
		// read chunk header
		line, size, err := cbReadChunkHeader(r.r)
		if err != nil {
			r.send(&cbReadResult{err: NewErrorFrom("reading chunk header failed", err)})
			return
		}

		// chunk-size == 0 means end of chunks(last-chunk)
		if size == 0 {
			// keep raw chunk header for chunk-ext, then read trailers
			if detached := buf.detach(); len(detached) > 0 {
				if !r.send(&cbReadResult{data: detached}) {
					return
				}
			}
			r.readLastChunk(line)
			return
		}

		// prepare to read chunk-data
		hdr, detached := buf.window(uint64(len(line) + 2))
		if detached != nil {
			// the buffer was full; pass on what it held
			if !r.send(&cbReadResult{data: detached}) {
				return
			}
		}
		if hdr == nil {
			// the header alone does not fit a block
			r.send(&cbReadResult{err: ErrTooLargeChunkHeader})
			return
		}

		// chunk header, terminated again by CRLF
		copy(hdr[copy(hdr, line):], crlf)
		buf.commit(uint64(len(line) + 2))

		// chunk-data size. "+= 2" means "\r\n" at end of chunk-data.
		// size <= MaxChunkSize, so this cannot wrap.
		size += 2

		// read chunk
		for size > 0 {
			rsize := blockSize(size)

			// ensure to read data up to rsize
			rbuf, detached := buf.window(rsize)
			if detached != nil {
				if !r.send(&cbReadResult{data: detached}) {
					return
				}
			}
			if rbuf == nil {
				r.send(&cbReadResult{err: ErrInsufficientBuffer})
				return
			}

			n, err := r.r.Read(rbuf)
			if n > 0 {
				buf.commit(uint64(n))
				if !r.send(&cbReadResult{data: buf.detach()}) {
					return
				}
				size -= uint64(n)
			}
			if err != nil && size > 0 {
				r.send(&cbReadResult{err: NewErrorFrom("Read() failed(reading chunk)", err)})
				return
			}
		}
	}
}

func (r *ChunkedBodyReader) readLastChunk(line []byte) {
	t, err := ReadHeaders(r.r)
	if err != nil {
		r.send(&cbReadResult{
			err: NewErrorFrom("ReadHeaders() failed(reading trailer)", err),
		})
		return
	}
	r.Trailers = t

	var b bytes.Buffer
	b.Write(line)
	b.Write(crlf)
	for _, f := range t.List() {
		b.Write(f)
		b.Write(crlf)
	}
	b.Write(crlf)

	r.send(&cbReadResult{data: b.Bytes()})
}

// send hands res to Read. It reports false once the reader is closed.
func (r *ChunkedBodyReader) send(res *cbReadResult) bool {
	select {
	case r.ch <- res:
		return true
	case <-r.done:
		return false
	}
}

func cbReadChunkHeader(lr LineReader) ([]byte, uint64, error) {
	line, err := lr.ReadLine()
	if err != nil {
		return nil, 0, err
	}
	if len(line)+2 > MaxChunkHeaderSize {
		return nil, 0, ErrTooLargeChunkHeader
	}

	s := line
	if i := bytes.Index(s, []byte(";")); i != -1 {
		s = s[:i]
	}

	size, err := strconv.ParseUint(string(bytes.TrimRight(s, " \t")), 16, 64)
	if err != nil {
		return nil, 0, err
	}
	if size > MaxChunkSize {
		return nil, 0, errors.Wrapf(ErrTooLargeChunk, "%d bytes", size)
	}

	return line, size, nil
}

func (r *ChunkedBodyReader) Read() ([]byte, error) {
	if r.err != nil {
		return nil, r.err
	}

	// a closed reader must not pass on blocks already queued
	select {
	case <-r.done:
		r.err = ErrBodyClosed
		return nil, r.err
	default:
	}

	var res *cbReadResult
	select {
	case res = <-r.ch:
	case <-r.done:
		r.err = ErrBodyClosed
		return nil, r.err
	}
	if res == nil {
		r.err = EOB
		return nil, EOB
	}
	if res.err != nil {
		if res.data != nil {
			// when res.err != nil, res.data must be nil
			panic("unexpected read result: res.data != nil && res.err != nil")
		}

		r.err = res.err
		return nil, r.err
	}

	return res.data, nil
}

// Close stops the reading goroutine once it next hands over a block. It
// does not close the underlying Reader.
func (r *ChunkedBodyReader) Close() error {
	r.closeOnce.Do(func() {
		close(r.done)
	})

	return nil
}

// blockBuf hands out write windows over a block and detaches the written
// part so it can be sent on without copying.
type blockBuf struct {
	size uint64
	buf  []byte
	wi   uint64 // write index
}

func newBlockBuf(size uint64) *blockBuf {
	return &blockBuf{
		size: size,
		buf:  make([]byte, size),
	}
}

// window returns n bytes to write into. A block without room is replaced by
// a fresh one and its written part returned as detached. The window is nil
// when n exceeds the block size.
func (b *blockBuf) window(n uint64) (w []byte, detached []byte) {
	if free := b.buf[b.wi:]; uint64(len(free)) >= n {
		return free[:n], nil
	}

	if b.wi > 0 {
		detached = b.buf[:b.wi]
	}
	b.buf = make([]byte, b.size)
	b.wi = 0

	if n > b.size {
		return nil, detached
	}

	return b.buf[:n], detached
}

// commit marks n bytes of the last window as written.
func (b *blockBuf) commit(n uint64) {
	b.wi += n
}

// detach returns the written bytes; later windows never overlap them.
func (b *blockBuf) detach() []byte {
	d := b.buf[:b.wi]
	b.buf = b.buf[b.wi:]
	b.wi = 0

	return d
}
