package httpx

import (
	"bufio"
	"net"
)

// BufConn is a net.Conn with buffered reads, usable as a ReadWriter.
type BufConn struct {
	C  net.Conn
	br *bufio.Reader
}

func NewBufConn(c net.Conn) *BufConn {
	return &BufConn{
		C:  c,
		br: bufio.NewReader(c),
	}
}

func (bc *BufConn) Read(p []byte) (int, error) {
	return bc.br.Read(p)
}

func (bc *BufConn) ReadLine() ([]byte, error) {
	return ReadLine(bc.br)
}

func (bc *BufConn) Write(p []byte) (int, error) {
	n, err := writeAll(bc.C, p)
	return int(n), err
}

func (bc *BufConn) Close() error {
	return bc.C.Close()
}
