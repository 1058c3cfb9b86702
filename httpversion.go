package httpx

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/pkg/errors"
)

var (
	ErrMalformedHTTPVersion = errors.New("malformed HTTP version")
)

var (
	HTTP10 = HTTPVersion{Major: 1, Minor: 0}
	HTTP11 = HTTPVersion{Major: 1, Minor: 1}
)

type HTTPVersion struct {
	Major uint
	Minor uint
}

func (v HTTPVersion) String() string {
	return fmt.Sprintf("HTTP/%d.%d", v.Major, v.Minor)
}

// AtLeast reports whether v is major.minor or newer.
func (v HTTPVersion) AtLeast(major, minor uint) bool {
	return v.Major > major || (v.Major == major && v.Minor >= minor)
}

// v = []byte("HTTP/1.X")
func ParseHTTPVersion(v []byte) (HTTPVersion, error) {
	if !bytes.HasPrefix(v, []byte("HTTP/")) {
		return HTTPVersion{}, ErrMalformedHTTPVersion
	}
	s1 := len("HTTP/") - 1
	s2 := bytes.Index(v[s1+1:], []byte("."))
	if s2 < 0 {
		return HTTPVersion{}, ErrMalformedHTTPVersion
	}
	s2 += s1 + 1

	major, err := strconv.ParseUint(string(v[s1+1:s2]), 10, 8)
	if err != nil {
		return HTTPVersion{}, errors.Wrap(ErrMalformedHTTPVersion, err.Error())
	}

	minor, err := strconv.ParseUint(string(v[s2+1:]), 10, 8)
	if err != nil {
		return HTTPVersion{}, errors.Wrap(ErrMalformedHTTPVersion, err.Error())
	}

	return HTTPVersion{
		Major: uint(major),
		Minor: uint(minor),
	}, nil
}
