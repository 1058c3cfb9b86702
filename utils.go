package httpx

import (
	"bytes"
	"io"
	"strings"
)

var crlf = []byte("\r\n")

func parseStartLine(line []byte) ([]byte, []byte, []byte, bool) {
	parts := bytes.SplitN(line, []byte(" "), 3)
	if len(parts) != 3 {
		return nil, nil, nil, false
	}

	return parts[0], parts[1], parts[2], true
}

// containsFold reports whether any of values contains substr, ignoring case.
// substr must be lower case.
func containsFold(values []string, substr string) bool {
	for _, v := range values {
		if strings.Contains(strings.ToLower(v), substr) {
			return true
		}
	}

	return false
}

// lacksFold reports whether any of values does not contain substr,
// ignoring case. substr must be lower case.
func lacksFold(values []string, substr string) bool {
	for _, v := range values {
		if !strings.Contains(strings.ToLower(v), substr) {
			return true
		}
	}

	return false
}

func writeAll(w io.Writer, bs ...[]byte) (int64, error) {
	var t int64

	for _, b := range bs {
		for len(b) > 0 {
			n, err := w.Write(b)
			if n > 0 {
				b = b[n:]
				t += int64(n)
			}
			if err != nil {
				return t, err
			}
		}
	}

	return t, nil
}
