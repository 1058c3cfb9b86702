package httpx

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

const (
	maxLineCount = 200
)

var (
	ErrMalformedHeader = errors.New("malformed header")
	ErrEOHNotFound     = errors.New("end of header(empty line) not found")
	ErrColonNotFound   = errors.New("header field delimiter(':') not found")
)

/* Data structure in Headers struct
* fields                * index
  [0] []byte("A: B") <----key:"a", values:{
  [1] nil               |            *fieldIndex{field:0, value:2, contCount:0}
  [2] []byte("A: C") <--|            *fieldIndex{field:2, value:2, contCount:0} }
  [3] []byte("D: E") <----key:"d", values:{
  [4] []byte(" F")                   *fieldIndex{field:3, value:2, contCount:1} }

  fields[1] is deleted entry.
  A field value is the text after ':' with continued lines folded into one
  space, so Values("d") is []string{"E F"}.
*/

// newlineToSpace keeps an added name or value on its own field line.
var newlineToSpace = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

type fieldIndex struct {
	field     int // line index to Headers.fields
	value     int // index starting value in Headers.fields[N]
	contCount int // continued line count
}

// Headers maps case-insensitive field names to their values in the order
// the field lines were received or added. A nil *Headers reads as empty.
type Headers struct {
	fields [][]byte
	index  map[string][]*fieldIndex
}

func NewHeaders() *Headers {
	return &Headers{
		fields: make([][]byte, 0, 20),
		index:  make(map[string][]*fieldIndex),
	}
}

// Values returns every value of name in order, nil when absent.
func (h *Headers) Values(name string) []string {
	if h == nil {
		return nil
	}

	fidxs, ok := h.index[strings.ToLower(name)]
	if !ok || len(fidxs) == 0 {
		return nil
	}

	vs := make([]string, 0, len(fidxs))
	for _, fidx := range fidxs {
		vs = append(vs, h.value(fidx))
	}

	return vs
}

// First returns the first value of name.
func (h *Headers) First(name string) (string, bool) {
	if h == nil {
		return "", false
	}

	fidxs, ok := h.index[strings.ToLower(name)]
	if !ok || len(fidxs) == 0 {
		return "", false
	}

	return h.value(fidxs[0]), true
}

func (h *Headers) Has(name string) bool {
	if h == nil {
		return false
	}

	return len(h.index[strings.ToLower(name)]) > 0
}

// Set replaces all values of name with value.
func (h *Headers) Set(name string, value string) {
	h.SetValues(name, []string{value})
}

// SetValues replaces all values of name with values, one field line per
// value. An empty values removes name.
func (h *Headers) SetValues(name string, values []string) {
	if h == nil {
		return
	}

	h.Del(name)
	for _, v := range values {
		h.Add(name, v)
	}
}

// Add appends a field line without touching existing values of name. CR
// and LF in name or value are replaced by a space.
func (h *Headers) Add(name string, value string) {
	if h == nil {
		return
	}
	if h.index == nil {
		h.index = make(map[string][]*fieldIndex)
	}

	name = newlineToSpace.Replace(name)
	value = newlineToSpace.Replace(value)

	f, valpos := newHeaderField([]byte(name), []byte(value))
	h.fields = append(h.fields, f)
	fidx := &fieldIndex{
		field: len(h.fields) - 1,
		value: valpos,
	}

	lname := strings.ToLower(name)
	h.index[lname] = append(h.index[lname], fidx)
}

func (h *Headers) Del(name string) {
	if h == nil {
		return
	}
	name = strings.ToLower(name)

	fidxs, ok := h.index[name]
	if !ok || len(fidxs) == 0 {
		return
	}

	for _, fidx := range fidxs {
		h.fields[fidx.field] = nil
		for i := 0; i < fidx.contCount; i++ {
			h.fields[fidx.field+1+i] = nil
		}
	}

	delete(h.index, name)
}

// Len returns the number of fields, continued lines not counted.
func (h *Headers) Len() int {
	if h == nil {
		return 0
	}

	n := 0
	for _, fidxs := range h.index {
		n += len(fidxs)
	}

	return n
}

// List returns the raw field lines in order, continued lines included.
func (h *Headers) List() [][]byte {
	if h == nil {
		return nil
	}

	var ret [][]byte
	for _, f := range h.fields {
		if f != nil {
			ret = append(ret, f)
		}
	}

	return ret
}

// Each calls fn for every field in order with the name as it was written.
func (h *Headers) Each(fn func(name, value string)) {
	if h == nil {
		return
	}

	all := make([]*fieldIndex, 0, len(h.fields))
	for _, fidxs := range h.index {
		all = append(all, fidxs...)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].field < all[j].field
	})

	for _, fidx := range all {
		line := h.fields[fidx.field]
		name := line[:bytes.IndexByte(line, ':')]
		fn(string(name), h.value(fidx))
	}
}

func (h *Headers) value(fidx *fieldIndex) string {
	var b bytes.Buffer
	// write 1st line
	b.Write(bytes.Trim(h.fields[fidx.field][fidx.value:], " \t"))
	// write continued lines
	for i := 0; i < fidx.contCount; i++ {
		b.WriteByte(' ')
		b.Write(bytes.Trim(h.fields[fidx.field+1+i], " \t"))
	}

	return b.String()
}

func newHeaderField(name, value []byte) ([]byte, int) {
	// length = len(name) + ": " + len(value)
	l := make([]byte, len(name)+2+len(value))
	n := copy(l, name)
	n += copy(l[n:], []byte(": "))
	copy(l[n:], value)

	return l, n
}

func ReadHeaders(lr LineReader) (*Headers, error) {
	reachedEOH := false
	h := NewHeaders()
	var prev *fieldIndex

	for i := 0; i < maxLineCount; i++ {
		line, err := lr.ReadLine()
		if err != nil {
			// if err is non-nil, which means we didn't reached to the end of header.
			// so no need to parse uncompleted header, just return.
			return nil, err
		}
		if len(line) == 0 {
			reachedEOH = true
			break
		}

		h.fields = append(h.fields, line)

		if isNewLine(line[0]) {
			name, valpos, err := parseField(line)
			if err != nil {
				return nil, NewErrorFrom(
					fmt.Sprintf("parsing header field failed at %d", i),
					err)
			}

			fidx := &fieldIndex{
				field: len(h.fields) - 1,
				value: valpos,
			}
			h.index[name] = append(h.index[name], fidx)
			prev = fidx
		} else {
			if prev == nil {
				// obs-fold on the very first line has nothing to continue
				return nil, NewErrorFrom(
					fmt.Sprintf("continued line without field at %d", i),
					ErrMalformedHeader)
			}

			prev.contCount += 1
		}
	}

	if !reachedEOH {
		return nil, ErrEOHNotFound
	}

	return h, nil
}

func isNewLine(b byte) bool {
	return b != 0x09 && b != 0x20
}

func parseField(line []byte) (string, int, error) {
	i := bytes.Index(line, []byte(":"))
	if i == -1 {
		return "", 0, ErrColonNotFound
	}
	name := line[:i]

	// no whitespace is allowed between field-name and ':'
	if len(name) == 0 || !isNewLine(name[len(name)-1]) {
		return "", 0, ErrMalformedHeader
	}

	name = bytes.ToLower(name)

	// "field-name", field-value index in line, no-error
	return string(name), i + 1, nil
}
