package httpx

import (
	"mime"
	"strings"

	"github.com/pkg/errors"
)

var (
	ErrMalformedMediaType = errors.New("malformed media type")
)

// MediaType is a parsed Content-Type value. Type, Subtype and parameter
// names are lower case.
type MediaType struct {
	Type    string
	Subtype string
	Params  map[string]string
}

// NewMediaType builds a media type that can be written as a header value.
func NewMediaType(typ, subtype string, params map[string]string) (*MediaType, error) {
	mt := &MediaType{
		Type:    strings.ToLower(typ),
		Subtype: strings.ToLower(subtype),
		Params:  params,
	}
	if _, err := mt.Format(); err != nil {
		return nil, err
	}

	return mt, nil
}

func ParseMediaType(s string) (*MediaType, error) {
	mt, params, err := mime.ParseMediaType(s)
	if err != nil {
		return nil, errors.Wrap(ErrMalformedMediaType, err.Error())
	}

	i := strings.IndexByte(mt, '/')
	if i <= 0 || i == len(mt)-1 {
		return nil, errors.Wrapf(ErrMalformedMediaType, "%q has no subtype", mt)
	}

	return &MediaType{
		Type:    mt[:i],
		Subtype: mt[i+1:],
		Params:  params,
	}, nil
}

// Essence returns "type/subtype" without parameters.
func (m *MediaType) Essence() string {
	return m.Type + "/" + m.Subtype
}

func (m *MediaType) Param(name string) (string, bool) {
	v, ok := m.Params[strings.ToLower(name)]
	return v, ok
}

// Format returns the canonical header form; parameters are sorted by name
// and quoted where needed. Type, subtype and parameter names must be tokens.
func (m *MediaType) Format() (string, error) {
	if m.Type == "" || m.Subtype == "" {
		return "", errors.Wrapf(ErrMalformedMediaType, "%q has no subtype", m.Essence())
	}

	s := mime.FormatMediaType(m.Essence(), m.Params)
	if s == "" {
		return "", errors.Wrapf(ErrMalformedMediaType, "%q cannot be formatted", m.Essence())
	}

	return s, nil
}

// String is Format for display; a value Format rejects shows as its essence.
func (m *MediaType) String() string {
	s, err := m.Format()
	if err != nil {
		return m.Essence()
	}

	return s
}
