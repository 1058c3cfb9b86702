package httpx

import (
	"fmt"
)

var (
	scMap map[uint]string = map[uint]string{
		// status code: "reason phrase"
		200: "OK",
		400: "Bad Request",
		413: "Payload Too Large",
		502: "Bad Gateway",
		504: "Gateway Timeout",
	}
)

var textPlainUTF8 = &MediaType{
	Type:    "text",
	Subtype: "plain",
	Params:  map[string]string{"charset": "utf-8"},
}

type StatusCode struct {
	StatusCode   uint
	ReasonPhrase string
	Message      string
}

func NewStatusCode(sc uint, msg string) *StatusCode {
	v, ok := scMap[sc]
	if !ok {
		panic(fmt.Errorf("Undefined status code specified: status code = %d", sc))
	}

	return &StatusCode{
		StatusCode:   sc,
		ReasonPhrase: v,
		Message:      msg,
	}
}

// Response builds a complete response carrying Message as a text/plain
// body and asking the peer to close.
func (sc *StatusCode) Response(v HTTPVersion) *Response {
	res := NewResponse(v, sc)
	if err := res.SetContentType(textPlainUTF8); err != nil {
		panic(err)
	}
	res.SetContentLength(int64(len(sc.Message)))
	res.SetConnection([]string{"close"})
	res.SetBuffer([]byte(sc.Message))

	return res
}
