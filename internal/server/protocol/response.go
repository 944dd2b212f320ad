package protocol

import (
	"strconv"
	"strings"

	"github.com/yndnr/memkv-go/internal/core/domain"
)

// EmptyList is written for an empty collection result.
const EmptyList = "(empty list or set)"

type kind int

const (
	kindStatus kind = iota
	kindValue
	kindInteger
	kindList
	kindError
)

// Response is the result of one command.
type Response struct {
	kind  kind
	text  string
	n     int64
	items []string
	err   error
}

// OK is the plain success response.
func OK() Response {
	return Response{kind: kindStatus, text: "OK"}
}

// Status returns a bare status word such as PONG.
func Status(s string) Response {
	return Response{kind: kindStatus, text: s}
}

// Value returns a text value.
func Value(s string) Response {
	return Response{kind: kindValue, text: s}
}

// Integer returns a numeric result.
func Integer(n int64) Response {
	return Response{kind: kindInteger, n: n}
}

// Bool returns 1 or 0.
func Bool(b bool) Response {
	if b {
		return Integer(1)
	}
	return Integer(0)
}

// List returns a numbered collection.
func List(items []string) Response {
	return Response{kind: kindList, items: items}
}

// Error wraps a failure.
func Error(err error) Response {
	return Response{kind: kindError, err: err}
}

// IsError reports whether the response carries a failure.
func (r Response) IsError() bool {
	return r.kind == kindError
}

// Err returns the wrapped failure, if any.
func (r Response) Err() error {
	return r.err
}

// String renders the response without the trailing newline.
func (r Response) String() string {
	switch r.kind {
	case kindInteger:
		return "(integer) " + strconv.FormatInt(r.n, 10)
	case kindList:
		if len(r.items) == 0 {
			return EmptyList
		}
		var sb strings.Builder
		for i, item := range r.items {
			if i > 0 {
				sb.WriteByte('\n')
			}
			sb.WriteString(strconv.Itoa(i + 1))
			sb.WriteString(") ")
			sb.WriteString(item)
		}
		return sb.String()
	case kindError:
		if r.err == nil {
			return "Error: unknown error"
		}
		return "Error: " + domain.ClientMessage(r.err)
	default:
		return r.text
	}
}

// Encode renders the response for the wire.
func (r Response) Encode() []byte {
	return []byte(r.String() + "\n")
}

// PushMessage renders a channel delivery for a subscriber.
func PushMessage(channel, payload string) []byte {
	return []byte("message " + channel + " " + payload + "\n")
}

// PushMonitor renders a monitor trace line.
func PushMonitor(line string) []byte {
	return []byte("monitor " + line + "\n")
}
