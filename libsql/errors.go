package libsql

import (
	"errors"
	"fmt"
	"unicode/utf8"
)

// Failure kinds. Match them with errors.Is against any error returned by a
// Querier.
var (
	ErrUnavailable   = errors.New("database unavailable")
	ErrTimeout       = errors.New("database timeout")
	ErrRequestFailed = errors.New("database request failed")
	ErrProtocol      = errors.New("database protocol error")
)

// ErrBadArgs is returned before any I/O when the argument count does not match
// the statement's placeholders or an argument has an unsupported type.
var ErrBadArgs = errors.New("libsql: bad statement arguments")

const maxErrorBody = 512

// Error describes a failed statement. Kind is one of the failure kinds above.
// StatusCode and Body are set for ErrRequestFailed; a statement rejected by the
// server inside a successful HTTP exchange carries status 200 and the server's
// message as Body.
type Error struct {
	Kind       error
	StatusCode int
	Body       string
	Err        error
}

func (e *Error) Error() string {
	msg := "libsql: " + e.Kind.Error()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Body != "" {
		body := e.Body
		if len(body) > maxErrorBody {
			n := maxErrorBody
			for n > 0 && !utf8.RuneStart(body[n]) {
				n--
			}
			body = body[:n] + "..."
		}
		msg += ": " + body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is the failure kind of e.
func (e *Error) Is(target error) bool { return target == e.Kind }
