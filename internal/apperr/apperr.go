// Package apperr classifies failures of a single event so that one top-level
// handler can decide what the user sees and how loudly it is logged.
package apperr

import (
	"fmt"
	"unicode/utf8"

	"github.com/go-faster/errors"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindAuthorization
	KindFetch
	KindTranscode
	KindDelivery
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuthorization:
		return "authorization"
	case KindFetch:
		return "fetch"
	case KindTranscode:
		return "transcode"
	case KindDelivery:
		return "delivery"
	default:
		return "internal"
	}
}

// Error carries a Kind, the operation that failed and a short user-facing
// message. Err holds the underlying cause with full detail for logs.
type Error struct {
	Kind Kind
	Op   string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Msg != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Msg, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Msg)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

func New(kind Kind, op, msg string, err error) *Error {
	return &Error{Kind: kind, Op: op, Msg: msg, Err: err}
}

func Validation(op, msg string) *Error {
	return New(KindValidation, op, msg, nil)
}

func Authorization(op, msg string, err error) *Error {
	return New(KindAuthorization, op, msg, err)
}

func Fetch(op string, err error) *Error {
	return New(KindFetch, op, "", err)
}

func Transcode(op string, err error) *Error {
	return New(KindTranscode, op, "", err)
}

func Delivery(op string, err error) *Error {
	return New(KindDelivery, op, "", err)
}

func Internal(op string, err error) *Error {
	return New(KindInternal, op, "", err)
}

// KindOf reports KindInternal for nil-free errors that were never classified.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

func Is(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

const maxDetail = 300

// UserMessage renders the single notification a user receives for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var e *Error
	if !errors.As(err, &e) {
		return "❌ Something went wrong. Please try again later."
	}

	switch e.Kind {
	case KindValidation, KindAuthorization:
		return e.Msg
	case KindFetch:
		return "❌ Download failed: " + detail(e)
	case KindTranscode:
		return "❌ Conversion failed: " + detail(e)
	case KindDelivery:
		return "⚠️ The file was ready but could not be sent: " + detail(e)
	default:
		return "❌ Something went wrong. Please try again later."
	}
}

func detail(e *Error) string {
	text := e.Msg
	if e.Err != nil {
		text = e.Err.Error()
	}
	if len(text) > maxDetail {
		n := maxDetail
		for n > 0 && !utf8.RuneStart(text[n]) {
			n--
		}
		text = text[:n] + "…"
	}
	return text
}
