// internal/sdkerr/errors.go
package sdkerr

import (
	"errors"
	"fmt"
)

// Kind classifies an SDK failure.
type Kind uint16

const (
	KindUnknown Kind = iota
	KindAuthentication
	KindActionContext
	KindWidgetNotFound
	KindInvalidParameter
	KindUnexpectedServer
	KindSDKLoading
	KindDOMContract
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindActionContext:
		return "action_context"
	case KindWidgetNotFound:
		return "widget_not_found"
	case KindInvalidParameter:
		return "invalid_parameter"
	case KindUnexpectedServer:
		return "unexpected_server"
	case KindSDKLoading:
		return "sdk_loading"
	case KindDOMContract:
		return "dom_contract"
	default:
		return "unknown"
	}
}

// Sentinels for errors.Is matching on kind only.
var (
	ErrAuthentication   = &Error{Kind: KindAuthentication}
	ErrActionContext    = &Error{Kind: KindActionContext}
	ErrWidgetNotFound   = &Error{Kind: KindWidgetNotFound}
	ErrInvalidParameter = &Error{Kind: KindInvalidParameter}
	ErrUnexpectedServer = &Error{Kind: KindUnexpectedServer}
	ErrSDKLoading       = &Error{Kind: KindSDKLoading}
	ErrDOMContract      = &Error{Kind: KindDOMContract}
)

// Error is the single concrete error type surfaced by the SDK.
// Field is only set for KindInvalidParameter.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = fmt.Sprintf("%s: %s", e.Field, msg)
	}
	if e.Err != nil {
		if msg == "" {
			return fmt.Sprintf("%s: %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	if msg == "" {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error with the same Kind.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

// Code exposes the kind as a process exit code. 0 is never returned.
func (e *Error) Code() uint16 {
	if e.Kind == KindUnknown {
		return 1
	}
	return uint16(e.Kind) + 1
}

// ---- constructors ----

func Authentication(msg string) error {
	return &Error{Kind: KindAuthentication, Message: msg}
}

func ActionContext(msg string) error {
	return &Error{Kind: KindActionContext, Message: msg}
}

func WidgetNotFound(detail string) error {
	return &Error{Kind: KindWidgetNotFound, Message: detail}
}

func InvalidParameter(field, msg string) error {
	return &Error{Kind: KindInvalidParameter, Field: field, Message: msg}
}

func UnexpectedServer(msg string) error {
	return &Error{Kind: KindUnexpectedServer, Message: msg}
}

func SDKLoading(msg string, cause error) error {
	return &Error{Kind: KindSDKLoading, Message: msg, Err: cause}
}

func DOMContract(format string, args ...any) error {
	return &Error{Kind: KindDOMContract, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or KindUnknown when err is not an SDK error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}
