package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"unicode/utf8"
)

const maxDetailLength = 512

type CustomizedError struct {
	cause   error
	message string
	trace   []string
	wrap    error
	code    int
	data    map[string]interface{}
}

func (e *CustomizedError) WithData(data map[string]interface{}) *CustomizedError {
	e.data = data
	return e
}

func (e *CustomizedError) Data() map[string]interface{} {
	return e.data
}

func (e *CustomizedError) Code(c int) *CustomizedError {
	e.code = c
	return e
}

func (e *CustomizedError) GetCode() int {
	return e.code
}

func New(trace, message string, err error) *CustomizedError {
	code := http.StatusInternalServerError
	return &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
		code:    code,
	}
}

func (e *CustomizedError) Trace(trace string) *CustomizedError {
	e.trace = append(e.trace, trace)
	return e
}

func Wrap(err error, trace, message string) *CustomizedError {
	ce := &CustomizedError{
		cause:   err,
		message: message,
		trace:   []string{trace},
		wrap:    err,
		code:    http.StatusInternalServerError,
	}
	if income, ok := err.(*CustomizedError); ok {
		ce.code = income.code
	}
	return ce
}

func Trace(trace string, err error) *CustomizedError {
	if ce, ok := err.(*CustomizedError); ok {
		ce.trace = append(ce.trace, trace)
		return ce
	}
	return Wrap(err, trace, err.Error())
}

// Message returns the i18n key, or the cause text when no key was given.
func (e *CustomizedError) Message() string {
	if e.message == "" {
		if e.cause == nil {
			return ""
		}
		return e.cause.Error()
	}
	return e.message
}

// Detail is the cause text trimmed for client facing debug output.
func (e *CustomizedError) Detail() string {
	var detail string
	switch {
	case e.cause != nil:
		if ce, ok := e.cause.(*CustomizedError); ok {
			detail = ce.Detail()
		} else {
			detail = e.cause.Error()
		}
	default:
		detail = e.message
	}
	return Truncate(detail, maxDetailLength)
}

func (e *CustomizedError) Unwrap() error {
	return e.cause
}

func (e *CustomizedError) TracePath() string {
	return strings.Join(e.trace, "->")
}

func (e *CustomizedError) Error() string {
	otherDetails := `""`
	if ce, ok := e.wrap.(*CustomizedError); ok {
		otherDetails = ce.Error()
	} else if e.wrap != nil {
		otherDetails = fmt.Sprint("\"", e.wrap.Error(), "\"")
	}
	return fmt.Sprintf(`{"trace":"%s","code":%d,"msg":"%s","error":"%v","wrapd":%s}`, e.TracePath(), e.code, e.message, e.cause, otherDetails)
}

func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

// Truncate cuts s to at most n bytes without splitting a utf-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}
