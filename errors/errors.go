// Package errors defines the error taxonomy shared by every layer of the
// package serializer.
//
// Each failure category is a [Code].  A Code is itself an error value so that
// callers can test for a category without type assertions:
//
//	if errors.Is(err, xlsxerrors.Decode) { ... }
//
// Location context (part name, element path, attribute name, offending text)
// travels in [Error].
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code identifies one category of failure.
type Code string

const (
	// MalformedArchive: not a valid zip archive, or a mandatory package
	// entry ([Content_Types].xml, _rels/.rels) is missing or unreadable.
	MalformedArchive Code = "malformed-archive"
	// MalformedXML: a part is not well-formed XML.
	MalformedXML Code = "malformed-xml"
	// SchemaViolation: an element or attribute the schema forbids is present,
	// or a required one is missing.
	SchemaViolation Code = "schema-violation"
	// Decode: attribute or element text does not match its declared kind.
	Decode Code = "decode"
	// DanglingRelationship: a relationship reference has no matching entry.
	DanglingRelationship Code = "dangling-relationship"
	// UnsupportedContentType: a part's content type has no registered reader.
	UnsupportedContentType Code = "unsupported-content-type"
)

// Error implements error so a Code can be the target of errors.Is.
func (c Code) Error() string { return string(c) }

// Error is a structured failure with enough context to locate the problem.
type Error struct {
	Code Code
	// Message is a short human-readable description.
	Message string
	// Part is the package part name, e.g. "xl/workbook.xml".
	Part string
	// Path is the element path inside the part, e.g.
	// "/pivotCacheDefinition/cacheFields/cacheField[2]".
	Path string
	// Attr is the attribute name, when the failure concerns one.
	Attr string
	// Text is the offending lexical value, if any.
	Text string
	// Expected names the declared type or the accepted values.
	Expected string
	Line     int
	Column   int
	// Err is the underlying cause, if any.
	Err error
}

// New returns an Error with the given code and message.
func New(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap returns an Error with the given code wrapping cause.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Error formats the code, message and whatever location context is set.
func (e *Error) Error() string {
	if e == nil {
		return "xlsx error <nil>"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "[%s] %s", e.Code, e.Message)
	if e.Part != "" {
		fmt.Fprintf(&b, " in part %s", e.Part)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	if e.Attr != "" {
		fmt.Fprintf(&b, " attribute %q", e.Attr)
	}
	if e.Text != "" || e.Code == Decode {
		fmt.Fprintf(&b, " value %q", e.Text)
	}
	if e.Expected != "" {
		fmt.Fprintf(&b, " (expected %s)", e.Expected)
	}
	if e.Line > 0 {
		fmt.Fprintf(&b, " (line %d, column %d)", e.Line, e.Column)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// Is reports whether target is this error's Code.
func (e *Error) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.Code
}

// In fills the part name when it is not already set and returns e.
func (e *Error) In(part string) *Error {
	if e.Part == "" {
		e.Part = part
	}
	return e
}

// At fills the element path when it is not already set and returns e.
func (e *Error) At(path string) *Error {
	if e.Path == "" {
		e.Path = path
	}
	return e
}

// CodeOf returns the Code of the first *Error in err's chain, or "" when
// there is none.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var c Code
	if errors.As(err, &c) {
		return c
	}
	return ""
}

// As is a convenience wrapper around errors.As for *Error.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}
