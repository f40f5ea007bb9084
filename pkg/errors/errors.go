// Package errors defines the error taxonomy shared by the tree builder,
// extractors and analysis engines.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies an Error.
type Kind string

const (
	KindIO                  Kind = "io"
	KindParse               Kind = "parse"
	KindAnalysis            Kind = "analysis"
	KindClustering          Kind = "clustering"
	KindConfig              Kind = "config"
	KindPathNotFound        Kind = "path_not_found"
	KindUnsupportedLanguage Kind = "unsupported_language"
)

// Sentinels for errors.Is. An *Error matches the sentinel of its kind.
var (
	ErrIO                  = &Error{Kind: KindIO}
	ErrParse               = &Error{Kind: KindParse}
	ErrAnalysis            = &Error{Kind: KindAnalysis}
	ErrClustering          = &Error{Kind: KindClustering}
	ErrConfig              = &Error{Kind: KindConfig}
	ErrPathNotFound        = &Error{Kind: KindPathNotFound}
	ErrUnsupportedLanguage = &Error{Kind: KindUnsupportedLanguage}
)

// Error is a classified failure with optional path context.
type Error struct {
	Kind    Kind
	Path    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}

	switch e.Kind {
	case KindIO:
		if e.Path != "" {
			return fmt.Sprintf("io error: %s: %s", e.Path, msg)
		}
		return "io error: " + msg
	case KindParse:
		return fmt.Sprintf("parse error in %s: %s", e.Path, msg)
	case KindAnalysis:
		return "analysis error: " + msg
	case KindClustering:
		return "clustering error: " + msg
	case KindConfig:
		return "configuration error: " + msg
	case KindPathNotFound:
		return "path not found: " + e.Path
	case KindUnsupportedLanguage:
		return "unsupported language: " + msg
	default:
		return msg
	}
}

// Unwrap returns the underlying error for errors.Is/As.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind. A target with
// a path or message set must match those too.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind != e.Kind {
		return false
	}
	if t.Path != "" && t.Path != e.Path {
		return false
	}
	return t.Message == "" || t.Message == e.Message
}

// IO wraps a filesystem failure for path.
func IO(path string, err error) *Error {
	return &Error{Kind: KindIO, Path: path, Err: err}
}

// Parse reports malformed source in path.
func Parse(path, message string) *Error {
	return &Error{Kind: KindParse, Path: path, Message: message}
}

// Analysis reports a broken invariant during traversal.
func Analysis(format string, args ...any) *Error {
	return &Error{Kind: KindAnalysis, Message: fmt.Sprintf(format, args...)}
}

// Clustering reports a clustering backend failure.
func Clustering(format string, args ...any) *Error {
	return &Error{Kind: KindClustering, Message: fmt.Sprintf(format, args...)}
}

// Config reports an invalid configuration. The message names the violated rule.
func Config(format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Message: fmt.Sprintf(format, args...)}
}

// WrapConfig wraps a loading or decoding failure as a Config error.
func WrapConfig(err error, format string, args ...any) *Error {
	return &Error{Kind: KindConfig, Message: fmt.Sprintf(format, args...) + ": " + err.Error(), Err: err}
}

// PathNotFound reports a missing root path.
func PathNotFound(path string) *Error {
	return &Error{Kind: KindPathNotFound, Path: path}
}

// UnsupportedLanguage reports that no extractor exists for ext.
func UnsupportedLanguage(ext string) *Error {
	return &Error{Kind: KindUnsupportedLanguage, Message: ext}
}

// KindOf returns the kind of the first *Error in err's chain, or "" if none.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}
