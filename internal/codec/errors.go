package codec

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownFileType = errors.New("unknown file type")
	ErrUnsupported     = errors.New("unsupported format")
	ErrRawData         = errors.New("raw data error")
	ErrSomaError       = errors.New("soma error")
	ErrWriter          = errors.New("writer error")
)

// ParseError locates a reader failure in its source file
type ParseError struct {
	Path string
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s:%d: %v", e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func parseErr(path string, line int, kind error, format string, args ...any) error {
	return &ParseError{Path: path, Line: line, Err: fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))}
}

func writerErr(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrWriter, fmt.Sprintf(format, args...))
}
