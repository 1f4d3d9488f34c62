package warning

import (
	"errors"
	"fmt"
)

// ErrRaised marks a warning that the handler turned into a hard failure
var ErrRaised = errors.New("warning raised as error")

// Error is returned by Emit when the handler is configured to raise warnings
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return ErrRaised }

// Handler receives recoverable conditions from morphology containers and codecs.
//
// A max warning count of 0 silences everything and a negative count means
// unlimited. When RaiseWarnings is set, Emit returns an *Error for every
// warning that is not ignored.
type Handler interface {
	Emit(kind Kind, msg string) error
	IsIgnored(kind Kind) bool
	SetIgnoredWarning(kind Kind, ignore bool)
	MaxWarningCount() int
	SetMaxWarningCount(n int)
	RaiseWarnings() bool
	SetRaiseWarnings(raise bool)
}

// ignoreSet is embedded by handlers for the ignore-list bookkeeping
type ignoreSet struct {
	ignored map[Kind]bool
}

func (s *ignoreSet) isIgnored(kind Kind) bool {
	return s.ignored[kind]
}

func (s *ignoreSet) setIgnored(kind Kind, ignore bool) {
	if s.ignored == nil {
		s.ignored = make(map[Kind]bool)
	}
	if ignore {
		s.ignored[kind] = true
	} else {
		delete(s.ignored, kind)
	}
}
