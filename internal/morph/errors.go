package morph

import "errors"

// Error kinds
var (
	ErrStructure   = errors.New("structure error")
	ErrDataShape   = errors.New("data shape error")
	ErrUnsupported = errors.New("unsupported operation")
)

// Structural errors, all matching ErrStructure
var (
	ErrSomaType   = structural("cannot create section with type soma")
	ErrNoParent   = structural("root section has no parent")
	ErrUnknownID  = structural("unknown section id")
	ErrForeignRef = structural("section belongs to another container")
)

type kindError struct {
	kind error
	msg  string
}

func structural(msg string) error {
	return &kindError{kind: ErrStructure, msg: msg}
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Unwrap() error { return e.kind }
