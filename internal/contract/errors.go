package contract

import (
	"errors"
	"fmt"
)

// Error kinds. Match them with errors.Is; the concrete value returned by
// a component is an *Error carrying the failing operation and the cause.
var (
	ErrExtraction          = errors.New("no extractable text")
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrClassification      = errors.New("classification failed")
	ErrSummarization       = errors.New("summarization failed")
	ErrTranslation         = errors.New("translation failed")
	ErrSynthesis           = errors.New("speech synthesis failed")
	ErrEmptyInput          = errors.New("text is too short or empty")
)

type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Fail builds an *Error. A nil cause is allowed.
func Fail(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// KindOf reports the error kind carried by err, or nil when err is not a
// component error.
func KindOf(err error) error {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return nil
}
