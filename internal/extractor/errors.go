package extractor

import (
	"errors"
	"fmt"
)

var (
	// ErrContainerUnreadable means the archive or document could not be
	// opened at all.
	ErrContainerUnreadable = errors.New("container cannot be opened")
	// ErrPasswordRequired means the document is encrypted and no secret was
	// supplied.
	ErrPasswordRequired = errors.New("password required")
	// ErrWrongPassword means the supplied secret did not decrypt the document.
	ErrWrongPassword = errors.New("wrong password")
)

// ExtractionError describes a failed extraction of a named file.
type ExtractionError struct {
	Name string
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Name == "" {
		return fmt.Sprintf("extraction failed: %v", e.Err)
	}
	return fmt.Sprintf("extracting %s: %v", e.Name, e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// unreadable wraps cause so that errors.Is(err, ErrContainerUnreadable) holds
// while keeping the underlying message.
func unreadable(name string, cause error) error {
	return &ExtractionError{Name: name, Err: fmt.Errorf("%w: %v", ErrContainerUnreadable, cause)}
}
