package grammar

import (
	"errors"
	"fmt"
)

// ErrUnsupportedLanguage is matched by every error reporting an unknown
// language identifier.
var ErrUnsupportedLanguage = errors.New("unsupported language")

type UnsupportedLanguageError struct {
	Language string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language %q", e.Language)
}

func (e *UnsupportedLanguageError) Is(target error) bool {
	return target == ErrUnsupportedLanguage
}
