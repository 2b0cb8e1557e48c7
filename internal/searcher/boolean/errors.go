package boolean

import (
	"fmt"

	apperrors "github.com/Adithya-Monish-Kumar-K/retrieval-engine/pkg/errors"
)

// SyntaxError reports a malformed query. Pos is the byte offset of the
// offending token.
type SyntaxError struct {
	Query   string
	Pos     int
	Message string
}

func newSyntaxError(query string, pos int, format string, args ...any) *SyntaxError {
	return &SyntaxError{Query: query, Pos: pos, Message: fmt.Sprintf(format, args...)}
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at position %d: %s", e.Pos, e.Message)
}

func (e *SyntaxError) Unwrap() error {
	return apperrors.ErrQuerySyntax
}
