package search

import (
	"errors"
	"fmt"
	"strings"
)

// AllSubQueriesFailedError is returned when no sub-query of a search succeeded.
// It unwraps to every sub-query error, so errors.Is matches any of their sentinels.
type AllSubQueriesFailedError struct {
	Errors []error
}

func (e *AllSubQueriesFailedError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("all %d sub-queries failed: %s", len(e.Errors), strings.Join(msgs, "; "))
}

func (e *AllSubQueriesFailedError) Unwrap() []error { return e.Errors }

// IsAllFailed reports whether err is an AllSubQueriesFailedError.
func IsAllFailed(err error) bool {
	var target *AllSubQueriesFailedError
	return errors.As(err, &target)
}
