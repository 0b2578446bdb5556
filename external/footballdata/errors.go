package footballdata

import (
	"fmt"
	"net/http"

	"github.com/arkadyv/solkoff-board/internal/usecase"
)

// ProviderError is a non-2xx response that is not worth retrying. It
// unwraps to the usecase sentinel matching its status class so callers
// can branch with errors.Is without importing this package's types.
type ProviderError struct {
	StatusCode int
	Body       string
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider status=%d body=%s", e.StatusCode, e.Body)
}

func (e *ProviderError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden:
		return usecase.ErrUnauthorized
	case e.StatusCode >= 500:
		return usecase.ErrDependencyUnavailable
	default:
		return nil
	}
}

// RateLimitError means every retry attempt came back 429.
type RateLimitError struct {
	Attempts int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("provider rate limit persisted after %d attempts", e.Attempts)
}

func (e *RateLimitError) Unwrap() error {
	return usecase.ErrRateLimited
}
