package backend

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/learnhub-academy/learnhub/internal/platform/httpx"
)

// HTTPError translates a backend failure into the gateway's HTTP error
// vocabulary so handlers can pass it straight to httpx.RespondError.
func HTTPError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, ErrUnauthorized):
		return fmt.Errorf("%w: %v", httpx.ErrUnauthorized, err)
	case errors.Is(err, ErrForbidden):
		return fmt.Errorf("%w: %v", httpx.ErrForbidden, err)
	case errors.Is(err, ErrNotFound):
		return fmt.Errorf("%w: %v", httpx.ErrNotFound, err)
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		if apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnprocessableEntity {
			return fmt.Errorf("%w: %s", httpx.ErrValidation, apiErr.Message)
		}
	}
	return fmt.Errorf("%w: %v", httpx.ErrUpstream, err)
}
