package ports

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Amund211/gw2lib/internal/domain"
	"github.com/Amund211/gw2lib/internal/logging"
	"github.com/Amund211/gw2lib/internal/reporting"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Cause   string `json:"cause"`
}

// statusForError maps errors from the client to the status and cause returned
// to our own callers
func statusForError(err error) (int, string) {
	var apiErr *domain.APIError

	switch {
	case errors.Is(err, errInvalidID), errors.Is(err, errInvalidQuery):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrUnsupportedEndpointQuery):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrNotAuthenticated):
		return http.StatusForbidden, "no api key configured"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusBadGateway, "api key rejected upstream"
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusServiceUnavailable, "rate limited upstream"
	case errors.As(err, &apiErr):
		if apiErr.StatusCode == http.StatusNotFound {
			return http.StatusNotFound, "not found"
		}
		return http.StatusBadGateway, fmt.Sprintf("upstream returned %d", apiErr.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timed out"
	case errors.Is(err, domain.ErrTransport),
		errors.Is(err, domain.ErrDecode),
		errors.Is(err, domain.ErrUnexpectedEntity),
		errors.Is(err, domain.ErrChannelClosed):
		return http.StatusBadGateway, "upstream unavailable"
	}
	return http.StatusInternalServerError, "internal server error"
}

func writeError(ctx context.Context, w http.ResponseWriter, err error) {
	statusCode, cause := statusForError(err)

	logger := logging.FromContext(ctx)
	if statusCode >= 500 {
		logger.ErrorContext(ctx, "Request failed", "statusCode", statusCode, "error", err.Error())
	} else {
		logger.InfoContext(ctx, "Request failed", "statusCode", statusCode, "error", err.Error())
	}

	writeErrorResponse(ctx, w, statusCode, cause)
}

func writeErrorResponse(ctx context.Context, w http.ResponseWriter, statusCode int, cause string) {
	data, err := json.Marshal(errorResponse{Success: false, Cause: cause})
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to marshal error response: %w", err))
		statusCode = http.StatusInternalServerError
		data = []byte(`{"success":false,"cause":"internal server error"}`)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	w.Write(data)
}

func writeJSON(ctx context.Context, w http.ResponseWriter, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		reporting.Report(ctx, fmt.Errorf("failed to marshal response: %w", err))
		writeErrorResponse(ctx, w, http.StatusInternalServerError, "internal server error")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.FromContext(ctx).ErrorContext(ctx, "Failed to write response", "error", err)
	}
}
