package handlers

import (
	"context"
	"errors"
	"net/http"

	"tryon/internal/domain"
	"tryon/internal/transform"
	"tryon/internal/tryon"
)

// fail maps a pipeline error onto the HTTP error envelope.
func (a *App) fail(w http.ResponseWriter, r *http.Request, err error) {
	code, errCode := statusFor(err)
	resp := errorResponse{Error: errCode, Message: err.Error()}

	var perr *domain.PersistenceError
	if errors.As(err, &perr) {
		resp.GeneratedURL = perr.GeneratedURL
	}
	if code >= http.StatusInternalServerError {
		a.Logger.Error().Err(err).Str("path", r.URL.Path).Int("status", code).Msg("request failed")
		if code == http.StatusInternalServerError && perr == nil {
			resp.Message = "internal error"
		}
	}
	if errors.Is(err, domain.ErrFetch) && perr == nil {
		resp.Message = "failed to fetch source image"
	}
	a.json(w, code, resp)
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrFeatureDisabled):
		return http.StatusForbidden, "feature_disabled"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, domain.ErrQuotaExceeded):
		return http.StatusTooManyRequests, "quota_exceeded"
	case errors.Is(err, domain.ErrMissingGarmentImage):
		return http.StatusBadRequest, "missing_garment_image"
	case errors.Is(err, transform.ErrImageTooLarge):
		return http.StatusRequestEntityTooLarge, "image_too_large"
	case errors.Is(err, domain.ErrNoBaseModel):
		return http.StatusBadRequest, "no_base_model"
	case errors.Is(err, domain.ErrProductNotFound), errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrPersistence):
		return http.StatusInternalServerError, "persistence_failed"
	case errors.Is(err, domain.ErrProvider), errors.Is(err, domain.ErrFetch):
		return http.StatusBadGateway, "upstream_failed"
	case errors.Is(err, tryon.ErrProviderNotConfigured):
		return http.StatusServiceUnavailable, "provider_not_configured"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "timeout"
	default:
		return http.StatusInternalServerError, "internal"
	}
}
