package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"tryon/internal/domain"
	"tryon/internal/storage"
	"tryon/internal/tryon"
)

const multipartMemory = 8 << 20

type userTryOnForm struct {
	ProductID string `validate:"required,max=128"`
	Region    string `validate:"omitempty,oneof=upper lower full belt"`
	Strategy  string `validate:"omitempty,oneof=auto inpaint viton stability tryon"`
}

type galleryItem struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId,omitempty"`
	URL       string    `json:"url"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserTryOn dresses the caller's own photo. The photo must arrive as the
// "file" multipart part; remote photo URLs are not accepted so customers
// cannot make the server fetch arbitrary hosts.
func (a *App) UserTryOn(w http.ResponseWriter, r *http.Request) {
	customerID := a.currentCustomerID(r)
	if customerID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing customer context")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, a.MaxUploadBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid multipart form")
		return
	}
	form := userTryOnForm{
		ProductID: strings.TrimSpace(r.FormValue("productId")),
		Region:    strings.TrimSpace(r.FormValue("region")),
		Strategy:  strings.TrimSpace(r.FormValue("strategy")),
	}
	if err := a.validate.Struct(form); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", validationMessage(err))
		return
	}
	strategy, err := tryon.ParseStrategy(form.Strategy)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if r.FormValue("imageUrl") != "" {
		a.error(w, http.StatusBadRequest, "bad_request", "imageUrl is not accepted; upload the photo as file")
		return
	}
	baseURL, err := a.storeUpload(r, customerID)
	if err != nil {
		var herr *httpError
		if errors.As(err, &herr) {
			a.error(w, herr.code, herr.errCode, herr.msg)
			return
		}
		a.fail(w, r, err)
		return
	}

	res, err := a.Pipeline.DressUser(r.Context(), tryon.UserRequest{
		ProductID:    form.ProductID,
		CustomerID:   customerID,
		BaseImageURL: baseURL,
		Region:       domain.Region(form.Region),
		Strategy:     strategy,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toGenerationResponse(form.ProductID, res))
}

type httpError struct {
	code    int
	errCode string
	msg     string
}

func (e *httpError) Error() string { return e.msg }

// storeUpload writes the uploaded body photo privately and returns its URL.
func (a *App) storeUpload(r *http.Request, customerID string) (string, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return "", &httpError{http.StatusBadRequest, "bad_request", "file is required"}
	}
	defer file.Close()
	if header.Size > a.MaxUploadBytes {
		return "", &httpError{http.StatusRequestEntityTooLarge, "too_large", "photo exceeds upload limit"}
	}
	data, err := io.ReadAll(io.LimitReader(file, a.MaxUploadBytes+1))
	if err != nil {
		return "", &httpError{http.StatusBadRequest, "bad_request", "failed to read file"}
	}
	if int64(len(data)) > a.MaxUploadBytes {
		return "", &httpError{http.StatusRequestEntityTooLarge, "too_large", "photo exceeds upload limit"}
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return "", &httpError{http.StatusUnsupportedMediaType, "unsupported_media_type", "file must be an image"}
	}
	if a.Store == nil {
		return "", &httpError{http.StatusServiceUnavailable, "storage_not_configured", "uploads are not available"}
	}
	url, err := a.Store.Put(r.Context(), storage.UserUploadKey(customerID, contentType), data, contentType, storage.Private)
	if err != nil {
		return "", &domain.PersistenceError{Stage: "upload", Err: err}
	}
	a.Logger.Debug().Str("customer_id", customerID).Int("bytes", len(data)).Str("content_type", contentType).Msg("customer photo stored")
	return url, nil
}

// Gallery lists the caller's try-on photos, newest first.
func (a *App) Gallery(w http.ResponseWriter, r *http.Request) {
	customerID := a.currentCustomerID(r)
	if customerID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing customer context")
		return
	}
	photos, err := a.Pipeline.Gallery(r.Context(), customerID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	items := make([]galleryItem, 0, len(photos))
	for _, p := range photos {
		item := galleryItem{ID: p.ID, URL: p.ImageURL, Provider: p.ProviderTag, CreatedAt: p.CreatedAt}
		if p.ProductID != nil {
			item.ProductID = *p.ProductID
		}
		items = append(items, item)
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// DeleteUserPhoto removes one of the caller's photos. Photos owned by other
// customers are reported as not found.
func (a *App) DeleteUserPhoto(w http.ResponseWriter, r *http.Request) {
	customerID := a.currentCustomerID(r)
	if customerID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized", "missing customer context")
		return
	}
	photoID := chi.URLParam(r, "photo_id")
	if photoID == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "photo_id required")
		return
	}
	if _, err := uuid.Parse(photoID); err != nil {
		a.error(w, http.StatusNotFound, "not_found", "photo not found")
		return
	}
	ok, err := a.Pipeline.DeleteUserPhoto(r.Context(), photoID, customerID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "photo not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
