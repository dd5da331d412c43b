package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"

	"tryon/internal/domain"
	"tryon/internal/infra"
	"tryon/internal/middleware"
	"tryon/internal/storage"
	"tryon/internal/tryon"
)

// Pipeline is the generation surface the handlers drive. *tryon.Orchestrator
// implements it.
type Pipeline interface {
	DressProduct(ctx context.Context, req tryon.Request) (*tryon.Result, error)
	DressUser(ctx context.Context, req tryon.UserRequest) (*tryon.Result, error)
	GenerateCatalogImage(ctx context.Context, productID, adminToken string) (*tryon.Result, error)
	GenerateBaseModels(ctx context.Context, adminToken string, count int) ([]domain.BaseModelImage, error)
	Refresh(ctx context.Context, req tryon.BatchRequest) (*tryon.BatchResult, error)
	Gallery(ctx context.Context, customerID string) ([]domain.GeneratedPhoto, error)
	DeleteUserPhoto(ctx context.Context, photoID, customerID string) (bool, error)
	Usage(ctx context.Context, adminToken string) (tryon.UsageReport, error)
}

var _ Pipeline = (*tryon.Orchestrator)(nil)

// App carries the handler dependencies.
type App struct {
	Pipeline       Pipeline
	Store          storage.Store
	Logger         infra.Logger
	MaxUploadBytes int64

	// Ping reports backing store health for /v1/healthz. Optional.
	Ping func(ctx context.Context) error

	validate *validator.Validate
}

// DefaultMaxUploadBytes bounds customer photo uploads when the config sets none.
const DefaultMaxUploadBytes = 10 << 20

func NewApp(pipeline Pipeline, store storage.Store, logger infra.Logger, maxUpload int64) *App {
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &App{
		Pipeline:       pipeline,
		Store:          store,
		Logger:         infra.Component(logger, "http"),
		MaxUploadBytes: maxUpload,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error        string `json:"error"`
	Message      string `json:"message"`
	GeneratedURL string `json:"generatedUrl,omitempty"`
}

func (a *App) error(w http.ResponseWriter, code int, errCode, message string) {
	a.json(w, code, errorResponse{Error: errCode, Message: message})
}

func (a *App) currentCustomerID(r *http.Request) string {
	return middleware.CustomerIDFromContext(r.Context())
}

// adminToken prefers the request body value and falls back to X-Admin-Token.
func adminToken(r *http.Request, body string) string {
	if v := strings.TrimSpace(body); v != "" {
		return v
	}
	return strings.TrimSpace(r.Header.Get("X-Admin-Token"))
}

// decode reads a JSON body into dst and validates it.
func (a *App) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok || len(verrs) == 0 {
		return "invalid payload"
	}
	parts := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		parts = append(parts, fe.Field()+" failed "+fe.Tag())
	}
	return strings.Join(parts, "; ")
}
