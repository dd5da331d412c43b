package handlers

import (
	"net/http"
	"time"

	"tryon/internal/domain"
	"tryon/internal/tryon"
)

type generateRequest struct {
	ProductID  string `json:"productId" validate:"required,max=128"`
	AdminToken string `json:"adminToken"`
}

type dressRequest struct {
	ProductID    string `json:"productId" validate:"required,max=128"`
	AdminToken   string `json:"adminToken"`
	BaseImageURL string `json:"baseImageUrl" validate:"omitempty,startswith=http|startswith=data:image/"`
	Region       string `json:"region" validate:"omitempty,oneof=upper lower full belt"`
	Strategy     string `json:"strategy" validate:"omitempty,oneof=auto inpaint viton text stability tryon openai img2img garment"`
}

type refreshRequest struct {
	AdminToken         string `json:"adminToken"`
	Force              bool   `json:"force"`
	MaxProducts        *int   `json:"maxProducts"`
	Mode               string `json:"mode" validate:"omitempty,oneof=tryon inpaint text stability openai"`
	GenerateBaseModels int    `json:"generateBaseModels" validate:"min=0,max=8"`
}

type baseModelRequest struct {
	AdminToken string `json:"adminToken"`
	Count      int    `json:"count" validate:"min=0,max=8"`
}

type generationResponse struct {
	URL          string `json:"url"`
	PhotoID      string `json:"photoId,omitempty"`
	ProductID    string `json:"productId"`
	Region       string `json:"region,omitempty"`
	Gender       string `json:"gender,omitempty"`
	Strategy     string `json:"strategy,omitempty"`
	Provider     string `json:"provider,omitempty"`
	Attempts     int    `json:"attempts"`
	UsedFallback bool   `json:"usedFallback"`
}

type baseModelDTO struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Gender string `json:"gender"`
}

type refreshResponse struct {
	Results    []tryon.ItemResult `json:"results"`
	Succeeded  int                `json:"succeeded"`
	BaseModels []baseModelDTO     `json:"baseModels,omitempty"`
}

type usageResponse struct {
	Day            string `json:"day"`
	Used           int    `json:"used"`
	DailyCap       int    `json:"dailyCap"`
	Remaining      int    `json:"remaining"`
	GeneratedToday int    `json:"generatedToday"`
}

// Generate renders a text-to-image catalog photo for one product.
func (a *App) Generate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if !a.decode(w, r, &req) {
		return
	}
	res, err := a.Pipeline.GenerateCatalogImage(r.Context(), req.ProductID, adminToken(r, req.AdminToken))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toGenerationResponse(req.ProductID, res))
}

// Dress runs the admin try-on for one product and replaces its catalog photo.
func (a *App) Dress(w http.ResponseWriter, r *http.Request) {
	var req dressRequest
	if !a.decode(w, r, &req) {
		return
	}
	strategy, err := tryon.ParseStrategy(req.Strategy)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	res, err := a.Pipeline.DressProduct(r.Context(), tryon.Request{
		ProductID:    req.ProductID,
		AdminToken:   adminToken(r, req.AdminToken),
		BaseImageURL: req.BaseImageURL,
		Region:       domain.Region(req.Region),
		Strategy:     strategy,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, toGenerationResponse(req.ProductID, res))
}

// Refresh generates catalog photos for a batch of products.
func (a *App) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !a.decode(w, r, &req) {
		return
	}
	mode, err := tryon.ParseBatchMode(req.Mode)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}
	res, err := a.Pipeline.Refresh(r.Context(), tryon.BatchRequest{
		AdminToken:         adminToken(r, req.AdminToken),
		Force:              req.Force,
		MaxProducts:        req.MaxProducts,
		Mode:               mode,
		GenerateBaseModels: req.GenerateBaseModels,
	})
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, refreshResponse{
		Results:    res.Results,
		Succeeded:  res.Succeeded(),
		BaseModels: toBaseModelDTOs(res.BaseModels),
	})
}

// BaseModels bootstraps stock base-model images.
func (a *App) BaseModels(w http.ResponseWriter, r *http.Request) {
	var req baseModelRequest
	if !a.decode(w, r, &req) {
		return
	}
	images, err := a.Pipeline.GenerateBaseModels(r.Context(), adminToken(r, req.AdminToken), req.Count)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	a.json(w, http.StatusOK, map[string]any{"items": toBaseModelDTOs(images)})
}

// Usage reports today's generation count against the ceiling.
func (a *App) Usage(w http.ResponseWriter, r *http.Request) {
	u, err := a.Pipeline.Usage(r.Context(), adminToken(r, ""))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	remaining := u.DailyCap - u.Used
	if remaining < 0 || u.DailyCap <= 0 {
		remaining = 0
	}
	a.json(w, http.StatusOK, usageResponse{
		Day:            time.Now().UTC().Format("2006-01-02"),
		Used:           u.Used,
		DailyCap:       u.DailyCap,
		Remaining:      remaining,
		GeneratedToday: u.GeneratedToday,
	})
}

func toGenerationResponse(productID string, res *tryon.Result) generationResponse {
	out := generationResponse{
		URL:          res.URL,
		ProductID:    productID,
		Region:       string(res.Region),
		Gender:       string(res.Gender),
		Strategy:     string(res.Strategy),
		Provider:     res.Provider,
		Attempts:     res.Attempts,
		UsedFallback: res.UsedFallback,
	}
	if res.Photo != nil {
		out.PhotoID = res.Photo.ID
	}
	return out
}

func toBaseModelDTOs(images []domain.BaseModelImage) []baseModelDTO {
	if len(images) == 0 {
		return nil
	}
	out := make([]baseModelDTO, 0, len(images))
	for _, img := range images {
		out = append(out, baseModelDTO{ID: img.ID, URL: img.URL, Gender: string(img.Gender)})
	}
	return out
}
