package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"product-catalog/internal/model"
	"product-catalog/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
)

// defaultPopularLimit is used when GET /products/popular has no limit.
const defaultPopularLimit = 10

// ProductHandler handles product-related HTTP requests.
type ProductHandler struct {
	service  service.ProductService
	validate *validator.Validate
	logger   zerolog.Logger
}

// NewProductHandler creates a new product handler.
func NewProductHandler(service service.ProductService, logger zerolog.Logger) *ProductHandler {
	return &ProductHandler{
		service:  service,
		validate: newValidator(),
		logger:   logger.With().Str("handler", "product").Logger(),
	}
}

// Create handles POST /products requests.
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, err.Error(), h.logger)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidationFailed, validationMessage(err), h.logger)
		return
	}

	product, err := h.service.Create(r.Context(), &req)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, product)
}

// Update handles PUT /products/{id} requests.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	var req model.UpdateProductRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidJSON, err.Error(), h.logger)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeValidationFailed, validationMessage(err), h.logger)
		return
	}

	product, err := h.service.Update(r.Context(), id, req.Patch())
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, product)
}

// Delete handles DELETE /products/{id} requests.
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.productID(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// FindAll handles GET /products requests with search, sort and pagination.
func (h *ProductHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	var opts model.FindOptions
	var err error

	if opts.Page, err = positiveIntParam(query.Get("page"), "page"); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, err.Error(), h.logger)
		return
	}
	if opts.Limit, err = positiveIntParam(query.Get("limit"), "limit"); err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, err.Error(), h.logger)
		return
	}

	if sortBy := query.Get("sortBy"); sortBy != "" {
		opts.SortBy = model.SortField(sortBy)
		if !opts.SortBy.Valid() {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter,
				fmt.Sprintf("sortBy must be one of id, name, description, stock, createdAt, itemsSold, hasPendingOrders; got '%s'", sortBy), h.logger)
			return
		}
	}

	if sortOrder := query.Get("sortOrder"); sortOrder != "" {
		opts.SortOrder = model.SortOrder(sortOrder)
		if opts.SortOrder != model.SortAsc && opts.SortOrder != model.SortDesc {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter,
				fmt.Sprintf("sortOrder must be 'asc' or 'desc'; got '%s'", sortOrder), h.logger)
			return
		}
	}

	if search := query.Get("search"); search != "" {
		if err := json.Unmarshal([]byte(search), &opts.Search); err != nil {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter,
				"search must be a JSON object with optional string fields name and description", h.logger)
			return
		}
	}

	products, err := h.service.FindAll(r.Context(), opts)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// FindLowStock handles GET /products/lowStock?threshold= requests.
func (h *ProductHandler) FindLowStock(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("threshold")
	if raw == "" {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "threshold is required", h.logger)
		return
	}

	threshold, err := strconv.Atoi(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter, "threshold must be an integer", h.logger)
		return
	}

	products, err := h.service.FindLowStock(r.Context(), threshold)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// FindMostPopular handles GET /products/popular?limit= requests.
func (h *ProductHandler) FindMostPopular(w http.ResponseWriter, r *http.Request) {
	limit := defaultPopularLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		var err error
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter,
				"limit must be a non-negative integer", h.logger)
			return
		}
	}

	products, err := h.service.FindMostPopular(r.Context(), limit)
	if err != nil {
		writeServiceError(w, r, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, products)
}

// Health handles GET /health requests.
func (h *ProductHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// Ready handles GET /ready requests.
func (h *ProductHandler) Ready(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Ready(r.Context()); err != nil {
		h.logger.Error().Err(err).Msg("readiness check failed")
		writeError(w, r, http.StatusServiceUnavailable, model.ErrCodeNotReady, "product store is not ready", h.logger)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

// productID parses the {id} URL parameter, writing a 400 when it is not a
// positive integer.
func (h *ProductHandler) productID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		writeError(w, r, http.StatusBadRequest, model.ErrCodeInvalidParameter,
			fmt.Sprintf("product id must be a positive integer; got '%s'", raw), h.logger)
		return 0, false
	}
	return id, true
}

// positiveIntParam parses an optional query integer that must be at least 1.
// An empty value yields 0 so the store applies its default.
func positiveIntParam(raw, name string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 1 {
		return 0, fmt.Errorf("%s must be a positive integer", name)
	}
	return v, nil
}
