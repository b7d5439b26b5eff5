// Package handler provides HTTP handlers for catalog and order operations.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	catalogerrors "github.com/abgdnv/storefront/internal/catalog/errors"
	"github.com/abgdnv/storefront/internal/catalog/service"
	"github.com/abgdnv/storefront/internal/platform/validate"
	"github.com/abgdnv/storefront/internal/platform/web"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// CatalogAPI defines HTTP handlers for catalog and order endpoints.
type CatalogAPI interface {
	ListProducts(w http.ResponseWriter, r *http.Request)
	GetProduct(w http.ResponseWriter, r *http.Request)
	CreateProduct(w http.ResponseWriter, r *http.Request)
	RemoveProduct(w http.ResponseWriter, r *http.Request)
	SetPromotion(w http.ResponseWriter, r *http.Request)
	SetActive(w http.ResponseWriter, r *http.Request)
	Stock(w http.ResponseWriter, r *http.Request)
	PlaceOrder(w http.ResponseWriter, r *http.Request)
	ListReceipts(w http.ResponseWriter, r *http.Request)

	HealthCheck(w http.ResponseWriter, r *http.Request)
}

type api struct {
	service  service.CatalogService
	validate *validator.Validate
	logger   *slog.Logger
}

// NewAPI creates a new instance of CatalogAPI with the provided service.
func NewAPI(service service.CatalogService, logger *slog.Logger) CatalogAPI {
	return &api{
		service:  service,
		validate: validate.New(),
		logger:   logger.With("component", "api"),
	}
}

// ListProducts returns the active products.
func (a *api) ListProducts(w http.ResponseWriter, r *http.Request) {
	list, err := a.service.ListProducts(r.Context())
	if err != nil {
		a.logger.ErrorContext(r.Context(), "Error retrieving product list", "error", err)
		web.RespondError(w, a.logger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	a.logger.DebugContext(r.Context(), "Successfully retrieved product list", "count", len(list))
	web.RespondJSON(w, a.logger, http.StatusOK, list)
}

// GetProduct retrieves a product by its ID.
func (a *api) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, a.logger)
	if !ok {
		return
	}
	found, err := a.service.GetProduct(r.Context(), id)
	if err != nil {
		a.respondServiceError(w, r, id, err, "retrieve")
		return
	}
	web.RespondJSON(w, a.logger, http.StatusOK, found)
}

// CreateProduct handles the creation of a new product.
func (a *api) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var dto service.ProductCreateDto
	if !a.decodeValidate(w, r, &dto) {
		return
	}
	created, err := a.service.CreateProduct(r.Context(), dto)
	if err != nil {
		switch {
		case errors.Is(err, catalogerrors.ErrPromotionNotFound):
			a.logger.WarnContext(r.Context(), "Promotion not found", "promotion", dto.Promotion)
			web.RespondError(w, a.logger, http.StatusNotFound, fmt.Sprintf("Promotion %q not found", dto.Promotion))
		case errors.Is(err, catalogerrors.ErrValidation):
			a.logger.WarnContext(r.Context(), "Invalid product", "error", err)
			web.RespondError(w, a.logger, http.StatusBadRequest, err.Error())
		default:
			a.logger.ErrorContext(r.Context(), "Error creating product", "error", err)
			web.RespondError(w, a.logger, http.StatusInternalServerError, "Failed to create product")
		}
		return
	}
	a.logger.InfoContext(r.Context(), "Product created successfully", "ID", created.ID, "Name", created.Name)
	web.RespondJSON(w, a.logger, http.StatusCreated, created)
}

// RemoveProduct removes a product by its ID.
func (a *api) RemoveProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, a.logger)
	if !ok {
		return
	}
	if err := a.service.RemoveProduct(r.Context(), id); err != nil {
		a.respondServiceError(w, r, id, err, "remove")
		return
	}
	a.logger.InfoContext(r.Context(), "Product removed successfully", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// SetPromotion attaches a promotion to a product or detaches it.
func (a *api) SetPromotion(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, a.logger)
	if !ok {
		return
	}
	var dto service.PromotionUpdateDto
	if !a.decodeValidate(w, r, &dto) {
		return
	}
	updated, err := a.service.SetPromotion(r.Context(), id, dto.Name)
	if err != nil {
		if errors.Is(err, catalogerrors.ErrPromotionNotFound) {
			a.logger.WarnContext(r.Context(), "Promotion not found", "promotion", dto.Name)
			web.RespondError(w, a.logger, http.StatusNotFound, fmt.Sprintf("Promotion %q not found", dto.Name))
			return
		}
		a.respondServiceError(w, r, id, err, "update promotion of")
		return
	}
	a.logger.InfoContext(r.Context(), "Promotion updated successfully", "ID", id, "promotion", updated.Promotion)
	web.RespondJSON(w, a.logger, http.StatusOK, updated)
}

// SetActive activates or deactivates a product.
func (a *api) SetActive(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, a.logger)
	if !ok {
		return
	}
	var dto service.ActiveUpdateDto
	if !a.decodeValidate(w, r, &dto) {
		return
	}
	updated, err := a.service.SetActive(r.Context(), id, *dto.Active)
	if err != nil {
		a.respondServiceError(w, r, id, err, "update")
		return
	}
	a.logger.InfoContext(r.Context(), "Product activation updated", "ID", id, "active", updated.Active)
	web.RespondJSON(w, a.logger, http.StatusOK, updated)
}

// Stock reports the total quantity in stock.
func (a *api) Stock(w http.ResponseWriter, r *http.Request) {
	stock, err := a.service.TotalQuantity(r.Context())
	if err != nil {
		a.logger.ErrorContext(r.Context(), "Error computing stock", "error", err)
		web.RespondError(w, a.logger, http.StatusInternalServerError, "Failed to compute stock")
		return
	}
	web.RespondJSON(w, a.logger, http.StatusOK, stock)
}

// PlaceOrder executes a shopping list. A line that fails is reported in the body with status 200.
func (a *api) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var dto service.OrderCreateDto
	if !a.decodeValidate(w, r, &dto) {
		return
	}
	result, err := a.service.PlaceOrder(r.Context(), dto)
	if err != nil {
		a.logger.ErrorContext(r.Context(), "Error placing order", "error", err)
		web.RespondError(w, a.logger, http.StatusInternalServerError, "Failed to place order")
		return
	}
	web.RespondJSON(w, a.logger, http.StatusOK, result)
}

// ListReceipts returns journaled orders, newest first.
func (a *api) ListReceipts(w http.ResponseWriter, r *http.Request) {
	limit, ok := parseValidate(r, w, a.logger, "limit", gt(0))
	if !ok {
		return
	}
	offset, ok := parseValidate(r, w, a.logger, "offset", gte(0))
	if !ok {
		return
	}
	a.logger.DebugContext(r.Context(), "Received request to list receipts", "limit", limit, "offset", offset)
	list, err := a.service.ListReceipts(r.Context(), offset, limit)
	if err != nil {
		a.logger.ErrorContext(r.Context(), "Error retrieving receipts", "error", err)
		web.RespondError(w, a.logger, http.StatusInternalServerError, "Failed to fetch receipts")
		return
	}
	web.RespondJSON(w, a.logger, http.StatusOK, list)
}

// HealthCheck is a simple health check endpoint.
func (a *api) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}

// decodeValidate decodes the JSON body into dst and validates it, writing the error response on failure.
func (a *api) decodeValidate(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		a.logger.ErrorContext(r.Context(), "Error decoding request body", "error", err)
		web.RespondError(w, a.logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := a.validate.Struct(dst); err != nil {
		if fields := validate.Fields(err); fields != nil {
			a.logger.WarnContext(r.Context(), "Validation errors occurred", "errors", fields)
			web.RespondJSON(w, a.logger, http.StatusBadRequest, map[string]any{"validation_errors": fields})
			return false
		}
		a.logger.ErrorContext(r.Context(), "Error validating request body", "error", err)
		web.RespondError(w, a.logger, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

func (a *api) respondServiceError(w http.ResponseWriter, r *http.Request, id uuid.UUID, err error, action string) {
	if errors.Is(err, catalogerrors.ErrProductNotFound) {
		a.logger.WarnContext(r.Context(), "Product not found", "ID", id)
		web.RespondError(w, a.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
		return
	}
	a.logger.ErrorContext(r.Context(), "Error handling product", "ID", id, "action", action, "error", err)
	web.RespondError(w, a.logger, http.StatusInternalServerError, fmt.Sprintf("Failed to %s product with ID %s", action, id))
}

func parseValidate(r *http.Request, w http.ResponseWriter, logger *slog.Logger, key string, pValidator ParamValidator) (int32, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		web.RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("%s url parameter is required", key))
		return 0, false
	}
	intValue, err := strconv.ParseInt(value, 10, 32)
	if err != nil || !pValidator(intValue) {
		web.RespondError(w, logger, http.StatusBadRequest, fmt.Sprintf("Invalid %s number: %s", key, value))
		return 0, false
	}
	return int32(intValue), true
}

// ParamValidator is a function type that validates a parameter.
type ParamValidator func(valueToTest int64) bool

// gte returns a ParamValidator accepting values of at least bound.
func gte(bound int64) ParamValidator {
	return func(v int64) bool { return v >= bound }
}

// gt returns a ParamValidator accepting values above bound.
func gt(bound int64) ParamValidator {
	return func(v int64) bool { return v > bound }
}
