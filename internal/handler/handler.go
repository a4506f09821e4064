// Package handler exposes the HTTP surface of the ordering service and
// maps domain errors to the client-facing error taxonomy.
package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Amoghsy/CampoBite/internal/domain/analytics"
	"github.com/Amoghsy/CampoBite/internal/domain/auth"
	"github.com/Amoghsy/CampoBite/internal/domain/coupon"
	"github.com/Amoghsy/CampoBite/internal/domain/menu"
	"github.com/Amoghsy/CampoBite/internal/domain/order"
	"github.com/Amoghsy/CampoBite/internal/notify"
)

// Config holds non-dependency handler configuration.
type Config struct {
	// DashboardCacheTTL bounds how stale a cached dashboard response
	// may be. Zero disables caching even when a Redis client is set.
	DashboardCacheTTL time.Duration
}

// Handler wires the domain services into HTTP routes.
type Handler struct {
	cfg       Config
	orders    *order.Service
	orderRepo order.Repository
	catalog   menu.Catalog
	coupons   coupon.Repository
	resolver  coupon.Resolver
	dashboard *analytics.Service
	events    *notify.Dispatcher
	cache     *redis.Client
	security  *Security
}

// New constructs a Handler with the required collaborators. cache may
// be nil when no Redis instance is configured.
func New(
	cfg Config,
	orders *order.Service,
	orderRepo order.Repository,
	catalog menu.Catalog,
	coupons coupon.Repository,
	resolver coupon.Resolver,
	dashboard *analytics.Service,
	events *notify.Dispatcher,
	cache *redis.Client,
	security *Security,
) *Handler {
	return &Handler{
		cfg:       cfg,
		orders:    orders,
		orderRepo: orderRepo,
		catalog:   catalog,
		coupons:   coupons,
		resolver:  resolver,
		dashboard: dashboard,
		events:    events,
		cache:     cache,
		security:  security,
	}
}

// Routes registers all API routes on the given router.
func (h *Handler) Routes(r *mux.Router) {
	api := r.PathPrefix("/api").Subrouter()
	api.Use(h.security.Authenticate)

	api.HandleFunc("/menu", h.listMenu).Methods(http.MethodGet)
	api.HandleFunc("/orders", h.placeOrder).Methods(http.MethodPost)
	api.HandleFunc("/orders", h.listMyOrders).Methods(http.MethodGet)
	api.HandleFunc("/orders/{id:[0-9]+}/cancel", h.cancelOrder).Methods(http.MethodPut)
	api.HandleFunc("/orders/{id:[0-9]+}/qr", h.orderTokenQR).Methods(http.MethodGet)
	api.HandleFunc("/coupons/validate", h.validateCoupon).Methods(http.MethodPost)

	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(h.security.RequireAdmin)

	admin.HandleFunc("/orders", h.listAllOrders).Methods(http.MethodGet)
	admin.HandleFunc("/orders/{id:[0-9]+}/status", h.updateOrderStatus).Methods(http.MethodPut)
	admin.HandleFunc("/orders/{id:[0-9]+}/complete", h.completeOrder).Methods(http.MethodPost)
	admin.HandleFunc("/dashboard", h.getDashboard).Methods(http.MethodGet)
	admin.HandleFunc("/coupons", h.listCoupons).Methods(http.MethodGet)
	admin.HandleFunc("/coupons", h.createCoupon).Methods(http.MethodPost)
	admin.HandleFunc("/coupons/{id:[0-9]+}", h.updateCoupon).Methods(http.MethodPut)
	admin.HandleFunc("/coupons/{id:[0-9]+}", h.deleteCoupon).Methods(http.MethodDelete)
}

// errorBody is the uniform error response envelope.
type errorBody struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Code: status, Message: msg})
}

// writeDomainError maps a domain error onto the client-facing taxonomy.
// Validation failures (bad payloads, coupon problems, OTP problems) are
// 400 so clients know a retry will not help without changing the
// request; transition conflicts are 409 so clients may re-read and
// retry.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		invalidTransition *order.InvalidTransitionError
		itemNotFound      *order.ItemNotFoundError
		itemUnavailable   *order.ItemUnavailableError
		invalidQuantity   *order.InvalidQuantityError
	)

	switch {
	case errors.Is(err, order.ErrEmptyItems),
		errors.As(err, &invalidQuantity),
		errors.As(err, &itemUnavailable),
		errors.Is(err, order.ErrInvalidOTP),
		errors.Is(err, order.ErrOTPExpired),
		errors.Is(err, coupon.ErrNotFound),
		errors.Is(err, coupon.ErrInactive),
		errors.Is(err, coupon.ErrExpired),
		errors.Is(err, coupon.ErrDuplicateCode):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, order.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, order.ErrNotFound),
		errors.Is(err, menu.ErrNotFound),
		errors.As(err, &itemNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &invalidTransition),
		errors.Is(err, order.ErrConflict):
		writeError(w, http.StatusConflict, err.Error())
	default:
		zctx.From(r.Context()).Error("request failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}
