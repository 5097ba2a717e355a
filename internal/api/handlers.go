package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/nastyazhadan/trade-settlement/internal/domain/models"
	serviceErrors "github.com/nastyazhadan/trade-settlement/shared/errors/service"
	zapLogger "github.com/nastyazhadan/trade-settlement/shared/interceptors/logger/zap"
)

const maxBodyBytes = 1 << 20

type AccountService interface {
	OpenAccount(ctx context.Context, username string, balance decimal.Decimal) (models.Account, error)
	GetAccount(ctx context.Context, username string) (models.Account, error)
}

type StockService interface {
	AddSnapshot(ctx context.Context, snapshot models.PriceSnapshot) (models.PriceSnapshot, error)
	ListSnapshots(ctx context.Context) ([]models.PriceSnapshot, error)
	LatestSnapshot(ctx context.Context, ticker string) (models.PriceSnapshot, error)
}

type OrderService interface {
	CreateOrder(
		ctx context.Context,
		username string,
		ticker string,
		side models.OrderSide,
		quantity int64,
	) (models.Order, error)
	GetOrder(ctx context.Context, orderID uuid.UUID) (models.Order, error)
	ListOrders(ctx context.Context, username string) ([]models.Order, error)
	ListOrdersBetween(ctx context.Context, username string, from, to time.Time) ([]models.Order, error)
}

type HealthChecker interface {
	Run(ctx context.Context) map[string]error
}

type Handler struct {
	accounts AccountService
	stocks   StockService
	orders   OrderService
	health   HealthChecker
}

func NewHandler(accounts AccountService, stocks StockService, orders OrderService, health HealthChecker) *Handler {
	return &Handler{
		accounts: accounts,
		stocks:   stocks,
		orders:   orders,
		health:   health,
	}
}

func (h *Handler) CreateAccount(w http.ResponseWriter, r *http.Request) {
	var request createAccountRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	account, err := h.accounts.OpenAccount(r.Context(), request.Username, request.Balance)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, accountFromDomain(account))
}

func (h *Handler) GetAccount(w http.ResponseWriter, r *http.Request) {
	account, err := h.accounts.GetAccount(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, accountFromDomain(account))
}

func (h *Handler) CreateStock(w http.ResponseWriter, r *http.Request) {
	var request snapshotRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	snapshot, err := h.stocks.AddSnapshot(r.Context(), request.toDomain())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, snapshotFromDomain(snapshot))
}

func (h *Handler) ListStocks(w http.ResponseWriter, r *http.Request) {
	snapshots, err := h.stocks.ListSnapshots(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	response := make([]snapshotResponse, 0, len(snapshots))
	for _, snapshot := range snapshots {
		response = append(response, snapshotFromDomain(snapshot))
	}

	writeJSON(w, http.StatusOK, response)
}

func (h *Handler) GetStock(w http.ResponseWriter, r *http.Request) {
	snapshot, err := h.stocks.LatestSnapshot(r.Context(), chi.URLParam(r, "ticker"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, snapshotFromDomain(snapshot))
}

func (h *Handler) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var request createTransactionRequest
	if !decodeJSON(w, r, &request) {
		return
	}

	order, err := h.orders.CreateOrder(r.Context(),
		request.Username,
		request.Ticker,
		models.ParseOrderSide(request.Type),
		request.Volume,
	)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, transactionFromDomain(order))
}

func (h *Handler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.ListOrders(r.Context(), chi.URLParam(r, "username"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, transactionsFromDomain(orders))
}

func (h *Handler) ListTransactionsByDate(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	from, errFrom := time.Parse(time.RFC3339, query.Get("start_timestamp"))
	to, errTo := time.Parse(time.RFC3339, query.Get("end_timestamp"))
	if errFrom != nil || errTo != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error: "start_timestamp and end_timestamp are required in RFC 3339 format",
		})
		return
	}

	orders, err := h.orders.ListOrdersBetween(r.Context(), chi.URLParam(r, "username"), from, to)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, transactionsFromDomain(orders))
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid order id"})
		return
	}

	order, err := h.orders.GetOrder(r.Context(), orderID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, transactionFromDomain(order))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	failures := h.health.Run(r.Context())
	if len(failures) == 0 {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	details := make(map[string]string, len(failures))
	for name, err := range failures {
		details[name] = err.Error()
	}

	writeJSON(w, http.StatusServiceUnavailable, map[string]any{
		"status":       "unavailable",
		"dependencies": details,
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, target any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}

	return true
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		zapLogger.Warn(context.Background(), "failed to write response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFromError(err)

	if status >= http.StatusInternalServerError {
		zapLogger.Error(r.Context(), "request failed", zap.String("path", r.URL.Path), zap.Error(err))
		writeJSON(w, status, errorResponse{Error: http.StatusText(status)})
		return
	}

	writeJSON(w, status, errorResponse{Error: err.Error()})
}

func statusFromError(err error) int {
	switch {
	case errors.Is(err, serviceErrors.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, serviceErrors.ErrAccountNotFound),
		errors.Is(err, serviceErrors.ErrTickerNotFound),
		errors.Is(err, serviceErrors.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.Is(err, serviceErrors.ErrAccountAlreadyExists),
		errors.Is(err, serviceErrors.ErrSnapshotExists),
		errors.Is(err, serviceErrors.ErrOrderAlreadyExists):
		return http.StatusConflict
	case errors.Is(err, serviceErrors.ErrRateLimitExceeded):
		return http.StatusTooManyRequests
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
