package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MGANDRAOS/checkout-cash-flow/internal/analytics"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/bizday"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/domain"
	"github.com/MGANDRAOS/checkout-cash-flow/internal/service"
)

const (
	maxBodyBytes    = 1 << 20
	requestIDHeader = "X-Request-Id"
)

type API struct {
	service        *service.Service
	logger         *zap.Logger
	allowedOrigins []string
	requestTimeout time.Duration
}

func New(svc *service.Service, logger *zap.Logger, allowedOrigins []string, requestTimeout time.Duration) *API {
	if logger == nil {
		logger = zap.NewNop()
	}
	if requestTimeout <= 0 {
		requestTimeout = 15 * time.Second
	}
	return &API{
		service:        svc,
		logger:         logger,
		allowedOrigins: allowedOrigins,
		requestTimeout: requestTimeout,
	}
}

func (a *API) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(a.requestLogger)
	r.Use(securityHeaders)
	if len(a.allowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: a.allowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", requestIDHeader},
			ExposedHeaders: []string{requestIDHeader, "Content-Disposition"},
			MaxAge:         300,
		}))
	}
	r.Use(a.withTimeout)

	r.Get("/healthz", a.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Route("/intelligence", func(r chi.Router) {
			r.Get("/kpis", a.handleKPIs)
			r.Get("/receipts-by-day", a.handleReceiptsByDay)
			r.Get("/hourly", a.handleHourly)
			r.Get("/hourly-profile", a.handleHourlyProfile)
			r.Get("/day-of-week", a.handleDayOfWeek)
			r.Get("/top-windows", a.handleTopWindows)
			r.Get("/top-items", a.handleTopItems)
			r.Get("/subgroups", a.handleSubgroupContribution)
			r.Get("/subgroups/{subgroup}/items", a.handleSubgroupItems)
			r.Get("/subgroup-velocity", a.handleSubgroupVelocity)
			r.Get("/histograms/items-per-receipt", a.handleItemsPerReceipt)
			r.Get("/histograms/receipt-amount", a.handleReceiptAmounts)
			r.Get("/affinity", a.handleAffinity)
		})
		r.Route("/sales", func(r chi.Router) {
			r.Get("/summary", a.handleSalesSummary)
			r.Get("/by-hour", a.handleSalesByHour)
			r.Get("/by-hour/cumulative", a.handleSalesByHourCumulative)
			r.Get("/by-hour/last-weeks", a.handleSalesByHourLastWeeks)
			r.Get("/by-category", a.handleSalesByCategory)
			r.Get("/top-products", a.handleTopProducts)
			r.Get("/receipts", a.handleReceipts)
		})
		r.Route("/reports", func(r chi.Router) {
			r.Get("/item-trends", a.handleItemTrends)
			r.Get("/subgroups", a.handleSubgroupLabels)
			r.Get("/aggregate", a.handleAggregate)
		})
		r.Get("/dead-items", a.handleDeadItems)
		r.Get("/reorder-radar", a.handleReorderRadar)
		r.Get("/reorder-radar/export", a.handleReorderExport)
		r.Get("/items/{code}", a.handleItemDetail)
		r.Post("/ai/summarize", a.handleSummarize)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]any{"error": "not found"})
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]any{"error": "method not allowed"})
	})

	return r
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	if err := a.service.Health(r.Context()); err != nil {
		a.logger.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"ok": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ok": true,
		"at": time.Now().UTC().Format(time.RFC3339),
	})
}

type ctxKey struct{}

func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, id)))
	})
}

func requestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (a *API) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		a.logger.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", requestIDFrom(r.Context())),
		)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cross-Origin-Opener-Policy", "same-origin")

		if r.Method == http.MethodPost {
			r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), a.requestTimeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// writeServiceError maps service errors onto status codes. Server side
// failures are logged and their detail withheld from the client.
func (a *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidConfig):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, context.DeadlineExceeded):
		status = http.StatusGatewayTimeout
	}
	if status >= 500 {
		a.logger.Error("request failed",
			zap.String("path", r.URL.Path),
			zap.String("request_id", requestIDFrom(r.Context())),
			zap.Int("status", status),
			zap.Error(err),
		)
		writeJSON(w, status, map[string]any{"error": http.StatusText(status)})
		return
	}
	writeError(w, status, err)
}

func decodeJSON(r *http.Request, dest any) error {
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	return decoder.Decode(dest)
}

// intParam reads an integer query parameter. Missing or malformed values fall
// back; range checks happen in the reports.
func intParam(r *http.Request, key string, fallback int) int {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func boolParam(r *http.Request, key string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get(key)))
	return err == nil && parsed
}

// dateParam reads an optional YYYY-MM-DD business date.
func dateParam(r *http.Request, key string) (bizday.Date, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return bizday.Date{}, nil
	}
	d, err := bizday.ParseDate(raw)
	if err != nil {
		return bizday.Date{}, badRequest("%s must be YYYY-MM-DD", key)
	}
	return d, nil
}

func filterParam(r *http.Request) (analytics.LineFilter, error) {
	return analytics.ParseLineFilter(r.URL.Query().Get("filter"))
}

func listParam(r *http.Request, key string) []string {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return nil
	}
	out := make([]string, 0, 8)
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]any{
		"error": err.Error(),
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
