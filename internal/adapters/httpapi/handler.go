package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/atvirokodosprendimai/bookingaudit/internal/core/domain"
)

type ctxKey string

const (
	apiClientCtxKey  ctxKey = "api_client"
	requesterHeader         = "X-Requester-User-Uuid"
	maxJSONBodySize         = 1 << 20
)

type Ingester interface {
	OnBookingAction(ctx context.Context, ev domain.BookingActionEvent) (domain.IngestOutcome, error)
}

type Viewer interface {
	GetAuditLogsForBooking(ctx context.Context, bookingUID string, requester domain.RequesterContext) (domain.BookingAuditLogs, error)
}

type Authenticator interface {
	Authenticate(ctx context.Context, token string) (domain.APIKey, error)
}

type Handler struct {
	ingest   Ingester
	viewer   Viewer
	auth     Authenticator
	gatherer prometheus.Gatherer
	log      *slog.Logger
}

func NewHandler(ingest Ingester, viewer Viewer, auth Authenticator, gatherer prometheus.Gatherer, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{ingest: ingest, viewer: viewer, auth: auth, gatherer: gatherer, log: log}
}

func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Get("/healthz", h.healthz)
	if h.gatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(h.gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(pr chi.Router) {
		pr.Use(h.requireAPIKey)
		pr.Post("/v1/audit-events", h.ingestEvent)
		pr.Get("/v1/bookings/{bookingUid}/audit-logs", h.auditLogs)
	})

	return r
}

type ingestResponse struct {
	OperationID string               `json:"operationId"`
	Outcome     domain.IngestOutcome `json:"outcome"`
}

func (h *Handler) ingestEvent(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)

	var msg domain.BookingActionMessage
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&msg); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	if err := ensureEOF(decoder); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}

	ev, err := msg.Event()
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}
	outcome, err := h.ingest.OnBookingAction(r.Context(), ev)
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}

	h.log.DebugContext(r.Context(), "audit event received",
		"client", apiClientFromContext(r.Context()),
		"operation_id", ev.OperationID,
		"outcome", outcome,
	)
	status := http.StatusAccepted
	if outcome == domain.IngestDuplicate {
		status = http.StatusOK
	}
	writeJSON(w, status, ingestResponse{OperationID: ev.OperationID, Outcome: outcome})
}

func (h *Handler) auditLogs(w http.ResponseWriter, r *http.Request) {
	bookingUID := chi.URLParam(r, "bookingUid")
	requester := domain.RequesterContext{UserUUID: strings.TrimSpace(r.Header.Get(requesterHeader))}

	logs, err := h.viewer.GetAuditLogsForBooking(r.Context(), bookingUID, requester)
	if err != nil {
		h.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, logs)
}

func (h *Handler) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (h *Handler) requireAPIKey(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get("X-API-Key"))
		if token == "" {
			auth := strings.TrimSpace(r.Header.Get("Authorization"))
			if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
				token = strings.TrimSpace(auth[7:])
			}
		}

		apiKey, err := h.auth.Authenticate(r.Context(), token)
		if err != nil {
			if errors.Is(err, domain.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			h.log.ErrorContext(r.Context(), "authenticate api key", "error", err)
			writeError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), apiClientCtxKey, apiKey.Name)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	data, err := json.Marshal(body)
	if err != nil {
		slog.Error("encode json response", "error", err)
		http.Error(w, "internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(append(data, '\n')); err != nil {
		slog.Warn("write response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": message})
}

type validationResponse struct {
	Error  string   `json:"error"`
	Field  string   `json:"field"`
	Errors []string `json:"errors,omitempty"`
}

func (h *Handler) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *domain.ValidationError
	var uverr *domain.UnsupportedVersionError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, validationResponse{Error: verr.Error(), Field: verr.Field, Errors: verr.Errors})
	case errors.Is(err, domain.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, domain.ErrPermissionDenied):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &uverr):
		h.log.ErrorContext(r.Context(), "stored audit data cannot be read", "action", uverr.Action, "version", uverr.Version, "error", err)
		writeError(w, http.StatusInternalServerError, "unsupported audit data version")
	default:
		h.log.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func ensureEOF(decoder *json.Decoder) error {
	var extra json.RawMessage
	if err := decoder.Decode(&extra); err != nil {
		if err == io.EOF {
			return nil
		}
		return err
	}
	return errors.New("extra json tokens")
}

func apiClientFromContext(ctx context.Context) string {
	client, _ := ctx.Value(apiClientCtxKey).(string)
	if client == "" {
		return "api"
	}
	return client
}
