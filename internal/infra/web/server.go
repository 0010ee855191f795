package web

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"payment-lifecycle/internal/usecase"
)

type Server struct {
	payments usecase.PaymentUseCase
	webhooks usecase.WebhookUseCase
	auth     *AuthManager
	log      *zerolog.Logger
}

func NewServer(payments usecase.PaymentUseCase, webhooks usecase.WebhookUseCase, auth *AuthManager, logger *zerolog.Logger) *Server {
	return &Server{payments: payments, webhooks: webhooks, auth: auth, log: logger}
}

// Routes builds the router. The webhook endpoint sits outside the bearer-auth
// group: the acquirer authenticates with the shared webhook secret.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/webhooks/acquirer", s.handleWebhook)

	r.Route("/api/v1/payments", func(r chi.Router) {
		r.Use(s.requireAuth)
		r.Post("/", s.handleCreate)
		r.Get("/by-acquirer/{acquirerID}", s.handleGetByAcquirer)
		r.Get("/{id}", s.handleGet)
		r.Get("/{id}/transitions", s.handleHistory)
		r.Post("/{id}/cancel", s.handleCancel)
		r.Post("/{id}/refund", s.handleRefund)
	})

	return r
}

type ctxKeyType string

const ctxSubject ctxKeyType = "subject"

// requireAuth provides bearer token authentication for the command/query API.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := s.auth.ParseFromRequest(r)
		if err != nil {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), ctxSubject, claims.Subject)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
