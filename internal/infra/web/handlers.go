package web

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"payment-lifecycle/internal/domain"
	"payment-lifecycle/internal/domain/model"
	"payment-lifecycle/internal/infra/logging"
	"payment-lifecycle/internal/usecase"
)

type createRequest struct {
	OrderID        string `json:"order_id"`
	Amount         int64  `json:"amount"`
	Currency       string `json:"currency"`
	Method         string `json:"method"`
	IdempotenceKey string `json:"idempotence_key,omitempty"`
	Description    string `json:"description,omitempty"`
	ReturnURL      string `json:"return_url,omitempty"`
}

type paymentResponse struct {
	ID                string    `json:"id"`
	OrderID           string    `json:"order_id"`
	Amount            int64     `json:"amount"`
	Currency          string    `json:"currency"`
	Method            string    `json:"method"`
	Status            string    `json:"status"`
	AcquirerPaymentID *string   `json:"acquirer_payment_id,omitempty"`
	ConfirmationURL   *string   `json:"confirmation_url,omitempty"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type transitionResponse struct {
	ID         string    `json:"id"`
	FromStatus string    `json:"from_status"`
	ToStatus   string    `json:"to_status"`
	Reason     string    `json:"reason"`
	Actor      string    `json:"actor,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

func toPaymentResponse(p *model.Payment) paymentResponse {
	return paymentResponse{
		ID:                p.ID,
		OrderID:           p.OrderID,
		Amount:            p.Amount,
		Currency:          p.Currency,
		Method:            p.Method,
		Status:            string(p.Status),
		AcquirerPaymentID: p.AcquirerPaymentID,
		ConfirmationURL:   p.ConfirmationURL,
		CreatedAt:         p.CreatedAt,
		UpdatedAt:         p.UpdatedAt,
	}
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	ctx = logging.WithOrderID(ctx, req.OrderID)

	p, err := s.payments.Create(ctx, usecase.CreateParams{
		OrderID:        req.OrderID,
		Amount:         req.Amount,
		Currency:       req.Currency,
		Method:         req.Method,
		IdempotenceKey: req.IdempotenceKey,
		Description:    req.Description,
		ReturnURL:      req.ReturnURL,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPaymentResponse(p))
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	p, err := s.payments.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

func (s *Server) handleGetByAcquirer(w http.ResponseWriter, r *http.Request) {
	p, err := s.payments.GetByAcquirerID(r.Context(), chi.URLParam(r, "acquirerID"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	recs, err := s.payments.History(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	out := make([]transitionResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, transitionResponse{
			ID:         rec.ID,
			FromStatus: string(rec.FromStatus),
			ToStatus:   string(rec.ToStatus),
			Reason:     string(rec.Reason),
			Actor:      rec.Actor,
			CreatedAt:  rec.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := logging.WithPaymentID(r.Context(), id)
	p, err := s.payments.Cancel(ctx, id, callerSubject(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

func (s *Server) handleRefund(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ctx := logging.WithPaymentID(r.Context(), id)
	p, err := s.payments.Refund(ctx, id, callerSubject(r))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toPaymentResponse(p))
}

// handleWebhook acknowledges every processing failure with 2xx so the
// acquirer stops retrying; only authentication failures are rejected.
func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "Bad Request", http.StatusBadRequest)
		return
	}
	auth := usecase.WebhookAuth{
		Token:     r.Header.Get("X-Webhook-Token"),
		Signature: r.Header.Get("X-Webhook-Signature"),
	}
	if err := s.webhooks.Handle(r.Context(), body, auth); err != nil {
		if errors.Is(err, domain.ErrWebhookAuthenticationFailed) {
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		logging.With(r.Context(), s.log).Warn().Err(err).Msg("webhook processing failed; acknowledged")
	}
	w.WriteHeader(http.StatusOK)
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, domain.ErrPaymentNotFound):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidArgument):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrInvalidStatusForOperation),
		errors.Is(err, domain.ErrDuplicateIdempotenceKey):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrPaymentCreationFailed),
		errors.Is(err, domain.ErrOperationFailed):
		status = http.StatusBadGateway
	default:
		status = http.StatusInternalServerError
	}
	if status >= http.StatusInternalServerError {
		s.log.Error().Err(err).Msg("request failed")
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func callerSubject(r *http.Request) string {
	if sub, ok := r.Context().Value(ctxSubject).(string); ok && sub != "" {
		return sub
	}
	return "api"
}
