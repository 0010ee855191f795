package acquirer

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"payment-lifecycle/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.WebhookAuthenticator = (*WebhookVerifier)(nil)

// WebhookVerifier authenticates notifications with the pre-shared webhook
// secret. When the provider sends a signature header it is checked as
// HMAC-SHA256 over the body; otherwise the token header is compared against
// the secret in constant time.
type WebhookVerifier struct {
	secret string
}

func NewWebhookVerifier(secret string) *WebhookVerifier {
	return &WebhookVerifier{secret: secret}
}

func (v *WebhookVerifier) Authenticate(body []byte, token, signature string) bool {
	if v.secret == "" {
		return false
	}
	if signature != "" {
		h := hmac.New(sha256.New, []byte(v.secret))
		h.Write(body)
		expected := hex.EncodeToString(h.Sum(nil))
		return hmac.Equal([]byte(expected), []byte(signature))
	}
	return hmac.Equal([]byte(v.secret), []byte(token))
}
