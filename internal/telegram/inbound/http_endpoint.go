package inbound

import (
	"crypto/subtle"

	"github.com/nikstrim/otpgate/internal/pkg/goerror"
	"github.com/nikstrim/otpgate/internal/pkg/router"
	"github.com/nikstrim/otpgate/internal/telegram/entity"
)

// HeaderWebhookSecret is the header the bot platform sends when the webhook
// was registered with a secret token.
const HeaderWebhookSecret = "X-Telegram-Bot-Api-Secret-Token"

type HTTPEndpoint struct {
	uc     uc
	secret string
}

// Webhook receives bot updates. When a secret is configured the platform
// header must match; accepted updates always answer 200 for parseable bodies
// so the bot platform stops redelivering.
func (h *HTTPEndpoint) Webhook(r *router.Request) (any, error) {
	if h.secret != "" {
		got := r.Header.Get(HeaderWebhookSecret)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			return nil, goerror.NewBusiness("invalid webhook token", goerror.CodeUnauthorized)
		}
	}

	var upd entity.Update
	if err := r.DecodeBody(&upd); err != nil {
		return nil, err
	}

	if err := h.uc.HandleWebhook(r.Context(), upd); err != nil {
		return nil, err
	}

	return map[string]bool{"ok": true}, nil
}

// LinkToken mints a one-shot token for binding a chat to the caller.
func (h *HTTPEndpoint) LinkToken(r *router.Request) (any, error) {
	out, err := h.uc.LinkToken(r.Context())
	if err != nil {
		return nil, err
	}

	return LinkTokenResponse{
		Token:            out.Token,
		ExpiresInSeconds: int64(out.ExpiresIn.Seconds()),
	}, nil
}

// Status reports whether the caller has a linked chat.
func (h *HTTPEndpoint) Status(r *router.Request) (any, error) {
	out, err := h.uc.Status(r.Context())
	if err != nil {
		return nil, err
	}

	return StatusResponse{Linked: out.Linked}, nil
}

// SendOTP delivers a fresh code into the caller's linked chat.
func (h *HTTPEndpoint) SendOTP(r *router.Request) (any, error) {
	out, err := h.uc.SendOTP(r.Context())
	if err != nil {
		return nil, err
	}

	return SendOTPResponse{OperationID: out.OperationID, ExpiresAt: out.ExpiresAt}, nil
}
