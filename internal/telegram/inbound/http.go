package inbound

import (
	"github.com/nikstrim/otpgate/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc, webhookSecret string) {
	end := &HTTPEndpoint{uc: uc, secret: webhookSecret}

	r.POST("/api/v1/telegram/webhook", end.Webhook)

	r.GET("/api/v1/telegram/link-token", end.LinkToken)
	r.GET("/api/v1/telegram/status", end.Status)
	r.POST("/api/v1/telegram/send-otp", end.SendOTP)
}
