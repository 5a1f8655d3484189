package inbound

import (
	"net/http"

	"github.com/nikstrim/otpgate/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc, ro: r}

	r.POST("/api/v1/otp/send", end.Send)
	r.POST("/api/v1/otp/verify", end.Verify)
	r.POST("/api/v1/otp/validate", end.Validate)

	r.GETRaw("/api/v1/otp/export/csv", http.HandlerFunc(end.ExportCSV))
	r.GETRaw("/api/v1/otp/export/admin/csv", http.HandlerFunc(end.ExportAllCSV))
	r.GETRaw("/api/v1/otp/export/admin/csv/:username", http.HandlerFunc(end.ExportUserCSV))

	r.GET("/api/v1/admin/otp-config", end.ConfigGet)
	r.PUT("/api/v1/admin/otp-config", end.ConfigUpdate)
}
