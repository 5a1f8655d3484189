package inbound

import (
	"github.com/nikstrim/otpgate/internal/pkg/router"
)

func RegisterHTTPEndpoint(r *router.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/api/v1/auth/register", end.Register)
	r.POST("/api/v1/auth/login", end.Login)

	r.GET("/api/v1/admin/users", end.ListUsers)
	r.DELETE("/api/v1/admin/users/:id", end.DeleteUser)
}
