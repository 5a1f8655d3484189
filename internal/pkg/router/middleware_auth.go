package router

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/nikstrim/otpgate/internal/pkg/jwt"
)

func middlewareAuthentication(verifier jwt.JWT, ro *Router, publicEndpoints map[string]map[string]struct{}) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Method == http.MethodOptions {
				next.ServeHTTP(w, r)
				return
			}

			path := matchedRoutePath(r)
			if s, ok := publicEndpoints[r.Method]; ok {
				if _, skip := s[path]; skip {
					next.ServeHTTP(w, r)
					return
				}
			}

			// An upstream middleware may have authenticated already.
			if jwt.GetAuth(r.Context()) != nil {
				next.ServeHTTP(w, r)
				return
			}

			p := strings.Fields(r.Header.Get("Authorization"))
			if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
				writeJSON(w, map[string]string{"message": "Authentication required"}, http.StatusUnauthorized)
				return
			}

			claims, err := verifier.Verify(p[1])
			if err != nil {
				slog.WarnContext(r.Context(), "router: token rejected", "reason", err)
				writeJSON(w, map[string]string{"message": "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}

			if ro.resolver == nil {
				writeJSON(w, map[string]string{"message": "Authentication required"}, http.StatusUnauthorized)
				return
			}

			// Re-resolve the subject so a deleted or disabled account is shut
			// out even while its token is still within TTL.
			principal, err := ro.resolver.ResolvePrincipal(r.Context(), claims.Subject)
			if err != nil || !principal.Enabled {
				writeJSON(w, map[string]string{"message": "Invalid or expired token"}, http.StatusUnauthorized)
				return
			}

			claims.UserID = principal.ID
			claims.Username = principal.Username
			claims.Roles = principal.Roles

			ctx := jwt.SetAuth(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
