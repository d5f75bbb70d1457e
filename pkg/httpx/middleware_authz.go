package httpx

import (
	"net/http"
	"slices"
	"strings"

	"github.com/oncreesaas/oncree/pkg/jwtx"
)

// RequireAccountType lets the request through only when the authenticated
// account is one of the listed types. Must run after AuthnMiddleware.
func RequireAccountType(types ...string) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(types, accountTypeFromCtx(r.Context())) {
				writeForbidden(w, "account type not allowed: requires "+strings.Join(types, " or "))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireMFA rejects tokens that were minted without a second factor.
func RequireMFA() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok || !claims.HasAMR(jwtx.AMRMFA) {
				writeForbidden(w, "multi-factor authentication required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func writeForbidden(w http.ResponseWriter, desc string) {
	w.Header().Set("WWW-Authenticate", `Bearer error="insufficient_scope"`)
	WriteJSON(w, http.StatusForbidden, map[string]string{
		"error":             "forbidden",
		"error_description": desc,
	})
}
