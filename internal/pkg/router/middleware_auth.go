package router

import (
	"net/http"
	"strings"
	"time"

	"github.com/shandysiswandi/accountd/internal/pkg/jwt"
)

func middlewareAuthentication(verifier jwt.JWT, now func() time.Time) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := strings.Fields(r.Header.Get("Authorization"))
			if len(p) != 2 || !strings.EqualFold(p[0], "Bearer") {
				writeEnvelope(w, failure("Authentication required", http.StatusUnauthorized, nil, now()))
				return
			}

			claims, err := verifier.Verify(p[1])
			if err != nil {
				writeEnvelope(w, failure("Invalid or expired token", http.StatusUnauthorized, nil, now()))
				return
			}

			ctx := jwt.SetAuth(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
