package middleware

import (
	"fmt"
	"net/http"
	"slices"
	"strings"

	"github.com/jblukach/lunker/internal/auth/handlers"
	"github.com/jblukach/lunker/internal/auth/service"
	"github.com/jblukach/lunker/internal/logger"
	"github.com/jblukach/lunker/internal/utils"
	"go.uber.org/zap"
)

// Authenticate runs the authorizer in front of next. Requests without a
// credential get 401; denied credentials get 403. The decision is stored in
// the request context for the downstream handler.
func Authenticate(authorizer *service.Authorizer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Debug("Authenticate request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("remote_addr", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
			)

			credential := authorizer.Credential(r.Header, firstValues(r))
			if credential == "" {
				writeError(w, http.StatusUnauthorized, "unauthorized", "Authentication required")
				return
			}

			decision := authorizer.Authorize(r.Context(), credential)
			if !decision.IsAuthorized {
				writeError(w, http.StatusForbidden, "access_denied", "Access denied")
				return
			}

			next.ServeHTTP(w, r.WithContext(handlers.WithDecision(r.Context(), decision)))
		})
	}
}

// CORSWithOrigins allows the listed origins to call with credentials. An
// empty list or "*" allows any origin without credentials.
func CORSWithOrigins(origins []string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			switch {
			case len(origins) == 0 || slices.Contains(origins, "*"):
				w.Header().Set("Access-Control-Allow-Origin", "*")
			case origin != "" && slices.Contains(origins, origin):
				w.Header().Set("Access-Control-Allow-Origin", origin)
				w.Header().Set("Access-Control-Allow-Credentials", "true")
				w.Header().Add("Vary", "Origin")
			}
			w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			w.Header().Set("Access-Control-Expose-Headers", "WWW-Authenticate")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// firstValues flattens the query the way API Gateway does for single values.
func firstValues(r *http.Request) map[string]string {
	query := r.URL.Query()
	out := make(map[string]string, len(query))
	for k, v := range query {
		if len(v) > 0 {
			out[k] = v[0]
		}
	}
	return out
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	if status == http.StatusUnauthorized || status == http.StatusForbidden {
		w.Header().Set("WWW-Authenticate",
			fmt.Sprintf(`Bearer realm="lunker", error="%s", error_description="%s"`, code, strings.ReplaceAll(message, `"`, `'`)))
	}
	utils.WriteError(w, code, message, status)
}
