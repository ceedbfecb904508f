package httpapi

import (
	"crypto/subtle"
	"log/slog"
	"net/http"

	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/observability"
	"github.com/anthonylam852cpt/cattle-comfort-assessment/internal/utils"
)

const apiKeyHeader = "x-api-key"

// requireAPIKey rejects requests whose x-api-key header does not match key.
// Missing and wrong keys get the same response.
func requireAPIKey(key string, metrics *observability.Metrics, next http.Handler) http.Handler {
	want := []byte(key)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := []byte(r.Header.Get(apiKeyHeader))
		if len(want) == 0 || subtle.ConstantTimeCompare(got, want) != 1 {
			metrics.AuthRejections.Inc()
			slog.WarnContext(r.Context(), "api key rejected",
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr,
				"key_present", len(got) > 0,
			)
			utils.WriteError(w, http.StatusUnauthorized, "invalid API key")
			return
		}
		next.ServeHTTP(w, r)
	})
}
