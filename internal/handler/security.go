package handler

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/migios-apps/migios-pos/internal/domain/auth"
)

// apiKeyHeader carries the register's API key on every request.
const apiKeyHeader = "X-API-Key"

// APIKeyAuth authenticates an incoming request by HMAC-hashing the provided
// API key with the server pepper, looking it up in the repository, and
// performing a constant-time comparison to prevent timing attacks. The
// validated key info is stored on the request context for downstream use.
func (h *Handler) APIKeyAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Header.Get(apiKeyHeader)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		mac := hmac.New(sha256.New, h.pepper)
		mac.Write([]byte(key))
		sum := mac.Sum(nil)

		info, err := h.apikeys.FindByHash(r.Context(), hex.EncodeToString(sum))
		if err != nil {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		// Constant-time comparison guards against timing side-channels even
		// though the lookup already succeeded — the stored hash could differ
		// from what we computed if the repository returns a stale/wrong row.
		storedBytes, err := hex.DecodeString(info.KeyHash)
		if err != nil || subtle.ConstantTimeCompare(sum, storedBytes) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next.ServeHTTP(w, r.WithContext(auth.NewContext(r.Context(), info)))
	})
}
