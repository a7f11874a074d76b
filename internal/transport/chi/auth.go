package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gamedex/internal/logger"
)

// Probes and scrapers reach these without a key.
var openPaths = map[string]struct{}{
	"/health":  {},
	"/metrics": {},
}

// keyring holds digests of the accepted API keys so lookups compare fixed-length values.
type keyring [][sha256.Size]byte

func newKeyring(apiKeys []string) keyring {
	var kr keyring
	for _, k := range apiKeys {
		if k = strings.TrimSpace(k); k != "" {
			kr = append(kr, sha256.Sum256([]byte(k)))
		}
	}
	return kr
}

func (kr keyring) accepts(token string) bool {
	sum := sha256.Sum256([]byte(token))
	found := 0
	for i := range kr {
		found |= subtle.ConstantTimeCompare(kr[i][:], sum[:])
	}
	return found == 1
}

// bearerToken extracts the credential from an Authorization header.
// The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// BearerAuthMiddleware guards the search and cache API with static API keys.
// With no usable keys configured the API is open.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	kr := newKeyring(apiKeys)

	return func(next http.Handler) http.Handler {
		if len(kr) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := openPaths[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			reject := func(reason string) {
				logger.FromContext(r.Context()).Info("Rejected unauthenticated request",
					zap.String("path", r.URL.Path),
					zap.String("reason", reason),
				)
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, reason)
			}

			header := r.Header.Get("Authorization")
			if header == "" {
				reject("missing authorization header")
				return
			}
			token, ok := bearerToken(header)
			if !ok {
				reject("authorization header must use Bearer scheme")
				return
			}
			if !kr.accepts(token) {
				reject("invalid api key")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
