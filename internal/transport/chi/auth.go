package chi

import (
	"crypto/sha256"
	"crypto/subtle"
	"net/http"
	"strings"
)

// publicPaths serve reads without a key: the HTML form page, liveness and
// scraping. Submitting the form triages a ticket and needs a key like
// POST /tickets.
var publicPaths = map[string]bool{
	"/":        true,
	"/health":  true,
	"/metrics": true,
}

func isPublic(r *http.Request) bool {
	if !publicPaths[r.URL.Path] {
		return false
	}
	return r.Method == http.MethodGet || r.Method == http.MethodHead
}

// keyring holds SHA-256 digests of the API keys so every comparison
// runs over the same length in constant time.
type keyring [][sha256.Size]byte

func newKeyring(keys []string) keyring {
	var kr keyring
	for _, k := range keys {
		if k != "" {
			kr = append(kr, sha256.Sum256([]byte(k)))
		}
	}
	return kr
}

func (kr keyring) allows(token string) bool {
	sum := sha256.Sum256([]byte(token))
	found := 0
	for i := range kr {
		found |= subtle.ConstantTimeCompare(kr[i][:], sum[:])
	}
	return found == 1
}

// BearerAuthMiddleware requires "Authorization: Bearer <key>" on every route
// except reads of publicPaths. With no non-empty key configured it is a pass-through.
func BearerAuthMiddleware(apiKeys []string) func(http.Handler) http.Handler {
	kr := newKeyring(apiKeys)

	return func(next http.Handler) http.Handler {
		if len(kr) == 0 {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if isPublic(r) {
				next.ServeHTTP(w, r)
				return
			}

			token, msg := bearerToken(r.Header.Get("Authorization"))
			if msg == "" && !kr.allows(token) {
				msg = "invalid api key"
			}
			if msg != "" {
				w.Header().Set("WWW-Authenticate", `Bearer realm="smartdesk"`)
				writeError(w, http.StatusUnauthorized, ErrorCodeUnauthorized, msg)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken extracts the credentials of a Bearer header. The scheme is
// case-insensitive. msg explains a malformed header.
func bearerToken(header string) (token, msg string) {
	if header == "" {
		return "", "missing authorization header"
	}
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", "authorization header must use Bearer scheme"
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", "empty bearer token"
	}
	return token, ""
}
