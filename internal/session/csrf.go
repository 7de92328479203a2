package session

import (
	"encoding/hex"
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/csrf"
)

// CSRFTokenHeader is the request header carrying the token on unsafe methods.
const CSRFTokenHeader = "X-CSRF-Token"

const csrfTokenKey = "csrf_token"

// SecretKey turns SESSION_CSRF_SECRET into key bytes. Hex is decoded,
// anything else is used as is.
func SecretKey(secret string) []byte {
	if key, err := hex.DecodeString(secret); err == nil && len(key) > 0 {
		return key
	}
	return []byte(secret)
}

// CSRFMiddleware rejects unsafe requests without a valid X-CSRF-Token.
// Safe methods pass through and receive a token in the context.
func CSRFMiddleware(secret []byte, secure bool) gin.HandlerFunc {
	protect := csrf.Protect(
		secret,
		csrf.Secure(secure),
		csrf.HttpOnly(true),
		csrf.SameSite(csrf.SameSiteLaxMode),
		csrf.Path("/"),
		csrf.RequestHeader(CSRFTokenHeader),
		csrf.ErrorHandler(http.HandlerFunc(csrfErrorHandler)),
	)

	return func(c *gin.Context) {
		if !secure {
			c.Request = csrf.PlaintextHTTPRequest(c.Request)
		}

		handler := protect(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Set(csrfTokenKey, csrf.Token(r))
			c.Request = r
			c.Next()
		}))
		handler.ServeHTTP(c.Writer, c.Request)

		// The wrapped handler never ran: the request was rejected.
		if _, ok := c.Get(csrfTokenKey); !ok {
			c.Abort()
		}
	}
}

func csrfErrorHandler(w http.ResponseWriter, r *http.Request) {
	message := "CSRF token invalid or missing"
	if reason := csrf.FailureReason(r); reason != nil {
		log.Printf("CSRF check failed for %s %s: %v", r.Method, r.URL.Path, reason)
	}
	body, _ := json.Marshal(map[string]string{"error": message, "code": "forbidden"})

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusForbidden)
	_, _ = w.Write(body)
}

// CSRFToken returns the token set by CSRFMiddleware, or "".
func CSRFToken(c *gin.Context) string {
	if token, ok := c.Get(csrfTokenKey); ok {
		if t, ok := token.(string); ok {
			return t
		}
	}
	return ""
}
