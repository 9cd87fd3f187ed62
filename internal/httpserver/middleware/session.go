package middleware

import (
	"context"
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionCookieName is the cookie carrying the signed session payload.
const SessionCookieName = "PLANNER_SESSION"

const sessionContextKey contextKey = "session"

// SessionData identifies a browser session and its chosen language.
type SessionData struct {
	ID        string    `json:"id"`
	Locale    string    `json:"locale,omitempty"`
	CreatedAt time.Time `json:"createdAt"`

	dirty bool
}

// SetLocale records lang as the session language.
func (s *SessionData) SetLocale(lang string) {
	if s.Locale != lang {
		s.Locale = lang
		s.dirty = true
	}
}

// SessionConfig configures the session middleware.
type SessionConfig struct {
	// Key signs the cookie; an empty key uses a process-ephemeral one.
	Key    []byte
	Secure bool
	MaxAge time.Duration
}

// Session loads or initializes the session, stores it in the request context
// and writes the cookie when it was created or changed.
func Session(cfg SessionConfig) func(http.Handler) http.Handler {
	key := cfg.Key
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			panic("session: generate signing key: " + err.Error())
		}
	}
	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = 30 * 24 * time.Hour
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sd, ok := readSessionCookie(r, key)
			if !ok {
				sd = &SessionData{ID: ulid.Make().String(), CreatedAt: time.Now().UTC(), dirty: true}
			}
			ctx := context.WithValue(r.Context(), sessionContextKey, sd)
			next.ServeHTTP(&sessionWriter{ResponseWriter: w, write: func(w http.ResponseWriter) {
				if sd.dirty {
					writeSessionCookie(w, key, sd, cfg.Secure, maxAge)
					sd.dirty = false
				}
			}}, r.WithContext(ctx))
		})
	}
}

// SessionFromContext returns the request session, or an empty one.
func SessionFromContext(ctx context.Context) *SessionData {
	if sd, ok := ctx.Value(sessionContextKey).(*SessionData); ok && sd != nil {
		return sd
	}
	return &SessionData{}
}

// WithSession stores sd in ctx.
func WithSession(ctx context.Context, sd *SessionData) context.Context {
	return context.WithValue(ctx, sessionContextKey, sd)
}

// sessionWriter persists the cookie just before the first header write.
type sessionWriter struct {
	http.ResponseWriter
	write func(http.ResponseWriter)
	wrote bool
}

func (w *sessionWriter) WriteHeader(code int) {
	if !w.wrote {
		w.wrote = true
		w.write(w.ResponseWriter)
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *sessionWriter) Write(b []byte) (int, error) {
	if !w.wrote {
		w.WriteHeader(http.StatusOK)
	}
	return w.ResponseWriter.Write(b)
}

func (w *sessionWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

func (w *sessionWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

func readSessionCookie(r *http.Request, key []byte) (*SessionData, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}
	payloadPart, sigPart, ok := strings.Cut(c.Value, ".")
	if !ok {
		return nil, false
	}
	payload, err := base64.RawURLEncoding.DecodeString(payloadPart)
	if err != nil {
		return nil, false
	}
	sig, err := base64.RawURLEncoding.DecodeString(sigPart)
	if err != nil {
		return nil, false
	}
	if !hmac.Equal(sig, sign(key, payload)) {
		return nil, false
	}
	var sd SessionData
	if err := json.Unmarshal(payload, &sd); err != nil || sd.ID == "" {
		return nil, false
	}
	return &sd, true
}

func writeSessionCookie(w http.ResponseWriter, key []byte, sd *SessionData, secure bool, maxAge time.Duration) {
	payload, _ := json.Marshal(sd)
	value := base64.RawURLEncoding.EncodeToString(payload) + "." + base64.RawURLEncoding.EncodeToString(sign(key, payload))
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(maxAge.Seconds()),
	})
}

func sign(key, payload []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(payload)
	return mac.Sum(nil)
}
