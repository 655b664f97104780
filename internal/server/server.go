// Package server wires the HTTP surface: login and session handling,
// browse/play pages and the token-guarded stream endpoint.
package server

import (
	"embed"
	"fmt"
	"html/template"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/mxmehl/home-stream/internal/creds"
	"github.com/mxmehl/home-stream/internal/logutil"
	"github.com/mxmehl/home-stream/internal/media"
	"github.com/mxmehl/home-stream/internal/ratelimit"
	"github.com/mxmehl/home-stream/internal/tokens"
)

const sessionCookie = "hs_session"

//go:embed templates/*.html
var templateFS embed.FS

type (
	Options struct {
		Library *media.Library
		Creds   *creds.Store
		Codec   *tokens.Codec
		Limiter *ratelimit.Limiter
		// SecureCookies marks the session cookie Secure; set when the
		// configured protocol is https.
		SecureCookies bool
		SessionTTL    time.Duration
		Version       string
	}

	Server struct {
		opts Options
		tmpl *template.Template
	}
)

func New(opts Options) (*Server, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("unable to parse templates, cause %w", err)
	}
	return &Server{opts: opts, tmpl: tmpl}, nil
}

func (s *Server) Handler() http.Handler {
	router := httprouter.New()
	router.HandlerFunc(http.MethodGet, "/", s.index)
	router.HandlerFunc(http.MethodGet, "/login", s.loginForm)
	router.HandlerFunc(http.MethodPost, "/login", s.login)
	router.HandlerFunc(http.MethodGet, "/logout", s.logout)
	router.HandlerFunc(http.MethodGet, "/healthz", s.healthz)
	router.HandlerFunc(http.MethodGet, "/browse/*dir", s.browse)
	router.HandlerFunc(http.MethodGet, "/play/*file", s.play)
	router.HandlerFunc(http.MethodGet, "/stream/:token/*file", s.stream)
	return s.withLogging(s.rateLimit(router))
}

// rateLimit admits or rejects every request before any other work.
// Login attempts draw from their own, stricter budget.
func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		class := "default"
		if r.Method == http.MethodPost && r.URL.Path == "/login" {
			class = "login"
		}
		res := s.opts.Limiter.Check(r.Context(), clientIP(r), class)
		if !res.Allowed {
			seconds := int64(res.RetryAfter / time.Second)
			if res.RetryAfter%time.Second != 0 {
				seconds++
			}
			w.Header().Set("Retry-After", strconv.FormatInt(seconds, 10))
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withLogging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := logutil.GetOrDefault(r.Context()).With().
			Str("method", r.Method).
			Str("path", redactPath(r.URL.Path)).
			Str("remote", clientIP(r)).
			Logger()
		next.ServeHTTP(w, r.WithContext(logutil.WithLogger(r.Context(), logger)))
	})
}

// redactPath keeps stream tokens out of the logs.
func redactPath(p string) string {
	if strings.HasPrefix(p, "/stream/") {
		return "/stream/..."
	}
	return p
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// sessionUser extracts the logged-in username from the session cookie.
// Missing, expired or tampered cookies degrade to anonymous, they never
// fail the request.
func (s *Server) sessionUser(r *http.Request) (string, bool) {
	cookie, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}
	user, err := s.opts.Codec.ParseSession(cookie.Value)
	if err != nil {
		return "", false
	}
	return user, true
}

func (s *Server) setSessionCookie(w http.ResponseWriter, token string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   s.opts.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		logger := logutil.GetOrDefault(r.Context())
		logger.Error().Err(err).Str("template", name).Msg("unable to render template")
	}
}
