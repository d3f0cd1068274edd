package authtest

import (
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"golang.org/x/crypto/bcrypt"

	"github.com/danmaku-system/webclient/pkg/requestid"
)

const (
	// BasePath is where the accounts API is mounted
	BasePath = "/api/accounts/"

	SessionCookie = "sessionid"
	CSRFCookie    = "csrftoken"
	CSRFHeader    = "X-CSRFToken"

	// MaxAttempts failed logins from one address trigger a lockout
	MaxAttempts = 5

	// RememberMaxAge is the session cookie lifetime for remember_me logins
	RememberMaxAge = 14 * 24 * time.Hour
)

// Account is a user known to the fake back-end
type Account struct {
	ID         int
	Username   string
	Email      string
	FirstName  string
	LastName   string
	IsStaff    bool
	DateJoined time.Time

	hash []byte
}

// Server is the fake accounts back-end
type Server struct {
	srv         *httptest.Server
	logger      *slog.Logger
	enforceCSRF bool
	bcryptCost  int

	mu        sync.Mutex
	nextID    int
	accounts  map[string]*Account
	sessions  map[string]string
	attempts  map[string]int
	resets    map[string]string
	overrides map[string]http.HandlerFunc
	hits      map[string]int
	headers   map[string]http.Header
}

// Option configures a Server
type Option func(*Server)

// WithoutCSRF disables the anti-forgery check on mutating requests
func WithoutCSRF() Option {
	return func(s *Server) { s.enforceCSRF = false }
}

// WithLogger logs every request with its X-Request-ID at debug level
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewServer starts the fake back-end. Close it when done.
func NewServer(opts ...Option) *Server {
	s := &Server{
		logger:      slog.New(slog.NewTextHandler(io.Discard, nil)),
		enforceCSRF: true,
		bcryptCost:  bcrypt.MinCost,
		nextID:      1,
		accounts:    make(map[string]*Account),
		sessions:    make(map[string]string),
		attempts:    make(map[string]int),
		resets:      make(map[string]string),
		overrides:   make(map[string]http.HandlerFunc),
		hits:        make(map[string]int),
		headers:     make(map[string]http.Header),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.srv = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.Recoverer)
	r.Use(requestid.Middleware)
	r.Use(s.record)

	r.Route(strings.TrimSuffix(BasePath, "/"), func(api chi.Router) {
		api.Get("/csrf/", s.csrfToken)
		api.Get("/user/", s.currentUser)
		api.Post("/check-username/", s.checkUsername)
		api.Post("/password-reset/", s.passwordReset)

		api.Group(func(r chi.Router) {
			r.Use(s.requireCSRF)
			r.Post("/login/", s.login)
			r.Post("/register/", s.register)
			r.Post("/logout/", s.logout)
			r.Patch("/update/", s.update)
			r.Put("/update/", s.update)
			r.Post("/password-reset/confirm/", s.passwordResetConfirm)
		})
	})
	return r
}

// BaseURL returns the server origin, e.g. http://127.0.0.1:54321
func (s *Server) BaseURL() string {
	return s.srv.URL
}

// URL returns the accounts API base URL with a trailing slash
func (s *Server) URL() string {
	return s.srv.URL + BasePath
}

// Close shuts the server down
func (s *Server) Close() {
	s.srv.Close()
}

// AddUser registers an account with the given password and returns its id
func (s *Server) AddUser(acc Account, password string) int {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		panic(err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(acc, hash)
}

func (s *Server) addLocked(acc Account, hash []byte) int {
	acc.ID = s.nextID
	s.nextID++
	if acc.DateJoined.IsZero() {
		acc.DateJoined = time.Now().UTC().Truncate(time.Second)
	}
	acc.hash = hash
	s.accounts[acc.Username] = &acc
	return acc.ID
}

// Account returns a copy of the named account
func (s *Server) Account(username string) (Account, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	acc, ok := s.accounts[username]
	if !ok {
		return Account{}, false
	}
	return *acc, true
}

// Override replaces the handler of one endpoint, e.g. Override("login/", h).
// A nil handler restores the default.
func (s *Server) Override(path string, h http.HandlerFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if h == nil {
		delete(s.overrides, path)
		return
	}
	s.overrides[path] = h
}

// Hits counts requests received for an endpoint path such as "login/"
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// LastHeader returns a header of the latest request to path
func (s *Server) LastHeader(path, name string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	h, ok := s.headers[path]
	if !ok {
		return ""
	}
	return h.Get(name)
}

// Sessions returns the number of live server sessions
func (s *Server) Sessions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// ResetAttempts forgets failed logins for every address
func (s *Server) ResetAttempts() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.attempts)
}

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path := strings.TrimPrefix(r.URL.Path, BasePath)

		s.mu.Lock()
		s.hits[path]++
		s.headers[path] = r.Header.Clone()
		override := s.overrides[path]
		s.mu.Unlock()

		s.logger.DebugContext(r.Context(), "fake accounts request",
			slog.String("method", r.Method),
			slog.String("path", path),
			slog.String("request_id", requestid.FromContext(r.Context())),
		)

		if override != nil {
			override(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) requireCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.enforceCSRF {
			next.ServeHTTP(w, r)
			return
		}
		c, err := r.Cookie(CSRFCookie)
		if err != nil || c.Value == "" {
			writeJSON(w, http.StatusForbidden, map[string]any{"detail": "CSRF Failed: CSRF cookie not set."})
			return
		}
		if r.Header.Get(CSRFHeader) != c.Value {
			writeJSON(w, http.StatusForbidden, map[string]any{"detail": "CSRF Failed: CSRF token missing or incorrect."})
			return
		}
		next.ServeHTTP(w, r)
	})
}

// clientIP keys login attempts: first X-Forwarded-For entry, then the peer address
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := net.ParseIP(strings.TrimSpace(first)); ip != nil {
			return ip.String()
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
