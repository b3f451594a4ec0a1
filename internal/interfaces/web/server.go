package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/seblum/octiv-booker/internal/domain/booking"
	"github.com/seblum/octiv-booker/internal/domain/user"
	"github.com/seblum/octiv-booker/internal/internaltypes"
)

type Authenticator interface {
	VerifyPassword(ctx context.Context, username, password string) (user.User, error)
}

type RunLister interface {
	List(ctx context.Context, limit int) ([]booking.Run, error)
	Get(ctx context.Context, id string) (booking.Run, error)
}

type Server struct {
	addr     string
	sessions *SessionManager
	auth     Authenticator
	runs     RunLister
	tmpl     *template.Template
	log      *zap.Logger

	// Next reports the upcoming scheduled run; nil hides it.
	Next func() time.Time
}

func New(addr string, sessions *SessionManager, auth Authenticator, runs RunLister, tmpl *template.Template, log *zap.Logger) *Server {
	return &Server{addr: addr, sessions: sessions, auth: auth, runs: runs, tmpl: tmpl, log: log}
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /login", s.handleLoginForm)
	mux.HandleFunc("POST /login", s.handleLogin)
	mux.HandleFunc("/logout", s.handleLogout)
	mux.HandleFunc("GET /runs/{id}", s.requireAuth(s.handleRun))
	mux.HandleFunc("GET /{$}", s.requireAuth(s.handleRuns))
	return s.logging(mux)
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.addr))
		errc <- srv.ListenAndServe()
	}()
	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (s *Server) logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)
		s.log.Debug("http request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", sw.status),
			zap.Duration("took", time.Since(start)))
	})
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if _, ok := s.sessions.UserID(r); !ok {
			http.Redirect(w, r, "/login", http.StatusFound)
			return
		}
		next(w, r)
	}
}

func (s *Server) writeErr(w http.ResponseWriter, err error, code int) {
	if code >= 500 {
		s.log.Error("request failed", zap.Error(err))
	}
	http.Error(w, http.StatusText(code), code)
}

func (s *Server) render(w http.ResponseWriter, status int, name string, data any) {
	w.Header().Set("content-type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		s.log.Error("render template", zap.String("template", name), zap.Error(err))
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("content-type", "text/plain")
	_, _ = w.Write([]byte("ok\n"))
}

type loginData struct {
	Error    string
	Username string
}

func (s *Server) handleLoginForm(w http.ResponseWriter, _ *http.Request) {
	s.render(w, http.StatusOK, "login.html", loginData{})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	_ = r.ParseForm()
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	u, err := s.auth.VerifyPassword(ctx, username, password)
	if err != nil {
		if !errors.Is(err, internaltypes.ErrUnauthorized) && !errors.Is(err, internaltypes.ErrNotFound) {
			s.log.Error("verify password", zap.Error(err))
		}
		s.render(w, http.StatusUnauthorized, "login.html", loginData{Error: "Invalid username or password", Username: username})
		return
	}
	if err := s.sessions.SetUserID(w, u.ID); err != nil {
		s.writeErr(w, err, http.StatusInternalServerError)
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.sessions.Clear(w)
	http.Redirect(w, r, "/login", http.StatusFound)
}

type runsData struct {
	Runs []booking.Run
	Next time.Time
}

func (s *Server) handleRuns(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	runs, err := s.runs.List(ctx, 50)
	if err != nil {
		s.writeErr(w, err, http.StatusInternalServerError)
		return
	}
	data := runsData{Runs: runs}
	if s.Next != nil {
		data.Next = s.Next()
	}
	s.render(w, http.StatusOK, "runs.html", data)
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()
	run, err := s.runs.Get(ctx, r.PathValue("id"))
	if errors.Is(err, internaltypes.ErrNotFound) {
		s.writeErr(w, err, http.StatusNotFound)
		return
	}
	if err != nil {
		s.writeErr(w, err, http.StatusInternalServerError)
		return
	}
	s.render(w, http.StatusOK, "run.html", run)
}
