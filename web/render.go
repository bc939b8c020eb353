package web

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net/http"

	"book-exchange/library"
	"book-exchange/logger"
)

//go:embed templates/*.html
var templateFS embed.FS

// pages holds one template set per page so each can define its own "content".
type pages struct {
	sets map[string]*template.Template
}

var pageNames = []string{"index", "browse", "register", "login", "thankyou", "error"}

func loadPages() (*pages, error) {
	funcs := template.FuncMap{
		"rating": func(avg float64) string { return fmt.Sprintf("%.1f", avg) },
	}
	p := &pages{sets: make(map[string]*template.Template, len(pageNames))}
	for _, name := range pageNames {
		t, err := template.New(name).Funcs(funcs).ParseFS(templateFS, "templates/layout.html", "templates/"+name+".html")
		if err != nil {
			return nil, fmt.Errorf("parse template %s: %w", name, err)
		}
		p.sets[name] = t
	}
	return p, nil
}

// render executes the named page into a buffer, persists the session (whose
// flashes the page consumes) and only then writes the response.
func (h *Handler) render(w http.ResponseWriter, r *http.Request, status int, name string, data map[string]any) {
	sess := SessionFromContext(r.Context())
	data["user"] = sess.Username
	data["flashes"] = sess.PopFlashes()

	t, ok := h.pages.sets[name]
	if !ok {
		h.writePlainError(w, r, fmt.Errorf("unknown page %q", name))
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		h.writePlainError(w, r, fmt.Errorf("render %s: %w", name, err))
		return
	}

	if err := h.sessions.Save(w, sess); err != nil {
		h.writePlainError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = buf.WriteTo(w)
}

// redirect persists the session and sends a 303 to path.
func (h *Handler) redirect(w http.ResponseWriter, r *http.Request, path string) {
	if err := h.sessions.Save(w, SessionFromContext(r.Context())); err != nil {
		h.writePlainError(w, r, err)
		return
	}
	http.Redirect(w, r, path, http.StatusSeeOther)
}

// fail renders the error page for err. Only unexpected errors are logged.
func (h *Handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		h.log(r).ErrorContext(r.Context(), "internal error",
			slog.String("error", err.Error()),
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
		)
	}

	h.render(w, r, status, "error", map[string]any{
		"title":      http.StatusText(status),
		"status":     status,
		"message":    publicMessage(status),
		"request_id": logger.CorrelationIDFromContext(r.Context()),
	})
}

func (h *Handler) writePlainError(w http.ResponseWriter, r *http.Request, err error) {
	h.log(r).ErrorContext(r.Context(), "response failed",
		slog.String("error", err.Error()),
		slog.String("path", r.URL.Path),
	)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) log(r *http.Request) *slog.Logger {
	if l := logger.FromContext(r.Context()); l != slog.Default() {
		return l
	}
	return h.logger
}

// httpStatus maps domain errors onto HTTP status codes.
func httpStatus(err error) int {
	switch {
	case errors.Is(err, library.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, library.ErrBookNotFound), errors.Is(err, library.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, library.ErrUsernameTaken):
		return http.StatusConflict
	case errors.Is(err, library.ErrInvalidCredentials):
		return http.StatusUnauthorized
	case errors.Is(err, library.ErrPasswordMismatch):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func publicMessage(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "The request was missing required information."
	case http.StatusNotFound:
		return "The page you asked for does not exist."
	default:
		return "Something went wrong. Please try again."
	}
}
