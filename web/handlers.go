package web

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"book-exchange/library"
)

// Store is the catalogue and account API the handlers depend on.
// *library.Manager satisfies it.
type Store interface {
	Books(ctx context.Context) ([]library.Book, error)
	BookOfTheDay(ctx context.Context) (*library.Book, error)
	Search(ctx context.Context, term string) ([]library.Book, error)
	Rate(ctx context.Context, title string, stars int) (*library.Book, error)
	ListBook(ctx context.Context, title, author, coverURL string) (int64, error)
	Contact(ctx context.Context, email, message string) (int64, error)
	Register(ctx context.Context, username, password, confirm string) (int64, error)
	Login(ctx context.Context, username, password string) (*library.User, error)
	Ping(ctx context.Context) error
}

const siteTitle = "Book Exchange Platform"

// Handler serves the book exchange pages.
type Handler struct {
	store    Store
	sessions *SessionManager
	pages    *pages
	logger   *slog.Logger
}

// NewHandler creates the page handlers.
func NewHandler(store Store, sessions *SessionManager, logger *slog.Logger) (*Handler, error) {
	p, err := loadPages()
	if err != nil {
		return nil, err
	}
	return &Handler{store: store, sessions: sessions, pages: p, logger: logger}, nil
}

// Home handles GET and POST /. A submitted "search" field filters the list.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := SessionFromContext(ctx)

	if err := r.ParseForm(); err != nil {
		h.fail(w, r, fmt.Errorf("%w: %v", library.ErrInvalidInput, err))
		return
	}

	var (
		books      []library.Book
		searchTerm string
		err        error
	)
	if _, searching := r.Form["search"]; searching {
		searchTerm = r.Form.Get("search")
		books, err = h.store.Search(ctx, searchTerm)
		if err == nil {
			searchesTotal.WithLabelValues(searchOutcome(books)).Inc()
			if len(books) == 0 {
				sess.AddFlash(FlashInfo, fmt.Sprintf("No books found for '%s'.", searchTerm))
			}
		}
	} else {
		books, err = h.store.Books(ctx)
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	bookOfTheDay, err := h.store.BookOfTheDay(ctx)
	if err != nil && !errors.Is(err, library.ErrBookNotFound) {
		h.fail(w, r, err)
		return
	}

	h.render(w, r, http.StatusOK, "index", map[string]any{
		"title":           siteTitle,
		"books":           books,
		"search_term":     searchTerm,
		"book_of_the_day": bookOfTheDay,
	})
}

// Browse handles GET /browse.
func (h *Handler) Browse(w http.ResponseWriter, r *http.Request) {
	books, err := h.store.Books(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	h.render(w, r, http.StatusOK, "browse", map[string]any{
		"title": siteTitle,
		"books": books,
	})
}

// RegisterPage handles GET /register.
func (h *Handler) RegisterPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "register", map[string]any{"title": "Register"})
}

// Register handles POST /register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := SessionFromContext(ctx)

	var form registerForm
	if err := decodeForm(r, &form); err != nil {
		h.fail(w, r, err)
		return
	}

	_, err := h.store.Register(ctx, value(form.Username), value(form.Password), value(form.Confirm))
	switch {
	case errors.Is(err, library.ErrUsernameTaken):
		registrationsTotal.WithLabelValues("username_taken").Inc()
		sess.AddFlash(FlashDanger, "Username already exists.")
		h.redirect(w, r, "/register")
	case errors.Is(err, library.ErrPasswordMismatch):
		registrationsTotal.WithLabelValues("password_mismatch").Inc()
		sess.AddFlash(FlashDanger, "Passwords do not match.")
		h.redirect(w, r, "/register")
	case err != nil:
		h.fail(w, r, err)
	default:
		registrationsTotal.WithLabelValues("registered").Inc()
		sess.AddFlash(FlashSuccess, "Registration successful! Please log in.")
		h.redirect(w, r, "/login")
	}
}

// LoginPage handles GET /login.
func (h *Handler) LoginPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "login", map[string]any{"title": "Login"})
}

// Login handles POST /login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	sess := SessionFromContext(ctx)

	var form loginForm
	if err := decodeForm(r, &form); err != nil {
		h.fail(w, r, err)
		return
	}

	user, err := h.store.Login(ctx, value(form.Username), value(form.Password))
	if errors.Is(err, library.ErrInvalidCredentials) {
		loginsTotal.WithLabelValues("invalid_credentials").Inc()
		sess.AddFlash(FlashDanger, "Invalid username or password.")
		h.render(w, r, http.StatusOK, "login", map[string]any{"title": "Login"})
		return
	}
	if err != nil {
		h.fail(w, r, err)
		return
	}

	loginsTotal.WithLabelValues("success").Inc()
	sess.Login(user.ID, user.Username)
	sess.AddFlash(FlashSuccess, fmt.Sprintf("Welcome, %s!", user.Username))
	h.redirect(w, r, "/")
}

// Logout handles GET /logout. It always succeeds.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	sess.Logout()
	sess.AddFlash(FlashSuccess, "Logged out successfully!")
	h.redirect(w, r, "/")
}

// ListBook handles POST /list.
func (h *Handler) ListBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var form listForm
	if err := decodeForm(r, &form); err != nil {
		h.fail(w, r, err)
		return
	}

	if _, err := h.store.ListBook(ctx, value(form.Title), value(form.Author), form.CoverURL); err != nil {
		h.fail(w, r, err)
		return
	}

	SessionFromContext(ctx).AddFlash(FlashSuccess, "Book listed successfully!")
	h.redirect(w, r, "/")
}

// Rate handles POST /rate. Rating an unknown title is silently ignored.
func (h *Handler) Rate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var form rateForm
	if err := decodeForm(r, &form); err != nil {
		h.fail(w, r, err)
		return
	}
	stars, err := form.stars()
	if err != nil {
		h.fail(w, r, err)
		return
	}

	_, err = h.store.Rate(ctx, value(form.Title), stars)
	switch {
	case errors.Is(err, library.ErrBookNotFound):
		ratingsTotal.WithLabelValues("not_found").Inc()
	case err != nil:
		h.fail(w, r, err)
		return
	default:
		ratingsTotal.WithLabelValues("rated").Inc()
		SessionFromContext(ctx).AddFlash(FlashSuccess, "Thank you for rating!")
	}
	h.redirect(w, r, "/")
}

// Contact handles POST /contact.
func (h *Handler) Contact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var form contactForm
	if err := decodeForm(r, &form); err != nil {
		h.fail(w, r, err)
		return
	}

	if _, err := h.store.Contact(ctx, value(form.Email), value(form.Message)); err != nil {
		h.fail(w, r, err)
		return
	}

	SessionFromContext(ctx).AddFlash(FlashSuccess, "Message sent!")
	h.redirect(w, r, "/thankyou")
}

// ThankYou handles GET /thankyou.
func (h *Handler) ThankYou(w http.ResponseWriter, r *http.Request) {
	h.render(w, r, http.StatusOK, "thankyou", map[string]any{"title": "Thank You"})
}

func searchOutcome(books []library.Book) string {
	if len(books) == 0 {
		return "empty"
	}
	return "matched"
}
