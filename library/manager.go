package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// DefaultPlaceholderCover is used for listed books that arrive without a cover.
const DefaultPlaceholderCover = "https://via.placeholder.com/120x180?text=No+Cover"

// Manager is a thin façade over the Database that carries the catalogue,
// rating and account rules, keeping HTTP and CLI code simple.
type Manager struct {
	db     *Database
	logger *slog.Logger

	bcryptCost       int
	placeholderCover string
	dummyHash        []byte
}

// Option customises a Manager.
type Option func(*Manager)

// WithLogger sets the logger used for domain events.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithBcryptCost sets the bcrypt work factor for new password hashes.
// Values outside bcrypt's accepted range fall back to bcrypt.DefaultCost.
func WithBcryptCost(cost int) Option {
	return func(m *Manager) { m.bcryptCost = cost }
}

// WithPlaceholderCover overrides the cover URL given to books listed without one.
func WithPlaceholderCover(url string) Option {
	return func(m *Manager) { m.placeholderCover = url }
}

// NewManager opens (or creates) the SQLite database at dbPath.
func NewManager(dbPath string, opts ...Option) (*Manager, error) {
	db, err := NewDatabase(dbPath)
	if err != nil {
		return nil, err
	}
	m, err := newManager(db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	return m, nil
}

func newManager(db *Database, opts ...Option) (*Manager, error) {
	m := &Manager{
		db:               db,
		logger:           slog.New(slog.NewTextHandler(io.Discard, nil)),
		bcryptCost:       bcrypt.DefaultCost,
		placeholderCover: DefaultPlaceholderCover,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.bcryptCost < bcrypt.MinCost || m.bcryptCost > bcrypt.MaxCost {
		m.bcryptCost = bcrypt.DefaultCost
	}
	if m.placeholderCover == "" {
		m.placeholderCover = DefaultPlaceholderCover
	}

	// Unknown usernames are checked against this hash so a failed login costs
	// the same whether or not the account exists.
	hash, err := bcrypt.GenerateFromPassword([]byte("book-exchange/no-such-user"), m.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	m.dummyHash = hash
	return m, nil
}

// Close closes the underlying database.
func (m *Manager) Close() error { return m.db.Close() }

// Ping reports whether the database is reachable.
func (m *Manager) Ping(ctx context.Context) error { return m.db.Ping(ctx) }

// Seed inserts the demo catalogue if, and only if, no book exists yet.
// It returns the number of books inserted.
func (m *Manager) Seed(ctx context.Context) (int, error) {
	n, err := m.db.SeedBooks(ctx, DemoBooks())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		m.logger.InfoContext(ctx, "seeded demo catalogue", slog.Int("books", n))
	}
	return n, nil
}

// ------------------ Book helpers ------------------

// GetBook looks a book up by id; `books --id` uses it.
func (m *Manager) GetBook(ctx context.Context, id int64) (*Book, error) {
	return m.db.GetBook(ctx, id)
}

// Books returns the whole catalogue in id order.
func (m *Manager) Books(ctx context.Context) ([]Book, error) {
	return m.db.GetAllBooks(ctx)
}

// BookOfTheDay is the first book in datastore order, or ErrBookNotFound for
// an empty catalogue.
func (m *Manager) BookOfTheDay(ctx context.Context) (*Book, error) {
	return m.db.FirstBook(ctx)
}

// ListBook adds a new, unrated book. Duplicate titles are allowed.
func (m *Manager) ListBook(ctx context.Context, title, author, coverURL string) (int64, error) {
	if coverURL == "" {
		coverURL = m.placeholderCover
	}
	id, err := m.db.AddBook(ctx, &Book{Title: title, Author: author, CoverURL: coverURL})
	if err != nil {
		return 0, err
	}
	m.logger.InfoContext(ctx, "book listed",
		slog.Int64("book_id", id),
		slog.String("title", title),
	)
	return id, nil
}

// ------------------ Search ------------------

// Search returns the books whose title or author contains term, ignoring
// case, in datastore order. An empty term returns the full catalogue.
func (m *Manager) Search(ctx context.Context, term string) ([]Book, error) {
	books, err := m.db.GetAllBooks(ctx)
	if err != nil {
		return nil, err
	}
	return FilterBooks(books, term), nil
}

// ------------------ Ratings ------------------

// Rate adds stars to the first book whose title matches exactly.
//
// The star value is not range-checked: any integer is added to the running
// sum. When several books share a title only the one with the lowest id is
// rated. ErrBookNotFound is returned, with nothing changed, when no title
// matches.
func (m *Manager) Rate(ctx context.Context, title string, stars int) (*Book, error) {
	b, err := m.db.RateBook(ctx, title, stars)
	if errors.Is(err, ErrBookNotFound) {
		m.logger.DebugContext(ctx, "rating ignored, no such title", slog.String("title", title))
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("rate %q: %w", title, err)
	}
	m.logger.InfoContext(ctx, "book rated",
		slog.Int64("book_id", b.ID),
		slog.Int("stars", stars),
		slog.Float64("average", b.AverageRating()),
	)
	return b, nil
}

// ------------------ Contact ------------------

// Contact stores a message from the contact form. The email is not validated.
func (m *Manager) Contact(ctx context.Context, email, message string) (int64, error) {
	id, err := m.db.AddMessage(ctx, email, message)
	if err != nil {
		return 0, err
	}
	m.logger.InfoContext(ctx, "contact message stored", slog.Int64("message_id", id))
	return id, nil
}

// ------------------ Utilities ------------------

// PrettyBook formats a book for lists.
func PrettyBook(b *Book) string {
	return fmt.Sprintf("%-5d %-30s %-25s %4.1f (%d)", b.ID, truncate(b.Title, 30), truncate(b.Author, 25), b.AverageRating(), b.RatingCount)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return strings.TrimSpace(string(r[:maxLen-3])) + "..."
}
