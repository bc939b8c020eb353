package library

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func testManager(t *testing.T) *Manager {
	t.Helper()
	dir := t.TempDir()
	mgr, err := NewManager(filepath.Join(dir, "lib.db"), WithBcryptCost(bcrypt.MinCost))
	if err != nil {
		t.Fatalf("mgr: %v", err)
	}
	t.Cleanup(func() { mgr.Close() })
	return mgr
}

func seededManager(t *testing.T) *Manager {
	t.Helper()
	mgr := testManager(t)
	if _, err := mgr.Seed(context.Background()); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return mgr
}

func bookByTitle(t *testing.T, mgr *Manager, title string) Book {
	t.Helper()
	books, err := mgr.Books(context.Background())
	require.NoError(t, err)
	for _, b := range books {
		if b.Title == title {
			return b
		}
	}
	t.Fatalf("book %q not found", title)
	return Book{}
}

func TestRateUpdatesRunningTotals(t *testing.T) {
	ctx := context.Background()
	mgr := seededManager(t)

	b, err := mgr.Rate(ctx, "1984", 5)
	require.NoError(t, err)
	assert.Equal(t, int64(9), b.RatingSum)
	assert.Equal(t, int64(2), b.RatingCount)
	assert.Equal(t, 4.5, b.AverageRating())

	stored := bookByTitle(t, mgr, "1984")
	assert.Equal(t, int64(9), stored.RatingSum)
	assert.Equal(t, int64(2), stored.RatingCount)
}

func TestRateUnknownTitleChangesNothing(t *testing.T) {
	ctx := context.Background()
	mgr := seededManager(t)

	before, err := mgr.Books(ctx)
	require.NoError(t, err)

	_, err = mgr.Rate(ctx, "Nonexistent Title", 3)
	assert.ErrorIs(t, err, ErrBookNotFound)

	after, err := mgr.Books(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestRateMatchesTitleExactly(t *testing.T) {
	ctx := context.Background()
	mgr := seededManager(t)

	_, err := mgr.Rate(ctx, "the great gatsby", 5)
	assert.ErrorIs(t, err, ErrBookNotFound)
}

func TestRateAcceptsAnyInteger(t *testing.T) {
	ctx := context.Background()
	mgr := seededManager(t)

	b, err := mgr.Rate(ctx, "To Kill a Mockingbird", 42)
	require.NoError(t, err)
	assert.Equal(t, int64(47), b.RatingSum)

	b, err = mgr.Rate(ctx, "To Kill a Mockingbird", -7)
	require.NoError(t, err)
	assert.Equal(t, int64(40), b.RatingSum)
	assert.Equal(t, int64(3), b.RatingCount)
}

func TestRateDuplicateTitlesHitsFirstListed(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t)

	first, err := mgr.ListBook(ctx, "Twin", "Author A", "")
	require.NoError(t, err)
	second, err := mgr.ListBook(ctx, "Twin", "Author B", "")
	require.NoError(t, err)

	_, err = mgr.Rate(ctx, "Twin", 4)
	require.NoError(t, err)

	b1, err := mgr.GetBook(ctx, first)
	require.NoError(t, err)
	b2, err := mgr.GetBook(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, int64(1), b1.RatingCount)
	assert.Equal(t, int64(0), b2.RatingCount)
}

func TestListBookUsesPlaceholderCover(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t)

	id, err := mgr.ListBook(ctx, "Emma", "Jane Austen", "")
	require.NoError(t, err)
	b, err := mgr.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, DefaultPlaceholderCover, b.CoverURL)
	assert.Zero(t, b.RatingSum)
	assert.Zero(t, b.RatingCount)

	id, err = mgr.ListBook(ctx, "Persuasion", "Jane Austen", "https://example.com/p.jpg")
	require.NoError(t, err)
	b, err = mgr.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/p.jpg", b.CoverURL)
}

func TestListBookCustomPlaceholder(t *testing.T) {
	ctx := context.Background()
	mgr, err := NewManager(filepath.Join(t.TempDir(), "lib.db"),
		WithBcryptCost(bcrypt.MinCost),
		WithPlaceholderCover("https://example.com/none.png"),
	)
	require.NoError(t, err)
	defer mgr.Close()

	id, err := mgr.ListBook(ctx, "Emma", "Jane Austen", "")
	require.NoError(t, err)
	b, err := mgr.GetBook(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/none.png", b.CoverURL)
}

func TestBookOfTheDayIsFirstBook(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t)

	_, err := mgr.BookOfTheDay(ctx)
	assert.ErrorIs(t, err, ErrBookNotFound)

	_, err = mgr.Seed(ctx)
	require.NoError(t, err)
	b, err := mgr.BookOfTheDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, "The Great Gatsby", b.Title)
}

func TestSeedTwice(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t)

	n, err := mgr.Seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 4, n)
	n, err = mgr.Seed(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	books, err := mgr.Books(ctx)
	require.NoError(t, err)
	assert.Len(t, books, 4)
}

func TestContactStoresMessage(t *testing.T) {
	ctx := context.Background()
	mgr := testManager(t)

	id, err := mgr.Contact(ctx, "not-an-email", "Do you have Dune?")
	require.NoError(t, err)
	assert.Positive(t, id)
}

func TestPrettyBook(t *testing.T) {
	b := &Book{ID: 7, Title: "A Very Long Title That Will Not Fit The Column", Author: "Someone", RatingSum: 9, RatingCount: 2}
	out := PrettyBook(b)
	assert.Contains(t, out, "...")
	assert.Contains(t, out, "4.5")
}
