package library

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
)

// Database provides high-level helpers around a SQLite connection.
// Every exported method runs in its own transaction, so a failed call never
// leaves a partial write behind.
type Database struct {
	db *sqlx.DB

	addBookStmt    *sqlx.Stmt
	addUserStmt    *sqlx.Stmt
	addMessageStmt *sqlx.Stmt
}

// NewDatabase opens (or creates) the SQLite database at dbPath, applies schema
// migrations, and prepares common statements.
func NewDatabase(dbPath string) (*Database, error) {
	// Ensure directory exists so first-run succeeds.
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// Enable busy_timeout and foreign keys.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1", dbPath)
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if err := applyMigrations(db); err != nil {
		db.Close()
		return nil, err
	}

	database, err := newDatabase(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return database, nil
}

func newDatabase(db *sqlx.DB) (*Database, error) {
	database := &Database{db: db}
	if err := database.prepareStatements(); err != nil {
		return nil, err
	}
	return database, nil
}

// Close releases prepared statements and closes the DB.
func (d *Database) Close() error {
	for _, stmt := range []*sqlx.Stmt{d.addBookStmt, d.addUserStmt, d.addMessageStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return d.db.Close()
}

// Ping verifies the connection is still usable.
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// ---------------------------------------------------------------------------
// Schema migration
// ---------------------------------------------------------------------------

const schemaVersion = 1

func applyMigrations(db *sqlx.DB) error {
	// WAL improves write concurrency.
	if _, err := db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
		return fmt.Errorf("enable WAL: %w", err)
	}

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT);`); err != nil {
		return err
	}

	var current int
	_ = db.QueryRow(`SELECT value FROM meta WHERE key='schema_version';`).Scan(&current)
	if current >= schemaVersion {
		return nil
	}

	tx, err := db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	// rating_sum and rating_count carry no CHECK constraint: star values are
	// accepted unbounded, so a negative submission must still be storable.
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS books (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            title TEXT NOT NULL,
            author TEXT NOT NULL,
            cover_url TEXT NOT NULL,
            rating_sum INTEGER NOT NULL DEFAULT 0,
            rating_count INTEGER NOT NULL DEFAULT 0
        );`,
		`CREATE TABLE IF NOT EXISTS users (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            username TEXT NOT NULL UNIQUE,
            password TEXT NOT NULL
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id INTEGER PRIMARY KEY AUTOINCREMENT,
            email TEXT NOT NULL,
            message TEXT NOT NULL
        );`,
	}

	for _, stmt := range stmts {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}

	if _, err := tx.Exec(`INSERT INTO meta(key,value) VALUES('schema_version',?)
        ON CONFLICT(key) DO UPDATE SET value=excluded.value;`, schemaVersion); err != nil {
		return fmt.Errorf("record schema version: %w", err)
	}

	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Prepared statements
// ---------------------------------------------------------------------------

func (d *Database) prepareStatements() error {
	var err error
	if d.addBookStmt, err = d.db.Preparex(`INSERT INTO books(title,author,cover_url,rating_sum,rating_count) VALUES(?,?,?,?,?)`); err != nil {
		return err
	}
	if d.addUserStmt, err = d.db.Preparex(`INSERT INTO users(username,password) VALUES(?,?)`); err != nil {
		return err
	}
	if d.addMessageStmt, err = d.db.Preparex(`INSERT INTO messages(email,message) VALUES(?,?)`); err != nil {
		return err
	}
	return nil
}

// withTx runs fn inside a transaction and commits only if fn succeeds.
func (d *Database) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := d.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// ---------------------------------------------------------------------------
// Books
// ---------------------------------------------------------------------------

const bookColumns = `id,title,author,cover_url,rating_sum,rating_count`

// AddBook inserts b and returns its new identifier. b.ID is ignored.
func (d *Database) AddBook(ctx context.Context, b *Book) (int64, error) {
	var id int64
	err := d.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		id, err = insertBook(ctx, tx.StmtxContext(ctx, d.addBookStmt), b)
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("add book: %w", err)
	}
	return id, nil
}

func insertBook(ctx context.Context, stmt *sqlx.Stmt, b *Book) (int64, error) {
	res, err := stmt.ExecContext(ctx, b.Title, b.Author, b.CoverURL, b.RatingSum, b.RatingCount)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// GetBook fetches a single book by identifier. ErrBookNotFound when absent.
func (d *Database) GetBook(ctx context.Context, id int64) (*Book, error) {
	var b Book
	err := d.withTx(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &b, `SELECT `+bookColumns+` FROM books WHERE id=?`, id)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get book %d: %w", id, err)
	}
	return &b, nil
}

// GetAllBooks returns every book in insertion order.
func (d *Database) GetAllBooks(ctx context.Context) ([]Book, error) {
	books := []Book{}
	err := d.withTx(ctx, func(tx *sqlx.Tx) error {
		return tx.SelectContext(ctx, &books, `SELECT `+bookColumns+` FROM books ORDER BY id`)
	})
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	return books, nil
}

// FirstBook returns the book that sorts first in datastore order.
func (d *Database) FirstBook(ctx context.Context) (*Book, error) {
	var b Book
	err := d.withTx(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &b, `SELECT `+bookColumns+` FROM books ORDER BY id LIMIT 1`)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("first book: %w", err)
	}
	return &b, nil
}

// FindBookByTitle returns the first book whose title equals title exactly.
// RateBook runs the same query inside its own transaction.
func (d *Database) FindBookByTitle(ctx context.Context, title string) (*Book, error) {
	var b *Book
	err := d.withTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		b, err = findBookByTitle(ctx, tx, title)
		return err
	})
	if err != nil {
		return nil, err
	}
	return b, nil
}

func findBookByTitle(ctx context.Context, tx *sqlx.Tx, title string) (*Book, error) {
	var b Book
	// SQLite's default BINARY collation keeps this comparison case-sensitive.
	err := tx.GetContext(ctx, &b, `SELECT `+bookColumns+` FROM books WHERE title = ? ORDER BY id LIMIT 1`, title)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find book %q: %w", title, err)
	}
	return &b, nil
}

// UpdateBook persists the mutable columns of b in its own transaction.
// RateBook shares updateBook with it.
func (d *Database) UpdateBook(ctx context.Context, b *Book) error {
	return d.withTx(ctx, func(tx *sqlx.Tx) error {
		return updateBook(ctx, tx, b)
	})
}

func updateBook(ctx context.Context, tx *sqlx.Tx, b *Book) error {
	res, err := tx.ExecContext(ctx, `UPDATE books SET rating_sum=?, rating_count=? WHERE id=?`,
		b.RatingSum, b.RatingCount, b.ID)
	if err != nil {
		return fmt.Errorf("update book %d: %w", b.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookNotFound
	}
	return nil
}

// RateBook adds stars to the first book titled title and bumps its rating
// count, all in one transaction. The updated book is returned.
func (d *Database) RateBook(ctx context.Context, title string, stars int) (*Book, error) {
	var rated *Book
	err := d.withTx(ctx, func(tx *sqlx.Tx) error {
		b, err := findBookByTitle(ctx, tx, title)
		if err != nil {
			return err
		}
		b.RatingSum += int64(stars)
		b.RatingCount++
		if err := updateBook(ctx, tx, b); err != nil {
			return err
		}
		rated = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return rated, nil
}

// CountBooks returns the number of stored books. SeedBooks repeats the count
// inside its transaction.
func (d *Database) CountBooks(ctx context.Context) (int, error) {
	var n int
	err := d.withTx(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM books`)
	})
	if err != nil {
		return 0, fmt.Errorf("count books: %w", err)
	}
	return n, nil
}

// SeedBooks inserts books only when the books table is empty. The emptiness
// check and the inserts share one transaction. It reports how many rows were
// inserted, which is zero on every call after the first.
func (d *Database) SeedBooks(ctx context.Context, books []Book) (int, error) {
	inserted := 0
	err := d.withTx(ctx, func(tx *sqlx.Tx) error {
		var n int
		if err := tx.GetContext(ctx, &n, `SELECT COUNT(*) FROM books`); err != nil {
			return err
		}
		if n > 0 {
			return nil
		}
		stmt := tx.StmtxContext(ctx, d.addBookStmt)
		for i := range books {
			if _, err := insertBook(ctx, stmt, &books[i]); err != nil {
				return err
			}
			inserted++
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("seed books: %w", err)
	}
	return inserted, nil
}

// ---------------------------------------------------------------------------
// Users
// ---------------------------------------------------------------------------

// AddUser stores a username with an already-hashed password.
// A duplicate username yields ErrUsernameTaken.
func (d *Database) AddUser(ctx context.Context, username, passwordHash string) (int64, error) {
	var id int64
	err := d.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.StmtxContext(ctx, d.addUserStmt).ExecContext(ctx, username, passwordHash)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if isUniqueViolation(err) {
		return 0, ErrUsernameTaken
	}
	if err != nil {
		return 0, fmt.Errorf("add user: %w", err)
	}
	return id, nil
}

// GetUserByUsername fetches a user by exact (case-sensitive) username.
func (d *Database) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := d.withTx(ctx, func(tx *sqlx.Tx) error {
		return tx.GetContext(ctx, &u, `SELECT id,username,password FROM users WHERE username=?`, username)
	})
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user %q: %w", username, err)
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var sqliteErr sqlite3.Error
	return errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique
}

// ---------------------------------------------------------------------------
// Messages
// ---------------------------------------------------------------------------

// AddMessage appends a contact message.
func (d *Database) AddMessage(ctx context.Context, email, body string) (int64, error) {
	var id int64
	err := d.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.StmtxContext(ctx, d.addMessageStmt).ExecContext(ctx, email, body)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("add message: %w", err)
	}
	return id, nil
}
