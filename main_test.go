package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadPasswordKeepsSurroundingSpaces(t *testing.T) {
	orig := readSecret
	t.Cleanup(func() { readSecret = orig })
	readSecret = func(int) ([]byte, error) { return []byte(" pw "), nil }

	got, err := readPassword("Password: ")
	require.NoError(t, err)
	assert.Equal(t, " pw ", got)
}

func TestBooksCommand(t *testing.T) {
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	t.Setenv("ENVIRONMENT", "development")
	db := filepath.Join(t.TempDir(), "cli.db")

	run := func(args ...string) string {
		t.Helper()
		dbPath, port, logLevel = "", 0, ""
		var out bytes.Buffer
		root := newRootCmd()
		root.SetOut(&out)
		root.SetArgs(append([]string{"--db", db}, args...))
		require.NoError(t, root.Execute())
		return out.String()
	}

	assert.Contains(t, run("seed"), "Seeded 4 books.")
	assert.Contains(t, run("seed"), "nothing seeded")

	all := run("books")
	assert.Contains(t, all, "The Great Gatsby")
	assert.Contains(t, all, "Pride and Prejudice")

	found := run("books", "--search", "orwell")
	assert.Contains(t, found, "1984")
	assert.False(t, strings.Contains(found, "Gatsby"))

	one := run("books", "--id", "1")
	assert.Contains(t, one, "The Great Gatsby")
	assert.NotContains(t, one, "1984")
}
