package main

import (
	"context"
	"encoding/csv"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"book-exchange/library"
)

func main() {
	dbPath := flag.String("db", "bookexchange.db", "SQLite database file")
	csvPath := flag.String("csv", "books.csv", "CSV file with columns title,author[,cover_url]")
	flag.Parse()

	manager, err := library.NewManager(*dbPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer manager.Close()

	f, err := os.Open(*csvPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening CSV file: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	fmt.Printf("Importing books from %s...\n", *csvPath)
	ctx := context.Background()
	successCount, errorCount := importBooks(ctx, manager, f)

	fmt.Printf("\nImport complete!\n")
	fmt.Printf("Successfully imported: %d books\n", successCount)
	fmt.Printf("Errors: %d\n", errorCount)

	// Display summary of the catalogue
	if successCount > 0 {
		fmt.Println("\nCatalogue:")
		books, err := manager.Books(ctx)
		if err != nil {
			fmt.Printf("Error retrieving books: %v\n", err)
		} else {
			fmt.Printf("%-3s %-50s %-30s\n", "ID", "Title", "Author")
			fmt.Println(strings.Repeat("-", 85))
			for _, book := range books {
				fmt.Printf("%-3d %-50s %-30s\n", book.ID, truncateString(book.Title, 50), truncateString(book.Author, 30))
			}
		}
	}
}

// importBooks lists every row of r. A first row whose first cell is "title"
// is treated as a header.
func importBooks(ctx context.Context, manager *library.Manager, r io.Reader) (successCount, errorCount int) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	line := 0
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			fmt.Printf("Line %d: ERROR - %v\n", line, err)
			errorCount++
			continue
		}
		if line == 1 && strings.EqualFold(strings.TrimSpace(record[0]), "title") {
			continue
		}
		if len(record) < 2 {
			fmt.Printf("Line %d: ERROR - expected title and author\n", line)
			errorCount++
			continue
		}

		title := strings.TrimSpace(record[0])
		author := strings.TrimSpace(record[1])
		var coverURL string
		if len(record) > 2 {
			coverURL = strings.TrimSpace(record[2])
		}

		if title == "" || author == "" {
			fmt.Printf("Line %d: ERROR - title and author are required\n", line)
			errorCount++
			continue
		}

		fmt.Printf("Importing: %s by %s... ", title, author)
		bookID, err := manager.ListBook(ctx, title, author, coverURL)
		if err != nil {
			fmt.Printf("ERROR - %v\n", err)
			errorCount++
			continue
		}
		fmt.Printf("SUCCESS (ID: %d)\n", bookID)
		successCount++
	}
	return successCount, errorCount
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
