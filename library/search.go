package library

import "strings"

// FilterBooks keeps the books whose title or author contains term, ignoring
// case. Order is preserved and an empty term keeps everything.
func FilterBooks(books []Book, term string) []Book {
	needle := strings.ToLower(term)
	matched := make([]Book, 0, len(books))
	for _, b := range books {
		if strings.Contains(strings.ToLower(b.Title), needle) ||
			strings.Contains(strings.ToLower(b.Author), needle) {
			matched = append(matched, b)
		}
	}
	return matched
}
