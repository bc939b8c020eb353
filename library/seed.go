package library

// demoBooks is the catalogue inserted into an empty database.
var demoBooks = []Book{
	{
		Title:       "The Great Gatsby",
		Author:      "F. Scott Fitzgerald",
		CoverURL:    "https://covers.openlibrary.org/b/id/8675325-L.jpg",
		RatingSum:   9,
		RatingCount: 2,
	},
	{
		Title:       "To Kill a Mockingbird",
		Author:      "Harper Lee",
		CoverURL:    "https://covers.openlibrary.org/b/id/8228691-L.jpg",
		RatingSum:   5,
		RatingCount: 1,
	},
	{
		Title:       "1984",
		Author:      "George Orwell",
		CoverURL:    "https://covers.openlibrary.org/b/id/7222246-L.jpg",
		RatingSum:   4,
		RatingCount: 1,
	},
	{
		Title:       "Pride and Prejudice",
		Author:      "Jane Austen",
		CoverURL:    "https://covers.openlibrary.org/b/id/8091016-L.jpg",
		RatingSum:   9,
		RatingCount: 2,
	},
}

// DemoBooks returns a copy of the seed catalogue.
func DemoBooks() []Book {
	books := make([]Book, len(demoBooks))
	copy(books, demoBooks)
	return books
}
