package library

import "strconv"

// Book is a catalogue entry together with its running rating totals.
// The average is always derived from RatingSum and RatingCount, never stored.
type Book struct {
	ID          int64  `db:"id" json:"id"`
	Title       string `db:"title" json:"title"`
	Author      string `db:"author" json:"author"`
	CoverURL    string `db:"cover_url" json:"cover_url"`
	RatingSum   int64  `db:"rating_sum" json:"rating_sum"`
	RatingCount int64  `db:"rating_count" json:"rating_count"`
}

// AverageRating returns RatingSum/RatingCount rounded to one decimal place
// (exact ties to even), or 0 for a book nobody has rated yet.
func (b Book) AverageRating() float64 {
	if b.RatingCount == 0 {
		return 0
	}
	avg := float64(b.RatingSum) / float64(b.RatingCount)
	// Round the exact binary value of avg, not avg*10.
	v, _ := strconv.ParseFloat(strconv.FormatFloat(avg, 'f', 1, 64), 64)
	return v
}

// User is a registered account.
type User struct {
	ID           int64  `db:"id" json:"id"`
	Username     string `db:"username" json:"username"`
	PasswordHash string `db:"password" json:"-"` // Don't serialize password hash
}

// Message is a contact-form submission. Messages are only ever written.
type Message struct {
	ID    int64  `db:"id" json:"id"`
	Email string `db:"email" json:"email"`
	Body  string `db:"message" json:"message"`
}
