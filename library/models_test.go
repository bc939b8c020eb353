package library

import "testing"

func TestAverageRating(t *testing.T) {
	tests := []struct {
		name  string
		sum   int64
		count int64
		want  float64
	}{
		{"unrated", 0, 0, 0},
		{"single", 4, 1, 4},
		{"half", 9, 2, 4.5},
		{"thirds", 10, 3, 3.3},
		{"two thirds", 5, 3, 1.7},
		{"tie rounds to even", 9, 4, 2.2},
		{"negative", -3, 2, -1.5},
		{"one twentieth", 1, 20, 0.1},
		{"three twentieths", 3, 20, 0.1},
		{"seven twentieths", 7, 20, 0.3},
		{"nineteen twentieths", 19, 20, 0.9},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Book{RatingSum: tt.sum, RatingCount: tt.count}
			if got := b.AverageRating(); got != tt.want {
				t.Fatalf("AverageRating(%d/%d) = %v, want %v", tt.sum, tt.count, got, tt.want)
			}
		})
	}
}
