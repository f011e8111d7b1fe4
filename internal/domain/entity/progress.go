package entity

import "time"

// UserProgress records per-user, per-course consumption state. The pair
// (UserID, CourseID) is unique; rows are created lazily on first enroll or
// first premium purchase and never deleted.
type UserProgress struct {
	UserID             string
	CourseID           string
	CompletedLessons   []string
	LastAccessedLesson string
	EnrolledAt         time.Time
	IsPremium          bool
	PurchasedAt        *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// ZeroProgress is the shape returned when no record exists yet; reads never 404.
func ZeroProgress(userID, courseID string) *UserProgress {
	return &UserProgress{
		UserID:           userID,
		CourseID:         courseID,
		CompletedLessons: []string{},
	}
}

// Percentage computes completion against the course's lesson total.
func (p *UserProgress) Percentage(totalLessons int) float64 {
	if totalLessons <= 0 {
		return 0
	}
	return float64(len(p.CompletedLessons)) / float64(totalLessons) * 100
}
