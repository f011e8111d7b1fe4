package entity

import "time"

const (
	TierFree    = "free"
	TierPremium = "premium"
)

// SubTopic is a single lesson inside a topic.
type SubTopic struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	VideoURL string `json:"videoUrl,omitempty"`
	Tier     string `json:"tier,omitempty"` // free|premium, defaults to the course tier
}

// Topic groups lessons within a course.
type Topic struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	SubTopics []SubTopic `json:"subTopics"`
}

// Course is the catalog aggregate. Topics are stored as a JSONB document; the
// core only reads existence, premium price and the enrollment counter.
type Course struct {
	ID              string
	Title           string
	Description     string
	Topics          []Topic
	Price           float64
	PremiumPrice    float64
	Tier            string
	EnrollmentCount int
	ThumbnailURL    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// SubTopicCount returns the total number of lessons across all topics.
func (c *Course) SubTopicCount() int {
	n := 0
	for _, t := range c.Topics {
		n += len(t.SubTopics)
	}
	return n
}
