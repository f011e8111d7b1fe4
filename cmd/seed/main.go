package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/joho/godotenv"

	"github.com/sikshyalaya/backend/config"
	"github.com/sikshyalaya/backend/internal/domain/entity"
	"github.com/sikshyalaya/backend/pkg/helpers"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	db, err := sql.Open("pgx", cfg.PostgresDSN())
	if err != nil {
		log.Fatalf("failed to open db: %v", err)
	}
	defer func() { _ = db.Close() }()

	email := "admin@sikshyalaya.local"
	password := "password123"
	hash, err := helpers.HashPassword(password)
	if err != nil {
		log.Fatalf("failed to hash password: %v", err)
	}

	var adminID string
	err = db.QueryRow(`
		INSERT INTO users (full_name, email, password_hash, role, is_verified)
		VALUES ($1, $2, $3, $4, true)
		ON CONFLICT (email) DO UPDATE SET role = EXCLUDED.role, updated_at = now()
		RETURNING id
	`, "Platform Admin", email, hash, entity.RoleAdmin).Scan(&adminID)
	if err != nil {
		log.Fatalf("failed to seed admin: %v", err)
	}
	fmt.Printf("seeded admin: id=%s email=%s password=%s\n", adminID, email, password)

	for _, c := range sampleCourses() {
		topics, err := json.Marshal(c.Topics)
		if err != nil {
			log.Fatalf("failed to marshal topics: %v", err)
		}
		// Re-running the seeder must not duplicate courses.
		var id string
		err = db.QueryRow(`SELECT id FROM courses WHERE title = $1`, c.Title).Scan(&id)
		if err == sql.ErrNoRows {
			err = db.QueryRow(`
				INSERT INTO courses (title, description, topics, price, premium_price, tier)
				VALUES ($1, $2, $3, $4, $5, $6)
				RETURNING id
			`, c.Title, c.Description, topics, c.Price, c.PremiumPrice, c.Tier).Scan(&id)
		}
		if err != nil {
			log.Fatalf("failed to seed course %q: %v", c.Title, err)
		}
		fmt.Printf("seeded course: id=%s title=%q\n", id, c.Title)
	}
}

func sampleCourses() []entity.Course {
	return []entity.Course{
		{
			Title:       "Go from Scratch",
			Description: "Backend fundamentals with Go, from syntax to services.",
			Tier:        entity.TierFree,
			Topics: []entity.Topic{
				{ID: "go-basics", Title: "Basics", SubTopics: []entity.SubTopic{
					{ID: "go-hello", Title: "Hello World"},
					{ID: "go-vars", Title: "Variables and Types"},
				}},
				{ID: "go-conc", Title: "Concurrency", SubTopics: []entity.SubTopic{
					{ID: "go-goroutines", Title: "Goroutines"},
					{ID: "go-channels", Title: "Channels"},
				}},
			},
		},
		{
			Title:        "Advanced PostgreSQL",
			Description:  "Indexes, transactions and query planning in depth.",
			Tier:         entity.TierPremium,
			Price:        0,
			PremiumPrice: 1500,
			Topics: []entity.Topic{
				{ID: "pg-indexes", Title: "Indexing", SubTopics: []entity.SubTopic{
					{ID: "pg-btree", Title: "B-tree Internals", Tier: entity.TierPremium},
					{ID: "pg-gin", Title: "GIN and GiST", Tier: entity.TierPremium},
				}},
			},
		},
	}
}
