// Command seed loads a demo data set into the database: a school week of
// periods, a handful of subjects, classes and teachers, and an admin user.
// Intended for local development and demos only.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"golang.org/x/crypto/bcrypt"

	"github.com/smaplan/timetable-api/internal/models"
	"github.com/smaplan/timetable-api/internal/repository"
	"github.com/smaplan/timetable-api/pkg/config"
	"github.com/smaplan/timetable-api/pkg/database"
)

func main() {
	var (
		adminEmail    string
		adminPassword string
		timeout       time.Duration
	)
	flag.StringVar(&adminEmail, "admin-email", "admin@school.local", "Email for the seeded admin user")
	flag.StringVar(&adminPassword, "admin-password", "changeme", "Password for the seeded admin user")
	flag.DurationVar(&timeout, "timeout", 30*time.Second, "Overall seeding timeout")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := seed(ctx, db, adminEmail, adminPassword); err != nil {
		log.Fatalf("seeding failed: %v", err)
	}
	log.Println("seeding complete")
}

func seed(ctx context.Context, db *sqlx.DB, adminEmail, adminPassword string) error {
	periodRepo := repository.NewPeriodRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	classRepo := repository.NewClassRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	userRepo := repository.NewUserRepository(db)

	periods := []models.Period{
		{Name: "1st", StartTime: "07:30", EndTime: "08:15", Kind: models.PeriodKindLesson},
		{Name: "2nd", StartTime: "08:15", EndTime: "09:00", Kind: models.PeriodKindLesson},
		{Name: "3rd", StartTime: "09:00", EndTime: "09:45", Kind: models.PeriodKindLesson},
		{Name: "Recess", StartTime: "09:45", EndTime: "10:05", Kind: models.PeriodKindBreak},
		{Name: "4th", StartTime: "10:05", EndTime: "10:50", Kind: models.PeriodKindLesson},
		{Name: "5th", StartTime: "10:50", EndTime: "11:35", Kind: models.PeriodKindLesson},
		{Name: "Lunch", StartTime: "11:35", EndTime: "12:20", Kind: models.PeriodKindLunch},
		{Name: "6th", StartTime: "12:20", EndTime: "13:05", Kind: models.PeriodKindLesson},
		{Name: "7th", StartTime: "13:05", EndTime: "13:50", Kind: models.PeriodKindLesson},
	}
	for i := range periods {
		if err := periodRepo.Create(ctx, &periods[i]); err != nil {
			return fmt.Errorf("create period %s: %w", periods[i].Name, err)
		}
	}

	subjects := []models.Subject{
		{Code: "MATH", Name: "Mathematics", TargetPerWeek: 6, Priority: models.SubjectPriorityHigh},
		{Code: "PHY", Name: "Physics", TargetPerWeek: 5, Priority: models.SubjectPriorityHigh},
		{Code: "ENG", Name: "English", TargetPerWeek: 5, Priority: models.SubjectPriorityMedium},
		{Code: "BIO", Name: "Biology", TargetPerWeek: 4, Priority: models.SubjectPriorityMedium},
		{Code: "HIS", Name: "History", TargetPerWeek: 3, Priority: models.SubjectPriorityLow},
		{Code: "ART", Name: "Arts", TargetPerWeek: 2, Priority: models.SubjectPriorityLow},
	}
	for i := range subjects {
		if err := subjectRepo.Create(ctx, &subjects[i]); err != nil {
			return fmt.Errorf("create subject %s: %w", subjects[i].Code, err)
		}
	}

	classes := []models.Class{
		{Name: "10A", Level: "10", Stream: "SCIENCE"},
		{Name: "10B", Level: "10", Stream: "SOCIAL"},
		{Name: "11A", Level: "11", Stream: "SCIENCE"},
		{Name: "12A", Level: "12", Stream: "SCIENCE"},
	}
	for i := range classes {
		if err := classRepo.Create(ctx, &classes[i]); err != nil {
			return fmt.Errorf("create class %s: %w", classes[i].Name, err)
		}
	}

	fridayMornings, err := json.Marshal(map[string][]string{
		"FRIDAY": {periods[0].ID, periods[1].ID, periods[2].ID},
	})
	if err != nil {
		return fmt.Errorf("marshal availability: %w", err)
	}

	teachers := []models.Teacher{
		{
			FullName:          "Siti Rahma",
			Email:             "siti.rahma@school.local",
			SubjectIDs:        pq.StringArray{subjects[0].ID, subjects[1].ID},
			ClassLevels:       pq.StringArray{"10", "11", "12"},
			MorningPreference: true,
			Active:            true,
		},
		{
			FullName:    "Budi Santoso",
			Email:       "budi.santoso@school.local",
			SubjectIDs:  pq.StringArray{subjects[2].ID, subjects[4].ID},
			ClassLevels: pq.StringArray{"10", "11"},
			Active:      true,
		},
		{
			FullName:     "Dewi Lestari",
			Email:        "dewi.lestari@school.local",
			SubjectIDs:   pq.StringArray{subjects[3].ID, subjects[5].ID},
			ClassLevels:  pq.StringArray{"10", "11", "12"},
			Availability: types.JSONText(fridayMornings),
			Active:       true,
		},
		{
			FullName:    "Agus Wijaya",
			Email:       "agus.wijaya@school.local",
			SubjectIDs:  pq.StringArray{subjects[0].ID, subjects[2].ID, subjects[5].ID},
			ClassLevels: pq.StringArray{"10", "11", "12"},
			Active:      true,
		},
	}
	for i := range teachers {
		if err := teacherRepo.Create(ctx, &teachers[i]); err != nil {
			return fmt.Errorf("create teacher %s: %w", teachers[i].FullName, err)
		}
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash admin password: %w", err)
	}
	admin := models.User{
		Email:        adminEmail,
		PasswordHash: string(hash),
		FullName:     "Site Administrator",
		Role:         models.RoleAdmin,
		Active:       true,
	}
	if err := userRepo.Create(ctx, &admin); err != nil {
		return fmt.Errorf("create admin user: %w", err)
	}

	return nil
}
