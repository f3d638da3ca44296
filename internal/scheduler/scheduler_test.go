package scheduler

import (
	"encoding/json"
	"testing"

	"github.com/smaplan/timetable-api/internal/models"
)

// --- Shared fixtures ---

func lessonPeriod(id, start, end string) models.Period {
	return models.Period{ID: id, Name: id, StartTime: start, EndTime: end, Kind: models.PeriodKindLesson}
}

func breakPeriod(id, start, end string) models.Period {
	return models.Period{ID: id, Name: id, StartTime: start, EndTime: end, Kind: models.PeriodKindBreak}
}

func subject(id string, target int, priority models.SubjectPriority) models.Subject {
	return models.Subject{ID: id, Code: id, Name: id, TargetPerWeek: target, Priority: priority}
}

func class(id, level string) models.Class {
	return models.Class{ID: id, Name: id, Level: level}
}

func teacher(id string, subjects, levels []string) models.Teacher {
	return models.Teacher{ID: id, FullName: id, SubjectIDs: subjects, ClassLevels: levels, Active: true}
}

func teacherWithAvailability(t *testing.T, id string, subjects, levels []string, availability map[string][]string) models.Teacher {
	t.Helper()
	raw, err := json.Marshal(availability)
	if err != nil {
		t.Fatalf("marshal availability: %v", err)
	}
	tch := teacher(id, subjects, levels)
	tch.Availability = raw
	return tch
}

func weekDays() []int {
	return []int{1, 2, 3, 4, 5}
}
