package scheduler

import (
	"math"

	"github.com/smaplan/timetable-api/internal/models"
)

const (
	scoreBase           = 1000
	scoreBonus          = 50
	scoreBonusThreshold = 950

	frequencyWeight  = 10
	preferenceWeight = 5
	imbalanceWeight  = 3
)

// ScoreBreakdown itemises the soft-objective score of a finished grid.
type ScoreBreakdown struct {
	Total             int `json:"total"`
	FrequencyPenalty  int `json:"frequency_penalty"`
	PreferencePenalty int `json:"preference_penalty"`
	ImbalancePenalty  int `json:"imbalance_penalty"`
	Bonus             int `json:"bonus"`
}

// Score rates a grid against the soft objectives: subject-frequency match,
// teacher daily-load and morning preferences, and workload balance. Pure
// function; also used to score hypothetical manual edits.
func Score(grid *Grid, ents Entities, cons models.Constraints) ScoreBreakdown {
	breakdown := ScoreBreakdown{}

	subjectCount := grid.SubjectCounts()
	for _, class := range ents.Classes {
		for _, subject := range ents.Subjects {
			diff := subjectCount[class.ID][subject.ID] - effectiveTarget(subject.TargetPerWeek, cons)
			if diff < 0 {
				diff = -diff
			}
			weight := 1
			if subject.Priority == models.SubjectPriorityHigh {
				weight = 2
			}
			breakdown.FrequencyPenalty += frequencyWeight * diff * weight
		}
	}

	dailyLoads := make(map[string]map[int]int)
	afternoonLessons := make(map[string]int)
	for _, slot := range grid.LessonSlots() {
		if slot.TeacherID == "" {
			continue
		}
		if dailyLoads[slot.TeacherID] == nil {
			dailyLoads[slot.TeacherID] = make(map[int]int)
		}
		dailyLoads[slot.TeacherID][slot.Day]++
		if period := ents.PeriodByID(slot.PeriodID); period != nil && !period.IsMorning() {
			afternoonLessons[slot.TeacherID]++
		}
	}
	for teacherID, days := range dailyLoads {
		if cons.MaxDailyLessons > 0 {
			for _, count := range days {
				if count > cons.MaxDailyLessons {
					breakdown.PreferencePenalty += preferenceWeight * (count - cons.MaxDailyLessons)
				}
			}
		}
		if teacher := ents.TeacherByID(teacherID); teacher != nil && teacher.MorningPreference {
			breakdown.PreferencePenalty += preferenceWeight * afternoonLessons[teacherID]
		}
	}

	loads := grid.TeacherLoads()
	for i := range ents.Teachers {
		if _, ok := loads[ents.Teachers[i].ID]; !ok {
			loads[ents.Teachers[i].ID] = 0
		}
	}
	if len(loads) > 0 {
		total := 0
		for _, load := range loads {
			total += load
		}
		mean := float64(total) / float64(len(loads))
		deviation := 0.0
		for _, load := range loads {
			deviation += math.Abs(float64(load) - mean)
		}
		breakdown.ImbalancePenalty = int(math.Round(float64(imbalanceWeight) * deviation))
	}

	score := scoreBase - breakdown.FrequencyPenalty - breakdown.PreferencePenalty - breakdown.ImbalancePenalty
	if score > scoreBonusThreshold {
		breakdown.Bonus = scoreBonus
		score += scoreBonus
	}
	if score < 0 {
		score = 0
	}
	breakdown.Total = score
	return breakdown
}
