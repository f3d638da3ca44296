package scheduler

import (
	"context"
	"sort"

	"github.com/smaplan/timetable-api/internal/models"
)

const balanceThreshold = 2

// BalanceLoad moves lessons from teachers well above the mean weekly load to
// eligible teachers well below it. Best-effort: imbalance may remain when no
// eligible swap exists. Returns the number of reassigned lessons.
func BalanceLoad(ctx context.Context, grid *Grid, ents Entities) (int, error) {
	loads := grid.TeacherLoads()
	// Idle teachers count toward the mean too; they are prime reassignment
	// targets and must classify as underloaded.
	for i := range ents.Teachers {
		if _, ok := loads[ents.Teachers[i].ID]; !ok {
			loads[ents.Teachers[i].ID] = 0
		}
	}
	if len(loads) == 0 {
		return 0, nil
	}

	total := 0
	for _, load := range loads {
		total += load
	}
	mean := float64(total) / float64(len(loads))

	overloaded := make([]string, 0)
	underloaded := make([]string, 0)
	for id, load := range loads {
		switch {
		case float64(load) > mean+balanceThreshold:
			overloaded = append(overloaded, id)
		case float64(load) < mean-balanceThreshold:
			underloaded = append(underloaded, id)
		}
	}
	sort.Strings(overloaded)
	sort.Strings(underloaded)

	moved := 0
	for _, overID := range overloaded {
		if err := ctx.Err(); err != nil {
			return moved, err
		}
		for _, slot := range grid.LessonSlots() {
			if slot.TeacherID != overID {
				continue
			}
			class := ents.ClassByID(slot.ClassID)
			if class == nil {
				continue
			}
			reassigned := false
			for _, underID := range underloaded {
				under := ents.TeacherByID(underID)
				if under == nil || !ents.Eligible(*under, slot.SubjectID, *class) {
					continue
				}
				if !Available(*under, slot.Day, slot.PeriodID) {
					continue
				}
				if grid.TeacherBusy(slot.Day, slot.PeriodID, underID, slot.ClassID) {
					continue
				}
				slot.TeacherID = underID
				loads[overID]--
				loads[underID]++
				moved++
				reassigned = true
				break
			}
			if reassigned {
				break
			}
		}
	}
	return moved, nil
}

// OptimizeDistribution tops up subjects that ended below their weekly target
// by filling still-empty lesson slots of the class, in day order. Returns the
// number of slots filled.
func OptimizeDistribution(ctx context.Context, grid *Grid, ents Entities, cons models.Constraints) (int, error) {
	subjectCount := grid.SubjectCounts()
	filled := 0

	for _, class := range ents.Classes {
		if err := ctx.Err(); err != nil {
			return filled, err
		}
		for _, subject := range ents.Subjects {
			target := effectiveTarget(subject.TargetPerWeek, cons)
			deficit := target - subjectCount[class.ID][subject.ID]
			if deficit <= 0 {
				continue
			}
			for _, slot := range grid.LessonSlots() {
				if deficit == 0 {
					break
				}
				if slot.ClassID != class.ID || slot.Assigned() {
					continue
				}
				teacherID := findFreeTeacher(grid, ents, subject.ID, class, slot)
				if teacherID == "" {
					continue
				}
				slot.SubjectID = subject.ID
				slot.TeacherID = teacherID
				if subjectCount[class.ID] == nil {
					subjectCount[class.ID] = make(map[string]int)
				}
				subjectCount[class.ID][subject.ID]++
				deficit--
				filled++
			}
		}
	}
	return filled, nil
}

func findFreeTeacher(grid *Grid, ents Entities, subjectID string, class models.Class, slot *Slot) string {
	for i := range ents.Teachers {
		teacher := ents.Teachers[i]
		if !ents.Eligible(teacher, subjectID, class) {
			continue
		}
		if !Available(teacher, slot.Day, slot.PeriodID) {
			continue
		}
		if grid.TeacherBusy(slot.Day, slot.PeriodID, teacher.ID, slot.ClassID) {
			continue
		}
		return teacher.ID
	}
	return ""
}

// unmetDemand totals the lessons still missing against the weekly targets.
func unmetDemand(grid *Grid, ents Entities, cons models.Constraints) int {
	subjectCount := grid.SubjectCounts()
	missing := 0
	for _, class := range ents.Classes {
		for _, subject := range ents.Subjects {
			deficit := effectiveTarget(subject.TargetPerWeek, cons) - subjectCount[class.ID][subject.ID]
			if deficit > 0 {
				missing += deficit
			}
		}
	}
	return missing
}

// UnmetTargets counts class/subject pairs that remain below their weekly
// target, reported with the partial-assignment warnings.
func UnmetTargets(grid *Grid, ents Entities, cons models.Constraints) int {
	subjectCount := grid.SubjectCounts()
	unmet := 0
	for _, class := range ents.Classes {
		for _, subject := range ents.Subjects {
			if subjectCount[class.ID][subject.ID] < effectiveTarget(subject.TargetPerWeek, cons) {
				unmet++
			}
		}
	}
	return unmet
}
