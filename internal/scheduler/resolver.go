package scheduler

import (
	"context"

	"go.uber.org/zap"
)

// ResolveResult summarises a conflict resolution pass.
type ResolveResult struct {
	Repaired  int `json:"repaired"`
	Remaining int `json:"remaining"`
}

// ResolveConflicts is a defensive pass repairing teacher double-bookings the
// assignment phase should not produce but concurrent edits or bugs might. For
// each teacher booked into more than one class at the same (day, period), the
// first class keeps its lesson and the others are relocated into a free slot
// of their own class where the teacher is free, same day preferred. Runs until
// an iteration repairs nothing or maxIterations is reached.
func ResolveConflicts(ctx context.Context, grid *Grid, ents Entities, maxIterations int, logger *zap.Logger) (ResolveResult, error) {
	if maxIterations <= 0 {
		maxIterations = 100
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	result := ResolveResult{}
	for iteration := 0; iteration < maxIterations; iteration++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		repaired := resolveOnce(grid, ents)
		result.Repaired += repaired
		if repaired == 0 {
			break
		}
	}

	result.Remaining = countConflicts(grid)
	if result.Remaining > 0 {
		logger.Warn("unresolved teacher conflicts remain", zap.Int("remaining", result.Remaining))
	}
	return result, nil
}

func resolveOnce(grid *Grid, ents Entities) int {
	repaired := 0
	for _, day := range grid.Days() {
		for _, period := range grid.Periods() {
			if !period.IsLesson() {
				continue
			}
			byTeacher := make(map[string][]*Slot)
			for _, class := range grid.Classes() {
				slot, ok := grid.At(SlotRef{Day: day, PeriodID: period.ID, ClassID: class.ID})
				if ok && slot.TeacherID != "" {
					byTeacher[slot.TeacherID] = append(byTeacher[slot.TeacherID], slot)
				}
			}
			for _, slots := range byTeacher {
				if len(slots) < 2 {
					continue
				}
				// First class keeps the lesson, the rest are relocated.
				for _, slot := range slots[1:] {
					if relocate(grid, ents, slot) {
						repaired++
					}
				}
			}
		}
	}
	return repaired
}

// relocate moves the slot's lesson to a free slot of the same class where the
// teacher is free and available. Same-day targets are tried first.
func relocate(grid *Grid, ents Entities, slot *Slot) bool {
	teacher := ents.TeacherByID(slot.TeacherID)

	days := make([]int, 0, len(grid.Days()))
	days = append(days, slot.Day)
	for _, day := range grid.Days() {
		if day != slot.Day {
			days = append(days, day)
		}
	}

	for _, day := range days {
		for _, period := range grid.Periods() {
			if !period.IsLesson() {
				continue
			}
			if day == slot.Day && period.ID == slot.PeriodID {
				continue
			}
			target, ok := grid.At(SlotRef{Day: day, PeriodID: period.ID, ClassID: slot.ClassID})
			if !ok || target.IsBreak || target.Assigned() {
				continue
			}
			if grid.TeacherBusy(day, period.ID, slot.TeacherID, slot.ClassID) {
				continue
			}
			if teacher != nil && !Available(*teacher, day, period.ID) {
				continue
			}

			target.SubjectID = slot.SubjectID
			target.TeacherID = slot.TeacherID
			target.RoomID = slot.RoomID
			slot.clear()
			return true
		}
	}
	return false
}

// countConflicts counts lessons that violate teacher exclusivity.
func countConflicts(grid *Grid) int {
	conflicts := 0
	for _, day := range grid.Days() {
		for _, period := range grid.Periods() {
			if !period.IsLesson() {
				continue
			}
			seen := make(map[string]int)
			for _, class := range grid.Classes() {
				slot, ok := grid.At(SlotRef{Day: day, PeriodID: period.ID, ClassID: class.ID})
				if ok && slot.TeacherID != "" {
					seen[slot.TeacherID]++
				}
			}
			for _, count := range seen {
				if count > 1 {
					conflicts += count - 1
				}
			}
		}
	}
	return conflicts
}
