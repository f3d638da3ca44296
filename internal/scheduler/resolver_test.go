package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smaplan/timetable-api/internal/models"
)

func conflictedGrid(t *testing.T, ents Entities) *Grid {
	t.Helper()
	grid := NewGrid(weekDays(), ents.Periods, ents.Classes)

	// Manufacture a double-booking: t1 teaches both classes Monday p1.
	for _, classID := range []string{"c1", "c2"} {
		slot, ok := grid.At(SlotRef{Day: 1, PeriodID: "p1", ClassID: classID})
		require.True(t, ok)
		slot.SubjectID = "math"
		slot.TeacherID = "t1"
	}
	return grid
}

func TestResolveConflictsRelocatesDoubleBooking(t *testing.T) {
	ents := Entities{
		Periods:  []models.Period{lessonPeriod("p1", "07:30", "08:15"), lessonPeriod("p2", "08:15", "09:00")},
		Subjects: []models.Subject{subject("math", 5, models.SubjectPriorityHigh)},
		Classes:  []models.Class{class("c1", "10"), class("c2", "10")},
		Teachers: []models.Teacher{teacher("t1", []string{"math"}, []string{"10"})},
	}
	grid := conflictedGrid(t, ents)
	require.Equal(t, 1, countConflicts(grid))

	result, err := ResolveConflicts(context.Background(), grid, ents, 100, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Repaired)
	assert.Zero(t, result.Remaining)
	assert.Zero(t, countConflicts(grid))

	// The lesson survived the relocation, it just lives elsewhere now.
	lessons := 0
	for _, slot := range grid.LessonSlots() {
		if slot.Assigned() {
			lessons++
			assert.Equal(t, "t1", slot.TeacherID)
		}
	}
	assert.Equal(t, 2, lessons)
}

func TestResolveConflictsPrefersSameDay(t *testing.T) {
	ents := Entities{
		Periods:  []models.Period{lessonPeriod("p1", "07:30", "08:15"), lessonPeriod("p2", "08:15", "09:00")},
		Subjects: []models.Subject{subject("math", 5, models.SubjectPriorityHigh)},
		Classes:  []models.Class{class("c1", "10"), class("c2", "10")},
		Teachers: []models.Teacher{teacher("t1", []string{"math"}, []string{"10"})},
	}
	grid := conflictedGrid(t, ents)

	_, err := ResolveConflicts(context.Background(), grid, ents, 100, nil)
	require.NoError(t, err)

	moved, ok := grid.At(SlotRef{Day: 1, PeriodID: "p2", ClassID: "c2"})
	require.True(t, ok)
	assert.True(t, moved.Assigned(), "relocation should land on the same day when a slot is free")
}

func TestResolveConflictsLeavesUnresolvableInPlace(t *testing.T) {
	// Single period per day and the teacher only available Monday: the
	// displaced lesson has nowhere legal to go.
	ents := Entities{
		Periods:  []models.Period{lessonPeriod("p1", "07:30", "08:15")},
		Subjects: []models.Subject{subject("math", 5, models.SubjectPriorityHigh)},
		Classes:  []models.Class{class("c1", "10"), class("c2", "10")},
		Teachers: []models.Teacher{
			teacherWithAvailability(t, "t1", []string{"math"}, []string{"10"}, map[string][]string{
				"MONDAY": {"p1"},
			}),
		},
	}
	grid := conflictedGrid(t, ents)

	result, err := ResolveConflicts(context.Background(), grid, ents, 100, nil)
	require.NoError(t, err)

	assert.Zero(t, result.Repaired)
	assert.Equal(t, 1, result.Remaining)
}

func TestResolveConflictsNeverPlacesOnBreak(t *testing.T) {
	ents := Entities{
		Periods: []models.Period{
			lessonPeriod("p1", "07:30", "08:15"),
			breakPeriod("b1", "08:15", "08:30"),
		},
		Subjects: []models.Subject{subject("math", 5, models.SubjectPriorityHigh)},
		Classes:  []models.Class{class("c1", "10"), class("c2", "10")},
		Teachers: []models.Teacher{teacher("t1", []string{"math"}, []string{"10"})},
	}
	grid := conflictedGrid(t, ents)

	_, err := ResolveConflicts(context.Background(), grid, ents, 100, nil)
	require.NoError(t, err)

	for _, slot := range grid.Slots() {
		if slot.IsBreak {
			assert.False(t, slot.Assigned(), "break slot must stay empty")
		}
	}
}

func TestResolveConflictsReturnsContextError(t *testing.T) {
	ents := Entities{
		Periods:  []models.Period{lessonPeriod("p1", "07:30", "08:15")},
		Subjects: []models.Subject{subject("math", 5, models.SubjectPriorityHigh)},
		Classes:  []models.Class{class("c1", "10"), class("c2", "10")},
		Teachers: []models.Teacher{teacher("t1", []string{"math"}, []string{"10"})},
	}
	grid := conflictedGrid(t, ents)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := ResolveConflicts(ctx, grid, ents, 100, nil)
	assert.ErrorIs(t, err, context.Canceled)
}
