package scheduler

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smaplan/timetable-api/internal/models"
)

func TestAssignFillsFullWeekForSingleTeacher(t *testing.T) {
	// 1 class, 2 lesson periods over 5 days = 10 slots, one subject
	// targeting 10 lessons with exactly one eligible teacher.
	ents := Entities{
		Periods:  []models.Period{lessonPeriod("p1", "07:30", "08:15"), lessonPeriod("p2", "08:15", "09:00")},
		Subjects: []models.Subject{subject("math", 10, models.SubjectPriorityHigh)},
		Classes:  []models.Class{class("c1", "10")},
		Teachers: []models.Teacher{teacher("t1", []string{"math"}, []string{"10"})},
	}
	grid := NewGrid(weekDays(), ents.Periods, ents.Classes)
	engine := NewEngine(DefaultWeights(), 5, nil, nil)

	result, err := engine.Assign(context.Background(), grid, ents, models.DefaultConstraints(), nil)
	require.NoError(t, err)

	assert.Equal(t, 10, result.Assigned)
	assert.Zero(t, result.Unassigned)
	for _, slot := range grid.LessonSlots() {
		assert.Equal(t, "math", slot.SubjectID)
		assert.Equal(t, "t1", slot.TeacherID)
	}
}

func TestAssignPrefersLessLoadedTeacher(t *testing.T) {
	// Two interchangeable teachers. The greedy score penalises weekly load,
	// so assignments must alternate rather than pile onto one teacher.
	ents := Entities{
		Periods:  []models.Period{lessonPeriod("p1", "07:30", "08:15"), lessonPeriod("p2", "08:15", "09:00")},
		Subjects: []models.Subject{subject("math", 10, models.SubjectPriorityHigh)},
		Classes:  []models.Class{class("c1", "10"), class("c2", "10")},
		Teachers: []models.Teacher{
			teacher("t1", []string{"math"}, []string{"10"}),
			teacher("t2", []string{"math"}, []string{"10"}),
		},
	}
	grid := NewGrid(weekDays(), ents.Periods, ents.Classes)
	engine := NewEngine(DefaultWeights(), 5, nil, nil)

	_, err := engine.Assign(context.Background(), grid, ents, models.DefaultConstraints(), nil)
	require.NoError(t, err)

	loads := grid.TeacherLoads()
	assert.Equal(t, loads["t1"], loads["t2"], "interchangeable teachers should end with equal load")
}

func TestAssignHonoursAvailability(t *testing.T) {
	// t1 is only available Monday p1; the rest of the week the slot must
	// stay empty since no one else teaches math.
	ents := Entities{
		Periods:  []models.Period{lessonPeriod("p1", "07:30", "08:15")},
		Subjects: []models.Subject{subject("math", 5, models.SubjectPriorityHigh)},
		Classes:  []models.Class{class("c1", "10")},
		Teachers: []models.Teacher{
			teacherWithAvailability(t, "t1", []string{"math"}, []string{"10"}, map[string][]string{
				"MONDAY": {"p1"},
			}),
		},
	}
	grid := NewGrid(weekDays(), ents.Periods, ents.Classes)
	engine := NewEngine(DefaultWeights(), 2, nil, nil)

	result, err := engine.Assign(context.Background(), grid, ents, models.DefaultConstraints(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Assigned)
	monday, ok := grid.At(SlotRef{Day: 1, PeriodID: "p1", ClassID: "c1"})
	require.True(t, ok)
	assert.Equal(t, "t1", monday.TeacherID)
	tuesday, ok := grid.At(SlotRef{Day: 2, PeriodID: "p1", ClassID: "c1"})
	require.True(t, ok)
	assert.False(t, tuesday.Assigned())
}

func TestAssignRespectsMaxWeeklyLessons(t *testing.T) {
	ents := Entities{
		Periods:  []models.Period{lessonPeriod("p1", "07:30", "08:15"), lessonPeriod("p2", "08:15", "09:00")},
		Subjects: []models.Subject{subject("math", 10, models.SubjectPriorityHigh)},
		Classes:  []models.Class{class("c1", "10")},
		Teachers: []models.Teacher{teacher("t1", []string{"math"}, []string{"10"})},
	}
	grid := NewGrid(weekDays(), ents.Periods, ents.Classes)
	engine := NewEngine(DefaultWeights(), 5, nil, nil)

	cons := models.DefaultConstraints()
	cons.MaxWeeklyLessons = 4

	result, err := engine.Assign(context.Background(), grid, ents, cons, nil)
	require.NoError(t, err)

	assert.Equal(t, 4, result.Assigned)
	assert.Equal(t, 4, grid.TeacherLoads()["t1"])
}

func TestAssignNeverDoubleBooksTeacher(t *testing.T) {
	// Three classes compete for a single teacher every period.
	ents := Entities{
		Periods:  []models.Period{lessonPeriod("p1", "07:30", "08:15"), lessonPeriod("p2", "08:15", "09:00")},
		Subjects: []models.Subject{subject("math", 10, models.SubjectPriorityHigh)},
		Classes:  []models.Class{class("c1", "10"), class("c2", "10"), class("c3", "10")},
		Teachers: []models.Teacher{teacher("t1", []string{"math"}, []string{"10"})},
	}
	grid := NewGrid(weekDays(), ents.Periods, ents.Classes)
	engine := NewEngine(DefaultWeights(), 5, nil, nil)

	_, err := engine.Assign(context.Background(), grid, ents, models.DefaultConstraints(), nil)
	require.NoError(t, err)

	assert.Zero(t, countConflicts(grid))
}

func TestAssignReturnsContextError(t *testing.T) {
	ents := Entities{
		Periods:  []models.Period{lessonPeriod("p1", "07:30", "08:15")},
		Subjects: []models.Subject{subject("math", 5, models.SubjectPriorityHigh)},
		Classes:  []models.Class{class("c1", "10")},
		Teachers: []models.Teacher{teacher("t1", []string{"math"}, []string{"10"})},
	}
	grid := NewGrid(weekDays(), ents.Periods, ents.Classes)
	engine := NewEngine(DefaultWeights(), 5, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Assign(ctx, grid, ents, models.DefaultConstraints(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssignReportsProgress(t *testing.T) {
	ents := Entities{
		Periods:  []models.Period{lessonPeriod("p1", "07:30", "08:15"), lessonPeriod("p2", "08:15", "09:00")},
		Subjects: []models.Subject{subject("math", 10, models.SubjectPriorityHigh)},
		Classes:  []models.Class{class("c1", "10")},
		Teachers: []models.Teacher{teacher("t1", []string{"math"}, []string{"10"})},
	}
	grid := NewGrid(weekDays(), ents.Periods, ents.Classes)
	engine := NewEngine(DefaultWeights(), 1, nil, nil)

	var snapshots []Progress
	_, err := engine.Assign(context.Background(), grid, ents, models.DefaultConstraints(), func(p Progress) {
		snapshots = append(snapshots, p)
	})
	require.NoError(t, err)

	require.NotEmpty(t, snapshots)
	last := snapshots[len(snapshots)-1]
	assert.Equal(t, "assign", last.Phase)
	assert.Equal(t, 100, last.Percent)
}

func TestAssignProgressTopsOutWhenDemandBelowCapacity(t *testing.T) {
	// 10 lesson slots but only 6 demanded lessons: the last snapshot must
	// still read 100 percent once the demand is covered.
	ents := Entities{
		Periods:  []models.Period{lessonPeriod("p1", "07:30", "08:15"), lessonPeriod("p2", "08:15", "09:00")},
		Subjects: []models.Subject{subject("math", 6, models.SubjectPriorityHigh)},
		Classes:  []models.Class{class("c1", "10")},
		Teachers: []models.Teacher{teacher("t1", []string{"math"}, []string{"10"})},
	}
	grid := NewGrid(weekDays(), ents.Periods, ents.Classes)
	engine := NewEngine(DefaultWeights(), 1, nil, nil)

	var snapshots []Progress
	result, err := engine.Assign(context.Background(), grid, ents, models.DefaultConstraints(), func(p Progress) {
		snapshots = append(snapshots, p)
	})
	require.NoError(t, err)
	require.Equal(t, 6, result.Assigned)
	require.Zero(t, result.Unassigned)

	require.NotEmpty(t, snapshots)
	assert.Equal(t, 100, snapshots[len(snapshots)-1].Percent)
	for _, p := range snapshots {
		assert.LessOrEqual(t, p.Percent, 100)
	}
}

func TestEffectiveTargetClampsToBounds(t *testing.T) {
	cons := models.Constraints{MinLessonsPerSubject: 2, MaxLessonsPerSubject: 6}
	assert.Equal(t, 6, effectiveTarget(10, cons))
	assert.Equal(t, 2, effectiveTarget(1, cons))
	assert.Equal(t, 4, effectiveTarget(4, cons))
}

func TestOrderByDifficultyPutsHarderClassesFirst(t *testing.T) {
	// c-senior is level 12 with a single eligible teacher; c-junior is
	// level 7 with two. Senior slots must come first in the pool.
	ents := Entities{
		Periods:  []models.Period{lessonPeriod("p1", "07:30", "08:15")},
		Subjects: []models.Subject{subject("math", 5, models.SubjectPriorityHigh)},
		Classes:  []models.Class{class("c-junior", "7"), class("c-senior", "12")},
		Teachers: []models.Teacher{
			teacher("t1", []string{"math"}, []string{"7", "12"}),
			teacher("t2", []string{"math"}, []string{"7"}),
		},
	}
	grid := NewGrid(weekDays(), ents.Periods, ents.Classes)
	engine := NewEngine(DefaultWeights(), 1, nil, nil)

	pool := engine.orderByDifficulty(grid, ents)
	require.Len(t, pool, 10)
	for i := 0; i < 5; i++ {
		assert.Equal(t, "c-senior", pool[i].ClassID)
	}
}
