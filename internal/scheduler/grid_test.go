package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smaplan/timetable-api/internal/models"
)

func TestNewGridStructuralCompleteness(t *testing.T) {
	periods := []models.Period{
		lessonPeriod("p1", "07:30", "08:15"),
		breakPeriod("b1", "08:15", "08:45"),
		lessonPeriod("p2", "08:45", "09:30"),
	}
	classes := []models.Class{class("c1", "10"), class("c2", "11")}

	grid := NewGrid(weekDays(), periods, classes)

	require.Equal(t, 5*3*2, grid.Size())
	seen := make(map[SlotRef]int)
	for _, slot := range grid.Slots() {
		seen[slot.Ref()]++
	}
	require.Len(t, seen, grid.Size(), "every (day, period, class) triple has exactly one slot")
	for ref, count := range seen {
		assert.Equal(t, 1, count, "duplicate slot at %+v", ref)
	}
}

func TestNewGridStampsBreaks(t *testing.T) {
	periods := []models.Period{
		lessonPeriod("p1", "07:30", "08:15"),
		breakPeriod("b1", "08:15", "08:45"),
	}
	grid := NewGrid(weekDays(), periods, []models.Class{class("c1", "10")})

	for _, slot := range grid.Slots() {
		if slot.PeriodID == "b1" {
			assert.True(t, slot.IsBreak)
			assert.Empty(t, slot.SubjectID)
			assert.Empty(t, slot.TeacherID)
		} else {
			assert.False(t, slot.IsBreak)
		}
	}
}

func TestGridOrdersPeriodsByStartTime(t *testing.T) {
	periods := []models.Period{
		lessonPeriod("late", "10:00", "10:45"),
		lessonPeriod("early", "07:30", "08:15"),
	}
	grid := NewGrid([]int{1}, periods, []models.Class{class("c1", "10")})

	ordered := grid.Periods()
	require.Len(t, ordered, 2)
	assert.Equal(t, "early", ordered[0].ID)
	assert.Equal(t, "late", ordered[1].ID)
}

func TestTeacherBusyExcludesClass(t *testing.T) {
	periods := []models.Period{lessonPeriod("p1", "07:30", "08:15")}
	classes := []models.Class{class("c1", "10"), class("c2", "10")}
	grid := NewGrid([]int{1}, periods, classes)

	slot, ok := grid.At(SlotRef{Day: 1, PeriodID: "p1", ClassID: "c1"})
	require.True(t, ok)
	slot.SubjectID = "math"
	slot.TeacherID = "t1"

	assert.True(t, grid.TeacherBusy(1, "p1", "t1", ""))
	assert.True(t, grid.TeacherBusy(1, "p1", "t1", "c2"))
	assert.False(t, grid.TeacherBusy(1, "p1", "t1", "c1"), "own class is excluded from the scan")
	assert.False(t, grid.TeacherBusy(1, "p1", "t2", ""))
}

func TestAvailabilityAbsentMeansUnrestricted(t *testing.T) {
	unrestricted := teacher("t1", []string{"math"}, []string{"10"})
	assert.True(t, Available(unrestricted, 1, "p1"))
	assert.True(t, Available(unrestricted, 5, "p9"))

	restricted := teacherWithAvailability(t, "t2", []string{"math"}, []string{"10"}, map[string][]string{
		"MONDAY": {"p1"},
	})
	assert.True(t, Available(restricted, 1, "p1"))
	assert.False(t, Available(restricted, 1, "p2"))
	assert.False(t, Available(restricted, 2, "p1"), "days missing from the map are blocked")
}
