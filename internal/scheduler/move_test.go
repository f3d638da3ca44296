package scheduler

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/smaplan/timetable-api/internal/models"
)

func moveFixture(t *testing.T) (*Grid, Entities) {
	t.Helper()
	ents := Entities{
		Periods: []models.Period{
			lessonPeriod("p1", "07:30", "08:15"),
			lessonPeriod("p2", "08:15", "09:00"),
			breakPeriod("b1", "09:00", "09:15"),
		},
		Subjects: []models.Subject{subject("math", 5, models.SubjectPriorityHigh)},
		Classes:  []models.Class{class("c1", "10"), class("c2", "10")},
		Teachers: []models.Teacher{teacher("t1", []string{"math"}, []string{"10"})},
	}
	grid := NewGrid(weekDays(), ents.Periods, ents.Classes)

	seed, ok := grid.At(SlotRef{Day: 1, PeriodID: "p1", ClassID: "c1"})
	require.True(t, ok)
	seed.SubjectID = "math"
	seed.TeacherID = "t1"
	seed.RoomID = "r1"
	return grid, ents
}

func TestMoveRelocatesLessonAtomically(t *testing.T) {
	grid, ents := moveFixture(t)
	from := SlotRef{Day: 1, PeriodID: "p1", ClassID: "c1"}
	to := SlotRef{Day: 2, PeriodID: "p2", ClassID: "c1"}

	require.NoError(t, Move(grid, ents, from, to))

	source, _ := grid.At(from)
	target, _ := grid.At(to)
	assert.False(t, source.Assigned())
	assert.Empty(t, source.RoomID)
	assert.Equal(t, "math", target.SubjectID)
	assert.Equal(t, "t1", target.TeacherID)
	assert.Equal(t, "r1", target.RoomID)
}

func TestMoveRoundTripRestoresOriginalGrid(t *testing.T) {
	grid, ents := moveFixture(t)
	a := SlotRef{Day: 1, PeriodID: "p1", ClassID: "c1"}
	b := SlotRef{Day: 3, PeriodID: "p1", ClassID: "c1"}

	require.NoError(t, Move(grid, ents, a, b))
	require.NoError(t, Move(grid, ents, b, a))

	original, _ := grid.At(a)
	assert.Equal(t, "math", original.SubjectID)
	assert.Equal(t, "t1", original.TeacherID)
	assert.Equal(t, "r1", original.RoomID)
	intermediate, _ := grid.At(b)
	assert.False(t, intermediate.Assigned())
}

func TestMoveRejections(t *testing.T) {
	occupied := SlotRef{Day: 1, PeriodID: "p1", ClassID: "c1"}

	tests := []struct {
		name   string
		setup  func(t *testing.T, grid *Grid)
		from   SlotRef
		to     SlotRef
		reason string
	}{
		{
			name:   "unknown source slot",
			from:   SlotRef{Day: 9, PeriodID: "p1", ClassID: "c1"},
			to:     SlotRef{Day: 2, PeriodID: "p1", ClassID: "c1"},
			reason: ReasonUnknownSlot,
		},
		{
			name:   "unknown target slot",
			from:   occupied,
			to:     SlotRef{Day: 1, PeriodID: "nope", ClassID: "c1"},
			reason: ReasonUnknownSlot,
		},
		{
			name:   "empty source slot",
			from:   SlotRef{Day: 4, PeriodID: "p1", ClassID: "c1"},
			to:     SlotRef{Day: 4, PeriodID: "p2", ClassID: "c1"},
			reason: ReasonSourceEmpty,
		},
		{
			name:   "target is a break",
			from:   occupied,
			to:     SlotRef{Day: 1, PeriodID: "b1", ClassID: "c1"},
			reason: ReasonTargetBreak,
		},
		{
			name: "target already occupied",
			setup: func(t *testing.T, grid *Grid) {
				slot, ok := grid.At(SlotRef{Day: 2, PeriodID: "p1", ClassID: "c1"})
				require.True(t, ok)
				slot.SubjectID = "math"
				slot.TeacherID = "t1"
			},
			from:   occupied,
			to:     SlotRef{Day: 2, PeriodID: "p1", ClassID: "c1"},
			reason: ReasonTargetOccupied,
		},
		{
			name: "teacher booked elsewhere at target",
			setup: func(t *testing.T, grid *Grid) {
				slot, ok := grid.At(SlotRef{Day: 2, PeriodID: "p1", ClassID: "c2"})
				require.True(t, ok)
				slot.SubjectID = "math"
				slot.TeacherID = "t1"
			},
			from:   occupied,
			to:     SlotRef{Day: 2, PeriodID: "p1", ClassID: "c1"},
			reason: ReasonTeacherBusy,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			grid, ents := moveFixture(t)
			if tc.setup != nil {
				tc.setup(t, grid)
			}

			err := Move(grid, ents, tc.from, tc.to)
			var moveErr *MoveError
			require.ErrorAs(t, err, &moveErr)
			assert.Equal(t, tc.reason, moveErr.Reason)

			// Rejection leaves the source untouched.
			if source, ok := grid.At(tc.from); ok && tc.reason != ReasonSourceEmpty {
				assert.True(t, source.Assigned())
			}
		})
	}
}

func TestMoveWithinSameClassIgnoresOwnBooking(t *testing.T) {
	// Moving a lesson to another period of the same class must not see the
	// moving lesson itself as a double-booking.
	grid, ents := moveFixture(t)
	from := SlotRef{Day: 1, PeriodID: "p1", ClassID: "c1"}
	to := SlotRef{Day: 1, PeriodID: "p2", ClassID: "c1"}

	assert.NoError(t, Move(grid, ents, from, to))
}

func TestMoveRejectsLevelIneligibleTeacher(t *testing.T) {
	// t1 covers level 10 only; relocating the lesson into the level-12
	// class must be rejected with the source left in place.
	ents := Entities{
		Periods:  []models.Period{lessonPeriod("p1", "07:30", "08:15")},
		Subjects: []models.Subject{subject("math", 5, models.SubjectPriorityHigh)},
		Classes:  []models.Class{class("c1", "10"), class("c2", "12")},
		Teachers: []models.Teacher{teacher("t1", []string{"math"}, []string{"10"})},
	}
	grid := NewGrid(weekDays(), ents.Periods, ents.Classes)
	from := SlotRef{Day: 1, PeriodID: "p1", ClassID: "c1"}
	seed, ok := grid.At(from)
	require.True(t, ok)
	seed.SubjectID = "math"
	seed.TeacherID = "t1"

	to := SlotRef{Day: 2, PeriodID: "p1", ClassID: "c2"}
	err := Move(grid, ents, from, to)
	var moveErr *MoveError
	require.ErrorAs(t, err, &moveErr)
	assert.Equal(t, ReasonTeacherIneligible, moveErr.Reason)

	source, ok := grid.At(from)
	require.True(t, ok)
	assert.True(t, source.Assigned())
	target, ok := grid.At(to)
	require.True(t, ok)
	assert.False(t, target.Assigned())
}

func TestCheckHardConstraintsFlagsViolations(t *testing.T) {
	grid, _ := moveFixture(t)

	// Occupy a room in c1 so c2 can collide with it.
	roomed, ok := grid.At(SlotRef{Day: 1, PeriodID: "p2", ClassID: "c1"})
	require.True(t, ok)
	roomed.SubjectID = "math"
	roomed.TeacherID = "t1"
	roomed.RoomID = "lab"

	tests := []struct {
		name     string
		change   ProposedChange
		expected string
	}{
		{
			name: "placement on break period",
			change: ProposedChange{
				Ref:       SlotRef{Day: 1, PeriodID: "b1", ClassID: "c1"},
				SubjectID: "math",
				TeacherID: "t1",
			},
			expected: ViolationBreakPlacement,
		},
		{
			name: "teacher double booking",
			change: ProposedChange{
				Ref:       SlotRef{Day: 1, PeriodID: "p1", ClassID: "c2"},
				SubjectID: "math",
				TeacherID: "t1",
			},
			expected: ViolationTeacherDouble,
		},
		{
			name: "room double booking",
			change: ProposedChange{
				Ref:       SlotRef{Day: 1, PeriodID: "p2", ClassID: "c2"},
				SubjectID: "math",
				TeacherID: "t2",
				RoomID:    "lab",
			},
			expected: ViolationRoomDouble,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			violations := CheckHardConstraints(grid, tc.change)
			codes := make([]string, 0, len(violations))
			for _, v := range violations {
				codes = append(codes, v.Code)
			}
			assert.Contains(t, codes, tc.expected)
		})
	}
}

func TestCheckHardConstraintsAcceptsCleanChange(t *testing.T) {
	grid, _ := moveFixture(t)

	violations := CheckHardConstraints(grid, ProposedChange{
		Ref:       SlotRef{Day: 3, PeriodID: "p2", ClassID: "c2"},
		SubjectID: "math",
		TeacherID: "t1",
	})
	assert.Empty(t, violations)
}
