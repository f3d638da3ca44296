package scheduler

import "fmt"

// Move rejection reasons.
const (
	ReasonUnknownSlot       = "UNKNOWN_SLOT"
	ReasonSourceEmpty       = "SOURCE_EMPTY"
	ReasonTargetBreak       = "TARGET_BREAK"
	ReasonTargetOccupied    = "TARGET_OCCUPIED"
	ReasonTeacherBusy       = "TEACHER_BUSY"
	ReasonTeacherIneligible = "TEACHER_INELIGIBLE"
)

// MoveError reports why a manual move was rejected. The grid is unchanged
// whenever a MoveError is returned.
type MoveError struct {
	Reason  string
	Message string
}

func (e *MoveError) Error() string {
	return fmt.Sprintf("move rejected (%s): %s", e.Reason, e.Message)
}

// Move relocates a lesson from one slot to another. Both slots change
// together: the target receives the source's subject, teacher and room, and
// the source is cleared. No intermediate state is observable since the grid
// is mutated single-threaded.
func Move(grid *Grid, ents Entities, from, to SlotRef) error {
	source, ok := grid.At(from)
	if !ok {
		return &MoveError{Reason: ReasonUnknownSlot, Message: "source slot does not exist"}
	}
	target, ok := grid.At(to)
	if !ok {
		return &MoveError{Reason: ReasonUnknownSlot, Message: "target slot does not exist"}
	}
	if !source.Assigned() {
		return &MoveError{Reason: ReasonSourceEmpty, Message: "source slot holds no lesson"}
	}
	if target.IsBreak {
		return &MoveError{Reason: ReasonTargetBreak, Message: "cannot place a lesson on a break period"}
	}
	if target.Assigned() {
		return &MoveError{Reason: ReasonTargetOccupied, Message: "target slot already holds a lesson"}
	}
	// A cross-class move changes the audience: the teacher must still cover
	// the target class's level and the lesson's subject.
	if teacher, class := ents.TeacherByID(source.TeacherID), ents.ClassByID(to.ClassID); teacher != nil && class != nil {
		if !ents.Eligible(*teacher, source.SubjectID, *class) {
			return &MoveError{Reason: ReasonTeacherIneligible, Message: "teacher does not teach this subject at the target class level"}
		}
	}
	// The source class itself is excluded: its lesson is the one moving.
	if grid.TeacherBusy(to.Day, to.PeriodID, source.TeacherID, from.ClassID) {
		return &MoveError{Reason: ReasonTeacherBusy, Message: "teacher already booked at the target day and period"}
	}

	target.SubjectID = source.SubjectID
	target.TeacherID = source.TeacherID
	target.RoomID = source.RoomID
	source.clear()
	return nil
}

// ProposedChange describes a prospective slot edit for pre-commit checking.
type ProposedChange struct {
	Ref       SlotRef `json:"ref"`
	SubjectID string  `json:"subject_id"`
	TeacherID string  `json:"teacher_id"`
	RoomID    string  `json:"room_id,omitempty"`
}

// Violation is one hard-constraint breach a proposed change would introduce.
type Violation struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

const (
	ViolationBreakPlacement = "BREAK_PLACEMENT"
	ViolationTeacherDouble  = "TEACHER_DOUBLE_BOOKING"
	ViolationRoomDouble     = "ROOM_DOUBLE_BOOKING"
)

// CheckHardConstraints evaluates a proposed edit against the grid without
// applying it. An empty result means the edit may be committed.
func CheckHardConstraints(grid *Grid, change ProposedChange) []Violation {
	violations := make([]Violation, 0)

	slot, ok := grid.At(change.Ref)
	if !ok {
		violations = append(violations, Violation{
			Code:    ReasonUnknownSlot,
			Message: "addressed slot does not exist",
		})
		return violations
	}
	if slot.IsBreak {
		violations = append(violations, Violation{
			Code:    ViolationBreakPlacement,
			Message: "lessons cannot be placed on break or lunch periods",
		})
	}
	if change.TeacherID != "" && grid.TeacherBusy(change.Ref.Day, change.Ref.PeriodID, change.TeacherID, change.Ref.ClassID) {
		violations = append(violations, Violation{
			Code:    ViolationTeacherDouble,
			Message: "teacher already booked for another class at this day and period",
		})
	}
	if change.RoomID != "" {
		for _, class := range grid.Classes() {
			if class.ID == change.Ref.ClassID {
				continue
			}
			other, ok := grid.At(SlotRef{Day: change.Ref.Day, PeriodID: change.Ref.PeriodID, ClassID: class.ID})
			if ok && other.RoomID == change.RoomID {
				violations = append(violations, Violation{
					Code:    ViolationRoomDouble,
					Message: "room already occupied at this day and period",
				})
				break
			}
		}
	}
	return violations
}
