// Package scheduler implements the constraint-driven weekly timetable engine:
// grid construction, greedy multi-attempt assignment, conflict repair,
// workload balancing, subject distribution and soft scoring. The package is
// pure: it performs no I/O and mutates only the grid handed to it.
package scheduler

import (
	"sort"

	"github.com/smaplan/timetable-api/internal/models"
)

// Entities bundles the read-only inputs of a generation run.
type Entities struct {
	Periods  []models.Period
	Subjects []models.Subject
	Classes  []models.Class
	Teachers []models.Teacher
}

// LessonPeriods returns the teaching periods ordered by start time.
func (e Entities) LessonPeriods() []models.Period {
	lessons := make([]models.Period, 0, len(e.Periods))
	for _, p := range e.Periods {
		if p.IsLesson() {
			lessons = append(lessons, p)
		}
	}
	sort.SliceStable(lessons, func(i, j int) bool {
		return lessons[i].StartMinutes() < lessons[j].StartMinutes()
	})
	return lessons
}

// SubjectByID looks up a subject, nil when absent.
func (e Entities) SubjectByID(id string) *models.Subject {
	for i := range e.Subjects {
		if e.Subjects[i].ID == id {
			return &e.Subjects[i]
		}
	}
	return nil
}

// ClassByID looks up a class, nil when absent.
func (e Entities) ClassByID(id string) *models.Class {
	for i := range e.Classes {
		if e.Classes[i].ID == id {
			return &e.Classes[i]
		}
	}
	return nil
}

// TeacherByID looks up a teacher, nil when absent.
func (e Entities) TeacherByID(id string) *models.Teacher {
	for i := range e.Teachers {
		if e.Teachers[i].ID == id {
			return &e.Teachers[i]
		}
	}
	return nil
}

// PeriodByID looks up a period, nil when absent.
func (e Entities) PeriodByID(id string) *models.Period {
	for i := range e.Periods {
		if e.Periods[i].ID == id {
			return &e.Periods[i]
		}
	}
	return nil
}

// Eligible reports whether the teacher may take the subject for the class.
func (e Entities) Eligible(t models.Teacher, subjectID string, class models.Class) bool {
	return t.TeachesSubject(subjectID) && t.TeachesLevel(class.Level)
}

// EligibleTeacherCount counts teachers able to serve the class level at all.
func (e Entities) EligibleTeacherCount(class models.Class) int {
	count := 0
	for _, t := range e.Teachers {
		if t.TeachesLevel(class.Level) {
			count++
		}
	}
	return count
}

// Available reports whether the teacher's availability map admits the period
// on the given day. An absent or empty map means always available.
func Available(t models.Teacher, day int, periodID string) bool {
	avail := t.AvailabilityMap()
	if avail == nil {
		return true
	}
	periods, ok := avail[models.DayName(day)]
	if !ok {
		return false
	}
	for _, id := range periods {
		if id == periodID {
			return true
		}
	}
	return false
}

// SlotRef uniquely addresses one grid cell.
type SlotRef struct {
	Day      int    `json:"day"`
	PeriodID string `json:"period_id"`
	ClassID  string `json:"class_id"`
}

// Slot is one class's assignment (or lack thereof) for one day and period.
// Empty SubjectID/TeacherID means the slot is unassigned.
type Slot struct {
	Day       int    `json:"day"`
	PeriodID  string `json:"period_id"`
	ClassID   string `json:"class_id"`
	SubjectID string `json:"subject_id,omitempty"`
	TeacherID string `json:"teacher_id,omitempty"`
	RoomID    string `json:"room_id,omitempty"`
	IsBreak   bool   `json:"is_break"`
}

// Ref returns the slot's address.
func (s *Slot) Ref() SlotRef {
	return SlotRef{Day: s.Day, PeriodID: s.PeriodID, ClassID: s.ClassID}
}

// Assigned reports whether the slot holds a lesson.
func (s *Slot) Assigned() bool {
	return s.SubjectID != ""
}

// clear resets the slot to the canonical empty-lesson shape.
func (s *Slot) clear() {
	s.SubjectID = ""
	s.TeacherID = ""
	s.RoomID = ""
}

// Grid is the complete weekly schedule, exactly one slot per
// (day, period, class) triple.
type Grid struct {
	days    []int
	periods []models.Period
	classes []models.Class
	slots   map[SlotRef]*Slot
}

// NewGrid builds the empty week grid and stamps break and lunch periods.
func NewGrid(days []int, periods []models.Period, classes []models.Class) *Grid {
	ordered := make([]models.Period, len(periods))
	copy(ordered, periods)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartMinutes() < ordered[j].StartMinutes()
	})

	g := &Grid{
		days:    append([]int(nil), days...),
		periods: ordered,
		classes: append([]models.Class(nil), classes...),
		slots:   make(map[SlotRef]*Slot, len(days)*len(ordered)*len(classes)),
	}
	for _, day := range g.days {
		for _, period := range g.periods {
			for _, class := range g.classes {
				slot := &Slot{
					Day:      day,
					PeriodID: period.ID,
					ClassID:  class.ID,
					IsBreak:  !period.IsLesson(),
				}
				g.slots[slot.Ref()] = slot
			}
		}
	}
	return g
}

// Days returns the configured day indices.
func (g *Grid) Days() []int {
	return g.days
}

// Periods returns the grid's periods ordered by start time.
func (g *Grid) Periods() []models.Period {
	return g.periods
}

// Classes returns the grid's classes.
func (g *Grid) Classes() []models.Class {
	return g.classes
}

// At returns the slot addressed by ref.
func (g *Grid) At(ref SlotRef) (*Slot, bool) {
	slot, ok := g.slots[ref]
	return slot, ok
}

// Size returns the total number of slots.
func (g *Grid) Size() int {
	return len(g.slots)
}

// Slots returns every slot in deterministic day/period/class order.
func (g *Grid) Slots() []*Slot {
	out := make([]*Slot, 0, len(g.slots))
	for _, day := range g.days {
		for _, period := range g.periods {
			for _, class := range g.classes {
				if slot, ok := g.slots[SlotRef{Day: day, PeriodID: period.ID, ClassID: class.ID}]; ok {
					out = append(out, slot)
				}
			}
		}
	}
	return out
}

// LessonSlots returns the slots that can hold lessons, in grid order.
func (g *Grid) LessonSlots() []*Slot {
	out := make([]*Slot, 0, len(g.slots))
	for _, slot := range g.Slots() {
		if !slot.IsBreak {
			out = append(out, slot)
		}
	}
	return out
}

// TeacherBusy reports whether the teacher already holds a lesson for another
// class at (day, period). excludeClassID is skipped during the scan, which is
// what the manual move check needs.
func (g *Grid) TeacherBusy(day int, periodID, teacherID, excludeClassID string) bool {
	if teacherID == "" {
		return false
	}
	for _, class := range g.classes {
		if class.ID == excludeClassID {
			continue
		}
		slot, ok := g.slots[SlotRef{Day: day, PeriodID: periodID, ClassID: class.ID}]
		if ok && slot.TeacherID == teacherID {
			return true
		}
	}
	return false
}

// TeacherLoads counts assigned lessons per teacher across the whole grid.
func (g *Grid) TeacherLoads() map[string]int {
	loads := make(map[string]int)
	for _, slot := range g.slots {
		if slot.TeacherID != "" {
			loads[slot.TeacherID]++
		}
	}
	return loads
}

// SubjectCounts counts assigned lessons per class and subject.
func (g *Grid) SubjectCounts() map[string]map[string]int {
	counts := make(map[string]map[string]int)
	for _, slot := range g.slots {
		if slot.SubjectID == "" {
			continue
		}
		if counts[slot.ClassID] == nil {
			counts[slot.ClassID] = make(map[string]int)
		}
		counts[slot.ClassID][slot.SubjectID]++
	}
	return counts
}
