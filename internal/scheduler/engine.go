package scheduler

import (
	"context"
	"math/rand"
	"sort"

	"go.uber.org/zap"

	"github.com/smaplan/timetable-api/internal/models"
)

// Weights holds the tunable scoring constants of the assignment engine. The
// defaults are calibrated but not load-bearing: callers and tests should rely
// on relative ordering, not exact values.
type Weights struct {
	Base           float64
	TeacherLoad    float64
	ClassDailyLoad float64
	HighPriority   float64
	MediumPriority float64
	MorningBonus   float64
}

// DefaultWeights returns the standard scoring weights.
func DefaultWeights() Weights {
	return Weights{
		Base:           100,
		TeacherLoad:    2,
		ClassDailyLoad: 1.5,
		HighPriority:   10,
		MediumPriority: 5,
		MorningBonus:   5,
	}
}

func (w Weights) priorityBonus(priority models.SubjectPriority) float64 {
	switch priority {
	case models.SubjectPriorityHigh:
		return w.HighPriority
	case models.SubjectPriorityMedium:
		return w.MediumPriority
	default:
		return 0
	}
}

// Progress is a point-in-time snapshot of a generation phase.
type Progress struct {
	Phase   string `json:"phase"`
	Percent int    `json:"percent"`
}

// ProgressFunc receives progress snapshots. Implementations must not block;
// the engine calls it inline between slots.
type ProgressFunc func(Progress)

const progressStride = 8

// Engine fills lesson slots using a greedy, multi-attempt heuristic.
type Engine struct {
	weights     Weights
	maxAttempts int
	rng         *rand.Rand
	logger      *zap.Logger
}

// NewEngine constructs an assignment engine. A nil rng yields deterministic
// perturbation ordering, useful in tests.
func NewEngine(weights Weights, maxAttempts int, rng *rand.Rand, logger *zap.Logger) *Engine {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{weights: weights, maxAttempts: maxAttempts, rng: rng, logger: logger}
}

// AssignResult summarises an assignment run.
type AssignResult struct {
	Assigned   int `json:"assigned"`
	Unassigned int `json:"unassigned"`
	Attempts   int `json:"attempts"`
}

// Assign runs up to maxAttempts greedy passes over the grid's unassigned
// lesson slots. Between attempts a growing fraction of placed lessons is
// released again so a retry does not replay the exact dead-end. Unassigned
// counts lessons short of the subject targets, not empty slots: a grid larger
// than the demand is not a failure. Returns the context error when cancelled;
// the grid then holds a partial assignment the caller must discard.
func (e *Engine) Assign(ctx context.Context, grid *Grid, ents Entities, cons models.Constraints, progress ProgressFunc) (AssignResult, error) {
	total := len(grid.LessonSlots())
	result := AssignResult{}
	if total == 0 {
		return result, nil
	}

	want := demandLessons(ents, cons, len(ents.Classes))
	if want > total {
		want = total
	}

	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		result.Attempts = attempt
		if err := e.assignPass(ctx, grid, ents, cons, progress, total, want); err != nil {
			return result, err
		}

		assigned := total - countUnassigned(grid)
		e.logger.Debug("assignment attempt finished",
			zap.Int("attempt", attempt),
			zap.Int("assigned", assigned),
			zap.Int("want", want),
		)
		if assigned >= want {
			break
		}
		if attempt < e.maxAttempts {
			e.perturb(grid, attempt)
		}
	}

	result.Assigned = total - countUnassigned(grid)
	if result.Assigned < want {
		result.Unassigned = want - result.Assigned
	}
	return result, nil
}

// demandLessons totals the effective weekly subject targets over all classes.
func demandLessons(ents Entities, cons models.Constraints, classes int) int {
	perClass := 0
	for _, subject := range ents.Subjects {
		perClass += effectiveTarget(subject.TargetPerWeek, cons)
	}
	return perClass * classes
}

func (e *Engine) assignPass(ctx context.Context, grid *Grid, ents Entities, cons models.Constraints, progress ProgressFunc, total, want int) error {
	teacherLoad := grid.TeacherLoads()
	subjectCount := grid.SubjectCounts()
	classDailyLoad := make(map[string]map[int]int)
	for _, slot := range grid.LessonSlots() {
		if slot.Assigned() {
			if classDailyLoad[slot.ClassID] == nil {
				classDailyLoad[slot.ClassID] = make(map[int]int)
			}
			classDailyLoad[slot.ClassID][slot.Day]++
		}
	}

	periodsByID := make(map[string]models.Period, len(ents.Periods))
	for _, p := range ents.Periods {
		periodsByID[p.ID] = p
	}

	pool := e.orderByDifficulty(grid, ents)

	for i, slot := range pool {
		if err := ctx.Err(); err != nil {
			return err
		}

		class := ents.ClassByID(slot.ClassID)
		if class == nil {
			continue
		}
		period := periodsByID[slot.PeriodID]

		needed := neededSubjects(ents, cons, slot.ClassID, subjectCount)
		best := e.bestCandidate(grid, ents, cons, slot, *class, period, needed, teacherLoad, classDailyLoad)
		if best.teacherID != "" {
			slot.SubjectID = best.subjectID
			slot.TeacherID = best.teacherID
			teacherLoad[best.teacherID]++
			if classDailyLoad[slot.ClassID] == nil {
				classDailyLoad[slot.ClassID] = make(map[int]int)
			}
			classDailyLoad[slot.ClassID][slot.Day]++
			if subjectCount[slot.ClassID] == nil {
				subjectCount[slot.ClassID] = make(map[string]int)
			}
			subjectCount[slot.ClassID][best.subjectID]++
		}

		if progress != nil && (i%progressStride == 0 || i == len(pool)-1) {
			// Percent is against the demanded lessons, not the grid's
			// capacity; a grid larger than the demand still reaches 100.
			assigned := total - countUnassigned(grid)
			percent := 100
			if want > 0 {
				percent = assigned * 100 / want
				if percent > 100 {
					percent = 100
				}
			}
			progress(Progress{Phase: "assign", Percent: percent})
		}
	}
	return nil
}

type candidate struct {
	subjectID string
	teacherID string
	score     float64
}

func (e *Engine) bestCandidate(
	grid *Grid,
	ents Entities,
	cons models.Constraints,
	slot *Slot,
	class models.Class,
	period models.Period,
	needed []neededSubject,
	teacherLoad map[string]int,
	classDailyLoad map[string]map[int]int,
) candidate {
	best := candidate{score: -1}
	for _, need := range needed {
		for i := range ents.Teachers {
			teacher := ents.Teachers[i]
			if !ents.Eligible(teacher, need.subjectID, class) {
				continue
			}
			if !Available(teacher, slot.Day, slot.PeriodID) {
				continue
			}
			if grid.TeacherBusy(slot.Day, slot.PeriodID, teacher.ID, slot.ClassID) {
				continue
			}
			if cons.MaxWeeklyLessons > 0 && teacherLoad[teacher.ID] >= cons.MaxWeeklyLessons {
				continue
			}

			score := e.weights.Base -
				e.weights.TeacherLoad*float64(teacherLoad[teacher.ID]) -
				e.weights.ClassDailyLoad*float64(classDailyLoad[class.ID][slot.Day]) +
				e.weights.priorityBonus(need.priority)
			if cons.PreferMorning && need.priority == models.SubjectPriorityHigh && period.IsMorning() {
				score += e.weights.MorningBonus
			}
			if score < 0 {
				score = 0
			}
			if score > best.score {
				best = candidate{subjectID: need.subjectID, teacherID: teacher.ID, score: score}
			}
		}
	}
	return best
}

type neededSubject struct {
	subjectID string
	priority  models.SubjectPriority
	deficit   int
}

// neededSubjects lists the class's subjects that are still below their weekly
// target, largest deficit first.
func neededSubjects(ents Entities, cons models.Constraints, classID string, subjectCount map[string]map[string]int) []neededSubject {
	needed := make([]neededSubject, 0, len(ents.Subjects))
	for _, subject := range ents.Subjects {
		target := effectiveTarget(subject.TargetPerWeek, cons)
		current := subjectCount[classID][subject.ID]
		if current < target {
			needed = append(needed, neededSubject{
				subjectID: subject.ID,
				priority:  subject.Priority,
				deficit:   target - current,
			})
		}
	}
	sort.SliceStable(needed, func(i, j int) bool {
		return needed[i].deficit > needed[j].deficit
	})
	return needed
}

// effectiveTarget clamps the subject's weekly target to the configured
// per-subject bounds when they are set.
func effectiveTarget(target int, cons models.Constraints) int {
	if cons.MaxLessonsPerSubject > 0 && target > cons.MaxLessonsPerSubject {
		target = cons.MaxLessonsPerSubject
	}
	if cons.MinLessonsPerSubject > 0 && target < cons.MinLessonsPerSubject {
		target = cons.MinLessonsPerSubject
	}
	return target
}

// orderByDifficulty sorts the unassigned lesson slots so the hardest-to-staff
// ones come first: higher class levels, then classes with fewer eligible
// teachers.
func (e *Engine) orderByDifficulty(grid *Grid, ents Entities) []*Slot {
	rankByClass := make(map[string]int, len(ents.Classes))
	eligibleByClass := make(map[string]int, len(ents.Classes))
	for _, class := range ents.Classes {
		rankByClass[class.ID] = class.LevelRank()
		eligibleByClass[class.ID] = ents.EligibleTeacherCount(class)
	}

	pool := make([]*Slot, 0)
	for _, slot := range grid.LessonSlots() {
		if !slot.Assigned() {
			pool = append(pool, slot)
		}
	}
	sort.SliceStable(pool, func(i, j int) bool {
		ri, rj := rankByClass[pool[i].ClassID], rankByClass[pool[j].ClassID]
		if ri != rj {
			return ri > rj
		}
		return eligibleByClass[pool[i].ClassID] < eligibleByClass[pool[j].ClassID]
	})
	return pool
}

// perturb releases a growing fraction of placed lessons so that the next
// attempt explores a different ordering instead of failing identically.
func (e *Engine) perturb(grid *Grid, attempt int) {
	fraction := 0.30 + 0.40*float64(attempt)/float64(e.maxAttempts)

	assigned := make([]*Slot, 0)
	for _, slot := range grid.LessonSlots() {
		if slot.Assigned() {
			assigned = append(assigned, slot)
		}
	}
	if len(assigned) == 0 {
		return
	}
	if e.rng != nil {
		e.rng.Shuffle(len(assigned), func(i, j int) {
			assigned[i], assigned[j] = assigned[j], assigned[i]
		})
	}
	release := int(fraction * float64(len(assigned)))
	for i := 0; i < release && i < len(assigned); i++ {
		assigned[i].clear()
	}
}

func countUnassigned(grid *Grid) int {
	count := 0
	for _, slot := range grid.LessonSlots() {
		if !slot.Assigned() {
			count++
		}
	}
	return count
}
