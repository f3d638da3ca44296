package scheduler

import (
	"context"
	"fmt"
	"math/rand"

	"go.uber.org/zap"

	"github.com/smaplan/timetable-api/internal/models"
)

// PreconditionError signals that a required entity collection is empty.
// Generation must not proceed.
type PreconditionError struct {
	Entity string
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("cannot generate: no %s configured", e.Entity)
}

// Warnings counts the soft failures of a completed run. The grid is still
// usable; the caller decides how to surface them.
type Warnings struct {
	UnassignedSlots     int `json:"unassigned_slots"`
	UnresolvedConflicts int `json:"unresolved_conflicts"`
	UnmetSubjectTargets int `json:"unmet_subject_targets"`
}

// Any reports whether the run produced at least one warning.
func (w Warnings) Any() bool {
	return w.UnassignedSlots > 0 || w.UnresolvedConflicts > 0 || w.UnmetSubjectTargets > 0
}

// Result is the outcome of one generation run.
type Result struct {
	Grid     *Grid          `json:"-"`
	Score    ScoreBreakdown `json:"score"`
	Warnings Warnings       `json:"warnings"`
	Attempts int            `json:"attempts"`
	Balanced int            `json:"balanced"`
	Repaired int            `json:"repaired"`
	Filled   int            `json:"filled"`
}

// GeneratorConfig bounds the generation pipeline.
type GeneratorConfig struct {
	Days               []int
	MaxAttempts        int
	ResolverIterations int
	Weights            Weights
	Rand               *rand.Rand
}

// Generator drives the full pipeline: grid initialization, greedy assignment,
// conflict repair, load balancing, subject distribution and scoring.
type Generator struct {
	cfg    GeneratorConfig
	logger *zap.Logger
}

// NewGenerator builds a generator with defaults applied.
func NewGenerator(cfg GeneratorConfig, logger *zap.Logger) *Generator {
	if len(cfg.Days) == 0 {
		cfg.Days = []int{1, 2, 3, 4, 5}
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 5
	}
	if cfg.ResolverIterations <= 0 {
		cfg.ResolverIterations = 100
	}
	if cfg.Weights == (Weights{}) {
		cfg.Weights = DefaultWeights()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Generator{cfg: cfg, logger: logger}
}

// Generate runs the whole pipeline. It returns a *PreconditionError when a
// required entity collection is empty and the context error when cancelled;
// partial grids from cancelled runs must be discarded by the caller. Soft
// failures are reported through Result.Warnings, never as errors.
func (g *Generator) Generate(ctx context.Context, ents Entities, cons models.Constraints, progress ProgressFunc) (*Result, error) {
	if err := checkPreconditions(ents); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(Progress) {}
	}

	grid := NewGrid(g.cfg.Days, ents.Periods, ents.Classes)
	progress(Progress{Phase: "initialize", Percent: 100})

	engine := NewEngine(g.cfg.Weights, g.cfg.MaxAttempts, g.cfg.Rand, g.logger)
	assign, err := engine.Assign(ctx, grid, ents, cons, progress)
	if err != nil {
		return nil, err
	}

	progress(Progress{Phase: "resolve", Percent: 0})
	resolve, err := ResolveConflicts(ctx, grid, ents, g.cfg.ResolverIterations, g.logger)
	if err != nil {
		return nil, err
	}
	progress(Progress{Phase: "resolve", Percent: 100})

	balanced := 0
	if cons.BalanceWorkload {
		if balanced, err = BalanceLoad(ctx, grid, ents); err != nil {
			return nil, err
		}
		progress(Progress{Phase: "balance", Percent: 100})
	}

	filled, err := OptimizeDistribution(ctx, grid, ents, cons)
	if err != nil {
		return nil, err
	}
	progress(Progress{Phase: "distribute", Percent: 100})

	result := &Result{
		Grid:     grid,
		Score:    Score(grid, ents, cons),
		Attempts: assign.Attempts,
		Balanced: balanced,
		Repaired: resolve.Repaired,
		Filled:   filled,
		Warnings: Warnings{
			UnassignedSlots:     unmetDemand(grid, ents, cons),
			UnresolvedConflicts: resolve.Remaining,
			UnmetSubjectTargets: UnmetTargets(grid, ents, cons),
		},
	}
	progress(Progress{Phase: "score", Percent: 100})

	g.logger.Info("timetable generated",
		zap.Int("slots", grid.Size()),
		zap.Int("attempts", result.Attempts),
		zap.Int("score", result.Score.Total),
		zap.Int("unassigned", result.Warnings.UnassignedSlots),
		zap.Int("unresolved_conflicts", result.Warnings.UnresolvedConflicts),
	)
	return result, nil
}

func checkPreconditions(ents Entities) error {
	switch {
	case len(ents.Periods) == 0:
		return &PreconditionError{Entity: "periods"}
	case len(ents.Subjects) == 0:
		return &PreconditionError{Entity: "subjects"}
	case len(ents.Classes) == 0:
		return &PreconditionError{Entity: "classes"}
	case len(ents.Teachers) == 0:
		return &PreconditionError{Entity: "teachers"}
	}
	return nil
}
