package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/smaplan/timetable-api/internal/dto"
	"github.com/smaplan/timetable-api/internal/models"
	"github.com/smaplan/timetable-api/internal/scheduler"
	appErrors "github.com/smaplan/timetable-api/pkg/errors"
	"github.com/smaplan/timetable-api/pkg/export"
	"github.com/smaplan/timetable-api/pkg/jobs"
)

type periodReader interface {
	List(ctx context.Context) ([]models.Period, error)
}

type subjectReader interface {
	ListAll(ctx context.Context) ([]models.Subject, error)
}

type classReader interface {
	List(ctx context.Context) ([]models.Class, error)
}

type teacherReader interface {
	ListActive(ctx context.Context) ([]models.Teacher, error)
}

type timetableStore interface {
	WithTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error
	List(ctx context.Context) ([]models.Timetable, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	FindLatest(ctx context.Context) (*models.Timetable, error)
	UpdateScore(ctx context.Context, exec sqlx.ExtContext, id string, score int) error
	UpsertSlots(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error
	ListSlots(ctx context.Context, timetableID string) ([]models.TimetableSlot, error)
}

const (
	generationJobType    = "timetable.generate"
	timetableCachePrefix = "timetable:"
	progressCacheKey     = "timetable:generation:progress"
)

// TimetableConfig bounds generation runs and export formatting.
type TimetableConfig struct {
	Days               []int
	MaxAttempts        int
	ResolverIterations int
	ProgressTTL        time.Duration
	Constraints        models.Constraints
	PDFTitle           string
}

// TimetableService orchestrates timetable generation, storage and edits. At
// most one generation run is in flight at a time; a second request is rejected
// with ErrBusy until the current run finishes or is cancelled.
type TimetableService struct {
	periods    periodReader
	subjects   subjectReader
	classes    classReader
	teachers   teacherReader
	timetables timetableStore
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        TimetableConfig

	queue *jobs.Queue
	csv   *export.CSVExporter
	pdf   *export.PDFExporter

	mu            sync.Mutex
	running       bool
	cancelRun     context.CancelFunc
	cancelPending bool
	snapshot      dto.GenerationSnapshot
}

// NewTimetableService wires the timetable dependencies. The internal queue
// uses a single worker so runs never overlap.
func NewTimetableService(
	periods periodReader,
	subjects subjectReader,
	classes classReader,
	teachers teacherReader,
	timetables timetableStore,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg TimetableConfig,
) *TimetableService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(cfg.Days) == 0 {
		cfg.Days = []int{1, 2, 3, 4, 5}
	}
	if cfg.Constraints == (models.Constraints{}) {
		cfg.Constraints = models.DefaultConstraints()
	}
	if cfg.ProgressTTL <= 0 {
		cfg.ProgressTTL = 10 * time.Minute
	}

	s := &TimetableService{
		periods:    periods,
		subjects:   subjects,
		classes:    classes,
		teachers:   teachers,
		timetables: timetables,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		csv:        export.NewCSVExporter(),
		pdf:        export.NewPDFExporter(),
	}
	s.queue = jobs.NewQueue("timetable-generation", s.runGeneration, jobs.QueueConfig{
		Workers: 1,
		Logger:  logger,
	})
	return s
}

// Start launches the background generation worker.
func (s *TimetableService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop shuts the worker down, cancelling any in-flight run.
func (s *TimetableService) Stop() {
	s.mu.Lock()
	if s.cancelRun != nil {
		s.cancelRun()
	}
	s.mu.Unlock()
	s.queue.Stop()
}

// Validate runs the static feasibility checks against the stored entities.
func (s *TimetableService) Validate(ctx context.Context) (*dto.ValidationResponse, error) {
	ents, err := s.loadEntities(ctx)
	if err != nil {
		return nil, err
	}
	issues := scheduler.Validate(ents, len(s.cfg.Days))
	return &dto.ValidationResponse{Feasible: len(issues) == 0, Issues: issues}, nil
}

// Generate accepts a generation request and enqueues it. Returns ErrBusy when
// a run is already in flight.
func (s *TimetableService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerationRun, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil, appErrors.ErrBusy
	}
	runID := uuid.NewString()
	s.running = true
	s.cancelRun = nil
	s.cancelPending = false
	s.snapshot = dto.GenerationSnapshot{
		RunID:     runID,
		State:     dto.RunStatePending,
		StartedAt: time.Now().UTC(),
	}
	s.mu.Unlock()

	if err := s.queue.Enqueue(jobs.Job{ID: runID, Type: generationJobType, Payload: req}); err != nil {
		s.finishRun(runID, func(snap *dto.GenerationSnapshot) {
			snap.State = dto.RunStateFailed
			snap.Error = "failed to enqueue generation run"
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue generation run")
	}

	s.logger.Info("generation run accepted", zap.String("run_id", runID))
	return &dto.GenerationRun{RunID: runID, State: dto.RunStatePending}, nil
}

// Progress returns the latest snapshot of the current or most recent run.
func (s *TimetableService) Progress(ctx context.Context) (*dto.GenerationSnapshot, error) {
	s.mu.Lock()
	snap := s.snapshot
	s.mu.Unlock()

	if snap.RunID == "" {
		var cached dto.GenerationSnapshot
		if hit, _ := s.cache.Get(ctx, progressCacheKey, &cached); hit {
			return &cached, nil
		}
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no generation run recorded")
	}
	return &snap, nil
}

// Cancel requests cooperative cancellation of the in-flight run. A run that
// has been accepted but not yet picked up by the worker is cancelled too.
func (s *TimetableService) Cancel(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.running {
		return appErrors.Clone(appErrors.ErrNotFound, "no generation run in flight")
	}
	if s.cancelRun != nil {
		s.cancelRun()
	} else {
		s.cancelPending = true
	}
	s.snapshot.State = dto.RunStateCancelling
	s.logger.Info("generation cancellation requested", zap.String("run_id", s.snapshot.RunID))
	return nil
}

// Get loads a stored timetable with its slots. The id "latest" resolves to
// the newest version.
func (s *TimetableService) Get(ctx context.Context, id string) (*dto.TimetableResponse, error) {
	cacheKey := timetableCachePrefix + id
	var cached dto.TimetableResponse
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	timetable, err := s.findTimetable(ctx, id)
	if err != nil {
		return nil, err
	}
	slots, err := s.timetables.ListSlots(ctx, timetable.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable slots")
	}

	resp := &dto.TimetableResponse{Timetable: *timetable, Slots: slots}
	_ = s.cache.Set(ctx, cacheKey, resp, 0)
	return resp, nil
}

// List returns all stored timetable versions, newest first.
func (s *TimetableService) List(ctx context.Context) ([]models.Timetable, error) {
	timetables, err := s.timetables.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	return timetables, nil
}

// Score recomputes the soft-score breakdown of a stored timetable.
func (s *TimetableService) Score(ctx context.Context, id string) (*scheduler.ScoreBreakdown, error) {
	_, grid, ents, err := s.loadGrid(ctx, id)
	if err != nil {
		return nil, err
	}
	breakdown := scheduler.Score(grid, ents, s.cfg.Constraints)
	return &breakdown, nil
}

// Move relocates a lesson inside a stored timetable. Both cells change
// together or not at all; rejected moves leave the stored grid untouched.
func (s *TimetableService) Move(ctx context.Context, id string, req dto.MoveSlotRequest) (*dto.TimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid move payload")
	}

	timetable, grid, ents, err := s.loadGrid(ctx, id)
	if err != nil {
		return nil, err
	}

	from := scheduler.SlotRef{Day: req.From.Day, PeriodID: req.From.PeriodID, ClassID: req.From.ClassID}
	to := scheduler.SlotRef{Day: req.To.Day, PeriodID: req.To.PeriodID, ClassID: req.To.ClassID}
	if err := scheduler.Move(grid, ents, from, to); err != nil {
		var moveErr *scheduler.MoveError
		if errors.As(err, &moveErr) {
			rejected := appErrors.Clone(appErrors.ErrMoveRejected, moveErr.Message)
			rejected.Code = appErrors.ErrMoveRejected.Code + ":" + moveErr.Reason
			return nil, rejected
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to apply move")
	}

	score := scheduler.Score(grid, ents, s.cfg.Constraints)
	changed := changedSlotRows(grid, timetable.ID, from, to)
	err = s.timetables.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.timetables.UpsertSlots(ctx, tx, changed); err != nil {
			return err
		}
		return s.timetables.UpdateScore(ctx, tx, timetable.ID, score.Total)
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist move")
	}

	_ = s.cache.Invalidate(ctx, timetableCachePrefix+"*")
	s.logger.Info("slot moved",
		zap.String("timetable_id", timetable.ID),
		zap.Int("from_day", from.Day),
		zap.Int("to_day", to.Day),
		zap.Int("score", score.Total),
	)
	return s.Get(ctx, timetable.ID)
}

// Check evaluates a proposed slot edit against the hard constraints without
// applying it.
func (s *TimetableService) Check(ctx context.Context, id string, req dto.CheckSlotRequest) (*dto.CheckSlotResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check payload")
	}

	_, grid, _, err := s.loadGrid(ctx, id)
	if err != nil {
		return nil, err
	}

	violations := scheduler.CheckHardConstraints(grid, scheduler.ProposedChange{
		Ref:       scheduler.SlotRef{Day: req.Position.Day, PeriodID: req.Position.PeriodID, ClassID: req.Position.ClassID},
		SubjectID: req.SubjectID,
		TeacherID: req.TeacherID,
		RoomID:    req.RoomID,
	})
	return &dto.CheckSlotResponse{Allowed: len(violations) == 0, Violations: violations}, nil
}

// Export renders a stored timetable as CSV or PDF bytes.
func (s *TimetableService) Export(ctx context.Context, id, format string) ([]byte, string, error) {
	_, grid, ents, err := s.loadGrid(ctx, id)
	if err != nil {
		return nil, "", err
	}
	dataset := s.buildDataset(grid, ents)

	switch strings.ToLower(format) {
	case "csv":
		payload, err := s.csv.Render(dataset)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
		}
		return payload, "text/csv", nil
	case "pdf":
		payload, err := s.pdf.Render(dataset, s.cfg.PDFTitle)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
		}
		return payload, "application/pdf", nil
	default:
		return nil, "", appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", format))
	}
}

// runGeneration is the queue handler for generation jobs. Failures are
// surfaced through the progress snapshot, never retried.
func (s *TimetableService) runGeneration(ctx context.Context, job jobs.Job) error {
	req, ok := job.Payload.(dto.GenerateTimetableRequest)
	if !ok {
		s.finishRun(job.ID, func(snap *dto.GenerationSnapshot) {
			snap.State = dto.RunStateFailed
			snap.Error = "malformed generation payload"
		})
		return nil
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancelPending {
		s.mu.Unlock()
		s.finishRun(job.ID, func(snap *dto.GenerationSnapshot) {
			snap.State = dto.RunStateCancelled
			snap.Error = appErrors.ErrCancelled.Message
		})
		s.logger.Info("generation run cancelled before start", zap.String("run_id", job.ID))
		return nil
	}
	s.cancelRun = cancel
	s.snapshot.State = dto.RunStateRunning
	s.mu.Unlock()

	start := time.Now()
	result, err := s.execute(runCtx, job.ID, req)
	duration := time.Since(start)

	switch {
	case err != nil && (errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)):
		s.metrics.ObserveGeneration("cancelled", duration, 0, 0, 0)
		s.finishRun(job.ID, func(snap *dto.GenerationSnapshot) {
			snap.State = dto.RunStateCancelled
			snap.Error = appErrors.ErrCancelled.Message
		})
		s.logger.Info("generation run cancelled", zap.String("run_id", job.ID), zap.Duration("duration", duration))
	case err != nil:
		s.metrics.ObserveGeneration("failed", duration, 0, 0, 0)
		s.finishRun(job.ID, func(snap *dto.GenerationSnapshot) {
			snap.State = dto.RunStateFailed
			snap.Error = err.Error()
		})
		s.logger.Error("generation run failed", zap.String("run_id", job.ID), zap.Error(err))
	default:
		s.metrics.ObserveGeneration("completed", duration,
			result.score.Total, result.warnings.UnassignedSlots, result.repaired)
		s.finishRun(job.ID, func(snap *dto.GenerationSnapshot) {
			snap.State = dto.RunStateCompleted
			snap.Percent = 100
			snap.TimetableID = result.timetableID
			snap.Score = result.score.Total
			warnings := result.warnings
			snap.Warnings = &warnings
		})
		s.logger.Info("generation run completed",
			zap.String("run_id", job.ID),
			zap.String("timetable_id", result.timetableID),
			zap.Int("score", result.score.Total),
			zap.Duration("duration", duration),
		)
	}
	return nil
}

type generationOutcome struct {
	timetableID string
	score       scheduler.ScoreBreakdown
	warnings    scheduler.Warnings
	repaired    int
}

func (s *TimetableService) execute(ctx context.Context, runID string, req dto.GenerateTimetableRequest) (*generationOutcome, error) {
	ents, err := s.loadEntities(ctx)
	if err != nil {
		return nil, err
	}

	days := s.cfg.Days
	if len(req.Days) > 0 {
		days = req.Days
	}
	cons := req.Constraints(s.cfg.Constraints)

	gen := scheduler.NewGenerator(scheduler.GeneratorConfig{
		Days:               days,
		MaxAttempts:        s.cfg.MaxAttempts,
		ResolverIterations: s.cfg.ResolverIterations,
	}, s.logger)

	// Latest-wins progress relay: the engine callback never blocks, stale
	// snapshots are dropped rather than queued.
	progressCh := make(chan scheduler.Progress, 1)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for p := range progressCh {
			s.recordProgress(runID, p)
		}
	}()
	callback := func(p scheduler.Progress) {
		for {
			select {
			case progressCh <- p:
				return
			default:
				select {
				case <-progressCh:
				default:
				}
			}
		}
	}

	result, err := gen.Generate(ctx, ents, cons, callback)
	close(progressCh)
	<-done
	if err != nil {
		var precondition *scheduler.PreconditionError
		if errors.As(err, &precondition) {
			return nil, appErrors.Wrap(err, appErrors.ErrPreconditionFailed.Code, appErrors.ErrPreconditionFailed.Status, precondition.Error())
		}
		return nil, err
	}

	timetableID, err := s.persist(ctx, result)
	if err != nil {
		return nil, err
	}
	_ = s.cache.Invalidate(ctx, timetableCachePrefix+"*")

	return &generationOutcome{
		timetableID: timetableID,
		score:       result.Score,
		warnings:    result.Warnings,
		repaired:    result.Repaired,
	}, nil
}

func (s *TimetableService) persist(ctx context.Context, result *scheduler.Result) (string, error) {
	meta, err := json.Marshal(map[string]interface{}{
		"days":     result.Grid.Days(),
		"attempts": result.Attempts,
		"repaired": result.Repaired,
		"balanced": result.Balanced,
		"filled":   result.Filled,
		"warnings": result.Warnings,
	})
	if err != nil {
		return "", fmt.Errorf("marshal timetable meta: %w", err)
	}

	timetable := &models.Timetable{
		Score: result.Score.Total,
		Meta:  types.JSONText(meta),
	}
	err = s.timetables.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := s.timetables.CreateVersioned(ctx, tx, timetable); err != nil {
			return err
		}
		return s.timetables.UpsertSlots(ctx, tx, slotRows(result.Grid, timetable.ID))
	})
	if err != nil {
		return "", fmt.Errorf("persist generated timetable: %w", err)
	}
	return timetable.ID, nil
}

func (s *TimetableService) recordProgress(runID string, p scheduler.Progress) {
	s.mu.Lock()
	if s.snapshot.RunID == runID {
		s.snapshot.Phase = p.Phase
		s.snapshot.Percent = p.Percent
	}
	snap := s.snapshot
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.cache.Set(ctx, progressCacheKey, snap, s.cfg.ProgressTTL)
}

func (s *TimetableService) finishRun(runID string, mutate func(*dto.GenerationSnapshot)) {
	now := time.Now().UTC()
	s.mu.Lock()
	if s.snapshot.RunID == runID {
		mutate(&s.snapshot)
		s.snapshot.FinishedAt = &now
	}
	s.running = false
	s.cancelRun = nil
	s.cancelPending = false
	snap := s.snapshot
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	_ = s.cache.Set(ctx, progressCacheKey, snap, s.cfg.ProgressTTL)
}

func (s *TimetableService) loadEntities(ctx context.Context) (scheduler.Entities, error) {
	periods, err := s.periods.List(ctx)
	if err != nil {
		return scheduler.Entities{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load periods")
	}
	subjects, err := s.subjects.ListAll(ctx)
	if err != nil {
		return scheduler.Entities{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subjects")
	}
	classes, err := s.classes.List(ctx)
	if err != nil {
		return scheduler.Entities{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classes")
	}
	teachers, err := s.teachers.ListActive(ctx)
	if err != nil {
		return scheduler.Entities{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teachers")
	}
	return scheduler.Entities{Periods: periods, Subjects: subjects, Classes: classes, Teachers: teachers}, nil
}

func (s *TimetableService) findTimetable(ctx context.Context, id string) (*models.Timetable, error) {
	var (
		timetable *models.Timetable
		err       error
	)
	if id == "" || id == "latest" {
		timetable, err = s.timetables.FindLatest(ctx)
	} else {
		timetable, err = s.timetables.FindByID(ctx, id)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	return timetable, nil
}

// loadGrid rebuilds the in-memory grid of a stored timetable.
func (s *TimetableService) loadGrid(ctx context.Context, id string) (*models.Timetable, *scheduler.Grid, scheduler.Entities, error) {
	timetable, err := s.findTimetable(ctx, id)
	if err != nil {
		return nil, nil, scheduler.Entities{}, err
	}
	ents, err := s.loadEntities(ctx)
	if err != nil {
		return nil, nil, scheduler.Entities{}, err
	}
	slots, err := s.timetables.ListSlots(ctx, timetable.ID)
	if err != nil {
		return nil, nil, scheduler.Entities{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable slots")
	}

	grid := scheduler.NewGrid(s.timetableDays(timetable, slots), ents.Periods, ents.Classes)
	for _, row := range slots {
		slot, ok := grid.At(scheduler.SlotRef{Day: row.Day, PeriodID: row.PeriodID, ClassID: row.ClassID})
		if !ok {
			continue
		}
		slot.SubjectID = deref(row.SubjectID)
		slot.TeacherID = deref(row.TeacherID)
		slot.RoomID = deref(row.RoomID)
	}
	return timetable, grid, ents, nil
}

// timetableDays recovers the day set a timetable was generated over. Runs may
// override the configured days, so the rebuilt grid follows the stored row,
// not the current config. Rows persisted without the meta entry fall back to
// the distinct days of their slots.
func (s *TimetableService) timetableDays(timetable *models.Timetable, slots []models.TimetableSlot) []int {
	var meta struct {
		Days []int `json:"days"`
	}
	if len(timetable.Meta) > 0 {
		if err := json.Unmarshal(timetable.Meta, &meta); err == nil && len(meta.Days) > 0 {
			return meta.Days
		}
	}
	seen := make(map[int]bool)
	days := make([]int, 0, len(s.cfg.Days))
	for _, row := range slots {
		if !seen[row.Day] {
			seen[row.Day] = true
			days = append(days, row.Day)
		}
	}
	if len(days) == 0 {
		return s.cfg.Days
	}
	sort.Ints(days)
	return days
}

func (s *TimetableService) buildDataset(grid *scheduler.Grid, ents scheduler.Entities) export.Dataset {
	headers := []string{"Class", "Period"}
	for _, day := range grid.Days() {
		headers = append(headers, models.DayName(day))
	}

	rows := make([]map[string]string, 0)
	for _, class := range grid.Classes() {
		for _, period := range grid.Periods() {
			row := map[string]string{
				"Class":  class.Name,
				"Period": fmt.Sprintf("%s (%s-%s)", period.Name, period.StartTime, period.EndTime),
			}
			for _, day := range grid.Days() {
				slot, ok := grid.At(scheduler.SlotRef{Day: day, PeriodID: period.ID, ClassID: class.ID})
				switch {
				case !ok:
					row[models.DayName(day)] = ""
				case slot.IsBreak:
					row[models.DayName(day)] = "-"
				case !slot.Assigned():
					row[models.DayName(day)] = ""
				default:
					cell := slot.SubjectID
					if subject := ents.SubjectByID(slot.SubjectID); subject != nil {
						cell = subject.Name
					}
					if teacher := ents.TeacherByID(slot.TeacherID); teacher != nil {
						cell = fmt.Sprintf("%s (%s)", cell, teacher.FullName)
					}
					row[models.DayName(day)] = cell
				}
			}
			rows = append(rows, row)
		}
	}
	return export.Dataset{Headers: headers, Rows: rows}
}

func slotRows(grid *scheduler.Grid, timetableID string) []models.TimetableSlot {
	slots := grid.Slots()
	rows := make([]models.TimetableSlot, 0, len(slots))
	for _, slot := range slots {
		rows = append(rows, models.TimetableSlot{
			TimetableID: timetableID,
			Day:         slot.Day,
			PeriodID:    slot.PeriodID,
			ClassID:     slot.ClassID,
			SubjectID:   ref(slot.SubjectID),
			TeacherID:   ref(slot.TeacherID),
			RoomID:      ref(slot.RoomID),
			IsBreak:     slot.IsBreak,
		})
	}
	return rows
}

func changedSlotRows(grid *scheduler.Grid, timetableID string, refs ...scheduler.SlotRef) []models.TimetableSlot {
	rows := make([]models.TimetableSlot, 0, len(refs))
	for _, r := range refs {
		slot, ok := grid.At(r)
		if !ok {
			continue
		}
		rows = append(rows, models.TimetableSlot{
			TimetableID: timetableID,
			Day:         slot.Day,
			PeriodID:    slot.PeriodID,
			ClassID:     slot.ClassID,
			SubjectID:   ref(slot.SubjectID),
			TeacherID:   ref(slot.TeacherID),
			RoomID:      ref(slot.RoomID),
			IsBreak:     slot.IsBreak,
		})
	}
	return rows
}

func ref(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}
