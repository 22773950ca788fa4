package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"go.uber.org/zap"

	"github.com/noah-isme/campus-alloc-api/internal/allocation"
	"github.com/noah-isme/campus-alloc-api/internal/dto"
	"github.com/noah-isme/campus-alloc-api/internal/models"
	appErrors "github.com/noah-isme/campus-alloc-api/pkg/errors"
)

type timetableRepository interface {
	CreateVersioned(ctx context.Context, exec sqlx.ExtContext, timetable *models.Timetable) error
	ListByDepartmentTerm(ctx context.Context, department, term string) ([]models.Timetable, error)
	FindByID(ctx context.Context, id string) (*models.Timetable, error)
	UpdateStatus(ctx context.Context, exec sqlx.ExtContext, id string, status models.TimetableStatus, meta types.JSONText) error
	Delete(ctx context.Context, id string) error
}

type timetableSlotRepository interface {
	UpsertBatch(ctx context.Context, exec sqlx.ExtContext, slots []models.TimetableSlot) error
	ListByTimetable(ctx context.Context, timetableID string) ([]models.TimetableSlot, error)
}

type courseCatalog interface {
	ListByDepartment(ctx context.Context, department string) ([]models.Course, error)
}

type roomCatalog interface {
	ListAll(ctx context.Context) ([]models.Room, error)
}

type gridCatalog interface {
	ListAll(ctx context.Context) ([]models.TimeSlot, error)
}

type facultyCatalog interface {
	ListActiveByDepartment(ctx context.Context, department string) ([]models.Faculty, error)
}

type txProvider interface {
	BeginTxx(ctx context.Context, opts *sql.TxOptions) (*sqlx.Tx, error)
}

// AllocationServiceConfig governs generation behaviour.
type AllocationServiceConfig struct {
	ProposalTTL time.Duration
	ShuffleSeed int64
	Engine      allocation.Config
}

// AllocationService runs the allocation engine over catalog snapshots and
// persists accepted proposals as versioned timetables.
type AllocationService struct {
	courses    courseCatalog
	rooms      roomCatalog
	grid       gridCatalog
	faculty    facultyCatalog
	timetables timetableRepository
	slots      timetableSlotRepository
	tx         txProvider
	cache      *CacheService
	metrics    *MetricsService
	validator  *validator.Validate
	logger     *zap.Logger
	cfg        AllocationServiceConfig
	store      *proposalStore
}

// NewAllocationService wires the allocation pipeline dependencies.
func NewAllocationService(
	courses courseCatalog,
	rooms roomCatalog,
	grid gridCatalog,
	faculty facultyCatalog,
	timetables timetableRepository,
	slots timetableSlotRepository,
	tx txProvider,
	cache *CacheService,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg AllocationServiceConfig,
) *AllocationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProposalTTL <= 0 {
		cfg.ProposalTTL = 30 * time.Minute
	}
	return &AllocationService{
		courses:    courses,
		rooms:      rooms,
		grid:       grid,
		faculty:    faculty,
		timetables: timetables,
		slots:      slots,
		tx:         tx,
		cache:      cache,
		metrics:    metrics,
		validator:  validate,
		logger:     logger,
		cfg:        cfg,
		store:      newProposalStore(cfg.ProposalTTL),
	}
}

// Generate runs a full allocation pass and parks the outcome as a proposal.
// Nothing is persisted until the proposal is saved.
func (s *AllocationService) Generate(ctx context.Context, req dto.GenerateTimetableRequest) (*dto.GenerateTimetableResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid timetable generation payload")
	}

	loadStart := time.Now()
	courses, err := s.courses.ListByDepartment(ctx, req.Department)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load courses")
	}
	if len(courses) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no courses defined for this department")
	}

	rooms, err := s.rooms.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load room inventory")
	}
	if len(rooms) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "room inventory is empty")
	}

	grid, err := s.grid.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load the time grid")
	}
	if len(grid) == 0 {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "time grid is not configured")
	}

	var members []models.Faculty
	if s.faculty != nil {
		members, err = s.faculty.ListActiveByDepartment(ctx, req.Department)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faculty")
		}
	}
	if s.metrics != nil {
		s.metrics.ObserveDBQuery("allocation_catalog_snapshot", time.Since(loadStart))
	}

	seed := req.ShuffleSeed
	if seed == 0 {
		seed = s.cfg.ShuffleSeed
	}
	method := req.Method
	if method == "" {
		method = "balanced"
	}

	engine := allocation.NewEngine(nil, allocation.NewUtilizationTracker(len(grid), s.cfg.Engine), s.cfg.Engine, s.logger)
	orchestrator := allocation.NewOrchestrator(engine, s.logger, seed)

	start := time.Now()
	results, warnings := orchestrator.AllocateRoomsForTimetable(courses, rooms, grid, members)
	runMetrics := engine.Metrics()

	if s.metrics != nil {
		s.metrics.ObserveGeneration(req.Department, time.Since(start), runMetrics)
	}
	s.logger.Info("timetable proposal generated",
		zap.String("department", req.Department),
		zap.String("term", req.Term),
		zap.Int("placements", len(results)),
		zap.Int("warnings", len(warnings)),
		zap.Float64("balance_score", runMetrics.BalanceScore))

	proposal := allocationProposal{
		ProposalID:  uuid.NewString(),
		Department:  req.Department,
		Term:        req.Term,
		Method:      method,
		Seed:        seed,
		Results:     results,
		Warnings:    warnings,
		Metrics:     runMetrics,
		RequestedAt: time.Now().UTC(),
	}
	s.store.Save(proposal)

	return &dto.GenerateTimetableResponse{
		ProposalID: proposal.ProposalID,
		Results:    results,
		Warnings:   warnings,
		Metrics:    runMetrics,
	}, nil
}

// Save persists a proposal as a new timetable version. The version row and
// all of its slots commit in one transaction or not at all.
func (s *AllocationService) Save(ctx context.Context, req dto.SaveTimetableRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid save timetable payload")
	}
	proposal, ok := s.store.Get(req.ProposalID)
	if !ok {
		return "", appErrors.Clone(appErrors.ErrProposalExpired, "proposal not found or expired")
	}
	for _, result := range proposal.Results {
		if result.SelectedRoom == nil {
			return "", appErrors.Clone(appErrors.ErrConflict, "proposal contains unplaced sessions")
		}
	}
	if s.tx == nil {
		return "", appErrors.Clone(appErrors.ErrInternal, "transaction provider missing")
	}

	tx, err := s.tx.BeginTxx(ctx, nil)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	metaPayload := map[string]any{
		"method":        proposal.Method,
		"shuffle_seed":  proposal.Seed,
		"metrics":       proposal.Metrics,
		"warnings":      proposal.Warnings,
		"generated_at":  proposal.RequestedAt,
		"balance_score": proposal.Metrics.BalanceScore,
	}
	metaBytes, marshalErr := json.Marshal(metaPayload)
	if marshalErr != nil {
		err = appErrors.Wrap(marshalErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode timetable metadata")
		return "", err
	}

	record := &models.Timetable{
		Department: proposal.Department,
		Term:       proposal.Term,
		Status:     models.TimetableStatusDraft,
		Meta:       types.JSONText(metaBytes),
	}
	if err = s.timetables.CreateVersioned(ctx, tx, record); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create timetable")
		return "", err
	}

	slotModels := make([]models.TimetableSlot, 0, len(proposal.Results))
	for _, result := range proposal.Results {
		slotModels = append(slotModels, models.TimetableSlot{
			TimetableID: record.ID,
			CourseID:    result.CourseID,
			FacultyID:   result.FacultyID,
			RoomID:      result.SelectedRoom.ID,
			Day:         result.Slot.Day,
			StartTime:   result.Slot.StartTime,
			EndTime:     result.Slot.EndTime,
			Purpose:     result.Purpose,
			Confidence:  result.Confidence,
		})
	}
	if err = s.slots.UpsertBatch(ctx, tx, slotModels); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist timetable slots")
		return "", err
	}

	if req.Publish {
		if err = s.timetables.UpdateStatus(ctx, tx, record.ID, models.TimetableStatusPublished, nil); err != nil {
			err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish timetable")
			return "", err
		}
	}

	if err = tx.Commit(); err != nil {
		err = appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to commit timetable transaction")
		return "", err
	}

	s.store.Delete(req.ProposalID)
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, fmt.Sprintf("timetables:%s:*", proposal.Department))
	}
	return record.ID, nil
}

// GetProposalMetrics returns run metrics for a parked proposal.
func (s *AllocationService) GetProposalMetrics(ctx context.Context, proposalID string) (*models.AllocationMetrics, error) {
	proposal, ok := s.store.Get(proposalID)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrProposalExpired, "proposal not found or expired")
	}
	metrics := proposal.Metrics
	return &metrics, nil
}

// List returns timetable versions for a department-term tuple.
func (s *AllocationService) List(ctx context.Context, query dto.TimetableQuery) ([]models.Timetable, error) {
	if query.Department == "" || query.Term == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "department and term are required")
	}

	cacheKey := fmt.Sprintf("timetables:%s:%s", query.Department, query.Term)
	var cached []models.Timetable
	if s.cache != nil {
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return cached, nil
		}
	}

	list, err := s.timetables.ListByDepartmentTerm(ctx, query.Department, query.Term)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetables")
	}
	if s.cache != nil {
		_ = s.cache.Set(ctx, cacheKey, list, 0)
	}
	return list, nil
}

// GetSlots returns placements for a stored timetable.
func (s *AllocationService) GetSlots(ctx context.Context, timetableID string) ([]models.TimetableSlot, error) {
	if timetableID == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "timetable id is required")
	}
	if _, err := s.timetables.FindByID(ctx, timetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	slots, err := s.slots.ListByTimetable(ctx, timetableID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list timetable slots")
	}
	return slots, nil
}

// Publish marks a stored draft as the published version.
func (s *AllocationService) Publish(ctx context.Context, timetableID string) error {
	record, err := s.timetables.FindByID(ctx, timetableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if record.Status == models.TimetableStatusPublished {
		return appErrors.Clone(appErrors.ErrConflict, "timetable is already published")
	}
	if err := s.timetables.UpdateStatus(ctx, nil, timetableID, models.TimetableStatusPublished, nil); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to publish timetable")
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, fmt.Sprintf("timetables:%s:*", record.Department))
	}
	return nil
}

// Delete removes a draft timetable version.
func (s *AllocationService) Delete(ctx context.Context, timetableID string) error {
	record, err := s.timetables.FindByID(ctx, timetableID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load timetable")
	}
	if record.Status != models.TimetableStatusDraft {
		return appErrors.Clone(appErrors.ErrConflict, "only draft timetables can be deleted")
	}
	if err := s.timetables.Delete(ctx, timetableID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "timetable not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete timetable")
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, fmt.Sprintf("timetables:%s:*", record.Department))
	}
	return nil
}

// --- Proposal cache ---

type allocationProposal struct {
	ProposalID  string
	Department  string
	Term        string
	Method      string
	Seed        int64
	Results     []models.AllocationResult
	Warnings    []string
	Metrics     models.AllocationMetrics
	RequestedAt time.Time
}

type proposalStore struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]allocationProposal
}

func newProposalStore(ttl time.Duration) *proposalStore {
	return &proposalStore{
		ttl:   ttl,
		items: make(map[string]allocationProposal),
	}
}

func (s *proposalStore) Save(proposal allocationProposal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[proposal.ProposalID] = proposal
}

func (s *proposalStore) Get(id string) (allocationProposal, bool) {
	s.mu.RLock()
	proposal, ok := s.items[id]
	s.mu.RUnlock()
	if !ok {
		return allocationProposal{}, false
	}
	if time.Since(proposal.RequestedAt) > s.ttl {
		s.Delete(id)
		return allocationProposal{}, false
	}
	return proposal, true
}

func (s *proposalStore) Delete(id string) {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
}
