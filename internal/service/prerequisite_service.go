package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-timetable/internal/dto"
	"github.com/noah-isme/sma-timetable/internal/engine"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/repository"
	appErrors "github.com/noah-isme/sma-timetable/pkg/errors"
	"github.com/noah-isme/sma-timetable/pkg/logger"
)

const prerequisiteCachePattern = "prerequisites:*"

type subjectGraphRepository interface {
	FindByID(ctx context.Context, id string) (*models.Subject, error)
	ListRefs(ctx context.Context, ids []string) ([]models.SubjectRef, error)
	ListEdges(ctx context.Context, exec sqlx.ExtContext) ([]models.PrerequisiteEdge, error)
	AddEdge(ctx context.Context, exec sqlx.ExtContext, subjectID, prerequisiteID string) (*models.PrerequisiteEdge, error)
	RemoveEdge(ctx context.Context, exec sqlx.ExtContext, subjectID, prerequisiteID string) (bool, error)
}

// PrerequisiteTreeDepth bounds tree rendering.
type PrerequisiteTreeDepth struct {
	Default int
	Max     int
}

// PrerequisiteService mutates and queries the subject prerequisite graph.
type PrerequisiteService struct {
	repo      subjectGraphRepository
	db        txProvider
	locker    advisoryLocker
	cache     *CacheService
	validator *validator.Validate
	metrics   *MetricsService
	depth     PrerequisiteTreeDepth
	logger    *zap.Logger

	// generation advances on every committed graph change; reads that straddle one skip the cache write.
	generation atomic.Uint64
}

// NewPrerequisiteService constructs the service.
func NewPrerequisiteService(repo subjectGraphRepository, db txProvider, locker advisoryLocker, cache *CacheService, validate *validator.Validate, metrics *MetricsService, depth PrerequisiteTreeDepth, logger *zap.Logger) *PrerequisiteService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if depth.Max <= 0 {
		depth.Max = 10
	}
	if depth.Default <= 0 || depth.Default > depth.Max {
		depth.Default = min(3, depth.Max)
	}
	return &PrerequisiteService{
		repo:      repo,
		db:        db,
		locker:    locker,
		cache:     cache,
		validator: validate,
		metrics:   metrics,
		depth:     depth,
		logger:    logger,
	}
}

// AddPrerequisite records that prerequisiteId must be satisfied before subjectID.
// The check and the insert run under the graph lock so concurrent edges cannot close a cycle.
func (s *PrerequisiteService) AddPrerequisite(ctx context.Context, subjectID string, req dto.AddPrerequisiteRequest) (*models.PrerequisiteEdge, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid prerequisite payload")
	}
	if subjectID == req.PrerequisiteID {
		s.metrics.RecordPrerequisiteRejection("self_reference")
		return nil, appErrors.Clone(appErrors.ErrSelfReference, "")
	}
	if err := s.ensureSubject(ctx, subjectID, "Subject not found"); err != nil {
		return nil, err
	}
	if err := s.ensureSubject(ctx, req.PrerequisiteID, "Prerequisite subject not found"); err != nil {
		return nil, err
	}

	var edge *models.PrerequisiteEdge
	err := withLockedTx(ctx, s.db, s.locker, []string{prerequisiteGraphLock}, func(tx *sqlx.Tx) error {
		edges, err := s.repo.ListEdges(ctx, tx)
		if err != nil {
			return err
		}
		if err := engine.NewPrerequisiteGraph(edges).AddEdge(subjectID, req.PrerequisiteID); err != nil {
			return err
		}
		edge, err = s.repo.AddEdge(ctx, tx, subjectID, req.PrerequisiteID)
		return err
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			err = appErrors.Clone(appErrors.ErrConflict, "prerequisite already exists")
		}
		return nil, s.graphError(ctx, err, "failed to add prerequisite")
	}

	s.graphChanged(ctx)
	logger.FromContext(ctx, s.logger).Info("prerequisite added",
		zap.String("subject_id", subjectID),
		zap.String("prerequisite_id", req.PrerequisiteID),
		zap.Int("position", edge.Position),
	)
	return edge, nil
}

// RemovePrerequisite deletes an edge.
func (s *PrerequisiteService) RemovePrerequisite(ctx context.Context, subjectID, prerequisiteID string) error {
	err := withLockedTx(ctx, s.db, s.locker, []string{prerequisiteGraphLock}, func(tx *sqlx.Tx) error {
		removed, err := s.repo.RemoveEdge(ctx, tx, subjectID, prerequisiteID)
		if err != nil {
			return err
		}
		if !removed {
			return appErrors.Clone(appErrors.ErrNotFound, "prerequisite not found")
		}
		return nil
	})
	if err != nil {
		return s.graphError(ctx, err, "failed to remove prerequisite")
	}
	s.graphChanged(ctx)
	return nil
}

// Closure returns every transitive prerequisite of subjectID in ascending id order.
// The boolean reports whether the value came from cache.
func (s *PrerequisiteService) Closure(ctx context.Context, subjectID string) (*dto.PrerequisiteClosureResponse, bool, error) {
	key := fmt.Sprintf("prerequisites:closure:%s", subjectID)
	var cached dto.PrerequisiteClosureResponse
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	if err := s.ensureSubject(ctx, subjectID, "Subject not found"); err != nil {
		return nil, false, err
	}
	generation := s.generation.Load()
	graph, err := s.loadGraph(ctx)
	if err != nil {
		return nil, false, err
	}
	closure, err := graph.TransitiveClosure(subjectID)
	if err != nil {
		return nil, false, s.graphError(ctx, err, "failed to compute prerequisite closure")
	}
	resp := &dto.PrerequisiteClosureResponse{SubjectID: subjectID, Prerequisites: closure.Sorted()}
	s.cacheGraphRead(ctx, generation, key, resp)
	return resp, false, nil
}

// Tree renders the nested prerequisites of subjectID. A nil maxDepth uses the configured default;
// values above the configured maximum are clamped.
func (s *PrerequisiteService) Tree(ctx context.Context, subjectID string, query dto.PrerequisiteTreeQuery) (*models.PrerequisiteNode, bool, error) {
	depth := s.depth.Default
	if query.MaxDepth != nil {
		depth = min(max(*query.MaxDepth, 1), s.depth.Max)
	}

	key := fmt.Sprintf("prerequisites:tree:%s:%d", subjectID, depth)
	var cached models.PrerequisiteNode
	if s.cache.Get(ctx, key, &cached) {
		return &cached, true, nil
	}

	if err := s.ensureSubject(ctx, subjectID, "Subject not found"); err != nil {
		return nil, false, err
	}
	generation := s.generation.Load()
	graph, err := s.loadGraph(ctx)
	if err != nil {
		return nil, false, err
	}
	tree := graph.Tree(subjectID, depth, nil)

	refs, err := s.repo.ListRefs(ctx, collectTreeIDs(tree, nil))
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject names")
	}
	byID := make(map[string]models.SubjectRef, len(refs))
	for _, ref := range refs {
		byID[ref.ID] = ref
	}
	fillTreeNames(&tree, byID)

	s.cacheGraphRead(ctx, generation, key, tree)
	return &tree, false, nil
}

func (s *PrerequisiteService) graphChanged(ctx context.Context) {
	s.generation.Add(1)
	s.cache.Invalidate(ctx, prerequisiteCachePattern)
}

// cacheGraphRead stores value unless the graph changed after generation was taken.
func (s *PrerequisiteService) cacheGraphRead(ctx context.Context, generation uint64, key string, value interface{}) {
	if s.generation.Load() != generation {
		logger.FromContext(ctx, s.logger).Debug("graph changed during read, not caching", zap.String("key", key))
		return
	}
	s.cache.Set(ctx, key, value, 0)
}

func (s *PrerequisiteService) loadGraph(ctx context.Context) (*engine.PrerequisiteGraph, error) {
	edges, err := s.repo.ListEdges(ctx, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load prerequisite graph")
	}
	return engine.NewPrerequisiteGraph(edges), nil
}

func (s *PrerequisiteService) ensureSubject(ctx context.Context, id, notFound string) error {
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, notFound)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load subject")
	}
	return nil
}

func (s *PrerequisiteService) graphError(ctx context.Context, err error, message string) error {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		switch {
		case errors.Is(appErr, appErrors.ErrCycle):
			s.metrics.RecordPrerequisiteRejection("cycle")
		case errors.Is(appErr, appErrors.ErrConflict):
			s.metrics.RecordPrerequisiteRejection("duplicate")
		}
		logger.FromContext(ctx, s.logger).Info("prerequisite change rejected", zap.String("code", appErr.Code), zap.String("reason", appErr.Message))
		return appErr
	}
	s.logger.Error(message, zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}

func collectTreeIDs(node models.PrerequisiteNode, ids []string) []string {
	ids = append(ids, node.SubjectID)
	for _, child := range node.Prerequisites {
		ids = collectTreeIDs(child, ids)
	}
	return ids
}

func fillTreeNames(node *models.PrerequisiteNode, refs map[string]models.SubjectRef) {
	if ref, ok := refs[node.SubjectID]; ok {
		node.Code = ref.Code
		node.Name = ref.Name
	}
	for i := range node.Prerequisites {
		fillTreeNames(&node.Prerequisites[i], refs)
	}
}
