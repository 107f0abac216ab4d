package dataset

import (
	"context"
	"log/slog"

	"worldmap-server/internal/pointcloud"
	"worldmap-server/internal/shared/errors"
)

// Store is the persistence the service needs; *Repository implements it.
type Store interface {
	Create(ctx context.Context, req ImportRequest) (*Dataset, error)
	List(ctx context.Context) ([]Dataset, error)
	GetByID(ctx context.Context, id int) (*Dataset, error)
	LoadSet(ctx context.Context, id int) (*pointcloud.Set, error)
	Delete(ctx context.Context, id int) (bool, error)
}

type Service struct {
	repo   Store
	cache  *Cache
	logger *slog.Logger
}

func NewService(repo Store, cache *Cache, logger *slog.Logger) *Service {
	logger.Debug("Initializing dataset service")

	return &Service{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

func (s *Service) List(ctx context.Context) ([]Dataset, error) {
	datasets, err := s.repo.List(ctx)
	if err != nil {
		return nil, errors.WrapInternal("failed to list datasets", err)
	}
	if datasets == nil {
		datasets = []Dataset{}
	}
	return datasets, nil
}

func (s *Service) Get(ctx context.Context, id int) (*Detail, error) {
	ds, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	set, ok := s.cache.Get(ctx, id)
	if !ok {
		if set, err = s.fetchSet(ctx, id); err != nil {
			return nil, err
		}
	}
	return &Detail{Dataset: *ds, Set: *set}, nil
}

// Load returns the point set of a dataset, reading through the cache.
func (s *Service) Load(ctx context.Context, id int) (*pointcloud.Set, error) {
	if set, ok := s.cache.Get(ctx, id); ok {
		s.logger.Debug("Dataset cache hit", "component", "dataset_service", "dataset_id", id)
		return set, nil
	}
	if _, err := s.find(ctx, id); err != nil {
		return nil, err
	}
	return s.fetchSet(ctx, id)
}

func (s *Service) find(ctx context.Context, id int) (*Dataset, error) {
	ds, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, errors.WrapInternal("failed to get dataset", err)
	}
	if ds == nil {
		return nil, errors.NotFoundf("dataset %d not found", id)
	}
	return ds, nil
}

// fetchSet reads the point set of an existing dataset and caches it.
func (s *Service) fetchSet(ctx context.Context, id int) (*pointcloud.Set, error) {
	set, err := s.repo.LoadSet(ctx, id)
	if err != nil {
		return nil, errors.WrapInternal("failed to load dataset", err)
	}
	s.cache.Put(ctx, id, set)

	s.logger.Debug("Dataset loaded from database", "component", "dataset_service", "dataset_id", id, "points", len(set.Points))
	return set, nil
}

func (s *Service) Import(ctx context.Context, req ImportRequest) (*Dataset, error) {
	logger := s.logger.With("component", "dataset_service", "operation", "import", "name", req.Name)

	if err := req.Validate(); err != nil {
		return nil, err
	}

	ds, err := s.repo.Create(ctx, req)
	if err != nil {
		if errors.GetType(err) == errors.ErrorTypeConflict {
			return nil, err
		}
		return nil, errors.WrapInternal("failed to store dataset", err)
	}

	logger.Info("Dataset imported", "dataset_id", ds.ID, "points", ds.PointCount, "clusters", ds.ClusterCount)
	return ds, nil
}

func (s *Service) Delete(ctx context.Context, id int) error {
	deleted, err := s.repo.Delete(ctx, id)
	if err != nil {
		return errors.WrapInternal("failed to delete dataset", err)
	}
	if !deleted {
		return errors.NotFoundf("dataset %d not found", id)
	}
	s.cache.Evict(ctx, id)
	return nil
}
