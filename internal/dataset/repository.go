package dataset

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"log/slog"

	"worldmap-server/internal/pointcloud"
	"worldmap-server/internal/shared/database"
	"worldmap-server/internal/shared/errors"

	"github.com/lib/pq"
)

const uniqueViolation = "23505"

type Repository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewRepository(db *database.DB, logger *slog.Logger) *Repository {
	logger.Debug("Initializing dataset repository")

	return &Repository{
		db:     db,
		logger: logger,
	}
}

// Create stores the dataset, its points in input order and its clusters in
// one transaction.
func (r *Repository) Create(ctx context.Context, req ImportRequest) (*Dataset, error) {
	logger := r.logger.With(
		"component", "dataset_repository",
		"operation", "create",
		"name", req.Name,
		"points", len(req.Points),
		"clusters", len(req.Clusters),
	)
	logger.Info("Creating dataset")

	tx, err := r.db.BeginTxContext(ctx)
	if err != nil {
		logger.Error("Failed to begin transaction", "error", err)
		return nil, err
	}
	defer func() {
		if err := tx.Rollback(); err != nil && !stderrors.Is(err, sql.ErrTxDone) {
			logger.Error("Failed to rollback transaction", "error", err)
		}
	}()

	query := `
		INSERT INTO datasets (name, description, point_count, cluster_count)
		VALUES ($1, $2, $3, $4)
		RETURNING id, name, description, point_count, cluster_count, created_at, updated_at
	`

	var ds Dataset
	err = tx.QueryRowContext(ctx, query, req.Name, req.Description, len(req.Points), len(req.Clusters)).Scan(
		&ds.ID,
		&ds.Name,
		&ds.Description,
		&ds.PointCount,
		&ds.ClusterCount,
		&ds.CreatedAt,
		&ds.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if stderrors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
			return nil, errors.Conflictf("dataset %q already exists", req.Name)
		}
		logger.Error("Failed to insert dataset", "error", err)
		return nil, fmt.Errorf("failed to insert dataset: %w", err)
	}

	if err := copyPoints(ctx, tx.Tx, ds.ID, req.Points); err != nil {
		logger.Error("Failed to copy points", "error", err)
		return nil, fmt.Errorf("failed to copy points: %w", err)
	}

	if err := insertClusters(ctx, tx.Tx, ds.ID, req.Clusters); err != nil {
		logger.Error("Failed to insert clusters", "error", err)
		return nil, fmt.Errorf("failed to insert clusters: %w", err)
	}

	if err := tx.Commit(); err != nil {
		logger.Error("Failed to commit dataset", "error", err)
		return nil, fmt.Errorf("failed to commit dataset: %w", err)
	}

	logger.Info("Dataset created successfully", "dataset_id", ds.ID)
	return &ds, nil
}

func copyPoints(ctx context.Context, tx *sql.Tx, datasetID int, points []pointcloud.Point) error {
	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("dataset_points", "dataset_id", "ordinal", "point_id", "x", "y"))
	if err != nil {
		return err
	}
	for i, p := range points {
		if _, err := stmt.ExecContext(ctx, datasetID, i, p.ID, p.X, p.Y); err != nil {
			_ = stmt.Close()
			return err
		}
	}
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return err
	}
	return stmt.Close()
}

func insertClusters(ctx context.Context, tx *sql.Tx, datasetID int, clusters []pointcloud.Cluster) error {
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO dataset_clusters (dataset_id, ordinal, cluster_id, level, name, centroid_x, centroid_y, color, member_ids)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, c := range clusters {
		_, err := stmt.ExecContext(ctx, datasetID, i, c.ID, string(c.Level), c.Name,
			c.Centroid[0], c.Centroid[1], c.Color.Hex(), pq.Array(c.Members))
		if err != nil {
			return fmt.Errorf("cluster %s/%s: %w", c.Level, c.ID, err)
		}
	}
	return nil
}

func (r *Repository) List(ctx context.Context) ([]Dataset, error) {
	logger := r.logger.With("component", "dataset_repository", "operation", "list")
	logger.Debug("Listing datasets")

	query := `
		SELECT id, name, description, point_count, cluster_count, created_at, updated_at
		FROM datasets
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.Error("Failed to query datasets", "error", err)
		return nil, fmt.Errorf("failed to query datasets: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	var datasets []Dataset
	for rows.Next() {
		var ds Dataset
		if err := rows.Scan(&ds.ID, &ds.Name, &ds.Description, &ds.PointCount, &ds.ClusterCount, &ds.CreatedAt, &ds.UpdatedAt); err != nil {
			logger.Error("Failed to scan dataset", "error", err)
			return nil, fmt.Errorf("failed to scan dataset: %w", err)
		}
		datasets = append(datasets, ds)
	}
	if err := rows.Err(); err != nil {
		logger.Error("Error iterating datasets", "error", err)
		return nil, fmt.Errorf("error iterating datasets: %w", err)
	}

	logger.Debug("Datasets retrieved", "count", len(datasets))
	return datasets, nil
}

// GetByID returns nil, nil when the dataset does not exist.
func (r *Repository) GetByID(ctx context.Context, id int) (*Dataset, error) {
	logger := r.logger.With("component", "dataset_repository", "operation", "get", "dataset_id", id)
	logger.Debug("Getting dataset by ID")

	query := `
		SELECT id, name, description, point_count, cluster_count, created_at, updated_at
		FROM datasets
		WHERE id = $1
	`

	var ds Dataset
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&ds.ID, &ds.Name, &ds.Description, &ds.PointCount, &ds.ClusterCount, &ds.CreatedAt, &ds.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			logger.Debug("Dataset not found")
			return nil, nil
		}
		logger.Error("Database error getting dataset", "error", err)
		return nil, fmt.Errorf("database error: %w", err)
	}
	return &ds, nil
}

// LoadSet reads the points (in their original order) and clusters of a
// dataset.
func (r *Repository) LoadSet(ctx context.Context, id int) (*pointcloud.Set, error) {
	logger := r.logger.With("component", "dataset_repository", "operation", "load_set", "dataset_id", id)

	set := &pointcloud.Set{}

	rows, err := r.db.QueryContext(ctx,
		`SELECT point_id, x, y FROM dataset_points WHERE dataset_id = $1 ORDER BY ordinal`, id)
	if err != nil {
		logger.Error("Failed to query points", "error", err)
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	for rows.Next() {
		var p pointcloud.Point
		if err := rows.Scan(&p.ID, &p.X, &p.Y); err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}
		set.Points = append(set.Points, p)
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("error iterating points: %w", err)
	}
	if err := rows.Close(); err != nil {
		logger.Error("Failed to close rows", "error", err)
	}

	rows, err = r.db.QueryContext(ctx, `
		SELECT cluster_id, level, name, centroid_x, centroid_y, color, member_ids
		FROM dataset_clusters
		WHERE dataset_id = $1
		ORDER BY ordinal
	`, id)
	if err != nil {
		logger.Error("Failed to query clusters", "error", err)
		return nil, fmt.Errorf("failed to query clusters: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			logger.Error("Failed to close rows", "error", err)
		}
	}()

	for rows.Next() {
		var (
			c     pointcloud.Cluster
			level string
			color string
		)
		if err := rows.Scan(&c.ID, &level, &c.Name, &c.Centroid[0], &c.Centroid[1], &color, pq.Array(&c.Members)); err != nil {
			return nil, fmt.Errorf("failed to scan cluster: %w", err)
		}
		c.Level = pointcloud.ClusterLevel(level)
		if c.Color, err = pointcloud.ParseHex(color); err != nil {
			return nil, fmt.Errorf("cluster %s: %w", c.ID, err)
		}
		set.Clusters = append(set.Clusters, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating clusters: %w", err)
	}

	logger.Debug("Point set loaded", "points", len(set.Points), "clusters", len(set.Clusters))
	return set, nil
}

// Delete reports whether a dataset was removed. Points and clusters go with
// it through ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id int) (bool, error) {
	logger := r.logger.With("component", "dataset_repository", "operation", "delete", "dataset_id", id)
	logger.Info("Deleting dataset")

	res, err := r.db.ExecContext(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		logger.Error("Failed to delete dataset", "error", err)
		return false, fmt.Errorf("failed to delete dataset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}
	return n > 0, nil
}
