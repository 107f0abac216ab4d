package dataset

import (
	"strings"
	"time"

	"worldmap-server/internal/pointcloud"
	"worldmap-server/internal/shared/errors"
)

type Dataset struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Description  string    `json:"description"`
	PointCount   int       `json:"point_count"`
	ClusterCount int       `json:"cluster_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Detail is a dataset together with its point cloud.
type Detail struct {
	Dataset
	pointcloud.Set
}

type ImportRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	pointcloud.Set
}

func (r *ImportRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return errors.Validation("dataset name is required")
	}
	if len(r.Name) > 255 {
		return errors.Validation("dataset name must be at most 255 characters")
	}
	return r.Set.Validate()
}
