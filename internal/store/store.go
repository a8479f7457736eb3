// Package store persists feasibility projects. The engine itself never
// touches storage; callers load a project, invoke the engine, and save the
// result back through one of these implementations.
package store

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/feasibility-cli/internal/model"
)

// ErrNotFound is returned when the requested record does not exist.
// Check with errors.Is.
var ErrNotFound = eris.New("not found")

// ProjectFilter specifies criteria for listing projects.
type ProjectFilter struct {
	Completed *bool  `json:"completed,omitempty"`
	NameLike  string `json:"name_like,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Offset    int    `json:"offset,omitempty"`
}

// Store defines the persistence interface for feasibility projects.
type Store interface {
	CreateProject(ctx context.Context, name string) (*model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	ListProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error)

	// UpdateProjectData applies the non-nil sections of the update and
	// marks the project completed once all three sections are present.
	UpdateProjectData(ctx context.Context, id string, update model.ProjectUpdate) (*model.Project, error)

	// SaveResult attaches a computed FeasibilityResult to the project.
	SaveResult(ctx context.Context, id string, result *model.FeasibilityResult) error

	// SaveProjects bulk-inserts fully-formed projects (batch imports).
	SaveProjects(ctx context.Context, projects []model.Project) (int64, error)

	DeleteProject(ctx context.Context, id string) error

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
