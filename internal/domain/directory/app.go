package directory

import (
	"strings"

	"github.com/screentime/backend/internal/domain/shared"
)

// App is a directory entry for an application observed on any device, keyed
// by its package name.
type App struct {
	shared.BaseEntity
	PackageName string
	Name        string
}

// NewApp creates an app directory entry. A missing display name falls back
// to the package name.
func NewApp(packageName, name string) (*App, error) {
	packageName = strings.TrimSpace(packageName)
	if packageName == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "App package name cannot be empty")
	}
	if name == "" {
		name = packageName
	}

	return &App{
		BaseEntity:  shared.NewBaseEntity(),
		PackageName: packageName,
		Name:        name,
	}, nil
}

// Rename updates the display name when the device reports a different one.
func (a *App) Rename(name string) bool {
	if name == "" || name == a.Name {
		return false
	}
	a.Name = name
	return true
}
