package plan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/specialistvlad/buildgridgo/internal/ctxlog"
	"github.com/specialistvlad/buildgridgo/internal/fsutil"
)

// Loader is the interface for a format-specific plan loader.
type Loader interface {
	// Load parses a single file into a plan. vars supplies values for
	// formats that support variables.
	Load(ctx context.Context, path string, vars map[string]string) (*Plan, error)
}

// loaders maps file extensions to the loader for that format.
var loaders = map[string]Loader{
	".hcl":  NewHCLLoader(),
	".yaml": NewYAMLLoader(),
	".yml":  NewYAMLLoader(),
}

// Load reads a plan from a file or, for a directory, from every plan file
// beneath it. Tasks from several files are merged.
func Load(ctx context.Context, path string, vars map[string]string) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing plan path %s: %w", path, err)
	}

	files := []string{path}
	if info.IsDir() {
		files, err = fsutil.FindFilesByExtension(path, ".hcl", ".yaml", ".yml")
		if err != nil {
			return nil, fmt.Errorf("searching %s for plan files: %w", path, err)
		}
		if len(files) == 0 {
			return nil, fmt.Errorf("%w: no plan files found in %s", ErrInvalidPlan, path)
		}
	}
	logger.Debug("Discovered plan files.", "count", len(files))

	result := &Plan{}
	for _, file := range files {
		loader, ok := loaders[filepath.Ext(file)]
		if !ok {
			return nil, fmt.Errorf("%w: unsupported plan file %s", ErrInvalidPlan, file)
		}
		p, err := loader.Load(ctx, file, vars)
		if err != nil {
			return nil, err
		}
		if err := result.merge(p); err != nil {
			return nil, err
		}
	}

	logger.Debug("Plan loading complete.", "tasks", len(result.Tasks))
	return result, nil
}
