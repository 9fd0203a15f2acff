package plan

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/buildgridgo/internal/ctxlog"
	"gopkg.in/yaml.v3"
)

// YAMLLoader reads plans written in YAML:
//
//	tasks:
//	  - name: lib
//	    status: warning
//	    stderr: ["warning: unused import"]
//	  - name: app
//	    depends_on: [lib]
//
// YAML plans do not support variables.
type YAMLLoader struct{}

// NewYAMLLoader creates a new YAML plan loader.
func NewYAMLLoader() *YAMLLoader {
	return &YAMLLoader{}
}

type yamlFile struct {
	Tasks []yamlTask `yaml:"tasks"`
}

type yamlTask struct {
	Name        string   `yaml:"name"`
	DependsOn   []string `yaml:"depends_on"`
	Status      string   `yaml:"status"`
	Duration    string   `yaml:"duration"`
	Output      []string `yaml:"output"`
	Stderr      []string `yaml:"stderr"`
	SkipAllowed bool     `yaml:"skip_allowed"`
	EmptyScript bool     `yaml:"empty_script"`
	Error       string   `yaml:"error"`
}

// Load implements Loader. vars is ignored.
func (l *YAMLLoader) Load(ctx context.Context, path string, _ map[string]string) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing YAML plan file.", "path", path)

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var doc yamlFile
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to decode YAML file %s: %w", path, err)
	}

	p := &Plan{}
	for _, t := range doc.Tasks {
		result, err := ParseResult(t.Status)
		if err != nil {
			return nil, fmt.Errorf("task %q in %s: %w", t.Name, path, err)
		}
		duration, err := parseDuration(t.Duration)
		if err != nil {
			return nil, fmt.Errorf("task %q in %s: %w", t.Name, path, err)
		}
		p.Tasks = append(p.Tasks, &Task{
			Name:        t.Name,
			DependsOn:   t.DependsOn,
			Result:      result,
			Duration:    duration,
			Output:      t.Output,
			Stderr:      t.Stderr,
			SkipAllowed: t.SkipAllowed,
			EmptyScript: t.EmptyScript,
			Error:       t.Error,
			Source:      path,
		})
	}

	logger.Debug("Parsed YAML plan file.", "path", path, "tasks", len(p.Tasks))
	return p, nil
}
