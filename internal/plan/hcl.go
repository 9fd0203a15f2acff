package plan

import (
	"context"
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/specialistvlad/buildgridgo/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
)

// HCLLoader reads plans written in HCL:
//
//	variable "lib_status" {
//	  default = "success"
//	}
//
//	task "lib" {
//	  status   = var.lib_status
//	  duration = "1.5s"
//	  output   = ["compiling"]
//	}
//
//	task "app" {
//	  depends_on = ["lib"]
//	}
//
// Variables are scoped to the file that declares them. A value passed in
// vars overrides the default and is converted to the default's type.
type HCLLoader struct{}

// NewHCLLoader creates a new HCL plan loader.
func NewHCLLoader() *HCLLoader {
	return &HCLLoader{}
}

// variablesRoot decodes variable blocks and leaves the rest for a second
// pass, which needs the variables in its evaluation context.
type variablesRoot struct {
	Variables []*hclVariable `hcl:"variable,block"`
	Remain    hcl.Body       `hcl:",remain"`
}

type hclVariable struct {
	Name    string    `hcl:"name,label"`
	Default cty.Value `hcl:"default,optional"`
}

type tasksRoot struct {
	Tasks []*hclTask `hcl:"task,block"`
}

type hclTask struct {
	Name        string   `hcl:"name,label"`
	DependsOn   []string `hcl:"depends_on,optional"`
	Status      string   `hcl:"status,optional"`
	Duration    string   `hcl:"duration,optional"`
	Output      []string `hcl:"output,optional"`
	Stderr      []string `hcl:"stderr,optional"`
	SkipAllowed bool     `hcl:"skip_allowed,optional"`
	EmptyScript bool     `hcl:"empty_script,optional"`
	Error       string   `hcl:"error,optional"`
}

// Load implements Loader.
func (l *HCLLoader) Load(ctx context.Context, path string, vars map[string]string) (*Plan, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Parsing HCL plan file.", "path", path)

	parser := hclparse.NewParser()
	file, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", path, diags)
	}

	var declared variablesRoot
	if diags := gohcl.DecodeBody(file.Body, nil, &declared); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode variables in %s: %w", path, diags)
	}

	evalCtx, err := newEvalContext(declared.Variables, vars)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	var root tasksRoot
	if diags := gohcl.DecodeBody(declared.Remain, evalCtx, &root); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", path, diags)
	}

	p := &Plan{}
	for _, t := range root.Tasks {
		task, err := t.translate(path)
		if err != nil {
			return nil, err
		}
		p.Tasks = append(p.Tasks, task)
	}

	logger.Debug("Parsed HCL plan file.", "path", path, "variables", len(declared.Variables), "tasks", len(p.Tasks))
	return p, nil
}

func (t *hclTask) translate(source string) (*Task, error) {
	result, err := ParseResult(t.Status)
	if err != nil {
		return nil, fmt.Errorf("task %q in %s: %w", t.Name, source, err)
	}
	duration, err := parseDuration(t.Duration)
	if err != nil {
		return nil, fmt.Errorf("task %q in %s: %w", t.Name, source, err)
	}
	return &Task{
		Name:        t.Name,
		DependsOn:   t.DependsOn,
		Result:      result,
		Duration:    duration,
		Output:      t.Output,
		Stderr:      t.Stderr,
		SkipAllowed: t.SkipAllowed,
		EmptyScript: t.EmptyScript,
		Error:       t.Error,
		Source:      source,
	}, nil
}

// newEvalContext exposes declared defaults and overrides as var.<name>.
func newEvalContext(declared []*hclVariable, overrides map[string]string) (*hcl.EvalContext, error) {
	values := make(map[string]cty.Value)
	var required []string
	for _, v := range declared {
		if v.Default.IsNull() {
			required = append(required, v.Name)
			continue
		}
		values[v.Name] = v.Default
	}

	if len(overrides) > 0 {
		given, err := gocty.ToCtyValue(overrides, cty.Map(cty.String))
		if err != nil {
			return nil, fmt.Errorf("%w: converting variables: %v", ErrInvalidPlan, err)
		}
		for name, val := range given.AsValueMap() {
			if def, ok := values[name]; ok && !def.Type().Equals(cty.String) {
				converted, err := convert.Convert(val, def.Type())
				if err != nil {
					return nil, fmt.Errorf("%w: variable %q: %v", ErrInvalidPlan, name, err)
				}
				val = converted
			}
			values[name] = val
		}
	}

	for _, name := range required {
		if _, ok := values[name]; !ok {
			return nil, fmt.Errorf("%w: variable %q has no default and no value was given", ErrInvalidPlan, name)
		}
	}

	return &hcl.EvalContext{
		Variables: map[string]cty.Value{"var": cty.ObjectVal(values)},
	}, nil
}
