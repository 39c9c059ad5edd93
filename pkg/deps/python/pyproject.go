package python

import (
	"fmt"
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/reqgraph/pkg/integrations/pypi"
)

// Pyproject parses the dependency tables of pyproject.toml: PEP 621
// [project].dependencies and Poetry's [tool.poetry.dependencies].
type Pyproject struct{}

func (Pyproject) Type() string              { return "pyproject" }
func (Pyproject) Supports(name string) bool { return name == "pyproject.toml" }

type pyprojectFile struct {
	Project struct {
		Dependencies []string `toml:"dependencies"`
	} `toml:"project"`
	Tool struct {
		Poetry struct {
			Dependencies map[string]any `toml:"dependencies"`
		} `toml:"poetry"`
	} `toml:"tool"`
}

// Parse returns the declared runtime dependencies. PEP 621 entries keep file
// order; Poetry entries follow in name order, without the python
// constraint.
func (Pyproject) Parse(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc pyprojectFile
	if err := toml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	var names nameSet
	for _, spec := range doc.Project.Dependencies {
		if req, ok := pypi.ParseRequirement(spec); ok {
			names.add(req.Name)
		}
	}

	poetry := make([]string, 0, len(doc.Tool.Poetry.Dependencies))
	for name := range doc.Tool.Poetry.Dependencies {
		poetry = append(poetry, name)
	}
	sort.Strings(poetry)
	for _, name := range poetry {
		req, ok := pypi.ParseRequirement(name)
		if !ok || req.Name == "python" {
			continue
		}
		names.add(req.Name)
	}
	return names.list, nil
}
