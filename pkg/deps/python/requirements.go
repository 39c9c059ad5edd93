package python

import (
	"bufio"
	"os"
	"strings"

	"github.com/matzehuels/reqgraph/pkg/integrations/pypi"
)

// Requirements parses pip requirements files.
type Requirements struct{}

func (Requirements) Type() string { return "requirements" }

func (Requirements) Supports(name string) bool {
	return name == "requirements.txt" ||
		(strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt"))
}

// Parse returns the packages named in the file, normalized and distinct,
// in file order. Comments, blank lines, pip options (-r, -e, --index-url,
// ...), URLs and VCS references are skipped, as are lines that do not name
// a valid package.
func (Requirements) Parse(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		names   nameSet
		pending string
	)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := pending + scanner.Text()
		pending = ""
		if strings.HasSuffix(line, `\`) {
			pending = strings.TrimSuffix(line, `\`) + " "
			continue
		}
		if name, ok := requirementLine(line); ok {
			names.add(name)
		}
	}
	if name, ok := requirementLine(pending); ok {
		names.add(name)
	}
	return names.list, scanner.Err()
}

// requirementLine extracts the package name from one logical line.
func requirementLine(line string) (string, bool) {
	if i := strings.Index(line, " #"); i >= 0 {
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	if line == "" || line[0] == '#' || line[0] == '-' {
		return "", false
	}
	if strings.Contains(line, "://") || strings.HasPrefix(line, "git+") {
		return "", false
	}
	// Per-requirement options such as --hash follow the specifier.
	if i := strings.Index(line, " --"); i >= 0 {
		line = line[:i]
	}
	req, ok := pypi.ParseRequirement(line)
	if !ok {
		return "", false
	}
	return req.Name, true
}

type nameSet struct {
	seen map[string]bool
	list []string
}

func (s *nameSet) add(name string) {
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	if name == "" || s.seen[name] {
		return
	}
	s.seen[name] = true
	s.list = append(s.list, name)
}
