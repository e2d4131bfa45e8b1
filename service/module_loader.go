package service

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/XVilka/fcd/domain"
)

// ModuleDesc is the serialized form of one lifted module: the contract
// the lifting front-end emits and this back-end consumes.
type ModuleDesc struct {
	Module    string         `yaml:"module"`
	Functions []FunctionDesc `yaml:"functions"`
}

// FunctionDesc describes one lifted function as an unstructured
// control-flow graph.
type FunctionDesc struct {
	Name      string      `yaml:"name"`
	VA        uint64      `yaml:"va"`
	Prototype bool        `yaml:"prototype"`
	Entry     string      `yaml:"entry"`
	Blocks    []BlockDesc `yaml:"blocks"`
	Edges     []EdgeDesc  `yaml:"edges"`
}

// BlockDesc is a basic block: a name and its straight-line statements.
type BlockDesc struct {
	Name  string   `yaml:"name"`
	Stmts []string `yaml:"stmts"`
}

// EdgeDesc is a conditional edge between two named blocks. An empty
// condition means unconditional.
type EdgeDesc struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
	Cond string `yaml:"cond"`
}

// ModuleLoader reads and validates module description files.
type ModuleLoader struct{}

// NewModuleLoader creates a module loader.
func NewModuleLoader() *ModuleLoader {
	return &ModuleLoader{}
}

// LoadModuleFile parses one module description file.
func (l *ModuleLoader) LoadModuleFile(path string) (*ModuleDesc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.NewFileNotFoundError(path, err)
		}
		return nil, domain.NewParseError(path, err)
	}
	var desc ModuleDesc
	if err := yaml.Unmarshal(data, &desc); err != nil {
		return nil, domain.NewParseError(path, err)
	}
	for i := range desc.Functions {
		if err := l.validateFunction(&desc.Functions[i]); err != nil {
			return nil, domain.NewParseError(path, err)
		}
	}
	return &desc, nil
}

// validateFunction checks the structural well-formedness the back-end
// relies on: named blocks, resolvable edges, a designated entry, and a
// reachable exit block.
func (l *ModuleLoader) validateFunction(fd *FunctionDesc) error {
	if fd.Name == "" {
		return fmt.Errorf("function without a name")
	}
	if fd.Prototype {
		return nil
	}
	if len(fd.Blocks) == 0 {
		return fmt.Errorf("function %s: no blocks", fd.Name)
	}

	byName := make(map[string]bool, len(fd.Blocks))
	for _, b := range fd.Blocks {
		if b.Name == "" {
			return fmt.Errorf("function %s: block without a name", fd.Name)
		}
		if byName[b.Name] {
			return fmt.Errorf("function %s: duplicate block %q", fd.Name, b.Name)
		}
		byName[b.Name] = true
	}

	entry := fd.Entry
	if entry == "" {
		entry = fd.Blocks[0].Name
	}
	if !byName[entry] {
		return fmt.Errorf("function %s: entry block %q not defined", fd.Name, entry)
	}

	succs := make(map[string][]string)
	for _, e := range fd.Edges {
		if !byName[e.From] {
			return fmt.Errorf("function %s: edge from unknown block %q", fd.Name, e.From)
		}
		if !byName[e.To] {
			return fmt.Errorf("function %s: edge to unknown block %q", fd.Name, e.To)
		}
		succs[e.From] = append(succs[e.From], e.To)
	}

	reachable := map[string]bool{entry: true}
	work := []string{entry}
	exitless := false
	for len(work) > 0 {
		name := work[len(work)-1]
		work = work[:len(work)-1]
		if len(succs[name]) == 0 {
			exitless = true
			break
		}
		for _, to := range succs[name] {
			if !reachable[to] {
				reachable[to] = true
				work = append(work, to)
			}
		}
	}
	if !exitless {
		return fmt.Errorf("function %s: every block reachable from the entry has a successor, function cannot return", fd.Name)
	}
	return nil
}

// ModuleFileResolverImpl resolves input paths and glob patterns to
// module description files.
type ModuleFileResolverImpl struct{}

// NewModuleFileResolver creates a resolver.
func NewModuleFileResolver() *ModuleFileResolverImpl {
	return &ModuleFileResolverImpl{}
}

// CollectModuleFiles expands every input path: directories are walked
// for files matching the default module pattern, plain paths are taken
// as-is, and include/exclude patterns filter the result.
func (r *ModuleFileResolverImpl) CollectModuleFiles(paths []string, include, exclude []string) ([]string, error) {
	seen := make(map[string]bool)
	var files []string
	add := func(path string) {
		if !seen[path] && r.shouldInclude(path, include, exclude) {
			seen[path] = true
			files = append(files, path)
		}
	}

	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, domain.NewFileNotFoundError(path, err)
		}
		if !info.IsDir() {
			add(path)
			continue
		}
		matches, err := doublestar.Glob(os.DirFS(path), domain.DefaultModulePattern)
		if err != nil {
			return nil, domain.NewInvalidInputError(fmt.Sprintf("bad module pattern for %s", path), err)
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(filepath.Join(path, m))
		}
	}

	if len(files) == 0 {
		return nil, domain.NewInvalidInputError("no module files found in "+strings.Join(paths, ", "), nil)
	}
	return files, nil
}

func (r *ModuleFileResolverImpl) shouldInclude(path string, include, exclude []string) bool {
	for _, pattern := range exclude {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return false
		}
		if matched, _ := doublestar.Match(pattern, filepath.Base(path)); matched {
			return false
		}
	}
	if len(include) == 0 {
		return true
	}
	for _, pattern := range include {
		if matched, _ := doublestar.Match(pattern, path); matched {
			return true
		}
		if matched, _ := doublestar.Match(pattern, filepath.Base(path)); matched {
			return true
		}
	}
	return false
}
