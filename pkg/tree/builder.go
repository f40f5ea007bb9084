package tree

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/panbanda/dei/pkg/config"
	deierrors "github.com/panbanda/dei/pkg/errors"
)

// Builder populates a Store from the filesystem, one directory at a time.
type Builder struct {
	store      *Store
	ignoreDirs map[string]struct{}
	patterns   []string
	gitignore  bool
	logger     *slog.Logger

	// set per Build
	absRoot string
	gitBase string
	matcher gitignore.Matcher
}

// BuilderOption configures a Builder.
type BuilderOption func(*Builder)

// WithIgnoreDirs replaces the directory names skipped wherever they appear.
func WithIgnoreDirs(names []string) BuilderOption {
	return func(b *Builder) {
		b.ignoreDirs = make(map[string]struct{}, len(names))
		for _, n := range names {
			b.ignoreDirs[n] = struct{}{}
		}
	}
}

// WithExcludePatterns adds doublestar globs matched against root-relative
// slash paths and base names.
func WithExcludePatterns(patterns []string) BuilderOption {
	return func(b *Builder) {
		b.patterns = append(b.patterns, patterns...)
	}
}

// WithGitignore toggles .gitignore support.
func WithGitignore(enabled bool) BuilderOption {
	return func(b *Builder) {
		b.gitignore = enabled
	}
}

// WithBuilderLogger sets the logger for skipped entries.
func WithBuilderLogger(l *slog.Logger) BuilderOption {
	return func(b *Builder) {
		b.logger = l
	}
}

// NewBuilder creates a builder writing into store.
func NewBuilder(store *Store, opts ...BuilderOption) *Builder {
	b := &Builder{
		store:     store,
		gitignore: true,
		logger:    slog.New(slog.DiscardHandler),
	}
	WithIgnoreDirs(config.DefaultIgnoreDirs)(b)
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build adds the tree rooted at root and returns the root handle. A file
// root yields a single file node.
func (b *Builder) Build(root string) (NodeID, error) {
	info, err := os.Stat(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return NoParent, deierrors.PathNotFound(root)
		}
		return NoParent, deierrors.IO(root, err)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return NoParent, deierrors.IO(root, err)
	}
	if resolved, err := filepath.EvalSymlinks(absRoot); err == nil {
		absRoot = resolved
	}
	b.absRoot = absRoot

	if !info.IsDir() {
		return b.store.Allocate(Node{
			Kind:   File,
			Path:   root,
			Name:   filepath.Base(root),
			Parent: NoParent,
		}), nil
	}

	b.loadGitignore(absRoot)
	return b.buildDir(root, "", 0, NoParent)
}

func (b *Builder) buildDir(path, rel string, depth int, parent NodeID) (NodeID, error) {
	id := b.store.Allocate(Node{
		Kind:   Directory,
		Path:   path,
		Name:   filepath.Base(path),
		Depth:  depth,
		Parent: parent,
	})

	entries, err := os.ReadDir(path)
	if err != nil {
		return id, deierrors.IO(path, err)
	}

	children := make([]NodeID, 0, len(entries))
	for _, e := range entries {
		childPath := filepath.Join(path, e.Name())
		childRel := e.Name()
		if rel != "" {
			childRel = rel + "/" + e.Name()
		}

		if e.Type()&fs.ModeSymlink != 0 {
			// Linked directories are not followed; linked files must stay inside the root.
			resolved, err := filepath.EvalSymlinks(childPath)
			if err != nil || !isWithinRoot(resolved, b.absRoot) {
				b.logger.Debug("skipping symlink", "path", childPath)
				continue
			}
			if st, err := os.Stat(resolved); err != nil || st.IsDir() {
				continue
			}
		}

		isDir := e.IsDir()
		if b.ignored(childRel, e.Name(), isDir) {
			b.logger.Debug("ignoring", "path", childPath)
			continue
		}

		if isDir {
			childID, err := b.buildDir(childPath, childRel, depth+1, id)
			if err != nil {
				return id, err
			}
			children = append(children, childID)
			continue
		}

		children = append(children, b.store.Allocate(Node{
			Kind:   File,
			Path:   childPath,
			Name:   e.Name(),
			Depth:  depth + 1,
			Parent: id,
		}))
	}

	node, _ := b.store.Get(id)
	node.Children = children
	b.store.Update(id, node)
	return id, nil
}

// loadGitignore reads the .gitignore files that apply to root: those in
// the directories between the enclosing git repository and root, and every
// one below root. Without a repository only root's own tree is read.
func (b *Builder) loadGitignore(root string) {
	b.matcher = nil
	b.gitBase = root
	if !b.gitignore {
		return
	}
	if gitRoot := findGitRoot(root); gitRoot != "" {
		b.gitBase = gitRoot
	}

	patterns, err := gitignorePatterns(b.gitBase, root)
	if err != nil {
		b.logger.Debug("reading .gitignore", "root", root, "error", err)
		return
	}
	if len(patterns) > 0 {
		b.matcher = gitignore.NewMatcher(patterns)
	}
}

// gitignorePatterns collects patterns from the ancestors of root up to base,
// then walks root's subtree. Directories beside root are never read.
func gitignorePatterns(base, root string) ([]gitignore.Pattern, error) {
	rel, err := filepath.Rel(base, root)
	if err != nil {
		return nil, err
	}
	var domain []string
	if rel != "." {
		domain = strings.Split(filepath.ToSlash(rel), "/")
	}

	var patterns []gitignore.Pattern
	for i := range domain {
		ps, err := readIgnoreFile(filepath.Join(base, filepath.Join(domain[:i]...)), domain[:i])
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, ps...)
	}

	below, err := gitignore.ReadPatterns(osfs.New(base), domain)
	if err != nil {
		return nil, err
	}
	return append(patterns, below...), nil
}

// readIgnoreFile parses dir/.gitignore with patterns scoped to domain. A
// missing file yields no patterns.
func readIgnoreFile(dir string, domain []string) ([]gitignore.Pattern, error) {
	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	var patterns []gitignore.Pattern
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "#") {
			continue
		}
		patterns = append(patterns, gitignore.ParsePattern(line, domain))
	}
	return patterns, nil
}

func (b *Builder) ignored(rel, name string, isDir bool) bool {
	if isDir {
		if _, ok := b.ignoreDirs[name]; ok {
			return true
		}
	}

	for _, p := range b.patterns {
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}

	if b.matcher != nil {
		full := filepath.Join(b.absRoot, filepath.FromSlash(rel))
		gitRel, err := filepath.Rel(b.gitBase, full)
		if err == nil && b.matcher.Match(strings.Split(filepath.ToSlash(gitRel), "/"), isDir) {
			return true
		}
	}
	return false
}

// findGitRoot walks up from start looking for a .git directory.
func findGitRoot(start string) string {
	dir := start
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// isWithinRoot reports whether path is root or lies beneath it.
func isWithinRoot(path, root string) bool {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return false
	}
	absPath = filepath.Clean(absPath)
	root = filepath.Clean(root)
	return absPath == root || strings.HasPrefix(absPath, root+string(filepath.Separator))
}
