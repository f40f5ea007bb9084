// Package remote clones a git repository named on the command line so it
// can be analyzed like a local directory.
package remote

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"

	deierrors "github.com/panbanda/dei/pkg/errors"
)

// Source represents a remote repository to analyze.
type Source struct {
	URL      string // normalized git URL
	Ref      string // branch or tag (empty = default branch)
	CloneDir string // temp directory after clone
}

// String renders the source as url@ref.
func (s *Source) String() string {
	if s.Ref == "" {
		return s.URL
	}
	return s.URL + "@" + s.Ref
}

// Parse detects if a path is a remote reference. It returns nil for paths
// that exist locally and for anything that does not look like a repository.
func Parse(path string) (*Source, error) {
	if _, err := os.Stat(path); err == nil {
		return nil, nil
	}

	// path@ref, but not the user part of git@host:owner/repo
	ref := ""
	if idx := strings.LastIndex(path, "@"); idx > 0 && !strings.Contains(path[idx:], ":") {
		ref = path[idx+1:]
		path = path[:idx]
		if ref == "" {
			return nil, deierrors.Config("empty ref in %q", path+"@")
		}
	}

	switch {
	case strings.HasPrefix(path, "https://"), strings.HasPrefix(path, "http://"),
		strings.HasPrefix(path, "ssh://"), strings.HasPrefix(path, "git@"):
		return &Source{URL: path, Ref: ref}, nil
	case isHostPath(path):
		return &Source{URL: "https://" + path, Ref: ref}, nil
	case isGitHubShorthand(path):
		return &Source{URL: "https://github.com/" + path, Ref: ref}, nil
	default:
		return nil, nil
	}
}

// isHostPath matches host.tld/owner/repo.
func isHostPath(path string) bool {
	parts := strings.Split(path, "/")
	host := parts[0]
	if len(parts) < 3 || strings.HasPrefix(host, ".") || !strings.Contains(host, ".") {
		return false
	}
	for _, p := range parts[1:] {
		if p == "" {
			return false
		}
	}
	return true
}

// isGitHubShorthand returns true if path matches owner/repo pattern.
func isGitHubShorthand(path string) bool {
	slashIdx := strings.Index(path, "/")
	if slashIdx == -1 || strings.Count(path, "/") != 1 {
		return false
	}
	// A dot before the slash would indicate a domain or a relative path.
	if strings.Contains(path[:slashIdx], ".") {
		return false
	}
	return slashIdx > 0 && slashIdx < len(path)-1
}

// Clone clones the repository into a fresh temp directory, checking out Ref
// when set. Clone progress goes to progress. On failure nothing is left on
// disk.
func (s *Source) Clone(ctx context.Context, progress io.Writer, shallow bool) error {
	dir, err := os.MkdirTemp("", "dei-remote-*")
	if err != nil {
		return deierrors.IO(os.TempDir(), err)
	}

	opts := &git.CloneOptions{
		URL:          s.URL,
		Progress:     progress,
		SingleBranch: s.Ref != "",
		Tags:         git.NoTags,
	}
	if shallow {
		opts.Depth = 1
	}

	var cloneErr error
	for _, name := range candidateRefs(s.Ref) {
		opts.ReferenceName = name
		if _, cloneErr = git.PlainCloneContext(ctx, dir, false, opts); cloneErr == nil {
			break
		}
		if !errors.Is(cloneErr, plumbing.ErrReferenceNotFound) && !isNoMatchingRef(cloneErr) {
			break
		}
		// Clear the partial clone before trying the next reference kind.
		if err := resetDir(dir); err != nil {
			cloneErr = err
			break
		}
	}
	if cloneErr != nil {
		os.RemoveAll(dir)
		return fmt.Errorf("cloning %s: %w", s, cloneErr)
	}

	s.CloneDir = dir
	return nil
}

// candidateRefs lists what ref may name: the default branch when empty,
// otherwise a branch then a tag.
func candidateRefs(ref string) []plumbing.ReferenceName {
	if ref == "" {
		return []plumbing.ReferenceName{""}
	}
	return []plumbing.ReferenceName{
		plumbing.NewBranchReferenceName(ref),
		plumbing.NewTagReferenceName(ref),
	}
}

func isNoMatchingRef(err error) bool {
	var noMatch git.NoMatchingRefSpecError
	return errors.As(err, &noMatch)
}

func resetDir(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return deierrors.IO(dir, err)
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return deierrors.IO(dir, err)
	}
	return nil
}

// Cleanup removes the clone directory.
func (s *Source) Cleanup() error {
	if s.CloneDir == "" {
		return nil
	}
	err := os.RemoveAll(s.CloneDir)
	s.CloneDir = ""
	return err
}
