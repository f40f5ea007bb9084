package errors

import (
	stderrors "errors"
	"fmt"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		err  *Error
		want string
	}{
		{Parse("a.java", "syntax error at line 3"), "parse error in a.java: syntax error at line 3"},
		{Analysis("node %d not found", 7), "analysis error: node 7 not found"},
		{Config("min_cluster_size must be >= 2"), "configuration error: min_cluster_size must be >= 2"},
		{PathNotFound("/nope"), "path not found: /nope"},
		{UnsupportedLanguage(".pl"), "unsupported language: .pl"},
		{IO("x.py", fs.ErrPermission), "io error: x.py: permission denied"},
		{Clustering("non-finite feature in row %d", 2), "clustering error: non-finite feature in row 2"},
	}

	for _, tt := range tests {
		t.Run(string(tt.err.Kind), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.err.Error())
		})
	}
}

func TestIsMatchesKind(t *testing.T) {
	wrapped := fmt.Errorf("analyzing: %w", Parse("a.rs", "bad"))

	assert.True(t, stderrors.Is(wrapped, ErrParse))
	assert.False(t, stderrors.Is(wrapped, ErrIO))
	assert.True(t, stderrors.Is(wrapped, &Error{Kind: KindParse, Path: "a.rs"}))
	assert.False(t, stderrors.Is(wrapped, &Error{Kind: KindParse, Path: "b.rs"}))
}

func TestUnwrap(t *testing.T) {
	err := IO("f.go", fs.ErrNotExist)
	assert.True(t, stderrors.Is(err, fs.ErrNotExist))
}

func TestKindOf(t *testing.T) {
	assert.Equal(t, KindConfig, KindOf(fmt.Errorf("load: %w", Config("bad"))))
	assert.Equal(t, Kind(""), KindOf(stderrors.New("plain")))
	assert.Equal(t, Kind(""), KindOf(nil))
}
