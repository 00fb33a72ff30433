package fetch

import (
	"errors"
	"strings"
)

// ErrEmptyURI is returned when parsing an empty URI.
var ErrEmptyURI = errors.New("empty plugin URI")

// Source is a parsed plugin URI: a repository plus an optional
// "#commit[:subdir]" fragment.
type Source struct {
	Repository string
	Commit     string
	Subdir     string
}

// ParseURI splits raw into repository and fragment. The fragment is split
// at the first colon; either part may be empty.
func ParseURI(raw string) (Source, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Source{}, ErrEmptyURI
	}
	repo, fragment, _ := strings.Cut(raw, "#")
	if repo == "" {
		return Source{}, ErrEmptyURI
	}
	commit, subdir, _ := strings.Cut(fragment, ":")
	return Source{Repository: repo, Commit: commit, Subdir: subdir}, nil
}

// String renders the source back into URI form.
func (s Source) String() string {
	return s.Repository + fragment(s.Commit, s.Subdir)
}

// DependencyURI builds the URI a <dependency> resolves to: ".git" is
// appended to url when absent and commit/subdir become the fragment.
func DependencyURI(url, commit, subdir string) string {
	url = strings.TrimSuffix(strings.TrimSpace(url), "/")
	if !strings.HasSuffix(url, ".git") {
		url += ".git"
	}
	return url + fragment(commit, subdir)
}

func fragment(commit, subdir string) string {
	switch {
	case commit == "" && subdir == "":
		return ""
	case subdir == "":
		return "#" + commit
	default:
		return "#" + commit + ":" + subdir
	}
}

// IsRemote reports whether raw names a repository rather than a local folder.
func IsRemote(raw string) bool {
	for _, prefix := range []string{"https://", "http://", "git://", "ssh://", "file://", "git@"} {
		if strings.HasPrefix(raw, prefix) {
			return true
		}
	}
	repo, _, _ := strings.Cut(raw, "#")
	return strings.HasSuffix(repo, ".git")
}
