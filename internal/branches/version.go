// Package branches classifies maintenance branch names by the dotted version
// token embedded in them.
package branches

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// versionRegex matches the first dotted numeric token of two or three
// components, e.g. "3.12" or "1.5.2". Surrounding text is ignored, so
// "stable-3.12", "3.12-lts" and "lts-3.12-final" all yield "3.12".
var versionRegex = regexp.MustCompile(`\d+\.\d+(?:\.\d+)?`)

// Version is a parsed dotted version token from a branch name.
type Version struct {
	// Components holds the two or three integer parts, most significant first.
	Components []int
	// Raw is the exact matched substring, kept for building derived names.
	Raw string
}

// String returns the version as it appeared in the branch name.
func (v Version) String() string {
	return v.Raw
}

// Descriptor describes a target branch name.
type Descriptor struct {
	// Name is the raw branch name.
	Name string
	// Version is the extracted version token, or nil when the branch name
	// carries no version-like substring.
	Version *Version
	// Valid is false only when the caller requires a version token and none
	// was found.
	Valid bool
}

// ExtractVersion returns the first dotted numeric substring of the branch
// name, scanning left to right. When a branch contains several numeric
// substrings only the first is used; "2023-3.12" extracts "3.12" because
// "2023" alone is not a dotted token.
func ExtractVersion(branchName string) (Version, bool) {
	match := versionRegex.FindString(branchName)
	if match == "" {
		return Version{}, false
	}

	parts := strings.Split(match, ".")
	components := make([]int, 0, len(parts))
	for _, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil {
			return Version{}, false
		}
		components = append(components, n)
	}

	return Version{Components: components, Raw: match}, true
}

// Describe builds a Descriptor for a branch name. requireVersion applies the
// configured policy: when set, a branch without a version token is invalid;
// otherwise it merely disables version-specific behavior.
func Describe(branchName string, requireVersion bool) Descriptor {
	d := Descriptor{Name: branchName, Valid: true}

	v, ok := ExtractVersion(branchName)
	if ok {
		d.Version = &v
		return d
	}

	if requireVersion {
		d.Valid = false
	}
	return d
}

// SortByVersion orders branch names with versioned branches first, newest
// version first, and unversioned branches after, alphabetically. The input
// slice is not modified.
func SortByVersion(branchNames []string) []string {
	sorted := make([]string, len(branchNames))
	copy(sorted, branchNames)

	sort.SliceStable(sorted, func(i, j int) bool {
		vi, oki := ExtractVersion(sorted[i])
		vj, okj := ExtractVersion(sorted[j])
		if oki != okj {
			return oki
		}
		if !oki {
			return sorted[i] < sorted[j]
		}
		return compareVersions(vi, vj) > 0
	})

	return sorted
}

func compareVersions(a, b Version) int {
	for i := 0; i < len(a.Components) && i < len(b.Components); i++ {
		if a.Components[i] != b.Components[i] {
			if a.Components[i] > b.Components[i] {
				return 1
			}
			return -1
		}
	}
	switch {
	case len(a.Components) > len(b.Components):
		return 1
	case len(a.Components) < len(b.Components):
		return -1
	}
	return 0
}
