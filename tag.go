package main

import (
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/ubolite/publish-extension/source"
)

var constraintOperators = []string{"~>", ">=", "<=", "!=", ">", "<", "="}

// isTagConstraintSpecificTag reports whether the ghtag value names a release directly rather than through a
// version constraint. uBO Lite tags are not semver, so anything that is not a constraint expression is a tag.
func isTagConstraintSpecificTag(tagConstraint string) (bool, string) {
	trimmed := strings.TrimSpace(tagConstraint)
	if trimmed == "" {
		return false, ""
	}
	for _, op := range constraintOperators {
		if strings.HasPrefix(trimmed, op) {
			return false, ""
		}
	}
	return true, trimmed
}

// getLatestAcceptableTag picks the highest semver tag satisfying tagConstraint, or the highest tag overall when
// the constraint is empty. Tags that are not versions are ignored.
func getLatestAcceptableTag(tagConstraint string, tags []string) (string, error) {
	if len(tags) == 0 {
		return "", nil
	}

	// Our use of the library go-version means that each tag will each be represented as a *version.Version
	versions := make([]*version.Version, 0, len(tags))
	originalNames := map[*version.Version]string{}
	for _, tag := range tags {
		v, err := version.NewVersion(tag)
		if err != nil {
			continue
		}
		versions = append(versions, v)
		originalNames[v] = tag
	}
	sort.Sort(version.Collection(versions))

	if len(versions) == 0 {
		return "", nil
	}

	// If the tag constraint is empty, just return the latest
	if tagConstraint == "" {
		return originalNames[versions[len(versions)-1]], nil
	}

	constraints, err := version.NewConstraint(tagConstraint)
	if err != nil {
		return "", newError(invalidTagConstraintExpression, getErrorMessage(invalidTagConstraintExpression, "", err.Error()))
	}

	// Walk from the highest version down. The tag name may have started with a "v", so map back to the original.
	for i := len(versions) - 1; i >= 0; i-- {
		if constraints.Check(versions[i]) {
			return originalNames[versions[i]], nil
		}
	}

	return "", nil
}

// resolveReleaseTag turns the ghtag option into the tag of an existing release
func resolveReleaseTag(src source.Source, repo source.Repo, tagConstraint string) (string, error) {
	if specific, tag := isTagConstraintSpecificTag(tagConstraint); specific {
		return tag, nil
	}

	tags, err := src.FetchTags(repo)
	if err != nil {
		return "", githubError(err, "list the tags of the repo")
	}

	tag, err := getLatestAcceptableTag(strings.TrimSpace(tagConstraint), tags)
	if err != nil {
		return "", err
	}
	if tag == "" {
		if tagConstraint == "" {
			return "", newError(noMatchingTag, fmt.Sprintf("No ghtag given and %s/%s has no version tags", repo.Owner, repo.Name))
		}
		return "", newError(noMatchingTag, fmt.Sprintf("No tag of %s/%s satisfies %q", repo.Owner, repo.Name, tagConstraint))
	}
	return tag, nil
}
