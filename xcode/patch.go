package xcode

import (
	"fmt"
	"regexp"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
)

var (
	projectVersionRegex   = regexp.MustCompile(`\bCURRENT_PROJECT_VERSION = [^;]*;`)
	marketingVersionRegex = regexp.MustCompile(`\bMARKETING_VERSION = [^;]*;`)
)

// PatchProjectVersion replaces every CURRENT_PROJECT_VERSION assignment in a project.pbxproj
func PatchProjectVersion(v Version, text string) string {
	return projectVersionRegex.ReplaceAllLiteralString(text, fmt.Sprintf("CURRENT_PROJECT_VERSION = %s;", v.ProjectVersion()))
}

// PatchMarketingVersion replaces every MARKETING_VERSION assignment in a project.pbxproj
func PatchMarketingVersion(v Version, text string) string {
	return marketingVersionRegex.ReplaceAllLiteralString(text, fmt.Sprintf("MARKETING_VERSION = %s;", v.Marketing))
}

// PatchProject derives the versions for manifestVersion and applies both substitutions to text
func PatchProject(manifestVersion string, loc *time.Location, text string) (string, Version, error) {
	v, err := DeriveVersion(manifestVersion, loc)
	if err != nil {
		return text, v, err
	}
	text = PatchMarketingVersion(v, text)
	text = PatchProjectVersion(v, text)
	return text, v, nil
}

// PatchProjectFile rewrites the project.pbxproj at path in place
func PatchProjectFile(fs billy.Filesystem, path, manifestVersion string, loc *time.Location) (Version, error) {
	info, err := fs.Stat(path)
	if err != nil {
		return Version{}, err
	}

	data, err := util.ReadFile(fs, path)
	if err != nil {
		return Version{}, err
	}

	text, v, err := PatchProject(manifestVersion, loc, string(data))
	if err != nil {
		return v, err
	}

	if err := util.WriteFile(fs, path, []byte(text), info.Mode().Perm()); err != nil {
		return v, err
	}
	return v, nil
}
