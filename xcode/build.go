package xcode

import (
	"fmt"
	"path/filepath"

	"github.com/ubolite/publish-extension/toolchain"
)

// Platform is an Apple platform the extension is built for
type Platform string

const (
	IOS   Platform = "ios"
	MacOS Platform = "macos"
)

// Platforms lists every supported platform in build order
var Platforms = []Platform{IOS, MacOS}

// SDKName returns the platform name as xcodebuild spells it
func (p Platform) SDKName() string {
	switch p {
	case IOS:
		return "iOS"
	case MacOS:
		return "macOS"
	default:
		return string(p)
	}
}

// Destination returns the generic build destination for the platform
func (p Platform) Destination() string {
	return fmt.Sprintf("generic/platform=%s", p.SDKName())
}

// BuildNamePrefix is the prefix shared by every build output name
const BuildNamePrefix = "uBOLite"

// BuildName names the outputs of a build, e.g. uBOLite_2025.906.1247.macos
func BuildName(manifestVersion string, platform Platform) string {
	return fmt.Sprintf("%s_%s.%s", BuildNamePrefix, manifestVersion, platform)
}

// Project locates an Xcode project and its export options
type Project struct {
	Dir  string // Directory holding the .xcodeproj and the export options plists
	Name string // Project name without extension
}

// ProjectPath returns the .xcodeproj bundle path
func (p Project) ProjectPath() string {
	return filepath.Join(p.Dir, p.Name+".xcodeproj")
}

// PbxprojPath returns the project descriptor carrying the version fields
func (p Project) PbxprojPath() string {
	return filepath.Join(p.ProjectPath(), "project.pbxproj")
}

// Scheme returns the scheme building the given platform
func (p Project) Scheme(platform Platform) string {
	return fmt.Sprintf("%s (%s)", p.Name, platform.SDKName())
}

// ExportOptionsPath returns the ad hoc export options for the platform
func (p Project) ExportOptionsPath(platform Platform) string {
	return filepath.Join(p.Dir, fmt.Sprintf("exportOptionsAdHoc.%s.plist", platform))
}

// ArchiveCommand cleans and archives a release build of the platform into archivePath
func (p Project) ArchiveCommand(platform Platform, archivePath string) toolchain.Command {
	return toolchain.Command{
		Name: "xcodebuild",
		Args: []string{
			"clean", "archive",
			"-configuration", "release",
			"-destination", platform.Destination(),
			"-project", p.ProjectPath(),
			"-scheme", p.Scheme(platform),
			"-archivePath", archivePath,
		},
	}
}

// ExportCommand exports the app from an archive into exportPath
func (p Project) ExportCommand(platform Platform, archivePath, exportPath string) toolchain.Command {
	return toolchain.Command{
		Name: "xcodebuild",
		Args: []string{
			"-exportArchive",
			"-archivePath", archivePath,
			"-exportPath", exportPath,
			"-exportOptionsPlist", p.ExportOptionsPath(platform),
		},
	}
}
