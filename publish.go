package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/gruntwork-io/go-commons/files"
	"github.com/sirupsen/logrus"
	"github.com/ubolite/publish-extension/locate"
	"github.com/ubolite/publish-extension/manifest"
	"github.com/ubolite/publish-extension/source"
	_ "github.com/ubolite/publish-extension/source/github" // Register GitHub source
	"github.com/ubolite/publish-extension/toolchain"
	"github.com/ubolite/publish-extension/xcode"
)

// Layout of the local uBlock repo, relative to its root
const (
	buildDirPath     = "dist/build/uBOLite.safari"
	patchScriptPath  = "platform/mv3/safari/patch-extension.js"
	xcodeDirPath     = "platform/mv3/safari/xcode"
	xcodeProjectName = "uBlock Origin Lite"
)

const tempDirPattern = "github-asset-"

const zipMimeType = "application/zip"

// Publisher runs one publish workflow. Its stages run strictly in order and the first failure aborts the run.
type Publisher struct {
	Options  PublishOptions
	Source   source.Source
	Runner   toolchain.Runner
	FS       billy.Filesystem // Filesystem for the manifest and the Xcode project
	Location *time.Location   // Location the manifest timestamp is read in, UTC when nil
	Logger   *logrus.Entry
}

// NewPublisher wires a Publisher to GitHub, the native filesystem and real subprocesses
func NewPublisher(options PublishOptions) (*Publisher, error) {
	logger := options.Logger
	if logger == nil {
		logger = logrus.NewEntry(GetProjectLogger())
	}

	src, err := source.NewSource(source.TypeGitHub, source.Config{
		ApiUrl: options.GithubApiUrl,
		Logger: logger,
	})
	if err != nil {
		return nil, fmt.Errorf("Failed to create source: %s", err)
	}
	logger.Debugf("Using %s release source at %s", src.Type(), options.GithubApiUrl)

	return &Publisher{
		Options: options,
		Source:  src,
		Runner:  toolchain.NewShellRunner(logger.Logger),
		FS:      osfs.New("/"),
		Logger:  logger,
	}, nil
}

// Run executes the workflow: fetch the asset, stage it into the build tree, build the requested platforms and
// publish the results.
func (p *Publisher) Run() (err error) {
	opts := p.Options
	logger := p.Logger
	repoRoot := opts.RepoRoot

	repo := p.Source.NewRepo(opts.GithubOwner, opts.GithubRepo, opts.Secrets.GithubToken())

	tag, err := resolveReleaseTag(p.Source, repo, opts.GithubTag)
	if err != nil {
		return err
	}

	asset, err := p.Source.FindReleaseAsset(repo, tag, opts.AssetName)
	if err != nil {
		return p.findError(err, tag, opts.AssetName)
	}

	logger.Infof("GitHub owner: \"%s\"", opts.GithubOwner)
	logger.Infof("GitHub repo: \"%s\"", opts.GithubRepo)
	logger.Infof("Release tag: \"%s\"", tag)
	logger.Infof("Release asset: \"%s\"", asset.Name)
	logger.Infof("Local repo root: \"%s\"", repoRoot)
	p.describeRepoRoot()

	tempDir, err := os.MkdirTemp("", tempDirPattern)
	if err != nil {
		return wrapError(err)
	}
	defer func() {
		if opts.NoCleanup {
			logger.Infof("Keeping %s", tempDir)
			return
		}
		logger.Infof("Removing %s", tempDir)
		if removeErr := os.RemoveAll(tempDir); removeErr != nil && err == nil {
			err = wrapErrorf(-1, removeErr, "Failed to delete temp directory at %s", tempDir)
		}
	}()

	// Fetch asset from GitHub repo
	assetPath := filepath.Join(tempDir, filepath.Base(asset.Name))
	if err := p.Source.DownloadReleaseAsset(repo, asset, assetPath, opts.WithProgress); err != nil {
		return withCode(githubError(err, fmt.Sprintf("download release asset %s", asset.Name)), failedToDownloadFile)
	}
	logger.Infof("Asset saved at %s", assetPath)

	if err := p.verifyAsset(repo, tag, asset, assetPath, tempDir); err != nil {
		return err
	}

	assetBaseName := strings.TrimSuffix(filepath.Base(asset.Name), filepath.Ext(asset.Name))
	unpackDir := filepath.Join(tempDir, assetBaseName)
	logger.Infof("Extracting files from %s to %s ...", assetPath, unpackDir)
	fileCount, err := toolchain.Unzip(assetPath, unpackDir)
	if err != nil {
		return wrapErrorf(failedToPrepareBuild, err, "Error extracting files")
	}
	plural := ""
	if fileCount != 1 {
		plural = "s"
	}
	logger.Infof("%d file%s extracted", fileCount, plural)

	// Copy files to local build directory
	buildDir := filepath.Join(repoRoot, filepath.FromSlash(buildDirPath))
	logger.Infof("Copy package files to \"%s\"", buildDir)
	if err := toolchain.ResetDir(buildDir); err != nil {
		return wrapErrorf(failedToPrepareBuild, err, "Failed to reset %s", buildDir)
	}
	if err := toolchain.CopyTree(unpackDir, buildDir); err != nil {
		return wrapErrorf(failedToPrepareBuild, err, "Failed to copy package files to %s", buildDir)
	}

	// Patch extension to pass validation in Apple Store
	logger.Info("Patch extension to pass validation in Apple Store")
	patchScript := filepath.Join(repoRoot, filepath.FromSlash(patchScriptPath))
	if !files.FileExists(patchScript) {
		return newError(failedToPrepareBuild, fmt.Sprintf("Missing %s", patchScript))
	}
	if err := p.run(toolchain.Command{
		Name:       "node",
		Args:       []string{patchScript, "packageDir=" + buildDir},
		WorkingDir: repoRoot,
	}); err != nil {
		return err
	}

	manifestPath := filepath.Join(buildDir, manifest.FileName)
	logger.Infof("Read manifest %s", manifestPath)
	m, err := manifest.Read(p.FS, manifestPath)
	if err != nil {
		return wrapErrorf(invalidManifest, err, "Failed to read manifest")
	}

	// Patch xcode version, build number
	project := xcode.Project{Dir: filepath.Join(repoRoot, filepath.FromSlash(xcodeDirPath)), Name: xcodeProjectName}
	logger.Info("Patch xcode project with manifest version")
	v, err := xcode.PatchProjectFile(p.FS, project.PbxprojPath(), m.Version, p.Location)
	if err != nil {
		return wrapErrorf(failedToPatchProject, err, "Failed to patch %s", project.PbxprojPath())
	}
	logger.Infof("CURRENT_PROJECT_VERSION = %s, MARKETING_VERSION = %s", v.ProjectVersion(), v.Marketing)

	var built []xcode.Platform
	for _, platform := range opts.Platforms {
		buildName := xcode.BuildName(m.Version, platform)
		logger.Infof("Building archive %s", buildName)
		archivePath := filepath.Join(tempDir, buildName+".xcarchive")
		if err := p.run(project.ArchiveCommand(platform, archivePath)); err != nil {
			return err
		}
		built = append(built, platform)
	}

	if opts.Publish != "" {
		if err := p.publish(repo, tag, asset, project, m.Version, built, tempDir); err != nil {
			return err
		}
	}

	logger.Info("Done")
	return nil
}

// verifyAsset checks the downloaded asset against the expected checksums and its minisign signature, when
// either was requested
func (p *Publisher) verifyAsset(repo source.Repo, tag string, asset source.ReleaseAsset, assetPath, tempDir string) error {
	opts := p.Options

	if len(opts.Checksums) > 0 {
		if err := verifyChecksumOfReleaseAsset(p.Logger, assetPath, opts.Checksums, opts.ChecksumAlgo); err != nil {
			return err
		}
	}

	if opts.MinisignKey == "" {
		return nil
	}

	sigName := asset.Name + signatureSuffix
	sigAsset, err := p.Source.FindReleaseAsset(repo, tag, sigName)
	if err != nil {
		return p.findError(err, tag, sigName)
	}
	sigPath := filepath.Join(tempDir, filepath.Base(sigAsset.Name))
	if err := p.Source.DownloadReleaseAsset(repo, sigAsset, sigPath, false); err != nil {
		return withCode(githubError(err, fmt.Sprintf("download release asset %s", sigAsset.Name)), failedToDownloadFile)
	}
	if err := verifyMinisignSignature(assetPath, sigPath, opts.MinisignKey); err != nil {
		return err
	}
	p.Logger.Infof("Release asset signature verified for %s", assetPath)
	return nil
}

// publish exports and zips every built archive, uploads the zips to the release and then removes the asset
// they were built from
func (p *Publisher) publish(repo source.Repo, tag string, sourceAsset source.ReleaseAsset, project xcode.Project, manifestVersion string, built []xcode.Platform, tempDir string) error {
	logger := p.Logger

	if len(built) == 0 {
		logger.Warnf("No platform was built, nothing to publish to %s", p.Options.Publish)
		return nil
	}

	for _, platform := range built {
		buildName := xcode.BuildName(manifestVersion, platform)
		archivePath := filepath.Join(tempDir, buildName+".xcarchive")
		exportPath := filepath.Join(tempDir, buildName)

		logger.Infof("Building app from %s.xcarchive", buildName)
		if err := p.run(project.ExportCommand(platform, archivePath, exportPath)); err != nil {
			return err
		}

		zipName := buildName + ".zip"
		if err := p.run(toolchain.ZipCommand(tempDir, zipName, buildName)); err != nil {
			return err
		}
		zipPath := filepath.Join(tempDir, zipName)

		info, err := os.Stat(zipPath)
		if err != nil {
			return wrapErrorf(failedToUploadFile, err, "Missing %s", zipPath)
		}
		checksum, err := computeChecksum(zipPath, "sha256")
		if err != nil {
			return newError(errorWhileComputingChecksum, err.Error())
		}
		logger.Infof("%s: %s, sha256 %s", zipName, humanize.Bytes(uint64(info.Size())), checksum)

		uploaded, err := p.Source.UploadReleaseAsset(repo, tag, zipPath, zipMimeType)
		if err != nil {
			return withCode(githubError(err, fmt.Sprintf("upload %s", zipName)), failedToUploadFile)
		}
		logger.Infof("Uploaded %s as asset %d", uploaded.Name, uploaded.Id)
	}

	logger.Infof("Remove %s from GitHub release %s", sourceAsset.Url, tag)
	if err := p.Source.DeleteReleaseAsset(repo, sourceAsset.Url); err != nil {
		return withCode(githubError(err, fmt.Sprintf("delete release asset %s", sourceAsset.Name)), failedToDeleteAsset)
	}
	return nil
}

// run executes cmd, turning a tool failure into a diagnostic
func (p *Publisher) run(cmd toolchain.Command) error {
	p.Logger.Debugf("Running %s", cmd)
	if err := p.Runner.Run(cmd); err != nil {
		return &publishError{errorCode: externalToolFailed, details: err.Error(), err: err}
	}
	return nil
}

// findError explains a failed asset lookup
func (p *Publisher) findError(err error, tag, assetName string) error {
	if errors.Is(err, source.ErrAssetNotFound) {
		return &publishError{errorCode: releaseOrAssetNotFound, details: fmt.Sprintf("No asset matching %q in release %s", assetName, tag), err: err}
	}
	return githubError(err, fmt.Sprintf("fetch release %s", tag))
}

// describeRepoRoot logs the checked out state of the local repo. Problems are only worth a warning.
func (p *Publisher) describeRepoRoot() {
	head, err := locate.DescribeHead(p.Options.RepoRoot)
	if err != nil {
		p.Logger.Warnf("Could not read the git state of %s: %s", p.Options.RepoRoot, err)
		return
	}
	p.Logger.Infof("Local repo head: %s", head)
	if !head.Clean {
		p.Logger.Warnf("%s has uncommitted changes, they will be part of the build", p.Options.RepoRoot)
	}
}

// withCode keeps the explanation of a GitHub failure but files it under errorCode when GitHub gave no
// actionable status
func withCode(err *publishError, errorCode int) *publishError {
	if err.errorCode == -1 {
		err.errorCode = errorCode
	}
	return err
}
