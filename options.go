package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/gruntwork-io/go-commons/files"
	"github.com/sirupsen/logrus"
	"github.com/ubolite/publish-extension/locate"
	"github.com/ubolite/publish-extension/secrets"
	"github.com/ubolite/publish-extension/source"
	"github.com/ubolite/publish-extension/xcode"
	"github.com/urfave/cli/v2"
)

type PublishOptions struct {
	GithubOwner   string
	GithubRepo    string
	GithubTag     string
	AssetName     string
	Platforms     []xcode.Platform
	Publish       string // "github" or empty
	NoCleanup     bool
	Checksums     map[string]bool
	ChecksumAlgo  string
	MinisignKey   string
	GithubToken   string
	GithubApiUrl  string
	SecretsFile   string
	RepoRoot      string
	WithProgress  bool
	Secrets       secrets.Secrets // Resolved from GithubToken, SecretsFile or the closest ubo_secrets file

	// Project logger
	Logger *logrus.Entry
}

const optionGithubOwner = "ghowner"
const optionGithubRepo = "ghrepo"
const optionGithubTag = "ghtag"
const optionAsset = "asset"
const optionIOS = "ios"
const optionMacOS = "macos"
const optionPublish = "publish"
const optionNoCleanup = "nocleanup"
const optionChecksum = "checksum"
const optionChecksumAlgo = "checksum-algo"
const optionMinisignKey = "minisign-key"
const optionGithubToken = "github-token"
const optionGithubApiUrl = "github-api-url"
const optionSecretsFile = "secrets-file"
const optionRepoRoot = "repo-root"
const optionWithProgress = "progress"
const optionLogLevel = "log-level"

const envVarGithubToken = "GITHUB_TOKEN"

// positionalOptions lists the options that may also be given as bare name=value arguments
var positionalOptions = map[string]bool{
	optionGithubOwner:  false,
	optionGithubRepo:   false,
	optionGithubTag:    false,
	optionAsset:        false,
	optionIOS:          true,
	optionMacOS:        true,
	optionPublish:      false,
	optionNoCleanup:    true,
	optionChecksum:     false,
	optionChecksumAlgo: false,
	optionMinisignKey:  false,
}

// parsePositionalArgs splits name=value arguments. A bare name sets a boolean option, and "name=" is kept as an
// explicitly empty value.
func parsePositionalArgs(args []string) (map[string]string, error) {
	values := map[string]string{}
	for _, arg := range args {
		name, value, hasValue := strings.Cut(arg, "=")
		isBool, known := positionalOptions[name]
		if !known {
			return nil, newError(invalidOption, fmt.Sprintf("Unknown argument %q. Run \"publish-extension --help\" for full usage info.", arg))
		}
		if !hasValue {
			if !isBool {
				return nil, newError(invalidOption, fmt.Sprintf("Argument %s needs a value, as in %s=...", name, name))
			}
			value = "true"
		}
		values[name] = value
	}
	return values, nil
}

func parseOptions(c *cli.Context, logger *logrus.Entry) (PublishOptions, error) {
	positional, err := parsePositionalArgs(c.Args().Slice())
	if err != nil {
		return PublishOptions{}, err
	}

	stringOption := func(name string) string {
		if value, ok := positional[name]; ok {
			return value
		}
		return c.String(name)
	}
	boolOption := func(name string) (bool, error) {
		value, ok := positional[name]
		if !ok {
			return c.Bool(name), nil
		}
		b, err := strconv.ParseBool(value)
		if err != nil {
			return false, newError(invalidOption, fmt.Sprintf("Invalid value %q for %s", value, name))
		}
		return b, nil
	}

	var platforms []xcode.Platform
	for _, platform := range xcode.Platforms {
		enabled, err := boolOption(string(platform))
		if err != nil {
			return PublishOptions{}, err
		}
		if enabled {
			platforms = append(platforms, platform)
		}
	}

	noCleanup, err := boolOption(optionNoCleanup)
	if err != nil {
		return PublishOptions{}, err
	}

	assetChecksums := c.StringSlice(optionChecksum)
	if value, ok := positional[optionChecksum]; ok {
		assetChecksums = strings.Split(value, ",")
	}
	assetChecksumMap := make(map[string]bool, len(assetChecksums))
	for _, assetChecksum := range assetChecksums {
		if assetChecksum = strings.ToLower(strings.TrimSpace(assetChecksum)); assetChecksum != "" {
			assetChecksumMap[assetChecksum] = true
		}
	}

	return PublishOptions{
		GithubOwner:  stringOption(optionGithubOwner),
		GithubRepo:   stringOption(optionGithubRepo),
		GithubTag:    stringOption(optionGithubTag),
		AssetName:    stringOption(optionAsset),
		Platforms:    platforms,
		Publish:      stringOption(optionPublish),
		NoCleanup:    noCleanup,
		Checksums:    assetChecksumMap,
		ChecksumAlgo: stringOption(optionChecksumAlgo),
		MinisignKey:  stringOption(optionMinisignKey),
		GithubToken:  c.String(optionGithubToken),
		GithubApiUrl: c.String(optionGithubApiUrl),
		SecretsFile:  c.String(optionSecretsFile),
		RepoRoot:     c.String(optionRepoRoot),
		WithProgress: c.Bool(optionWithProgress),
		Logger:       logger,
	}, nil
}

// resolveLocalInputs fills in the secrets and the local repo root, searching upward from the working directory
// for whatever was not given explicitly. Anything not found is left empty for validateOptions to report.
func resolveLocalInputs(options *PublishOptions, logger *logrus.Entry) error {
	var walker *locate.Walker
	getWalker := func() (*locate.Walker, error) {
		if walker != nil {
			return walker, nil
		}
		w, err := locate.NewWalker()
		if err != nil {
			return nil, wrapError(err)
		}
		walker = w
		return walker, nil
	}

	switch {
	case options.GithubToken != "":
		options.Secrets = secrets.FromToken(options.GithubToken)
	case options.SecretsFile != "":
		if !files.FileExists(options.SecretsFile) {
			logger.Warnf("Secrets file %s does not exist", options.SecretsFile)
			break
		}
		loaded, err := secrets.Load(osfs.New("/"), options.SecretsFile)
		if err != nil {
			return wrapErrorf(missingSecrets, err, "Failed to load %s", options.SecretsFile)
		}
		options.Secrets = loaded
	default:
		w, err := getWalker()
		if err != nil {
			return err
		}
		path, found, err := secrets.Locate(w)
		if err != nil {
			return wrapError(err)
		}
		if found {
			logger.Infof("Found secrets in %s", path)
			loaded, err := secrets.Load(w.FS, path)
			if err != nil {
				return wrapErrorf(missingSecrets, err, "Failed to load %s", path)
			}
			options.Secrets = loaded
		}
	}

	if options.RepoRoot != "" {
		if !files.IsDir(options.RepoRoot) {
			logger.Warnf("Repo root %s is not a directory", options.RepoRoot)
			options.RepoRoot = ""
		}
		return nil
	}

	w, err := getWalker()
	if err != nil {
		return err
	}
	root, found, err := w.FindRepoRoot()
	if err != nil {
		return wrapError(err)
	}
	if found {
		options.RepoRoot = root
	}
	return nil
}

// validateOptions reports the first missing precondition. The order and wording of the messages are part of
// the command's interface.
func validateOptions(options PublishOptions) error {
	if options.Secrets == nil {
		return newError(missingSecrets, "Need secrets")
	}

	if options.GithubOwner == "" {
		return newError(missingGithubOwner, "Need GitHub owner")
	}

	if options.GithubRepo == "" {
		return newError(missingGithubRepo, "Need GitHub repo")
	}

	if options.RepoRoot == "" {
		return newError(missingLocalRepoRoot, "Need local repo root")
	}

	if options.AssetName == "" {
		return newError(missingAsset, "Need asset=[...]")
	}

	if options.Publish != "" {
		if _, err := source.ParseSourceType(options.Publish); err != nil {
			return newError(invalidOption, fmt.Sprintf("Invalid %s value: %s. The only valid value is github", optionPublish, options.Publish))
		}
	}

	if len(options.Checksums) > 0 {
		if _, err := getHasher(options.ChecksumAlgo); err != nil {
			return newError(invalidOption, fmt.Sprintf("If the %s option is set, %s must be \"sha256\" or \"sha512\".", optionChecksum, optionChecksumAlgo))
		}
	}

	if options.MinisignKey != "" && !files.FileExists(options.MinisignKey) {
		return newError(invalidOption, fmt.Sprintf("The minisign public key %s does not exist", options.MinisignKey))
	}

	return nil
}
