package main

import (
	"fmt"
	"io"
	"os"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/gruntwork-io/go-commons/logging"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

// This variable is set at build time using -ldflags parameters. For more info, see:
// http://stackoverflow.com/a/11355611/483528
var VERSION string

// Create the publish-extension CLI App
func CreatePublishCli(version string, writer io.Writer, errwriter io.Writer) *cli.App {
	app := &cli.App{
		Name:  "publish-extension",
		Usage: "publish-extension turns a packaged uBO Lite release asset into Safari builds for iOS and macOS, and optionally republishes them to the GitHub release.",
		UsageText: "publish-extension [global options] ghowner=<owner> ghrepo=<repo> ghtag=<tag> asset=<name> [ios] [macos] [publish=github] [nocleanup]\n" +
			"   Positional name=value arguments take precedence over the equivalent --flags.",
		Authors:   []*cli.Author{{Name: "uBO Lite maintainers"}},
		Version:   version,
		Writer:    writer,
		ErrWriter: errwriter,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  optionGithubOwner,
				Usage: "The account owning the GitHub repo that holds the release.",
			},
			&cli.StringFlag{
				Name:  optionGithubRepo,
				Usage: "The name of the GitHub repo that holds the release.",
			},
			&cli.StringFlag{
				Name:  optionGithubTag,
				Usage: "The tag of the release. Version constraints such as \"~> 1.2\" are resolved against the repo's tags;\n\tif left blank, the latest version tag is used.",
			},
			&cli.StringFlag{
				Name:  optionAsset,
				Usage: "Required. A substring of the name of the release asset to build from. The first matching asset is used.",
			},
			&cli.BoolFlag{
				Name:  optionIOS,
				Usage: "Build the iOS archive.",
			},
			&cli.BoolFlag{
				Name:  optionMacOS,
				Usage: "Build the macOS archive.",
			},
			&cli.StringFlag{
				Name:  optionPublish,
				Usage: "Where to publish the exported builds. Only \"github\" is supported; if left blank, nothing is published.",
			},
			&cli.BoolFlag{
				Name:  optionNoCleanup,
				Usage: "Keep the temporary directory holding the downloaded asset and the build outputs.",
			},
			&cli.StringSliceFlag{
				Name:  optionChecksum,
				Usage: "The checksum that the release asset should have. Can be specified more than once;\n\tthe asset's checksum must match one.",
			},
			&cli.StringFlag{
				Name:  optionChecksumAlgo,
				Value: "sha256",
				Usage: "The algorithm used to compute the checksum of the release asset. Acceptable values\n\tare \"sha256\" and \"sha512\".",
			},
			&cli.StringFlag{
				Name:  optionMinisignKey,
				Usage: "Path to a minisign public key. When set, the asset must carry a valid <asset>.minisig signature in the release.",
			},
			&cli.StringFlag{
				Name:    optionGithubToken,
				Usage:   "A GitHub token used instead of the github_token of the ubo_secrets file.",
				EnvVars: []string{envVarGithubToken},
			},
			&cli.StringFlag{
				Name:  optionGithubApiUrl,
				Value: "https://api.github.com",
				Usage: "The base URL of the GitHub API, for GitHub Enterprise instances.",
			},
			&cli.StringFlag{
				Name:  optionSecretsFile,
				Usage: "Path of the secrets file. If left blank, the closest ubo_secrets file above the working directory is used.",
			},
			&cli.StringFlag{
				Name:  optionRepoRoot,
				Usage: "Root of the local uBlock repo. If left blank, the closest directory above the working directory holding .git is used.",
			},
			&cli.BoolFlag{
				Name:  optionWithProgress,
				Usage: "Display progress on asset downloads",
			},
			&cli.StringFlag{
				Name:  optionLogLevel,
				Value: DEFAULT_LOG_LEVEL.String(),
				Usage: "The logging level of the command. Acceptable values\n\tare \"trace\", \"debug\", \"info\", \"warn\", \"error\", \"fatal\" and \"panic\".",
			},
		},
		Before: initLogger,
		Action: runPublishWrapper,
	}

	return app
}

func main() {
	app := CreatePublishCli(VERSION, os.Stdout, os.Stderr)

	// Run the definition of App.Action
	err := app.Run(os.Args)
	if err != nil {
		logger := GetProjectLogger()
		logger.Error(err.Error())
		logger.Debug(errors.PrintErrorWithStackTrace(err))
	}
	os.Exit(exitCodeFor(err))
}

// initLogger initializes the Logger before any command is actually executed. This function will handle all the setup
// code, such as setting up the logger with the appropriate log level.
func initLogger(cliContext *cli.Context) error {
	// Set logging level
	logLevel := cliContext.String(optionLogLevel)
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return fmt.Errorf("Error: %s", err)
	}
	logging.SetGlobalLogLevel(level)
	return nil
}

// runPublishWrapper hands the CLI context to runPublish with the project logger
func runPublishWrapper(c *cli.Context) error {
	logger := logrus.NewEntry(GetProjectLoggerWithWriter(c.App.ErrWriter))
	return runPublish(c, logger)
}

// Run the publish-extension program
func runPublish(c *cli.Context, logger *logrus.Entry) error {
	options, err := parseOptions(c, logger)
	if err != nil {
		return err
	}

	if err := resolveLocalInputs(&options, logger); err != nil {
		return err
	}

	if err := validateOptions(options); err != nil {
		return err
	}

	publisher, err := NewPublisher(options)
	if err != nil {
		return err
	}
	return publisher.Run()
}
