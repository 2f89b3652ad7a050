// Package toolchain runs the external programs the publisher drives (node, xcodebuild, zip) and handles the
// archive and directory plumbing between them.
package toolchain

import (
	"fmt"
	"strings"

	"github.com/gruntwork-io/go-commons/errors"
	"github.com/gruntwork-io/go-commons/shell"
	"github.com/sirupsen/logrus"
)

// Command is a single program invocation. Arguments are passed as-is, never through a shell.
type Command struct {
	Name       string
	Args       []string
	WorkingDir string
}

func (c Command) String() string {
	parts := []string{c.Name}
	for _, arg := range c.Args {
		if strings.ContainsAny(arg, " '\"()") {
			arg = fmt.Sprintf("%q", arg)
		}
		parts = append(parts, arg)
	}
	return strings.Join(parts, " ")
}

// Runner executes commands, blocking until each one exits
type Runner interface {
	Run(cmd Command) error
}

// ShellRunner runs commands with go-commons shell, streaming their output to the logger
type ShellRunner struct {
	Logger *logrus.Logger
}

// NewShellRunner creates a ShellRunner logging to logger
func NewShellRunner(logger *logrus.Logger) *ShellRunner {
	return &ShellRunner{Logger: logger}
}

// Run executes cmd. A non-zero exit status is returned as an error carrying a stack trace.
func (r *ShellRunner) Run(cmd Command) error {
	options := shell.NewShellOptions()
	if r.Logger != nil {
		options.Logger = r.Logger
	}
	if cmd.WorkingDir != "" {
		options.WorkingDir = cmd.WorkingDir
	}

	if err := shell.RunShellCommand(options, cmd.Name, cmd.Args...); err != nil {
		return errors.WithStackTrace(fmt.Errorf("%s failed: %w", cmd.Name, err))
	}
	return nil
}
