package main

import (
	"errors"
	"fmt"

	"github.com/ubolite/publish-extension/source/github"
)

// We define a custom error type so that we can provide friendlier error messages
type publishError struct {
	errorCode int    // an error code is an arbitrary int that allows for strongly typed identification of specific errors
	details   string // the message shown to the user
	err       error  // the underlying golang error, if any
}

// Implement the golang Error interface. The message is printed as-is, it is the one-line diagnostic of the run.
func (e *publishError) Error() string {
	return e.details
}

func (e *publishError) Unwrap() error {
	return e.err
}

func newError(errorCode int, details string) *publishError {
	return &publishError{
		errorCode: errorCode,
		details:   details,
		err:       nil,
	}
}

func wrapError(err error) *publishError {
	return &publishError{
		errorCode: -1,
		details:   err.Error(),
		err:       err,
	}
}

// wrapErrorf wraps err under errorCode, prefixing its message
func wrapErrorf(errorCode int, err error, format string, args ...interface{}) *publishError {
	return &publishError{
		errorCode: errorCode,
		details:   fmt.Sprintf("%s: %s", fmt.Sprintf(format, args...), err),
		err:       err,
	}
}

// errorCodeOf returns the code of the first publishError in err's chain, or -1
func errorCodeOf(err error) int {
	var pubErr *publishError
	if errors.As(err, &pubErr) {
		return pubErr.errorCode
	}
	return -1
}

// exitCodeFor maps the outcome of a run to the process exit status
func exitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	return 1
}

// githubError turns a failed GitHub call into a publishError, with a longer explanation for the statuses users
// can act on
func githubError(err error, action string) *publishError {
	var httpErr *github.HttpError
	if errors.As(err, &httpErr) {
		switch httpErr.StatusCode {
		case 401, 403:
			return &publishError{errorCode: invalidGithubTokenOrAccessDenied, details: getErrorMessage(invalidGithubTokenOrAccessDenied, action, err.Error()), err: err}
		case 404:
			return &publishError{errorCode: releaseOrAssetNotFound, details: getErrorMessage(releaseOrAssetNotFound, action, err.Error()), err: err}
		}
	}
	return wrapErrorf(-1, err, "Failed to %s", action)
}

func getErrorMessage(errorCode int, action string, errorDetails string) string {
	switch errorCode {
	case invalidTagConstraintExpression:
		return fmt.Sprintf(`The ghtag value you entered is not a valid tag or constraint expression.

Underlying error message:
%s`, errorDetails)
	case invalidGithubTokenOrAccessDenied:
		return fmt.Sprintf(`Received an HTTP 401 or 403 Response when attempting to %s.

This means that either the github_token of your secrets is invalid, or that the token is valid but lacks access
to the repo or the permission to change its releases.

Underlying error message:
%s`, action, errorDetails)
	case releaseOrAssetNotFound:
		return fmt.Sprintf(`Received an HTTP 404 Response when attempting to %s.

This means that either the GitHub owner, repo or tag is wrong, or that you don't have permission to access it.

Underlying error message:
%s`, action, errorDetails)
	}

	return errorDetails
}
