package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/ubolite/publish-extension/source/github"
)

func TestNewError(t *testing.T) {
	t.Parallel()

	err := newError(missingAsset, "Need asset=[...]")
	assert.Equal(t, "Need asset=[...]", err.Error())
	assert.Equal(t, missingAsset, errorCodeOf(err))
	assert.Nil(t, errors.Unwrap(err))
}

func TestWrapError(t *testing.T) {
	t.Parallel()

	cause := errors.New("disk full")
	err := wrapErrorf(failedToPrepareBuild, cause, "Failed to copy package files to %s", "/repo/dist/build/uBOLite.safari")

	assert.Equal(t, "Failed to copy package files to /repo/dist/build/uBOLite.safari: disk full", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, failedToPrepareBuild, errorCodeOf(fmt.Errorf("outer: %w", err)))

	assert.Equal(t, -1, errorCodeOf(wrapError(cause)))
	assert.Equal(t, -1, errorCodeOf(cause))
}

func TestExitCodeFor(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0, exitCodeFor(nil))
	assert.Equal(t, 1, exitCodeFor(newError(missingSecrets, "Need secrets")))
	assert.Equal(t, 1, exitCodeFor(errors.New("anything")))
}

func TestGithubError(t *testing.T) {
	t.Parallel()

	cases := []struct {
		status       int
		expectedCode int
	}{
		{401, invalidGithubTokenOrAccessDenied},
		{403, invalidGithubTokenOrAccessDenied},
		{404, releaseOrAssetNotFound},
		{500, -1},
	}

	for _, tc := range cases {
		httpErr := &github.HttpError{StatusCode: tc.status, Method: "GET", Url: "https://api.github.com/repos/o/r/releases/tags/t"}
		err := githubError(fmt.Errorf("wrapped: %w", httpErr), "fetch release t")

		assert.Equal(t, tc.expectedCode, err.errorCode, "status %d", tc.status)
		assert.Contains(t, err.Error(), "fetch release t")
		assert.ErrorIs(t, err, httpErr)
	}

	err := githubError(errors.New("connection refused"), "delete release asset a.zip")
	assert.Equal(t, -1, err.errorCode)
	assert.Equal(t, "Failed to delete release asset a.zip: connection refused", err.Error())
	assert.Equal(t, failedToDeleteAsset, withCode(err, failedToDeleteAsset).errorCode)
}
