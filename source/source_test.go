package source

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSourceType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		input        string
		expectedType SourceType
		description  string
	}{
		{"github", TypeGitHub, "lowercase github"},
		{"GitHub", TypeGitHub, "mixed case GitHub"},
		{"GITHUB", TypeGitHub, "uppercase GITHUB"},
	}

	for _, tc := range cases {
		t.Run(tc.description, func(t *testing.T) {
			parsed, err := ParseSourceType(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.expectedType, parsed)
		})
	}
}

func TestParseSourceTypeInvalid(t *testing.T) {
	t.Parallel()

	for _, input := range []string{"", "gitlab", "s3"} {
		_, err := ParseSourceType(input)
		assert.Error(t, err, "expected error for publish target %q", input)
	}
}

func TestNewSourceUnsupported(t *testing.T) {
	t.Parallel()

	_, err := NewSource(SourceType("bitbucket"), Config{})
	assert.Error(t, err)
}

func TestFindAssetByName(t *testing.T) {
	t.Parallel()

	assets := []ReleaseAsset{
		{Id: 1, Name: "foo-1.0.zip"},
		{Id: 2, Name: "foo-ios.zip"},
		{Id: 3, Name: "bar.chromium.zip"},
	}

	cases := []struct {
		query      string
		expectedId int64
		found      bool
	}{
		{"foo", 1, true},
		{"ios", 2, true},
		{".chromium", 3, true},
		{"FOO", 0, false},
		{"safari", 0, false},
	}

	for _, tc := range cases {
		asset, found := FindAssetByName(assets, tc.query)
		if found != tc.found {
			t.Fatalf("query %q: expected found = %t, received %t", tc.query, tc.found, found)
		}
		if asset.Id != tc.expectedId {
			t.Fatalf("query %q: expected asset %d, received %d", tc.query, tc.expectedId, asset.Id)
		}
	}
}
