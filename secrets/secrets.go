package secrets

import (
	"encoding/json"
	"fmt"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ubolite/publish-extension/locate"
	"github.com/ubolite/publish-extension/schemas"
)

// FileName is the name of the credentials file searched for above the working directory
const FileName = "ubo_secrets"

const keyGithubToken = "github_token"

// Secrets maps credential names to their values
type Secrets map[string]string

// GithubToken returns the token used to authenticate against the GitHub API
func (s Secrets) GithubToken() string {
	return s[keyGithubToken]
}

// FromToken builds Secrets holding only a GitHub token
func FromToken(token string) Secrets {
	return Secrets{keyGithubToken: token}
}

// Locate returns the path of the closest secrets file, or found = false when the walk left the boundary without
// finding one.
func Locate(walker *locate.Walker) (string, bool, error) {
	return walker.FindUpward(FileName, locate.IsFile)
}

// Load reads and validates the secrets file at path
func Load(fs billy.Filesystem, path string) (Secrets, error) {
	data, err := util.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes a secrets document
func Parse(data []byte) (Secrets, error) {
	if err := schemas.Validate(schemas.Secrets, data); err != nil {
		return nil, fmt.Errorf("malformed secrets: %w", err)
	}

	var secrets Secrets
	if err := json.Unmarshal(data, &secrets); err != nil {
		return nil, fmt.Errorf("malformed secrets: %w", err)
	}
	return secrets, nil
}
