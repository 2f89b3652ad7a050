package source

import (
	"errors"

	"github.com/sirupsen/logrus"
)

// SourceType identifies the release host
type SourceType string

const (
	TypeGitHub SourceType = "github"
)

// DefaultGitHubApiUrl is the API endpoint used unless a GitHub Enterprise URL is configured
const DefaultGitHubApiUrl = "https://api.github.com"

// ErrAssetNotFound is returned when no asset of a release matches the requested name
var ErrAssetNotFound = errors.New("asset not found")

// Repo represents a repository on a release host
type Repo struct {
	ApiUrl string     // API endpoint base URL, including the scheme
	Owner  string     // Account the repo lives under
	Name   string     // Repository name
	Token  string     // Bearer token
	Type   SourceType // Provider type
}

// ReleaseAsset represents a binary attached to a release
type ReleaseAsset struct {
	Id                 int64  // Asset ID
	Url                string // API URL of the asset, used for download and delete
	Name               string // Asset filename
	BrowserDownloadUrl string // Public download URL
	ContentType        string // MIME type reported by the host
	Size               int64  // Size in bytes
}

// Release represents the release published for one tag
type Release struct {
	Id        int64
	Url       string
	Name      string
	TagName   string
	UploadUrl string // URL template of the form https://uploads.../assets{?name,label}
	Assets    []ReleaseAsset
}

// Config holds source-specific configuration
type Config struct {
	ApiUrl string        // API base URL, DefaultGitHubApiUrl when empty
	Logger *logrus.Entry // Logger instance
}

// Source defines the release operations the publisher needs from a host
type Source interface {
	// Type returns the source type identifier
	Type() SourceType

	// NewRepo builds a Repo for the given owner and name
	NewRepo(owner, name, token string) Repo

	// FetchTags returns all semver tags from the repository
	FetchTags(repo Repo) ([]string, error)

	// GetReleaseInfo returns release information for a specific tag
	GetReleaseInfo(repo Repo, tag string) (Release, error)

	// FindReleaseAsset returns the first asset of the release whose name contains nameSubstring
	FindReleaseAsset(repo Repo, tag, nameSubstring string) (ReleaseAsset, error)

	// DownloadReleaseAsset downloads a release asset to destPath
	DownloadReleaseAsset(repo Repo, asset ReleaseAsset, destPath string, withProgress bool) error

	// UploadReleaseAsset attaches the file at localPath to the release of the given tag
	UploadReleaseAsset(repo Repo, tag, localPath, mimeType string) (ReleaseAsset, error)

	// DeleteReleaseAsset removes the asset at the given API URL
	DeleteReleaseAsset(repo Repo, assetUrl string) error
}

// FindAssetByName returns the first asset whose name contains nameSubstring. Matching is
// case-sensitive and follows the order in which the host listed the assets.
func FindAssetByName(assets []ReleaseAsset, nameSubstring string) (ReleaseAsset, bool) {
	for _, asset := range assets {
		if containsName(asset.Name, nameSubstring) {
			return asset, true
		}
	}
	return ReleaseAsset{}, false
}
