package github

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-version"
	"github.com/sirupsen/logrus"
	"github.com/ubolite/publish-extension/source"
)

// uploadUrlTemplate is the RFC 6570 suffix GitHub appends to a release upload_url
const uploadUrlTemplate = "{?name,label}"

// GitHubSource implements source.Source for GitHub
type GitHubSource struct {
	config source.Config
	logger *logrus.Entry
}

// NewGitHubSource creates a new GitHub source
func NewGitHubSource(config source.Config) source.Source {
	if config.ApiUrl == "" {
		config.ApiUrl = source.DefaultGitHubApiUrl
	}
	logger := config.Logger
	if logger == nil {
		logger = logrus.NewEntry(logrus.StandardLogger())
	}
	return &GitHubSource{
		config: config,
		logger: logger,
	}
}

// Type returns the source type
func (s *GitHubSource) Type() source.SourceType {
	return source.TypeGitHub
}

// NewRepo builds a Repo on the configured GitHub instance
func (s *GitHubSource) NewRepo(owner, name, token string) source.Repo {
	return source.Repo{
		ApiUrl: s.config.ApiUrl,
		Owner:  owner,
		Name:   name,
		Token:  token,
		Type:   source.TypeGitHub,
	}
}

// FetchTags returns all semver tags from the repository
func (s *GitHubSource) FetchTags(repo source.Repo) ([]string, error) {
	var tags []string

	// Set per_page to 100 (max) to reduce network calls
	tagsUrl := fmt.Sprintf("%s/repos/%s/%s/tags?per_page=100", strings.TrimSuffix(repo.ApiUrl, "/"), repo.Owner, repo.Name)

	for tagsUrl != "" {
		resp, err := callGitHubApiRaw(tagsUrl, http.MethodGet, repo.Token, nil, map[string]string{})
		if err != nil {
			return tags, err
		}

		nextUrl := getNextUrl(resp.Header.Get("link"))
		jsonResp, err := readBody(resp)
		if err != nil {
			return tags, err
		}

		var apiTags []GitHubTagsApiResponse
		if err := json.Unmarshal(jsonResp, &apiTags); err != nil {
			return tags, err
		}

		for _, tag := range apiTags {
			// Skip non-semver tags
			if _, err := version.NewVersion(tag.Name); err == nil {
				tags = append(tags, tag.Name)
			}
		}

		tagsUrl = nextUrl
	}

	return tags, nil
}

// GetReleaseInfo returns release information for a specific tag
func (s *GitHubSource) GetReleaseInfo(repo source.Repo, tag string) (source.Release, error) {
	var release source.Release

	s.logger.Infof("Fetching release info for %s from GitHub", tag)

	path := fmt.Sprintf("repos/%s/%s/releases/tags/%s", repo.Owner, repo.Name, url.PathEscape(tag))
	resp, err := callGitHubApi(repo.ApiUrl, path, repo.Token, map[string]string{"Accept": "application/vnd.github+json"})
	if err != nil {
		return release, err
	}

	jsonResp, err := readBody(resp)
	if err != nil {
		return release, err
	}

	var apiRelease GitHubReleaseApiResponse
	if err := json.Unmarshal(jsonResp, &apiRelease); err != nil {
		return release, fmt.Errorf("failed to decode release %s: %w", tag, err)
	}

	// Convert to generic Release type
	release = source.Release{
		Id:        apiRelease.Id,
		Url:       apiRelease.Url,
		Name:      apiRelease.Name,
		TagName:   apiRelease.TagName,
		UploadUrl: apiRelease.UploadUrl,
	}

	for _, asset := range apiRelease.Assets {
		release.Assets = append(release.Assets, toReleaseAsset(asset))
	}

	return release, nil
}

// FindReleaseAsset returns the first asset of the release whose name contains nameSubstring
func (s *GitHubSource) FindReleaseAsset(repo source.Repo, tag, nameSubstring string) (source.ReleaseAsset, error) {
	release, err := s.GetReleaseInfo(repo, tag)
	if err != nil {
		return source.ReleaseAsset{}, err
	}

	asset, found := source.FindAssetByName(release.Assets, nameSubstring)
	if !found {
		return source.ReleaseAsset{}, fmt.Errorf("%w: no asset matching %q in release %s", source.ErrAssetNotFound, nameSubstring, tag)
	}
	return asset, nil
}

// DownloadReleaseAsset downloads a release asset to destPath
func (s *GitHubSource) DownloadReleaseAsset(repo source.Repo, asset source.ReleaseAsset, destPath string, withProgress bool) error {
	assetUrl := asset.Url
	if assetUrl == "" {
		assetUrl = fmt.Sprintf("%s/repos/%s/%s/releases/assets/%d", strings.TrimSuffix(repo.ApiUrl, "/"), repo.Owner, repo.Name, asset.Id)
	}

	s.logger.Infof("Fetching %s", assetUrl)

	resp, err := callGitHubApiRaw(assetUrl, http.MethodGet, repo.Token, nil, map[string]string{"Accept": "application/octet-stream"})
	if err != nil {
		return err
	}
	return writeResponseToDisk(resp, destPath, withProgress)
}

// UploadReleaseAsset attaches the file at localPath to the release of the given tag. The asset is named after
// the file's basename.
func (s *GitHubSource) UploadReleaseAsset(repo source.Repo, tag, localPath, mimeType string) (source.ReleaseAsset, error) {
	var uploaded source.ReleaseAsset

	s.logger.Infof("Uploading \"%s\" to GitHub...", localPath)

	data, err := os.ReadFile(localPath)
	if err != nil {
		return uploaded, err
	}

	release, err := s.GetReleaseInfo(repo, tag)
	if err != nil {
		return uploaded, err
	}
	if release.UploadUrl == "" {
		return uploaded, fmt.Errorf("release %s has no upload URL", tag)
	}

	uploadUrl := MakeUploadUrl(release.UploadUrl, filepath.Base(localPath))
	s.logger.Debugf("Upload URL: %s", uploadUrl)

	resp, err := callGitHubApiRaw(uploadUrl, http.MethodPost, repo.Token, data, map[string]string{"Content-Type": mimeType})
	if err != nil {
		return uploaded, err
	}

	jsonResp, err := readBody(resp)
	if err != nil {
		return uploaded, err
	}

	var apiAsset GitHubReleaseAsset
	if err := json.Unmarshal(jsonResp, &apiAsset); err != nil {
		return uploaded, fmt.Errorf("failed to decode upload response: %w", err)
	}

	return toReleaseAsset(apiAsset), nil
}

// DeleteReleaseAsset removes the asset at the given API URL
func (s *GitHubSource) DeleteReleaseAsset(repo source.Repo, assetUrl string) error {
	s.logger.Infof("Remove %s from GitHub release", assetUrl)

	resp, err := callGitHubApiRaw(assetUrl, http.MethodDelete, repo.Token, nil, map[string]string{})
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}

// MakeUploadUrl expands the upload_url template of a release for an asset name
func MakeUploadUrl(uploadUrl, assetName string) string {
	query := "?name=" + url.QueryEscape(assetName)
	if strings.Contains(uploadUrl, uploadUrlTemplate) {
		return strings.Replace(uploadUrl, uploadUrlTemplate, query, 1)
	}
	return uploadUrl + query
}

func toReleaseAsset(asset GitHubReleaseAsset) source.ReleaseAsset {
	return source.ReleaseAsset{
		Id:                 asset.Id,
		Url:                asset.Url,
		Name:               asset.Name,
		BrowserDownloadUrl: asset.BrowserDownloadUrl,
		ContentType:        asset.ContentType,
		Size:               asset.Size,
	}
}

func init() {
	// Register the factory function
	source.NewGitHubSource = NewGitHubSource
}
