package github

// GitHubTagsApiResponse models GitHub API /repos/:owner/:repo/tags response
type GitHubTagsApiResponse struct {
	Name string `json:"name"`
}

// GitHubReleaseApiResponse models GitHub API /repos/:owner/:repo/releases/tags/:tag response
type GitHubReleaseApiResponse struct {
	Id        int64                `json:"id"`
	Url       string               `json:"url"`
	Name      string               `json:"name"`
	TagName   string               `json:"tag_name"`
	UploadUrl string               `json:"upload_url"`
	Assets    []GitHubReleaseAsset `json:"assets"`
}

// GitHubReleaseAsset models asset info in the release and upload responses
type GitHubReleaseAsset struct {
	Id                 int64  `json:"id"`
	Url                string `json:"url"`
	Name               string `json:"name"`
	BrowserDownloadUrl string `json:"browser_download_url"`
	ContentType        string `json:"content_type"`
	Size               int64  `json:"size"`
}
