package github

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ubolite/publish-extension/source"
)

const testToken = "test-token"
const testTag = "uBOLite_2025.906.1247"

type recordedRequest struct {
	method      string
	path        string
	query       string
	auth        string
	accept      string
	contentType string
	body        []byte
}

// fakeGitHub serves a single release with a mutable list of assets
type fakeGitHub struct {
	server   *httptest.Server
	mu       sync.Mutex
	assets   []GitHubReleaseAsset
	requests []recordedRequest
	failAll  bool
}

func newFakeGitHub(t *testing.T, assetNames ...string) *fakeGitHub {
	fake := &fakeGitHub{}
	fake.server = httptest.NewServer(http.HandlerFunc(fake.handle))
	t.Cleanup(fake.server.Close)

	for i, name := range assetNames {
		id := int64(100 + i)
		fake.assets = append(fake.assets, GitHubReleaseAsset{
			Id:   id,
			Url:  fmt.Sprintf("%s/repos/owner/repo/releases/assets/%d", fake.server.URL, id),
			Name: name,
		})
	}
	return fake
}

func (f *fakeGitHub) handle(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	defer f.mu.Unlock()

	f.requests = append(f.requests, recordedRequest{
		method:      r.Method,
		path:        r.URL.Path,
		query:       r.URL.RawQuery,
		auth:        r.Header.Get("Authorization"),
		accept:      r.Header.Get("Accept"),
		contentType: r.Header.Get("Content-Type"),
		body:        body,
	})

	if f.failAll {
		http.Error(w, `{"message":"Server Error"}`, http.StatusInternalServerError)
		return
	}

	switch {
	case r.Method == http.MethodGet && r.URL.Path == "/repos/owner/repo/releases/tags/"+testTag:
		release := GitHubReleaseApiResponse{
			Id:        1,
			Url:       f.server.URL + "/repos/owner/repo/releases/1",
			Name:      testTag,
			TagName:   testTag,
			UploadUrl: f.server.URL + "/uploads/repos/owner/repo/releases/1/assets{?name,label}",
			Assets:    f.assets,
		}
		json.NewEncoder(w).Encode(release)

	case r.Method == http.MethodGet && r.URL.Path == "/repos/owner/repo/tags":
		if r.URL.Query().Get("page") == "" {
			w.Header().Set("Link", fmt.Sprintf(`<%s/repos/owner/repo/tags?per_page=100&page=2>; rel="next"`, f.server.URL))
			w.Write([]byte(`[{"name":"v1.0.0"},{"name":"nightly"}]`))
			return
		}
		w.Write([]byte(`[{"name":"v1.2.0"}]`))

	case r.Method == http.MethodGet && len(f.assets) > 0 && r.URL.Path == "/repos/owner/repo/releases/assets/100":
		if r.Header.Get("Accept") != "application/octet-stream" {
			http.Error(w, "wrong accept header", http.StatusUnsupportedMediaType)
			return
		}
		w.Write([]byte("asset-bytes"))

	case r.Method == http.MethodPost && r.URL.Path == "/uploads/repos/owner/repo/releases/1/assets":
		name := r.URL.Query().Get("name")
		asset := GitHubReleaseAsset{
			Id:          int64(500 + len(f.assets)),
			Url:         fmt.Sprintf("%s/repos/owner/repo/releases/assets/%d", f.server.URL, 500+len(f.assets)),
			Name:        name,
			ContentType: r.Header.Get("Content-Type"),
			Size:        int64(len(body)),
		}
		f.assets = append(f.assets, asset)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(asset)

	case r.Method == http.MethodDelete:
		for i, asset := range f.assets {
			if asset.Url == f.server.URL+r.URL.Path {
				f.assets = append(f.assets[:i], f.assets[i+1:]...)
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		http.NotFound(w, r)

	default:
		http.NotFound(w, r)
	}
}

func (f *fakeGitHub) recorded() []recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]recordedRequest(nil), f.requests...)
}

func (f *fakeGitHub) setFailAll(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failAll = fail
}

func newTestSource(apiUrl string) (source.Source, source.Repo) {
	src := NewGitHubSource(source.Config{ApiUrl: apiUrl})
	return src, src.NewRepo("owner", "repo", testToken)
}

func TestRegisteredSource(t *testing.T) {
	t.Parallel()

	src, err := source.NewSource(source.TypeGitHub, source.Config{ApiUrl: "https://api.github.com"})
	require.NoError(t, err)
	assert.Equal(t, source.TypeGitHub, src.Type())
}

func TestGetReleaseInfo(t *testing.T) {
	t.Parallel()

	fake := newFakeGitHub(t, "uBOLite_2025.906.1247.safari.zip")
	src, repo := newTestSource(fake.server.URL)

	release, err := src.GetReleaseInfo(repo, testTag)
	require.NoError(t, err)

	assert.Equal(t, testTag, release.TagName)
	assert.Contains(t, release.UploadUrl, "{?name,label}")
	require.Len(t, release.Assets, 1)
	assert.Equal(t, "uBOLite_2025.906.1247.safari.zip", release.Assets[0].Name)

	requests := fake.recorded()
	require.Len(t, requests, 1)
	assert.Equal(t, "Bearer "+testToken, requests[0].auth)
}

func TestGetReleaseInfoUnknownTag(t *testing.T) {
	t.Parallel()

	fake := newFakeGitHub(t)
	src, repo := newTestSource(fake.server.URL)

	_, err := src.GetReleaseInfo(repo, "does-not-exist")
	require.Error(t, err)

	httpErr, ok := err.(*HttpError)
	require.True(t, ok, "expected *HttpError, received %T", err)
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
}

func TestGetReleaseInfoTransportFailure(t *testing.T) {
	t.Parallel()

	fake := newFakeGitHub(t)
	apiUrl := fake.server.URL
	fake.server.Close()

	src, repo := newTestSource(apiUrl)
	_, err := src.GetReleaseInfo(repo, testTag)
	assert.Error(t, err)
}

func TestFindReleaseAssetFirstMatchWins(t *testing.T) {
	t.Parallel()

	fake := newFakeGitHub(t, "foo-1.0.zip", "foo-ios.zip")
	src, repo := newTestSource(fake.server.URL)

	asset, err := src.FindReleaseAsset(repo, testTag, "foo")
	require.NoError(t, err)
	assert.Equal(t, "foo-1.0.zip", asset.Name)

	asset, err = src.FindReleaseAsset(repo, testTag, "ios")
	require.NoError(t, err)
	assert.Equal(t, "foo-ios.zip", asset.Name)

	_, err = src.FindReleaseAsset(repo, testTag, "Foo")
	assert.ErrorIs(t, err, source.ErrAssetNotFound)
}

func TestDependentOperationsFailWhenReleaseUnavailable(t *testing.T) {
	t.Parallel()

	fake := newFakeGitHub(t, "foo-1.0.zip")
	fake.setFailAll(true)
	src, repo := newTestSource(fake.server.URL)

	_, err := src.FindReleaseAsset(repo, testTag, "foo")
	assert.Error(t, err)

	localPath := filepath.Join(t.TempDir(), "uBOLite_2025.906.1247.macos.zip")
	require.NoError(t, os.WriteFile(localPath, []byte("zip"), 0644))

	_, err = src.UploadReleaseAsset(repo, testTag, localPath, "application/zip")
	assert.Error(t, err)

	for _, req := range fake.recorded() {
		assert.NotEqual(t, http.MethodPost, req.method, "no upload should be attempted without release info")
	}
}

func TestDownloadReleaseAsset(t *testing.T) {
	t.Parallel()

	fake := newFakeGitHub(t, "uBOLite.safari.zip")
	src, repo := newTestSource(fake.server.URL)

	asset, err := src.FindReleaseAsset(repo, testTag, "safari")
	require.NoError(t, err)

	destPath := filepath.Join(t.TempDir(), asset.Name)
	require.NoError(t, src.DownloadReleaseAsset(repo, asset, destPath, false))

	data, err := os.ReadFile(destPath)
	require.NoError(t, err)
	assert.Equal(t, "asset-bytes", string(data))
}

func TestUploadAndDeleteReleaseAsset(t *testing.T) {
	t.Parallel()

	fake := newFakeGitHub(t, "uBOLite.safari.zip")
	src, repo := newTestSource(fake.server.URL)

	localPath := filepath.Join(t.TempDir(), "uBOLite_2025.906.1247.macos.zip")
	require.NoError(t, os.WriteFile(localPath, []byte("zip-content"), 0644))

	uploaded, err := src.UploadReleaseAsset(repo, testTag, localPath, "application/zip")
	require.NoError(t, err)
	assert.Equal(t, "uBOLite_2025.906.1247.macos.zip", uploaded.Name)
	assert.Equal(t, int64(len("zip-content")), uploaded.Size)

	var upload *recordedRequest
	requests := fake.recorded()
	for i := range requests {
		if requests[i].method == http.MethodPost {
			upload = &requests[i]
		}
	}
	require.NotNil(t, upload)
	assert.Equal(t, "name=uBOLite_2025.906.1247.macos.zip", upload.query)
	assert.Equal(t, "application/zip", upload.contentType)
	assert.Equal(t, "zip-content", string(upload.body))
	assert.Equal(t, "Bearer "+testToken, upload.auth)

	original, err := src.FindReleaseAsset(repo, testTag, "safari")
	require.NoError(t, err)
	require.NoError(t, src.DeleteReleaseAsset(repo, original.Url))

	// A second delete of the same asset is a 404
	assert.Error(t, src.DeleteReleaseAsset(repo, original.Url))

	release, err := src.GetReleaseInfo(repo, testTag)
	require.NoError(t, err)
	require.Len(t, release.Assets, 1)
	assert.Equal(t, "uBOLite_2025.906.1247.macos.zip", release.Assets[0].Name)
}

func TestFetchTagsFollowsPagination(t *testing.T) {
	t.Parallel()

	fake := newFakeGitHub(t)
	src, repo := newTestSource(fake.server.URL)

	tags, err := src.FetchTags(repo)
	require.NoError(t, err)
	assert.Equal(t, []string{"v1.0.0", "v1.2.0"}, tags)
}

func TestMakeUploadUrl(t *testing.T) {
	t.Parallel()

	cases := []struct {
		uploadUrl string
		assetName string
		expected  string
	}{
		{
			"https://uploads.github.com/repos/o/r/releases/1/assets{?name,label}",
			"uBOLite_2025.906.1247.macos.zip",
			"https://uploads.github.com/repos/o/r/releases/1/assets?name=uBOLite_2025.906.1247.macos.zip",
		},
		{
			"https://uploads.github.com/repos/o/r/releases/1/assets",
			"a b.zip",
			"https://uploads.github.com/repos/o/r/releases/1/assets?name=a+b.zip",
		},
	}

	for _, tc := range cases {
		actual := MakeUploadUrl(tc.uploadUrl, tc.assetName)
		if actual != tc.expected {
			t.Fatalf("expected upload url %s, received %s", tc.expected, actual)
		}
	}
}

func TestGetNextUrl(t *testing.T) {
	t.Parallel()

	links := `<https://api.github.com/repos/o/r/tags?page=2>; rel="next", <https://api.github.com/repos/o/r/tags?page=5>; rel="last"`
	assert.Equal(t, "https://api.github.com/repos/o/r/tags?page=2", getNextUrl(links))
	assert.Equal(t, "", getNextUrl(""))
	assert.Equal(t, "", getNextUrl(`<https://api.github.com/repos/o/r/tags?page=5>; rel="last"`))
}
