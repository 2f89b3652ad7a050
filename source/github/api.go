package github

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/dustin/go-humanize"
)

var nextLinkRegex = regexp.MustCompile(`<(.+?)>;\s*rel="next"`)

// callGitHubApi performs a GET against a path of the GitHub API
func callGitHubApi(apiUrl, path, token string, customHeaders map[string]string) (*http.Response, error) {
	url := fmt.Sprintf("%s/%s", strings.TrimSuffix(apiUrl, "/"), path)
	return callGitHubApiRaw(url, http.MethodGet, token, nil, customHeaders)
}

// callGitHubApiRaw performs a raw HTTP request. Any status outside 2xx is returned as an error and the
// response body is consumed.
func callGitHubApiRaw(url, method, token string, body []byte, customHeaders map[string]string) (*http.Response, error) {
	httpClient := &http.Client{}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	request, err := http.NewRequest(method, url, reader)
	if err != nil {
		return nil, err
	}

	if token != "" {
		request.Header.Set("Authorization", fmt.Sprintf("Bearer %s", token))
	}
	request.Header.Set("X-GitHub-Api-Version", "2022-11-28")

	for headerName, headerValue := range customHeaders {
		request.Header.Set(headerName, headerValue)
	}

	resp, err := httpClient.Do(request)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		buf := new(bytes.Buffer)
		_, goErr := buf.ReadFrom(resp.Body)
		if goErr != nil {
			return nil, goErr
		}
		return nil, &HttpError{StatusCode: resp.StatusCode, Method: method, Url: url, Body: buf.String()}
	}

	return resp, nil
}

// HttpError is returned when GitHub answers with a non-2xx status
type HttpError struct {
	StatusCode int
	Method     string
	Url        string
	Body       string
}

func (e *HttpError) Error() string {
	return fmt.Sprintf("HTTP %d on %s %s: %s", e.StatusCode, e.Method, e.Url, e.Body)
}

// readBody reads and closes the response body
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	buf := new(bytes.Buffer)
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// getNextUrl extracts next page URL from Link header
func getNextUrl(links string) string {
	if len(links) == 0 {
		return ""
	}

	for _, link := range strings.Split(links, ",") {
		urlMatches := nextLinkRegex.FindStringSubmatch(link)
		if len(urlMatches) == 2 {
			return strings.TrimSpace(urlMatches[1])
		}
	}

	return ""
}

// writeCounter tracks download progress
type writeCounter struct {
	written uint64
	suffix  string
}

func newWriteCounter(total int64) *writeCounter {
	if total > 0 {
		return &writeCounter{
			suffix: fmt.Sprintf(" / %s", humanize.Bytes(uint64(total))),
		}
	}
	return &writeCounter{}
}

func (wc *writeCounter) Write(p []byte) (int, error) {
	n := len(p)
	wc.written += uint64(n)
	wc.PrintProgress()
	return n, nil
}

func (wc writeCounter) PrintProgress() {
	fmt.Printf("\r%s", strings.Repeat(" ", 35))
	fmt.Printf("\rDownloading... %s%s", humanize.Bytes(wc.written), wc.suffix)
}

// writeResponseToDisk writes HTTP response body to file
func writeResponseToDisk(resp *http.Response, destPath string, withProgress bool) error {
	out, err := os.Create(destPath)
	if err != nil {
		resp.Body.Close()
		return err
	}

	defer out.Close()
	defer resp.Body.Close()

	var reader io.Reader
	if withProgress {
		reader = io.TeeReader(resp.Body, newWriteCounter(resp.ContentLength))
		defer fmt.Println()
	} else {
		reader = resp.Body
	}
	_, err = io.Copy(out, reader)
	return err
}
