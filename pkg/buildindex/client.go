// Package buildindex resolves version identifiers against a remote JSON
// build index to locate the unsigned reference distribution.
package buildindex

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// Descriptor identifies one downloadable reference build
type Descriptor struct {
	Version     string
	ArchiveName string
	DownloadURL string
	SHA1        string
	Size        int64
}

// LookupError indicates no matching build in the index. It is fatal to
// the run and surfaced before any download attempt.
type LookupError struct {
	Platform string
	Version  string
	Reason   string
}

func (e *LookupError) Error() string {
	return fmt.Sprintf("no build for platform %q version %q: %s", e.Platform, e.Version, e.Reason)
}

// indexFile is one file entry of a build in the index
type indexFile struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	SHA1 string `json:"sha1"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}

// indexBuild is one published build version
type indexBuild struct {
	Version string      `json:"version"`
	Files   []indexFile `json:"files"`
}

// clientFileType tags the file entry carrying the client distribution
const clientFileType = "client"

// Client queries a remote build index
type Client struct {
	indexURL   string
	httpClient *http.Client
}

// NewClient creates an index client for the given endpoint
func NewClient(indexURL string) *Client {
	return &Client{
		indexURL: indexURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetHTTPClient overrides the HTTP client (used by tests)
func (c *Client) SetHTTPClient(client *http.Client) {
	c.httpClient = client
}

// Lookup resolves a dotted version string to a build descriptor.
// The index is keyed by platform; versions match by dotted prefix, so
// "4.2" selects the first "4.2.x" build. The first file entry tagged as
// the client distribution wins.
func (c *Client) Lookup(ctx context.Context, platform, version string) (*Descriptor, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.indexURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build index request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch build index: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("build index returned status %d", resp.StatusCode)
	}

	var index map[string][]indexBuild
	if err := json.NewDecoder(resp.Body).Decode(&index); err != nil {
		return nil, fmt.Errorf("failed to decode build index: %w", err)
	}

	builds, ok := index[platform]
	if !ok || len(builds) == 0 {
		return nil, &LookupError{Platform: platform, Version: version, Reason: "platform not in index"}
	}

	for _, build := range builds {
		if !versionMatches(build.Version, version) {
			continue
		}
		for _, file := range build.Files {
			if file.Type != clientFileType {
				continue
			}
			return &Descriptor{
				Version:     build.Version,
				ArchiveName: file.Name,
				DownloadURL: file.URL,
				SHA1:        file.SHA1,
				Size:        file.Size,
			}, nil
		}
		return nil, &LookupError{Platform: platform, Version: version, Reason: "matching build has no client file"}
	}

	return nil, &LookupError{Platform: platform, Version: version, Reason: "version not in index"}
}

// versionMatches reports whether the build version equals the requested
// version or extends it by further dotted components
func versionMatches(buildVersion, requested string) bool {
	if buildVersion == requested {
		return true
	}
	return strings.HasPrefix(buildVersion, requested+".")
}
