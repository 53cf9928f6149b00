package catalog

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	appLog "vfestimetable/internal/log"
	"vfestimetable/internal/model"
)

// cacheEntry holds HTTP cache metadata for a catalog URL.
type cacheEntry struct {
	URL          string    `json:"url"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Fetcher retrieves the catalog JSON over HTTP with conditional requests
// (ETag / Last-Modified) and a disk-backed cache, falling back to the
// cached body when the upstream is unreachable.
type Fetcher struct {
	client   *http.Client
	cacheDir string
}

// NewFetcher creates a catalog Fetcher. cacheDir is where per-URL cache
// directories and metadata live, e.g. "/var/lib/vfes-timetable/cache".
func NewFetcher(cacheDir string) *Fetcher {
	if cacheDir == "" {
		// Fallback to a relative dir so development runs without root.
		cacheDir = "./var/catalog-cache"
	}
	return &Fetcher{
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
		cacheDir: cacheDir,
	}
}

// Load resolves the configured catalog source. http(s) sources go through
// the conditional-request cache; anything else is read as a local file.
func (f *Fetcher) Load(ctx context.Context, source string) ([]model.Event, error) {
	if source == "" {
		return nil, errors.New("catalog source is empty")
	}
	if strings.HasPrefix(source, "http://") || strings.HasPrefix(source, "https://") {
		body, fromCache, err := f.fetch(ctx, source)
		if err != nil {
			return nil, err
		}
		events, err := Parse(body)
		if err != nil {
			return nil, err
		}
		appLog.Info("catalog loaded", "source", source, "events", len(events), "from_cache", fromCache)
		return events, nil
	}
	events, err := LoadFile(source)
	if err != nil {
		return nil, err
	}
	appLog.Info("catalog loaded", "source", source, "events", len(events))
	return events, nil
}

// fetch retrieves the catalog body from url, honoring ETag and
// Last-Modified via the disk cache keyed by a hash of the URL.
func (f *Fetcher) fetch(ctx context.Context, url string) (body []byte, fromCache bool, err error) {
	cachePath, err := f.cachePathForURL(url)
	if err != nil {
		return nil, false, err
	}
	if err := os.MkdirAll(cachePath, 0o700); err != nil {
		return nil, false, err
	}

	meta, _ := f.loadCacheMeta(cachePath)
	cachedBody, _ := f.loadCacheBody(cachePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, err
	}
	if meta.ETag != "" {
		req.Header.Set("If-None-Match", meta.ETag)
	}
	if meta.LastModified != "" {
		req.Header.Set("If-Modified-Since", meta.LastModified)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		// Network error; if we have a cached body, fall back to it.
		if len(cachedBody) > 0 {
			appLog.Error("catalog fetch network error, using cached body", err, "url", url)
			return cachedBody, true, nil
		}
		return nil, false, err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		fresh, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, false, readErr
		}

		newMeta := cacheEntry{
			URL:          url,
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
			UpdatedAt:    time.Now().UTC(),
		}
		if err := f.saveCache(cachePath, newMeta, fresh); err != nil {
			// Log but still return the freshly fetched body.
			appLog.Error("catalog cache save failed", err, "url", url)
		}
		return fresh, false, nil

	case http.StatusNotModified:
		if len(cachedBody) == 0 {
			return nil, false, errors.New("received 304 Not Modified but no cached body available")
		}
		return cachedBody, true, nil

	default:
		if len(cachedBody) > 0 {
			appLog.Error("catalog fetch non-OK, using cached body", errors.New(resp.Status), "url", url, "status", resp.StatusCode)
			return cachedBody, true, nil
		}
		return nil, false, errors.New(resp.Status)
	}
}

func (f *Fetcher) cachePathForURL(url string) (string, error) {
	if url == "" {
		return "", errors.New("empty url")
	}
	sum := sha256.Sum256([]byte(url))
	// Use first 16 hex chars as directory name.
	dir := hex.EncodeToString(sum[:8])
	return filepath.Join(f.cacheDir, dir), nil
}

func (f *Fetcher) loadCacheMeta(cachePath string) (cacheEntry, error) {
	var meta cacheEntry
	data, err := os.ReadFile(filepath.Join(cachePath, "meta.json"))
	if err != nil {
		return meta, err
	}
	if err := json.Unmarshal(data, &meta); err != nil {
		return cacheEntry{}, err
	}
	return meta, nil
}

func (f *Fetcher) loadCacheBody(cachePath string) ([]byte, error) {
	return os.ReadFile(filepath.Join(cachePath, "catalog.json"))
}

func (f *Fetcher) saveCache(cachePath string, meta cacheEntry, body []byte) error {
	metaData, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(cachePath, "meta.json"), metaData, 0o600); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(cachePath, "catalog.json"), body, 0o600)
}
