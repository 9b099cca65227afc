package files

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/MorMundHS-MA/GDV/internal/config"
	apperrors "github.com/MorMundHS-MA/GDV/internal/errors"
)

// maxResourceSize caps a single retrieved resource
const maxResourceSize = 64 << 20

// Fetcher retrieves source resources by locator
type Fetcher interface {
	Fetch(ctx context.Context, locator string) ([]byte, error)
	FetchText(ctx context.Context, locator string) (string, error)
	FetchJSON(ctx context.Context, locator string, v any) error
}

// Retriever fetches http(s) locators over the network and everything else
// from disk relative to the data directory
type Retriever struct {
	dataDir string
	client  *http.Client
	logger  *slog.Logger
}

// NewRetriever creates a retriever for the given sources configuration
func NewRetriever(cfg config.SourcesConfig, logger *slog.Logger) *Retriever {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = config.DefaultHTTPTimeout
	}
	return &Retriever{
		dataDir: cfg.DataDir,
		client:  &http.Client{Timeout: timeout},
		logger:  logger.With(slog.String("component", "retriever")),
	}
}

// Fetch returns the raw bytes of a resource
func (r *Retriever) Fetch(ctx context.Context, locator string) ([]byte, error) {
	start := time.Now()
	var (
		data []byte
		err  error
	)
	if config.IsRemoteLocator(locator) {
		data, err = r.fetchHTTP(ctx, locator)
	} else {
		data, err = r.fetchFile(ctx, locator)
	}
	if err != nil {
		return nil, err
	}

	r.logger.DebugContext(ctx, "resource fetched",
		slog.String("locator", locator),
		slog.Int("bytes", len(data)),
		slog.Duration("duration", time.Since(start)))
	return data, nil
}

// FetchText returns a resource as a string
func (r *Retriever) FetchText(ctx context.Context, locator string) (string, error) {
	return fetchText(ctx, r, locator)
}

// FetchJSON decodes a JSON resource into v
func (r *Retriever) FetchJSON(ctx context.Context, locator string, v any) error {
	return fetchJSON(ctx, r, locator, v)
}

func (r *Retriever) fetchHTTP(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperrors.NewNetworkError("build request", err).WithContext("locator", url)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, apperrors.NewNetworkError("request failed", err).WithContext("locator", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, apperrors.NewNetworkError(
			fmt.Sprintf("unexpected status %d", resp.StatusCode), nil,
		).WithContext("locator", url).WithContext("status", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResourceSize))
	if err != nil {
		return nil, apperrors.NewNetworkError("read body", err).WithContext("locator", url)
	}
	return data, nil
}

func (r *Retriever) fetchFile(ctx context.Context, locator string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	path := locator
	if !filepath.IsAbs(path) && r.dataDir != "" {
		path = filepath.Join(r.dataDir, path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, apperrors.NewStorageError("read file", err).WithContext("locator", locator)
	}
	return data, nil
}

func fetchText(ctx context.Context, f Fetcher, locator string) (string, error) {
	data, err := f.Fetch(ctx, locator)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func fetchJSON(ctx context.Context, f Fetcher, locator string, v any) error {
	data, err := f.Fetch(ctx, locator)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(bytes.TrimPrefix(data, utf8BOM), v); err != nil {
		return apperrors.NewParsingError("decode json", err).WithContext("locator", locator)
	}
	return nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// MapFetcher serves resources from memory. It is used in tests and by the
// validate command when sources are piped in.
type MapFetcher struct {
	mu        sync.Mutex
	resources map[string]string
	calls     map[string]int
	// Errors forces a failure for a locator
	Errors map[string]error
}

// NewMapFetcher creates a fetcher over locator to content pairs
func NewMapFetcher(resources map[string]string) *MapFetcher {
	copied := make(map[string]string, len(resources))
	for k, v := range resources {
		copied[k] = v
	}
	return &MapFetcher{
		resources: copied,
		calls:     make(map[string]int),
		Errors:    make(map[string]error),
	}
}

// Set adds or replaces a resource
func (m *MapFetcher) Set(locator, content string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[locator] = content
}

// Calls reports how often a locator was fetched
func (m *MapFetcher) Calls(locator string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[locator]
}

// Fetch implements Fetcher
func (m *MapFetcher) Fetch(ctx context.Context, locator string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls[locator]++

	if err, ok := m.Errors[locator]; ok {
		return nil, err
	}
	content, ok := m.resources[locator]
	if !ok {
		return nil, apperrors.NewStorageError("read resource", fs.ErrNotExist).WithContext("locator", locator)
	}
	return []byte(content), nil
}

// FetchText implements Fetcher
func (m *MapFetcher) FetchText(ctx context.Context, locator string) (string, error) {
	return fetchText(ctx, m, locator)
}

// FetchJSON implements Fetcher
func (m *MapFetcher) FetchJSON(ctx context.Context, locator string, v any) error {
	return fetchJSON(ctx, m, locator, v)
}

// IsNotExist reports whether a fetch failed because the resource is absent
func IsNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || strings.Contains(fmt.Sprint(err), "status 404")
}
