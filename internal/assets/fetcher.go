package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// DefaultBaseURL расположение исходных мешей монумента
const DefaultBaseURL = "https://s3-us-west-2.amazonaws.com/s.cdpn.io/1290466"

// maxAssetSize ограничение на размер одного ассета
const maxAssetSize = 32 << 20

// ErrInvalidSource недопустимая ссылка на ассет
var ErrInvalidSource = errors.New("assets: invalid source reference")

// ErrAssetTooLarge ответ сервера превышает допустимый размер ассета
var ErrAssetTooLarge = errors.New("assets: asset too large")

// Fetcher получает сырые байты ассета по ссылке
type Fetcher interface {
	Fetch(ctx context.Context, source string) ([]byte, error)
}

// FetcherFunc адаптер функции к Fetcher
type FetcherFunc func(ctx context.Context, source string) ([]byte, error)

func (f FetcherFunc) Fetch(ctx context.Context, source string) ([]byte, error) {
	return f(ctx, source)
}

// FetchError ответ сервера ассетов с неуспешным статусом
type FetchError struct {
	Source string
	URL    string
	Status int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("assets: fetch %s: %s returned %d", e.Source, e.URL, e.Status)
}

// ValidateSource проверяет, что ссылка - одно имя без путей
func ValidateSource(source string) error {
	if source == "" || strings.ContainsAny(source, `/\`) || strings.Contains(source, "..") {
		return fmt.Errorf("%w: %q", ErrInvalidSource, source)
	}
	return nil
}

// HTTPFetcher загружает <base>/<source>.json
type HTTPFetcher struct {
	BaseURL string
	Client  *http.Client
	// MaxSize предел тела ответа; 0 означает maxAssetSize
	MaxSize int64
}

// NewHTTPFetcher создает HTTP-загрузчик; пустой base дает DefaultBaseURL
func NewHTTPFetcher(base string, timeout time.Duration) *HTTPFetcher {
	if base == "" {
		base = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPFetcher{
		BaseURL: strings.TrimRight(base, "/"),
		Client:  &http.Client{Timeout: timeout},
	}
}

// URL адрес ассета
func (h *HTTPFetcher) URL(source string) string {
	return h.BaseURL + "/" + url.PathEscape(source) + ".json"
}

func (h *HTTPFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if err := ValidateSource(source); err != nil {
		return nil, err
	}

	u := h.URL(source)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := h.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("assets: fetch %s: %w", source, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{Source: source, URL: u, Status: resp.StatusCode}
	}

	limit := h.MaxSize
	if limit <= 0 {
		limit = maxAssetSize
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("assets: fetch %s: %w", source, err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrAssetTooLarge, source, limit)
	}
	return data, nil
}

// DirFetcher читает <dir>/<source>.json с диска
type DirFetcher struct {
	Dir string
}

func (d DirFetcher) Fetch(ctx context.Context, source string) ([]byte, error) {
	if err := ValidateSource(source); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(filepath.Join(d.Dir, source+".json"))
	if err != nil {
		return nil, fmt.Errorf("assets: fetch %s: %w", source, err)
	}
	return data, nil
}
