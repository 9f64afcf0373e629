package assets

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/annel0/monument/internal/cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPFetcher(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/base/tail1.json" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(`{"faces":[]}`))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL+"/base/", time.Second)
	assert.Equal(t, srv.URL+"/base/tail1.json", f.URL("tail1"))

	data, err := f.Fetch(context.Background(), "tail1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"faces":[]}`, string(data))

	_, err = f.Fetch(context.Background(), "missing")
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, http.StatusNotFound, fe.Status)
}

func TestDefaultBaseURL(t *testing.T) {
	f := NewHTTPFetcher("", 0)
	assert.Equal(t, DefaultBaseURL+"/stairs1.json", f.URL("stairs1"))
}

func TestValidateSource(t *testing.T) {
	for _, bad := range []string{"", "../etc/passwd", "a/b", `a\b`} {
		assert.ErrorIs(t, ValidateSource(bad), ErrInvalidSource, bad)
	}
	assert.NoError(t, ValidateSource("pillar1"))
}

func TestDirFetcher(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(dir+"/pillar1.json", []byte("x"), 0o644))

	d := DirFetcher{Dir: dir}
	data, err := d.Fetch(context.Background(), "pillar1")
	require.NoError(t, err)
	assert.Equal(t, []byte("x"), data)

	_, err = d.Fetch(context.Background(), "nope")
	assert.Error(t, err)
	_, err = d.Fetch(context.Background(), "../pillar1")
	assert.ErrorIs(t, err, ErrInvalidSource)
}

func TestCachedFetcherServesSecondRequestFromCache(t *testing.T) {
	quad, err := os.ReadFile("testdata/quad.json")
	require.NoError(t, err)

	var hits int32
	origin := FetcherFunc(func(ctx context.Context, source string) ([]byte, error) {
		atomic.AddInt32(&hits, 1)
		return quad, nil
	})

	c := cache.NewMemoryCache(nil)
	cf, err := NewCachedFetcher(origin, c, DefaultBaseURL, time.Hour)
	require.NoError(t, err)
	defer cf.Close()

	first, err := cf.Fetch(context.Background(), "tail1")
	require.NoError(t, err)
	second, err := cf.Fetch(context.Background(), "tail1")
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	// в кеше лежит сжатое представление
	stored, err := c.Get(context.Background(), cf.CacheKey("tail1"))
	require.NoError(t, err)
	assert.NotEqual(t, first, stored)
}

func TestCachedFetcherRefetchesCorruptEntry(t *testing.T) {
	var hits int32
	origin := FetcherFunc(func(ctx context.Context, source string) ([]byte, error) {
		atomic.AddInt32(&hits, 1)
		return []byte("fresh"), nil
	})

	c := cache.NewMemoryCache(nil)
	cf, err := NewCachedFetcher(origin, c, "ns", 0)
	require.NoError(t, err)
	defer cf.Close()

	require.NoError(t, c.Set(context.Background(), cf.CacheKey("stairs1"), []byte("not zstd"), 0))
	data, err := cf.Fetch(context.Background(), "stairs1")
	require.NoError(t, err)
	assert.Equal(t, []byte("fresh"), data)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestCachedFetcherSkipsUnparsablePayload(t *testing.T) {
	quad, err := os.ReadFile("testdata/quad.json")
	require.NoError(t, err)

	// первый ответ оборван на середине, второй целый
	var hits int32
	origin := FetcherFunc(func(ctx context.Context, source string) ([]byte, error) {
		if atomic.AddInt32(&hits, 1) == 1 {
			return quad[:len(quad)/2], nil
		}
		return quad, nil
	})

	c := cache.NewMemoryCache(nil)
	cf, err := NewCachedFetcher(origin, c, "ns", 0)
	require.NoError(t, err)
	defer cf.Close()

	l := NewAsyncLoader(cf, WithWorkers(1))
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = l.Load(ctx, "tail1").Wait(ctx)
	assert.ErrorIs(t, err, ErrInvalidGeometry)
	require.NoError(t, l.Close())

	_, err = c.Get(ctx, cf.CacheKey("tail1"))
	assert.True(t, cache.IsCacheMiss(err))

	// новый загрузчик после перезапуска снова идет в источник
	l = NewAsyncLoader(cf, WithWorkers(1))
	defer l.Close()
	mesh, err := l.Load(ctx, "tail1").Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, mesh.VertexCount())
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))

	_, err = c.Get(ctx, cf.CacheKey("tail1"))
	assert.NoError(t, err)
}

func TestHTTPFetcherRejectsOversizedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	f := NewHTTPFetcher(srv.URL, time.Second)
	f.MaxSize = 32
	_, err := f.Fetch(context.Background(), "tail1")
	assert.ErrorIs(t, err, ErrAssetTooLarge)

	f.MaxSize = 64
	data, err := f.Fetch(context.Background(), "tail1")
	require.NoError(t, err)
	assert.Len(t, data, 64)
}

func TestCachedFetcherNamespaces(t *testing.T) {
	a, err := NewCachedFetcher(nil, cache.NewMemoryCache(nil), "a", 0)
	require.NoError(t, err)
	defer a.Close()
	b, err := NewCachedFetcher(nil, cache.NewMemoryCache(nil), "b", 0)
	require.NoError(t, err)
	defer b.Close()

	assert.NotEqual(t, a.CacheKey("tail1"), b.CacheKey("tail1"))
	assert.Equal(t, a.CacheKey("tail1"), a.CacheKey("tail1"))
}
