package services

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/sync/singleflight"

	"github.com/szooyang/ai-project01/internal/dataprocessing"
	apperrors "github.com/szooyang/ai-project01/internal/errors"
	"github.com/szooyang/ai-project01/internal/infrastructure"
	"github.com/szooyang/ai-project01/pkg/contracts/domain"
)

// DatasetLoader reads and parses one ridership export.
// *dataprocessing.Ingestor satisfies it.
type DatasetLoader interface {
	Load(ctx context.Context, path string) (*dataprocessing.Dataset, error)
	Scope() domain.MonthScope
	Encodings() []string
}

// DatasetProvider hands out the current parsed data set.
type DatasetProvider interface {
	Dataset(ctx context.Context) (*dataprocessing.Dataset, error)
	Current() (domain.DatasetInfo, bool)
}

// DatasetCache memoizes the parsed data set under a fingerprint of the file
// identity and the scope. The file is re-read only when the fingerprint
// changes. Concurrent misses for the same fingerprint share one load.
type DatasetCache struct {
	loader  DatasetLoader
	path    string
	stat    func(string) (os.FileInfo, error)
	metrics *infrastructure.RidershipMetrics
	logger  *slog.Logger
	timeout time.Duration

	group singleflight.Group

	mu      sync.RWMutex
	key     string
	dataset *dataprocessing.Dataset
}

// DatasetCacheOption configures a DatasetCache.
type DatasetCacheOption func(*DatasetCache)

// WithCacheMetrics records loads and lookups on m.
func WithCacheMetrics(m *infrastructure.RidershipMetrics) DatasetCacheOption {
	return func(c *DatasetCache) { c.metrics = m }
}

// WithLoadTimeout bounds one load of the file. Zero leaves it unbounded.
func WithLoadTimeout(d time.Duration) DatasetCacheOption {
	return func(c *DatasetCache) { c.timeout = d }
}

// WithCacheLogger sets the logger.
func WithCacheLogger(logger *slog.Logger) DatasetCacheOption {
	return func(c *DatasetCache) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewDatasetCache creates a cache for the export at path.
func NewDatasetCache(loader DatasetLoader, path string, opts ...DatasetCacheOption) (*DatasetCache, error) {
	if path == "" {
		return nil, ErrDatasetPathEmpty
	}
	c := &DatasetCache{
		loader: loader,
		path:   path,
		stat:   os.Stat,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "dataset_cache"))
	return c, nil
}

// Path returns the export location.
func (c *DatasetCache) Path() string { return c.path }

// Fingerprint identifies a (file identity, scope) pair. Size and modification
// time stand in for the file contents.
func Fingerprint(path string, size int64, modTime time.Time, scope domain.MonthScope) string {
	h, _ := blake2b.New256(nil)
	var buf [8]byte

	h.Write([]byte(path))
	h.Write([]byte{0})
	binary.BigEndian.PutUint64(buf[:], uint64(size))
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(modTime.UnixNano()))
	h.Write(buf[:])
	h.Write([]byte(scope.String()))

	return hex.EncodeToString(h.Sum(nil)[:16])
}

// Dataset returns the parsed data set, loading it when the file or the scope
// changed since the last successful load. Failed loads are not cached.
func (c *DatasetCache) Dataset(ctx context.Context) (*dataprocessing.Dataset, error) {
	info, err := c.stat(c.path)
	if err != nil {
		return nil, apperrors.NewDataUnreadableError(c.path, nil, err)
	}
	if info.IsDir() {
		return nil, apperrors.NewDataUnreadableError(c.path, nil, fmt.Errorf("%s is a directory", c.path))
	}
	key := Fingerprint(c.path, info.Size(), info.ModTime(), c.loader.Scope())

	c.mu.RLock()
	if c.key == key && c.dataset != nil {
		ds := c.dataset
		c.mu.RUnlock()
		c.metrics.RecordCacheLookup(ctx, true)
		return ds, nil
	}
	c.mu.RUnlock()
	c.metrics.RecordCacheLookup(ctx, false)

	// The flight is shared, so it must outlive the caller that started it.
	// Each caller still stops waiting when its own context ends.
	flight := c.group.DoChan(key, func() (interface{}, error) {
		// A flight that finished between the check above and DoChan has already stored it.
		c.mu.RLock()
		if c.key == key && c.dataset != nil {
			ds := c.dataset
			c.mu.RUnlock()
			return ds, nil
		}
		c.mu.RUnlock()

		loadCtx := context.WithoutCancel(ctx)
		if c.timeout > 0 {
			var cancel context.CancelFunc
			loadCtx, cancel = context.WithTimeout(loadCtx, c.timeout)
			defer cancel()
		}
		return c.load(loadCtx, key)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-flight:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.logger.DebugContext(ctx, "joined in-flight dataset load", slog.String("fingerprint", key))
		}
		return res.Val.(*dataprocessing.Dataset), nil
	}
}

func (c *DatasetCache) load(ctx context.Context, key string) (*dataprocessing.Dataset, error) {
	start := time.Now()
	ctx, span := infrastructure.StartSpan(ctx, "dataset.load")
	defer span.End()

	ds, err := c.loader.Load(ctx, c.path)
	if err != nil {
		infrastructure.RecordError(ctx, err)
		c.metrics.RecordDatasetLoad(ctx, "", 0, time.Since(start), err)
		c.logger.ErrorContext(ctx, "dataset load failed",
			slog.String("path", c.path),
			slog.String("error", err.Error()))
		return nil, err
	}
	ds = ds.WithFingerprint(key)
	c.metrics.RecordDatasetLoad(ctx, ds.Info().Encoding, ds.Len(), time.Since(start), nil)

	c.mu.Lock()
	previous := c.key
	c.key = key
	c.dataset = ds
	c.mu.Unlock()

	c.logger.InfoContext(ctx, "dataset cached",
		slog.String("fingerprint", key),
		slog.String("previous_fingerprint", previous),
		slog.Int("records", ds.Len()))
	return ds, nil
}

// Current reports the data set held in the cache without touching the file.
func (c *DatasetCache) Current() (domain.DatasetInfo, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.dataset == nil {
		return domain.DatasetInfo{}, false
	}
	return c.dataset.Info(), true
}

// Invalidate drops the cached data set so the next call reloads it.
func (c *DatasetCache) Invalidate() {
	c.mu.Lock()
	c.key = ""
	c.dataset = nil
	c.mu.Unlock()
}
