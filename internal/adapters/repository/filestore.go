package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/brunoga/deep"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/klauspost/compress/zstd"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/okian/gatedirector/internal/domain/catalog"
	"github.com/okian/gatedirector/pkg/logger"
	"github.com/okian/gatedirector/pkg/metrics"
)

const (
	defaultCacheSize    = 16
	defaultCacheTTL     = time.Hour
	defaultStaleLockAge = 10 * time.Minute

	catalogExt = ".json"
	walkLogExt = ".walk.msgpack.zst"
	lockExt    = ".lock"
)

// FileStore keeps one directory of per-airport files:
//
//	<ICAO>.json               interpreted catalog, human editable
//	<ICAO>.walk.msgpack.zst   raw walk log
//	<ICAO>.lock               writer lock
//
// Loaded catalogs are cached together with the file's modification time and
// size, and every read checks them against the disk, so hand edits and
// deletions take effect immediately. Callers always receive their own copy.
type FileStore struct {
	dir          string
	cacheSize    int
	cacheTTL     time.Duration
	staleLockAge time.Duration
	log          logger.Logger

	cache *expirable.LRU[string, cachedCatalog]
	mu    sync.Mutex // serialises writes within the process
}

// cachedCatalog is a decoded catalog and the file state it was read from.
type cachedCatalog struct {
	c       *catalog.Catalog
	modTime time.Time
	size    int64
}

func (e cachedCatalog) matches(info os.FileInfo) bool {
	return e.size == info.Size() && e.modTime.Equal(info.ModTime())
}

var _ Store = (*FileStore)(nil)

// NewFileStore creates dir if needed and returns a store rooted there.
func NewFileStore(dir string, opts ...Option) (*FileStore, error) {
	s := &FileStore{
		dir:          dir,
		cacheSize:    defaultCacheSize,
		cacheTTL:     defaultCacheTTL,
		staleLockAge: defaultStaleLockAge,
		log:          logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create catalog dir: %w", err)
	}
	s.cache = expirable.NewLRU[string, cachedCatalog](s.cacheSize, nil, s.cacheTTL)
	return s, nil
}

// Dir returns the directory the store writes to.
func (s *FileStore) Dir() string { return s.dir }

func (s *FileStore) path(code, ext string) string {
	return filepath.Join(s.dir, code+ext)
}

func airportCode(airport string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(airport))
	if code == "" {
		return "", ErrInvalidAirport
	}
	for _, c := range code {
		if (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return "", fmt.Errorf("%w: %q", ErrInvalidAirport, airport)
		}
	}
	return code, nil
}

// Load implements Store.
func (s *FileStore) Load(ctx context.Context, airport string) (*catalog.Catalog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code, err := airportCode(airport)
	if err != nil {
		return nil, err
	}

	path := s.path(code, catalogExt)
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		s.cache.Remove(code)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("stat catalog %s: %w", code, err)
	}

	if e, ok := s.cache.Get(code); ok && e.matches(info) {
		metrics.RecordCatalogCache(true)
		return deep.Copy(e.c)
	}
	metrics.RecordCatalogCache(false)

	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		s.cache.Remove(code)
		return nil, fmt.Errorf("%w: %s", ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", code, err)
	}

	c := &catalog.Catalog{}
	if err := json.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("decode catalog %s: %w", code, err)
	}
	if c.Airport == "" {
		c.Airport = code
	}
	s.cache.Add(code, cachedCatalog{c: c, modTime: info.ModTime(), size: info.Size()})
	metrics.UpdateCatalogPositions(code, c.Len())
	s.log.Debug(ctx, "catalog loaded", logger.String("airport", code), logger.Int("positions", c.Len()))
	return deep.Copy(c)
}

// Save implements Store.
func (s *FileStore) Save(ctx context.Context, c *catalog.Catalog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("%w: nil catalog", ErrInvalidAirport)
	}
	code, err := airportCode(c.Airport)
	if err != nil {
		return err
	}

	b, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("encode catalog %s: %w", code, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.path(code, catalogExt)
	if err := writeAtomic(path, func(w io.Writer) error {
		_, err := w.Write(b)
		return err
	}); err != nil {
		s.cache.Remove(code)
		return fmt.Errorf("write catalog %s: %w", code, err)
	}

	info, serr := os.Stat(path)
	cp, cerr := deep.Copy(c)
	if serr == nil && cerr == nil {
		s.cache.Add(code, cachedCatalog{c: cp, modTime: info.ModTime(), size: info.Size()})
	} else {
		s.cache.Remove(code)
	}
	metrics.UpdateCatalogPositions(code, c.Len())
	s.log.Info(ctx, "catalog saved", logger.String("airport", code), logger.Int("positions", c.Len()))
	return nil
}

// SaveWalkLog implements Store. The log is msgpack encoded and zstd compressed.
func (s *FileStore) SaveWalkLog(ctx context.Context, wl *catalog.WalkLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if wl == nil {
		return fmt.Errorf("%w: nil walk log", ErrInvalidAirport)
	}
	code, err := airportCode(wl.Airport)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err = writeAtomic(s.path(code, walkLogExt), func(w io.Writer) error {
		zw, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
		if err != nil {
			return fmt.Errorf("failed to create zstd writer: %w", err)
		}
		if err := msgpack.NewEncoder(zw).Encode(wl); err != nil {
			_ = zw.Close()
			return fmt.Errorf("failed to encode walk log: %w", err)
		}
		return zw.Close()
	})
	if err != nil {
		return fmt.Errorf("write walk log %s: %w", code, err)
	}
	return nil
}

// LoadWalkLog implements Store.
func (s *FileStore) LoadWalkLog(ctx context.Context, airport string) (*catalog.WalkLog, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code, err := airportCode(airport)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(s.path(code, walkLogExt))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s walk log", ErrNotFound, code)
	}
	if err != nil {
		return nil, fmt.Errorf("open walk log %s: %w", code, err)
	}
	defer f.Close()

	zr, err := zstd.NewReader(f, zstd.WithDecoderConcurrency(0))
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd reader: %w", err)
	}
	defer zr.Close()

	var wl catalog.WalkLog
	if err := msgpack.NewDecoder(zr).Decode(&wl); err != nil {
		return nil, fmt.Errorf("decode walk log %s: %w", code, err)
	}
	if wl.Version > catalog.FormatVersion {
		return nil, fmt.Errorf("%w: %d", catalog.ErrUnsupportedVersion, wl.Version)
	}
	return &wl, nil
}

// Delete implements Store.
func (s *FileStore) Delete(ctx context.Context, airport string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	code, err := airportCode(airport)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache.Remove(code)
	var errs []error
	for _, ext := range []string{catalogExt, walkLogExt} {
		if err := os.Remove(s.path(code, ext)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Exists implements Store.
func (s *FileStore) Exists(_ context.Context, airport string) bool {
	code, err := airportCode(airport)
	if err != nil {
		return false
	}
	if _, err := os.Stat(s.path(code, catalogExt)); err != nil {
		s.cache.Remove(code)
		return false
	}
	return true
}

// Lock implements Store. A lock file older than the stale age is assumed to
// belong to a crashed process and is broken once.
func (s *FileStore) Lock(ctx context.Context, airport string) (func() error, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	code, err := airportCode(airport)
	if err != nil {
		return nil, err
	}
	path := s.path(code, lockExt)

	for attempt := 0; attempt < 2; attempt++ {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			_, _ = f.WriteString(strconv.Itoa(os.Getpid()) + " " + time.Now().UTC().Format(time.RFC3339) + "\n")
			_ = f.Close()
			var once sync.Once
			return func() error {
				var rerr error
				once.Do(func() {
					if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
						rerr = err
					}
				})
				return rerr
			}, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lock %s: %w", code, err)
		}

		info, serr := os.Stat(path)
		if serr != nil || time.Since(info.ModTime()) < s.staleLockAge {
			break
		}
		s.log.Warn(ctx, "breaking stale catalog lock", logger.String("airport", code),
			logger.Duration("age", time.Since(info.ModTime())))
		_ = os.Remove(path)
	}
	return nil, fmt.Errorf("%w: %s", ErrLocked, code)
}

// writeAtomic writes into a temp file in the same directory and renames it
// over path.
func writeAtomic(path string, fill func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := fill(tmp); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}
