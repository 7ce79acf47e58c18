package duckdb

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	goduckdb "github.com/marcboeker/go-duckdb"
	"go.uber.org/zap"

	"github.com/inodb/sveval/internal/sv"
	"github.com/inodb/sveval/internal/vcf"
)

// FileFingerprint identifies one version of a callset file on disk.
type FileFingerprint struct {
	Path    string
	Size    int64
	ModTime time.Time
}

// StatFile fingerprints the file at path.
func StatFile(path string) (FileFingerprint, error) {
	info, err := os.Stat(path)
	if err != nil {
		return FileFingerprint{}, err
	}
	return FileFingerprint{Path: path, Size: info.Size(), ModTime: info.ModTime()}, nil
}

// modTimeKey is the stored form of ModTime; callset_files compares it as text.
func (fp FileFingerprint) modTimeKey() string {
	return fp.ModTime.UTC().Format(time.RFC3339Nano)
}

// CallsetCache serves parsed callsets from DuckDB while the source file's
// size and modification time are unchanged, and loads through a vcf.Loader
// otherwise. Stdin ("-") is never cached.
type CallsetCache struct {
	store  *Store
	loader *vcf.Loader
	logger *zap.Logger

	mu     sync.Mutex
	hits   int
	misses int
}

// NewCallsetCache creates a cache in store for callsets built by loader.
func NewCallsetCache(store *Store, loader *vcf.Loader) *CallsetCache {
	return &CallsetCache{
		store:  store,
		loader: loader,
		logger: zap.NewNop(),
	}
}

// SetLogger sets the logger for cache hits and misses.
func (c *CallsetCache) SetLogger(logger *zap.Logger) {
	c.logger = logger
}

// Stats returns the number of cache hits and misses so far.
func (c *CallsetCache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// optionsKey distinguishes callsets of one file built with different options.
func optionsKey(opts vcf.LoadOptions) string {
	return fmt.Sprintf("%s;pass=%t;known_gt=%t", opts.Scheme, opts.RequirePass, opts.DropUnknownGenotype)
}

// Load returns the callset of path, from the cache when it is current.
func (c *CallsetCache) Load(path string) (*sv.Callset, error) {
	if path == "-" {
		return c.loader.Load(path)
	}

	fp, err := StatFile(path)
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}
	key := optionsKey(c.loader.Options())

	c.mu.Lock()
	cs, err := c.lookup(fp, key)
	if err == nil && cs != nil {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}
	if cs != nil {
		c.logger.Debug("callset cache hit", zap.String("path", path), zap.Int("records", cs.Len()))
		return cs, nil
	}

	cs, err = c.loader.Load(path)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	err = c.write(fp, key, cs)
	c.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("cache %s: %w", path, err)
	}
	c.logger.Debug("callset cached", zap.String("path", path), zap.Int("records", cs.Len()))
	return cs, nil
}

// lookup returns the cached callset, or nil when it is missing or stale.
func (c *CallsetCache) lookup(fp FileFingerprint, key string) (*sv.Callset, error) {
	var size, records int64
	var modTime string
	err := c.store.db.QueryRow(
		`SELECT size, mod_time, records FROM callset_files WHERE path=? AND options=?`,
		fp.Path, key).Scan(&size, &modTime, &records)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query callset cache: %w", err)
	}
	if size != fp.Size || modTime != fp.modTimeKey() {
		return nil, nil
	}

	rows, err := c.store.db.Query(`SELECT chrom, pos, end_pos, length, svtype, partner_chrom, zygosity
		FROM callset_records WHERE path=? AND options=? ORDER BY seq`, fp.Path, key)
	if err != nil {
		return nil, fmt.Errorf("query cached records: %w", err)
	}
	defer rows.Close()

	cs := sv.NewCallset(filepath.Base(fp.Path))
	for rows.Next() {
		var r sv.Record
		var typ, zyg string
		if err := rows.Scan(&r.Chrom, &r.Pos, &r.End, &r.Length, &typ, &r.PartnerChrom, &zyg); err != nil {
			return nil, fmt.Errorf("scan cached record: %w", err)
		}
		r.Type = sv.Type(typ)
		r.Zygosity = sv.Zygosity(zyg)
		cs.Add(&r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate cached records: %w", err)
	}
	if int64(cs.Len()) != records {
		return nil, nil
	}
	return cs, nil
}

// write replaces the cached copy of a file.
func (c *CallsetCache) write(fp FileFingerprint, key string, cs *sv.Callset) error {
	if _, err := c.store.db.Exec(`DELETE FROM callset_records WHERE path=? AND options=?`, fp.Path, key); err != nil {
		return fmt.Errorf("clear cached records: %w", err)
	}
	if _, err := c.store.db.Exec(`DELETE FROM callset_files WHERE path=? AND options=?`, fp.Path, key); err != nil {
		return fmt.Errorf("clear cached file: %w", err)
	}

	records := cs.All()
	if len(records) > 0 {
		err := c.store.append("callset_records", func(a *goduckdb.Appender) error {
			for i, r := range records {
				if err := a.AppendRow(
					fp.Path, key, int64(i),
					r.Chrom, r.Pos, r.End, r.Length,
					string(r.Type), r.PartnerChrom, string(r.Zygosity),
				); err != nil {
					return fmt.Errorf("append cached record: %w", err)
				}
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	_, err := c.store.db.Exec(`INSERT INTO callset_files VALUES (?, ?, ?, ?, ?)`,
		fp.Path, key, fp.Size, fp.modTimeKey(), int64(len(records)))
	if err != nil {
		return fmt.Errorf("insert callset file: %w", err)
	}
	return nil
}

// Invalidate drops every cached callset of path.
func (c *CallsetCache) Invalidate(path string) error {
	if _, err := c.store.db.Exec(`DELETE FROM callset_records WHERE path=?`, path); err != nil {
		return fmt.Errorf("clear cached records: %w", err)
	}
	if _, err := c.store.db.Exec(`DELETE FROM callset_files WHERE path=?`, path); err != nil {
		return fmt.Errorf("clear cached file: %w", err)
	}
	return nil
}
