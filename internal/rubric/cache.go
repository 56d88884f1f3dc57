package rubric

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/admissions-triage/core/internal/domain"
	"github.com/admissions-triage/core/internal/taxonomy"
)

// Cache is the resumable JSON score cache keyed by amcas_id (§4.3
// "Resumability"). Writes are atomic: a tempfile is written, fsynced, and
// renamed over the destination so a crash mid-write never corrupts the
// cache that --resume reads back.
type Cache struct {
	path string
	mu   sync.Mutex
	data map[int64]*domain.RubricScore
}

// LoadCache reads an existing cache file, or returns an empty cache if the
// file does not exist yet.
func LoadCache(path string) (*Cache, error) {
	c := &Cache{path: path, data: make(map[int64]*domain.RubricScore)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return c, nil
		}
		return nil, fmt.Errorf("reading rubric cache %s: %w", path, err)
	}

	var entries []*domain.RubricScore
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, fmt.Errorf("parsing rubric cache %s: %w", path, err)
	}
	for _, e := range entries {
		migrateLegacyDimensionKeys(e)
		c.data[e.AMCASID] = e
	}
	return c, nil
}

// migrateLegacyDimensionKeys rewrites a cache entry's Scores/Details keys
// from a raw on-disk dimension name to the canonical name, if the entry
// predates the switch to canonical keys (§9 design note). Entries already
// keyed canonically are left untouched.
func migrateLegacyDimensionKeys(score *domain.RubricScore) {
	canonical := make(map[string]bool, len(domain.AllRubricDimensions()))
	for _, dim := range domain.AllRubricDimensions() {
		canonical[dim] = true
	}

	needsMigration := false
	for raw := range score.Scores {
		if !canonical[raw] {
			needsMigration = true
			break
		}
	}
	if !needsMigration {
		return
	}

	migratedScores := make(map[string]*int, len(score.Scores))
	for raw, v := range score.Scores {
		name, ok := taxonomy.CanonicalDimensionName(raw, score.FormatVersion)
		if !ok {
			name = raw
		}
		migratedScores[name] = v
	}
	score.Scores = migratedScores

	migratedDetails := make(map[string]domain.Evidence, len(score.Details))
	for raw, v := range score.Details {
		name, ok := taxonomy.CanonicalDimensionName(raw, score.FormatVersion)
		if !ok {
			name = raw
		}
		migratedDetails[name] = v
	}
	score.Details = migratedDetails
}

// Get returns the cached score for an applicant, if any.
func (c *Cache) Get(amcasID int64) (*domain.RubricScore, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.data[amcasID]
	return v, ok
}

// Put inserts or replaces the cached score for an applicant. The caller
// must call Flush to persist it.
func (c *Cache) Put(score *domain.RubricScore) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[score.AMCASID] = score
}

// Flush writes the full cache contents via write-tempfile-then-rename, the
// same atomicity pattern the teacher's migration runner relies on for
// schema_migrations bookkeeping (write fully or not at all).
func (c *Cache) Flush() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	entries := make([]*domain.RubricScore, 0, len(c.data))
	for _, v := range c.data {
		entries = append(entries, v)
	}

	raw, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling rubric cache: %w", err)
	}

	dir := filepath.Dir(c.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating cache dir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".rubric-cache-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp cache file: %w", err)
	}
	tmpPath := tmp.Name()
	defer os.Remove(tmpPath)

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp cache file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("syncing temp cache file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp cache file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		return fmt.Errorf("renaming temp cache file into place: %w", err)
	}
	return nil
}

// Len returns the number of cached applicants.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// All returns every cached score, for callers that bypass ScoreBatch
// entirely and want the rubric cache as it stands on disk (--skip-rubric).
func (c *Cache) All() []domain.RubricScore {
	c.mu.Lock()
	defer c.mu.Unlock()
	scores := make([]domain.RubricScore, 0, len(c.data))
	for _, v := range c.data {
		scores = append(scores, *v)
	}
	return scores
}
