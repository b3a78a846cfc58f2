// Package cache persists repository listings between runs so that repeated
// scans of the same organization do not re-enumerate it over the API.
package cache

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Cache kinds. Each kind is cached in its own file per organization.
const (
	KindAllRepos = "all_repos"
	KindJenkins  = "jenkins_repos"
)

// RepoRecord is the cached subset of repository metadata the scan needs.
type RepoRecord struct {
	Name          string `json:"name"`
	FullName      string `json:"full_name"`
	DefaultBranch string `json:"default_branch"`
	Archived      bool   `json:"archived"`
	Size          int    `json:"size"`
}

// DiskCache reads and writes JSON listing files under a single directory.
// Freshness is judged by file modification time against a fixed TTL.
type DiskCache struct {
	dir    string
	ttl    time.Duration
	logger *log.Logger

	now func() time.Time
}

func New(dir string, ttl time.Duration, logger *log.Logger) *DiskCache {
	return &DiskCache{dir: dir, ttl: ttl, logger: logger, now: time.Now}
}

// Dir returns the cache directory.
func (c *DiskCache) Dir() string { return c.dir }

// sanitizeKey maps an organization name onto a safe filename fragment.
// Case is folded so "Acme" and "acme" share a cache entry.
func sanitizeKey(org string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(org) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.', r == '_', r == '-':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// FileName returns the cache file name for an organization and kind.
func FileName(org, kind string) string {
	return sanitizeKey(org) + "_" + kind + ".json"
}

func (c *DiskCache) path(org, kind string) string {
	return filepath.Join(c.dir, FileName(org, kind))
}

// Read returns the cached listing for org and kind, or false when the entry
// is absent, expired, or unreadable. A corrupt entry is removed so the next
// write starts clean.
func (c *DiskCache) Read(org, kind string) ([]RepoRecord, bool) {
	p := c.path(org, kind)
	info, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	age := c.now().Sub(info.ModTime())
	if age > c.ttl {
		c.logger.Debug("cache entry expired", "file", p, "age", age)
		return nil, false
	}
	data, err := os.ReadFile(p)
	if err != nil {
		c.logger.Warn("cache entry unreadable", "file", p, "err", err)
		return nil, false
	}
	var repos []RepoRecord
	if err := json.Unmarshal(data, &repos); err != nil {
		c.logger.Warn("cache entry corrupt, removing", "file", p, "err", err)
		os.Remove(p)
		return nil, false
	}
	c.logger.Debug("cache hit", "file", p, "repos", len(repos), "age", age)
	return repos, true
}

// Write stores a listing for org and kind, creating the cache directory on
// first use. A write failure is reported but never fatal to the caller.
func (c *DiskCache) Write(org, kind string, repos []RepoRecord) error {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return fmt.Errorf("create cache dir: %w", err)
	}
	data, err := json.MarshalIndent(repos, "", "  ")
	if err != nil {
		return fmt.Errorf("encode cache entry: %w", err)
	}
	p := c.path(org, kind)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return fmt.Errorf("write cache entry: %w", err)
	}
	c.logger.Debug("cache written", "file", p, "repos", len(repos))
	return nil
}

// Clear removes cache entries. With an empty org every .json file in the
// cache directory goes; otherwise only that organization's entries do.
// It returns the number of files removed.
func (c *DiskCache) Clear(org string) (int, error) {
	entries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache dir: %w", err)
	}
	prefix := ""
	if org != "" {
		prefix = sanitizeKey(org) + "_"
	}
	removed := 0
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		if prefix != "" && !strings.HasPrefix(name, prefix) {
			continue
		}
		if err := os.Remove(filepath.Join(c.dir, name)); err != nil {
			return removed, fmt.Errorf("remove %s: %w", name, err)
		}
		removed++
	}
	return removed, nil
}

// Entry describes one cache file for listing purposes.
type Entry struct {
	Name    string
	Size    int64
	ModTime time.Time
	Expired bool
}

// List returns the cache files currently on disk, oldest first.
func (c *DiskCache) List() ([]Entry, error) {
	dirEntries, err := os.ReadDir(c.dir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read cache dir: %w", err)
	}
	var out []Entry
	for _, e := range dirEntries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		out = append(out, Entry{
			Name:    e.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
			Expired: c.now().Sub(info.ModTime()) > c.ttl,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModTime.Before(out[j].ModTime) })
	return out, nil
}

// Inspect loads a single cache file by name for display.
func (c *DiskCache) Inspect(name string) (Entry, []RepoRecord, error) {
	p := filepath.Join(c.dir, filepath.Base(name))
	info, err := os.Stat(p)
	if err != nil {
		return Entry{}, nil, fmt.Errorf("stat cache file: %w", err)
	}
	data, err := os.ReadFile(p)
	if err != nil {
		return Entry{}, nil, fmt.Errorf("read cache file: %w", err)
	}
	var repos []RepoRecord
	if err := json.Unmarshal(data, &repos); err != nil {
		return Entry{}, nil, fmt.Errorf("decode cache file: %w", err)
	}
	entry := Entry{
		Name:    filepath.Base(p),
		Size:    info.Size(),
		ModTime: info.ModTime(),
		Expired: c.now().Sub(info.ModTime()) > c.ttl,
	}
	return entry, repos, nil
}
