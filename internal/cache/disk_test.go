package cache

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
)

func testCache(t *testing.T, ttl time.Duration) *DiskCache {
	t.Helper()
	return New(t.TempDir(), ttl, log.New(io.Discard))
}

var sample = []RepoRecord{
	{Name: "api", FullName: "acme/api", DefaultBranch: "main", Size: 12},
	{Name: "web", FullName: "acme/web", DefaultBranch: "master", Archived: true, Size: 3},
}

func TestReadWriteRoundTrip(t *testing.T) {
	c := testCache(t, time.Hour)

	if _, ok := c.Read("acme", KindAllRepos); ok {
		t.Fatal("expected miss before write")
	}
	if err := c.Write("acme", KindAllRepos, sample); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	got, ok := c.Read("acme", KindAllRepos)
	if !ok {
		t.Fatal("expected hit after write")
	}
	if len(got) != 2 || got[0].FullName != "acme/api" || !got[1].Archived {
		t.Fatalf("unexpected records: %+v", got)
	}
}

func TestKindsAreSeparate(t *testing.T) {
	c := testCache(t, time.Hour)
	if err := c.Write("acme", KindAllRepos, sample); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, ok := c.Read("acme", KindJenkins); ok {
		t.Fatal("jenkins kind should not see the all_repos entry")
	}
}

func TestExpiry(t *testing.T) {
	c := testCache(t, time.Hour)
	if err := c.Write("acme", KindAllRepos, sample); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	old := time.Now().Add(-2 * time.Hour)
	p := filepath.Join(c.Dir(), FileName("acme", KindAllRepos))
	if err := os.Chtimes(p, old, old); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	if _, ok := c.Read("acme", KindAllRepos); ok {
		t.Fatal("expected expired entry to miss")
	}

	// A fresh write over the expired file serves again.
	if err := c.Write("acme", KindAllRepos, sample); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	if _, ok := c.Read("acme", KindAllRepos); !ok {
		t.Fatal("expected hit after rewrite")
	}
}

func TestCorruptEntryIsRemoved(t *testing.T) {
	c := testCache(t, time.Hour)
	if err := os.MkdirAll(c.Dir(), 0o755); err != nil {
		t.Fatal(err)
	}
	p := filepath.Join(c.Dir(), FileName("acme", KindAllRepos))
	if err := os.WriteFile(p, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	if _, ok := c.Read("acme", KindAllRepos); ok {
		t.Fatal("expected corrupt entry to miss")
	}
	if _, err := os.Stat(p); !os.IsNotExist(err) {
		t.Fatal("expected corrupt entry to be removed")
	}
}

func TestSanitizeKey(t *testing.T) {
	cases := map[string]string{
		"Acme":        "acme",
		"my org/team": "my_org_team",
		"a.b_c-d":     "a.b_c-d",
	}
	for in, want := range cases {
		if got := sanitizeKey(in); got != want {
			t.Errorf("sanitizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestClear(t *testing.T) {
	c := testCache(t, time.Hour)
	for _, org := range []string{"acme", "globex"} {
		if err := c.Write(org, KindAllRepos, sample); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
		if err := c.Write(org, KindJenkins, sample[:1]); err != nil {
			t.Fatalf("Write failed: %v", err)
		}
	}

	t.Run("single org", func(t *testing.T) {
		n, err := c.Clear("acme")
		if err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		if n != 2 {
			t.Fatalf("expected 2 removals, got %d", n)
		}
		if _, ok := c.Read("globex", KindAllRepos); !ok {
			t.Fatal("other org's entries must survive")
		}
	})

	t.Run("everything", func(t *testing.T) {
		n, err := c.Clear("")
		if err != nil {
			t.Fatalf("Clear failed: %v", err)
		}
		if n != 2 {
			t.Fatalf("expected 2 removals, got %d", n)
		}
	})

	t.Run("missing dir", func(t *testing.T) {
		empty := New(filepath.Join(t.TempDir(), "never-created"), time.Hour, log.New(io.Discard))
		if n, err := empty.Clear(""); err != nil || n != 0 {
			t.Fatalf("Clear on missing dir: n=%d err=%v", n, err)
		}
	})
}

func TestListAndInspect(t *testing.T) {
	c := testCache(t, time.Hour)
	if err := c.Write("acme", KindAllRepos, sample); err != nil {
		t.Fatalf("Write failed: %v", err)
	}

	if err := c.Write("globex", KindAllRepos, sample); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	old := time.Now().Add(-30 * time.Minute)
	if err := os.Chtimes(filepath.Join(c.Dir(), FileName("globex", KindAllRepos)), old, old); err != nil {
		t.Fatalf("Chtimes failed: %v", err)
	}

	entries, err := c.List()
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(entries) != 2 || entries[0].Name != "globex_all_repos.json" || entries[1].Name != "acme_all_repos.json" {
		t.Fatalf("expected oldest first, got %+v", entries)
	}
	if entries[0].Expired || entries[1].Expired {
		t.Fatalf("unexpected expiry: %+v", entries)
	}

	entry, repos, err := c.Inspect("acme_all_repos.json")
	if err != nil {
		t.Fatalf("Inspect failed: %v", err)
	}
	if entry.Name != "acme_all_repos.json" || len(repos) != 2 {
		t.Fatalf("unexpected inspect result: %+v, %d repos", entry, len(repos))
	}
}
