package fetcher

import (
	"context"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/google/go-github/v66/github"

	gh "buildcheck/internal/github"
)

// FileContent is one fetched candidate file, decoded to text.
type FileContent struct {
	Path string
	Text string
}

// ContentFetcher retrieves candidate files from repositories through the
// call gate. A missing or unreadable file is not an error, just absence.
type ContentFetcher struct {
	client *gh.Client
	gate   *CallGate
	logger *log.Logger
}

func NewContentFetcher(client *gh.Client, gate *CallGate, logger *log.Logger) *ContentFetcher {
	return &ContentFetcher{client: client, gate: gate, logger: logger}
}

// Fetch retrieves one file from a repository's branch. Returns ok=false
// when the file does not exist, cannot be read, or decodes to empty text.
// Invalid byte sequences are replaced rather than rejected.
func (f *ContentFetcher) Fetch(ctx context.Context, owner, repo, ref, path string) (string, bool) {
	var content *github.RepositoryContent
	err := f.gate.Execute(ctx, "get "+path+" from "+repo, func(ctx context.Context) error {
		fc, _, resp, err := f.client.Client.Repositories.GetContents(ctx, owner, repo, path,
			&github.RepositoryContentGetOptions{Ref: ref})
		if err != nil {
			if resp != nil && resp.StatusCode == 404 {
				return nil
			}
			return err
		}
		content = fc
		return nil
	})
	if err != nil {
		f.logger.Debug("could not retrieve file", "repo", repo, "path", path, "error", err)
		return "", false
	}
	if content == nil {
		return "", false
	}

	text, err := content.GetContent()
	if err != nil {
		f.logger.Debug("could not decode file", "repo", repo, "path", path, "error", err)
		return "", false
	}
	text = strings.ToValidUTF8(text, "�")
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	return text, true
}

// FetchFirst tries candidates in the given priority order and returns the
// first file that exists and decodes to non-empty text. A later candidate
// is never returned when an earlier one matches.
func (f *ContentFetcher) FetchFirst(ctx context.Context, owner, repo, ref string, candidates []string) (FileContent, bool) {
	for _, path := range candidates {
		if text, ok := f.Fetch(ctx, owner, repo, ref, path); ok {
			return FileContent{Path: path, Text: text}, true
		}
	}
	return FileContent{}, false
}
