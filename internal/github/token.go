package github

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"strings"
	"time"
)

type TokenSource string

const (
	TokenSourceExplicit TokenSource = "explicit"
	TokenSourceEnv      TokenSource = "env:GITHUB_TOKEN"
	TokenSourceConfig   TokenSource = "config"
	TokenSourceGitHubCL TokenSource = "gh"
)

// ResolveToken resolves a GitHub access token.
//
// Precedence:
//  1. explicit (--token flag)
//  2. GITHUB_TOKEN env var
//  3. config file token
//  4. GitHub CLI: `gh auth token -h github.com`
//
// The environment variable deliberately outranks the config file so tokens
// do not have to live on disk. It never prints the token.
func ResolveToken(ctx context.Context, explicit, fromConfig string) (token string, source TokenSource, err error) {
	if tok := strings.TrimSpace(explicit); tok != "" {
		return tok, TokenSourceExplicit, nil
	}

	if env := strings.TrimSpace(os.Getenv("GITHUB_TOKEN")); env != "" {
		return env, TokenSourceEnv, nil
	}

	if tok := strings.TrimSpace(fromConfig); tok != "" {
		return tok, TokenSourceConfig, nil
	}

	tok, ok, err := tokenFromGitHubCLI(ctx)
	if err != nil {
		return "", "", err
	}
	if ok {
		return tok, TokenSourceGitHubCL, nil
	}
	return "", "", nil
}

func tokenFromGitHubCLI(ctx context.Context) (token string, ok bool, err error) {
	if _, lookErr := exec.LookPath("gh"); lookErr != nil {
		return "", false, nil
	}

	// Keep this bounded so a broken gh config or credential helper
	// doesn't hang the scan.
	cmdCtx := ctx
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		cmdCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}

	cmd := exec.CommandContext(cmdCtx, "gh", "auth", "token", "-h", "github.com")
	env := os.Environ()
	filteredEnv := env[:0]
	for _, entry := range env {
		if strings.HasPrefix(entry, "GH_PAGER=") {
			continue
		}
		filteredEnv = append(filteredEnv, entry)
	}
	cmd.Env = append(filteredEnv, "GH_PAGER=cat")
	out, runErr := cmd.CombinedOutput()
	if runErr != nil {
		if cmdCtx.Err() != nil {
			return "", false, cmdCtx.Err()
		}
		// gh present but not logged in, or otherwise failing: treat as
		// "no token" without surfacing its raw output.
		return "", false, nil
	}

	tok := strings.TrimSpace(string(out))
	if tok == "" {
		return "", false, nil
	}
	if strings.ContainsAny(tok, " \t\n\r") {
		return "", false, errors.New("invalid token returned by gh: contains whitespace")
	}

	return tok, true, nil
}
