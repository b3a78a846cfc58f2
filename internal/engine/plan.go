package engine

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/google/go-github/v66/github"

	"buildcheck/internal/output"
)

// Rate limit impact levels for a predicted run.
const (
	ImpactSafe     = "safe"
	ImpactModerate = "moderate"
	ImpactRisky    = "risky"
	ImpactExceeded = "exceeded"
)

// Prediction estimates the API cost of a scan before it starts, so large
// organizations can be approached deliberately instead of discovering the
// rate limit halfway through.
type Prediction struct {
	TotalRepositories     int
	RepositoriesToAnalyze int
	DiscoveryCalls        int
	CallsPerRepository    int
	TotalCalls            int
	TimeEstimate          time.Duration
	Impact                string
	Recommendations       []string
}

// EstimateOrgSize returns a quick repository count for the organization via
// the search API, capped at 1000.
func (e *Enumerator) EstimateOrgSize(ctx context.Context, org string) (int, error) {
	var total int
	err := e.gate.Execute(ctx, "estimate organization size", func(ctx context.Context) error {
		result, _, err := e.client.Client.Search.Repositories(ctx, "org:"+org,
			&github.SearchOptions{ListOptions: github.ListOptions{PerPage: 1}})
		if err != nil {
			return err
		}
		total = result.GetTotal()
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("estimate size of %s: %w", org, err)
	}
	if total > 1000 {
		total = 1000
	}
	return total, nil
}

// Predict estimates total API calls and wall time for a scan of the given
// size. Each repository costs one contents listing, up to eight file checks,
// and its share of quota checks; Jenkins-only mode replaces the paginated
// discovery with a single search.
func Predict(estimatedRepos int, jenkinsOnly bool, remaining int, delay time.Duration) Prediction {
	discovery := int(math.Ceil(float64(estimatedRepos) / float64(discoveryPageSize)))
	analyzeShare := 0.8
	if jenkinsOnly {
		discovery = 1
		analyzeShare = 0.3
	}
	reposToAnalyze := int(float64(estimatedRepos) * analyzeShare)

	const filesPerRepo = 8
	quotaChecks := int(math.Ceil(filesPerRepo / 10.0))
	perRepo := 1 + filesPerRepo + quotaChecks
	totalCalls := discovery + reposToAnalyze*perRepo

	var timeEstimate time.Duration
	if delay > 0 {
		timeEstimate = time.Duration(totalCalls) * delay
	}

	var impact string
	switch {
	case totalCalls <= remaining/2:
		impact = ImpactSafe
	case float64(totalCalls) <= float64(remaining)*0.8:
		impact = ImpactModerate
	case totalCalls <= remaining:
		impact = ImpactRisky
	default:
		impact = ImpactExceeded
	}

	var recs []string
	switch impact {
	case ImpactExceeded:
		recs = append(recs,
			"Use --jenkins-only mode to reduce API calls",
			"Enable caching with --use-cache",
			"Consider running in multiple sessions")
	case ImpactRisky:
		recs = append(recs,
			"Enable caching to reduce API calls",
			"Consider using --jenkins-only mode")
	case ImpactModerate:
		recs = append(recs, "Enable caching for better performance")
	}
	if timeEstimate > time.Hour {
		recs = append(recs, fmt.Sprintf("Estimated time: %s - consider running overnight", timeEstimate.Round(time.Minute)))
	}

	return Prediction{
		TotalRepositories:     estimatedRepos,
		RepositoriesToAnalyze: reposToAnalyze,
		DiscoveryCalls:        discovery,
		CallsPerRepository:    perRepo,
		TotalCalls:            totalCalls,
		TimeEstimate:          timeEstimate,
		Impact:                impact,
		Recommendations:       recs,
	}
}

// Render prints the prediction to the console.
func (p Prediction) Render(c *output.Console) {
	c.Infof("API usage prediction:")
	c.Plainf("  Repositories:        %d (analyzing ~%d)", p.TotalRepositories, p.RepositoriesToAnalyze)
	c.Plainf("  Discovery calls:     %d", p.DiscoveryCalls)
	c.Plainf("  Calls per repo:      %d", p.CallsPerRepository)
	c.Plainf("  Total calls:         %d", p.TotalCalls)
	if p.TimeEstimate > 0 {
		c.Plainf("  Estimated duration:  %s", p.TimeEstimate.Round(time.Second))
	}
	switch p.Impact {
	case ImpactSafe:
		c.Successf("  Rate limit impact:   %s", p.Impact)
	case ImpactExceeded:
		c.Errorf("  Rate limit impact:   %s", p.Impact)
	default:
		c.Warnf("  Rate limit impact:   %s", p.Impact)
	}
	for _, r := range p.Recommendations {
		c.Dimf("  - %s", r)
	}
}
