package output

import (
	"sort"

	"github.com/olekukonko/tablewriter"

	"buildcheck/internal/analyze"
)

// Report aggregates everything one scan found, plus the run metadata the
// summary and exports need.
type Report struct {
	Organization     string
	TargetRepository string
	Mode             string
	BuildTools       []analyze.BuildToolFact
	JavaVersions     []analyze.JavaFact
	PluginVersions   []analyze.PluginFact
	Pipelines        []analyze.JenkinsPipeline
	ReposAnalyzed    int
	APICalls         int64
	Workers          int
	QuotaRemaining   int
	QuotaLimit       int
}

// Render prints the full analysis report: mode banner, per-tool version
// summaries grouped by version, Jenkins pipeline details when present, and
// the detailed findings table.
func (r *Report) Render(c *Console) {
	c.Plainf("")
	c.Plainf("================================================================================")
	c.Infof("BUILD TOOL, JAVA VERSION, AND PLUGIN VERSION ANALYSIS REPORT")
	c.Plainf("================================================================================")

	switch r.Mode {
	case "jenkins_only":
		c.Successf("\nANALYSIS MODE: Jenkins-only")
		c.Plainf("Only repositories with Jenkinsfiles were analyzed")
	case "single_repository":
		c.Infof("\nANALYSIS MODE: Single repository (%s)", r.TargetRepository)
	default:
		c.Infof("\nANALYSIS MODE: Full analysis")
		c.Plainf("All repositories were analyzed")
	}

	r.renderBuildToolSummary(c)
	r.renderJavaSummary(c)
	r.renderPluginSummary(c)
	r.renderPipelines(c)
	r.renderTable(c)

	c.Plainf("")
	c.Infof("Total repositories analyzed: %d", r.ReposAnalyzed)
	c.Infof("Total API calls made: %d", r.APICalls)
	c.Infof("Parallel workers used: %d", r.Workers)
	if r.QuotaLimit > 0 {
		c.Infof("Remaining API calls: %d/%d", r.QuotaRemaining, r.QuotaLimit)
	}
}

// versionRepos maps version -> sorted repository names.
func versionRepos(keyOf func(i int) (version, repo string), n int) map[string][]string {
	byVersion := make(map[string]map[string]struct{})
	for i := 0; i < n; i++ {
		version, repo := keyOf(i)
		if byVersion[version] == nil {
			byVersion[version] = make(map[string]struct{})
		}
		byVersion[version][repo] = struct{}{}
	}
	out := make(map[string][]string, len(byVersion))
	for version, repos := range byVersion {
		names := make([]string, 0, len(repos))
		for repo := range repos {
			names = append(names, repo)
		}
		sort.Strings(names)
		out[version] = names
	}
	return out
}

func sortedKeys(m map[string][]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (r *Report) renderBuildToolSummary(c *Console) {
	if len(r.BuildTools) == 0 {
		return
	}
	c.Successf("\nBUILD TOOL VERSIONS FOUND:")

	byTool := make(map[string][]analyze.BuildToolFact)
	var toolNames []string
	for _, t := range r.BuildTools {
		if _, ok := byTool[t.Tool]; !ok {
			toolNames = append(toolNames, t.Tool)
		}
		byTool[t.Tool] = append(byTool[t.Tool], t)
	}
	sort.Strings(toolNames)

	for _, tool := range toolNames {
		facts := byTool[tool]
		c.Plainf("\n%s build tool versions:", tool)
		grouped := versionRepos(func(i int) (string, string) {
			return facts[i].Version, facts[i].Repository
		}, len(facts))
		for _, version := range sortedKeys(grouped) {
			repos := grouped[version]
			c.Plainf("  Version: %s - used in %d repositories", version, len(repos))
			for _, repo := range repos {
				c.Dimf("    - %s", repo)
			}
		}
	}
}

func (r *Report) renderJavaSummary(c *Console) {
	if len(r.JavaVersions) == 0 {
		return
	}
	c.Successf("\nJAVA VERSIONS FOUND:")
	c.Dimf("These are the Java versions the applications are built with")

	grouped := versionRepos(func(i int) (string, string) {
		return r.JavaVersions[i].Version, r.JavaVersions[i].Repository
	}, len(r.JavaVersions))
	for _, version := range sortedKeys(grouped) {
		repos := grouped[version]
		c.Plainf("  Java version: %s - used in %d repositories", version, len(repos))
		for _, repo := range repos {
			c.Dimf("    - %s", repo)
		}
	}
}

func (r *Report) renderPluginSummary(c *Console) {
	if len(r.PluginVersions) == 0 {
		return
	}
	c.Successf("\nPLUGIN VERSIONS FOUND:")
	c.Dimf("These are plugin versions found in gradle.properties files")

	grouped := versionRepos(func(i int) (string, string) {
		return r.PluginVersions[i].Version, r.PluginVersions[i].Repository
	}, len(r.PluginVersions))
	for _, version := range sortedKeys(grouped) {
		repos := grouped[version]
		c.Plainf("  Version: %s - used in %d repositories", version, len(repos))
		for _, repo := range repos {
			c.Dimf("    - %s", repo)
		}
	}
}

func (r *Report) renderPipelines(c *Console) {
	if len(r.Pipelines) == 0 {
		return
	}
	c.Successf("\nJENKINS PIPELINES:")
	for _, p := range r.Pipelines {
		c.Plainf("  %s: %d stages", p.Repository, len(p.Stages))
		for _, s := range p.Stages {
			if len(s.Tools) > 0 {
				c.Dimf("    stage %q uses %v", s.Name, s.Tools)
			}
		}
	}
}

func (r *Report) renderTable(c *Console) {
	rows := r.TableRows()
	if len(rows) == 0 {
		c.Warnf("\nNo build tool, Java, or plugin versions were detected")
		return
	}
	c.Plainf("")
	table := tablewriter.NewWriter(c.Out())
	table.SetHeader([]string{"Repository", "Type", "Name", "Version", "Config File", "Detection Method"})
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}

// TableRows flattens all findings into detailed table rows, build tools
// first, then Java versions, then plugins.
func (r *Report) TableRows() [][]string {
	var rows [][]string
	for _, t := range r.BuildTools {
		rows = append(rows, []string{t.Repository, "Build Tool", t.Tool, t.Version, t.FilePath, t.DetectionMethod})
	}
	for _, j := range r.JavaVersions {
		rows = append(rows, []string{j.Repository, "Java Version", "Java", j.Version, j.FilePath, j.DetectionMethod})
	}
	for _, p := range r.PluginVersions {
		rows = append(rows, []string{p.Repository, "Plugin Version", p.PluginName, p.Version, p.FilePath, p.DetectionMethod})
	}
	return rows
}
