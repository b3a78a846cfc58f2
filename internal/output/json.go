package output

import (
	"encoding/json"
	"fmt"
	"os"
)

type jsonBuildTool struct {
	Repository       string `json:"repository"`
	BuildTool        string `json:"build_tool"`
	BuildToolVersion string `json:"build_tool_version"`
	FilePath         string `json:"file_path"`
	DetectionMethod  string `json:"detection_method"`
}

type jsonJavaVersion struct {
	Repository          string `json:"repository"`
	JavaVersion         string `json:"java_version"`
	SourceCompatibility string `json:"source_compatibility"`
	TargetCompatibility string `json:"target_compatibility"`
	FilePath            string `json:"file_path"`
	DetectionMethod     string `json:"detection_method"`
}

type jsonPluginVersion struct {
	Repository      string `json:"repository"`
	PluginName      string `json:"plugin_name"`
	PluginVersion   string `json:"plugin_version"`
	FilePath        string `json:"file_path"`
	DetectionMethod string `json:"detection_method"`
}

type jsonSummary struct {
	TotalRepositoriesAnalyzed int   `json:"total_repositories_analyzed"`
	TotalBuildToolsFound      int   `json:"total_build_tools_found"`
	TotalJavaVersionsFound    int   `json:"total_java_versions_found"`
	TotalPluginVersionsFound  int   `json:"total_plugin_versions_found"`
	APICallsMade              int64 `json:"api_calls_made"`
	ParallelWorkersUsed       int   `json:"parallel_workers_used"`
}

type jsonReport struct {
	Organization     string              `json:"organization"`
	TargetRepository string              `json:"target_repository,omitempty"`
	AnalysisMode     string              `json:"analysis_mode"`
	BuildTools       []jsonBuildTool     `json:"build_tools"`
	JavaVersions     []jsonJavaVersion   `json:"java_versions"`
	PluginVersions   []jsonPluginVersion `json:"plugin_versions"`
	Summary          jsonSummary         `json:"summary"`
}

// MarshalJSON keeps the report's external JSON schema stable regardless of
// how the in-memory structures evolve.
func (r *Report) MarshalJSON() ([]byte, error) {
	out := jsonReport{
		Organization:     r.Organization,
		TargetRepository: r.TargetRepository,
		AnalysisMode:     r.Mode,
		BuildTools:       []jsonBuildTool{},
		JavaVersions:     []jsonJavaVersion{},
		PluginVersions:   []jsonPluginVersion{},
		Summary: jsonSummary{
			TotalRepositoriesAnalyzed: r.ReposAnalyzed,
			TotalBuildToolsFound:      len(r.BuildTools),
			TotalJavaVersionsFound:    len(r.JavaVersions),
			TotalPluginVersionsFound:  len(r.PluginVersions),
			APICallsMade:              r.APICalls,
			ParallelWorkersUsed:       r.Workers,
		},
	}
	for _, t := range r.BuildTools {
		out.BuildTools = append(out.BuildTools, jsonBuildTool{
			Repository:       t.Repository,
			BuildTool:        t.Tool,
			BuildToolVersion: t.Version,
			FilePath:         t.FilePath,
			DetectionMethod:  t.DetectionMethod,
		})
	}
	for _, j := range r.JavaVersions {
		out.JavaVersions = append(out.JavaVersions, jsonJavaVersion{
			Repository:          j.Repository,
			JavaVersion:         j.Version,
			SourceCompatibility: j.SourceCompatibility,
			TargetCompatibility: j.TargetCompatibility,
			FilePath:            j.FilePath,
			DetectionMethod:     j.DetectionMethod,
		})
	}
	for _, p := range r.PluginVersions {
		out.PluginVersions = append(out.PluginVersions, jsonPluginVersion{
			Repository:      p.Repository,
			PluginName:      p.PluginName,
			PluginVersion:   p.Version,
			FilePath:        p.FilePath,
			DetectionMethod: p.DetectionMethod,
		})
	}
	return json.MarshalIndent(out, "", "  ")
}

// WriteJSON saves the report to path.
func (r *Report) WriteJSON(path string) error {
	data, err := r.MarshalJSON()
	if err != nil {
		return fmt.Errorf("encode JSON report: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write JSON report: %w", err)
	}
	return nil
}
