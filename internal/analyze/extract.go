package analyze

import (
	"fmt"
	"regexp"
	"strings"
)

// ExtractVersion tries each pattern against content and returns the first
// version found. Patterns with several capture groups (the Jenkinsfile tool
// block names the installation before the version) yield the last non-empty
// group.
func ExtractVersion(content string, patterns []*regexp.Regexp) string {
	for _, re := range patterns {
		m := re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		if len(m) > 2 {
			for i := len(m) - 1; i >= 1; i-- {
				if g := strings.TrimSpace(m[i]); g != "" {
					return g
				}
			}
			continue
		}
		if v := strings.TrimSpace(m[1]); v != "" {
			return v
		}
	}
	return ""
}

// ExtractJava runs every pattern of the spec over content and assembles the
// findings into a single fact. Later patterns overwrite earlier ones for the
// same field. The primary version falls back to source then target
// compatibility when no explicit version is declared, with any
// JavaVersion.VERSION_ prefix stripped.
func ExtractJava(content string, spec JavaSpec, filePath, repo, branch string) *JavaFact {
	var version, source, target string
	for _, p := range spec.patterns {
		m := p.re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		v := strings.TrimSpace(m[1])
		switch p.kind {
		case javaSource:
			source = v
		case javaTarget:
			target = v
		default:
			version = v
		}
	}
	if version == "" && source == "" && target == "" {
		return nil
	}
	primary := version
	if primary == "" {
		primary = source
	}
	if primary == "" {
		primary = target
	}
	primary = strings.TrimPrefix(primary, "VERSION_")
	return &JavaFact{
		Version:             primary,
		SourceCompatibility: source,
		TargetCompatibility: target,
		FilePath:            filePath,
		Repository:          repo,
		Branch:              branch,
		DetectionMethod:     fmt.Sprintf("Found in %s configuration", spec.Tool),
	}
}

// ExtractPlugin returns a fact for the first plugin pattern matching content.
func ExtractPlugin(content string, spec PluginSpec, filePath, repo, branch string) *PluginFact {
	for _, re := range spec.Patterns {
		m := re.FindStringSubmatch(content)
		if m == nil {
			continue
		}
		v := strings.TrimSpace(m[1])
		if v == "" {
			continue
		}
		return &PluginFact{
			PluginName:      spec.Name,
			Version:         v,
			FilePath:        filePath,
			Repository:      repo,
			Branch:          branch,
			DetectionMethod: fmt.Sprintf("Found in %s configuration", spec.Tool),
		}
	}
	return nil
}
