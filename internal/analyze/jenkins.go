package analyze

import "regexp"

// JenkinsStage is one stage block of a declarative pipeline.
type JenkinsStage struct {
	Name         string
	Tools        []string
	Artifacts    []string
	Repositories []string
}

// JenkinsPipeline summarizes a Jenkinsfile: its stages plus the deduplicated
// tools and artifact repositories referenced anywhere in it.
type JenkinsPipeline struct {
	Repository       string
	Stages           []JenkinsStage
	ToolsUsed        []string
	ArtifactoryRepos []string
}

var stageRE = regexp.MustCompile(`(?s)stage\s*['"]([^'"]+)['"]\s*\{([^}]+)\}`)

// jenkinsToolOrder fixes the reporting order of detected tools.
var jenkinsToolOrder = []string{"maven", "gradle", "grunt", "packer", "docker", "npm"}

var jenkinsToolPatterns = map[string][]*regexp.Regexp{
	"maven": {
		regexp.MustCompile(`(?i)sh\s+['"](mvn|mvnw)[^'"]*['"]`),
		regexp.MustCompile(`(?i)tool\s+['"](maven)['"]`),
		regexp.MustCompile(`(?i)withMaven\s*\{`),
	},
	"gradle": {
		regexp.MustCompile(`(?i)sh\s+['"](gradle|gradlew)[^'"]*['"]`),
		regexp.MustCompile(`(?i)tool\s+['"](gradle)['"]`),
		regexp.MustCompile(`(?i)withGradle\s*\{`),
	},
	"grunt": {
		regexp.MustCompile(`(?i)sh\s+['"](grunt)[^'"]*['"]`),
		regexp.MustCompile(`(?i)tool\s+['"](grunt)['"]`),
		regexp.MustCompile(`(?i)withGrunt\s*\{`),
		regexp.MustCompile(`(?i)grunt\s+--version`),
		regexp.MustCompile(`(?i)grunt\s+build`),
		regexp.MustCompile(`(?i)grunt\s+test`),
	},
	"packer": {
		regexp.MustCompile(`(?i)sh\s+['"](packer)[^'"]*['"]`),
		regexp.MustCompile(`(?i)tool\s+['"](packer)['"]`),
		regexp.MustCompile(`(?i)packer\s+build`),
		regexp.MustCompile(`(?i)packer\s+validate`),
		regexp.MustCompile(`(?i)packer\s+init`),
		regexp.MustCompile(`(?i)packer\s+version`),
	},
	"docker": {
		regexp.MustCompile(`(?i)sh\s+['"](docker)[^'"]*['"]`),
		regexp.MustCompile(`(?i)docker\.build\s*['"]([^'"]+)['"]`),
		regexp.MustCompile(`(?i)docker\.withRegistry\s*['"]([^'"]+)['"]`),
	},
	"npm": {
		regexp.MustCompile(`(?i)sh\s+['"](npm|yarn)[^'"]*['"]`),
		regexp.MustCompile(`(?i)tool\s+['"](nodejs|npm)['"]`),
	},
}

var jenkinsArtifactPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)archiveArtifacts\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`(?i)publishArtifacts\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`(?i)artifactoryPublish\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`(?is)grunt\s+build.*?['"]([^'"]+)['"]`),
	regexp.MustCompile(`(?is)packer\s+build.*?['"]([^'"]+)['"]`),
}

var jenkinsRepoPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)repository\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`(?i)artifactory\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`(?i)credentialsId\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`(?i)artifactory_url\s*['"]([^'"]+)['"]`),
	regexp.MustCompile(`(?i)artifactory_repo\s*['"]([^'"]+)['"]`),
}

// AnalyzeJenkinsfile splits a Jenkinsfile into stages and reports which build
// tools and artifact repositories each stage uses.
func AnalyzeJenkinsfile(content, repository string) JenkinsPipeline {
	p := JenkinsPipeline{Repository: repository}
	for _, m := range stageRE.FindAllStringSubmatch(content, -1) {
		name, body := m[1], m[2]
		stage := JenkinsStage{
			Name:         name,
			Tools:        stageTools(body),
			Artifacts:    findAll(jenkinsArtifactPatterns, body),
			Repositories: findAll(jenkinsRepoPatterns, body),
		}
		p.Stages = append(p.Stages, stage)
		p.ToolsUsed = appendUnique(p.ToolsUsed, stage.Tools...)
		p.ArtifactoryRepos = appendUnique(p.ArtifactoryRepos, stage.Repositories...)
	}
	return p
}

func stageTools(content string) []string {
	var tools []string
	for _, name := range jenkinsToolOrder {
		for _, re := range jenkinsToolPatterns[name] {
			if re.MatchString(content) {
				tools = append(tools, name)
				break
			}
		}
	}
	return tools
}

func findAll(patterns []*regexp.Regexp, content string) []string {
	var out []string
	for _, re := range patterns {
		for _, m := range re.FindAllStringSubmatch(content, -1) {
			out = append(out, m[1])
		}
	}
	return out
}

func appendUnique(dst []string, items ...string) []string {
	for _, it := range items {
		seen := false
		for _, have := range dst {
			if have == it {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, it)
		}
	}
	return dst
}
