package analyze

import "regexp"

// ToolSpec describes how one build tool is detected: which files to try, in
// order of reliability, and which patterns extract its version. The first
// file yielding a version wins for that tool.
type ToolSpec struct {
	Name     string
	Files    []string
	Patterns []*regexp.Regexp
}

// BuildTools lists the supported build tools. Wrapper properties files come
// first because the distribution URL names the exact version in use; the
// Jenkinsfile tool block is the fallback.
var BuildTools = []ToolSpec{
	{
		Name: "maven",
		Files: []string{
			".mvn/wrapper/maven-wrapper.properties",
			"maven-wrapper.properties",
			"pom.xml",
			"Jenkinsfile",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?is)distributionUrl=.*?apache-maven-([\d.]+)-bin\.zip`),
			regexp.MustCompile(`(?is)<maven\.version>([^<]+)</maven\.version>`),
			regexp.MustCompile(`(?is)tool\s*['"]([^'"]+)['"]\s*\{.*?maven\s*['"]([^'"]+)['"]`),
			regexp.MustCompile(`(?is)maven\s*['"]([^'"]+)['"]`),
		},
	},
	{
		Name: "gradle",
		Files: []string{
			"gradle/wrapper/gradle-wrapper.properties",
			"gradle.properties",
			"build.gradle",
			"Jenkinsfile",
		},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?is)distributionUrl=.*?gradle-([\d.]+)-bin\.zip`),
			regexp.MustCompile(`(?is)distributionUrl=.*?gradle-([\d.]+)-all\.zip`),
			regexp.MustCompile(`(?is)gradleVersion\s*=\s*['"]([^'"]+)['"]`),
			regexp.MustCompile(`(?is)tool\s*['"]([^'"]+)['"]\s*\{.*?gradle\s*['"]([^'"]+)['"]`),
			regexp.MustCompile(`(?is)gradle\s*['"]([^'"]+)['"]`),
		},
	},
}

// javaKind says which field of a JavaFact a pattern's capture feeds.
type javaKind int

const (
	javaVersion javaKind = iota
	javaSource
	javaTarget
)

type javaPattern struct {
	re   *regexp.Regexp
	kind javaKind
}

// JavaSpec describes Java version detection for one build tool's files.
type JavaSpec struct {
	Tool     string
	Files    []string
	patterns []javaPattern
}

var JavaSpecs = []JavaSpec{
	{
		Tool:  "maven",
		Files: []string{"pom.xml"},
		patterns: []javaPattern{
			{regexp.MustCompile(`(?is)<java\.version>([^<]+)</java\.version>`), javaVersion},
			{regexp.MustCompile(`(?is)<maven\.compiler\.source>([^<]+)</maven\.compiler\.source>`), javaSource},
			{regexp.MustCompile(`(?is)<maven\.compiler\.target>([^<]+)</maven\.compiler\.target>`), javaTarget},
			{regexp.MustCompile(`(?is)<maven-compiler-plugin>.*?<source>([^<]+)</source>`), javaSource},
			{regexp.MustCompile(`(?is)<maven-compiler-plugin>.*?<target>([^<]+)</target>`), javaTarget},
			{regexp.MustCompile(`(?is)<properties>.*?<java\.version>([^<]+)</java\.version>`), javaVersion},
			{regexp.MustCompile(`(?is)<properties>.*?<maven\.compiler\.source>([^<]+)</maven\.compiler\.source>`), javaSource},
			{regexp.MustCompile(`(?is)<properties>.*?<maven\.compiler\.target>([^<]+)</maven\.compiler\.target>`), javaTarget},
		},
	},
	{
		Tool:  "gradle",
		Files: []string{"build.gradle", "build.gradle.kts", "gradle.properties"},
		patterns: []javaPattern{
			{regexp.MustCompile(`(?is)sourceCompatibility\s*=\s*['"]([^'"]+)['"]`), javaSource},
			{regexp.MustCompile(`(?is)targetCompatibility\s*=\s*['"]([^'"]+)['"]`), javaTarget},
			{regexp.MustCompile(`(?is)sourceCompatibility\s*=\s*JavaVersion\.VERSION_([^\s]+)`), javaSource},
			{regexp.MustCompile(`(?is)targetCompatibility\s*=\s*JavaVersion\.VERSION_([^\s]+)`), javaTarget},
			{regexp.MustCompile(`(?is)java\s*\{[^}]*sourceCompatibility\s*=\s*JavaVersion\.VERSION_([^\s]+)`), javaSource},
			{regexp.MustCompile(`(?is)java\s*\{[^}]*targetCompatibility\s*=\s*JavaVersion\.VERSION_([^\s]+)`), javaTarget},
			{regexp.MustCompile(`(?is)java\.version\s*=\s*([^\s]+)`), javaVersion},
			{regexp.MustCompile(`(?is)org\.gradle\.java\.home\s*=\s*([^\s]+)`), javaVersion},
		},
	},
}

// PluginSpec describes plugin version detection for one build tool's files.
type PluginSpec struct {
	Tool     string
	Name     string
	Files    []string
	Patterns []*regexp.Regexp
}

var PluginSpecs = []PluginSpec{
	{
		Tool:  "gradle",
		Name:  "publishPluginVersion",
		Files: []string{"gradle.properties"},
		Patterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)publishPluginVersion\s*=\s*([^\s]+)`),
			regexp.MustCompile(`(?i)publishPluginVersion\s*=\s*['"]([^'"]+)['"]`),
		},
	},
}
