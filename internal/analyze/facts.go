// Package analyze extracts build tool, Java, and plugin version facts from
// repository configuration files.
package analyze

// BuildToolFact records a build tool version found in one repository.
type BuildToolFact struct {
	Tool            string
	Version         string
	FilePath        string
	Repository      string
	Branch          string
	DetectionMethod string
}

// JavaFact records Java version and compatibility settings found in one
// repository. Version is the primary value; source and target compatibility
// are kept separately when the configuration declares them.
type JavaFact struct {
	Version             string
	SourceCompatibility string
	TargetCompatibility string
	FilePath            string
	Repository          string
	Branch              string
	DetectionMethod     string
}

// PluginFact records a plugin version property found in one repository.
type PluginFact struct {
	PluginName      string
	Version         string
	FilePath        string
	Repository      string
	Branch          string
	DetectionMethod string
}
