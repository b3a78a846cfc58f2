package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
)

var csvHeader = []string{
	"Repository", "Type", "Name", "Version",
	"Source Compatibility", "Target Compatibility",
	"Config File", "Detection Method",
}

// WriteCSV saves all findings as a flat CSV file, one row per finding.
// Compatibility columns are only populated for Java rows.
func (r *Report) WriteCSV(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create CSV report: %w", err)
	}
	if err := r.writeCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("write CSV report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write CSV report: %w", err)
	}
	return nil
}

func (r *Report) writeCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, t := range r.BuildTools {
		if err := cw.Write([]string{t.Repository, "Build Tool", t.Tool, t.Version, "", "", t.FilePath, t.DetectionMethod}); err != nil {
			return err
		}
	}
	for _, j := range r.JavaVersions {
		if err := cw.Write([]string{j.Repository, "Java Version", "Java", j.Version, j.SourceCompatibility, j.TargetCompatibility, j.FilePath, j.DetectionMethod}); err != nil {
			return err
		}
	}
	for _, p := range r.PluginVersions {
		if err := cw.Write([]string{p.Repository, "Plugin Version", p.PluginName, p.Version, "", "", p.FilePath, p.DetectionMethod}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
