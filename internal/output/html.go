package output

import (
	"fmt"
	"html/template"
	"io"
	"os"
)

// htmlTemplate is a self-contained page: summary stat cards followed by the
// detailed findings table.
var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Build Tool Analysis - {{.Organization}}</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 2rem; color: #24292f; }
  h1 { border-bottom: 2px solid #d0d7de; padding-bottom: 0.5rem; }
  .mode { color: #57606a; margin-bottom: 1.5rem; }
  .cards { display: flex; gap: 1rem; flex-wrap: wrap; margin-bottom: 2rem; }
  .card { border: 1px solid #d0d7de; border-radius: 6px; padding: 1rem 1.5rem; min-width: 10rem; }
  .card .value { font-size: 2rem; font-weight: 600; }
  .card .label { color: #57606a; font-size: 0.85rem; }
  table { border-collapse: collapse; width: 100%; }
  th, td { border: 1px solid #d0d7de; padding: 0.4rem 0.8rem; text-align: left; }
  th { background: #f6f8fa; }
  tr:nth-child(even) { background: #f6f8fa; }
</style>
</head>
<body>
<h1>Build Tool Analysis: {{.Organization}}</h1>
<p class="mode">Analysis mode: {{.Mode}}</p>
<div class="cards">
  <div class="card"><div class="value">{{.ReposAnalyzed}}</div><div class="label">Repositories analyzed</div></div>
  <div class="card"><div class="value">{{len .BuildTools}}</div><div class="label">Build tools found</div></div>
  <div class="card"><div class="value">{{len .JavaVersions}}</div><div class="label">Java versions found</div></div>
  <div class="card"><div class="value">{{len .PluginVersions}}</div><div class="label">Plugin versions found</div></div>
  <div class="card"><div class="value">{{.APICalls}}</div><div class="label">API calls made</div></div>
</div>
{{if .TableRows}}
<table>
<tr><th>Repository</th><th>Type</th><th>Name</th><th>Version</th><th>Config File</th><th>Detection Method</th></tr>
{{range .TableRows}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{end}}
</table>
{{else}}
<p>No build tool, Java, or plugin versions were detected.</p>
{{end}}
</body>
</html>
`))

// WriteHTML saves the report as a standalone HTML page.
func (r *Report) WriteHTML(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create HTML report: %w", err)
	}
	if err := r.writeHTML(f); err != nil {
		f.Close()
		return fmt.Errorf("write HTML report: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("write HTML report: %w", err)
	}
	return nil
}

func (r *Report) writeHTML(w io.Writer) error {
	return htmlTemplate.Execute(w, r)
}
