// Package render implements the thin report template seam named in §6's
// "report" command: a minimal built-in text/template body, since the
// actual charting (Plotly) is the external renderer's job per spec §1's
// explicit carve-out.
package render

import (
	"io"
	"text/template"

	"github.com/Masterminds/sprig"
	"github.com/pkg/errors"
)

// Point is one rendered data point, optionally annotated with its epoch
// and any detected change points co-located at it.
type Point struct {
	CommitHash  string
	CommitTitle string
	Time        int64
	Value       float64
	Epoch       uint32
	ChangePoint bool
}

// Series is one named measurement group's time series.
type Series struct {
	Name   string
	Points []Point
}

// ReportData is everything the template needs to render a report.
type ReportData struct {
	Title       string
	CustomCSS   string
	ShowEpochs  bool
	Series      []Series
}

const defaultTemplate = `<!-- git-perf report: {{.Title}} -->
{{- if .CustomCSS}}
<link rel="stylesheet" href="{{.CustomCSS}}">
{{- end}}
<script>
// Replace this placeholder with your own charting code (e.g. Plotly).
const gitPerfSeries = [
{{- range .Series}}
  {name: {{.Name | quote}}, points: [
  {{- range .Points}}
    {commit: {{.CommitHash | quote}}, time: {{.Time}}, value: {{.Value}}{{if $.ShowEpochs}}, epoch: {{.Epoch}}{{end}}{{if .ChangePoint}}, changePoint: true{{end}}},
  {{- end}}
  ]},
{{- end}}
];
</script>
`

// Render writes data through the template at templatePath, or the
// built-in placeholder template when templatePath is empty.
func Render(w io.Writer, data ReportData, templatePath string) error {
	funcs := sprig.TxtFuncMap()
	tmpl := template.New("report").Funcs(funcs)

	var err error
	if templatePath == "" {
		tmpl, err = tmpl.Parse(defaultTemplate)
	} else {
		tmpl, err = tmpl.ParseFiles(templatePath)
		tmpl = tmpl.Lookup(baseName(templatePath))
	}
	if err != nil {
		return errors.Wrap(err, "parsing report template")
	}
	if err := tmpl.Execute(w, data); err != nil {
		return errors.Wrap(err, "executing report template")
	}
	return nil
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}
