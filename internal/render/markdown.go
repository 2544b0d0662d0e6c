package render

import (
	"bytes"
	"fmt"
	"text/template"

	"github.com/dshills/contractdesk/internal/contract"
)

type markdownRenderer struct{}

var mdTemplate = template.Must(template.New("contract").Parse(`# {{ .Title }}

| Field | Value |
|---|---|
{{ range .Rows }}| {{ .Label }} | {{ .Value }} |
{{ end }}
## {{ .TermsHeading }}

{{ range .Terms }}{{ . }}
{{ end }}
` + "```" + `
{{ index .Signatures 0 }}
{{ index .Signatures 1 }}
` + "```" + `

*{{ .Created }}*

[stamp]
`))

func (r *markdownRenderer) Ext() string { return ".md" }

func (r *markdownRenderer) Render(rec *contract.Record) ([]byte, error) {
	var buf bytes.Buffer
	if err := mdTemplate.Execute(&buf, layout(rec)); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}
	return buf.Bytes(), nil
}
