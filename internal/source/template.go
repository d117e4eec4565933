package source

import (
	"bytes"
	"text/template"

	"github.com/kvlabs/schemamgr/internal/script"
)

// TemplateData is exposed to every script body under the name "." when run
// through NewTemplateMapper.
type TemplateData struct {
	VersionName string
	Direction   string
	ScriptName  string
	Vars        map[string]string
}

// NewTemplateMapper returns a script.MapFunc that renders every script's
// content as a text/template body, injecting vars alongside the script's own
// version/direction/name. A script with no template actions in it renders
// unchanged, so plain SQL/JS files pay no cost for the indirection.
func NewTemplateMapper(vars map[string]string) script.MapFunc {
	return func(content string, opts script.MapOpts) (string, error) {
		tmpl, err := template.New(opts.ItemName).Option("missingkey=error").Parse(content)
		if err != nil {
			return "", err
		}
		data := TemplateData{
			VersionName: opts.VersionName,
			Direction:   opts.Direction.String(),
			ScriptName:  opts.ItemName,
			Vars:        vars,
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return "", err
		}
		return buf.String(), nil
	}
}
