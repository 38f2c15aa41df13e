package golang

import (
	"embed"
	"text/template"

	"github.com/syssam/datatype/compiler/gen"
)

//go:embed template/datatype.tmpl
var templateFS embed.FS

var supportTemplate = template.Must(template.ParseFS(templateFS, "template/datatype.tmpl"))

// genSupport generates datatype.go: the Value contract, the Some helper and
// the hashing, equality and formatting helpers used by the generated types.
func genSupport(h gen.GeneratorHelper) *gen.TemplateFile {
	return &gen.TemplateFile{
		Name:     gen.SupportFile + ".go",
		Template: supportTemplate,
		Data: struct {
			Header  []string
			Package string
		}{
			Header:  h.HeaderLines(),
			Package: h.Pkg(),
		},
	}
}
