package server

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"strings"
)

//go:embed templates/*
var templateFiles embed.FS

func TemplateFilesFS() fs.FS {
	subFS, err := fs.Sub(templateFiles, "templates")
	if err != nil {
		panic("Failed to create templates sub filesystem: " + err.Error())
	}
	return subFS
}

// templateFuncs are available to every template.
var templateFuncs = template.FuncMap{
	"price": func(v float64) string {
		return fmt.Sprintf("%.2f", v)
	},
	"upper": strings.ToUpper,
	"deref": func(v *int) int {
		if v == nil {
			return 0
		}
		return *v
	},
}

// ParseTemplate parses the named templates from the embedded filesystem. The
// first name is the template's name; later files supply the blocks it uses.
func ParseTemplate(names ...string) (*template.Template, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("[ParseTemplate] at least one template name is required")
	}
	return template.New(names[0]).Funcs(templateFuncs).ParseFS(TemplateFilesFS(), names...)
}

// parsePage parses page within the dashboard layout. Pages are rendered with
// ExecuteTemplate(w, "layout", data).
func parsePage(page string, partials ...string) *template.Template {
	names := append([]string{"layout.html", "error.html", page}, partials...)
	tmpl, err := ParseTemplate(names...)
	if err != nil {
		panic("Failed to parse " + page + " template: " + err.Error())
	}
	return tmpl
}
