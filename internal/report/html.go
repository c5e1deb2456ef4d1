package report

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"github.com/Masterminds/sprig/v3"
)

//go:embed templates/event_testing.html
var templateFS embed.FS

var htmlTemplate = template.Must(
	template.New("event_testing.html").
		Funcs(sprig.FuncMap()).
		ParseFS(templateFS, "templates/event_testing.html"),
)

func renderHTML(w io.Writer, r Report) error {
	if err := htmlTemplate.Execute(w, r); err != nil {
		return fmt.Errorf("failed to render html report: %w", err)
	}
	return nil
}
