package report

import (
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

func renderTable(w io.Writer, r Report, colour bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	if !colour {
		t.SetStyle(table.StyleLight)
	}

	t.AppendHeader(table.Row{"SYSTEM", "OBJECT TYPE", "OBJECT", "EVENT", "REGISTERED", "ARRIVAL (S)", "STATUS"})
	for _, e := range r.Entries {
		status := e.Status
		if colour {
			if e.Matched {
				status = text.FgGreen.Sprint(status)
			} else {
				status = text.FgRed.Sprint(status)
			}
		}
		t.AppendRow(table.Row{e.SystemType, e.ObjectType, e.ObjectID, e.Event, e.Registered(), e.Arrival(), status})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "TOTAL", fmt.Sprintf("%d/%d", r.Matched, r.Total)})
	t.Render()
}
