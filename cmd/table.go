package cmd

import (
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"sjsage522/listingworker/internal/scraper"
)

func newTable(out io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(out)
	return t
}

func renderSummary(out io.Writer, s *scraper.Summary) {
	t := newTable(out)
	t.SetTitle("Scrape summary")
	t.AppendRows([]table.Row{
		{"Site", s.Site},
		{"Run", s.RunID},
		{"Output", s.Output},
		{"Pages", s.Pages},
		{"Existing records", s.Existing},
		{"New records", s.Collected},
		{"Total records", s.Total},
		{"Target reached", s.TargetReached},
		{"Elapsed", s.Elapsed.Round(time.Millisecond).String()},
	})
	t.Render()
}

func renderSites(out io.Writer, sites []*scraper.SiteConfig) {
	t := newTable(out)
	t.AppendHeader(table.Row{"Name", "Mode", "Target", "Key", "Output", "Description"})
	for _, s := range sites {
		target := "-"
		if s.Target > 0 {
			target = strconv.Itoa(s.Target)
		}
		t.AppendRow(table.Row{
			s.Name,
			string(s.Mode),
			target,
			strings.Join(s.Schema.KeyColumns, ", "),
			s.Output,
			s.Description,
		})
	}
	t.Render()
}
