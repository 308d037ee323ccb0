package cli

import (
	"fmt"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/forPelevin/hlshorts/internal/usecase"
)

// renderReport prints one row per clip followed by the job outcome.
func renderReport(rep usecase.Report) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"#", "Range", "State", "Captions", "Title / Error"})
	for _, c := range rep.Clips {
		detail := c.Title
		if c.Err != nil {
			detail = fmt.Sprintf("%s: %s", c.FailedAt, firstLine(c.Err))
		}
		captions := "no"
		if c.Captioned {
			captions = "yes"
		}
		tw.AppendRow(table.Row{c.Index, fmt.Sprintf("%.1fs-%.1fs", c.Start, c.End), string(c.State), captions, detail})
	}
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignRight},
		{Number: 2, Align: text.AlignRight},
		{Number: 5, WidthMax: 60},
	})

	summary := fmt.Sprintf("%s: %d delivered, %d failed", rep.State, rep.Delivered(), rep.Failed())
	if rep.Err != nil {
		summary = fmt.Sprintf("%s: %s", rep.State, firstLine(rep.Err))
	}
	if len(rep.Clips) == 0 {
		return summary
	}
	return tw.Render() + "\n" + summary
}

func firstLine(err error) string {
	line, _, _ := strings.Cut(err.Error(), "\n")
	return line
}
