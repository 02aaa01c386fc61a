package app

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"

	"github.com/stacklok/ballpark/internal/dataset"
	"github.com/stacklok/ballpark/internal/filtering"
	"github.com/stacklok/ballpark/internal/service"
)

// renderTable writes header and rows as a bordered text table
func renderTable(w io.Writer, header []string, rows [][]string) error {
	table := tablewriter.NewWriter(w)
	table.Header(toAny(header)...)
	for _, row := range rows {
		if err := table.Append(toAny(row)...); err != nil {
			return fmt.Errorf("failed to append row: %w", err)
		}
	}
	return table.Render()
}

func toAny(cells []string) []any {
	out := make([]any, len(cells))
	for i, c := range cells {
		out[i] = c
	}
	return out
}

func recordCells(rec dataset.Record) []string {
	cells := make([]string, len(rec))
	for i, v := range rec {
		cells[i] = v.String()
	}
	return cells
}

// renderDataset writes at most limit rows of ds; limit <= 0 writes every row
func renderDataset(w io.Writer, ds *dataset.Dataset, limit int) error {
	n := ds.Len()
	if limit > 0 && limit < n {
		n = limit
	}
	rows := make([][]string, 0, n)
	for i := 0; i < n; i++ {
		rows = append(rows, recordCells(ds.Row(i)))
	}
	if err := renderTable(w, ds.ColumnNames(), rows); err != nil {
		return err
	}
	if n < ds.Len() {
		_, err := fmt.Fprintf(w, "(%d of %d rows)\n", n, ds.Len())
		return err
	}
	return nil
}

func renderComparison(w io.Writer, table *filtering.ComparisonTable) error {
	header := append([]string{"Name"}, table.Metrics...)
	rows := make([][]string, 0, len(table.Rows))
	for _, r := range table.Rows {
		rows = append(rows, append([]string{r.Name}, recordCells(r.Values)...))
	}
	return renderTable(w, header, rows)
}

func renderNotices(w io.Writer, notices []filtering.Notice) error {
	for _, n := range notices {
		if _, err := fmt.Fprintf(w, "[%s] %s\n", n.Level, n.Message); err != nil {
			return err
		}
	}
	return nil
}

// renderPanel writes the filter summary, notices, filtered rows and comparison of a panel view
func renderPanel(w io.Writer, view *service.PanelView, limit int) error {
	if _, err := fmt.Fprintf(w, "%s (%s)\n", view.Title, view.DatasetLabel); err != nil {
		return err
	}
	if view.SelectedTeam != "" {
		if _, err := fmt.Fprintf(w, "Team: %s\n", view.SelectedTeam); err != nil {
			return err
		}
	}
	if th := view.Threshold; th != nil {
		if _, err := fmt.Fprintf(w, "%s: %s (range %s to %s)\n", th.Label,
			formatFloat(th.Value), formatFloat(th.Min), formatFloat(th.Max)); err != nil {
			return err
		}
	}
	if err := renderNotices(w, view.Notices); err != nil {
		return err
	}
	if view.Disabled || view.Filtered == nil {
		return nil
	}

	if _, err := fmt.Fprintf(w, "\nFiltered rows: %d\n", view.RowCount); err != nil {
		return err
	}
	if err := renderDataset(w, view.Filtered, limit); err != nil {
		return err
	}

	if view.Comparison == nil {
		return nil
	}
	if _, err := fmt.Fprintf(w, "\n%s\n", view.ChartTitle); err != nil {
		return err
	}
	return renderComparison(w, view.Comparison)
}

// renderDatasets writes one line per configured dataset
func renderDatasets(w io.Writer, infos []service.DatasetInfo) error {
	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		state := "loaded"
		if !info.Loaded {
			state = "error: " + info.Error
		}
		rows = append(rows, []string{
			info.ID,
			info.Label,
			info.Format,
			strconv.Itoa(info.Rows),
			strconv.Itoa(len(info.Columns)),
			strings.Join(info.NumericColumns, " "),
			state,
		})
	}
	return renderTable(w, []string{"ID", "Label", "Format", "Rows", "Columns", "Numeric Columns", "Status"}, rows)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
