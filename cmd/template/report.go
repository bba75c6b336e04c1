package template

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/rmohr/treereduce/pkg/tree"
)

// Summary describes a finished reduction.
type Summary struct {
	Reducer      string
	OriginalSize int
	ReducedSize  int
	Checks       int
	Reductions   int
	Duration     time.Duration
	Aborted      string
}

func RenderSummary(writer io.Writer, s Summary) error {
	tabWriter := tabwriter.NewWriter(writer, 0, 8, 1, '\t', 0)
	if _, err := fmt.Fprintf(tabWriter, "Reducer:\t%s\n", s.Reducer); err != nil {
		return fmt.Errorf("failed to write header: %v", err)
	}
	rows := [][2]string{
		{"Original size", toReadableQuantity(s.OriginalSize)},
		{"Reduced size", fmt.Sprintf("%s (%.2f%%)", toReadableQuantity(s.ReducedSize), percent(s.ReducedSize, s.OriginalSize))},
		{"Checks", fmt.Sprintf("%d", s.Checks)},
		{"Reductions", fmt.Sprintf("%d", s.Reductions)},
		{"Time", s.Duration.Round(time.Millisecond).String()},
	}
	if s.Aborted != "" {
		rows = append(rows, [2]string{"Aborted", s.Aborted})
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(tabWriter, " %s\t%s\n", row[0], row[1]); err != nil {
			return fmt.Errorf("failed to write entry: %v", err)
		}
	}
	if err := tabWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %v", err)
	}
	return nil
}

func RenderStatistics(writer io.Writer, s tree.Statistics) error {
	tabWriter := tabwriter.NewWriter(writer, 0, 8, 1, '\t', 0)
	if _, err := fmt.Fprintln(tabWriter, "Nodes\tCount"); err != nil {
		return fmt.Errorf("failed to write header: %v", err)
	}
	rows := []struct {
		name  string
		count int
	}{
		{"Terminals", s.Terminals},
		{"Non-terminals", s.NonTerminals},
		{"Auxiliary", s.Auxiliary},
		{"Quantifiers", s.Quantifiers},
		{"Single item quantifiers", s.SingleItemQuantifiers},
		{"List items", s.ListItems},
	}
	for _, row := range rows {
		if _, err := fmt.Fprintf(tabWriter, " %s\t%d\n", row.name, row.count); err != nil {
			return fmt.Errorf("failed to write entry: %v", err)
		}
	}
	if _, err := fmt.Fprintf(tabWriter, "Total:\t%d\n", s.Terminals+s.NonTerminals); err != nil {
		return fmt.Errorf("failed to write header: %v", err)
	}
	if err := tabWriter.Flush(); err != nil {
		return fmt.Errorf("failed to flush table: %v", err)
	}
	return nil
}

func percent(part, whole int) float64 {
	if whole == 0 {
		return 0
	}
	return 100 * float64(part) / float64(whole)
}

// toReadableQuantity prints a size in bytes with a metric suffix.
func toReadableQuantity(bytes int) string {
	if bytes > 1000*1000*1000 {
		q := float64(bytes) / 1000 / 1000 / 1000
		return fmt.Sprintf("%.2f G", q)
	} else if bytes > 1000*1000 {
		q := float64(bytes) / 1000 / 1000
		return fmt.Sprintf("%.2f M", q)
	} else if bytes > 1000 {
		q := float64(bytes) / 1000
		return fmt.Sprintf("%.2f K", q)
	} else {
		return fmt.Sprintf("%d", bytes)
	}
}
