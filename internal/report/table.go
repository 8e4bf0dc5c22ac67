package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"
)

func WriteTable(r *Report, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)

	fmt.Fprintf(tw, "\n=== %s ===\n", r.Project)
	fmt.Fprintf(tw, "device=%s lr=%g epochs=%d target=%g\n\n", r.Device, r.LearningRate, r.Epochs, r.Target)

	writeRepeatTable(tw, r)
	writeStatsTable(tw, r)

	return tw.Flush()
}

func writeRepeatTable(tw *tabwriter.Writer, r *Report) {
	header := []string{"Repeat", "Run", "Placement", "Weight", "|Error|", "Loss", "Duration"}
	writeHeader(tw, header)

	for _, e := range r.Repeats {
		row := []string{
			fmt.Sprintf("%d", e.Index),
			shortID(e.RunID),
			e.Placement,
			fmt.Sprintf("%.6f", e.FinalWeight),
			fmt.Sprintf("%.6f", e.AbsError),
			fmtLoss(e.FinalLoss),
			fmtDuration(e.Duration),
		}
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}

	fmt.Fprintln(tw)
}

func writeStatsTable(tw *tabwriter.Writer, r *Report) {
	fmt.Fprintf(tw, "Final Weight Statistics (across %d repeats)\n\n", r.Stats.SampleCount)

	header := []string{"Min", "p25", "Median", "p75", "Max", "Mean", "Stddev"}
	writeHeader(tw, header)

	s := r.Stats
	row := []string{
		fmt.Sprintf("%.6f", s.Min),
		fmt.Sprintf("%.6f", s.Percentiles[25]),
		fmt.Sprintf("%.6f", s.Median),
		fmt.Sprintf("%.6f", s.Percentiles[75]),
		fmt.Sprintf("%.6f", s.Max),
		fmt.Sprintf("%.6f", s.Mean),
		fmt.Sprintf("%.6f", s.Stddev),
	}
	fmt.Fprintln(tw, strings.Join(row, "\t"))
	fmt.Fprintln(tw)
}

func writeHeader(tw *tabwriter.Writer, header []string) {
	fmt.Fprintln(tw, strings.Join(header, "\t"))

	sep := make([]string, len(header))
	for i := range sep {
		sep[i] = "---"
	}
	fmt.Fprintln(tw, strings.Join(sep, "\t"))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func fmtLoss(loss *float64) string {
	if loss == nil {
		return "N/A"
	}
	return fmt.Sprintf("%.3e", *loss)
}

func fmtDuration(d time.Duration) string {
	if d == 0 {
		return "-"
	}
	if d < time.Millisecond {
		return fmt.Sprintf("%.1fµs", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.2fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.2fs", d.Seconds())
}
