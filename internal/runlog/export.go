package runlog

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/jszwec/csvutil"
	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/arbor-insights/pulse-cli/internal/model"
)

// WriteCSV writes run-log entries as CSV for audit handoff.
func WriteCSV(w io.Writer, entries []Entry) error {
	data, err := csvutil.Marshal(entries)
	if err != nil {
		return eris.Wrap(err, "runlog: marshal csv")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "runlog: write csv")
	}
	return nil
}

var xlsxHeader = []string{
	"run_id", "phase", "name", "status",
	"record_count", "duration_seconds", "error_message", "recorded_at",
}

// WriteXLSX writes run-log entries as a single-sheet workbook.
func WriteXLSX(path string, entries []Entry) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("run_log")
	if err != nil {
		return eris.Wrap(err, "runlog: add sheet")
	}

	header := sheet.AddRow()
	for _, h := range xlsxHeader {
		header.AddCell().Value = h
	}

	for _, e := range entries {
		row := sheet.AddRow()
		row.AddCell().Value = e.RunID
		row.AddCell().Value = e.Phase
		row.AddCell().Value = e.Name
		row.AddCell().Value = e.Status
		row.AddCell().SetInt(e.RecordCount)
		row.AddCell().SetFloat(e.DurationSeconds)
		row.AddCell().Value = e.ErrorMessage
		row.AddCell().Value = e.RecordedAt.UTC().Format(time.RFC3339)
	}

	if err := file.Save(path); err != nil {
		return eris.Wrapf(err, "runlog: save workbook %s", path)
	}
	return nil
}

type summaryRow struct {
	Phase           string  `csv:"phase"`
	Name            string  `csv:"name"`
	Status          string  `csv:"status"`
	RecordCount     int     `csv:"record_count"`
	DurationSeconds float64 `csv:"duration_seconds"`
	ErrorMessage    string  `csv:"error_message"`
}

// WriteSummaryCSV writes the two summaries of a single run as CSV, the
// shape used by collect --summary-out.
func WriteSummaryCSV(w io.Writer, collected, stored model.Summary) error {
	var rows []summaryRow
	appendPhase := func(phase string, s model.Summary) {
		for _, o := range s.Outcomes {
			rows = append(rows, summaryRow{
				Phase:           phase,
				Name:            o.Name,
				Status:          string(o.Status),
				RecordCount:     o.RecordCount,
				DurationSeconds: o.DurationSeconds(),
				ErrorMessage:    o.ErrorMessage,
			})
		}
	}
	appendPhase(PhaseCollect, collected)
	appendPhase(PhaseStore, stored)

	data, err := csvutil.Marshal(rows)
	if err != nil {
		return eris.Wrap(err, "runlog: marshal summary csv")
	}
	if _, err := w.Write(data); err != nil {
		return eris.Wrap(err, "runlog: write summary csv")
	}
	return nil
}

// FormatSummary renders a summary as an aligned text table for terminal
// output.
func FormatSummary(title string, s model.Summary) string {
	out := title + "\n"
	out += fmt.Sprintf("  %-12s %-8s %10s %10s  %s\n", "NAME", "STATUS", "RECORDS", "SECONDS", "ERROR")
	for _, o := range s.Outcomes {
		out += fmt.Sprintf("  %-12s %-8s %10d %10s  %s\n",
			o.Name, o.Status, o.RecordCount,
			strconv.FormatFloat(o.DurationSeconds(), 'f', 2, 64),
			o.ErrorMessage,
		)
	}
	succeeded, failed, skipped := s.Counts()
	out += fmt.Sprintf("  %d succeeded, %d failed, %d skipped, %d records\n",
		succeeded, failed, skipped, s.TotalRecords())
	return out
}
