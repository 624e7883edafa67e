package service

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/xuri/excelize/v2"

	"safewarner"
	"safewarner/internal/logger"
)

// Export formats.
const (
	FormatJSON = "json"
	FormatPDF  = "pdf"
	FormatXLSX = "xlsx"
)

const exportTimeLayout = "20060102_150405"

// ExportService writes session snapshots to timestamped report files.
type ExportService struct {
	monitor *MonitorService
	outDir  string
	log     *logger.Logger
	now     func() time.Time
}

func NewExportService(monitor *MonitorService, outDir string, log *logger.Logger) *ExportService {
	return &ExportService{
		monitor: monitor,
		outDir:  outDir,
		log:     log,
		now:     time.Now,
	}
}

// Export writes the current snapshot in the requested format and returns
// the file path.
func (s *ExportService) Export(ctx context.Context, format string) (string, error) {
	snap, err := s.monitor.Snapshot(ctx)
	if err != nil {
		return "", err
	}

	name := fmt.Sprintf("safe_warner_session_%s.%s", s.now().Format(exportTimeLayout), format)
	path := filepath.Join(s.outDir, name)

	switch format {
	case FormatJSON:
		err = writeJSONReport(path, snap)
	case FormatPDF:
		err = writePDFReport(path, snap)
	case FormatXLSX:
		err = writeXLSXReport(path, snap)
	default:
		return "", fmt.Errorf("unsupported export format %q", format)
	}
	if err != nil {
		return "", err
	}

	if s.log != nil {
		s.log.Infow("session exported", "path", path, "alerts", len(snap.Alerts), "exercises", len(snap.Exercises))
	}
	return path, nil
}

func writeJSONReport(path string, snap safewarner.SessionSnapshot) error {
	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write snapshot %q: %w", path, err)
	}
	return nil
}

func writePDFReport(path string, snap safewarner.SessionSnapshot) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 16)
	pdf.Cell(0, 10, "Safe Warner Session Report")
	pdf.Ln(12)

	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 7, fmt.Sprintf("Session start: %s", snap.StartTime.Format(time.RFC3339)))
	pdf.Ln(7)
	pdf.Cell(0, 7, fmt.Sprintf("Mode: %s", snap.Mode))
	pdf.Ln(10)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Alerts (%d)", len(snap.Alerts)))
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 10)
	for _, a := range snap.Alerts {
		line := fmt.Sprintf("%s  [%s]  %s - %s",
			a.OccurredAt.Format("15:04:05"), a.Kind, a.Title, a.Message)
		pdf.MultiCell(0, 6, line, "", "L", false)
	}
	pdf.Ln(4)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Eye Exercises (%d)", len(snap.Exercises)))
	pdf.Ln(9)
	pdf.SetFont("Arial", "", 10)
	for _, e := range snap.Exercises {
		outcome := "completed"
		if !e.Success {
			outcome = "cancelled"
		}
		line := fmt.Sprintf("%s  %.1fs  %s",
			e.OccurredAt.Format("15:04:05"), e.DurationSeconds, outcome)
		pdf.MultiCell(0, 6, line, "", "L", false)
	}

	if err := pdf.OutputFileAndClose(path); err != nil {
		return fmt.Errorf("write pdf %q: %w", path, err)
	}
	return nil
}

func writeXLSXReport(path string, snap safewarner.SessionSnapshot) error {
	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	const alertsSheet = "Alerts"
	if err := f.SetSheetName("Sheet1", alertsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"Time", "Kind", "Title", "Message"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(alertsSheet, cell, h)
	}
	for row, a := range snap.Alerts {
		values := []any{
			a.OccurredAt.Format(time.RFC3339),
			string(a.Kind),
			a.Title,
			a.Message,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(alertsSheet, cell, v)
		}
	}

	const exercisesSheet = "Exercises"
	if _, err := f.NewSheet(exercisesSheet); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}
	exHeaders := []string{"Time", "Duration (s)", "Success"}
	for i, h := range exHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(exercisesSheet, cell, h)
	}
	for row, e := range snap.Exercises {
		values := []any{
			e.OccurredAt.Format(time.RFC3339),
			e.DurationSeconds,
			e.Success,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(exercisesSheet, cell, v)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("write xlsx %q: %w", path, err)
	}
	return nil
}
