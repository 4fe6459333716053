// Package export writes reservation lists to .xlsx files and persists
// receipt results fetched from the backend.
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tabledesk/internal/config"
	"tabledesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/xuri/excelize/v2"
)

const sheetName = "Reservations"

var columnHeaders = []string{"Guest", "Phone", "Party", "Time", "Status", "Notes"}

type Service struct {
	path   string
	logger *zerolog.Logger
}

func NewService(cfg config.ExportConfig, logger *zerolog.Logger) *Service {
	sub := logger.With().Str("component", "export").Logger()
	return &Service{path: cfg.Path, logger: &sub}
}

// WriteWorkbook сохраняет список броней в Excel файл и возвращает путь
func (s *Service) WriteWorkbook(records []models.Reservation, generatedAt time.Time) (string, error) {
	if err := os.MkdirAll(s.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("error creating sheet: %v", err)
	}
	f.SetActiveSheet(index)

	title := fmt.Sprintf("Reservations as of %s", generatedAt.Format("2006-01-02 15:04"))
	_ = f.SetCellValue(sheetName, "A1", title)
	_ = f.MergeCell(sheetName, "A1", "F1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(sheetName, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	for col, header := range columnHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 2)
		_ = f.SetCellValue(sheetName, cell, header)
		_ = f.SetCellStyle(sheetName, cell, cell, headerStyle)
	}

	for row, r := range records {
		values := []any{r.GuestName, r.Phone, r.PartySize, formatWhen(r), r.Status, r.Notes}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+3)
			_ = f.SetCellValue(sheetName, cell, value)
		}
	}

	_ = f.SetColWidth(sheetName, "A", "A", 25)
	_ = f.SetColWidth(sheetName, "B", "F", 20)
	_ = f.DeleteSheet("Sheet1")

	fileName := fmt.Sprintf("reservations_%s.xlsx", generatedAt.Format("2006-01-02_150405"))
	filePath := filepath.Join(s.path, fileName)

	if err := f.SaveAs(filePath); err != nil {
		return "", fmt.Errorf("error saving file: %v", err)
	}

	s.logger.Info().Str("file_path", filePath).Int("rows", len(records)).Msg("Excel file created")
	return filePath, nil
}

func formatWhen(r models.Reservation) string {
	if !r.HasWhen() {
		return "no time"
	}
	return r.When.Local().Format("2006-01-02 15:04")
}
