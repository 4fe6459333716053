package export

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"tabledesk/internal/backend"
)

// SaveReceipt persists whichever representation the backend chose and
// returns the file path. URLs are saved as a link file since the console
// has no business downloading from arbitrary hosts.
func (s *Service) SaveReceipt(reservationID string, receipt backend.Receipt) (string, error) {
	if err := os.MkdirAll(s.path, 0o755); err != nil {
		return "", fmt.Errorf("error creating export directory: %v", err)
	}

	base := fmt.Sprintf("receipt_%s_%s", reservationID, time.Now().Format("20060102_150405"))

	var filePath string
	var data []byte

	switch receipt.Kind() {
	case "url":
		filePath = filepath.Join(s.path, base+".url.txt")
		data = []byte(receipt.URL + "\n")
	case "base64":
		decoded, err := base64.StdEncoding.DecodeString(receipt.Base64Data())
		if err != nil {
			return "", fmt.Errorf("error decoding receipt payload: %v", err)
		}
		filePath = filepath.Join(s.path, base+".bin")
		data = decoded
	case "text":
		filePath = filepath.Join(s.path, base+".txt")
		data = []byte(receipt.Text)
	default:
		return "", fmt.Errorf("backend returned an empty receipt")
	}

	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return "", fmt.Errorf("error saving receipt: %v", err)
	}

	s.logger.Info().Str("file_path", filePath).Str("kind", receipt.Kind()).Msg("receipt saved")
	return filePath, nil
}
