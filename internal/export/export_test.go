package export

import (
	"os"
	"testing"
	"time"

	"tabledesk/internal/backend"
	"tabledesk/internal/config"
	"tabledesk/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	logger := zerolog.Nop()
	return NewService(config.ExportConfig{Path: t.TempDir()}, &logger)
}

func TestWriteWorkbook(t *testing.T) {
	service := newTestService(t)
	records := []models.Reservation{
		{ID: "1", GuestName: "Ann", Phone: "555-0101", PartySize: 4, When: time.Date(2024, 6, 2, 19, 0, 0, 0, time.Local), Status: "confirmed"},
		{ID: "2", GuestName: "Bo", PartySize: 2, Status: "pending", Notes: "terrace"},
	}

	path, err := service.WriteWorkbook(records, time.Date(2024, 6, 1, 12, 0, 0, 0, time.Local))
	require.NoError(t, err)

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	guest, err := f.GetCellValue(sheetName, "A3")
	require.NoError(t, err)
	assert.Equal(t, "Ann", guest)

	when, err := f.GetCellValue(sheetName, "D3")
	require.NoError(t, err)
	assert.Equal(t, "2024-06-02 19:00", when)

	noTime, err := f.GetCellValue(sheetName, "D4")
	require.NoError(t, err)
	assert.Equal(t, "no time", noTime)

	notes, err := f.GetCellValue(sheetName, "F4")
	require.NoError(t, err)
	assert.Equal(t, "terrace", notes)
}

func TestWriteWorkbookEmptyList(t *testing.T) {
	service := newTestService(t)

	path, err := service.WriteWorkbook(nil, time.Now())
	require.NoError(t, err)

	_, err = os.Stat(path)
	assert.NoError(t, err)
}

func TestSaveReceipt(t *testing.T) {
	service := newTestService(t)

	t.Run("url", func(t *testing.T) {
		path, err := service.SaveReceipt("r-1", backend.Receipt{URL: "https://receipts/r-1.pdf"})
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "https://receipts/r-1.pdf\n", string(data))
	})

	t.Run("base64", func(t *testing.T) {
		path, err := service.SaveReceipt("r-2", backend.Receipt{Base64: "aGVsbG8="})
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "hello", string(data))
	})

	t.Run("text", func(t *testing.T) {
		path, err := service.SaveReceipt("r-3", backend.Receipt{Text: "RECEIPT"})
		require.NoError(t, err)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.Equal(t, "RECEIPT", string(data))
	})

	t.Run("bad base64", func(t *testing.T) {
		_, err := service.SaveReceipt("r-4", backend.Receipt{Base64: "!!!"})
		assert.Error(t, err)
	})

	t.Run("empty receipt", func(t *testing.T) {
		_, err := service.SaveReceipt("r-5", backend.Receipt{})
		assert.Error(t, err)
	})
}
