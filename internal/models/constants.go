package models

const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusSeated    = "seated"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

const (
	// PlaceholderGuestName подставляется, когда бэкенд не прислал имя гостя
	PlaceholderGuestName = "Guest"

	// MinPartySize / MaxPartySize границы размера группы при создании через форму
	MinPartySize = 1
	MaxPartySize = 20

	// MinGuestNameLen / MaxGuestNameLen границы длины имени после trim
	MinGuestNameLen = 2
	MaxGuestNameLen = 80

	// MinPhoneLen / MaxPhoneLen границы длины телефона
	MinPhoneLen = 7
	MaxPhoneLen = 20

	// MaxNotesLen максимальная длина заметки при создании
	MaxNotesLen = 240

	// SnapshotRedisTTL время жизни снапшота списка в Redis (секунды)
	SnapshotRedisTTL = 10 * 60

	// DefaultPollInterval интервал опроса бэкенда по умолчанию (секунды)
	DefaultPollInterval = 30
)

// KnownStatuses lists the statuses the console renders with a dedicated style.
// Anything else is preserved as free text and rendered as "unknown".
var KnownStatuses = []string{
	StatusPending,
	StatusConfirmed,
	StatusSeated,
	StatusCompleted,
	StatusCancelled,
}
