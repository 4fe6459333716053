package backend

import "strings"

// Receipt is the union-shaped receipt result: the backend answers with a
// URL, a base64 payload, or raw text, depending on its mood and version.
type Receipt struct {
	URL     string `json:"url,omitempty"`
	Base64  string `json:"base64,omitempty"`
	Payload string `json:"payload,omitempty"`
	Text    string `json:"text,omitempty"`
}

// Kind classifies which representation the backend chose.
func (r Receipt) Kind() string {
	switch {
	case r.URL != "":
		return "url"
	case r.Base64 != "" || r.Payload != "":
		return "base64"
	case r.Text != "":
		return "text"
	default:
		return "empty"
	}
}

// Base64Data returns whichever base64 field was populated.
func (r Receipt) Base64Data() string {
	if r.Base64 != "" {
		return r.Base64
	}
	return r.Payload
}

// CalendarSyncResult carries the sync status and the event link under one of
// its historical field names.
type CalendarSyncResult struct {
	Status    string `json:"status"`
	EventLink string `json:"eventLink,omitempty"`
	HTMLLink  string `json:"htmlLink,omitempty"`
	URL       string `json:"url,omitempty"`
}

// Link collapses the link aliases into one value.
func (r CalendarSyncResult) Link() string {
	for _, link := range []string{r.EventLink, r.HTMLLink, r.URL} {
		if strings.TrimSpace(link) != "" {
			return strings.TrimSpace(link)
		}
	}
	return ""
}

// SMSRequest is the body of POST /reservations/{id}/send-sms.
type SMSRequest struct {
	Message string `json:"message"`
}

// ErrorResponse модель ошибки бэкенда
type ErrorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}
