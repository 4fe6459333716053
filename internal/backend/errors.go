package backend

import "errors"

var (
	// ErrNotFound возвращается, когда бэкенд не знает такую бронь
	ErrNotFound = errors.New("reservation not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("backend client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе бэкенда
	ErrInvalidResponse = errors.New("backend client: invalid response")

	// ErrUnavailable возвращается, когда бэкенд недоступен; у вызывающей
	// стороны остаётся предыдущий снапшот списка
	ErrUnavailable = errors.New("backend unavailable")
)
