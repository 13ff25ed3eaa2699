package paymentservice

import "errors"

var (
	// ErrPaymentDeclined возвращается, когда платёжный сервис отклонил операцию
	ErrPaymentDeclined = errors.New("payment declined")

	// ErrTransactionNotFound возвращается, когда авторизация не найдена
	ErrTransactionNotFound = errors.New("payment transaction not found")

	// ErrInternal возвращается при внутренних ошибках клиента
	ErrInternal = errors.New("paymentservice client: internal error")

	// ErrInvalidResponse возвращается при некорректном ответе от сервиса
	ErrInvalidResponse = errors.New("paymentservice client: invalid response")
)
