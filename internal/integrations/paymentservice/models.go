package paymentservice

import "github.com/shopspring/decimal"

// AuthorizeRequest запрос на авторизацию суммы
type AuthorizeRequest struct {
	BookingID int64           `json:"booking_id"`
	Amount    decimal.Decimal `json:"amount"`
}

// AuthorizeResponse ответ с идентификатором транзакции
type AuthorizeResponse struct {
	TransactionRef string `json:"transaction_ref"`
	Status         string `json:"status"`
}
