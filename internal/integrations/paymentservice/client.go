package paymentservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Client клиент платёжного сервиса
// Реализует авторизацию суммы при подтверждении брони и списание при выезде
type Client struct {
	baseURL    string
	httpClient *http.Client
	log        Logger
}

// NewClient создает новый экземпляр клиента платёжного сервиса
func NewClient(baseURL string, timeout time.Duration, log Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		log: log,
	}
}

// Authorize резервирует сумму под бронирование и возвращает ссылку на транзакцию
func (c *Client) Authorize(ctx context.Context, bookingID int64, amount decimal.Decimal) (string, error) {
	body, err := json.Marshal(AuthorizeRequest{BookingID: bookingID, Amount: amount})
	if err != nil {
		return "", fmt.Errorf("%w: failed to encode request: %v", ErrInternal, err)
	}

	resp, err := c.post(ctx, c.baseURL+"/internal/payments/authorize", body)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated:
		// Продолжаем обработку
	case http.StatusPaymentRequired, http.StatusUnprocessableEntity:
		return "", ErrPaymentDeclined
	default:
		raw, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(raw))
	}

	var result AuthorizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("%w: failed to decode response: %v", ErrInvalidResponse, err)
	}
	if result.TransactionRef == "" {
		return "", fmt.Errorf("%w: empty transaction ref", ErrInvalidResponse)
	}

	c.log.Info("Authorize: booking=%d amount=%s ref=%s", bookingID, amount.StringFixed(2), result.TransactionRef)
	return result.TransactionRef, nil
}

// Capture списывает ранее авторизованную сумму
func (c *Client) Capture(ctx context.Context, txnRef string) error {
	resp, err := c.post(ctx, fmt.Sprintf("%s/internal/payments/%s/capture", c.baseURL, url.PathEscape(txnRef)), nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK, http.StatusNoContent:
		c.log.Info("Capture: ref=%s captured", txnRef)
		return nil
	case http.StatusNotFound:
		return ErrTransactionNotFound
	case http.StatusPaymentRequired, http.StatusUnprocessableEntity:
		return ErrPaymentDeclined
	default:
		raw, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("%w: unexpected status code %d: %s", ErrInvalidResponse, resp.StatusCode, string(raw))
	}
}

func (c *Client) post(ctx context.Context, endpoint string, body []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrInternal, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to execute request: %v", ErrInternal, err)
	}
	return resp, nil
}
