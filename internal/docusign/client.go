// Пакет docusign — HTTP-клиент DocuSign eSignature API.
// Операция одна: отправка PDF на подпись клиенту (envelope со статусом
// sent). OAuth2-токен получается через client credentials grant и
// кэшируется внутри клиента с временем истечения.
package docusign

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// tokenInfo — закэшированный OAuth2-токен с временем истечения.
type tokenInfo struct {
	accessToken string
	expiresAt   time.Time
}

// Client — HTTP-клиент DocuSign.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	accountID    string
	clientID     string
	clientSecret string //nolint:gosec // G101: поле структуры, не содержит секрет напрямую
	logger       *slog.Logger

	// Кэш токена (thread-safe)
	mu    sync.RWMutex
	token *tokenInfo
}

// New создаёт DocuSign-клиент.
func New(
	baseURL string,
	accountID string,
	clientID string,
	clientSecret string,
	timeout time.Duration,
	logger *slog.Logger,
) *Client {
	return &Client{
		httpClient:   &http.Client{Timeout: timeout},
		baseURL:      strings.TrimRight(baseURL, "/"),
		accountID:    accountID,
		clientID:     clientID,
		clientSecret: clientSecret,
		logger:       logger.With(slog.String("component", "docusign_client")),
	}
}

// envelopeRequest — тело запроса создания envelope.
type envelopeRequest struct {
	EmailSubject string     `json:"emailSubject"`
	Status       string     `json:"status"`
	Documents    []document `json:"documents"`
	Recipients   recipients `json:"recipients"`
}

type document struct {
	DocumentBase64 string `json:"documentBase64"`
	Name           string `json:"name"`
	FileExtension  string `json:"fileExtension"`
	DocumentID     string `json:"documentId"`
}

type recipients struct {
	Signers []signer `json:"signers"`
}

type signer struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	RecipientID  string `json:"recipientId"`
	RoutingOrder string `json:"routingOrder"`
	Tabs         tabs   `json:"tabs"`
}

type tabs struct {
	SignHereTabs []signHere `json:"signHereTabs"`
}

type signHere struct {
	DocumentID string `json:"documentId"`
	PageNumber string `json:"pageNumber"`
	XPosition  string `json:"xPosition"`
	YPosition  string `json:"yPosition"`
}

// SendEnvelope отправляет PDF на подпись получателю.
// Возвращает ID созданного envelope.
func (c *Client) SendEnvelope(ctx context.Context, pdf []byte, recipientEmail, recipientName string) (string, error) {
	token, err := c.getToken(ctx)
	if err != nil {
		return "", fmt.Errorf("получение токена DocuSign: %w", err)
	}

	envelope := envelopeRequest{
		EmailSubject: "Please Sign: Settlement Disbursement",
		Status:       "sent",
		Documents: []document{{
			DocumentBase64: base64.StdEncoding.EncodeToString(pdf),
			Name:           "Disbursement Sheet",
			FileExtension:  "pdf",
			DocumentID:     "1",
		}},
		Recipients: recipients{
			Signers: []signer{{
				Email:        recipientEmail,
				Name:         recipientName,
				RecipientID:  "1",
				RoutingOrder: "1",
				Tabs: tabs{
					SignHereTabs: []signHere{{
						DocumentID: "1",
						PageNumber: "1",
						XPosition:  "100",
						YPosition:  "100",
					}},
				},
			}},
		},
	}

	body, err := json.Marshal(envelope)
	if err != nil {
		return "", fmt.Errorf("сериализация envelope: %w", err)
	}

	reqURL := fmt.Sprintf("%s/v2.1/accounts/%s/envelopes", c.baseURL, c.accountID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("создание запроса envelope: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("запрос создания envelope: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("DocuSign вернул статус %d при создании envelope: %s",
			resp.StatusCode, string(respBody))
	}

	var result struct {
		EnvelopeID string `json:"envelopeId"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("декодирование ответа envelope: %w", err)
	}
	if result.EnvelopeID == "" {
		return "", fmt.Errorf("DocuSign не вернул envelopeId")
	}

	c.logger.Info("Envelope отправлен на подпись",
		slog.String("envelope_id", result.EnvelopeID),
		slog.String("recipient", recipientEmail),
	)
	return result.EnvelopeID, nil
}

// getToken возвращает OAuth2-токен для запросов.
// Использует кэш: если токен ещё валиден (exp - 30s), возвращает
// закэшированный. Иначе запрашивает новый через client credentials grant.
func (c *Client) getToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.token != nil && time.Now().Before(c.token.expiresAt) {
		token := c.token.accessToken
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check после получения write lock
	if c.token != nil && time.Now().Before(c.token.expiresAt) {
		return c.token.accessToken, nil
	}

	return c.requestToken(ctx)
}

// requestToken запрашивает новый токен. Вызывается под write lock.
func (c *Client) requestToken(ctx context.Context) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("scope", "signature")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("создание запроса токена: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("запрос токена: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("DocuSign вернул статус %d при выдаче токена: %s",
			resp.StatusCode, string(body))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", fmt.Errorf("декодирование ответа токена: %w", err)
	}
	if tokenResp.AccessToken == "" {
		return "", fmt.Errorf("DocuSign не вернул access_token")
	}

	// Обновляем за 30 секунд до истечения
	expiresAt := time.Now().Add(time.Duration(tokenResp.ExpiresIn)*time.Second - 30*time.Second)
	c.token = &tokenInfo{accessToken: tokenResp.AccessToken, expiresAt: expiresAt}

	c.logger.Debug("Токен DocuSign обновлён", slog.Time("expires_at", expiresAt))
	return tokenResp.AccessToken, nil
}
