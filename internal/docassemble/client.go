// Пакет docassemble — HTTP-клиент сервиса генерации документов.
// Рендерит PDF по имени шаблона и JSON-payload
// (POST /api/v1/generate/{template}).
// Сессионный токен кэшируется внутри клиента с временем истечения —
// без глобального состояния процесса.
package docassemble

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"
)

// sessionInfo — закэшированный сессионный токен с временем истечения.
type sessionInfo struct {
	token     string
	expiresAt time.Time
}

// Client — HTTP-клиент Docassemble.
type Client struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	logger     *slog.Logger

	// Кэш сессионного токена (thread-safe)
	mu      sync.RWMutex
	session *sessionInfo
}

// New создаёт клиент Docassemble.
func New(baseURL, apiKey string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		logger:     logger.With(slog.String("component", "docassemble_client")),
	}
}

// GenerateLetter рендерит PDF по имени шаблона и payload.
// Вызов без побочных эффектов на стороне Docassemble — повторная
// генерация после сбоя безопасна.
func (c *Client) GenerateLetter(ctx context.Context, template string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("сериализация payload шаблона %s: %w", template, err)
	}

	reqURL := fmt.Sprintf("%s/api/v1/generate/%s", c.baseURL, template)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("создание запроса генерации %s: %w", template, err)
	}
	req.Header.Set("Content-Type", "application/json")

	token, err := c.sessionToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение сессионного токена Docassemble: %w", err)
	}
	req.Header.Set("X-API-Key", token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("запрос генерации %s: %w", template, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("Docassemble вернул статус %d для шаблона %s: %s",
			resp.StatusCode, template, string(respBody))
	}

	pdf, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("чтение PDF шаблона %s: %w", template, err)
	}

	c.logger.Debug("Документ сгенерирован",
		slog.String("template", template),
		slog.Int("size", len(pdf)),
	)
	return pdf, nil
}

// sessionToken возвращает сессионный токен для запросов.
// Использует кэш: если токен ещё валиден, возвращает закэшированный.
// Иначе открывает новую сессию через POST /api/v1/session.
func (c *Client) sessionToken(ctx context.Context) (string, error) {
	c.mu.RLock()
	if c.session != nil && time.Now().Before(c.session.expiresAt) {
		token := c.session.token
		c.mu.RUnlock()
		return token, nil
	}
	c.mu.RUnlock()

	c.mu.Lock()
	defer c.mu.Unlock()

	// Double-check после получения write lock
	if c.session != nil && time.Now().Before(c.session.expiresAt) {
		return c.session.token, nil
	}

	return c.openSession(ctx)
}

// openSession открывает сессию по API key. Вызывается под write lock.
func (c *Client) openSession(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/session", http.NoBody)
	if err != nil {
		return "", fmt.Errorf("создание запроса сессии: %w", err)
	}
	req.Header.Set("X-API-Key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("запрос сессии: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("Docassemble вернул статус %d при открытии сессии: %s",
			resp.StatusCode, string(body))
	}

	var session struct {
		Token     string `json:"token"`
		ExpiresIn int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return "", fmt.Errorf("декодирование ответа сессии: %w", err)
	}
	if session.Token == "" {
		// API key без сессионного endpoint — используем сам ключ
		c.session = &sessionInfo{token: c.apiKey, expiresAt: time.Now().Add(time.Hour)}
		return c.apiKey, nil
	}

	// Обновляем за 30 секунд до истечения
	expiresAt := time.Now().Add(time.Duration(session.ExpiresIn)*time.Second - 30*time.Second)
	c.session = &sessionInfo{token: session.Token, expiresAt: expiresAt}

	c.logger.Debug("Сессия Docassemble открыта",
		slog.Time("expires_at", expiresAt),
	)
	return session.Token, nil
}
