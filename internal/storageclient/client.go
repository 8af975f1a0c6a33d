// Пакет storageclient — HTTP-клиент хранилища документов.
// REST-совместим с Supabase Storage: объекты лежат в bucket по пути
// generated/<doc_id>, авторизация — bearer service key.
// Скачанные байты кэшируются в expirable LRU: документы неизменяемы,
// повторная сборка после сбоя не перекачивает уже полученные файлы.
package storageclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus-метрики кэша содержимого документов.
var (
	contentCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caseflow_storage_cache_hits_total",
		Help: "Количество попаданий в LRU-кэш содержимого документов",
	})
	contentCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caseflow_storage_cache_misses_total",
		Help: "Количество промахов LRU-кэша содержимого документов",
	})
)

// ErrNotFound — объект отсутствует в хранилище.
var ErrNotFound = fmt.Errorf("объект не найден в хранилище")

// Client — HTTP-клиент хранилища документов.
type Client struct {
	httpClient *http.Client
	baseURL    string
	serviceKey string
	bucket     string
	cache      *expirable.LRU[string, []byte]
	logger     *slog.Logger
}

// New создаёт клиент хранилища.
// baseURL — базовый URL storage API, serviceKey — bearer ключ,
// bucket — имя bucket, cacheSize/cacheTTL — параметры LRU-кэша.
func New(
	baseURL string,
	serviceKey string,
	bucket string,
	timeout time.Duration,
	cacheSize int,
	cacheTTL time.Duration,
	logger *slog.Logger,
) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		serviceKey: serviceKey,
		bucket:     bucket,
		cache:      expirable.NewLRU[string, []byte](cacheSize, nil, cacheTTL),
		logger:     logger.With(slog.String("component", "storage_client")),
	}
}

// objectURL возвращает URL объекта документа в bucket.
func (c *Client) objectURL(docID string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/generated/%s", c.baseURL, c.bucket, docID)
}

// GetFileContent возвращает содержимое документа по его ID.
// Отсутствующий объект — ErrNotFound, остальные сбои — ошибка запроса.
func (c *Client) GetFileContent(ctx context.Context, docID string) ([]byte, error) {
	if content, ok := c.cache.Get(docID); ok {
		contentCacheHitsTotal.Inc()
		return content, nil
	}
	contentCacheMissesTotal.Inc()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.objectURL(docID), nil)
	if err != nil {
		return nil, fmt.Errorf("создание запроса скачивания %s: %w", docID, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("скачивание документа %s: %w", docID, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		c.logger.Warn("Документ отсутствует в хранилище", slog.String("doc_id", docID))
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("хранилище вернуло статус %d для документа %s: %s",
			resp.StatusCode, docID, string(body))
	}

	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("чтение содержимого документа %s: %w", docID, err)
	}

	c.cache.Add(docID, content)
	return content, nil
}

// UploadFile загружает содержимое документа под его ID.
func (c *Client) UploadFile(ctx context.Context, docID string, content []byte, contentType string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.objectURL(docID), bytes.NewReader(content))
	if err != nil {
		return fmt.Errorf("создание запроса загрузки %s: %w", docID, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("загрузка документа %s: %w", docID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("хранилище вернуло статус %d при загрузке %s: %s",
			resp.StatusCode, docID, string(body))
	}

	c.cache.Add(docID, content)
	c.logger.Info("Документ загружен в хранилище",
		slog.String("doc_id", docID),
		slog.Int("size", len(content)),
	)
	return nil
}
