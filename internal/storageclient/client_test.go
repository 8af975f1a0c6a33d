// client_test.go — unit-тесты клиента хранилища с mock HTTP-сервером.
package storageclient

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

// setupMockStorage создаёт mock хранилище и клиент поверх него.
func setupMockStorage(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return New(server.URL, "test-key", "documents", 5*time.Second, 16, time.Minute, testLogger())
}

func TestGetFileContent(t *testing.T) {
	requests := 0
	client := setupMockStorage(t, func(w http.ResponseWriter, r *http.Request) {
		requests++
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		if r.URL.Path != "/storage/v1/object/documents/generated/doc-1" {
			t.Errorf("путь запроса: %s", r.URL.Path)
		}
		w.Write([]byte("PDF-CONTENT"))
	})

	ctx := context.Background()

	content, err := client.GetFileContent(ctx, "doc-1")
	if err != nil {
		t.Fatalf("GetFileContent: %v", err)
	}
	if string(content) != "PDF-CONTENT" {
		t.Errorf("содержимое = %q", content)
	}

	// Повторный запрос отдаётся из кэша без обращения к серверу
	if _, err := client.GetFileContent(ctx, "doc-1"); err != nil {
		t.Fatalf("GetFileContent из кэша: %v", err)
	}
	if requests != 1 {
		t.Errorf("HTTP-запросов: %d, ожидался 1 (кэш)", requests)
	}
}

func TestGetFileContentNotFound(t *testing.T) {
	client := setupMockStorage(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.GetFileContent(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("ожидался ErrNotFound, получено: %v", err)
	}
}

func TestGetFileContentServerError(t *testing.T) {
	client := setupMockStorage(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	_, err := client.GetFileContent(context.Background(), "doc-1")
	if err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("ожидалась ошибка запроса, получено: %v", err)
	}
}

func TestUploadFile(t *testing.T) {
	var uploaded []byte
	var contentType string
	client := setupMockStorage(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("метод = %s", r.Method)
		}
		contentType = r.Header.Get("Content-Type")
		uploaded, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	})

	ctx := context.Background()
	if err := client.UploadFile(ctx, "pkg-1", []byte("MERGED-PDF"), "application/pdf"); err != nil {
		t.Fatalf("UploadFile: %v", err)
	}
	if string(uploaded) != "MERGED-PDF" {
		t.Errorf("загружено: %q", uploaded)
	}
	if contentType != "application/pdf" {
		t.Errorf("Content-Type = %s", contentType)
	}

	// Загруженное содержимое попадает в кэш
	content, err := client.GetFileContent(ctx, "pkg-1")
	if err != nil {
		t.Fatalf("GetFileContent после загрузки: %v", err)
	}
	if string(content) != "MERGED-PDF" {
		t.Errorf("содержимое из кэша: %q", content)
	}
}

func TestUploadFileError(t *testing.T) {
	client := setupMockStorage(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	if err := client.UploadFile(context.Background(), "pkg-1", []byte("X"), "application/pdf"); err == nil {
		t.Error("ожидалась ошибка загрузки")
	}
}
