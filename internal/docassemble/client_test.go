// client_test.go — unit-тесты клиента Docassemble с mock HTTP-сервером.
package docassemble

import (
	"context"
	"encoding/json"
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

// setupMockDocassemble создаёт mock Docassemble.
// sessionHandler может быть nil — тогда сессия открывается с токеном
// session-token на 300 секунд.
func setupMockDocassemble(t *testing.T, sessionHandler, generateHandler http.HandlerFunc) *Client {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/session", func(w http.ResponseWriter, r *http.Request) {
		if sessionHandler != nil {
			sessionHandler(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"token":      "session-token",
			"expires_in": 300,
		})
	})
	mux.HandleFunc("/api/v1/generate/", func(w http.ResponseWriter, r *http.Request) {
		if generateHandler != nil {
			generateHandler(w, r)
			return
		}
		w.Write([]byte("GENERATED-PDF"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return New(server.URL, "api-key", 5*time.Second, testLogger())
}

func TestGenerateLetter(t *testing.T) {
	var gotToken, gotPath string
	var gotPayload map[string]any

	client := setupMockDocassemble(t, nil, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-API-Key")
		gotPath = r.URL.Path
		json.NewDecoder(r.Body).Decode(&gotPayload)
		w.Write([]byte("GENERATED-PDF"))
	})

	pdf, err := client.GenerateLetter(context.Background(), "disbursement_sheet", map[string]any{"case_id": 7})
	if err != nil {
		t.Fatalf("GenerateLetter: %v", err)
	}
	if string(pdf) != "GENERATED-PDF" {
		t.Errorf("PDF = %q", pdf)
	}
	if gotPath != "/api/v1/generate/disbursement_sheet" {
		t.Errorf("путь запроса: %s", gotPath)
	}
	if gotToken != "session-token" {
		t.Errorf("X-API-Key = %s, ожидался сессионный токен", gotToken)
	}
	if gotPayload["case_id"] != float64(7) {
		t.Errorf("payload: %v", gotPayload)
	}
}

// TestSessionTokenCaching — сессия открывается один раз и
// переиспользуется, пока не истекла.
func TestSessionTokenCaching(t *testing.T) {
	sessions := 0
	client := setupMockDocassemble(t, func(w http.ResponseWriter, r *http.Request) {
		sessions++
		json.NewEncoder(w).Encode(map[string]any{
			"token":      "session-token",
			"expires_in": 300,
		})
	}, nil)

	ctx := context.Background()
	for range 3 {
		if _, err := client.GenerateLetter(ctx, "disbursement_sheet", nil); err != nil {
			t.Fatalf("GenerateLetter: %v", err)
		}
	}

	if sessions != 1 {
		t.Errorf("сессий открыто: %d, ожидалась 1", sessions)
	}
}

// TestSessionFallbackToAPIKey — Docassemble без session endpoint
// принимает сам API key.
func TestSessionFallbackToAPIKey(t *testing.T) {
	var gotToken string
	client := setupMockDocassemble(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{})
	}, func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("X-API-Key")
		w.Write([]byte("PDF"))
	})

	if _, err := client.GenerateLetter(context.Background(), "tpl", nil); err != nil {
		t.Fatalf("GenerateLetter: %v", err)
	}
	if gotToken != "api-key" {
		t.Errorf("X-API-Key = %s, ожидался api-key", gotToken)
	}
}

func TestGenerateLetterServerError(t *testing.T) {
	client := setupMockDocassemble(t, nil, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "template not found", http.StatusUnprocessableEntity)
	})

	if _, err := client.GenerateLetter(context.Background(), "missing", nil); err == nil {
		t.Error("ожидалась ошибка генерации")
	}
}
