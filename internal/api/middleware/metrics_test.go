// metrics_test.go — unit-тесты нормализации путей для лейблов метрик.
package middleware

import "testing"

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		name     string
		path     string
		expected string
	}{
		{
			name:     "статический health",
			path:     "/health/live",
			expected: "/health/live",
		},
		{
			name:     "статический metrics",
			path:     "/metrics",
			expected: "/metrics",
		},
		{
			name:     "sweep без ID",
			path:     "/api/v1/demand/sweep",
			expected: "/api/v1/demand/sweep",
		},
		{
			name:     "split с числовым ID",
			path:     "/api/v1/cases/42/split",
			expected: "/api/v1/cases/{caseID}/split",
		},
		{
			name:     "readiness с числовым ID",
			path:     "/api/v1/cases/42/demand/readiness",
			expected: "/api/v1/cases/{caseID}/demand/readiness",
		},
		{
			name:     "сборка demand package",
			path:     "/api/v1/cases/1007/demand",
			expected: "/api/v1/cases/{caseID}/demand",
		},
		{
			name:     "disbursement",
			path:     "/api/v1/cases/8/disbursement",
			expected: "/api/v1/cases/{caseID}/disbursement",
		},
		{
			name:     "ID без операции",
			path:     "/api/v1/cases/8",
			expected: "/api/v1/cases/{caseID}",
		},
		{
			name:     "неизвестная операция не нормализуется",
			path:     "/api/v1/cases/8/unknown",
			expected: "/api/v1/cases/8/unknown",
		},
		{
			name:     "посторонний путь",
			path:     "/favicon.ico",
			expected: "/favicon.ico",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizePath(tt.path); got != tt.expected {
				t.Errorf("normalizePath(%q) = %q, ожидалось %q", tt.path, got, tt.expected)
			}
		})
	}
}
