// merge_test.go — unit-тесты валидации входов склейки PDF.
package pdfmerge

import "testing"

func TestMergeRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		docs [][]byte
	}{
		{
			name: "пустой список",
			docs: nil,
		},
		{
			name: "пустой документ в списке",
			docs: [][]byte{[]byte("%PDF-1.7 ..."), {}},
		},
		{
			name: "не PDF",
			docs: [][]byte{[]byte("это не PDF")},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Merge(tt.docs); err == nil {
				t.Error("ожидалась ошибка, получен nil")
			}
		})
	}
}
