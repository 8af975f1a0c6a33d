// Пакет pdfmerge — склейка PDF-документов в один файл.
// Бинарная конкатенация страниц через pdfcpu: исходное форматирование
// и качество сохраняются, текст не извлекается и не перерисовывается.
package pdfmerge

import (
	"bytes"
	"fmt"
	"io"

	"github.com/pdfcpu/pdfcpu/pkg/api"
)

// Merge склеивает PDF-документы в порядке их следования.
// Любой некорректный вход — ошибка всей операции: пакет с пропущенными
// страницами хуже, чем отсутствие пакета.
func Merge(docs [][]byte) ([]byte, error) {
	if len(docs) == 0 {
		return nil, fmt.Errorf("нечего склеивать — список документов пуст")
	}

	readers := make([]io.ReadSeeker, 0, len(docs))
	for i, doc := range docs {
		if len(doc) == 0 {
			return nil, fmt.Errorf("документ %d пуст", i)
		}
		readers = append(readers, bytes.NewReader(doc))
	}

	var out bytes.Buffer
	if err := api.MergeRaw(readers, &out, false, nil); err != nil {
		return nil, fmt.Errorf("склейка PDF: %w", err)
	}
	return out.Bytes(), nil
}
