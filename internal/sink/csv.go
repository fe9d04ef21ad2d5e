// Package sink persists the accumulated result set.
package sink

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/cenozavr/okey-delivery-scraper/internal/models"
)

// Header is the fixed CSV schema, in record field order.
var Header = []string{
	"Наименование",
	"Url_товара",
	"Url_изображения",
	"Категория",
	"Полная цена",
	"Цена со скидкой",
}

// WriteCSV truncates the target file and writes the header row followed by
// one row per record in accumulation order. Writing the same records twice
// produces byte-identical files.
func WriteCSV(filename string, records []*models.ProductRecord) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("create csv file: %w", err)
	}
	defer f.Close()

	writer := csv.NewWriter(f)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, record := range records {
		if err := writer.Write(record.Row()); err != nil {
			return fmt.Errorf("write csv record: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}
