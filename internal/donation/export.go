package donation

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"socialgood/internal/domain"
	"socialgood/pkg/zip"
)

var csvHeader = []string{
	"id", "donorName", "donorEmail", "amount", "currency", "frequency",
	"message", "paymentId", "status", "country", "createdAt",
}

// Export returns a zip holding donations.json and donations.csv.
func (s *Service) Export(ctx context.Context) ([]byte, error) {
	records := s.store.ReadAll(ctx)
	js, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("donation: export json: %w", err)
	}
	csvData, err := RecordsCSV(records)
	if err != nil {
		return nil, err
	}
	return zip.Archive([]zip.Entry{
		{Filename: "donations.json", Data: js},
		{Filename: "donations.csv", Data: csvData},
	}, s.now().UTC())
}

// RecordsCSV renders records with a header row, in store order.
func RecordsCSV(records []domain.DonationRecord) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(csvHeader); err != nil {
		return nil, fmt.Errorf("donation: export csv: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.ID,
			csvText(r.DonorName),
			csvText(r.DonorEmail),
			strconv.FormatFloat(r.Amount, 'f', -1, 64),
			csvText(r.Currency),
			csvText(r.Frequency),
			csvText(r.Message),
			r.PaymentID,
			r.Status,
			r.Country,
			r.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, fmt.Errorf("donation: export csv: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("donation: export csv: %w", err)
	}
	return buf.Bytes(), nil
}

// csvText prefixes donor-supplied cells that a spreadsheet would evaluate
// as a formula.
func csvText(v string) string {
	if v != "" && strings.ContainsRune("=+-@\t\r", rune(v[0])) {
		return "'" + v
	}
	return v
}
