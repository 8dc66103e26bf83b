package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"socialgood/internal/adapter/repo"
	"socialgood/internal/domain"
)

func seededOpen(t *testing.T) (openFunc, string) {
	t.Helper()
	store, err := repo.NewDonationFileStore(filepath.Join(t.TempDir(), "donations.json"), nil)
	if err != nil {
		t.Fatalf("NewDonationFileStore: %v", err)
	}
	ctx := context.Background()
	first, err := store.Append(ctx, domain.Candidate{DonorName: "Jane", DonorEmail: "jane@example.com", Amount: 25, Currency: "USD"})
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := store.Append(ctx, domain.Candidate{DonorName: "Jane", DonorEmail: "jane@example.com", Amount: 10, Currency: "USD"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	if _, err := store.Append(ctx, domain.Candidate{DonorName: "Ana", DonorEmail: "ana@example.com", Amount: 5, Currency: "EUR"}); err != nil {
		t.Fatalf("Append: %v", err)
	}
	open := func(context.Context) (domain.RecordStore, func(), error) {
		return store, func() {}, nil
	}
	return open, first.ID
}

func TestRunDispatch(t *testing.T) {
	open, firstID := seededOpen(t)

	tests := []struct {
		name  string
		args  []string
		check func(t *testing.T, out []byte)
	}{
		{
			name: "by id",
			args: []string{"-id", firstID},
			check: func(t *testing.T, out []byte) {
				var rec domain.DonationRecord
				if err := json.Unmarshal(out, &rec); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if rec.ID != firstID || rec.Amount != 25 {
					t.Fatalf("record = %#v", rec)
				}
			},
		},
		{
			name: "by email",
			args: []string{"-email", " jane@example.com "},
			check: func(t *testing.T, out []byte) {
				var recs []domain.DonationRecord
				if err := json.Unmarshal(out, &recs); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if len(recs) != 2 {
					t.Fatalf("records = %d, want 2", len(recs))
				}
			},
		},
		{
			name: "stats",
			args: []string{"-stats"},
			check: func(t *testing.T, out []byte) {
				var stats map[string]any
				if err := json.Unmarshal(out, &stats); err != nil {
					t.Fatalf("decode: %v", err)
				}
				if stats["totalDonations"] != float64(3) || stats["activeDonors"] != float64(2) {
					t.Fatalf("stats = %v", stats)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			if err := run(context.Background(), tt.args, &out, open); err != nil {
				t.Fatalf("run(%v) returned error: %v", tt.args, err)
			}
			tt.check(t, out.Bytes())
		})
	}
}

func TestRunErrors(t *testing.T) {
	open, _ := seededOpen(t)
	failing := func(context.Context) (domain.RecordStore, func(), error) {
		return nil, nil, errors.New("no database")
	}

	tests := []struct {
		name string
		args []string
		open openFunc
		want string
	}{
		{"no selector", nil, open, "one of -id, -email or -stats"},
		{"unknown flag", []string{"-month"}, open, "flag provided but not defined"},
		{"missing id", []string{"-id", "nope"}, open, "donation nope not found"},
		{"open failure", []string{"-stats"}, failing, "failed to open record store"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			err := run(context.Background(), tt.args, &out, tt.open)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error = %v, want %q", err, tt.want)
			}
			if out.Len() != 0 {
				t.Fatalf("unexpected output %q", out.String())
			}
		})
	}
}
