package donation

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"socialgood/internal/domain"
)

// Amount accepts a JSON number or a numeric string.
type Amount struct {
	Value   float64
	Present bool
	Invalid bool
}

// NewAmount returns a present, valid amount.
func NewAmount(v float64) Amount {
	return Amount{Value: v, Present: true}
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	*a = Amount{}
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}
	a.Present = true
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			a.Invalid = true
			return nil
		}
		s = strings.TrimSpace(s)
		if s == "" {
			a.Present = false
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			a.Invalid = true
			return nil
		}
		a.Value = v
	} else {
		v, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			a.Invalid = true
			return nil
		}
		a.Value = v
	}
	if math.IsNaN(a.Value) || math.IsInf(a.Value, 0) {
		a.Invalid = true
	}
	return nil
}

func (a Amount) MarshalJSON() ([]byte, error) {
	if !a.Present || a.Invalid {
		return []byte("null"), nil
	}
	return json.Marshal(a.Value)
}

// validateAmount enforces present, numeric, positive. A zero amount reads
// as missing, matching the required-fields check.
func validateAmount(a Amount, missingMsg string) error {
	if !a.Present || (!a.Invalid && a.Value == 0) {
		return domain.NewValidationError("amount", missingMsg)
	}
	if a.Invalid {
		return domain.NewValidationError("amount", "Amount must be a number")
	}
	if a.Value <= 0 {
		return domain.NewValidationError("amount", "Amount must be greater than 0")
	}
	return nil
}

// currencyOrDefault keeps the donor's currency code as given and only
// defaults an empty one to USD.
func currencyOrDefault(code string) string {
	return orDefault(code, domain.DefaultCurrency)
}

// frequencyOrDefault keeps frequency as opaque text, defaulting to One-time.
func frequencyOrDefault(f string) string {
	return orDefault(f, domain.FrequencyOneTime)
}

func orDefault(v, fallback string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return fallback
}
