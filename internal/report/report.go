// Package report renders settlement run reports for operators.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/fastprodman/fantasyledger/internal/services/settlement"
)

type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
)

var ErrUnknownFormat = errors.New("unknown report format")

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatText, nil
	case FormatText, FormatJSON, FormatXLSX:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFormat, s)
	}
}

// Write renders r in the given format. Amounts in text and XLSX output are
// shown in currency.
func Write(w io.Writer, f Format, r *settlement.Report, currency string) error {
	switch f {
	case FormatText:
		return WriteText(w, r, currency)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatXLSX:
		return WriteXLSX(w, r, currency)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, f)
	}
}

func WriteJSON(w io.Writer, r *settlement.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	err := enc.Encode(r)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}

	return nil
}

// Amount formats a decimal amount in currency. Unknown currencies fall back
// to a plain two-decimal rendering.
func Amount(d decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return d.StringFixed(2)
	}

	minor := d.Shift(int32(cur.Fraction)).Round(0).IntPart()

	return money.New(minor, cur.Code).Display()
}
