package parser

import (
	"testing"
	"time"

	"indecstat/internal/model"
)

func TestExtractDate_SupportedFormats(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"2021-03", "2021-03-15", "03/2021", "03/21", "15/03/2021", "03.2021", "marzo 2021", "Marzo de 2021", "mar-21", "Mar 2021"} {
		got, ok := ExtractDate(in)
		if !ok || got != "2021-03-01" {
			t.Fatalf("ExtractDate(%q) = %q,%v want 2021-03-01", in, got, ok)
		}
	}
}

func TestExtractDate_Malformed(t *testing.T) {
	t.Parallel()

	for _, in := range []any{"not-a-date", "", "13/2021", "Total", "marzo 1999", "ene-1998", "Informe de diciembre 1995", nil, model.Cell{}, struct{}{}} {
		if got, ok := ExtractDate(in); ok {
			t.Fatalf("ExtractDate(%v) = %q, want no date", in, got)
		}
	}
}

func TestExtractDate_Numbers(t *testing.T) {
	t.Parallel()

	cases := map[string]any{
		"serial":       44256.0,
		"serial int":   44256,
		"unix seconds": float64(time.Date(2021, 3, 10, 0, 0, 0, 0, time.UTC).Unix()),
		"unix millis":  float64(time.Date(2021, 3, 10, 0, 0, 0, 0, time.UTC).UnixMilli()),
		"number cell":  model.Number(44270),
		"date cell":    model.Date(time.Date(2021, 3, 31, 0, 0, 0, 0, time.UTC)),
		"time":         time.Date(2021, 3, 2, 12, 0, 0, 0, time.UTC),
		"text cell":    model.Text("mar-21"),
	}
	for name, in := range cases {
		got, ok := ExtractDate(in)
		if !ok || got != "2021-03-01" {
			t.Fatalf("%s: got %q,%v", name, got, ok)
		}
	}
}

func TestDateParser_InjectedMonths(t *testing.T) {
	t.Parallel()

	p := NewDateParser(map[string]int{"March": 3})
	if got, ok := p.Extract("march 2021"); !ok || got != "2021-03-01" {
		t.Fatalf("got %q,%v", got, ok)
	}
	if _, ok := p.Extract("marzo 2021"); ok {
		t.Fatalf("spanish month must not be known to injected parser")
	}
	if m, ok := p.Month("mar."); !ok || m != 3 {
		t.Fatalf("abbreviation: %d %v", m, ok)
	}
}
