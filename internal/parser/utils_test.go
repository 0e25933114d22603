package parser

import "testing"

func TestNormalizeText(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"  Año 2017 ":            "ano 2017",
		"Desocupación":           "desocupacion",
		"Total  31\taglomerados": "total 31 aglomerados",
		"":                       "",
		"NOA":                    "noa",
	}
	for in, want := range cases {
		if got := NormalizeText(in); got != want {
			t.Fatalf("NormalizeText(%q) = %q, want %q", in, got, want)
		}
	}
}
