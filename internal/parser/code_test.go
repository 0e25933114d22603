package parser

import (
	"regexp"
	"testing"
)

func TestGenerateCode(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"Nivel general":                      "NIVEL_GENERAL",
		"Alimentos y bebidas no alcohólicas": "ALIMENTOS",
		"Prendas de vestir y calzado":        "PRE_DE_VES_Y_CAL",
		"Región   GBA":                       "REGION_GBA",
		"Núcleo":                             "NUCLEO",
		"Bienes (*)":                         "BIENES",
		"  ":                                 "",
	}
	for in, want := range cases {
		if got := GenerateCode(in); got != want {
			t.Fatalf("GenerateCode(%q) = %q want %q", in, got, want)
		}
	}
}

func TestGenerateCode_Deterministic(t *testing.T) {
	t.Parallel()

	valid := regexp.MustCompile(`^[A-Z0-9_]+$`)
	name := "Alimentos y bebidas no alcohólicas"
	first := GenerateCode(name)
	for i := 0; i < 10; i++ {
		if got := GenerateCode(name); got != first {
			t.Fatalf("run %d: %q != %q", i, got, first)
		}
	}
	if !valid.MatchString(first) || len(first) > maxCodeLen {
		t.Fatalf("invalid code %q", first)
	}
}
