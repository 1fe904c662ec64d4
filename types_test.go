package opr

import "testing"

func TestDefaultBranding(t *testing.T) {
	t.Parallel()

	b := DefaultBranding()
	if b.School != "SK Taman Pelangi" || b.Heading != "Laporan OPR" {
		t.Errorf("DefaultBranding() = %+v", b)
	}
	if b.LogoLeft.Fallback == "" || b.LogoRight.Fallback == "" {
		t.Error("default logos need fallbacks")
	}
	if len(b.Signatures) != 2 || b.Signatures[0].Label != "Disediakan Oleh" || b.Signatures[1].Role != "Guru Besar / PK Pentadbiran" {
		t.Errorf("Signatures = %+v", b.Signatures)
	}
}

func TestBranding_WithDefaults(t *testing.T) {
	t.Parallel()

	custom := Branding{
		School:   "SK Bukit Indah",
		LogoLeft: Logo{Src: "https://example.com/skbi.png"},
		Signatures: []Signature{
			{Label: "Disediakan Oleh", Role: "Setiausaha Kelab"},
		},
	}
	got := custom.withDefaults()
	def := DefaultBranding()

	if got.School != "SK Bukit Indah" {
		t.Errorf("School = %q", got.School)
	}
	if got.Subtitle != def.Subtitle || got.Footer != def.Footer {
		t.Error("empty text fields should take defaults")
	}
	if got.LogoLeft.Src != "https://example.com/skbi.png" || got.LogoLeft.Fallback != def.LogoLeft.Fallback {
		t.Errorf("LogoLeft = %+v", got.LogoLeft)
	}
	if got.LogoRight != def.LogoRight {
		t.Errorf("LogoRight = %+v, want default", got.LogoRight)
	}
	if len(got.Signatures) != 1 {
		t.Errorf("custom signatures replaced: %+v", got.Signatures)
	}
}
