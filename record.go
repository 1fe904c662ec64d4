package opr

import (
	"fmt"
	"slices"
	"strings"
)

// MaxImages is the number of cells in the report's image grid.
const MaxImages = 6

// Field names a Record attribute. Values match the YAML keys.
type Field string

// Record fields, in form order.
const (
	FieldNamaProgram Field = "namaProgram"
	FieldAnjuran     Field = "anjuran"
	FieldTarikh      Field = "tarikh"
	FieldMasa        Field = "masa"
	FieldTempat      Field = "tempat"
	FieldSasaran     Field = "sasaran"
	FieldObjektif    Field = "objektif"
	FieldAktiviti    Field = "aktiviti"
	FieldKekuatan    Field = "kekuatan"
	FieldKelemahan   Field = "kelemahan"
	FieldImages      Field = "images"
)

var scalarFields = []Field{
	FieldNamaProgram, FieldAnjuran, FieldTarikh, FieldMasa, FieldTempat,
	FieldSasaran, FieldObjektif, FieldAktiviti, FieldKekuatan, FieldKelemahan,
}

var fieldInfo = map[Field]struct {
	label    string
	example  string
	longText bool
}{
	FieldNamaProgram: {"Nama Program / Aktiviti", "Contoh: Kejohanan Sukan Tahunan", false},
	FieldAnjuran:     {"Anjuran", "Contoh: Unit Kokurikulum", false},
	FieldTarikh:      {"Tarikh", "Contoh: 12 Mac 2024", false},
	FieldMasa:        {"Masa", "Contoh: 8:00 AM - 1:00 PM", false},
	FieldTempat:      {"Tempat", "Contoh: Padang Sekolah", false},
	FieldSasaran:     {"Sasaran", "Contoh: Semua murid dan guru", false},
	FieldObjektif:    {"Objektif", "Terangkan objektif program...", true},
	FieldAktiviti:    {"Aktiviti", "Terangkan aktiviti-aktiviti yang dijalankan...", true},
	FieldKekuatan:    {"Kekuatan", "Apakah kekuatan program?", true},
	FieldKelemahan:   {"Kelemahan", "Apakah kelemahan program?", true},
	FieldImages:      {"Gambar Aktiviti (Maksimum 6)", "", false},
}

// Fields returns the scalar fields in form order. FieldImages is not included.
func Fields() []Field {
	return slices.Clone(scalarFields)
}

// ParseField validates a field key.
func ParseField(s string) (Field, error) {
	f := Field(s)
	if _, ok := fieldInfo[f]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownField, s)
	}
	return f, nil
}

// Label returns the Malay form label for the field.
func (f Field) Label() string { return fieldInfo[f].label }

// Example returns the sample input shown as a form hint.
func (f Field) Example() string { return fieldInfo[f].example }

// LongText reports whether the field holds multi-line text.
func (f Field) LongText() bool { return fieldInfo[f].longText }

// Record is the content of one report. The zero value is an empty report.
// Images holds data URIs, at most MaxImages of them.
type Record struct {
	NamaProgram string   `yaml:"namaProgram"`
	Anjuran     string   `yaml:"anjuran"`
	Tarikh      string   `yaml:"tarikh"`
	Masa        string   `yaml:"masa"`
	Tempat      string   `yaml:"tempat"`
	Sasaran     string   `yaml:"sasaran"`
	Objektif    string   `yaml:"objektif"`
	Aktiviti    string   `yaml:"aktiviti"`
	Kekuatan    string   `yaml:"kekuatan"`
	Kelemahan   string   `yaml:"kelemahan"`
	Images      []string `yaml:"images"`
}

func (r *Record) scalar(f Field) *string {
	switch f {
	case FieldNamaProgram:
		return &r.NamaProgram
	case FieldAnjuran:
		return &r.Anjuran
	case FieldTarikh:
		return &r.Tarikh
	case FieldMasa:
		return &r.Masa
	case FieldTempat:
		return &r.Tempat
	case FieldSasaran:
		return &r.Sasaran
	case FieldObjektif:
		return &r.Objektif
	case FieldAktiviti:
		return &r.Aktiviti
	case FieldKekuatan:
		return &r.Kekuatan
	case FieldKelemahan:
		return &r.Kelemahan
	}
	return nil
}

// Get returns the value of f: a string for scalar fields, a copy of the
// image list for FieldImages, nil for unknown fields.
func (r Record) Get(f Field) any {
	if f == FieldImages {
		return slices.Clone(r.Images)
	}
	if p := r.scalar(f); p != nil {
		return *p
	}
	return nil
}

// UpdateField returns a copy of r with f set to value. The receiver is not
// modified and the result never shares its image slice.
// Scalar fields take a string, FieldImages takes a []string of at most
// MaxImages entries.
func (r Record) UpdateField(f Field, value any) (Record, error) {
	next := r.Clone()

	if f == FieldImages {
		imgs, ok := value.([]string)
		if !ok {
			return r, fmt.Errorf("%w: %s wants []string, got %T", ErrFieldType, f, value)
		}
		if len(imgs) > MaxImages {
			return r, fmt.Errorf("%w: %d images (max %d)", ErrCapacityExceeded, len(imgs), MaxImages)
		}
		next.Images = slices.Clone(imgs)
		return next, nil
	}

	p := next.scalar(f)
	if p == nil {
		return r, fmt.Errorf("%w: %q", ErrUnknownField, string(f))
	}
	s, ok := value.(string)
	if !ok {
		return r, fmt.Errorf("%w: %s wants string, got %T", ErrFieldType, f, value)
	}
	*p = s
	return next, nil
}

// Clone returns a deep copy of r.
func (r Record) Clone() Record {
	r.Images = slices.Clone(r.Images)
	return r
}

// CanGenerate reports whether the record has a program name, the only
// field required for generation.
func (r Record) CanGenerate() bool {
	return strings.TrimSpace(r.NamaProgram) != ""
}
