package main

import (
	"io"
	"strings"
	"unicode"

	flag "github.com/spf13/pflag"

	opr "github.com/sktamanpelangi/go-opr"
)

// commonFlags holds flags shared across commands.
type commonFlags struct {
	config  string
	quiet   bool
	verbose bool
}

// outputFlags holds output destination flags.
type outputFlags struct {
	path string // Output directory, or file name for a single record
	html bool   // Also write the rendered HTML
	png  bool   // Also write the captured PNG
}

// renderFlags holds generator settings.
type renderFlags struct {
	timeout   string
	markdown  bool
	assetPath string
	prefix    string
}

// fieldFlags holds one string flag per record field.
// Only flags set on the command line are applied, so an explicit empty
// value can clear a field loaded from a record file.
type fieldFlags struct {
	values map[opr.Field]*string
	set    map[opr.Field]string
}

// apply returns rec with every explicitly set field replaced.
func (f *fieldFlags) apply(rec opr.Record) (opr.Record, error) {
	for _, field := range opr.Fields() {
		v, ok := f.set[field]
		if !ok {
			continue
		}
		var err error
		if rec, err = rec.UpdateField(field, v); err != nil {
			return rec, err
		}
	}
	return rec, nil
}

// generateFlags holds all flags for the generate command.
type generateFlags struct {
	common  commonFlags
	output  outputFlags
	render  renderFlags
	fields  fieldFlags
	images  []string
	workers int
}

// formFlags holds all flags for the form command.
type formFlags struct {
	common commonFlags
	output outputFlags
	render renderFlags
	fields fieldFlags
}

// fieldFlagName converts a record key to its flag name: namaProgram -> nama-program.
func fieldFlagName(f opr.Field) string {
	var b strings.Builder
	for _, r := range string(f) {
		if unicode.IsUpper(r) {
			b.WriteByte('-')
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// addCommonFlags adds common flags to a FlagSet.
func addCommonFlags(fs *flag.FlagSet, f *commonFlags) {
	fs.StringVarP(&f.config, "config", "c", "", "config file name or path")
	fs.BoolVarP(&f.quiet, "quiet", "q", false, "only show errors")
	fs.BoolVarP(&f.verbose, "verbose", "v", false, "show detailed timing")
}

// addOutputFlags adds output flags to a FlagSet.
func addOutputFlags(fs *flag.FlagSet, f *outputFlags) {
	fs.StringVarP(&f.path, "output", "o", "", "output directory or PDF file")
	fs.BoolVar(&f.html, "html", false, "also write the rendered HTML")
	fs.BoolVar(&f.png, "png", false, "also write the captured PNG")
}

// addRenderFlags adds generator flags to a FlagSet.
func addRenderFlags(fs *flag.FlagSet, f *renderFlags) {
	fs.StringVarP(&f.timeout, "timeout", "t", "", "capture timeout (e.g., 30s, 2m)")
	fs.BoolVar(&f.markdown, "markdown", false, "render long text fields as Markdown")
	fs.StringVar(&f.assetPath, "asset-path", "", "custom template/style directory")
	fs.StringVar(&f.prefix, "prefix", "", "output file name prefix (default Laporan_OPR)")
}

// addFieldFlags adds one flag per record field to a FlagSet.
func addFieldFlags(fs *flag.FlagSet, f *fieldFlags) {
	f.values = make(map[opr.Field]*string, len(opr.Fields()))
	for _, field := range opr.Fields() {
		f.values[field] = fs.String(fieldFlagName(field), "", field.Label())
	}
}

// collectFieldFlags records which field flags were given.
func collectFieldFlags(fs *flag.FlagSet, f *fieldFlags) {
	f.set = make(map[opr.Field]string)
	for field, v := range f.values {
		if fs.Changed(fieldFlagName(field)) {
			f.set[field] = *v
		}
	}
}

// newGenerateFlagSet registers every generate flag on a new FlagSet.
// Shared by parsing and shell completion.
func newGenerateFlagSet(f *generateFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("generate", flag.ContinueOnError)
	fs.IntVarP(&f.workers, "workers", "w", 0, "parallel workers (0 = auto)")
	fs.StringArrayVar(&f.images, "image", nil, "image file to attach (repeatable, max 6)")

	addCommonFlags(fs, &f.common)
	addOutputFlags(fs, &f.output)
	addRenderFlags(fs, &f.render)
	addFieldFlags(fs, &f.fields)
	return fs
}

// newFormFlagSet registers every form flag on a new FlagSet.
func newFormFlagSet(f *formFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("form", flag.ContinueOnError)
	addCommonFlags(fs, &f.common)
	addOutputFlags(fs, &f.output)
	addRenderFlags(fs, &f.render)
	addFieldFlags(fs, &f.fields)
	return fs
}

// parseGenerateFlags parses generate command flags and returns positional args.
func parseGenerateFlags(args []string, stderr io.Writer) (*generateFlags, []string, error) {
	f := &generateFlags{}
	fs := newGenerateFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printGenerateUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	collectFieldFlags(fs, &f.fields)

	return f, fs.Args(), nil
}

// parseFormFlags parses form command flags and returns positional args.
func parseFormFlags(args []string, stderr io.Writer) (*formFlags, []string, error) {
	f := &formFlags{}
	fs := newFormFlagSet(f)
	fs.SetOutput(stderr)
	fs.Usage = func() { printFormUsage(stderr) }

	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	collectFieldFlags(fs, &f.fields)

	return f, fs.Args(), nil
}
