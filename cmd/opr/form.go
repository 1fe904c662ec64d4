package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/chzyer/readline"

	opr "github.com/sktamanpelangi/go-opr"
	"github.com/sktamanpelangi/go-opr/internal/dateutil"
	"github.com/sktamanpelangi/go-opr/internal/hints"
	"github.com/sktamanpelangi/go-opr/internal/spinner"
	"github.com/sktamanpelangi/go-opr/internal/yamlutil"
)

const (
	commandPrompt = "opr> "
	fieldPrompt   = "  > "
)

// LineReader reads one line of user input. *readline.Instance implements it.
type LineReader interface {
	Readline() (string, error)
	SetPrompt(prompt string)
	Close() error
}

var errQuit = errors.New("quit")

// newReadlineReader returns a readline prompt on the environment's streams
// with completion for the form commands.
func newReadlineReader(env *Environment) (LineReader, error) {
	setItems := make([]readline.PrefixCompleterInterface, 0, len(opr.Fields()))
	for _, f := range opr.Fields() {
		setItems = append(setItems, readline.PcItem(string(f)))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          commandPrompt,
		Stdin:           env.Stdin,
		Stdout:          env.Stdout,
		Stderr:          env.Stderr,
		InterruptPrompt: "^C",
		EOFPrompt:       ":quit",
		AutoComplete: readline.NewPrefixCompleter(
			readline.PcItem(":set", setItems...),
			readline.PcItem(":unset", setItems...),
			readline.PcItem(":img"),
			readline.PcItem(":rm"),
			readline.PcItem(":show"),
			readline.PcItem(":gen"),
			readline.PcItem(":save"),
			readline.PcItem(":help"),
			readline.PcItem(":quit"),
		),
	})
	if err != nil {
		return nil, err
	}
	return rl, nil
}

// formSession is one interactive editing session over a State.
type formSession struct {
	env    *Environment
	rl     LineReader
	state  *opr.State
	pool   Pool
	gen    opr.ReportGenerator // Acquired on the first :gen
	out    outputSpec
	common commonFlags
}

// runForm collects a record interactively and generates reports on demand.
// An optional record file pre-fills the form.
func runForm(ctx context.Context, args []string, env *Environment) error {
	flags, positional, err := parseFormFlags(args, env.Stderr)
	if err != nil {
		return flagError(err)
	}
	if len(positional) > 1 {
		return fmt.Errorf("%w: form takes at most one record file", ErrInvalidFlags)
	}

	s, err := loadSettings(flags.common, flags.render, flags.output, 1)
	if err != nil {
		return err
	}

	job := &reportJob{}
	if len(positional) == 1 {
		if job, err = LoadRecord(positional[0], env.Now()); err != nil {
			return err
		}
	}
	if job.Record, err = flags.fields.apply(job.Record); err != nil {
		return err
	}

	state := opr.NewState(opr.WithImageDecoder(s.imageDecoder()))
	for _, f := range opr.Fields() {
		if err := state.Update(f, job.Record.Get(f)); err != nil {
			return err
		}
	}

	out := outputSpec{dir: s.cfg.Output.DefaultDir, html: flags.output.html, png: flags.output.png}
	if isPDFPath(flags.output.path) {
		out.file = flags.output.path
	}

	rl, err := env.NewLineReader(env)
	if err != nil {
		return fmt.Errorf("starting prompt: %w", err)
	}
	defer func() { _ = rl.Close() }()

	pool := env.NewPool(1, s.generatorOptions()...)
	defer func() { _ = pool.Close() }()

	f := &formSession{env: env, rl: rl, state: state, pool: pool, out: out, common: flags.common}
	defer f.release()

	if len(job.Images) > 0 {
		f.addImages(ctx, job.Images)
	}
	return f.run(ctx, len(positional) == 0)
}

// run prompts for every field when fill is set, then reads commands until
// :quit or end of input.
func (f *formSession) run(ctx context.Context, fill bool) error {
	fmt.Fprintln(f.env.Stdout, "Borang Laporan OPR. Tekan Enter untuk kekalkan nilai semasa.")

	if fill {
		if err := f.promptFields(opr.Fields()); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
	f.printHelp()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		f.rl.SetPrompt(commandPrompt)
		line, err := f.rl.Readline()
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				continue
			}
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		if err := f.handle(ctx, strings.TrimSpace(line)); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			return err
		}
	}
}

// handle executes one command line.
func (f *formSession) handle(ctx context.Context, line string) error {
	if line == "" {
		return nil
	}
	if !strings.HasPrefix(line, ":") {
		fmt.Fprintln(f.env.Stdout, "Arahan tidak dikenali. Taip :help")
		return nil
	}

	cmd, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch cmd {
	case ":help", ":h":
		f.printHelp()
	case ":quit", ":q", ":exit":
		return errQuit
	case ":show":
		f.printRecord()
	case ":set":
		return f.set(rest)
	case ":unset":
		field, err := lookupField(rest)
		if err != nil {
			fmt.Fprintf(f.env.Stdout, "%v%s\n", err, hints.ForUnknownField(fieldKeys()))
			return nil
		}
		return f.update(field, "")
	case ":img":
		paths := strings.Fields(rest)
		if len(paths) == 0 {
			fmt.Fprintln(f.env.Stdout, "Guna: :img <fail> [fail...]")
			return nil
		}
		sources := make([]opr.ImageSource, len(paths))
		for i, p := range paths {
			sources[i] = opr.FileImage(p)
		}
		f.addImages(ctx, sources)
	case ":rm":
		n, err := strconv.Atoi(rest)
		if err != nil {
			fmt.Fprintln(f.env.Stdout, "Guna: :rm <nombor gambar>")
			return nil
		}
		f.state.RemoveImage(n - 1)
		fmt.Fprintf(f.env.Stdout, "Gambar: %d/%d\n", f.state.ImageCount(), opr.MaxImages)
	case ":gen":
		return f.generate(ctx)
	case ":save":
		f.save(rest)
	default:
		fmt.Fprintf(f.env.Stdout, "Arahan tidak dikenali: %s. Taip :help\n", cmd)
	}
	return nil
}

// set handles ":set", ":set <field>" and ":set <field> <value>".
func (f *formSession) set(args string) error {
	if args == "" {
		return f.promptFields(opr.Fields())
	}
	name, value, hasValue := strings.Cut(args, " ")
	field, err := lookupField(name)
	if err != nil {
		fmt.Fprintf(f.env.Stdout, "%v%s\n", err, hints.ForUnknownField(fieldKeys()))
		return nil
	}
	if hasValue {
		return f.update(field, strings.TrimSpace(value))
	}
	return f.promptFields([]opr.Field{field})
}

// update stores value in field, resolving "auto" dates.
func (f *formSession) update(field opr.Field, value string) error {
	if field == opr.FieldTarikh {
		resolved, err := dateutil.ResolveDate(value, f.env.Now())
		if err != nil {
			fmt.Fprintf(f.env.Stdout, "Tarikh tidak sah: %v%s\n", err, hints.ForDateFormat())
			return nil
		}
		value = resolved
	}
	return f.state.Update(field, value)
}

// promptFields asks for each field in turn. Interrupt skips the remaining
// fields; end of input quits.
func (f *formSession) promptFields(fields []opr.Field) error {
	for _, field := range fields {
		value, keep, err := f.promptField(field)
		if err != nil {
			if errors.Is(err, readline.ErrInterrupt) {
				return nil
			}
			if errors.Is(err, io.EOF) {
				return errQuit
			}
			return err
		}
		if keep {
			continue
		}
		if err := f.update(field, value); err != nil {
			return err
		}
	}
	return nil
}

// promptField reads one field. Long text fields take several lines and end
// with an empty line. An empty first line keeps the current value.
func (f *formSession) promptField(field opr.Field) (value string, keep bool, err error) {
	current, _ := f.state.Record().Get(field).(string)

	fmt.Fprintf(f.env.Stdout, "%s  [%s]\n", field.Label(), field.Example())
	if current != "" {
		fmt.Fprintf(f.env.Stdout, "  semasa: %s\n", firstLine(current))
	}
	if field.LongText() {
		fmt.Fprintln(f.env.Stdout, "  (baris kosong untuk tamat)")
	}

	f.rl.SetPrompt(fieldPrompt)
	var lines []string
	for {
		line, err := f.rl.Readline()
		if err != nil {
			return "", false, err
		}
		if line == "" {
			break
		}
		lines = append(lines, line)
		if !field.LongText() {
			break
		}
	}

	if len(lines) == 0 {
		return "", true, nil
	}
	return strings.Join(lines, "\n"), false, nil
}

// addImages attaches a batch and reports the outcome.
func (f *formSession) addImages(ctx context.Context, sources []opr.ImageSource) {
	before := f.state.ImageCount()
	res, err := f.state.AddImages(ctx, sources)
	if err != nil {
		if errors.Is(err, opr.ErrCapacityExceeded) {
			fmt.Fprintf(f.env.Stdout, "%s%s\n", opr.MsgCapacity, hints.ForCapacity(before, opr.MaxImages))
			return
		}
		fmt.Fprintf(f.env.Stderr, "error: %v\n", err)
		return
	}
	for _, e := range res.Failed {
		fmt.Fprintf(f.env.Stderr, "warning: %v%s\n", e, hintFor(e))
	}
	fmt.Fprintf(f.env.Stdout, "%d gambar ditambah. Gambar: %d/%d\n", res.Added, f.state.ImageCount(), opr.MaxImages)
}

// generate renders the current record. Failures are reported and the
// session continues; only cancellation ends it.
func (f *formSession) generate(ctx context.Context) error {
	if !f.state.Record().CanGenerate() {
		fmt.Fprintf(f.env.Stdout, "%s%s\n", opr.MsgMissingName, hints.ForMissingProgramName())
		return nil
	}

	if f.gen == nil {
		gen, err := f.pool.Acquire()
		if err != nil {
			printError(f.env.Stderr, err)
			return nil
		}
		f.gen = gen
	}

	var sp *spinner.Spinner
	if !f.common.quiet {
		sp = spinner.New(f.env.Stderr, opr.MsgGenerating, spinner.WithClock(f.env.Now))
		sp.Start()
		defer sp.Stop()
	}

	res, err := f.state.Generate(ctx, f.gen)
	if err != nil {
		if sp != nil {
			sp.Fail(opr.UserMessage(err))
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		fmt.Fprintf(f.env.Stderr, "error: %v%s\n", err, hintFor(err))
		return nil
	}
	if res.Skipped {
		if sp != nil {
			sp.Stop()
		}
		fmt.Fprintf(f.env.Stderr, "warning: %v\n", ErrReportSkipped)
		return nil
	}

	files, err := writeOutputs(res, f.out)
	if err != nil {
		if sp != nil {
			sp.Fail(opr.MsgGenerateFailed)
		}
		printError(f.env.Stderr, err)
		return nil
	}
	if sp != nil {
		sp.Success(res.FileName)
	}
	for _, file := range files {
		fmt.Fprintf(f.env.Stdout, "Created %s\n", file)
	}
	return nil
}

// release returns the session's generator to the pool.
func (f *formSession) release() {
	if f.gen != nil {
		f.pool.Release(f.gen)
		f.gen = nil
	}
}

// printRecord shows the current record.
func (f *formSession) printRecord() {
	rec := f.state.Record()
	w := f.env.Stdout
	for _, field := range opr.Fields() {
		value, _ := rec.Get(field).(string)
		if strings.TrimSpace(value) == "" {
			value = "-"
		}
		lines := strings.Split(value, "\n")
		fmt.Fprintf(w, "%-24s %s\n", field.Label()+":", lines[0])
		for _, l := range lines[1:] {
			fmt.Fprintf(w, "%-24s %s\n", "", l)
		}
	}
	fmt.Fprintf(w, "%-24s %d/%d\n", "Gambar:", len(rec.Images), opr.MaxImages)
	for i, uri := range rec.Images {
		mime, data, err := opr.ParseDataURI(uri)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "  %d. %s (%s)\n", i+1, mime, formatBytes(len(data)))
	}
}

func (f *formSession) printHelp() {
	w := f.env.Stdout
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Arahan:")
	fmt.Fprintln(w, "  :set [medan] [nilai]   Ubah medan (tanpa medan: semua)")
	fmt.Fprintln(w, "  :unset <medan>         Kosongkan medan")
	fmt.Fprintln(w, "  :img <fail>...         Tambah gambar (maksimum 6)")
	fmt.Fprintln(w, "  :rm <n>                Buang gambar ke-n")
	fmt.Fprintln(w, "  :show                  Papar laporan semasa")
	fmt.Fprintln(w, "  :gen                   Jana PDF")
	fmt.Fprintln(w, "  :save <fail>           Simpan medan ke fail rekod YAML")
	fmt.Fprintln(w, "  :quit                  Keluar")
	fmt.Fprintln(w)
}

// save writes the fields to a record file that generate and form accept.
// Images stay out: the session only holds their decoded data URIs.
func (f *formSession) save(path string) {
	if path == "" {
		fmt.Fprintln(f.env.Stdout, "Guna: :save <fail.yaml>")
		return
	}
	if !looksLikeRecordFile(path) {
		path += ".yaml"
	}

	rec := f.state.Record()
	rec.Images = nil
	if err := yamlutil.EncodeFile(path, rec, filePermissions); err != nil {
		fmt.Fprintf(f.env.Stdout, "Gagal menyimpan: %v\n", err)
		return
	}
	fmt.Fprintf(f.env.Stdout, "Disimpan: %s\n", path)
	if n := f.state.ImageCount(); n > 0 {
		fmt.Fprintf(f.env.Stdout, "%d gambar tidak disimpan, tambah semula dengan :img\n", n)
	}
}

// lookupField accepts a record key (namaProgram) or flag name (nama-program).
func lookupField(name string) (opr.Field, error) {
	for _, f := range opr.Fields() {
		if name == string(f) || name == fieldFlagName(f) {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", opr.ErrUnknownField, name)
}

// fieldKeys returns the record keys of every scalar field.
func fieldKeys() []string {
	fields := opr.Fields()
	keys := make([]string, len(fields))
	for i, f := range fields {
		keys[i] = string(f)
	}
	return keys
}

func firstLine(s string) string {
	line, _, more := strings.Cut(s, "\n")
	if more {
		return line + " ..."
	}
	return line
}

func formatBytes(n int) string {
	switch {
	case n >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(n)/(1<<20))
	case n >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(n)/(1<<10))
	}
	return fmt.Sprintf("%d B", n)
}
