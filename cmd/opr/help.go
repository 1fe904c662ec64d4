package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: opr <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate One Page Report (OPR) PDFs for school programs and activities.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  generate   Generate reports from record files or flags")
	fmt.Fprintln(w, "  form       Fill in a report interactively")
	fmt.Fprintln(w, "  doctor     Check that reports can be generated")
	fmt.Fprintln(w, "  completion Print a shell completion script")
	fmt.Fprintln(w, "  version    Show version information")
	fmt.Fprintln(w, "  help       Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'opr help <command>' for details on a specific command.")
}

// printGenerateUsage prints usage for the generate command.
func printGenerateUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: opr generate [record.yaml...] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Generate one PDF per record file. Without a file, the report is")
	fmt.Fprintln(w, "built from the field flags.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Report fields (override the record file):")
	fmt.Fprintln(w, "      --nama-program <s>    Nama Program / Aktiviti (required)")
	fmt.Fprintln(w, "      --anjuran <s>         Anjuran")
	fmt.Fprintln(w, "      --tarikh <s>          Tarikh: literal, \"auto\" or \"auto:FORMAT\"")
	fmt.Fprintln(w, "                            Tokens: YYYY, YY, MMMM, MMM, MM, M, DD, D")
	fmt.Fprintln(w, "                            Presets: iso, short, long")
	fmt.Fprintln(w, "      --masa <s>            Masa")
	fmt.Fprintln(w, "      --tempat <s>          Tempat")
	fmt.Fprintln(w, "      --sasaran <s>         Sasaran")
	fmt.Fprintln(w, "      --objektif <s>        Objektif")
	fmt.Fprintln(w, "      --aktiviti <s>        Aktiviti")
	fmt.Fprintln(w, "      --kekuatan <s>        Kekuatan")
	fmt.Fprintln(w, "      --kelemahan <s>       Kelemahan")
	fmt.Fprintln(w, "      --image <path>        Image to attach (repeatable, max 6)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Input/Output:")
	fmt.Fprintln(w, "  -o, --output <path>       Output directory, or PDF file for one report")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel workers (0 = auto)")
	fmt.Fprintln(w, "      --prefix <s>          File name prefix (default Laporan_OPR)")
	fmt.Fprintln(w, "      --html                Also write the rendered HTML")
	fmt.Fprintln(w, "      --png                 Also write the captured PNG")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Rendering:")
	fmt.Fprintln(w, "  -t, --timeout <d>         Capture timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --markdown            Render long text fields as Markdown")
	fmt.Fprintln(w, "      --asset-path <dir>    Custom template/style directory")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show detailed timing")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Environment:")
	fmt.Fprintln(w, "  OPR_CONFIG, OPR_OUTPUT_DIR, OPR_ASSET_PATH, OPR_TIMEOUT, OPR_WORKERS")
}

// printFormUsage prints usage for the form command.
func printFormUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: opr form [record.yaml] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Fill in a report field by field, attach images and generate the PDF.")
	fmt.Fprintln(w, "A record file pre-fills the form. Accepts the generate flags except")
	fmt.Fprintln(w, "--image and --workers.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands inside the form:")
	fmt.Fprintln(w, "  :set [field] [value]      Edit a field (no field: all)")
	fmt.Fprintln(w, "  :unset <field>            Clear a field")
	fmt.Fprintln(w, "  :img <path>...            Attach images (max 6)")
	fmt.Fprintln(w, "  :rm <n>                   Remove image n")
	fmt.Fprintln(w, "  :show                     Show the current record")
	fmt.Fprintln(w, "  :gen                      Generate the PDF")
	fmt.Fprintln(w, "  :save <file>              Save the fields as a record file")
	fmt.Fprintln(w, "  :quit                     Leave the form")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "generate":
		printGenerateUsage(env.Stdout)
	case "form":
		printFormUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: opr doctor [-c config] [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check that reports can be generated on this machine.")
	case "completion":
		printCompletionUsage(env.Stdout)
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: opr version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: opr help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
