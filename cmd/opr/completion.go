package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	flag "github.com/spf13/pflag"
)

// Shell names a shell the completion command can write a script for.
type Shell string

const (
	ShellBash Shell = "bash"
	ShellZsh  Shell = "zsh"
	ShellFish Shell = "fish"
)

// ErrUnsupportedShell is returned for a shell without a completion script.
var ErrUnsupportedShell = errors.New("unsupported shell")

// argKind says what a flag value or positional argument completes to.
type argKind int

const (
	argNone argKind = iota // boolean flag, no value
	argText                // free text
	argFile                // file matching a glob
	argDir                 // directory
)

// flagDef is one flag as the completion scripts see it.
type flagDef struct {
	Long       string
	Short      string
	Desc       string
	Kind       argKind
	Glob       string // comma-separated, e.g. "*.yaml,*.yml"
	Repeatable bool
}

// commandDef is one subcommand as the completion scripts see it.
type commandDef struct {
	Name  string
	Desc  string
	Flags []flagDef
	Args  string // glob for positional files, empty when none
	Words []string
}

const (
	recordGlob = "*.yaml,*.yml"
	imageGlob  = "*.png,*.jpg,*.jpeg,*.gif,*.webp,*.bmp,*.tif,*.tiff"
)

// valueHints maps flag names to the files or directories their values name.
// Names, shorthands and usage come from the FlagSets themselves.
var valueHints = map[string]flagDef{
	"config":     {Kind: argFile, Glob: recordGlob},
	"image":      {Kind: argFile, Glob: imageGlob},
	"output":     {Kind: argDir},
	"asset-path": {Kind: argDir},
}

// flagDefs lists the flags registered on fs, in registration order.
func flagDefs(fs *flag.FlagSet) []flagDef {
	fs.SortFlags = false

	var defs []flagDef
	fs.VisitAll(func(f *flag.Flag) {
		d := flagDef{Long: f.Name, Short: f.Shorthand, Desc: f.Usage, Kind: argText}
		switch f.Value.Type() {
		case "bool":
			d.Kind = argNone
		case "stringArray", "stringSlice":
			d.Repeatable = true
		}
		if h, ok := valueHints[f.Name]; ok {
			d.Kind, d.Glob = h.Kind, h.Glob
		}
		defs = append(defs, d)
	})
	return defs
}

// completionCommands returns every subcommand with its flags.
func completionCommands() []commandDef {
	shells := []string{string(ShellBash), string(ShellZsh), string(ShellFish)}
	return []commandDef{
		{Name: "generate", Desc: "Generate reports from record files or flags", Flags: flagDefs(newGenerateFlagSet(&generateFlags{})), Args: recordGlob},
		{Name: "form", Desc: "Fill in a report interactively", Flags: flagDefs(newFormFlagSet(&formFlags{})), Args: recordGlob},
		{Name: "doctor", Desc: "Check that reports can be generated", Flags: flagDefs(newDoctorFlagSet(&doctorFlags{}))},
		{Name: "completion", Desc: "Print a shell completion script", Words: shells},
		{Name: "version", Desc: "Show version information"},
		{Name: "help", Desc: "Show help for a command", Words: []string{"generate", "form", "doctor", "completion", "version"}},
	}
}

// writeCompletion writes the completion script for shell to w.
func writeCompletion(w io.Writer, shell Shell) error {
	cmds := completionCommands()
	switch shell {
	case ShellBash:
		return writeBash(w, cmds)
	case ShellZsh:
		return writeZsh(w, cmds)
	case ShellFish:
		return writeFish(w, cmds)
	default:
		return fmt.Errorf("%w: %q (supported: bash, zsh, fish)", ErrUnsupportedShell, shell)
	}
}

// runCompletion handles "opr completion <shell>".
func runCompletion(args []string, env *Environment) error {
	if len(args) == 0 {
		printCompletionUsage(env.Stdout)
		return nil
	}
	return writeCompletion(env.Stdout, Shell(args[0]))
}

func printCompletionUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: opr completion <bash|zsh|fish>")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print a shell completion script.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Install:")
	fmt.Fprintln(w, "  bash  eval \"$(opr completion bash)\"          # in ~/.bashrc")
	fmt.Fprintln(w, "  zsh   eval \"$(opr completion zsh)\"           # in ~/.zshrc, before compinit")
	fmt.Fprintln(w, "  fish  opr completion fish > ~/.config/fish/completions/opr.fish")
}

// globExts turns "*.yaml,*.yml" into ["yaml", "yml"].
func globExts(glob string) []string {
	var exts []string
	for _, g := range strings.Split(glob, ",") {
		if g = strings.TrimPrefix(strings.TrimSpace(g), "*."); g != "" {
			exts = append(exts, g)
		}
	}
	return exts
}

// ---------------------------------------------------------------------------
// bash
// ---------------------------------------------------------------------------

func bashFileMatch(glob string) string {
	return fmt.Sprintf(`COMPREPLY=($(compgen -f -X '!*.@(%s)' -- "$cur"))`, strings.Join(globExts(glob), "|"))
}

func writeBash(w io.Writer, cmds []commandDef) error {
	var b strings.Builder
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Name)
	}

	b.WriteString("# bash completion for opr\n")
	b.WriteString("_opr() {\n")
	b.WriteString("    local cur prev cmd\n")
	b.WriteString("    cur=\"${COMP_WORDS[COMP_CWORD]}\"\n")
	b.WriteString("    prev=\"${COMP_WORDS[COMP_CWORD-1]}\"\n")
	b.WriteString("    cmd=\"${COMP_WORDS[1]}\"\n\n")
	b.WriteString("    if [[ $COMP_CWORD -eq 1 ]]; then\n")
	fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(names, " "))
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    case \"$cmd\" in\n")

	for _, c := range cmds {
		fmt.Fprintf(&b, "    %s)\n", c.Name)
		if len(c.Words) > 0 {
			fmt.Fprintf(&b, "        COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(c.Words, " "))
			b.WriteString("        ;;\n")
			continue
		}

		var opts []string
		var valued []string
		for _, f := range c.Flags {
			forms := []string{"--" + f.Long}
			if f.Short != "" {
				forms = append(forms, "-"+f.Short)
			}
			opts = append(opts, forms...)
			if f.Kind == argNone {
				continue
			}
			action := `COMPREPLY=()`
			switch f.Kind {
			case argFile:
				action = bashFileMatch(f.Glob)
			case argDir:
				action = `COMPREPLY=($(compgen -d -- "$cur"))`
			}
			valued = append(valued, fmt.Sprintf("        %s) %s; return ;;\n", strings.Join(forms, "|"), action))
		}

		if len(valued) > 0 {
			b.WriteString("        case \"$prev\" in\n")
			for _, v := range valued {
				b.WriteString("    " + v)
			}
			b.WriteString("        esac\n")
		}
		if len(opts) > 0 {
			b.WriteString("        if [[ $cur == -* ]]; then\n")
			fmt.Fprintf(&b, "            COMPREPLY=($(compgen -W %q -- \"$cur\"))\n", strings.Join(opts, " "))
			b.WriteString("            return\n")
			b.WriteString("        fi\n")
		}
		if c.Args != "" {
			b.WriteString("        " + bashFileMatch(c.Args) + "\n")
		}
		b.WriteString("        ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n")
	b.WriteString("complete -o filenames -o bashdefault -F _opr opr\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// ---------------------------------------------------------------------------
// zsh
// ---------------------------------------------------------------------------

var zshEscaper = strings.NewReplacer(`'`, `'\''`, `[`, `\[`, `]`, `\]`, `:`, `\:`)

func zshAction(kind argKind, glob string) string {
	switch kind {
	case argFile:
		return fmt.Sprintf(`_files -g "*.(%s)"`, strings.Join(globExts(glob), "|"))
	case argDir:
		return "_files -/"
	default:
		return " "
	}
}

func zshFlagSpec(f flagDef) string {
	desc := zshEscaper.Replace(f.Desc)
	value := ""
	if f.Kind != argNone {
		value = ":" + f.Long + ":" + zshAction(f.Kind, f.Glob)
	}
	switch {
	case f.Repeatable:
		return fmt.Sprintf("'*--%s[%s]%s'", f.Long, desc, value)
	case f.Short != "":
		return fmt.Sprintf("'(-%s --%s)'{-%s,--%s}'[%s]%s'", f.Short, f.Long, f.Short, f.Long, desc, value)
	default:
		return fmt.Sprintf("'--%s[%s]%s'", f.Long, desc, value)
	}
}

func writeZsh(w io.Writer, cmds []commandDef) error {
	var b strings.Builder

	b.WriteString("#compdef opr\n\n")
	b.WriteString("_opr() {\n")
	b.WriteString("    local -a commands\n")
	b.WriteString("    commands=(\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "        '%s:%s'\n", c.Name, zshEscaper.Replace(c.Desc))
	}
	b.WriteString("    )\n\n")
	b.WriteString("    if (( CURRENT == 2 )); then\n")
	b.WriteString("        _describe 'command' commands\n")
	b.WriteString("        return\n")
	b.WriteString("    fi\n\n")
	b.WriteString("    local cmd=$words[2]\n")
	b.WriteString("    shift words\n")
	b.WriteString("    (( CURRENT-- ))\n\n")
	b.WriteString("    case $cmd in\n")

	for _, c := range cmds {
		fmt.Fprintf(&b, "    %s)\n", c.Name)
		var specs []string
		for _, f := range c.Flags {
			specs = append(specs, zshFlagSpec(f))
		}
		switch {
		case len(c.Words) > 0:
			specs = append(specs, fmt.Sprintf("'1:%s:(%s)'", c.Name, strings.Join(c.Words, " ")))
		case c.Args != "":
			specs = append(specs, fmt.Sprintf("'*:record file:%s'", zshAction(argFile, c.Args)))
		}
		if len(specs) > 0 {
			fmt.Fprintf(&b, "        _arguments -s \\\n            %s\n", strings.Join(specs, " \\\n            "))
		}
		b.WriteString("        ;;\n")
	}

	b.WriteString("    esac\n")
	b.WriteString("}\n\n")
	b.WriteString("compdef _opr opr\n")

	_, err := io.WriteString(w, b.String())
	return err
}

// ---------------------------------------------------------------------------
// fish
// ---------------------------------------------------------------------------

var fishEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`)

func writeFish(w io.Writer, cmds []commandDef) error {
	var b strings.Builder
	names := make([]string, 0, len(cmds))
	for _, c := range cmds {
		names = append(names, c.Name)
	}

	b.WriteString("# fish completion for opr\n")
	b.WriteString("complete -c opr -f\n")
	for _, c := range cmds {
		fmt.Fprintf(&b, "complete -c opr -n 'not __fish_seen_subcommand_from %s' -a %s -d '%s'\n",
			strings.Join(names, " "), c.Name, fishEscaper.Replace(c.Desc))
	}

	for _, c := range cmds {
		cond := fmt.Sprintf("-n '__fish_seen_subcommand_from %s'", c.Name)
		if len(c.Words) > 0 {
			fmt.Fprintf(&b, "complete -c opr %s -a '%s'\n", cond, strings.Join(c.Words, " "))
		}
		if c.Args != "" {
			fmt.Fprintf(&b, "complete -c opr %s -F\n", cond)
		}
		for _, f := range c.Flags {
			line := fmt.Sprintf("complete -c opr %s -l %s", cond, f.Long)
			if f.Short != "" {
				line += " -s " + f.Short
			}
			switch f.Kind {
			case argText:
				line += " -x"
			case argFile:
				line += " -r -F"
			case argDir:
				line += " -x -a '(__fish_complete_directories)'"
			}
			fmt.Fprintf(&b, "%s -d '%s'\n", line, fishEscaper.Replace(f.Desc))
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}
