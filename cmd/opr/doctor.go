package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/go-rod/rod/lib/launcher"
	flag "github.com/spf13/pflag"

	opr "github.com/sktamanpelangi/go-opr"
)

// checkStatus is the outcome of one doctor check.
type checkStatus string

const (
	statusOK    checkStatus = "ok"
	statusWarn  checkStatus = "warn"
	statusError checkStatus = "error"
)

// doctorCheck is one line of the doctor report.
type doctorCheck struct {
	Group  string      `json:"group"`
	Name   string      `json:"name"`
	Status checkStatus `json:"status"`
	Detail string      `json:"detail,omitempty"`
}

// doctorReport is the full diagnostic result.
type doctorReport struct {
	Status   string        `json:"status"` // "ready", "warnings", "errors"
	Platform string        `json:"platform"`
	Checks   []doctorCheck `json:"checks"`
}

func (r *doctorReport) add(group, name string, status checkStatus, format string, args ...any) {
	r.Checks = append(r.Checks, doctorCheck{
		Group:  group,
		Name:   name,
		Status: status,
		Detail: fmt.Sprintf(format, args...),
	})
}

// count returns how many checks ended with status.
func (r *doctorReport) count(status checkStatus) int {
	n := 0
	for _, c := range r.Checks {
		if c.Status == status {
			n++
		}
	}
	return n
}

func (r *doctorReport) finish() {
	switch {
	case r.count(statusError) > 0:
		r.Status = "errors"
	case r.count(statusWarn) > 0:
		r.Status = "warnings"
	default:
		r.Status = "ready"
	}
}

// chromeLookup locates the browser rod would launch. Replaced in tests.
var chromeLookup = launcher.LookPath

// ciVars are environment variables set by common CI providers.
var ciVars = []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"}

type doctorFlags struct {
	json   bool
	config string
}

func newDoctorFlagSet(f *doctorFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("doctor", flag.ContinueOnError)
	fs.BoolVar(&f.json, "json", false, "print the report as JSON")
	fs.StringVarP(&f.config, "config", "c", "", "config file to check")
	return fs
}

// runDoctorCmd checks that reports can be generated on this machine.
// Exit codes: 0 = ready (warnings allowed), 1 = errors found.
func runDoctorCmd(args []string, env *Environment) int {
	var f doctorFlags
	fs := newDoctorFlagSet(&f)
	fs.SetOutput(env.Stderr)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return ExitSuccess
		}
		return ExitUsage
	}

	report := runDoctor(f.config)

	if f.json {
		enc := json.NewEncoder(env.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(report)
	} else {
		printDoctorReport(env.Stdout, report)
	}

	if report.Status == "errors" {
		return ExitGeneral
	}
	return ExitSuccess
}

// runDoctor performs every check in display order.
func runDoctor(configName string) *doctorReport {
	report := &doctorReport{Platform: runtime.GOOS + "/" + runtime.GOARCH}

	checkBrowser(report, os.Getenv("ROD_BROWSER_BIN"))
	checkSandbox(report, os.Getenv("ROD_NO_SANDBOX") == "1")
	if s := checkSettings(report, configName); s != nil {
		checkGenerator(report, s)
		checkWritable(report, "Output directory", outputDirOf(s))
	}
	checkWritable(report, "Temp directory", os.TempDir())

	report.finish()
	return report
}

// checkBrowser finds the browser binary and asks it for its version.
// A missing browser is only a warning: rod downloads Chromium on first use.
func checkBrowser(r *doctorReport, browserBin string) {
	const group = "Browser"

	path := browserBin
	if path == "" {
		var found bool
		if path, found = chromeLookup(); !found {
			r.add(group, "Chrome/Chromium", statusWarn,
				"not found, downloaded on first use (or set ROD_BROWSER_BIN)")
			return
		}
	}

	if _, err := os.Stat(path); err != nil {
		r.add(group, "Chrome/Chromium", statusError, "not found at %s", path)
		return
	}
	r.add(group, "Chrome/Chromium", statusOK, "%s", path)

	out, err := exec.Command(path, "--version").Output() // #nosec G204 -- browser path from env or rod lookup
	if err != nil {
		r.add(group, "Version", statusWarn, "could not run --version: %v", err)
		return
	}
	r.add(group, "Version", statusOK, "%s", strings.TrimSpace(string(out)))
}

// checkSandbox warns when Chrome is likely to fail in a container or CI
// runner because the sandbox is still enabled.
func checkSandbox(r *doctorReport, noSandbox bool) {
	const group = "Environment"

	container, hint := detectContainer()
	if container {
		r.add(group, "Container", statusOK, "detected (%s)", hint)
	}
	ci := false
	for _, v := range ciVars {
		if os.Getenv(v) != "" {
			ci = true
			r.add(group, "CI", statusOK, "detected (%s)", v)
			break
		}
	}

	switch {
	case noSandbox:
		r.add(group, "Sandbox", statusOK, "disabled (ROD_NO_SANDBOX=1)")
	case container || ci:
		r.add(group, "Sandbox", statusWarn, "enabled inside a container or CI, set ROD_NO_SANDBOX=1")
	default:
		r.add(group, "Sandbox", statusOK, "enabled")
	}
}

// detectContainer returns whether we run in a container and which signal said so.
func detectContainer() (bool, string) {
	if os.Getenv("OPR_CONTAINER") == "1" {
		return true, "OPR_CONTAINER=1"
	}
	if _, err := os.Stat("/.dockerenv"); err == nil {
		return true, "/.dockerenv"
	}
	if v := os.Getenv("container"); v != "" {
		return true, "container=" + v
	}
	if os.Getenv("KUBERNETES_SERVICE_HOST") != "" {
		return true, "KUBERNETES_SERVICE_HOST"
	}
	return false, ""
}

// checkSettings resolves the config the same way generate does.
// Returns nil when the config cannot be used.
func checkSettings(r *doctorReport, configName string) *settings {
	const group = "Configuration"

	s, err := loadSettings(commonFlags{config: configName}, renderFlags{}, outputFlags{}, 0)
	if err != nil {
		r.add(group, "Config", statusError, "%v", err)
		return nil
	}

	name := configName
	if name == "" {
		name = os.Getenv("OPR_CONFIG")
	}
	if name == "" {
		r.add(group, "Config", statusOK, "none, built-in branding")
	} else {
		r.add(group, "Config", statusOK, "%s", name)
	}
	if s.timeout > 0 {
		r.add(group, "Timeout", statusOK, "%s", s.timeout)
	}
	return s
}

// checkGenerator builds a generator from the resolved settings.
// This validates branding logos and custom assets without starting a browser.
func checkGenerator(r *doctorReport, s *settings) {
	const group = "Report"

	g, err := opr.NewGenerator(s.generatorOptions()...)
	if err != nil {
		r.add(group, "Template", statusError, "%v", err)
		return
	}
	_ = g.Close()

	if s.cfg.Assets.BasePath != "" {
		r.add(group, "Template", statusOK, "custom assets at %s", s.cfg.Assets.BasePath)
	} else {
		r.add(group, "Template", statusOK, "embedded")
	}
	r.add(group, "File name", statusOK, "%s", opr.FileName(s.cfg.Output.Prefix, "", s.cfg.Output.FallbackName))
}

func outputDirOf(s *settings) string {
	if s.cfg.Output.DefaultDir != "" {
		return s.cfg.Output.DefaultDir
	}
	return "."
}

// checkWritable probes dir with a throwaway file.
func checkWritable(r *doctorReport, name, dir string) {
	const group = "System"

	probe := filepath.Join(dir, ".go-opr-doctor")
	if err := os.WriteFile(probe, []byte("ok"), 0o600); err != nil {
		r.add(group, name, statusError, "%s not writable", dir)
		return
	}
	_ = os.Remove(probe)
	r.add(group, name, statusOK, "%s writable", dir)
}

// printDoctorReport outputs the checks grouped under headings.
func printDoctorReport(w io.Writer, r *doctorReport) {
	fmt.Fprintln(w, "opr doctor")
	fmt.Fprintf(w, "Platform: %s\n", r.Platform)

	group := ""
	for _, c := range r.Checks {
		if c.Group != group {
			group = c.Group
			fmt.Fprintf(w, "\n%s\n", group)
		}
		fmt.Fprintf(w, "  [%s] %s: %s\n", strings.ToUpper(string(c.Status)), c.Name, c.Detail)
	}
	fmt.Fprintln(w)

	switch r.Status {
	case "ready":
		fmt.Fprintln(w, "Status: Ready to generate reports")
	case "warnings":
		fmt.Fprintf(w, "Status: Ready with %d warning(s)\n", r.count(statusWarn))
	case "errors":
		fmt.Fprintf(w, "Status: Not ready, %d error(s)\n", r.count(statusError))
	}
}
