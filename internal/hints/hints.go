// Package hints builds the short follow-up lines printed under CLI errors.
// Every hint renders as "\n  hint: <text>" so callers can append it to an
// error message without extra formatting.
package hints

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sktamanpelangi/go-opr/internal/fileutil"
)

// BrowserEnv is the slice of the environment that decides which browser
// hints apply.
type BrowserEnv struct {
	CI         bool
	Container  bool
	NoSandbox  bool
	BrowserBin string
}

// CurrentBrowserEnv reads BrowserEnv from the process environment.
func CurrentBrowserEnv() BrowserEnv {
	ci := false
	for _, v := range []string{"CI", "GITHUB_ACTIONS", "GITLAB_CI", "JENKINS_URL", "CIRCLECI"} {
		if os.Getenv(v) != "" {
			ci = true
			break
		}
	}
	return BrowserEnv{
		CI:         ci,
		Container:  fileutil.FileExists("/.dockerenv") || os.Getenv("OPR_CONTAINER") == "1",
		NoSandbox:  os.Getenv("ROD_NO_SANDBOX") == "1",
		BrowserBin: os.Getenv("ROD_BROWSER_BIN"),
	}
}

// ForBrowserConnect returns hints for a browser that failed to start.
func ForBrowserConnect(env BrowserEnv) string {
	var hints []string
	if (env.CI || env.Container) && !env.NoSandbox {
		hints = append(hints, "set ROD_NO_SANDBOX=1 inside Docker or CI")
	}
	if env.BrowserBin == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to an installed Chrome")
	}
	hints = append(hints, "run 'opr doctor' for details")
	return formatHints(hints)
}

// ForTimeout returns a hint for captures that ran out of time.
func ForTimeout() string {
	return format("remote logos and large images load slowly, raise --timeout")
}

// ForConfigNotFound suggests --config, or the user config file when it is
// among the searched paths.
func ForConfigNotFound(searchedPaths []string) string {
	userDir := string(filepath.Separator) + "go-opr" + string(filepath.Separator)
	for _, p := range searchedPaths {
		if strings.Contains(p, userDir) {
			return format("pass --config FILE or create " + p)
		}
	}
	return format("pass --config FILE")
}

// ForOutputDirectory returns a hint for output files that could not be written.
func ForOutputDirectory() string {
	return format("check the output directory is writable, or pick another with -o")
}

// ForMissingProgramName returns the hint shown when a record has no program name.
func ForMissingProgramName() string {
	return format("set --nama-program or namaProgram in the record file")
}

// ForCapacity describes the remaining image slots.
func ForCapacity(current, limit int) string {
	if current >= limit {
		return format(fmt.Sprintf("all %d slots are used, remove an image first", limit))
	}
	return format(fmt.Sprintf("%d of %d slots left", limit-current, limit))
}

// ForImageFormat lists the image formats the decoder accepts.
func ForImageFormat() string {
	return format("supported formats: PNG, JPEG, GIF, WebP, BMP, TIFF")
}

// ForUnknownField lists the accepted field names.
func ForUnknownField(names []string) string {
	if len(names) == 0 {
		return ""
	}
	return format("fields: " + strings.Join(names, ", "))
}

// ForDateFormat shows the accepted tarikh values.
func ForDateFormat() string {
	return format(`use a literal date, "auto" or "auto:D MMM YYYY"`)
}

func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
