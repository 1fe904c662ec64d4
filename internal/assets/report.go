package assets

import "fmt"

const (
	// DefaultTemplateName is the one page report layout.
	DefaultTemplateName = "report"
	// DefaultStyleName is its print stylesheet.
	DefaultStyleName = "report"
)

// Report holds the layout and stylesheet a renderer needs.
type Report struct {
	Template string
	Style    string
}

// LoadReport loads the default report layout and stylesheet from l.
func LoadReport(l Loader) (Report, error) {
	tmpl, err := l.Load(Template, DefaultTemplateName)
	if err != nil {
		return Report{}, fmt.Errorf("loading report template: %w", err)
	}
	style, err := l.Load(Style, DefaultStyleName)
	if err != nil {
		return Report{}, fmt.Errorf("loading report style: %w", err)
	}
	return Report{Template: tmpl, Style: style}, nil
}
