package assets

// Kind selects the asset family and with it the subdirectory and extension.
type Kind int

const (
	Style Kind = iota
	Template
)

func (k Kind) String() string {
	if k == Template {
		return "template"
	}
	return "style"
}

// file returns the slash-separated path of name relative to an asset root.
func (k Kind) file(name string) string {
	if k == Template {
		return "templates/" + name + ".html"
	}
	return "styles/" + name + ".css"
}

func (k Kind) notFound() error {
	if k == Template {
		return ErrTemplateNotFound
	}
	return ErrStyleNotFound
}
