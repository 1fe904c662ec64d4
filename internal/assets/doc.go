// Package assets supplies the HTML layout and print stylesheet of the one
// page report.
//
// A [Loader] reads one asset of a [Kind] by name. Three loaders exist:
//
//	NewEmbeddedLoader  built-in layout compiled into the binary
//	NewDirLoader       a school's own directory on disk
//	New(basePath)      the directory first, embedded when a file is absent
//
// A custom directory mirrors the embedded layout:
//
//	{basePath}/
//	├── styles/{name}.css
//	└── templates/{name}.html
//
// so a school can restyle the report by shipping only styles/report.css.
//
// Asset names cannot contain separators or dots. The directory loader also
// resolves symlinks and refuses files that end up outside basePath.
package assets
