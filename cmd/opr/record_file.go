package main

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	opr "github.com/sktamanpelangi/go-opr"
	"github.com/sktamanpelangi/go-opr/internal/dateutil"
	"github.com/sktamanpelangi/go-opr/internal/fileutil"
	"github.com/sktamanpelangi/go-opr/internal/yamlutil"
)

// reportJob is one report to generate: the text fields and the image
// sources still to be decoded.
type reportJob struct {
	Source string // Record file path, "" when built from flags only
	Record opr.Record
	Images []opr.ImageSource
}

// name identifies the job in progress and error output.
func (j *reportJob) name() string {
	if j.Source != "" {
		return j.Source
	}
	if n := strings.TrimSpace(j.Record.NamaProgram); n != "" {
		return n
	}
	return "(record)"
}

// LoadRecord reads a YAML record file. Keys are the record field names.
// Entries under images are file paths relative to the record file or
// image data URIs. A tarikh of "auto" or "auto:FORMAT" is resolved against now.
func LoadRecord(path string, now time.Time) (*reportJob, error) {
	var rec opr.Record
	if err := yamlutil.DecodeFile(path, &rec); err != nil {
		if errors.Is(err, yamlutil.ErrReadFile) {
			return nil, fmt.Errorf("%w: %w", ErrReadRecord, err)
		}
		return nil, fmt.Errorf("%w: %s: %w", ErrParseRecord, path, err)
	}

	if len(rec.Images) > opr.MaxImages {
		return nil, fmt.Errorf("%s: %w: %d images listed, max %d",
			path, opr.ErrCapacityExceeded, len(rec.Images), opr.MaxImages)
	}

	tarikh, err := dateutil.ResolveDate(rec.Tarikh, now)
	if err != nil {
		return nil, fmt.Errorf("%s: tarikh: %w", path, err)
	}
	rec.Tarikh = tarikh

	sources, err := imageSources(filepath.Dir(path), rec.Images)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	rec.Images = nil

	return &reportJob{Source: path, Record: rec, Images: sources}, nil
}

// imageSources turns record image entries into sources. Relative paths
// are resolved against baseDir.
func imageSources(baseDir string, entries []string) ([]opr.ImageSource, error) {
	sources := make([]opr.ImageSource, 0, len(entries))
	for i, entry := range entries {
		if fileutil.IsDataURI(entry) {
			_, data, err := opr.ParseDataURI(entry)
			if err != nil {
				return nil, fmt.Errorf("image %d: %w", i+1, err)
			}
			sources = append(sources, opr.BytesImage(fmt.Sprintf("gambar-%d", i+1), data))
			continue
		}
		if !filepath.IsAbs(entry) && baseDir != "" {
			entry = filepath.Join(baseDir, entry)
		}
		sources = append(sources, opr.FileImage(entry))
	}
	return sources, nil
}
