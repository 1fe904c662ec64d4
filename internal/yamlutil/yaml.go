// Package yamlutil reads and writes the YAML files of the tool, config and
// record files alike, under one size limit. Decoding is always strict so a
// misspelt key fails loudly instead of leaving a field empty.
package yamlutil

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
)

// MaxInputSize caps decoded input at 1MB. Record files reference images by
// path, so real files stay far below it.
var MaxInputSize = 1 << 20

var (
	ErrEmptyInput    = errors.New("yamlutil: empty input")
	ErrNilTarget     = errors.New("yamlutil: nil destination")
	ErrInputTooLarge = errors.New("yamlutil: input exceeds maximum size")
	ErrReadFile      = errors.New("yamlutil: cannot read file")
	ErrWriteFile     = errors.New("yamlutil: cannot write file")
)

// Decode parses data into v and rejects keys v does not declare.
func Decode(data []byte, v any) error {
	switch {
	case len(data) == 0:
		return ErrEmptyInput
	case len(data) > MaxInputSize:
		return fmt.Errorf("%w: %d bytes (max %d)", ErrInputTooLarge, len(data), MaxInputSize)
	case v == nil:
		return ErrNilTarget
	}
	if err := yaml.UnmarshalWithOptions(data, v, yaml.Strict()); err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	return nil
}

// DecodeFile reads path and decodes it with Decode. Read failures wrap
// ErrReadFile and keep the os error, so os.ErrNotExist stays matchable.
func DecodeFile(path string, v any) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	if info.Size() > int64(MaxInputSize) {
		return fmt.Errorf("%w: %s is %d bytes (max %d)", ErrInputTooLarge, path, info.Size(), MaxInputSize)
	}
	data, err := os.ReadFile(path) // #nosec G304 -- caller-provided path
	if err != nil {
		return fmt.Errorf("%w: %w", ErrReadFile, err)
	}
	return Decode(data, v)
}

// EncodeFile writes v to path as YAML with the given permissions.
func EncodeFile(path string, v any, perm os.FileMode) error {
	data, err := yaml.MarshalWithOptions(v, yaml.UseLiteralStyleIfMultiline(true))
	if err != nil {
		return fmt.Errorf("yamlutil: %w", err)
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		return fmt.Errorf("%w: %w", ErrWriteFile, err)
	}
	return nil
}
