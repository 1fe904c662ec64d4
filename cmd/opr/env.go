package main

import (
	"io"
	"os"
	"time"

	opr "github.com/sktamanpelangi/go-opr"
)

// Environment holds injectable dependencies for testability.
// Includes I/O, time, the generator pool factory and the line reader used
// by the interactive form.
type Environment struct {
	Now    func() time.Time
	Stdin  io.ReadCloser
	Stdout io.Writer
	Stderr io.Writer

	// NewPool creates the generator pool for a command run.
	NewPool func(size int, opts ...opr.Option) Pool
	// NewLineReader creates the prompt reader for the form command.
	NewLineReader func(env *Environment) (LineReader, error)
}

// DefaultEnv returns the production environment backed by Chrome.
func DefaultEnv() *Environment {
	return &Environment{
		Now:    time.Now,
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		NewPool: func(size int, opts ...opr.Option) Pool {
			return &poolAdapter{pool: opr.NewGeneratorPool(size, opts...)}
		},
		NewLineReader: newReadlineReader,
	}
}
