package main

import (
	"fmt"

	opr "github.com/sktamanpelangi/go-opr"
)

// Pool abstracts generator pool operations for testability.
type Pool interface {
	Acquire() (opr.ReportGenerator, error)
	Release(opr.ReportGenerator)
	Size() int
	Close() error
}

// poolAdapter exposes *opr.GeneratorPool through Pool.
type poolAdapter struct {
	pool *opr.GeneratorPool
}

var _ Pool = (*poolAdapter)(nil)

func (a *poolAdapter) Acquire() (opr.ReportGenerator, error) {
	g, err := a.pool.Acquire()
	if err != nil {
		return nil, err
	}
	return g, nil
}

// Release panics when gen did not come from this pool's Acquire.
func (a *poolAdapter) Release(gen opr.ReportGenerator) {
	g, ok := gen.(*opr.Generator)
	if !ok {
		panic(fmt.Sprintf("poolAdapter.Release: unexpected type %T", gen))
	}
	a.pool.Release(g)
}

func (a *poolAdapter) Size() int    { return a.pool.Size() }
func (a *poolAdapter) Close() error { return a.pool.Close() }
