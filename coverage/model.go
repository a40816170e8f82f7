// Package coverage tallies functional coverage of the stimulus space.
//
// A Model holds coverpoints, each a named dimension with a fixed set of bins,
// and crosses, each the Cartesian product of several coverpoints. Recording
// is explicit: RecordPoint and RecordCross bump one bin, and Sample records
// every coverpoint and cross from one stimulus.
package coverage

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownItem is returned when recording into an unregistered name.
var ErrUnknownItem = errors.New("unknown coverage item")

// XForm extracts the value of a coverpoint from a stimulus.
type XForm func(values []uint64) uint64

// Channel returns an XForm that picks the i-th stimulus value.
func Channel(i int) XForm {
	return func(values []uint64) uint64 {
		return values[i]
	}
}

type coverPoint struct {
	name string
	bins []uint64
	xf   XForm
	hits map[uint64]int
}

type cross struct {
	name   string
	items  []*coverPoint
	tuples [][]uint64
	hits   map[string]int
}

// Model is a table of coverage bins and their hit counts.
type Model struct {
	name    string
	points  []*coverPoint
	crosses []*cross
	byName  map[string]interface{}
	samples int
}

// NewModel creates an empty model.
func NewModel(name string) *Model {
	return &Model{
		name:   name,
		byName: make(map[string]interface{}),
	}
}

// Name returns the name of the model.
func (m *Model) Name() string {
	return m.name
}

// Samples returns the number of Sample calls.
func (m *Model) Samples() int {
	return m.samples
}

// AddCoverPoint registers a coverpoint with its legal values.
func (m *Model) AddCoverPoint(name string, xf XForm, bins ...uint64) error {
	if _, dup := m.byName[name]; dup {
		return fmt.Errorf("coverage item %s registered twice", name)
	}

	if len(bins) == 0 {
		return fmt.Errorf("coverpoint %s has no bins", name)
	}

	p := &coverPoint{
		name: name,
		bins: bins,
		xf:   xf,
		hits: make(map[uint64]int),
	}
	m.points = append(m.points, p)
	m.byName[name] = p

	return nil
}

// AddCross registers the cross product of existing coverpoints.
func (m *Model) AddCross(name string, items ...string) error {
	if _, dup := m.byName[name]; dup {
		return fmt.Errorf("coverage item %s registered twice", name)
	}

	if len(items) < 2 {
		return fmt.Errorf("cross %s needs at least two coverpoints", name)
	}

	c := &cross{
		name: name,
		hits: make(map[string]int),
	}

	for _, item := range items {
		p, ok := m.byName[item].(*coverPoint)
		if !ok {
			return fmt.Errorf("cross %s: %w: %s", name, ErrUnknownItem, item)
		}
		c.items = append(c.items, p)
	}

	c.tuples = product(c.items)
	m.crosses = append(m.crosses, c)
	m.byName[name] = c

	return nil
}

func product(items []*coverPoint) [][]uint64 {
	tuples := [][]uint64{{}}

	for _, p := range items {
		next := make([][]uint64, 0, len(tuples)*len(p.bins))
		for _, t := range tuples {
			for _, b := range p.bins {
				tuple := append(append([]uint64{}, t...), b)
				next = append(next, tuple)
			}
		}
		tuples = next
	}

	return tuples
}

func tupleKey(values []uint64) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}

	return "(" + strings.Join(parts, ", ") + ")"
}

func (p *coverPoint) hasBin(v uint64) bool {
	for _, b := range p.bins {
		if b == v {
			return true
		}
	}

	return false
}

// RecordPoint counts one hit of value on a coverpoint. Values outside the
// bins are ignored.
func (m *Model) RecordPoint(name string, value uint64) error {
	p, ok := m.byName[name].(*coverPoint)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, name)
	}

	if p.hasBin(value) {
		p.hits[value]++
	}

	return nil
}

// RecordCross counts one hit of a value tuple on a cross. Tuples with a
// value outside its coverpoint bins are ignored.
func (m *Model) RecordCross(name string, values ...uint64) error {
	c, ok := m.byName[name].(*cross)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownItem, name)
	}

	if len(values) != len(c.items) {
		return fmt.Errorf("cross %s takes %d values, got %d",
			name, len(c.items), len(values))
	}

	for i, p := range c.items {
		if !p.hasBin(values[i]) {
			return nil
		}
	}

	c.hits[tupleKey(values)]++

	return nil
}

// Sample records one stimulus on every coverpoint and cross.
func (m *Model) Sample(values ...uint64) error {
	m.samples++

	for _, p := range m.points {
		if err := m.RecordPoint(p.name, p.xf(values)); err != nil {
			return err
		}
	}

	for _, c := range m.crosses {
		tuple := make([]uint64, len(c.items))
		for i, p := range c.items {
			tuple[i] = p.xf(values)
		}

		if err := m.RecordCross(c.name, tuple...); err != nil {
			return err
		}
	}

	return nil
}

// Hits returns the hit count of one coverpoint bin.
func (m *Model) Hits(name string, bin uint64) int {
	p, ok := m.byName[name].(*coverPoint)
	if !ok {
		return 0
	}

	return p.hits[bin]
}

// CrossHits returns the hit count of one cross bin.
func (m *Model) CrossHits(name string, values ...uint64) int {
	c, ok := m.byName[name].(*cross)
	if !ok {
		return 0
	}

	return c.hits[tupleKey(values)]
}

// Coverage returns the percentage of bins, over every item, hit at least
// once.
func (m *Model) Coverage() float64 {
	return m.Snapshot().Coverage
}

// Closed reports whether every bin has been hit.
func (m *Model) Closed() bool {
	s := m.Snapshot()
	return s.Covered == s.Size
}

// PointCoverage returns the percentage of bins of one item hit at least
// once.
func (m *Model) PointCoverage(name string) (float64, error) {
	for _, it := range m.Snapshot().Items {
		if it.Name == name {
			return it.Coverage, nil
		}
	}

	return 0, fmt.Errorf("%w: %s", ErrUnknownItem, name)
}
