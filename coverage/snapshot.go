package coverage

import (
	"encoding/xml"
	"fmt"
)

// Bin is the hit count of one bin.
type Bin struct {
	Value string `xml:"value,attr" yaml:"value"`
	Hits  int    `xml:"hits,attr" yaml:"hits"`
}

// Item is the state of one coverpoint or cross.
type Item struct {
	Name     string  `xml:"name,attr" yaml:"name"`
	Kind     string  `xml:"kind,attr" yaml:"kind"`
	Size     int     `xml:"size,attr" yaml:"size"`
	Covered  int     `xml:"covered,attr" yaml:"covered"`
	Coverage float64 `xml:"cover_percentage,attr" yaml:"cover_percentage"`
	Bins     []Bin   `xml:"bin" yaml:"bins"`
}

// Snapshot is the state of a whole model, in registration order.
type Snapshot struct {
	XMLName  xml.Name `xml:"coverage" yaml:"-"`
	Name     string   `xml:"name,attr" yaml:"name"`
	Samples  int      `xml:"samples,attr" yaml:"samples"`
	Size     int      `xml:"size,attr" yaml:"size"`
	Covered  int      `xml:"covered,attr" yaml:"covered"`
	Coverage float64  `xml:"cover_percentage,attr" yaml:"cover_percentage"`
	Items    []Item   `xml:"item" yaml:"items"`
}

// Snapshot copies the bin table.
func (m *Model) Snapshot() Snapshot {
	s := Snapshot{
		Name:    m.name,
		Samples: m.samples,
	}

	for _, p := range m.points {
		item := Item{Name: p.name, Kind: "coverpoint"}
		for _, b := range p.bins {
			item.add(fmt.Sprint(b), p.hits[b])
		}
		s.addItem(item)
	}

	for _, c := range m.crosses {
		item := Item{Name: c.name, Kind: "cross"}
		for _, t := range c.tuples {
			key := tupleKey(t)
			item.add(key, c.hits[key])
		}
		s.addItem(item)
	}

	s.Coverage = percent(s.Covered, s.Size)

	return s
}

func (it *Item) add(value string, hits int) {
	it.Bins = append(it.Bins, Bin{Value: value, Hits: hits})
	it.Size++

	if hits > 0 {
		it.Covered++
	}
}

func (s *Snapshot) addItem(it Item) {
	it.Coverage = percent(it.Covered, it.Size)
	s.Items = append(s.Items, it)
	s.Size += it.Size
	s.Covered += it.Covered
}

func percent(covered, size int) float64 {
	if size == 0 {
		return 0
	}

	return 100 * float64(covered) / float64(size)
}
