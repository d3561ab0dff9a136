package model

import (
	"errors"
	"fmt"
	"sort"
)

// Unit describes one generator or load node.
// Units:
// - Pmax: MW (0 when the source file does not provide it)
type Unit struct {
	Name    string
	Carrier Carrier
	Zone    string
	Pmax    float64
}

// Characteristics is the metadata table joined against time series columns.
// Row order is preserved from the source file; it drives column order in
// every carrier or zone selection.
type Characteristics struct {
	Units []Unit

	index map[string]int
}

func NewCharacteristics(units []Unit) (*Characteristics, error) {
	c := &Characteristics{Units: units}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Characteristics) Validate() error {
	if c == nil {
		return errors.New("characteristics are nil")
	}
	idx := make(map[string]int, len(c.Units))
	for i, u := range c.Units {
		if u.Name == "" {
			return fmt.Errorf("row %d: name is required", i)
		}
		if _, dup := idx[u.Name]; dup {
			return fmt.Errorf("duplicate unit name %q", u.Name)
		}
		if u.Pmax < 0 {
			return fmt.Errorf("unit %q: Pmax must be >= 0", u.Name)
		}
		idx[u.Name] = i
	}
	c.index = idx
	return nil
}

// Lookup returns the unit with the given name.
func (c *Characteristics) Lookup(name string) (Unit, bool) {
	if c == nil {
		return Unit{}, false
	}
	if c.index == nil {
		c.buildIndex()
	}
	i, ok := c.index[name]
	if !ok {
		return Unit{}, false
	}
	return c.Units[i], true
}

func (c *Characteristics) buildIndex() {
	c.index = make(map[string]int, len(c.Units))
	for i, u := range c.Units {
		c.index[u.Name] = i
	}
}

// Names returns all unit names in source order.
func (c *Characteristics) Names() []string {
	if c == nil {
		return nil
	}
	out := make([]string, 0, len(c.Units))
	for _, u := range c.Units {
		out = append(out, u.Name)
	}
	return out
}

// Filter returns the units matching keep, in source order.
func (c *Characteristics) Filter(keep func(Unit) bool) []Unit {
	if c == nil {
		return nil
	}
	var out []Unit
	for _, u := range c.Units {
		if keep(u) {
			out = append(out, u)
		}
	}
	return out
}

// NamesByCarrier returns the names of units of the given carrier.
func (c *Characteristics) NamesByCarrier(carrier Carrier) []string {
	return unitNames(c.Filter(func(u Unit) bool { return u.Carrier == carrier }))
}

// NamesByCarrierAndZone returns the names of units of the given carrier in zone.
func (c *Characteristics) NamesByCarrierAndZone(carrier Carrier, zone string) []string {
	return unitNames(c.Filter(func(u Unit) bool { return u.Carrier == carrier && u.Zone == zone }))
}

// NamesByZone returns the names of units located in zone.
func (c *Characteristics) NamesByZone(zone string) []string {
	return unitNames(c.Filter(func(u Unit) bool { return u.Zone == zone }))
}

// Carriers returns the distinct carriers, sorted.
func (c *Characteristics) Carriers() []Carrier {
	if c == nil {
		return nil
	}
	seen := map[Carrier]bool{}
	var out []Carrier
	for _, u := range c.Units {
		if !seen[u.Carrier] {
			seen[u.Carrier] = true
			out = append(out, u.Carrier)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Zones returns the distinct zones, sorted.
func (c *Characteristics) Zones() []string {
	if c == nil {
		return nil
	}
	seen := map[string]bool{}
	var out []string
	for _, u := range c.Units {
		if u.Zone != "" && !seen[u.Zone] {
			seen[u.Zone] = true
			out = append(out, u.Zone)
		}
	}
	sort.Strings(out)
	return out
}

// PmaxShares splits 1.0 across units proportionally to Pmax. When every
// Pmax is zero the split is uniform.
func PmaxShares(units []Unit) []float64 {
	shares := make([]float64, len(units))
	if len(units) == 0 {
		return shares
	}
	total := 0.0
	for _, u := range units {
		total += u.Pmax
	}
	for i, u := range units {
		if total > 0 {
			shares[i] = u.Pmax / total
		} else {
			shares[i] = 1 / float64(len(units))
		}
	}
	return shares
}

func unitNames(units []Unit) []string {
	out := make([]string, 0, len(units))
	for _, u := range units {
		out = append(out, u.Name)
	}
	return out
}
