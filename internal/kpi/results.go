package kpi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
)

// Result group names.
const (
	GroupHydro     = "Hydro"
	GroupWind      = "wind_kpi"
	GroupSolar     = "solar_kpi"
	GroupEnergyMix = "energy_mix"
)

// Results accumulates KPI values per group. Writes merge into a group:
// setting a key never drops the other keys of the same group.
type Results struct {
	order  []string
	groups map[string]*group
}

type group struct {
	keys   []string
	values map[string]any
}

func NewResults() *Results {
	return &Results{groups: map[string]*group{}}
}

// Set stores value under group/key, replacing only that key.
func (r *Results) Set(groupName, key string, value any) {
	g, ok := r.groups[groupName]
	if !ok {
		g = &group{values: map[string]any{}}
		r.groups[groupName] = g
		r.order = append(r.order, groupName)
	}
	if _, exists := g.values[key]; !exists {
		g.keys = append(g.keys, key)
	}
	g.values[key] = value
}

// Get returns the value stored under group/key.
func (r *Results) Get(groupName, key string) (any, bool) {
	g, ok := r.groups[groupName]
	if !ok {
		return nil, false
	}
	v, ok := g.values[key]
	return v, ok
}

// Groups returns group names in insertion order.
func (r *Results) Groups() []string {
	return append([]string(nil), r.order...)
}

// Keys returns the keys of a group in insertion order.
func (r *Results) Keys(groupName string) []string {
	g, ok := r.groups[groupName]
	if !ok {
		return nil
	}
	return append([]string(nil), g.keys...)
}

func (r *Results) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, name := range r.order {
		if i > 0 {
			buf.WriteByte(',')
		}
		writeKey(&buf, name)
		g := r.groups[name]
		buf.WriteByte('{')
		for j, k := range g.keys {
			if j > 0 {
				buf.WriteByte(',')
			}
			writeKey(&buf, k)
			if err := writeValue(&buf, g.values[k]); err != nil {
				return nil, fmt.Errorf("%s.%s: %w", name, k, err)
			}
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writeValue(buf *bytes.Buffer, v any) error {
	switch x := v.(type) {
	case float64:
		writeFloat(buf, x)
		return nil
	case map[string]float64:
		keys := make([]string, 0, len(x))
		for k := range x {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		vals := make([]float64, len(keys))
		for i, k := range keys {
			vals[i] = x[k]
		}
		raw, _ := Values{Keys: keys, Vals: vals}.MarshalJSON()
		buf.Write(raw)
		return nil
	default:
		raw, err := json.Marshal(v)
		if err != nil {
			return err
		}
		buf.Write(raw)
		return nil
	}
}
