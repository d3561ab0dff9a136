package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"chronics-kpi/internal/model"
)

const (
	ProdsCharacFile = "prods_charac.csv"
	LoadsCharacFile = "loads_charac.csv"
)

// LoadCharacteristics reads prods_charac.csv and loads_charac.csv from dir.
func LoadCharacteristics(dir string) (prods, loads *model.Characteristics, err error) {
	prods, err = LoadCharacteristicsFile(filepath.Join(dir, ProdsCharacFile), true)
	if err != nil {
		return nil, nil, err
	}
	loads, err = LoadCharacteristicsFile(filepath.Join(dir, LoadsCharacFile), false)
	if err != nil {
		return nil, nil, err
	}
	return prods, loads, nil
}

// LoadCharacteristicsFile reads one characteristics CSV. Generator files
// need a carrier column ("type"); extra columns are ignored.
func LoadCharacteristicsFile(path string, withCarrier bool) (*model.Characteristics, error) {
	resolved, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}
	rc, err := Open(resolved)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	units, err := parseCharacteristics(rc, withCarrier)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", resolved, err)
	}
	c, err := model.NewCharacteristics(units)
	if err != nil {
		return nil, fmt.Errorf("invalid characteristics %s: %w", resolved, err)
	}
	return c, nil
}

func parseCharacteristics(r io.Reader, withCarrier bool) ([]model.Unit, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("empty file")
		}
		return nil, err
	}
	col := map[string]int{}
	for i, h := range header {
		col[strings.ToLower(strings.TrimSpace(h))] = i
	}
	required := []string{"name", "zone", "pmax"}
	if withCarrier {
		required = append(required, "type")
	}
	for _, k := range required {
		if _, ok := col[k]; !ok {
			return nil, fmt.Errorf("missing column %q", k)
		}
	}

	var units []model.Unit
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		get := func(k string) string {
			i := col[k]
			if i >= len(rec) {
				return ""
			}
			return strings.TrimSpace(rec[i])
		}
		pmax, err := strconv.ParseFloat(get("pmax"), 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid Pmax %q", line, get("pmax"))
		}
		u := model.Unit{Name: get("name"), Zone: get("zone"), Pmax: pmax}
		if withCarrier {
			u.Carrier = model.ParseCarrier(get("type"))
		}
		units = append(units, u)
	}
	return units, nil
}
