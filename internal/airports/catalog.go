package airports

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

// Airport is one row of the master airport list.
type Airport struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// ErrUnknownAirport is returned for names or codes absent from the catalog.
var ErrUnknownAirport = errors.New("unknown airport")

// Catalog indexes airports by IATA code and by display name. Loaded once
// at startup and read-only afterwards.
type Catalog struct {
	byCode map[string]Airport
	byName map[string]string // lowercase name -> code
}

// Load reads a CSV with at least iata_code, name, municipality and
// iso_country columns.
func Load(r io.Reader) (*Catalog, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read airport csv header: %w", err)
	}

	col := map[string]int{}
	for i, name := range header {
		col[strings.TrimSpace(name)] = i
	}
	for _, required := range []string{"iata_code", "name", "municipality", "iso_country"} {
		if _, ok := col[required]; !ok {
			return nil, fmt.Errorf("airport csv missing column %q", required)
		}
	}

	c := &Catalog{
		byCode: map[string]Airport{},
		byName: map[string]string{},
	}
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read airport csv: %w", err)
		}
		code := strings.ToUpper(strings.TrimSpace(row[col["iata_code"]]))
		if code == "" {
			continue
		}
		a := Airport{
			Code:    code,
			Name:    row[col["name"]],
			City:    row[col["municipality"]],
			Country: row[col["iso_country"]],
		}
		c.byCode[code] = a
		c.byName[strings.ToLower(a.Name)] = code
	}
	return c, nil
}

// LoadFile is Load over a file path.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Lookup returns the airport for an IATA code.
func (c *Catalog) Lookup(code string) (Airport, error) {
	a, ok := c.byCode[strings.ToUpper(code)]
	if !ok {
		return Airport{}, fmt.Errorf("%w: %s", ErrUnknownAirport, code)
	}
	return a, nil
}

// IATAForName resolves a full airport name, case-insensitively.
func (c *Catalog) IATAForName(name string) (string, error) {
	code, ok := c.byName[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownAirport, name)
	}
	return code, nil
}

// Served intersects the catalog with a second CSV holding the operator's
// airports (an iata_code column), returning full rows sorted by name.
func (c *Catalog) Served(r io.Reader) ([]Airport, error) {
	reader := csv.NewReader(r)
	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("could not read served csv header: %w", err)
	}
	codeIdx := -1
	for i, name := range header {
		if strings.TrimSpace(name) == "iata_code" {
			codeIdx = i
			break
		}
	}
	if codeIdx < 0 {
		return nil, errors.New(`served csv missing column "iata_code"`)
	}

	var out []Airport
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("could not read served csv: %w", err)
		}
		if a, ok := c.byCode[strings.ToUpper(strings.TrimSpace(row[codeIdx]))]; ok {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// ServedFile is Served over a file path.
func (c *Catalog) ServedFile(path string) ([]Airport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return c.Served(f)
}
