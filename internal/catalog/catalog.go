// Package catalog holds the static registry of parking facilities. The
// registry is loaded once at process start and shared read-only by both
// generation engines; mutable occupancy state lives in the store, never here.
package catalog

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/parkpulse/parking-iot/internal/models"
)

// Entry is one facility definition as configured.
type Entry struct {
	ID        int     `yaml:"id"`
	Name      string  `yaml:"name"`
	Spots     int     `yaml:"spots"`
	Rate      float64 `yaml:"rate"`
	District  string  `yaml:"district,omitempty"`
	PeakHours []int   `yaml:"peak_hours"`
}

// Catalog is an immutable, ordered facility registry.
type Catalog struct {
	entries []Entry
	byID    map[int]Entry
}

// districtRanges maps the default NYC facility id blocks to boroughs.
var districtRanges = []struct {
	name     string
	from, to int // inclusive
}{
	{"Manhattan", 1, 15},
	{"Brooklyn", 16, 25},
	{"Queens", 26, 35},
	{"Bronx", 36, 40},
	{"Staten_Island", 41, 45},
	{"Airport", 46, 50},
}

// districtForID resolves the default district for a facility id.
func districtForID(id int) string {
	for _, r := range districtRanges {
		if id >= r.from && id <= r.to {
			return r.name
		}
	}
	return "Unknown"
}

// defaultEntries lists the 50 NYC facilities used when no catalog file is
// configured. Districts are assigned by id range in New.
var defaultEntries = []Entry{
	// Manhattan (1-15), highest rates in the city
	{ID: 1, Name: "Times Square 44th St", Spots: 200, Rate: 35.00, PeakHours: []int{10, 11, 12, 17, 18, 19, 20}},
	{ID: 2, Name: "Penn Station 33rd St", Spots: 300, Rate: 28.00, PeakHours: []int{7, 8, 9, 17, 18, 19}},
	{ID: 3, Name: "Grand Central 42nd St", Spots: 250, Rate: 32.00, PeakHours: []int{7, 8, 9, 17, 18, 19}},
	{ID: 4, Name: "Financial District Wall St", Spots: 180, Rate: 40.00, PeakHours: []int{7, 8, 9, 17, 18}},
	{ID: 5, Name: "Midtown 5th Ave", Spots: 150, Rate: 38.00, PeakHours: []int{10, 11, 12, 13, 14, 15}},
	{ID: 6, Name: "Chelsea Market 15th St", Spots: 120, Rate: 25.00, PeakHours: []int{11, 12, 13, 18, 19, 20}},
	{ID: 7, Name: "Upper East Side 86th St", Spots: 100, Rate: 30.00, PeakHours: []int{9, 10, 11, 14, 15}},
	{ID: 8, Name: "Upper West Side 72nd St", Spots: 100, Rate: 28.00, PeakHours: []int{9, 10, 11, 14, 15}},
	{ID: 9, Name: "SoHo Broadway", Spots: 80, Rate: 35.00, PeakHours: []int{11, 12, 13, 14, 15, 16}},
	{ID: 10, Name: "Tribeca Greenwich St", Spots: 90, Rate: 32.00, PeakHours: []int{11, 12, 13, 18, 19}},
	{ID: 11, Name: "East Village 2nd Ave", Spots: 70, Rate: 22.00, PeakHours: []int{18, 19, 20, 21, 22}},
	{ID: 12, Name: "West Village 7th Ave", Spots: 60, Rate: 25.00, PeakHours: []int{18, 19, 20, 21, 22}},
	{ID: 13, Name: "Harlem 125th St", Spots: 150, Rate: 15.00, PeakHours: []int{9, 10, 11, 17, 18}},
	{ID: 14, Name: "Lincoln Center 65th St", Spots: 180, Rate: 30.00, PeakHours: []int{18, 19, 20, 21}},
	{ID: 15, Name: "Columbus Circle", Spots: 140, Rate: 35.00, PeakHours: []int{10, 11, 12, 17, 18, 19}},
	// Brooklyn (16-25)
	{ID: 16, Name: "Downtown Brooklyn Borough Hall", Spots: 205, Rate: 9.00, PeakHours: []int{8, 9, 10, 17, 18}},
	{ID: 17, Name: "DUMBO Water St", Spots: 150, Rate: 18.00, PeakHours: []int{10, 11, 12, 18, 19, 20}},
	{ID: 18, Name: "Williamsburg Bedford Ave", Spots: 120, Rate: 15.00, PeakHours: []int{11, 12, 18, 19, 20, 21}},
	{ID: 19, Name: "Bay Ridge 5th Ave", Spots: 205, Rate: 4.00, PeakHours: []int{10, 11, 12, 17, 18}},
	{ID: 20, Name: "Park Slope 7th Ave", Spots: 100, Rate: 12.00, PeakHours: []int{9, 10, 11, 17, 18, 19}},
	{ID: 21, Name: "Brooklyn Heights Montague St", Spots: 90, Rate: 14.00, PeakHours: []int{8, 9, 17, 18, 19}},
	{ID: 22, Name: "Coney Island Boardwalk", Spots: 300, Rate: 8.00, PeakHours: []int{10, 11, 12, 13, 14, 15}},
	{ID: 23, Name: "Bensonhurst 86th St", Spots: 120, Rate: 5.00, PeakHours: []int{10, 11, 17, 18}},
	{ID: 24, Name: "Flatbush Junction", Spots: 180, Rate: 6.00, PeakHours: []int{9, 10, 11, 17, 18, 19}},
	{ID: 25, Name: "Brighton Beach", Spots: 150, Rate: 7.00, PeakHours: []int{10, 11, 12, 13, 14}},
	// Queens (26-35)
	{ID: 26, Name: "Long Island City Court Square", Spots: 476, Rate: 9.00, PeakHours: []int{7, 8, 9, 17, 18, 19}},
	{ID: 27, Name: "Flushing Main St", Spots: 200, Rate: 8.00, PeakHours: []int{10, 11, 12, 13, 17, 18, 19}},
	{ID: 28, Name: "Jamaica Station", Spots: 250, Rate: 6.00, PeakHours: []int{6, 7, 8, 17, 18, 19}},
	{ID: 29, Name: "Astoria Steinway St", Spots: 46, Rate: 7.00, PeakHours: []int{10, 11, 18, 19, 20}},
	{ID: 30, Name: "Forest Hills 71st Ave", Spots: 150, Rate: 8.00, PeakHours: []int{9, 10, 11, 17, 18}},
	{ID: 31, Name: "Bayside Bell Blvd", Spots: 120, Rate: 6.00, PeakHours: []int{10, 11, 12, 17, 18}},
	{ID: 32, Name: "Queens Center Mall", Spots: 400, Rate: 5.00, PeakHours: []int{11, 12, 13, 14, 15, 16, 17}},
	{ID: 33, Name: "Rego Park 63rd Dr", Spots: 180, Rate: 5.00, PeakHours: []int{10, 11, 12, 17, 18}},
	{ID: 34, Name: "Jackson Heights 37th Ave", Spots: 100, Rate: 6.00, PeakHours: []int{11, 12, 13, 18, 19, 20}},
	{ID: 35, Name: "Queens Family Court", Spots: 100, Rate: 5.00, PeakHours: []int{8, 9, 10, 14, 15, 16}},
	// Bronx (36-40)
	{ID: 36, Name: "Jerome-190th St Garage", Spots: 416, Rate: 7.00, PeakHours: []int{8, 9, 10, 17, 18}},
	{ID: 37, Name: "Yankee Stadium Lot A", Spots: 600, Rate: 25.00, PeakHours: []int{17, 18, 19, 20}},
	{ID: 38, Name: "Fordham Road Plaza", Spots: 150, Rate: 6.00, PeakHours: []int{10, 11, 12, 17, 18, 19}},
	{ID: 39, Name: "Bronx Zoo Southern Blvd", Spots: 300, Rate: 18.00, PeakHours: []int{9, 10, 11, 12, 13, 14}},
	{ID: 40, Name: "Bronxdale Municipal", Spots: 100, Rate: 5.00, PeakHours: []int{8, 9, 17, 18}},
	// Staten Island (41-45)
	{ID: 41, Name: "St George Ferry Terminal", Spots: 200, Rate: 5.00, PeakHours: []int{6, 7, 8, 17, 18, 19}},
	{ID: 42, Name: "Staten Island Mall", Spots: 400, Rate: 0.00, PeakHours: []int{11, 12, 13, 14, 15, 16, 17}},
	{ID: 43, Name: "Staten Island Courthouse", Spots: 150, Rate: 5.00, PeakHours: []int{8, 9, 10, 14, 15}},
	{ID: 44, Name: "Great Kills Municipal", Spots: 100, Rate: 3.00, PeakHours: []int{10, 11, 12, 13, 14}},
	{ID: 45, Name: "New Dorp Municipal", Spots: 80, Rate: 3.00, PeakHours: []int{10, 11, 12, 17, 18}},
	// Airport district (46-50)
	{ID: 46, Name: "JFK Terminal 1 Garage", Spots: 500, Rate: 18.00, PeakHours: []int{5, 6, 7, 14, 15, 20, 21}},
	{ID: 47, Name: "JFK Long-Term Lot", Spots: 1000, Rate: 8.00, PeakHours: []int{5, 6, 7, 8}},
	{ID: 48, Name: "LaGuardia Terminal B", Spots: 400, Rate: 18.00, PeakHours: []int{5, 6, 7, 14, 15, 20, 21}},
	{ID: 49, Name: "LaGuardia Economy Lot", Spots: 600, Rate: 6.00, PeakHours: []int{5, 6, 7}},
	{ID: 50, Name: "Newark EWR Daily Lot", Spots: 800, Rate: 12.00, PeakHours: []int{5, 6, 7, 14, 15, 20, 21}},
}

// Default returns the built-in 50-facility NYC catalog.
func Default() *Catalog {
	c, _ := New(defaultEntries)
	return c
}

// New builds a catalog from entries, filling in districts by id range where
// an entry does not name one explicitly.
func New(entries []Entry) (*Catalog, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("catalog: no facilities configured")
	}
	byID := make(map[int]Entry, len(entries))
	out := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.ID <= 0 {
			return nil, fmt.Errorf("catalog: facility %q has invalid id %d", e.Name, e.ID)
		}
		if e.Spots <= 0 {
			return nil, fmt.Errorf("catalog: facility %d has invalid capacity %d", e.ID, e.Spots)
		}
		if e.Rate < 0 {
			return nil, fmt.Errorf("catalog: facility %d has negative rate", e.ID)
		}
		if _, dup := byID[e.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate facility id %d", e.ID)
		}
		if e.District == "" {
			e.District = districtForID(e.ID)
		}
		byID[e.ID] = e
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return &Catalog{entries: out, byID: byID}, nil
}

// LoadFile reads a YAML catalog file of the form:
//
//	facilities:
//	  - id: 1
//	    name: Times Square 44th St
//	    spots: 200
//	    rate: 35.0
//	    district: Manhattan
//	    peak_hours: [10, 11, 12]
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	var doc struct {
		Facilities []Entry `yaml:"facilities"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("catalog: parse %s: %w", path, err)
	}
	return New(doc.Facilities)
}

// Entries returns the ordered facility definitions.
func (c *Catalog) Entries() []Entry {
	return c.entries
}

// Get returns the entry for a facility id.
func (c *Catalog) Get(id int) (Entry, bool) {
	e, ok := c.byID[id]
	return e, ok
}

// Len returns the number of facilities.
func (c *Catalog) Len() int {
	return len(c.entries)
}

// Districts returns the distinct district names in catalog order.
func (c *Catalog) Districts() []string {
	seen := make(map[string]bool)
	var out []string
	for _, e := range c.entries {
		if !seen[e.District] {
			seen[e.District] = true
			out = append(out, e.District)
		}
	}
	return out
}

// Facility materializes the initial mutable state for an entry, with all
// spots available.
func (e Entry) Facility() models.Facility {
	peaks := make([]int, len(e.PeakHours))
	copy(peaks, e.PeakHours)
	return models.Facility{
		ID:          e.ID,
		Name:        e.Name,
		District:    e.District,
		TotalSpots:  e.Spots,
		Available:   e.Spots,
		RatePerHour: e.Rate,
		PeakHours:   peaks,
	}
}
