package services

import (
	"sort"
	"strings"
)

// FilterOptions are the distinct region and city values of the sites
// collection, used to populate the dashboard filter dropdowns.
type FilterOptions struct {
	Regions []string `json:"regions"`
	Cities  []string `json:"cities"`
}

// LoadFilterOptions collects the sorted distinct regions, and the cities of
// region (all cities when region is empty). Blank values are skipped.
func LoadFilterOptions(store DocumentStore, region string) (FilterOptions, error) {
	records, err := store.Find(SitesCollection, nil)
	if err != nil {
		return FilterOptions{}, err
	}

	regions := make(map[string]bool)
	cities := make(map[string]bool)
	for _, r := range records {
		site := SiteFromRecord(r)
		if v := strings.TrimSpace(site.Region); v != "" {
			regions[v] = true
		}
		if region != "" && !strings.EqualFold(site.Region, region) {
			continue
		}
		if v := strings.TrimSpace(site.City); v != "" {
			cities[v] = true
		}
	}
	return FilterOptions{Regions: sortedKeys(regions), Cities: sortedKeys(cities)}, nil
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
