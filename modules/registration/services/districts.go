package services

import (
	"strings"
	"time"

	"github.com/go-faster/errors"

	"github.com/campsite-dev/campseed/modules/registration/domain"
	"github.com/campsite-dev/campseed/pkg/ingest"
)

// BuildDistricts reduces a districts export to one District per distinct
// (trimmed, case-insensitive) name. The first spelling seen is kept verbatim.
// Zones of duplicate rows are merged into the surviving district in order.
func BuildDistricts(t *ingest.Table, profile ingest.Profile, now time.Time) ([]domain.District, error) {
	nameCol, err := profile.Resolve(t.Header, ingest.FieldDistrictName)
	if err != nil {
		return nil, errors.Wrap(err, "district name column")
	}
	cols := profile.Lookup(t.Header, ingest.FieldZones)

	unique := ingest.Dedup(t.Rows, func(r ingest.Row) string { return r.Get(nameCol) })
	zones := make(map[string][]string, len(unique))
	for _, r := range t.Rows {
		k := ingest.DedupKey(r.Get(nameCol))
		if k == "" {
			continue
		}
		zones[k] = append(zones[k], splitZones(cols.Value(r, ingest.FieldZones))...)
	}

	now = now.UTC()
	out := make([]domain.District, 0, len(unique))
	for _, r := range unique {
		name := r.Get(nameCol)
		z := ingest.DedupStrings(zones[ingest.DedupKey(name)])
		for i := range z {
			z[i] = strings.TrimSpace(z[i])
		}
		out = append(out, domain.District{
			ID:        DistrictID(name),
			Name:      name,
			Zones:     z,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}
	return out, nil
}

func splitZones(v string) []string {
	if v == "" {
		return nil
	}
	return strings.FieldsFunc(v, func(r rune) bool { return r == ',' || r == ';' || r == '|' })
}
