package services

import (
	"math"
	"strings"

	"group-actions-backend/internal/models"
)

// earthRadiusMiles is the Earth radius used for geo narrowing, in
// statute miles
const earthRadiusMiles = 3958.8

// GroupFilter carries the query narrowing parameters of the public
// group listing. Zero values mean "not supplied".
type GroupFilter struct {
	GroupCode string
	Query     string
	Tag       string

	Lat      *float64
	Long     *float64
	Distance *float64
}

// FilterPublicGroups applies the narrowing rules to the public set.
// Rules are conjunctive: a group survives only if it matches every
// supplied filter.
func FilterPublicGroups(groups []*models.Group, f GroupFilter) []*models.Group {
	out := groups
	if f.GroupCode != "" {
		out = filterGroups(out, func(g *models.Group) bool {
			return g.GroupCode == f.GroupCode
		})
	}
	if f.Query != "" {
		// Exact group_code match, or case-sensitive substring of the name
		out = filterGroups(out, func(g *models.Group) bool {
			return g.GroupCode == f.Query || strings.Contains(g.Name, f.Query)
		})
	}
	if f.Tag != "" {
		queryTags := parseTagList(f.Tag)
		if len(queryTags) > 0 {
			out = filterGroups(out, func(g *models.Group) bool {
				return hasAllTags(g.Tags, queryTags)
			})
		}
	}
	if f.Lat != nil && f.Long != nil && f.Distance != nil {
		out = filterGroups(out, func(g *models.Group) bool {
			if g.Latitude == nil || g.Longitude == nil {
				return false
			}
			// Boundary is inclusive: exactly at the distance is kept
			return distanceMiles(*g.Latitude, *g.Longitude, *f.Lat, *f.Long) <= *f.Distance
		})
	}
	return out
}

// MergeMemberGroups unions the caller's member groups into the
// filtered public set, deduplicated by group_id. Filters are not
// reapplied to the membership-sourced groups.
func MergeMemberGroups(public, member []*models.Group) []*models.Group {
	merged := make([]*models.Group, 0, len(public)+len(member))
	seen := make(map[int64]bool, len(public))
	for _, g := range public {
		merged = append(merged, g)
		seen[g.GroupID] = true
	}
	for _, g := range member {
		if !seen[g.GroupID] {
			merged = append(merged, g)
			seen[g.GroupID] = true
		}
	}
	return merged
}

func filterGroups(groups []*models.Group, keep func(*models.Group) bool) []*models.Group {
	out := groups[:0:0]
	for _, g := range groups {
		if keep(g) {
			out = append(out, g)
		}
	}
	return out
}

// parseTagList splits a comma-separated tag parameter, stripping all
// whitespace first
func parseTagList(raw string) []string {
	raw = strings.ReplaceAll(raw, " ", "")
	var tags []string
	for _, t := range strings.Split(raw, ",") {
		if t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

// hasAllTags reports whether every queried tag is present on the
// group. Extra group tags are fine.
func hasAllTags(groupTags, queryTags []string) bool {
	set := make(map[string]bool, len(groupTags))
	for _, t := range groupTags {
		set[t] = true
	}
	for _, t := range queryTags {
		if !set[t] {
			return false
		}
	}
	return true
}

// distanceMiles computes the great-circle distance between two points
// using the haversine formula
func distanceMiles(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRadians(lat2 - lat1)
	dLon := toRadians(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRadians(lat1))*math.Cos(toRadians(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusMiles * c
}

func toRadians(deg float64) float64 {
	return deg * math.Pi / 180
}
