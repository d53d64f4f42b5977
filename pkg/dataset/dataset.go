// Package dataset groups image records by source directory and derives
// per-directory summaries.
package dataset

import (
	"sort"
	"time"

	"github.com/denysvitali/aperture-graph/internal/models"
)

// Group holds the records of a single source directory
type Group struct {
	Directory string
	Records   []models.ImageRecord
}

// Directories returns the distinct directory names in order of first appearance
func Directories(records []models.ImageRecord) []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, r := range records {
		if seen[r.Directory] {
			continue
		}
		seen[r.Directory] = true
		dirs = append(dirs, r.Directory)
	}
	return dirs
}

// Groups splits records by directory. Within a group records are ordered by
// ascending f-number; records without one come last. Ties keep input order.
func Groups(records []models.ImageRecord) []Group {
	dirs := Directories(records)
	index := make(map[string]int, len(dirs))
	groups := make([]Group, len(dirs))
	for i, dir := range dirs {
		index[dir] = i
		groups[i].Directory = dir
	}

	for _, r := range records {
		g := &groups[index[r.Directory]]
		g.Records = append(g.Records, r)
	}

	for i := range groups {
		SortByFNumber(groups[i].Records)
	}
	return groups
}

// SortByFNumber sorts records in place by ascending f-number, absent last
func SortByFNumber(records []models.ImageRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].FNumber, records[j].FNumber
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
}

// Summarize returns one summary per group
func Summarize(groups []Group) []models.GroupSummary {
	summaries := make([]models.GroupSummary, 0, len(groups))
	for _, g := range groups {
		s := models.GroupSummary{Directory: g.Directory}
		for _, r := range g.Records {
			s.Files++
			s.TotalSize += r.FileSize
			if r.FNumber == nil {
				continue
			}
			s.WithFNumber++
			v := *r.FNumber
			if s.MinFNumber == nil || v < *s.MinFNumber {
				s.MinFNumber = &v
			}
			if s.MaxFNumber == nil || v > *s.MaxFNumber {
				s.MaxFNumber = &v
			}
		}
		summaries = append(summaries, s)
	}
	return summaries
}

// Summary assembles the inventory summary of a completed scan
func Summary(root string, groups []Group, disk models.DiskStats) models.InventorySummary {
	summary := models.InventorySummary{
		Root:      root,
		ScannedAt: time.Now(),
		Groups:    Summarize(groups),
		Disk:      disk,
	}
	for _, g := range summary.Groups {
		summary.Files += g.Files
		summary.TotalSize += g.TotalSize
	}
	if disk.Used > 0 {
		summary.DatasetPct = float64(summary.TotalSize) / float64(disk.Used) * 100
	}
	return summary
}

// Flatten returns the records of all groups in group order
func Flatten(groups []Group) []models.ImageRecord {
	var out []models.ImageRecord
	for _, g := range groups {
		out = append(out, g.Records...)
	}
	return out
}
