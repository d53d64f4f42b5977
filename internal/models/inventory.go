package models

import "time"

// GroupSummary aggregates the records of one source directory
type GroupSummary struct {
	Directory   string   `json:"directory" yaml:"directory"`
	Files       int      `json:"files" yaml:"files"`
	WithFNumber int      `json:"with_f_number" yaml:"with_f_number"`
	TotalSize   int64    `json:"total_size" yaml:"total_size"`
	MinFNumber  *float64 `json:"min_f_number" yaml:"min_f_number"`
	MaxFNumber  *float64 `json:"max_f_number" yaml:"max_f_number"`
}

// Missing returns the number of files without an f-number
func (s GroupSummary) Missing() int {
	return s.Files - s.WithFNumber
}

// DiskStats represents usage of the filesystem holding the data root
type DiskStats struct {
	Total   uint64  `json:"total" yaml:"total"`     // Total disk space in bytes
	Used    uint64  `json:"used" yaml:"used"`       // Used disk space in bytes
	Free    uint64  `json:"free" yaml:"free"`       // Free disk space in bytes
	Percent float64 `json:"percent" yaml:"percent"` // Disk usage percentage
}

// InventorySummary describes a completed scan
type InventorySummary struct {
	Root       string         `json:"root" yaml:"root"`
	ScannedAt  time.Time      `json:"scanned_at" yaml:"scanned_at"`
	Files      int            `json:"files" yaml:"files"`
	TotalSize  int64          `json:"total_size" yaml:"total_size"`
	Groups     []GroupSummary `json:"groups" yaml:"groups"`
	Disk       DiskStats      `json:"disk" yaml:"disk"`
	DatasetPct float64        `json:"dataset_percent_of_used" yaml:"dataset_percent_of_used"` // Share of used disk space taken by the dataset
}
