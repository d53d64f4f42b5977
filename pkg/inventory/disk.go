package inventory

import (
	"fmt"

	"github.com/shirou/gopsutil/v4/disk"

	"github.com/denysvitali/aperture-graph/internal/models"
)

// VolumeUsage returns usage statistics of the filesystem holding path
func VolumeUsage(path string) (models.DiskStats, error) {
	usage, err := disk.Usage(path)
	if err != nil {
		return models.DiskStats{}, fmt.Errorf("failed to get disk usage of %s: %w", path, err)
	}

	return models.DiskStats{
		Total:   usage.Total,
		Used:    usage.Used,
		Free:    usage.Free,
		Percent: usage.UsedPercent,
	}, nil
}
