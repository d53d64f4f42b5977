package cmd

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/denysvitali/aperture-graph/internal/models"
	"github.com/denysvitali/aperture-graph/pkg/config"
	"github.com/denysvitali/aperture-graph/pkg/dataset"
	"github.com/denysvitali/aperture-graph/pkg/inventory"
	"github.com/denysvitali/aperture-graph/pkg/telemetry"
)

// inventoryResult is the table built from one scan of the data root
type inventoryResult struct {
	records []models.ImageRecord
	groups  []dataset.Group
	summary models.InventorySummary
}

// runInventory enumerates the data root, reads every file's metadata and
// groups the resulting records by directory.
func runInventory(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*inventoryResult, error) {
	scanner := inventory.New(cfg.Scan, logger)

	records, err := scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}

	groups := dataset.Groups(records)

	// Volume usage only decorates the summary; a failure must not stop the run
	disk, err := inventory.VolumeUsage(scanner.Root())
	if err != nil {
		logger.Warnf("%v", err)
	}

	summary := dataset.Summary(scanner.Root(), groups, disk)

	logger.WithFields(logrus.Fields{
		"root":        summary.Root,
		"directories": len(summary.Groups),
		"files":       summary.Files,
		"total_size":  summary.TotalSize,
	}).Info("Inventory complete")

	if cfg.Telemetry.Enabled {
		telemetry.ReportJSON(ctx, logger, "inventory_summary", summary)
	}

	return &inventoryResult{
		records: dataset.Flatten(groups),
		groups:  groups,
		summary: summary,
	}, nil
}
