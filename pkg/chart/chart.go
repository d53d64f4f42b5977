package chart

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/denysvitali/aperture-graph/internal/models"
	"github.com/denysvitali/aperture-graph/pkg/config"
	"github.com/denysvitali/aperture-graph/pkg/dataset"
)

const (
	xAxisName = "f_number"
	yAxisName = "file_size"
)

// tooltipFormatter shows the hovered file with its coordinates
const tooltipFormatter = `function (p) {
	return 'File:' + p.name + '<br>f_number:' + p.value[0] + '<br>y:' + p.value[1];
}`

// Options controls the chart page
type Options struct {
	Title      string
	Subtitle   string
	Width      string
	Height     string
	AssetsHost string
}

// OptionsFromConfig maps the chart configuration to rendering options
func OptionsFromConfig(cfg config.ChartConfig) Options {
	return Options{
		Title:      cfg.Title,
		Subtitle:   cfg.Subtitle,
		Width:      cfg.Width,
		Height:     cfg.Height,
		AssetsHost: cfg.AssetsHost,
	}
}

// Build creates a line chart with one series per directory.
// Records without an f-number cannot be placed on the x axis and are left out.
func Build(groups []dataset.Group, o Options) *charts.Line {
	initOpts := opts.Initialization{
		PageTitle: o.Title,
		Width:     o.Width,
		Height:    o.Height,
	}
	if o.AssetsHost != "" {
		initOpts.AssetsHost = o.AssetsHost
	}

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(initOpts),
		charts.WithTitleOpts(opts.Title{Title: o.Title, Subtitle: o.Subtitle}),
		charts.WithXAxisOpts(opts.XAxis{Name: xAxisName, Type: "value"}),
		charts.WithYAxisOpts(opts.YAxis{Name: yAxisName, Type: "value"}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:      opts.Bool(true),
			Trigger:   "item",
			Formatter: opts.FuncOpts(tooltipFormatter),
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "inside"}),
	)

	for _, g := range groups {
		line.AddSeries(g.Directory, points(g.Records),
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(true)}),
		)
	}

	return line
}

func points(records []models.ImageRecord) []opts.LineData {
	data := make([]opts.LineData, 0, len(records))
	for _, r := range records {
		if r.FNumber == nil {
			continue
		}
		data = append(data, opts.LineData{
			Name:  r.Filename,
			Value: []interface{}{*r.FNumber, r.FileSize},
		})
	}
	return data
}

// Render writes the chart as a standalone HTML page
func Render(ctx context.Context, w io.Writer, groups []dataset.Group, o Options) error {
	_, span := otel.Tracer("aperture-graph").Start(ctx, "render_chart")
	defer span.End()

	plotted := 0
	for _, g := range groups {
		for _, r := range g.Records {
			if r.HasFNumber() {
				plotted++
			}
		}
	}
	span.SetAttributes(
		attribute.Int("series", len(groups)),
		attribute.Int("points", plotted),
	)

	if err := Build(groups, o).Render(w); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

// RenderBytes renders the chart page into memory
func RenderBytes(ctx context.Context, groups []dataset.Group, o Options) ([]byte, error) {
	var buf bytes.Buffer
	if err := Render(ctx, &buf, groups, o); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
