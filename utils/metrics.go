package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/voxelsplace/voxelize/voxel"
)

const stageLabel = "stage"

// runMetrics holds the gauges of a single run. Each run gets its own
// registry so the textfile only carries what that run produced.
type runMetrics struct {
	registry *prometheus.Registry

	triangles       prometheus.Gauge
	skipped         prometheus.Gauge
	surfaceVoxels   prometheus.Gauge
	filledVoxels    prometheus.Gauge
	unbalanced      prometheus.Gauge
	distinctColors  prometheus.Gauge
	paletteColors   prometheus.Gauge
	chunks          prometheus.Gauge
	stageDuration   *prometheus.GaugeVec
	lastRunUnixTime prometheus.Gauge
}

func newRunMetrics() *runMetrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	gauge := func(name, help string) prometheus.Gauge {
		return factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "voxelize",
			Name:      name,
			Help:      help,
		})
	}

	return &runMetrics{
		registry:       reg,
		triangles:      gauge("triangles", "The number of input triangles."),
		skipped:        gauge("skipped_triangles", "The number of degenerate triangles skipped."),
		surfaceVoxels:  gauge("surface_voxels", "The number of voxels produced by the rasterizer."),
		filledVoxels:   gauge("filled_voxels", "The number of interior voxels added by the solid fill."),
		unbalanced:     gauge("unbalanced_columns", "The number of fill columns left open."),
		distinctColors: gauge("distinct_colors", "The number of distinct voxel colors before reduction."),
		paletteColors:  gauge("palette_colors", "The number of palette entries written."),
		chunks:         gauge("chunks", "The number of scene chunks written."),
		stageDuration: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "voxelize",
			Name:      "stage_duration_seconds",
			Help:      "The time spent in each pipeline stage.",
		}, []string{stageLabel}),
		lastRunUnixTime: gauge("last_run_timestamp_seconds", "The time the run finished."),
	}
}

func (m *runMetrics) observe(s voxel.Stats) {
	m.triangles.Set(float64(s.Triangles))
	m.skipped.Set(float64(s.Skipped))
	m.surfaceVoxels.Set(float64(s.Surface))
	m.filledVoxels.Set(float64(s.Filled))
	m.unbalanced.Set(float64(s.Unbalanced))
	m.distinctColors.Set(float64(s.Distinct))
	m.paletteColors.Set(float64(s.Colors))
	m.chunks.Set(float64(s.Chunks))

	for stage, d := range map[string]float64{
		"raster":    s.Raster.Seconds(),
		"fill":      s.Fill.Seconds(),
		"palette":   s.Palette.Seconds(),
		"partition": s.Partition.Seconds(),
	} {
		m.stageDuration.With(prometheus.Labels{stageLabel: stage}).Set(d)
	}
	m.lastRunUnixTime.SetToCurrentTime()
}

// WriteMetrics writes the stats of a run to path in the Prometheus text
// exposition format, for collection by a node exporter textfile collector.
func WriteMetrics(path string, s voxel.Stats) error {
	m := newRunMetrics()
	m.observe(s)
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return ioError("writing metrics file failed", path, err)
	}
	return nil
}
