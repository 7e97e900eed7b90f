//go:build !(js && wasm)

package main

import (
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/aukilabs/go-tooling/pkg/cli"
	"github.com/aukilabs/go-tooling/pkg/errors"
	"github.com/aukilabs/go-tooling/pkg/logs"
	"github.com/google/uuid"
	"github.com/segmentio/encoding/json"
	"github.com/voxelsplace/voxelize/utils"
	"github.com/voxelsplace/voxelize/voxel"
)

// Set at build.
var version = "v0.1.0"

// Keeps the config field names intact under obfuscation so the generated
// command-line options stay readable.
var _ = reflect.TypeOf(config{})

type config struct {
	Input       string `cli:"" env:"VOXELIZE_INPUT"        help:"Input file (.glb, .gltf, .vox, .vox.zst, .vox.gz)."`
	Output      string `cli:"" env:"VOXELIZE_OUTPUT"       help:"Output file (.vox, .vox.zst, .vox.gz, .glb, .gltf)."`
	Dim         int    `cli:"" env:"VOXELIZE_DIM"          help:"Number of voxels along the longest axis of the mesh."`
	Sparse      bool   `cli:"" env:"VOXELIZE_SPARSE"       help:"Store voxels in a hash map instead of a dense array."`
	Mode        string `cli:"" env:"VOXELIZE_MODE"         help:"Voxelization mode (triangles|lines|points)."`
	Solid       bool   `cli:"" env:"VOXELIZE_SOLID"        help:"Fill the interior of closed meshes."`
	FillColor   string `cli:"" env:"VOXELIZE_FILL_COLOR"   help:"Interior color as #RRGGBB[AA]. Empty uses the nearest surface color."`
	MaxColors   int    `cli:"" env:"VOXELIZE_MAX_COLORS"   help:"Maximum number of palette colors (1-255)."`
	LogLevel    string `cli:"" env:"VOXELIZE_LOG_LEVEL"    help:"Log level (debug|info|warning|error)."`
	LogIndent   bool   `cli:"" env:"VOXELIZE_LOG_INDENT"   help:"Indent logs."`
	MetricsFile string `cli:"" env:"VOXELIZE_METRICS_FILE" help:"Write run metrics to this file in the Prometheus text format."`
	Version     bool   `cli:"" env:"-"                     help:"Show version."`
	Help        bool   `cli:"" env:"-"                     help:"Show help."`
}

func main() {
	defaults := voxel.DefaultOptions()
	conf := config{
		Dim:       defaults.Dim,
		Sparse:    defaults.Sparse,
		Mode:      defaults.Mode.String(),
		MaxColors: defaults.MaxColors,
		LogLevel:  logs.InfoLevel.String(),
	}

	cli.Register().
		Help("Converts meshes into MagicaVoxel scenes and scenes back into meshes.").
		Options(&conf)
	cli.Load()

	if conf.Version {
		fmt.Println(version)
		os.Exit(0)
	}

	logs.SetLevel(logs.ParseLevel(conf.LogLevel))
	logs.Encoder = json.Marshal
	if conf.LogIndent {
		logs.Encoder = func(v any) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}
	}
	errors.Encoder = json.Marshal

	opts, err := validateConfig(conf)
	if err != nil {
		logs.Fatal(err)
	}

	runID := uuid.NewString()
	logs.WithTag("run_id", runID).
		WithTag("input", conf.Input).
		WithTag("output", conf.Output).
		WithTag("dim", opts.Dim).
		WithTag("mode", opts.Mode.String()).
		WithTag("solid", opts.Solid).
		WithTag("version", version).
		Info("conversion started")

	stats, err := utils.RunConvert(conf.Input, conf.Output, opts)
	if err != nil {
		logs.Fatal(errors.New("conversion failed").
			WithTag("run_id", runID).
			Wrap(err))
	}

	if conf.MetricsFile != "" {
		if err := utils.WriteMetrics(conf.MetricsFile, stats); err != nil {
			logs.Fatal(errors.New("writing metrics failed").
				WithTag("run_id", runID).
				Wrap(err))
		}
	}

	logs.WithTag("run_id", runID).
		WithTag("triangles", stats.Triangles).
		WithTag("skipped_triangles", stats.Skipped).
		WithTag("surface_voxels", stats.Surface).
		WithTag("filled_voxels", stats.Filled).
		WithTag("colors", stats.Colors).
		WithTag("chunks", stats.Chunks).
		Info("done")
}

func validateConfig(conf config) (voxel.Options, error) {
	if conf.Input == "" || conf.Output == "" {
		return voxel.Options{}, errors.New("input and output are required").
			WithType(voxel.ErrTypeInvalidConfig)
	}

	mode, err := voxel.ParseMode(conf.Mode)
	if err != nil {
		return voxel.Options{}, err
	}
	opts := voxel.Options{
		Dim:       conf.Dim,
		Sparse:    conf.Sparse,
		Mode:      mode,
		Solid:     conf.Solid,
		MaxColors: conf.MaxColors,
	}
	if fc := strings.TrimSpace(conf.FillColor); fc != "" {
		c, err := voxel.ParseHexColor(fc)
		if err != nil {
			return voxel.Options{}, err
		}
		opts.FillColor = &c
	}
	return opts, opts.Validate()
}
