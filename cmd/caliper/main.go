// Command caliper evaluates a fixture script and prints a dimension
// survey of every part it defines.
//
//	caliper [flags] script.lisp
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"text/tabwriter"

	"github.com/chazu/caliper/internal/config"
	"github.com/chazu/caliper/pkg/engine"
	"github.com/chazu/caliper/pkg/kernel"
	"github.com/chazu/caliper/pkg/kernel/poly"
	"github.com/chazu/caliper/pkg/kernel/sdfx"
	"github.com/chazu/caliper/pkg/logger"
	"github.com/chazu/caliper/pkg/measure"
	"github.com/chazu/caliper/pkg/tessellate"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, os.Stdout, os.Args[1:]); err != nil {
		if !errors.Is(err, pflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, "caliper:", err)
			os.Exit(1)
		}
	}
}

// errScript reports a script that evaluated with errors.
var errScript = errors.New("script failed")

// run encapsulates the command so tests can drive it.
func run(ctx context.Context, out io.Writer, args []string) error {
	fs := pflag.NewFlagSet("caliper", pflag.ContinueOnError)
	config.RegisterFlags(fs)
	asJSON := fs.Bool("json", false, "print the survey as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: caliper [flags] script.lisp")
	}

	cfg, err := config.Load(fs)
	if err != nil {
		return err
	}

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	measure.SetLogger(log.Named("measure"))

	src, err := os.ReadFile(fs.Arg(0))
	if err != nil {
		return err
	}

	k := newKernel(cfg.Kernel)
	svc := measure.New(
		measure.WithAngularEpsilon(cfg.Measure.AngularEpsilon),
		measure.WithTieDistance(cfg.Measure.TieDistance),
		measure.WithWorkers(cfg.Measure.Workers),
		measure.WithLogger(log.Named("measure")),
	)
	eng := engine.NewEngine(k,
		engine.WithService(svc),
		engine.WithTimeout(cfg.Engine.EvalTimeout),
		engine.WithSegments(cfg.Kernel.Segments),
		engine.WithAlignTolerance(cfg.Measure.AlignTolerance),
		engine.WithLogger(log.Named("engine")),
	)

	log.Debug("evaluating script",
		zap.String("path", fs.Arg(0)),
		zap.String("backend", cfg.Kernel.Backend),
	)
	sc, evalErrs, err := eng.Evaluate(string(src))
	if err != nil {
		return err
	}
	if len(evalErrs) > 0 {
		for _, e := range evalErrs {
			log.Error("script error", zap.Int("line", e.Line), zap.String("message", e.Message))
		}
		return fmt.Errorf("%s: %w: %s", fs.Arg(0), errScript, evalErrs[0].Error())
	}

	reports, err := svc.Survey(ctx, sc.Parts())
	if err != nil {
		return err
	}

	if *asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(reports)
	}

	meshes, err := tessellate.Tessellate(ctx, sc, k, cfg.Measure.Workers)
	if err != nil {
		return err
	}
	log.Debug("tessellated scene", zap.Int("triangles", tessellate.TriangleCount(meshes)))
	return printTable(out, reports, meshes)
}

func newKernel(cfg config.KernelConfig) kernel.Kernel {
	if cfg.Backend == "sdfx" {
		return sdfx.New(sdfx.WithMeshCells(cfg.MeshCells))
	}
	return poly.New()
}

func printTable(out io.Writer, reports []measure.Report, meshes []*kernel.Mesh) error {
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "part\twidth\theight\tdepth\tvolume\tarea\troll\tpitch\tyaw\ttriangles\t")
	for i, r := range reports {
		fmt.Fprintf(tw, "%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\t%.2f\t%.2f\t%.2f\t%d\t\n",
			r.Part,
			r.Dims.Width, r.Dims.Height, r.Dims.Depth,
			r.Dims.Volume, r.Dims.SurfaceArea,
			r.Orientation.Roll, r.Orientation.Pitch, r.Orientation.Yaw,
			meshes[i].TriangleCount(),
		)
	}
	return tw.Flush()
}
