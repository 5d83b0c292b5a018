// Command bhcdemo runs a BHC clustering pass over a small CSV fixture and
// prints the resulting dendrogram. It exists only to give the engine's
// urfave/cli and logrus dependencies a concrete entry point; it holds no
// clustering logic of its own.
package main

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli"

	"github.com/rsavage/bhc"
)

var log = logrus.StandardLogger()

func main() {
	app := cli.NewApp()
	app.Name = "bhcdemo"
	app.Usage = "cluster a CSV item matrix with Bayesian hierarchical clustering"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "input", Usage: "path to a CSV item matrix (one item per row)"},
		cli.StringFlag{Name: "mode", Value: "multinomial", Usage: "multinomial, timecourse-global, or timecourse-estimated"},
		cli.IntFlag{Name: "value-domain", Value: 2, Usage: "number of categorical values per dimension (multinomial mode)"},
		cli.StringFlag{Name: "time-points", Usage: "comma-separated time coordinates (timecourse modes)"},
		cli.Float64Flag{Name: "alpha", Value: 0.001, Usage: "Dirichlet-process concentration"},
	}
	app.Action = runDemo

	if err := app.Run(os.Args); err != nil {
		log.WithError(err).Error("bhcdemo: run failed")
		os.Exit(1)
	}
}

func runDemo(ctx *cli.Context) error {
	inputPath := ctx.String("input")
	if inputPath == "" {
		return cli.NewExitError("bhcdemo: --input is required", 1)
	}

	data, err := readCSVMatrix(inputPath)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("bhcdemo: %v", err), 1)
	}

	cfg := bhc.DefaultConfig()
	cfg.Alpha = ctx.Float64("alpha")

	switch ctx.String("mode") {
	case "multinomial":
		cfg.Mode = bhc.ModeMultinomial
		cfg.ElementKind = bhc.Categorical
		cfg.ValueDomain = ctx.Int("value-domain")
	case "timecourse-global":
		cfg.Mode = bhc.ModeTimecourseGlobalNoise
		cfg.ElementKind = bhc.Real
		cfg.TimePoints, err = parseTimePoints(ctx.String("time-points"))
		if err != nil {
			return cli.NewExitError(fmt.Sprintf("bhcdemo: %v", err), 1)
		}
	case "timecourse-estimated":
		cfg.Mode = bhc.ModeTimecourseEstimatedNoise
		cfg.ElementKind = bhc.Real
		cfg.TimePoints, err = parseTimePoints(ctx.String("time-points"))
		if err != nil {
			return cli.NewExitError(fmt.Sprintf("bhcdemo: %v", err), 1)
		}
	default:
		return cli.NewExitError(fmt.Sprintf("bhcdemo: unknown mode %q", ctx.String("mode")), 1)
	}

	result, err := bhc.RunWithLogger(data, cfg, log)
	if err != nil {
		return cli.NewExitError(fmt.Sprintf("bhcdemo: %v", err), 1)
	}

	printDendrogram(result, len(data))
	return nil
}

func readCSVMatrix(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	data := make([][]float64, len(rows))
	for i, row := range rows {
		data[i] = make([]float64, len(row))
		for j, cell := range row {
			v, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
			if err != nil {
				return nil, fmt.Errorf("row %d col %d: %w", i, j, err)
			}
			data[i][j] = v
		}
	}
	return data, nil
}

func parseTimePoints(s string) ([]float64, error) {
	if s == "" {
		return nil, fmt.Errorf("--time-points is required for timecourse modes")
	}
	fields := strings.Split(s, ",")
	points := make([]float64, len(fields))
	for i, f := range fields {
		v, err := strconv.ParseFloat(strings.TrimSpace(f), 64)
		if err != nil {
			return nil, fmt.Errorf("time point %d: %w", i, err)
		}
		points[i] = v
	}
	return points, nil
}

func printDendrogram(result *bhc.Result, n int) {
	fmt.Printf("items: %d, log-evidence: %f\n", n, result.LogEvidence)
	for i, node := range result.Nodes {
		if node.PLeft == -1 {
			fmt.Printf("leaf %d: den=%f\n", i, node.Den)
			continue
		}
		fmt.Printf("node %d: left=%d right=%d nk=%.0f den=%f wt=%f\n",
			i, node.PLeft, node.PRight, node.NK, node.Den, node.WtAtMerge)
	}
}
