// cmd/roster-optimizer/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"roster-optimizer/internal/common/config"
	"roster-optimizer/internal/common/logger"
	"roster-optimizer/internal/roster/aggregator"
	"roster-optimizer/internal/roster/catalog"
	"roster-optimizer/internal/roster/solver"
)

const usage = "usage: roster-optimizer [-config path] [-mode exact|greedy] [-capacity C:3,RW:3,...] [-export out.csv] [-strict] <players.csv>"

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("roster-optimizer", flag.ContinueOnError)
	fs.SetOutput(stderr)

	configPath := fs.String("config", "", "Path to a YAML config file")
	mode := fs.String("mode", "", "Solve mode: exact or greedy")
	capacity := fs.String("capacity", "", "Slots per category, e.g. C:3,RW:3,LW:3,D:4,G:3")
	exportPath := fs.String("export", "", "Write assigned rosters to this CSV file")
	strict := fs.Bool("strict", false, "Fail on the first invalid record instead of skipping it")
	parallelism := fs.Int("parallelism", 0, "Groups solved concurrently")
	timeLimit := fs.Duration("time-limit", 0, "Per-group limit for the exact search, e.g. 30s")
	logLevel := fs.String("log-level", "", "Log level: debug, info, warn or error")

	fs.Usage = func() {
		fmt.Fprintln(stderr, usage)
		fs.PrintDefaults()
	}

	if err := fs.Parse(args); err != nil {
		return 1
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return 1
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		cfg = loaded
	}

	if *mode != "" {
		cfg.Solver.Mode = *mode
	}
	if *parallelism > 0 {
		cfg.Solver.Parallelism = *parallelism
	}
	if *timeLimit > 0 {
		cfg.Solver.TimeLimitMs = int(timeLimit.Milliseconds())
	}
	if *strict {
		cfg.Input.Strict = true
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	// stdout carries the report
	if cfg.Logging.Output == "" || cfg.Logging.Output == "stdout" {
		cfg.Logging.Output = "stderr"
	}

	log := logger.FromConfig(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output, cfg.App.Name)

	solveMode, err := solver.ParseMode(cfg.Solver.Mode)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	req := solver.Requirement(cfg.Solver.Requirement())
	order := cfg.Solver.CategoryOrder()
	if *capacity != "" {
		if req, err = solver.ParseRequirement(*capacity); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		order = capacityOrder(*capacity)
	}
	if err := req.Validate(); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	path := fs.Arg(0)
	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	cat, err := catalog.Load(f, catalog.ParseOptions{
		Columns: catalog.ColumnsFromConfig(cfg.Input),
		Strict:  cfg.Input.Strict,
	})
	f.Close()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %s: %v\n", path, err)
		return 1
	}

	for _, rej := range cat.Rejected {
		log.Warn("Skipping record", map[string]interface{}{
			"row":   rej.Row,
			"id":    rej.ID,
			"error": rej.Err.Error(),
		})
	}
	log.Info("Loaded candidates", map[string]interface{}{
		"file":        path,
		"candidates":  len(cat.All),
		"groups":      len(cat.ByGroup),
		"rejected":    len(cat.Rejected),
		"requirement": req.String(),
		"mode":        string(solveMode),
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	start := time.Now()
	results, err := aggregator.SolveAll(ctx, cat.ByGroup, req, aggregator.Options{
		Solver: solver.Options{
			Mode:      solveMode,
			TimeLimit: config.GetDuration(cfg.Solver.TimeLimitMs),
		},
		Parallelism: cfg.Solver.Parallelism,
		Logger:      log,
	})
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	log.Info("Optimization complete", map[string]interface{}{
		"groups":    len(results),
		"elapsedMs": time.Since(start).Milliseconds(),
	})

	standings := aggregator.Rank(results)
	if err := aggregator.WriteReport(stdout, standings, results, req, order); err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}

	if *exportPath != "" {
		if err := writeExport(*exportPath, standings, results); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
		log.Info("Rosters exported", map[string]interface{}{"file": *exportPath})
	}

	return 0
}

func writeExport(path string, standings []aggregator.Standing, results map[string]solver.Result) error {
	out, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := aggregator.WriteCSV(out, aggregator.ExportRows(standings, results)); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// capacityOrder keeps the categories of a -capacity value in the order given.
func capacityOrder(s string) []string {
	var order []string
	for _, part := range strings.Split(s, ",") {
		cat, _, _ := strings.Cut(strings.TrimSpace(part), ":")
		if cat = strings.TrimSpace(cat); cat != "" {
			order = append(order, cat)
		}
	}
	return order
}
