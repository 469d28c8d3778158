package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"math"
	"os"

	"github.com/dustin/go-humanize"

	"raceline/internal/stats"
	"raceline/pkg/raceline"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "fitness":
		return runFitness(ctx, args[1:])
	case "diagnostics":
		return runDiagnostics(ctx, args[1:])
	case "report":
		return runReport(ctx, args[1:])
	case "export-best":
		return runExportBest(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: racelinectl <run|runs|fitness|diagnostics|report|export-best> [flags]", msg)
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "optional run config INI path")
	runID := fs.String("run-id", "", "explicit run id (optional)")
	trackName := fs.String("track", "ring", "track name")
	population := fs.Int("pop", 50, "population size")
	generations := fs.Int("gens", 50, "generation count")
	hiddenSize := fs.Int("hidden", 8, "hidden layer size")
	seed := fs.Int64("seed", 1, "rng seed")
	resume := fs.Bool("resume", false, "resume from the run's persisted checkpoint")
	mutationRate := fs.Float64("mutation-rate", 0.05, "per-weight mutation probability")
	elitism := fs.Int("elitism", 2, "elite clones carried over per generation")
	crossoverRate := fs.Float64("crossover-rate", 0.7, "probability of crossover per offspring")
	seedAll := fs.Bool("seed-all", false, "seed every slot of a fresh population from the best controller")
	adaptive := fs.Bool("adaptive", false, "enable stagnation-driven mutation boosting")
	stagnationThreshold := fs.Int("stagnation-threshold", 10, "generations without improvement before full boost")
	mutationBoost := fs.Float64("mutation-boost", 0.2, "maximum adaptive mutation-rate boost")
	novelty := fs.Bool("novelty", false, "enable novelty search ranking")
	noveltyWeight := fs.Float64("novelty-weight", 0.3, "novelty weight in combined score")
	archiveSize := fs.Int("archive-size", 100, "behavior archive capacity")
	kNeighbors := fs.Int("k-neighbors", 15, "nearest neighbors for novelty scoring")
	noveltyThreshold := fs.Float64("novelty-threshold", 10, "behavior distance required to enter the archive")
	sharing := fs.Bool("sharing", false, "enable fitness sharing ranking")
	sharingSigma := fs.Float64("sharing-sigma", 50, "fitness sharing niche radius")
	storeKind := fs.String("store", "", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "raceline.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	setFlags := make(map[string]bool)
	fs.Visit(func(f *flag.Flag) {
		setFlags[f.Name] = true
	})

	req, err := loadOrDefaultRunRequest(*configPath)
	if err != nil {
		return err
	}
	if *configPath == "" {
		req = raceline.RunRequest{
			RunID:               *runID,
			Track:               *trackName,
			Generations:         *generations,
			Seed:                *seed,
			Resume:              *resume,
			Population:          *population,
			HiddenSize:          *hiddenSize,
			MutationRate:        *mutationRate,
			Elitism:             *elitism,
			CrossoverRate:       *crossoverRate,
			SeedAll:             *seedAll,
			AdaptiveMutation:    *adaptive,
			StagnationThreshold: *stagnationThreshold,
			MutationBoost:       *mutationBoost,
			NoveltySearch:       *novelty,
			NoveltyWeight:       *noveltyWeight,
			ArchiveSize:         *archiveSize,
			KNeighbors:          *kNeighbors,
			NoveltyThreshold:    *noveltyThreshold,
			FitnessSharing:      *sharing,
			SharingSigma:        *sharingSigma,
		}
	} else {
		overrideFromFlags(&req, setFlags, map[string]any{
			"run-id":               *runID,
			"track":                *trackName,
			"gens":                 *generations,
			"seed":                 *seed,
			"resume":               *resume,
			"pop":                  *population,
			"hidden":               *hiddenSize,
			"mutation-rate":        *mutationRate,
			"elitism":              *elitism,
			"crossover-rate":       *crossoverRate,
			"seed-all":             *seedAll,
			"adaptive":             *adaptive,
			"stagnation-threshold": *stagnationThreshold,
			"mutation-boost":       *mutationBoost,
			"novelty":              *novelty,
			"novelty-weight":       *noveltyWeight,
			"archive-size":         *archiveSize,
			"k-neighbors":          *kNeighbors,
			"novelty-threshold":    *noveltyThreshold,
			"sharing":              *sharing,
			"sharing-sigma":        *sharingSigma,
		})
	}

	client, err := raceline.NewClient(ctx, raceline.Options{
		StoreKind: *storeKind,
		DBPath:    *dbPath,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, req)
	if err != nil {
		return err
	}

	fmt.Printf("run completed run_id=%s track=%s gens=%d evaluations=%s resumed=%t\n",
		summary.RunID,
		summary.Track,
		summary.Generations,
		humanize.Comma(int64(summary.Evaluations)),
		summary.ResumedFromSeed,
	)
	fmt.Printf("best_fitness=%.3f best_laps=%d best_lap_time=%s diversity=%.3f stagnation=%d\n",
		summary.FinalBestFitness,
		summary.BestLaps,
		formatLapTime(summary.BestLapTime),
		summary.FinalDiversity,
		summary.FinalStagnation,
	)
	return nil
}

func overrideFromFlags(req *raceline.RunRequest, set map[string]bool, flagValue map[string]any) {
	for name := range set {
		v, ok := flagValue[name]
		if !ok {
			continue
		}
		switch name {
		case "run-id":
			req.RunID = v.(string)
		case "track":
			req.Track = v.(string)
		case "gens":
			req.Generations = v.(int)
		case "seed":
			req.Seed = v.(int64)
		case "resume":
			req.Resume = v.(bool)
		case "pop":
			req.Population = v.(int)
		case "hidden":
			req.HiddenSize = v.(int)
		case "mutation-rate":
			req.MutationRate = v.(float64)
		case "elitism":
			req.Elitism = v.(int)
		case "crossover-rate":
			req.CrossoverRate = v.(float64)
		case "seed-all":
			req.SeedAll = v.(bool)
		case "adaptive":
			req.AdaptiveMutation = v.(bool)
		case "stagnation-threshold":
			req.StagnationThreshold = v.(int)
		case "mutation-boost":
			req.MutationBoost = v.(float64)
		case "novelty":
			req.NoveltySearch = v.(bool)
		case "novelty-weight":
			req.NoveltyWeight = v.(float64)
		case "archive-size":
			req.ArchiveSize = v.(int)
		case "k-neighbors":
			req.KNeighbors = v.(int)
		case "novelty-threshold":
			req.NoveltyThreshold = v.(float64)
		case "sharing":
			req.FitnessSharing = v.(bool)
		case "sharing-sigma":
			req.SharingSigma = v.(float64)
		}
	}
}

func formatLapTime(lapTime float64) string {
	if math.IsInf(lapTime, 1) {
		return "n/a"
	}
	return fmt.Sprintf("%.2fs", lapTime)
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	jsonOut := fs.Bool("json", false, "emit run list as JSON")
	storeKind := fs.String("store", "", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "raceline.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := raceline.NewClient(ctx, raceline.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(runs)
	}
	for _, runID := range runs {
		fmt.Printf("run_id=%s\n", runID)
	}
	return nil
}

func runFitness(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("fitness", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit fitness history as JSON")
	storeKind := fs.String("store", "", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "raceline.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("fitness requires --run-id")
	}

	client, err := raceline.NewClient(ctx, raceline.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, *runID)
	if err != nil {
		return err
	}
	if *limit > 0 && len(history) > *limit {
		history = history[len(history)-*limit:]
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(history)
	}
	for i, best := range history {
		fmt.Printf("generation=%d best_fitness=%.3f\n", i+1, best)
	}
	return nil
}

func runDiagnostics(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("diagnostics", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	limit := fs.Int("limit", 50, "max generations to print (<=0 for all)")
	jsonOut := fs.Bool("json", false, "emit diagnostics as JSON")
	storeKind := fs.String("store", "", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "raceline.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("diagnostics requires --run-id")
	}

	client, err := raceline.NewClient(ctx, raceline.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	diagnostics, err := client.Diagnostics(ctx, *runID)
	if err != nil {
		return err
	}
	if *limit > 0 && len(diagnostics) > *limit {
		diagnostics = diagnostics[len(diagnostics)-*limit:]
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(diagnostics)
	}
	for _, d := range diagnostics {
		fmt.Printf("generation=%d best=%.3f mean=%.3f min=%.3f diversity=%.3f stagnation=%d mutation_rate=%.4f archive=%d alive=%d\n",
			d.Generation,
			d.BestFitness,
			d.MeanFitness,
			d.MinFitness,
			d.Diversity,
			d.Stagnation,
			d.MutationRate,
			d.ArchiveSize,
			d.AliveAtEnd,
		)
	}
	return nil
}

func runReport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("report", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	jsonOut := fs.Bool("json", false, "emit report as JSON")
	storeKind := fs.String("store", "", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "raceline.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("report requires --run-id")
	}

	client, err := raceline.NewClient(ctx, raceline.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.FitnessHistory(ctx, *runID)
	if err != nil {
		return err
	}
	report, err := stats.BuildReport(history)
	if err != nil {
		return err
	}
	if *jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	}
	fmt.Printf("run_id=%s\n", *runID)
	fmt.Print(report.Format())
	return nil
}

func runExportBest(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export-best", flag.ContinueOnError)
	runID := fs.String("run-id", "", "run id")
	outPath := fs.String("out", "", "output file path (defaults to stdout)")
	storeKind := fs.String("store", "", "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "raceline.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return errors.New("export-best requires --run-id")
	}

	client, err := raceline.NewClient(ctx, raceline.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	rec, err := client.ExportBest(ctx, *runID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	if *outPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(*outPath, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("exported run_id=%s path=%s\n", *runID, *outPath)
	return nil
}
