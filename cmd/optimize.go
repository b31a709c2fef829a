package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/algovanity/algovanity/internal/engine"
	"github.com/algovanity/algovanity/internal/hunt"
	"github.com/algovanity/algovanity/internal/state"
)

// placeholderPrefix keeps the optimizer's workload representative when no
// prefix was supplied.
const placeholderPrefix = "AAAAAAAAAA"

var (
	optimizeFile       string
	optimizeMin        int
	optimizeMax        int
	optimizeOrdered    bool
	optimizeOutput     string
	optimizeSeedConc   int
	optimizeWorkerConc int
	optimizeCPU        bool
	optimizeAll        bool
	optimizeSave       bool
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize [prefixes]",
	Short: "Find the batch size with maximum sustained throughput",
	Long: "Optimize measures search throughput across the batch-size range and reports " +
		"the best-performing size. By default it samples the range at random until " +
		"interrupted; --ordered sweeps it deterministically instead.",
	Args: cobra.MaximumNArgs(1),
	RunE: runOptimize,
}

func init() {
	optimizeCmd.Flags().StringVarP(&optimizeFile, "file", "f", "", "Newline-delimited file of additional prefixes")
	optimizeCmd.Flags().IntVar(&optimizeMin, "min", 1, "Smallest batch size to try")
	optimizeCmd.Flags().IntVar(&optimizeMax, "max", 0, "Largest batch size to try (0 = device maximum)")
	optimizeCmd.Flags().BoolVar(&optimizeOrdered, "ordered", false, "Sweep the range deterministically instead of sampling")
	optimizeCmd.Flags().StringVar(&optimizeOutput, "output", "", "Append every trial as a CSV record to this file")
	optimizeCmd.Flags().IntVar(&optimizeSeedConc, "seed-concurrency", 0, "Seed generator concurrency (0 = engine default)")
	optimizeCmd.Flags().IntVar(&optimizeWorkerConc, "worker-concurrency", 0, "Batch worker concurrency (0 = engine default)")
	optimizeCmd.Flags().BoolVar(&optimizeCPU, "cpu", false, "Use the CPU-assist backend")
	optimizeCmd.Flags().BoolVar(&optimizeAll, "all", false, "Print every trial, not only improvements")
	optimizeCmd.Flags().BoolVar(&optimizeSave, "save", false, "Persist the best batch size for generate to reuse")

	rootCmd.AddCommand(optimizeCmd)
}

func runOptimize(cmd *cobra.Command, args []string) error {
	cpu := boolFlagOrConfig(cmd, "cpu", optimizeCPU, "defaults.cpu")
	seedConcurrency := intFlagOrConfig(cmd, "seed-concurrency", optimizeSeedConc, "defaults.seed_concurrency")
	workerConcurrency := intFlagOrConfig(cmd, "worker-concurrency", optimizeWorkerConc, "defaults.worker_concurrency")

	prefixes, err := gatherPrefixes(args, optimizeFile)
	if err != nil {
		return err
	}

	cleaned := engine.PreparePrefixes(prefixes)
	if len(cleaned) == 0 {
		cleaned = []string{placeholderPrefix}
	}

	ectx, err := engine.NewContext(cpu)
	if err != nil {
		return err
	}

	search, err := ectx.Prepare(cleaned)
	if err != nil {
		return err
	}

	multiple := ectx.PreferredMultiple()
	logrus.WithFields(logrus.Fields{
		"backend":  ectx.Device().Name,
		"multiple": multiple,
	}).Debug("backend selected")

	var writer *csv.Writer
	if optimizeOutput != "" {
		file, err := os.OpenFile(optimizeOutput, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			return fmt.Errorf("open output file: %w", err)
		}
		defer file.Close()
		writer = csv.NewWriter(file)
	}

	// interrupt cancels between trials so the final best still prints
	sigCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	optimizer := &hunt.Optimizer{
		Min:       optimizeMin,
		Max:       optimizeMax,
		DeviceMax: engine.MaxBatchSize(ectx.Device(), multiple),
		Multiple:  multiple,
		Ordered:   optimizeOrdered,
		Build: func(batchSize int) (hunt.StepRunner, error) {
			return search.Runner(batchSize, seedConcurrency, workerConcurrency, nil), nil
		},
		Report: func(trial hunt.Trial) {
			if trial.Improved {
				fmt.Printf("Best batch size: %d, performance: %d\n", trial.BatchSize, int(trial.Throughput))
			} else if optimizeAll {
				fmt.Printf("Batch size: %d, performance: %d\n", trial.BatchSize, int(trial.Throughput))
			}
			if writer != nil {
				record := []string{strconv.Itoa(trial.BatchSize), strconv.Itoa(int(trial.Throughput))}
				if err := writer.Write(record); err != nil {
					logrus.WithError(err).Warn("write trial record failed")
					return
				}
				writer.Flush()
				if err := writer.Error(); err != nil {
					logrus.WithError(err).Warn("flush trial record failed")
				}
			}
		},
	}

	best, err := optimizer.Run(sigCtx)
	if err != nil {
		return err
	}

	fmt.Printf("Done. Best batch size: %d, performance: %d\n", best.BatchSize, int(best.Throughput))

	if optimizeSave && best.BatchSize > 0 {
		tuned := state.Tuned{BatchSize: best.BatchSize, Throughput: int(best.Throughput)}
		if err := state.Set(ectx.Device().Name, tuned); err != nil {
			return fmt.Errorf("save tuned batch size: %w", err)
		}
		fmt.Printf("Saved tuned batch size for backend %s\n", ectx.Device().Name)
	}

	return nil
}
