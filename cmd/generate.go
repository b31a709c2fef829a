package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/algovanity/algovanity/internal/config"
	"github.com/algovanity/algovanity/internal/engine"
	"github.com/algovanity/algovanity/internal/hunt"
	"github.com/algovanity/algovanity/internal/notify"
	"github.com/algovanity/algovanity/internal/state"
)

var (
	generateFile       string
	generateBatch      int
	generateSeedConc   int
	generateWorkerConc int
	generateCount      int
	generateBenchmark  bool
	generateCPU        bool
	generateOutput     string
	generateWebhook    string
)

var generateCmd = &cobra.Command{
	Use:   "generate [prefixes]",
	Short: "Search for accounts whose address matches the desired prefixes",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateFile, "file", "f", "", "Newline-delimited file of additional prefixes")
	generateCmd.Flags().IntVar(&generateBatch, "batch", 0, "Batch size (0 = tuned or engine default)")
	generateCmd.Flags().IntVar(&generateSeedConc, "seed-concurrency", 0, "Seed generator concurrency (0 = engine default)")
	generateCmd.Flags().IntVar(&generateWorkerConc, "worker-concurrency", 0, "Batch worker concurrency (0 = engine default)")
	generateCmd.Flags().IntVarP(&generateCount, "count", "c", 1, "Number of matches before stopping")
	generateCmd.Flags().BoolVarP(&generateBenchmark, "benchmark", "b", false, "Report rolling throughput while searching")
	generateCmd.Flags().BoolVar(&generateCPU, "cpu", false, "Use the CPU-assist backend")
	generateCmd.Flags().StringVar(&generateOutput, "output", "", "Append matches as CSV records to this file instead of stdout")
	generateCmd.Flags().StringVar(&generateWebhook, "webhook", "", "Notification webhook URL")

	rootCmd.AddCommand(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	cpu := boolFlagOrConfig(cmd, "cpu", generateCPU, "defaults.cpu")
	batch := intFlagOrConfig(cmd, "batch", generateBatch, "defaults.batch")
	seedConcurrency := intFlagOrConfig(cmd, "seed-concurrency", generateSeedConc, "defaults.seed_concurrency")
	workerConcurrency := intFlagOrConfig(cmd, "worker-concurrency", generateWorkerConc, "defaults.worker_concurrency")

	webhook := strings.TrimSpace(generateWebhook)
	if !cmd.Flags().Changed("webhook") {
		if value, ok := config.Get("notify.webhook"); ok {
			webhook = strings.TrimSpace(value)
		}
	}

	prefixes, err := gatherPrefixes(args, generateFile)
	if err != nil {
		return err
	}

	ectx, err := engine.NewContext(cpu)
	if err != nil {
		return err
	}

	search, err := ectx.Prepare(prefixes)
	if err != nil {
		return err
	}

	if batch == 0 {
		if tuned, ok, err := state.Get(ectx.Device().Name); err == nil && ok {
			batch = tuned.BatchSize
			logrus.WithField("batch_size", batch).Debug("using tuned batch size")
		}
	}

	logrus.WithFields(logrus.Fields{
		"backend":  ectx.Device().Name,
		"prefixes": len(search.Prefixes()),
	}).Debug("backend selected")

	var (
		printTo io.Writer = os.Stdout
		writer  *csv.Writer
	)
	if generateOutput != "" {
		file, err := os.OpenFile(generateOutput, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
		if err != nil {
			return fmt.Errorf("open output file: %w", err)
		}
		defer file.Close()
		writer = csv.NewWriter(file)
		printTo = nil
	}

	var onMatch func(hunt.Match)
	if webhook != "" {
		matched := 0
		onMatch = func(match hunt.Match) {
			matched++
			err := notify.NotifyMatch(context.Background(), notify.MatchOptions{
				WebhookURL: webhook,
				Address:    match.Address,
				Found:      matched,
				Count:      generateCount,
			})
			if err != nil {
				logrus.WithError(err).Warn("match notification failed")
			}
		}
	}

	sink := hunt.NewReportSink(printTo, writer, generateCount, onMatch)
	runner := search.Runner(batch, seedConcurrency, workerConcurrency, sink)
	defer runner.Close()

	var progress func(hunt.Progress)
	if generateBenchmark {
		progress = printProgress
	}

	start := time.Now()
	total := hunt.Drive(runner, progress)
	if err := sink.Err(); err != nil {
		return err
	}

	if webhook != "" {
		err := notify.NotifyComplete(context.Background(), notify.CompleteOptions{
			WebhookURL: webhook,
			Found:      sink.FoundCount(),
			Processed:  total,
			Duration:   time.Since(start),
		})
		if err != nil {
			logrus.WithError(err).Warn("completion notification failed")
		}
	}

	return nil
}

func printProgress(p hunt.Progress) {
	fmt.Printf("Elapsed: %d.%03ds, total: %d, avg/s: %d, last/s: %d\n",
		int(p.Elapsed.Seconds()), int(p.Elapsed.Milliseconds()%1000),
		p.Total, int(p.Average), int(p.Last))
}
