package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/algovanity/algovanity/internal/engine"
)

var backendsCmd = &cobra.Command{
	Use:   "backends",
	Short: "List available compute backends",
	RunE:  runBackends,
}

func init() {
	rootCmd.AddCommand(backendsCmd)
}

func runBackends(cmd *cobra.Command, args []string) error {
	names := engine.Names()
	if len(names) == 0 {
		fmt.Println("No backends registered")
		return nil
	}

	writer := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(writer, "NAME\tMULTIPLE\tMAX BATCH\tDEFAULT BATCH")
	fmt.Fprintln(writer, "----\t--------\t---------\t-------------")

	for _, name := range names {
		device, ok := engine.Get(name)
		if !ok {
			continue
		}
		label := name
		if name == engine.DefaultName() {
			label = name + " (default)"
		}
		fmt.Fprintf(writer, "%s\t%d\t%d\t%d\n",
			label, device.PreferredMultiple, device.MaxBatch, device.DefaultBatch)
	}

	if err := writer.Flush(); err != nil {
		return err
	}

	fmt.Println("")
	fmt.Println("Usage: algovanity generate <prefixes> --cpu to select the cpu backend")
	return nil
}
