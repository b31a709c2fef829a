package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/algovanity/algovanity/internal/config"
)

// readPrefixFile reads one prefix per line with trailing whitespace
// trimmed. Blank lines are kept as entries; the engine's normalization
// treats them as "no constraint".
func readPrefixFile(path string) ([]string, error) {
	if path == "" {
		return nil, nil
	}

	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open prefix file: %w", err)
	}
	defer file.Close()

	var prefixes []string
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		prefixes = append(prefixes, strings.TrimRight(scanner.Text(), " \t\r"))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read prefix file: %w", err)
	}

	return prefixes, nil
}

// gatherPrefixes combines the positional literal with the prefix file.
func gatherPrefixes(args []string, file string) ([]string, error) {
	literal := ""
	if len(args) > 0 {
		literal = args[0]
	}

	prefixes := []string{literal}
	filePrefixes, err := readPrefixFile(file)
	if err != nil {
		return nil, err
	}
	return append(prefixes, filePrefixes...), nil
}

// intFlagOrConfig returns the flag value, falling back to a config key
// when the flag was not set on the command line.
func intFlagOrConfig(cmd *cobra.Command, name string, current int, key string) int {
	if cmd.Flags().Changed(name) {
		return current
	}
	if value, ok := config.Get(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return current
}

// boolFlagOrConfig returns the flag value, falling back to a config key
// when the flag was not set on the command line.
func boolFlagOrConfig(cmd *cobra.Command, name string, current bool, key string) bool {
	if cmd.Flags().Changed(name) {
		return current
	}
	if value, ok := config.Get(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return current
}
