// Package main is the entry point for the pageaudit application
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/ethpandaops/pageaudit/cmd"
	"github.com/ethpandaops/pageaudit/internal/exitcodes"
	"github.com/joho/godotenv"
)

const (
	envFlag      = "--env"
	envFlagEqual = "--env="
)

func main() {
	envFile, err := parseArgs(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(exitcodes.UsageErr)
	}

	if err := loadEnvFile(envFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading env file: %v\n", err)
		os.Exit(exitcodes.ConfigErr)
	}

	// Re-read LOG_LEVEL now that the env file is loaded.
	cmd.InitLogger()
	cmd.Execute()
}

// parseArgs extracts the --env file so it can be loaded before cobra runs.
func parseArgs(args []string) (string, error) {
	for i, arg := range args {
		if arg == envFlag {
			if i+1 >= len(args) || strings.HasPrefix(args[i+1], "-") {
				return "", fmt.Errorf("%s flag requires a value", envFlag)
			}

			return args[i+1], nil
		}

		if strings.HasPrefix(arg, envFlagEqual) {
			return arg[len(envFlagEqual):], nil
		}
	}

	return "", nil
}

// loadEnvFile loads the specified environment file
func loadEnvFile(file string) error {
	if file == "" {
		file = ".env"
	}

	if err := godotenv.Load(file); err != nil {
		// If it's the default .env file and it doesn't exist, that's okay
		if file == ".env" && os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to load env file '%s': %w", file, err)
	}

	return nil
}
