package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

var (
	inputFile = os.Stdin
)

func guidedInitialization(config *Config) error {
	scanner := bufio.NewScanner(inputFile)

	input, err := ask(scanner, "Enter local directory path to snapshot")
	if err != nil {
		return err
	}
	if input != "" {
		config.LocalDir = input
	}

	input, err = ask(scanner, "Enter GCS bucket name (leave empty for a local store directory)")
	if err != nil {
		return err
	}
	if input != "" {
		config.GCSBucket = input
		return nil
	}

	input, err = ask(scanner, "Enter local store directory path")
	if err != nil {
		return err
	}
	if input != "" {
		config.StoreDir = input
	}

	return nil
}

func ask(scanner *bufio.Scanner, prompt string) (string, error) {
	fmt.Printf("%s: ", prompt)
	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return "", fmt.Errorf("could not read user input: %w", err)
		}
		return "", nil // EOF or closed input
	}
	return strings.TrimSpace(scanner.Text()), nil
}
