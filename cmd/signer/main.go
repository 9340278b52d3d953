// Package main provides the signer command-line tool that validates a keyword report and signs it.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"newsgraph/internal/config"
	"newsgraph/internal/validator"
	"newsgraph/pkg/metadata"
)

func main() {
	inputPath := flag.String("input", "", "Path to input report (e.g., report.md)")
	configFile := flag.String("config", "", "Path to YAML configuration file (limits accepted sources)")
	flag.Parse()

	if *inputPath == "" {
		fmt.Println("Usage: signer -input <path>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	contentBytes, err := os.ReadFile(*inputPath)
	if err != nil {
		log.Fatalf("Error reading file: %v\n", err)
	}

	content := string(contentBytes)
	fmt.Printf("📂 Reading: %s (%d bytes)\n", *inputPath, len(content))

	var cfg *config.Config

	if *configFile != "" {
		cfg, err = config.LoadConfig(*configFile)
		if err != nil {
			fmt.Printf("⚠️  Warning: Could not load config from %s: %v. Accepting all known sources.\n", *configFile, err)
		}
	}

	// 1. Validate structure
	fmt.Println("🔍 Validating report structure...")

	res := validator.NewReportValidator(cfg).ValidateReport(content)
	fmt.Println(res.String())
	res.PrintWarnings()

	if !res.IsValid {
		res.PrintErrors()
		fmt.Println("❌ Skipping signature due to validation failure.")
		os.Exit(1)
	}

	// 2. Sign, keeping the version and run id of an existing block
	fmt.Println("✍️  Signing file...")

	meta, _ := metadata.Extract(content)
	if meta == nil {
		meta = &metadata.Metadata{}
	}

	meta.Validation = true

	if err := os.WriteFile(*inputPath, []byte(metadata.Sign(content, meta)), 0o644); err != nil {
		log.Fatalf("Error writing file: %v\n", err)
	}

	fmt.Printf("✅ Signed and saved to: %s\n", *inputPath)
}
