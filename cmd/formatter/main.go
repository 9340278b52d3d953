// Package main provides the report formatter command-line tool.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"

	"newsgraph/internal/formatter"
	"newsgraph/internal/validator"
	"newsgraph/pkg/metadata"
)

func main() {
	// Define command-line flags
	targetPath := flag.String("path", ".", "Path to report file or directory to format")
	write := flag.Bool("write", false, "Write changes to file (default: false, dry-run)")
	verify := flag.Bool("verify", false, "Only check report hashes, never rewrite")
	help := flag.Bool("help", false, "Show usage information")

	flag.Parse()

	if *help {
		printUsage()
		os.Exit(0)
	}

	fmt.Printf("📂 Scanning path: %s\n", *targetPath)

	switch {
	case *verify:
		fmt.Println("🔍 Verify mode (checking report hashes)")
	case *write:
		fmt.Println("✍️  Write mode ENABLED (files will be modified)")
	default:
		fmt.Println("👀 Dry-run mode (no changes will be written)")
	}

	fmt.Println()

	v := validator.NewReportValidator(nil)

	count := 0
	changed := 0
	errors := 0

	err := filepath.Walk(*targetPath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			log.Printf("❌ Error accessing path %s: %v\n", path, err)

			errors++

			return nil
		}

		if info.IsDir() {
			// Skip .git, node_modules, etc.
			if strings.HasPrefix(info.Name(), ".") && info.Name() != "." {
				return filepath.SkipDir
			}

			return nil
		}

		if strings.ToLower(filepath.Ext(path)) != ".md" {
			return nil
		}

		count++

		if *verify {
			if verifyErr := verifyFile(path, v); verifyErr != nil {
				fmt.Printf("❌ %s: %v\n", path, verifyErr)

				errors++
			} else {
				fmt.Printf("✅ Verified: %s\n", path)
			}

			return nil
		}

		wasChanged, procErr := processFile(path, *write)
		if procErr != nil {
			fmt.Printf("❌ Failed to process %s: %v\n", path, procErr)

			errors++
		} else if wasChanged {
			changed++

			if *write {
				fmt.Printf("✅ Formatted & Signed: %s\n", path)
			} else {
				fmt.Printf("📝 Would format & sign: %s\n", path)
			}
		}

		return nil
	})
	if err != nil {
		log.Fatalf("❌ Error walking path: %v\n", err)
	}

	fmt.Println("\n----------------------------------------------------------------")
	fmt.Printf("📈 Summary:\n")
	fmt.Printf("  Scanned: %d files\n", count)

	if !*verify {
		fmt.Printf("  Changed: %d files\n", changed)
	}

	fmt.Printf("  Errors:  %d\n", errors)

	if errors > 0 {
		os.Exit(1)
	}

	if changed > 0 && !*write && !*verify {
		fmt.Println("\n💡 Run with -write to apply changes.")
		os.Exit(1)
	}
}

// verifyFile checks a report against the hash in its metadata block.
func verifyFile(path string, v *validator.ReportValidator) error {
	content, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	res := v.ValidateIntegrity(string(content))
	if !res.IsValid {
		return res.Errors[0].Err
	}

	return nil
}

// processFile aligns the tables of one report. The file counts as changed only when
// its content changes, so a clean report is not re-signed just for a new timestamp.
func processFile(path string, write bool) (bool, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return false, err
	}

	original := string(content)
	_, clean := metadata.Extract(original)

	if formatter.AlignTables(clean) == clean {
		if _, verifyErr := metadata.Verify(original); verifyErr == nil {
			return false, nil
		}
	}

	formatted, err := formatter.FormatMarkdown(original)
	if err != nil {
		return false, err
	}

	if write {
		if err := os.WriteFile(path, []byte(formatted), 0o644); err != nil {
			return false, err
		}
	}

	return true, nil
}

func printUsage() {
	fmt.Println("Usage: ./bin/formatter [OPTIONS]")
	fmt.Println()
	fmt.Println("Options:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("Examples:")
	fmt.Println("  ./bin/formatter -path output")
	fmt.Println("  ./bin/formatter -path output/report.md -write")
	fmt.Println("  ./bin/formatter -path output -verify")
}
