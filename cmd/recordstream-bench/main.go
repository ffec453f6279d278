// recordstream-bench - Benchmark append and iteration throughput for a
// record-stream file.
//
// Usage:
//
//	recordstream-bench [flags]
//
// Flags take precedence over internal/config's defaults, which in turn
// come from the file named by RECORDSTREAM_CONFIG, if set.
//
//	-file string    Path to the record-stream file to create (default a temp file)
//	-records int    Number of records to append (default 100000)
//	-size int       Payload size in bytes per record (default from config's DefaultMaxPayload)
//	-keep           Keep the temp file around after the run instead of removing it (a -file path is never removed)
package main

import (
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"time"

	"github.com/corestream/recordstream/internal/config"
	"github.com/corestream/recordstream/internal/version"
	"github.com/corestream/recordstream/recordstream"
)

func main() {
	cfg := loadConfig()

	file := flag.String("file", "", "Path to the record-stream file (default: a temp file)")
	records := flag.Int("records", 100000, "Number of records to append")
	size := flag.Int("size", cfg.DefaultMaxPayload, "Payload size in bytes per record")
	keep := flag.Bool("keep", false, "Keep the file around after the run")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("recordstream-bench v%s (built %s)\n", version.Version, version.BuildTime)
		return
	}

	if *size < 0 || *size > recordstream.MaxPayload {
		fmt.Fprintf(os.Stderr, "recordstream-bench: -size must be between 0 and %d\n", recordstream.MaxPayload)
		os.Exit(1)
	}

	path := *file
	if path == "" {
		tmp, err := os.CreateTemp("", "recordstream-bench-*.log")
		if err != nil {
			fmt.Fprintf(os.Stderr, "recordstream-bench: %v\n", err)
			os.Exit(1)
		}
		path = tmp.Name()
		tmp.Close()
		if !*keep {
			defer os.Remove(path)
		}
	}

	fmt.Println("====== recordstream Benchmark ======")
	fmt.Printf("File: %s\n", path)
	fmt.Printf("Records: %d\n", *records)
	fmt.Printf("Payload size: %d bytes\n", *size)
	fmt.Println()

	if err := runAppendBench(path, *records, *size); err != nil {
		fmt.Fprintf(os.Stderr, "recordstream-bench: %v\n", err)
		os.Exit(1)
	}

	if err := runIterateBench(path); err != nil {
		fmt.Fprintf(os.Stderr, "recordstream-bench: %v\n", err)
		os.Exit(1)
	}
}

// loadConfig returns internal/config defaults, optionally overridden by the
// file named by RECORDSTREAM_CONFIG. A missing or unset path falls back to
// config.DefaultConfig, matching the env-var-first, flag-overrides-it
// precedence used throughout these CLI tools.
func loadConfig() *config.Config {
	path := os.Getenv("RECORDSTREAM_CONFIG")
	if path == "" {
		return config.DefaultConfig()
	}
	cfg, err := config.Load(path)
	if err != nil {
		log.Fatalf("recordstream-bench: loading config %s: %v", path, err)
	}
	return cfg
}

// runAppendBench appends n records of the given payload size to path.
//
// The format has no support for multiple writers coordinating beyond what
// O_APPEND gives them for free, so this benchmark runs a single writer,
// which is the configuration it is actually designed for.
func runAppendBench(path string, n, size int) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := recordstream.AppendInitial(f); err != nil {
		return fmt.Errorf("append_initial: %w", err)
	}

	payload := make([]byte, size)
	rand.Read(payload)

	start := time.Now()
	for i := 0; i < n; i++ {
		if err := recordstream.AppendPayload(f, uint32(i), payload); err != nil {
			return fmt.Errorf("append_payload(%d): %w", i, err)
		}
	}
	elapsed := time.Since(start)

	fmt.Println("====== Append ======")
	fmt.Printf("Total time: %v\n", elapsed)
	fmt.Printf("Appends/sec: %.2f\n", float64(n)/elapsed.Seconds())
	fmt.Printf("Avg latency: %.3f us\n", float64(elapsed.Microseconds())/float64(n))
	fmt.Println()
	return nil
}

func runIterateBench(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	it, err := recordstream.OpenFile(f)
	if err != nil {
		return err
	}
	defer it.Close()

	start := time.Now()
	var count int
	for {
		_, _, ok := it.Next()
		if !ok {
			break
		}
		count++
	}
	elapsed := time.Since(start)

	fmt.Println("====== Iterate ======")
	fmt.Printf("Records recovered: %d\n", count)
	fmt.Printf("Total time: %v\n", elapsed)
	if count > 0 {
		fmt.Printf("Records/sec: %.2f\n", float64(count)/elapsed.Seconds())
	}
	return nil
}
