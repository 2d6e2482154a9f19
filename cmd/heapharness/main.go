// Command heapharness is the test harness spec.md §6 describes: a
// single executable that accepts one or more named scenarios with
// optional key=value parameters and an optional -verbose switch that
// triggers a dump of regions, blocks, and buckets. Every listed scenario
// runs; the exit code is 0 if all assertions pass and non-zero if any
// fails.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/brkheap/brkheap/internal/allocator"
	"github.com/brkheap/brkheap/internal/cli"
	"github.com/brkheap/brkheap/internal/heapdump"
)

func main() {
	var (
		verbose     bool
		debugMode   bool
		arenaSize   uint
		mmapThresh  uint
		showVersion bool
		showHelp    bool
		jsonOutput  bool
	)

	flag.BoolVar(&verbose, "verbose", false, "dump regions, blocks, and buckets after each scenario")
	flag.BoolVar(&debugMode, "debug", false, "log per-scenario construction and timing detail")
	flag.UintVar(&arenaSize, "arena-size", 4*1024, "static arena size in bytes")
	flag.UintVar(&mmapThresh, "mmap-threshold", 128*1024, "aligned payload size at and above which allocate uses a direct mapping")
	flag.BoolVar(&showVersion, "version", false, "show version information")
	flag.BoolVar(&showHelp, "help", false, "show help information")
	flag.BoolVar(&jsonOutput, "json", false, "output version in JSON format")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [OPTIONS] <scenario>[:key=value,...] [<scenario>...]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Runs named heap allocator test scenarios.\n\n")
		fmt.Fprintf(os.Stderr, "OPTIONS:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nSCENARIOS:\n")

		for _, name := range scenarioNames() {
			fmt.Fprintf(os.Stderr, "    %s\n", name)
		}

		fmt.Fprintf(os.Stderr, "\nEXAMPLES:\n")
		fmt.Fprintf(os.Stderr, "  %s alignment reuse\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s -verbose growth-across-gap:blocks=70,block_size=100\n", os.Args[0])
	}

	flag.Parse()

	if showHelp {
		flag.Usage()
		os.Exit(0)
	}

	if showVersion {
		cli.PrintVersion("heapharness", jsonOutput)
		os.Exit(0)
	}

	args := flag.Args()
	if len(args) == 0 {
		flag.Usage()
		os.Exit(1)
	}

	logger := cli.NewLogger(verbose, debugMode)

	failed := false

	for _, arg := range args {
		name, params := parseScenarioArg(arg)

		scenario, ok := scenarios[name]
		if !ok {
			cli.ExitWithError("unknown scenario %q", name)
		}

		logger.Debug("constructing heap for %q: arena_size=%d mmap_threshold=%d params=%v", name, arenaSize, mmapThresh, params)

		h, err := allocator.NewHeap(
			allocator.WithArenaSize(uintptr(arenaSize)),
			allocator.WithMmapThreshold(uintptr(mmapThresh)),
			allocator.WithVerbose(verbose),
		)
		if err != nil {
			cli.ExitWithError("constructing heap: %v", err)
		}

		logger.Info("running scenario %q", name)

		report := scenario(h, params)

		if verbose {
			fmt.Print(heapdump.Dump(h))
		}

		fmt.Print(report.String())

		if report.Failed() {
			logger.Warn("scenario %q reported a failed assertion", name)

			failed = true
		}
	}

	if failed {
		os.Exit(1)
	}
}

// parseScenarioArg splits "name:k=v,k2=v2" into a scenario name and its
// parameter map.
func parseScenarioArg(arg string) (string, map[string]string) {
	name, rest, hasParams := strings.Cut(arg, ":")
	params := map[string]string{}

	if !hasParams {
		return name, params
	}

	for _, kv := range strings.Split(rest, ",") {
		k, v, ok := strings.Cut(kv, "=")
		if !ok {
			continue
		}

		params[k] = v
	}

	return name, params
}

func paramUint(params map[string]string, key string, fallback uint) uint {
	raw, ok := params[key]
	if !ok {
		return fallback
	}

	v, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return fallback
	}

	return uint(v)
}

func scenarioNames() []string {
	names := make([]string, 0, len(scenarios))
	for name := range scenarios {
		names = append(names, name)
	}

	return names
}
