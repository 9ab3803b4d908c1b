package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/pelletier/go-toml"
	uuid "github.com/satori/go.uuid"
)

var mainLogger = NewColorLogger("[MAIN] ", color.New(color.FgCyan, color.Bold))

// defaultManifest runs when no -manifest is given.
var defaultManifest = Manifest{
	Scenarios: []Scenario{
		{Name: "pingpong-unbuffered", Kind: "pingpong", Capacity: 0, Messages: 50000},
		{Name: "pingpong-buffered", Kind: "pingpong", Capacity: 64, Messages: 50000},
		{Name: "pipeline-4", Kind: "pipeline", Capacity: 16, Workers: 4, Messages: 50000},
		{Name: "fanin-8", Kind: "fanin", Capacity: 8, Workers: 8, Messages: 40000},
		{Name: "timeout", Kind: "timeout", Capacity: 1, Messages: 5000},
	},
}

func loadManifest(path string) (Manifest, error) {
	if path == "" {
		return defaultManifest, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Manifest{}, err
	}
	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return Manifest{}, err
	}
	return m, nil
}

func runSuite(path string) {
	manifest, err := loadManifest(path)
	if err != nil {
		mainLogger.Errorf("loading manifest: %v", err)
		return
	}
	runID := uuid.NewV4()
	mainLogger.Printf("run %s: %d scenarios", runID, len(manifest.Scenarios))

	for _, s := range manifest.Scenarios {
		mainLogger.Verbosef("scenario %s: kind=%s capacity=%d workers=%d messages=%d",
			s.Name, s.Kind, s.Capacity, s.Workers, s.Messages)
		res, err := runScenario(s)
		if err != nil {
			benchLogger.Errorf("%v", err)
			continue
		}
		benchLogger.Successf("%-24s %8d msgs in %12v  %12.0f msg/s",
			res.Scenario, res.Messages, res.Elapsed, res.Throughput())
	}
	mainLogger.Printf("run %s done", runID)
}

func main() {
	manifestPath := flag.String("manifest", "", "scenario manifest path (TOML); built-in suite when empty")
	watch := flag.Bool("watch", false, "re-run the suite whenever the manifest changes")
	verbose := flag.Bool("verbose", false, "verbose output")
	flag.Parse()

	if *verbose {
		SetLogLevel(LogLevelVerbose)
	}

	runSuite(*manifestPath)

	if *watch {
		if *manifestPath == "" {
			mainLogger.Errorf("-watch needs a -manifest file to watch")
			os.Exit(1)
		}
		watcher, err := NewManifestWatcher(*manifestPath, func() { runSuite(*manifestPath) })
		if err != nil {
			mainLogger.Errorf("%v", err)
			os.Exit(1)
		}
		defer watcher.Stop()

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		mainLogger.Printf("shutting down")
	}
}
