package main

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/ironsheep/lotplan-mcp/internal/config"
	"github.com/ironsheep/lotplan-mcp/internal/geo"
	"github.com/ironsheep/lotplan-mcp/internal/imaging"
	"github.com/ironsheep/lotplan-mcp/internal/pipeline"
	"github.com/ironsheep/lotplan-mcp/internal/progress"
	"github.com/ironsheep/lotplan-mcp/internal/render"
	"github.com/ironsheep/lotplan-mcp/internal/server"
)

// Version information - set by ldflags during build
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	// Handle --version, --help and subcommands
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "--version", "-v", "version":
			fmt.Printf("lotplan-mcp %s\n", Version)
			fmt.Printf("  Build time: %s\n", BuildTime)
			fmt.Printf("  Git commit: %s\n", GitCommit)
			return
		case "--help", "-h", "help":
			printHelp()
			return
		case "run":
			setupLogging()
			if err := runCommand(os.Args[2:], os.Stdout); err != nil {
				if errors.Is(err, flag.ErrHelp) {
					return
				}
				log.Fatalf("run: %v", err)
			}
			return
		}
	}

	debug := setupLogging()
	if debug {
		log.Printf("Lot plan MCP Server v%s (built %s, commit %s)", Version, BuildTime, GitCommit)
	}

	server.Version = Version
	srv := server.New(server.Options{
		ConfigPath: config.DefaultPath(),
		Debug:      debug,
	})
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

func printHelp() {
	fmt.Println("lotplan-mcp - lot detection, zoning and numbering for site-plan images")
	fmt.Println()
	fmt.Println("Usage:")
	fmt.Println("  lotplan-mcp [options]           Serve MCP over stdin/stdout")
	fmt.Println("  lotplan-mcp run [flags] IMAGE   Number the lots of one plan and write artifacts")
	fmt.Println()
	fmt.Println("Options:")
	fmt.Println("  --version, -v    Print version information")
	fmt.Println("  --help, -h       Print this help message")
	fmt.Println()
	fmt.Println("Run flags:")
	fmt.Println("  -config PATH       Plan configuration (default $LOTPLAN_CONFIG)")
	fmt.Println("  -progress PATH     Progress CSV: zone,number,progress[,flagged]")
	fmt.Println("  -geojson PATH      Write the GeoJSON FeatureCollection")
	fmt.Println("  -overlay PATH      Write the status overlay PNG")
	fmt.Println("  -assignments PATH  Write the lot assignments as JSON")
	fmt.Println()
	fmt.Println("Environment variables:")
	fmt.Println("  LOTPLAN_CONFIG=PATH          Default plan configuration")
	fmt.Println("  LOTPLAN_LOG_LEVEL=debug      Enable debug logging")
}

// setupLogging sends logs to stderr (stdout is for MCP protocol) and reports
// whether debug logging is on.
func setupLogging() bool {
	log.SetOutput(os.Stderr)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	return os.Getenv("LOTPLAN_LOG_LEVEL") == "debug"
}

// lotRecord is one line of the -assignments output.
type lotRecord struct {
	Index    int        `json:"index"`
	Label    string     `json:"label,omitempty"`
	Zone     string     `json:"zone"`
	Number   int        `json:"number,omitempty"`
	LotType  string     `json:"lot_type,omitempty"`
	Centroid *geo.Pixel `json:"centroid,omitempty"`
}

func runCommand(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", config.DefaultPath(), "plan configuration")
	progressPath := fs.String("progress", "", "progress CSV")
	geojsonPath := fs.String("geojson", "", "GeoJSON output path")
	overlayPath := fs.String("overlay", "", "overlay PNG output path")
	assignmentsPath := fs.String("assignments", "", "assignments JSON output path")
	verbose := fs.Bool("verbose", os.Getenv("LOTPLAN_LOG_LEVEL") == "debug", "log per-zone counts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("expected exactly one image path, got %d", fs.NArg())
	}
	if *configPath == "" {
		return fmt.Errorf("no configuration: pass -config or set %s", config.EnvPath)
	}

	plan, err := config.Load(*configPath)
	if err != nil {
		return err
	}
	var table *progress.Table
	if *progressPath != "" {
		if table, err = progress.LoadFile(*progressPath); err != nil {
			return err
		}
	}
	img, err := imaging.NewImageCache().Load(fs.Arg(0))
	if err != nil {
		return err
	}

	res, err := pipeline.Run(img, plan, pipeline.Options{Verbose: *verbose})
	if err != nil {
		return err
	}

	if *assignmentsPath != "" {
		records := make([]lotRecord, 0, len(res.Lots))
		for _, lot := range res.Lots {
			a, _ := res.Assignment(lot.Index)
			r := lotRecord{Index: lot.Index, Zone: a.Zone, Number: a.Number, Centroid: lot.Centroid}
			if a.Numbered() {
				r.Label = a.Key().String()
				r.LotType = plan.LotType(a.Key())
			}
			records = append(records, r)
		}
		if err := writeJSON(*assignmentsPath, records); err != nil {
			return err
		}
	}
	if *geojsonPath != "" {
		if err := writeJSON(*geojsonPath, render.FeatureCollection(res, table, plan)); err != nil {
			return err
		}
	}
	if *overlayPath != "" {
		enc, err := render.Overlay(img, res, table)
		if err != nil {
			return err
		}
		raw, err := base64.StdEncoding.DecodeString(enc.ImageBase64)
		if err != nil {
			return fmt.Errorf("failed to decode overlay: %w", err)
		}
		if err := os.WriteFile(*overlayPath, raw, 0o644); err != nil {
			return fmt.Errorf("failed to write overlay: %w", err)
		}
	}

	fmt.Fprintf(stdout, "%d lots in %dx%d image, %d numbered\n", len(res.Lots), res.Width, res.Height, len(res.Numbered()))
	for _, z := range res.Zones {
		fmt.Fprintf(stdout, "  %-10s %4d  %s\n", z.Name, z.Count, z.Strategy)
	}
	if table != nil {
		fmt.Fprintf(stdout, "global progress: %s\n", render.ProgressLabel(render.GlobalProgress(table)))
	}
	return nil
}

func writeJSON(path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", path, err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
