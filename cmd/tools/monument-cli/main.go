package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/annel0/monument/internal/app"
	"github.com/annel0/monument/internal/assets"
	"github.com/annel0/monument/internal/cell"
	"github.com/annel0/monument/internal/compiler"
	"github.com/annel0/monument/internal/config"
	"github.com/annel0/monument/internal/eventbus"
	"github.com/annel0/monument/internal/export"
	"github.com/annel0/monument/internal/logging"
	"github.com/annel0/monument/internal/monument"
	"github.com/annel0/monument/internal/scene"
	"github.com/annel0/monument/internal/viewport"
)

const timeFormat = "2006-01-02T15:04:05Z"

// errNotLoaded загрузчик проверки: меши не нужны
var errNotLoaded = errors.New("asset loading disabled")

type planLoader struct{}

func (planLoader) Load(ctx context.Context, source string) *assets.Future {
	return assets.Resolved(source, nil, errNotLoaded)
}

func main() {
	var (
		command    = flag.String("cmd", "validate", "Command: validate, stats, export, tail")
		dataFile   = flag.String("data", "assets/monument.json", "Monument document")
		outFile    = flag.String("out", "monument.glb", "GLB output for export")
		assetDir   = flag.String("assets", "", "Local mesh directory for export (default: HTTP asset base)")
		configPath = flag.String("config", "", "YAML config (export, tail)")
		timeout    = flag.Duration("timeout", time.Minute, "Mesh loading timeout for export")
		natsURL    = flag.String("nats", "", "NATS URL for tail (default: eventbus.url from config)")
		eventTypes = flag.String("types", "", "Event types filter for tail (comma-separated)")
		asJSON     = flag.Bool("json", false, "JSON output for stats")
		verbose    = flag.Bool("v", false, "Verbose logging")
	)
	flag.Parse()

	level := logging.WARN
	if *verbose {
		level = logging.DEBUG
	}
	logging.SetDefaultLogger(logging.NewWriterLogger("cli", os.Stderr, level))

	var err error
	switch *command {
	case "validate":
		err = validate(*dataFile)
	case "stats":
		err = showStats(os.Stdout, *dataFile, *asJSON)
	case "export":
		err = exportGLB(os.Stdout, *configPath, *dataFile, *assetDir, *outFile, *timeout)
	case "tail":
		err = tailEvents(*configPath, *natsURL, parseStringList(*eventTypes))
	default:
		err = fmt.Errorf("unknown command %q", *command)
	}
	if err != nil {
		log.Fatalf("❌ %s failed: %v", *command, err)
	}
}

func plan(dataFile string) (*monument.Document, *compiler.Compiler, error) {
	doc, err := monument.LoadFile(dataFile)
	if err != nil {
		return nil, nil, err
	}
	return doc, compiler.New(planLoader{}), nil
}

func validate(dataFile string) error {
	doc, c, err := plan(dataFile)
	if err != nil {
		return err
	}
	objects, dims, err := c.Plan(doc)
	if err != nil {
		var ce *compiler.ClassificationError
		if errors.As(err, &ce) {
			for _, cellErr := range ce.Cells {
				fmt.Printf("  unknown code %d at %s\n", cellErr.Code, cellErr.Index)
			}
		}
		return err
	}
	fmt.Printf("✅ %s: %dx%dx%d, %d objects\n", dataFile, dims.Layers, dims.Rows, dims.Columns, len(objects))
	return nil
}

type statsOutput struct {
	Layers  int            `json:"layers"`
	Rows    int            `json:"rows"`
	Columns int            `json:"columns"`
	Cells   int            `json:"cells"`
	Empty   int            `json:"empty"`
	Objects map[string]int `json:"objects"`
	Sources map[string]int `json:"sources"`
}

func showStats(w io.Writer, dataFile string, asJSON bool) error {
	doc, c, err := plan(dataFile)
	if err != nil {
		return err
	}
	objects, dims, err := c.Plan(doc)
	if err != nil {
		return err
	}

	out := statsOutput{
		Layers:  dims.Layers,
		Rows:    dims.Rows,
		Columns: dims.Columns,
		Cells:   dims.Cells(),
		Empty:   dims.Cells() - len(objects),
		Objects: make(map[string]int),
		Sources: make(map[string]int),
	}
	for _, obj := range objects {
		out.Objects[obj.Name()]++
		if obj.Shape() == cell.ShapeMeshProp {
			if mp, ok := obj.(interface{ Spec() cell.Spec }); ok {
				out.Sources[mp.Spec().Source]++
			}
		}
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	fmt.Fprintf(w, "📐 %dx%dx%d (%d cells, %d empty)\n", out.Layers, out.Rows, out.Columns, out.Cells, out.Empty)
	for _, name := range sortedKeys(out.Objects) {
		fmt.Fprintf(w, "  %-10s %5d\n", name, out.Objects[name])
	}
	if len(out.Sources) > 0 {
		fmt.Fprintln(w, "📦 Meshes:")
		for _, src := range sortedKeys(out.Sources) {
			fmt.Fprintf(w, "  %-10s %5d\n", src, out.Sources[src])
		}
	}
	return nil
}

func exportGLB(w io.Writer, configPath, dataFile, assetDir, outFile string, timeout time.Duration) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if assetDir != "" {
		cfg.Assets.Dir = assetDir
	}

	pipeline, err := app.NewAssets(cfg, nil)
	if err != nil {
		return err
	}
	defer pipeline.Close()

	s, err := app.CompileFile(context.Background(), dataFile, pipeline.Loader, viewport.Options{})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	report := s.Result.Wait(ctx)
	for source, msg := range report.Failures {
		fmt.Fprintf(os.Stderr, "⚠️ mesh %s: %s\n", source, msg)
	}
	if report.Pending > 0 {
		return fmt.Errorf("%d meshes still loading after %v", report.Pending, timeout)
	}

	stats, err := export.WriteGLB(s.Context.Scene, outFile)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "💾 %s: %d blocks, %d meshes (%d unique), %d lights skipped\n",
		outFile, stats.Blocks, stats.Props, stats.Meshes, stats.Skipped)
	return nil
}

func tailEvents(configPath, natsURL string, types []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if natsURL != "" {
		cfg.EventBus.URL = natsURL
	}
	if cfg.EventBus.URL == "" {
		return errors.New("tail needs -nats or eventbus.url in config")
	}

	bus, err := eventbus.NewJetStreamBus(cfg.EventBus.URL, cfg.EventBus.GetStream(), cfg.EventBus.GetRetention())
	if err != nil {
		return err
	}
	defer bus.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sub, err := bus.Subscribe(ctx, eventbus.Filter{Types: types, Sources: []string{scene.EventSource}}, func(ctx context.Context, ev *eventbus.Envelope) {
		fmt.Printf("%s %-20s %s\n", ev.Timestamp.Format(timeFormat), ev.EventType, string(ev.Payload))
	})
	if err != nil {
		return err
	}
	defer sub.Unsubscribe()

	fmt.Printf("📡 Listening on %s (Ctrl+C to stop)\n", eventbus.Subject(">"))
	<-ctx.Done()
	return nil
}

func parseStringList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
