// gopostr - "I'm attending" poster generator.
//
// Usage:
//
//	gopostr -o <file> --descriptor <path> [--data <path>] [options]
//	gopostr validate --descriptor <path> [--data <path>]
//	gopostr bundle --descriptor <path> -o <file.posterkit>
//	gopostr layouts
//	gopostr schema
//	gopostr serve [--config <path>] [--addr :8080] [--open]
//	gopostr init
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"github.com/xob0t/GoPoster/clients/server"
	"github.com/xob0t/GoPoster/internal/config"
	"github.com/xob0t/GoPoster/internal/observability"
	"github.com/xob0t/GoPoster/pkg/exporter"
	"github.com/xob0t/GoPoster/pkg/layout"
	"github.com/xob0t/GoPoster/pkg/poster"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "init":
		err = runInit(os.Args[2:])
	case "validate":
		err = runValidate(os.Args[2:])
	case "bundle":
		err = runBundle(os.Args[2:])
	case "layouts":
		for _, v := range layout.Variants() {
			fmt.Println(v)
		}
	case "schema":
		fmt.Print(poster.FormatSchema())
	case "serve":
		err = runServe(os.Args[2:])
	case "help", "-h", "--help":
		printUsage()
	case "render":
		err = runRender(os.Args[2:])
	default:
		// Default: render mode (all flags on root).
		err = runRender(os.Args[1:])
	}
	if err != nil {
		fatal(err)
	}
}

func runRender(args []string) error {
	fs := flag.NewFlagSet("render", flag.ExitOnError)

	var (
		output     string
		descPath   string
		dataPath   string
		layoutName string
		format     string
		quality    int
		asBase64   bool
		configPath string
		fontPath   string
		boldPath   string
	)

	fs.StringVar(&output, "o", "", "Output file path (.png, .jpg, .bmp or .tiff)")
	fs.StringVar(&output, "output", "", "Output file path (.png, .jpg, .bmp or .tiff)")
	fs.StringVar(&descPath, "descriptor", "", "Descriptor JSON/YAML or .posterkit bundle")
	fs.StringVar(&dataPath, "data", "", "Partial descriptor merged over --descriptor (optional)")
	fs.StringVar(&layoutName, "layout", "", "Layout override: modern, classic, minimal or bold")
	fs.StringVar(&format, "format", "", "Output format; inferred from -o when empty")
	fs.IntVar(&quality, "quality", -1, "JPEG quality 0-100 (default from config)")
	fs.BoolVar(&asBase64, "base64", false, "Print base64 image data to stdout instead of writing a file")
	fs.StringVar(&configPath, "config", "", "Config file (default $"+config.EnvPath+")")
	fs.StringVar(&fontPath, "font", "", "Regular TTF/OTF font (default Go Regular)")
	fs.StringVar(&boldPath, "font-bold", "", "Bold TTF/OTF font (default Go Bold)")

	fs.Usage = printUsage
	if err := fs.Parse(args); err != nil {
		return err
	}
	if descPath == "" {
		return fmt.Errorf("--descriptor is required")
	}
	if output == "" && !asBase64 {
		return fmt.Errorf("output file is required (-o) unless --base64 is set")
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if fontPath != "" {
		cfg.Render.FontRegular = fontPath
	}
	if boldPath != "" {
		cfg.Render.FontBold = boldPath
	}
	if quality >= 0 {
		cfg.Render.Quality = quality
	}

	opts, err := outputOptions(format, output, cfg)
	if err != nil {
		return err
	}

	desc, cleanup, err := loadDescriptor(descPath, dataPath)
	if err != nil {
		return err
	}
	defer cleanup()
	if layoutName != "" {
		desc.Layout = layoutName
	}
	for _, w := range poster.Validate(desc) {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}

	log, err := observability.NewLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()
	renderer := server.NewLocalRenderer(cfg, log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, cfg.Server.RenderTimeout)
	defer cancel()

	if !asBase64 {
		fmt.Fprintf(os.Stderr, "Rendering: %s (%s)\n", desc.Title(), desc.Normalized().Variant())
	}
	img, err := renderer.Render(ctx, desc)
	if err != nil {
		return fmt.Errorf("render: %w", err)
	}

	enc, err := exporter.Snapshot(ctx, exporter.StaticSource{Image: img}, opts)
	if err != nil {
		return err
	}
	if asBase64 {
		fmt.Println(enc.Base64())
		return nil
	}
	if err := enc.Save(output); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "Done: %s (%dx%d)\n", output, enc.Width, enc.Height)
	return nil
}

// outputOptions picks the format from --format, then the output extension,
// then the config default.
func outputOptions(format, output string, cfg config.Config) (exporter.Options, error) {
	opts := exporter.Options{Quality: exporter.Quality(cfg.Render.Quality)}
	var err error
	switch {
	case format != "":
		opts.Format, err = exporter.ParseFormat(format)
	case output != "":
		opts.Format, err = exporter.FormatFromPath(output)
	default:
		opts.Format, err = exporter.ParseFormat(cfg.Render.Format)
	}
	return opts, err
}

func loadDescriptor(descPath, dataPath string) (poster.Descriptor, func(), error) {
	desc, cleanup, err := poster.LoadDescriptor(descPath)
	if err != nil {
		return poster.Descriptor{}, cleanup, fmt.Errorf("load descriptor: %w", err)
	}
	if dataPath == "" {
		return desc, cleanup, nil
	}

	over, warnings, err := poster.LoadOverrides(dataPath)
	if err != nil {
		cleanup()
		return poster.Descriptor{}, func() {}, fmt.Errorf("load data: %w", err)
	}
	for _, w := range warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", w)
	}
	return poster.Merge(desc, over), cleanup, nil
}

func runValidate(args []string) error {
	fs := flag.NewFlagSet("validate", flag.ExitOnError)
	var descPath, dataPath string
	fs.StringVar(&descPath, "descriptor", "", "Descriptor JSON/YAML or .posterkit bundle")
	fs.StringVar(&dataPath, "data", "", "Partial descriptor merged over --descriptor (optional)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if descPath == "" {
		return fmt.Errorf("--descriptor is required for validate command")
	}

	desc, cleanup, err := loadDescriptor(descPath, dataPath)
	if err != nil {
		return err
	}
	defer cleanup()

	warnings := poster.Validate(desc)
	if len(warnings) == 0 {
		fmt.Println("OK: descriptor renders without fallbacks")
		return nil
	}
	for _, w := range warnings {
		fmt.Printf("Warning: %s\n", w)
	}
	return nil
}

func runBundle(args []string) error {
	fs := flag.NewFlagSet("bundle", flag.ExitOnError)
	var descPath, output string
	fs.StringVar(&descPath, "descriptor", "", "Descriptor JSON/YAML with local image paths")
	fs.StringVar(&output, "o", "poster"+poster.BundleExt, "Output bundle path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if descPath == "" {
		return fmt.Errorf("--descriptor is required for bundle command")
	}

	desc, cleanup, err := poster.LoadDescriptor(descPath)
	if err != nil {
		return fmt.Errorf("load descriptor: %w", err)
	}
	defer cleanup()

	f, err := os.Create(output)
	if err != nil {
		return fmt.Errorf("create %s: %w", output, err)
	}
	if err := poster.WriteBundle(f, desc); err != nil {
		f.Close()
		return fmt.Errorf("write bundle: %w", err)
	}
	if err := f.Close(); err != nil {
		return err
	}
	fmt.Printf("Created: %s\n", output)
	return nil
}

func runServe(args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var configPath, addr string
	var open bool
	fs.StringVar(&configPath, "config", "", "Config file (default $"+config.EnvPath+")")
	fs.StringVar(&addr, "addr", "", "Listen address (overrides config)")
	fs.BoolVar(&open, "open", false, "Open the API in a browser")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if open {
		cfg.Server.OpenBrowser = true
	}

	app := fx.New(
		fx.Supply(cfg),
		observability.Module,
		server.Module,
		fx.WithLogger(func(log *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: log.Named("fx")}
		}),
	)
	if err := app.Err(); err != nil {
		return err
	}
	app.Run()
	return nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	var out string
	fs.StringVar(&out, "descriptor", "descriptor.json", "Output path for the sample descriptor")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if err := os.WriteFile(out, []byte(poster.SampleDescriptorJSON()), 0644); err != nil {
		return fmt.Errorf("write descriptor: %w", err)
	}

	fmt.Printf("Created: %s\n", out)
	fmt.Printf("Run: gopostr -o poster.png --descriptor %s\n", out)
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printUsage() {
	fmt.Print(`gopostr - "I'm attending" poster generator (Pure Go)

USAGE:
    gopostr -o <file> --descriptor <path> [--data <path>] [options]
    gopostr validate --descriptor <path> [--data <path>]
    gopostr bundle --descriptor <path> [-o poster.posterkit]
    gopostr layouts
    gopostr schema
    gopostr serve [--config <path>] [--addr :8080] [--open]
    gopostr init [--descriptor descriptor.json]

RENDER:
    --descriptor <path>    Descriptor JSON/YAML or .posterkit bundle
    --data <path>          Partial descriptor merged on top (optional)
    -o, --output <path>    Output file (.png, .jpg, .bmp, .tiff)
    --layout <name>        modern, classic, minimal or bold
    --format <name>        png, jpeg, bmp or tiff (default: from -o)
    --quality <0-100>      JPEG quality (default: 90)
    --base64               Print base64 to stdout instead of writing -o
    --font, --font-bold    Custom TTF/OTF faces (default: Go fonts)
    --config <path>        YAML config (default: $GOPOSTER_CONFIG)

EXAMPLES:
    gopostr init
    gopostr -o poster.png --descriptor descriptor.json
    gopostr -o poster.jpg --descriptor event.posterkit --data me.json --layout bold
    gopostr validate --descriptor descriptor.json
    gopostr serve --addr :9090
`)
}
