// optionalstruct generates a shadow struct type whose fields are selectively
// pointer-wrapped, plus an ApplyTo method that overlays present values onto
// the original type. Repeated application layers partial configuration
// sources field by field.
//
// Usage:
//
//	//go:generate optionalstruct
//	type Config struct { ... }
//
// Or with explicit type:
//
//	//go:generate optionalstruct -type=Config
//
// Per-field directives ride the `optional` struct tag:
//
//	Seed    int64  `optional:"skip_wrap"`          // stays int64, always assigned
//	Port    int    `optional:"wrap"`               // *int even when default_wrap=false
//	Primary Node   `optional:"rename=Endpoint"`    // nested lookup under Endpoint
//
// Flags:
//
//	-type          Name of the struct type (inferred if the directive is above the type)
//	-name          Name of the generated shadow type (default: "Optional" + type name)
//	-default-wrap  Wrap fields without a directive (default true)
//	-output        Output directory (default: same as source)
//	-package       Package name for generated files (default: same as source)
//	-tests         Also generate a property-test file for the shadow types
//	-workers       Parallel resolution workers (default: GOMAXPROCS)
//	-watch         Re-run generation whenever the source file changes
//	-v             Verbose logging
//
// Struct-level defaults can also live in an optionalstruct.yaml next to the
// source; flags beat the file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/fsnotify/fsnotify"

	"github.com/eliad-wiz/OptionalStruct/internal/codegen"
	"github.com/eliad-wiz/OptionalStruct/internal/codegen/shadow"
)

type options struct {
	typeName    string
	shadowName  string
	defaultWrap bool
	outputDir   string
	pkgName     string
	tests       bool
	workers     int
	watch       bool
	verbose     bool

	defaultWrapSet bool
}

func main() {
	opts := parseFlags()
	level := slog.LevelInfo
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	sourceFile := os.Getenv("GOFILE")
	if sourceFile == "" {
		fmt.Fprintln(os.Stderr, "error: GOFILE environment variable not set (are you running via go generate?)")
		os.Exit(1)
	}
	sourceDir, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error getting working directory: %v\n", err)
		os.Exit(1)
	}
	if opts.typeName == "" {
		opts.typeName, err = detectTypeName(sourceDir, sourceFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			fmt.Fprintln(os.Stderr, "hint: use -type=TypeName or place the directive directly above the struct")
			os.Exit(1)
		}
	}
	if opts.outputDir == "" {
		opts.outputDir = sourceDir
	}
	sourcePkg := os.Getenv("GOPACKAGE")
	if opts.pkgName == "" {
		opts.pkgName = sourcePkg
	}
	cfg := codegen.GeneratorConfig{
		TypeName:     opts.typeName,
		SourceFile:   sourceFile,
		SourceDir:    sourceDir,
		SourcePkg:    sourcePkg,
		OutputDir:    opts.outputDir,
		OutputPkg:    opts.pkgName,
		GenerateTest: opts.tests,
	}

	ctx := context.Background()
	if err := generate(ctx, cfg, opts, logger); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	if opts.watch {
		if err := watchLoop(ctx, cfg, opts, logger); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	}
}

func parseFlags() options {
	var opts options
	flag.StringVar(&opts.typeName, "type", "", "Name of the struct type (inferred if directive is above the type)")
	flag.StringVar(&opts.shadowName, "name", "", "Name of the generated shadow type (default: \"Optional\"+type name)")
	flag.BoolVar(&opts.defaultWrap, "default-wrap", true, "Wrap fields without a directive in a pointer")
	flag.StringVar(&opts.outputDir, "output", "", "Output directory for generated files (default: same as source)")
	flag.StringVar(&opts.pkgName, "package", "", "Package name for generated files (default: same as source)")
	flag.BoolVar(&opts.tests, "tests", false, "Also generate a property-test file")
	flag.IntVar(&opts.workers, "workers", 0, "Parallel resolution workers (default: GOMAXPROCS)")
	flag.BoolVar(&opts.watch, "watch", false, "Re-run generation whenever the source file changes")
	flag.BoolVar(&opts.verbose, "v", false, "Verbose logging")
	flag.Parse()
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "default-wrap" {
			opts.defaultWrapSet = true
		}
	})
	return opts
}

// generate runs one full pass: project config, registry scan, then shadow
// generation for the requested type.
func generate(ctx context.Context, cfg codegen.GeneratorConfig, opts options, logger *slog.Logger) error {
	project, err := codegen.LoadProjectConfig(cfg.SourceDir)
	if err != nil {
		return err
	}
	rootCfg := project.StructConfig(cfg.TypeName)
	if opts.shadowName != "" {
		rootCfg.ShadowName = opts.shadowName
	}
	if opts.defaultWrapSet {
		rootCfg.DefaultWrap = opts.defaultWrap
	}

	// The registry pass must finish before any per-struct generation so
	// rename lookups resolve regardless of declaration order.
	reg, err := codegen.BuildRegistry(cfg.SourceDir, project)
	if err != nil {
		return err
	}
	reg.Register(cfg.TypeName, rootCfg.ShadowName)
	logger.Debug("registry built", "types", reg.Names())

	gen := &shadow.Generator{
		Config:   cfg,
		Root:     rootCfg,
		Project:  project,
		Registry: reg,
		Workers:  opts.workers,
	}
	if err := gen.Run(ctx); err != nil {
		return err
	}
	logger.Info("generated", "type", cfg.TypeName, "shadow", rootCfg.ShadowName)
	return nil
}

// watchLoop re-runs generation whenever the source file is written. A failed
// run is logged and watching continues.
func watchLoop(ctx context.Context, cfg codegen.GeneratorConfig, opts options, logger *slog.Logger) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer watcher.Close()
	// Watch the directory: editors replace files on save, which drops
	// per-file watches.
	if err := watcher.Add(cfg.SourceDir); err != nil {
		return fmt.Errorf("watching %s: %w", cfg.SourceDir, err)
	}
	sourcePath := filepath.Join(cfg.SourceDir, cfg.SourceFile)
	logger.Info("watching", "file", sourcePath)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != sourcePath || !event.Op.Has(fsnotify.Write|fsnotify.Create) {
				continue
			}
			logger.Debug("source changed", "event", event.Op.String())
			if err := generate(ctx, cfg, opts, logger); err != nil {
				logger.Error("generation failed", "error", err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("watch error", "error", err)
		}
	}
}

func detectTypeName(sourceDir, sourceFile string) (string, error) {
	typeName, err := codegen.FindTypeAfterGenerateDirective(sourceDir, sourceFile, codegen.GeneratorName)
	if err == nil {
		return typeName, nil
	}
	if goLine := os.Getenv("GOLINE"); goLine != "" {
		if lineNum, lineErr := strconv.Atoi(goLine); lineErr == nil {
			return codegen.FindTypeAfterLine(filepath.Join(sourceDir, sourceFile), lineNum)
		}
	}
	return "", err
}
