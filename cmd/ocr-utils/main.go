package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/Envinorma/ocr-utils/internal/alto"
	"github.com/Envinorma/ocr-utils/internal/config"
	"github.com/Envinorma/ocr-utils/internal/engine"
	"github.com/Envinorma/ocr-utils/internal/ocr"
	"github.com/Envinorma/ocr-utils/internal/source"
	"github.com/Envinorma/ocr-utils/internal/svg"
	"github.com/Envinorma/ocr-utils/internal/system"
	"github.com/Envinorma/ocr-utils/internal/table"
)

var log = logrus.New()

func main() {
	inputPtr := flag.String("input", "", "Path to the input PDF, image, image directory or ALTO XML file")
	outputPtr := flag.String("output", "", "Path to the output SVG (default: input name with .svg extension)")
	langPtr := flag.String("lang", "eng", "Tesseract language code (e.g. eng, fra)")
	detectTablesPtr := flag.Bool("detect-tables", false, "Detect bordered tables and OCR each cell separately")
	dpiPtr := flag.Int("dpi", 300, "Rasterization DPI for PDF pages")
	workersPtr := flag.Int("workers", 0, "Page workers (0: sized from CPU count and available memory)")
	enginePtr := flag.String("engine", "tesseract", "OCR engine: tesseract (command line) or gosseract (in-process)")
	fontSizePtr := flag.Int("font-size", 0, "Font size of the rendered text (0: default)")
	tablesOutPtr := flag.String("tables-out", "", "Path of the YAML file describing detected tables")
	maskedOutPtr := flag.String("masked-out", "", "Path of the page image with detected tables painted over")
	stampPtr := flag.String("stamp", "", "Content of a QR code stamp embedded in the output SVG")
	verbosePtr := flag.Bool("verbose", false, "Enable debug logging")

	flag.Parse()

	level := logrus.InfoLevel
	if *verbosePtr {
		level = logrus.DebugLevel
	}
	log.SetLevel(level)
	ocr.SetLogLevel(level)
	table.SetLogLevel(level)
	engine.SetLogLevel(level)
	system.SetLogLevel(level)

	if *inputPtr == "" {
		flag.Usage()
		log.Fatal("Missing required -input flag")
	}

	output := *outputPtr
	if output == "" {
		base := filepath.Base(*inputPtr)
		output = strings.TrimSuffix(base, filepath.Ext(base)) + ".svg"
	}

	cfg := &config.Config{
		InputPath:    *inputPtr,
		OutputPath:   output,
		Lang:         *langPtr,
		DetectTables: *detectTablesPtr,
		DPI:          *dpiPtr,
		Workers:      *workersPtr,
		Engine:       *enginePtr,
		FontSize:     *fontSizePtr,
		TablesOut:    *tablesOutPtr,
		MaskedOut:    *maskedOutPtr,
		Stamp:        *stampPtr,
		Verbose:      *verbosePtr,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Conversion failed: %v", err)
	}
	fmt.Printf("Result: %s\n", cfg.OutputPath)
}

func run(ctx context.Context, cfg *config.Config) error {
	kind, err := source.DetectKind(cfg.InputPath)
	if err != nil {
		return err
	}

	if kind == source.KindALTO {
		return convertALTO(cfg)
	}

	system.InitResourceLimits()

	src, err := source.Open(cfg.InputPath)
	if err != nil {
		return err
	}
	defer src.Close()

	ocrEngine, err := ocr.NewEngine(cfg.Engine)
	if err != nil {
		return err
	}

	return engine.NewProject(cfg, src, ocrEngine).Run(ctx)
}

// convertALTO renders an existing ALTO XML file to SVG, without any OCR.
func convertALTO(cfg *config.Config) error {
	file, err := alto.ParseFile(cfg.InputPath)
	if err != nil {
		return err
	}

	opts := []svg.Option{}
	if cfg.FontSize > 0 {
		opts = append(opts, svg.WithFontSize(cfg.FontSize))
	}
	if cfg.Stamp != "" {
		opts = append(opts, svg.WithStamp(cfg.Stamp))
	}

	doc, err := svg.ComposeFile(file, opts...)
	if err != nil {
		return err
	}
	return doc.Save(cfg.OutputPath)
}
