// Package engine orchestrates the document to SVG conversion pipeline.
package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/Envinorma/ocr-utils/internal/alto"
	"github.com/Envinorma/ocr-utils/internal/config"
	"github.com/Envinorma/ocr-utils/internal/ocr"
	"github.com/Envinorma/ocr-utils/internal/source"
	"github.com/Envinorma/ocr-utils/internal/svg"
	"github.com/Envinorma/ocr-utils/internal/system"
	"github.com/Envinorma/ocr-utils/internal/table"
)

var log = logrus.New()

// SetLogLevel sets the logging level for the engine package.
func SetLogLevel(level logrus.Level) {
	log.SetLevel(level)
}

// ErrNoPages is returned when the source contains no pages.
var ErrNoPages = errors.New("source contains no pages")

// Project converts one document into one SVG file.
type Project struct {
	Config   *config.Config
	Source   source.Source
	Engine   ocr.Engine
	Detector *table.Detector
}

// NewProject wires the pipeline. The table detector is only constructed when
// table detection is enabled.
func NewProject(cfg *config.Config, src source.Source, engine ocr.Engine) *Project {
	p := &Project{Config: cfg, Source: src, Engine: engine}
	if cfg.DetectTables {
		p.Detector = table.NewDetector(engine, cfg.Lang, cfg.DPI)
	}
	return p
}

// pageOutput collects everything a page contributes to the final document.
type pageOutput struct {
	page   alto.Page
	cells  []table.DetectedCell
	tables []table.LocatedTable
	masked image.Image
}

// Run executes the pipeline: render, detect tables, recognize, compose.
func (p *Project) Run(ctx context.Context) error {
	pageCount := p.Source.PageCount()
	if pageCount == 0 {
		return ErrNoPages
	}

	workers := p.workerCount(pageCount)
	log.WithFields(logrus.Fields{
		"input":   p.Config.InputPath,
		"pages":   pageCount,
		"workers": workers,
		"engine":  p.Engine.Name(),
	}).Info("Starting conversion")

	outputs := make([]pageOutput, pageCount)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := 0; i < pageCount; i++ {
		g.Go(func() error {
			return p.processPage(gctx, i, &outputs[i])
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	pages := make([]alto.Page, 0, pageCount)
	cells := make(map[int][]table.DetectedCell)
	for i, out := range outputs {
		pages = append(pages, out.page)
		if len(out.cells) > 0 {
			cells[i] = out.cells
		}
	}

	opts := []svg.Option{}
	if p.Config.FontSize > 0 {
		opts = append(opts, svg.WithFontSize(p.Config.FontSize))
	}
	if len(cells) > 0 {
		opts = append(opts, svg.WithCells(cells))
	}
	if p.Config.Stamp != "" {
		opts = append(opts, svg.WithStamp(p.Config.Stamp))
	}

	doc, err := svg.ComposePages(pages, opts...)
	if err != nil {
		return err
	}
	if err := doc.Save(p.Config.OutputPath); err != nil {
		return fmt.Errorf("write svg %s: %w", p.Config.OutputPath, err)
	}

	if p.Config.TablesOut != "" {
		if err := p.writeLayout(outputs); err != nil {
			return err
		}
	}
	if p.Config.MaskedOut != "" {
		if err := p.writeMaskedImages(outputs); err != nil {
			return err
		}
	}

	log.WithField("output", p.Config.OutputPath).Info("Conversion done")
	return nil
}

// processPage renders and recognizes one page. When table detection is on,
// tables are masked out before full-page recognition so that their content
// is not recognized twice.
func (p *Project) processPage(ctx context.Context, index int, out *pageOutput) error {
	img, err := p.Source.RenderPage(index, p.Config.DPI)
	if err != nil {
		return fmt.Errorf("render page %d: %w", index, err)
	}

	if p.Detector != nil {
		masked, tables, cells, err := p.Detector.DetectAndMask(ctx, img)
		if err != nil {
			return fmt.Errorf("detect tables on page %d: %w", index, err)
		}
		log.WithFields(logrus.Fields{
			"page":   index,
			"tables": len(tables),
			"cells":  len(cells),
		}).Debug("Tables detected")
		out.tables = tables
		out.cells = cells
		out.masked = masked
		img = masked
	}

	res, err := p.Engine.Recognize(ctx, ocr.Input{
		Image: img,
		Lang:  p.Config.Lang,
		DPI:   p.Config.DPI,
	})
	if err != nil {
		return fmt.Errorf("ocr on page %d: %w", index, err)
	}
	out.page = *res.Page

	log.WithFields(logrus.Fields{
		"page":  index,
		"lines": len(res.Page.Lines()),
	}).Debug("Page recognized")
	return nil
}

func (p *Project) workerCount(pageCount int) int {
	var pageW, pageH float64
	if w, h, err := p.Source.PageDimensions(0); err == nil {
		pageW, pageH = w, h
	}
	workers := system.RecommendedWorkers(p.Config.Workers, pageW, pageH, p.Config.DPI)
	if workers > pageCount {
		workers = pageCount
	}
	return workers
}

func (p *Project) writeLayout(outputs []pageOutput) error {
	layout := &table.Layout{
		Version: table.LayoutVersion,
		Source:  filepath.Base(p.Config.InputPath),
	}
	for i, out := range outputs {
		for _, t := range out.tables {
			layout.Tables = append(layout.Tables, table.PageTable{Page: i, LocatedTable: t})
		}
	}
	if err := table.WriteLayout(layout, p.Config.TablesOut); err != nil {
		return fmt.Errorf("write table layout %s: %w", p.Config.TablesOut, err)
	}
	log.WithFields(logrus.Fields{
		"path":   p.Config.TablesOut,
		"tables": len(layout.Tables),
	}).Info("Table layout written")
	return nil
}

func (p *Project) writeMaskedImages(outputs []pageOutput) error {
	for i, out := range outputs {
		if out.masked == nil {
			continue
		}
		path := p.Config.MaskedOut
		if len(outputs) > 1 {
			path = pageSuffixedPath(path, i)
		}
		if err := imaging.Save(out.masked, path); err != nil {
			return fmt.Errorf("write masked image %s: %w", path, err)
		}
	}
	return nil
}

// pageSuffixedPath inserts a page marker before the file extension.
func pageSuffixedPath(path string, page int) string {
	ext := filepath.Ext(path)
	return fmt.Sprintf("%s_page%d%s", strings.TrimSuffix(path, ext), page, ext)
}
