package table

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Envinorma/ocr-utils/internal/alto"
)

// Cell is a single table cell with its grid spans.
type Cell struct {
	Content string `yaml:"content"`
	Colspan int    `yaml:"colspan"`
	Rowspan int    `yaml:"rowspan"`
}

// Row is an ordered list of cells.
type Row struct {
	Cells []Cell `yaml:"cells"`
}

// Table is a grid of rows. Headers is kept for format compatibility and is
// never populated by detection.
type Table struct {
	Headers []Row `yaml:"headers"`
	Rows    []Row `yaml:"rows"`
}

// LocatedTable is a table together with its bounding box on the page.
type LocatedTable struct {
	Table  Table `yaml:"table"`
	HPos   int   `yaml:"h_pos"`
	VPos   int   `yaml:"v_pos"`
	Height int   `yaml:"height"`
	Width  int   `yaml:"width"`
}

// DetectedCell is a raw cell contour with its recognized content.
type DetectedCell struct {
	Text    string
	Contour Contour
	Lines   []alto.TextLine
}

// NewDetectedCell derives the cell text from its recognized lines.
func NewDetectedCell(contour Contour, lines []alto.TextLine) DetectedCell {
	texts := make([]string, 0, len(lines))
	for _, line := range lines {
		texts = append(texts, line.Text())
	}
	return DetectedCell{Text: strings.Join(texts, "\n"), Contour: contour, Lines: lines}
}

// findFuzzyRank returns the index of the border level closest to the
// candidate within the proximity threshold.
func findFuzzyRank(candidate int, borders []int) (int, error) {
	for rank, border := range borders {
		if areClose(border, candidate) {
			return rank, nil
		}
	}
	return 0, fmt.Errorf("no close border found for candidate %d in %v", candidate, borders)
}

// borderLevels clusters the given coordinate extractor over all cells into
// sorted border levels.
func borderLevels(cells []DetectedCell, coords func(Contour) (int, int)) []int {
	values := make([]int, 0, 2*len(cells))
	for _, cell := range cells {
		lo, hi := coords(cell.Contour)
		values = append(values, lo, hi)
	}
	return groupLevels(values)
}

// buildTable reconstructs the grid of a group of neighboring cells. Row and
// column ranks come from the clustered border levels; a cell spanning
// multiple levels gets the corresponding rowspan/colspan.
func buildTable(cells []DetectedCell) (LocatedTable, error) {
	if len(cells) == 0 {
		return LocatedTable{}, fmt.Errorf("cannot build table from zero cells")
	}

	hBorders := borderLevels(cells, func(c Contour) (int, int) { return c.Y0, c.Y1 })
	vBorders := borderLevels(cells, func(c Contour) (int, int) { return c.X0, c.X1 })

	type placed struct {
		col  int
		cell Cell
	}
	rows := make([][]placed, len(hBorders))
	for _, cell := range cells {
		rowIdx, err := findFuzzyRank(cell.Contour.Y0, hBorders)
		if err != nil {
			return LocatedTable{}, err
		}
		rowEnd, err := findFuzzyRank(cell.Contour.Y1, hBorders)
		if err != nil {
			return LocatedTable{}, err
		}
		colIdx, err := findFuzzyRank(cell.Contour.X0, vBorders)
		if err != nil {
			return LocatedTable{}, err
		}
		colEnd, err := findFuzzyRank(cell.Contour.X1, vBorders)
		if err != nil {
			return LocatedTable{}, err
		}
		rowspan, colspan := rowEnd-rowIdx, colEnd-colIdx
		if rowspan < 0 || colspan < 0 {
			return LocatedTable{}, fmt.Errorf("negative span for cell %+v", cell.Contour)
		}
		rows[rowIdx] = append(rows[rowIdx], placed{col: colIdx, cell: Cell{
			Content: cell.Text,
			Colspan: colspan,
			Rowspan: rowspan,
		}})
	}

	var finalRows []Row
	for _, row := range rows {
		if len(row) == 0 {
			continue
		}
		sort.Slice(row, func(i, j int) bool { return row[i].col < row[j].col })
		cells := make([]Cell, 0, len(row))
		for _, p := range row {
			cells = append(cells, p.cell)
		}
		finalRows = append(finalRows, Row{Cells: cells})
	}

	return LocatedTable{
		Table:  Table{Headers: []Row{}, Rows: finalRows},
		VPos:   hBorders[0],
		HPos:   vBorders[0],
		Height: hBorders[len(hBorders)-1] - hBorders[0],
		Width:  vBorders[len(vBorders)-1] - vBorders[0],
	}, nil
}
