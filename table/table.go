// Package table reconstructs visually-rendered HTML tables into
// rectangular cell matrices, expanding rowspan and colspan the way a
// browser lays them out.
package table

import (
	"strconv"

	"github.com/PuerkitoBio/goquery"
)

// Matrix is a row-major grid of nullable cell values. After reconstruction
// every row has the same column count; cells never covered by any source
// cell stay nil.
type Matrix [][]*string

// Strings returns the matrix with nil cells rendered as empty strings.
func (m Matrix) Strings() [][]string {
	out := make([][]string, len(m))
	for r, row := range m {
		out[r] = make([]string, len(row))
		for c, cell := range row {
			if cell != nil {
				out[r][c] = *cell
			}
		}
	}
	return out
}

// Table wraps a parsed table element.
type Table struct {
	sel *goquery.Selection
}

// New wraps a parsed table element.
func New(sel *goquery.Selection) *Table {
	return &Table{sel: sel}
}

// Rows expands the table into a rectangular matrix. A declared span of 0
// means "to the end": remaining rows for rowspan, remaining columns for
// colspan.
func (t *Table) Rows() Matrix {
	rows := t.sel.Find("tr")
	total := rows.Length()

	// First pass: column count. Per row, sum the effective colspans of all
	// but the last cell, add one for the last cell, and add the rowspans
	// still outstanding from earlier rows.
	var pending []int
	colcount := 0
	rows.Each(func(r int, row *goquery.Selection) {
		cells := row.ChildrenFiltered("td, th")
		n := cells.Length()
		width := len(pending)
		cells.Each(func(i int, cell *goquery.Selection) {
			if i < n-1 {
				width += spanAttr(cell, "colspan", 1)
			} else {
				width++
			}
			rowspan := intAttr(cell, "rowspan", 1)
			if rowspan == 0 {
				rowspan = total - r
			}
			pending = append(pending, rowspan)
		})
		if width > colcount {
			colcount = width
		}
		next := pending[:0]
		for _, s := range pending {
			if s > 1 {
				next = append(next, s-1)
			}
		}
		pending = next
	})

	matrix := make(Matrix, total)
	for r := range matrix {
		matrix[r] = make([]*string, colcount)
	}

	// Second pass: materialize. Per row, skip columns covered by an active
	// rowspan, then write the cell text into every spanned position,
	// ignoring out-of-bounds writes.
	rowspans := map[int]int{}
	rows.Each(func(r int, row *goquery.Selection) {
		offset := 0
		row.ChildrenFiltered("td, th").Each(func(i int, cell *goquery.Selection) {
			col := i + offset
			for rowspans[col] > 0 {
				offset++
				col++
			}

			rowspan := intAttr(cell, "rowspan", 1)
			if rowspan == 0 {
				rowspan = total - r
			}
			rowspans[col] = rowspan
			colspan := intAttr(cell, "colspan", 1)
			if colspan == 0 {
				colspan = colcount - col
			}
			offset += colspan - 1

			value := cell.Text()
			for dr := 0; dr < rowspan; dr++ {
				for dc := 0; dc < colspan; dc++ {
					if r+dr < total && col+dc < colcount {
						matrix[r+dr][col+dc] = &value
						rowspans[col+dc] = rowspan
					}
				}
			}
		})

		for c, s := range rowspans {
			if s > 1 {
				rowspans[c] = s - 1
			} else {
				delete(rowspans, c)
			}
		}
	})

	return matrix
}

// spanAttr reads a span attribute for the first pass, where a declared 0
// still occupies a single column.
func spanAttr(cell *goquery.Selection, name string, def int) int {
	v := intAttr(cell, name, def)
	if v == 0 {
		return 1
	}
	return v
}

func intAttr(cell *goquery.Selection, name string, def int) int {
	raw, ok := cell.Attr(name)
	if !ok {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
