package report

import (
	"fmt"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

var (
	colorPrimary = &props.Color{Red: 59, Green: 130, Blue: 246}
	colorGray    = &props.Color{Red: 100, Green: 116, Blue: 139}
)

// RenderPDF lays the report out on landscape A4 pages.
func RenderPDF(r *Report) ([]byte, error) {
	grid := 0
	for _, c := range r.Columns {
		grid += c.Width
	}
	if grid == 0 {
		return nil, fmt.Errorf("report: %s has no columns", r.Kind)
	}

	cfg := config.NewBuilder().
		WithPageSize(pagesize.A4).
		WithOrientation(orientation.Horizontal).
		WithMaxGridSize(grid).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 8}).
		WithTitle(r.Title, true).
		WithAuthor(r.GeneratedBy, true).
		Build()

	m := maroto.New(cfg)
	m.AddRows(headerRow(r, grid))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(cellRow(r.Columns, titles(r.Columns), true))
	for _, cells := range r.Rows {
		m.AddRows(cellRow(r.Columns, cells, false))
	}
	if len(r.Footer) > 0 {
		m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
		m.AddRows(cellRow(r.Columns, r.Footer, true))
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("report: generate pdf: %w", err)
	}
	return doc.GetBytes(), nil
}

func headerRow(r *Report, grid int) core.Row {
	left := grid * 2 / 3
	return row.New(16).Add(
		col.New(left).Add(
			text.New(r.TenantName, props.Text{Style: fontstyle.Bold, Size: 13, Color: colorPrimary, Top: 1}),
			text.New(r.Title, props.Text{Size: 10, Top: 8}),
		),
		col.New(grid-left).Add(
			text.New("Gerado por: "+r.GeneratedBy, props.Text{Size: 8, Align: align.Right, Top: 2, Color: colorGray}),
			text.New("Em: "+r.GeneratedAt.Format("02/01/2006 15:04"), props.Text{Size: 8, Align: align.Right, Top: 8, Color: colorGray}),
		),
	)
}

func cellRow(columns []Column, cells []string, bold bool) core.Row {
	style := fontstyle.Normal
	if bold {
		style = fontstyle.Bold
	}
	cols := make([]core.Col, 0, len(columns))
	for i, c := range columns {
		value := ""
		if i < len(cells) {
			value = cells[i]
		}
		a := align.Left
		if c.Numeric {
			a = align.Right
		}
		cols = append(cols, col.New(c.Width).Add(text.New(value, props.Text{
			Style: style, Size: 7, Align: a, Top: 1, Left: 1, Right: 1,
		})))
	}
	return row.New(6).Add(cols...)
}

func titles(columns []Column) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Title
	}
	return out
}
