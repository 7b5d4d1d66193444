// Package report turns order data into tabular reports and renders them as
// PDF or CSV documents.
package report

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/spec-kit/processflow/internal/domain"
)

// Kind selects what a report summarizes.
type Kind string

const (
	KindOrders      Kind = "processos"
	KindSales       Kind = "vendas"
	KindBottlenecks Kind = "gargalos"
)

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	switch k {
	case KindOrders, KindSales, KindBottlenecks:
		return true
	}
	return false
}

// Format selects the output encoding.
type Format string

const (
	FormatPDF Format = "pdf"
	FormatCSV Format = "csv"
)

// Valid reports whether f is a supported format.
func (f Format) Valid() bool {
	return f == FormatPDF || f == FormatCSV
}

// ContentType returns the MIME type of the rendered document.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/csv; charset=utf-8"
}

// Column describes one table column. Width is relative to the other columns.
type Column struct {
	Title   string
	Width   int
	Numeric bool
}

// Report is a renderer-agnostic table with a header block.
type Report struct {
	Kind        Kind
	Title       string
	TenantName  string
	GeneratedBy string
	GeneratedAt time.Time
	Columns     []Column
	Rows        [][]string
	// Footer is an optional totals row aligned with Columns.
	Footer []string
}

// Input carries the data a report is built from. Orders are already scoped
// to what the requesting user may see.
type Input struct {
	TenantName  string
	GeneratedBy string
	GeneratedAt time.Time
	Orders      []domain.Order
	Stages      []domain.Stage
	Metrics     domain.DashboardMetrics
}

// Build assembles the table for kind.
func Build(kind Kind, in Input) (*Report, error) {
	r := &Report{
		Kind:        kind,
		TenantName:  in.TenantName,
		GeneratedBy: in.GeneratedBy,
		GeneratedAt: in.GeneratedAt,
	}
	switch kind {
	case KindOrders:
		buildOrders(r, in)
	case KindSales:
		buildSales(r, in)
	case KindBottlenecks:
		buildBottlenecks(r, in)
	default:
		return nil, fmt.Errorf("report: unknown kind %q", kind)
	}
	return r, nil
}

func buildOrders(r *Report, in Input) {
	r.Title = "Relatório de Processos"
	r.Columns = []Column{
		{Title: "Pedido", Width: 3},
		{Title: "Cliente", Width: 4},
		{Title: "Vendedor", Width: 3},
		{Title: "Produto", Width: 4},
		{Title: "Etapa", Width: 3},
		{Title: "Prioridade", Width: 2},
		{Title: "Venda", Width: 2},
		{Title: "Previsão", Width: 2},
		{Title: "Valor", Width: 3, Numeric: true},
	}
	names := stageNames(in.Stages)
	total := decimal.Zero
	for _, o := range in.Orders {
		r.Rows = append(r.Rows, []string{
			o.Number,
			o.ClientName,
			o.Seller,
			o.Product,
			names[o.CurrentStageID],
			string(o.Priority),
			formatDate(o.SaleDate),
			formatDate(o.ExpectedDelivery),
			FormatBRL(o.TotalValue),
		})
		total = total.Add(o.TotalValue)
	}
	r.Footer = []string{"Total", strconv.Itoa(len(in.Orders)) + " pedidos", "", "", "", "", "", "", FormatBRL(total)}
}

func buildSales(r *Report, in Input) {
	r.Title = "Relatório de Vendas"
	r.Columns = []Column{
		{Title: "Vendedor", Width: 5},
		{Title: "Pedidos", Width: 2, Numeric: true},
		{Title: "Faturamento", Width: 3, Numeric: true},
		{Title: "Ticket Médio", Width: 3, Numeric: true},
	}
	type agg struct {
		count int
		total decimal.Decimal
	}
	bySeller := map[string]*agg{}
	for _, o := range in.Orders {
		seller := strings.TrimSpace(o.Seller)
		if seller == "" {
			seller = "Sem vendedor"
		}
		a, ok := bySeller[seller]
		if !ok {
			a = &agg{total: decimal.Zero}
			bySeller[seller] = a
		}
		a.count++
		a.total = a.total.Add(o.TotalValue)
	}
	sellers := make([]string, 0, len(bySeller))
	for s := range bySeller {
		sellers = append(sellers, s)
	}
	sort.Slice(sellers, func(i, j int) bool {
		ti, tj := bySeller[sellers[i]].total, bySeller[sellers[j]].total
		if !ti.Equal(tj) {
			return ti.GreaterThan(tj)
		}
		return sellers[i] < sellers[j]
	})

	grand := decimal.Zero
	for _, s := range sellers {
		a := bySeller[s]
		r.Rows = append(r.Rows, []string{s, strconv.Itoa(a.count), FormatBRL(a.total), FormatBRL(average(a.total, a.count))})
		grand = grand.Add(a.total)
	}
	r.Footer = []string{"Total", strconv.Itoa(len(in.Orders)), FormatBRL(grand), FormatBRL(average(grand, len(in.Orders)))}
}

func buildBottlenecks(r *Report, in Input) {
	r.Title = "Relatório de Gargalos"
	r.Columns = []Column{
		{Title: "Etapa", Width: 5},
		{Title: "Pedidos", Width: 2, Numeric: true},
		{Title: "Tempo Médio (dias)", Width: 3, Numeric: true},
		{Title: "Meta", Width: 2, Numeric: true},
		{Title: "% da Meta", Width: 2, Numeric: true},
	}
	targets := make(map[string]domain.StageTarget, len(in.Metrics.Targets))
	for _, t := range in.Metrics.Targets {
		targets[t.StageID] = t
	}
	for _, b := range in.Metrics.Bottlenecks {
		t := targets[b.StageID]
		r.Rows = append(r.Rows, []string{
			b.StageName,
			strconv.Itoa(b.Count),
			strconv.FormatFloat(b.AverageDays, 'f', 1, 64),
			strconv.Itoa(t.Target),
			strconv.FormatFloat(t.Percent, 'f', 1, 64) + "%",
		})
	}
	r.Footer = []string{"Total", strconv.Itoa(in.Metrics.TotalOrders), "", "", ""}
}

func stageNames(stages []domain.Stage) map[string]string {
	out := make(map[string]string, len(stages))
	for _, st := range stages {
		out[st.ID] = st.Name
	}
	return out
}

func average(total decimal.Decimal, n int) decimal.Decimal {
	if n == 0 {
		return decimal.Zero
	}
	return total.Div(decimal.NewFromInt(int64(n)))
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("02/01/2006")
}

// FormatBRL renders an amount as Brazilian currency, e.g. "R$ 1.234,56".
func FormatBRL(v decimal.Decimal) string {
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Neg()
	}
	fixed := v.StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	n := len(intPart)
	buf := make([]byte, 0, n+n/3)
	for i := 0; i < n; i++ {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, '.')
		}
		buf = append(buf, intPart[i])
	}
	return sign + "R$ " + string(buf) + "," + frac
}
