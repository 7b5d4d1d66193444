package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/processflow/internal/domain"
)

var generatedAt = time.Date(2024, 2, 12, 12, 0, 0, 0, time.UTC)

func sampleInput() Input {
	stages := []domain.Stage{
		{ID: "s1", Name: "Lead", Order: 1},
		{ID: "s2", Name: "Entregue", Order: 2, IsTerminal: true},
	}
	orders := []domain.Order{
		{Number: "PED-1", ClientName: "ABC", Seller: "Ana", Product: "Site", CurrentStageID: "s1",
			Priority: domain.PriorityHigh, SaleDate: generatedAt, TotalValue: decimal.RequireFromString("1234.5")},
		{Number: "PED-2", ClientName: "XYZ; Filial", Seller: "", Product: "App", CurrentStageID: "s2",
			Priority: domain.PriorityNormal, TotalValue: decimal.NewFromInt(1000)},
	}
	return Input{
		TenantName:  "Demo",
		GeneratedBy: "Administrador",
		GeneratedAt: generatedAt,
		Orders:      orders,
		Stages:      stages,
		Metrics: domain.DashboardMetrics{
			TotalOrders: 2,
			Bottlenecks: []domain.StageBottleneck{{StageID: "s1", StageName: "Lead", Count: 1, AverageDays: 2.3}},
			Targets:     []domain.StageTarget{{StageID: "s1", Target: 10, Current: 1, Percent: 10}},
		},
	}
}

func TestFormatBRL(t *testing.T) {
	cases := map[string]string{
		"0":        "R$ 0,00",
		"5.5":      "R$ 5,50",
		"999":      "R$ 999,00",
		"1234.567": "R$ 1.234,57",
		"1000000":  "R$ 1.000.000,00",
		"-15000.1": "-R$ 15.000,10",
	}
	for in, want := range cases {
		assert.Equal(t, want, FormatBRL(decimal.RequireFromString(in)), in)
	}
}

func TestBuild_Orders(t *testing.T) {
	r, err := Build(KindOrders, sampleInput())
	require.NoError(t, err)
	assert.Equal(t, "Relatório de Processos", r.Title)
	require.Len(t, r.Rows, 2)
	assert.Equal(t, []string{"PED-1", "ABC", "Ana", "Site", "Lead", "alta", "12/02/2024", "", "R$ 1.234,50"}, r.Rows[0])
	assert.Equal(t, "Entregue", r.Rows[1][4])
	assert.Equal(t, "2 pedidos", r.Footer[1])
	assert.Equal(t, "R$ 2.234,50", r.Footer[8])
}

func TestBuild_SalesGroupsBySeller(t *testing.T) {
	r, err := Build(KindSales, sampleInput())
	require.NoError(t, err)
	require.Len(t, r.Rows, 2)
	assert.Equal(t, []string{"Ana", "1", "R$ 1.234,50", "R$ 1.234,50"}, r.Rows[0])
	assert.Equal(t, "Sem vendedor", r.Rows[1][0])
	assert.Equal(t, []string{"Total", "2", "R$ 2.234,50", "R$ 1.117,25"}, r.Footer)
}

func TestBuild_Bottlenecks(t *testing.T) {
	r, err := Build(KindBottlenecks, sampleInput())
	require.NoError(t, err)
	require.Len(t, r.Rows, 1)
	assert.Equal(t, []string{"Lead", "1", "2.3", "10", "10.0%"}, r.Rows[0])
}

func TestBuild_UnknownKind(t *testing.T) {
	_, err := Build("estoque", sampleInput())
	assert.Error(t, err)
	assert.False(t, Kind("estoque").Valid())
	assert.False(t, Format("xlsx").Valid())
}

func TestRenderCSV_SemicolonSeparated(t *testing.T) {
	r, err := Build(KindOrders, sampleInput())
	require.NoError(t, err)
	body, err := RenderCSV(r)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(string(body), "\n"), "\n")
	require.Len(t, lines, 4)
	assert.Equal(t, "Pedido;Cliente;Vendedor;Produto;Etapa;Prioridade;Venda;Previsão;Valor", lines[0])
	assert.Contains(t, lines[2], `"XYZ; Filial"`)
	assert.True(t, strings.HasPrefix(lines[3], "Total;2 pedidos;"))
}

func TestRenderPDF(t *testing.T) {
	for _, kind := range []Kind{KindOrders, KindSales, KindBottlenecks} {
		r, err := Build(kind, sampleInput())
		require.NoError(t, err)
		body, err := RenderPDF(r)
		require.NoError(t, err, kind)
		assert.True(t, bytes.HasPrefix(body, []byte("%PDF")), kind)
	}

	_, err := RenderPDF(&Report{Kind: KindOrders})
	assert.Error(t, err)
}
