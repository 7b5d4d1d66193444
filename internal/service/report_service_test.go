package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/processflow/internal/events"
	"github.com/spec-kit/processflow/internal/report"
	"github.com/spec-kit/processflow/internal/seed"
	apperrors "github.com/spec-kit/processflow/pkg/util/errorutil"
)

func csvRows(t *testing.T, body []byte) [][]string {
	t.Helper()
	r := csv.NewReader(bytes.NewReader(body))
	r.Comma = ';'
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	require.NoError(t, err)
	return rows
}

func TestGenerateReport_ScopeByRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		user string
		rows int
	}{
		{seed.UserAdmin, 5},
		{seed.UserSupervisor, 4},
		{seed.UserReader, 2},
	}
	for _, tc := range cases {
		t.Run(tc.user, func(t *testing.T) {
			doc, err := env.reportSvc.Generate(ctx, env.user(t, tc.user), ReportRequest{Kind: report.KindOrders, Format: report.FormatCSV})
			require.NoError(t, err)
			rows := csvRows(t, doc.Body)
			require.Len(t, rows, tc.rows+2)
			assert.Equal(t, "Pedido", rows[0][0])
			assert.Equal(t, "Total", rows[len(rows)-1][0])
		})
	}

	_, err := env.reportSvc.Generate(ctx, env.user(t, seed.UserOperator), ReportRequest{Kind: report.KindOrders})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestGenerateReport_DocumentMetadata(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.user(t, seed.UserAdmin)

	doc, err := env.reportSvc.Generate(ctx, admin, ReportRequest{Kind: report.KindBottlenecks})
	require.NoError(t, err)
	assert.Equal(t, "relatorio-gargalos-20240212-120000.pdf", doc.Filename)
	assert.Equal(t, "application/pdf", doc.ContentType)
	assert.True(t, bytes.HasPrefix(doc.Body, []byte("%PDF")))

	recent := env.activity.Recent(seed.TenantID, 1)
	require.Len(t, recent, 1)
	assert.Equal(t, events.EventReportGenerated, recent[0].Type)

	sales, err := env.reportSvc.Generate(ctx, admin, ReportRequest{Kind: report.KindSales, Format: report.FormatCSV})
	require.NoError(t, err)
	assert.Equal(t, "text/csv; charset=utf-8", sales.ContentType)
	rows := csvRows(t, sales.Body)
	require.Len(t, rows, 7)
	assert.Equal(t, []string{"Pedro Santos", "1", "R$ 45.000,00", "R$ 45.000,00"}, rows[1])
	assert.Equal(t, []string{"Total", "5", "R$ 105.500,00", "R$ 21.100,00"}, rows[6])
}

func TestGenerateReport_Validation(t *testing.T) {
	env := newTestEnv(t)
	admin := env.user(t, seed.UserAdmin)

	_, err := env.reportSvc.Generate(context.Background(), admin, ReportRequest{Kind: "estoque"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
	_, err = env.reportSvc.Generate(context.Background(), admin, ReportRequest{Kind: report.KindSales, Format: "xlsx"})
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}
