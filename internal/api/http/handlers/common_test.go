package handlers

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/processflow/internal/domain"
	"github.com/spec-kit/processflow/internal/repository"
)

func TestSplitQuery(t *testing.T) {
	assert.Nil(t, splitQuery(""))
	assert.Equal(t, []string{"a", "b"}, splitQuery(" a, ,b ,"))
}

func TestParseTime(t *testing.T) {
	assert.Nil(t, parseTime(""))
	assert.Nil(t, parseTime("12/02/2024"))

	d := parseTime("2024-02-12")
	require.NotNil(t, d)
	assert.True(t, d.Equal(time.Date(2024, 2, 12, 0, 0, 0, 0, time.UTC)))

	ts := parseTime("2024-02-12T10:30:00-03:00")
	require.NotNil(t, ts)
	assert.True(t, ts.Equal(time.Date(2024, 2, 12, 13, 30, 0, 0, time.UTC)))
}

func TestParseInt(t *testing.T) {
	assert.Equal(t, 7, parseInt("", 7))
	assert.Equal(t, 7, parseInt("x", 7))
	assert.Equal(t, 7, parseInt("-3", 7))
	assert.Equal(t, 3, parseInt("3", 7))
}

func TestParseOrderQuery(t *testing.T) {
	app := fiber.New()
	var (
		filter         repository.OrderFilter
		page, pageSize int
	)
	app.Get("/", func(c *fiber.Ctx) error {
		filter, page, pageSize = parseOrderQuery(c)
		return nil
	})
	_, err := app.Test(httptest.NewRequest(fiber.MethodGet,
		"/?search=+abc+&stage=etapa-lead,etapa-venda&location=rua&priority=alta,urgente&sale_from=2024-01-01&page=3&page_size=20", nil))
	require.NoError(t, err)

	assert.Equal(t, "abc", filter.SearchTerm)
	assert.Equal(t, []string{"etapa-lead", "etapa-venda"}, filter.StageIDs)
	assert.Equal(t, []domain.Location{domain.LocationStreet}, filter.Locations)
	assert.Equal(t, []domain.Priority{domain.PriorityHigh, domain.PriorityUrgent}, filter.Priorities)
	require.NotNil(t, filter.SaleFrom)
	assert.Nil(t, filter.SaleTo)
	assert.Equal(t, 3, page)
	assert.Equal(t, 20, pageSize)
	assert.Equal(t, 40, filter.Offset)
	assert.Equal(t, 20, filter.Limit)
}

func TestOrderResponse_OverdueAndHistory(t *testing.T) {
	now := time.Date(2024, 2, 12, 12, 0, 0, 0, time.UTC)
	o := &domain.Order{
		ID:               "processo-x",
		ExpectedDelivery: now.Add(-time.Hour),
		History:          []domain.MovementRecord{{ID: "m1", NewStageID: "etapa-lead", At: now.Add(-48 * time.Hour)}},
	}
	resp := orderResponse(o, now, false)
	assert.True(t, resp.Overdue)
	assert.Empty(t, resp.History)
	assert.NotNil(t, resp.Tags)

	resp = orderResponse(o, now, true)
	require.Len(t, resp.History, 1)
	assert.Equal(t, "etapa-lead", resp.History[0].NewStageID)

	delivered := now
	o.DeliveredAt = &delivered
	assert.False(t, orderResponse(o, now, false).Overdue)
}
