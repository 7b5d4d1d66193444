package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// StageBottleneck counts orders sitting in a stage.
type StageBottleneck struct {
	StageID     string
	StageName   string
	Count       int
	AverageDays float64
}

// StageTarget compares a stage's load against its goal.
type StageTarget struct {
	StageID string
	Target  int
	Current int
	Percent float64
}

// DashboardMetrics is a snapshot derived from the order collection.
type DashboardMetrics struct {
	TenantID          string
	TotalOrders       int
	ActiveOrders      int
	CompletedOrders   int
	OverdueOrders     int
	MonthRevenue      decimal.Decimal
	AverageCycleDays  float64
	LeadConversionPct float64
	Bottlenecks       []StageBottleneck
	Targets           []StageTarget
	ComputedAt        time.Time
}
