package enrich

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func boolPtr(v bool) *bool { return &v }

func TestStageCategory(t *testing.T) {
	tests := []struct {
		stage string
		want  string
	}{
		{"Prospecting", StageEarly},
		{"Qualification", StageEarly},
		{"Needs Analysis", StageMiddle},
		{"Value Proposition", StageMiddle},
		{"Negotiation", StageLate},
		{"Closed Won", StageLate},
		{"Closed Lost", StageLate},
		{"Some Custom Stage", StageUnknown},
		{"", StageUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.stage, func(t *testing.T) {
			assert.Equal(t, tt.want, StageCategory(tt.stage))
		})
	}
}

func TestDealStatus(t *testing.T) {
	tests := []struct {
		name     string
		isClosed *bool
		isWon    *bool
		want     string
	}{
		{"won and closed", boolPtr(true), boolPtr(true), DealWon},
		{"won takes precedence over open", boolPtr(false), boolPtr(true), DealWon},
		{"closed not won", boolPtr(true), boolPtr(false), DealLost},
		{"open", boolPtr(false), boolPtr(false), DealOpen},
		{"open with missing won flag", boolPtr(false), nil, DealOpen},
		{"closed with missing won flag", boolPtr(true), nil, DealUnknown},
		{"both flags missing", nil, nil, DealUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DealStatus(tt.isClosed, tt.isWon))
		})
	}
}

func TestEngagementLevel(t *testing.T) {
	tests := []struct {
		name  string
		tasks int
		opps  int
		want  string
	}{
		{"high at exact boundary", 10, 3, EngagementHigh},
		{"just below task boundary", 9, 3, EngagementMedium},
		{"just below opp boundary", 10, 2, EngagementMedium},
		{"well above high", 50, 10, EngagementHigh},
		{"medium at exact boundary", 5, 1, EngagementMedium},
		{"many tasks no opps", 20, 0, EngagementLow},
		{"below medium tasks", 4, 3, EngagementLow},
		{"no activity", 0, 0, EngagementLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EngagementLevel(tt.tasks, tt.opps))
		})
	}
}

func TestPerformanceCategory(t *testing.T) {
	tests := []struct {
		name       string
		responders int
		rate       float64
		want       string
	}{
		{"no responders", 0, 0, PerformanceNone},
		{"no responders ignores rate", 0, 50, PerformanceNone},
		{"high at boundary", 5, 20, PerformanceHigh},
		{"medium at boundary", 5, 10, PerformanceMedium},
		{"just below high", 5, 19.99, PerformanceMedium},
		{"low", 1, 9.99, PerformanceLow},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, PerformanceCategory(tt.responders, tt.rate))
		})
	}
}

func TestSafeRatio_ZeroGuard(t *testing.T) {
	assert.Equal(t, 0.0, SafeRatio(100, 0))
	assert.Equal(t, 2.5, SafeRatio(5, 2))
	assert.Equal(t, 0.33, SafeRatio(1, 3))
}

func TestSafePercent_ZeroGuard(t *testing.T) {
	assert.Equal(t, 0.0, SafePercent(7, 0))
	assert.Equal(t, 50.0, SafePercent(1, 2))
	assert.Equal(t, 33.33, SafePercent(1, 3))
	assert.Equal(t, 66.67, SafePercent(2, 3))
}

func TestExpectedROIPercent(t *testing.T) {
	assert.Equal(t, 0.0, ExpectedROIPercent(5000, 0), "zero cost must not divide")
	assert.Equal(t, 100.0, ExpectedROIPercent(2000, 1000))
	assert.Equal(t, -50.0, ExpectedROIPercent(500, 1000))
}

func TestRound2(t *testing.T) {
	assert.Equal(t, 1.23, Round2(1.2345))
	assert.Equal(t, 1.24, Round2(1.235))
	assert.Equal(t, -1.24, Round2(-1.235))
}

func TestStageCategoryCase(t *testing.T) {
	expr := StageCategoryCase("o.stage_name")
	assert.True(t, strings.HasPrefix(expr, "CASE o.stage_name"))
	assert.Contains(t, expr, "WHEN 'Prospecting' THEN 'Early'")
	assert.Contains(t, expr, "WHEN 'Closed Lost' THEN 'Late'")
	assert.True(t, strings.HasSuffix(expr, "ELSE 'Unknown' END"))
}

func TestDealStatusCase(t *testing.T) {
	expr := DealStatusCase("o.is_won", "o.is_closed")
	assert.Contains(t, expr, "WHEN o.is_won THEN 'Won'")
	assert.Contains(t, expr, "WHEN o.is_closed AND NOT o.is_won THEN 'Lost'")
	assert.Contains(t, expr, "WHEN NOT o.is_closed THEN 'Open'")
	assert.True(t, strings.HasSuffix(expr, "ELSE 'Unknown' END"))
}

func TestEngagementLevelCase(t *testing.T) {
	expr := EngagementLevelCase("total_tasks", "total_opportunities")
	assert.Contains(t, expr, "total_tasks >= 10 AND total_opportunities >= 3 THEN 'High'")
	assert.Contains(t, expr, "total_tasks >= 5 AND total_opportunities >= 1 THEN 'Medium'")
	assert.True(t, strings.HasSuffix(expr, "ELSE 'Low' END"))
}

func TestPerformanceCategoryCase(t *testing.T) {
	expr := PerformanceCategoryCase("responded_members", "response_rate")
	assert.Contains(t, expr, "responded_members = 0 THEN 'No Response'")
	assert.Contains(t, expr, "response_rate >= 20 THEN 'High Performance'")
	assert.Contains(t, expr, "response_rate >= 10 THEN 'Medium Performance'")
	assert.True(t, strings.HasSuffix(expr, "ELSE 'Low Performance' END"))
}

func TestSafeExprForms(t *testing.T) {
	assert.Equal(t,
		"COALESCE(ROUND(100.0 * responded / NULLIF(total, 0), 2), 0)",
		SafePercentExpr("responded", "total"))
	assert.Equal(t,
		"COALESCE(ROUND(cost / NULLIF(members, 0), 2), 0)",
		SafeRatioExpr("cost", "members"))
	assert.Equal(t,
		"COALESCE(ROUND(100.0 * (rev - cost) / NULLIF(cost, 0), 2), 0)",
		ExpectedROIExpr("rev", "cost"))
}
