// Package enrich holds the business derivation rules shared by the model
// catalog: classification buckets, zero-guarded ratio arithmetic, and the
// SQL CASE expressions that apply the same rules inside the warehouse.
// Keeping both forms here means a threshold changes in exactly one place.
package enrich

import (
	"fmt"
	"math"
	"strings"
)

// Stage categories group Salesforce pipeline stages into funnel phases.
const (
	StageEarly   = "Early"
	StageMiddle  = "Middle"
	StageLate    = "Late"
	StageUnknown = "Unknown"
)

// Deal status labels.
const (
	DealWon     = "Won"
	DealLost    = "Lost"
	DealOpen    = "Open"
	DealUnknown = "Unknown"
)

// Engagement levels and their inclusive thresholds.
const (
	EngagementHigh   = "High"
	EngagementMedium = "Medium"
	EngagementLow    = "Low"

	HighEngagementMinTasks         = 10
	HighEngagementMinOpportunities = 3
	MediumEngagementMinTasks       = 5
	MediumEngagementMinOpps        = 1
)

// Campaign performance categories and their response-rate thresholds.
const (
	PerformanceNone   = "No Response"
	PerformanceHigh   = "High Performance"
	PerformanceMedium = "Medium Performance"
	PerformanceLow    = "Low Performance"

	HighPerformanceMinResponseRate   = 20.0
	MediumPerformanceMinResponseRate = 10.0
)

// stagePair is one entry in the ordered stage-to-category mapping.
type stagePair struct {
	Stage    string
	Category string
}

// stageCategories maps every known pipeline stage to a funnel phase. Order
// matters only for SQL CASE emission; lookups match on exact stage name.
var stageCategories = []stagePair{
	{"Prospecting", StageEarly},
	{"Qualification", StageEarly},
	{"Needs Analysis", StageMiddle},
	{"Value Proposition", StageMiddle},
	{"Negotiation", StageLate},
	{"Closed Won", StageLate},
	{"Closed Lost", StageLate},
}

// StageCategory classifies a pipeline stage name. Unrecognized stages fall
// through to Unknown rather than failing.
func StageCategory(stage string) string {
	for _, pair := range stageCategories {
		if pair.Stage == stage {
			return pair.Category
		}
	}
	return StageUnknown
}

// DealStatus classifies an opportunity by its closed/won flags, won taking
// precedence. Flags arrive nullable from the source; a missing flag that
// the earlier branches cannot decide classifies as Unknown.
func DealStatus(isClosed, isWon *bool) string {
	switch {
	case isWon != nil && *isWon:
		return DealWon
	case isClosed != nil && *isClosed && isWon != nil:
		return DealLost
	case isClosed != nil && !*isClosed:
		return DealOpen
	default:
		return DealUnknown
	}
}

// EngagementLevel buckets a contact by activity volume. Thresholds are
// evaluated in order and are inclusive: 10 tasks and 3 opportunities is
// already High.
func EngagementLevel(totalTasks, totalOpportunities int) string {
	switch {
	case totalTasks >= HighEngagementMinTasks && totalOpportunities >= HighEngagementMinOpportunities:
		return EngagementHigh
	case totalTasks >= MediumEngagementMinTasks && totalOpportunities >= MediumEngagementMinOpps:
		return EngagementMedium
	default:
		return EngagementLow
	}
}

// PerformanceCategory buckets a campaign by responder volume and response
// rate. Zero responders is its own bucket regardless of rate.
func PerformanceCategory(responders int, responseRate float64) string {
	switch {
	case responders == 0:
		return PerformanceNone
	case responseRate >= HighPerformanceMinResponseRate:
		return PerformanceHigh
	case responseRate >= MediumPerformanceMinResponseRate:
		return PerformanceMedium
	default:
		return PerformanceLow
	}
}

// SafeRatio divides num by den, defining the result as 0 when den is 0.
// The zero-guard is a business rule: a campaign with no members has a
// cost-per-member of 0, not an error.
func SafeRatio(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return Round2(num / den)
}

// SafePercent is SafeRatio scaled to a percentage.
func SafePercent(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return Round2(100 * num / den)
}

// ExpectedROIPercent computes the expected return on a campaign's cost,
// zero-guarded on the cost.
func ExpectedROIPercent(expectedRevenue, actualCost float64) float64 {
	if actualCost == 0 {
		return 0
	}
	return Round2(100 * (expectedRevenue - actualCost) / actualCost)
}

// Round2 rounds half away from zero to 2 decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// StageCategoryCase emits a CASE expression applying the stage mapping to
// the given column.
func StageCategoryCase(stageCol string) string {
	var b strings.Builder
	b.WriteString("CASE ")
	b.WriteString(stageCol)
	for _, pair := range stageCategories {
		fmt.Fprintf(&b, " WHEN '%s' THEN '%s'", pair.Stage, pair.Category)
	}
	fmt.Fprintf(&b, " ELSE '%s' END", StageUnknown)
	return b.String()
}

// DealStatusCase emits a CASE expression applying the deal status
// precedence to the given boolean columns. NULL flags fall through to
// Unknown instead of silently classifying as Open.
func DealStatusCase(isWonCol, isClosedCol string) string {
	return fmt.Sprintf(
		"CASE WHEN %s THEN '%s' WHEN %s AND NOT %s THEN '%s' WHEN NOT %s THEN '%s' ELSE '%s' END",
		isWonCol, DealWon,
		isClosedCol, isWonCol, DealLost,
		isClosedCol, DealOpen,
		DealUnknown,
	)
}

// EngagementLevelCase emits the ordered engagement threshold rule over the
// given aggregate columns.
func EngagementLevelCase(taskCountCol, oppCountCol string) string {
	return fmt.Sprintf(
		"CASE WHEN %s >= %d AND %s >= %d THEN '%s' WHEN %s >= %d AND %s >= %d THEN '%s' ELSE '%s' END",
		taskCountCol, HighEngagementMinTasks, oppCountCol, HighEngagementMinOpportunities, EngagementHigh,
		taskCountCol, MediumEngagementMinTasks, oppCountCol, MediumEngagementMinOpps, EngagementMedium,
		EngagementLow,
	)
}

// PerformanceCategoryCase emits the ordered campaign performance rule.
// respondersCol is the responder count; rateExpr is the (already
// zero-guarded) response rate expression.
func PerformanceCategoryCase(respondersCol, rateExpr string) string {
	return fmt.Sprintf(
		"CASE WHEN %s = 0 THEN '%s' WHEN %s >= %g THEN '%s' WHEN %s >= %g THEN '%s' ELSE '%s' END",
		respondersCol, PerformanceNone,
		rateExpr, HighPerformanceMinResponseRate, PerformanceHigh,
		rateExpr, MediumPerformanceMinResponseRate, PerformanceMedium,
		PerformanceLow,
	)
}

// SafeRatioExpr emits a zero-guarded division rounded to 2 decimals.
// NULLIF turns a zero denominator into NULL and COALESCE folds the NULL
// back to 0, matching SafeRatio.
func SafeRatioExpr(numExpr, denExpr string) string {
	return fmt.Sprintf("COALESCE(ROUND(%s / NULLIF(%s, 0), 2), 0)", numExpr, denExpr)
}

// SafePercentExpr emits a zero-guarded percentage rounded to 2 decimals,
// matching SafePercent.
func SafePercentExpr(numExpr, denExpr string) string {
	return fmt.Sprintf("COALESCE(ROUND(100.0 * %s / NULLIF(%s, 0), 2), 0)", numExpr, denExpr)
}

// ExpectedROIExpr emits the expected ROI computation, zero-guarded on the
// cost column, matching ExpectedROIPercent.
func ExpectedROIExpr(expectedRevenueExpr, actualCostExpr string) string {
	return fmt.Sprintf(
		"COALESCE(ROUND(100.0 * (%s - %s) / NULLIF(%s, 0), 2), 0)",
		expectedRevenueExpr, actualCostExpr, actualCostExpr,
	)
}
