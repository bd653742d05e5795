package models

import (
	"time"

	"github.com/forge-data/crmforge/internal/enrich"
	"github.com/forge-data/crmforge/pkg/core"
)

// dimDate is the one source-free leaf model: it generates a calendar row
// per day over the configured inclusive range, entirely in Go, so the
// fiscal-year and week-origin rules stay dialect-independent.
func dimDate() *core.Model {
	return &core.Model{
		Name:        "dim_date",
		Layer:       core.LayerMart,
		Description: "Calendar dimension, one row per day over the configured date range.",
		PrimaryKey:  "date_day",
		Rows: func(bc *core.BuildContext) (*core.Relation, error) {
			cfg := bc.Config
			fyStart := time.Month(cfg.FiscalYearStartMonth)

			rel := &core.Relation{
				Columns: []core.ColumnDef{
					{Name: "date_day", Type: "DATE"},
					{Name: "year", Type: "INTEGER"},
					{Name: "quarter", Type: "INTEGER"},
					{Name: "month", Type: "INTEGER"},
					{Name: "month_name", Type: "VARCHAR"},
					{Name: "week_of_year", Type: "INTEGER"},
					{Name: "day_of_month", Type: "INTEGER"},
					{Name: "day_of_week", Type: "INTEGER"},
					{Name: "day_name", Type: "VARCHAR"},
					{Name: "day_of_year", Type: "INTEGER"},
					{Name: "is_weekend", Type: "BOOLEAN"},
					{Name: "is_weekday", Type: "BOOLEAN"},
					{Name: "fiscal_year", Type: "INTEGER"},
					{Name: "fiscal_quarter", Type: "INTEGER"},
					{Name: "is_month_end", Type: "BOOLEAN"},
					{Name: "is_quarter_end", Type: "BOOLEAN"},
				},
			}

			start := cfg.DateRangeStart
			end := cfg.DateRangeEnd
			for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
				weekend := enrich.IsWeekend(d)
				rel.Rows = append(rel.Rows, []any{
					d,
					d.Year(),
					enrich.CalendarQuarter(d),
					int(d.Month()),
					d.Month().String(),
					enrich.ISOWeek(d),
					d.Day(),
					enrich.DayOfWeek(d, cfg.WeekStart),
					d.Weekday().String(),
					d.YearDay(),
					weekend,
					!weekend,
					enrich.FiscalYear(d, fyStart),
					enrich.FiscalQuarter(d, fyStart),
					enrich.IsMonthEnd(d),
					enrich.IsQuarterEnd(d),
				})
			}
			return rel, nil
		},
	}
}
