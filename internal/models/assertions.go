package models

import (
	"github.com/forge-data/crmforge/internal/enrich"
	"github.com/forge-data/crmforge/internal/validate"
)

// Assertions returns the data quality checks run against the marts after
// every build. Staging and intermediate relations are discarded at build
// end, so only persisted relations are asserted on.
func Assertions() []validate.Assertion {
	const (
		dimAccounts  = "marts.dim_accounts"
		dimUsers     = "marts.dim_users"
		dimContacts  = "marts.dim_contacts"
		dimCampaigns = "marts.dim_campaigns"
		dimDate      = "marts.dim_date"
		fctOpps      = "marts.fct_opportunities"
		fctCampaigns = "marts.fct_campaign_performance"
		aggAccounts  = "marts.agg_top_accounts"
	)

	return []validate.Assertion{
		// Primary keys: unique and non-null on every persisted relation.
		validate.Unique("dim_accounts", dimAccounts, "account_id"),
		validate.NotNull("dim_accounts", dimAccounts, "account_id"),
		validate.Unique("dim_users", dimUsers, "user_id"),
		validate.NotNull("dim_users", dimUsers, "user_id"),
		validate.Unique("dim_contacts", dimContacts, "contact_id"),
		validate.NotNull("dim_contacts", dimContacts, "contact_id"),
		validate.Unique("dim_campaigns", dimCampaigns, "campaign_id"),
		validate.NotNull("dim_campaigns", dimCampaigns, "campaign_id"),
		validate.Unique("dim_date", dimDate, "date_day"),
		validate.NotNull("dim_date", dimDate, "date_day"),
		validate.Unique("fct_opportunities", fctOpps, "opportunity_id"),
		validate.NotNull("fct_opportunities", fctOpps, "opportunity_id"),
		validate.Unique("fct_campaign_performance", fctCampaigns, "campaign_id"),
		validate.NotNull("fct_campaign_performance", fctCampaigns, "campaign_id"),
		validate.Unique("agg_top_accounts", aggAccounts, "account_id"),
		validate.NotNull("agg_top_accounts", aggAccounts, "account_id"),

		// Referential integrity: fact foreign keys must resolve.
		validate.Relationship("fct_opportunities", fctOpps, "account_id", dimAccounts, "account_id"),
		validate.Relationship("fct_opportunities", fctOpps, "owner_id", dimUsers, "user_id"),
		validate.Relationship("fct_opportunities", fctOpps, "close_date", dimDate, "date_day"),
		validate.Relationship("fct_campaign_performance", fctCampaigns, "campaign_id", dimCampaigns, "campaign_id"),
		validate.Relationship("dim_contacts", dimContacts, "account_id", dimAccounts, "account_id"),
		validate.Relationship("agg_top_accounts", aggAccounts, "account_id", dimAccounts, "account_id"),

		// Ratio columns stay within percentage bounds.
		validate.AcceptedRange("dim_contacts", dimContacts, "task_completion_rate", 0, 100),
		validate.AcceptedRange("dim_contacts", dimContacts, "win_rate", 0, 100),
		validate.AcceptedRange("fct_campaign_performance", fctCampaigns, "response_rate", 0, 100),
		validate.AcceptedRange("fct_opportunities", fctOpps, "probability", 0, 100),

		// Classification columns only take known labels.
		validate.AcceptedValues("dim_contacts", dimContacts, "engagement_level",
			[]string{enrich.EngagementHigh, enrich.EngagementMedium, enrich.EngagementLow}),
		validate.AcceptedValues("fct_opportunities", fctOpps, "stage_category",
			[]string{enrich.StageEarly, enrich.StageMiddle, enrich.StageLate, enrich.StageUnknown}),
		validate.AcceptedValues("fct_opportunities", fctOpps, "deal_status",
			[]string{enrich.DealWon, enrich.DealLost, enrich.DealOpen, enrich.DealUnknown}),
		validate.AcceptedValues("fct_campaign_performance", fctCampaigns, "performance_category",
			[]string{enrich.PerformanceNone, enrich.PerformanceHigh, enrich.PerformanceMedium, enrich.PerformanceLow}),

		// Sign and consistency checks.
		validate.Expression("positive_won_amount__fct_opportunities", "fct_opportunities", fctOpps,
			"deal_status = 'Won' AND (amount IS NULL OR amount <= 0)"),
		validate.Expression("non_negative_revenue__agg_top_accounts", "agg_top_accounts", aggAccounts,
			"total_revenue < 0"),
		validate.Expression("won_within_total__dim_contacts", "dim_contacts", dimContacts,
			"won_opportunities > total_opportunities"),
	}
}
