package models

import (
	"fmt"

	"github.com/forge-data/crmforge/internal/enrich"
	"github.com/forge-data/crmforge/pkg/core"
)

// Intermediate models are where the derivation rules run: joins across
// staging relations, aggregates, zero-guarded ratios, and categorical
// classification. All classification thresholds live in the enrich package.

func intOpportunitiesEnriched() *core.Model {
	return &core.Model{
		Name:  "int_opportunities__enriched",
		Layer: core.LayerIntermediate,
		Refs: []string{
			"stg_salesforce__opportunities",
			"stg_salesforce__accounts",
			"stg_salesforce__users",
		},
		Description: "Opportunities joined to their account and owner with aging, expected revenue, and classification columns.",
		PrimaryKey:  "opportunity_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			opps, err := bc.Ref("stg_salesforce__opportunities")
			if err != nil {
				return "", err
			}
			accounts, err := bc.Ref("stg_salesforce__accounts")
			if err != nil {
				return "", err
			}
			users, err := bc.Ref("stg_salesforce__users")
			if err != nil {
				return "", err
			}

			return fmt.Sprintf(`SELECT
    o.opportunity_id,
    o.account_id,
    o.opportunity_name,
    o.stage_name,
    o.amount,
    o.probability,
    o.close_date,
    o.opportunity_type,
    o.lead_source,
    o.owner_id,
    o.is_closed,
    o.is_won,
    o.created_date,
    a.account_name,
    a.industry AS account_industry,
    a.account_type,
    u.user_name AS owner_name,
    u.department AS owner_department,
    %s AS deal_age_days,
    %s AS sales_cycle_days,
    ROUND(COALESCE(o.amount, 0) * (COALESCE(o.probability, 0) / 100.0), 2) AS expected_revenue,
    %s AS stage_category,
    %s AS deal_status,
    o.loaded_at
FROM %s o
LEFT JOIN %s a ON o.account_id = a.account_id
LEFT JOIN %s u ON o.owner_id = u.user_id`,
				bc.Dialect.DateDiffDays("o.created_date", bc.Dialect.CurrentDate()),
				bc.Dialect.DateDiffDays("o.created_date", "o.close_date"),
				enrich.StageCategoryCase("o.stage_name"),
				enrich.DealStatusCase("o.is_won", "o.is_closed"),
				opps, accounts, users), nil
		},
	}
}

func intContactsWithActivity() *core.Model {
	return &core.Model{
		Name:  "int_contacts__with_activity",
		Layer: core.LayerIntermediate,
		Refs: []string{
			"stg_salesforce__contacts",
			"stg_salesforce__tasks",
			"stg_salesforce__opportunities",
		},
		Description: "Contacts with zero-filled task and opportunity aggregates, completion and win rates, and an engagement bucket.",
		PrimaryKey:  "contact_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			contacts, err := bc.Ref("stg_salesforce__contacts")
			if err != nil {
				return "", err
			}
			tasks, err := bc.Ref("stg_salesforce__tasks")
			if err != nil {
				return "", err
			}
			opps, err := bc.Ref("stg_salesforce__opportunities")
			if err != nil {
				return "", err
			}

			// Opportunities hang off the account, not the contact, so
			// opportunity aggregates roll up through the contact's account.
			return fmt.Sprintf(`WITH task_agg AS (
    SELECT
        contact_id,
        COUNT(*) AS total_tasks,
        COUNT(*) FILTER (WHERE status = 'Completed') AS completed_tasks,
        COUNT(*) FILTER (WHERE task_type = 'Call') AS call_tasks,
        COUNT(*) FILTER (WHERE task_type = 'Email') AS email_tasks,
        COUNT(*) FILTER (WHERE task_type = 'Meeting') AS meeting_tasks,
        MAX(activity_date) AS last_activity_date,
        SUM(COALESCE(call_duration_in_seconds, 0)) AS total_call_duration_seconds
    FROM %[2]s
    WHERE contact_id IS NOT NULL
    GROUP BY contact_id
),
opp_agg AS (
    SELECT
        account_id,
        COUNT(*) AS total_opportunities,
        COUNT(*) FILTER (WHERE is_won) AS won_opportunities,
        COUNT(*) FILTER (WHERE is_closed AND NOT is_won) AS lost_opportunities,
        SUM(COALESCE(amount, 0)) AS total_opportunity_amount,
        SUM(CASE WHEN is_won THEN COALESCE(amount, 0) ELSE 0 END) AS won_opportunity_amount,
        MAX(close_date) AS last_close_date
    FROM %[3]s
    WHERE account_id IS NOT NULL
    GROUP BY account_id
)
SELECT
    c.contact_id,
    c.account_id,
    c.first_name,
    c.last_name,
    c.email,
    c.title,
    c.department,
    c.lead_source,
    c.owner_id,
    c.created_date,
    COALESCE(t.total_tasks, 0) AS total_tasks,
    COALESCE(t.completed_tasks, 0) AS completed_tasks,
    COALESCE(t.call_tasks, 0) AS call_tasks,
    COALESCE(t.email_tasks, 0) AS email_tasks,
    COALESCE(t.meeting_tasks, 0) AS meeting_tasks,
    t.last_activity_date,
    COALESCE(t.total_call_duration_seconds, 0) AS total_call_duration_seconds,
    COALESCE(o.total_opportunities, 0) AS total_opportunities,
    COALESCE(o.won_opportunities, 0) AS won_opportunities,
    COALESCE(o.lost_opportunities, 0) AS lost_opportunities,
    COALESCE(o.total_opportunity_amount, 0) AS total_opportunity_amount,
    COALESCE(o.won_opportunity_amount, 0) AS won_opportunity_amount,
    o.last_close_date,
    %[4]s AS task_completion_rate,
    %[5]s AS win_rate,
    %[6]s AS engagement_level,
    c.loaded_at
FROM %[1]s c
LEFT JOIN task_agg t ON c.contact_id = t.contact_id
LEFT JOIN opp_agg o ON c.account_id = o.account_id`,
				contacts, tasks, opps,
				enrich.SafePercentExpr("COALESCE(t.completed_tasks, 0)", "COALESCE(t.total_tasks, 0)"),
				enrich.SafePercentExpr("COALESCE(o.won_opportunities, 0)", "COALESCE(o.total_opportunities, 0)"),
				enrich.EngagementLevelCase("COALESCE(t.total_tasks, 0)", "COALESCE(o.total_opportunities, 0)")), nil
		},
	}
}

func intCampaignsPerformance() *core.Model {
	return &core.Model{
		Name:  "int_campaigns__performance",
		Layer: core.LayerIntermediate,
		Refs: []string{
			"stg_salesforce__campaigns",
			"stg_salesforce__campaign_members",
			"stg_salesforce__leads",
		},
		Description: "Campaigns with member aggregates, response and cost ratios, expected ROI, and a performance bucket.",
		PrimaryKey:  "campaign_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			campaigns, err := bc.Ref("stg_salesforce__campaigns")
			if err != nil {
				return "", err
			}
			members, err := bc.Ref("stg_salesforce__campaign_members")
			if err != nil {
				return "", err
			}
			leads, err := bc.Ref("stg_salesforce__leads")
			if err != nil {
				return "", err
			}

			responseRate := enrich.SafePercentExpr(
				"COALESCE(m.responded_members, 0)", "COALESCE(m.total_members, 0)")

			return fmt.Sprintf(`WITH member_agg AS (
    SELECT
        cm.campaign_id,
        COUNT(*) AS total_members,
        COUNT(*) FILTER (WHERE cm.has_responded) AS responded_members,
        COUNT(*) FILTER (WHERE cm.contact_id IS NOT NULL) AS contact_members,
        COUNT(*) FILTER (WHERE cm.lead_id IS NOT NULL) AS lead_members,
        COUNT(*) FILTER (WHERE l.is_converted) AS converted_lead_members,
        COUNT(DISTINCT cm.status) AS distinct_member_statuses,
        MAX(cm.created_date) AS last_member_date
    FROM %[2]s cm
    LEFT JOIN %[3]s l ON cm.lead_id = l.lead_id
    GROUP BY cm.campaign_id
)
SELECT
    c.campaign_id,
    c.campaign_name,
    c.campaign_type,
    c.status,
    c.start_date,
    c.end_date,
    c.is_active,
    c.budgeted_cost,
    c.actual_cost,
    c.expected_revenue,
    c.number_sent,
    c.owner_id,
    COALESCE(m.total_members, 0) AS total_members,
    COALESCE(m.responded_members, 0) AS responded_members,
    COALESCE(m.contact_members, 0) AS contact_members,
    COALESCE(m.lead_members, 0) AS lead_members,
    COALESCE(m.converted_lead_members, 0) AS converted_lead_members,
    COALESCE(m.distinct_member_statuses, 0) AS distinct_member_statuses,
    m.last_member_date,
    %[4]s AS response_rate,
    %[5]s AS member_to_sent_ratio,
    %[6]s AS cost_per_member,
    %[7]s AS cost_per_response,
    %[8]s AS expected_roi_percent,
    %[9]s AS performance_category,
    c.loaded_at
FROM %[1]s c
LEFT JOIN member_agg m ON c.campaign_id = m.campaign_id`,
				campaigns, members, leads,
				responseRate,
				enrich.SafeRatioExpr("COALESCE(m.total_members, 0)", "COALESCE(c.number_sent, 0)"),
				enrich.SafeRatioExpr("COALESCE(c.actual_cost, 0)", "COALESCE(m.total_members, 0)"),
				enrich.SafeRatioExpr("COALESCE(c.actual_cost, 0)", "COALESCE(m.responded_members, 0)"),
				enrich.ExpectedROIExpr("COALESCE(c.expected_revenue, 0)", "COALESCE(c.actual_cost, 0)"),
				enrich.PerformanceCategoryCase("COALESCE(m.responded_members, 0)", responseRate)), nil
		},
	}
}
