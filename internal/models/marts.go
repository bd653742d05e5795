package models

import (
	"fmt"

	"github.com/forge-data/crmforge/pkg/core"
)

// Mart models project the enriched intermediates into dimension and fact
// shapes. They never recompute business rules; natural source identifiers
// are reused as join keys throughout, no surrogate keys are generated.

func dimAccounts() *core.Model {
	return &core.Model{
		Name:        "dim_accounts",
		Layer:       core.LayerMart,
		Refs:        []string{"stg_salesforce__accounts"},
		Description: "Account dimension keyed by the Salesforce account id.",
		PrimaryKey:  "account_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			accounts, err := bc.Ref("stg_salesforce__accounts")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf(`SELECT
    account_id,
    account_name,
    industry,
    account_type,
    number_of_employees,
    annual_revenue,
    billing_city,
    billing_state,
    billing_country,
    owner_id,
    created_date,
    loaded_at
FROM %s`, accounts), nil
		},
	}
}

func dimUsers() *core.Model {
	return &core.Model{
		Name:        "dim_users",
		Layer:       core.LayerMart,
		Refs:        []string{"stg_salesforce__users"},
		Description: "User dimension keyed by the Salesforce user id.",
		PrimaryKey:  "user_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			users, err := bc.Ref("stg_salesforce__users")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf(`SELECT
    user_id,
    user_name,
    email,
    department,
    manager_id,
    is_active,
    created_date,
    loaded_at
FROM %s`, users), nil
		},
	}
}

func dimContacts() *core.Model {
	return &core.Model{
		Name:        "dim_contacts",
		Layer:       core.LayerMart,
		Refs:        []string{"int_contacts__with_activity"},
		Description: "Contact dimension carrying the activity aggregates and engagement bucket.",
		PrimaryKey:  "contact_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			contacts, err := bc.Ref("int_contacts__with_activity")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf(`SELECT
    contact_id,
    account_id,
    first_name,
    last_name,
    email,
    title,
    department,
    lead_source,
    owner_id,
    created_date,
    total_tasks,
    completed_tasks,
    last_activity_date,
    total_call_duration_seconds,
    total_opportunities,
    won_opportunities,
    lost_opportunities,
    task_completion_rate,
    win_rate,
    engagement_level,
    loaded_at
FROM %s`, contacts), nil
		},
	}
}

func dimCampaigns() *core.Model {
	return &core.Model{
		Name:        "dim_campaigns",
		Layer:       core.LayerMart,
		Refs:        []string{"stg_salesforce__campaigns"},
		Description: "Campaign dimension keyed by the Salesforce campaign id.",
		PrimaryKey:  "campaign_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			campaigns, err := bc.Ref("stg_salesforce__campaigns")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf(`SELECT
    campaign_id,
    campaign_name,
    campaign_type,
    status,
    start_date,
    end_date,
    is_active,
    budgeted_cost,
    actual_cost,
    expected_revenue,
    number_sent,
    owner_id,
    loaded_at
FROM %s`, campaigns), nil
		},
	}
}

func fctOpportunities() *core.Model {
	return &core.Model{
		Name:        "fct_opportunities",
		Layer:       core.LayerMart,
		Refs:        []string{"int_opportunities__enriched"},
		Description: "Opportunity fact with foreign keys into the account, user, and date dimensions.",
		PrimaryKey:  "opportunity_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			enriched, err := bc.Ref("int_opportunities__enriched")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf(`SELECT
    opportunity_id,
    account_id,
    owner_id,
    created_date,
    close_date,
    opportunity_name,
    stage_name,
    stage_category,
    deal_status,
    opportunity_type,
    lead_source,
    amount,
    probability,
    expected_revenue,
    deal_age_days,
    sales_cycle_days,
    is_closed,
    is_won,
    loaded_at
FROM %s`, enriched), nil
		},
	}
}

func fctCampaignPerformance() *core.Model {
	return &core.Model{
		Name:        "fct_campaign_performance",
		Layer:       core.LayerMart,
		Refs:        []string{"int_campaigns__performance"},
		Description: "Campaign performance fact, one row per campaign with response and cost metrics.",
		PrimaryKey:  "campaign_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			perf, err := bc.Ref("int_campaigns__performance")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf(`SELECT
    campaign_id,
    owner_id,
    start_date,
    end_date,
    total_members,
    responded_members,
    contact_members,
    lead_members,
    converted_lead_members,
    distinct_member_statuses,
    last_member_date,
    response_rate,
    member_to_sent_ratio,
    cost_per_member,
    cost_per_response,
    expected_roi_percent,
    performance_category,
    actual_cost,
    expected_revenue,
    loaded_at
FROM %s`, perf), nil
		},
	}
}

func aggTopAccounts() *core.Model {
	return &core.Model{
		Name:        "agg_top_accounts",
		Layer:       core.LayerMart,
		Refs:        []string{"fct_opportunities", "dim_accounts"},
		Description: "Accounts ranked by closed-won revenue across all their opportunities.",
		PrimaryKey:  "account_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			facts, err := bc.Ref("fct_opportunities")
			if err != nil {
				return "", err
			}
			accounts, err := bc.Ref("dim_accounts")
			if err != nil {
				return "", err
			}
			return fmt.Sprintf(`SELECT
    a.account_id,
    a.account_name,
    a.industry,
    COUNT(f.opportunity_id) AS total_opportunities,
    COUNT(f.opportunity_id) FILTER (WHERE f.deal_status = 'Won') AS won_opportunities,
    COUNT(f.opportunity_id) FILTER (WHERE f.deal_status = 'Open') AS open_opportunities,
    SUM(CASE WHEN f.deal_status = 'Won' THEN COALESCE(f.amount, 0) ELSE 0 END) AS total_revenue,
    SUM(CASE WHEN f.deal_status = 'Open' THEN COALESCE(f.amount, 0) ELSE 0 END) AS open_pipeline,
    SUM(COALESCE(f.expected_revenue, 0)) AS total_expected_revenue,
    MAX(f.close_date) AS last_close_date,
    MAX(f.loaded_at) AS loaded_at
FROM %s a
JOIN %s f ON f.account_id = a.account_id
GROUP BY a.account_id, a.account_name, a.industry
ORDER BY total_revenue DESC, a.account_id`, accounts, facts), nil
		},
	}
}
