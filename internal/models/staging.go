package models

import (
	"fmt"

	"github.com/forge-data/crmforge/pkg/core"
)

// Staging models rename raw source columns into the warehouse naming
// convention and apply light type normalization (timestamp to date casts).
// Business logic never lives here; every staging model carries the source's
// natural key and the loaded_at provenance column untouched.

func stgAccounts() *core.Model {
	return &core.Model{
		Name:        "stg_salesforce__accounts",
		Layer:       core.LayerStaging,
		Description: "Accounts from the Salesforce extract, one row per account.",
		PrimaryKey:  "account_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			return fmt.Sprintf(`SELECT
    id AS account_id,
    name AS account_name,
    industry,
    type AS account_type,
    number_of_employees,
    annual_revenue,
    billing_city,
    billing_state,
    billing_country,
    owner_id,
    CAST(created_date AS DATE) AS created_date,
    CAST(last_modified_date AS DATE) AS last_modified_date,
    loaded_at
FROM %s`, bc.Source("accounts")), nil
		},
	}
}

func stgUsers() *core.Model {
	return &core.Model{
		Name:        "stg_salesforce__users",
		Layer:       core.LayerStaging,
		Description: "Internal Salesforce users (opportunity and account owners).",
		PrimaryKey:  "user_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			return fmt.Sprintf(`SELECT
    id AS user_id,
    name AS user_name,
    email,
    department,
    manager_id,
    is_active,
    CAST(created_date AS DATE) AS created_date,
    loaded_at
FROM %s`, bc.Source("users")), nil
		},
	}
}

func stgContacts() *core.Model {
	return &core.Model{
		Name:        "stg_salesforce__contacts",
		Layer:       core.LayerStaging,
		Description: "Contacts with their owning account reference.",
		PrimaryKey:  "contact_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			return fmt.Sprintf(`SELECT
    id AS contact_id,
    account_id,
    first_name,
    last_name,
    email,
    phone,
    title,
    department,
    lead_source,
    owner_id,
    CAST(created_date AS DATE) AS created_date,
    loaded_at
FROM %s`, bc.Source("contacts")), nil
		},
	}
}

func stgOpportunities() *core.Model {
	return &core.Model{
		Name:        "stg_salesforce__opportunities",
		Layer:       core.LayerStaging,
		Description: "Opportunities with stage, amount, and closed/won flags.",
		PrimaryKey:  "opportunity_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			return fmt.Sprintf(`SELECT
    id AS opportunity_id,
    account_id,
    name AS opportunity_name,
    stage_name,
    amount,
    probability,
    close_date,
    type AS opportunity_type,
    lead_source,
    owner_id,
    is_closed,
    is_won,
    CAST(created_date AS DATE) AS created_date,
    loaded_at
FROM %s`, bc.Source("opportunities")), nil
		},
	}
}

func stgTasks() *core.Model {
	return &core.Model{
		Name:        "stg_salesforce__tasks",
		Layer:       core.LayerStaging,
		Description: "Activity tasks. who_id carries the contact linkage.",
		PrimaryKey:  "task_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			return fmt.Sprintf(`SELECT
    id AS task_id,
    who_id AS contact_id,
    what_id AS related_to_id,
    owner_id,
    subject,
    status,
    priority,
    type AS task_type,
    activity_date,
    call_duration_in_seconds,
    CAST(created_date AS DATE) AS created_date,
    loaded_at
FROM %s`, bc.Source("tasks")), nil
		},
	}
}

func stgCampaigns() *core.Model {
	return &core.Model{
		Name:        "stg_salesforce__campaigns",
		Layer:       core.LayerStaging,
		Description: "Marketing campaigns with budget and cost figures.",
		PrimaryKey:  "campaign_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			return fmt.Sprintf(`SELECT
    id AS campaign_id,
    name AS campaign_name,
    type AS campaign_type,
    status,
    start_date,
    end_date,
    is_active,
    budgeted_cost,
    actual_cost,
    expected_revenue,
    number_sent,
    owner_id,
    CAST(created_date AS DATE) AS created_date,
    loaded_at
FROM %s`, bc.Source("campaigns")), nil
		},
	}
}

func stgCampaignMembers() *core.Model {
	return &core.Model{
		Name:        "stg_salesforce__campaign_members",
		Layer:       core.LayerStaging,
		Description: "Campaign membership junction rows. Exactly one of lead_id or contact_id is set.",
		PrimaryKey:  "campaign_member_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			return fmt.Sprintf(`SELECT
    id AS campaign_member_id,
    campaign_id,
    lead_id,
    contact_id,
    status,
    has_responded,
    CAST(created_date AS DATE) AS created_date,
    loaded_at
FROM %s`, bc.Source("campaign_members")), nil
		},
	}
}

func stgLeads() *core.Model {
	return &core.Model{
		Name:        "stg_salesforce__leads",
		Layer:       core.LayerStaging,
		Description: "Leads including conversion outcome references.",
		PrimaryKey:  "lead_id",
		SQL: func(bc *core.BuildContext) (string, error) {
			return fmt.Sprintf(`SELECT
    id AS lead_id,
    company,
    status,
    rating,
    lead_source,
    industry,
    is_converted,
    converted_account_id,
    converted_contact_id,
    converted_opportunity_id,
    converted_date,
    owner_id,
    CAST(created_date AS DATE) AS created_date,
    loaded_at
FROM %s`, bc.Source("leads")), nil
		},
	}
}
