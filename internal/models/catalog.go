// Package models holds the full model catalog: staging renames over the
// raw Salesforce extract, the enrichment intermediates, and the star-schema
// marts, plus the assertion set the validation gate runs after every build.
package models

import (
	"github.com/forge-data/crmforge/internal/registry"
	"github.com/forge-data/crmforge/pkg/core"
)

// Catalog returns every model in dependency-declaration order.
func Catalog() []*core.Model {
	return []*core.Model{
		// Staging
		stgAccounts(),
		stgUsers(),
		stgContacts(),
		stgOpportunities(),
		stgTasks(),
		stgCampaigns(),
		stgCampaignMembers(),
		stgLeads(),

		// Intermediate
		intOpportunitiesEnriched(),
		intContactsWithActivity(),
		intCampaignsPerformance(),

		// Marts
		dimAccounts(),
		dimUsers(),
		dimContacts(),
		dimCampaigns(),
		dimDate(),
		fctOpportunities(),
		fctCampaignPerformance(),
		aggTopAccounts(),
	}
}

// RegisterAll loads the catalog into a registry.
func RegisterAll(r *registry.Registry) error {
	for _, m := range Catalog() {
		if err := r.Register(m); err != nil {
			return err
		}
	}
	return nil
}

// NewRegistry returns a registry preloaded with the catalog.
func NewRegistry() (*registry.Registry, error) {
	r := registry.New()
	if err := RegisterAll(r); err != nil {
		return nil, err
	}
	return r, nil
}
