// Package models holds the gorm persistence models of the commission engine.
// Domain types stay free of ORM tags; each model converts with ToDomain and
// FromDomain.
//
// Tables owned here: commission_invoices, distribution_ledger_entries and
// commission_review_cases. users, billing_profiles and network_gmv_snapshots
// belong to collaborating services and are only read.
package models
