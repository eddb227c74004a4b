// Package store persists portal users, submission requests and data
// submissions in PostgreSQL.
//
// Every list method takes a listing.FetchDescriptor and returns a
// listing.Page. OrderBy names an API field ("updatedAt", "studyName"); it is
// mapped through a per-table whitelist and unknown fields fall back to the
// table's default order, so the descriptor never reaches the SQL text.
//
//	db, err := store.Open(ctx, store.Options{URL: cfg.Database.URL})
//	if err := store.Migrate(ctx, db); err != nil { ... }
//
//	apps := store.NewApplicationStore(db, metrics)
//	page, err := apps.ListApplications(ctx, store.Filter{Status: "In Review"}, desc)
//
// Lookups that find nothing return ErrNotFound.
package store
