// Package models contains the GORM models of the staging database.
//
// The staging schema is schema-free with respect to the dataset: an ingest
// owns one row per source table, and each table owns its data rows with the
// cells stored as a JSON array in header order. Column checks happen when
// the rows are normalized, not when they are stored.
package models
