// Package db embeds the canteen service schema so the binary can
// migrate its own database on startup.
package db

import _ "embed"

// Schema holds the DDL for users, API keys, the menu catalog, coupons,
// and the order tables.
//
//go:embed migrations/001_schema.sql
var Schema string
