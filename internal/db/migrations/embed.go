// Package migrations хранит SQL-миграции схемы (формат goose).
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
