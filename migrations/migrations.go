// Package migrations содержит вшитые в бинарник SQL-миграции схемы.
package migrations

import "embed"

//go:embed *.sql
var FS embed.FS
