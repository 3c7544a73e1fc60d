package migrations

import (
	_ "embed"

	"github.com/uptrace/bun/migrate"
)

//go:embed 0001_create_concept_pages.sql
var createConceptPagesSQL string

var Migrations = migrate.NewMigrations()
