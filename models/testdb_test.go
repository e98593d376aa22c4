package models

import (
	"fmt"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// testDB opens an isolated in-memory database with the tables the model
// layer touches. Schemas are written by hand: the production migrations
// use postgres-only defaults.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}

	schemas := []string{
		`CREATE TABLE companies (
			id TEXT PRIMARY KEY, name TEXT, units INTEGER DEFAULT 1,
			currency TEXT, logo_id TEXT,
			created_at DATETIME, updated_at DATETIME, deleted_at DATETIME)`,
		`CREATE TABLE forms (
			id TEXT PRIMARY KEY, company_id TEXT, name TEXT,
			form_type INTEGER, subform BOOLEAN DEFAULT 0,
			created_at DATETIME, updated_at DATETIME, deleted_at DATETIME)`,
		`CREATE TABLE form_fields (
			id TEXT PRIMARY KEY, form_id TEXT, form_field_type INTEGER,
			model_id TEXT, field_order INTEGER,
			created_at DATETIME, updated_at DATETIME)`,
		`CREATE TABLE fields (
			id TEXT PRIMARY KEY, company_id TEXT, name TEXT,
			field_type INTEGER, options TEXT, style TEXT,
			created_at DATETIME, updated_at DATETIME, deleted_at DATETIME)`,
		`CREATE TABLE decisions (
			id TEXT PRIMARY KEY, company_id TEXT, field_id TEXT, options TEXT,
			created_at DATETIME, updated_at DATETIME, deleted_at DATETIME)`,
		`CREATE TABLE answers (
			id TEXT PRIMARY KEY, company_id TEXT, user_id TEXT,
			job_id TEXT, task_id TEXT, field_id TEXT,
			antenna_id TEXT, port_id TEXT, radio_id TEXT,
			microwave_id TEXT, fwa_id TEXT,
			value TEXT, comment TEXT, other TEXT, source INTEGER DEFAULT 0,
			created_at DATETIME, updated_at DATETIME, deleted_at DATETIME)`,
		`CREATE TABLE layouts (
			id TEXT PRIMARY KEY, company_id TEXT, layout_type INTEGER,
			main BOOLEAN DEFAULT 0, toc BOOLEAN DEFAULT 0, attributes TEXT)`,
		`CREATE TABLE sublayouts (
			layout_id TEXT, sublayout_type INTEGER, sublayout_id TEXT,
			sublayout_order INTEGER, widths TEXT)`,
		`CREATE TABLE special_layouts (
			id TEXT PRIMARY KEY, company_id TEXT, special_type INTEGER, attributes TEXT)`,
		`CREATE TABLE jobs (
			id TEXT PRIMARY KEY, company_id TEXT, customer_id TEXT,
			site_id TEXT, vehicle_id TEXT, name TEXT,
			job_type INTEGER DEFAULT 1, status INTEGER DEFAULT 1,
			watermark INTEGER DEFAULT 0,
			assigned DATETIME, completed DATETIME,
			first_answer DATETIME, last_answer DATETIME,
			created_at DATETIME, updated_at DATETIME, deleted_at DATETIME)`,
		`CREATE TABLE tasks (
			id TEXT PRIMARY KEY, company_id TEXT, name TEXT, form_id TEXT,
			created_at DATETIME, updated_at DATETIME, deleted_at DATETIME)`,
		`CREATE TABLE job_tasks (
			job_id TEXT, task_id TEXT, first_answer DATETIME, last_answer DATETIME)`,
		`CREATE TABLE job_users (job_id TEXT, user_id TEXT)`,
		`CREATE TABLE media (
			id TEXT PRIMARY KEY, company_id TEXT, user_id TEXT, answer_id TEXT,
			file_name TEXT, path TEXT, media_type INTEGER DEFAULT 0,
			media_use INTEGER DEFAULT 0, size INTEGER, resize INTEGER DEFAULT 0,
			created_at DATETIME, updated_at DATETIME, deleted_at DATETIME)`,
	}
	for _, schema := range schemas {
		if err := db.Exec(schema).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	return db
}
