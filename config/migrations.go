package config

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
	"p9e.in/towerops/models"
)

func Migrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, []*gormigrate.Migration{
		{
			ID: "01032026_create_core_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Company{}, &models.Customer{}, &models.User{},
					&models.Site{}, &models.Antenna{}, &models.Port{}, &models.Radio{},
					&models.Microwave{}, &models.FWAntenna{})
			},
		},
		{
			ID: "01032026_create_form_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Field{}, &models.Form{}, &models.FormField{},
					&models.Decision{}, &models.Answer{})
			},
		},
		{
			ID: "01032026_create_layout_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Layout{}, &models.SublayoutPivot{}, &models.SpecialLayout{})
			},
		},
		{
			ID: "01032026_create_job_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Task{}, &models.Job{}, &models.JobTask{}, &models.JobUser{})
			},
		},
		{
			ID: "01032026_create_media_billing_tables",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&models.Media{}, &models.Invoice{}, &models.InvoiceItem{},
					&models.Quote{}, &models.Notification{}, &models.Subscription{})
			},
		},
		{
			ID: "02032026_add_answer_tuple_index",
			Migrate: func(tx *gorm.DB) error {
				// Answer lookups always filter the full dimension tuple and
				// sort by recency; one composite index covers them.
				return tx.Exec(`CREATE INDEX IF NOT EXISTS idx_answers_tuple
					ON answers (job_id, task_id, field_id, antenna_id, port_id, radio_id, microwave_id, fwa_id, updated_at DESC)`).Error
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Exec("DROP INDEX IF EXISTS idx_answers_tuple").Error
			},
		},
	})
	return m.Migrate()
}
