package database

import (
	"log"

	"github.com/programacioneltictac/app-gestion-stock/internal/model"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// NewConnection initializes a new connection pool using GORM
func NewConnection(dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		log.Println("WARNING: Failed to auto-migrate models:", err)
	}

	return db, nil
}

// Migrate applies the schema for all core models.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&model.Branch{},
		&model.User{},
		&model.Product{},
		&model.Category{},
		&model.Condition{},
		&model.ProductStatus{},
		&model.StockStatus{},
		&model.MonthlyControl{},
		&model.StockItem{},
	)
}

// Seed inserts the fixed reference rows the business rules depend on: the
// tri-state product statuses and the four stock compliance buckets. Safe to
// run repeatedly.
func Seed(db *gorm.DB) error {
	productStatuses := []model.ProductStatus{
		{Code: model.ProductStatusActive, Name: "Activo"},
		{Code: model.ProductStatusInactive, Name: "Inactivo"},
		{Code: model.ProductStatusTrial, Name: "Prueba"},
	}
	for _, ps := range productStatuses {
		var count int64
		if err := db.Model(&model.ProductStatus{}).Where("code = ?", ps.Code).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&ps).Error; err != nil {
				return err
			}
		}
	}

	stockStatuses := []model.StockStatus{
		{Code: model.StockStatusNeedsOrder, Name: "Generar pedido", ColorIndicator: "red"},
		{Code: model.StockStatusOptimal, Name: "Stock óptimo", ColorIndicator: "green"},
		{Code: model.StockStatusExcess, Name: "Excedido", ColorIndicator: "yellow"},
		{Code: model.StockStatusHighExcess, Name: "Muy excedido", ColorIndicator: "orange"},
	}
	for _, ss := range stockStatuses {
		var count int64
		if err := db.Model(&model.StockStatus{}).Where("code = ?", ss.Code).Count(&count).Error; err != nil {
			return err
		}
		if count == 0 {
			if err := db.Create(&ss).Error; err != nil {
				return err
			}
		}
	}

	return nil
}
