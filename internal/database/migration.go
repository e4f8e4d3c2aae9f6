// Package database wires the GORM connection and schema migration.
package database

import (
	"gorm.io/gorm"

	"tokenarena/internal/logger"
	"tokenarena/internal/models"
	"tokenarena/internal/observability"
	"tokenarena/internal/subscribers"
)

// AutoMigrateAll creates or updates every table this service owns. Burn is
// owned by the external fee subsystem and is included only so local/dev
// environments can seed it; production deployments point at the real table.
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Participant{},
		&models.Match{},
		&models.Winner{},
		&models.Burn{},
		&models.OrderRecord{},
		&models.BalanceProjection{},
		&logger.SystemLog{},
		&observability.ServiceMetric{},
		&subscribers.SettlementAuditLog{},
	)
}
