package repositories

import (
	"gorm.io/gorm"

	"tokenarena/internal/models"
)

// BalanceProjectionRepository persists settlement-time balance snapshots so
// a participant's final standing survives the live Coordinator being torn
// down once its match settles.
type BalanceProjectionRepository struct {
	DB *gorm.DB
}

func NewBalanceProjectionRepository(db *gorm.DB) *BalanceProjectionRepository {
	return &BalanceProjectionRepository{DB: db}
}

// CreateBatch persists one projection row per participant in a single
// insert.
func (r *BalanceProjectionRepository) CreateBatch(projections []models.BalanceProjection) error {
	if len(projections) == 0 {
		return nil
	}
	return r.DB.Create(&projections).Error
}

// LatestByParticipant returns the most recent projection row for a
// participant, if any.
func (r *BalanceProjectionRepository) LatestByParticipant(participantID uint) (*models.BalanceProjection, error) {
	var bp models.BalanceProjection
	err := r.DB.Where("participant_id = ?", participantID).Order("ts DESC").First(&bp).Error
	return &bp, err
}
