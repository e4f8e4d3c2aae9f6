package repositories

import (
	"gorm.io/gorm"

	"tokenarena/internal/models"
)

// BurnRepository reads the external fee subsystem's burn ledger. This
// service never writes to it.
type BurnRepository struct {
	DB *gorm.DB
}

func NewBurnRepository(db *gorm.DB) *BurnRepository {
	return &BurnRepository{DB: db}
}

// HasVerifiedBurnSince reports whether owner has a verified entry-fee burn
// timestamped at or after matchStart.
func (r *BurnRepository) HasVerifiedBurnSince(owner string, matchStart int64) (bool, error) {
	var count int64
	err := r.DB.Model(&models.Burn{}).
		Where("owner = ? AND verified = ? AND ts >= ?", owner, true, matchStart).
		Count(&count).Error
	return count > 0, err
}
