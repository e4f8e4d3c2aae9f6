package repositories

import (
	"gorm.io/gorm"

	"tokenarena/internal/models"
)

type WinnerRepository struct {
	DB *gorm.DB
}

func NewWinnerRepository(db *gorm.DB) *WinnerRepository {
	return &WinnerRepository{DB: db}
}

func (r *WinnerRepository) Create(w *models.Winner) error {
	return r.DB.Create(w).Error
}

func (r *WinnerRepository) ListByMatch(matchID uint) ([]models.Winner, error) {
	var winners []models.Winner
	err := r.DB.Where("match_id = ?", matchID).Order("end_balance DESC").Find(&winners).Error
	return winners, err
}

// MarkPaid records the off-chain prize payout transaction for a winner row.
func (r *WinnerRepository) MarkPaid(id uint, txHash string) error {
	return r.DB.Model(&models.Winner{}).Where("id = ?", id).Updates(map[string]interface{}{
		"paid":    true,
		"paid_tx": txHash,
	}).Error
}
