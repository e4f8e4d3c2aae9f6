package repositories

import (
	"gorm.io/gorm"

	"tokenarena/internal/models"
)

type MatchRepository struct {
	DB *gorm.DB
}

func NewMatchRepository(db *gorm.DB) *MatchRepository {
	return &MatchRepository{DB: db}
}

func (r *MatchRepository) Create(m *models.Match) error {
	return r.DB.Create(m).Error
}

func (r *MatchRepository) GetByID(id uint) (*models.Match, error) {
	var m models.Match
	err := r.DB.First(&m, id).Error
	return &m, err
}

// GetRunning returns the single match currently in the running state, if
// any. Only one match may be running across the fleet at a time.
func (r *MatchRepository) GetRunning() (*models.Match, error) {
	var m models.Match
	err := r.DB.Where("status = ?", models.MatchRunning).First(&m).Error
	return &m, err
}

// GetNonSettled returns any match that is Pending or Running, if one
// exists. Used to enforce that at most one non-settled match exists
// across the fleet at a time.
func (r *MatchRepository) GetNonSettled() (*models.Match, error) {
	var m models.Match
	err := r.DB.Where("status IN ?", []models.MatchStatus{models.MatchPending, models.MatchRunning}).First(&m).Error
	return &m, err
}

func (r *MatchRepository) UpdateStatus(id uint, status models.MatchStatus) error {
	return r.DB.Model(&models.Match{}).Where("id = ?", id).Update("status", status).Error
}

func (r *MatchRepository) Settle(id uint, resultHash string) error {
	return r.DB.Model(&models.Match{}).Where("id = ?", id).Updates(map[string]interface{}{
		"status":      models.MatchSettled,
		"result_hash": resultHash,
	}).Error
}
