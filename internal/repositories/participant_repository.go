package repositories

import (
	"gorm.io/gorm"

	"tokenarena/internal/models"
)

type ParticipantRepository struct {
	DB *gorm.DB
}

func NewParticipantRepository(db *gorm.DB) *ParticipantRepository {
	return &ParticipantRepository{DB: db}
}

func (r *ParticipantRepository) Create(p *models.Participant) error {
	return r.DB.Create(p).Error
}

func (r *ParticipantRepository) GetByID(id uint) (*models.Participant, error) {
	var p models.Participant
	err := r.DB.First(&p, id).Error
	return &p, err
}

// ListByMatch returns the roster for a match, sorted by lowercase owner for
// the coordinator's stable execution order.
func (r *ParticipantRepository) ListByMatch(matchID uint) ([]models.Participant, error) {
	var participants []models.Participant
	err := r.DB.Where("match_id = ?", matchID).Order("lower(owner) ASC").Find(&participants).Error
	return participants, err
}

func (r *ParticipantRepository) NameTaken(matchID uint, nameLower string) (bool, error) {
	var count int64
	err := r.DB.Model(&models.Participant{}).
		Where("match_id = ? AND name_lower = ?", matchID, nameLower).
		Count(&count).Error
	return count > 0, err
}
