package repo

import (
	"errors"
	"time"

	"buoyd/internal/models"

	"gorm.io/gorm"
)

// StatusStore — gorm-реализация журнала статусов: last-write-wins запись
// на буй плюс append-only строка истории в одной транзакции.
type StatusStore struct {
	db *gorm.DB
}

func NewStatusStore(db *gorm.DB) *StatusStore {
	return &StatusStore{db: db}
}

func (s *StatusStore) Upsert(id, state string, ts time.Time) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var m models.BuoyStatus
		err := tx.Where(&models.BuoyStatus{BuoyID: id}).First(&m).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}
			m = models.BuoyStatus{BuoyID: id, State: state, LastUpdate: ts}
			if err := tx.Create(&m).Error; err != nil {
				return err
			}
		} else {
			m.State = state
			m.LastUpdate = ts
			if err := tx.Save(&m).Error; err != nil {
				return err
			}
		}
		h := models.BuoyStatusHistory{BuoyID: id, State: state}
		return tx.Create(&h).Error
	})
}

func (s *StatusStore) Get(id string) (models.BuoyStatus, bool) {
	var m models.BuoyStatus
	if err := s.db.Where(&models.BuoyStatus{BuoyID: id}).First(&m).Error; err != nil {
		return models.BuoyStatus{}, false
	}
	return m, true
}

func (s *StatusStore) List() ([]models.BuoyStatus, error) {
	var out []models.BuoyStatus
	err := s.db.Order("buoy_id").Find(&out).Error
	return out, err
}
