package repository

import (
	"time"

	"gorm.io/gorm"

	"github.com/UnicloudAfrica/uniclo-sub010/internal/models"
)

// AttemptRepository handles payment attempt database operations.
type AttemptRepository struct {
	db *gorm.DB
}

func NewAttemptRepository(db *gorm.DB) *AttemptRepository {
	return &AttemptRepository{db: db}
}

// FindAll returns attempts with pagination and search.
func (r *AttemptRepository) FindAll(limit, page int, query string) ([]models.PaymentAttempt, int64, error) {
	var attempts []models.PaymentAttempt
	var total int64

	db := r.db.Model(&models.PaymentAttempt{})

	if query != "" {
		search := "%" + query + "%"
		db = db.Where("transaction_id LIKE ? OR gateway LIKE ? OR outcome LIKE ?",
			search, search, search)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if limit <= 0 {
		limit = 50
	}
	if page <= 0 {
		page = 1
	}
	offset := (page - 1) * limit

	if err := db.Limit(limit).Offset(offset).Order("id DESC").Find(&attempts).Error; err != nil {
		return nil, 0, err
	}
	return attempts, total, nil
}

// FindByTransaction returns every attempt for a transaction, oldest first.
func (r *AttemptRepository) FindByTransaction(txID string) ([]models.PaymentAttempt, error) {
	var attempts []models.PaymentAttempt
	err := r.db.Where("transaction_id = ?", txID).Order("id ASC").Find(&attempts).Error
	return attempts, err
}

// Create stores one attempt.
func (r *AttemptRepository) Create(attempt *models.PaymentAttempt) error {
	return r.db.Create(attempt).Error
}

// CountOutcomesSince groups attempts created at or after since by outcome.
func (r *AttemptRepository) CountOutcomesSince(since time.Time) (map[string]int64, error) {
	var rows []struct {
		Outcome string
		Total   int64
	}
	err := r.db.Model(&models.PaymentAttempt{}).
		Select("outcome, COUNT(*) AS total").
		Where("created_at >= ?", since).
		Group("outcome").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Outcome] = row.Total
	}
	return counts, nil
}
