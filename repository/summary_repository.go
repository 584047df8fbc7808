package repository

import (
	"context"

	"P3DrumMachine/model"
	"P3DrumMachine/storage"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const replaceBatchSize = 200

// gormSummaryRepository GORM 实现的会话摘要索引
type gormSummaryRepository struct {
	db *gorm.DB
}

// NewGormSummaryRepository 创建 GORM 会话摘要仓库
func NewGormSummaryRepository(db *gorm.DB) storage.SummaryIndex {
	return &gormSummaryRepository{db: db}
}

// Upsert inserts or overwrites the row for summary.ID.
func (r *gormSummaryRepository) Upsert(ctx context.Context, summary model.SessionSummary) error {
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&summary).Error
}

// Delete 删除摘要，不存在时不报错
func (r *gormSummaryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("id = ?", id.String()).
		Delete(&model.SessionSummary{}).Error
}

// List 按修改时间倒序返回全部摘要
func (r *gormSummaryRepository) List(ctx context.Context) ([]model.SessionSummary, error) {
	var rows []model.SessionSummary
	err := r.db.WithContext(ctx).
		Order("modified_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// Replace swaps the table content in one transaction.
func (r *gormSummaryRepository) Replace(ctx context.Context, summaries []model.SessionSummary) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.SessionSummary{}).Error; err != nil {
			return err
		}
		if len(summaries) == 0 {
			return nil
		}
		rows := append([]model.SessionSummary(nil), summaries...)
		return tx.CreateInBatches(&rows, replaceBatchSize).Error
	})
}
