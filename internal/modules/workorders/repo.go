package workorders

import (
	"context"

	"gorm.io/gorm"
)

type Repo struct{ db *gorm.DB }

func NewRepo(db *gorm.DB) *Repo { return &Repo{db: db} }

func (r *Repo) GetWithDevice(ctx context.Context, id string) (WorkOrder, error) {
	var wo WorkOrder
	if err := r.db.WithContext(ctx).Preload("Device").First(&wo, "id = ?", id).Error; err != nil {
		return WorkOrder{}, err
	}
	return wo, nil
}

type ListByUserParams struct {
	UserID   string
	Page     int
	PageSize int
	Status   string // optional filter
}

type ListByUserResult struct {
	Items []WorkOrder
	Total int64
}

func (r *Repo) ListByUser(ctx context.Context, in ListByUserParams) (ListByUserResult, error) {
	page := in.Page
	if page < 1 {
		page = 1
	}
	size := in.PageSize
	if size < 1 || size > 100 {
		size = 20
	}

	q := r.db.WithContext(ctx).Model(&WorkOrder{}).Where("user_id = ?", in.UserID)
	if in.Status != "" {
		q = q.Where("status = ?", in.Status)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return ListByUserResult{}, err
	}

	var items []WorkOrder
	if err := q.Preload("Device").
		Order("created_at DESC").
		Limit(size).
		Offset((page - 1) * size).
		Find(&items).Error; err != nil {
		return ListByUserResult{}, err
	}

	return ListByUserResult{Items: items, Total: total}, nil
}
