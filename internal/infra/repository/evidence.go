package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/totegamma/transparence/internal/domain"
	"github.com/totegamma/transparence/internal/infra/database/models"
)

type EvidenceRepository struct {
	db *gorm.DB
}

func NewEvidenceRepository(db *gorm.DB) *EvidenceRepository {
	return &EvidenceRepository{db: db}
}

func toModel(r domain.Record) (models.Evidence, error) {
	tags := r.Tags
	if tags == nil {
		tags = []string{}
	}
	tagsJSON, err := json.Marshal(tags)
	if err != nil {
		return models.Evidence{}, err
	}

	return models.Evidence{
		ID:               r.ID,
		MediaKind:        string(r.MediaKind),
		Lat:              r.Lat,
		Lng:              r.Lng,
		LocationSource:   string(r.LocationSource),
		Country:          r.Country,
		Title:            r.Title,
		Description:      r.Description,
		Tags:             datatypes.JSON(tagsJSON),
		CID:              r.Content.CID,
		URL:              r.Content.URL,
		ChainRef:         r.ChainRef,
		SubmitterAddress: r.SubmitterAddress,
		CreatedAtMs:      r.CreatedAt,
		Verified:         r.Verified,
	}, nil
}

func fromModel(m models.Evidence) (domain.Record, error) {
	tags := []string{}
	if len(m.Tags) > 0 {
		if err := json.Unmarshal(m.Tags, &tags); err != nil {
			return domain.Record{}, fmt.Errorf("evidence %s: invalid tags: %w", m.ID, err)
		}
	}

	return domain.Record{
		ID:               m.ID,
		MediaKind:        domain.MediaKind(m.MediaKind),
		Lat:              m.Lat,
		Lng:              m.Lng,
		LocationSource:   domain.LocationSource(m.LocationSource),
		Country:          m.Country,
		Title:            m.Title,
		Description:      m.Description,
		Tags:             tags,
		Content:          domain.ContentRef{CID: m.CID, URL: m.URL},
		ChainRef:         m.ChainRef,
		SubmitterAddress: m.SubmitterAddress,
		CreatedAt:        m.CreatedAtMs,
		Verified:         m.Verified,
	}, nil
}

// Create stores a local record. Re-creating an existing id overwrites it.
func (r *EvidenceRepository) Create(ctx context.Context, record domain.Record) error {
	model, err := toModel(record)
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(&model).Error
}

// List returns local records in submission order.
func (r *EvidenceRepository) List(ctx context.Context) ([]domain.Record, error) {
	var rows []models.Evidence
	err := r.db.WithContext(ctx).
		Order("created_at_ms ASC").
		Order("c_date ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	records := make([]domain.Record, 0, len(rows))
	for _, row := range rows {
		record, err := fromModel(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// Confirm re-keys a pending record under its transaction hash.
func (r *EvidenceRepository) Confirm(ctx context.Context, id, hash string) error {
	result := r.db.WithContext(ctx).
		Model(&models.Evidence{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"id":        hash,
			"chain_ref": hash,
			"verified":  true,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.NotFoundError{Resource: "evidence"}
	}
	return nil
}
