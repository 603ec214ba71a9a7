package models

import (
	"time"

	"gorm.io/datatypes"
)

// Evidence is a locally submitted record. Remote journal records are never
// stored; they are decoded from the ledger on every load.
type Evidence struct {
	ID               string         `json:"id" gorm:"primaryKey;type:text"`
	MediaKind        string         `json:"mediaKind" gorm:"type:text;not null"`
	Lat              float64        `json:"lat" gorm:"not null"`
	Lng              float64        `json:"lng" gorm:"not null"`
	LocationSource   string         `json:"locationSource" gorm:"type:text"`
	Country          string         `json:"country" gorm:"type:text;index"`
	Title            string         `json:"title" gorm:"type:text"`
	Description      string         `json:"description" gorm:"type:text"`
	Tags             datatypes.JSON `json:"tags"`
	CID              string         `json:"cid" gorm:"type:text;index"`
	URL              string         `json:"url" gorm:"type:text"`
	ChainRef         string         `json:"chainRef" gorm:"type:text;index"`
	SubmitterAddress string         `json:"submitterAddress" gorm:"type:text"`
	CreatedAtMs      int64          `json:"createdAt" gorm:"column:created_at_ms;not null;index"`
	Verified         bool           `json:"verified" gorm:"type:boolean;not null;default:false"`
	CDate            time.Time      `json:"cdate" gorm:"autoCreateTime"`
}

func (Evidence) TableName() string {
	return "evidence"
}
