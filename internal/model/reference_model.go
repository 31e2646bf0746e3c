package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Reference struct {
	Id          uuid.UUID                   `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	Type        string                      `gorm:"type:varchar(32);not null;index"`
	Title       string                      `gorm:"type:varchar(512);not null"`
	Authors     datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	Year        string                      `gorm:"type:varchar(16)"`
	Publication string                      `gorm:"type:varchar(512)"`
	Doi         string                      `gorm:"type:varchar(255)"`
	Url         string                      `gorm:"type:text"`
	Abstract    string                      `gorm:"type:text"`
	HasPdf      bool                        `gorm:"not null;default:false"`
	PdfName     string                      `gorm:"type:varchar(255)"`
	PdfSize     int64
	PdfPages    int
	PdfData     []byte         `gorm:"type:bytea"`
	Annotations datatypes.JSON `gorm:"type:jsonb;not null;default:'[]'"`
	CreatedAt   time.Time      `gorm:"autoCreateTime"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime"`
	DeletedAt   gorm.DeletedAt `gorm:"index"`
}

func (Reference) TableName() string {
	return "references"
}
