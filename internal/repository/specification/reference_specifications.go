package specification

import (
	"strings"

	"gorm.io/gorm"
)

type ByReferenceType struct {
	Type string
}

func (s ByReferenceType) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("type = ?", s.Type)
}

// TitleContains matches titles case-insensitively.
type TitleContains struct {
	Query string
}

func (s TitleContains) Apply(db *gorm.DB) *gorm.DB {
	q := strings.TrimSpace(s.Query)
	if q == "" {
		return db
	}
	return db.Where("title ILIKE ?", "%"+escapeLike(q)+"%")
}

type WithPdf struct{}

func (s WithPdf) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("has_pdf = ?", true)
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
