package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Company is a client of the occupational-health provider. Quotes and usage
// counters are scoped to a company.
type Company struct {
	ID           uuid.UUID      `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Name         string         `gorm:"column:name;not null"`
	TaxNumber    *string        `gorm:"column:tax_number;uniqueIndex"`
	Email        *string        `gorm:"column:email"`
	Phone        *string        `gorm:"column:phone"`
	City         *string        `gorm:"column:city"`
	SectorTags   pq.StringArray `gorm:"column:sector_tags;type:text[];default:ARRAY[]::text[]"`
	IsActive     bool           `gorm:"column:is_active;not null;default:true"`
	EmployeeSize *int           `gorm:"column:employee_size"`
	CreatedAt    time.Time      `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time      `gorm:"column:updated_at;autoUpdateTime"`
}
