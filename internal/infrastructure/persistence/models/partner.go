package models

import "github.com/erp/wmsconnector/internal/domain/wms"

// PartnerModel is the persistence model for customers, delivery addresses and suppliers
type PartnerModel struct {
	ID          int64  `gorm:"primaryKey"`
	Name        string `gorm:"type:varchar(200);not null"`
	Ref         string `gorm:"type:varchar(64);not null;default:'';index"`
	Email       string `gorm:"type:varchar(200)"`
	Phone       string `gorm:"type:varchar(50)"`
	Street      string `gorm:"type:varchar(200)"`
	Street2     string `gorm:"type:varchar(200)"`
	Zip         string `gorm:"type:varchar(20)"`
	City        string `gorm:"type:varchar(100)"`
	CountryCode string `gorm:"type:varchar(2)"`
}

// TableName returns the table name for GORM
func (PartnerModel) TableName() string {
	return "partners"
}

// ToDomain converts the persistence model to a domain Partner
func (m *PartnerModel) ToDomain() wms.Partner {
	return wms.Partner{
		ID:          m.ID,
		Name:        m.Name,
		Ref:         m.Ref,
		Email:       m.Email,
		Phone:       m.Phone,
		Street:      m.Street,
		Street2:     m.Street2,
		Zip:         m.Zip,
		City:        m.City,
		CountryCode: m.CountryCode,
	}
}
