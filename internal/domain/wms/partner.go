package wms

import "strconv"

// Partner is a customer, delivery address or supplier
type Partner struct {
	ID          int64
	Name        string
	Ref         string
	Email       string
	Phone       string
	Street      string
	Street2     string
	Zip         string
	City        string
	CountryCode string
}

// SupplierReference is the key used to look a supplier up in the WMS
func (p Partner) SupplierReference() string {
	if p.Ref != "" {
		return p.Ref
	}
	return strconv.FormatInt(p.ID, 10)
}

// EntityRef returns the reference of the partner acting as supplier
func (p Partner) EntityRef() EntityRef {
	return EntityRef{Kind: EntitySupplier, ID: p.ID}
}
