package wmsapi

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	"github.com/erp/wmsconnector/internal/domain/wms"
)

// Address and contact fields carry no omitempty: the WMS expects strings, never null.

// ProductPayload is the wire representation of a product
type ProductPayload struct {
	Name          string      `json:"name"`
	SKU           string      `json:"sku"`
	Barcode       string      `json:"barcode"`
	MinStockLevel json.Number `json:"minStockLevel"`
	UOM           string      `json:"uom"`
	IsPack        bool        `json:"isPack"`
}

// ContactPayload identifies the ordering customer
type ContactPayload struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// AddressPayload is a shipping address
type AddressPayload struct {
	Name    string `json:"name"`
	Street  string `json:"street"`
	Street2 string `json:"street2"`
	Zip     string `json:"zip"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// LinePayload is one order or inbound line
type LinePayload struct {
	SKU      string      `json:"sku"`
	Quantity json.Number `json:"quantity"`
	Name     string      `json:"name"`
}

// OrderPayload is the wire representation of a sales order
type OrderPayload struct {
	Reference       string         `json:"reference"`
	Customer        ContactPayload `json:"customer"`
	ShippingAddress AddressPayload `json:"shippingAddress"`
	Lines           []LinePayload  `json:"lines"`
}

// SupplierPayload is the wire representation of a supplier
type SupplierPayload struct {
	Name      string `json:"name"`
	Reference string `json:"reference"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
}

// InboundPayload is the wire representation of an expected receipt
type InboundPayload struct {
	Reference string          `json:"reference"`
	Supplier  SupplierPayload `json:"supplier"`
	Lines     []LinePayload   `json:"lines"`
}

// number renders a decimal as a JSON number without conversion
func number(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

// BuildProductPayload maps a product to its wire representation
func BuildProductPayload(p *wms.Product) ProductPayload {
	return ProductPayload{
		Name:          p.Name,
		SKU:           p.ResolveSKU(),
		Barcode:       p.Barcode,
		MinStockLevel: number(p.MinStock),
		UOM:           p.UnitOfMeasureOrDefault(),
		IsPack:        p.IsPack,
	}
}

// BuildOrderPayload maps a sales order to its wire representation.
// Pack products are sent as their own SKU; lines without a product are skipped.
func BuildOrderPayload(o *wms.SalesOrder) OrderPayload {
	ship := o.ShippingParty()
	lines := make([]LinePayload, 0, len(o.Lines))
	for _, line := range o.Lines {
		if line.Product == nil {
			continue
		}
		lines = append(lines, buildLine(line.Product, line.Quantity, line.Name))
	}
	return OrderPayload{
		Reference: o.Name,
		Customer: ContactPayload{
			Name:  ship.Name,
			Email: ship.Email,
			Phone: ship.Phone,
		},
		ShippingAddress: AddressPayload{
			Name:    ship.Name,
			Street:  ship.Street,
			Street2: ship.Street2,
			Zip:     ship.Zip,
			City:    ship.City,
			Country: ship.CountryCode,
		},
		Lines: lines,
	}
}

// BuildSupplierPayload maps a partner to the supplier wire representation
func BuildSupplierPayload(s wms.Partner) SupplierPayload {
	return SupplierPayload{
		Name:      s.Name,
		Reference: s.SupplierReference(),
		Email:     s.Email,
		Phone:     s.Phone,
	}
}

// BuildInboundPayload maps a purchase order to the inbound wire representation
func BuildInboundPayload(po *wms.PurchaseOrder) InboundPayload {
	lines := make([]LinePayload, 0, len(po.Lines))
	for _, line := range po.Lines {
		if line.Product == nil {
			continue
		}
		lines = append(lines, buildLine(line.Product, line.Quantity, line.Name))
	}
	return InboundPayload{
		Reference: po.Name,
		Supplier:  BuildSupplierPayload(po.Supplier),
		Lines:     lines,
	}
}

func buildLine(p *wms.Product, qty decimal.Decimal, name string) LinePayload {
	if name == "" {
		name = p.Name
	}
	return LinePayload{
		SKU:      p.ResolveSKU(),
		Quantity: number(qty),
		Name:     name,
	}
}
