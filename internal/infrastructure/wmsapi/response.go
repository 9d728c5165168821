package wmsapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/erp/wmsconnector/internal/domain/wms"
)

// Accepted spellings per returned attribute, in precedence order
var (
	tokenAliases       = []string{"accessToken", "access_token"}
	productIDAliases   = []string{"id", "productId"}
	orderIDAliases     = []string{"id", "orderId"}
	inboundIDAliases   = []string{"id", "inboundId"}
	supplierIDAliases  = []string{"id", "supplierId"}
	deliveredAtAliases = []string{"deliveredAt", "shippedAt", "completedAt"}
	stockLevelAliases  = []string{"stockLevel", "quantity"}
	minStockAliases    = []string{"minStockLevel"}
	trackingAliases    = []string{"trackingUrl", "trackAndTraceUrl"}
	webshopIDAliases   = []string{"webshopId", "webshopOrderId"}
)

// itemsKey is the envelope key of list responses
const itemsKey = "items"

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// Object is one decoded JSON object
type Object map[string]any

// Response is a decoded response body
type Response struct {
	value any
}

// ParseResponse decodes a response body. An empty body yields an empty object.
func ParseResponse(body []byte) (*Response, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return &Response{value: map[string]any{}}, nil
	}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("%w: %v", wms.ErrInvalidResponse, err)
	}
	return &Response{value: v}, nil
}

// Object returns the body as an object, or an empty object for any other shape
func (r *Response) Object() Object {
	if m, ok := r.value.(map[string]any); ok {
		return Object(m)
	}
	return Object{}
}

// Items returns the elements of a list response, accepting both an "items" envelope and a
// bare array. The boolean is false when the body is a plain object.
func (r *Response) Items() ([]Object, bool) {
	var list []any
	switch v := r.value.(type) {
	case []any:
		list = v
	case map[string]any:
		inner, ok := v[itemsKey].([]any)
		if !ok {
			return nil, false
		}
		list = inner
	default:
		return nil, false
	}

	items := make([]Object, 0, len(list))
	for _, el := range list {
		if m, ok := el.(map[string]any); ok {
			items = append(items, Object(m))
		}
	}
	return items, true
}

// String returns the first non-empty value among the aliases, rendered as a string
func (o Object) String(aliases ...string) string {
	for _, key := range aliases {
		v, ok := o[key]
		if !ok || v == nil {
			continue
		}
		var s string
		switch val := v.(type) {
		case string:
			s = strings.TrimSpace(val)
		case json.Number:
			s = val.String()
		case bool:
			s = fmt.Sprintf("%t", val)
		default:
			continue
		}
		if s != "" {
			return s
		}
	}
	return ""
}

// Decimal returns the first numeric value among the aliases; false when none is present
func (o Object) Decimal(aliases ...string) (*decimal.Decimal, bool) {
	for _, key := range aliases {
		v, ok := o[key]
		if !ok || v == nil {
			continue
		}
		var raw string
		switch val := v.(type) {
		case json.Number:
			raw = val.String()
		case string:
			raw = strings.TrimSpace(val)
		default:
			continue
		}
		d, err := decimal.NewFromString(raw)
		if err != nil {
			continue
		}
		return &d, true
	}
	return nil, false
}

// Time returns the first parseable timestamp among the aliases.
// Timestamps without a zone are read as UTC.
func (o Object) Time(aliases ...string) *time.Time {
	for _, key := range aliases {
		s := o.String(key)
		if s == "" {
			continue
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				utc := t.UTC()
				return &utc
			}
		}
	}
	return nil
}

// Raw re-encodes the object as JSON
func (o Object) Raw() string {
	b, err := json.Marshal(map[string]any(o))
	if err != nil {
		return ""
	}
	return string(b)
}

// toRemoteRecord resolves an identity-bearing response
func toRemoteRecord(o Object, idAliases []string) *wms.RemoteRecord {
	return &wms.RemoteRecord{
		ID:        o.String(idAliases...),
		Status:    o.String("status"),
		Reference: o.String("reference"),
		SKU:       o.String("sku"),
	}
}

// toRemoteOrder resolves one order record
func toRemoteOrder(o Object) wms.RemoteOrder {
	return wms.RemoteOrder{
		ID:          o.String(orderIDAliases...),
		Reference:   o.String("reference"),
		Status:      o.String("status"),
		TrackingURL: o.String(trackingAliases...),
		WebshopID:   o.String(webshopIDAliases...),
		DeliveredAt: o.Time(deliveredAtAliases...),
		Raw:         o.Raw(),
	}
}

// toStockRecord resolves one stock record
func toStockRecord(o Object) wms.StockRecord {
	rec := wms.StockRecord{SKU: o.String("sku")}
	if d, ok := o.Decimal(minStockAliases...); ok {
		rec.MinStockLevel = d
	}
	if d, ok := o.Decimal(stockLevelAliases...); ok {
		rec.StockLevel = d
	}
	return rec
}

// toRemoteSupplier resolves one supplier record
func toRemoteSupplier(o Object) *wms.RemoteSupplier {
	return &wms.RemoteSupplier{
		ID:        o.String(supplierIDAliases...),
		Reference: o.String("reference"),
		Name:      o.String("name"),
	}
}
