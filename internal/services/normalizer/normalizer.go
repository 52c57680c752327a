// Package normalizer maps raw portal rows onto the flat canonical lead shape.
package normalizer

import (
	"reflect"
	"strings"

	"github.com/spf13/cast"
	"github.com/ternarybob/leadrelay/internal/models"
)

// Normalize maps a raw portal record onto the canonical record. It never fails:
// missing keys, nulls and structured values all become "".
func Normalize(raw models.RawRecord) models.CanonicalRecord {
	return models.CanonicalRecord{
		RecentSiteVisitDate: field(raw, "recent_date"),
		Name:                field(raw, "first_name"),
		Contact:             field(raw, "contact"),
		LeadSource:          field(raw, "lead_source"),
		LeadSubSource:       field(raw, "lead_sub_source"),
		LeadStage:           field(raw, "lead_stage"),
		LeadNumber:          field(raw, "lead_number"),
		Status:              field(raw, "status"),
		CreatedAt:           field(raw, "created_at"),
		UpdatedAt:           field(raw, "updated_at"),
		SiteVisitCount:      field(raw, "site_visit_count"),
		TotalTime:           field(raw, "total_time"),
		IsQR:                field(raw, "is_qr"),
		RawLeadID:           field(raw, "lead_id"),
	}
}

func field(raw models.RawRecord, key string) string {
	if raw == nil {
		return ""
	}
	return NormalizeValue(raw[key])
}

// NormalizeValue renders a scalar as trimmed text. nil, maps, slices and
// structs yield "".
func NormalizeValue(v interface{}) string {
	if v == nil {
		return ""
	}

	switch reflect.Indirect(reflect.ValueOf(v)).Kind() {
	case reflect.Map, reflect.Slice, reflect.Array, reflect.Struct, reflect.Invalid:
		return ""
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
