package models

// SourceName identifies this feed in every delivery payload
const SourceName = "urbanrise_portal"

// RawRecord is one lead row exactly as the portal returned it.
// Only the normalizer interprets its contents.
type RawRecord map[string]interface{}

// RawRow pairs a raw record with the row id the portal keyed it by
type RawRow struct {
	ID     string
	Record RawRecord
}

// Page is one response of the lead listing endpoint
type Page struct {
	Number      int
	Rows        []RawRow
	NextPageURL string
}

// HasMore reports whether the portal advertised a following page
func (p *Page) HasMore() bool {
	return p != nil && p.NextPageURL != ""
}

// CanonicalRecord is the flat, all-string lead shape delivered downstream.
// Every field is always present; absent or structured upstream values become "".
type CanonicalRecord struct {
	RecentSiteVisitDate string `json:"recent_site_visit_date"`
	Name                string `json:"name"`
	Contact             string `json:"contact"`
	LeadSource          string `json:"lead_source"`
	LeadSubSource       string `json:"lead_sub_source"`
	LeadStage           string `json:"lead_stage"`
	LeadNumber          string `json:"lead_number"`
	Status              string `json:"status"`
	CreatedAt           string `json:"created_at"`
	UpdatedAt           string `json:"updated_at"`
	SiteVisitCount      string `json:"site_visit_count"`
	TotalTime           string `json:"total_time"`
	IsQR                string `json:"is_qr"`
	RawLeadID           string `json:"raw_lead_id"`
}

// Filters are passed through verbatim to the listing endpoint
type Filters struct {
	SearchBy   string
	DateFilter string // empty omits dateFilter from the request body
	Project    string
}

// HarvestMode selects how the harvester filters rows
type HarvestMode string

const (
	// HarvestModeIncremental keeps only rows created after the stored watermark
	HarvestModeIncremental HarvestMode = "incremental"
	// HarvestModeFull keeps every row matching the query filters
	HarvestModeFull HarvestMode = "full"
)

// HarvestResult is the outcome of paging through the listing endpoint
type HarvestResult struct {
	NewRecords   []CanonicalRecord
	MaxCreatedAt string // empty when NewRecords is empty
	PagesFetched int
	RowsScanned  int
}
