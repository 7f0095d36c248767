package domain

// Campaign types that expose their SKU lists in different payload shapes.
const (
	CampaignTypeAuto    = 8
	CampaignTypeAuction = 9
)

// Campaign is advertising-campaign metadata from the campaign list call.
// The list carries no names; display names come from the finance ledger's
// CampName field instead.
type Campaign struct {
	AdvertID int64
	Type     int
	Status   int
}

// FinanceRecord is one entry of the ad-spend financial ledger. Records are
// NOT unique by any row id: the same DocNumber can appear on adjacent days,
// which is exactly what the buffer-day reconciliation keys on.
type FinanceRecord struct {
	AdvertID      int64
	Date          string // YYYY-MM-DD
	Sum           float64
	BillSource    int // 1 when paid from the account ("Счет"), 0 otherwise
	OperationType string
	DocNumber     string
	CampName      string
}

// FinanceRow is one line of the merged ad-finance report: ledger entry
// joined with campaign metadata and SKU attribution.
type FinanceRow struct {
	Date          string
	CampaignID    int64
	CampaignName  string
	CampaignType  string
	Skus          string
	OperationType string
	Sum           float64
	BillSource    int
}

// AdvertBalance is the advertising account balance; fetched best-effort and
// nil when the upstream call fails.
type AdvertBalance struct {
	Balance float64 `json:"balance"`
	Net     float64 `json:"net"`
	Bonus   float64 `json:"bonus"`
}
