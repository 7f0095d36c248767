// Package domain holds the data model for the report pipelines: report
// requests, upstream ledger rows, catalog rows and the error taxonomy.
package domain

import "time"

// ReportKind identifies one of the downloadable report types.
type ReportKind string

const (
	ReportSalesDetail    ReportKind = "details"
	ReportPaidStorage    ReportKind = "storage"
	ReportPaidAcceptance ReportKind = "acceptance"
	ReportProductCatalog ReportKind = "products"
	ReportAdFinance      ReportKind = "finances"
)

// DisplayName returns the human-readable report title used for exported
// file names and sheet titles.
func (k ReportKind) DisplayName() string {
	switch k {
	case ReportSalesDetail:
		return "Отчет детализации"
	case ReportPaidStorage:
		return "Платное хранение"
	case ReportPaidAcceptance:
		return "Платная приемка"
	case ReportProductCatalog:
		return "Список товаров"
	case ReportAdFinance:
		return "Финансы РК"
	}
	return string(k)
}

// Valid reports whether k is a known report kind.
func (k ReportKind) Valid() bool {
	switch k {
	case ReportSalesDetail, ReportPaidStorage, ReportPaidAcceptance,
		ReportProductCatalog, ReportAdFinance:
		return true
	}
	return false
}

// Upstream hard limits on the requested window length.
const (
	MaxSalesDetailDays = 31
	MaxPaidStorageDays = 8
)

// ReportRequest describes one report download: what to fetch, with which
// credential, over which date range. Dates are calendar days (time parts
// are ignored by the pipelines).
type ReportRequest struct {
	Kind     ReportKind
	TokenID  string
	DateFrom time.Time
	DateTo   time.Time
}

// Days returns the inclusive length of the requested window in days.
func (r ReportRequest) Days() int {
	return int(r.DateTo.Sub(r.DateFrom).Hours()/24) + 1
}

// Validate checks the structural invariants of the request. Kind-specific
// window limits are enforced by the pipelines (storage clamps, sales detail
// rejects), not here.
func (r ReportRequest) Validate() error {
	if !r.Kind.Valid() {
		return &ErrValidation{Field: "reportType", Message: "unknown report type"}
	}
	if r.TokenID == "" {
		return &ErrValidation{Field: "tokenId", Message: "required"}
	}
	if r.DateFrom.IsZero() || r.DateTo.IsZero() {
		return &ErrValidation{Field: "startDate", Message: "start and end dates are required"}
	}
	if r.DateTo.Before(r.DateFrom) {
		return &ErrValidation{Field: "endDate", Message: "end date must not precede start date"}
	}
	return nil
}

// ReportFile is a rendered spreadsheet ready to be sent to the caller.
type ReportFile struct {
	Name    string
	Content []byte
}

// Credential is a stored upstream API token with a user-facing name.
type Credential struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	APIKey    string    `json:"apiKey,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// ReportMetrics is the snapshot served by GET /v1/metrics/reports.
type ReportMetrics struct {
	TotalReports   int64   `json:"total_reports"`
	ErrorRate      float64 `json:"error_rate"`
	UpstreamErrors int64   `json:"upstream_errors"`
	PagesFetched   int64   `json:"pages_fetched"`
	RetriesTotal   int64   `json:"retries_total"`
	CacheHitRate   float64 `json:"cache_hit_rate"`
	Period         string  `json:"period"`
}
