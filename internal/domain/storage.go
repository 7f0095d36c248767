package domain

// StorageRecord is one row of the paid-storage report downloaded from the
// seller-analytics API after the async task completes.
type StorageRecord struct {
	Date            string  `json:"date"`
	Warehouse       string  `json:"warehouse"`
	NmID            int64   `json:"nmId"`
	Size            string  `json:"size"`
	Barcode         string  `json:"barcode"`
	Subject         string  `json:"subject"`
	Brand           string  `json:"brand"`
	VendorCode      string  `json:"vendorCode"`
	Volume          float64 `json:"volume"`
	CalcType        string  `json:"calcType"`
	WarehousePrice  float64 `json:"warehousePrice"`
	BarcodesCount   int     `json:"barcodesCount"`
	WarehouseCoef   float64 `json:"warehouseCoef"`
	LoyaltyDiscount float64 `json:"loyaltyDiscount"`
}

// AcceptanceRecord is one row of the paid-acceptance report.
type AcceptanceRecord struct {
	Count         int     `json:"count"`
	GiCreateDate  string  `json:"giCreateDate"`
	IncomeID      int64   `json:"incomeId"`
	NmID          int64   `json:"nmID"`
	ShkCreateDate string  `json:"shkCreateDate"`
	Subject       string  `json:"subjectName"`
	Total         float64 `json:"total"`
}
