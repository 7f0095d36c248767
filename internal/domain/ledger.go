package domain

// LedgerRecord is one row of the sales-detail (realization) ledger as
// returned by the statistics API. RrdID is globally unique within a fetch
// session and drives both pagination and deduplication.
type LedgerRecord struct {
	ReportID          int64   `json:"realizationreport_id"`
	DateFrom          string  `json:"date_from"`
	DateTo            string  `json:"date_to"`
	CreateDate        string  `json:"create_dt"`
	CurrencyName      string  `json:"currency_name"`
	RrdID             int64   `json:"rrd_id"`
	GiID              int64   `json:"gi_id"`
	SubjectName       string  `json:"subject_name"`
	NmID              int64   `json:"nm_id"`
	BrandName         string  `json:"brand_name"`
	VendorCode        string  `json:"sa_name"`
	TechSize          string  `json:"ts_name"`
	Barcode           string  `json:"barcode"`
	DocTypeName       string  `json:"doc_type_name"`
	Quantity          int     `json:"quantity"`
	RetailPrice       float64 `json:"retail_price"`
	RetailAmount      float64 `json:"retail_amount"`
	SalePercent       float64 `json:"sale_percent"`
	CommissionPercent float64 `json:"commission_percent"`
	OfficeName        string  `json:"office_name"`
	OperationName     string  `json:"supplier_oper_name"`
	OrderDate         string  `json:"order_dt"`
	SaleDate          string  `json:"sale_dt"`
	ReportDate        string  `json:"rr_dt"`
	ShkID             int64   `json:"shk_id"`
	RetailPriceDisc   float64 `json:"retail_price_withdisc_rub"`
	DeliveryAmount    float64 `json:"delivery_amount"`
	ReturnAmount      float64 `json:"return_amount"`
	DeliveryRub       float64 `json:"delivery_rub"`
	ForPay            float64 `json:"ppvz_for_pay"`
	SalesCommission   float64 `json:"ppvz_sales_commission"`
	Reward            float64 `json:"ppvz_reward"`
	AcquiringFee      float64 `json:"acquiring_fee"`
	Penalty           float64 `json:"penalty"`
	AdditionalPayment float64 `json:"additional_payment"`
	StorageFee        float64 `json:"storage_fee"`
	Deduction         float64 `json:"deduction"`
	Acceptance        float64 `json:"acceptance"`
	Srid              string  `json:"srid"`
	BonusTypeName     string  `json:"bonus_type_name"`
	SiteCountry       string  `json:"site_country"`
}
