package service

import (
	"context"
	"fmt"
	"sort"

	"go.uber.org/zap"

	"github.com/sellerstats/wb-reports/internal/domain"
	"github.com/sellerstats/wb-reports/internal/port"
)

// ============================================================
// Per-kind pipelines and their sheet builders
// ============================================================

func (s *ReportService) salesDetailSheets(ctx context.Context, apiKey string, req domain.ReportRequest) ([]port.Sheet, error) {
	records, err := s.ledger.FetchSalesDetail(ctx, apiKey, req.DateFrom, req.DateTo)
	if err != nil {
		return nil, err
	}
	return []port.Sheet{buildSalesDetailSheet(records)}, nil
}

func (s *ReportService) paidStorageSheets(ctx context.Context, apiKey string, req domain.ReportRequest) ([]port.Sheet, error) {
	from, to := clampStorageWindow(req.DateFrom, req.DateTo, s.logger)
	records, err := s.tasks.FetchPaidStorage(ctx, apiKey, from, to)
	if err != nil {
		return nil, err
	}
	return []port.Sheet{buildStorageSheet(records)}, nil
}

func (s *ReportService) acceptanceSheets(ctx context.Context, apiKey string, req domain.ReportRequest) ([]port.Sheet, error) {
	records, err := s.tasks.FetchPaidAcceptance(ctx, apiKey, req.DateFrom, req.DateTo)
	if err != nil {
		return nil, err
	}
	return []port.Sheet{buildAcceptanceSheet(records)}, nil
}

func (s *ReportService) productSheets(ctx context.Context, apiKey string, req domain.ReportRequest) ([]port.Sheet, error) {
	// subject enrichment from the storage ledger is best-effort: a product
	// list without subjects beats no product list
	var storage []domain.StorageRecord
	from, to := clampStorageWindow(req.DateFrom, req.DateTo, s.logger)
	storage, err := s.tasks.FetchPaidStorage(ctx, apiKey, from, to)
	if err != nil {
		s.logger.Warn("products: storage enrichment unavailable", zap.Error(err))
		storage = nil
	}

	rows, err := s.catalog.BuildRows(ctx, apiKey, req.TokenID, storage, nil)
	if err != nil {
		return nil, err
	}
	return []port.Sheet{buildProductSheet(rows)}, nil
}

func (s *ReportService) financeSheets(ctx context.Context, apiKey string, req domain.ReportRequest) ([]port.Sheet, error) {
	report, err := s.finance.Aggregate(ctx, apiKey, req.TokenID, req.DateFrom, req.DateTo)
	if err != nil {
		return nil, err
	}

	sheets := []port.Sheet{buildFinanceSheet(report.Rows)}
	if report.Balance != nil {
		sheets = append(sheets, port.Sheet{
			Name:    "Баланс",
			Headers: []string{"Показатель", "Значение"},
			Rows: [][]any{
				{"Баланс", report.Balance.Balance},
				{"Счет", report.Balance.Net},
				{"Бонусы", report.Balance.Bonus},
			},
		})
	}
	return sheets, nil
}

// buildSalesDetailSheet renders ledger records grouped by realization
// report id: a highlighted group header, the group's rows, and a blank
// separator before the next group.
func buildSalesDetailSheet(records []domain.LedgerRecord) port.Sheet {
	sheet := port.Sheet{
		Name: "Отчет детализации",
		Headers: []string{
			"Номер отчёта", "Дата начала периода", "Дата конца периода",
			"Дата формирования", "Валюта", "ID записи", "Номер поставки",
			"Предмет", "Артикул WB", "Бренд", "Артикул продавца", "Размер",
			"Баркод", "Тип документа", "Количество", "Розничная цена",
			"Сумма продаж", "Согласованная скидка (%)", "Процент комиссии",
			"Склад", "Обоснование для оплаты", "Дата заказа", "Дата продажи",
			"Дата отчета", "ШК", "Цена со скидкой", "Количество доставок",
			"Количество возвратов", "Стоимость логистики", "К перечислению",
			"Комиссия за продажи", "Вознаграждение", "Эквайринг", "Штраф",
			"Доплата", "Стоимость хранения", "Удержания", "Приемка",
			"SRID", "Тип бонуса", "Страна сайта",
		},
	}

	groups := make(map[int64][]domain.LedgerRecord)
	for _, r := range records {
		groups[r.ReportID] = append(groups[r.ReportID], r)
	}
	ids := make([]int64, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for gi, id := range ids {
		group := groups[id]
		if gi > 0 {
			sheet.Rows = append(sheet.Rows, []any{})
		}
		label := fmt.Sprintf("%d", id)
		if id == 0 {
			label = "Без ID"
		}
		sheet.Rows = append(sheet.Rows, []any{
			fmt.Sprintf("=== ОТЧЕТ РЕАЛИЗАЦИИ ID: %s ===", label),
			group[0].DateFrom,
			group[0].DateTo,
			group[0].CreateDate,
			group[0].CurrencyName,
			fmt.Sprintf("Количество записей: %d", len(group)),
		})

		for _, r := range group {
			sheet.Rows = append(sheet.Rows, []any{
				r.ReportID, r.DateFrom, r.DateTo, r.CreateDate, r.CurrencyName,
				r.RrdID, r.GiID, r.SubjectName, r.NmID, r.BrandName,
				r.VendorCode, r.TechSize, r.Barcode, r.DocTypeName, r.Quantity,
				r.RetailPrice, r.RetailAmount, r.SalePercent, r.CommissionPercent,
				r.OfficeName, r.OperationName, r.OrderDate, r.SaleDate,
				r.ReportDate, r.ShkID, r.RetailPriceDisc, r.DeliveryAmount,
				r.ReturnAmount, r.DeliveryRub, r.ForPay, r.SalesCommission,
				r.Reward, r.AcquiringFee, r.Penalty, r.AdditionalPayment,
				r.StorageFee, r.Deduction, r.Acceptance, r.Srid,
				r.BonusTypeName, r.SiteCountry,
			})
		}
	}
	return sheet
}

func buildStorageSheet(records []domain.StorageRecord) port.Sheet {
	sheet := port.Sheet{
		Name: "Платное хранение",
		Headers: []string{
			"Дата", "Склад", "Артикул WB", "Размер", "Баркод", "Предмет",
			"Бренд", "Артикул продавца", "Объем", "Тип расчета",
			"Стоимость хранения", "Количество баркодов", "Коэффициент склада",
			"Скидка лояльности",
		},
	}
	for _, r := range records {
		sheet.Rows = append(sheet.Rows, []any{
			r.Date, r.Warehouse, r.NmID, r.Size, r.Barcode, r.Subject,
			r.Brand, r.VendorCode, r.Volume, r.CalcType,
			r.WarehousePrice, r.BarcodesCount, r.WarehouseCoef,
			r.LoyaltyDiscount,
		})
	}
	return sheet
}

func buildAcceptanceSheet(records []domain.AcceptanceRecord) port.Sheet {
	sheet := port.Sheet{
		Name: "Платная приемка",
		Headers: []string{
			"Дата создания поставки", "Дата создания ШК", "Номер поставки",
			"Артикул WB", "Предмет", "Количество", "Стоимость приёмки",
		},
	}
	for _, r := range records {
		sheet.Rows = append(sheet.Rows, []any{
			r.GiCreateDate, r.ShkCreateDate, r.IncomeID,
			r.NmID, r.Subject, r.Count, r.Total,
		})
	}
	return sheet
}

func buildProductSheet(rows []domain.CatalogRow) port.Sheet {
	sheet := port.Sheet{
		Name: "Список товаров",
		Headers: []string{
			"Артикул WB", "Артикул продавца", "Предмет", "Бренд", "Размер",
			"Баркод", "Цена", "Себестоимость", "Маржа", "Рентабельность (%)",
			"Источник", "Создан", "Обновлен",
		},
	}
	for _, r := range rows {
		sheet.Rows = append(sheet.Rows, []any{
			r.NmID, r.VendorCode, r.Subject, r.Brand, r.Size,
			r.Barcode, r.Price, r.CostPrice, r.Margin, r.Profitability,
			r.Source, r.CreatedAt, r.UpdatedAt,
		})
	}
	return sheet
}

func buildFinanceSheet(rows []domain.FinanceRow) port.Sheet {
	sheet := port.Sheet{
		Name: "Финансы РК",
		Headers: []string{
			"Дата", "ID кампании", "Название кампании", "Тип кампании",
			"Артикулы", "Тип операции", "Сумма", "Источник списания",
		},
	}
	for _, r := range rows {
		bill := "Баланс"
		if r.BillSource == 1 {
			bill = "Счет"
		}
		sheet.Rows = append(sheet.Rows, []any{
			r.Date, r.CampaignID, r.CampaignName, r.CampaignType,
			r.Skus, r.OperationType, r.Sum, bill,
		})
	}
	return sheet
}
