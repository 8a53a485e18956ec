package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReportServiceForTest(f *fixture) ReportService {
	return NewReportService(f.beverages, f.events, f.orders, f.db)
}

func TestRecordAuditStoresCountBesideSystemStock(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	beer := f.seedBeverage(t, event.ID, testManagerID, "Pale Ale", 24, 6.50)
	svc := newReportServiceForTest(f)

	audited, err := svc.RecordAudit(testManagerID, beer.ID, 20)
	require.NoError(t, err)
	require.NotNil(t, audited.AuditedStock)
	assert.Equal(t, 20, *audited.AuditedStock)
	assert.NotNil(t, audited.LastAuditedAt)
	// The system stock is untouched; the count sits beside it.
	assert.Equal(t, 24, audited.CurrentStock)
}

func TestRecordAuditClampsNegativeCounts(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	beer := f.seedBeverage(t, event.ID, testManagerID, "Pale Ale", 24, 6.50)
	svc := newReportServiceForTest(f)

	audited, err := svc.RecordAudit(testManagerID, beer.ID, -5)
	require.NoError(t, err)
	require.NotNil(t, audited.AuditedStock)
	assert.Equal(t, 0, *audited.AuditedStock)
}

func TestRecordAuditBatchSkipsBadEntries(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	beer := f.seedBeverage(t, event.ID, testManagerID, "Pale Ale", 24, 6.50)
	wine := f.seedBeverage(t, event.ID, testManagerID, "Red Wine", 12, 9.00)
	svc := newReportServiceForTest(f)

	result, err := svc.RecordAuditBatch(testManagerID, []AuditEntryRequest{
		{BeverageID: beer.ID, CountedStock: 22},
		{BeverageID: 999, CountedStock: 5},
		{BeverageID: wine.ID, CountedStock: 11},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Updated)
	require.Len(t, result.Skipped, 1)
	assert.Equal(t, int64(999), result.Skipped[0].BeverageID)
	assert.Equal(t, "beverage not found", result.Skipped[0].Reason)
}

func TestRecordAuditBatchRejectsEmptyBatch(t *testing.T) {
	f := newFixture(t)
	svc := newReportServiceForTest(f)

	_, err := svc.RecordAuditBatch(testManagerID, nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestEventSalesReportDerivesFromOrdersAndStock(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	beer := f.seedBeverage(t, event.ID, testManagerID, "Pale Ale", 24, 6.50)
	wine := f.seedBeverage(t, event.ID, testManagerID, "Red Wine", 12, 9.00)

	// Two charges through the real order path.
	orderSvc := f.orderService()
	_, err := orderSvc.ChargeOrder(testManagerID, ChargeOrderRequest{
		EventID: event.ID,
		Items: []ChargeItemRequest{
			{BeverageID: beer.ID, Quantity: 3},
			{BeverageID: wine.ID, Quantity: 1},
		},
	})
	require.NoError(t, err)
	_, err = orderSvc.ChargeOrder(testManagerID, ChargeOrderRequest{
		EventID: event.ID,
		Items:   []ChargeItemRequest{{BeverageID: beer.ID, Quantity: 2}},
	})
	require.NoError(t, err)

	reportSvc := newReportServiceForTest(f)
	_, err = reportSvc.RecordAudit(testManagerID, beer.ID, 18)
	require.NoError(t, err)

	report, err := reportSvc.GetEventSalesReport(testManagerID, event.ID)
	require.NoError(t, err)
	assert.Equal(t, event.ID, report.EventID)
	assert.InDelta(t, 41.50, report.CurrentSpend, 0.001) // 5*6.50 + 1*9.00
	assert.Equal(t, 6, report.TotalSold)
	assert.InDelta(t, 41.50, report.TotalRevenue, 0.001)

	lines := make(map[int64]BeverageReportLine, len(report.Beverages))
	for _, line := range report.Beverages {
		lines[line.BeverageID] = line
	}

	beerLine := lines[beer.ID]
	assert.Equal(t, 5, beerLine.SoldQuantity)
	assert.InDelta(t, 32.50, beerLine.Revenue, 0.001)
	require.NotNil(t, beerLine.AuditedStock)
	assert.Equal(t, 18, *beerLine.AuditedStock)
	require.NotNil(t, beerLine.Variance)
	// Counted 18 against a system stock of 19: one unit short.
	assert.Equal(t, -1, *beerLine.Variance)

	wineLine := lines[wine.ID]
	assert.Equal(t, 1, wineLine.SoldQuantity)
	assert.InDelta(t, 9.00, wineLine.Revenue, 0.001)
	assert.Nil(t, wineLine.AuditedStock)
	assert.Nil(t, wineLine.Variance)
}

func TestEventSalesReportUnknownEvent(t *testing.T) {
	f := newFixture(t)
	svc := newReportServiceForTest(f)

	_, err := svc.GetEventSalesReport(testManagerID, 42)
	assert.ErrorIs(t, err, ErrEventNotFound)
}
