package services

import (
	"fmt"
	"testing"

	"barpos_backend/internal/models"
	"barpos_backend/internal/repositories"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testManagerID = int64(7)

// lockConflict wraps a driver-level transaction conflict the way the
// repositories do, so retry detection is exercised through the full wrap
// chain and not against a bare driver error.
func lockConflict(code pq.ErrorCode) error {
	return fmt.Errorf("%w: locking event ID 1: %w", repositories.ErrDatabaseError, &pq.Error{Code: code})
}

func TestChargeOrderDecrementsStockAndAccumulatesSpend(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	beer := f.seedBeverage(t, event.ID, testManagerID, "Pale Ale", 24, 6.50)
	wine := f.seedBeverage(t, event.ID, testManagerID, "Red Wine", 12, 9.00)

	svc := f.orderService()
	result, err := svc.ChargeOrder(testManagerID, ChargeOrderRequest{
		EventID: event.ID,
		Items: []ChargeItemRequest{
			{BeverageID: beer.ID, Quantity: 3},
			{BeverageID: wine.ID, Quantity: 2},
		},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Order)
	assert.False(t, result.Replayed)
	assert.False(t, result.BudgetExceeded)

	// 3*6.50 + 2*9.00
	assert.InDelta(t, 37.50, result.Order.TotalAmount, 0.001)
	require.Len(t, result.Order.Items, 2)
	assert.Equal(t, "Pale Ale", result.Order.Items[0].Name)
	assert.InDelta(t, 6.50, result.Order.Items[0].PricePerUnit, 0.001)

	updatedBeer, _ := f.beverages.GetBeverageByID(beer.ID, testManagerID)
	updatedWine, _ := f.beverages.GetBeverageByID(wine.ID, testManagerID)
	assert.Equal(t, 21, updatedBeer.CurrentStock)
	assert.Equal(t, 24, updatedBeer.InitialStock)
	assert.Equal(t, 10, updatedWine.CurrentStock)

	updatedEvent, _ := f.events.GetEventByID(event.ID, testManagerID)
	assert.InDelta(t, 37.50, updatedEvent.CurrentSpend, 0.001)
}

func TestChargeOrderMergesDuplicateCartLines(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	beer := f.seedBeverage(t, event.ID, testManagerID, "Pale Ale", 5, 6.00)

	_, err := f.orderService().ChargeOrder(testManagerID, ChargeOrderRequest{
		EventID: event.ID,
		Items: []ChargeItemRequest{
			{BeverageID: beer.ID, Quantity: 3},
			{BeverageID: beer.ID, Quantity: 3},
		},
	})
	// 3+3 exceeds the 5 in stock even though each line alone fits.
	require.ErrorIs(t, err, ErrInsufficientStock)
}

func TestChargeOrderInsufficientStockLeavesNoPartialEffects(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	beer := f.seedBeverage(t, event.ID, testManagerID, "Pale Ale", 24, 6.50)
	cider := f.seedBeverage(t, event.ID, testManagerID, "Dry Cider", 1, 7.00)

	_, err := f.orderService().ChargeOrder(testManagerID, ChargeOrderRequest{
		EventID: event.ID,
		Items: []ChargeItemRequest{
			{BeverageID: beer.ID, Quantity: 2},
			{BeverageID: cider.ID, Quantity: 5},
		},
	})
	require.ErrorIs(t, err, ErrInsufficientStock)

	// The whole cart aborted: nothing was decremented, no spend, no order.
	updatedBeer, _ := f.beverages.GetBeverageByID(beer.ID, testManagerID)
	updatedCider, _ := f.beverages.GetBeverageByID(cider.ID, testManagerID)
	assert.Equal(t, 24, updatedBeer.CurrentStock)
	assert.Equal(t, 1, updatedCider.CurrentStock)

	updatedEvent, _ := f.events.GetEventByID(event.ID, testManagerID)
	assert.Zero(t, updatedEvent.CurrentSpend)
	_, total, _ := f.orders.GetOrders(testManagerID, models.OrderFilters{})
	assert.Zero(t, total)
}

func TestChargeOrderEmptyCart(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)

	_, err := f.orderService().ChargeOrder(testManagerID, ChargeOrderRequest{EventID: event.ID})
	assert.ErrorIs(t, err, ErrEmptyCart)
}

func TestChargeOrderRejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	beer := f.seedBeverage(t, event.ID, testManagerID, "Pale Ale", 24, 6.50)

	_, err := f.orderService().ChargeOrder(testManagerID, ChargeOrderRequest{
		EventID: event.ID,
		Items:   []ChargeItemRequest{{BeverageID: beer.ID, Quantity: 0}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestChargeOrderUnknownBeverage(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)

	_, err := f.orderService().ChargeOrder(testManagerID, ChargeOrderRequest{
		EventID: event.ID,
		Items:   []ChargeItemRequest{{BeverageID: 999, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrBeverageNotFound)
}

func TestChargeOrderUnknownEvent(t *testing.T) {
	f := newFixture(t)

	_, err := f.orderService().ChargeOrder(testManagerID, ChargeOrderRequest{
		EventID: 42,
		Items:   []ChargeItemRequest{{BeverageID: 1, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestChargeOrderBeverageFromAnotherEvent(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	other := f.seedEvent(t, testManagerID, 500)
	stray := f.seedBeverage(t, other.ID, testManagerID, "Stray Beer", 10, 5.00)

	_, err := f.orderService().ChargeOrder(testManagerID, ChargeOrderRequest{
		EventID: event.ID,
		Items:   []ChargeItemRequest{{BeverageID: stray.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestChargeOrderOverBudgetSucceedsWithFlag(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 10)
	beer := f.seedBeverage(t, event.ID, testManagerID, "Pale Ale", 24, 6.50)

	result, err := f.orderService().ChargeOrder(testManagerID, ChargeOrderRequest{
		EventID: event.ID,
		Items:   []ChargeItemRequest{{BeverageID: beer.ID, Quantity: 3}},
	})
	// Budget is advisory: the charge goes through and the overrun is flagged.
	require.NoError(t, err)
	assert.True(t, result.BudgetExceeded)

	updatedEvent, _ := f.events.GetEventByID(event.ID, testManagerID)
	assert.InDelta(t, 19.50, updatedEvent.CurrentSpend, 0.001)
}

func TestChargeOrderIdempotentReplay(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	beer := f.seedBeverage(t, event.ID, testManagerID, "Pale Ale", 24, 6.50)
	key := "req-abc-123"

	svc := f.orderService()
	req := ChargeOrderRequest{
		EventID:         event.ID,
		ClientRequestID: &key,
		Items:           []ChargeItemRequest{{BeverageID: beer.ID, Quantity: 2}},
	}

	first, err := svc.ChargeOrder(testManagerID, req)
	require.NoError(t, err)
	assert.False(t, first.Replayed)

	second, err := svc.ChargeOrder(testManagerID, req)
	require.NoError(t, err)
	assert.True(t, second.Replayed)
	assert.Equal(t, first.Order.ID, second.Order.ID)

	// The replay charged nothing.
	updatedBeer, _ := f.beverages.GetBeverageByID(beer.ID, testManagerID)
	assert.Equal(t, 22, updatedBeer.CurrentStock)
	updatedEvent, _ := f.events.GetEventByID(event.ID, testManagerID)
	assert.InDelta(t, 13.00, updatedEvent.CurrentSpend, 0.001)
}

func TestChargeOrderRetriesSerializationFailure(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	beer := f.seedBeverage(t, event.ID, testManagerID, "Pale Ale", 24, 6.50)

	// First attempt hits a serialization failure raised at statement time
	// and surfaced through the repository's error wrapping, second succeeds.
	f.events.lockErrs = []error{lockConflict("40001")}

	result, err := f.orderService().ChargeOrder(testManagerID, ChargeOrderRequest{
		EventID: event.ID,
		Items:   []ChargeItemRequest{{BeverageID: beer.ID, Quantity: 1}},
	})
	require.NoError(t, err)
	require.NotNil(t, result.Order)

	updatedBeer, _ := f.beverages.GetBeverageByID(beer.ID, testManagerID)
	assert.Equal(t, 23, updatedBeer.CurrentStock)
}

func TestChargeOrderGivesUpAfterRepeatedConflicts(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	beer := f.seedBeverage(t, event.ID, testManagerID, "Pale Ale", 24, 6.50)

	f.events.lockErrs = []error{
		lockConflict("40001"),
		lockConflict("40P01"),
		lockConflict("40001"),
	}

	_, err := f.orderService().ChargeOrder(testManagerID, ChargeOrderRequest{
		EventID: event.ID,
		Items:   []ChargeItemRequest{{BeverageID: beer.ID, Quantity: 1}},
	})
	require.ErrorIs(t, err, ErrChargeContention)

	updatedBeer, _ := f.beverages.GetBeverageByID(beer.ID, testManagerID)
	assert.Equal(t, 24, updatedBeer.CurrentStock)
}

func TestChargeOrderScopedToManager(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	beer := f.seedBeverage(t, event.ID, testManagerID, "Pale Ale", 24, 6.50)

	otherManager := int64(99)
	_, err := f.orderService().ChargeOrder(otherManager, ChargeOrderRequest{
		EventID: event.ID,
		Items:   []ChargeItemRequest{{BeverageID: beer.ID, Quantity: 1}},
	})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestGetOrdersNormalizesPagination(t *testing.T) {
	f := newFixture(t)

	_, _, err := f.orderService().GetOrders(testManagerID, models.OrderFilters{})
	require.NoError(t, err)
	assert.Equal(t, 1, f.orders.lastFilters.Page)
	assert.Equal(t, 20, f.orders.lastFilters.PageSize)
}

func TestGetOrderByIDNotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.orderService().GetOrderByID(testManagerID, 123)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
