package services

import (
	"testing"

	"barpos_backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBeverageServiceForTest(f *fixture) BeverageService {
	return NewBeverageService(f.beverages, f.events, f.db)
}

func TestCreateBeverageSetsCurrentStockFromInitial(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	svc := newBeverageServiceForTest(f)

	beverage, err := svc.CreateBeverage(testManagerID, CreateBeverageRequest{
		EventID:      event.ID,
		Name:         "House Lager",
		Category:     "Beers",
		Type:         string(models.BeverageTypeAlcoholic),
		InitialStock: 48,
		Price:        5.50,
	})
	require.NoError(t, err)
	assert.Equal(t, 48, beverage.CurrentStock)
	assert.Equal(t, 48, beverage.InitialStock)
}

func TestCreateBeverageRejectsCategoryTypeMismatch(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	svc := newBeverageServiceForTest(f)

	// "Juice" is a non-alcoholic category.
	_, err := svc.CreateBeverage(testManagerID, CreateBeverageRequest{
		EventID:  event.ID,
		Name:     "Orange Juice",
		Category: "Juice",
		Type:     string(models.BeverageTypeAlcoholic),
		Price:    3.00,
	})
	assert.ErrorIs(t, err, ErrInvalidCategory)
}

func TestCreateBeverageRequiresExistingEvent(t *testing.T) {
	f := newFixture(t)
	svc := newBeverageServiceForTest(f)

	_, err := svc.CreateBeverage(testManagerID, CreateBeverageRequest{
		EventID:  42,
		Name:     "House Lager",
		Category: "Beers",
		Type:     string(models.BeverageTypeAlcoholic),
		Price:    5.50,
	})
	assert.ErrorIs(t, err, ErrEventNotFound)
}

func TestCreateBeveragesBatchReportsPerLineErrors(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	svc := newBeverageServiceForTest(f)

	result, err := svc.CreateBeveragesBatch(testManagerID, []CreateBeverageRequest{
		{EventID: event.ID, Name: "House Lager", Category: "Beers", Type: string(models.BeverageTypeAlcoholic), InitialStock: 10, Price: 5.50},
		{EventID: event.ID, Name: "", Category: "Beers", Type: string(models.BeverageTypeAlcoholic), Price: 4.00},
		{EventID: event.ID, Name: "Cola", Category: "Fizzy", Type: string(models.BeverageTypeNonAlcoholic), InitialStock: 20, Price: 2.50},
	})
	require.NoError(t, err)
	// The bad middle line is reported, the valid lines are still created.
	assert.Len(t, result.Created, 2)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 1, result.Errors[0].Index)
}

func TestRestockAddsToBothStockCounters(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	beverage := f.seedBeverage(t, event.ID, testManagerID, "Pale Ale", 24, 6.50)
	require.NoError(t, f.beverages.DecrementStock(nil, beverage.ID, 10))
	svc := newBeverageServiceForTest(f)

	updated, err := svc.RestockBeverage(testManagerID, beverage.ID, 12)
	require.NoError(t, err)
	assert.Equal(t, 36, updated.InitialStock)
	assert.Equal(t, 26, updated.CurrentStock)
}

func TestRestockRejectsNonPositiveQuantity(t *testing.T) {
	f := newFixture(t)
	event := f.seedEvent(t, testManagerID, 500)
	beverage := f.seedBeverage(t, event.ID, testManagerID, "Pale Ale", 24, 6.50)
	svc := newBeverageServiceForTest(f)

	_, err := svc.RestockBeverage(testManagerID, beverage.ID, 0)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
	_, err = svc.RestockBeverage(testManagerID, beverage.ID, -3)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestDeleteBeverageNotFound(t *testing.T) {
	f := newFixture(t)
	svc := newBeverageServiceForTest(f)

	err := svc.DeleteBeverage(testManagerID, 77)
	assert.ErrorIs(t, err, ErrBeverageNotFound)
}
