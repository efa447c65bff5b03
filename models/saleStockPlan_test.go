package models

import (
	"testing"
)

func assertChanges(t *testing.T, got []StockChange, want []StockChange) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %d changes, got %d (%v)", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("change %d: expected %+v, got %+v", i, want[i], got[i])
		}
	}
}

func TestPlanSaleStockChangesCreateTakesEveryLine(t *testing.T) {
	changes := PlanSaleStockChanges(nil, []NewSaleDetail{
		{ProductId: 7, Quantity: 3},
		{ProductId: 2, Quantity: 5},
	})
	assertChanges(t, changes, []StockChange{
		{ProductId: 2, Delta: -5},
		{ProductId: 7, Delta: -3},
	})
}

func TestPlanSaleStockChangesDeleteReturnsEveryLine(t *testing.T) {
	changes := PlanSaleStockChanges([]SaleDetail{
		{ID: 1, ProductId: 7, Quantity: 3},
		{ID: 2, ProductId: 2, Quantity: 5},
	}, nil)
	assertChanges(t, changes, []StockChange{
		{ProductId: 2, Delta: 5},
		{ProductId: 7, Delta: 3},
	})
}

// Growing a line from 5 to 8 must only take the 3 extra units, not re-take 8.
func TestPlanSaleStockChangesGrowingALineTakesOnlyTheDifference(t *testing.T) {
	changes := PlanSaleStockChanges(
		[]SaleDetail{{ID: 11, ProductId: 4, Quantity: 5}},
		[]NewSaleDetail{{DetailId: 11, ProductId: 4, Quantity: 8}},
	)
	assertChanges(t, changes, []StockChange{{ProductId: 4, Delta: -3}})
}

func TestPlanSaleStockChangesShrinkingALineGivesTheDifferenceBack(t *testing.T) {
	changes := PlanSaleStockChanges(
		[]SaleDetail{{ID: 11, ProductId: 4, Quantity: 5}},
		[]NewSaleDetail{{DetailId: 11, ProductId: 4, Quantity: 2}},
	)
	assertChanges(t, changes, []StockChange{{ProductId: 4, Delta: 3}})
}

func TestPlanSaleStockChangesRemovedLineComesBack(t *testing.T) {
	changes := PlanSaleStockChanges(
		[]SaleDetail{
			{ID: 11, ProductId: 4, Quantity: 5},
			{ID: 12, ProductId: 9, Quantity: 2},
		},
		[]NewSaleDetail{{DetailId: 11, ProductId: 4, Quantity: 5}},
	)
	assertChanges(t, changes, []StockChange{{ProductId: 9, Delta: 2}})
}

func TestPlanSaleStockChangesProductSwapReturnsOldTakesNew(t *testing.T) {
	changes := PlanSaleStockChanges(
		[]SaleDetail{{ID: 11, ProductId: 4, Quantity: 5}},
		[]NewSaleDetail{{DetailId: 11, ProductId: 9, Quantity: 5}},
	)
	assertChanges(t, changes, []StockChange{
		{ProductId: 4, Delta: 5},
		{ProductId: 9, Delta: -5},
	})
}

// A stale detail id nobody stored is treated as a new line.
func TestPlanSaleStockChangesUnknownDetailIdIsANewLine(t *testing.T) {
	changes := PlanSaleStockChanges(
		[]SaleDetail{{ID: 11, ProductId: 4, Quantity: 5}},
		[]NewSaleDetail{
			{DetailId: 11, ProductId: 4, Quantity: 5},
			{DetailId: 999, ProductId: 9, Quantity: 1},
		},
	)
	assertChanges(t, changes, []StockChange{{ProductId: 9, Delta: -1}})
}

// Two lines of the same product that offset each other net to nothing.
func TestPlanSaleStockChangesZeroNetsAreDropped(t *testing.T) {
	changes := PlanSaleStockChanges(
		[]SaleDetail{
			{ID: 11, ProductId: 4, Quantity: 5},
			{ID: 12, ProductId: 4, Quantity: 2},
		},
		[]NewSaleDetail{
			{DetailId: 11, ProductId: 4, Quantity: 2},
			{DetailId: 12, ProductId: 4, Quantity: 5},
		},
	)
	assertChanges(t, changes, nil)
}

// Changes come out ordered by product id so concurrent writers lock product
// rows in the same order.
func TestPlanSaleStockChangesOrderedByProductId(t *testing.T) {
	changes := PlanSaleStockChanges(nil, []NewSaleDetail{
		{ProductId: 30, Quantity: 1},
		{ProductId: 5, Quantity: 1},
		{ProductId: 17, Quantity: 1},
		{ProductId: 1, Quantity: 1},
	})
	for i := 1; i < len(changes); i++ {
		if changes[i-1].ProductId >= changes[i].ProductId {
			t.Fatalf("changes not ordered by product id: %v", changes)
		}
	}
}

func TestPlanSaleStockChangesMixedEdit(t *testing.T) {
	// keep line 1 as is, grow line 2, drop line 3, add a line for a new product
	changes := PlanSaleStockChanges(
		[]SaleDetail{
			{ID: 1, ProductId: 10, Quantity: 2},
			{ID: 2, ProductId: 20, Quantity: 3},
			{ID: 3, ProductId: 30, Quantity: 4},
		},
		[]NewSaleDetail{
			{DetailId: 1, ProductId: 10, Quantity: 2},
			{DetailId: 2, ProductId: 20, Quantity: 7},
			{ProductId: 40, Quantity: 1},
		},
	)
	assertChanges(t, changes, []StockChange{
		{ProductId: 20, Delta: -4},
		{ProductId: 30, Delta: 4},
		{ProductId: 40, Delta: -1},
	})
}
