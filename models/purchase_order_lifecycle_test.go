package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/stationery_backend/config"
	"bitbucket.org/mmdatafocus/stationery_backend/models"
	"bitbucket.org/mmdatafocus/stationery_backend/utils"
	"github.com/shopspring/decimal"
)

func TestPurchaseOrderFullLifecycleToPaid(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME_2", "stationery_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")

	supplier := createTestSupplier(t, ctx)
	ruler, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:         "Ruler",
		Sku:          "RL-01",
		CostPrice:    decimal.RequireFromString("7.5"),
		SalesPrice:   decimal.NewFromInt(15),
		OpeningStock: 6,
	})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}

	po, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{
		SupplierId: supplier.ID,
		OrderDate:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Details: []models.NewPurchaseOrderDetail{
			// the caller's price is stored but the line is costed from the product
			{ProductId: ruler.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(999)},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	if po.CurrentStatus != models.PurchaseOrderStatusDraft {
		t.Fatalf("expected new order in Draft, got %s", po.CurrentStatus)
	}
	if po.OrderNumber != "PO-1" {
		t.Fatalf("expected order number PO-1, got %q", po.OrderNumber)
	}
	if len(po.Details) != 1 {
		t.Fatalf("expected 1 line, got %d", len(po.Details))
	}
	line := po.Details[0]
	if !line.UnitPrice.Equal(decimal.NewFromInt(999)) {
		t.Fatalf("caller price not stored: %s", line.UnitPrice)
	}
	if !line.TotalPrice.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected line total 7.5*4=30, got %s", line.TotalPrice)
	}
	if !po.OrderTotalAmount.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("expected order total 30, got %s", po.OrderTotalAmount)
	}

	steps := []struct {
		advance func(context.Context, int) (*models.PurchaseOrder, error)
		want    models.PurchaseOrderStatus
	}{
		{models.SubmitPurchaseOrder, models.PurchaseOrderStatusSubmitted},
		{models.ConfirmPurchaseOrder, models.PurchaseOrderStatusConfirmed},
		{models.MarkPurchaseOrderInProcess, models.PurchaseOrderStatusInProcess},
		{models.MarkPurchaseOrderShipped, models.PurchaseOrderStatusShipped},
		{models.MarkPurchaseOrderDelivered, models.PurchaseOrderStatusDelivered},
		{models.MarkPurchaseOrderPaid, models.PurchaseOrderStatusPaid},
	}
	for _, step := range steps {
		po, err = step.advance(ctx, po.ID)
		if err != nil {
			t.Fatalf("advance to %s: %v", step.want, err)
		}
		if po.CurrentStatus != step.want {
			t.Fatalf("expected %s, got %s", step.want, po.CurrentStatus)
		}
	}

	// ordering never moves stock; only receiving would, and that is a
	// separate workflow
	assertProductStock(t, ctx, ruler.ID, 6)
	movements, err := models.GetStockMovements(ctx, &ruler.ID, nil, nil)
	if err != nil {
		t.Fatalf("GetStockMovements: %v", err)
	}
	if len(movements) != 1 || movements[0].ReferenceType != models.StockReferenceTypeOpeningStock {
		t.Fatalf("expected only the opening movement, got %+v", movements)
	}

	// the audit trail carries the create and every status change
	refType := "purchase_orders"
	histories, err := models.GetHistories(ctx, &po.ID, &refType, nil)
	if err != nil {
		t.Fatalf("GetHistories: %v", err)
	}
	var creates, statusChanges int
	for _, h := range histories {
		if h.UserId != 1 {
			t.Fatalf("history row written without the acting user: %+v", h)
		}
		switch h.ActionType {
		case "CREATE":
			creates++
		case "UPDATE":
			statusChanges++
		}
	}
	if creates != 1 || statusChanges != 6 {
		t.Fatalf("expected 1 create and 6 status changes, got %d and %d", creates, statusChanges)
	}
}

func TestPurchaseOrderDeliveredRejectsCancel(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME_2", "stationery_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")

	supplier := createTestSupplier(t, ctx)
	ruler := createTestProduct(t, ctx, "Ruler", "RL-01", 0)

	po := createDraftPurchaseOrder(t, ctx, supplier.ID, ruler.ID)
	for _, advance := range []func(context.Context, int) (*models.PurchaseOrder, error){
		models.SubmitPurchaseOrder,
		models.ConfirmPurchaseOrder,
		models.MarkPurchaseOrderShipped,
		models.MarkPurchaseOrderDelivered,
	} {
		var err error
		if po, err = advance(ctx, po.ID); err != nil {
			t.Fatalf("advance: %v", err)
		}
	}
	if po.CurrentStatus != models.PurchaseOrderStatusDelivered {
		t.Fatalf("expected Delivered, got %s", po.CurrentStatus)
	}

	_, err := models.CancelPurchaseOrder(ctx, po.ID)
	if err == nil {
		t.Fatalf("expected cancel to fail after delivery")
	}
	var transitionErr *utils.InvalidStateTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidStateTransitionError, got %T: %v", err, err)
	}
	if transitionErr.CurrentState != "Delivered" || transitionErr.AttemptedOperation != "cancel" {
		t.Fatalf("unexpected error fields: %+v", transitionErr)
	}
	if got, want := err.Error(), "cannot cancel in Delivered state"; got != want {
		t.Fatalf("expected %q, got %q", want, got)
	}

	// the row must be exactly as it was
	after, err := models.GetPurchaseOrder(ctx, po.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrder: %v", err)
	}
	if after.CurrentStatus != models.PurchaseOrderStatusDelivered {
		t.Fatalf("rejected cancel changed status to %s", after.CurrentStatus)
	}
}

func TestPurchaseOrderDraftOnlyEditing(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME_2", "stationery_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")

	supplier := createTestSupplier(t, ctx)
	ruler := createTestProduct(t, ctx, "Ruler", "RL-01", 0)
	pencil := createTestProduct(t, ctx, "Pencil", "PC-01", 0)

	po := createDraftPurchaseOrder(t, ctx, supplier.ID, ruler.ID)

	// while Draft both edits work
	updated, err := models.UpdatePurchaseOrder(ctx, po.ID, &models.NewPurchaseOrder{
		SupplierId: supplier.ID,
		OrderDate:  time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		Details: []models.NewPurchaseOrderDetail{
			{DetailId: po.Details[0].ID, ProductId: pencil.ID, Quantity: 10, UnitPrice: decimal.NewFromInt(5)},
		},
	})
	if err != nil {
		t.Fatalf("UpdatePurchaseOrder while Draft: %v", err)
	}
	if len(updated.Details) != 1 || updated.Details[0].ProductId != pencil.ID {
		t.Fatalf("draft update did not replace the line: %+v", updated.Details)
	}

	if _, err := models.SubmitPurchaseOrder(ctx, po.ID); err != nil {
		t.Fatalf("SubmitPurchaseOrder: %v", err)
	}

	// once submitted, updates are locked out
	_, err = models.UpdatePurchaseOrder(ctx, po.ID, &models.NewPurchaseOrder{
		SupplierId: supplier.ID,
		OrderDate:  time.Date(2026, 2, 3, 0, 0, 0, 0, time.UTC),
		Details: []models.NewPurchaseOrderDetail{
			{ProductId: ruler.ID, Quantity: 1},
		},
	})
	var transitionErr *utils.InvalidStateTransitionError
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidStateTransitionError, got %T: %v", err, err)
	}
	if transitionErr.CurrentState != "Submitted" || transitionErr.AttemptedOperation != "update" {
		t.Fatalf("unexpected error fields: %+v", transitionErr)
	}

	// submitting twice is rejected and the status stays put
	_, err = models.SubmitPurchaseOrder(ctx, po.ID)
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidStateTransitionError, got %T: %v", err, err)
	}
	if transitionErr.CurrentState != "Submitted" || transitionErr.AttemptedOperation != "submit" {
		t.Fatalf("unexpected error fields: %+v", transitionErr)
	}
	still, err := models.GetPurchaseOrder(ctx, po.ID)
	if err != nil {
		t.Fatalf("GetPurchaseOrder: %v", err)
	}
	if still.CurrentStatus != models.PurchaseOrderStatusSubmitted {
		t.Fatalf("repeated submit changed status to %s", still.CurrentStatus)
	}

	// and so are deletes
	_, err = models.DeletePurchaseOrder(ctx, po.ID)
	if !errors.As(err, &transitionErr) {
		t.Fatalf("expected InvalidStateTransitionError, got %T: %v", err, err)
	}
	if transitionErr.AttemptedOperation != "delete" {
		t.Fatalf("unexpected error fields: %+v", transitionErr)
	}

	// a fresh draft deletes cleanly
	second := createDraftPurchaseOrder(t, ctx, supplier.ID, ruler.ID)
	if _, err := models.DeletePurchaseOrder(ctx, second.ID); err != nil {
		t.Fatalf("DeletePurchaseOrder while Draft: %v", err)
	}
	if _, err := models.GetPurchaseOrder(ctx, second.ID); err == nil {
		t.Fatalf("expected deleted order to be gone")
	}
}

func createTestSupplier(t *testing.T, ctx context.Context) *models.Supplier {
	t.Helper()
	supplier, err := models.CreateSupplier(ctx, &models.NewSupplier{Name: "Paper Mill"})
	if err != nil {
		t.Fatalf("CreateSupplier: %v", err)
	}
	return supplier
}

func createDraftPurchaseOrder(t *testing.T, ctx context.Context, supplierId, productId int) *models.PurchaseOrder {
	t.Helper()
	po, err := models.CreatePurchaseOrder(ctx, &models.NewPurchaseOrder{
		SupplierId: supplierId,
		OrderDate:  time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		Details: []models.NewPurchaseOrderDetail{
			{ProductId: productId, Quantity: 4, UnitPrice: decimal.NewFromInt(10)},
		},
	})
	if err != nil {
		t.Fatalf("CreatePurchaseOrder: %v", err)
	}
	return po
}
