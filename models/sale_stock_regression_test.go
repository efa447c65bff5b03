package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/stationery_backend/config"
	"bitbucket.org/mmdatafocus/stationery_backend/models"
	"bitbucket.org/mmdatafocus/stationery_backend/utils"
	"github.com/shopspring/decimal"
)

func TestSaleCreateDecrementsEveryLineInOneTransaction(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME_2", "stationery_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	// Model hooks write History records and require user context.
	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")
	ctx = utils.SetUsernameInContext(ctx, "test@local")

	customer, employee := createSaleParties(t, ctx)
	stapler := createTestProduct(t, ctx, "Stapler", "ST-01", 10)
	pen := createTestProduct(t, ctx, "Pen", "PN-01", 5)

	sale, err := models.CreateSale(ctx, &models.NewSale{
		CustomerId:  customer.ID,
		EmployeeId:  employee.ID,
		SaleDate:    time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		TotalAmount: decimal.NewFromInt(9000),
		FinalAmount: decimal.NewFromInt(9000),
		Details: []models.NewSaleDetail{
			{ProductId: stapler.ID, Quantity: 3, UnitPrice: decimal.NewFromInt(2000), Subtotal: decimal.NewFromInt(6000)},
			{ProductId: pen.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(1500), Subtotal: decimal.NewFromInt(3000)},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	if sale.SaleNumber != "SA-1" {
		t.Fatalf("expected sale number SA-1, got %q", sale.SaleNumber)
	}
	// money fields are stored exactly as the caller sent them
	if !sale.FinalAmount.Equal(decimal.NewFromInt(9000)) {
		t.Fatalf("final amount rewritten: %s", sale.FinalAmount)
	}

	assertProductStock(t, ctx, stapler.ID, 7)
	assertProductStock(t, ctx, pen.ID, 3)

	// one outgoing movement per line, tagged with the sale
	db := config.GetDB()
	var count int64
	if err := db.WithContext(ctx).Model(&models.StockMovement{}).
		Where("reference_type = ? AND reference_id = ?", models.StockReferenceTypeSale, sale.ID).
		Count(&count).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 sale movements, got %d", count)
	}

	assertStockMatchesJournal(t, ctx)
}

func TestSaleCreateInsufficientStockLeavesEverythingUntouched(t *testing.T) {
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

	customer, employee := createSaleParties(t, ctx)
	stapler := createTestProduct(t, ctx, "Stapler", "ST-01", 10)
	pen := createTestProduct(t, ctx, "Pen", "PN-01", 1)

	// the second line over-asks, so the whole sale must be rejected
	_, err := models.CreateSale(ctx, &models.NewSale{
		CustomerId: customer.ID,
		EmployeeId: employee.ID,
		SaleDate:   time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		Details: []models.NewSaleDetail{
			{ProductId: stapler.ID, Quantity: 2, UnitPrice: decimal.NewFromInt(2000), Subtotal: decimal.NewFromInt(4000)},
			{ProductId: pen.ID, Quantity: 5, UnitPrice: decimal.NewFromInt(1500), Subtotal: decimal.NewFromInt(7500)},
		},
	})
	if err == nil {
		t.Fatalf("expected insufficient stock error")
	}
	var stockErr *utils.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %T: %v", err, err)
	}
	if stockErr.ProductId != pen.ID || stockErr.Requested != 5 || stockErr.Available != 1 {
		t.Fatalf("unexpected error fields: %+v", stockErr)
	}

	// nothing moved, nothing was written
	assertProductStock(t, ctx, stapler.ID, 10)
	assertProductStock(t, ctx, pen.ID, 1)

	db := config.GetDB()
	var saleCount int64
	if err := db.WithContext(ctx).Model(&models.Sale{}).Count(&saleCount).Error; err != nil {
		t.Fatalf("count sales: %v", err)
	}
	if saleCount != 0 {
		t.Fatalf("expected no sale rows, got %d", saleCount)
	}
	var movementCount int64
	if err := db.WithContext(ctx).Model(&models.StockMovement{}).
		Where("reference_type = ?", models.StockReferenceTypeSale).
		Count(&movementCount).Error; err != nil {
		t.Fatalf("count movements: %v", err)
	}
	if movementCount != 0 {
		t.Fatalf("expected no sale movements, got %d", movementCount)
	}

	assertStockMatchesJournal(t, ctx)
}

func TestSaleUpdateGrowingALineNeedsOnlyTheDifference(t *testing.T) {
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

	customer, employee := createSaleParties(t, ctx)
	// 8 on hand total; a naive update would re-take the full 8 and fail
	stapler := createTestProduct(t, ctx, "Stapler", "ST-01", 8)

	sale, err := models.CreateSale(ctx, &models.NewSale{
		CustomerId: customer.ID,
		EmployeeId: employee.ID,
		SaleDate:   time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		Details: []models.NewSaleDetail{
			{ProductId: stapler.ID, Quantity: 5, UnitPrice: decimal.NewFromInt(2000), Subtotal: decimal.NewFromInt(10000)},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	assertProductStock(t, ctx, stapler.ID, 3)

	detailId := sale.Details[0].ID
	updated, err := models.UpdateSale(ctx, sale.ID, &models.NewSale{
		CustomerId: customer.ID,
		EmployeeId: employee.ID,
		SaleDate:   time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		Details: []models.NewSaleDetail{
			{DetailId: detailId, ProductId: stapler.ID, Quantity: 8, UnitPrice: decimal.NewFromInt(2000), Subtotal: decimal.NewFromInt(16000)},
		},
	})
	if err != nil {
		t.Fatalf("UpdateSale 5->8: %v", err)
	}
	if len(updated.Details) != 1 || updated.Details[0].Quantity != 8 {
		t.Fatalf("expected one line with qty 8, got %+v", updated.Details)
	}
	assertProductStock(t, ctx, stapler.ID, 0)

	// one more than exists; the update must fail and change nothing
	_, err = models.UpdateSale(ctx, sale.ID, &models.NewSale{
		CustomerId: customer.ID,
		EmployeeId: employee.ID,
		SaleDate:   time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		Details: []models.NewSaleDetail{
			{DetailId: detailId, ProductId: stapler.ID, Quantity: 9, UnitPrice: decimal.NewFromInt(2000), Subtotal: decimal.NewFromInt(18000)},
		},
	})
	var stockErr *utils.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %T: %v", err, err)
	}
	if stockErr.Requested != 1 || stockErr.Available != 0 {
		t.Fatalf("expected requested=1 available=0, got %+v", stockErr)
	}

	after, err := models.GetSale(ctx, sale.ID)
	if err != nil {
		t.Fatalf("GetSale: %v", err)
	}
	if after.Details[0].Quantity != 8 {
		t.Fatalf("rejected update changed the sale: qty=%d", after.Details[0].Quantity)
	}
	assertProductStock(t, ctx, stapler.ID, 0)
	assertStockMatchesJournal(t, ctx)
}

func TestSaleDeleteReturnsAllStock(t *testing.T) {
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

	customer, employee := createSaleParties(t, ctx)
	stapler := createTestProduct(t, ctx, "Stapler", "ST-01", 10)
	pen := createTestProduct(t, ctx, "Pen", "PN-01", 6)

	sale, err := models.CreateSale(ctx, &models.NewSale{
		CustomerId: customer.ID,
		EmployeeId: employee.ID,
		SaleDate:   time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
		Details: []models.NewSaleDetail{
			{ProductId: stapler.ID, Quantity: 4, UnitPrice: decimal.NewFromInt(2000), Subtotal: decimal.NewFromInt(8000)},
			{ProductId: pen.ID, Quantity: 6, UnitPrice: decimal.NewFromInt(500), Subtotal: decimal.NewFromInt(3000)},
		},
	})
	if err != nil {
		t.Fatalf("CreateSale: %v", err)
	}
	assertProductStock(t, ctx, stapler.ID, 6)
	assertProductStock(t, ctx, pen.ID, 0)

	if _, err := models.DeleteSale(ctx, sale.ID); err != nil {
		t.Fatalf("DeleteSale: %v", err)
	}

	assertProductStock(t, ctx, stapler.ID, 10)
	assertProductStock(t, ctx, pen.ID, 6)

	// the journal keeps both directions
	onHand, err := models.GetStockOnHand(ctx, pen.ID)
	if err != nil {
		t.Fatalf("GetStockOnHand: %v", err)
	}
	if onHand != 6 {
		t.Fatalf("expected journal sum 6, got %d", onHand)
	}

	if _, err := models.GetSale(ctx, sale.ID); err == nil {
		t.Fatalf("expected deleted sale to be gone")
	}
	assertStockMatchesJournal(t, ctx)
}

func TestDeleteSalesValidatesTheWholeBatchFirst(t *testing.T) {
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

	customer, employee := createSaleParties(t, ctx)
	stapler := createTestProduct(t, ctx, "Stapler", "ST-01", 10)

	newSale := func(qty int) *models.NewSale {
		return &models.NewSale{
			CustomerId: customer.ID,
			EmployeeId: employee.ID,
			SaleDate:   time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC),
			Details: []models.NewSaleDetail{
				{ProductId: stapler.ID, Quantity: qty, UnitPrice: decimal.NewFromInt(2000), Subtotal: decimal.NewFromInt(int64(qty) * 2000)},
			},
		}
	}

	first, err := models.CreateSale(ctx, newSale(3))
	if err != nil {
		t.Fatalf("CreateSale first: %v", err)
	}
	second, err := models.CreateSale(ctx, newSale(2))
	if err != nil {
		t.Fatalf("CreateSale second: %v", err)
	}
	assertProductStock(t, ctx, stapler.ID, 5)

	// one bogus id poisons the whole batch
	_, err = models.DeleteSales(ctx, []int{first.ID, second.ID, 99999})
	if err == nil {
		t.Fatalf("expected batch delete to fail")
	}
	if !errors.Is(err, utils.ErrorRecordNotFound) {
		t.Fatalf("expected a record-not-found error, got %v", err)
	}

	// both sales intact, stock untouched
	if _, err := models.GetSale(ctx, first.ID); err != nil {
		t.Fatalf("first sale vanished after failed batch: %v", err)
	}
	if _, err := models.GetSale(ctx, second.ID); err != nil {
		t.Fatalf("second sale vanished after failed batch: %v", err)
	}
	assertProductStock(t, ctx, stapler.ID, 5)

	deleted, err := models.DeleteSales(ctx, []int{first.ID, second.ID})
	if err != nil {
		t.Fatalf("DeleteSales: %v", err)
	}
	if len(deleted) != 2 {
		t.Fatalf("expected 2 deleted sales, got %d", len(deleted))
	}
	assertProductStock(t, ctx, stapler.ID, 10)
	assertStockMatchesJournal(t, ctx)
}

func createSaleParties(t *testing.T, ctx context.Context) (*models.Customer, *models.Employee) {
	t.Helper()
	customer, err := models.CreateCustomer(ctx, &models.NewCustomer{Name: "Walk-in"})
	if err != nil {
		t.Fatalf("CreateCustomer: %v", err)
	}
	employee, err := models.CreateEmployee(ctx, &models.NewEmployee{Name: "Cashier"})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	return customer, employee
}

func createTestProduct(t *testing.T, ctx context.Context, name, sku string, openingStock int) *models.Product {
	t.Helper()
	product, err := models.CreateProduct(ctx, &models.NewProduct{
		Name:         name,
		Sku:          sku,
		CostPrice:    decimal.NewFromInt(1000),
		SalesPrice:   decimal.NewFromInt(2000),
		OpeningStock: openingStock,
	})
	if err != nil {
		t.Fatalf("CreateProduct %s: %v", name, err)
	}
	if product.Stock != openingStock {
		t.Fatalf("CreateProduct %s: expected stock %d, got %d", name, openingStock, product.Stock)
	}
	return product
}

func assertProductStock(t *testing.T, ctx context.Context, productId int, want int) {
	t.Helper()
	db := config.GetDB()
	var product models.Product
	if err := db.WithContext(ctx).First(&product, productId).Error; err != nil {
		t.Fatalf("fetch product %d: %v", productId, err)
	}
	if product.Stock != want {
		t.Fatalf("product %d: expected stock %d, got %d", productId, want, product.Stock)
	}
}

// assertStockMatchesJournal checks the cached column against the movement
// journal for every product.
func assertStockMatchesJournal(t *testing.T, ctx context.Context) {
	t.Helper()
	db := config.GetDB()
	var drifted int64
	err := db.WithContext(ctx).Raw(`
		SELECT COUNT(*)
		FROM products p
		LEFT JOIN (
			SELECT product_id, SUM(delta) AS total
			FROM stock_movements
			GROUP BY product_id
		) m ON m.product_id = p.id
		WHERE p.stock <> COALESCE(m.total, 0)`).Scan(&drifted).Error
	if err != nil {
		t.Fatalf("drift query: %v", err)
	}
	if drifted != 0 {
		t.Fatalf("%d product(s) drifted from the movement journal", drifted)
	}
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("stationery-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("stationery-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=stationery_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
