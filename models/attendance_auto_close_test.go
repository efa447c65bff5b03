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
	"bitbucket.org/mmdatafocus/stationery_backend/workflow"
)

func TestAttendanceAutoCloseSweepsYesterdaysOpenRows(t *testing.T) {
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

	forgetful, err := models.CreateEmployee(ctx, &models.NewEmployee{Name: "Forgetful"})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	punctual, err := models.CreateEmployee(ctx, &models.NewEmployee{Name: "Punctual"})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}

	stale, err := models.CheckInEmployee(ctx, &models.NewAttendance{EmployeeId: forgetful.ID})
	if err != nil {
		t.Fatalf("CheckInEmployee: %v", err)
	}
	fresh, err := models.CheckInEmployee(ctx, &models.NewAttendance{EmployeeId: punctual.ID})
	if err != nil {
		t.Fatalf("CheckInEmployee: %v", err)
	}

	// backdate the first check-in to two days ago
	db := config.GetDB()
	twoDaysAgo := time.Now().UTC().Add(-48 * time.Hour)
	if err := db.WithContext(ctx).Exec("UPDATE attendances SET check_in = ? WHERE id = ?", twoDaysAgo, stale.ID).Error; err != nil {
		t.Fatalf("backdate check_in: %v", err)
	}

	now := time.Now().UTC()
	closed, err := models.CloseStaleOpenAttendances(ctx, workflow.StaleCutoff(now, "Asia/Yangon"), now)
	if err != nil {
		t.Fatalf("CloseStaleOpenAttendances: %v", err)
	}
	if closed != 1 {
		t.Fatalf("expected 1 auto-closed row, got %d", closed)
	}

	after, err := models.GetAttendance(ctx, stale.ID)
	if err != nil {
		t.Fatalf("GetAttendance: %v", err)
	}
	if after.Status != models.AttendanceStatusAutoClosed {
		t.Fatalf("expected Auto Closed, got %s", after.Status)
	}
	if after.CheckOut == nil {
		t.Fatalf("auto close must record a checkout time")
	}

	// today's open attendance is untouched
	untouched, err := models.GetAttendance(ctx, fresh.ID)
	if err != nil {
		t.Fatalf("GetAttendance: %v", err)
	}
	if untouched.Status != models.AttendanceStatusOpen || untouched.CheckOut != nil {
		t.Fatalf("fresh attendance was swept: %+v", untouched)
	}

	// a second sweep finds nothing
	closed, err = models.CloseStaleOpenAttendances(ctx, workflow.StaleCutoff(now, "Asia/Yangon"), now)
	if err != nil {
		t.Fatalf("CloseStaleOpenAttendances: %v", err)
	}
	if closed != 0 {
		t.Fatalf("expected idempotent sweep, closed %d", closed)
	}
}

func TestAttendanceOneOpenPerEmployee(t *testing.T) {
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

	cashier, err := models.CreateEmployee(ctx, &models.NewEmployee{Name: "Cashier"})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}

	if _, err := models.CheckInEmployee(ctx, &models.NewAttendance{EmployeeId: cashier.ID}); err != nil {
		t.Fatalf("first check-in: %v", err)
	}

	_, err = models.CheckInEmployee(ctx, &models.NewAttendance{EmployeeId: cashier.ID})
	var valErr *utils.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if valErr.Reason != "an open attendance already exists" {
		t.Fatalf("unexpected reason: %q", valErr.Reason)
	}

	out, err := models.CheckOutEmployee(ctx, cashier.ID)
	if err != nil {
		t.Fatalf("CheckOutEmployee: %v", err)
	}
	if out.EmployeeId != cashier.ID {
		t.Fatalf("checked out the wrong attendance: %+v", out)
	}

	// closed means a new shift can start
	if _, err := models.CheckInEmployee(ctx, &models.NewAttendance{EmployeeId: cashier.ID}); err != nil {
		t.Fatalf("check-in after checkout: %v", err)
	}

	// nothing open for an employee who never clocked in
	ghost, err := models.CreateEmployee(ctx, &models.NewEmployee{Name: "Ghost"})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	_, err = models.CheckOutEmployee(ctx, ghost.ID)
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if valErr.Reason != "no open attendance to close" {
		t.Fatalf("unexpected reason: %q", valErr.Reason)
	}
}

func TestAttendanceCorrectionValidation(t *testing.T) {
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

	cashier, err := models.CreateEmployee(ctx, &models.NewEmployee{Name: "Cashier"})
	if err != nil {
		t.Fatalf("CreateEmployee: %v", err)
	}
	attendance, err := models.CheckInEmployee(ctx, &models.NewAttendance{EmployeeId: cashier.ID})
	if err != nil {
		t.Fatalf("CheckInEmployee: %v", err)
	}

	checkIn := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	before := checkIn.Add(-time.Hour)

	_, err = models.UpdateAttendance(ctx, attendance.ID, &models.AttendanceCorrection{
		CheckIn:  checkIn,
		CheckOut: &before,
		Status:   models.AttendanceStatusClosed,
	})
	var valErr *utils.ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if valErr.Field != "check_out" || valErr.Reason != "must be after check in" {
		t.Fatalf("unexpected error: %+v", valErr)
	}

	// a closed attendance must carry a checkout
	_, err = models.UpdateAttendance(ctx, attendance.ID, &models.AttendanceCorrection{
		CheckIn: checkIn,
		Status:  models.AttendanceStatusClosed,
	})
	if !errors.As(err, &valErr) {
		t.Fatalf("expected ValidationError, got %T: %v", err, err)
	}
	if valErr.Reason != "required when attendance is closed" {
		t.Fatalf("unexpected reason: %q", valErr.Reason)
	}

	checkOut := checkIn.Add(8 * time.Hour)
	fixed, err := models.UpdateAttendance(ctx, attendance.ID, &models.AttendanceCorrection{
		CheckIn:  checkIn,
		CheckOut: &checkOut,
		Status:   models.AttendanceStatusClosed,
		Notes:    "forgot to clock out",
	})
	if err != nil {
		t.Fatalf("UpdateAttendance: %v", err)
	}
	if fixed.Status != models.AttendanceStatusClosed {
		t.Fatalf("expected Closed, got %s", fixed.Status)
	}
}
