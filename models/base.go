package models

import (
	"context"
	"errors"
	"os"
	"time"

	"bitbucket.org/mmdatafocus/stationery_backend/utils"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// correlationIdFromContextOrNew tags a stock movement with the id of the
// request that caused it. The trace id is preferred so movements can be
// joined against traces; a fresh uuid covers untraced callers.
func correlationIdFromContextOrNew(ctx context.Context) string {
	if ctx != nil {
		if v, ok := utils.GetCorrelationIdFromContext(ctx); ok && v != "" {
			return v
		}
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			return sc.TraceID().String()
		}
	}
	return uuid.NewString()
}

// isDuplicateKeyErr spots a unique-index violation that slipped past the
// pre-insert checks under concurrency.
func isDuplicateKeyErr(err error) bool {
	var mysqlErr *mysqlDriver.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == 1062
	}
	return false
}

// document number prefix per module, overridable from the environment
func getTransactionPrefix(moduleName string) (string, error) {
	prefixes := map[string]string{
		"Sale":          "SA-",
		"PurchaseOrder": "PO-",
	}
	overrideKeys := map[string]string{
		"Sale":          "SALE_NUMBER_PREFIX",
		"PurchaseOrder": "PURCHASE_ORDER_NUMBER_PREFIX",
	}

	prefix, ok := prefixes[moduleName]
	if !ok {
		return "", errors.New("no transaction prefix configured for " + moduleName)
	}
	if override := os.Getenv(overrideKeys[moduleName]); override != "" {
		prefix = override
	}
	return prefix, nil
}

func ParseDateString(dateString string, timezone string) (time.Time, error) {

	// Parse the date string into a time.Time object
	localTime, err := time.Parse("2006-01-02T15:04:05", dateString)
	if err != nil {
		return time.Time{}, err
	}

	if timezone == "" {
		timezone = "Asia/Yangon"
	}

	// Load the location for the given timezone
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}

	// Convert the local time to the specified timezone
	localTimeInZone := time.Date(
		localTime.Year(), localTime.Month(), localTime.Day(),
		localTime.Hour(), localTime.Minute(), localTime.Second(), localTime.Nanosecond(),
		location,
	)

	// Convert the time to UTC
	return localTimeInZone.UTC(), nil
}
