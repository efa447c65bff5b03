package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"
)

type PurchaseOrderStatus string

const (
	PurchaseOrderStatusDraft     PurchaseOrderStatus = "Draft"
	PurchaseOrderStatusSubmitted PurchaseOrderStatus = "Submitted"
	PurchaseOrderStatusConfirmed PurchaseOrderStatus = "Confirmed"
	PurchaseOrderStatusInProcess PurchaseOrderStatus = "In Process"
	PurchaseOrderStatusShipped   PurchaseOrderStatus = "Shipped"
	PurchaseOrderStatusDelivered PurchaseOrderStatus = "Delivered"
	PurchaseOrderStatusPaid      PurchaseOrderStatus = "Paid"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "Cancelled"
)

// convert input to enum type
func (s *PurchaseOrderStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.New("purchase order status must be string")
	}

	purchaseOrderStatus := map[string]PurchaseOrderStatus{
		"Draft":      PurchaseOrderStatusDraft,
		"Submitted":  PurchaseOrderStatusSubmitted,
		"Confirmed":  PurchaseOrderStatusConfirmed,
		"In Process": PurchaseOrderStatusInProcess,
		"Shipped":    PurchaseOrderStatusShipped,
		"Delivered":  PurchaseOrderStatusDelivered,
		"Paid":       PurchaseOrderStatusPaid,
		"Cancelled":  PurchaseOrderStatusCancelled,
	}

	v, ok := purchaseOrderStatus[str]
	if !ok {
		return errors.New("invalid purchase order status")
	}
	*s = v
	return nil
}

type PurchaseOrderAction string

const (
	PurchaseOrderActionSubmit        PurchaseOrderAction = "submit"
	PurchaseOrderActionConfirm       PurchaseOrderAction = "confirm"
	PurchaseOrderActionMarkInProcess PurchaseOrderAction = "markInProcess"
	PurchaseOrderActionMarkShipped   PurchaseOrderAction = "markShipped"
	PurchaseOrderActionMarkDelivered PurchaseOrderAction = "markDelivered"
	PurchaseOrderActionMarkPaid      PurchaseOrderAction = "markPaid"
	PurchaseOrderActionCancel        PurchaseOrderAction = "cancel"
)

// convert input to enum type
func (a *PurchaseOrderAction) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.New("purchase order action must be string")
	}

	purchaseOrderAction := map[string]PurchaseOrderAction{
		"submit":        PurchaseOrderActionSubmit,
		"confirm":       PurchaseOrderActionConfirm,
		"markInProcess": PurchaseOrderActionMarkInProcess,
		"markShipped":   PurchaseOrderActionMarkShipped,
		"markDelivered": PurchaseOrderActionMarkDelivered,
		"markPaid":      PurchaseOrderActionMarkPaid,
		"cancel":        PurchaseOrderActionCancel,
	}

	v, ok := purchaseOrderAction[str]
	if !ok {
		return errors.New("invalid purchase order action")
	}
	*a = v
	return nil
}

type StockReferenceType string

const (
	StockReferenceTypeSale          StockReferenceType = "SA"
	StockReferenceTypeAdjustment    StockReferenceType = "ADJ"
	StockReferenceTypeOpeningStock  StockReferenceType = "OP"
	StockReferenceTypeProductImport StockReferenceType = "IM"
)

func (t *StockReferenceType) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.New("stock reference type must be string")
	}

	stockReferenceType := map[string]StockReferenceType{
		"SA":  StockReferenceTypeSale,
		"ADJ": StockReferenceTypeAdjustment,
		"OP":  StockReferenceTypeOpeningStock,
		"IM":  StockReferenceTypeProductImport,
	}

	v, ok := stockReferenceType[str]
	if !ok {
		return errors.New("invalid stock reference type")
	}
	*t = v
	return nil
}

type UserRole string

const (
	UserRoleAdmin UserRole = "Admin"
	UserRoleStaff UserRole = "Staff"
)

func (p *UserRole) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.New("user role must be string")
	}

	userRole := map[string]UserRole{
		"Admin": UserRoleAdmin,
		"Staff": UserRoleStaff,
	}

	v, ok := userRole[str]
	if !ok {
		return errors.New("invalid user role")
	}
	*p = v
	return nil
}

type AttendanceStatus string

const (
	AttendanceStatusOpen       AttendanceStatus = "Open"
	AttendanceStatusClosed     AttendanceStatus = "Closed"
	AttendanceStatusAutoClosed AttendanceStatus = "Auto Closed"
)

func (s *AttendanceStatus) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.New("attendance status must be string")
	}

	attendanceStatus := map[string]AttendanceStatus{
		"Open":        AttendanceStatusOpen,
		"Closed":      AttendanceStatusClosed,
		"Auto Closed": AttendanceStatusAutoClosed,
	}

	v, ok := attendanceStatus[str]
	if !ok {
		return errors.New("invalid attendance status")
	}
	*s = v
	return nil
}

type MyDateString time.Time

func (t MyDateString) MarshalJSON() ([]byte, error) {
	return []byte(strconv.Quote(time.Time(t).Format("2006-01-02T15:04:05"))), nil
}

// Parse the string into time.Time object
func (t *MyDateString) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err != nil {
		return errors.New("MyDateString must be string")
	}

	// Parse the date string into a time.Time object
	localTime, err := time.Parse("2006-01-02T15:04:05", str)
	if err != nil {
		return errors.New("error parsing datetime")
	}
	*t = MyDateString(localTime)

	return nil
}

func (t *MyDateString) StartOfDayUTCTime(timezone string) error {
	// do nothing if the pointer is nil
	if t == nil {
		return nil
	}

	localTime := time.Time(*t)

	if timezone == "" {
		timezone = "Asia/Yangon"
	}

	// Load the location for the given timezone
	location, err := time.LoadLocation(timezone)
	if err != nil {
		fmt.Println("Error loading location:", err)
		return err
	}

	// Convert the start of the day local time to the specified timezone
	localTimeInZone := time.Date(
		localTime.Year(), localTime.Month(), localTime.Day(),
		0, 0, 0, 0,
		location,
	)

	// Convert the time to UTC
	utcTime := localTimeInZone.In(time.UTC)
	*t = MyDateString(utcTime)

	return nil
}

func (t *MyDateString) EndOfDayUTCTime(timezone string) error {
	// do nothing if the pointer is nil
	if t == nil {
		return nil
	}

	localTime := time.Time(*t)

	if timezone == "" {
		timezone = "Asia/Yangon"
	}

	// Load the location for the given timezone
	location, err := time.LoadLocation(timezone)
	if err != nil {
		fmt.Println("Error loading location:", err)
		return err
	}

	// Convert the end of the day local time to the specified timezone
	localTimeInZone := time.Date(
		localTime.Year(), localTime.Month(), localTime.Day(),
		23, 59, 59, 999, // Max nanoseconds
		location,
	)

	// Convert the time to UTC
	utcTime := localTimeInZone.In(time.UTC)
	*t = MyDateString(utcTime)

	return nil
}

func (t *MyDateString) UTCTime(timezone string) error {
	// do nothing if the pointer is nil
	if t == nil {
		return nil
	}

	localTime := time.Time(*t)

	if timezone == "" {
		timezone = "Asia/Yangon"
	}

	// Load the location for the given timezone
	location, err := time.LoadLocation(timezone)
	if err != nil {
		fmt.Println("Error loading location:", err)
		return err
	}

	// Convert the local time to the specified timezone
	localTimeInZone := time.Date(
		localTime.Year(), localTime.Month(), localTime.Day(),
		localTime.Hour(), localTime.Minute(), localTime.Second(), localTime.Nanosecond(),
		location,
	)

	// Convert the time to UTC
	utcTime := localTimeInZone.In(time.UTC)
	*t = MyDateString(utcTime)

	return nil
}

// Value implements the driver.Valuer interface
func (t MyDateString) Value() (driver.Value, error) {
	return time.Time(t), nil
}

// Scan implements the sql.Scanner interface
func (t *MyDateString) Scan(value interface{}) error {
	if value == nil {
		*t = MyDateString(time.Time{})
		return nil
	}
	switch v := value.(type) {
	case time.Time:
		*t = MyDateString(v)
	default:
		return fmt.Errorf("cannot convert %T to MyDateString", value)
	}
	return nil
}

func (t *MyDateString) SetDefaultNowIfNil() *MyDateString {
	if t == nil {
		now := MyDateString(time.Now())
		return &now
	}
	return t
}
