package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestMyDateStringRoundTrip(t *testing.T) {
	var d MyDateString
	if err := json.Unmarshal([]byte(`"2024-03-15T13:45:10"`), &d); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	want := time.Date(2024, 3, 15, 13, 45, 10, 0, time.UTC)
	if !time.Time(d).Equal(want) {
		t.Fatalf("expected %v, got %v", want, time.Time(d))
	}

	out, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(out) != `"2024-03-15T13:45:10"` {
		t.Fatalf("unexpected marshal output: %s", out)
	}
}

func TestMyDateStringRejectsBadInput(t *testing.T) {
	var d MyDateString
	if err := json.Unmarshal([]byte(`"15/03/2024"`), &d); err == nil {
		t.Fatalf("expected error for wrong layout")
	}
	if err := json.Unmarshal([]byte(`12345`), &d); err == nil {
		t.Fatalf("expected error for non-string input")
	}
}

// Yangon runs at UTC+6:30, which catches off-by-one bugs a whole-hour
// timezone would hide.
func TestMyDateStringDayWindowInYangon(t *testing.T) {
	start := MyDateString(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if err := start.StartOfDayUTCTime("Asia/Yangon"); err != nil {
		t.Fatalf("StartOfDayUTCTime: %v", err)
	}
	wantStart := time.Date(2024, 3, 14, 17, 30, 0, 0, time.UTC)
	if !time.Time(start).Equal(wantStart) {
		t.Fatalf("start of day: expected %v, got %v", wantStart, time.Time(start))
	}

	end := MyDateString(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if err := end.EndOfDayUTCTime("Asia/Yangon"); err != nil {
		t.Fatalf("EndOfDayUTCTime: %v", err)
	}
	wantEnd := time.Date(2024, 3, 15, 17, 29, 59, 999, time.UTC)
	if !time.Time(end).Equal(wantEnd) {
		t.Fatalf("end of day: expected %v, got %v", wantEnd, time.Time(end))
	}
}

func TestMyDateStringDayWindowNilReceiver(t *testing.T) {
	var d *MyDateString
	if err := d.StartOfDayUTCTime("Asia/Yangon"); err != nil {
		t.Fatalf("nil receiver StartOfDayUTCTime: %v", err)
	}
	if err := d.EndOfDayUTCTime("Asia/Yangon"); err != nil {
		t.Fatalf("nil receiver EndOfDayUTCTime: %v", err)
	}
}

func TestMyDateStringDefaultTimezoneIsYangon(t *testing.T) {
	blank := MyDateString(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if err := blank.StartOfDayUTCTime(""); err != nil {
		t.Fatalf("StartOfDayUTCTime: %v", err)
	}
	yangon := MyDateString(time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC))
	if err := yangon.StartOfDayUTCTime("Asia/Yangon"); err != nil {
		t.Fatalf("StartOfDayUTCTime: %v", err)
	}
	if !time.Time(blank).Equal(time.Time(yangon)) {
		t.Fatalf("empty timezone should default to Asia/Yangon: %v vs %v", time.Time(blank), time.Time(yangon))
	}
}

func TestPurchaseOrderActionSpellings(t *testing.T) {
	accepted := map[string]PurchaseOrderAction{
		"submit":        PurchaseOrderActionSubmit,
		"confirm":       PurchaseOrderActionConfirm,
		"markInProcess": PurchaseOrderActionMarkInProcess,
		"markShipped":   PurchaseOrderActionMarkShipped,
		"markDelivered": PurchaseOrderActionMarkDelivered,
		"markPaid":      PurchaseOrderActionMarkPaid,
		"cancel":        PurchaseOrderActionCancel,
	}
	for raw, want := range accepted {
		var action PurchaseOrderAction
		if err := json.Unmarshal([]byte(`"`+raw+`"`), &action); err != nil {
			t.Fatalf("unmarshal %q: %v", raw, err)
		}
		if action != want {
			t.Fatalf("unmarshal %q: expected %s, got %s", raw, want, action)
		}
	}

	for _, raw := range []string{"ship", "Submit", "MARKPAID", ""} {
		var action PurchaseOrderAction
		if err := json.Unmarshal([]byte(`"`+raw+`"`), &action); err == nil {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
}

func TestPurchaseOrderStatusSpellings(t *testing.T) {
	var status PurchaseOrderStatus
	if err := json.Unmarshal([]byte(`"In Process"`), &status); err != nil {
		t.Fatalf("unmarshal \"In Process\": %v", err)
	}
	if status != PurchaseOrderStatusInProcess {
		t.Fatalf("expected In Process, got %s", status)
	}

	// only the spaced spelling is valid
	if err := json.Unmarshal([]byte(`"InProcess"`), &status); err == nil {
		t.Fatalf("expected \"InProcess\" to be rejected")
	}
}

func TestStockReferenceTypeSpellings(t *testing.T) {
	accepted := map[string]StockReferenceType{
		"SA":  StockReferenceTypeSale,
		"ADJ": StockReferenceTypeAdjustment,
		"OP":  StockReferenceTypeOpeningStock,
		"IM":  StockReferenceTypeProductImport,
	}
	for raw, want := range accepted {
		var rt StockReferenceType
		if err := json.Unmarshal([]byte(`"`+raw+`"`), &rt); err != nil {
			t.Fatalf("unmarshal %q: %v", raw, err)
		}
		if rt != want {
			t.Fatalf("unmarshal %q: expected %s, got %s", raw, want, rt)
		}
	}

	var rt StockReferenceType
	if err := json.Unmarshal([]byte(`"sa"`), &rt); err == nil {
		t.Fatalf("expected lowercase to be rejected")
	}
}
