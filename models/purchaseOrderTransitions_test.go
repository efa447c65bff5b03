package models

import (
	"errors"
	"fmt"
	"testing"

	"bitbucket.org/mmdatafocus/stationery_backend/utils"
)

var allStatuses = []PurchaseOrderStatus{
	PurchaseOrderStatusDraft,
	PurchaseOrderStatusSubmitted,
	PurchaseOrderStatusConfirmed,
	PurchaseOrderStatusInProcess,
	PurchaseOrderStatusShipped,
	PurchaseOrderStatusDelivered,
	PurchaseOrderStatusPaid,
	PurchaseOrderStatusCancelled,
}

var allActions = []PurchaseOrderAction{
	PurchaseOrderActionSubmit,
	PurchaseOrderActionConfirm,
	PurchaseOrderActionMarkInProcess,
	PurchaseOrderActionMarkShipped,
	PurchaseOrderActionMarkDelivered,
	PurchaseOrderActionMarkPaid,
	PurchaseOrderActionCancel,
}

// allowedTransitions pins the lifecycle. Any row added to or removed from the
// transition table must show up here too.
var allowedTransitions = []struct {
	from   PurchaseOrderStatus
	action PurchaseOrderAction
	to     PurchaseOrderStatus
}{
	{PurchaseOrderStatusDraft, PurchaseOrderActionSubmit, PurchaseOrderStatusSubmitted},
	{PurchaseOrderStatusDraft, PurchaseOrderActionCancel, PurchaseOrderStatusCancelled},
	{PurchaseOrderStatusSubmitted, PurchaseOrderActionConfirm, PurchaseOrderStatusConfirmed},
	{PurchaseOrderStatusSubmitted, PurchaseOrderActionCancel, PurchaseOrderStatusCancelled},
	{PurchaseOrderStatusConfirmed, PurchaseOrderActionMarkInProcess, PurchaseOrderStatusInProcess},
	{PurchaseOrderStatusConfirmed, PurchaseOrderActionMarkShipped, PurchaseOrderStatusShipped},
	{PurchaseOrderStatusConfirmed, PurchaseOrderActionCancel, PurchaseOrderStatusCancelled},
	{PurchaseOrderStatusInProcess, PurchaseOrderActionMarkShipped, PurchaseOrderStatusShipped},
	{PurchaseOrderStatusInProcess, PurchaseOrderActionCancel, PurchaseOrderStatusCancelled},
	{PurchaseOrderStatusShipped, PurchaseOrderActionMarkDelivered, PurchaseOrderStatusDelivered},
	{PurchaseOrderStatusShipped, PurchaseOrderActionCancel, PurchaseOrderStatusCancelled},
	{PurchaseOrderStatusDelivered, PurchaseOrderActionMarkPaid, PurchaseOrderStatusPaid},
}

func TestPurchaseOrderLifecycleHappyPath(t *testing.T) {
	status := PurchaseOrderStatusDraft
	steps := []struct {
		action PurchaseOrderAction
		want   PurchaseOrderStatus
	}{
		{PurchaseOrderActionSubmit, PurchaseOrderStatusSubmitted},
		{PurchaseOrderActionConfirm, PurchaseOrderStatusConfirmed},
		{PurchaseOrderActionMarkInProcess, PurchaseOrderStatusInProcess},
		{PurchaseOrderActionMarkShipped, PurchaseOrderStatusShipped},
		{PurchaseOrderActionMarkDelivered, PurchaseOrderStatusDelivered},
		{PurchaseOrderActionMarkPaid, PurchaseOrderStatusPaid},
	}
	for _, step := range steps {
		next, err := NextPurchaseOrderStatus(status, step.action)
		if err != nil {
			t.Fatalf("%s from %s: %v", step.action, status, err)
		}
		if next != step.want {
			t.Fatalf("%s from %s: expected %s, got %s", step.action, status, step.want, next)
		}
		status = next
	}
}

// Confirmed may ship directly, skipping In Process.
func TestPurchaseOrderConfirmedShipsDirectly(t *testing.T) {
	next, err := NextPurchaseOrderStatus(PurchaseOrderStatusConfirmed, PurchaseOrderActionMarkShipped)
	if err != nil {
		t.Fatalf("markShipped from Confirmed: %v", err)
	}
	if next != PurchaseOrderStatusShipped {
		t.Fatalf("expected Shipped, got %s", next)
	}
}

func TestPurchaseOrderTransitionTableRejectsEverythingElse(t *testing.T) {
	allowed := map[string]PurchaseOrderStatus{}
	for _, tr := range allowedTransitions {
		allowed[fmt.Sprintf("%s|%s", tr.from, tr.action)] = tr.to
	}

	for _, status := range allStatuses {
		for _, action := range allActions {
			next, err := NextPurchaseOrderStatus(status, action)
			want, ok := allowed[fmt.Sprintf("%s|%s", status, action)]
			if ok {
				if err != nil {
					t.Fatalf("%s from %s: unexpected error %v", action, status, err)
				}
				if next != want {
					t.Fatalf("%s from %s: expected %s, got %s", action, status, want, next)
				}
				continue
			}

			if err == nil {
				t.Fatalf("%s from %s: expected rejection, got %s", action, status, next)
			}
			var transitionErr *utils.InvalidStateTransitionError
			if !errors.As(err, &transitionErr) {
				t.Fatalf("%s from %s: expected InvalidStateTransitionError, got %T", action, status, err)
			}
			if transitionErr.CurrentState != string(status) || transitionErr.AttemptedOperation != string(action) {
				t.Fatalf("%s from %s: error carries state=%q operation=%q",
					action, status, transitionErr.CurrentState, transitionErr.AttemptedOperation)
			}
			// the caller keeps the state it had
			if next != status {
				t.Fatalf("%s from %s: rejected action changed status to %s", action, status, next)
			}
		}
	}
}

func TestPurchaseOrderCancelWindow(t *testing.T) {
	cancellable := []PurchaseOrderStatus{
		PurchaseOrderStatusDraft,
		PurchaseOrderStatusSubmitted,
		PurchaseOrderStatusConfirmed,
		PurchaseOrderStatusInProcess,
		PurchaseOrderStatusShipped,
	}
	for _, status := range cancellable {
		next, err := NextPurchaseOrderStatus(status, PurchaseOrderActionCancel)
		if err != nil {
			t.Fatalf("cancel from %s: %v", status, err)
		}
		if next != PurchaseOrderStatusCancelled {
			t.Fatalf("cancel from %s: expected Cancelled, got %s", status, next)
		}
	}

	// a delivered order is owed money; it can only be paid
	for _, status := range []PurchaseOrderStatus{PurchaseOrderStatusDelivered, PurchaseOrderStatusPaid, PurchaseOrderStatusCancelled} {
		if _, err := NextPurchaseOrderStatus(status, PurchaseOrderActionCancel); err == nil {
			t.Fatalf("cancel from %s: expected rejection", status)
		}
	}
}

func TestPurchaseOrderTerminalStatesHaveNoExits(t *testing.T) {
	for _, status := range []PurchaseOrderStatus{PurchaseOrderStatusPaid, PurchaseOrderStatusCancelled} {
		for _, action := range allActions {
			if _, err := NextPurchaseOrderStatus(status, action); err == nil {
				t.Fatalf("%s from terminal %s: expected rejection", action, status)
			}
		}
	}
}
