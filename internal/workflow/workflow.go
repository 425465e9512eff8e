package workflow

import (
	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/models"
)

const (
	ActionConfirm        = "confirm"
	ActionComplete       = "complete"
	ActionSendToApprover = "send_to_approver"
	ActionApprove        = "approve"
)

var (
	ErrNotNewInquiry     = apperr.Business("only a new inquiry can be confirmed")
	ErrBeoNotApproved    = apperr.Business("order cannot be completed before the BEO is approved by the approver")
	ErrAlreadyCompleted  = apperr.Business("order is already completed")
	ErrNotConfirmed      = apperr.Business("only a confirmed order can be completed")
	ErrNotPlanning       = apperr.Business("BEO can only be sent to the approver while planning")
	ErrNotAwaitingReview = apperr.Business("BEO has not been sent to the approver")
)

var orderTransitions = map[string][]models.OrderStatus{
	ActionConfirm:  {models.OrderStatusNewInquiry},
	ActionComplete: {models.OrderStatusConfirmed},
}

var beoTransitions = map[string][]models.BeoStatus{
	ActionSendToApprover: {models.BeoStatusPlanning},
	ActionApprove:        {models.BeoStatusSentToApprover},
}

func ValidOrderTransition(action string, from models.OrderStatus) bool {
	for _, s := range orderTransitions[action] {
		if s == from {
			return true
		}
	}
	return false
}

func ValidBeoTransition(action string, from models.BeoStatus) bool {
	for _, s := range beoTransitions[action] {
		if s == from {
			return true
		}
	}
	return false
}

// Confirm moves a new inquiry to confirmed.
func Confirm(o *models.Order) error {
	if !ValidOrderTransition(ActionConfirm, o.Status) {
		return ErrNotNewInquiry
	}
	o.Status = models.OrderStatusConfirmed
	return nil
}

// MarkComplete is allowed only once the approver signed off the BEO set and
// the order is not completed yet. A rejected call leaves o untouched.
func MarkComplete(o *models.Order) error {
	if o.StatusBeo != models.BeoStatusApproverApproved {
		return ErrBeoNotApproved
	}
	if o.Status == models.OrderStatusCompleted {
		return ErrAlreadyCompleted
	}
	if !ValidOrderTransition(ActionComplete, o.Status) {
		return ErrNotConfirmed
	}
	o.Status = models.OrderStatusCompleted
	return nil
}

func SendToApprover(o *models.Order) error {
	if !ValidBeoTransition(ActionSendToApprover, o.StatusBeo) {
		return ErrNotPlanning
	}
	o.StatusBeo = models.BeoStatusSentToApprover
	return nil
}

// Approve records the approver's sign-off.
func Approve(o *models.Order) error {
	if !ValidBeoTransition(ActionApprove, o.StatusBeo) {
		return ErrNotAwaitingReview
	}
	o.StatusBeo = models.BeoStatusApproverApproved
	return nil
}

// OnBeoMutated applies the side effect of any BEO create, update or delete:
// department work after sign-off puts the order in progress. It reports
// whether the order changed.
func OnBeoMutated(o *models.Order) bool {
	if o.StatusBeo != models.BeoStatusApproverApproved {
		return false
	}
	o.StatusBeo = models.BeoStatusInProgress
	return true
}
