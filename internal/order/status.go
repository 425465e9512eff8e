package order

import (
	"context"
	"fmt"

	"ms-venue-booking/internal/auth"
	"ms-venue-booking/internal/models"
	"ms-venue-booking/internal/order/db"
	"ms-venue-booking/internal/workflow"
)

// Confirm moves a new inquiry to confirmed.
func (s *OrderService) Confirm(ctx context.Context, actor *auth.Principal, id string) (*models.Order, error) {
	return s.transition(ctx, actor, id, workflow.ActionConfirm, workflow.Confirm)
}

// SendToApprover hands the BEO set to the approver.
func (s *OrderService) SendToApprover(ctx context.Context, actor *auth.Principal, id string) (*models.Order, error) {
	return s.transition(ctx, actor, id, workflow.ActionSendToApprover, workflow.SendToApprover)
}

// Approve is the approver's sign-off on the BEO set.
func (s *OrderService) Approve(ctx context.Context, actor *auth.Principal, id string) (*models.Order, error) {
	return s.transition(ctx, actor, id, workflow.ActionApprove, workflow.Approve)
}

// MarkComplete closes an order whose BEO has been approved.
func (s *OrderService) MarkComplete(ctx context.Context, actor *auth.Principal, id string) (*models.Order, error) {
	return s.transition(ctx, actor, id, workflow.ActionComplete, workflow.MarkComplete)
}

// transition applies step to the stored order and persists both status tracks.
// A rejected step leaves the row untouched.
func (s *OrderService) transition(ctx context.Context, actor *auth.Principal, id, action string, step func(*models.Order) error) (*models.Order, error) {
	var o *models.Order
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx *db.DB) error {
		cur, err := tx.GetOrderForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if err := step(cur); err != nil {
			return err
		}
		o = cur
		return tx.UpdateStatus(ctx, cur)
	})
	if err != nil {
		s.Logger.Warn("ORDER", fmt.Sprintf("[%s] %s rejected: %v", action, id, err))
		return nil, err
	}
	s.Logger.LogOrder(action, id, fmt.Sprintf("status=%s status_beo=%s", o.Status.Label(), o.StatusBeo.Label()))
	s.publish(ctx, models.OrderEventStatusChanged, *o, actor.ID())
	return o, nil
}
