package customer

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"ms-venue-booking/internal/apperr"
	"ms-venue-booking/internal/logger"
	"ms-venue-booking/internal/models"
)

var ErrCustomerHasOrders = apperr.Business("customer still has orders and cannot be deleted")

type Input struct {
	Organizer     string `json:"organizer" validate:"required,max=255"`
	Address       string `json:"address" validate:"max=1000"`
	ContactPerson string `json:"contact_person" validate:"max=255"`
	Phone         string `json:"phone" validate:"max=50"`
	Email         string `json:"email" validate:"required,email"`
	KLStatus      bool   `json:"kl_status"`
}

type DBLayer interface {
	List(ctx context.Context, search string) ([]models.Customer, error)
	Get(ctx context.Context, id string) (*models.Customer, error)
	EmailTaken(ctx context.Context, email, excludeID string) (bool, error)
	Insert(ctx context.Context, c *models.Customer) error
	Update(ctx context.Context, c *models.Customer) error
	Delete(ctx context.Context, id string) error
}

type Service struct {
	DB     DBLayer
	Logger *logger.Logger
}

func NewService(db DBLayer, log *logger.Logger) *Service {
	return &Service{DB: db, Logger: log}
}

func (s *Service) List(ctx context.Context, search string) ([]models.Customer, error) {
	return s.DB.List(ctx, strings.TrimSpace(search))
}

func (s *Service) Get(ctx context.Context, id string) (*models.Customer, error) {
	return s.DB.Get(ctx, id)
}

func (s *Service) Create(ctx context.Context, in Input) (*models.Customer, error) {
	if err := s.check(ctx, in, ""); err != nil {
		return nil, err
	}
	c := &models.Customer{ID: uuid.NewString()}
	in.apply(c)
	if err := s.DB.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	s.Logger.Info("CUSTOMER", fmt.Sprintf("Created customer %s (%s)", c.Organizer, c.ID))
	return c, nil
}

func (s *Service) Update(ctx context.Context, id string, in Input) (*models.Customer, error) {
	c, err := s.DB.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.check(ctx, in, id); err != nil {
		return nil, err
	}
	in.apply(c)
	if err := s.DB.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("update customer: %w", err)
	}
	return c, nil
}

// Delete refuses while any live order references the customer.
func (s *Service) Delete(ctx context.Context, id string) error {
	c, err := s.DB.Get(ctx, id)
	if err != nil {
		return err
	}
	if c.OrdersCount > 0 {
		return ErrCustomerHasOrders
	}
	if err := s.DB.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete customer: %w", err)
	}
	s.Logger.Info("CUSTOMER", fmt.Sprintf("Deleted customer %s", id))
	return nil
}

func (s *Service) check(ctx context.Context, in Input, excludeID string) error {
	if err := apperr.Validate(in); err != nil {
		return err
	}
	taken, err := s.DB.EmailTaken(ctx, strings.TrimSpace(in.Email), excludeID)
	if err != nil {
		return fmt.Errorf("check email: %w", err)
	}
	if taken {
		return apperr.Field("email", "is already used by another customer")
	}
	return nil
}

func (in Input) apply(c *models.Customer) {
	c.Organizer = strings.TrimSpace(in.Organizer)
	c.Address = in.Address
	c.ContactPerson = in.ContactPerson
	c.Phone = in.Phone
	c.Email = strings.ToLower(strings.TrimSpace(in.Email))
	c.KLStatus = in.KLStatus
}
