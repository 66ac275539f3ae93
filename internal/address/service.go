package address

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/freshcart/freshcart-backend/pkg/db/models"
	pkgerrors "github.com/freshcart/freshcart-backend/pkg/errors"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

var (
	phonePattern   = regexp.MustCompile(`^[0-9]{10}$`)
	pincodePattern = regexp.MustCompile(`^[0-9]{6}$`)
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Store is the persistence surface the address service operates on.
type Store interface {
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Address, error)
	FindByID(ctx context.Context, userID, id uuid.UUID) (*models.Address, error)
	FindDefault(ctx context.Context, userID uuid.UUID) (*models.Address, error)
	Exists(ctx context.Context, userID, id uuid.UUID) (bool, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int64, error)
	Create(ctx context.Context, address *models.Address) error
	Save(ctx context.Context, address *models.Address) error
	Delete(ctx context.Context, userID, id uuid.UUID) error
	UnsetDefaults(ctx context.Context, userID uuid.UUID) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) error
	MostRecent(ctx context.Context, userID uuid.UUID) (*models.Address, error)
	WithTx(tx *gorm.DB) Store
}

// Service manages a user's address book while keeping the single-default
// invariant: at most one address per user carries is_default.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]View, error)
	Get(ctx context.Context, userID, id uuid.UUID) (*View, error)
	GetDefault(ctx context.Context, userID uuid.UUID) (*View, error)
	Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*View, error)
	Update(ctx context.Context, userID, id uuid.UUID, req UpdateRequest) (*View, error)
	Delete(ctx context.Context, userID, id uuid.UUID) error
	SetDefault(ctx context.Context, userID, id uuid.UUID) (*View, error)
}

type service struct {
	repo Store
	tx   txRunner
}

// ServiceParams bundles the address service dependencies.
type ServiceParams struct {
	Repo Store
	Tx   txRunner
}

// NewService builds the address service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("address repository required")
	}
	if params.Tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{repo: params.Repo, tx: params.Tx}, nil
}

func (s *service) List(ctx context.Context, userID uuid.UUID) ([]View, error) {
	addresses, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list addresses")
	}
	views := make([]View, 0, len(addresses))
	for i := range addresses {
		views = append(views, viewFromModel(&addresses[i]))
	}
	return views, nil
}

func (s *service) Get(ctx context.Context, userID, id uuid.UUID) (*View, error) {
	address, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, addressNotFoundOr(err, "load address")
	}
	view := viewFromModel(address)
	return &view, nil
}

func (s *service) GetDefault(ctx context.Context, userID uuid.UUID) (*View, error) {
	address, err := s.repo.FindDefault(ctx, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "no default address set")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load default address")
	}
	view := viewFromModel(address)
	return &view, nil
}

// Create stores a new address. The user's first address always becomes
// the default; an explicit is_default displaces the current one.
func (s *service) Create(ctx context.Context, userID uuid.UUID, req CreateRequest) (*View, error) {
	address := &models.Address{
		UserID:       userID,
		Name:         strings.TrimSpace(req.Name),
		Phone:        strings.TrimSpace(req.Phone),
		AddressLine1: strings.TrimSpace(req.AddressLine1),
		AddressLine2: req.AddressLine2,
		City:         strings.TrimSpace(req.City),
		State:        strings.TrimSpace(req.State),
		Pincode:      strings.TrimSpace(req.Pincode),
	}
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	count, err := s.repo.CountByUser(ctx, userID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count addresses")
	}
	address.IsDefault = req.IsDefault || count == 0

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if address.IsDefault {
			if err := repo.UnsetDefaults(ctx, userID); err != nil {
				return err
			}
		}
		return repo.Create(ctx, address)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create address")
	}
	view := viewFromModel(address)
	return &view, nil
}

func (s *service) Update(ctx context.Context, userID, id uuid.UUID, req UpdateRequest) (*View, error) {
	address, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return nil, addressNotFoundOr(err, "load address")
	}

	if req.Name != nil {
		address.Name = strings.TrimSpace(*req.Name)
	}
	if req.Phone != nil {
		address.Phone = strings.TrimSpace(*req.Phone)
	}
	if req.AddressLine1 != nil {
		address.AddressLine1 = strings.TrimSpace(*req.AddressLine1)
	}
	if req.AddressLine2 != nil {
		address.AddressLine2 = req.AddressLine2
	}
	if req.City != nil {
		address.City = strings.TrimSpace(*req.City)
	}
	if req.State != nil {
		address.State = strings.TrimSpace(*req.State)
	}
	if req.Pincode != nil {
		address.Pincode = strings.TrimSpace(*req.Pincode)
	}
	if err := validateAddress(address); err != nil {
		return nil, err
	}

	if err := s.repo.Save(ctx, address); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update address")
	}
	view := viewFromModel(address)
	return &view, nil
}

// Delete removes the address. Deleting the default promotes the most
// recently created survivor so a default remains while any address exists.
func (s *service) Delete(ctx context.Context, userID, id uuid.UUID) error {
	address, err := s.repo.FindByID(ctx, userID, id)
	if err != nil {
		return addressNotFoundOr(err, "load address")
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Delete(ctx, userID, address.ID); err != nil {
			return err
		}
		if !address.IsDefault {
			return nil
		}
		survivor, err := repo.MostRecent(ctx, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}
		return repo.SetDefault(ctx, userID, survivor.ID)
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete address")
	}
	return nil
}

// SetDefault flags the address as default, unsetting every other one in
// the same transaction.
func (s *service) SetDefault(ctx context.Context, userID, id uuid.UUID) (*View, error) {
	if _, err := s.repo.FindByID(ctx, userID, id); err != nil {
		return nil, addressNotFoundOr(err, "load address")
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.UnsetDefaults(ctx, userID); err != nil {
			return err
		}
		return repo.SetDefault(ctx, userID, id)
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set default address")
	}
	return s.Get(ctx, userID, id)
}

func validateAddress(a *models.Address) error {
	switch {
	case a.Name == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	case !phonePattern.MatchString(a.Phone):
		return pkgerrors.New(pkgerrors.CodeValidation, "phone must be 10 digits")
	case a.AddressLine1 == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "address line 1 is required")
	case a.City == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "city is required")
	case a.State == "":
		return pkgerrors.New(pkgerrors.CodeValidation, "state is required")
	case !pincodePattern.MatchString(a.Pincode):
		return pkgerrors.New(pkgerrors.CodeValidation, "pincode must be 6 digits")
	}
	return nil
}

func addressNotFoundOr(err error, wrapMsg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, "address not found")
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, wrapMsg)
}
