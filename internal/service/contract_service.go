package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/nurpe/carmate-contracts/internal/model"
	"github.com/nurpe/carmate-contracts/internal/notify"
	"github.com/nurpe/carmate-contracts/internal/repository"
)

const maxMeetings = 3

type Notifier interface {
	Enqueue(job notify.ContractCompleted) error
}

type SummaryGenerator interface {
	ContractSummary(contract model.Contract) ([]byte, error)
}

type ContractService struct {
	store    *repository.Store
	docs     *DocumentService
	notifier Notifier
	summary  SummaryGenerator
	log      zerolog.Logger
	now      func() time.Time
}

func NewContractService(
	store *repository.Store,
	docs *DocumentService,
	notifier Notifier,
	summary SummaryGenerator,
	log zerolog.Logger,
) *ContractService {
	return &ContractService{
		store:    store,
		docs:     docs,
		notifier: notifier,
		summary:  summary,
		log:      log.With().Str("component", "contracts").Logger(),
		now:      time.Now,
	}
}

type CreateContractInput struct {
	CarID      uint
	CustomerID uint
	Meetings   []model.MeetingInput
}

// UpdateContractInput is a partial update: nil fields are left untouched.
// Documents, when set, is the complete list the contract should end up with.
type UpdateContractInput struct {
	Status         *model.ContractStatus
	ResolutionDate *time.Time
	ContractPrice  *int64
	CarID          *uint
	CustomerID     *uint
	UserID         *uint
	Meetings       *[]model.MeetingInput
	Documents      *[]model.DocumentRef
}

type ContractColumn struct {
	Status    model.ContractStatus
	Contracts []model.Contract
}

func (s *ContractService) Create(ctx context.Context, actor model.Actor, input CreateContractInput) (*model.Contract, error) {
	meetings, err := buildMeetings(input.Meetings)
	if err != nil {
		return nil, err
	}

	var contractID uint
	err = s.store.RunInTx(ctx, func(tx *repository.Store) error {
		car, err := tx.Cars.FindForUpdate(ctx, input.CarID)
		if err != nil {
			return fmt.Errorf("car %d: %w", input.CarID, storeErr(err))
		}
		if car.CompanyID != actor.CompanyID {
			return fmt.Errorf("car %d: %w", input.CarID, ErrNotFound)
		}
		if car.Status != model.CarStatusPossession {
			return fmt.Errorf("%w: car %d is %s", ErrCarUnavailable, car.ID, car.Status)
		}
		if err := checkCustomer(ctx, tx, actor, input.CustomerID); err != nil {
			return err
		}

		contract := &model.Contract{
			Status:        model.ContractStatusCarInspection,
			ContractPrice: car.Price,
			CarID:         car.ID,
			CustomerID:    input.CustomerID,
			UserID:        actor.ID,
			CompanyID:     actor.CompanyID,
			Meetings:      meetings,
		}
		if err := tx.Contracts.Create(ctx, contract); err != nil {
			return storeErr(err)
		}
		contractID = contract.ID
		return carSync{tx: tx}.onCreate(ctx, car.ID)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Uint("contract_id", contractID).Uint("car_id", input.CarID).Uint("user_id", actor.ID).Msg("contract created")
	return s.detail(ctx, contractID)
}

func (s *ContractService) Update(ctx context.Context, actor model.Actor, contractID uint, input UpdateContractInput) (*model.Contract, error) {
	var meetings []model.Meeting
	if input.Meetings != nil {
		var err error
		if meetings, err = buildMeetings(*input.Meetings); err != nil {
			return nil, err
		}
	}
	if input.ContractPrice != nil && *input.ContractPrice < 0 {
		return nil, fmt.Errorf("%w: contract price must not be negative", ErrInvalidInput)
	}

	var (
		before, after model.Contract
		discarded     []model.ContractDocument
	)
	err := s.store.RunInTx(ctx, func(tx *repository.Store) error {
		current, err := lockOwnedContract(ctx, tx, actor, contractID)
		if err != nil {
			return err
		}
		before = *current
		after = *current

		if input.Status != nil {
			after.Status = *input.Status
		}
		if input.ContractPrice != nil {
			after.ContractPrice = *input.ContractPrice
		}
		if input.CarID != nil {
			after.CarID = *input.CarID
		}
		if input.CustomerID != nil && *input.CustomerID != before.CustomerID {
			if err := checkCustomer(ctx, tx, actor, *input.CustomerID); err != nil {
				return err
			}
			after.CustomerID = *input.CustomerID
		}
		if input.UserID != nil && *input.UserID != before.UserID {
			user, err := tx.Users.Find(ctx, *input.UserID)
			if err != nil || user.CompanyID != actor.CompanyID {
				return fmt.Errorf("user %d: %w", *input.UserID, ErrNotFound)
			}
			after.UserID = user.ID
		}

		car, err := tx.Cars.FindForUpdate(ctx, after.CarID)
		if err != nil {
			return fmt.Errorf("car %d: %w", after.CarID, storeErr(err))
		}
		if car.CompanyID != actor.CompanyID {
			return fmt.Errorf("car %d: %w", after.CarID, ErrNotFound)
		}
		if err := ValidateTransition(before.Status, after.Status, car.Status); err != nil {
			return err
		}
		if after.CarID != before.CarID && after.Status != model.ContractStatusContractFailed && car.Status != model.CarStatusPossession {
			return fmt.Errorf("%w: car %d is %s", ErrCarUnavailable, car.ID, car.Status)
		}

		after.ResolutionDate = resolutionDate(before.Status, before.ResolutionDate, after.Status, input.ResolutionDate, s.now())
		if err := tx.Contracts.Update(ctx, &after); err != nil {
			return storeErr(err)
		}
		if input.Meetings != nil {
			if err := tx.Contracts.ReplaceMeetings(ctx, contractID, meetings); err != nil {
				return err
			}
		}
		if err := (carSync{tx: tx}).onUpdate(ctx, before, after); err != nil {
			return err
		}

		switch {
		case before.Status == model.ContractStatusContractSuccessful && after.Status != model.ContractStatusContractSuccessful:
			discarded, err = s.docs.purgeTx(ctx, tx, contractID)
		case input.Documents != nil:
			discarded, err = s.docs.reconcileTx(ctx, tx, &after, *input.Documents)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	s.docs.discardBlobs(discarded)

	if before.Status != after.Status {
		s.log.Info().
			Uint("contract_id", contractID).
			Str("from", string(before.Status)).
			Str("to", string(after.Status)).
			Msg("contract status changed")
	}

	contract, err := s.detail(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if after.Status == model.ContractStatusContractSuccessful && input.Documents != nil && len(*input.Documents) > 0 {
		s.notifyCompleted(contract)
	}
	return contract, nil
}

func (s *ContractService) Delete(ctx context.Context, actor model.Actor, contractID uint) error {
	var discarded []model.ContractDocument
	err := s.store.RunInTx(ctx, func(tx *repository.Store) error {
		current, err := lockOwnedContract(ctx, tx, actor, contractID)
		if err != nil {
			return err
		}
		if discarded, err = s.docs.purgeTx(ctx, tx, contractID); err != nil {
			return err
		}
		if err := tx.Contracts.Delete(ctx, contractID); err != nil {
			return storeErr(err)
		}
		return carSync{tx: tx}.onDelete(ctx, *current)
	})
	if err != nil {
		return err
	}
	s.docs.discardBlobs(discarded)
	s.log.Info().Uint("contract_id", contractID).Int("documents", len(discarded)).Msg("contract deleted")
	return nil
}

func (s *ContractService) Get(ctx context.Context, actor model.Actor, contractID uint) (*model.Contract, error) {
	contract, err := s.detail(ctx, contractID)
	if err != nil {
		return nil, err
	}
	if contract.CompanyID != actor.CompanyID {
		return nil, ErrNotFound
	}
	return contract, nil
}

// List returns the company's contracts grouped by status in board order.
func (s *ContractService) List(ctx context.Context, actor model.Actor, searchBy, keyword string) ([]ContractColumn, error) {
	filter := repository.ContractFilter{CompanyID: actor.CompanyID, Keyword: keyword}
	if keyword != "" {
		switch field := repository.ContractSearchField(searchBy); field {
		case repository.ContractSearchByCustomerName, repository.ContractSearchByUserName:
			filter.SearchBy = field
		default:
			return nil, fmt.Errorf("%w: unknown searchBy %q", ErrInvalidInput, searchBy)
		}
	}

	contracts, err := s.store.Contracts.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	columns := make([]ContractColumn, len(model.ContractStatuses))
	index := make(map[model.ContractStatus]int, len(model.ContractStatuses))
	for i, status := range model.ContractStatuses {
		columns[i] = ContractColumn{Status: status, Contracts: []model.Contract{}}
		index[status] = i
	}
	for _, contract := range contracts {
		if i, ok := index[contract.Status]; ok {
			columns[i].Contracts = append(columns[i].Contracts, contract)
		}
	}
	return columns, nil
}

// Summary renders the contract as a one-page PDF.
func (s *ContractService) Summary(ctx context.Context, actor model.Actor, contractID uint) (string, []byte, error) {
	contract, err := s.Get(ctx, actor, contractID)
	if err != nil {
		return "", nil, err
	}
	content, err := s.summary.ContractSummary(*contract)
	if err != nil {
		return "", nil, err
	}
	return fmt.Sprintf("contract_%d.pdf", contract.ID), content, nil
}

// SelectableCars lists the cars a new contract may claim.
func (s *ContractService) SelectableCars(ctx context.Context, actor model.Actor) ([]model.SelectOption, error) {
	cars, err := s.store.Cars.ListAvailable(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	options := make([]model.SelectOption, 0, len(cars))
	for _, car := range cars {
		options = append(options, model.SelectOption{ID: car.ID, Label: car.Describe()})
	}
	return options, nil
}

func (s *ContractService) SelectableCustomers(ctx context.Context, actor model.Actor) ([]model.SelectOption, error) {
	customers, err := s.store.Customers.ListByCompany(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	options := make([]model.SelectOption, 0, len(customers))
	for _, customer := range customers {
		email := "이메일 없음"
		if customer.Email != nil && *customer.Email != "" {
			email = *customer.Email
		}
		options = append(options, model.SelectOption{ID: customer.ID, Label: customer.Name + "(" + email + ")"})
	}
	return options, nil
}

func (s *ContractService) SelectableUsers(ctx context.Context, actor model.Actor) ([]model.SelectOption, error) {
	users, err := s.store.Users.ListByCompany(ctx, actor.CompanyID)
	if err != nil {
		return nil, err
	}
	options := make([]model.SelectOption, 0, len(users))
	for _, user := range users {
		options = append(options, model.SelectOption{ID: user.ID, Label: user.Name + "(" + user.Email + ")"})
	}
	return options, nil
}

// lockOwnedContract locks the contract row for a change by actor. Another
// company's contract reads as missing; only the assigned salesperson may
// change it.
func lockOwnedContract(ctx context.Context, tx *repository.Store, actor model.Actor, contractID uint) (*model.Contract, error) {
	contract, err := tx.Contracts.FindForUpdate(ctx, contractID)
	if err != nil {
		return nil, storeErr(err)
	}
	if contract.CompanyID != actor.CompanyID {
		return nil, ErrNotFound
	}
	if contract.UserID != actor.ID {
		return nil, fmt.Errorf("%w: only the assigned salesperson may change this contract", ErrForbidden)
	}
	return contract, nil
}

func (s *ContractService) detail(ctx context.Context, contractID uint) (*model.Contract, error) {
	contract, err := s.store.Contracts.FindDetail(ctx, contractID)
	if err != nil {
		return nil, storeErr(err)
	}
	return contract, nil
}

// notifyCompleted hands the final document set to the dispatcher. It runs
// after commit and never fails the update.
func (s *ContractService) notifyCompleted(contract *model.Contract) {
	if s.notifier == nil || len(contract.Documents) == 0 {
		return
	}
	if contract.Customer == nil || contract.Customer.Email == nil || *contract.Customer.Email == "" {
		s.log.Warn().Uint("contract_id", contract.ID).Msg("customer has no email address, skipping contract email")
		return
	}

	docs := make([]model.DocumentRef, 0, len(contract.Documents))
	for _, doc := range contract.Documents {
		docs = append(docs, model.DocumentRef{ID: doc.ID, FileName: doc.FileName})
	}
	carName := ""
	if contract.Car != nil {
		carName = contract.Car.Describe()
	}

	err := s.notifier.Enqueue(notify.ContractCompleted{
		CustomerEmail: *contract.Customer.Email,
		CustomerName:  contract.Customer.Name,
		CustomerID:    contract.CustomerID,
		ContractID:    contract.ID,
		CarName:       carName,
		Documents:     docs,
	})
	if err != nil {
		s.log.Error().Err(err).Uint("contract_id", contract.ID).Msg("failed to enqueue contract email")
	}
}

func checkCustomer(ctx context.Context, tx *repository.Store, actor model.Actor, customerID uint) error {
	customer, err := tx.Customers.Find(ctx, customerID)
	if err != nil {
		return fmt.Errorf("customer %d: %w", customerID, storeErr(err))
	}
	if customer.CompanyID != actor.CompanyID {
		return fmt.Errorf("customer %d: %w", customerID, ErrNotFound)
	}
	return nil
}

func buildMeetings(inputs []model.MeetingInput) ([]model.Meeting, error) {
	if len(inputs) > maxMeetings {
		return nil, fmt.Errorf("%w: at most %d meetings per contract", ErrInvalidInput, maxMeetings)
	}
	meetings := make([]model.Meeting, 0, len(inputs))
	for _, in := range inputs {
		if in.Date.IsZero() {
			return nil, fmt.Errorf("%w: meeting date is required", ErrInvalidInput)
		}
		meeting := model.Meeting{Date: in.Date}
		for _, alarm := range in.Alarms {
			meeting.Notifications = append(meeting.Notifications, model.Notification{AlarmTime: alarm})
		}
		meetings = append(meetings, meeting)
	}
	return meetings, nil
}
