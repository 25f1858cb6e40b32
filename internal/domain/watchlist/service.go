package watchlist

import (
	"context"
	"sort"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BenAji/agora-go/internal/domain/events"
	"github.com/BenAji/agora-go/internal/domain/feed"
	"github.com/BenAji/agora-go/pkg/logger"
)

// CompanyDirectory is the slice of the events repository the watchlist needs.
type CompanyDirectory interface {
	GetCompanyByID(ctx context.Context, id uuid.UUID) (*events.Company, error)
	GetCompanyByTicker(ctx context.Context, ticker string) (*events.Company, error)
}

// Notifier receives change signals emitted by mutations.
type Notifier interface {
	Publish(event *feed.ChangeEvent)
}

// Service defines the interface for watchlist business logic.
type Service interface {
	List(ctx context.Context, userID uuid.UUID) ([]*events.Company, error)
	Subscribe(ctx context.Context, userID uuid.UUID, ticker string) (*events.Company, error)
	Unsubscribe(ctx context.Context, userID, companyID uuid.UUID) error
	Reorder(ctx context.Context, userID uuid.UUID, orderedIDs []uuid.UUID) error
}

type service struct {
	repo      Repository
	directory CompanyDirectory
	orders    *OrderStore
	notifier  Notifier
	logger    *logger.Logger
}

// NewService creates a new watchlist service.
func NewService(repo Repository, directory CompanyDirectory, orders *OrderStore, notifier Notifier, log *logger.Logger) Service {
	return &service{
		repo:      repo,
		directory: directory,
		orders:    orders,
		notifier:  notifier,
		logger:    log,
	}
}

// List returns the user's companies in display order: the saved ordering
// first, then any newly subscribed companies by display rank.
func (s *service) List(ctx context.Context, userID uuid.UUID) ([]*events.Company, error) {
	subs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	companies := make([]*events.Company, 0, len(subs))
	byID := make(map[uuid.UUID]*events.Company, len(subs))
	for _, sub := range subs {
		company, err := s.directory.GetCompanyByID(ctx, sub.CompanyID)
		if err != nil {
			// A dangling subscription should not take down the whole list.
			s.logger.Warn("skipping watchlist entry", zap.String("company_id", sub.CompanyID.String()), zap.Error(err))
			continue
		}
		companies = append(companies, company)
		byID[company.ID] = company
	}

	saved := s.orders.Get(ctx, userID)
	if len(saved) == 0 {
		sortByRank(companies)
		return companies, nil
	}

	ordered := make([]*events.Company, 0, len(companies))
	for _, id := range saved {
		if c, ok := byID[id]; ok {
			ordered = append(ordered, c)
			delete(byID, id)
		}
	}
	rest := make([]*events.Company, 0, len(byID))
	for _, c := range byID {
		rest = append(rest, c)
	}
	sortByRank(rest)
	return append(ordered, rest...), nil
}

func sortByRank(companies []*events.Company) {
	sort.SliceStable(companies, func(i, j int) bool {
		if companies[i].DisplayRank != companies[j].DisplayRank {
			return companies[i].DisplayRank < companies[j].DisplayRank
		}
		return companies[i].Ticker < companies[j].Ticker
	})
}

func (s *service) Subscribe(ctx context.Context, userID uuid.UUID, ticker string) (*events.Company, error) {
	company, err := s.directory.GetCompanyByTicker(ctx, ticker)
	if err != nil {
		return nil, err
	}

	exists, err := s.repo.Exists(ctx, userID, company.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadySubscribed
	}

	sub := &Subscription{ID: uuid.New(), UserID: userID, CompanyID: company.ID}
	if err := s.repo.CreateSubscription(ctx, sub); err != nil {
		return nil, err
	}

	s.publish(feed.KindOrderChanged, company.ID)
	return company, nil
}

func (s *service) Unsubscribe(ctx context.Context, userID, companyID uuid.UUID) error {
	if err := s.repo.DeleteSubscription(ctx, userID, companyID); err != nil {
		return err
	}

	// Drop the company from the saved ordering as well.
	saved := s.orders.Get(ctx, userID)
	if len(saved) > 0 {
		pruned := make([]uuid.UUID, 0, len(saved))
		for _, id := range saved {
			if id != companyID {
				pruned = append(pruned, id)
			}
		}
		s.orders.Set(ctx, userID, pruned)
	}

	s.publish(feed.KindOrderChanged, companyID)
	return nil
}

// Reorder replaces the user's row ordering. Every id must belong to a
// current subscription; partial orderings are allowed and unlisted
// companies keep trailing by display rank.
func (s *service) Reorder(ctx context.Context, userID uuid.UUID, orderedIDs []uuid.UUID) error {
	subs, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return err
	}
	subscribed := make(map[uuid.UUID]bool, len(subs))
	for _, sub := range subs {
		subscribed[sub.CompanyID] = true
	}
	for _, id := range orderedIDs {
		if !subscribed[id] {
			return ErrUnknownCompany
		}
	}

	s.orders.Set(ctx, userID, orderedIDs)
	s.publish(feed.KindOrderChanged, userID)
	return nil
}

func (s *service) publish(kind string, id uuid.UUID) {
	if s.notifier != nil {
		s.notifier.Publish(feed.NewChange(kind, id))
	}
}
