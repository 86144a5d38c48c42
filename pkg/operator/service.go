package operator

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/aurora-markets/aurora/pkg/ledger"
	"github.com/aurora-markets/aurora/pkg/order"
	"github.com/aurora-markets/aurora/pkg/txbuild"
	"github.com/aurora-markets/aurora/pkg/util"
)

var (
	// ErrRejectedSignature marks an ingested order whose signature fails.
	ErrRejectedSignature = errors.New("operator: order signature invalid")
	// ErrRejectedExpired marks an ingested order already past expiration.
	ErrRejectedExpired = errors.New("operator: order expired")
	// ErrRejectedCancelled marks an order whose hash was cancelled.
	ErrRejectedCancelled = errors.New("operator: order cancelled")
	// ErrNoMatch marks a match plan that found no crossing makers.
	ErrNoMatch = errors.New("operator: no crossing makers")
)

// EventType tags order-feed events pushed to subscribers.
type EventType string

const (
	EventOrderAccepted  EventType = "order_accepted"
	EventOrderCancelled EventType = "order_cancelled"
	EventMatchPlanned   EventType = "match_planned"
)

// Event is one order-feed message.
type Event struct {
	Type   EventType   `json:"type"`
	Hash   string      `json:"hash"`
	Market string      `json:"market,omitempty"`
	Maker  string      `json:"maker,omitempty"`
	Side   order.Side  `json:"side"`
	Detail interface{} `json:"detail,omitempty"`
}

// Service is the operator core: order intake, persistence, match planning,
// and settlement transaction assembly.
type Service struct {
	store     *Store
	log       *zap.Logger
	clock     util.Clock
	programID ledger.Pubkey
	operator  ledger.Pubkey
	derive    ledger.Derive

	mu   sync.Mutex
	subs []chan Event
}

func NewService(store *Store, log *zap.Logger, clock util.Clock,
	programID, operator ledger.Pubkey, derive ledger.Derive) *Service {
	return &Service{
		store:     store,
		log:       log,
		clock:     clock,
		programID: programID,
		operator:  operator,
		derive:    derive,
	}
}

// Subscribe returns a channel receiving order-feed events and a cancel
// function that removes the subscription and closes the channel. Slow
// consumers drop events rather than block intake.
func (s *Service) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, 64)
	s.mu.Lock()
	s.subs = append(s.subs, ch)
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		for i, c := range s.subs {
			if c == ch {
				s.subs = append(s.subs[:i], s.subs[i+1:]...)
				close(ch)
				return
			}
		}
	}
	return ch, cancel
}

func (s *Service) publish(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Ingest validates and persists one signed order, returning its hash.
func (s *Service) Ingest(o order.Order) ([order.HashLen]byte, error) {
	hash := o.Hash()
	if !order.Verify(o) {
		return hash, ErrRejectedSignature
	}
	now := s.clock.Now().Unix()
	if order.IsExpired(o, now) {
		return hash, ErrRejectedExpired
	}
	cancelled, err := s.store.IsCancelled(hash)
	if err != nil {
		return hash, err
	}
	if cancelled {
		return hash, ErrRejectedCancelled
	}
	if err := s.store.SaveOrder(o); err != nil {
		return hash, err
	}

	s.log.Info("order accepted",
		zap.String("hash", fmt.Sprintf("%x", hash)),
		zap.String("maker", o.Maker.Hex()),
		zap.String("market", o.Market.Hex()),
		zap.Uint8("side", uint8(o.Side)))
	s.publish(Event{
		Type:   EventOrderAccepted,
		Hash:   fmt.Sprintf("%x", hash),
		Market: o.Market.Hex(),
		Maker:  o.Maker.Hex(),
		Side:   o.Side,
	})
	return hash, nil
}

// Get loads one stored order by hash.
func (s *Service) Get(hash [order.HashLen]byte) (order.Order, error) {
	return s.store.GetOrder(hash)
}

// ListMarket returns the stored orders for a market, dropping anything
// expired at call time.
func (s *Service) ListMarket(market ledger.Pubkey) ([]order.Order, error) {
	orders, err := s.store.OrdersByMarket(market)
	if err != nil {
		return nil, err
	}
	now := s.clock.Now().Unix()
	live := orders[:0]
	for _, o := range orders {
		if !order.IsExpired(o, now) {
			live = append(live, o)
		}
	}
	return live, nil
}

// Cancel marks a hash cancelled and emits the feed event.
func (s *Service) Cancel(hash [order.HashLen]byte) error {
	if err := s.store.MarkCancelled(hash); err != nil {
		return err
	}
	s.log.Info("order cancelled", zap.String("hash", fmt.Sprintf("%x", hash)))
	s.publish(Event{Type: EventOrderCancelled, Hash: fmt.Sprintf("%x", hash)})
	return nil
}

// MatchPlan is a sized match: which makers to settle against and how much
// each side moves, plus the full-fill bitmask the sizing implies.
type MatchPlan struct {
	Taker      order.Order
	Makers     []order.Order
	MakerFills []uint64
	TakerFills []uint64
	Bitmask    uint8
}

// PlanMatch greedily fills a taker against crossing makers from the store,
// in the order returned by the market scan, up to the match size limit.
// Maker fills are sized in the maker's give units; the taker's capacity is
// its declared take amount.
func (s *Service) PlanMatch(taker order.Order) (MatchPlan, error) {
	candidates, err := s.store.OrdersByMarket(taker.Market)
	if err != nil {
		return MatchPlan{}, err
	}
	now := s.clock.Now().Unix()

	plan := MatchPlan{Taker: taker}
	remaining := taker.TakerAmount
	for _, m := range candidates {
		if remaining == 0 || len(plan.Makers) == txbuild.MaxMakers {
			break
		}
		if m.Maker == taker.Maker || order.IsExpired(m, now) {
			continue
		}
		bid, ask := taker, m
		if taker.Side == order.Ask {
			bid, ask = m, taker
		}
		if !order.CanCross(bid, ask) {
			continue
		}

		fill := m.MakerAmount
		if fill > remaining {
			fill = remaining
		}
		takerFill, err := order.TakerFill(m, fill)
		if err != nil {
			continue
		}

		if fill == m.MakerAmount {
			plan.Bitmask |= 1 << len(plan.Makers)
		}
		plan.Makers = append(plan.Makers, m)
		plan.MakerFills = append(plan.MakerFills, fill)
		plan.TakerFills = append(plan.TakerFills, takerFill)
		remaining -= fill
	}

	if len(plan.Makers) == 0 {
		return MatchPlan{}, ErrNoMatch
	}
	if remaining == 0 {
		plan.Bitmask |= 1 << txbuild.TakerFullFillBit
	}
	return plan, nil
}

// BuildMatch turns a plan into a settlement transaction signed-ready for
// the operator. BaseMint and quoteMint come from the market definition the
// caller holds.
func (s *Service) BuildMatch(plan MatchPlan, baseMint, quoteMint ledger.Pubkey) (ledger.Transaction, error) {
	params := txbuild.MatchParams{
		Operator:        s.operator,
		Market:          plan.Taker.Market,
		BaseMint:        baseMint,
		QuoteMint:       quoteMint,
		Taker:           plan.Taker,
		Makers:          plan.Makers,
		MakerFills:      plan.MakerFills,
		TakerFills:      plan.TakerFills,
		FullFillBitmask: plan.Bitmask,
		Now:             s.clock.Now().Unix(),
	}
	tx, err := txbuild.BuildMatchTransaction(params, s.programID, s.derive)
	if err != nil {
		return ledger.Transaction{}, err
	}

	takerHash := plan.Taker.Hash()
	s.log.Info("match planned",
		zap.String("taker", fmt.Sprintf("%x", takerHash)),
		zap.Int("makers", len(plan.Makers)),
		zap.Uint8("bitmask", plan.Bitmask))
	s.publish(Event{
		Type:   EventMatchPlanned,
		Hash:   fmt.Sprintf("%x", takerHash),
		Market: plan.Taker.Market.Hex(),
		Side:   plan.Taker.Side,
		Detail: map[string]int{"makers": len(plan.Makers)},
	})
	return tx, nil
}
