// Package limitstore is the price-ordered multiset of open limit orders
// keyed by trading pair and side, generalized from a single-asset matching
// book into one bid/ask pair of btrees per trading pair.
package limitstore

import (
	"errors"
	"sync"

	"github.com/fenrir-labs/xemm/internal/types"
	"github.com/tidwall/btree"
)

// ErrOrderNotFound is the error value for an unknown order id. Erase and
// Lookup do not return it; they report a missing id through their bool result.
var ErrOrderNotFound = errors.New("limitstore: order not found")

type orders = btree.BTreeG[*types.LimitOrder]

// pairBook holds one pair's bid and ask multisets, each ordered by (price,
// insertion sequence) so that same-price orders iterate in stable arrival
// order (invariant L2).
type pairBook struct {
	bids *orders
	asks *orders
}

func newPairBook() *pairBook {
	bids := btree.NewBTreeG(func(a, b *types.LimitOrder) bool {
		if !a.Price.Equal(b.Price) {
			return a.Price.GreaterThan(b.Price)
		}
		return a.InsertionSeq < b.InsertionSeq
	})
	asks := btree.NewBTreeG(func(a, b *types.LimitOrder) bool {
		if !a.Price.Equal(b.Price) {
			return a.Price.LessThan(b.Price)
		}
		return a.InsertionSeq < b.InsertionSeq
	})
	return &pairBook{bids: bids, asks: asks}
}

func (pb *pairBook) side(isBuy bool) *orders {
	if isBuy {
		return pb.bids
	}
	return pb.asks
}

// Store is the limit-order multiset across every trading pair. Safe for
// single-threaded use within a tick; C4 is the sole mutator.
type Store struct {
	mu      sync.Mutex
	byPair  map[string]*pairBook
	byID    map[string]*types.LimitOrder
	seqNext uint64
}

// New returns an empty store.
func New() *Store {
	return &Store{
		byPair: make(map[string]*pairBook),
		byID:   make(map[string]*types.LimitOrder),
	}
}

func (s *Store) pairBookFor(pair types.TradingPair) *pairBook {
	pb, ok := s.byPair[pair.Key()]
	if !ok {
		pb = newPairBook()
		s.byPair[pair.Key()] = pb
	}
	return pb
}

// Insert adds order to the relevant side of its pair's book, assigning it
// the next insertion sequence number.
func (s *Store) Insert(order types.LimitOrder) *types.LimitOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	order.InsertionSeq = s.seqNext
	s.seqNext++

	stored := &order
	pb := s.pairBookFor(order.TradingPair)
	pb.side(order.IsBuy()).Set(stored)
	s.byID[order.ClientOrderID] = stored
	return stored
}

// Erase removes an order by id, returning it and whether it was present.
func (s *Store) Erase(orderID string) (*types.LimitOrder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	order, ok := s.byID[orderID]
	if !ok {
		return nil, false
	}
	delete(s.byID, orderID)

	pb, ok := s.byPair[order.TradingPair.Key()]
	if ok {
		pb.side(order.IsBuy()).Delete(order)
	}
	return order, true
}

// Lookup returns the resting order for id, if any.
func (s *Store) Lookup(orderID string) (*types.LimitOrder, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	order, ok := s.byID[orderID]
	return order, ok
}

// ForwardIter returns a snapshot slice of the orders resting on one side of
// a pair's book, in price-time priority (best price first, ties broken by
// arrival order). Destructive traversals must collect the ids to remove
// from this slice first and Erase them in a second pass, never mutate the
// book mid-scan.
func (s *Store) ForwardIter(pair types.TradingPair, isBuy bool) []*types.LimitOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	pb, ok := s.byPair[pair.Key()]
	if !ok {
		return nil
	}

	tree := pb.side(isBuy)
	out := make([]*types.LimitOrder, 0, tree.Len())
	tree.Scan(func(o *types.LimitOrder) bool {
		out = append(out, o)
		return true
	})
	return out
}

// ReverseIter is ForwardIter in the opposite direction (worst price first).
func (s *Store) ReverseIter(pair types.TradingPair, isBuy bool) []*types.LimitOrder {
	fwd := s.ForwardIter(pair, isBuy)
	out := make([]*types.LimitOrder, len(fwd))
	for i, o := range fwd {
		out[len(fwd)-1-i] = o
	}
	return out
}

// All returns every resting order across every pair, in no particular
// order. Used for balance on-hold accounting, which must sum over every
// open order regardless of pair.
func (s *Store) All() []*types.LimitOrder {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*types.LimitOrder, 0, len(s.byID))
	for _, o := range s.byID {
		out = append(out, o)
	}
	return out
}

// Len returns the number of resting orders on one side of a pair's book.
func (s *Store) Len(pair types.TradingPair, isBuy bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	pb, ok := s.byPair[pair.Key()]
	if !ok {
		return 0
	}
	return pb.side(isBuy).Len()
}
