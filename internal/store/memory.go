package store

import (
	"context"
	"maps"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/nandigama/InvestSimulate2/internal/models"
)

type posKey struct {
	accountID int64
	symbol    string
}

// memState is the whole in-memory dataset. Records are stored by value
// and replaced wholesale on writes, so a shallow clone of the
// containers is a complete snapshot.
type memState struct {
	accounts      map[int64]models.Account
	usernames     map[string]int64
	positions     map[posKey]models.Position
	transactions  []models.Transaction
	copiedTrades  map[int64]models.CopiedTrade
	follows       []models.FollowEdge
	settings      map[int64]models.CopySetting
	subscriptions map[int64]models.Subscription
	seq           int64
}

func newMemState() *memState {
	return &memState{
		accounts:      make(map[int64]models.Account),
		usernames:     make(map[string]int64),
		positions:     make(map[posKey]models.Position),
		copiedTrades:  make(map[int64]models.CopiedTrade),
		settings:      make(map[int64]models.CopySetting),
		subscriptions: make(map[int64]models.Subscription),
	}
}

func (st *memState) clone() *memState {
	return &memState{
		accounts:      maps.Clone(st.accounts),
		usernames:     maps.Clone(st.usernames),
		positions:     maps.Clone(st.positions),
		transactions:  slices.Clone(st.transactions),
		copiedTrades:  maps.Clone(st.copiedTrades),
		follows:       slices.Clone(st.follows),
		settings:      maps.Clone(st.settings),
		subscriptions: maps.Clone(st.subscriptions),
		seq:           st.seq,
	}
}

func (st *memState) nextID() int64 {
	st.seq++
	return st.seq
}

// Memory is an ephemeral Store. A single mutex guards the dataset;
// WithinTx runs its function against a clone and swaps it in only on
// success, so a failed transaction leaves no partial state behind.
type Memory struct {
	mu sync.Mutex
	st *memState
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{st: newMemState()}
}

func (m *Memory) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	work := m.st.clone()
	if err := fn(&memView{st: work}); err != nil {
		return err
	}
	m.st = work
	return nil
}

// Every plain operation takes the store lock and delegates to the
// unlocked view, which is the same code path transactions use.

func (m *Memory) CreateAccount(ctx context.Context, username string, balance decimal.Decimal) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).CreateAccount(ctx, username, balance)
}

func (m *Memory) Account(ctx context.Context, id int64) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).Account(ctx, id)
}

func (m *Memory) AccountByUsername(ctx context.Context, username string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).AccountByUsername(ctx, username)
}

func (m *Memory) Accounts(ctx context.Context) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).Accounts(ctx)
}

func (m *Memory) Traders(ctx context.Context) ([]models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).Traders(ctx)
}

func (m *Memory) UpdateTraderProfile(ctx context.Context, id int64, isTrader bool, fee decimal.Decimal, bio string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).UpdateTraderProfile(ctx, id, isTrader, fee, bio)
}

func (m *Memory) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).AdjustBalance(ctx, id, delta)
}

func (m *Memory) Position(ctx context.Context, accountID int64, symbol string) (models.Position, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).Position(ctx, accountID, symbol)
}

func (m *Memory) Positions(ctx context.Context, accountID int64) ([]models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).Positions(ctx, accountID)
}

func (m *Memory) UpsertPosition(ctx context.Context, p models.Position) (models.Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).UpsertPosition(ctx, p)
}

func (m *Memory) DeletePosition(ctx context.Context, accountID int64, symbol string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).DeletePosition(ctx, accountID, symbol)
}

func (m *Memory) AppendTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).AppendTransaction(ctx, t)
}

func (m *Memory) Transactions(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).Transactions(ctx, accountID)
}

func (m *Memory) AppendCopiedTrade(ctx context.Context, ct models.CopiedTrade) (models.CopiedTrade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).AppendCopiedTrade(ctx, ct)
}

func (m *Memory) UpdateCopiedTradeStatus(ctx context.Context, id int64, status models.CopyStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).UpdateCopiedTradeStatus(ctx, id, status)
}

func (m *Memory) CopiedTrades(ctx context.Context, followerAccountID int64) ([]models.CopiedTrade, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).CopiedTrades(ctx, followerAccountID)
}

func (m *Memory) Follow(ctx context.Context, followerID, followedID int64) (models.FollowEdge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).Follow(ctx, followerID, followedID)
}

func (m *Memory) Unfollow(ctx context.Context, followerID, followedID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).Unfollow(ctx, followerID, followedID)
}

func (m *Memory) Followers(ctx context.Context, accountID int64) ([]models.FollowEdge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).Followers(ctx, accountID)
}

func (m *Memory) CreateCopySetting(ctx context.Context, s models.CopySetting) (models.CopySetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).CreateCopySetting(ctx, s)
}

func (m *Memory) UpdateCopySetting(ctx context.Context, s models.CopySetting) (models.CopySetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).UpdateCopySetting(ctx, s)
}

func (m *Memory) CopySettings(ctx context.Context, accountID int64) ([]models.CopySetting, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).CopySettings(ctx, accountID)
}

func (m *Memory) CreateSubscription(ctx context.Context, subscriberID, traderID int64, fee decimal.Decimal) (models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).CreateSubscription(ctx, subscriberID, traderID, fee)
}

func (m *Memory) CancelSubscription(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).CancelSubscription(ctx, id)
}

func (m *Memory) ActiveSubscriptions(ctx context.Context, subscriberID int64) ([]models.Subscription, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return (&memView{m.st}).ActiveSubscriptions(ctx, subscriberID)
}

// memView operates on a state without locking. It backs both direct
// calls (under the Memory mutex) and transaction scopes (on a clone).
type memView struct {
	st *memState
}

func (v *memView) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	// Already inside an atomic scope; join it.
	return fn(v)
}

func (v *memView) CreateAccount(ctx context.Context, username string, balance decimal.Decimal) (models.Account, error) {
	if _, taken := v.st.usernames[username]; taken {
		return models.Account{}, models.ErrUsernameTaken
	}
	a := models.Account{
		ID:              v.st.nextID(),
		Username:        username,
		CashBalance:     balance,
		SubscriptionFee: decimal.Zero,
		CreatedAt:       time.Now().UTC(),
	}
	v.st.accounts[a.ID] = a
	v.st.usernames[username] = a.ID
	return a, nil
}

func (v *memView) Account(ctx context.Context, id int64) (models.Account, error) {
	a, ok := v.st.accounts[id]
	if !ok {
		return models.Account{}, models.ErrAccountNotFound
	}
	return a, nil
}

func (v *memView) AccountByUsername(ctx context.Context, username string) (models.Account, error) {
	id, ok := v.st.usernames[username]
	if !ok {
		return models.Account{}, models.ErrAccountNotFound
	}
	return v.st.accounts[id], nil
}

func (v *memView) Accounts(ctx context.Context) ([]models.Account, error) {
	out := make([]models.Account, 0, len(v.st.accounts))
	for _, a := range v.st.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *memView) Traders(ctx context.Context) ([]models.Account, error) {
	all, _ := v.Accounts(ctx)
	out := all[:0]
	for _, a := range all {
		if a.IsTrader {
			out = append(out, a)
		}
	}
	return out, nil
}

func (v *memView) UpdateTraderProfile(ctx context.Context, id int64, isTrader bool, fee decimal.Decimal, bio string) (models.Account, error) {
	a, ok := v.st.accounts[id]
	if !ok {
		return models.Account{}, models.ErrAccountNotFound
	}
	a.IsTrader = isTrader
	a.SubscriptionFee = fee
	a.Bio = bio
	v.st.accounts[id] = a
	return a, nil
}

func (v *memView) AdjustBalance(ctx context.Context, id int64, delta decimal.Decimal) (models.Account, error) {
	a, ok := v.st.accounts[id]
	if !ok {
		return models.Account{}, models.ErrAccountNotFound
	}
	next := a.CashBalance.Add(delta)
	if next.IsNegative() {
		return models.Account{}, models.ErrInsufficientFunds
	}
	a.CashBalance = next
	v.st.accounts[id] = a
	return a, nil
}

func (v *memView) Position(ctx context.Context, accountID int64, symbol string) (models.Position, bool, error) {
	p, ok := v.st.positions[posKey{accountID, symbol}]
	return p, ok, nil
}

func (v *memView) Positions(ctx context.Context, accountID int64) ([]models.Position, error) {
	var out []models.Position
	for _, p := range v.st.positions {
		if p.AccountID == accountID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out, nil
}

func (v *memView) UpsertPosition(ctx context.Context, p models.Position) (models.Position, error) {
	key := posKey{p.AccountID, p.Symbol}
	if existing, ok := v.st.positions[key]; ok {
		p.ID = existing.ID
	} else {
		p.ID = v.st.nextID()
	}
	p.UpdatedAt = time.Now().UTC()
	v.st.positions[key] = p
	return p, nil
}

func (v *memView) DeletePosition(ctx context.Context, accountID int64, symbol string) error {
	delete(v.st.positions, posKey{accountID, symbol})
	return nil
}

func (v *memView) AppendTransaction(ctx context.Context, t models.Transaction) (models.Transaction, error) {
	t.ID = v.st.nextID()
	if t.Timestamp.IsZero() {
		t.Timestamp = time.Now().UTC()
	}
	v.st.transactions = append(v.st.transactions, t)
	return t, nil
}

func (v *memView) Transactions(ctx context.Context, accountID int64) ([]models.Transaction, error) {
	var out []models.Transaction
	for _, t := range v.st.transactions {
		if t.AccountID == accountID {
			out = append(out, t)
		}
	}
	return out, nil
}

func (v *memView) AppendCopiedTrade(ctx context.Context, ct models.CopiedTrade) (models.CopiedTrade, error) {
	ct.ID = v.st.nextID()
	if ct.CreatedAt.IsZero() {
		ct.CreatedAt = time.Now().UTC()
	}
	v.st.copiedTrades[ct.ID] = ct
	return ct, nil
}

func (v *memView) UpdateCopiedTradeStatus(ctx context.Context, id int64, status models.CopyStatus) error {
	ct, ok := v.st.copiedTrades[id]
	if !ok {
		return models.ErrSettingNotFound
	}
	ct.Status = status
	v.st.copiedTrades[id] = ct
	return nil
}

func (v *memView) CopiedTrades(ctx context.Context, followerAccountID int64) ([]models.CopiedTrade, error) {
	var out []models.CopiedTrade
	for _, ct := range v.st.copiedTrades {
		if ct.FollowerAccountID == followerAccountID {
			out = append(out, ct)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *memView) Follow(ctx context.Context, followerID, followedID int64) (models.FollowEdge, error) {
	for _, e := range v.st.follows {
		if e.FollowerAccountID == followerID && e.FollowedAccountID == followedID {
			return e, nil
		}
	}
	edge := models.FollowEdge{
		FollowerAccountID: followerID,
		FollowedAccountID: followedID,
		CreatedAt:         time.Now().UTC(),
	}
	v.st.follows = append(v.st.follows, edge)
	return edge, nil
}

func (v *memView) Unfollow(ctx context.Context, followerID, followedID int64) error {
	v.st.follows = slices.DeleteFunc(slices.Clone(v.st.follows), func(e models.FollowEdge) bool {
		return e.FollowerAccountID == followerID && e.FollowedAccountID == followedID
	})
	return nil
}

func (v *memView) Followers(ctx context.Context, accountID int64) ([]models.FollowEdge, error) {
	var out []models.FollowEdge
	for _, e := range v.st.follows {
		if e.FollowedAccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (v *memView) CreateCopySetting(ctx context.Context, s models.CopySetting) (models.CopySetting, error) {
	s.ID = v.st.nextID()
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	v.st.settings[s.ID] = s
	return s, nil
}

func (v *memView) UpdateCopySetting(ctx context.Context, s models.CopySetting) (models.CopySetting, error) {
	existing, ok := v.st.settings[s.ID]
	if !ok {
		return models.CopySetting{}, models.ErrSettingNotFound
	}
	s.FollowerAccountID = existing.FollowerAccountID
	s.CreatedAt = existing.CreatedAt
	s.UpdatedAt = time.Now().UTC()
	v.st.settings[s.ID] = s
	return s, nil
}

func (v *memView) CopySettings(ctx context.Context, accountID int64) ([]models.CopySetting, error) {
	var out []models.CopySetting
	for _, s := range v.st.settings {
		if s.FollowerAccountID == accountID {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (v *memView) CreateSubscription(ctx context.Context, subscriberID, traderID int64, fee decimal.Decimal) (models.Subscription, error) {
	sub := models.Subscription{
		ID:           v.st.nextID(),
		SubscriberID: subscriberID,
		TraderID:     traderID,
		Fee:          fee,
		Active:       true,
		CreatedAt:    time.Now().UTC(),
	}
	v.st.subscriptions[sub.ID] = sub
	return sub, nil
}

func (v *memView) CancelSubscription(ctx context.Context, id int64) error {
	sub, ok := v.st.subscriptions[id]
	if !ok || !sub.Active {
		return models.ErrSubscriptionGone
	}
	now := time.Now().UTC()
	sub.Active = false
	sub.CancelledAt = &now
	v.st.subscriptions[id] = sub
	return nil
}

func (v *memView) ActiveSubscriptions(ctx context.Context, subscriberID int64) ([]models.Subscription, error) {
	var out []models.Subscription
	for _, sub := range v.st.subscriptions {
		if sub.SubscriberID == subscriberID && sub.Active {
			out = append(out, sub)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}
