package karma

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"karma-bot/internal/common"
	"karma-bot/internal/features/users"
)

// stubStore — хранилище кармы в памяти для тестов сервиса.
type stubStore struct {
	karma  map[string]float64
	top    []ScoredUser
	nb     *Neighbours
	nbErr  error
	rank   int
	events []Event
	bulk   []ImportEntry
}

func newStubStore() *stubStore {
	return &stubStore{karma: make(map[string]float64)}
}

func key(userID, chatID int64) string {
	return fmt.Sprintf("%d:%d", userID, chatID)
}

func (s *stubStore) GetOrCreate(ctx context.Context, userID, chatID int64) (*UserKarma, error) {
	return &UserKarma{UserID: userID, ChatID: chatID, Karma: s.karma[key(userID, chatID)]}, nil
}

func (s *stubStore) ApplyDelta(ctx context.Context, userID, chatID int64, delta float64) (float64, error) {
	s.karma[key(userID, chatID)] += delta
	return s.karma[key(userID, chatID)], nil
}

func (s *stubStore) BulkSet(ctx context.Context, chatID int64, entries []ImportEntry) error {
	s.bulk = entries
	for _, e := range entries {
		s.karma[key(e.ID, chatID)] = e.Karma
	}
	return nil
}

func (s *stubStore) TopN(ctx context.Context, chatID int64, limit int) ([]ScoredUser, error) {
	if limit < len(s.top) {
		return s.top[:limit], nil
	}
	return s.top, nil
}

func (s *stubStore) RankOf(ctx context.Context, userID, chatID int64) (int, error) {
	return s.rank, nil
}

func (s *stubStore) Neighbours(ctx context.Context, userID, chatID int64) (*Neighbours, error) {
	if s.nbErr != nil {
		return nil, s.nbErr
	}
	return s.nb, nil
}

func (s *stubStore) UserChats(ctx context.Context, userID int64) ([]ChatKarma, error) {
	return nil, nil
}

func (s *stubStore) LogEvent(ctx context.Context, e *Event) error {
	s.events = append(s.events, *e)
	return nil
}

// stubRestrictor всегда отвечает одно и то же.
type stubRestrictor struct {
	allow bool
	calls int
}

func (r *stubRestrictor) Allow(ctx context.Context, targetID, chatID int64) (bool, error) {
	r.calls++
	return r.allow, nil
}

func mkUser(tgID int64, username string) *users.User {
	return &users.User{TgID: tgID, Username: username}
}

func mkChat(chatID int64) *users.Chat {
	return &users.Chat{ChatID: chatID, Title: "test"}
}

func TestChangeKarmaAccumulatesDeltas(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubRestrictor{allow: true})
	ctx := context.Background()

	actor, target, chat := mkUser(1, "actor"), mkUser(2, "target"), mkChat(-100)

	deltas := []float64{1, -0.5, 2}
	var res *ResultChangeKarma
	var err error
	for _, d := range deltas {
		res, err = svc.ChangeKarma(ctx, actor, target, chat, d, true, "")
		if err != nil {
			t.Fatalf("change karma on %v: %v", d, err)
		}
	}

	if res.Karma != 2.5 {
		t.Fatalf("expected accumulated karma 2.5, got %v", res.Karma)
	}
	if res.Restricted {
		t.Fatalf("did not expect restricted result")
	}
	if len(store.events) != len(deltas) {
		t.Fatalf("expected %d log events, got %d", len(deltas), len(store.events))
	}

	// Порядок применения дельт на итог не влияет
	reversed := mkUser(3, "other")
	for i := len(deltas) - 1; i >= 0; i-- {
		if res, err = svc.ChangeKarma(ctx, actor, reversed, chat, deltas[i], true, ""); err != nil {
			t.Fatalf("change karma reversed on %v: %v", deltas[i], err)
		}
	}
	if res.Karma != 2.5 {
		t.Fatalf("expected order-independent total 2.5, got %v", res.Karma)
	}
}

func TestChangeKarmaScopedPerChat(t *testing.T) {
	store := newStubStore()
	svc := NewService(store, &stubRestrictor{allow: true})
	ctx := context.Background()

	actor, target := mkUser(1, "actor"), mkUser(2, "target")

	if _, err := svc.ChangeKarma(ctx, actor, target, mkChat(-100), 5, true, ""); err != nil {
		t.Fatalf("change in first chat: %v", err)
	}
	res, err := svc.ChangeKarma(ctx, actor, target, mkChat(-200), 1, true, "")
	if err != nil {
		t.Fatalf("change in second chat: %v", err)
	}

	if res.Karma != 1 {
		t.Fatalf("expected independent score 1 in second chat, got %v", res.Karma)
	}
	if store.karma[key(2, -100)] != 5 {
		t.Fatalf("first chat score corrupted: %v", store.karma[key(2, -100)])
	}
}

func TestChangeKarmaSuppressedByRestriction(t *testing.T) {
	store := newStubStore()
	store.karma[key(2, -100)] = 3
	svc := NewService(store, &stubRestrictor{allow: false})

	res, err := svc.ChangeKarma(context.Background(), mkUser(1, "a"), mkUser(2, "b"), mkChat(-100), 1, true, "")
	if err != nil {
		t.Fatalf("change karma: %v", err)
	}

	if !res.Restricted {
		t.Fatalf("expected restricted result")
	}
	if res.Karma != 3 {
		t.Fatalf("expected unchanged karma 3, got %v", res.Karma)
	}
	if len(store.events) != 0 {
		t.Fatalf("suppressed change must not be logged, got %d events", len(store.events))
	}
}

func TestChangeKarmaBypassesRestrictionWhenDisabled(t *testing.T) {
	store := newStubStore()
	restrictor := &stubRestrictor{allow: false}
	svc := NewService(store, restrictor)

	res, err := svc.ChangeKarma(context.Background(), mkUser(1, "a"), mkUser(2, "b"), mkChat(-100), 1, false, "Награда за репорт")
	if err != nil {
		t.Fatalf("change karma: %v", err)
	}

	if res.Restricted || res.Karma != 1 {
		t.Fatalf("expected applied change, got karma=%v restricted=%v", res.Karma, res.Restricted)
	}
	if restrictor.calls != 0 {
		t.Fatalf("restrictor must not be consulted when disabled, got %d calls", restrictor.calls)
	}
}

func TestImportEmptyEntries(t *testing.T) {
	svc := NewService(newStubStore(), nil)

	err := svc.Import(context.Background(), mkChat(-100), nil)
	if !errors.Is(err, common.ErrNotEnoughArguments) {
		t.Fatalf("expected ErrNotEnoughArguments, got %v", err)
	}
}

func TestImportSetsAbsoluteValues(t *testing.T) {
	store := newStubStore()
	store.karma[key(7, -100)] = 99
	svc := NewService(store, nil)

	entries := []ImportEntry{{ID: 7, Karma: 5.5}, {ID: 8, Karma: -1}}
	if err := svc.Import(context.Background(), mkChat(-100), entries); err != nil {
		t.Fatalf("import: %v", err)
	}

	if store.karma[key(7, -100)] != 5.5 {
		t.Fatalf("import must overwrite, got %v", store.karma[key(7, -100)])
	}
	if store.karma[key(8, -100)] != -1 {
		t.Fatalf("missing imported entry, got %v", store.karma[key(8, -100)])
	}
}

func scored(tgID int64, username string, karma float64) ScoredUser {
	return ScoredUser{User: users.User{TgID: tgID, Username: username}, Karma: karma}
}

func TestGetTopRequesterBelowCutoff(t *testing.T) {
	a, b, c := scored(1, "a", 10), scored(2, "b", 8), scored(3, "c", 5)

	store := newStubStore()
	store.top = []ScoredUser{a, b}
	store.nb = &Neighbours{Prev: &b, Self: &c}
	store.rank = 3

	svc := NewService(store, nil)
	got, err := svc.GetTop(context.Background(), mkChat(-100), mkUser(3, "c"), 2)
	if err != nil {
		t.Fatalf("get top: %v", err)
	}

	want := "Список самых почётных пользователей чата:\n" +
		"1 @a <b>10.00</b>\n" +
		"2 @b <b>8.00</b>\n" +
		"...\n" +
		"3 @c <b>5.00</b>"
	if got != want {
		t.Fatalf("unexpected leaderboard:\ngot  %q\nwant %q", got, want)
	}
}

func TestGetTopRequesterDeepBelowCutoff(t *testing.T) {
	p, x, n := scored(8, "p", 2), scored(9, "x", 1.5), scored(10, "n", 1)

	store := newStubStore()
	store.top = []ScoredUser{scored(1, "a", 10), scored(2, "b", 8)}
	store.nb = &Neighbours{Prev: &p, Self: &x, Next: &n}
	store.rank = 9

	svc := NewService(store, nil)
	got, err := svc.GetTop(context.Background(), mkChat(-100), mkUser(9, "x"), 2)
	if err != nil {
		t.Fatalf("get top: %v", err)
	}

	if strings.Count(got, "...") != 1 {
		t.Fatalf("expected exactly one gap marker, got:\n%s", got)
	}
	wantTail := "...\n8 @p <b>2.00</b>\n9 @x <b>1.50</b>\n10 @n <b>1.00</b>"
	if !strings.HasSuffix(got, wantTail) {
		t.Fatalf("unexpected neighbour block:\ngot  %q\nwant suffix %q", got, wantTail)
	}
}

func TestGetTopRequesterInsideTop(t *testing.T) {
	a, b, c := scored(1, "a", 10), scored(2, "b", 8), scored(3, "c", 5)

	store := newStubStore()
	store.top = []ScoredUser{a, b, c}
	store.nb = &Neighbours{Prev: &a, Self: &b, Next: &c}
	store.rank = 2

	svc := NewService(store, nil)
	got, err := svc.GetTop(context.Background(), mkChat(-100), mkUser(2, "b"), 3)
	if err != nil {
		t.Fatalf("get top: %v", err)
	}

	if strings.Contains(got, "...") {
		t.Fatalf("requester already in top, gap marker unexpected:\n%s", got)
	}
}

func TestGetTopEmptyChat(t *testing.T) {
	store := newStubStore()
	store.nbErr = common.ErrNoNeighbours

	svc := NewService(store, nil)
	got, err := svc.GetTop(context.Background(), mkChat(-100), mkUser(1, "a"), 15)
	if err != nil {
		t.Fatalf("get top: %v", err)
	}
	if got != "Никто в чате не имеет кармы" {
		t.Fatalf("unexpected empty leaderboard text: %q", got)
	}
}

func TestGetTopUserWithoutRecord(t *testing.T) {
	store := newStubStore()
	store.top = []ScoredUser{scored(1, "a", 10)}
	store.nbErr = common.ErrNoNeighbours

	svc := NewService(store, nil)
	got, err := svc.GetTop(context.Background(), mkChat(-100), mkUser(99, "ghost"), 15)
	if err != nil {
		t.Fatalf("get top: %v", err)
	}

	want := "Список самых почётных пользователей чата:\n1 @a <b>10.00</b>"
	if got != want {
		t.Fatalf("expected plain top without neighbour block:\ngot  %q\nwant %q", got, want)
	}
}
