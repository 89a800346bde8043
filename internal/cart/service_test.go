package cart

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memCart struct {
	id      int64
	userID  int64
	guestID string
	lines   map[int64]int
	updated time.Time
}

type memoryRepo struct {
	nextCartID int64
	carts      map[int64]*memCart
	variants   map[int64]int

	failUpsertAfter int // inject a failure after N successful upserts, 0 disables
	upserts         int
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		carts:    make(map[int64]*memCart),
		variants: make(map[int64]int),
	}
}

func (r *memoryRepo) snapshot() map[int64]*memCart {
	out := make(map[int64]*memCart, len(r.carts))
	for id, c := range r.carts {
		lines := make(map[int64]int, len(c.lines))
		for v, q := range c.lines {
			lines[v] = q
		}
		copied := *c
		copied.lines = lines
		out[id] = &copied
	}
	return out
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	before := r.snapshot()
	if err := fn(ctx, &memoryTx{repo: r}); err != nil {
		r.carts = before
		return err
	}
	return nil
}

func (r *memoryRepo) findCart(owner Owner) *memCart {
	for _, c := range r.carts {
		if owner.IsGuest() && c.guestID == owner.GuestID && owner.GuestID != "" {
			return c
		}
		if !owner.IsGuest() && c.userID == owner.UserID {
			return c
		}
	}
	return nil
}

func (r *memoryRepo) GetByOwner(ctx context.Context, owner Owner) (Cart, error) {
	c := r.findCart(owner)
	if c == nil {
		return Cart{}, nil
	}
	out := Cart{ID: c.id}
	for variantID, qty := range c.lines {
		out.Lines = append(out.Lines, Line{CartID: c.id, VariantID: variantID, Quantity: qty, Price: 10})
	}
	return out, nil
}

func (r *memoryRepo) DeleteIdleGuestCarts(ctx context.Context, idleSince time.Time) (int64, error) {
	var deleted int64
	for id, c := range r.carts {
		if c.guestID != "" && c.updated.Before(idleSince) {
			delete(r.carts, id)
			deleted++
		}
	}
	return deleted, nil
}

func (tx *memoryTx) GetOrCreateCartForUpdate(ctx context.Context, owner Owner) (int64, error) {
	if c := tx.repo.findCart(owner); c != nil {
		return c.id, nil
	}
	tx.repo.nextCartID++
	c := &memCart{id: tx.repo.nextCartID, lines: make(map[int64]int), updated: time.Now()}
	if owner.IsGuest() {
		c.guestID = owner.GuestID
	} else {
		c.userID = owner.UserID
	}
	tx.repo.carts[c.id] = c
	return c.id, nil
}

func (tx *memoryTx) FindCart(ctx context.Context, owner Owner) (int64, error) {
	if c := tx.repo.findCart(owner); c != nil {
		return c.id, nil
	}
	return 0, nil
}

func (tx *memoryTx) GetLines(ctx context.Context, cartID int64) ([]Line, error) {
	c, ok := tx.repo.carts[cartID]
	if !ok {
		return nil, nil
	}
	var lines []Line
	for variantID, qty := range c.lines {
		lines = append(lines, Line{CartID: cartID, VariantID: variantID, Quantity: qty})
	}
	return lines, nil
}

func (tx *memoryTx) VariantExists(ctx context.Context, variantID int64) (bool, int, error) {
	stock, ok := tx.repo.variants[variantID]
	return ok, stock, nil
}

func (tx *memoryTx) UpsertLine(ctx context.Context, cartID, variantID int64, qty int) error {
	if tx.repo.failUpsertAfter > 0 {
		tx.repo.upserts++
		if tx.repo.upserts > tx.repo.failUpsertAfter {
			return errors.New("boom")
		}
	}
	c, ok := tx.repo.carts[cartID]
	if !ok {
		return errors.New("cart missing")
	}
	c.lines[variantID] += qty
	return nil
}

func (tx *memoryTx) SetLineQuantity(ctx context.Context, cartID, variantID int64, qty int) error {
	c, ok := tx.repo.carts[cartID]
	if !ok {
		return ErrLineNotFound
	}
	if _, ok := c.lines[variantID]; !ok {
		return ErrLineNotFound
	}
	c.lines[variantID] = qty
	return nil
}

func (tx *memoryTx) RemoveLine(ctx context.Context, cartID, variantID int64) error {
	if c, ok := tx.repo.carts[cartID]; ok {
		delete(c.lines, variantID)
	}
	return nil
}

func (tx *memoryTx) DeleteCart(ctx context.Context, cartID int64) error {
	delete(tx.repo.carts, cartID)
	return nil
}

func (tx *memoryTx) TouchCart(ctx context.Context, cartID int64) error {
	if c, ok := tx.repo.carts[cartID]; ok {
		c.updated = time.Now()
	}
	return nil
}

func TestAddLineIncrementsExisting(t *testing.T) {
	repo := newMemoryRepo()
	repo.variants[7] = 5
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	owner := GuestOwner("g1")

	require.NoError(t, svc.AddLine(ctx, owner, 7, 2))
	require.NoError(t, svc.AddLine(ctx, owner, 7, 1))

	got, err := svc.Get(ctx, owner)
	require.NoError(t, err)
	require.Len(t, got.Lines, 1)
	require.Equal(t, 3, got.Lines[0].Quantity)
}

func TestAddLineValidation(t *testing.T) {
	repo := newMemoryRepo()
	repo.variants[1] = 0
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	owner := GuestOwner("g1")

	require.ErrorIs(t, svc.AddLine(ctx, owner, 1, 0), ErrInvalidQuantity)
	require.ErrorIs(t, svc.AddLine(ctx, owner, 99, 1), ErrVariantNotFound)
	require.ErrorIs(t, svc.AddLine(ctx, owner, 1, 1), ErrOutOfStock)
}

func TestSetQuantityZeroRemovesLine(t *testing.T) {
	repo := newMemoryRepo()
	repo.variants[7] = 5
	svc := NewService(repo, nil, nil)
	ctx := context.Background()
	owner := UserOwner(42)

	require.NoError(t, svc.AddLine(ctx, owner, 7, 2))
	require.NoError(t, svc.SetQuantity(ctx, owner, 7, 0))

	got, err := svc.Get(ctx, owner)
	require.NoError(t, err)
	require.Empty(t, got.Lines)
}

func TestSetQuantityMissingLine(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	err := svc.SetQuantity(context.Background(), UserOwner(42), 7, 3)
	require.ErrorIs(t, err, ErrLineNotFound)
}

func TestMergeGuestCartSumsQuantities(t *testing.T) {
	repo := newMemoryRepo()
	repo.variants[1] = 10
	repo.variants[2] = 10
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.AddLine(ctx, GuestOwner("g1"), 1, 2))
	require.NoError(t, svc.AddLine(ctx, GuestOwner("g1"), 2, 3))
	require.NoError(t, svc.AddLine(ctx, UserOwner(42), 1, 1))

	result, err := svc.MergeGuestCart(ctx, "g1", 42)
	require.NoError(t, err)
	require.Equal(t, 2, result.Merged)
	require.Empty(t, result.Skipped)

	merged, err := svc.Get(ctx, UserOwner(42))
	require.NoError(t, err)
	byVariant := map[int64]int{}
	for _, l := range merged.Lines {
		byVariant[l.VariantID] = l.Quantity
	}
	require.Equal(t, map[int64]int{1: 3, 2: 3}, byVariant)

	guest, err := svc.Get(ctx, GuestOwner("g1"))
	require.NoError(t, err)
	require.Empty(t, guest.Lines)
}

func TestMergeGuestCartSkipsDeletedVariants(t *testing.T) {
	repo := newMemoryRepo()
	repo.variants[1] = 10
	repo.variants[2] = 10
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.AddLine(ctx, GuestOwner("g1"), 1, 2))
	require.NoError(t, svc.AddLine(ctx, GuestOwner("g1"), 2, 1))
	delete(repo.variants, 2)

	result, err := svc.MergeGuestCart(ctx, "g1", 42)
	require.NoError(t, err)
	require.Equal(t, 1, result.Merged)
	require.Equal(t, []int64{2}, result.Skipped)

	guest, err := svc.Get(ctx, GuestOwner("g1"))
	require.NoError(t, err)
	require.Empty(t, guest.Lines)
}

func TestMergeGuestCartNoGuestCart(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil, nil)

	result, err := svc.MergeGuestCart(context.Background(), "nobody", 42)
	require.NoError(t, err)
	require.Zero(t, result.Merged)
	require.Empty(t, result.Skipped)
}

func TestMergeGuestCartRollsBackOnFailure(t *testing.T) {
	repo := newMemoryRepo()
	repo.variants[1] = 10
	repo.variants[2] = 10
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.AddLine(ctx, GuestOwner("g1"), 1, 2))
	require.NoError(t, svc.AddLine(ctx, GuestOwner("g1"), 2, 3))
	require.NoError(t, svc.AddLine(ctx, UserOwner(42), 1, 1))

	// Fail on the second merged line; the first must not stick either.
	repo.failUpsertAfter = 1

	_, err := svc.MergeGuestCart(ctx, "g1", 42)
	require.Error(t, err)

	repo.failUpsertAfter = 0
	user, err := svc.Get(ctx, UserOwner(42))
	require.NoError(t, err)
	require.Len(t, user.Lines, 1)
	require.Equal(t, 1, user.Lines[0].Quantity)

	guest, err := svc.Get(ctx, GuestOwner("g1"))
	require.NoError(t, err)
	require.Len(t, guest.Lines, 2)
}

// lockingRepo layers row-lock semantics over memoryRepo: a transaction
// takes the destination cart lock at GetOrCreateCartForUpdate and holds
// it until it finishes, and a write made after another transaction has
// committed fails with errConcurrentUpdate, like a repeatable read
// transaction touching a row a newer commit changed. A transaction that
// errors has written nothing, because the version check runs before the
// first write.
type lockingRepo struct {
	inner   *memoryRepo
	rowLock sync.Mutex
	mu      sync.Mutex
	version int
}

type lockingTx struct {
	repo    *lockingRepo
	inner   *memoryTx
	readAt  int
	wrote   bool
	holding bool
}

var errConcurrentUpdate = errors.New("concurrent update")

func (r *lockingRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	tx := &lockingTx{repo: r, inner: &memoryTx{repo: r.inner}, readAt: -1}
	err := fn(ctx, tx)
	r.mu.Lock()
	if err == nil && tx.wrote {
		r.version++
	}
	r.mu.Unlock()
	if tx.holding {
		r.rowLock.Unlock()
	}
	return err
}

func (r *lockingRepo) GetByOwner(ctx context.Context, owner Owner) (Cart, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inner.GetByOwner(ctx, owner)
}

func (r *lockingRepo) DeleteIdleGuestCarts(ctx context.Context, idleSince time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.inner.DeleteIdleGuestCarts(ctx, idleSince)
}

// observe pins the transaction's snapshot version on its first read.
func (tx *lockingTx) observe() {
	if tx.readAt < 0 {
		tx.readAt = tx.repo.version
	}
}

func (tx *lockingTx) write() error {
	if tx.readAt >= 0 && tx.readAt != tx.repo.version {
		return errConcurrentUpdate
	}
	tx.wrote = true
	return nil
}

func (tx *lockingTx) GetOrCreateCartForUpdate(ctx context.Context, owner Owner) (int64, error) {
	tx.repo.rowLock.Lock()
	tx.holding = true
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	tx.observe()
	return tx.inner.GetOrCreateCartForUpdate(ctx, owner)
}

func (tx *lockingTx) FindCart(ctx context.Context, owner Owner) (int64, error) {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	tx.observe()
	return tx.inner.FindCart(ctx, owner)
}

func (tx *lockingTx) GetLines(ctx context.Context, cartID int64) ([]Line, error) {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	tx.observe()
	return tx.inner.GetLines(ctx, cartID)
}

func (tx *lockingTx) VariantExists(ctx context.Context, variantID int64) (bool, int, error) {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	tx.observe()
	return tx.inner.VariantExists(ctx, variantID)
}

func (tx *lockingTx) UpsertLine(ctx context.Context, cartID, variantID int64, qty int) error {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	if err := tx.write(); err != nil {
		return err
	}
	return tx.inner.UpsertLine(ctx, cartID, variantID, qty)
}

func (tx *lockingTx) SetLineQuantity(ctx context.Context, cartID, variantID int64, qty int) error {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	if err := tx.write(); err != nil {
		return err
	}
	return tx.inner.SetLineQuantity(ctx, cartID, variantID, qty)
}

func (tx *lockingTx) RemoveLine(ctx context.Context, cartID, variantID int64) error {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	if err := tx.write(); err != nil {
		return err
	}
	return tx.inner.RemoveLine(ctx, cartID, variantID)
}

func (tx *lockingTx) DeleteCart(ctx context.Context, cartID int64) error {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	if err := tx.write(); err != nil {
		return err
	}
	return tx.inner.DeleteCart(ctx, cartID)
}

func (tx *lockingTx) TouchCart(ctx context.Context, cartID int64) error {
	tx.repo.mu.Lock()
	defer tx.repo.mu.Unlock()
	if err := tx.write(); err != nil {
		return err
	}
	return tx.inner.TouchCart(ctx, cartID)
}

func TestMergeGuestCartConcurrentLoginsDoNotDoubleCount(t *testing.T) {
	inner := newMemoryRepo()
	inner.variants[1] = 10
	inner.variants[2] = 10
	seed := NewService(inner, nil, nil)
	ctx := context.Background()

	require.NoError(t, seed.AddLine(ctx, GuestOwner("g1"), 1, 2))
	require.NoError(t, seed.AddLine(ctx, GuestOwner("g1"), 2, 3))
	require.NoError(t, seed.AddLine(ctx, UserOwner(42), 1, 1))

	repo := &lockingRepo{inner: inner}
	svc := NewService(repo, nil, nil)

	// Two logins with the same session race to merge the same guest
	// cart. The destination row lock serializes them: whichever commits
	// first wins, the other either fails on the newer commit or finds
	// the guest cart already gone.
	type outcome struct {
		result MergeResult
		err    error
	}
	start := make(chan struct{})
	outcomes := make(chan outcome, 2)
	for i := 0; i < 2; i++ {
		go func() {
			<-start
			result, err := svc.MergeGuestCart(ctx, "g1", 42)
			outcomes <- outcome{result: result, err: err}
		}()
	}
	close(start)

	merged := 0
	for i := 0; i < 2; i++ {
		o := <-outcomes
		if o.err != nil {
			require.ErrorIs(t, o.err, errConcurrentUpdate)
			continue
		}
		merged += o.result.Merged
	}
	require.Equal(t, 2, merged)

	user, err := svc.Get(ctx, UserOwner(42))
	require.NoError(t, err)
	byVariant := map[int64]int{}
	for _, l := range user.Lines {
		byVariant[l.VariantID] = l.Quantity
	}
	require.Equal(t, map[int64]int{1: 3, 2: 3}, byVariant)

	guest, err := svc.Get(ctx, GuestOwner("g1"))
	require.NoError(t, err)
	require.Empty(t, guest.Lines)
}

func TestReapIdleGuestCarts(t *testing.T) {
	repo := newMemoryRepo()
	repo.variants[1] = 5
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.AddLine(ctx, GuestOwner("old"), 1, 1))
	require.NoError(t, svc.AddLine(ctx, GuestOwner("fresh"), 1, 1))
	require.NoError(t, svc.AddLine(ctx, UserOwner(42), 1, 1))

	for _, c := range repo.carts {
		if c.guestID == "old" {
			c.updated = time.Now().Add(-40 * 24 * time.Hour)
		}
	}

	deleted, err := svc.ReapIdleGuestCarts(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	require.EqualValues(t, 1, deleted)

	old, err := svc.Get(ctx, GuestOwner("old"))
	require.NoError(t, err)
	require.Empty(t, old.Lines)
	fresh, err := svc.Get(ctx, GuestOwner("fresh"))
	require.NoError(t, err)
	require.Len(t, fresh.Lines, 1)
}
