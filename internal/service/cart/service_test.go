package cart

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"apparel-storefront/internal/domain"
	"apparel-storefront/internal/logging"
	"apparel-storefront/internal/repository/kv"
)

type failingKV struct {
	kv.Store
	setErr error
	sets   int
}

func (f *failingKV) Set(ctx context.Context, key, value string) error {
	f.sets++
	if f.setErr != nil {
		return f.setErr
	}
	return f.Store.Set(ctx, key, value)
}

var tee = domain.Product{ID: "p1", Name: "Boxy Tee", Price: 698, Images: []string{"tee-front.jpg", "tee-back.jpg"}}

func newStore(t *testing.T) (*Store, kv.Store) {
	t.Helper()
	store := kv.NewMemory()
	return Load(context.Background(), store, logging.Discard()), store
}

func storedItems(t *testing.T, store kv.Store) []domain.CartLineItem {
	t.Helper()
	raw, err := store.Get(context.Background(), storageKey)
	if err != nil {
		t.Fatalf("read stored cart: %v", err)
	}
	var items []domain.CartLineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		t.Fatalf("decode stored cart: %v", err)
	}
	return items
}

func TestAdd_MergesSameVariant(t *testing.T) {
	ctx := context.Background()
	c, store := newStore(t)

	if err := c.Add(ctx, tee, "M", "Black", 2); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := c.Add(ctx, tee, "M", "Black", 1); err != nil {
		t.Fatalf("Add: %v", err)
	}

	items := c.Items()
	if len(items) != 1 {
		t.Fatalf("expected one line, got %d", len(items))
	}
	if items[0].Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", items[0].Quantity)
	}
	if items[0].LineTotal() != 2094 {
		t.Fatalf("expected line total 20.94, got %s", items[0].LineTotal())
	}
	if c.Total() != 2094 || c.Count() != 3 {
		t.Fatalf("expected total 20.94 count 3, got %s %d", c.Total(), c.Count())
	}
	if items[0].Image != "tee-front.jpg" {
		t.Fatalf("expected first image, got %q", items[0].Image)
	}
	if got := storedItems(t, store); len(got) != 1 || got[0].Quantity != 3 {
		t.Fatalf("stored cart out of sync: %+v", got)
	}
}

func TestAdd_RepeatedAddsSumQuantities(t *testing.T) {
	ctx := context.Background()
	c, _ := newStore(t)
	want := 0
	for _, q := range []int{1, 4, 2, 7} {
		want += q
		if err := c.Add(ctx, tee, "L", "White", q); err != nil {
			t.Fatalf("Add: %v", err)
		}
	}
	items := c.Items()
	if len(items) != 1 || items[0].Quantity != want {
		t.Fatalf("expected single line with %d, got %+v", want, items)
	}
}

func TestAdd_DistinctVariantsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	c, _ := newStore(t)
	_ = c.Add(ctx, tee, "M", "Black", 1)
	_ = c.Add(ctx, tee, "L", "Black", 1)
	_ = c.Add(ctx, tee, "M", "White", 1)
	_ = c.Add(ctx, tee, "M", "Black", 1)

	items := c.Items()
	if len(items) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(items))
	}
	if items[0].Size != "M" || items[0].Color != "Black" || items[0].Quantity != 2 {
		t.Fatalf("unexpected first line %+v", items[0])
	}
	if items[1].Size != "L" || items[2].Color != "White" {
		t.Fatalf("insertion order not kept: %+v", items)
	}
}

func TestAdd_NonPositiveQuantityDefaultsToOne(t *testing.T) {
	c, _ := newStore(t)
	if err := c.Add(context.Background(), tee, "S", "Black", 0); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if c.Count() != 1 {
		t.Fatalf("expected count 1, got %d", c.Count())
	}
}

func TestUpdateQuantity(t *testing.T) {
	ctx := context.Background()
	c, store := newStore(t)
	_ = c.Add(ctx, tee, "M", "Black", 2)
	_ = c.Add(ctx, tee, "L", "Black", 1)

	if err := c.UpdateQuantity(ctx, "p1", "M", "Black", 5); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if c.Items()[0].Quantity != 5 {
		t.Fatalf("expected quantity overwritten to 5")
	}

	if err := c.UpdateQuantity(ctx, "p1", "M", "Black", 0); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	items := c.Items()
	if len(items) != 1 || items[0].Size != "L" {
		t.Fatalf("expected zero quantity to remove line, got %+v", items)
	}
	if got := storedItems(t, store); len(got) != 1 {
		t.Fatalf("zero quantity line must not be persisted: %+v", got)
	}
}

func TestUpdateQuantity_UnknownLineIsNoop(t *testing.T) {
	ctx := context.Background()
	base := kv.NewMemory()
	f := &failingKV{Store: base}
	c := Load(ctx, f, logging.Discard())
	_ = c.Add(ctx, tee, "M", "Black", 1)
	before := f.sets

	if err := c.UpdateQuantity(ctx, "p1", "XL", "Black", 3); err != nil {
		t.Fatalf("UpdateQuantity: %v", err)
	}
	if err := c.Remove(ctx, "nope", "M", "Black"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if f.sets != before {
		t.Fatalf("no-op should not write storage")
	}
	if c.Count() != 1 {
		t.Fatalf("cart changed by no-op")
	}
}

func TestTotalNeverStale(t *testing.T) {
	ctx := context.Background()
	c, _ := newStore(t)
	hoodie := domain.Product{ID: "p2", Name: "Hoodie", Price: 3499}

	_ = c.Add(ctx, tee, "M", "Black", 1)
	if c.Total() != 698 {
		t.Fatalf("got %s", c.Total())
	}
	_ = c.Add(ctx, hoodie, "L", "Grey", 2)
	if c.Total() != 698+2*3499 {
		t.Fatalf("got %s", c.Total())
	}
	_ = c.UpdateQuantity(ctx, "p2", "L", "Grey", 1)
	if c.Total() != 698+3499 {
		t.Fatalf("got %s", c.Total())
	}
	_ = c.Remove(ctx, "p1", "M", "Black")
	if c.Total() != 3499 {
		t.Fatalf("got %s", c.Total())
	}
	_ = c.Clear(ctx)
	if c.Total() != 0 || c.Count() != 0 || !c.Empty() {
		t.Fatalf("expected empty cart after clear")
	}
}

func TestLoad_RehydratesAndNormalizes(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	saved := `[
		{"product_id":"p1","name":"Boxy Tee","unit_price_cents":698,"size":"M","color":"Black","quantity":2},
		{"product_id":"p1","name":"Boxy Tee","unit_price_cents":698,"size":"M","color":"Black","quantity":1},
		{"product_id":"p2","name":"Hoodie","unit_price_cents":3499,"size":"L","color":"Grey","quantity":0}
	]`
	if err := store.Set(ctx, storageKey, saved); err != nil {
		t.Fatalf("seed: %v", err)
	}

	c := Load(ctx, store, logging.Discard())
	items := c.Items()
	if len(items) != 2 {
		t.Fatalf("expected 2 lines, got %+v", items)
	}
	if items[0].Quantity != 3 || items[1].Quantity != 1 {
		t.Fatalf("unexpected quantities %+v", items)
	}
}

func TestLoad_CorruptEntryStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	_ = store.Set(ctx, storageKey, "{not json")

	c := Load(ctx, store, logging.Discard())
	if !c.Empty() {
		t.Fatalf("expected empty cart")
	}
}

func TestMerge(t *testing.T) {
	ctx := context.Background()
	c, _ := newStore(t)
	_ = c.Add(ctx, tee, "M", "Black", 1)

	err := c.Merge(ctx, []domain.CartLineItem{
		{ProductID: "p1", Name: "Boxy Tee", UnitPrice: 698, Size: "M", Color: "Black", Quantity: 2},
		{ProductID: "p3", Name: "Cap", UnitPrice: 1500, Size: "One", Color: "Navy", Quantity: 1},
	})
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	items := c.Items()
	if len(items) != 2 || items[0].Quantity != 3 || items[1].ProductID != "p3" {
		t.Fatalf("unexpected merge result %+v", items)
	}
}

func TestPersistFailureKeepsMemoryState(t *testing.T) {
	ctx := context.Background()
	f := &failingKV{Store: kv.NewMemory(), setErr: errors.New("disk full")}
	c := Load(ctx, f, logging.Discard())

	err := c.Add(ctx, tee, "M", "Black", 1)
	if err == nil {
		t.Fatalf("expected persist error")
	}
	if c.Count() != 1 {
		t.Fatalf("in-memory state should keep the mutation")
	}
}

func TestSubtract_LeavesLinesAddedLater(t *testing.T) {
	ctx := context.Background()
	c, store := newStore(t)
	_ = c.Add(ctx, tee, "M", "Black", 2)
	submitted := c.Items()

	_ = c.Add(ctx, tee, "M", "Black", 1)
	_ = c.Add(ctx, domain.Product{ID: "p3", Name: "Cap", Price: 1500}, "One", "Navy", 1)

	if err := c.Subtract(ctx, submitted); err != nil {
		t.Fatalf("Subtract: %v", err)
	}
	items := c.Items()
	if len(items) != 2 || items[0].ProductID != "p1" || items[0].Quantity != 1 || items[1].ProductID != "p3" {
		t.Fatalf("unexpected cart after subtract %+v", items)
	}
	if got := storedItems(t, store); len(got) != 2 {
		t.Fatalf("stored cart not updated: %+v", got)
	}

	if err := c.Subtract(ctx, []domain.CartLineItem{{ProductID: "p1", Size: "M", Color: "Black", Quantity: 5}}); err != nil {
		t.Fatalf("Subtract: %v", err)
	}
	if items := c.Items(); len(items) != 1 || items[0].ProductID != "p3" {
		t.Fatalf("over-subtracted line should be dropped: %+v", items)
	}
}

func TestSave_RetriesAfterFailedWrite(t *testing.T) {
	ctx := context.Background()
	f := &failingKV{Store: kv.NewMemory()}
	c := Load(ctx, f, logging.Discard())
	_ = c.Add(ctx, tee, "M", "Black", 1)

	f.setErr = errors.New("connection reset")
	if err := c.Clear(ctx); err == nil {
		t.Fatalf("expected persist error")
	}
	f.setErr = nil
	if err := c.Save(ctx); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if got := storedItems(t, f.Store); len(got) != 0 {
		t.Fatalf("stored cart should be empty after save, got %+v", got)
	}
}
