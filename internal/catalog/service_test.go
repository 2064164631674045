package catalog

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"

	"github.com/dukerupert/nutribox/internal/apperr"
	"github.com/dukerupert/nutribox/internal/database"
	"github.com/dukerupert/nutribox/internal/model"
	"github.com/dukerupert/nutribox/internal/store"
	"github.com/dukerupert/nutribox/internal/websocket"
)

const seededFoods = 13

type recordingBroadcaster struct {
	mu   sync.Mutex
	msgs []websocket.Message
}

func (b *recordingBroadcaster) Broadcast(msg websocket.Message) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.msgs = append(b.msgs, msg)
}

func setupService(t *testing.T) (*Service, *recordingBroadcaster) {
	t.Helper()
	db, err := database.Open(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	b := &recordingBroadcaster{}
	return NewService(db, b, slog.New(slog.NewTextHandler(io.Discard, nil))), b
}

func admin() model.Principal {
	return model.Principal{
		User: model.User{ID: 1, Active: true},
		Role: model.Role{Name: model.RoleAdmin},
		Tier: model.MembershipTier{Name: model.TierBasic},
	}
}

func parent() model.Principal {
	return model.Principal{
		User: model.User{ID: 2, Active: true},
		Role: model.Role{Name: model.RolePrimary},
		Tier: model.MembershipTier{Name: model.TierPremium, AllowsCustomization: true},
	}
}

func wantKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	if got := apperr.KindOf(err); got != kind {
		t.Fatalf("error kind = %q (%v), want %q", got, err, kind)
	}
}

func yogurt() FoodInput {
	return FoodInput{Name: "Yogurt griego", Category: "Lácteo", Calories: 97, Protein: 9, Carbs: 3.6, Fat: 5}
}

func TestCreateRecordsHistory(t *testing.T) {
	svc, b := setupService(t)
	ctx := context.Background()

	f, err := svc.Create(ctx, admin(), yogurt())
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if f.Status != model.FoodActive {
		t.Errorf("status = %s, want %s", f.Status, model.FoodActive)
	}

	entries, err := svc.History(ctx, admin(), f.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 || entries[0].Action != model.HistoryCreated {
		t.Fatalf("history = %+v, want one Creado entry", entries)
	}
	if entries[0].PriorState != nil {
		t.Errorf("prior_state = %q, want nil", *entries[0].PriorState)
	}
	if entries[0].Actor == nil || *entries[0].Actor != "1" {
		t.Errorf("actor = %v, want 1", entries[0].Actor)
	}
	if len(b.msgs) != 1 || b.msgs[0].Type != "food_item_created" {
		t.Errorf("broadcasts = %+v, want food_item_created", b.msgs)
	}
}

func TestWritesRequireAdmin(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()
	name := "Otro"

	_, err := svc.Create(ctx, parent(), yogurt())
	wantKind(t, err, apperr.KindPermission)
	_, err = svc.Update(ctx, parent(), 1, model.FoodItemPatch{Name: &name})
	wantKind(t, err, apperr.KindPermission)
	_, err = svc.Delete(ctx, parent(), 1, "")
	wantKind(t, err, apperr.KindPermission)
	_, err = svc.Restore(ctx, parent(), 1, "")
	wantKind(t, err, apperr.KindPermission)
	_, err = svc.History(ctx, parent(), 1)
	wantKind(t, err, apperr.KindPermission)
}

func TestCreateValidates(t *testing.T) {
	svc, _ := setupService(t)

	in := yogurt()
	in.Calories = -1
	_, err := svc.Create(context.Background(), admin(), in)
	wantKind(t, err, apperr.KindValidation)

	in = yogurt()
	in.Name = "Y"
	_, err = svc.Create(context.Background(), admin(), in)
	wantKind(t, err, apperr.KindValidation)
}

func TestUpdateSnapshotsPriorFacts(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	f, err := svc.Create(ctx, admin(), yogurt())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	calories := 110.0
	updated, err := svc.Update(ctx, admin(), f.ID, model.FoodItemPatch{Calories: &calories})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Calories != 110 || updated.Name != "Yogurt griego" {
		t.Errorf("updated = %+v", updated)
	}

	entries, err := svc.History(ctx, admin(), f.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 2 || entries[1].Action != model.HistoryModified {
		t.Fatalf("history = %+v, want Creado then Modificado", entries)
	}
	var prior map[string]any
	if err := json.Unmarshal([]byte(*entries[1].PriorState), &prior); err != nil {
		t.Fatalf("unmarshal prior state: %v", err)
	}
	if prior["calories"] != 97.0 {
		t.Errorf("prior calories = %v, want 97", prior["calories"])
	}
	if prior["name"] != "Yogurt griego" {
		t.Errorf("prior name = %v", prior["name"])
	}

	_, err = svc.Update(ctx, admin(), 9999, model.FoodItemPatch{Calories: &calories})
	wantKind(t, err, apperr.KindNotFound)
}

func TestDeleteThenRestore(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	f, err := svc.Create(ctx, admin(), yogurt())
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	deleted, err := svc.Delete(ctx, admin(), f.ID, "fuera de temporada")
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	if deleted.Status != model.FoodInactive {
		t.Errorf("status = %s, want %s", deleted.Status, model.FoodInactive)
	}

	// Soft-deleted items stay readable by id but leave the active list.
	got, err := svc.Get(ctx, f.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != model.FoodInactive {
		t.Errorf("get status = %s", got.Status)
	}
	active, _ := svc.ListActive(ctx, store.Page{})
	if len(active) != seededFoods {
		t.Errorf("active = %d, want %d", len(active), seededFoods)
	}

	restored, err := svc.Restore(ctx, admin(), f.ID, "")
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored.Status != model.FoodActive {
		t.Errorf("status = %s, want %s", restored.Status, model.FoodActive)
	}

	entries, err := svc.History(ctx, admin(), f.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	want := []model.HistoryAction{model.HistoryCreated, model.HistoryDeleted, model.HistoryRestored}
	if len(entries) != len(want) {
		t.Fatalf("history = %+v, want %v", entries, want)
	}
	for i, a := range want {
		if entries[i].Action != a {
			t.Errorf("entry[%d] = %s, want %s", i, entries[i].Action, a)
		}
	}
	if entries[1].Reason == nil || *entries[1].Reason != "fuera de temporada" {
		t.Errorf("delete reason = %v", entries[1].Reason)
	}
	var prior map[string]any
	if err := json.Unmarshal([]byte(*entries[1].PriorState), &prior); err != nil {
		t.Fatalf("unmarshal prior state: %v", err)
	}
	if prior["status"] != string(model.FoodActive) {
		t.Errorf("prior status = %v, want %s", prior["status"], model.FoodActive)
	}
}

func TestDeleteTwiceWritesOneEntry(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	if _, err := svc.Delete(ctx, admin(), 1, ""); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Delete(ctx, admin(), 1, ""); err != nil {
		t.Fatalf("second delete: %v", err)
	}

	entries, err := svc.History(ctx, admin(), 1)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(entries) != 1 {
		t.Errorf("history entries = %d, want 1", len(entries))
	}
}

func TestSearch(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	_, err := svc.Search(ctx, "a", store.Page{})
	wantKind(t, err, apperr.KindValidation)

	got, err := svc.Search(ctx, "FRUTA", store.Page{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("category match = %d, want 3", len(got))
	}

	got, err = svc.Search(ctx, "manz", store.Page{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Manzana" {
		t.Fatalf("name match = %+v, want Manzana", got)
	}

	if _, err := svc.Delete(ctx, admin(), got[0].ID, ""); err != nil {
		t.Fatalf("delete: %v", err)
	}
	got, _ = svc.Search(ctx, "manz", store.Page{})
	if len(got) != 0 {
		t.Errorf("inactive items should not match, got %d", len(got))
	}
}

func TestListFilters(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	all, err := svc.List(ctx, Filter{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != seededFoods {
		t.Errorf("all = %d, want %d", len(all), seededFoods)
	}

	drinks, err := svc.ListByCategory(ctx, "bebida", store.Page{})
	if err != nil {
		t.Fatalf("by category: %v", err)
	}
	if len(drinks) != 2 {
		t.Errorf("drinks = %d, want 2", len(drinks))
	}

	page, err := svc.List(ctx, Filter{Page: store.Page{Offset: 10, Limit: 5}})
	if err != nil {
		t.Fatalf("paged list: %v", err)
	}
	if len(page) != seededFoods-10 {
		t.Errorf("page = %d, want %d", len(page), seededFoods-10)
	}

	_, err = svc.List(ctx, Filter{Status: "Perdido"})
	wantKind(t, err, apperr.KindValidation)

	_, err = svc.Get(ctx, 9999)
	wantKind(t, err, apperr.KindNotFound)
}

func TestSearchFoldsNonASCII(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, admin(), FoodInput{Name: "Ñame cocido", Category: "Tubérculo", Calories: 118, Protein: 1.5, Carbs: 28}); err != nil {
		t.Fatalf("create: %v", err)
	}

	for _, q := range []string{"Ñame", "ñame", "ÑAME", "TUBÉRCULO"} {
		got, err := svc.Search(ctx, q, store.Page{})
		if err != nil {
			t.Fatalf("search %q: %v", q, err)
		}
		if len(got) != 1 || got[0].Name != "Ñame cocido" {
			t.Errorf("search %q = %+v, want Ñame cocido", q, got)
		}
	}

	for _, cat := range []string{"Lácteo", "lácteo", "LÁCTEO"} {
		got, err := svc.ListByCategory(ctx, cat, store.Page{})
		if err != nil {
			t.Fatalf("by category %q: %v", cat, err)
		}
		if len(got) != 2 {
			t.Errorf("by category %q = %d, want 2", cat, len(got))
		}
	}
}

func TestSearchTreatsWildcardsLiterally(t *testing.T) {
	svc, _ := setupService(t)
	ctx := context.Background()

	for _, q := range []string{"%%", "__", `\\`} {
		got, err := svc.Search(ctx, q, store.Page{})
		if err != nil {
			t.Fatalf("search %q: %v", q, err)
		}
		if len(got) != 0 {
			t.Errorf("search %q = %d items, want 0", q, len(got))
		}
	}

	if _, err := svc.Create(ctx, admin(), FoodInput{Name: "Mix 100% fruta", Category: "Snack", Calories: 60}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err := svc.Search(ctx, "0% f", store.Page{})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(got) != 1 || got[0].Name != "Mix 100% fruta" {
		t.Errorf("literal percent match = %+v, want Mix 100%% fruta", got)
	}
}
