package repository

import (
	"context"
	"strings"
	"testing"
	"time"

	"universe/internal/db/dbtest"
	"universe/internal/model"
)

func TestBuildItemQueryNoFilters(t *testing.T) {
	q := buildItemQuery(model.KindLost, ItemFilter{Limit: 50})
	if strings.Contains(q.list, "WHERE") || strings.Contains(q.count, "WHERE") {
		t.Fatalf("expected no WHERE clause:\n%s", q.list)
	}
	if len(q.args) != 0 {
		t.Fatalf("expected no args, got %v", q.args)
	}
	if !strings.Contains(q.list, "LIMIT $1 OFFSET $2") {
		t.Fatalf("expected limit/offset at $1/$2:\n%s", q.list)
	}
	if !strings.Contains(q.list, "ORDER BY i.lost_date DESC NULLS LAST, i.lost_item_id DESC") {
		t.Fatalf("unexpected ordering:\n%s", q.list)
	}
}

func TestBuildItemQueryAllFiltersInOrder(t *testing.T) {
	resolved := false
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	q := buildItemQuery(model.KindFound, ItemFilter{
		Location:   "Library",
		IsResolved: &resolved,
		StartDate:  &start,
		EndDate:    &end,
		Limit:      10,
		Offset:     20,
	})

	want := "WHERE i.location ILIKE $1 AND i.is_resolved = $2 AND i.found_date >= $3 AND i.found_date <= $4"
	if !strings.Contains(q.list, want) || !strings.Contains(q.count, want) {
		t.Fatalf("expected %q in both queries:\n%s\n%s", want, q.list, q.count)
	}
	if !strings.Contains(q.list, "LIMIT $5 OFFSET $6") {
		t.Fatalf("expected limit/offset after filters:\n%s", q.list)
	}
	if len(q.args) != 4 {
		t.Fatalf("expected 4 args, got %d", len(q.args))
	}
	if q.args[0] != "%Library%" {
		t.Fatalf("expected wrapped location, got %v", q.args[0])
	}
	if q.args[1] != false {
		t.Fatalf("expected resolved flag, got %v", q.args[1])
	}
}

func TestBuildItemQuerySkipsEmptyLocation(t *testing.T) {
	end := time.Now()
	q := buildItemQuery(model.KindLost, ItemFilter{EndDate: &end})
	if !strings.Contains(q.count, "WHERE i.lost_date <= $1") {
		t.Fatalf("expected end date as first predicate:\n%s", q.count)
	}
}

func TestItemLifecycle(t *testing.T) {
	pool := dbtest.Open(t)
	if pool == nil {
		return
	}
	ctx := context.Background()
	store := NewStore(pool)

	var userID int64
	err := store.WithTx(ctx, func(q *Queries) error {
		id, err := q.CreateUser(ctx, dbtest.UniqueEmail("poster", "yasar.edu.tr"), "x", model.RoleAdmin)
		if err != nil {
			return err
		}
		userID = id
		return q.CreateProfile(ctx, id, "", model.AdminProfile{AdminName: "Ada", AdminSurname: "Lovelace"})
	})
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	location := "Lab-" + dbtest.UniqueSuffix()
	item, err := store.CreateItem(ctx, model.KindLost, userID, "Black Wallet", location, nil, time.Now())
	if err != nil {
		t.Fatalf("create item: %v", err)
	}
	for _, url := range []string{"/uploads/a.jpg", "/uploads/b.jpg"} {
		if err := store.AddItemImage(ctx, model.KindLost, item.ID, url); err != nil {
			t.Fatalf("add image: %v", err)
		}
	}

	thumb, err := store.ItemThumbnail(ctx, model.KindLost, item.ID)
	if err != nil || thumb == nil || *thumb != "/uploads/a.jpg" {
		t.Fatalf("expected first image as thumbnail, got %v err=%v", thumb, err)
	}

	filter := ItemFilter{Location: location, Limit: 10}
	items, err := store.ListItems(ctx, model.KindLost, filter)
	if err != nil || len(items) != 1 {
		t.Fatalf("expected 1 item, got %d err=%v", len(items), err)
	}
	total, err := store.CountItems(ctx, model.KindLost, filter)
	if err != nil || total != 1 {
		t.Fatalf("expected total 1, got %d err=%v", total, err)
	}

	ok, err := store.ResolveItem(ctx, model.KindLost, item.ID, userID)
	if err != nil || !ok {
		t.Fatalf("expected first resolve to succeed, ok=%v err=%v", ok, err)
	}
	ok, err = store.ResolveItem(ctx, model.KindLost, item.ID, userID)
	if err != nil || ok {
		t.Fatalf("expected second resolve to be a no-op, ok=%v err=%v", ok, err)
	}
}

func TestListItemsPagesAreStable(t *testing.T) {
	pool := dbtest.Open(t)
	if pool == nil {
		return
	}
	ctx := context.Background()
	store := NewStore(pool)

	userID, err := store.CreateUser(ctx, dbtest.UniqueEmail("pager", "yasar.edu.tr"), "x", model.RoleAdmin)
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	location := "Atrium-" + dbtest.UniqueSuffix()
	date := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for _, name := range []string{"Scarf", "Umbrella", "Badge", "Charger", "Mug"} {
		if _, err := store.CreateItem(ctx, model.KindFound, userID, name, location, nil, date); err != nil {
			t.Fatalf("create item: %v", err)
		}
	}

	ids := func(items []model.Item) []int64 {
		out := make([]int64, 0, len(items))
		for _, it := range items {
			out = append(out, it.ID)
		}
		return out
	}
	list := func(limit, offset int) []int64 {
		t.Helper()
		f := ItemFilter{Location: location, Limit: limit, Offset: offset}
		items, err := store.ListItems(ctx, model.KindFound, f)
		if err != nil {
			t.Fatalf("list limit=%d offset=%d: %v", limit, offset, err)
		}
		total, err := store.CountItems(ctx, model.KindFound, f)
		if err != nil || total != 5 {
			t.Fatalf("expected total 5 at offset %d, got %d err=%v", offset, total, err)
		}
		return ids(items)
	}

	all := list(100, 0)
	if len(all) != 5 {
		t.Fatalf("expected 5 items, got %v", all)
	}
	for i := 1; i < len(all); i++ {
		if all[i] >= all[i-1] {
			t.Fatalf("expected ids descending on equal dates, got %v", all)
		}
	}

	first, second, last := list(2, 0), list(2, 2), list(2, 4)
	pages := append(append(append([]int64{}, first...), second...), last...)
	if len(first) != 2 || len(second) != 2 || len(last) != 1 {
		t.Fatalf("unexpected page sizes: %v %v %v", first, second, last)
	}
	for i := range all {
		if pages[i] != all[i] {
			t.Fatalf("pages %v do not match full listing %v", pages, all)
		}
	}
}
