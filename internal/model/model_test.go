package model

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRoleValid(t *testing.T) {
	for _, role := range Roles {
		if !role.Valid() {
			t.Fatalf("expected %s to be valid", role)
		}
	}
	if Role("professor").Valid() {
		t.Fatalf("expected professor to be invalid")
	}
}

func TestProfileVariantsReportRole(t *testing.T) {
	cases := map[Role]Profile{
		RoleStudent:   StudentProfile{},
		RoleStaff:     StaffProfile{},
		RoleAdmin:     AdminProfile{},
		RoleCommunity: CommunityProfile{},
	}
	for role, profile := range cases {
		if profile.ProfileRole() != role {
			t.Fatalf("expected %s, got %s", role, profile.ProfileRole())
		}
	}
}

func TestParseItemKind(t *testing.T) {
	if kind, ok := ParseItemKind("found"); !ok || kind.Table() != "found_items" {
		t.Fatalf("unexpected kind %q ok=%v", kind, ok)
	}
	if _, ok := ParseItemKind("stolen"); ok {
		t.Fatalf("expected stolen to be rejected")
	}
	if KindLost.ImageTable() != "lost_item_images" || KindLost.DateColumn() != "lost_date" {
		t.Fatalf("unexpected lost naming")
	}
}

func TestItemJSONUsesKindColumns(t *testing.T) {
	date := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	thumb := "/uploads/a.jpg"
	item := Item{Kind: KindFound, ID: 3, Name: "Black Wallet", Date: &date, ImageURL: &thumb}

	raw, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(raw, &got); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if got["found_item_id"] != float64(3) || got["found_item_name"] != "Black Wallet" {
		t.Fatalf("unexpected keys: %s", raw)
	}
	if got["imageUrl"] != thumb {
		t.Fatalf("expected thumbnail, got %v", got["imageUrl"])
	}
	if _, ok := got["images"]; ok {
		t.Fatalf("images should be omitted when nil")
	}
	if _, ok := got["lost_item_id"]; ok {
		t.Fatalf("unexpected lost column on found item")
	}
}
