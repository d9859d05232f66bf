package model

import (
	"encoding/json"
	"fmt"
	"time"
)

// ItemKind selects between the lost and found boards. Both share one shape
// and differ only in table and column names.
type ItemKind string

const (
	KindLost  ItemKind = "lost"
	KindFound ItemKind = "found"
)

func ParseItemKind(s string) (ItemKind, bool) {
	switch ItemKind(s) {
	case KindLost:
		return KindLost, true
	case KindFound:
		return KindFound, true
	}
	return "", false
}

func (k ItemKind) Table() string      { return string(k) + "_items" }
func (k ItemKind) IDColumn() string   { return string(k) + "_item_id" }
func (k ItemKind) NameColumn() string { return string(k) + "_item_name" }
func (k ItemKind) DateColumn() string { return string(k) + "_date" }
func (k ItemKind) ImageTable() string { return string(k) + "_item_images" }

// Label is the capitalised noun used in client-facing messages.
func (k ItemKind) Label() string {
	if k == KindFound {
		return "Found item"
	}
	return "Lost item"
}

type Item struct {
	Kind             ItemKind
	ID               int64
	Name             string
	UserID           *int64
	Location         *string
	Description      *string
	Date             *time.Time
	IsResolved       bool
	ResolvedAt       *time.Time
	ResolvedByUserID *int64
	PosterEmail      *string
	ImageURL         *string
	Images           []string
}

// MarshalJSON keeps the row-shaped snake_case keys clients already depend on,
// e.g. lost_item_id and lost_date for the lost board.
func (i Item) MarshalJSON() ([]byte, error) {
	out := map[string]any{
		i.Kind.IDColumn():     i.ID,
		i.Kind.NameColumn():   i.Name,
		"user_id":             i.UserID,
		"location":            i.Location,
		"description":         i.Description,
		i.Kind.DateColumn():   i.Date,
		"is_resolved":         i.IsResolved,
		"resolved_at":         i.ResolvedAt,
		"resolved_by_user_id": i.ResolvedByUserID,
	}
	if i.PosterEmail != nil {
		out["poster_email"] = *i.PosterEmail
	}
	if i.ImageURL != nil {
		out["imageUrl"] = *i.ImageURL
	}
	if i.Images != nil {
		out["images"] = i.Images
	}
	return json.Marshal(out)
}

type Comment struct {
	ID        int64     `json:"comment_id"`
	UserID    int64     `json:"user_id"`
	ItemType  ItemKind  `json:"item_type"`
	ItemID    int64     `json:"item_id"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	Email     string    `json:"email"`
}

// Topic names the live feed a comment is published on.
func (c Comment) Topic() string {
	return ItemTopic(c.ItemType, c.ItemID)
}

func ItemTopic(kind ItemKind, itemID int64) string {
	return fmt.Sprintf("%s:%d", kind, itemID)
}
