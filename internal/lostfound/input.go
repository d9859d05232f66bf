package lostfound

import (
	"net/url"
	"path"
	"strconv"
	"strings"
	"time"

	"universe/internal/apperr"
	"universe/internal/model"
	"universe/internal/repository"
)

const (
	DefaultLimit = 50
	MaxLimit     = 100
)

// NameField and DateField are the kind specific request keys, e.g.
// lostItemName and lostDate.
func NameField(kind model.ItemKind) string { return string(kind) + "ItemName" }
func DateField(kind model.ItemKind) string { return string(kind) + "Date" }

type CreateInput struct {
	Name        string
	Location    string
	Description string
	Date        string
}

// Upload is one image file as received from the client.
type Upload struct {
	Filename string
	Data     []byte
}

type createParams struct {
	name        string
	location    string
	description *string
	date        time.Time
}

func (in CreateInput) validate(kind model.ItemKind, now time.Time) (createParams, error) {
	fields := apperr.NewFields("Validation error")
	fields.Check(strings.TrimSpace(in.Name) != "", NameField(kind), "Item name is required")
	fields.Check(strings.TrimSpace(in.Location) != "", "location", "Location is required")

	p := createParams{name: in.Name, location: in.Location, date: now}
	if in.Description != "" {
		desc := in.Description
		p.description = &desc
	}
	if in.Date != "" {
		t, err := time.Parse(time.RFC3339, in.Date)
		if err != nil {
			fields.Add(DateField(kind), "Invalid datetime")
		} else {
			p.date = t
		}
	}
	return p, fields.Err()
}

var allowedImageExt = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

func checkUploads(uploads []Upload, maxFiles int, maxBytes int64) error {
	if len(uploads) > maxFiles {
		return apperr.BadRequest("Too many images")
	}
	for _, u := range uploads {
		if !allowedImageExt[strings.ToLower(path.Ext(u.Filename))] {
			return apperr.BadRequest("Unsupported image type")
		}
		if int64(len(u.Data)) > maxBytes {
			return apperr.BadRequest("Image too large")
		}
	}
	return nil
}

// ParseFilter reads the listing query string. Every invalid parameter is
// reported, not just the first.
func ParseFilter(q url.Values) (repository.ItemFilter, error) {
	fields := apperr.NewFields("Query validation error")
	f := repository.ItemFilter{
		Location: q.Get("location"),
		Limit:    DefaultLimit,
	}

	if raw := q.Get("isResolved"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			fields.Add("isResolved", "Expected boolean")
		} else {
			f.IsResolved = &v
		}
	}
	f.StartDate = parseDate(q.Get("startDate"), "startDate", fields)
	f.EndDate = parseDate(q.Get("endDate"), "endDate", fields)

	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			fields.Add("limit", "Expected integer")
		case n < 1:
			fields.Add("limit", "Number must be greater than 0")
		case n > MaxLimit:
			fields.Add("limit", "Number must be less than or equal to 100")
		default:
			f.Limit = n
		}
	}
	if raw := q.Get("offset"); raw != "" {
		n, err := strconv.Atoi(raw)
		switch {
		case err != nil:
			fields.Add("offset", "Expected integer")
		case n < 0:
			fields.Add("offset", "Number must be greater than or equal to 0")
		default:
			f.Offset = n
		}
	}
	return f, fields.Err()
}

func parseDate(raw, path string, fields *apperr.Fields) *time.Time {
	if raw == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		fields.Add(path, "Invalid datetime")
		return nil
	}
	return &t
}

// ParseID validates an item id path parameter.
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		fields := apperr.NewFields("Params validation error")
		fields.Add("id", "Expected positive integer")
		return 0, fields.Err()
	}
	return id, nil
}

// ParseKind validates the :type path segment of the comment and image routes.
func ParseKind(raw string) (model.ItemKind, error) {
	kind, ok := model.ParseItemKind(raw)
	if !ok {
		return "", apperr.BadRequest("Invalid item type")
	}
	return kind, nil
}
