package rooms

import (
	"net/url"
	"regexp"
	"strconv"

	"universe/internal/apperr"
)

var timePattern = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}$`)

type FreeRoomsQuery struct {
	Day      int32
	Time     string
	Building *string
	Floor    *int32
}

type AtTimeQuery struct {
	Day  int32
	Time string
}

func ParseFreeRoomsQuery(q url.Values) (FreeRoomsQuery, error) {
	fields := apperr.NewFields("Query validation error")
	out := FreeRoomsQuery{
		Day:  requireDay(q.Get("day"), fields),
		Time: requireTime(q.Get("time"), fields),
	}
	if b := q.Get("buildingName"); b != "" {
		out.Building = &b
	}
	if raw := q.Get("floorNumber"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 32)
		if err != nil || n <= 0 {
			fields.Add("floorNumber", "Expected positive integer")
		} else {
			floor := int32(n)
			out.Floor = &floor
		}
	}
	return out, fields.Err()
}

func ParseAtTimeQuery(q url.Values) (AtTimeQuery, error) {
	fields := apperr.NewFields("Query validation error")
	out := AtTimeQuery{
		Day:  requireDay(q.Get("day"), fields),
		Time: requireTime(q.Get("time"), fields),
	}
	return out, fields.Err()
}

// ParseOptionalDay reads the schedule's day filter; absent means every day.
func ParseOptionalDay(q url.Values) (*int32, error) {
	raw := q.Get("day")
	if raw == "" {
		return nil, nil
	}
	fields := apperr.NewFields("Query validation error")
	day := requireDay(raw, fields)
	if err := fields.Err(); err != nil {
		return nil, err
	}
	return &day, nil
}

func ParseRoomCode(raw string) (string, error) {
	if raw == "" {
		fields := apperr.NewFields("Params validation error")
		fields.Add("roomCode", "String must contain at least 1 character(s)")
		return "", fields.Err()
	}
	return raw, nil
}

func ParseRoomID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		fields := apperr.NewFields("Params validation error")
		fields.Add("roomId", "Expected positive integer")
		return 0, fields.Err()
	}
	return id, nil
}

func requireDay(raw string, fields *apperr.Fields) int32 {
	if raw == "" {
		fields.Add("day", "Required")
		return 0
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 || n > 7 {
		fields.Add("day", "Day must be an integer between 1 and 7")
		return 0
	}
	return int32(n)
}

func requireTime(raw string, fields *apperr.Fields) string {
	if !timePattern.MatchString(raw) {
		fields.Add("time", "Time must be in HH:MM:SS format")
		return ""
	}
	return raw
}
