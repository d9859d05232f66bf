package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"universe/internal/model"
)

// Room lookups delegate to database functions. Time columns are cast to
// text so callers receive HH:MM:SS strings regardless of the function's
// declared return type.

func (q *Queries) FreeRoomsAt(ctx context.Context, day int32, at string, building *string, floor *int32) ([]model.FreeRoom, error) {
	rows, err := q.db.Query(ctx, `
		SELECT room_id, room_code, building_name, floor_number
		FROM fn_free_rooms_at_time($1, $2::time, $3, $4)
	`, day, at, building, floor)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := make([]model.FreeRoom, 0)
	for rows.Next() {
		var r model.FreeRoom
		if err := rows.Scan(&r.RoomID, &r.RoomCode, &r.BuildingName, &r.FloorNumber); err != nil {
			return nil, err
		}
		rooms = append(rooms, r)
	}
	return rooms, rows.Err()
}

// RoomCourseAt returns nil when the function yields no row.
func (q *Queries) RoomCourseAt(ctx context.Context, roomCode string, day int32, at string) (*model.RoomCourse, error) {
	var c model.RoomCourse
	err := q.db.QueryRow(ctx, `
		SELECT room_code, day_of_week, start_time::text, end_time::text, course_code, course_name
		FROM fn_room_course_at_time($1, $2, $3::time)
		LIMIT 1
	`, roomCode, day, at).Scan(&c.RoomCode, &c.DayOfWeek, &c.StartTime, &c.EndTime, &c.CourseCode, &c.CourseName)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (q *Queries) RoomSchedule(ctx context.Context, roomID int64, day *int32) ([]model.ScheduleEntry, error) {
	rows, err := q.db.Query(ctx, `
		SELECT day_of_week, start_time::text, end_time::text, course_code, course_name
		FROM fn_room_schedule($1, $2)
	`, roomID, day)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	schedule := make([]model.ScheduleEntry, 0)
	for rows.Next() {
		var e model.ScheduleEntry
		if err := rows.Scan(&e.DayOfWeek, &e.StartTime, &e.EndTime, &e.CourseCode, &e.CourseName); err != nil {
			return nil, err
		}
		schedule = append(schedule, e)
	}
	return schedule, rows.Err()
}

func (q *Queries) RoomIsOccupied(ctx context.Context, roomID int64, day int32, at string) (bool, error) {
	var occupied *bool
	err := q.db.QueryRow(ctx, `SELECT fn_room_is_occupied($1, $2, $3::time)`, roomID, day, at).Scan(&occupied)
	if err != nil {
		return false, err
	}
	return occupied != nil && *occupied, nil
}
