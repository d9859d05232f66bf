// Package rooms answers room availability questions. The scheduling logic
// lives in database functions; this package validates input and shapes the
// rows they return.
package rooms

import (
	"context"

	"universe/internal/apperr"
	"universe/internal/model"
)

type Store interface {
	FreeRoomsAt(ctx context.Context, day int32, at string, building *string, floor *int32) ([]model.FreeRoom, error)
	RoomCourseAt(ctx context.Context, roomCode string, day int32, at string) (*model.RoomCourse, error)
	RoomSchedule(ctx context.Context, roomID int64, day *int32) ([]model.ScheduleEntry, error)
	RoomIsOccupied(ctx context.Context, roomID int64, day int32, at string) (bool, error)
}

type Service struct {
	store Store
}

func NewService(store Store) *Service {
	return &Service{store: store}
}

type FreeRooms struct {
	Count int              `json:"count"`
	Rooms []model.FreeRoom `json:"rooms"`
}

func (s *Service) FreeRooms(ctx context.Context, q FreeRoomsQuery) (FreeRooms, error) {
	rooms, err := s.store.FreeRoomsAt(ctx, q.Day, q.Time, q.Building, q.Floor)
	if err != nil {
		return FreeRooms{}, apperr.Internal("Failed to fetch free rooms", err)
	}
	return FreeRooms{Count: len(rooms), Rooms: rooms}, nil
}

type Course struct {
	Code      string  `json:"code"`
	Name      *string `json:"name"`
	DayOfWeek *int32  `json:"dayOfWeek"`
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
}

type CourseAtTime struct {
	RoomCode   string  `json:"roomCode"`
	IsOccupied bool    `json:"isOccupied"`
	Course     *Course `json:"course"`
}

func (s *Service) CourseAt(ctx context.Context, roomCode string, q AtTimeQuery) (CourseAtTime, error) {
	row, err := s.store.RoomCourseAt(ctx, roomCode, q.Day, q.Time)
	if err != nil {
		return CourseAtTime{}, apperr.Internal("Failed to fetch room course at time", err)
	}
	return courseAtTime(roomCode, row), nil
}

func courseAtTime(roomCode string, row *model.RoomCourse) CourseAtTime {
	if row == nil {
		return CourseAtTime{RoomCode: roomCode}
	}
	out := CourseAtTime{RoomCode: row.RoomCode, IsOccupied: row.CourseCode != nil}
	if row.CourseCode != nil && *row.CourseCode != "" {
		out.Course = &Course{
			Code:      *row.CourseCode,
			Name:      row.CourseName,
			DayOfWeek: row.DayOfWeek,
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
		}
	}
	return out
}

type Schedule struct {
	RoomID   int64                 `json:"roomId"`
	Day      *int32                `json:"day"`
	Schedule []model.ScheduleEntry `json:"schedule"`
}

func (s *Service) Schedule(ctx context.Context, roomID int64, day *int32) (Schedule, error) {
	entries, err := s.store.RoomSchedule(ctx, roomID, day)
	if err != nil {
		return Schedule{}, apperr.Internal("Failed to fetch room schedule", err)
	}
	return Schedule{RoomID: roomID, Day: day, Schedule: entries}, nil
}

type Occupancy struct {
	RoomID     int64 `json:"roomId"`
	IsOccupied bool  `json:"isOccupied"`
}

func (s *Service) IsOccupied(ctx context.Context, roomID int64, q AtTimeQuery) (Occupancy, error) {
	occupied, err := s.store.RoomIsOccupied(ctx, roomID, q.Day, q.Time)
	if err != nil {
		return Occupancy{}, apperr.Internal("Failed to fetch room occupancy", err)
	}
	return Occupancy{RoomID: roomID, IsOccupied: occupied}, nil
}
