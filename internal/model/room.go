package model

type FreeRoom struct {
	RoomID       int64  `json:"room_id"`
	RoomCode     string `json:"room_code"`
	BuildingName string `json:"building_name"`
	FloorNumber  int32  `json:"floor_number"`
}

// RoomCourse is one row of fn_room_course_at_time. CourseCode is nil when
// the room is free at that time; the session columns may then be NULL too.
type RoomCourse struct {
	RoomCode   string
	DayOfWeek  *int32
	StartTime  *string
	EndTime    *string
	CourseCode *string
	CourseName *string
}

type ScheduleEntry struct {
	DayOfWeek  int32   `json:"day_of_week"`
	StartTime  *string `json:"start_time"`
	EndTime    *string `json:"end_time"`
	CourseCode *string `json:"course_code"`
	CourseName *string `json:"course_name"`
}
