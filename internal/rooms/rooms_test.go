package rooms

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"

	"universe/internal/apperr"
	"universe/internal/model"
)

type fakeStore struct {
	free     []model.FreeRoom
	course   *model.RoomCourse
	schedule []model.ScheduleEntry
	occupied bool
	err      error

	gotBuilding *string
	gotFloor    *int32
	gotDay      *int32
}

func (f *fakeStore) FreeRoomsAt(_ context.Context, _ int32, _ string, building *string, floor *int32) ([]model.FreeRoom, error) {
	f.gotBuilding, f.gotFloor = building, floor
	return f.free, f.err
}

func (f *fakeStore) RoomCourseAt(context.Context, string, int32, string) (*model.RoomCourse, error) {
	return f.course, f.err
}

func (f *fakeStore) RoomSchedule(_ context.Context, _ int64, day *int32) ([]model.ScheduleEntry, error) {
	f.gotDay = day
	return f.schedule, f.err
}

func (f *fakeStore) RoomIsOccupied(context.Context, int64, int32, string) (bool, error) {
	return f.occupied, f.err
}

func strp(s string) *string { return &s }
func i32p(n int32) *int32    { return &n }

func TestParseFreeRoomsQuery(t *testing.T) {
	q, err := ParseFreeRoomsQuery(url.Values{
		"day":          {"3"},
		"time":         {"10:30:00"},
		"buildingName": {"Main"},
		"floorNumber":  {"2"},
	})
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if q.Day != 3 || q.Time != "10:30:00" || *q.Building != "Main" || *q.Floor != 2 {
		t.Fatalf("unexpected query %+v", q)
	}

	_, err = ParseFreeRoomsQuery(url.Values{"day": {"8"}, "time": {"10:30"}, "floorNumber": {"0"}})
	appErr := apperr.From(err)
	if appErr == nil || appErr.Message != "Query validation error" || len(appErr.Details) != 3 {
		t.Fatalf("expected three query issues, got %v", err)
	}
	if appErr.Details[1].Message != "Time must be in HH:MM:SS format" {
		t.Fatalf("unexpected time message %q", appErr.Details[1].Message)
	}
}

func TestParseParams(t *testing.T) {
	if _, err := ParseRoomID("abc"); apperr.From(err) == nil || apperr.From(err).Message != "Params validation error" {
		t.Fatalf("expected params error, got %v", err)
	}
	if id, err := ParseRoomID("12"); err != nil || id != 12 {
		t.Fatalf("expected 12, got %d %v", id, err)
	}
	if _, err := ParseRoomCode(""); err == nil {
		t.Fatalf("expected empty room code to fail")
	}
	day, err := ParseOptionalDay(url.Values{})
	if err != nil || day != nil {
		t.Fatalf("expected nil day, got %v %v", day, err)
	}
	if _, err := ParseOptionalDay(url.Values{"day": {"0"}}); err == nil {
		t.Fatalf("expected day 0 to fail")
	}
}

func TestCourseAtShapesResponse(t *testing.T) {
	store := &fakeStore{}
	svc := NewService(store)
	ctx := context.Background()

	res, err := svc.CourseAt(ctx, "A-101", AtTimeQuery{Day: 1, Time: "09:00:00"})
	if err != nil {
		t.Fatalf("course at: %v", err)
	}
	body, _ := json.Marshal(res)
	if string(body) != `{"roomCode":"A-101","isOccupied":false,"course":null}` {
		t.Fatalf("unexpected empty response %s", body)
	}

	store.course = &model.RoomCourse{
		RoomCode: "A-101", DayOfWeek: i32p(1), StartTime: strp("09:00:00"), EndTime: strp("10:50:00"),
		CourseCode: strp("SE 3355"), CourseName: strp("Web Programming"),
	}
	res, err = svc.CourseAt(ctx, "A-101", AtTimeQuery{Day: 1, Time: "09:30:00"})
	if err != nil {
		t.Fatalf("course at: %v", err)
	}
	if !res.IsOccupied || res.Course == nil || res.Course.Code != "SE 3355" || res.Course.EndTime == nil || *res.Course.EndTime != "10:50:00" {
		t.Fatalf("unexpected occupied response %+v", res)
	}

	store.course = &model.RoomCourse{RoomCode: "A-101"}
	res, _ = svc.CourseAt(ctx, "A-101", AtTimeQuery{Day: 1, Time: "12:00:00"})
	if res.IsOccupied || res.Course != nil {
		t.Fatalf("expected free room when course code is null, got %+v", res)
	}
}

func TestCourseAtKeepsNullSessionColumns(t *testing.T) {
	store := &fakeStore{course: &model.RoomCourse{RoomCode: "A-101", CourseCode: strp("SE 3355")}}
	res, err := NewService(store).CourseAt(context.Background(), "A-101", AtTimeQuery{Day: 1, Time: "09:30:00"})
	if err != nil {
		t.Fatalf("course at: %v", err)
	}
	body, _ := json.Marshal(res)
	want := `{"roomCode":"A-101","isOccupied":true,"course":{"code":"SE 3355","name":null,"dayOfWeek":null,"startTime":null,"endTime":null}}`
	if string(body) != want {
		t.Fatalf("unexpected response\n got %s\nwant %s", body, want)
	}

	entry, _ := json.Marshal(model.ScheduleEntry{DayOfWeek: 3})
	if string(entry) != `{"day_of_week":3,"start_time":null,"end_time":null,"course_code":null,"course_name":null}` {
		t.Fatalf("unexpected schedule entry %s", entry)
	}
}

func TestFreeRoomsAndSchedule(t *testing.T) {
	store := &fakeStore{
		free:     []model.FreeRoom{{RoomID: 1, RoomCode: "B-2"}, {RoomID: 2, RoomCode: "B-3"}},
		schedule: []model.ScheduleEntry{{DayOfWeek: 2, CourseCode: strp("CS 101")}},
	}
	svc := NewService(store)
	ctx := context.Background()

	free, err := svc.FreeRooms(ctx, FreeRoomsQuery{Day: 2, Time: "11:00:00", Building: strp("B")})
	if err != nil || free.Count != 2 {
		t.Fatalf("expected 2 rooms, got %+v %v", free, err)
	}
	if store.gotBuilding == nil || *store.gotBuilding != "B" || store.gotFloor != nil {
		t.Fatalf("optional filters not forwarded")
	}

	day := int32(2)
	sched, err := svc.Schedule(ctx, 7, &day)
	if err != nil || sched.RoomID != 7 || len(sched.Schedule) != 1 {
		t.Fatalf("unexpected schedule %+v %v", sched, err)
	}
	body, _ := json.Marshal(Schedule{RoomID: 7, Schedule: []model.ScheduleEntry{}})
	if string(body) != `{"roomId":7,"day":null,"schedule":[]}` {
		t.Fatalf("unexpected schedule json %s", body)
	}
}

func TestDatabaseFailureMapsToInternal(t *testing.T) {
	svc := NewService(&fakeStore{err: errors.New("boom")})
	_, err := svc.FreeRooms(context.Background(), FreeRoomsQuery{Day: 1, Time: "08:00:00"})
	appErr := apperr.From(err)
	if appErr == nil || appErr.Kind != apperr.KindInternal || appErr.Message != "Failed to fetch free rooms" {
		t.Fatalf("expected internal error, got %v", err)
	}
	if _, err := svc.IsOccupied(context.Background(), 1, AtTimeQuery{Day: 1, Time: "08:00:00"}); !apperr.IsKind(err, apperr.KindInternal) {
		t.Fatalf("expected internal error, got %v", err)
	}
}
