package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"universe/internal/rooms"
)

func (s *Server) handleFreeRooms(w http.ResponseWriter, r *http.Request) {
	q, err := rooms.ParseFreeRoomsQuery(r.URL.Query())
	if err != nil {
		s.writeAppError(w, r, err, "")
		return
	}
	res, err := s.rooms.FreeRooms(r.Context(), q)
	if err != nil {
		s.writeAppError(w, r, err, "Failed to fetch free rooms")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRoomCourseAt(w http.ResponseWriter, r *http.Request) {
	code, err := rooms.ParseRoomCode(chi.URLParam(r, "room"))
	if err != nil {
		s.writeAppError(w, r, err, "")
		return
	}
	q, err := rooms.ParseAtTimeQuery(r.URL.Query())
	if err != nil {
		s.writeAppError(w, r, err, "")
		return
	}
	res, err := s.rooms.CourseAt(r.Context(), code, q)
	if err != nil {
		s.writeAppError(w, r, err, "Failed to fetch room course at time")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRoomSchedule(w http.ResponseWriter, r *http.Request) {
	id, err := rooms.ParseRoomID(chi.URLParam(r, "room"))
	if err != nil {
		s.writeAppError(w, r, err, "")
		return
	}
	day, err := rooms.ParseOptionalDay(r.URL.Query())
	if err != nil {
		s.writeAppError(w, r, err, "")
		return
	}
	res, err := s.rooms.Schedule(r.Context(), id, day)
	if err != nil {
		s.writeAppError(w, r, err, "Failed to fetch room schedule")
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRoomOccupied(w http.ResponseWriter, r *http.Request) {
	id, err := rooms.ParseRoomID(chi.URLParam(r, "room"))
	if err != nil {
		s.writeAppError(w, r, err, "")
		return
	}
	q, err := rooms.ParseAtTimeQuery(r.URL.Query())
	if err != nil {
		s.writeAppError(w, r, err, "")
		return
	}
	res, err := s.rooms.IsOccupied(r.Context(), id, q)
	if err != nil {
		s.writeAppError(w, r, err, "Failed to fetch room occupancy")
		return
	}
	writeJSON(w, http.StatusOK, res)
}
