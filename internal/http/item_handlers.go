package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"universe/internal/apperr"
	"universe/internal/lostfound"
	"universe/internal/model"
)

const multipartMemory = 8 << 20

func failMessage(action string, kind model.ItemKind) string {
	return "Failed to " + action + " " + strings.ToLower(kind.Label())
}

func (s *Server) handleCreateItem(kind model.ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := identityFromContext(r.Context())
		in, uploads, err := s.readItemRequest(w, r, kind)
		if err != nil {
			s.writeAppError(w, r, err, failMessage("create", kind))
			return
		}
		item, err := s.items.Create(r.Context(), kind, identity.UserID, in, uploads)
		if err != nil {
			s.writeAppError(w, r, err, failMessage("create", kind))
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{
			"message": kind.Label() + " created successfully",
			"item":    item,
		})
	}
}

// readItemRequest accepts either a multipart form with up to UploadMaxFiles
// "images" parts or a plain JSON body without images.
func (s *Server) readItemRequest(w http.ResponseWriter, r *http.Request, kind model.ItemKind) (lostfound.CreateInput, []lostfound.Upload, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType != "multipart/form-data" {
		return readItemJSON(w, r, kind)
	}

	maxBytes := s.cfg.UploadMaxBytes
	maxFiles := s.cfg.UploadMaxFiles
	r.Body = http.MaxBytesReader(w, r.Body, int64(maxFiles)*maxBytes+multipartMemory)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			return lostfound.CreateInput{}, nil, apperr.BadRequest("Image too large")
		}
		return lostfound.CreateInput{}, nil, apperr.BadRequest("Invalid multipart body")
	}
	defer r.MultipartForm.RemoveAll()

	in := lostfound.CreateInput{
		Name:        r.FormValue(lostfound.NameField(kind)),
		Location:    r.FormValue("location"),
		Description: r.FormValue("description"),
		Date:        r.FormValue(lostfound.DateField(kind)),
	}

	headers := r.MultipartForm.File["images"]
	if len(headers) > maxFiles {
		return in, nil, apperr.BadRequest("Too many images")
	}
	uploads := make([]lostfound.Upload, 0, len(headers))
	for _, fh := range headers {
		if fh.Size > maxBytes {
			return in, nil, apperr.BadRequest("Image too large")
		}
		f, err := fh.Open()
		if err != nil {
			return in, nil, apperr.BadRequest("Invalid multipart body")
		}
		data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
		f.Close()
		if err != nil {
			return in, nil, apperr.BadRequest("Invalid multipart body")
		}
		uploads = append(uploads, lostfound.Upload{Filename: fh.Filename, Data: data})
	}
	return in, uploads, nil
}

// readItemJSON treats null or absent fields as empty; any other non-string
// value is a validation error on that field.
func readItemJSON(w http.ResponseWriter, r *http.Request, kind model.ItemKind) (lostfound.CreateInput, []lostfound.Upload, error) {
	var body map[string]any
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&body); err != nil {
		return lostfound.CreateInput{}, nil, apperr.BadRequest("Invalid JSON body")
	}
	fields := apperr.NewFields("Validation error")
	str := func(name string) string {
		switch v := body[name].(type) {
		case nil:
			return ""
		case string:
			return v
		default:
			fields.Add(name, name+" must be a string")
			return ""
		}
	}
	in := lostfound.CreateInput{
		Name:        str(lostfound.NameField(kind)),
		Location:    str("location"),
		Description: str("description"),
		Date:        str(lostfound.DateField(kind)),
	}
	return in, nil, fields.Err()
}

type listResponse struct {
	Total  int64        `json:"total"`
	Limit  int          `json:"limit"`
	Offset int          `json:"offset"`
	Items  []model.Item `json:"items"`
}

func (s *Server) handleListItems(kind model.ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		filter, err := lostfound.ParseFilter(r.URL.Query())
		if err != nil {
			s.writeAppError(w, r, err, "")
			return
		}
		res, err := s.items.List(r.Context(), kind, filter)
		if err != nil {
			s.writeAppError(w, r, err, "Failed to fetch "+strings.ToLower(kind.Label())+"s")
			return
		}
		writeJSON(w, http.StatusOK, listResponse{
			Total:  res.Total,
			Limit:  filter.Limit,
			Offset: filter.Offset,
			Items:  res.Items,
		})
	}
}

func (s *Server) handleGetItem(kind model.ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := lostfound.ParseID(chi.URLParam(r, "id"))
		if err != nil {
			s.writeAppError(w, r, err, "")
			return
		}
		item, err := s.items.Get(r.Context(), kind, id)
		if err != nil {
			s.writeAppError(w, r, err, failMessage("fetch", kind))
			return
		}
		writeJSON(w, http.StatusOK, item)
	}
}

func (s *Server) handleResolveItem(kind model.ItemKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := identityFromContext(r.Context())
		id, err := lostfound.ParseID(chi.URLParam(r, "id"))
		if err != nil {
			s.writeAppError(w, r, err, "")
			return
		}
		if err := s.items.Resolve(r.Context(), kind, id, identity.UserID); err != nil {
			s.writeAppError(w, r, err, failMessage("resolve", kind))
			return
		}
		writeJSON(w, http.StatusOK, messageResponse{Message: kind.Label() + " resolved successfully"})
	}
}

// itemRef parses the {type}/{id} segments shared by the comment and image
// routes.
func itemRef(r *http.Request) (model.ItemKind, int64, error) {
	kind, err := lostfound.ParseKind(chi.URLParam(r, "type"))
	if err != nil {
		return "", 0, err
	}
	id, err := lostfound.ParseID(chi.URLParam(r, "id"))
	if err != nil {
		return "", 0, err
	}
	return kind, id, nil
}

type commentRequest struct {
	Content string `json:"content"`
}

func (s *Server) handleAddComment(w http.ResponseWriter, r *http.Request) {
	identity, _ := identityFromContext(r.Context())
	var req commentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeError(w, http.StatusBadRequest, "Comment content is required")
		return
	}
	kind, id, err := itemRef(r)
	if err != nil {
		s.writeAppError(w, r, err, "")
		return
	}
	comment, err := s.items.AddComment(r.Context(), kind, id, identity.UserID, req.Content)
	if err != nil {
		s.writeAppError(w, r, err, "Failed to add comment")
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{
		"message": "Comment added successfully",
		"comment": comment,
	})
}

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	kind, id, err := itemRef(r)
	if err != nil {
		s.writeAppError(w, r, err, "")
		return
	}
	comments, err := s.items.Comments(r.Context(), kind, id)
	if err != nil {
		s.writeAppError(w, r, err, "Failed to fetch comments")
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) handleListImages(w http.ResponseWriter, r *http.Request) {
	kind, id, err := itemRef(r)
	if err != nil {
		s.writeAppError(w, r, err, "")
		return
	}
	images, err := s.items.Images(r.Context(), kind, id)
	if err != nil {
		s.writeAppError(w, r, err, "Failed to fetch images")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"images": images})
}

func (s *Server) handleCommentStream(w http.ResponseWriter, r *http.Request) {
	kind, id, err := itemRef(r)
	if err != nil {
		s.writeAppError(w, r, err, "")
		return
	}
	if s.live == nil {
		writeError(w, http.StatusNotFound, "Live updates are disabled")
		return
	}
	s.live.ServeTopic(w, r, model.ItemTopic(kind, id))
}
