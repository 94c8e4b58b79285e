package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/gyanpath/lms-backend/internal/middleware"
	"github.com/gyanpath/lms-backend/internal/models"
	"github.com/gyanpath/lms-backend/internal/services"
	"github.com/gyanpath/lms-backend/internal/store"
)

type CourseHandler struct {
	courses store.CourseStore
	media   services.MediaUploader
}

func NewCourseHandler(courses store.CourseStore, media services.MediaUploader) *CourseHandler {
	return &CourseHandler{courses: courses, media: media}
}

type CreateCourseRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

type UpdateCourseRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Category    *string `json:"category"`
}

type AddLectureRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// List returns the catalog without lecture content.
func (h *CourseHandler) List(w http.ResponseWriter, r *http.Request) {
	courses, err := h.courses.List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Cannot get courses, please try again")
		return
	}

	writeSuccess(w, http.StatusOK, "All courses", map[string]interface{}{
		"courses": courses,
	})
}

// GetLectures returns the lecture sequence of one course.
func (h *CourseHandler) GetLectures(w http.ResponseWriter, r *http.Request) {
	course, err := h.courses.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Invalid course id")
			return
		}
		writeError(w, http.StatusInternalServerError, "Cannot get lectures, please try again")
		return
	}

	writeSuccess(w, http.StatusOK, "Course lectures fetched successfully", map[string]interface{}{
		"lectures":           course.Lectures,
		"number_of_lectures": course.NumberOfLectures,
	})
}

// Create registers a course, then uploads the optional thumbnail. The course
// stays usable when the upload fails.
func (h *CourseHandler) Create(w http.ResponseWriter, r *http.Request) {
	session, ok := middleware.SessionFrom(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "Please log in to continue")
		return
	}

	var req CreateCourseRequest
	var thumbFile multipart.File

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		req.Title = r.FormValue("title")
		req.Description = r.FormValue("description")
		req.Category = r.FormValue("category")

		if file, _, err := r.FormFile("thumbnail"); err == nil {
			thumbFile = file
			defer file.Close()
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)
	req.Category = strings.TrimSpace(req.Category)

	if req.Title == "" || req.Description == "" || req.Category == "" {
		writeError(w, http.StatusBadRequest, "Title, description and category are required")
		return
	}

	course := &models.Course{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		CreatedBy:   session.UserID,
	}

	if err := h.courses.Create(r.Context(), course); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create course, please try again")
		return
	}

	if thumbFile != nil && h.media != nil {
		if media, err := h.media.Upload(r.Context(), thumbFile, "lms"); err != nil {
			log.Printf("thumbnail upload failed for course %s: %v", course.ID.Hex(), err)
		} else if err := h.courses.SetThumbnail(r.Context(), course.ID.Hex(), *media); err != nil {
			log.Printf("thumbnail update failed for course %s: %v", course.ID.Hex(), err)
		} else {
			course.Thumbnail = *media
		}
	}

	writeSuccess(w, http.StatusCreated, "Course created successfully", map[string]interface{}{
		"course": course,
	})
}

// Update applies the allow-listed course fields only; arbitrary body keys
// are never written through.
func (h *CourseHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req UpdateCourseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.Title == nil && req.Description == nil && req.Category == nil {
		writeError(w, http.StatusBadRequest, "Nothing to update")
		return
	}

	err := h.courses.Update(r.Context(), chi.URLParam(r, "id"), store.CourseUpdate{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
	})
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Invalid course id")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to update course, please try again")
		return
	}

	writeSuccess(w, http.StatusOK, "Course updated successfully", nil)
}

// Remove deletes the course and then best-effort removes its media assets.
func (h *CourseHandler) Remove(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	course, err := h.courses.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Invalid course id")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to remove course, please try again")
		return
	}

	if err := h.courses.Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Invalid course id")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to remove course, please try again")
		return
	}

	if h.media != nil {
		if course.Thumbnail.PublicID != "" {
			if err := h.media.Destroy(r.Context(), course.Thumbnail.PublicID); err != nil {
				log.Printf("failed to destroy thumbnail %s: %v", course.Thumbnail.PublicID, err)
			}
		}
		for _, lec := range course.Lectures {
			if lec.Media.PublicID == "" {
				continue
			}
			if err := h.media.Destroy(r.Context(), lec.Media.PublicID); err != nil {
				log.Printf("failed to destroy lecture media %s: %v", lec.Media.PublicID, err)
			}
		}
	}

	writeSuccess(w, http.StatusOK, "Course removed successfully", nil)
}

// AddLecture appends a lecture to the course. The denormalized lecture count
// comes back from the store, recomputed from the stored sequence length.
func (h *CourseHandler) AddLecture(w http.ResponseWriter, r *http.Request) {
	var req AddLectureRequest
	var mediaFile multipart.File

	if isMultipart(r) {
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid multipart form")
			return
		}
		req.Title = r.FormValue("title")
		req.Description = r.FormValue("description")

		if file, _, err := r.FormFile("lecture"); err == nil {
			mediaFile = file
			defer file.Close()
		}
	} else {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	req.Title = strings.TrimSpace(req.Title)
	req.Description = strings.TrimSpace(req.Description)

	if req.Title == "" || req.Description == "" {
		writeError(w, http.StatusBadRequest, "Title and description are required")
		return
	}

	lecture := models.Lecture{
		Title:       req.Title,
		Description: req.Description,
	}

	if mediaFile != nil && h.media != nil {
		if media, err := h.media.Upload(r.Context(), mediaFile, "lms"); err != nil {
			log.Printf("lecture media upload failed: %v", err)
		} else {
			lecture.Media = *media
		}
	}

	count, err := h.courses.AddLecture(r.Context(), chi.URLParam(r, "id"), lecture)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Invalid course id")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to add lecture, please try again")
		return
	}

	writeSuccess(w, http.StatusOK, "Lecture added successfully", map[string]interface{}{
		"lecture":            lecture,
		"number_of_lectures": count,
	})
}
