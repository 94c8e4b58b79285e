package handlers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gyanpath/lms-backend/internal/models"
	"github.com/gyanpath/lms-backend/internal/store"
)

// courseRouter mounts the handler the way routes.Setup does so that
// chi.URLParam resolves in tests.
func courseRouter(h *CourseHandler) *chi.Mux {
	r := chi.NewRouter()
	r.Get("/courses", h.List)
	r.Get("/courses/{id}", h.GetLectures)
	r.Post("/courses", h.Create)
	r.Put("/courses/{id}", h.Update)
	r.Delete("/courses/{id}", h.Remove)
	r.Post("/courses/{id}", h.AddLecture)
	return r
}

func seedCourse(t *testing.T, courses store.CourseStore, lectures ...models.Lecture) *models.Course {
	t.Helper()

	course := &models.Course{
		Title:       "Go from scratch",
		Description: "A hands-on course",
		Category:    "programming",
	}
	require.NoError(t, courses.Create(context.Background(), course))
	for _, lec := range lectures {
		_, err := courses.AddLecture(context.Background(), course.ID.Hex(), lec)
		require.NoError(t, err)
	}
	return course
}

func TestListCoursesExcludesLectures(t *testing.T) {
	env := newTestEnv(t)
	seedCourse(t, env.courses,
		models.Lecture{Title: "Intro", Description: "Welcome"},
		models.Lecture{Title: "Setup", Description: "Toolchain"},
	)
	router := courseRouter(env.course)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	courses, ok := body["courses"].([]interface{})
	require.True(t, ok)
	require.Len(t, courses, 1)

	first, ok := courses[0].(map[string]interface{})
	require.True(t, ok)
	assert.Empty(t, first["lectures"])
	assert.EqualValues(t, 2, first["number_of_lectures"])
}

func TestCreateCourse(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@x.com", "pw123456", models.RoleAdmin)
	router := courseRouter(env.course)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(jsonRequest(t, http.MethodPost, "/courses", map[string]string{
		"title":       "Go from scratch",
		"description": "A hands-on course",
		"category":    "programming",
	}), admin))

	require.Equal(t, http.StatusCreated, rec.Code)

	courses, err := env.courses.List(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.Equal(t, "Go from scratch", courses[0].Title)
	assert.Equal(t, admin.ID.Hex(), courses[0].CreatedBy)
}

func TestCreateCourseValidation(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@x.com", "pw123456", models.RoleAdmin)
	router := courseRouter(env.course)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(jsonRequest(t, http.MethodPost, "/courses", map[string]string{
		"title": "Only a title",
	}), admin))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateCourseWithThumbnail(t *testing.T) {
	env := newTestEnv(t)
	media := &fakeMedia{}
	env.course = NewCourseHandler(env.courses, media)
	admin := env.createUser(t, "admin@x.com", "pw123456", models.RoleAdmin)
	router := courseRouter(env.course)

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "Go from scratch"))
	require.NoError(t, mw.WriteField("description", "A hands-on course"))
	require.NoError(t, mw.WriteField("category", "programming"))
	fw, err := mw.CreateFormFile("thumbnail", "thumb.png")
	require.NoError(t, err)
	_, err = fw.Write([]byte("png-bytes"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/courses", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(req, admin))

	require.Equal(t, http.StatusCreated, rec.Code)

	courses, err := env.courses.List(context.Background())
	require.NoError(t, err)
	require.Len(t, courses, 1)
	assert.NotEmpty(t, courses[0].Thumbnail.PublicID)
}

func TestUpdateCourse(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@x.com", "pw123456", models.RoleAdmin)
	course := seedCourse(t, env.courses)
	router := courseRouter(env.course)

	t.Run("allow-listed field", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withSession(jsonRequest(t, http.MethodPut, "/courses/"+course.ID.Hex(), map[string]string{
			"title": "Go, revised",
		}), admin))
		require.Equal(t, http.StatusOK, rec.Code)

		got, err := env.courses.Get(context.Background(), course.ID.Hex())
		require.NoError(t, err)
		assert.Equal(t, "Go, revised", got.Title)
		assert.Equal(t, "A hands-on course", got.Description)
	})

	t.Run("empty body", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withSession(jsonRequest(t, http.MethodPut, "/courses/"+course.ID.Hex(), map[string]string{}), admin))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown course", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withSession(jsonRequest(t, http.MethodPut, "/courses/unknown", map[string]string{
			"title": "ghost",
		}), admin))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRemoveCourseDestroysMedia(t *testing.T) {
	env := newTestEnv(t)
	media := &fakeMedia{}
	env.course = NewCourseHandler(env.courses, media)
	admin := env.createUser(t, "admin@x.com", "pw123456", models.RoleAdmin)
	router := courseRouter(env.course)

	course := seedCourse(t, env.courses, models.Lecture{
		Title:       "Intro",
		Description: "Welcome",
		Media:       models.Media{PublicID: "lms/lecture_1", SecureURL: "https://cdn.example/lecture_1"},
	})
	require.NoError(t, env.courses.SetThumbnail(context.Background(), course.ID.Hex(),
		models.Media{PublicID: "lms/thumb_1", SecureURL: "https://cdn.example/thumb_1"}))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(httptest.NewRequest(http.MethodDelete, "/courses/"+course.ID.Hex(), nil), admin))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.ElementsMatch(t, []string{"lms/thumb_1", "lms/lecture_1"}, media.destroyed)

	_, err := env.courses.Get(context.Background(), course.ID.Hex())
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestAddLecture(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@x.com", "pw123456", models.RoleAdmin)
	course := seedCourse(t, env.courses,
		models.Lecture{Title: "Intro", Description: "Welcome"},
		models.Lecture{Title: "Setup", Description: "Toolchain"},
	)
	router := courseRouter(env.course)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, withSession(jsonRequest(t, http.MethodPost, "/courses/"+course.ID.Hex(), map[string]string{
		"title":       "Slices",
		"description": "Growing and sharing",
	}), admin))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decodeBody(t, rec)["number_of_lectures"])

	got, err := env.courses.Get(context.Background(), course.ID.Hex())
	require.NoError(t, err)
	require.Len(t, got.Lectures, 3)
	assert.Equal(t, 3, got.NumberOfLectures)
	assert.Equal(t, "Slices", got.Lectures[2].Title)
}

func TestAddLectureEdgeCases(t *testing.T) {
	env := newTestEnv(t)
	admin := env.createUser(t, "admin@x.com", "pw123456", models.RoleAdmin)
	router := courseRouter(env.course)

	t.Run("unknown course", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withSession(jsonRequest(t, http.MethodPost, "/courses/unknown", map[string]string{
			"title":       "Slices",
			"description": "Growing and sharing",
		}), admin))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("missing fields", func(t *testing.T) {
		course := seedCourse(t, env.courses)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, withSession(jsonRequest(t, http.MethodPost, "/courses/"+course.ID.Hex(), map[string]string{
			"title": "No description",
		}), admin))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetLecturesUnknownCourse(t *testing.T) {
	env := newTestEnv(t)
	router := courseRouter(env.course)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/courses/unknown", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
