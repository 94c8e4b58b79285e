package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/gyanpath/lms-backend/internal/gateway"
	"github.com/gyanpath/lms-backend/internal/middleware"
	"github.com/gyanpath/lms-backend/internal/models"
	"github.com/gyanpath/lms-backend/internal/services"
	"github.com/gyanpath/lms-backend/internal/store"
	"github.com/gyanpath/lms-backend/pkg/utils"
)

// Shared fakes for handler tests.

type sentMail struct {
	To      string
	Subject string
	Body    string
}

type fakeMailer struct {
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(to, subject, body string) error {
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

type fakeGateway struct {
	created      *gateway.Subscription
	createErr    error
	cancelled    *gateway.Subscription
	cancelErr    error
	cancelledIDs []string
	listed       []gateway.Subscription
}

func (g *fakeGateway) CreateSubscription(context.Context) (*gateway.Subscription, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	if g.created == nil {
		return &gateway.Subscription{ID: "sub_test", Status: models.SubscriptionCreated}, nil
	}
	return g.created, nil
}

func (g *fakeGateway) CancelSubscription(_ context.Context, id string) (*gateway.Subscription, error) {
	if g.cancelErr != nil {
		return nil, g.cancelErr
	}
	g.cancelledIDs = append(g.cancelledIDs, id)
	if g.cancelled == nil {
		return &gateway.Subscription{ID: id, Status: models.SubscriptionCancelled}, nil
	}
	return g.cancelled, nil
}

func (g *fakeGateway) ListSubscriptions(context.Context, int) ([]gateway.Subscription, error) {
	return g.listed, nil
}

type testEnv struct {
	users    *store.MemoryUserStore
	courses  *store.MemoryCourseStore
	payments *store.MemoryPaymentStore
	sessions *services.SessionService
	mailer   *fakeMailer
	gateway  *fakeGateway
	auth     *AuthHandler
	course   *CourseHandler
	payment  *PaymentHandler
}

const testGatewaySecret = "rzp-test-secret"

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		users:    store.NewMemoryUserStore(),
		courses:  store.NewMemoryCourseStore(),
		payments: store.NewMemoryPaymentStore(),
		sessions: services.NewSessionService("test-secret", time.Hour),
		mailer:   &fakeMailer{},
		gateway:  &fakeGateway{},
	}
	env.auth = NewAuthHandler(env.users, env.sessions, nil, env.mailer, "http://localhost:3000")
	env.course = NewCourseHandler(env.courses, nil)
	env.payment = NewPaymentHandler(env.users, env.payments, env.gateway, "rzp_test_key", testGatewaySecret)
	return env
}

func (e *testEnv) createUser(t *testing.T, email, password, role string) *models.User {
	t.Helper()

	hash, err := utils.HashPassword(password)
	require.NoError(t, err)
	u := &models.User{
		FullName: "Test User",
		Email:    email,
		Password: hash,
		Role:     role,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func jsonRequest(t *testing.T, method, target string, payload interface{}) *http.Request {
	t.Helper()

	var body bytes.Buffer
	if payload != nil {
		require.NoError(t, json.NewEncoder(&body).Encode(payload))
	}
	req := httptest.NewRequest(method, target, &body)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withSession(req *http.Request, u *models.User) *http.Request {
	ctx := middleware.WithSession(req.Context(), &services.Session{UserID: u.ID.Hex(), Role: u.Role})
	return req.WithContext(ctx)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}
