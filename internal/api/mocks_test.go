package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/phrazzld/laneboard/internal/api/shared"
	"github.com/phrazzld/laneboard/internal/domain"
	"github.com/phrazzld/laneboard/internal/service/auth"
	"github.com/phrazzld/laneboard/internal/store"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeTaskService implements service.TaskService with function fields so each
// test supplies only the call it exercises.
type fakeTaskService struct {
	getFn           func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	listFn          func(ctx context.Context, userID, laneID uuid.UUID) ([]*domain.Task, error)
	createFn        func(ctx context.Context, userID, laneID uuid.UUID, name string, status domain.TaskStatus, tags []string) (*domain.Task, error)
	updateFn        func(ctx context.Context, userID, taskID uuid.UUID, name string, tags []string) (*domain.Task, error)
	deleteFn        func(ctx context.Context, userID, taskID uuid.UUID) error
	moveFn          func(ctx context.Context, userID, taskID, toLaneID uuid.UUID, toStatus domain.TaskStatus, position *int) (*domain.Task, error)
	addCommentFn    func(ctx context.Context, userID, taskID uuid.UUID, text string) (*domain.Task, error)
	updateCommentFn func(ctx context.Context, userID, taskID, commentID uuid.UUID, text string) (*domain.Task, error)
	deleteCommentFn func(ctx context.Context, userID, taskID, commentID uuid.UUID) (*domain.Task, error)
}

func (f *fakeTaskService) GetTask(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	return f.getFn(ctx, userID, taskID)
}

func (f *fakeTaskService) ListLaneTasks(ctx context.Context, userID, laneID uuid.UUID) ([]*domain.Task, error) {
	return f.listFn(ctx, userID, laneID)
}

func (f *fakeTaskService) CreateTask(ctx context.Context, userID, laneID uuid.UUID, name string, status domain.TaskStatus, tags []string) (*domain.Task, error) {
	return f.createFn(ctx, userID, laneID, name, status, tags)
}

func (f *fakeTaskService) UpdateTask(ctx context.Context, userID, taskID uuid.UUID, name string, tags []string) (*domain.Task, error) {
	return f.updateFn(ctx, userID, taskID, name, tags)
}

func (f *fakeTaskService) DeleteTask(ctx context.Context, userID, taskID uuid.UUID) error {
	return f.deleteFn(ctx, userID, taskID)
}

func (f *fakeTaskService) MoveTask(ctx context.Context, userID, taskID, toLaneID uuid.UUID, toStatus domain.TaskStatus, position *int) (*domain.Task, error) {
	return f.moveFn(ctx, userID, taskID, toLaneID, toStatus, position)
}

func (f *fakeTaskService) AddComment(ctx context.Context, userID, taskID uuid.UUID, text string) (*domain.Task, error) {
	return f.addCommentFn(ctx, userID, taskID, text)
}

func (f *fakeTaskService) UpdateComment(ctx context.Context, userID, taskID, commentID uuid.UUID, text string) (*domain.Task, error) {
	return f.updateCommentFn(ctx, userID, taskID, commentID, text)
}

func (f *fakeTaskService) DeleteComment(ctx context.Context, userID, taskID, commentID uuid.UUID) (*domain.Task, error) {
	return f.deleteCommentFn(ctx, userID, taskID, commentID)
}

// fakeLaneService implements service.SwimLaneService.
type fakeLaneService struct {
	listFn       func(ctx context.Context, userID uuid.UUID, filter store.LaneFilter) ([]*domain.SwimLane, error)
	getFn        func(ctx context.Context, userID, laneID uuid.UUID) (*domain.SwimLane, error)
	createFn     func(ctx context.Context, userID uuid.UUID, name string) (*domain.SwimLane, error)
	renameFn     func(ctx context.Context, userID, laneID uuid.UUID, name string) (*domain.SwimLane, error)
	completeFn   func(ctx context.Context, userID, laneID uuid.UUID) (*domain.SwimLane, error)
	uncompleteFn func(ctx context.Context, userID, laneID uuid.UUID) (*domain.SwimLane, error)
	deleteFn     func(ctx context.Context, userID, laneID uuid.UUID) error
	reorderFn    func(ctx context.Context, userID uuid.UUID, orderedIDs []uuid.UUID) error
}

func (f *fakeLaneService) ListLanes(ctx context.Context, userID uuid.UUID, filter store.LaneFilter) ([]*domain.SwimLane, error) {
	return f.listFn(ctx, userID, filter)
}

func (f *fakeLaneService) GetLane(ctx context.Context, userID, laneID uuid.UUID) (*domain.SwimLane, error) {
	return f.getFn(ctx, userID, laneID)
}

func (f *fakeLaneService) CreateLane(ctx context.Context, userID uuid.UUID, name string) (*domain.SwimLane, error) {
	return f.createFn(ctx, userID, name)
}

func (f *fakeLaneService) RenameLane(ctx context.Context, userID, laneID uuid.UUID, name string) (*domain.SwimLane, error) {
	return f.renameFn(ctx, userID, laneID, name)
}

func (f *fakeLaneService) CompleteLane(ctx context.Context, userID, laneID uuid.UUID) (*domain.SwimLane, error) {
	return f.completeFn(ctx, userID, laneID)
}

func (f *fakeLaneService) UncompleteLane(ctx context.Context, userID, laneID uuid.UUID) (*domain.SwimLane, error) {
	return f.uncompleteFn(ctx, userID, laneID)
}

func (f *fakeLaneService) DeleteLane(ctx context.Context, userID, laneID uuid.UUID) error {
	return f.deleteFn(ctx, userID, laneID)
}

func (f *fakeLaneService) ReorderLanes(ctx context.Context, userID uuid.UUID, orderedIDs []uuid.UUID) error {
	return f.reorderFn(ctx, userID, orderedIDs)
}

// fakeUserService implements service.UserService.
type fakeUserService struct {
	registerFn     func(ctx context.Context, email, password string) (*domain.User, error)
	authenticateFn func(ctx context.Context, email, password string) (*domain.User, error)
	getFn          func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
}

func (f *fakeUserService) Register(ctx context.Context, email, password string) (*domain.User, error) {
	return f.registerFn(ctx, email, password)
}

func (f *fakeUserService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	return f.authenticateFn(ctx, email, password)
}

func (f *fakeUserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	return f.getFn(ctx, userID)
}

// fakeJWTService implements auth.JWTService.
type fakeJWTService struct {
	generateFn func(ctx context.Context, userID uuid.UUID) (string, error)
	validateFn func(ctx context.Context, tokenString string) (*auth.Claims, error)
}

func (f *fakeJWTService) GenerateToken(ctx context.Context, userID uuid.UUID) (string, error) {
	return f.generateFn(ctx, userID)
}

func (f *fakeJWTService) ValidateToken(ctx context.Context, tokenString string) (*auth.Claims, error) {
	return f.validateFn(ctx, tokenString)
}

// newAuthedRequest builds a request carrying an authenticated user ID and the
// given chi URL params, the way the middleware and router would.
func newAuthedRequest(t *testing.T, method, target string, body string, userID uuid.UUID, params map[string]string) *http.Request {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)

	ctx := context.WithValue(req.Context(), shared.UserIDContextKey, userID)
	if len(params) > 0 {
		rctx := chi.NewRouteContext()
		for k, v := range params {
			rctx.URLParams.Add(k, v)
		}
		ctx = context.WithValue(ctx, chi.RouteCtxKey, rctx)
	}
	return req.WithContext(ctx)
}
