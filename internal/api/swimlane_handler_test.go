package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/laneboard/internal/domain"
	"github.com/phrazzld/laneboard/internal/service"
	"github.com/phrazzld/laneboard/internal/store"
)

func TestSwimLaneHandler_List_UsesActiveFilter(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	var gotFilter store.LaneFilter

	svc := &fakeLaneService{
		listFn: func(_ context.Context, gotUser uuid.UUID, filter store.LaneFilter) ([]*domain.SwimLane, error) {
			assert.Equal(t, userID, gotUser)
			gotFilter = filter
			lane, err := domain.NewSwimLane(gotUser, "backlog", 0)
			require.NoError(t, err)
			return []*domain.SwimLane{lane}, nil
		},
	}
	h := NewSwimLaneHandler(svc, discardLogger())

	req := newAuthedRequest(t, http.MethodGet, "/api/lanes", "", userID, nil)
	rec := httptest.NewRecorder()

	h.List(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.LaneFilterActive, gotFilter)

	var lanes []*domain.SwimLane
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lanes))
	require.Len(t, lanes, 1)
	assert.Equal(t, "backlog", lanes[0].Name)
}

func TestSwimLaneHandler_ListCompleted_UsesCompletedFilter(t *testing.T) {
	t.Parallel()

	var gotFilter store.LaneFilter
	svc := &fakeLaneService{
		listFn: func(_ context.Context, _ uuid.UUID, filter store.LaneFilter) ([]*domain.SwimLane, error) {
			gotFilter = filter
			return nil, nil
		},
	}
	h := NewSwimLaneHandler(svc, discardLogger())

	req := newAuthedRequest(t, http.MethodGet, "/api/lanes/completed", "", uuid.New(), nil)
	rec := httptest.NewRecorder()

	h.ListCompleted(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, store.LaneFilterCompleted, gotFilter)
}

func TestSwimLaneHandler_Create(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := &fakeLaneService{
		createFn: func(_ context.Context, gotUser uuid.UUID, name string) (*domain.SwimLane, error) {
			assert.Equal(t, userID, gotUser)
			return domain.NewSwimLane(gotUser, name, 0)
		},
	}
	h := NewSwimLaneHandler(svc, discardLogger())

	req := newAuthedRequest(t, http.MethodPost, "/api/lanes", `{"name":"sprint 12"}`, userID, nil)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var lane domain.SwimLane
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lane))
	assert.Equal(t, "sprint 12", lane.Name)
}

func TestSwimLaneHandler_Create_EmptyName(t *testing.T) {
	t.Parallel()

	h := NewSwimLaneHandler(&fakeLaneService{}, discardLogger())

	req := newAuthedRequest(t, http.MethodPost, "/api/lanes", `{"name":""}`, uuid.New(), nil)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSwimLaneHandler_Rename_Accepted(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := &fakeLaneService{
		renameFn: func(_ context.Context, _, _ uuid.UUID, name string) (*domain.SwimLane, error) {
			return domain.NewSwimLane(userID, name, 0)
		},
	}
	h := NewSwimLaneHandler(svc, discardLogger())

	req := newAuthedRequest(t, http.MethodPut, "/api/lanes/x", `{"name":"renamed"}`, userID,
		map[string]string{"laneID": uuid.NewString()})
	rec := httptest.NewRecorder()

	h.Rename(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var lane domain.SwimLane
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lane))
	assert.Equal(t, "renamed", lane.Name)
}

func TestSwimLaneHandler_Complete_Accepted(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	svc := &fakeLaneService{
		completeFn: func(_ context.Context, _, _ uuid.UUID) (*domain.SwimLane, error) {
			lane, err := domain.NewSwimLane(userID, "done sprint", 0)
			if err != nil {
				return nil, err
			}
			lane.IsCompleted = true
			return lane, nil
		},
	}
	h := NewSwimLaneHandler(svc, discardLogger())

	req := newAuthedRequest(t, http.MethodPost, "/api/lanes/x/complete", "", userID,
		map[string]string{"laneID": uuid.NewString()})
	rec := httptest.NewRecorder()

	h.Complete(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)

	var lane domain.SwimLane
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &lane))
	assert.True(t, lane.IsCompleted)
}

func TestSwimLaneHandler_Rename_DeletedLane(t *testing.T) {
	t.Parallel()

	svc := &fakeLaneService{
		renameFn: func(context.Context, uuid.UUID, uuid.UUID, string) (*domain.SwimLane, error) {
			return nil, service.ErrLaneDeleted
		},
	}
	h := NewSwimLaneHandler(svc, discardLogger())

	req := newAuthedRequest(t, http.MethodPut, "/api/lanes/x", `{"name":"renamed"}`, uuid.New(),
		map[string]string{"laneID": uuid.NewString()})
	rec := httptest.NewRecorder()

	h.Rename(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSwimLaneHandler_Delete_Accepted(t *testing.T) {
	t.Parallel()

	svc := &fakeLaneService{
		deleteFn: func(context.Context, uuid.UUID, uuid.UUID) error { return nil },
	}
	h := NewSwimLaneHandler(svc, discardLogger())

	req := newAuthedRequest(t, http.MethodDelete, "/api/lanes/x", "", uuid.New(),
		map[string]string{"laneID": uuid.NewString()})
	rec := httptest.NewRecorder()

	h.Delete(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestSwimLaneHandler_Reorder(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	a, b := uuid.New(), uuid.New()

	var gotOrder []uuid.UUID
	svc := &fakeLaneService{
		reorderFn: func(_ context.Context, _ uuid.UUID, orderedIDs []uuid.UUID) error {
			gotOrder = orderedIDs
			return nil
		},
	}
	h := NewSwimLaneHandler(svc, discardLogger())

	body, err := json.Marshal(ReorderLanesRequest{OrderedIDs: []uuid.UUID{b, a}})
	require.NoError(t, err)

	req := newAuthedRequest(t, http.MethodPut, "/api/lanes/reorder", string(body), userID, nil)
	rec := httptest.NewRecorder()

	h.Reorder(rec, req)

	require.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, []uuid.UUID{b, a}, gotOrder)
}

func TestSwimLaneHandler_Reorder_EmptyList(t *testing.T) {
	t.Parallel()

	h := NewSwimLaneHandler(&fakeLaneService{}, discardLogger())

	req := newAuthedRequest(t, http.MethodPut, "/api/lanes/reorder", `{"ordered_ids":[]}`, uuid.New(), nil)
	rec := httptest.NewRecorder()

	h.Reorder(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
