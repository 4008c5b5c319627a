package controllers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	testutils "github.com/kaikhaya123/RES-sub000/api/controllers/testing"
	"github.com/kaikhaya123/RES-sub000/api/models"
	"github.com/kaikhaya123/RES-sub000/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAdminAuth(t *testing.T) {
	env := setupTestEnv(t, permissiveGuard)

	t.Run("missing token rejected", func(t *testing.T) {
		res := testutils.PerformRequest(env.router, http.MethodGet, "/api/admin/contestants", nil, nil)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("wrong token rejected", func(t *testing.T) {
		headers := map[string]string{"x-admin-token": "wrong"}
		res := testutils.PerformRequest(env.router, http.MethodGet, "/api/admin/contestants", nil, headers)
		assert.Equal(t, http.StatusUnauthorized, res.Code)
	})

	t.Run("valid token accepted", func(t *testing.T) {
		res := testutils.PerformRequest(env.router, http.MethodGet, "/api/admin/contestants", nil, adminHeaders())
		assert.Equal(t, http.StatusOK, res.Code)
	})
}

func TestContestantOnboarding(t *testing.T) {
	env := setupTestEnv(t, permissiveGuard)

	t.Run("Happy path - explicit id", func(t *testing.T) {
		payload := models.ContestantCreateRequest{ID: "c-1", Name: "Amara", Campus: "North"}
		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/contestants", payload, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)

		var out models.ContestantResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
		assert.Equal(t, "c-1", out.ID)
		assert.Equal(t, "active", out.Status)
		assert.False(t, out.RegisteredAt.IsZero())
	})

	t.Run("generated id when omitted", func(t *testing.T) {
		payload := models.ContestantCreateRequest{Name: "Bayo"}
		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/contestants", payload, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)

		var out models.ContestantResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
		assert.Len(t, out.ID, 8)
	})

	t.Run("duplicate id conflicts", func(t *testing.T) {
		payload := models.ContestantCreateRequest{ID: "c-1", Name: "Clone"}
		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/contestants", payload, adminHeaders())
		assert.Equal(t, http.StatusConflict, res.Code)
	})

	t.Run("missing name rejected", func(t *testing.T) {
		payload := models.ContestantCreateRequest{ID: "c-2"}
		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/contestants", payload, adminHeaders())
		assert.Equal(t, http.StatusBadRequest, res.Code)
	})
}

func TestContestantStatusTransitions(t *testing.T) {
	env := setupTestEnv(t, permissiveGuard)
	env.registerContestant(t, "c-1", "Amara")
	env.registerContestant(t, "c-2", "Bayo")

	update := func(id, status string) *int {
		payload := models.ContestantStatusUpdateRequest{Status: status}
		res := testutils.PerformRequest(env.router, http.MethodPut, "/api/admin/contestants/"+id+"/status", payload, adminHeaders())
		return &res.Code
	}

	t.Run("active to evicted", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, *update("c-1", "evicted"))
	})

	t.Run("active to finalist", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, *update("c-2", "finalist"))
	})

	t.Run("transitions are one-directional", func(t *testing.T) {
		assert.Equal(t, http.StatusConflict, *update("c-1", "active"), "evicted cannot return to active")
		assert.Equal(t, http.StatusConflict, *update("c-2", "evicted"), "finalist cannot be evicted")
	})

	t.Run("unknown contestant", func(t *testing.T) {
		assert.Equal(t, http.StatusNotFound, *update("ghost", "evicted"))
	})

	t.Run("unknown status rejected", func(t *testing.T) {
		assert.Equal(t, http.StatusConflict, *update("c-2", "champion"))
	})
}

func TestVoterRegistration(t *testing.T) {
	env := setupTestEnv(t, permissiveGuard)

	t.Run("Happy path - default allowance applied", func(t *testing.T) {
		payload := models.VoterCreateRequest{ID: "voter-1"}
		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/voters", payload, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)

		var out models.VoterResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
		assert.Equal(t, 100, out.DailyAllowance)
		assert.True(t, out.Active)
	})

	t.Run("duplicate registration conflicts", func(t *testing.T) {
		payload := models.VoterCreateRequest{ID: "voter-1"}
		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/voters", payload, adminHeaders())
		assert.Equal(t, http.StatusConflict, res.Code)
	})

	t.Run("deactivate then list shows inactive", func(t *testing.T) {
		res := testutils.PerformRequest(env.router, http.MethodPut, "/api/admin/voters/voter-1/deactivate", nil, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)

		res = testutils.PerformRequest(env.router, http.MethodGet, "/api/admin/voters", nil, adminHeaders())
		require.Equal(t, http.StatusOK, res.Code)

		var voters []models.VoterResponse
		require.NoError(t, json.Unmarshal(res.Body.Bytes(), &voters))
		require.Len(t, voters, 1)
		assert.False(t, voters[0].Active)
	})

	t.Run("deactivate unknown voter", func(t *testing.T) {
		res := testutils.PerformRequest(env.router, http.MethodPut, "/api/admin/voters/ghost/deactivate", nil, adminHeaders())
		assert.Equal(t, http.StatusNotFound, res.Code)
	})
}

func TestAdminRecompute(t *testing.T) {
	env := setupTestEnv(t, permissiveGuard)
	env.registerVoter(t, "voter-1", 100)
	env.registerContestant(t, "c-1", "Amara")

	require.NotNil(t, env.castVote("voter-1", "c-1", "n1"))
	require.NotNil(t, env.castVote("voter-1", "c-1", "n2"))

	// Drift the live counter; the ledger stays authoritative.
	env.tallies.ApplyEvent(&storage.VoteEvent{ContestantID: "c-1", Kind: storage.EventVote, Accepted: true})
	require.Equal(t, int64(3), env.tallies.Votes("c-1"))

	res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/recompute/c-1", nil, adminHeaders())
	require.Equal(t, http.StatusOK, res.Code)

	var out models.RecomputeResponse
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &out))
	assert.Equal(t, int64(2), out.Votes)
	assert.Equal(t, int64(2), env.tallies.Votes("c-1"))

	t.Run("unknown contestant", func(t *testing.T) {
		res := testutils.PerformRequest(env.router, http.MethodPost, "/api/admin/recompute/ghost", nil, adminHeaders())
		assert.Equal(t, http.StatusNotFound, res.Code)
	})
}

func TestAdminListSnapshots(t *testing.T) {
	env := setupTestEnv(t, permissiveGuard)
	env.registerVoter(t, "voter-1", 100)
	env.registerContestant(t, "c-1", "Amara")
	require.NotNil(t, env.castVote("voter-1", "c-1", "n1"))

	for i := 0; i < 3; i++ {
		_, err := env.ranker.ComputeOnce(context.TODO())
		require.NoError(t, err)
	}

	res := testutils.PerformRequest(env.router, http.MethodGet, "/api/admin/snapshots", nil, adminHeaders())
	require.Equal(t, http.StatusOK, res.Code)

	var snapshots []*storage.RankSnapshot
	require.NoError(t, json.Unmarshal(res.Body.Bytes(), &snapshots))
	assert.Len(t, snapshots, 3)
	assert.Equal(t, int64(3), snapshots[len(snapshots)-1].Version)
}
