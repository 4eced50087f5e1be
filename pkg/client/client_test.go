package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/culturoquest/quest-server/internal/progress"
)

func TestNewValidatesOptions(t *testing.T) {
	_, err := New(Options{Token: "tok"})
	assert.Error(t, err)

	_, err = New(Options{BaseURL: "http://localhost"})
	assert.Error(t, err)

	c, err := New(Options{BaseURL: "http://localhost/", Token: "tok"})
	require.NoError(t, err)
	assert.Equal(t, "http://localhost", c.baseURL)
}

func TestFetchProfile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/users/me", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))

		json.NewEncoder(w).Encode(progress.Profile{
			Username: "asha",
			Points:   1200,
			Progress: &progress.StageProgress{ActiveStages: []string{"history_1"}},
		})
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL, Token: "tok"})
	require.NoError(t, err)

	profile, err := c.FetchProfile(context.Background())
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, "asha", profile.Username)
	assert.Equal(t, 1200, profile.Points)
	require.NotNil(t, profile.Progress)
	assert.Equal(t, []string{"history_1"}, profile.Progress.ActiveStages)
}

func TestFetchProfileNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL, Token: "tok"})
	require.NoError(t, err)

	profile, err := c.FetchProfile(context.Background())
	require.NoError(t, err)
	assert.Nil(t, profile, "absent profile is not an error")
}

func TestMergeUpdate(t *testing.T) {
	var received progress.Update
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v1/users/me/progress", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL, Token: "tok"})
	require.NoError(t, err)

	points := 700
	err = c.MergeUpdate(context.Background(), progress.Update{
		Points:         &points,
		CorrectAnswers: []string{"q1", "q2"},
	})
	require.NoError(t, err)
	require.NotNil(t, received.Points)
	assert.Equal(t, 700, *received.Points)
	assert.Equal(t, []string{"q1", "q2"}, received.CorrectAnswers)
}

func TestMergeUpdateErrorEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"invalid_request","message":"points must not be negative"}`))
	}))
	defer srv.Close()

	c, err := New(Options{BaseURL: srv.URL, Token: "tok"})
	require.NoError(t, err)

	err = c.MergeUpdate(context.Background(), progress.Update{CorrectAnswers: []string{"q1"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid_request")
	assert.Contains(t, err.Error(), "points must not be negative")
}
