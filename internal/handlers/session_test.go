package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vnplayer/internal/services"
	"vnplayer/internal/services/events"
	"vnplayer/internal/storage"
)

func setupSessionHandler(t *testing.T) (*SessionHandler, *storage.MockStorage) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store := storage.NewMockStorage()
	source := services.NewMockStorySource()
	source.Delay = 0

	h := NewSessionHandler(store, source, events.NewBroadcaster(client, testLogger()), testLogger())
	return h, store
}

func TestSessionHandler_CreateAndGet(t *testing.T) {
	h, _ := setupSessionHandler(t)

	w := postJSON(t, h, "/v1/sessions", CreateSessionRequest{
		Script: "LOC: beach\nSTP: swim / rest\nAva: Hi\n",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var created SessionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.NotEqual(t, uuid.Nil, created.ID)
	assert.Equal(t, []string{"swim", "rest"}, created.Choices)
	assert.Equal(t, 2, created.Commands, "STP line is not a command")

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+created.ID.String(), nil)
	got := httptest.NewRecorder()
	h.ServeHTTP(got, req)
	require.Equal(t, http.StatusOK, got.Code)

	var fetched SessionResponse
	require.NoError(t, json.Unmarshal(got.Body.Bytes(), &fetched))
	assert.Equal(t, created.ID, fetched.ID)
	assert.Equal(t, created.Script, fetched.Script)
}

func TestSessionHandler_GetMissing(t *testing.T) {
	h, _ := setupSessionHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/"+uuid.NewString(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_InvalidID(t *testing.T) {
	h, _ := setupSessionHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/v1/sessions/not-a-uuid", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_Delete(t *testing.T) {
	h, store := setupSessionHandler(t)

	sess := &storage.Session{ID: uuid.New(), Script: "Ava: Hi\n"}
	require.NoError(t, store.SaveSession(context.Background(), sess))

	req := httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+sess.ID.String(), nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)

	req = httptest.NewRequest(http.MethodDelete, "/v1/sessions/"+sess.ID.String(), nil)
	w = httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSessionHandler_StoryRequiresMessage(t *testing.T) {
	h, store := setupSessionHandler(t)

	sess := &storage.Session{ID: uuid.New()}
	require.NoError(t, store.SaveSession(context.Background(), sess))

	w := postJSON(t, h, "/v1/sessions/"+sess.ID.String()+"/story", StoryRequest{Message: "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSessionHandler_StoryPersistsOnDone(t *testing.T) {
	h, store := setupSessionHandler(t)

	sess := &storage.Session{ID: uuid.New()}
	require.NoError(t, store.SaveSession(context.Background(), sess))

	body, _ := json.Marshal(StoryRequest{Message: "begin"})
	req := httptest.NewRequest(http.MethodPost, "/v1/sessions/"+sess.ID.String()+"/story", bytes.NewReader(body))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusAccepted, w.Code)

	// The relay runs in the background; wait for the done record to land.
	deadline := time.After(5 * time.Second)
	for {
		got, err := store.LoadSession(context.Background(), sess.ID)
		require.NoError(t, err)
		if got.Script == services.DefaultMockScript {
			assert.Equal(t, []string{"follow the path", "rest by the stream"}, got.Choices)
			return
		}
		select {
		case <-deadline:
			t.Fatal("streamed script was not persisted")
		case <-time.After(10 * time.Millisecond):
		}
	}
}
