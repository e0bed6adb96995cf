package apihttp

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/themalagasywizard/IHUB-4.1/internal/favorites"
	"github.com/themalagasywizard/IHUB-4.1/internal/view"
)

func newSessionServer(t *testing.T) (string, *view.Manager) {
	t.Helper()
	shared := favorites.NewService(favorites.NewMemoryStore())
	manager := view.NewManager(view.Deps{Catalog: &fakeCatalog{}, Favorites: shared})
	ts := newTestServer(t, &fakeCatalog{}, WithSessions(manager), WithFavorites(shared))
	return ts.URL, manager
}

func createSession(t *testing.T, base string) sessionResponse {
	t.Helper()
	var created sessionResponse
	if status := postJSON(t, base+"/sessions", "", &created); status != http.StatusCreated {
		t.Fatalf("create session: %d", status)
	}
	if created.ID == "" {
		t.Fatal("session id missing")
	}
	return created
}

func readState(t *testing.T, conn *websocket.Conn) view.State {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read ws message: %v", err)
	}
	var msg struct {
		Type string     `json:"type"`
		Data view.State `json:"data"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal ws message: %v (raw: %s)", err, data)
	}
	if msg.Type != "state" {
		t.Fatalf("unexpected message type %q", msg.Type)
	}
	return msg.Data
}

func TestSessionLifecycle(t *testing.T) {
	base, manager := newSessionServer(t)
	created := createSession(t, base)

	var resp sessionResponse
	status := postJSON(t, base+"/sessions/"+created.ID+"/actions", `{"type":"loadHome"}`, &resp)
	if status != http.StatusOK || resp.State.SpotlightGenre != "Drama" {
		t.Fatalf("loadHome: %d %#v", status, resp)
	}

	status = postJSON(t, base+"/sessions/"+created.ID+"/actions",
		`{"type":"selectMedia","item":{"id":"5","kind":"movie","title":"Heat"}}`, &resp)
	if status != http.StatusOK || resp.State.Details == nil || resp.State.Details.Tagline != "tag" {
		t.Fatalf("selectMedia: %d %#v", status, resp.State.Details)
	}

	var got sessionResponse
	if status := getJSON(t, base+"/sessions/"+created.ID, &got); status != http.StatusOK || got.State.Selected == nil {
		t.Fatalf("get session: %d %#v", status, got)
	}

	if status := postJSON(t, base+"/sessions/"+created.ID+"/actions", `{"type":"fly"}`, nil); status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown command, got %d", status)
	}

	req, _ := http.NewRequest(http.MethodDelete, base+"/sessions/"+created.ID, nil)
	delResp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("delete: %v", err)
	}
	delResp.Body.Close()
	if delResp.StatusCode != http.StatusNoContent || manager.Len() != 0 {
		t.Fatalf("delete: %d, %d sessions left", delResp.StatusCode, manager.Len())
	}
}

func TestSessionFavoritesShareOneList(t *testing.T) {
	base, _ := newSessionServer(t)
	first := createSession(t, base)
	second := createSession(t, base)

	var resp sessionResponse
	postJSON(t, base+"/sessions/"+first.ID+"/actions", `{"type":"toggleFavorite","item":{"id":"1","kind":"movie","title":"Heat"}}`, &resp)
	if len(resp.State.Favorites) != 1 {
		t.Fatalf("first toggle: %#v", resp.State.Favorites)
	}
	postJSON(t, base+"/favorites/toggle", `{"id":"2","kind":"movie","title":"Alien"}`, nil)
	postJSON(t, base+"/sessions/"+second.ID+"/actions", `{"type":"toggleFavorite","item":{"id":"3","kind":"movie","title":"Dune"}}`, &resp)
	if len(resp.State.Favorites) != 3 {
		t.Fatalf("want 3 favorites after toggles from both sessions and the api, got %#v", resp.State.Favorites)
	}

	var listed favoritesResponse
	getJSON(t, base+"/favorites", &listed)
	if len(listed.Items) != 3 {
		t.Fatalf("stored favorites: %#v", listed.Items)
	}
}

func TestSessionUnknown(t *testing.T) {
	base, _ := newSessionServer(t)
	var body errorBody
	if status := getJSON(t, base+"/sessions/missing", &body); status != http.StatusNotFound || body.Error.Code != "unknown_session" {
		t.Fatalf("expected 404, got %d %#v", status, body)
	}
}

func TestSessionWebSocketStreamsStates(t *testing.T) {
	base, _ := newSessionServer(t)
	created := createSession(t, base)
	other := createSession(t, base)

	url := "ws" + strings.TrimPrefix(base, "http") + "/sessions/" + created.ID + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	resp.Body.Close()
	defer conn.Close()

	if initial := readState(t, conn); initial.ShowFavorites {
		t.Fatal("initial state must not show favorites")
	}

	// Wait for the hub to register the socket before publishing.
	time.Sleep(50 * time.Millisecond)

	postJSON(t, base+"/sessions/"+other.ID+"/actions", `{"type":"showFavorites","show":true}`, nil)
	postJSON(t, base+"/sessions/"+created.ID+"/actions", `{"type":"refreshSpotlight"}`, nil)

	state := readState(t, conn)
	if state.ShowFavorites {
		t.Fatal("received a state of another session")
	}
	if state.SpotlightGenre != "Horror" {
		t.Fatalf("unexpected streamed state: %#v", state)
	}
}

func TestHubSkipsPublishWithoutClients(t *testing.T) {
	hub := newWSHub(slog.Default())
	go hub.run()
	defer hub.Close()

	hub.Publish("s1", view.NewState())
	if len(hub.broadcast) != 0 {
		t.Fatal("publish without clients must not queue")
	}
}

func TestHubRoutesBySession(t *testing.T) {
	hub := newWSHub(slog.Default())
	go hub.run()

	mine := &wsClient{hub: hub, session: "a", send: make(chan []byte, 4)}
	theirs := &wsClient{hub: hub, session: "b", send: make(chan []byte, 4)}
	hub.register <- mine
	hub.register <- theirs

	hub.Publish("a", view.NewState())

	select {
	case <-mine.send:
	case <-time.After(time.Second):
		t.Fatal("client of session a got nothing")
	}
	select {
	case <-theirs.send:
		t.Fatal("client of session b must not receive session a")
	case <-time.After(50 * time.Millisecond):
	}

	hub.unregister <- mine
	hub.unregister <- theirs
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for hub.clientCount() != 0 {
		if ctx.Err() != nil {
			t.Fatal("clients not unregistered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	hub.Close()
}
