package server

import (
	"bytes"
	"encoding/json"
	"image/png"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"rank-it/internal/config"
)

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	body := env.expect(t, nil, http.MethodGet, "/healthz", nil, http.StatusOK)
	require.Equal(t, "ok", body["status"])
}

func TestFullRoundOverHTTP(t *testing.T) {
	env := newTestEnv(t)

	created := env.expect(t, &host, http.MethodPost, "/api/games", map[string]any{
		"scoring": map[string]int{
			"points_per_correct": 100,
			"bonus_all_correct":  200,
			"penalty_all_wrong":  -50,
			"target_score":       2000,
		},
	}, http.StatusCreated)
	gameID := idOf(t, created["id"])
	code := created["join_code"].(string)

	joined := env.expect(t, &guest, http.MethodPost, "/api/games/join", map[string]string{"code": strings.ToLower(code)}, http.StatusOK)
	require.Equal(t, gameID, idOf(t, joined["game"].(map[string]any)["id"]))

	byCode := env.expect(t, nil, http.MethodGet, "/api/games/code/"+code, nil, http.StatusOK)
	require.Equal(t, gameID, idOf(t, byCode["id"]))

	round := env.expect(t, &host, http.MethodPost, "/api/games/"+gameID+"/rounds", map[string]any{"topic_id": env.topic.ID}, http.StatusCreated)
	roundID := idOf(t, round["id"])
	require.Equal(t, "vip_ranking", round["status"])

	round = env.expect(t, &host, http.MethodPost, "/api/rounds/"+roundID+"/ranking", map[string]any{"order": env.itemOrder(1, 0, 2)}, http.StatusOK)
	require.Equal(t, "player_guessing", round["status"])

	env.expect(t, &guest, http.MethodPost, "/api/rounds/"+roundID+"/guesses", map[string]any{"order": env.itemOrder(1, 2, 0)}, http.StatusCreated)

	snap := env.expect(t, &guest, http.MethodGet, "/api/games/"+gameID, nil, http.StatusOK)
	view := snap["round"].(map[string]any)
	require.Nil(t, view["revealed"])
	require.Len(t, view["my_guess"], 3)

	var reveal map[string]any
	for i := 0; i < 3; i++ {
		reveal = env.expect(t, &host, http.MethodPost, "/api/rounds/"+roundID+"/reveal", nil, http.StatusOK)
	}
	require.Equal(t, "complete", reveal["round"].(map[string]any)["status"])
	scores := reveal["scores"].([]any)
	require.Len(t, scores, 1)
	require.EqualValues(t, 100, scores[0].(map[string]any)["delta"])

	snap = env.expect(t, &guest, http.MethodGet, "/api/games/"+gameID, nil, http.StatusOK)
	require.Len(t, snap["round"].(map[string]any)["revealed"], 3)
	require.Equal(t, "playing", snap["game"].(map[string]any)["status"])

	again := env.expect(t, &host, http.MethodPost, "/api/rounds/"+roundID+"/score", nil, http.StatusOK)
	require.Equal(t, "playing", again["status"])
}

func TestErrorKindsMapToStatus(t *testing.T) {
	env := newTestEnv(t)

	body := env.expect(t, &host, http.MethodGet, "/api/games/999", nil, http.StatusNotFound)
	require.Equal(t, "not_found", body["kind"])
	require.Equal(t, "game", body["entity"])
	require.Equal(t, "999", body["id"])

	env.expect(t, nil, http.MethodPost, "/api/games", nil, http.StatusUnauthorized)

	created := env.expect(t, &host, http.MethodPost, "/api/games", nil, http.StatusCreated)
	gameID := idOf(t, created["id"])
	code := created["join_code"].(string)

	body = env.expect(t, &host, http.MethodPost, "/api/games/"+gameID+"/rounds", map[string]any{"topic_id": env.topic.ID}, http.StatusConflict)
	require.Equal(t, "invalid_state", body["kind"])

	env.expect(t, &guest, http.MethodPost, "/api/games/join", map[string]string{"code": code}, http.StatusOK)

	body = env.expect(t, &guest, http.MethodPost, "/api/games/"+gameID+"/rounds", map[string]any{"topic_id": env.topic.ID}, http.StatusForbidden)
	require.Equal(t, "unauthorized", body["kind"])

	round := env.expect(t, &host, http.MethodPost, "/api/games/"+gameID+"/rounds", map[string]any{"topic_id": env.topic.ID}, http.StatusCreated)
	roundID := idOf(t, round["id"])

	body = env.expect(t, &host, http.MethodPost, "/api/rounds/"+roundID+"/ranking", map[string]any{"order": env.itemOrder(0, 0, 1)}, http.StatusBadRequest)
	require.Equal(t, "validation", body["kind"])

	env.expect(t, &host, http.MethodPost, "/api/rounds/"+roundID+"/ranking", map[string]any{}, http.StatusBadRequest)
	env.expect(t, &host, http.MethodPost, "/api/rounds/"+roundID+"/ranking", map[string]any{"order": env.itemOrder(0, 1, 2)}, http.StatusOK)

	body = env.expect(t, &host, http.MethodPost, "/api/rounds/"+roundID+"/ranking", map[string]any{"order": env.itemOrder(0, 1, 2)}, http.StatusConflict)
	require.Equal(t, "conflict", body["kind"])

	env.expect(t, &guest, http.MethodPost, "/api/rounds/"+roundID+"/guesses", map[string]any{"order": env.itemOrder(0, 1, 2)}, http.StatusCreated)
	body = env.expect(t, &guest, http.MethodPost, "/api/rounds/"+roundID+"/guesses", map[string]any{"order": env.itemOrder(0, 1, 2)}, http.StatusConflict)
	require.Equal(t, "conflict", body["kind"])

	env.expect(t, &other, http.MethodPost, "/api/rounds/"+roundID+"/guesses", map[string]any{"order": env.itemOrder(0, 1, 2)}, http.StatusForbidden)
	env.expect(t, &host, http.MethodGet, "/api/rounds/abc", nil, http.StatusNotFound)

	body = env.expect(t, &guest, http.MethodPost, "/api/games/join", map[string]string{"code": "no!"}, http.StatusBadRequest)
	require.Equal(t, "join code is not valid", body["error"])
}

func TestCreatorOnlyActions(t *testing.T) {
	env := newTestEnv(t)
	created := env.expect(t, &host, http.MethodPost, "/api/games", nil, http.StatusCreated)
	gameID := idOf(t, created["id"])
	env.expect(t, &guest, http.MethodPost, "/api/games/join", map[string]string{"code": created["join_code"].(string)}, http.StatusOK)

	scoring := map[string]int{"points_per_correct": 5, "bonus_all_correct": 5, "penalty_all_wrong": 0, "target_score": 20}
	env.expect(t, &guest, http.MethodPut, "/api/games/"+gameID+"/scoring", scoring, http.StatusForbidden)
	updated := env.expect(t, &host, http.MethodPut, "/api/games/"+gameID+"/scoring", scoring, http.StatusOK)
	require.EqualValues(t, 20, updated["scoring"].(map[string]any)["target_score"])

	scoring["target_score"] = 0
	env.expect(t, &host, http.MethodPut, "/api/games/"+gameID+"/scoring", scoring, http.StatusBadRequest)

	env.expect(t, &guest, http.MethodPost, "/api/games/"+gameID+"/rotate-vip", nil, http.StatusForbidden)
	rotated := env.expect(t, &host, http.MethodPost, "/api/games/"+gameID+"/rotate-vip", nil, http.StatusOK)
	require.NotEqual(t, created["vip_player_id"], rotated["vip_player_id"])

	ended := env.expect(t, &host, http.MethodPost, "/api/games/"+gameID+"/end", nil, http.StatusOK)
	require.Equal(t, "finished", ended["status"])
	env.expect(t, &host, http.MethodPost, "/api/games/"+gameID+"/end", nil, http.StatusConflict)
}

func TestSessionCookieIdentity(t *testing.T) {
	env := newTestEnv(t)
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := env.ts.Client()
	client.Jar = jar

	post := func(path string, payload any) *http.Response {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		resp, err := client.Post(env.ts.URL+path, "application/json", bytes.NewReader(data))
		require.NoError(t, err)
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := post("/api/session", map[string]string{"name": "  Ada   Lovelace "})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	first := decodeBody(t, resp)
	require.Equal(t, "Ada Lovelace", first["name"])

	resp = post("/api/session", map[string]string{"name": "Ada"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	second := decodeBody(t, resp)
	require.Equal(t, first["user_id"], second["user_id"])

	resp = post("/api/games", map[string]any{})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody(t, resp)
	require.Equal(t, first["user_id"], created["creator_id"])

	resp = post("/api/session", map[string]string{"name": "<script>"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = client.Get(env.ts.URL + "/api/session")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestTopicsPagination(t *testing.T) {
	env := newTestEnv(t)
	for _, name := range []string{"Fruits", "Planets", "Sports"} {
		_, err := env.store.AddTopic(name, []string{"a", "b", "c"})
		require.NoError(t, err)
	}

	body := env.expect(t, nil, http.MethodGet, "/api/topics?page=2&per_page=3", nil, http.StatusOK)
	topics := body["topics"].([]any)
	require.Len(t, topics, 1)
	require.Equal(t, "Sports", topics[0].(map[string]any)["name"])
	pagination := body["pagination"].(map[string]any)
	require.EqualValues(t, 4, pagination["total"])
	require.EqualValues(t, 2, pagination["total_pages"])
	require.Equal(t, true, pagination["has_prev"])
	require.Equal(t, false, pagination["has_next"])

	topic := env.expect(t, nil, http.MethodGet, "/api/topics/"+idOf(t, float64(env.topic.ID)), nil, http.StatusOK)
	require.Len(t, topic["items"], 3)
	env.expect(t, nil, http.MethodGet, "/api/topics/404", nil, http.StatusNotFound)
}

func TestJoinQRCode(t *testing.T) {
	env := newTestEnv(t)
	created := env.expect(t, &host, http.MethodPost, "/api/games", nil, http.StatusCreated)

	resp := env.do(t, nil, http.MethodGet, "/api/games/"+idOf(t, created["id"])+"/qr.png", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "image/png", resp.Header.Get("Content-Type"))
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	require.Equal(t, qrSize, img.Bounds().Dx())

	env.expect(t, nil, http.MethodGet, "/api/games/77/qr.png", nil, http.StatusNotFound)
	env.expect(t, nil, http.MethodGet, "/api/games/"+idOf(t, created["id"])+"/events", nil, http.StatusNotFound)
}

func TestWebsocketPushesSnapshots(t *testing.T) {
	env := newTestEnv(t)
	created := env.expect(t, &host, http.MethodPost, "/api/games", nil, http.StatusCreated)
	gameID := idOf(t, created["id"])

	wsURL := "ws" + strings.TrimPrefix(env.ts.URL, "http") + "/ws/games/" + gameID
	header := http.Header{}
	header.Set(headerUserID, host.id)
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Skipf("skipping test; websocket dial unavailable: %v", err)
	}
	defer conn.Close()

	first := readWSMessage(t, conn)
	require.Equal(t, "snapshot", first["type"])
	require.NotZero(t, first["snapshot"].(map[string]any)["viewer_id"])

	env.expect(t, &guest, http.MethodPost, "/api/games/join", map[string]string{"code": created["join_code"].(string)}, http.StatusOK)

	msg := readWSMessage(t, conn)
	require.Equal(t, "change", msg["type"])
	require.Equal(t, "player_joined", msg["change"].(map[string]any)["reason"])
	require.Len(t, msg["snapshot"].(map[string]any)["players"], 2)

	_, _, err = websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(env.ts.URL, "http")+"/ws/games/999", nil)
	require.Error(t, err)
}

func readWSMessage(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var msg map[string]any
	require.NoError(t, json.Unmarshal(payload, &msg))
	return msg
}

// cookieClient is an HTTP client that keeps its own session cookie.
type cookieClient struct {
	t      *testing.T
	env    *testEnv
	client *http.Client
}

func newCookieClient(t *testing.T, env *testEnv, name string) *cookieClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	cc := &cookieClient{t: t, env: env, client: &http.Client{Jar: jar}}
	resp := cc.do(http.MethodPost, "/api/session", map[string]string{"name": name}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	return cc
}

func (cc *cookieClient) do(method, path string, payload any, header http.Header) *http.Response {
	cc.t.Helper()
	var body io.Reader = http.NoBody
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(cc.t, err)
		body = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, cc.env.ts.URL+path, body)
	require.NoError(cc.t, err)
	req.Header.Set("Content-Type", "application/json")
	for key, values := range header {
		req.Header[key] = values
	}
	resp, err := cc.client.Do(req)
	require.NoError(cc.t, err)
	cc.t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestIdentityHeadersIgnoredByDefault(t *testing.T) {
	env := newTestEnvWith(t, nil)

	resp := env.do(t, &host, http.MethodGet, "/api/session", nil)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	hostClient := newCookieClient(t, env, "Host")
	guestClient := newCookieClient(t, env, "Guest")
	resp = hostClient.do(http.MethodPost, "/api/games", nil, nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody(t, resp)
	gameID := idOf(t, created["id"])
	creatorID := created["creator_id"].(string)

	resp = guestClient.do(http.MethodPost, "/api/games/join", map[string]string{"code": created["join_code"].(string)}, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	forged := http.Header{}
	forged.Set(headerUserID, creatorID)
	forged.Set(headerUserName, "Host")

	resp = guestClient.do(http.MethodGet, "/api/session", nil, forged)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotEqual(t, creatorID, decodeBody(t, resp)["user_id"])

	resp = guestClient.do(http.MethodPost, "/api/games/"+gameID+"/end", nil, forged)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = guestClient.do(http.MethodGet, "/api/games/"+gameID, nil, forged)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decodeBody(t, resp)
	require.Equal(t, "waiting", snap["game"].(map[string]any)["status"])
}

func TestJoinCodeAndIdentityLimits(t *testing.T) {
	env := newTestEnv(t)
	env.expect(t, &host, http.MethodPost, "/api/games", nil, http.StatusCreated)

	for _, code := range []string{"ABC1EF", "ABCDE", "ABCDEFG", "OOOOOO"} {
		body := env.expect(t, &guest, http.MethodPost, "/api/games/join", map[string]string{"code": code}, http.StatusBadRequest)
		require.Equal(t, "join code is not valid", body["error"], code)
	}
	env.expect(t, &guest, http.MethodPost, "/api/games/join", map[string]string{"code": "zzzzzz"}, http.StatusNotFound)

	long := user{id: strings.Repeat("u", 65), name: "Long"}
	body := env.expect(t, &long, http.MethodPost, "/api/games", nil, http.StatusBadRequest)
	require.Equal(t, "validation", body["kind"])

	resp := env.do(t, nil, http.MethodPost, "/api/session", map[string]string{"name": "Bartholomew Montgomery-Featherstonehaugh"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(t, nil, http.MethodPost, "/api/session", map[string]string{"name": strings.Repeat("a", 65)})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestJoinLinkResolves(t *testing.T) {
	env := newTestEnv(t)
	created := env.expect(t, &host, http.MethodPost, "/api/games", nil, http.StatusCreated)
	code := created["join_code"].(string)

	found := env.expect(t, nil, http.MethodGet, "/join/"+code, nil, http.StatusOK)
	require.Equal(t, created["id"], found["id"])
	env.expect(t, nil, http.MethodGet, "/join/ZZZZZZ", nil, http.StatusNotFound)

	srv := &Server{cfg: config.Default()}
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "http://party.local:8080/api/games/1/qr.png", nil)
	require.Equal(t, "http://party.local:8080/join/"+code, srv.joinURL(c, code))

	srv.cfg.PublicURL = "https://rank.example"
	require.Equal(t, "https://rank.example/join/"+code, srv.joinURL(c, code))
}
