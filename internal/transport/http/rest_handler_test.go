package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func postJSON(t *testing.T, server *httptest.Server, path string, body any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	resp, err := http.Post(server.URL+path, "application/json", bytes.NewReader(raw))
	if err != nil {
		t.Fatalf("post %s: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func getJSON(t *testing.T, server *httptest.Server, path string) (*http.Response, map[string]any) {
	t.Helper()
	resp, err := http.Get(server.URL + path)
	if err != nil {
		t.Fatalf("get %s: %v", path, err)
	}
	return resp, decodeBody(t, resp)
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body
}

func TestRESTGameLifecycle(t *testing.T) {
	server, _ := newTestServer(t)

	resp, login := postJSON(t, server, "/api/organizer/login", map[string]any{"name": "Morgan"})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login status %d: %v", resp.StatusCode, login)
	}
	organizerID, _ := login["organizer_id"].(string)
	if organizerID == "" {
		t.Fatalf("missing organizer_id: %v", login)
	}

	resp, created := postJSON(t, server, "/api/games", map[string]any{
		"organizer_id": organizerID,
		"title":        "Geography",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create game status %d: %v", resp.StatusCode, created)
	}
	game := created["game"].(map[string]any)
	code := game["code"].(string)
	if len(code) != 6 {
		t.Fatalf("expected 6-character code, got %q", code)
	}
	if game["status"] != "waiting" {
		t.Fatalf("expected waiting game, got %v", game["status"])
	}

	resp, _ = postJSON(t, server, fmt.Sprintf("/api/games/%s/questions", code), map[string]any{
		"type":           "MCQ",
		"text":           "Capital of Japan?",
		"options":        []string{"Tokyo", "Osaka"},
		"correct_answer": "Tokyo",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("add question status %d", resp.StatusCode)
	}

	resp, started := postJSON(t, server, fmt.Sprintf("/api/games/%s/start", code), map[string]any{
		"organizer_id": organizerID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("start status %d: %v", resp.StatusCode, started)
	}
	if started["game"].(map[string]any)["status"] != "in_progress" {
		t.Fatalf("expected in_progress, got %v", started)
	}

	// Starting twice conflicts: status never moves backward.
	resp, _ = postJSON(t, server, fmt.Sprintf("/api/games/%s/start", code), map[string]any{
		"organizer_id": organizerID,
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 on second start, got %d", resp.StatusCode)
	}

	resp, ended := postJSON(t, server, fmt.Sprintf("/api/games/%s/end", code), map[string]any{
		"organizer_id": organizerID,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("end status %d: %v", resp.StatusCode, ended)
	}
	if ended["game"].(map[string]any)["status"] != "completed" {
		t.Fatalf("expected completed, got %v", ended)
	}
}

func TestRESTStartRequiresOrganizer(t *testing.T) {
	server, _ := newTestServer(t)

	_, created := postJSON(t, server, "/api/games", map[string]any{"organizer_id": "org-1"})
	code := created["game"].(map[string]any)["code"].(string)

	resp, body := postJSON(t, server, fmt.Sprintf("/api/games/%s/start", code), map[string]any{
		"organizer_id": "impostor",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d: %v", resp.StatusCode, body)
	}
	if body["success"] != false {
		t.Fatalf("expected success=false, got %v", body)
	}
}

func TestRESTJoinSubmitAndLeaderboard(t *testing.T) {
	server, _ := newTestServer(t)

	_, created := postJSON(t, server, "/api/games", map[string]any{"organizer_id": "org-1"})
	code := created["game"].(map[string]any)["code"].(string)

	_, added := postJSON(t, server, fmt.Sprintf("/api/games/%s/questions", code), map[string]any{
		"type":           "TRUE_FALSE",
		"text":           "The sky is blue.",
		"correct_answer": "true",
	})
	questionID := added["question"].(map[string]any)["id"].(string)

	resp, joined := postJSON(t, server, "/api/participants", map[string]any{
		"game_code": code,
		"name":      "Riley",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("join status %d: %v", resp.StatusCode, joined)
	}
	participant := joined["participant"].(map[string]any)
	participantID := participant["id"].(string)
	if avatar, _ := participant["avatar"].(string); avatar == "" {
		t.Fatalf("expected generated avatar, got %v", participant)
	}

	// Duplicate name in the same game conflicts.
	resp, _ = postJSON(t, server, "/api/participants", map[string]any{
		"game_code": code,
		"name":      "Riley",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate name, got %d", resp.StatusCode)
	}

	resp, submitted := postJSON(t, server, "/api/answers", map[string]any{
		"participant_id": participantID,
		"question_id":    questionID,
		"answer":         "TRUE",
		"time_taken":     25,
		"used_hint":      true,
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("submit status %d: %v", resp.StatusCode, submitted)
	}
	result := submitted["result"].(map[string]any)
	if result["is_correct"] != true || result["score"].(float64) != 90 {
		t.Fatalf("expected correct with score 90, got %v", result)
	}

	_, board := getJSON(t, server, fmt.Sprintf("/api/games/%s/leaderboard", code))
	entries := board["leaderboard"].(map[string]any)["entries"].([]any)
	if len(entries) != 1 {
		t.Fatalf("expected one entry, got %v", entries)
	}
	top := entries[0].(map[string]any)
	if top["score"].(float64) != 90 {
		t.Fatalf("expected total 90 on leaderboard, got %v", top)
	}
}

func TestRESTCheatReport(t *testing.T) {
	server, _ := newTestServer(t)

	_, created := postJSON(t, server, "/api/games", map[string]any{"organizer_id": "org-1"})
	code := created["game"].(map[string]any)["code"].(string)
	_, joined := postJSON(t, server, "/api/participants", map[string]any{
		"game_code": code,
		"name":      "Sam",
	})
	participantID := joined["participant"].(map[string]any)["id"].(string)

	resp, body := postJSON(t, server, "/api/cheat-detected", map[string]any{
		"participant_id": participantID,
		"type":           "DEV_TOOLS",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("cheat report status %d: %v", resp.StatusCode, body)
	}
	if body["penalty"].(float64) != 20 {
		t.Fatalf("expected penalty 20, got %v", body)
	}

	_, logs := getJSON(t, server, fmt.Sprintf("/api/games/%s/cheat-logs", code))
	if entries := logs["cheat_logs"].([]any); len(entries) != 1 {
		t.Fatalf("expected one cheat log, got %v", logs)
	}

	// Unknown participants are swallowed so IDs cannot be probed.
	resp, body = postJSON(t, server, "/api/cheat-detected", map[string]any{
		"participant_id": "nope",
		"type":           "TAB_SWITCH",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for unknown participant, got %d: %v", resp.StatusCode, body)
	}
	if body["penalty"].(float64) != 0 {
		t.Fatalf("expected zero penalty for unknown participant, got %v", body)
	}
}

func TestRESTEventsFeed(t *testing.T) {
	server, _ := newTestServer(t)

	_, created := postJSON(t, server, "/api/games", map[string]any{"organizer_id": "org-1"})
	code := created["game"].(map[string]any)["code"].(string)

	postJSON(t, server, "/api/participants", map[string]any{"game_code": code, "name": "Taylor"})
	postJSON(t, server, fmt.Sprintf("/api/games/%s/start", code), map[string]any{"organizer_id": "org-1"})

	resp, feed := getJSON(t, server, fmt.Sprintf("/api/games/%s/events", code))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("events status %d: %v", resp.StatusCode, feed)
	}
	events := feed["events"].([]any)
	if len(events) == 0 {
		t.Fatalf("expected events after join and start, got none")
	}
	cursor := feed["cursor"].(float64)

	// Resuming from the returned cursor yields nothing new.
	_, tail := getJSON(t, server, fmt.Sprintf("/api/games/%s/events?cursor=%d", code, int64(cursor)))
	if rest := tail["events"].([]any); len(rest) != 0 {
		t.Fatalf("expected empty tail, got %v", rest)
	}

	resp, _ = getJSON(t, server, fmt.Sprintf("/api/games/%s/events?cursor=abc", code))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad cursor, got %d", resp.StatusCode)
	}
}

func TestRESTUnknownGameIs404(t *testing.T) {
	server, _ := newTestServer(t)

	resp, body := getJSON(t, server, "/api/games/NOPE12")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d: %v", resp.StatusCode, body)
	}
	errBody := body["error"].(map[string]any)
	if errBody["code"] != "not_found" {
		t.Fatalf("expected not_found code, got %v", errBody)
	}
}
