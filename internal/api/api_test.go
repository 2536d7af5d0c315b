package api

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/campusfound/campusfound/internal/db"
	"github.com/campusfound/campusfound/internal/model"
	"github.com/campusfound/campusfound/internal/store"
)

const testJWTSecret = "test-secret"

func setupTestServer(t *testing.T) (*httptest.Server, *sql.DB) {
	t.Helper()
	database := db.NewTestDB(t)
	router := NewRouter(database, testJWTSecret)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server, database
}

// registerUser creates an account through the API and returns its token.
func registerUser(t *testing.T, server *httptest.Server, email, name string) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{
		"email":     email,
		"password":  "password123",
		"full_name": name,
	})
	resp, err := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("register request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("register failed: %d", resp.StatusCode)
	}

	var reg map[string]string
	json.NewDecoder(resp.Body).Decode(&reg)
	if reg["token"] == "" {
		t.Fatal("empty token from register")
	}
	return reg["token"]
}

// postItem creates a listing through the API and returns its ID.
func postItem(t *testing.T, server *httptest.Server, token string, payload map[string]string) int64 {
	t.Helper()
	req, _ := authRequest("POST", server.URL+"/api/items", token, payload)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("post item: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 creating item, got %d", resp.StatusCode)
	}

	var item model.Item
	json.NewDecoder(resp.Body).Decode(&item)
	return item.ID
}

func authRequest(method, url, token string, body any) (*http.Request, error) {
	var bodyReader *bytes.Reader
	if body != nil {
		data, _ := json.Marshal(body)
		bodyReader = bytes.NewReader(data)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, bodyReader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	return req, nil
}

func doRequest(t *testing.T, method, url, token string, body any) *http.Response {
	t.Helper()
	req, err := authRequest(method, url, token, body)
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, url, err)
	}
	return resp
}

func TestRegisterAndLogin(t *testing.T) {
	server, _ := setupTestServer(t)

	registerUser(t, server, "ada@campus.edu", "Ada Obi")

	// Duplicate email is rejected.
	body, _ := json.Marshal(map[string]string{
		"email": "ada@campus.edu", "password": "password123", "full_name": "Imposter",
	})
	resp, _ := http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate email, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Short password is rejected.
	body, _ = json.Marshal(map[string]string{
		"email": "new@campus.edu", "password": "short", "full_name": "New",
	})
	resp, _ = http.Post(server.URL+"/api/auth/register", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for short password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Wrong password fails.
	body, _ = json.Marshal(map[string]string{"email": "ada@campus.edu", "password": "wrong"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for bad password, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Correct credentials succeed.
	body, _ = json.Marshal(map[string]string{"email": "ada@campus.edu", "password": "password123"})
	resp, _ = http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for login, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestPublicBrowse(t *testing.T) {
	server, _ := setupTestServer(t)
	token := registerUser(t, server, "poster@campus.edu", "Poster")

	postItem(t, server, token, map[string]string{
		"type": "lost", "title": "Black Wallet", "category": "Other",
		"date_lost": "2026-03-01", "email": "poster@campus.edu",
	})

	// Browsing works without authentication.
	resp, _ := http.Get(server.URL + "/api/items?q=wallet")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for public browse, got %d", resp.StatusCode)
	}
	var items []model.Item
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 1 {
		t.Errorf("expected 1 item for 'wallet', got %d", len(items))
	}

	// Posting does not.
	body, _ := json.Marshal(map[string]string{"type": "lost", "title": "Nope"})
	resp, _ = http.Post(server.URL+"/api/items", "application/json", bytes.NewReader(body))
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for unauthenticated post, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestListMineFilter(t *testing.T) {
	server, _ := setupTestServer(t)
	adaToken := registerUser(t, server, "ada@campus.edu", "Ada")
	benToken := registerUser(t, server, "ben@campus.edu", "Ben")

	postItem(t, server, adaToken, map[string]string{
		"type": "lost", "title": "Ada's Keys", "category": "Keys",
		"date_lost": "2026-03-01", "email": "ada@campus.edu",
	})
	postItem(t, server, benToken, map[string]string{
		"type": "found", "title": "Ben's Wallet", "category": "Other",
		"verification_question": "What colour?", "email": "ben@campus.edu",
	})

	// mine=true narrows the listing to the caller's own items.
	resp := doRequest(t, "GET", server.URL+"/api/items?mine=true", adaToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for mine=true, got %d", resp.StatusCode)
	}
	var items []model.Item
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 1 || items[0].Title != "Ada's Keys" {
		t.Errorf("expected only Ada's item, got %+v", items)
	}

	// Without a token the filter cannot be resolved.
	resp, _ = http.Get(server.URL + "/api/items?mine=true")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for anonymous mine=true, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// A bad token is rejected rather than treated as anonymous.
	resp = doRequest(t, "GET", server.URL+"/api/items?mine=true", "garbage", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 for invalid token, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Anonymous browse still sees everything.
	resp, _ = http.Get(server.URL + "/api/items")
	json.NewDecoder(resp.Body).Decode(&items)
	resp.Body.Close()
	if len(items) != 2 {
		t.Errorf("expected 2 items for anonymous browse, got %d", len(items))
	}
}

func TestItemValidation(t *testing.T) {
	server, _ := setupTestServer(t)
	token := registerUser(t, server, "poster@campus.edu", "Poster")

	// Lost items need a date.
	resp := doRequest(t, "POST", server.URL+"/api/items", token, map[string]string{
		"type": "lost", "title": "Wallet", "email": "poster@campus.edu",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for lost item without date, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Found items need a verification question.
	resp = doRequest(t, "POST", server.URL+"/api/items", token, map[string]string{
		"type": "found", "title": "Wallet", "email": "poster@campus.edu",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for found item without question, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// At least one contact method is required.
	resp = doRequest(t, "POST", server.URL+"/api/items", token, map[string]string{
		"type": "lost", "title": "Wallet", "date_lost": "2026-03-01",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400 for item without contact, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestClaimReturnReviewFlow(t *testing.T) {
	server, _ := setupTestServer(t)
	posterToken := registerUser(t, server, "poster@campus.edu", "Poster")
	claimerToken := registerUser(t, server, "claimer@campus.edu", "Claimer")
	lateToken := registerUser(t, server, "late@campus.edu", "Late")

	itemID := postItem(t, server, posterToken, map[string]string{
		"type": "found", "title": "Student ID Card", "category": "ID/Cards",
		"verification_question": "What is the matric number?",
		"phone_number":          "08012345678",
	})
	itemURL := fmt.Sprintf("%s/api/items/%d", server.URL, itemID)

	// The poster cannot claim their own item.
	resp := doRequest(t, "POST", itemURL+"/claim", posterToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for own-item claim, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Claim succeeds for another user.
	resp = doRequest(t, "POST", itemURL+"/claim", claimerToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for claim, got %d", resp.StatusCode)
	}
	var claimed model.Item
	json.NewDecoder(resp.Body).Decode(&claimed)
	resp.Body.Close()
	if claimed.Status != model.ItemStatusClaimed {
		t.Errorf("expected status 'claimed', got %q", claimed.Status)
	}

	// Only one claim can win.
	resp = doRequest(t, "POST", itemURL+"/claim", lateToken, nil)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for second claim, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Reviewing before the return is rejected.
	resp = doRequest(t, "POST", itemURL+"/reviews", claimerToken, map[string]any{"rating": 5})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for review before return, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Only the poster can mark the item returned.
	resp = doRequest(t, "POST", itemURL+"/return", claimerToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for non-poster return, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, "POST", itemURL+"/return", posterToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for return, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The claimant reviews once.
	resp = doRequest(t, "POST", itemURL+"/reviews", claimerToken, map[string]any{
		"rating": 5, "comment": "Honest finder, quick handover",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for review, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	resp = doRequest(t, "POST", itemURL+"/reviews", claimerToken, map[string]any{"rating": 4})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for duplicate review, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The poster cannot review their own item.
	resp = doRequest(t, "POST", itemURL+"/reviews", posterToken, map[string]any{"rating": 1})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for poster review, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Reviews are publicly listed.
	resp, _ = http.Get(itemURL + "/reviews")
	var reviews []model.Review
	json.NewDecoder(resp.Body).Decode(&reviews)
	resp.Body.Close()
	if len(reviews) != 1 {
		t.Errorf("expected 1 review, got %d", len(reviews))
	}
}

func TestConversationFlow(t *testing.T) {
	server, _ := setupTestServer(t)
	posterToken := registerUser(t, server, "poster@campus.edu", "Poster")
	finderToken := registerUser(t, server, "finder@campus.edu", "Finder")

	itemID := postItem(t, server, posterToken, map[string]string{
		"type": "lost", "title": "Laptop Charger", "date_lost": "2026-03-01",
		"email": "poster@campus.edu",
	})
	startURL := fmt.Sprintf("%s/api/items/%d/conversations", server.URL, itemID)

	// The poster cannot open a thread with themselves.
	resp := doRequest(t, "POST", startURL, posterToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for self-conversation, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Starting twice resolves to the same thread.
	resp = doRequest(t, "POST", startURL, finderToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 starting conversation, got %d", resp.StatusCode)
	}
	var conv model.Conversation
	json.NewDecoder(resp.Body).Decode(&conv)
	resp.Body.Close()

	resp = doRequest(t, "POST", startURL, finderToken, nil)
	var again model.Conversation
	json.NewDecoder(resp.Body).Decode(&again)
	resp.Body.Close()
	if conv.ID != again.ID {
		t.Errorf("expected one thread, got %d and %d", conv.ID, again.ID)
	}

	convURL := fmt.Sprintf("%s/api/conversations/%d", server.URL, conv.ID)

	resp = doRequest(t, "POST", convURL+"/messages", finderToken, map[string]string{
		"content": "I think I saw this in the lab",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 sending message, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The poster sees the thread with the message.
	resp = doRequest(t, "GET", convURL, posterToken, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 reading thread, got %d", resp.StatusCode)
	}
	var thread struct {
		Messages []model.Message `json:"messages"`
	}
	json.NewDecoder(resp.Body).Decode(&thread)
	resp.Body.Close()
	if len(thread.Messages) != 1 {
		t.Errorf("expected 1 message, got %d", len(thread.Messages))
	}

	// Outsiders are locked out.
	outsiderToken := registerUser(t, server, "outsider@campus.edu", "Outsider")
	resp = doRequest(t, "GET", convURL, outsiderToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for outsider, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}

func TestAdminAccess(t *testing.T) {
	server, database := setupTestServer(t)
	userToken := registerUser(t, server, "student@campus.edu", "Student")

	// Regular users cannot list accounts.
	resp := doRequest(t, "GET", server.URL+"/api/users", userToken, nil)
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for user listing accounts, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// Admins can.
	ctx := context.Background()
	hash, _ := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.DefaultCost)
	store.CreateUser(ctx, database, "admin@campus.edu", string(hash), "Admin", model.RoleAdmin)

	body, _ := json.Marshal(map[string]string{"email": "admin@campus.edu", "password": "password123"})
	loginResp, _ := http.Post(server.URL+"/api/auth/login", "application/json", bytes.NewReader(body))
	var login map[string]string
	json.NewDecoder(loginResp.Body).Decode(&login)
	loginResp.Body.Close()

	resp = doRequest(t, "GET", server.URL+"/api/users", login["token"], nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected 200 for admin listing accounts, got %d", resp.StatusCode)
	}
	var users []model.User
	json.NewDecoder(resp.Body).Decode(&users)
	resp.Body.Close()
	if len(users) != 2 {
		t.Errorf("expected 2 users, got %d", len(users))
	}
}

func TestLogoutRevokesToken(t *testing.T) {
	server, _ := setupTestServer(t)
	token := registerUser(t, server, "bye@campus.edu", "Bye")

	resp := doRequest(t, "POST", server.URL+"/api/auth/logout", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()

	// The token no longer works.
	resp = doRequest(t, "GET", server.URL+"/api/users/me", token, nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected 401 after logout, got %d", resp.StatusCode)
	}
	resp.Body.Close()
}
