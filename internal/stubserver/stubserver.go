// Copyright (c) 2026 Twinlook. All rights reserved.
// Author: park.jiho.dev@gmail.com

/*
Package stubserver implements the in-memory Twinlook backend.

It serves the full API surface the client speaks — auth, photo upload with
pseudo face embeddings, animal/celebrity similarity, friendships,
notifications, and contests — without any external storage. All state lives
behind one mutex and disappears on restart.

Architecture:

  - State: flat id-keyed maps guarded by a single mutex; one shared id
    sequence across every record type.
  - Embeddings: derived deterministically from the uploaded bytes (and for
    contests, from the target name), so similarity scores are stable across
    runs. See embedding.go.
  - Test hooks: per-path call counters, one-shot failure injection, and a
    switch that corrupts the embedding field of subsequent uploads.

The stub backs both the cmd/stubd binary and the client test suites via
net/http/httptest.
*/
package stubserver

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/parkjiho/twinlook/internal/platform/constants"
	"github.com/parkjiho/twinlook/pkg/pointer"
)

// # Records

type userRecord struct {
	ID           int64
	Email        string
	Nickname     string
	PasswordHash string
	AvatarURL    string
	IsOnline     bool
}

type photoRecord struct {
	ID         int64
	UserID     int64
	ImageURL   string
	UploadedAt time.Time
	Embedding  []float64
	// Serialized is the embedding as stored on the wire: a JSON number
	// array inside a string, or garbage when corruption is switched on.
	Serialized string
	Area       facialArea
	Confidence float64
}

type facialArea struct {
	X int `json:"x"`
	Y int `json:"y"`
	W int `json:"w"`
	H int `json:"h"`
}

type friendshipRecord struct {
	ID          int64
	RequesterID int64
	ReceiverID  int64
	Status      string
}

type notificationRecord struct {
	ID           int64
	UserID       int64
	Type         string
	Message      string
	IsRead       bool
	CreatedAt    time.Time
	FriendshipID *int64
}

type contestRecord struct {
	ID              int64
	Title           string
	Description     string
	TargetName      string
	ImageURL        string
	Status          string
	TargetEmbedding []float64
}

type entryRecord struct {
	ID          int64
	ContestID   int64
	UserID      int64
	UserPhotoID int64
}

// # Server

// Server is the in-memory backend. Construct with [New], mount with
// [Server.Router], and release the rate-limit janitor with [Server.Close].
type Server struct {
	log      *slog.Logger
	tokens   *tokenService
	limiter  *ipLimiter
	shutdown chan struct{}

	mu            sync.Mutex
	nextID        int64
	users         map[int64]*userRecord
	photos        map[int64]*photoRecord
	friendships   map[int64]*friendshipRecord
	notifications map[int64]*notificationRecord
	contests      map[int64]*contestRecord
	entries       map[int64]*entryRecord
	top3          map[int64][]rankedEntry

	calls           map[string]int
	failNext        map[string]int
	breakEmbeddings bool
}

// New constructs an empty [Server].
func New(log *slog.Logger) *Server {
	server := &Server{
		log:           log,
		tokens:        newTokenService(constants.AuthIssuer, constants.SessionTokenTTL),
		limiter:       newIPLimiter(),
		shutdown:      make(chan struct{}),
		users:         make(map[int64]*userRecord),
		photos:        make(map[int64]*photoRecord),
		friendships:   make(map[int64]*friendshipRecord),
		notifications: make(map[int64]*notificationRecord),
		contests:      make(map[int64]*contestRecord),
		entries:       make(map[int64]*entryRecord),
		top3:          make(map[int64][]rankedEntry),
		calls:         make(map[string]int),
		failNext:      make(map[string]int),
	}
	server.limiter.startJanitor(server.shutdown)
	return server
}

// Close stops the rate-limit cleanup goroutine.
func (server *Server) Close() {
	close(server.shutdown)
}

// Router assembles the full middleware chain and route table.
func (server *Server) Router() http.Handler {
	router := chi.NewRouter()

	// Instrumentation runs first so injected failures and counters cover
	// every request, including ones rejected later in the chain.
	router.Use(server.instrument)
	router.Use(requestID())
	router.Use(structuredLogger(server.log))
	router.Use(server.limiter.middleware())
	router.Use(panicRecovery(server.log))
	router.Use(authenticate(server.tokens))

	// ── Auth ──────────────────────────────────────────────────────────────
	router.Post("/auth/register", server.handleRegister)
	router.Post("/auth/email/login", server.handleEmailLogin)
	router.Post("/auth/google/login", server.handleGoogleLogin)
	router.Get("/api/profile", server.handleProfile)

	// ── Photos & Similarity ───────────────────────────────────────────────
	router.Post("/uploaduser", server.handleUpload)
	router.Post("/getsimilaranimal", server.handleSimilarAnimal)
	router.Post("/find_most_similar", server.handleMostSimilar)
	router.Get("/latest-user-photo-id/{userId}", server.handleLatestPhotoID)
	router.Post("/latest-photo-similarity", server.handlePairSimilarity)

	// ── Friends ───────────────────────────────────────────────────────────
	router.Get("/friends", server.handleFriendsList)
	router.Get("/searchnickname", server.handleSearchNickname)
	router.Post("/friendship_add", server.handleFriendshipAdd)
	router.Patch("/friendship/{id}", server.handleFriendshipPatch)

	// ── Notifications ─────────────────────────────────────────────────────
	router.Get("/notifications", server.handleNotificationsList)
	router.Post("/notification_add", server.handleNotificationAdd)
	router.Post("/notification_delete", server.handleNotificationDelete)

	// ── Contests ──────────────────────────────────────────────────────────
	router.Get("/contests", server.handleContestsList)
	router.Post("/contestsadd", server.handleContestAdd)
	router.Delete("/contests/{id}", server.handleContestDelete)
	router.Get("/contest-top3", server.handleContestTop3)
	router.Get("/contest-entry-check", server.handleEntryCheck)
	router.Post("/contest_entry_add", server.handleEntryAdd)
	router.Patch("/update_contest_top3", server.handleTop3Recompute)

	return router
}

// allocID hands out the next id from the shared sequence.
// Caller must hold server.mu.
func (server *Server) allocID() int64 {
	server.nextID++
	return server.nextID
}

// # Test Hooks

// instrument counts every request per path and serves injected failures.
func (server *Server) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		server.mu.Lock()
		path := request.URL.Path
		server.calls[path]++
		if server.failNext[path] > 0 {
			server.failNext[path]--
			server.mu.Unlock()
			writeJSON(writer, http.StatusInternalServerError, map[string]string{
				"message": "Injected failure",
				"code":    "INTERNAL_ERROR",
			})
			return
		}
		server.mu.Unlock()

		next.ServeHTTP(writer, request)
	})
}

// Calls returns how many requests hit the exact path so far.
func (server *Server) Calls(path string) int {
	server.mu.Lock()
	defer server.mu.Unlock()
	return server.calls[path]
}

// TotalCalls returns the number of requests served across all paths.
func (server *Server) TotalCalls() int {
	server.mu.Lock()
	defer server.mu.Unlock()
	total := 0
	for _, n := range server.calls {
		total += n
	}
	return total
}

// FailNext makes the next request to path fail with HTTP 500. Calling it
// repeatedly queues additional failures.
func (server *Server) FailNext(path string) {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.failNext[path]++
}

// BreakEmbeddings toggles corruption of the embedding field on subsequent
// uploads, simulating the face service emitting a non-JSON payload.
func (server *Server) BreakEmbeddings(on bool) {
	server.mu.Lock()
	defer server.mu.Unlock()
	server.breakEmbeddings = on
}

// # Seed Helpers

// SeedUser registers an account directly and returns its id.
func (server *Server) SeedUser(email, nickname, password string) int64 {
	hash, err := hashPassword(password)
	if err != nil {
		panic(err)
	}

	server.mu.Lock()
	defer server.mu.Unlock()
	user := &userRecord{
		ID:           server.allocID(),
		Email:        email,
		Nickname:     nickname,
		PasswordHash: hash,
		IsOnline:     true,
	}
	server.users[user.ID] = user
	return user.ID
}

// TokenFor issues a session token for a seeded user.
func (server *Server) TokenFor(userID int64) string {
	server.mu.Lock()
	user, found := server.users[userID]
	server.mu.Unlock()
	if !found {
		return ""
	}

	token, err := server.tokens.Issue(user.ID, user.Nickname)
	if err != nil {
		panic(err)
	}
	return token
}

// SeedPhoto stores an upload for a user directly and returns its id.
func (server *Server) SeedPhoto(userID int64, content []byte) int64 {
	server.mu.Lock()
	defer server.mu.Unlock()
	photo := server.storePhoto(userID, content)
	return photo.ID
}

// SeedFriendship creates a friendship record directly and returns its id.
func (server *Server) SeedFriendship(requesterID, receiverID int64, status string) int64 {
	server.mu.Lock()
	defer server.mu.Unlock()
	friendship := &friendshipRecord{
		ID:          server.allocID(),
		RequesterID: requesterID,
		ReceiverID:  receiverID,
		Status:      status,
	}
	server.friendships[friendship.ID] = friendship
	return friendship.ID
}

// SeedFriendRequestNotification creates the notification that accompanies
// a pending friendship and returns its id.
func (server *Server) SeedFriendRequestNotification(userID, friendshipID int64) int64 {
	server.mu.Lock()
	defer server.mu.Unlock()
	notification := &notificationRecord{
		ID:           server.allocID(),
		UserID:       userID,
		Type:         "friend_request",
		Message:      "You have a new friend request",
		CreatedAt:    time.Now().UTC(),
		FriendshipID: pointer.To(friendshipID),
	}
	server.notifications[notification.ID] = notification
	return notification.ID
}

// SeedContest creates an open contest directly and returns its id.
func (server *Server) SeedContest(title, targetName string) int64 {
	server.mu.Lock()
	defer server.mu.Unlock()
	contest := &contestRecord{
		ID:              server.allocID(),
		Title:           title,
		TargetName:      targetName,
		ImageURL:        "uploads/contest-" + targetName + ".png",
		Status:          "open",
		TargetEmbedding: nameEmbedding(targetName),
	}
	server.contests[contest.ID] = contest
	return contest.ID
}
