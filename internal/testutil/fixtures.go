package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/ndeks/nextlevel-backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	email      string
	name       string
	password   string
	role       domain.Role
	externalID string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		email:    fmt.Sprintf("user_%s@example.com", suffix),
		name:     fmt.Sprintf("Test User %s", suffix),
		password: "testpassword123",
		role:     domain.RoleUser,
	}
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

func (b *UserBuilder) WithName(name string) *UserBuilder {
	b.name = name
	return b
}

// WithPassword sets the password. An empty password builds an account that
// can only sign in externally.
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

func (b *UserBuilder) WithRole(role domain.Role) *UserBuilder {
	b.role = role
	return b
}

func (b *UserBuilder) WithExternalID(id string) *UserBuilder {
	b.externalID = id
	return b
}

// Admin is shorthand for WithRole(domain.RoleAdmin).
func (b *UserBuilder) Admin() *UserBuilder {
	return b.WithRole(domain.RoleAdmin)
}

// Build creates the user in the database and returns the user with the raw password
func (b *UserBuilder) Build(t *testing.T, db *gorm.DB) (*domain.User, string) {
	t.Helper()

	user := &domain.User{
		ID:         uuid.New(),
		Email:      b.email,
		Name:       b.name,
		Role:       b.role,
		ExternalID: domain.StringPtr(b.externalID),
	}

	if b.password != "" {
		hashed, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
		if err != nil {
			t.Fatalf("failed to hash password: %v", err)
		}
		user.PasswordHash = domain.StringPtr(string(hashed))
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	User         domain.User `json:"user"`
	Token        string      `json:"token"`
	RefreshToken string      `json:"refreshToken"`
}

// BuildAndAuthenticate stores the user and signs in through the API. The
// returned response carries the issued token pair.
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, *AuthResponse) {
	t.Helper()

	user, password := b.Build(t, ts.DB)
	auth := Login(t, ts, user.Email, password)
	return user, auth
}

// Login signs in through the API and fails the test unless it succeeds.
func Login(t *testing.T, ts *TestServer, email, password string) *AuthResponse {
	t.Helper()

	resp := DoJSON(t, http.MethodPost, ts.URL("/users/login"), map[string]string{
		"email":    email,
		"password": password,
	}, "")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("login failed with status %d", resp.StatusCode)
	}

	var authResp AuthResponse
	if err := json.NewDecoder(resp.Body).Decode(&authResp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return &authResp
}

// AuditEntryBuilder creates activity log entries with a chosen timestamp.
type AuditEntryBuilder struct {
	userID    *uuid.UUID
	action    domain.AuditAction
	createdAt time.Time
}

func NewAuditEntryBuilder() *AuditEntryBuilder {
	return &AuditEntryBuilder{
		action:    domain.ActionLogin,
		createdAt: time.Now().UTC(),
	}
}

func (b *AuditEntryBuilder) ForUser(id uuid.UUID) *AuditEntryBuilder {
	b.userID = &id
	return b
}

func (b *AuditEntryBuilder) WithAction(action domain.AuditAction) *AuditEntryBuilder {
	b.action = action
	return b
}

// DaysAgo backdates the entry.
func (b *AuditEntryBuilder) DaysAgo(days int) *AuditEntryBuilder {
	b.createdAt = time.Now().UTC().AddDate(0, 0, -days)
	return b
}

func (b *AuditEntryBuilder) Build(t *testing.T, db *gorm.DB) *domain.AuditLogEntry {
	t.Helper()

	entry := &domain.AuditLogEntry{
		UserID:      b.userID,
		Action:      b.action,
		Description: "fixture",
		IPAddress:   "127.0.0.1",
		UserAgent:   "testutil",
		CreatedAt:   b.createdAt,
	}
	if err := db.Omit("User").Create(entry).Error; err != nil {
		t.Fatalf("failed to create audit entry: %v", err)
	}
	return entry
}

// NewVideo returns a video with every required field filled in.
func NewVideo(title string) *domain.Video {
	return &domain.Video{
		Title:            title,
		Professor:        "Dr. Ada",
		Category:         "Programming",
		VideoURL:         "https://videos.example.com/" + uuid.NewString(),
		PosterURL:        "https://images.example.com/poster.png",
		Description:      "An introduction.",
		SkillLevel:       "Beginner",
		Students:         12,
		Languages:        "English",
		Captions:         true,
		Lectures:         8,
		Duration:         "2h",
		InstructorName:   "Ada",
		InstructorRole:   "Lecturer",
		InstructorAvatar: "https://images.example.com/ada.png",
	}
}

// DoJSON sends a JSON request, with a bearer token when one is given.
func DoJSON(t *testing.T, method, url string, body interface{}, token string) *http.Response {
	t.Helper()

	resp, err := http.DefaultClient.Do(CreateAuthenticatedRequest(t, method, url, body, token))
	if err != nil {
		t.Fatalf("request %s %s failed: %v", method, url, err)
	}
	return resp
}

// CreateAuthenticatedRequest creates an HTTP request with auth token
func CreateAuthenticatedRequest(t *testing.T, method, url string, body interface{}, token string) *http.Request {
	t.Helper()

	var bodyReader *bytes.Buffer
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("failed to marshal body: %v", err)
		}
		bodyReader = bytes.NewBuffer(jsonBody)
	} else {
		bodyReader = bytes.NewBuffer(nil)
	}

	req, err := http.NewRequestWithContext(context.Background(), method, url, bodyReader)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	return req
}
