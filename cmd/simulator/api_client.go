package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

type AuthResponse struct {
	User         User   `json:"user"`
	Token        string `json:"token"`
	RefreshToken string `json:"refreshToken"`
}

type Video struct {
	ID               string `json:"id,omitempty"`
	Title            string `json:"title"`
	Professor        string `json:"professor"`
	Category         string `json:"category"`
	VideoURL         string `json:"videoUrl"`
	PosterURL        string `json:"posterUrl"`
	Description      string `json:"description"`
	SkillLevel       string `json:"skillLevel"`
	Students         int    `json:"students"`
	Languages        string `json:"languages"`
	Captions         bool   `json:"captions"`
	Lectures         int    `json:"lectures"`
	Duration         string `json:"duration"`
	InstructorName   string `json:"instructorName"`
	InstructorRole   string `json:"instructorRole"`
	InstructorAvatar string `json:"instructorAvatar"`
}

// RegisterUser creates a new account with a unique email derived from baseName
func (c *APIClient) RegisterUser(baseName, password string) (*AuthResponse, error) {
	suffix := time.Now().UnixNano() % 1000000
	body := map[string]string{
		"email":    fmt.Sprintf("%s_%d@simulator.local", baseName, suffix),
		"password": password,
		"name":     fmt.Sprintf("%s %d", baseName, suffix),
	}

	var result AuthResponse
	if err := c.do(http.MethodPost, "/users/register", body, "", http.StatusCreated, &result); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return &result, nil
}

// Login signs in and returns the fresh token pair
func (c *APIClient) Login(email, password string) (*AuthResponse, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var result AuthResponse
	if err := c.do(http.MethodPost, "/users/login", body, "", http.StatusOK, &result); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	return &result, nil
}

// SaveProfile creates or overwrites the caller's profile
func (c *APIClient) SaveProfile(token string, profile map[string]string) error {
	if err := c.do(http.MethodPost, "/users/profile", profile, token, http.StatusOK, nil); err != nil {
		return fmt.Errorf("save profile: %w", err)
	}
	return nil
}

// RegisterDevice stores a device token for the caller
func (c *APIClient) RegisterDevice(token, deviceToken string) error {
	body := map[string]string{"deviceToken": deviceToken}
	if err := c.do(http.MethodPost, "/users/device-token", body, token, http.StatusOK, nil); err != nil {
		return fmt.Errorf("register device: %w", err)
	}
	return nil
}

// CreateVideo adds a video to the catalogue. Requires an admin token.
func (c *APIClient) CreateVideo(token string, video Video) (*Video, error) {
	var created Video
	if err := c.do(http.MethodPost, "/videos", video, token, http.StatusCreated, &created); err != nil {
		return nil, fmt.Errorf("create video: %w", err)
	}
	return &created, nil
}

// HTTP helpers

func (c *APIClient) do(method, path string, body interface{}, token string, wantStatus int, out interface{}) error {
	var bodyReader io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return err
		}
		bodyReader = bytes.NewReader(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}

	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != wantStatus {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("status %d: %s", resp.StatusCode, string(bodyBytes))
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
