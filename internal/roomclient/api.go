package roomclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/rx3lixir/studyhall/internal/protocol"
	"github.com/rx3lixir/studyhall/internal/todo"
	"github.com/rx3lixir/studyhall/internal/user"
)

// API talks to the studyhall REST endpoints. It implements SessionAPI.
//
// Plain net/http is enough here: the surface is a dozen JSON endpoints
// and one multipart upload.
type API struct {
	baseURL string
	token   string
	client  *http.Client
}

func NewAPI(baseURL string, client *http.Client) *API {
	if client == nil {
		client = http.DefaultClient
	}
	return &API{
		baseURL: baseURL,
		client:  client,
	}
}

// Signin authenticates and stores the access token for later calls.
func (a *API) Signin(ctx context.Context, email, password string) (*user.AuthResponse, error) {
	var resp user.AuthResponse
	err := a.doJSON(ctx, http.MethodPost, "/api/auth/signin",
		map[string]string{"email": email, "password": password}, &resp)
	if err != nil {
		return nil, err
	}

	a.token = resp.AccessToken
	return &resp, nil
}

// Signup registers a new account and stores the access token.
func (a *API) Signup(ctx context.Context, email, username, password string) (*user.AuthResponse, error) {
	var resp user.AuthResponse
	err := a.doJSON(ctx, http.MethodPost, "/api/auth/signup",
		map[string]string{"email": email, "username": username, "password": password}, &resp)
	if err != nil {
		return nil, err
	}

	a.token = resp.AccessToken
	return &resp, nil
}

// Token returns the stored access token.
func (a *API) Token() string {
	return a.token
}

func (a *API) CreateRoom(ctx context.Context, sessionName string) (*RoomInfo, error) {
	var resp struct {
		RoomCode    string    `json:"roomCode"`
		RoomList    uuid.UUID `json:"roomList"`
		SessionName string    `json:"sessionName"`
	}
	err := a.doJSON(ctx, http.MethodPost, "/api/create-room",
		map[string]string{"session_name": sessionName}, &resp)
	if err != nil {
		return nil, err
	}

	return &RoomInfo{
		RoomCode:    resp.RoomCode,
		SessionName: resp.SessionName,
		ListID:      resp.RoomList,
	}, nil
}

func (a *API) JoinRoom(ctx context.Context, roomCode string) (*RoomInfo, error) {
	var resp struct {
		RoomCode    string    `json:"roomCode"`
		SessionName string    `json:"sessionName"`
		RoomList    uuid.UUID `json:"roomList"`
	}
	err := a.doJSON(ctx, http.MethodPost, "/api/join-room",
		map[string]string{"roomCode": roomCode}, &resp)
	if err != nil {
		return nil, err
	}

	return &RoomInfo{
		RoomCode:    resp.RoomCode,
		SessionName: resp.SessionName,
		ListID:      resp.RoomList,
	}, nil
}

func (a *API) LeaveRoom(ctx context.Context, roomCode string) error {
	return a.doJSON(ctx, http.MethodPost, "/api/leave-room",
		map[string]string{"roomCode": roomCode}, nil)
}

func (a *API) GetParticipants(ctx context.Context, roomCode string) ([]string, error) {
	var resp struct {
		ParticipantsList []struct {
			Username string `json:"username"`
		} `json:"participantsList"`
	}
	path := "/api/get-participants?roomCode=" + url.QueryEscape(roomCode)
	if err := a.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	usernames := make([]string, len(resp.ParticipantsList))
	for i, p := range resp.ParticipantsList {
		usernames[i] = p.Username
	}
	return usernames, nil
}

func (a *API) ResolveAvatar(ctx context.Context, username string) (string, error) {
	var resp struct {
		URL string `json:"url"`
	}
	path := "/api/avatar?username=" + url.QueryEscape(username)
	if err := a.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (a *API) GetLists(ctx context.Context) ([]todo.ListResponse, error) {
	var resp todo.GetListsResponse
	if err := a.doJSON(ctx, http.MethodGet, "/api/todolists", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Lists, nil
}

func (a *API) CreateTask(ctx context.Context, listID uuid.UUID, title, content string) (*todo.Task, error) {
	var task todo.Task
	path := fmt.Sprintf("/api/todolists/%s/tasks", listID)
	err := a.doJSON(ctx, http.MethodPost, path,
		todo.CreateTaskRequest{Title: title, Content: content}, &task)
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (a *API) ToggleTask(ctx context.Context, taskID uuid.UUID) error {
	return a.doJSON(ctx, http.MethodPatch, fmt.Sprintf("/api/tasks/%s", taskID), nil, nil)
}

func (a *API) DeleteTask(ctx context.Context, taskID uuid.UUID) error {
	return a.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%s", taskID), nil, nil)
}

func (a *API) DeleteList(ctx context.Context, listID uuid.UUID) error {
	return a.doJSON(ctx, http.MethodDelete, fmt.Sprintf("/api/todolists/%s", listID), nil, nil)
}

func (a *API) ListMaterials(ctx context.Context, roomCode string) ([]protocol.FilePayload, error) {
	var resp struct {
		Files []protocol.FilePayload `json:"files"`
	}
	path := "/api/materials?roomCode=" + url.QueryEscape(roomCode)
	if err := a.doJSON(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Files, nil
}

func (a *API) UploadMaterial(ctx context.Context, roomCode, fileName string, r io.Reader) (*protocol.FilePayload, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	if err := mw.WriteField("roomCode", roomCode); err != nil {
		return nil, fmt.Errorf("write form field: %w", err)
	}

	part, err := mw.CreateFormFile("file", fileName)
	if err != nil {
		return nil, fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return nil, fmt.Errorf("copy file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/api/materials", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	a.authorize(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return nil, apiError(resp)
	}

	var uploaded protocol.FilePayload
	if err := json.NewDecoder(resp.Body).Decode(&uploaded); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &uploaded, nil
}

func (a *API) DeleteMaterial(ctx context.Context, roomCode, fileName string) error {
	path := fmt.Sprintf("/api/materials/%s?roomCode=%s",
		url.PathEscape(fileName), url.QueryEscape(roomCode))
	return a.doJSON(ctx, http.MethodDelete, path, nil, nil)
}

// doJSON performs one JSON round trip. A nil out discards the body.
func (a *API) doJSON(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	a.authorize(req)

	resp, err := a.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return apiError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (a *API) authorize(req *http.Request) {
	if a.token != "" {
		req.Header.Set("Authorization", "Bearer "+a.token)
	}
}

func apiError(resp *http.Response) error {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err == nil {
		if payload.Message != "" {
			return fmt.Errorf("%s: %s", resp.Status, payload.Message)
		}
		if payload.Error != "" {
			return fmt.Errorf("%s: %s", resp.Status, payload.Error)
		}
	}
	return fmt.Errorf("request failed: %s", resp.Status)
}
