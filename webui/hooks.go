// ABOUTME: Fire-and-forget connect/disconnect notifications to an external workstation manager.
// ABOUTME: Disabled unless a manager URL is configured; failures are logged, never fatal.
package webui

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"time"
)

// ManagerHooks notifies an external session manager when browser sessions
// come and go. When no manager URL is configured the hooks are inert, so
// callers never need to nil-check.
type ManagerHooks struct {
	url     string
	appName string
	token   string
	client  *http.Client
}

// NewManagerHooks creates hooks posting to the given manager URL. An empty
// URL disables all notifications.
func NewManagerHooks(url, appName, token string) *ManagerHooks {
	return &ManagerHooks{
		url:     url,
		appName: appName,
		token:   token,
		client:  &http.Client{Timeout: 5 * time.Second},
	}
}

// Enabled reports whether notifications are configured.
func (h *ManagerHooks) Enabled() bool {
	return h != nil && h.url != ""
}

// Connect notifies the manager that a session was created.
func (h *ManagerHooks) Connect(sessionID string) {
	h.notify("connect", sessionID)
}

// Disconnect notifies the manager that a session ended.
func (h *ManagerHooks) Disconnect(sessionID string) {
	h.notify("disconnect", sessionID)
}

// notify posts one action to the manager. Failures only warn: session
// bookkeeping on the manager side must never block the UI.
func (h *ManagerHooks) notify(action, sessionID string) {
	if !h.Enabled() {
		return
	}

	payload, err := json.Marshal(map[string]string{
		"appName": h.appName,
		"action":  action,
		"id":      sessionID,
	})
	if err != nil {
		log.Printf("manager hook marshal failed action=%s session=%s err=%v", action, sessionID, err)
		return
	}

	req, err := http.NewRequest(http.MethodPost, h.url, bytes.NewReader(payload))
	if err != nil {
		log.Printf("manager hook request failed action=%s session=%s err=%v", action, sessionID, err)
		return
	}
	req.Header.Set("Content-Type", "application/json")
	if h.token != "" {
		req.Header.Set("Token", h.token)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		log.Printf("manager hook post failed action=%s session=%s err=%v", action, sessionID, err)
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Printf("manager hook rejected action=%s session=%s status=%d", action, sessionID, resp.StatusCode)
	}
}
