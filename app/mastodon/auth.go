package mastodon

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// App holds credentials of a registered client application.
type App struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// RegisterApp creates a client application on the instance. Used by the
// first-run setup when no app credentials exist yet.
func RegisterApp(ctx context.Context, httpClient *http.Client, baseURL, name string) (*App, error) {
	form := url.Values{}
	form.Set("client_name", name)
	form.Set("redirect_uris", "urn:ietf:wg:oauth:2.0:oob")
	form.Set("scopes", "read write")
	form.Set("website", "https://github.com/lysyi3m/rss-toot")

	var app App
	if err := postForm(ctx, httpClient, strings.TrimRight(baseURL, "/")+"/api/v1/apps", form, &app); err != nil {
		return nil, fmt.Errorf("failed to register app: %w", err)
	}

	return &app, nil
}

// ObtainToken exchanges user credentials for an access token using the
// password grant. The password is sent once and never stored.
func ObtainToken(ctx context.Context, httpClient *http.Client, baseURL string, app *App, username, password string) (string, error) {
	form := url.Values{}
	form.Set("grant_type", "password")
	form.Set("client_id", app.ClientID)
	form.Set("client_secret", app.ClientSecret)
	form.Set("username", username)
	form.Set("password", password)
	form.Set("scope", "read write")

	var token struct {
		AccessToken string `json:"access_token"`
	}
	if err := postForm(ctx, httpClient, strings.TrimRight(baseURL, "/")+"/oauth/token", form, &token); err != nil {
		return "", fmt.Errorf("failed to obtain access token: %w", err)
	}

	return token.AccessToken, nil
}

func postForm(ctx context.Context, httpClient *http.Client, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, "POST", endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("HTTP error: %d %s: %s", resp.StatusCode, resp.Status, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}
