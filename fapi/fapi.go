// Package fapi is the external HTTP auth collaborator the core consumes
// but does not implement: the ticket endpoint and the friends/bookmarks
// endpoint (§6). Every shape here is plain strings, never the domain
// package's types, so this package has no import of fchat and can be
// unit-tested in isolation.
package fapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

// ticketURL and friendsURL are vars, not consts, so tests can point them at
// an httptest.Server instead of the real endpoint.
var (
	ticketURL  = "https://www.f-list.net/json/getApiTicket.php"
	friendsURL = "https://www.f-list.net/json/api/friend-bookmark-lists.php"
)

// API is the HTTP collaborator. The zero value is not usable; construct
// with New.
type API struct {
	httpClient *http.Client
}

type config struct {
	httpClient *http.Client
}

// Option configures an API.
type Option func(*config)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *config) { c.httpClient = h }
}

// New constructs an API collaborator.
func New(opts ...Option) *API {
	cfg := config{httpClient: http.DefaultClient}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &API{httpClient: cfg.httpClient}
}

// Bookmark is one entry of TicketResponse.Bookmarks.
type Bookmark struct {
	Name string `json:"name"`
}

// Friend is one directed friendship edge as the ticket endpoint reports it.
type Friend struct {
	Source string `json:"source_name"`
	Dest   string `json:"dest_name"`
}

// TicketResponse is getApiTicket.php's response shape.
type TicketResponse struct {
	Error            string            `json:"error"`
	Ticket           string            `json:"ticket"`
	Characters       map[string]string `json:"characters"`
	DefaultCharacter string            `json:"default_character"`
	Bookmarks        []Bookmark        `json:"bookmarks"`
	Friends          []Friend          `json:"friends"`
}

// GetAPITicket exchanges account credentials for a bearer ticket. extra
// requests the characters/bookmarks/friends payload alongside it (used
// once at Client.init; later refreshes pass extra=false to keep the
// response small).
func (a *API) GetAPITicket(ctx context.Context, account, password string, extra bool) (TicketResponse, error) {
	form := url.Values{
		"account":           {account},
		"password":          {password},
		"no_characters":     {boolString(!extra)},
		"no_friends":        {boolString(!extra)},
		"no_bookmarks":      {boolString(!extra)},
		"new_character_list": {boolString(extra)},
	}

	var resp TicketResponse
	if err := a.postForm(ctx, ticketURL, form, &resp); err != nil {
		return TicketResponse{}, err
	}
	if resp.Error != "" {
		return TicketResponse{}, fmt.Errorf("fapi: getApiTicket: %s", resp.Error)
	}
	return resp, nil
}

// FriendsListResponse is friend-bookmark-lists.php's response shape.
type FriendsListResponse struct {
	Error     string     `json:"error"`
	Bookmarks []Bookmark `json:"bookmarks"`
	Friends   []Friend   `json:"friends"`
}

// GetFriendsList re-fetches the bookmarks/friends payload using an
// already-issued ticket, without re-authenticating with a password.
func (a *API) GetFriendsList(ctx context.Context, account, ticket string) (FriendsListResponse, error) {
	form := url.Values{
		"account": {account},
		"ticket":  {ticket},
	}

	var resp FriendsListResponse
	if err := a.postForm(ctx, friendsURL, form, &resp); err != nil {
		return FriendsListResponse{}, err
	}
	if resp.Error != "" {
		return FriendsListResponse{}, fmt.Errorf("fapi: friend-bookmark-lists: %s", resp.Error)
	}
	return resp, nil
}

func (a *API) postForm(ctx context.Context, endpoint string, form url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("fapi: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("fapi: do request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("fapi: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("fapi: %s: unexpected status %d", endpoint, resp.StatusCode)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("fapi: decode response: %w", err)
	}
	return nil
}

func boolString(b bool) string {
	if b {
		return "true"
	}
	return "false"
}
