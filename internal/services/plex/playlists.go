package plex

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"reelsync/internal/library"
	"reelsync/internal/services"
)

const libraryIdentifier = "com.plexapp.plugins.library"

// PlaylistItems returns the contents of the named video playlist.
func (c *Client) PlaylistItems(ctx context.Context, name string) ([]library.Item, error) {
	pl, err := c.findPlaylist(ctx, name)
	if err != nil {
		return nil, err
	}
	var container mediaContainer
	if err := c.get(ctx, "/playlists/"+pl.RatingKey+"/items", nil, &container); err != nil {
		return nil, err
	}
	out := make([]library.Item, 0, len(container.Videos))
	for _, v := range container.Videos {
		out = append(out, v.item())
	}
	return out, nil
}

// DeletePlaylist removes the named playlist.
func (c *Client) DeletePlaylist(ctx context.Context, name string) error {
	pl, err := c.findPlaylist(ctx, name)
	if err != nil {
		return err
	}
	return c.do(ctx, http.MethodDelete, c.baseURL+"/playlists/"+pl.RatingKey, nil, nil, nil)
}

// CreatePlaylist creates a video playlist holding items in order.
func (c *Client) CreatePlaylist(ctx context.Context, name string, items []library.Item) error {
	if len(items) == 0 {
		return services.Wrap(services.ErrTransient, "plex", "create playlist", "plex cannot create an empty playlist", nil)
	}
	machineID, err := c.ensureMachineID(ctx)
	if err != nil {
		return err
	}
	keys := make([]string, 0, len(items))
	for _, item := range items {
		keys = append(keys, item.Key)
	}
	params := url.Values{}
	params.Set("type", "video")
	params.Set("title", name)
	params.Set("smart", "0")
	params.Set("uri", "server://"+machineID+"/"+libraryIdentifier+"/library/metadata/"+strings.Join(keys, ","))
	return c.do(ctx, http.MethodPost, c.baseURL+"/playlists", params, nil, nil)
}

// AddToWatchlist adds item to the account watchlist through the discover
// provider. Plex answers 400 for items already on the watchlist; that is
// reported as services.ErrDuplicate.
func (c *Client) AddToWatchlist(ctx context.Context, item library.Item) error {
	if c.discoverURL == "" {
		return services.Wrap(services.ErrConfiguration, "plex", "add to watchlist", "plex.discover_url is not set", nil)
	}
	id, ok := discoverKey(item)
	if !ok {
		return services.Wrap(services.ErrNotFound, "plex", "add to watchlist", "no plex guid for "+item.Label(), nil)
	}
	params := url.Values{}
	params.Set("ratingKey", id)
	err := c.do(ctx, http.MethodPut, c.discoverURL+"/actions/addToWatchlist", params, nil, nil)
	if err != nil && statusCode(err) == http.StatusBadRequest {
		return services.Wrap(services.ErrDuplicate, "plex", "add to watchlist", item.Label(), err)
	}
	return err
}

// Rate sets the user rating (0-10) of item.
func (c *Client) Rate(ctx context.Context, item library.Item, rating int) error {
	params := url.Values{}
	params.Set("key", item.Key)
	params.Set("identifier", libraryIdentifier)
	params.Set("rating", strconv.Itoa(rating))
	return c.do(ctx, http.MethodPut, c.baseURL+"/:/rate", params, nil, nil)
}

func (c *Client) findPlaylist(ctx context.Context, name string) (playlist, error) {
	params := url.Values{}
	params.Set("playlistType", "video")
	var container mediaContainer
	if err := c.get(ctx, "/playlists", params, &container); err != nil {
		if errors.Is(err, services.ErrNotFound) {
			return playlist{}, services.Wrap(services.ErrNotFound, "plex", "playlist", name, nil)
		}
		return playlist{}, err
	}
	for _, pl := range container.Playlists {
		if pl.Title == name {
			return pl, nil
		}
	}
	return playlist{}, services.Wrap(services.ErrNotFound, "plex", "playlist", name, nil)
}

// discoverKey extracts the discover rating key from the plex:// guid.
func discoverKey(item library.Item) (string, bool) {
	for _, g := range item.GUIDs {
		if !strings.HasPrefix(g, "plex://") {
			continue
		}
		if i := strings.LastIndexByte(g, '/'); i >= 0 && i < len(g)-1 {
			return g[i+1:], true
		}
	}
	return "", false
}
