package plex

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"reelsync/internal/library"
	"reelsync/internal/logging"
	"reelsync/internal/services"
)

// SearchMovies returns movies in the movies section titled exactly title.
// Plex matches the title filter as a substring, so results are narrowed
// here, along with the optional year window.
func (c *Client) SearchMovies(ctx context.Context, title string, years []int) ([]library.Item, error) {
	key, err := c.sectionKey(ctx, c.moviesLibrary, sectionTypeMovie)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("type", "1")
	params.Set("title", title)
	params.Set("includeGuids", "1")

	var container mediaContainer
	if err := c.get(ctx, "/library/sections/"+key+"/all", params, &container); err != nil {
		return nil, err
	}
	var out []library.Item
	for _, v := range container.Videos {
		if v.Title != title {
			continue
		}
		if len(years) > 0 && !slices.Contains(years, v.Year) {
			continue
		}
		out = append(out, v.item())
	}
	return out, nil
}

// SearchShows returns shows titled exactly title. A missing TV section yields
// no results.
func (c *Client) SearchShows(ctx context.Context, title string) ([]library.Item, error) {
	key, err := c.sectionKey(ctx, c.tvLibrary, sectionTypeShow)
	if err != nil {
		if errors.Is(err, services.ErrNotFound) {
			c.logger.Debug("tv section unavailable", logging.String("section", c.tvLibrary))
			return nil, nil
		}
		return nil, err
	}
	params := url.Values{}
	params.Set("type", "2")
	params.Set("title", title)

	var container mediaContainer
	if err := c.get(ctx, "/library/sections/"+key+"/all", params, &container); err != nil {
		return nil, err
	}
	var out []library.Item
	for _, d := range container.Directories {
		if d.Title == title {
			out = append(out, d.item())
		}
	}
	return out, nil
}

// LookupByGUID finds the movie tagged with guid. The first call loads every
// movie with its external identifiers and later calls are served from that
// index.
func (c *Client) LookupByGUID(ctx context.Context, guid string) (library.Item, bool, error) {
	index, err := c.ensureGUIDIndex(ctx)
	if err != nil {
		return library.Item{}, false, err
	}
	item, ok := index[guid]
	return item, ok, nil
}

// Movies lists the movie section. When limit > 0 only the most recently added
// movies are returned, newest first.
func (c *Client) Movies(ctx context.Context, limit int) ([]library.Item, error) {
	key, err := c.sectionKey(ctx, c.moviesLibrary, sectionTypeMovie)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("type", "1")
	params.Set("includeGuids", "1")
	if limit > 0 {
		params.Set("sort", "addedAt:desc")
		params.Set("X-Plex-Container-Start", "0")
		params.Set("X-Plex-Container-Size", strconv.Itoa(limit))
	}

	var container mediaContainer
	if err := c.get(ctx, "/library/sections/"+key+"/all", params, &container); err != nil {
		return nil, err
	}
	out := make([]library.Item, 0, len(container.Videos))
	for _, v := range container.Videos {
		out = append(out, v.item())
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (c *Client) ensureGUIDIndex(ctx context.Context) (map[string]library.Item, error) {
	c.mu.Lock()
	index := c.guidIndex
	c.mu.Unlock()
	if index != nil {
		return index, nil
	}

	movies, err := c.Movies(ctx, 0)
	if err != nil {
		return nil, err
	}
	index = make(map[string]library.Item, len(movies)*3)
	for _, item := range movies {
		for _, g := range item.GUIDs {
			if _, exists := index[g]; !exists {
				index[g] = item
			}
		}
	}
	c.logger.Debug("guid index built", logging.Int("movies", len(movies)), logging.Int("guids", len(index)))

	c.mu.Lock()
	c.guidIndex = index
	c.mu.Unlock()
	return index, nil
}

func (c *Client) sectionKey(ctx context.Context, name, kind string) (string, error) {
	sections, err := c.ensureSections(ctx)
	if err != nil {
		return "", err
	}
	sec, ok := sections[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", services.Wrap(services.ErrNotFound, "plex", "section", fmt.Sprintf("library %q not found", name), nil)
	}
	if sec.kind != "" && sec.kind != kind {
		return "", services.Wrap(services.ErrConfiguration, "plex", "section",
			fmt.Sprintf("library %q is a %s section, expected %s", name, sec.kind, kind), nil)
	}
	return sec.key, nil
}

func (c *Client) ensureSections(ctx context.Context) (map[string]section, error) {
	c.mu.Lock()
	cached := c.sections
	c.mu.Unlock()
	if cached != nil {
		return cached, nil
	}

	var container mediaContainer
	if err := c.get(ctx, "/library/sections", nil, &container); err != nil {
		return nil, err
	}
	sections := make(map[string]section, len(container.Directories))
	for _, dir := range container.Directories {
		if dir.Key == "" || dir.Title == "" {
			continue
		}
		sections[strings.ToLower(dir.Title)] = section{key: dir.Key, kind: dir.Type}
	}

	c.mu.Lock()
	c.sections = sections
	c.mu.Unlock()
	return sections, nil
}
