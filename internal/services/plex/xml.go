package plex

import (
	"time"

	"reelsync/internal/library"
)

const (
	sectionTypeMovie = "movie"
	sectionTypeShow  = "show"
)

type mediaContainer struct {
	Size              int         `xml:"size,attr"`
	MachineIdentifier string      `xml:"machineIdentifier,attr"`
	Directories       []directory `xml:"Directory"`
	Videos            []video     `xml:"Video"`
	Playlists         []playlist  `xml:"Playlist"`
}

type directory struct {
	Key       string `xml:"key,attr"`
	RatingKey string `xml:"ratingKey,attr"`
	Title     string `xml:"title,attr"`
	Type      string `xml:"type,attr"`
	Year      int    `xml:"year,attr"`
}

type video struct {
	RatingKey    string  `xml:"ratingKey,attr"`
	Title        string  `xml:"title,attr"`
	Year         int     `xml:"year,attr"`
	EditionTitle string  `xml:"editionTitle,attr"`
	UserRating   float64 `xml:"userRating,attr"`
	AddedAt      int64   `xml:"addedAt,attr"`
	GUID         string  `xml:"guid,attr"`
	GUIDs        []guid  `xml:"Guid"`
}

type guid struct {
	ID string `xml:"id,attr"`
}

type playlist struct {
	RatingKey    string `xml:"ratingKey,attr"`
	Title        string `xml:"title,attr"`
	PlaylistType string `xml:"playlistType,attr"`
	LeafCount    int    `xml:"leafCount,attr"`
}

type section struct {
	key  string
	kind string
}

func (v video) item() library.Item {
	item := library.Item{
		Key:        v.RatingKey,
		Title:      v.Title,
		Year:       v.Year,
		Edition:    v.EditionTitle,
		UserRating: v.UserRating,
	}
	if v.AddedAt > 0 {
		item.AddedAt = time.Unix(v.AddedAt, 0).UTC()
	}
	if v.GUID != "" {
		item.GUIDs = append(item.GUIDs, v.GUID)
	}
	for _, g := range v.GUIDs {
		if g.ID != "" {
			item.GUIDs = append(item.GUIDs, g.ID)
		}
	}
	return item
}

func (d directory) item() library.Item {
	return library.Item{Key: d.RatingKey, Title: d.Title, Year: d.Year}
}
