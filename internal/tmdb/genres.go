/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package tmdb

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// defaultGenreNames is the stable TMDB movie genre taxonomy. Search
// responses carry bare genre ids; this maps them when a details fetch
// is unavailable.
var defaultGenreNames = map[int]string{
	28:    "Action",
	12:    "Adventure",
	16:    "Animation",
	35:    "Comedy",
	80:    "Crime",
	99:    "Documentary",
	18:    "Drama",
	10751: "Family",
	14:    "Fantasy",
	36:    "History",
	27:    "Horror",
	10402: "Music",
	9648:  "Mystery",
	10749: "Romance",
	878:   "Science Fiction",
	10770: "TV Movie",
	53:    "Thriller",
	10752: "War",
	37:    "Western",
}

// GenreMap resolves TMDB genre ids to display names.
type GenreMap struct {
	names map[int]string
}

// LoadGenreMap returns the built-in taxonomy, optionally overlaid with
// entries from a YAML file of the form `id: name`.
func LoadGenreMap(path string) (*GenreMap, error) {
	names := make(map[int]string, len(defaultGenreNames))
	for id, name := range defaultGenreNames {
		names[id] = name
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read genre map: %w", err)
		}
		overrides := map[int]string{}
		if err := yaml.Unmarshal(data, &overrides); err != nil {
			return nil, fmt.Errorf("parse genre map: %w", err)
		}
		for id, name := range overrides {
			names[id] = name
		}
	}

	return &GenreMap{names: names}, nil
}

// Name resolves one genre id. Unknown ids keep a stable synthetic name
// so frequency counting still groups them.
func (g *GenreMap) Name(id int) string {
	if name, ok := g.names[id]; ok {
		return name
	}
	return fmt.Sprintf("Genre_%d", id)
}

// Names resolves a list of ids preserving order.
func (g *GenreMap) Names(ids []int) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, g.Name(id))
	}
	return out
}
