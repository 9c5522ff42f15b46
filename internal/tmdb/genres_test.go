/*
Copyright (C) 2026 Connor Swartz

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package tmdb

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestGenreMapDefaults(t *testing.T) {
	genres, err := LoadGenreMap("")
	if err != nil {
		t.Fatalf("LoadGenreMap() error = %v", err)
	}

	if got := genres.Name(35); got != "Comedy" {
		t.Errorf("Name(35) = %q, want Comedy", got)
	}
	if got := genres.Name(99999); got != "Genre_99999" {
		t.Errorf("Name(99999) = %q, want Genre_99999", got)
	}
	if got := genres.Names([]int{35, 53, 18}); !reflect.DeepEqual(got, []string{"Comedy", "Thriller", "Drama"}) {
		t.Errorf("Names() = %v", got)
	}
}

func TestGenreMapYAMLOverlay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "genres.yaml")
	if err := os.WriteFile(path, []byte("35: Comedie\n99999: Experimental\n"), 0644); err != nil {
		t.Fatal(err)
	}

	genres, err := LoadGenreMap(path)
	if err != nil {
		t.Fatalf("LoadGenreMap() error = %v", err)
	}

	if got := genres.Name(35); got != "Comedie" {
		t.Errorf("Name(35) = %q, want Comedie", got)
	}
	if got := genres.Name(99999); got != "Experimental" {
		t.Errorf("Name(99999) = %q, want Experimental", got)
	}
	if got := genres.Name(53); got != "Thriller" {
		t.Errorf("Name(53) = %q, want Thriller", got)
	}
}

func TestGenreMapMissingFile(t *testing.T) {
	if _, err := LoadGenreMap(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
