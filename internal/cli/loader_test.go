package cli

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDocument_JSON(t *testing.T) {
	path := writeFile(t, "course.json", sampleDoc)

	tree, verrs, err := LoadDocument(path)
	require.NoError(t, err)
	assert.Empty(t, verrs)
	require.NotNil(t, tree)
	assert.Equal(t, "Go Basics", tree.Title)
	require.Len(t, tree.Modules, 2)
	require.Len(t, tree.Modules[0].Lessons, 2)
}

func TestLoadDocument_YAML(t *testing.T) {
	path := writeFile(t, "course.yaml", `
title: Go Basics
price_cents: 4900
draft: true
modules:
  - title: Getting Started
    lessons:
      - title: Installing Go
        type: video
        access: free
`)

	tree, verrs, err := LoadDocument(path)
	require.NoError(t, err)
	assert.Empty(t, verrs)
	require.NotNil(t, tree)
	assert.Equal(t, int64(4900), tree.PriceCents)
	require.Len(t, tree.Modules, 1)
}

func TestLoadDocument_MissingFile(t *testing.T) {
	_, _, err := LoadDocument(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestLoadDocument_BadYAML(t *testing.T) {
	path := writeFile(t, "course.yaml", "title: [unclosed")
	_, _, err := LoadDocument(path)
	assert.Error(t, err)
}

func TestLoadDocument_SurfacesValidationErrors(t *testing.T) {
	path := writeFile(t, "course.json", `{"title": ""}`)

	tree, verrs, err := LoadDocument(path)
	require.NoError(t, err)
	assert.NotNil(t, tree)
	assert.NotEmpty(t, verrs)
}
