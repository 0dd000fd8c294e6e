package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// execute runs the root command with args, capturing stdout and stderr.
func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	cmd := NewRootCommand()
	var out, errBuf bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errBuf)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errBuf.String(), err
}

// sampleDoc is a valid course document without identifiers, the shape
// an author would write by hand.
const sampleDoc = `{
  "title": "Go Basics",
  "description": "An introduction to Go",
  "price_cents": 4900,
  "draft": true,
  "modules": [
    {
      "title": "Getting Started",
      "lessons": [
        {
          "title": "Installing Go",
          "type": "video",
          "access": "free",
          "resources": [
            {"title": "Install script", "type": "file", "url": "https://example.com/install.sh"}
          ]
        },
        {"title": "Hello World", "type": "text", "access": "members"}
      ]
    },
    {"title": "Syntax"}
  ]
}`

// writeFile drops content into a temp file and returns its path.
func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}
