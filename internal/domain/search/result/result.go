// Package result defines the UI-facing search result model.
package result

import "strings"

// Model is a single displayable search result: a persisted thumbnail on disk
// plus the public asset it points at.
type Model struct {
	imagePath string
	assetURL  string
	assetName string
}

// New creates a result model. The asset name is the last path segment of the URL.
func New(imagePath, assetURL string) Model {
	name := assetURL
	if i := strings.LastIndex(assetURL, "/"); i >= 0 {
		name = assetURL[i+1:]
	}
	return Model{imagePath: imagePath, assetURL: assetURL, assetName: name}
}

// ImagePath returns the filesystem path of the decoded thumbnail JPEG.
func (m Model) ImagePath() string { return m.imagePath }

// AssetURL returns the public asset URL.
func (m Model) AssetURL() string { return m.assetURL }

// AssetName returns the asset file name.
func (m Model) AssetName() string { return m.assetName }
