// ABOUTME: Backup formats for the recipe collection.
// ABOUTME: JSON dumps round-trip through import; markdown files carry YAML front matter.

package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harper/cookbook/internal/imaging"
	"github.com/harper/cookbook/internal/models"
	"gopkg.in/yaml.v3"
)

// Version identifies the JSON export layout.
const Version = "1.0"

// Data is the JSON export document.
type Data struct {
	ExportedAt time.Time       `json:"exported_at"`
	Version    string          `json:"version"`
	Recipes    []models.Recipe `json:"recipes"`
}

// FrontMatter is the YAML header of a markdown export.
type FrontMatter struct {
	ID       string    `yaml:"id"`
	Title    string    `yaml:"title"`
	Date     string    `yaml:"date"`
	Rating   int       `yaml:"rating"`
	Created  time.Time `yaml:"created"`
	Modified time.Time `yaml:"modified"`
	Images   []string  `yaml:"images,omitempty"`
}

// JSON encodes recipes as an indented export document.
func JSON(recipes []models.Recipe, now time.Time) ([]byte, error) {
	if recipes == nil {
		recipes = []models.Recipe{}
	}
	return json.MarshalIndent(Data{ExportedAt: now, Version: Version, Recipes: recipes}, "", "  ")
}

// ParseJSON reads an export document.
func ParseJSON(data []byte) (*Data, error) {
	var d Data
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse export: %w", err)
	}
	for i := range d.Recipes {
		if d.Recipes[i].Images == nil {
			d.Recipes[i].Images = []string{}
		}
	}
	return &d, nil
}

// Markdown renders one recipe with front matter. imageFiles are the names
// its photos were written under, if any.
func Markdown(r models.Recipe, imageFiles []string) (string, error) {
	fm := FrontMatter{
		ID:       r.ID,
		Title:    r.Title,
		Date:     r.Date,
		Rating:   r.Rating,
		Created:  r.Created,
		Modified: r.Modified,
		Images:   imageFiles,
	}
	header, err := yaml.Marshal(fm)
	if err != nil {
		return "", fmt.Errorf("marshal front matter: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("---\n")
	sb.Write(header)
	sb.WriteString("---\n\n")
	sb.WriteString(fmt.Sprintf("# %s\n\n", r.Title))
	sb.WriteString("## Instructions\n\n")
	sb.WriteString(r.Instructions)
	sb.WriteString("\n")
	if strings.TrimSpace(r.Notes) != "" {
		sb.WriteString("\n## Notes\n\n")
		sb.WriteString(r.Notes)
		sb.WriteString("\n")
	}
	for _, f := range imageFiles {
		sb.WriteString(fmt.Sprintf("\n![%s](%s)\n", r.Title, f))
	}
	return sb.String(), nil
}

// WriteMarkdownDir writes one markdown file per recipe into dir, with photos
// decoded into images/<id prefix>/. It returns the number of recipes written.
func WriteMarkdownDir(dir string, recipes []models.Recipe) (int, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return 0, err
	}

	used := map[string]int{}
	for i, r := range recipes {
		files, err := writeImages(dir, r)
		if err != nil {
			return i, err
		}

		md, err := Markdown(r, files)
		if err != nil {
			return i, err
		}

		name := SanitizeFilename(r.Title)
		if name == "" {
			name = "recipe"
		}
		if n := used[name]; n > 0 {
			used[name] = n + 1
			name = fmt.Sprintf("%s-%d", name, n+1)
		} else {
			used[name] = 1
		}

		if err := os.WriteFile(filepath.Join(dir, name+".md"), []byte(md), 0600); err != nil {
			return i, err
		}
	}
	return len(recipes), nil
}

func writeImages(dir string, r models.Recipe) ([]string, error) {
	if len(r.Images) == 0 {
		return nil, nil
	}

	prefix := r.ID
	if len(prefix) > 8 {
		prefix = prefix[:8]
	}
	rel := filepath.Join("images", prefix)
	if err := os.MkdirAll(filepath.Join(dir, rel), 0750); err != nil {
		return nil, err
	}

	var files []string
	for i, img := range r.Images {
		mimeType, data, err := imaging.DecodeDataURL(img)
		if err != nil {
			continue
		}
		name := filepath.Join(rel, fmt.Sprintf("image-%d%s", i+1, imaging.Extension(mimeType)))
		if err := os.WriteFile(filepath.Join(dir, name), data, 0600); err != nil {
			return nil, err
		}
		files = append(files, filepath.ToSlash(name))
	}
	return files, nil
}

// SanitizeFilename replaces characters that are unsafe in file names.
func SanitizeFilename(name string) string {
	replacer := strings.NewReplacer(
		"/", "-", "\\", "-", ":", "-", "*", "-",
		"?", "-", "\"", "-", "<", "-", ">", "-", "|", "-",
	)
	name = strings.TrimSpace(replacer.Replace(name))
	if r := []rune(name); len(r) > 100 {
		name = string(r[:100])
	}
	return name
}
