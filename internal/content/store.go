// Package content reads and writes the page copy edited from the admin area:
// markdown files with an optional YAML front matter block.
package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"socialgood/internal/domain"
	"socialgood/internal/storage"
)

// ErrDirectoryMissing is returned by List when the content directory does not exist.
var ErrDirectoryMissing = errors.New("content: directory not found")

// File is one markdown document as served to the admin editor.
type File struct {
	Content      string    `json:"content"`
	LastModified time.Time `json:"lastModified"`
}

type Hero struct {
	Title    string `yaml:"title" json:"title"`
	Subtitle string `yaml:"subtitle,omitempty" json:"subtitle,omitempty"`
	CTALabel string `yaml:"cta_label,omitempty" json:"cta_label,omitempty"`
	CTALink  string `yaml:"cta_link,omitempty" json:"cta_link,omitempty"`
	Body     string `yaml:"-" json:"body,omitempty"`
}

type About struct {
	Heading    string   `yaml:"heading" json:"heading"`
	Highlights []string `yaml:"highlights,omitempty" json:"highlights,omitempty"`
	Body       string   `yaml:"-" json:"body"`
}

type ImpactStat struct {
	Label       string `yaml:"label" json:"label"`
	Value       string `yaml:"value" json:"value"`
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
}

type Impact struct {
	Heading string       `yaml:"heading" json:"heading"`
	Stats   []ImpactStat `yaml:"stats" json:"stats"`
	Body    string       `yaml:"-" json:"body,omitempty"`
}

// Store serves markdown files from a single flat directory.
type Store struct {
	files *storage.FileStore
}

// NewStore wraps dir. The directory is created on first Save.
func NewStore(dir string) (*Store, error) {
	files, err := storage.OpenFileStore(dir)
	if err != nil {
		return nil, err
	}
	return &Store{files: files}, nil
}

// List returns every .md file keyed by file name.
func (s *Store) List(ctx context.Context) (map[string]File, error) {
	if !s.files.Exists() {
		return nil, ErrDirectoryMissing
	}
	entries, err := s.files.List(ctx, "", ".md")
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return nil, ErrDirectoryMissing
		}
		return nil, err
	}
	out := make(map[string]File, len(entries))
	for _, e := range entries {
		data, err := s.files.Read(ctx, e.Key)
		if err != nil {
			return nil, err
		}
		out[e.Key] = File{Content: string(data), LastModified: e.ModTime.UTC()}
	}
	return out, nil
}

// Save replaces fileName with body.
func (s *Store) Save(ctx context.Context, fileName, body string) error {
	if strings.TrimSpace(fileName) == "" || body == "" {
		return domain.NewValidationError("", "fileName and content are required")
	}
	name, err := validateName(fileName)
	if err != nil {
		return err
	}
	if _, err := s.files.Write(ctx, name, []byte(body)); err != nil {
		return fmt.Errorf("content: save %s: %w", name, err)
	}
	return nil
}

func (s *Store) Hero(ctx context.Context) (Hero, error) {
	var h Hero
	body, err := s.read(ctx, "hero.md", &h)
	h.Body = body
	return h, err
}

func (s *Store) About(ctx context.Context) (About, error) {
	var a About
	body, err := s.read(ctx, "about.md", &a)
	a.Body = body
	return a, err
}

func (s *Store) Impact(ctx context.Context) (Impact, error) {
	var i Impact
	body, err := s.read(ctx, "impact.md", &i)
	i.Body = body
	return i, err
}

func (s *Store) read(ctx context.Context, name string, meta any) (string, error) {
	data, err := s.files.Read(ctx, name)
	if err != nil {
		if errors.Is(err, storage.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", domain.ErrNotFound, name)
		}
		return "", err
	}
	return ParseFrontMatter(data, meta)
}

// ParseFrontMatter decodes a leading "---" delimited YAML block into meta
// and returns the trimmed markdown body. Files without front matter are
// returned whole.
func ParseFrontMatter(data []byte, meta any) (string, error) {
	text := bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	if !bytes.HasPrefix(text, []byte("---\n")) {
		return strings.TrimSpace(string(text)), nil
	}
	rest := text[len("---\n"):]
	end := bytes.Index(rest, []byte("\n---"))
	if end < 0 {
		return "", errors.New("content: unterminated front matter")
	}
	if err := yaml.Unmarshal(rest[:end], meta); err != nil {
		return "", fmt.Errorf("content: decode front matter: %w", err)
	}
	body := rest[end+len("\n---"):]
	return strings.TrimSpace(string(body)), nil
}

func validateName(fileName string) (string, error) {
	name := strings.TrimSpace(fileName)
	if strings.ContainsAny(name, `/\`) || name != path.Base(name) || strings.HasPrefix(name, ".") {
		return "", domain.NewValidationError("fileName", "fileName must be a plain file name")
	}
	if !strings.HasSuffix(name, ".md") {
		return "", domain.NewValidationError("fileName", "fileName must end with .md")
	}
	return name, nil
}
