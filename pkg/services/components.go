package services

import (
	"encoding/xml"
	"path/filepath"
	"strings"

	"headless-cms/pkg/models"

	"github.com/morikuni/failure"
	"github.com/rs/zerolog/log"
)

type componentRecord struct {
	XMLName xml.Name `xml:"item"`
	Title   string   `xml:"title"`
	Content string   `xml:"content"`
}

// ComponentStore reads reusable snippets, one file per component.
type ComponentStore struct {
	Dir string
}

func NewComponentStore(dir string) *ComponentStore {
	return &ComponentStore{Dir: dir}
}

func (s *ComponentStore) All() ([]models.Component, error) {
	files, err := listXML(s.Dir)
	if err != nil {
		return nil, err
	}
	components := make([]models.Component, 0, len(files))
	for _, f := range files {
		c, err := s.load(f)
		if err != nil {
			log.Warn().Err(err).Str("path", f).Msg("skipping unreadable component")
			continue
		}
		components = append(components, *c)
	}
	return components, nil
}

func (s *ComponentStore) Get(name string) (*models.Component, error) {
	path := SafeJoin(s.Dir, "", name+xmlExt)
	if path == "" {
		return nil, failure.New(ErrNotFound, failure.Message("Component not found"))
	}
	c, err := s.load(path)
	if err != nil {
		if failure.Is(err, ErrNotFound) {
			return nil, failure.Translate(err, ErrNotFound, failure.Message("Component not found"))
		}
		return nil, err
	}
	return c, nil
}

func (s *ComponentStore) load(path string) (*models.Component, error) {
	var rec componentRecord
	if err := readXML(path, &rec); err != nil {
		return nil, err
	}
	return &models.Component{
		Name:    strings.TrimSuffix(filepath.Base(path), xmlExt),
		Content: decodeField(rec.Content),
		Title:   decodeField(rec.Title),
	}, nil
}
