package shub

import (
	"context"
	"errors"
	"fmt"

	"github.com/iAnanich/scrapy-ntk/internal/logger"
)

// ErrUnset is returned when a lazy session is asked for an entity that has
// not been switched to yet.
var ErrUnset = errors.New("session entity is not set")

// Defaults carries the session's fallback identifiers, usually sourced
// from configuration.
type Defaults struct {
	APIKey    string
	ProjectID int
	SpiderID  int
}

// Session tracks the active client, project and spider of a sequence of
// API operations. Switching the client resets the project, switching the
// project resets the spider. In lazy mode reset entities stay unset until
// explicitly switched; otherwise they fall back to the defaults.
type Session struct {
	logger   logger.Interface
	defaults Defaults
	lazy     bool
	opts     []Option

	client    *Client
	projectID int
	spider    *Spider
}

// NewSession creates a session. In non-lazy mode the default client is
// connected immediately.
func NewSession(log logger.Interface, defaults Defaults, lazy bool, opts ...Option) *Session {
	s := &Session{
		logger:   log,
		defaults: defaults,
		lazy:     lazy,
		opts:     opts,
	}
	if !lazy {
		s.SwitchClient(defaults.APIKey)
	}
	return s
}

// Client returns the active client.
func (s *Session) Client() (*Client, error) {
	if s.client == nil {
		if s.lazy {
			return nil, fmt.Errorf("%w: client", ErrUnset)
		}
		return s.SwitchClient(s.defaults.APIKey), nil
	}
	return s.client, nil
}

// ProjectID returns the active project.
func (s *Session) ProjectID() (int, error) {
	if s.projectID == 0 {
		if s.lazy {
			return 0, fmt.Errorf("%w: project", ErrUnset)
		}
		return s.SwitchProject(s.defaults.ProjectID), nil
	}
	return s.projectID, nil
}

// Spider returns the active spider.
func (s *Session) Spider() (*Spider, error) {
	if s.spider == nil {
		return nil, fmt.Errorf("%w: spider", ErrUnset)
	}
	return s.spider, nil
}

// SwitchClient connects a client for apiKey and resets the project.
func (s *Session) SwitchClient(apiKey string) *Client {
	s.client = NewClient(apiKey, s.opts...)
	s.projectID = 0
	s.spider = nil
	s.logger.Info("Client switched", "api_key", ShortcutAPIKey(apiKey))
	return s.client
}

// SwitchProject makes projectID the active project and resets the spider.
func (s *Session) SwitchProject(projectID int) int {
	s.projectID = projectID
	s.spider = nil
	s.logger.Info("Project switched", "project_id", projectID)
	return projectID
}

// SwitchSpiderID resolves spiderID within the active project and makes it
// the active spider.
func (s *Session) SwitchSpiderID(ctx context.Context, spiderID int) (*Spider, error) {
	client, err := s.Client()
	if err != nil {
		return nil, err
	}
	projectID, err := s.ProjectID()
	if err != nil {
		return nil, err
	}

	spiders, err := client.ListSpiders(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for i := range spiders {
		if spiders[i].ID == spiderID {
			s.spider = &spiders[i]
			s.logger.Info("Spider switched",
				"spider_id", spiders[i].ID,
				"spider_name", spiders[i].Name,
			)
			return s.spider, nil
		}
	}
	return nil, fmt.Errorf("spider %d not found in project %d", spiderID, projectID)
}

// SwitchSpiderName resolves a spider by name within the active project.
func (s *Session) SwitchSpiderName(ctx context.Context, name string) (*Spider, error) {
	client, err := s.Client()
	if err != nil {
		return nil, err
	}
	projectID, err := s.ProjectID()
	if err != nil {
		return nil, err
	}

	spiders, err := client.ListSpiders(ctx, projectID)
	if err != nil {
		return nil, err
	}
	for i := range spiders {
		if spiders[i].Name == name {
			s.spider = &spiders[i]
			s.logger.Info("Spider switched",
				"spider_id", spiders[i].ID,
				"spider_name", spiders[i].Name,
			)
			return s.spider, nil
		}
	}
	return nil, fmt.Errorf("spider %q not found in project %d", name, projectID)
}

// Drop forgets the whole client/project/spider chain.
func (s *Session) Drop() {
	s.client = nil
	s.projectID = 0
	s.spider = nil
	s.logger.Debug("Session dropped")
}
