// Package settings owns the persisted viewer preferences, which today is
// the set of followed user IDs.
package settings

import (
	"fmt"
	"sort"

	"github.com/idilsaglam/habits/internal/logger"
	"github.com/idilsaglam/habits/internal/model"
	"github.com/idilsaglam/habits/internal/store/jsonstore"
)

type document struct {
	FollowedUserIDs []string `json:"followed_user_ids"`
}

// Settings is the followed set backed by a JSON document.
type Settings struct {
	store    *jsonstore.Store
	followed map[string]struct{}
}

// Open loads the settings file at path. A missing file yields empty settings.
func Open(path string) (*Settings, error) {
	s := &Settings{
		store:    jsonstore.New(path),
		followed: map[string]struct{}{},
	}
	var doc document
	if _, err := s.store.Load(&doc); err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	for _, id := range doc.FollowedUserIDs {
		s.followed[id] = struct{}{}
	}
	return s, nil
}

// Contains reports whether the user with the given ID is followed.
func (s *Settings) Contains(id string) bool {
	_, ok := s.followed[id]
	return ok
}

// FollowedUserIDs returns the followed IDs in ascending order.
func (s *Settings) FollowedUserIDs() []string {
	ids := make([]string, 0, len(s.followed))
	for id := range s.followed {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// ToggleFollowed flips the membership of u and persists the result. On a
// save failure the in-memory set is restored.
func (s *Settings) ToggleFollowed(u model.User) error {
	id := model.UserKey(u)
	_, was := s.followed[id]
	if was {
		delete(s.followed, id)
	} else {
		s.followed[id] = struct{}{}
	}

	if err := s.store.Save(document{FollowedUserIDs: s.FollowedUserIDs()}); err != nil {
		if was {
			s.followed[id] = struct{}{}
		} else {
			delete(s.followed, id)
		}
		return fmt.Errorf("save settings: %w", err)
	}
	logger.Log.Debugw("toggled follow", "user", id, "followed", !was)
	return nil
}
