// Package userdetail aggregates the profile and repositories of a single
// GitHub user for the detail panel.
package userdetail

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ghusers/ghusers/internal/github"
)

// MaxRepos is the number of repositories shown per user.
const MaxRepos = 5

// Transport is the upstream GET used for both calls.
type Transport interface {
	Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error)
}

// Repo is one entry of the repository list.
type Repo struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	HTMLURL     string `json:"htmlUrl"`
}

// UserDetail is the detail panel model. StarsCount has no upstream source and
// is always zero.
type UserDetail struct {
	ID             int64  `json:"id"`
	Login          string `json:"login"`
	Name           string `json:"name,omitempty"`
	AvatarURL      string `json:"avatarUrl"`
	ProfileURL     string `json:"profileUrl"`
	FollowersCount uint   `json:"followersCount"`
	StarsCount     uint   `json:"starsCount"`
	Repos          []Repo `json:"repos"`
	Bio            string `json:"bio"`
}

// Fetcher loads UserDetail values through a Transport.
type Fetcher struct {
	transport Transport
}

func NewFetcher(transport Transport) *Fetcher {
	return &Fetcher{transport: transport}
}

type profileRecord struct {
	ID        int64   `json:"id"`
	Login     string  `json:"login"`
	Name      *string `json:"name"`
	AvatarURL string  `json:"avatar_url"`
	HTMLURL   string  `json:"html_url"`
	Followers int64   `json:"followers"`
	Bio       *string `json:"bio"`
}

type repoRecord struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
	HTMLURL     string  `json:"html_url"`
}

// Fetch retrieves the profile and repository list for login concurrently. A
// failure of either call fails the whole fetch.
func (f *Fetcher) Fetch(ctx context.Context, login string) (UserDetail, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return UserDetail{}, errors.New("login is required")
	}

	var (
		profile profileRecord
		repos   []repoRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		raw, err := f.transport.Get(gctx, github.UserPath(login), nil)
		if err != nil {
			return err
		}
		if err := json.Unmarshal(raw, &profile); err != nil {
			return fmt.Errorf("decode profile for %s: %w", login, err)
		}
		return nil
	})
	g.Go(func() error {
		raw, err := f.transport.Get(gctx, github.UserReposPath(login), nil)
		if err != nil {
			return err
		}
		if len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, &repos); err != nil {
			return fmt.Errorf("decode repositories for %s: %w", login, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return UserDetail{}, err
	}

	return mapDetail(profile, repos), nil
}

func mapDetail(p profileRecord, repos []repoRecord) UserDetail {
	if len(repos) > MaxRepos {
		repos = repos[:MaxRepos]
	}

	out := UserDetail{
		ID:         p.ID,
		Login:      p.Login,
		Name:       deref(p.Name),
		AvatarURL:  p.AvatarURL,
		ProfileURL: p.HTMLURL,
		Bio:        deref(p.Bio),
		Repos:      make([]Repo, 0, len(repos)),
	}
	if p.Followers > 0 {
		out.FollowersCount = uint(p.Followers)
	}
	for _, r := range repos {
		out.Repos = append(out.Repos, Repo{
			ID:          r.ID,
			Name:        r.Name,
			Description: deref(r.Description),
			HTMLURL:     r.HTMLURL,
		})
	}
	return out
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
