// Package seed loads staff users and teams from a YAML fixture file.
package seed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"estate_crm_backend/internal/assignment/domain"
	"estate_crm_backend/internal/assignment/repository"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Fixture is the on-disk shape of a seed file.
type Fixture struct {
	Users []UserFixture `yaml:"users"`
	Teams []TeamFixture `yaml:"teams"`
}

type UserFixture struct {
	ID    string `yaml:"id"`
	Name  string `yaml:"name"`
	Email string `yaml:"email"`
	Phone string `yaml:"phone"`
	Role  string `yaml:"role"`
}

// TeamFixture lists members by email.
type TeamFixture struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Members     []string `yaml:"members"`
}

// Store is the part of the assignment repository the loader writes to.
type Store interface {
	repository.UserReader
	repository.UserWriter
	repository.TeamStore
	repository.MembershipStore
}

// Result counts what Apply wrote.
type Result struct {
	Users   int
	Teams   int
	Members int
}

// Parse decodes and checks a fixture. Unknown keys are rejected.
func Parse(r io.Reader) (Fixture, error) {
	var f Fixture
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil && !errors.Is(err, io.EOF) {
		return Fixture{}, fmt.Errorf("decode seed file: %w", err)
	}

	emails := make(map[string]bool, len(f.Users))
	for i, u := range f.Users {
		if strings.TrimSpace(u.Name) == "" || strings.TrimSpace(u.Email) == "" {
			return Fixture{}, fmt.Errorf("users[%d]: name and email are required", i)
		}
		if _, ok := domain.ParseRole(u.Role); !ok {
			return Fixture{}, fmt.Errorf("users[%d]: unknown role %q", i, u.Role)
		}
		if u.ID != "" {
			if _, err := uuid.Parse(u.ID); err != nil {
				return Fixture{}, fmt.Errorf("users[%d]: invalid id: %w", i, err)
			}
		}
		emails[strings.ToLower(u.Email)] = true
	}
	for i, t := range f.Teams {
		if strings.TrimSpace(t.Name) == "" {
			return Fixture{}, fmt.Errorf("teams[%d]: name is required", i)
		}
		for _, m := range t.Members {
			if !emails[strings.ToLower(m)] {
				return Fixture{}, fmt.Errorf("teams[%d]: member %q is not a seeded user", i, m)
			}
		}
	}
	return f, nil
}

// Apply upserts the users and creates the teams with their members. Teams are
// matched by name, so applying the same fixture twice adds nothing new.
func Apply(ctx context.Context, store Store, f Fixture, now time.Time) (Result, error) {
	var res Result
	current, err := store.ListUsers(ctx)
	if err != nil {
		return res, fmt.Errorf("list users: %w", err)
	}
	byEmail := make(map[string]uuid.UUID, len(current)+len(f.Users))
	for _, u := range current {
		byEmail[strings.ToLower(u.Email)] = u.ID
	}

	for _, u := range f.Users {
		role, _ := domain.ParseRole(u.Role)
		user := repository.User{
			Name:      strings.TrimSpace(u.Name),
			Email:     strings.TrimSpace(u.Email),
			Phone:     strings.TrimSpace(u.Phone),
			Role:      role,
			CreatedAt: now,
		}
		if u.ID != "" {
			user.ID = uuid.MustParse(u.ID)
		} else if id, ok := byEmail[strings.ToLower(user.Email)]; ok {
			user.ID = id
		}
		saved, err := store.UpsertUser(ctx, user)
		if err != nil {
			return res, fmt.Errorf("seed user %s: %w", u.Email, err)
		}
		byEmail[strings.ToLower(saved.Email)] = saved.ID
		res.Users++
	}

	existing, err := store.ListTeams(ctx)
	if err != nil {
		return res, fmt.Errorf("list teams: %w", err)
	}
	teamsByName := make(map[string]repository.Team, len(existing))
	for _, t := range existing {
		teamsByName[strings.ToLower(t.Name)] = t
	}

	for _, t := range f.Teams {
		team, ok := teamsByName[strings.ToLower(strings.TrimSpace(t.Name))]
		if !ok {
			team, err = store.CreateTeam(ctx, repository.Team{
				Name:        strings.TrimSpace(t.Name),
				Description: strings.TrimSpace(t.Description),
				CreatedAt:   now,
				UpdatedAt:   now,
			})
			if err != nil {
				return res, fmt.Errorf("seed team %s: %w", t.Name, err)
			}
			res.Teams++
		}
		for _, email := range t.Members {
			err := store.AddMember(ctx, team.ID, byEmail[strings.ToLower(email)], now)
			if err != nil && !errors.Is(err, repository.ErrDuplicateMember) {
				return res, fmt.Errorf("seed member %s of %s: %w", email, t.Name, err)
			}
			res.Members++
		}
	}
	return res, nil
}
