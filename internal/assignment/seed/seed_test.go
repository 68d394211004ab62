package seed

import (
	"context"
	"strings"
	"testing"
	"time"

	"estate_crm_backend/internal/assignment/domain"
	"estate_crm_backend/internal/assignment/repository"
)

const fixtureYAML = `
users:
  - name: Asha Rao
    email: asha@estate.test
    role: Admin
  - id: 6f1c2a9e-8d4b-4f7a-9c1e-2b3d4e5f6a7b
    name: Vikram Shah
    email: vikram@estate.test
    phone: "+919800000001"
    role: sales
teams:
  - name: North
    description: Pune north listings
    members: [vikram@estate.test]
`

func TestParseAndApply(t *testing.T) {
	f, err := Parse(strings.NewReader(fixtureYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	repo := repository.NewMemory()
	res, err := Apply(context.Background(), repo, f, time.Now())
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if res.Users != 2 || res.Teams != 1 || res.Members != 1 {
		t.Fatalf("unexpected result %+v", res)
	}

	users, err := repo.ListUsers(context.Background())
	if err != nil {
		t.Fatalf("list users: %v", err)
	}
	var vikram repository.User
	for _, u := range users {
		if u.Email == "vikram@estate.test" {
			vikram = u
		}
	}
	if vikram.ID.String() != "6f1c2a9e-8d4b-4f7a-9c1e-2b3d4e5f6a7b" || vikram.Role != domain.RoleSales {
		t.Fatalf("unexpected user %+v", vikram)
	}
	teamIDs, err := repo.ListTeamIDsForUser(context.Background(), vikram.ID)
	if err != nil || len(teamIDs) != 1 {
		t.Fatalf("expected vikram in one team, got %v (%v)", teamIDs, err)
	}
}

func TestParseRejectsBadFixtures(t *testing.T) {
	cases := map[string]string{
		"unknown role":   "users:\n  - {name: A, email: a@x.test, role: Intern}\n",
		"missing email":  "users:\n  - {name: A, role: Admin}\n",
		"unknown member": "users: []\nteams:\n  - {name: T, members: [ghost@x.test]}\n",
		"unknown key":    "people: []\n",
		"bad id":         "users:\n  - {id: nope, name: A, email: a@x.test, role: Admin}\n",
	}
	for name, doc := range cases {
		if _, err := Parse(strings.NewReader(doc)); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestApplyTwiceReusesTeams(t *testing.T) {
	f, err := Parse(strings.NewReader(fixtureYAML))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	repo := repository.NewMemory()
	ctx := context.Background()
	if _, err := Apply(ctx, repo, f, time.Now()); err != nil {
		t.Fatalf("first apply: %v", err)
	}
	res, err := Apply(ctx, repo, f, time.Now())
	if err != nil {
		t.Fatalf("second apply: %v", err)
	}
	teams, _ := repo.ListTeams(ctx)
	if res.Teams != 0 || len(teams) != 1 {
		t.Fatalf("expected the team to be reused, got result %+v and %d teams", res, len(teams))
	}
}
