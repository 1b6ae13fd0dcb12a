package users

import (
	"github.com/JaimeStill/tickler/pkg/query"
	"github.com/JaimeStill/tickler/pkg/repository"
)

var projection = query.
	NewProjectionMap("public", "users", "u").
	Project("id", "ID").
	Project("email", "Email").
	Project("created_at", "CreatedAt")

var errMapping = repository.Mapping{
	NotFound:  ErrNotFound,
	Duplicate: ErrDuplicate,
}

func scanUser(s repository.Scanner) (User, error) {
	var u User
	err := s.Scan(&u.ID, &u.Email, &u.CreatedAt)
	return u, err
}
