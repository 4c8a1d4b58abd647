// Package auth holds the static account table and password helpers used at
// sign-in.
package auth

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"

	"refund-service/internal/models"
)

// Account is one row of the static account table.
type Account struct {
	Username           string `yaml:"username"`
	Password           string `yaml:"password"`
	Role               string `yaml:"role"`
	Name               string `yaml:"name"`
	BranchName         string `yaml:"branchName,omitempty"`
	MustChangePassword bool   `yaml:"mustChangePassword,omitempty"`
}

type userFile struct {
	Users []Account `yaml:"users"`
}

// UserTable is the read-only set of accounts allowed to sign in.
type UserTable struct {
	accounts map[string]Account
}

// LoadUserTable reads the YAML account table at path.
func LoadUserTable(path string) (*UserTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read user table: %w", err)
	}
	return ParseUserTable(data)
}

func ParseUserTable(data []byte) (*UserTable, error) {
	var f userFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse user table: %w", err)
	}

	t := &UserTable{accounts: make(map[string]Account, len(f.Users))}
	for i, a := range f.Users {
		if a.Username == "" || a.Password == "" {
			return nil, fmt.Errorf("user table entry %d: username and password are required", i)
		}
		switch a.Role {
		case models.RoleCommander, models.RoleStaff, models.RoleMiddleManager:
		case models.RoleBranch:
			if a.BranchName == "" {
				return nil, fmt.Errorf("user table entry %q: branch accounts need branchName", a.Username)
			}
		default:
			return nil, fmt.Errorf("user table entry %q: unknown role %q", a.Username, a.Role)
		}
		if _, dup := t.accounts[a.Username]; dup {
			return nil, fmt.Errorf("user table entry %q: duplicate username", a.Username)
		}
		t.accounts[a.Username] = a
	}
	return t, nil
}

func (t *UserTable) Find(username string) (Account, bool) {
	a, ok := t.accounts[username]
	return a, ok
}

func (t *UserTable) Len() int { return len(t.accounts) }

var branchAccountRx = regexp.MustCompile(`a\d{4}`)

// NormalizeUsername maps what people type to an account name. Anything
// containing a branch code such as "a0012" resolves to that code; otherwise
// whitespace and hyphens are dropped.
func NormalizeUsername(input string) string {
	if code := branchAccountRx.FindString(input); code != "" {
		return code
	}
	return strings.Map(func(r rune) rune {
		if r == '-' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input)
}
