package session

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"tool_inventory/inventory"

	"golang.org/x/crypto/bcrypt"
)

var ErrBadCredentials = errors.New("invalid username or password")

type Account struct {
	Username string
	Role     inventory.Role
	hash     []byte
}

// Directory is the fixed set of accounts allowed to log in.
type Directory struct {
	accounts map[string]Account
	// compared against for unknown users so both paths cost a bcrypt check
	dummy []byte
}

// ParseDirectory reads "user:role:bcrypt-hash" entries separated by commas.
func ParseDirectory(spec string) (*Directory, error) {
	dummy, err := bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	d := &Directory{accounts: map[string]Account{}, dummy: dummy}
	for _, entry := range strings.Split(spec, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.SplitN(entry, ":", 3)
		if len(parts) != 3 {
			return nil, fmt.Errorf("account entry %q: want user:role:hash", entry)
		}
		name := strings.ToLower(strings.TrimSpace(parts[0]))
		role, err := inventory.ParseRole(parts[1])
		if err != nil {
			return nil, fmt.Errorf("account %q: %w", name, err)
		}
		hash := []byte(strings.TrimSpace(parts[2]))
		if _, err := bcrypt.Cost(hash); err != nil {
			return nil, fmt.Errorf("account %q: %w", name, err)
		}
		if name == "" {
			return nil, fmt.Errorf("account entry %q: empty user", entry)
		}
		if _, dup := d.accounts[name]; dup {
			return nil, fmt.Errorf("account %q listed twice", name)
		}
		d.accounts[name] = Account{Username: name, Role: role, hash: hash}
	}
	return d, nil
}

// Add registers an account with a plain password. Used for seeding and tests.
func (d *Directory) Add(username, password string, role inventory.Role) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	name := strings.ToLower(strings.TrimSpace(username))
	d.accounts[name] = Account{Username: name, Role: role, hash: hash}
	return nil
}

func (d *Directory) Authenticate(username, password string) (Account, error) {
	acc, ok := d.accounts[strings.ToLower(strings.TrimSpace(username))]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(d.dummy, []byte(password))
		return Account{}, ErrBadCredentials
	}
	if err := bcrypt.CompareHashAndPassword(acc.hash, []byte(password)); err != nil {
		return Account{}, ErrBadCredentials
	}
	return acc, nil
}

func (d *Directory) Len() int { return len(d.accounts) }

func (d *Directory) Admins() []string {
	var out []string
	for name, acc := range d.accounts {
		if acc.Role == inventory.RoleAdmin {
			out = append(out, name)
		}
	}
	sort.Strings(out)
	return out
}
