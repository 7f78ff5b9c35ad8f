package application

import "strings"

type CostCenterForm struct {
	Description string `json:"description" validate:"notblank,max=150"`
	Active      *bool  `json:"active"`
}

// IsActive defaults to true when the form leaves the flag out.
func (f CostCenterForm) IsActive() bool {
	return f.Active == nil || *f.Active
}

type UserForm struct {
	Name        string   `json:"name" validate:"notblank,max=150"`
	Email       string   `json:"email" validate:"notblank,max=150,email"`
	Password    string   `json:"password" validate:"-"`
	Active      bool     `json:"active"`
	Roles       []string `json:"roles" validate:"min=1"`
	Authorities []string `json:"authorities,omitempty" validate:"-"`
}

// normalize merges the two accepted spellings of the role list, upper-cased,
// without blanks or duplicates.
func (f *UserForm) normalize() {
	if len(f.Roles) == 0 {
		f.Roles = f.Authorities
	}
	f.Authorities = nil
	f.Email = strings.ToLower(strings.TrimSpace(f.Email))
	f.Name = strings.TrimSpace(f.Name)

	seen := make(map[string]struct{}, len(f.Roles))
	roles := make([]string, 0, len(f.Roles))
	for _, r := range f.Roles {
		r = strings.ToUpper(strings.TrimSpace(r))
		if r == "" {
			continue
		}
		if _, ok := seen[r]; ok {
			continue
		}
		seen[r] = struct{}{}
		roles = append(roles, r)
	}
	f.Roles = roles
}

type PasswordForm struct {
	Password string `json:"password" validate:"notblank,bcryptmax"`
}

type AuthorityForm struct {
	Name string `json:"name" validate:"notblank,max=90"`
}

type GrantForm struct {
	Authority string `json:"authority" validate:"notblank"`
}

type Credential struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login returns the login name, accepting either spelling.
func (c Credential) Login() string {
	if strings.TrimSpace(c.Username) != "" {
		return c.Username
	}
	return c.Email
}
