package accounts

// User represents a system user.
type User struct {
	ID    int64
	Name  string
	Email string
}

// Repository is the interface for user storage backends.
type Repository interface {
	FindByID(id int64) (*User, error)
	Save(user *User) error
}

func newUser(name, email string) *User {
	return &User{Name: name, Email: email}
}
