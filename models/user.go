package models

// User is a registered account. Username is the key every per-user table
// hangs off.
type User struct {
	Username string `db:"username" json:"username"`
	Email    string `db:"email" json:"email"`
	Password string `db:"password" json:"-"`
}

// Identity is what a valid session resolves to.
type Identity struct {
	Username string
	Email    string
}
