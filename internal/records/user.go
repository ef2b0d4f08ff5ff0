package records

import (
	"time"

	"github.com/JonMunkholm/xlimport/internal/core"
	"github.com/jackc/pgx/v5/pgtype"
)

// User is imported from sheets laid out as username | age | birthday.
type User struct {
	Username string    `xlsx:"0" json:"username"`
	Age      int       `xlsx:"1" json:"age"`
	Birthday time.Time `xlsx:"2" json:"birthday"`
}

// SetAgeImport sets Age from a positive integer cell.
func (u *User) SetAgeImport(s string) error {
	n, err := core.ParsePositiveInt("age", s)
	if err != nil {
		return err
	}
	u.Age = n
	return nil
}

// SetBirthdayImport sets Birthday from a yyyy-mm-dd cell.
func (u *User) SetBirthdayImport(s string) error {
	t, err := core.ParseDate("birthday", s, "2006-01-02")
	if err != nil {
		return err
	}
	u.Birthday = t
	return nil
}

const usersDDL = `CREATE TABLE IF NOT EXISTS imported_users (
	id         BIGSERIAL PRIMARY KEY,
	username   TEXT NOT NULL,
	age        INTEGER,
	birthday   DATE,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// UserType returns the "user" record type. It panics if the User tags are
// malformed, which can only happen through a code change.
func UserType() core.RecordType {
	schema, err := core.TaggedSchema[User]()
	if err != nil {
		panic(err)
	}
	return core.Define[User]("user", "Users", schema, &core.CopySpec[User]{
		Table:   "imported_users",
		Columns: []string{"username", "age", "birthday"},
		Row: func(u User) []any {
			return []any{
				u.Username,
				pgtype.Int4{Int32: int32(u.Age), Valid: u.Age > 0},
				pgtype.Date{Time: u.Birthday, Valid: !u.Birthday.IsZero()},
			}
		},
		DDL: usersDDL,
	})
}
