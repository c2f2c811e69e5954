package schema

// UserAccountTable represents the 'users.account' table
type UserAccountTable struct {
	Table            string
	ID               string
	Username         string
	Email            string
	FullName         string
	AvatarURL        string
	CoverImageURL    string
	PasswordHash     string
	RefreshTokenHash string
	CreatedAt        string
	UpdatedAt        string
}

// UserAccount is the schema definition for users.account
var UserAccount = UserAccountTable{
	Table:            "users.account",
	ID:               "id",
	Username:         "username",
	Email:            "email",
	FullName:         "fullname",
	AvatarURL:        "avatarurl",
	CoverImageURL:    "coverimageurl",
	PasswordHash:     "passwordhash",
	RefreshTokenHash: "refreshtokenhash",
	CreatedAt:        "createdat",
	UpdatedAt:        "updatedat",
}

// Columns returns all standard column names
func (t UserAccountTable) Columns() []string {
	return []string{
		t.ID, t.Username, t.Email, t.FullName, t.AvatarURL, t.CoverImageURL,
		t.PasswordHash, t.RefreshTokenHash, t.CreatedAt, t.UpdatedAt,
	}
}
