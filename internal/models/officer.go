package models

// Officer is an account that signs notices.
type Officer struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash []byte `db:"password_hash"`
	Name         string `db:"name"`
	Designation  string `db:"designation"`
	Phone        string `db:"phone"`
	Email        string `db:"email"`
	Address      string `db:"address"`
	Created      string `db:"created"`
}

// OfficerProfile holds the editable details of an officer.
type OfficerProfile struct {
	Name        string `db:"name"`
	Designation string `db:"designation"`
	Phone       string `db:"phone"`
	Email       string `db:"email"`
	Address     string `db:"address"`
}

func (o Officer) Profile() OfficerProfile {
	return OfficerProfile{
		Name:        o.Name,
		Designation: o.Designation,
		Phone:       o.Phone,
		Email:       o.Email,
		Address:     o.Address,
	}
}
