package model

import (
	"database/sql"
	"errors"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// User is a field representative (shaliach) or a manager account. Login is by
// national id-document number, which is unique across the table.
type User struct {
	ID                 int64         `json:"id"`
	Name               string        `json:"name"`
	IDNumber           string        `json:"id_number"`
	Email              string        `json:"email"`
	Password           string        `json:"-"`
	Branch             string        `json:"branch"`
	SubscriptionTypeID sql.NullInt64 `json:"-"`
	IsAdmin            bool          `json:"is_admin"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

func (u *User) HashPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

func (u *User) CheckPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password))
}

func (u *User) CreateUser(db *sql.DB) error {
	now := time.Now()
	u.CreatedAt = now
	u.UpdatedAt = now

	query := `
	INSERT INTO users (name, id_number, email, password, branch, subscription_type_id, is_admin, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	var subArg interface{}
	if u.SubscriptionTypeID.Valid {
		subArg = u.SubscriptionTypeID.Int64
	}

	res, err := stmt.Exec(u.Name, u.IDNumber, u.Email, u.Password, u.Branch, subArg, u.IsAdmin, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}

const userColumns = `id, name, id_number, email, password, branch, subscription_type_id, is_admin, created_at, updated_at`

func scanUserRow(scan func(dest ...interface{}) error) (*User, error) {
	var user User
	var email, branch sql.NullString
	err := scan(
		&user.ID, &user.Name, &user.IDNumber, &email, &user.Password,
		&branch, &user.SubscriptionTypeID, &user.IsAdmin,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.Email = email.String
	user.Branch = branch.String
	return &user, nil
}

func GetUserByID(db *sql.DB, id int64) (*User, error) {
	row := db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	user, err := scanUserRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return user, nil
}

// GetUserByIDNumber is the login lookup: id-document numbers are unique.
func GetUserByIDNumber(db *sql.DB, idNumber string) (*User, error) {
	row := db.QueryRow(`SELECT `+userColumns+` FROM users WHERE id_number = ?`, idNumber)
	user, err := scanUserRow(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sql.ErrNoRows
		}
		return nil, err
	}
	return user, nil
}

func listUsers(db *sql.DB, query string) ([]User, error) {
	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		user, err := scanUserRow(rows.Scan)
		if err != nil {
			return nil, err
		}
		users = append(users, *user)
	}
	return users, rows.Err()
}

// ListUsersWithSubscription returns every representative enrolled in a plan,
// in id order. This is the working set of a billing run.
func ListUsersWithSubscription(db *sql.DB) ([]User, error) {
	return listUsers(db, `SELECT `+userColumns+` FROM users WHERE subscription_type_id IS NOT NULL ORDER BY id`)
}

// ListUsers returns all accounts in name order, for the manager views.
func ListUsers(db *sql.DB) ([]User, error) {
	return listUsers(db, `SELECT `+userColumns+` FROM users ORDER BY name`)
}

type Session struct {
	ID           int       `json:"id"`
	UserID       int64     `json:"user_id"`
	Token        string    `json:"token"`
	RefreshToken string    `json:"refresh_token"`
	UserAgent    string    `json:"user_agent"`
	ClientIP     string    `json:"client_ip"`
	IsBlocked    bool      `json:"is_blocked"`
	ExpiresAt    time.Time `json:"expires_at"`
	CreatedAt    time.Time `json:"created_at"`
}

func CreateSession(db *sql.DB, session *Session) error {
	query := `
	INSERT INTO sessions (user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	stmt, err := db.Prepare(query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	session.CreatedAt = time.Now()
	_, err = stmt.Exec(
		session.UserID,
		session.Token,
		session.RefreshToken,
		session.UserAgent,
		session.ClientIP,
		session.IsBlocked,
		session.ExpiresAt,
		session.CreatedAt,
	)
	return err
}

func GetSessionByRefreshToken(db *sql.DB, refreshToken string) (*Session, error) {
	query := `
	SELECT id, user_id, token, refresh_token, user_agent, client_ip, is_blocked, expires_at, created_at
	FROM sessions
	WHERE refresh_token = ? AND is_blocked = FALSE AND expires_at > ?`

	row := db.QueryRow(query, refreshToken, time.Now())
	var session Session
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.Token,
		&session.RefreshToken,
		&session.UserAgent,
		&session.ClientIP,
		&session.IsBlocked,
		&session.ExpiresAt,
		&session.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.New("refresh session not found, expired, or blocked")
		}
		return nil, err
	}
	return &session, nil
}

func DeleteSessionByToken(db *sql.DB, token string) error {
	_, err := db.Exec(`DELETE FROM sessions WHERE token = ?`, token)
	return err
}
