package repositories

import (
	"context"
	"fmt"
	"github.com/mattn/go-sqlite3"
	"github.com/myrjola/lettergen/internal/auth"
	"github.com/myrjola/lettergen/internal/errors"
	"github.com/myrjola/lettergen/internal/models"
	"github.com/myrjola/lettergen/internal/sqlite"
	"log/slog"
	"slices"
	"strings"
)

// ProtectedUsername is the system account that cannot be deleted.
const ProtectedUsername = "admin"

var (
	ErrProtectedAccount   = errors.NewSentinel("account is protected")
	ErrInvalidCredentials = errors.NewSentinel("invalid username or password")
	ErrUsernameTaken      = errors.NewSentinel("username already exists")
	ErrUnknownField       = errors.NewSentinel("unknown officer field")
)

// FilterFields are the officer columns that [OfficerRepository.Filter] searches.
var FilterFields = []string{"username", "name", "designation", "phone", "email"}

const officerColumns = "id, username, password_hash, name, designation, phone, email, address, created"

type OfficerRepository struct {
	db     *sqlite.Database
	logger *slog.Logger
}

func NewOfficerRepository(db *sqlite.Database, logger *slog.Logger) *OfficerRepository {
	return &OfficerRepository{
		db:     db,
		logger: logger.With("source", "OfficerRepository"),
	}
}

// Create stores a new officer with a hashed password and returns the id.
func (r *OfficerRepository) Create(
	ctx context.Context,
	username string,
	password string,
	profile models.OfficerProfile,
) (int64, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(profile.Name) == "" {
		return 0, errors.New("username and name are required")
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return 0, err
	}
	result, err := r.db.ReadWrite.ExecContext(ctx, `INSERT INTO officers
    (username, password_hash, name, designation, phone, email, address)
VALUES (?, ?, ?, ?, ?, ?, ?)`,
		username, hash, profile.Name, profile.Designation, profile.Phone, profile.Email, profile.Address)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique {
			return 0, errors.Wrap(ErrUsernameTaken, "insert officer", slog.String("username", username))
		}
		return 0, wrap(err, "insert officer", slog.String("username", username))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, wrap(err, "read officer id")
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "created officer", slog.String("username", username))
	return id, nil
}

func (r *OfficerRepository) Get(ctx context.Context, id int64) (models.Officer, error) {
	var officer models.Officer
	if err := r.db.ReadOnly.GetContext(ctx, &officer,
		"SELECT "+officerColumns+" FROM officers WHERE id = ?", id); err != nil {
		return models.Officer{}, wrap(err, "get officer", slog.Int64("officer_id", id))
	}
	return officer, nil
}

func (r *OfficerRepository) GetByUsername(ctx context.Context, username string) (models.Officer, error) {
	var officer models.Officer
	if err := r.db.ReadOnly.GetContext(ctx, &officer,
		"SELECT "+officerColumns+" FROM officers WHERE username = ?", username); err != nil {
		return models.Officer{}, wrap(err, "get officer by username", slog.String("username", username))
	}
	return officer, nil
}

// List returns every officer ordered by username.
func (r *OfficerRepository) List(ctx context.Context) ([]models.Officer, error) {
	var officers []models.Officer
	if err := r.db.ReadOnly.SelectContext(ctx, &officers,
		"SELECT "+officerColumns+" FROM officers ORDER BY username"); err != nil {
		return nil, wrap(err, "list officers")
	}
	return officers, nil
}

// Filter returns officers whose field contains needle, ignoring case. The field must be one of FilterFields.
func (r *OfficerRepository) Filter(ctx context.Context, field string, needle string) ([]models.Officer, error) {
	field = strings.ToLower(strings.TrimSpace(field))
	if !slices.Contains(FilterFields, field) {
		return nil, errors.Wrap(ErrUnknownField, "filter officers", slog.String("field", field))
	}

	var officers []models.Officer
	query := fmt.Sprintf(`SELECT %s FROM officers WHERE LOWER(%s) LIKE '%%' || LOWER(?) || '%%' ORDER BY username`,
		officerColumns, field)
	if err := r.db.ReadOnly.SelectContext(ctx, &officers, query, needle); err != nil {
		return nil, wrap(err, "filter officers", slog.String("field", field))
	}
	return officers, nil
}

// UpdateProfile replaces the editable details of an officer.
func (r *OfficerRepository) UpdateProfile(ctx context.Context, id int64, profile models.OfficerProfile) error {
	result, err := r.db.ReadWrite.ExecContext(ctx, `UPDATE officers
SET name = ?, designation = ?, phone = ?, email = ?, address = ?
WHERE id = ?`, profile.Name, profile.Designation, profile.Phone, profile.Email, profile.Address, id)
	if err != nil {
		return wrap(err, "update officer", slog.Int64("officer_id", id))
	}
	return requireAffected(result, "update officer", slog.Int64("officer_id", id))
}

// SetPassword replaces the password of the officer after validating it against its confirmation.
func (r *OfficerRepository) SetPassword(ctx context.Context, id int64, password string, confirmation string) error {
	if err := auth.ValidateNewPassword(password, confirmation); err != nil {
		return errors.Wrap(err, "validate password", slog.Int64("officer_id", id))
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return err
	}
	result, err := r.db.ReadWrite.ExecContext(ctx, "UPDATE officers SET password_hash = ? WHERE id = ?", hash, id)
	if err != nil {
		return wrap(err, "update password", slog.Int64("officer_id", id))
	}
	return requireAffected(result, "update password", slog.Int64("officer_id", id))
}

// Delete removes an officer. The ProtectedUsername account is refused with ErrProtectedAccount.
func (r *OfficerRepository) Delete(ctx context.Context, id int64) error {
	officer, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if officer.Username == ProtectedUsername {
		return errors.Wrap(ErrProtectedAccount, "delete officer", slog.String("username", officer.Username))
	}
	result, err := r.db.ReadWrite.ExecContext(ctx, "DELETE FROM officers WHERE id = ? AND username <> ?",
		id, ProtectedUsername)
	if err != nil {
		return wrap(err, "delete officer", slog.Int64("officer_id", id))
	}
	if err = requireAffected(result, "delete officer", slog.Int64("officer_id", id)); err != nil {
		return err
	}
	r.logger.LogAttrs(ctx, slog.LevelInfo, "deleted officer", slog.String("username", officer.Username))
	return nil
}

// Authenticate returns the officer when username and password match. Unknown users and wrong passwords both yield
// ErrInvalidCredentials.
func (r *OfficerRepository) Authenticate(ctx context.Context, username string, password string) (models.Officer, error) {
	officer, err := r.GetByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, ErrNotFound) {
		return models.Officer{}, errors.Wrap(ErrInvalidCredentials, "authenticate")
	}
	if err != nil {
		return models.Officer{}, err
	}
	if err = auth.CheckPassword(officer.PasswordHash, password); err != nil {
		r.logger.LogAttrs(ctx, slog.LevelWarn, "failed login", slog.String("username", officer.Username))
		return models.Officer{}, errors.Wrap(ErrInvalidCredentials, "authenticate")
	}
	return officer, nil
}

type rowsAffecter interface {
	RowsAffected() (int64, error)
}

func requireAffected(result rowsAffecter, msg string, attrs ...slog.Attr) error {
	n, err := result.RowsAffected()
	if err != nil {
		return wrap(err, msg, attrs...)
	}
	if n == 0 {
		return errors.Wrap(ErrNotFound, msg, attrs...)
	}
	return nil
}
