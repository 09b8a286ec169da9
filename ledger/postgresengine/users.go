package postgresengine

import (
	"context"
	"errors"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
	"github.com/AntonStoeckl/library-ledger-go/ledger/postgresengine/internal/adapters"
)

const (
	opCreateUser     = "create_user"
	opGetUser        = "get_user"
	opGetUserByEmail = "get_user_by_email"
	opListUsers      = "list_users"
	opUpdateUser     = "update_user"
	opDeleteUser     = "delete_user"
)

func userColumns() []any {
	return []any{
		goqu.C(colID), goqu.C(colName), goqu.C(colEmail), goqu.C(colPasswordHash), goqu.C(colRole), goqu.C(colCreatedAt),
	}
}

func scanUser(rows adapters.DBRows) (ledger.User, error) {
	var user ledger.User
	var id, role string

	if err := rows.Scan(&id, &user.Name, &user.Email, &user.PasswordHash, &role, &user.CreatedAt); err != nil {
		return ledger.User{}, errors.Join(ErrScanningDBRowFailed, err)
	}

	parsed, err := parseID(id)
	if err != nil {
		return ledger.User{}, err
	}

	user.ID = parsed
	user.Role = ledger.Role(role)
	user.CreatedAt = user.CreatedAt.UTC()

	return user, nil
}

// CreateUser fails with ErrDuplicateEmail.
func (s Store) CreateUser(ctx context.Context, user ledger.User) (ledger.User, error) {
	obs, ctx := s.start(ctx, opCreateUser, map[string]string{attrUserID: user.ID.String()})

	err := user.Validate()
	if err == nil {
		stmt := builder().Insert(s.usersTableName).Rows(goqu.Record{
			colID:           user.ID.String(),
			colName:         user.Name,
			colEmail:        user.Email,
			colPasswordHash: user.PasswordHash,
			colRole:         string(user.Role),
			colCreatedAt:    user.CreatedAt,
		})

		_, err = s.exec(ctx, s.db, opCreateUser, stmt)
	}

	obs.Finish(err, logAttrUserID, user.ID.String())

	if err != nil {
		return ledger.User{}, err
	}

	return user, nil
}

// GetUser fails with ErrUserNotFound.
func (s Store) GetUser(ctx context.Context, id uuid.UUID) (ledger.User, error) {
	obs, ctx := s.start(ctx, opGetUser, map[string]string{attrUserID: id.String()})

	user, err := s.getUserWhere(ctx, opGetUser, goqu.C(colID).Eq(id.String()))
	obs.Finish(err, logAttrUserID, id.String())

	return user, err
}

// GetUserByEmail expects a normalized email and fails with ErrUserNotFound.
func (s Store) GetUserByEmail(ctx context.Context, email string) (ledger.User, error) {
	obs, ctx := s.start(ctx, opGetUserByEmail, nil)

	user, err := s.getUserWhere(ctx, opGetUserByEmail, goqu.C(colEmail).Eq(email))
	obs.Finish(err)

	return user, err
}

func (s Store) getUserWhere(ctx context.Context, action string, condition goqu.Expression) (ledger.User, error) {
	stmt := builder().From(s.usersTableName).Select(userColumns()...).Where(condition)

	user, found, err := queryOne(ctx, s, s.db, action, stmt, scanUser)
	if err != nil {
		return ledger.User{}, err
	}

	if !found {
		return ledger.User{}, ledger.ErrUserNotFound
	}

	return user, nil
}

// ListUsers returns all users, newest first.
func (s Store) ListUsers(ctx context.Context) ([]ledger.User, error) {
	obs, ctx := s.start(ctx, opListUsers, nil)

	stmt := builder().From(s.usersTableName).
		Select(userColumns()...).
		Order(goqu.C(colCreatedAt).Desc(), goqu.C(colID).Desc())

	users, err := queryAll(ctx, s, s.db, opListUsers, stmt, scanUser)
	obs.Finish(err, logAttrCount, len(users))

	return users, err
}

// UpdateUser fails with ErrUserNotFound or ErrDuplicateEmail.
func (s Store) UpdateUser(ctx context.Context, id uuid.UUID, update ledger.UserUpdate) (ledger.User, error) {
	obs, ctx := s.start(ctx, opUpdateUser, map[string]string{attrUserID: id.String()})

	user, err := s.updateUser(ctx, id, update.Normalize())
	obs.Finish(err, logAttrUserID, id.String())

	return user, err
}

func (s Store) updateUser(ctx context.Context, id uuid.UUID, update ledger.UserUpdate) (ledger.User, error) {
	if err := update.Validate(); err != nil {
		return ledger.User{}, err
	}

	if update.IsEmpty() {
		return s.getUserWhere(ctx, opUpdateUser, goqu.C(colID).Eq(id.String()))
	}

	record := goqu.Record{}

	if update.Name != nil {
		record[colName] = *update.Name
	}
	if update.Email != nil {
		record[colEmail] = *update.Email
	}
	if update.Role != nil {
		record[colRole] = string(*update.Role)
	}
	if update.PasswordHash != nil {
		record[colPasswordHash] = *update.PasswordHash
	}

	stmt := builder().Update(s.usersTableName).
		Set(record).
		Where(goqu.C(colID).Eq(id.String())).
		Returning(userColumns()...)

	user, found, err := queryOne(ctx, s, s.db, opUpdateUser, stmt, scanUser)
	if err != nil {
		return ledger.User{}, err
	}

	if !found {
		return ledger.User{}, ledger.ErrUserNotFound
	}

	return user, nil
}

// DeleteUser removes a User without active borrowings.
// The row lock conflicts with the share lock BorrowBook takes on the same row.
func (s Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	obs, ctx := s.start(ctx, opDeleteUser, map[string]string{attrUserID: id.String()})

	err := s.inTx(ctx, func(tx adapters.DBTx) error {
		lockStmt := builder().From(s.usersTableName).
			Select(goqu.C(colID)).
			Where(goqu.C(colID).Eq(id.String())).
			ForUpdate(goqu.Wait)

		_, found, lockErr := queryOne(ctx, s, tx, opDeleteUser, lockStmt, scanID)
		if lockErr != nil {
			return lockErr
		}

		if !found {
			return ledger.ErrUserNotFound
		}

		active, countErr := s.countActiveBorrowings(ctx, tx, colUserID, id)
		if countErr != nil {
			return countErr
		}

		if active > 0 {
			return ledger.ErrUserHasActiveBorrowings
		}

		deleteStmt := builder().Delete(s.usersTableName).Where(goqu.C(colID).Eq(id.String()))
		_, deleteErr := s.exec(ctx, tx, opDeleteUser, deleteStmt)

		return deleteErr
	})

	obs.Finish(err, logAttrUserID, id.String())

	return err
}
