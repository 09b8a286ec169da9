package mongoengine

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AntonStoeckl/library-ledger-go/ledger"
)

const (
	opCreateUser     = "create_user"
	opGetUser        = "get_user"
	opGetUserByEmail = "get_user_by_email"
	opListUsers      = "list_users"
	opUpdateUser     = "update_user"
	opDeleteUser     = "delete_user"
)

// CreateUser fails with ErrDuplicateEmail.
func (s Store) CreateUser(ctx context.Context, user ledger.User) (ledger.User, error) {
	obs, ctx := s.start(ctx, opCreateUser, map[string]string{attrUserID: user.ID.String()})
	user.CreatedAt = storedTime(user.CreatedAt)

	err := user.Validate()
	if err == nil {
		start := time.Now()
		_, err = s.users().InsertOne(ctx, newUserDocument(user))
		s.logCommand(ctx, opCreateUser, "insert "+s.usersCollectionName, start)
		err = s.classify(ctx, err)
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

	user, err := s.findUser(ctx, s.readCollection(ctx, s.usersCollectionName), opGetUser, bson.M{fieldID: id.String()})
	obs.Finish(err, logAttrUserID, id.String())

	return user, err
}

// GetUserByEmail expects a normalized email and fails with ErrUserNotFound.
func (s Store) GetUserByEmail(ctx context.Context, email string) (ledger.User, error) {
	obs, ctx := s.start(ctx, opGetUserByEmail, nil)

	user, err := s.findUser(ctx, s.users(), opGetUserByEmail, bson.M{fieldEmail: email})
	obs.Finish(err)

	return user, err
}

func (s Store) findUser(ctx context.Context, users *mongo.Collection, action string, filter bson.M) (ledger.User, error) {
	var document userDocument

	start := time.Now()
	err := users.FindOne(ctx, filter).Decode(&document)
	s.logCommand(ctx, action, "findOne "+s.usersCollectionName, start)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return ledger.User{}, ledger.ErrUserNotFound
	}

	if err != nil {
		return ledger.User{}, s.classify(ctx, err)
	}

	return document.toUser()
}

// ListUsers returns all users, newest first.
func (s Store) ListUsers(ctx context.Context) ([]ledger.User, error) {
	obs, ctx := s.start(ctx, opListUsers, nil)

	users, err := s.listUsers(ctx)
	obs.Finish(err, logAttrCount, len(users))

	return users, err
}

func (s Store) listUsers(ctx context.Context) ([]ledger.User, error) {
	start := time.Now()
	cursor, err := s.readCollection(ctx, s.usersCollectionName).
		Find(ctx, bson.M{}, options.Find().SetSort(newestFirst(fieldCreatedAt)))
	s.logCommand(ctx, opListUsers, "find "+s.usersCollectionName, start)

	if err != nil {
		return nil, s.classify(ctx, err)
	}

	documents, err := decodeAll[userDocument](ctx, s, cursor)
	if err != nil {
		return nil, err
	}

	users := make([]ledger.User, 0, len(documents))

	for _, document := range documents {
		user, convErr := document.toUser()
		if convErr != nil {
			return nil, convErr
		}

		users = append(users, user)
	}

	return users, nil
}

// UpdateUser fails with ErrUserNotFound or ErrDuplicateEmail.
func (s Store) UpdateUser(ctx context.Context, id uuid.UUID, update ledger.UserUpdate) (ledger.User, error) {
	obs, ctx := s.start(ctx, opUpdateUser, map[string]string{attrUserID: id.String()})

	user, err := s.updateUser(ctx, id, update.Normalize())
	obs.Finish(err, logAttrUserID, id.String())

	if err != nil {
		return ledger.User{}, err
	}

	return user, nil
}

func (s Store) updateUser(ctx context.Context, id uuid.UUID, update ledger.UserUpdate) (ledger.User, error) {
	if err := update.Validate(); err != nil {
		return ledger.User{}, err
	}

	if update.IsEmpty() {
		return s.findUser(ctx, s.users(), opUpdateUser, bson.M{fieldID: id.String()})
	}

	set := bson.M{}

	if update.Name != nil {
		set[fieldName] = *update.Name
	}
	if update.Email != nil {
		set[fieldEmail] = *update.Email
	}
	if update.Role != nil {
		set[fieldRole] = string(*update.Role)
	}
	if update.PasswordHash != nil {
		set[fieldPasswordHash] = *update.PasswordHash
	}

	var document userDocument

	start := time.Now()
	err := s.users().FindOneAndUpdate(
		ctx,
		bson.M{fieldID: id.String()},
		bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&document)
	s.logCommand(ctx, opUpdateUser, "findAndModify "+s.usersCollectionName, start)

	if errors.Is(err, mongo.ErrNoDocuments) {
		return ledger.User{}, ledger.ErrUserNotFound
	}

	if err != nil {
		return ledger.User{}, s.classify(ctx, err)
	}

	return document.toUser()
}

// DeleteUser removes a User that has no active borrowings.
// BorrowBook stamps the user document, so a concurrent borrow and delete conflict and one of them retries.
func (s Store) DeleteUser(ctx context.Context, id uuid.UUID) error {
	obs, ctx := s.start(ctx, opDeleteUser, map[string]string{attrUserID: id.String()})

	err := s.inTx(ctx, func(sc mongo.SessionContext) error {
		if _, getErr := s.findUser(sc, s.users(), opDeleteUser, bson.M{fieldID: id.String()}); getErr != nil {
			return getErr
		}

		active, countErr := s.countActiveBorrowings(sc, opDeleteUser, bson.M{fieldUserID: id.String()})
		if countErr != nil {
			return countErr
		}

		if active > 0 {
			return ledger.ErrUserHasActiveBorrowings
		}

		start := time.Now()
		_, deleteErr := s.users().DeleteOne(sc, bson.M{fieldID: id.String()})
		s.logCommand(sc, opDeleteUser, "delete "+s.usersCollectionName, start)

		return s.classify(sc, deleteErr)
	})

	obs.Finish(err, logAttrUserID, id.String())

	return err
}
