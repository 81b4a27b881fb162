package services

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"barangay-registry/internal/domain/codec"
	"barangay-registry/internal/domain/keys"
	"barangay-registry/internal/domain/models"
	"barangay-registry/internal/error/apperr"
	"barangay-registry/internal/error/code"
	"barangay-registry/internal/infrastructure/kv"
	"barangay-registry/pkg/logger"
	"barangay-registry/utils"
)

// Seeded administrator account
const (
	AdminUsername = "admin"
	AdminFullName = "System Administrator"
)

// InterfaceUserService defines the user account service
type InterfaceUserService interface {
	CreateUser(ctx context.Context, in models.UserInput) (string, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserForAuth(ctx context.Context, username string) (*models.UserCredentials, error)
	Authenticate(ctx context.Context, username, password string) (*models.Principal, error)
	UpdateUser(ctx context.Context, id string, patch models.UserPatch) (*models.User, error)
	DeleteUser(ctx context.Context, id string) error
	GetAllUsers(ctx context.Context, q models.PaginationQuery) (models.PaginationResult[models.User], error)
	EnsureAdmin(ctx context.Context, password, email string) (bool, error)
}

// UserService stores accounts behind unique username and email pointers
type UserService struct {
	Store kv.Client
	Index InterfaceIndexService
	opts  Options
}

// NewUserService creates a user service
func NewUserService(store kv.Client, opts Options) InterfaceUserService {
	opts = opts.withDefaults()
	return &UserService{
		Store: store,
		Index: NewIndexService(opts),
		opts:  opts,
	}
}

// 1 CreateUser claims the username and email and stores the hashed credentials.
// Nothing is written when either pointer is already claimed.
func (s *UserService) CreateUser(ctx context.Context, in models.UserInput) (id string, err error) {
	start := time.Now()
	defer func() { observe(entityUser, "create", id, start, err) }()

	if err := validateStruct(entityUser, &in); err != nil {
		return "", err
	}
	if in.Role == "" {
		in.Role = models.RoleEditor
	}
	hash, salt, err := utils.HashPassword(s.opts.PasswordScheme, in.Password)
	if err != nil {
		return "", err
	}

	u := &models.UserCredentials{
		User: models.User{
			Username: in.Username,
			Email:    in.Email,
			FullName: in.FullName,
			Role:     in.Role,
		},
		PasswordHash: hash,
		PasswordSalt: salt,
	}
	u.ID = in.ID
	if u.ID == "" {
		u.ID = keys.NewUserID()
	}
	now := s.opts.now()
	u.CreatedAt, u.UpdatedAt = now, now

	recordKey := keys.User(u.ID)
	usernameKey, emailKey := keys.Username(u.Username), keys.Email(u.Email)
	err = s.Store.Atomic(ctx, []string{recordKey, usernameKey, emailKey}, func(ctx context.Context, r kv.Reader, b *kv.Batch) error {
		if err := checkPointerFree(ctx, r, usernameKey, "", code.ErrUsernameTaken, "username %s is already taken", u.Username); err != nil {
			return err
		}
		if err := checkPointerFree(ctx, r, emailKey, "", code.ErrEmailTaken, "email %s is already registered", u.Email); err != nil {
			return err
		}
		exists, err := r.Exists(ctx, recordKey)
		if err != nil {
			return err
		}
		if exists {
			return apperr.Conflict(code.ErrUserAlreadyExist, entityUser, u.ID, "id already in use")
		}
		b.HSet(recordKey, codec.EncodeUser(u))
		b.SAdd(keys.UserIDs, u.ID)
		s.Index.IndexUser(b, &u.User)
		return nil
	})
	if err != nil {
		return "", apperr.FromStore(entityUser, u.ID, err)
	}
	return u.ID, nil
}

// 2 GetUserByID returns the safe view, or nil when the user does not exist
func (s *UserService) GetUserByID(ctx context.Context, id string) (u *models.User, err error) {
	start := time.Now()
	defer func() { observe(entityUser, "get", id, start, err) }()

	creds, err := s.load(ctx, id)
	if err != nil || creds == nil {
		return nil, err
	}
	return &creds.User, nil
}

// 3 GetUserByUsername resolves the username pointer to the safe view
func (s *UserService) GetUserByUsername(ctx context.Context, username string) (u *models.User, err error) {
	start := time.Now()
	defer func() { observe(entityUser, "get_by_username", "", start, err) }()

	creds, err := s.loadByPointer(ctx, keys.Username(username))
	if err != nil || creds == nil {
		return nil, err
	}
	return &creds.User, nil
}

// 4 GetUserByEmail resolves the email pointer to the safe view
func (s *UserService) GetUserByEmail(ctx context.Context, email string) (u *models.User, err error) {
	start := time.Now()
	defer func() { observe(entityUser, "get_by_email", "", start, err) }()

	creds, err := s.loadByPointer(ctx, keys.Email(email))
	if err != nil || creds == nil {
		return nil, err
	}
	return &creds.User, nil
}

// 5 GetUserForAuth returns the credential-bearing record for a credential check only
func (s *UserService) GetUserForAuth(ctx context.Context, username string) (u *models.UserCredentials, err error) {
	start := time.Now()
	defer func() { observe(entityUser, "get_for_auth", "", start, err) }()

	return s.loadByPointer(ctx, keys.Username(username))
}

// 6 Authenticate verifies a password and returns the principal, or nil when
// the username is unknown or the password does not match. A match records lastLogin.
func (s *UserService) Authenticate(ctx context.Context, username, password string) (p *models.Principal, err error) {
	start := time.Now()
	defer func() { observe(entityUser, "authenticate", "", start, err) }()

	creds, err := s.loadByPointer(ctx, keys.Username(username))
	if err != nil {
		return nil, err
	}
	if creds == nil || !utils.CheckPasswordHash(password, creds.PasswordHash, creds.PasswordSalt) {
		logger.L().Info("authentication rejected", slog.String("username", username))
		return nil, nil
	}

	recordKey := keys.User(creds.ID)
	loginAt := s.opts.now()
	stillExists := false
	err = s.Store.Atomic(ctx, []string{recordKey}, func(ctx context.Context, r kv.Reader, b *kv.Batch) error {
		ok, err := r.Exists(ctx, recordKey)
		if err != nil || !ok {
			return err
		}
		stillExists = true
		b.HSet(recordKey, map[string]string{"lastLogin": codec.FormatTime(loginAt)})
		return nil
	})
	if err != nil {
		return nil, apperr.FromStore(entityUser, creds.ID, err)
	}
	if !stillExists {
		return nil, nil
	}

	return &models.Principal{
		ID:       creds.ID,
		Username: creds.Username,
		FullName: creds.FullName,
		Role:     creds.Role,
	}, nil
}

// 7 UpdateUser merges patch, moving the username and email pointers that changed.
// A new password is hashed with a fresh salt.
func (s *UserService) UpdateUser(ctx context.Context, id string, patch models.UserPatch) (updated *models.User, err error) {
	start := time.Now()
	defer func() { observe(entityUser, "update", id, start, err) }()

	if err := validateStruct(entityUser, &patch); err != nil {
		return nil, err
	}
	var hash, salt string
	if patch.Password != nil {
		if hash, salt, err = utils.HashPassword(s.opts.PasswordScheme, *patch.Password); err != nil {
			return nil, err
		}
	}

	recordKey := keys.User(id)
	watch := []string{recordKey}
	if patch.Username != nil {
		watch = append(watch, keys.Username(*patch.Username))
	}
	if patch.Email != nil {
		watch = append(watch, keys.Email(*patch.Email))
	}
	err = s.Store.Atomic(ctx, watch, func(ctx context.Context, r kv.Reader, b *kv.Batch) error {
		m, err := r.HGetAll(ctx, recordKey)
		if err != nil {
			return err
		}
		before := codec.DecodeUser(m)
		if before == nil {
			return apperr.NotFound(code.ErrUserNotFound, entityUser, id)
		}

		after := *before
		if patch.Username != nil {
			after.Username = *patch.Username
		}
		if patch.Email != nil {
			after.Email = *patch.Email
		}
		if patch.FullName != nil {
			after.FullName = *patch.FullName
		}
		if patch.Role != nil {
			after.Role = *patch.Role
		}
		if patch.Password != nil {
			after.PasswordHash, after.PasswordSalt = hash, salt
		}
		after.UpdatedAt = s.opts.now()

		if after.Username != before.Username {
			if err := checkPointerFree(ctx, r, keys.Username(after.Username), id, code.ErrUsernameTaken, "username %s is already taken", after.Username); err != nil {
				return err
			}
		}
		if after.Email != before.Email {
			if err := checkPointerFree(ctx, r, keys.Email(after.Email), id, code.ErrEmailTaken, "email %s is already registered", after.Email); err != nil {
				return err
			}
		}

		b.HSet(recordKey, codec.EncodeUser(&after))
		s.Index.ReindexUser(b, &before.User, &after.User)
		updated = &after.User
		return nil
	})
	if err != nil {
		return nil, apperr.FromStore(entityUser, id, err)
	}
	return updated, nil
}

// 8 DeleteUser removes the account and releases its pointers
func (s *UserService) DeleteUser(ctx context.Context, id string) (err error) {
	start := time.Now()
	defer func() { observe(entityUser, "delete", id, start, err) }()

	recordKey := keys.User(id)
	err = s.Store.Atomic(ctx, []string{recordKey}, func(ctx context.Context, r kv.Reader, b *kv.Batch) error {
		m, err := r.HGetAll(ctx, recordKey)
		if err != nil {
			return err
		}
		before := codec.DecodeUser(m)
		if before == nil {
			return apperr.NotFound(code.ErrUserNotFound, entityUser, id)
		}
		s.Index.UnindexUser(b, &before.User)
		b.SRem(keys.UserIDs, id)
		b.Del(recordKey)
		return nil
	})
	return apperr.FromStore(entityUser, id, err)
}

// 9 GetAllUsers returns one page of safe views ordered by id
func (s *UserService) GetAllUsers(ctx context.Context, q models.PaginationQuery) (page models.PaginationResult[models.User], err error) {
	start := time.Now()
	defer func() { observe(entityUser, "list", "", start, err) }()

	q = q.Normalize()
	ids, err := sortedMembers(ctx, s.Store, keys.UserIDs)
	if err != nil {
		return page, apperr.FromStore(entityUser, "", err)
	}
	items, err := loadUsers(ctx, s.Store, pageIDs(ids, q))
	if err != nil {
		return page, apperr.FromStore(entityUser, "", err)
	}
	return models.NewPaginationResult(items, len(ids), q), nil
}

// 10 EnsureAdmin seeds the admin account when the admin username is unclaimed.
// It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, password, email string) (created bool, err error) {
	start := time.Now()
	defer func() { observe(entityUser, "ensure_admin", "", start, err) }()

	_, claimed, err := s.Store.Get(ctx, keys.Username(AdminUsername))
	if err != nil {
		return false, apperr.FromStore(entityUser, "", err)
	}
	if claimed {
		return false, nil
	}
	if strings.TrimSpace(password) == "" {
		return false, apperr.Validation(entityUser, []string{"password"}, "an admin password is required to seed the admin account")
	}

	id, err := s.CreateUser(ctx, models.UserInput{
		Username: AdminUsername,
		Email:    email,
		Password: password,
		FullName: AdminFullName,
		Role:     models.RoleAdmin,
	})
	var appErr *apperr.Error
	if errors.As(err, &appErr) && appErr.Code == code.ErrUsernameTaken {
		// seeded concurrently
		return false, nil
	}
	if err != nil {
		return false, err
	}
	logger.L().Info("admin user initialized", slog.String("id", id))
	return true, nil
}

func (s *UserService) load(ctx context.Context, id string) (*models.UserCredentials, error) {
	m, err := s.Store.HGetAll(ctx, keys.User(id))
	if err != nil {
		return nil, apperr.FromStore(entityUser, id, err)
	}
	return codec.DecodeUser(m), nil
}

func (s *UserService) loadByPointer(ctx context.Context, pointerKey string) (*models.UserCredentials, error) {
	id, ok, err := s.Store.Get(ctx, pointerKey)
	if err != nil {
		return nil, apperr.FromStore(entityUser, "", err)
	}
	if !ok {
		return nil, nil
	}
	return s.load(ctx, id)
}

// checkPointerFree fails with a Conflict when pointerKey is claimed by anyone but owner
func checkPointerFree(ctx context.Context, r kv.Reader, pointerKey, owner string, c int, format string, args ...any) error {
	holder, claimed, err := r.Get(ctx, pointerKey)
	if err != nil {
		return err
	}
	if claimed && holder != owner {
		return apperr.Conflict(c, entityUser, holder, format, args...)
	}
	return nil
}
