package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/eybms-go-api/internal/credential"
	"github.com/noah-isme/eybms-go-api/internal/dto"
	"github.com/noah-isme/eybms-go-api/internal/models"
	"github.com/noah-isme/eybms-go-api/internal/observability"
	"github.com/noah-isme/eybms-go-api/internal/repository"
)

// Post-login destinations.
const (
	RedirectChangePassword = "/change_password/index.html"
	RedirectConsentForm    = "/consent/index.html"
	RedirectStudentHome    = "/student/yearbooks"
	RedirectAdminHome      = "/admin/yearbooks"
	RedirectCommitteeHome  = "/committee/index.html"
)

// CredentialCipher seals and opens stored passwords.
type CredentialCipher interface {
	Encrypt(plaintext string) (credential.Sealed, error)
	EncryptWith(plaintext, keyHex, ivHex string) (string, error)
	Decrypt(ciphertextHex, keyHex, ivHex string) (string, error)
}

// LoginResult carries the authenticated account and where the browser should go next.
type LoginResult struct {
	Account     models.Account
	RedirectURL string
}

// AccountService implements account creation, login and password maintenance.
type AccountService interface {
	Create(ctx context.Context, req dto.CreateAccountRequest, actorID *uint) (dto.AccountResponse, error)
	CreateBatch(ctx context.Context, rows []dto.BatchAccountRow) (dto.BatchCreateResponse, error)
	Login(ctx context.Context, req dto.LoginRequest) (LoginResult, error)
	ChangePassword(ctx context.Context, studentNumber string, req dto.ChangePasswordRequest) error
	ResetPassword(ctx context.Context, accountID uint, actorID *uint) error
	ListByRole(ctx context.Context, role string) ([]dto.AccountResponse, error)
}

type accountService struct {
	repo      repository.AccountRepository
	cipher    CredentialCipher
	validator *validator.Validate
	activity  ActivityRecorder
	logger    zerolog.Logger
	tracer    trace.Tracer
}

// NewAccountService constructs the account workflow.
func NewAccountService(repo repository.AccountRepository, cipher CredentialCipher, validate *validator.Validate, activity ActivityRecorder, logger zerolog.Logger) AccountService {
	return &accountService{
		repo:      repo,
		cipher:    cipher,
		validator: validate,
		activity:  activity,
		logger:    logger.With().Str("component", "account_service").Logger(),
		tracer:    otel.Tracer("github.com/noah-isme/eybms-go-api/internal/service/account"),
	}
}

func (s *accountService) Create(ctx context.Context, req dto.CreateAccountRequest, actorID *uint) (dto.AccountResponse, error) {
	ctx, span := s.tracer.Start(ctx, "account.create")
	defer span.End()

	req.StudentNumber = strings.TrimSpace(req.StudentNumber)
	req.Email = strings.TrimSpace(req.Email)
	req.AccountType = strings.ToLower(strings.TrimSpace(req.AccountType))
	if err := s.validator.Struct(req); err != nil {
		audit(ctx, s.activity, actorID, ActionAccountCreateError, "invalid account details for "+req.StudentNumber)
		return dto.AccountResponse{}, err
	}
	span.SetAttributes(attribute.String("account.type", req.AccountType))

	account := models.Account{
		StudentNumber: req.StudentNumber,
		Email:         req.Email,
		AccountType:   req.AccountType,
	}

	password := req.Password
	if strings.TrimSpace(req.Birthday) != "" {
		birthday := onlyDigits(req.Birthday)
		if birthday == "" {
			audit(ctx, s.activity, actorID, ActionAccountCreateError, "invalid birthday for "+req.StudentNumber)
			return dto.AccountResponse{}, ErrInvalidBirthday
		}
		account.Birthday = birthday
		if password == "" {
			password = birthday
		}
	}

	sealed, err := s.cipher.Encrypt(password)
	if err != nil {
		audit(ctx, s.activity, actorID, ActionAccountCreateError, err.Error())
		return dto.AccountResponse{}, fmt.Errorf("seal password: %w", err)
	}
	account.EncryptedPassword = sealed.Ciphertext
	account.EncryptionKey = sealed.Key
	account.IV = sealed.IV

	if err := s.repo.Create(ctx, &account); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			audit(ctx, s.activity, actorID, ActionAccountCreateError, "duplicate student number "+account.StudentNumber)
			return dto.AccountResponse{}, ErrDuplicateAccount
		}
		audit(ctx, s.activity, actorID, ActionAccountCreateError, err.Error())
		return dto.AccountResponse{}, err
	}

	audit(ctx, s.activity, uintPtr(account.ID), ActionAccountCreated, "Account created successfully")
	return dto.NewAccountResponse(account), nil
}

// CreateBatch imports rows independently. Rows without a password or failing validation are skipped,
// duplicates are reported, and every other row is committed regardless of later failures.
func (s *accountService) CreateBatch(ctx context.Context, rows []dto.BatchAccountRow) (dto.BatchCreateResponse, error) {
	ctx, span := s.tracer.Start(ctx, "account.create_batch")
	defer span.End()
	span.SetAttributes(attribute.Int("batch.rows", len(rows)))

	result := dto.BatchCreateResponse{
		Skipped:    []dto.BatchRowIssue{},
		Duplicates: []string{},
	}

	for index, row := range rows {
		rowNumber := index + 1
		row.StudentNumber = strings.TrimSpace(row.StudentNumber)
		row.Email = strings.TrimSpace(row.Email)
		row.AccountType = strings.ToLower(strings.TrimSpace(row.AccountType))

		if row.Password == "" {
			result.Skipped = append(result.Skipped, dto.BatchRowIssue{Row: rowNumber, StudentNumber: row.StudentNumber, Reason: "missing password"})
			continue
		}
		if err := s.validator.Struct(row); err != nil {
			result.Skipped = append(result.Skipped, dto.BatchRowIssue{Row: rowNumber, StudentNumber: row.StudentNumber, Reason: "invalid row"})
			continue
		}

		sealed, err := s.cipher.Encrypt(row.Password)
		if err != nil {
			audit(ctx, s.activity, nil, ActionAccountCreateError, err.Error())
			return result, fmt.Errorf("seal password for row %d: %w", rowNumber, err)
		}

		account := models.Account{
			StudentNumber:     row.StudentNumber,
			Email:             row.Email,
			AccountType:       row.AccountType,
			EncryptedPassword: sealed.Ciphertext,
			EncryptionKey:     sealed.Key,
			IV:                sealed.IV,
		}
		if err := s.repo.Create(ctx, &account); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				result.Duplicates = append(result.Duplicates, row.StudentNumber)
				audit(ctx, s.activity, nil, ActionAccountCreateError, "duplicate student number "+row.StudentNumber)
				continue
			}
			audit(ctx, s.activity, nil, ActionAccountCreateError, err.Error())
			return result, fmt.Errorf("create row %d: %w", rowNumber, err)
		}

		result.Created++
		audit(ctx, s.activity, uintPtr(account.ID), ActionAccountCreated, "Account created successfully")
	}

	s.logger.Info().
		Int("created", result.Created).
		Int("skipped", len(result.Skipped)).
		Int("duplicates", len(result.Duplicates)).
		Msg("account batch processed")

	return result, nil
}

func (s *accountService) Login(ctx context.Context, req dto.LoginRequest) (LoginResult, error) {
	ctx, span := s.tracer.Start(ctx, "account.login")
	defer span.End()

	studentNumber := strings.TrimSpace(req.StudentNumber)
	if studentNumber == "" || req.Password == "" {
		observability.LoginAttempts().WithLabelValues("unknown_account").Inc()
		audit(ctx, s.activity, nil, ActionLoginFailed, "missing student number or password")
		return LoginResult{}, ErrInvalidCredentials
	}

	account, err := s.repo.GetByStudentNumber(ctx, studentNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.LoginAttempts().WithLabelValues("unknown_account").Inc()
			audit(ctx, s.activity, nil, ActionLoginFailed, "unknown student number")
			return LoginResult{}, ErrInvalidCredentials
		}
		observability.LoginAttempts().WithLabelValues("error").Inc()
		audit(ctx, s.activity, nil, ActionLoginError, err.Error())
		return LoginResult{}, err
	}

	actorID := uintPtr(account.ID)
	plaintext, err := s.cipher.Decrypt(account.EncryptedPassword, account.EncryptionKey, account.IV)
	if err != nil {
		observability.LoginAttempts().WithLabelValues("decrypt_failed").Inc()
		s.logger.Warn().Uint("account_id", account.ID).Msg("stored credential could not be decrypted")
		audit(ctx, s.activity, actorID, ActionLoginFailed, "credential decrypt failed")
		return LoginResult{}, ErrInvalidCredentials
	}

	if subtle.ConstantTimeCompare([]byte(plaintext), []byte(req.Password)) != 1 {
		observability.LoginAttempts().WithLabelValues("wrong_password").Inc()
		audit(ctx, s.activity, actorID, ActionLoginFailed, "incorrect password")
		return LoginResult{}, ErrInvalidCredentials
	}

	redirect, action := loginDestination(account)
	span.SetAttributes(attribute.String("account.type", account.AccountType))
	observability.LoginAttempts().WithLabelValues("success").Inc()
	audit(ctx, s.activity, actorID, action, "")

	return LoginResult{Account: account, RedirectURL: redirect}, nil
}

func loginDestination(account models.Account) (string, string) {
	switch account.AccountType {
	case models.AccountTypeAdmin:
		return RedirectAdminHome, ActionLoginAdmin
	case models.AccountTypeCommittee:
		return RedirectCommitteeHome, ActionLoginCommittee
	default:
		if !account.PasswordChanged {
			return RedirectChangePassword, ActionLoginChangePassword
		}
		if !account.ConsentFilled {
			return RedirectConsentForm, ActionLoginConsentForm
		}
		return RedirectStudentHome, ActionLoginStudent
	}
}

func (s *accountService) ChangePassword(ctx context.Context, studentNumber string, req dto.ChangePasswordRequest) error {
	ctx, span := s.tracer.Start(ctx, "account.change_password")
	defer span.End()

	studentNumber = strings.TrimSpace(studentNumber)
	if err := s.validator.Struct(req); err != nil {
		audit(ctx, s.activity, nil, ActionPasswordChangeFailed, "invalid new password for "+studentNumber)
		return err
	}

	account, err := s.repo.GetByStudentNumber(ctx, studentNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			audit(ctx, s.activity, nil, ActionPasswordChangeFailed, "student "+studentNumber+" not found")
			return ErrAccountNotFound
		}
		audit(ctx, s.activity, nil, ActionPasswordChangeFailed, err.Error())
		return err
	}
	actorID := uintPtr(account.ID)

	sealed, err := s.cipher.Encrypt(req.NewPassword)
	if err != nil {
		audit(ctx, s.activity, actorID, ActionPasswordChangeFailed, err.Error())
		return fmt.Errorf("seal password: %w", err)
	}

	account.EncryptedPassword = sealed.Ciphertext
	account.EncryptionKey = sealed.Key
	account.IV = sealed.IV
	account.PasswordChanged = true

	if err := s.repo.UpdateCredentials(ctx, &account); err != nil {
		audit(ctx, s.activity, actorID, ActionPasswordChangeFailed, err.Error())
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	audit(ctx, s.activity, actorID, ActionPasswordChanged, "")
	return nil
}

// ResetPassword re-seals the birthday-derived default under the account's existing key and IV.
func (s *accountService) ResetPassword(ctx context.Context, accountID uint, actorID *uint) error {
	ctx, span := s.tracer.Start(ctx, "account.reset_password")
	defer span.End()
	span.SetAttributes(attribute.Int64("account.id", int64(accountID)))

	account, err := s.repo.GetByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			audit(ctx, s.activity, actorID, ActionPasswordResetFailed, "account "+strconv.FormatUint(uint64(accountID), 10)+" not found")
			return ErrAccountNotFound
		}
		return err
	}

	if account.Birthday == "" {
		audit(ctx, s.activity, actorID, ActionPasswordResetFailed, "birthday missing for "+account.StudentNumber)
		return ErrBirthdayMissing
	}

	if err := credential.ValidatePair(account.EncryptionKey, account.IV); err != nil {
		s.logger.Error().Uint("account_id", account.ID).Msg("stored key or iv has an invalid length")
		audit(ctx, s.activity, actorID, ActionPasswordResetFailed, "corrupted credential material for "+account.StudentNumber)
		return ErrCorruptCredential
	}

	ciphertext, err := s.cipher.EncryptWith(account.Birthday, account.EncryptionKey, account.IV)
	if err != nil {
		if errors.Is(err, credential.ErrCryptoFailure) {
			return ErrCorruptCredential
		}
		return err
	}

	account.EncryptedPassword = ciphertext
	account.PasswordChanged = false
	if err := s.repo.UpdateCredentials(ctx, &account); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		return err
	}

	audit(ctx, s.activity, actorID, ActionPasswordReset, "password reset for "+account.StudentNumber)
	return nil
}

func (s *accountService) ListByRole(ctx context.Context, role string) ([]dto.AccountResponse, error) {
	role = strings.ToLower(strings.TrimSpace(role))
	if !models.IsValidAccountType(role) {
		return nil, fmt.Errorf("unknown account type %q", role)
	}

	accounts, err := s.repo.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}

	items := make([]dto.AccountResponse, 0, len(accounts))
	for _, account := range accounts {
		items = append(items, dto.NewAccountResponse(account))
	}
	return items, nil
}

func onlyDigits(value string) string {
	var b strings.Builder
	for _, r := range value {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
