package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/akarpov/passportd/internal/captcha"
	"github.com/akarpov/passportd/internal/delivery"
	"github.com/akarpov/passportd/internal/logger"
	"github.com/akarpov/passportd/internal/model"
	"github.com/akarpov/passportd/internal/password"
)

// bindingGrace is how long an expired binding captcha is kept before the
// sweep reclaims the channel.
const bindingGrace = 24 * time.Hour

// Account implements the account aggregate: registration, identity binding,
// captcha verification and password flows.
type Account struct {
	accounts model.AccountStore
	gateway  model.DeliveryGateway
	logger   *logger.Logger
	now      func() time.Time
}

func NewAccount(accounts model.AccountStore, gateway model.DeliveryGateway, logger *logger.Logger) *Account {
	return &Account{
		accounts: accounts,
		gateway:  gateway,
		logger:   logger,
		now:      time.Now,
	}
}

// CreateOrRegister creates a new account reachable through identity, or
// re-claims an existing account that is still provisional on exactly that
// channel. Re-claiming reissues a fresh captcha, so repeating the call with
// the same unverified identity is not an error.
//
// When plainPassword is empty the account is stored with an unauthenticatable
// sentinel digest; a password can still be supplied later in
// VerifyBindingCaptcha or set through ResetPassword.
func (s *Account) CreateOrRegister(ctx context.Context, actor uuid.UUID, rawIdentity, plainPassword, nickName string, roles []string) (model.Account, error) {
	identity, err := model.ClassifyIdentity(rawIdentity)
	if err != nil {
		return model.Account{}, err
	}

	now := s.now()
	account, err := s.accounts.FindByIdentity(ctx, model.AccountFilter{Kind: identity.Kind, Value: identity.Value})
	if err != nil && !errors.Is(err, model.ErrNotFound) {
		return model.Account{}, fmt.Errorf("failed to find account by identity: %w", err)
	}

	created := errors.Is(err, model.ErrNotFound)
	if created {
		account = model.Account{
			ID:        uuid.New(),
			Status:    model.StatusEnabled,
			CreatedAt: now,
			CreatedBy: actor,
		}
		value := identity.Value
		switch identity.Kind {
		case model.KindCellphone:
			account.Cellphone = &value
			account.CellphoneBindingCaptcha = &model.Captcha{}
		case model.KindEmail:
			account.Email = &value
			account.EmailBindingCaptcha = &model.Captcha{}
		default:
			account.UserName = &value
		}
	} else if !adoptable(account, identity.Kind) {
		return model.Account{}, model.ErrIdentityInUse
	}

	if plainPassword != "" {
		account.Password = password.Digest(plainPassword, account.CreatedAt)
	} else {
		account.Password = password.NoLoginSentinel
	}
	account.NickName = nickName
	account.Roles = roles
	if unknown := account.UnknownRoles(); len(unknown) > 0 {
		s.logger.Warn("account carries roles outside the vocabulary", "roles", unknown)
	}

	return s.sendBindingCaptcha(ctx, account, created, actor,
		account.CellphoneBindingCaptcha != nil, account.EmailBindingCaptcha != nil)
}

// adoptable reports whether an existing account may be re-claimed by a
// repeated registration for the same identity: the channel captcha is still
// outstanding, the account holds no user name and no identity on the other
// channel, and it is enabled.
func adoptable(account model.Account, kind model.IdentityKind) bool {
	if account.Status != model.StatusEnabled || account.UserName != nil {
		return false
	}
	switch kind {
	case model.KindCellphone:
		return account.CellphoneBindingCaptcha != nil && account.Email == nil
	case model.KindEmail:
		return account.EmailBindingCaptcha != nil && account.Cellphone == nil
	default:
		return false
	}
}

// Bind attaches an identity to an existing account. Cellphone and email
// targets open a fresh captcha slot; a user name binds synchronously and is
// immutable once set.
func (s *Account) Bind(ctx context.Context, account model.Account, rawIdentity string) (model.Account, error) {
	identity, err := model.ClassifyIdentity(rawIdentity)
	if err != nil {
		return model.Account{}, err
	}

	value := identity.Value
	switch identity.Kind {
	case model.KindCellphone:
		if account.Cellphone != nil && account.CellphoneBindingCaptcha == nil {
			if *account.Cellphone == value {
				return model.Account{}, model.ErrBindingVerified
			}
			return model.Account{}, model.ErrConflict
		}
		account.Cellphone = &value
		account.CellphoneBindingCaptcha = &model.Captcha{}
		return s.sendBindingCaptcha(ctx, account, false, account.ID, true, false)
	case model.KindEmail:
		if account.Email != nil && account.EmailBindingCaptcha == nil {
			if *account.Email == value {
				return model.Account{}, model.ErrBindingVerified
			}
			return model.Account{}, model.ErrConflict
		}
		account.Email = &value
		account.EmailBindingCaptcha = &model.Captcha{}
		return s.sendBindingCaptcha(ctx, account, false, account.ID, false, true)
	default:
		if account.UserName != nil {
			if *account.UserName != value {
				return model.Account{}, model.ErrConflict
			}
			return account, nil
		}
		account.UserName = &value
		return s.save(ctx, account, account.ID)
	}
}

// ResendBindingCaptcha regenerates and redispatches the binding captcha for a
// provisional cellphone or email.
func (s *Account) ResendBindingCaptcha(ctx context.Context, rawIdentity string) (model.Account, error) {
	identity, err := model.ClassifyIdentity(rawIdentity)
	if err != nil {
		return model.Account{}, err
	}
	if identity.Kind == model.KindUserName {
		return model.Account{}, model.ErrInvalidInput
	}

	account, err := s.accounts.FindByIdentity(ctx, model.AccountFilter{
		Kind: identity.Kind, Value: identity.Value, OnlyEnabled: true,
	})
	if err != nil {
		return model.Account{}, err
	}
	if account.BindingCaptcha(identity.Kind) == nil {
		return model.Account{}, model.ErrBindingVerified
	}

	return s.sendBindingCaptcha(ctx, account, false, account.ID,
		identity.Kind == model.KindCellphone, identity.Kind == model.KindEmail)
}

// VerifyBindingCaptcha consumes a binding captcha, making the channel
// authoritative. A wrong or expired code leaves the slot untouched so the
// legitimate holder can retry before expiry. A password supplied here
// replaces the sentinel digest for accounts registered without one.
func (s *Account) VerifyBindingCaptcha(ctx context.Context, rawIdentity, code, plainPassword, nickName string) (model.Account, error) {
	if rawIdentity == "" || code == "" {
		return model.Account{}, model.ErrInvalidInput
	}
	identity, err := model.ClassifyIdentity(rawIdentity)
	if err != nil {
		return model.Account{}, err
	}
	if identity.Kind == model.KindUserName {
		return model.Account{}, model.ErrInvalidInput
	}

	account, err := s.accounts.FindByIdentity(ctx, model.AccountFilter{
		Kind: identity.Kind, Value: identity.Value, OnlyEnabled: true,
	})
	if err != nil {
		return model.Account{}, err
	}

	slot := account.BindingCaptcha(identity.Kind)
	if slot == nil {
		return model.Account{}, model.ErrBindingVerified
	}
	now := s.now()
	if slot.Code != code || slot.Expired(now) {
		return model.Account{}, model.ErrInvalidCaptcha
	}

	switch identity.Kind {
	case model.KindCellphone:
		account.CellphoneBindingCaptcha = nil
	case model.KindEmail:
		account.EmailBindingCaptcha = nil
	}
	if plainPassword != "" {
		account.Password = password.Digest(plainPassword, account.CreatedAt)
	}
	if nickName != "" {
		account.NickName = nickName
	}

	return s.save(ctx, account, account.ID)
}

// Unbind detaches an identity from an account without verification. It is
// intended for administrative use only.
func (s *Account) Unbind(ctx context.Context, account model.Account, rawIdentity string, actor uuid.UUID) (model.Account, error) {
	if rawIdentity == "" {
		return model.Account{}, model.ErrInvalidInput
	}

	switch {
	case account.Cellphone != nil && *account.Cellphone == rawIdentity:
		account.Cellphone = nil
		account.CellphoneBindingCaptcha = nil
		account.CellphoneAuthCaptcha = nil
	case account.Email != nil && *account.Email == rawIdentity:
		account.Email = nil
		account.EmailBindingCaptcha = nil
		account.EmailAuthCaptcha = nil
	case account.UserName != nil && *account.UserName == rawIdentity:
		account.UserName = nil
	default:
		return model.Account{}, model.ErrConflict
	}

	return s.save(ctx, account, actor)
}

// AuthByPassword authenticates an identity and password pair. Unknown
// identities, provisional channels and wrong passwords all collapse into the
// same ErrInvalidCredentials.
func (s *Account) AuthByPassword(ctx context.Context, rawIdentity, plainPassword string) (model.Account, error) {
	if rawIdentity == "" || plainPassword == "" {
		return model.Account{}, model.ErrInvalidInput
	}
	identity, err := model.ClassifyIdentity(rawIdentity)
	if err != nil {
		return model.Account{}, model.ErrInvalidCredentials
	}

	account, err := s.accounts.FindByIdentity(ctx, model.AccountFilter{
		Kind:            identity.Kind,
		Value:           identity.Value,
		OnlyEnabled:     true,
		ChannelVerified: true,
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, model.ErrInvalidCredentials
		}
		return model.Account{}, fmt.Errorf("failed to find account by identity: %w", err)
	}

	if !password.Verify(plainPassword, account.CreatedAt, account.Password) {
		return model.Account{}, model.ErrInvalidCredentials
	}

	return account, nil
}

// SendAuthCaptcha mints and dispatches an authentication captcha to a
// verified cellphone or email.
func (s *Account) SendAuthCaptcha(ctx context.Context, rawIdentity string) (model.Account, error) {
	identity, err := model.ClassifyIdentity(rawIdentity)
	if err != nil {
		return model.Account{}, err
	}
	if identity.Kind == model.KindUserName {
		return model.Account{}, model.ErrInvalidInput
	}

	account, err := s.accounts.FindByIdentity(ctx, model.AccountFilter{
		Kind:            identity.Kind,
		Value:           identity.Value,
		OnlyEnabled:     true,
		ChannelVerified: true,
	})
	if err != nil {
		return model.Account{}, err
	}

	now := s.now()
	code, err := captcha.New(identity.Kind, now)
	if err != nil {
		return model.Account{}, err
	}

	switch identity.Kind {
	case model.KindCellphone:
		account.CellphoneAuthCaptcha = &code
	case model.KindEmail:
		account.EmailAuthCaptcha = &code
	}

	saved, err := s.save(ctx, account, account.ID)
	if err != nil {
		return model.Account{}, err
	}

	switch identity.Kind {
	case model.KindCellphone:
		s.gateway.SendSMS(*saved.Cellphone, delivery.CellphoneAuthText(saved.CellphoneAuthCaptcha.Code))
	case model.KindEmail:
		s.gateway.SendMail([]string{*saved.Email}, delivery.AuthMailSubject, delivery.EmailAuthBody(saved.EmailAuthCaptcha.Code))
	}

	return saved, nil
}

// VerifyAuthCaptcha consumes an authentication captcha. Any miss, mismatch or
// expiry collapses into ErrInvalidCredentials.
func (s *Account) VerifyAuthCaptcha(ctx context.Context, rawIdentity, code string) (model.Account, error) {
	if rawIdentity == "" || code == "" {
		return model.Account{}, model.ErrInvalidInput
	}
	identity, err := model.ClassifyIdentity(rawIdentity)
	if err != nil {
		return model.Account{}, model.ErrInvalidCredentials
	}
	if identity.Kind == model.KindUserName {
		return model.Account{}, model.ErrInvalidCredentials
	}

	account, err := s.accounts.FindByIdentity(ctx, model.AccountFilter{
		Kind: identity.Kind, Value: identity.Value, OnlyEnabled: true,
	})
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return model.Account{}, model.ErrInvalidCredentials
		}
		return model.Account{}, fmt.Errorf("failed to find account by identity: %w", err)
	}

	now := s.now()
	slot := account.AuthCaptcha(identity.Kind)
	if slot == nil || slot.Code != code || slot.Expired(now) {
		return model.Account{}, model.ErrInvalidCredentials
	}

	switch identity.Kind {
	case model.KindCellphone:
		account.CellphoneAuthCaptcha = nil
	case model.KindEmail:
		account.EmailAuthCaptcha = nil
	}

	return s.save(ctx, account, account.ID)
}

// ChangePassword replaces the password after checking the old one.
func (s *Account) ChangePassword(ctx context.Context, account model.Account, oldPassword, newPassword string) (model.Account, error) {
	if oldPassword == "" || newPassword == "" {
		return model.Account{}, model.ErrInvalidInput
	}
	if !password.Verify(oldPassword, account.CreatedAt, account.Password) {
		return model.Account{}, model.ErrInvalidCredentials
	}
	return s.ResetPassword(ctx, account, newPassword)
}

// ResetPassword replaces the password without checking the old one. The
// caller must have proven control of the account through a verified identity.
func (s *Account) ResetPassword(ctx context.Context, account model.Account, newPassword string) (model.Account, error) {
	if newPassword == "" {
		return model.Account{}, model.ErrInvalidInput
	}
	account.Password = password.Digest(newPassword, account.CreatedAt)
	return s.save(ctx, account, account.ID)
}

// ClearExpiredBindings reclaims cellphone and email channels whose binding
// captcha expired more than the grace period ago, then deletes accounts left
// with no identity at all. Running it twice in a row clears nothing further.
func (s *Account) ClearExpiredBindings(ctx context.Context) error {
	before := s.now().Add(-bindingGrace)

	cleared, err := s.accounts.ClearExpiredBindings(ctx, before)
	if err != nil {
		return fmt.Errorf("failed to clear expired bindings: %w", err)
	}
	deleted, err := s.accounts.DeleteUnreachable(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete unreachable accounts: %w", err)
	}

	if cleared > 0 || deleted > 0 {
		s.logger.Info("expired binding sweep finished", "cleared", cleared, "deleted", deleted)
	}
	return nil
}

// sendBindingCaptcha regenerates the requested binding captchas, persists the
// account and dispatches delivery. Dispatch happens after the persist
// succeeds and its failure never rolls the persist back.
func (s *Account) sendBindingCaptcha(ctx context.Context, account model.Account, created bool, actor uuid.UUID, cellphone, email bool) (model.Account, error) {
	now := s.now()

	if cellphone && account.CellphoneBindingCaptcha != nil {
		code, err := captcha.NewCellphone(now)
		if err != nil {
			return model.Account{}, err
		}
		account.CellphoneBindingCaptcha = &code
	}
	if email && account.EmailBindingCaptcha != nil {
		code, err := captcha.NewEmail(now)
		if err != nil {
			return model.Account{}, err
		}
		account.EmailBindingCaptcha = &code
	}

	var saved model.Account
	var err error
	if created {
		account.UpdatedAt = now
		account.UpdatedBy = actor
		saved, err = s.accounts.Insert(ctx, account)
	} else {
		saved, err = s.save(ctx, account, actor)
	}
	if err != nil {
		return model.Account{}, err
	}

	if cellphone && saved.Cellphone != nil && saved.CellphoneBindingCaptcha != nil {
		s.gateway.SendSMS(*saved.Cellphone, delivery.CellphoneBindingText(saved.CellphoneBindingCaptcha.Code))
	}
	if email && saved.Email != nil && saved.EmailBindingCaptcha != nil {
		s.gateway.SendMail([]string{*saved.Email}, delivery.BindingMailSubject, delivery.EmailBindingBody(saved.EmailBindingCaptcha.Code))
	}

	return saved, nil
}

func (s *Account) save(ctx context.Context, account model.Account, actor uuid.UUID) (model.Account, error) {
	account.UpdatedAt = s.now()
	account.UpdatedBy = actor
	saved, err := s.accounts.Update(ctx, account, nil)
	if err != nil {
		return model.Account{}, err
	}
	return saved, nil
}
