package accounts

import (
	"context"

	"github.com/pquerna/otp"
	"github.com/pquerna/otp/totp"

	"hrmgate/internal/domain/auth"
)

type MFASetup struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
}

// SetupMFA stores a fresh, not yet enabled TOTP secret for the user.
func (s *Service) SetupMFA(ctx context.Context, userID string) (MFASetup, error) {
	if !s.mfaAvailable() {
		return MFASetup{}, ErrMFAUnavailable
	}
	acct, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return MFASetup{}, err
	}

	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      s.mfaIssuer,
		AccountName: acct.Email,
		Period:      30,
		Digits:      otp.DigitsSix,
	})
	if err != nil {
		return MFASetup{}, err
	}
	sealed, err := s.sealer.EncryptString(key.Secret())
	if err != nil {
		return MFASetup{}, err
	}

	acct.MFASecretEnc = sealed
	acct.MFAEnabled = false
	if err := s.repo.Update(ctx, acct); err != nil {
		return MFASetup{}, err
	}
	return MFASetup{Secret: key.Secret(), OTPAuthURL: key.URL()}, nil
}

func (s *Service) EnableMFA(ctx context.Context, userID, code string) error {
	return s.setMFAEnabled(ctx, userID, code, true)
}

func (s *Service) DisableMFA(ctx context.Context, userID, code string) error {
	return s.setMFAEnabled(ctx, userID, code, false)
}

func (s *Service) setMFAEnabled(ctx context.Context, userID, code string, enabled bool) error {
	if !s.mfaAvailable() {
		return ErrMFAUnavailable
	}
	acct, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if len(acct.MFASecretEnc) == 0 {
		return ErrMFANotSetUp
	}
	if err := s.verifyMFA(acct, code); err != nil {
		return err
	}
	acct.MFAEnabled = enabled
	if err := s.repo.Update(ctx, acct); err != nil {
		return err
	}

	action := "user.mfa_disable"
	if enabled {
		action = "user.mfa_enable"
	}
	s.record(ctx, &acct.User, action, acct.ID, nil, nil)
	return nil
}

// verifyMFA fails with ErrMFAUnavailable when a sealed secret is stored but
// the sealer key is gone.
func (s *Service) verifyMFA(acct Account, code string) error {
	if len(acct.MFASecretEnc) > 0 && !s.mfaAvailable() {
		return ErrMFAUnavailable
	}
	if code == "" {
		return auth.ErrMFARequired
	}
	if len(acct.MFASecretEnc) == 0 {
		return auth.ErrMFAInvalid
	}
	secret, err := s.sealer.DecryptString(acct.MFASecretEnc)
	if err != nil {
		return auth.ErrMFAInvalid
	}
	if secret == "" || !totp.Validate(code, secret) {
		return auth.ErrMFAInvalid
	}
	return nil
}

func (s *Service) mfaAvailable() bool {
	return s.sealer != nil && s.sealer.Configured()
}
