package core

import (
	"fmt"
	"math/rand"

	"golang.org/x/crypto/bcrypt"
)

// CreateAccount fills in the casual user's profile, rates the chosen
// password and stores only its bcrypt hash. A weak password (<80) is
// allowed but raises an advisory notification immediately.
func (s *GameState) CreateAccount(name, email, password string, now int64) (int, error) {
	if name == "" || email == "" || password == "" {
		return 0, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	strength := PasswordStrength(password)
	s.CasualUser.Name = name
	s.CasualUser.Email = email
	s.CasualUser.PasswordHash = string(hash)
	s.CasualUser.PasswordStrength = strength
	s.CasualUser.AccountCreated = true
	s.CasualUser.SecurityMeasures.StrongPassword = strength >= 80

	s.appendLog(now, ActorUser, "Account created",
		fmt.Sprintf("Name: %s, Email: %s, Password strength: %d%%", name, email, strength))

	if strength < 80 {
		st := strength
		s.Notifications = append(s.Notifications, Notification{
			ID:    newID(),
			Type:  NotifWeakPassword,
			Title: "Warning: Weak Password Detected",
			Message: fmt.Sprintf("Your account was created, but your password is vulnerable to attacks. "+
				"Current strength: %d%%. We recommend improving it in the settings.", strength),
			IsActive:         true,
			PasswordStrength: &st,
		})
	}

	s.VulnerabilityScore = VulnerabilityScore(s.CasualUser)
	return strength, nil
}

// SetAccountStep moves the account-creation wizard cursor.
func (s *GameState) SetAccountStep(step int) {
	s.CasualUser.AccountCreationStep = step
}

// UpdateMeasure toggles one protective measure on or off and recomputes
// the vulnerability score. Toggling a config-gated measure on without
// its configuration leaves the score unchanged.
func (s *GameState) UpdateMeasure(measure string, enabled bool, now int64) error {
	m, err := ParseMeasure(measure)
	if err != nil {
		return err
	}
	s.CasualUser.SecurityMeasures.SetEnabled(m, enabled)

	action := "Protection disabled"
	if enabled {
		action = "Protection enabled"
	}
	s.appendLog(now, ActorUser, action, m.DisplayName())

	s.VulnerabilityScore = VulnerabilityScore(s.CasualUser)
	return nil
}

// SetStrongPassword replaces the account password, re-rates it and
// auto-toggles the strongPassword measure at strength >= 80.
func (s *GameState) SetStrongPassword(password string, now int64) (int, error) {
	if password == "" {
		return 0, fmt.Errorf("%w: password is required", ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	strength := PasswordStrength(password)
	s.CasualUser.PasswordHash = string(hash)
	s.CasualUser.PasswordStrength = strength
	s.CasualUser.SecurityMeasures.StrongPassword = strength >= 80
	s.CasualUser.SecurityConfig.StrongPassword = StrongPasswordConfig{Strength: strength}

	s.appendLog(now, ActorUser, "Password updated", fmt.Sprintf("Strength: %d%%", strength))
	s.VulnerabilityScore = VulnerabilityScore(s.CasualUser)
	return strength, nil
}

// SetSecurityQuestion stores the question/answer pair and activates the
// securityQuestions measure.
func (s *GameState) SetSecurityQuestion(question, answer string, now int64) error {
	if question == "" || answer == "" {
		return fmt.Errorf("%w: question and answer are required", ErrValidation)
	}
	s.CasualUser.SecurityConfig.SecurityQuestion = SecurityQuestionConfig{Question: question, Answer: answer}
	s.CasualUser.SecurityMeasures.SecurityQuestions = true

	s.appendLog(now, ActorUser, "Protection enabled", MeasureSecurityQuestions.DisplayName())
	s.VulnerabilityScore = VulnerabilityScore(s.CasualUser)
	return nil
}

// RequestTwoFactor raises the 2FA confirmation notification. The
// measure only activates once the user accepts it. Idempotent while a
// confirmation is already pending.
func (s *GameState) RequestTwoFactor() {
	if s.hasActiveCTA(CTAConfirm2FA) {
		return
	}
	s.Notifications = append(s.Notifications, Notification{
		ID:    newID(),
		Type:  NotifTwoFactorConfirm,
		Title: "Enable Two-Factor Authentication",
		Message: "You are about to enable Two-Factor Authentication (2FA). This adds an extra " +
			"verification code on top of your password. Click Confirm to enable it.",
		IsActive:       true,
		RequiresAction: true,
		CTALabel:       "Confirm",
		CTAType:        CTAConfirm2FA,
	})
}

// RequestEmailVerification raises the email-verification confirmation
// notification. Idempotent while one is pending.
func (s *GameState) RequestEmailVerification() {
	if s.hasActiveCTA(CTAConfirmEmailVerify) {
		return
	}
	email := s.CasualUser.Email
	if email == "" {
		email = "your email"
	}
	s.Notifications = append(s.Notifications, Notification{
		ID:    newID(),
		Type:  NotifEmailVerifyConfirm,
		Title: "Enable Email Verification",
		Message: fmt.Sprintf("We sent a verification code to %s. Confirm it to verify your "+
			"identity and harden your account.", email),
		IsActive:       true,
		RequiresAction: true,
		CTALabel:       "Confirm",
		CTAType:        CTAConfirmEmailVerify,
	})
}

// SetRecoveryEmail stores an unverified recovery address and raises the
// confirmation notification; accepting it flips backupEmail on.
func (s *GameState) SetRecoveryEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}
	s.CasualUser.SecurityConfig.RecoveryEmail = RecoveryEmailConfig{Email: email, Verified: false}
	s.Notifications = append(s.Notifications, Notification{
		ID:    newID(),
		Type:  NotifEmailVerifyConfirm,
		Title: "Confirm Recovery Email",
		Message: fmt.Sprintf("We sent a verification code to %s. Click Confirm to activate the "+
			"recovery email and improve your security.", email),
		IsActive:       true,
		RequiresAction: true,
		CTALabel:       "Confirm",
		CTAType:        CTAConfirmEmail,
	})
	return nil
}

// SetupFlowType names the guided setup dialogs that track a cursor.
type SetupFlowType string

const (
	FlowTwoFactorAuth     SetupFlowType = "twoFactorAuth"
	FlowSecurityQuestions SetupFlowType = "securityQuestions"
	FlowBackupEmail       SetupFlowType = "backupEmail"
)

// AdvanceSetupFlow moves the wizard cursor of one setup dialog.
func (s *GameState) AdvanceSetupFlow(flowType string, step int, method string, completed bool) error {
	var flow *SetupFlowState
	switch SetupFlowType(flowType) {
	case FlowTwoFactorAuth:
		flow = &s.CasualUser.SecuritySetupFlows.TwoFactorAuth
	case FlowSecurityQuestions:
		flow = &s.CasualUser.SecuritySetupFlows.SecurityQuestions
	case FlowBackupEmail:
		flow = &s.CasualUser.SecuritySetupFlows.BackupEmail
	default:
		return fmt.Errorf("%w: unknown flow type %q", ErrValidation, flowType)
	}
	flow.Step = step
	if method != "" {
		flow.Method = method
	}
	if completed {
		flow.Completed = true
	}
	return nil
}

// ConfigureTrustedDevices unions new devices into the device list,
// deduplicated by device id, and activates the measure.
func (s *GameState) ConfigureTrustedDevices(devices []TrustedDevice, now int64) {
	existing := s.CasualUser.SecurityConfig.TrustedDevices.Devices
	seen := make(map[string]bool, len(existing))
	for _, d := range existing {
		seen[d.ID] = true
	}
	for _, d := range devices {
		if !seen[d.ID] {
			seen[d.ID] = true
			existing = append(existing, d)
		}
	}
	s.CasualUser.SecurityConfig.TrustedDevices.Devices = existing
	s.CasualUser.SecurityMeasures.TrustedDevices = true

	s.appendLog(now, ActorUser, "Trusted devices updated",
		fmt.Sprintf("%d device(s) registered", len(existing)))
	s.VulnerabilityScore = VulnerabilityScore(s.CasualUser)
}

// ConfigureIPWhitelist unions new addresses into the allowlist and
// derives the measure flag from the submitted enabled bit.
func (s *GameState) ConfigureIPWhitelist(enabled bool, allowedIPs []string, now int64) {
	existing := s.CasualUser.SecurityConfig.IPWhitelist.AllowedIPs
	seen := make(map[string]bool, len(existing))
	for _, ip := range existing {
		seen[ip] = true
	}
	for _, ip := range allowedIPs {
		if !seen[ip] {
			seen[ip] = true
			existing = append(existing, ip)
		}
	}
	s.CasualUser.SecurityConfig.IPWhitelist = IPWhitelistConfig{Enabled: enabled, AllowedIPs: existing}
	s.CasualUser.SecurityMeasures.IPWhitelist = enabled

	s.appendLog(now, ActorUser, "IP whitelist updated",
		fmt.Sprintf("Enabled: %t, %d address(es)", enabled, len(existing)))
	s.VulnerabilityScore = VulnerabilityScore(s.CasualUser)
}

// ConfigureLoginAlerts replaces the alert-channel selection; the flag
// follows whether any channel is on.
func (s *GameState) ConfigureLoginAlerts(cfg LoginAlertsConfig, now int64) {
	s.CasualUser.SecurityConfig.LoginAlerts = cfg
	s.CasualUser.SecurityMeasures.LoginAlerts = cfg.EmailAlerts || cfg.SMSAlerts || cfg.NewLocationAlerts

	s.appendLog(now, ActorUser, "Login alerts updated",
		fmt.Sprintf("Email: %t, SMS: %t, New location: %t", cfg.EmailAlerts, cfg.SMSAlerts, cfg.NewLocationAlerts))
	s.VulnerabilityScore = VulnerabilityScore(s.CasualUser)
}

// ConfigureSessionManagement replaces the session limits and activates
// the measure.
func (s *GameState) ConfigureSessionManagement(cfg SessionManagementConfig, now int64) {
	s.CasualUser.SecurityConfig.SessionManagement = cfg
	s.CasualUser.SecurityMeasures.SessionManagement = true

	s.appendLog(now, ActorUser, "Session management updated",
		fmt.Sprintf("Max sessions: %d, auto-logout: %dmin", cfg.MaxSessions, cfg.AutoLogoutMinutes))
	s.VulnerabilityScore = VulnerabilityScore(s.CasualUser)
}

// ConfigureSMSBackup stores the backup number and activates the
// measure. The score only credits it once verified is true.
func (s *GameState) ConfigureSMSBackup(cfg SMSBackupConfig, now int64) {
	s.CasualUser.SecurityConfig.SMSBackup = cfg
	s.CasualUser.SecurityMeasures.SMSBackup = true

	s.appendLog(now, ActorUser, "SMS backup updated",
		fmt.Sprintf("Verified: %t", cfg.Verified))
	s.VulnerabilityScore = VulnerabilityScore(s.CasualUser)
}

// ConfigureAuthenticatorApp stores the TOTP secret and recovery codes
// and activates the measure.
func (s *GameState) ConfigureAuthenticatorApp(cfg AuthenticatorAppConfig, now int64) {
	s.CasualUser.SecurityConfig.AuthenticatorApp = cfg
	s.CasualUser.SecurityMeasures.AuthenticatorApp = true

	s.appendLog(now, ActorUser, "Protection enabled", MeasureAuthenticatorApp.DisplayName())
	s.VulnerabilityScore = VulnerabilityScore(s.CasualUser)
}

// SaveVaultEntry adds one credential to the password vault. Reaching
// three stored entries activates the passwordVault measure
// automatically, with a system log entry explaining the bonus.
func (s *GameState) SaveVaultEntry(title, website, username, password, category string, now int64) (VaultEntry, error) {
	if title == "" || password == "" {
		return VaultEntry{}, fmt.Errorf("%w: title and password are required", ErrValidation)
	}
	entry := VaultEntry{
		ID:        newID(),
		Title:     title,
		Website:   website,
		Username:  username,
		Password:  password,
		CreatedAt: now,
		Category:  category,
	}
	s.CasualUser.PasswordVault = append(s.CasualUser.PasswordVault, entry)

	s.appendLog(now, ActorUser, "Password saved to vault",
		fmt.Sprintf("%q added to the password vault", title))

	if len(s.CasualUser.PasswordVault) >= 3 && !s.CasualUser.SecurityMeasures.PasswordVault {
		s.CasualUser.SecurityMeasures.PasswordVault = true
		s.appendLog(now, ActorSystem, "Password Vault activated",
			"3 or more passwords stored, security bonus applied")
	}

	s.VulnerabilityScore = VulnerabilityScore(s.CasualUser)
	return entry, nil
}

// DeleteVaultEntry removes one credential. Dropping below three stored
// entries deactivates the passwordVault measure again.
func (s *GameState) DeleteVaultEntry(id string, now int64) error {
	idx := -1
	for i, e := range s.CasualUser.PasswordVault {
		if e.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrVaultEntryNotFound
	}

	removed := s.CasualUser.PasswordVault[idx]
	s.CasualUser.PasswordVault = append(
		s.CasualUser.PasswordVault[:idx], s.CasualUser.PasswordVault[idx+1:]...)

	s.appendLog(now, ActorUser, "Password removed from vault",
		fmt.Sprintf("%q removed", removed.Title))

	if len(s.CasualUser.PasswordVault) < 3 && s.CasualUser.SecurityMeasures.PasswordVault {
		s.CasualUser.SecurityMeasures.PasswordVault = false
		s.appendLog(now, ActorSystem, "Password Vault deactivated",
			"fewer than 3 passwords stored, security bonus removed")
	}

	s.VulnerabilityScore = VulnerabilityScore(s.CasualUser)
	return nil
}

const (
	passwordLower   = "abcdefghijklmnopqrstuvwxyz"
	passwordUpper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
	passwordDigits  = "0123456789"
	passwordSymbols = "!@#$%^&*()_+-=[]{}|;:,.<>?"
)

// GeneratePassword produces a random password from the selected
// character classes. Game content, not cryptographic key material.
func GeneratePassword(length int, includeNumbers, includeSymbols bool) string {
	if length <= 0 {
		length = 16
	}
	chars := passwordLower + passwordUpper
	if includeNumbers {
		chars += passwordDigits
	}
	if includeSymbols {
		chars += passwordSymbols
	}

	out := make([]byte, length)
	for i := range out {
		out[i] = chars[rand.Intn(len(chars))]
	}
	return string(out)
}

// StartRound resets everything to defaults and begins a new round. The
// round id is the only value that survives, incremented so presentation
// layers can detect the transition.
func (s *GameState) StartRound() {
	round := s.RoundID + 1
	*s = *NewGameState()
	s.RoundID = round
	s.GameStarted = true
	s.TutorialCompleted = true
}

// ResetRound restores the defaults without advancing the round id.
func (s *GameState) ResetRound() {
	round := s.RoundID
	*s = *NewGameState()
	s.RoundID = round
}
