package core

import (
	"unicode"

	"github.com/breachsim/breachsim/utils"
)

// Reduction weights for the vulnerability score, one per measure. The
// total exceeds 100; full protection floors the score at 0.
const (
	reductionStrongPassword    = 10
	reductionTwoFactorAuth     = 15
	reductionEmailVerification = 10
	reductionSecurityQuestions = 10
	reductionBackupEmail       = 5
	reductionAuthenticatorApp  = 20
	reductionSMSBackup         = 12
	reductionTrustedDevices    = 15
	reductionLoginAlerts       = 10
	reductionSessionManagement = 12
	reductionIPWhitelist       = 18
	reductionPasswordVault     = 8
)

// VulnerabilityScore maps the user's defenses to a 0-100 risk score,
// lower is safer. Purely additive: each measure that is active and
// complete subtracts its fixed weight from 100. Config-gated measures
// (smsBackup, trustedDevices, loginAlerts, ipWhitelist, passwordVault)
// earn nothing while their configuration is hollow.
func VulnerabilityScore(user CasualUser) int {
	m := user.SecurityMeasures
	cfg := user.SecurityConfig

	total := 0
	if m.StrongPassword {
		total += reductionStrongPassword
	}
	if m.TwoFactorAuth {
		total += reductionTwoFactorAuth
	}
	if m.EmailVerification {
		total += reductionEmailVerification
	}
	if m.SecurityQuestions {
		total += reductionSecurityQuestions
	}
	if m.BackupEmail {
		total += reductionBackupEmail
	}
	if m.AuthenticatorApp {
		total += reductionAuthenticatorApp
	}
	if m.SMSBackup && cfg.SMSBackup.Verified {
		total += reductionSMSBackup
	}
	if m.TrustedDevices && len(cfg.TrustedDevices.Devices) > 0 {
		total += reductionTrustedDevices
	}
	if m.LoginAlerts && (cfg.LoginAlerts.EmailAlerts || cfg.LoginAlerts.SMSAlerts) {
		total += reductionLoginAlerts
	}
	if m.SessionManagement {
		total += reductionSessionManagement
	}
	if m.IPWhitelist && cfg.IPWhitelist.Enabled && len(cfg.IPWhitelist.AllowedIPs) > 0 {
		total += reductionIPWhitelist
	}
	if m.PasswordVault && len(user.PasswordVault) >= 3 {
		total += reductionPasswordVault
	}

	return utils.Clamp(100-total, 0, 100)
}

// PasswordStrength rates a password 0-100. Length and each character
// class contribute fixed points; without all four classes the rating is
// capped at 79, which keeps "strong password" (>=80) meaning length plus
// full class coverage.
func PasswordStrength(password string) int {
	var hasLower, hasUpper, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsDigit(r):
			hasDigit = true
		default:
			hasSpecial = true
		}
	}

	strength := 0
	if len(password) >= 8 {
		strength += 20
	}
	if len(password) >= 12 {
		strength += 20
	}
	if hasLower {
		strength += 20
	}
	if hasUpper {
		strength += 20
	}
	if hasDigit {
		strength += 10
	}
	if hasSpecial {
		strength += 10
	}

	if !(hasLower && hasUpper && hasDigit && hasSpecial) && strength >= 80 {
		strength = 79
	}
	if strength > 100 {
		strength = 100
	}
	return strength
}
