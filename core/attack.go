package core

import (
	"time"

	"github.com/breachsim/breachsim/utils"
)

// Attack identifies one of the twelve simulated attack kinds.
type Attack string

const (
	AttackSocialEngineering  Attack = "social_engineering"
	AttackPhishing           Attack = "phishing"
	AttackBruteForce         Attack = "brute_force"
	AttackKeylogger          Attack = "keylogger"
	AttackPasswordLeak       Attack = "password_leak"
	AttackSessionHijacking   Attack = "session_hijacking"
	AttackManInTheMiddle     Attack = "man_in_the_middle"
	AttackCredentialStuffing Attack = "credential_stuffing"
	AttackSIMSwap            Attack = "sim_swap"
	AttackMalwareInjection   Attack = "malware_injection"
	AttackDNSSpoofing        Attack = "dns_spoofing"
	AttackZeroDayExploit     Attack = "zero_day_exploit"
)

// AttackInfo describes the static properties of one attack kind.
type AttackInfo struct {
	ID          Attack        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Cooldown    time.Duration `json:"cooldown"`
	BaseChance  int           `json:"baseChance"`
}

// AttackCatalog lists every attack kind in the order the hacker panel
// shows them. Cooldowns and base chances are fixed game constants.
var AttackCatalog = []AttackInfo{
	{AttackSocialEngineering, "Social Engineering", "Manipulate the user into revealing information", 15 * time.Second, 65},
	{AttackPhishing, "Phishing Email", "Send a fake email to steal credentials", 20 * time.Second, 70},
	{AttackBruteForce, "Brute Force", "Try to guess the password", 30 * time.Second, 80},
	{AttackKeylogger, "Keylogger", "Capture typed keystrokes", 25 * time.Second, 60},
	{AttackPasswordLeak, "Database Leak", "Exploit a leaked credential database", 35 * time.Second, 75},
	{AttackSessionHijacking, "Session Hijacking", "Steal an active session token", 28 * time.Second, 50},
	{AttackManInTheMiddle, "Man-in-the-Middle", "Intercept traffic between user and server", 32 * time.Second, 50},
	{AttackCredentialStuffing, "Credential Stuffing", "Reuse credentials leaked from other sites", 26 * time.Second, 50},
	{AttackSIMSwap, "SIM Swap", "Clone the SIM card to intercept SMS", 40 * time.Second, 50},
	{AttackMalwareInjection, "Malware Injection", "Infect the device with malicious software", 33 * time.Second, 50},
	{AttackDNSSpoofing, "DNS Spoofing", "Redirect to a fake site via DNS", 29 * time.Second, 50},
	{AttackZeroDayExploit, "Zero-Day Exploit", "Exploit an unknown vulnerability", 50 * time.Second, 50},
}

var attackIndex = func() map[Attack]AttackInfo {
	idx := make(map[Attack]AttackInfo, len(AttackCatalog))
	for _, a := range AttackCatalog {
		idx[a.ID] = a
	}
	return idx
}()

// LookupAttack resolves an attack identifier from a request.
func LookupAttack(id string) (AttackInfo, error) {
	info, ok := attackIndex[Attack(id)]
	if !ok {
		return AttackInfo{}, ErrAttackNotFound
	}
	return info, nil
}

// Completeness predicates. A measure only counts against an attack when
// both its flag is on and its configuration is actually usable; a flag
// with a hollow config reduces nothing.

func (u CasualUser) ipWhitelistConfigured() bool {
	cfg := u.SecurityConfig.IPWhitelist
	return u.SecurityMeasures.IPWhitelist && cfg.Enabled && len(cfg.AllowedIPs) > 0
}

func (u CasualUser) trustedDevicesConfigured() bool {
	return u.SecurityMeasures.TrustedDevices && len(u.SecurityConfig.TrustedDevices.Devices) > 0
}

func (u CasualUser) loginAlertsConfigured() bool {
	cfg := u.SecurityConfig.LoginAlerts
	return u.SecurityMeasures.LoginAlerts && (cfg.EmailAlerts || cfg.SMSAlerts)
}

func (u CasualUser) smsBackupVerified() bool {
	return u.SecurityMeasures.SMSBackup && u.SecurityConfig.SMSBackup.Verified
}

func (u CasualUser) vaultStocked() bool {
	return u.SecurityMeasures.PasswordVault && len(u.PasswordVault) >= 3
}

// Immune reports whether the user reached the unbeatable end-state: all
// twelve flags on and every config-gated measure fully configured. In
// that state every attack's success chance is forced to exactly 0.
func (u CasualUser) Immune() bool {
	if !u.SecurityMeasures.AllActive() {
		return false
	}
	return u.PasswordStrength >= 80 &&
		u.ipWhitelistConfigured() &&
		u.trustedDevicesConfigured() &&
		u.loginAlertsConfigured() &&
		u.smsBackupVerified() &&
		len(u.PasswordVault) >= 3
}

// SuccessChance computes the 0-100 probability that an attack of the
// given kind compromises the account under the user's current defenses.
// Deterministic; the random draw happens in the resolver.
//
// Each kind has its own deduction table: different attacks are blocked
// by different, sometimes overlapping, controls.
func SuccessChance(kind Attack, user CasualUser) int {
	if user.Immune() {
		return 0
	}

	m := user.SecurityMeasures
	chance := 50
	if info, ok := attackIndex[kind]; ok {
		chance = info.BaseChance
	}

	switch kind {
	case AttackBruteForce:
		if m.AuthenticatorApp {
			chance -= 70
		}
		if m.TwoFactorAuth {
			chance -= 60
		}
		if m.StrongPassword || user.PasswordStrength >= 80 {
			chance -= 40
		}
		if m.IPWhitelist && user.SecurityConfig.IPWhitelist.Enabled {
			chance -= 20
		}
		if m.SessionManagement {
			chance -= 15
		}

	case AttackPhishing:
		if m.AuthenticatorApp {
			chance -= 40
		}
		if m.TwoFactorAuth {
			chance -= 30
		}
		if m.EmailVerification {
			chance -= 25
		}
		if m.LoginAlerts && user.SecurityConfig.LoginAlerts.EmailAlerts {
			chance -= 20
		}
		if user.trustedDevicesConfigured() {
			chance -= 15
		}

	case AttackSocialEngineering:
		if m.TwoFactorAuth {
			chance -= 25
		}
		if m.SecurityQuestions {
			chance -= 20
		}
		if user.loginAlertsConfigured() {
			chance -= 20
		}

	case AttackKeylogger:
		if m.AuthenticatorApp {
			chance -= 30
		}
		if m.TwoFactorAuth {
			chance -= 25
		}
		if m.SessionManagement {
			chance -= 15
		}

	case AttackPasswordLeak:
		if m.AuthenticatorApp {
			chance -= 50
		}
		if m.TwoFactorAuth {
			chance -= 40
		}
		if m.StrongPassword {
			chance -= 20
		}
		if user.smsBackupVerified() {
			chance -= 15
		}

	case AttackSessionHijacking:
		if user.loginAlertsConfigured() {
			chance -= 25
		}
		if m.SessionManagement {
			chance -= 20
		}
		if user.trustedDevicesConfigured() {
			chance -= 15
		}
		if m.AuthenticatorApp {
			chance -= 10
		}

	case AttackManInTheMiddle:
		if user.trustedDevicesConfigured() {
			chance -= 30
		}
		if m.AuthenticatorApp {
			chance -= 20
		}
		if m.TwoFactorAuth {
			chance -= 10
		}

	case AttackCredentialStuffing:
		if user.vaultStocked() {
			chance -= 25
		}
		if m.AuthenticatorApp {
			chance -= 15
		}
		if m.TwoFactorAuth {
			chance -= 10
		}
		if m.StrongPassword {
			chance -= 5
		}

	case AttackSIMSwap:
		if m.AuthenticatorApp {
			chance -= 40
		}
		if m.TwoFactorAuth {
			chance -= 10
		}

	case AttackMalwareInjection:
		if user.trustedDevicesConfigured() {
			chance -= 30
		}
		if m.AuthenticatorApp {
			chance -= 20
		}
		if m.SessionManagement {
			chance -= 15
		}

	case AttackDNSSpoofing:
		if user.trustedDevicesConfigured() {
			chance -= 25
		}
		if user.loginAlertsConfigured() {
			chance -= 15
		}
		if m.AuthenticatorApp {
			chance -= 10
		}
		if m.EmailVerification {
			chance -= 5
		}

	case AttackZeroDayExploit:
		if m.AuthenticatorApp {
			chance -= 25
		}
		if m.TwoFactorAuth {
			chance -= 20
		}
		if user.ipWhitelistConfigured() {
			chance -= 10
		}
		if m.SessionManagement {
			chance -= 5
		}
	}

	return utils.Clamp(chance, 0, 100)
}
