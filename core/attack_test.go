package core

import "testing"

func TestLookupAttack(t *testing.T) {
	info, err := LookupAttack("brute_force")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.BaseChance != 80 {
		t.Errorf("brute_force base chance: expected 80, got %d", info.BaseChance)
	}
	if info.Cooldown.Seconds() != 30 {
		t.Errorf("brute_force cooldown: expected 30s, got %s", info.Cooldown)
	}

	if _, err := LookupAttack("quantum_decryption"); err != ErrAttackNotFound {
		t.Errorf("expected ErrAttackNotFound, got %v", err)
	}
}

func TestSuccessChanceUndefended(t *testing.T) {
	var user CasualUser

	tests := []struct {
		kind Attack
		want int
	}{
		{AttackBruteForce, 80},
		{AttackPasswordLeak, 75},
		{AttackPhishing, 70},
		{AttackSocialEngineering, 65},
		{AttackKeylogger, 60},
		{AttackSessionHijacking, 50},
		{AttackManInTheMiddle, 50},
		{AttackCredentialStuffing, 50},
		{AttackSIMSwap, 50},
		{AttackMalwareInjection, 50},
		{AttackDNSSpoofing, 50},
		{AttackZeroDayExploit, 50},
	}

	for _, tt := range tests {
		if got := SuccessChance(tt.kind, user); got != tt.want {
			t.Errorf("%s undefended: expected %d, got %d", tt.kind, tt.want, got)
		}
	}
}

func TestSuccessChanceBruteForceLayeredDefense(t *testing.T) {
	var user CasualUser
	user.SecurityMeasures.StrongPassword = true
	user.PasswordStrength = 85
	user.SecurityMeasures.TwoFactorAuth = true
	user.SecurityMeasures.AuthenticatorApp = true

	// 80 - 70 - 60 - 40 clamps to 0.
	if got := SuccessChance(AttackBruteForce, user); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestSuccessChanceHollowConfigGetsNoDeduction(t *testing.T) {
	var hollow CasualUser
	hollow.SecurityMeasures.IPWhitelist = true
	hollow.SecurityMeasures.TrustedDevices = true
	hollow.SecurityMeasures.LoginAlerts = true

	// session_hijacking is mitigated only by configured loginAlerts,
	// sessionManagement, configured trustedDevices and authenticatorApp;
	// hollow flags leave the base chance untouched.
	if got := SuccessChance(AttackSessionHijacking, hollow); got != 50 {
		t.Fatalf("hollow configs must not deduct, got %d", got)
	}

	var configured CasualUser
	configured.SecurityMeasures.TrustedDevices = true
	configured.SecurityConfig.TrustedDevices.Devices = []TrustedDevice{
		{ID: "d1", Name: "Phone", Fingerprint: "fp", AddedAt: 1},
	}
	configured.SecurityMeasures.LoginAlerts = true
	configured.SecurityConfig.LoginAlerts.SMSAlerts = true

	if got := SuccessChance(AttackSessionHijacking, configured); got != 10 {
		t.Fatalf("configured deductions should apply: expected 10, got %d", got)
	}
}

func TestSuccessChancePhishingEmailAlertsOnly(t *testing.T) {
	// The phishing deduction keys on the email channel specifically.
	var user CasualUser
	user.SecurityMeasures.LoginAlerts = true
	user.SecurityConfig.LoginAlerts.SMSAlerts = true
	if got := SuccessChance(AttackPhishing, user); got != 70 {
		t.Errorf("sms-only alerts should not deduct from phishing, got %d", got)
	}

	user.SecurityConfig.LoginAlerts.EmailAlerts = true
	if got := SuccessChance(AttackPhishing, user); got != 50 {
		t.Errorf("email alerts should deduct 20 from phishing, got %d", got)
	}
}

func TestSuccessChanceImmunityDeterminism(t *testing.T) {
	user := FullyConfiguredUser()
	if !user.Immune() {
		t.Fatal("fully configured user should be immune")
	}
	for _, info := range AttackCatalog {
		if got := SuccessChance(info.ID, user); got != 0 {
			t.Errorf("%s against immune user: expected exactly 0, got %d", info.ID, got)
		}
	}
}

func TestImmunityRequiresFullConfiguration(t *testing.T) {
	mutations := []struct {
		name   string
		mutate func(u *CasualUser)
	}{
		{"weak password", func(u *CasualUser) { u.PasswordStrength = 79 }},
		{"empty allowlist", func(u *CasualUser) { u.SecurityConfig.IPWhitelist.AllowedIPs = nil }},
		{"no trusted devices", func(u *CasualUser) { u.SecurityConfig.TrustedDevices.Devices = nil }},
		{"no alert channels", func(u *CasualUser) { u.SecurityConfig.LoginAlerts = LoginAlertsConfig{} }},
		{"sms unverified", func(u *CasualUser) { u.SecurityConfig.SMSBackup.Verified = false }},
		{"thin vault", func(u *CasualUser) { u.PasswordVault = u.PasswordVault[:2] }},
		{"one flag off", func(u *CasualUser) { u.SecurityMeasures.BackupEmail = false }},
	}

	for _, tt := range mutations {
		t.Run(tt.name, func(t *testing.T) {
			user := FullyConfiguredUser()
			tt.mutate(&user)
			if user.Immune() {
				t.Fatal("user should not be immune")
			}
		})
	}
}

func TestSuccessChanceBounds(t *testing.T) {
	users := []CasualUser{{}, FullyConfiguredUser()}
	for _, profile := range DefenseProfiles() {
		users = append(users, profile.User)
	}

	for _, user := range users {
		for _, info := range AttackCatalog {
			got := SuccessChance(info.ID, user)
			if got < 0 || got > 100 {
				t.Errorf("%s: chance %d out of [0,100]", info.ID, got)
			}
		}
	}
}
