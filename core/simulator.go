package core

import (
	"math/rand"
	"time"
)

// DefenseProfile is a named defense setup the simulator runs attacks
// against. The profiles are chosen to demonstrate the scoring model's
// tiers, including the hollow-config trap and the immunity end-state.
type DefenseProfile struct {
	Name string
	User CasualUser
}

// DefenseProfiles returns the built-in simulation profiles.
func DefenseProfiles() []DefenseProfile {
	var none CasualUser

	var basics CasualUser
	basics.SecurityMeasures.StrongPassword = true
	basics.SecurityMeasures.TwoFactorAuth = true
	basics.PasswordStrength = 85

	// Every flag on, every configuration hollow. Scores far worse than
	// the flags suggest: config-gated measures earn nothing this way.
	var hollow CasualUser
	for _, m := range AllMeasures {
		hollow.SecurityMeasures.SetEnabled(m, true)
	}

	full := FullyConfiguredUser()

	return []DefenseProfile{
		{Name: "none", User: none},
		{Name: "basics", User: basics},
		{Name: "all flags, hollow config", User: hollow},
		{Name: "fully configured", User: full},
	}
}

// FullyConfiguredUser returns a user in the immunity state: all twelve
// measures on and every completeness predicate satisfied.
func FullyConfiguredUser() CasualUser {
	var u CasualUser
	for _, m := range AllMeasures {
		u.SecurityMeasures.SetEnabled(m, true)
	}
	u.PasswordStrength = 95
	u.SecurityConfig.StrongPassword = StrongPasswordConfig{Strength: 95}
	u.SecurityConfig.IPWhitelist = IPWhitelistConfig{Enabled: true, AllowedIPs: []string{"203.0.113.7"}}
	u.SecurityConfig.TrustedDevices = TrustedDevicesConfig{Devices: []TrustedDevice{
		{ID: "dev-1", Name: "Laptop", Fingerprint: "fp-1", AddedAt: 0},
	}}
	u.SecurityConfig.LoginAlerts = LoginAlertsConfig{EmailAlerts: true}
	u.SecurityConfig.SMSBackup = SMSBackupConfig{PhoneNumber: "5511999990000", Verified: true}
	u.PasswordVault = []VaultEntry{
		{ID: "v-1", Title: "Mail", Password: "x"},
		{ID: "v-2", Title: "Bank", Password: "y"},
		{ID: "v-3", Title: "Forum", Password: "z"},
	}
	return u
}

// SimulationRow is one attack/profile cell of the simulation report.
type SimulationRow struct {
	Profile   string
	Attack    AttackInfo
	Chance    int
	Attempts  int
	Successes int
}

// ObservedRate returns the empirical success fraction in percent.
func (r SimulationRow) ObservedRate() float64 {
	if r.Attempts == 0 {
		return 0
	}
	return float64(r.Successes) / float64(r.Attempts) * 100
}

// RunSimulation resolves `attempts` attacks of every kind against every
// profile through the real resolver, with a seeded RNG and a synthetic
// clock that steps past each cooldown. onAttempt, when non-nil, is
// called once per resolved attempt for progress reporting.
func RunSimulation(attempts int, seed int64, onAttempt func()) ([]SimulationRow, error) {
	rng := rand.New(rand.NewSource(seed))

	base := time.Now()
	tick := 0
	clock := func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}
	resolver := NewResolverWith(clock, func() float64 { return rng.Float64() * 100 })

	var rows []SimulationRow
	for _, profile := range DefenseProfiles() {
		for _, info := range AttackCatalog {
			state := NewGameState()
			state.CasualUser = profile.User

			row := SimulationRow{
				Profile: profile.Name,
				Attack:  info,
				Chance:  SuccessChance(info.ID, profile.User),
			}
			for i := 0; i < attempts; i++ {
				outcome, err := resolver.ExecuteAttack(state, string(info.ID))
				if err != nil {
					return nil, err
				}
				row.Attempts++
				if outcome.Success {
					row.Successes++
				}
				if onAttempt != nil {
					onAttempt()
				}
			}
			rows = append(rows, row)
		}
	}
	return rows, nil
}
