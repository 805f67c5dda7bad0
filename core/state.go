package core

import "github.com/google/uuid"

// Measure identifies one of the twelve protective controls the casual
// user can toggle.
type Measure string

const (
	MeasureTwoFactorAuth     Measure = "twoFactorAuth"
	MeasureStrongPassword    Measure = "strongPassword"
	MeasureEmailVerification Measure = "emailVerification"
	MeasureSecurityQuestions Measure = "securityQuestions"
	MeasureBackupEmail       Measure = "backupEmail"
	MeasureAuthenticatorApp  Measure = "authenticatorApp"
	MeasureSMSBackup         Measure = "smsBackup"
	MeasureTrustedDevices    Measure = "trustedDevices"
	MeasureLoginAlerts       Measure = "loginAlerts"
	MeasureSessionManagement Measure = "sessionManagement"
	MeasureIPWhitelist       Measure = "ipWhitelist"
	MeasurePasswordVault     Measure = "passwordVault"
)

// AllMeasures lists every measure in display order.
var AllMeasures = []Measure{
	MeasureTwoFactorAuth,
	MeasureStrongPassword,
	MeasureEmailVerification,
	MeasureSecurityQuestions,
	MeasureBackupEmail,
	MeasureAuthenticatorApp,
	MeasureSMSBackup,
	MeasureTrustedDevices,
	MeasureLoginAlerts,
	MeasureSessionManagement,
	MeasureIPWhitelist,
	MeasurePasswordVault,
}

var measureNames = map[Measure]string{
	MeasureTwoFactorAuth:     "Two-Factor Authentication",
	MeasureStrongPassword:    "Strong Password",
	MeasureEmailVerification: "Email Verification",
	MeasureSecurityQuestions: "Security Questions",
	MeasureBackupEmail:       "Recovery Email",
	MeasureAuthenticatorApp:  "Authenticator App",
	MeasureSMSBackup:         "SMS Backup",
	MeasureTrustedDevices:    "Trusted Devices",
	MeasureLoginAlerts:       "Login Alerts",
	MeasureSessionManagement: "Session Management",
	MeasureIPWhitelist:       "IP Whitelist",
	MeasurePasswordVault:     "Password Vault",
}

// DisplayName returns the human-readable name used in the activity log.
func (m Measure) DisplayName() string {
	if name, ok := measureNames[m]; ok {
		return name
	}
	return string(m)
}

// ParseMeasure validates a measure identifier from a request.
func ParseMeasure(s string) (Measure, error) {
	m := Measure(s)
	if _, ok := measureNames[m]; !ok {
		return "", ErrUnknownMeasure
	}
	return m, nil
}

// SecurityMeasures holds the activation flag for each measure. A flag may
// be true while its configuration is still hollow; the scorer and the
// success calculator gate on config completeness, not the flag alone.
type SecurityMeasures struct {
	TwoFactorAuth     bool `json:"twoFactorAuth"`
	StrongPassword    bool `json:"strongPassword"`
	EmailVerification bool `json:"emailVerification"`
	SecurityQuestions bool `json:"securityQuestions"`
	BackupEmail       bool `json:"backupEmail"`
	AuthenticatorApp  bool `json:"authenticatorApp"`
	SMSBackup         bool `json:"smsBackup"`
	TrustedDevices    bool `json:"trustedDevices"`
	LoginAlerts       bool `json:"loginAlerts"`
	SessionManagement bool `json:"sessionManagement"`
	IPWhitelist       bool `json:"ipWhitelist"`
	PasswordVault     bool `json:"passwordVault"`
}

// Enabled reports whether the flag for m is set.
func (sm SecurityMeasures) Enabled(m Measure) bool {
	switch m {
	case MeasureTwoFactorAuth:
		return sm.TwoFactorAuth
	case MeasureStrongPassword:
		return sm.StrongPassword
	case MeasureEmailVerification:
		return sm.EmailVerification
	case MeasureSecurityQuestions:
		return sm.SecurityQuestions
	case MeasureBackupEmail:
		return sm.BackupEmail
	case MeasureAuthenticatorApp:
		return sm.AuthenticatorApp
	case MeasureSMSBackup:
		return sm.SMSBackup
	case MeasureTrustedDevices:
		return sm.TrustedDevices
	case MeasureLoginAlerts:
		return sm.LoginAlerts
	case MeasureSessionManagement:
		return sm.SessionManagement
	case MeasureIPWhitelist:
		return sm.IPWhitelist
	case MeasurePasswordVault:
		return sm.PasswordVault
	}
	return false
}

// SetEnabled sets the flag for m.
func (sm *SecurityMeasures) SetEnabled(m Measure, enabled bool) {
	switch m {
	case MeasureTwoFactorAuth:
		sm.TwoFactorAuth = enabled
	case MeasureStrongPassword:
		sm.StrongPassword = enabled
	case MeasureEmailVerification:
		sm.EmailVerification = enabled
	case MeasureSecurityQuestions:
		sm.SecurityQuestions = enabled
	case MeasureBackupEmail:
		sm.BackupEmail = enabled
	case MeasureAuthenticatorApp:
		sm.AuthenticatorApp = enabled
	case MeasureSMSBackup:
		sm.SMSBackup = enabled
	case MeasureTrustedDevices:
		sm.TrustedDevices = enabled
	case MeasureLoginAlerts:
		sm.LoginAlerts = enabled
	case MeasureSessionManagement:
		sm.SessionManagement = enabled
	case MeasureIPWhitelist:
		sm.IPWhitelist = enabled
	case MeasurePasswordVault:
		sm.PasswordVault = enabled
	}
}

// AllActive reports whether every one of the twelve flags is on.
func (sm SecurityMeasures) AllActive() bool {
	return sm.TwoFactorAuth && sm.StrongPassword && sm.EmailVerification &&
		sm.SecurityQuestions && sm.BackupEmail && sm.AuthenticatorApp &&
		sm.SMSBackup && sm.TrustedDevices && sm.LoginAlerts &&
		sm.SessionManagement && sm.IPWhitelist && sm.PasswordVault
}

// TrustedDevice is one entry in the trusted-device list.
type TrustedDevice struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Fingerprint string `json:"fingerprint"`
	AddedAt     int64  `json:"addedAt"`
}

// ActiveSession is one entry in the session-management list.
type ActiveSession struct {
	ID         string `json:"id"`
	DeviceName string `json:"deviceName"`
	Location   string `json:"location"`
	LastActive int64  `json:"lastActive"`
}

type StrongPasswordConfig struct {
	Password string `json:"password,omitempty"`
	Strength int    `json:"strength"`
}

type SecurityQuestionConfig struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer,omitempty"`
}

type RecoveryEmailConfig struct {
	Email    string `json:"email,omitempty"`
	Verified bool   `json:"verified"`
}

type AuthenticatorAppConfig struct {
	Secret        string   `json:"secret,omitempty"`
	RecoveryCodes []string `json:"recoveryCodes,omitempty"`
}

type SMSBackupConfig struct {
	PhoneNumber string `json:"phoneNumber,omitempty"`
	Verified    bool   `json:"verified"`
}

type TrustedDevicesConfig struct {
	Devices []TrustedDevice `json:"devices"`
}

type LoginAlertsConfig struct {
	EmailAlerts       bool `json:"emailAlerts"`
	SMSAlerts         bool `json:"smsAlerts"`
	NewLocationAlerts bool `json:"newLocationAlerts"`
}

type SessionManagementConfig struct {
	MaxSessions       int             `json:"maxSessions"`
	AutoLogoutMinutes int             `json:"autoLogoutMinutes"`
	ActiveSessions    []ActiveSession `json:"activeSessions"`
}

type IPWhitelistConfig struct {
	Enabled    bool     `json:"enabled"`
	AllowedIPs []string `json:"allowedIPs"`
}

// SecurityConfig carries the structured configuration for measures that
// need detail beyond the flag. Zero values mean "not configured yet".
type SecurityConfig struct {
	StrongPassword    StrongPasswordConfig    `json:"strongPassword"`
	SecurityQuestion  SecurityQuestionConfig  `json:"securityQuestion"`
	RecoveryEmail     RecoveryEmailConfig     `json:"recoveryEmail"`
	AuthenticatorApp  AuthenticatorAppConfig  `json:"authenticatorApp"`
	SMSBackup         SMSBackupConfig         `json:"smsBackup"`
	TrustedDevices    TrustedDevicesConfig    `json:"trustedDevices"`
	LoginAlerts       LoginAlertsConfig       `json:"loginAlerts"`
	SessionManagement SessionManagementConfig `json:"sessionManagement"`
	IPWhitelist       IPWhitelistConfig       `json:"ipWhitelist"`
}

// VaultEntry is one stored credential in the password vault.
type VaultEntry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Website   string `json:"website,omitempty"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password"`
	CreatedAt int64  `json:"createdAt"`
	Category  string `json:"category,omitempty"`
}

// SetupFlowState tracks the cursor of one security-setup wizard.
type SetupFlowState struct {
	Step      int    `json:"step"`
	Method    string `json:"method,omitempty"`
	Code      string `json:"code,omitempty"`
	Completed bool   `json:"completed"`
}

// SetupFlows holds the wizard cursors for the guided setup dialogs.
type SetupFlows struct {
	TwoFactorAuth     SetupFlowState `json:"twoFactorAuth"`
	SecurityQuestions SetupFlowState `json:"securityQuestions"`
	BackupEmail       SetupFlowState `json:"backupEmail"`
}

// CasualUser is the defending persona: profile, measures, configuration
// and the one-way compromise flag. The account password is kept only as
// a bcrypt hash; its strength is derived once when set and stored.
type CasualUser struct {
	Name                string           `json:"name,omitempty"`
	Email               string           `json:"email,omitempty"`
	PasswordHash        string           `json:"passwordHash,omitempty"`
	PasswordStrength    int              `json:"passwordStrength"`
	AccountCreated      bool             `json:"accountCreated"`
	AccountCreationStep int              `json:"accountCreationStep"`
	SecurityMeasures    SecurityMeasures `json:"securityMeasures"`
	SecuritySetupFlows  SetupFlows       `json:"securitySetupFlows"`
	SecurityConfig      SecurityConfig   `json:"securityConfig"`
	PasswordVault       []VaultEntry     `json:"passwordVault"`
	AccountCompromised  bool             `json:"accountCompromised"`
}

// AttackFlow tracks the cursor of a multi-step attack dialog on the
// hacker side. Purely presentational state.
type AttackFlow struct {
	Step     int    `json:"step"`
	Tool     string `json:"tool,omitempty"`
	Command  string `json:"command,omitempty"`
	Progress int    `json:"progress"`
}

// HackerState is the attacking persona's bookkeeping.
type HackerState struct {
	AttacksAttempted  int                   `json:"attacksAttempted"`
	AttacksSuccessful int                   `json:"attacksSuccessful"`
	Cooldowns         map[Attack]int64      `json:"cooldowns"`
	AttackFlows       map[Attack]AttackFlow `json:"attackFlows"`
	ScenarioCursor    int                   `json:"socialEngineeringScenarioCursor"`
}

// ActivityEntry is one immutable line of the audit log. Entries are only
// ever appended, never edited or removed.
type ActivityEntry struct {
	ID        string `json:"id"`
	Timestamp int64  `json:"timestamp"`
	Actor     Actor  `json:"actor"`
	Action    string `json:"action"`
	Detail    string `json:"detail,omitempty"`
}

// Actor says who caused an activity-log entry.
type Actor string

const (
	ActorUser   Actor = "user"
	ActorHacker Actor = "hacker"
	ActorSystem Actor = "system"
)

// GameState is the whole per-session document. One instance per session,
// serialized as JSON by the session store.
type GameState struct {
	CasualUser         CasualUser      `json:"casualUser"`
	Hacker             HackerState     `json:"hacker"`
	Notifications      []Notification  `json:"notifications"`
	VulnerabilityScore int             `json:"vulnerabilityScore"`
	GameStarted        bool            `json:"gameStarted"`
	TutorialCompleted  bool            `json:"tutorialCompleted"`
	RoundID            int             `json:"roundId"`
	ActivityLog        []ActivityEntry `json:"activityLog"`
}

// NewGameState returns the default state for a fresh round: no measures,
// full vulnerability, empty log.
func NewGameState() *GameState {
	return &GameState{
		Hacker: HackerState{
			Cooldowns:   make(map[Attack]int64),
			AttackFlows: make(map[Attack]AttackFlow),
		},
		Notifications:      []Notification{},
		VulnerabilityScore: 100,
		ActivityLog:        []ActivityEntry{},
	}
}

// Clone returns a deep copy. Stores hand out clones so callers can
// mutate freely and commit the whole document at once.
func (s *GameState) Clone() *GameState {
	c := *s

	c.CasualUser.PasswordVault = append([]VaultEntry(nil), s.CasualUser.PasswordVault...)
	c.CasualUser.SecurityConfig.TrustedDevices.Devices =
		append([]TrustedDevice(nil), s.CasualUser.SecurityConfig.TrustedDevices.Devices...)
	c.CasualUser.SecurityConfig.SessionManagement.ActiveSessions =
		append([]ActiveSession(nil), s.CasualUser.SecurityConfig.SessionManagement.ActiveSessions...)
	c.CasualUser.SecurityConfig.IPWhitelist.AllowedIPs =
		append([]string(nil), s.CasualUser.SecurityConfig.IPWhitelist.AllowedIPs...)
	c.CasualUser.SecurityConfig.AuthenticatorApp.RecoveryCodes =
		append([]string(nil), s.CasualUser.SecurityConfig.AuthenticatorApp.RecoveryCodes...)

	c.Hacker.Cooldowns = make(map[Attack]int64, len(s.Hacker.Cooldowns))
	for k, v := range s.Hacker.Cooldowns {
		c.Hacker.Cooldowns[k] = v
	}
	c.Hacker.AttackFlows = make(map[Attack]AttackFlow, len(s.Hacker.AttackFlows))
	for k, v := range s.Hacker.AttackFlows {
		c.Hacker.AttackFlows[k] = v
	}

	c.Notifications = make([]Notification, len(s.Notifications))
	for i, n := range s.Notifications {
		c.Notifications[i] = n.clone()
	}
	c.ActivityLog = append([]ActivityEntry(nil), s.ActivityLog...)

	return &c
}

func newID() string {
	return uuid.NewString()
}
