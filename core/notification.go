package core

// NotificationKind discriminates what a notification represents: an
// attack scenario surfaced to the user, a passive alert, or a
// legitimate security-setup confirmation.
type NotificationKind string

const (
	NotifPhishing           NotificationKind = "phishing"
	NotifSocialEngineering  NotificationKind = "social_engineering"
	NotifSuspiciousLogin    NotificationKind = "suspicious_login"
	NotifSecurityAlert      NotificationKind = "security_alert"
	NotifSIMSwap            NotificationKind = "sim_swap"
	NotifMalware            NotificationKind = "malware"
	NotifDNSSpoof           NotificationKind = "dns_spoof"
	NotifCredentialStuffing NotificationKind = "credential_stuffing"
	NotifSessionHijacking   NotificationKind = "session_hijacking"
	NotifMITM               NotificationKind = "mitm"
	NotifTwoFactorConfirm   NotificationKind = "2fa_confirm"
	NotifEmailVerifyConfirm NotificationKind = "email_verify_confirm"
	NotifWeakPassword       NotificationKind = "weak_password_warning"
)

// CTAType tags the call-to-action attached to a notification. The
// confirm_* values are the legitimate self-service confirmations; the
// rest open attack-scenario dialogs.
type CTAType string

const (
	CTAPhishingLearnMore       CTAType = "phishing_learn_more"
	CTASIMSwapAlert            CTAType = "sim_swap_alert"
	CTAMalwarePopup            CTAType = "malware_popup"
	CTADNSSpoofingPage         CTAType = "dns_spoofing_page"
	CTACredentialStuffingAlert CTAType = "credential_stuffing_alert"
	CTASessionHijackingAlert   CTAType = "session_hijacking_alert"
	CTAMITMAlert               CTAType = "mitm_alert"
	CTAConfirm2FA              CTAType = "confirm_2fa"
	CTAConfirmEmail            CTAType = "confirm_email"
	CTAConfirmEmailVerify      CTAType = "confirm_email_verification"
)

// Notification is surfaced to the casual user and resolved at most
// once: IsActive flips false on response, UserFellFor records the
// choice, and the entry stays in history for display.
type Notification struct {
	ID               string           `json:"id"`
	Type             NotificationKind `json:"type"`
	Title            string           `json:"title"`
	Message          string           `json:"message"`
	IsActive         bool             `json:"isActive"`
	RequiresAction   bool             `json:"requiresAction"`
	UserFellFor      *bool            `json:"userFellFor,omitempty"`
	CTALabel         string           `json:"ctaLabel,omitempty"`
	CTAType          CTAType          `json:"ctaType,omitempty"`
	ScenarioIndex    *int             `json:"scenarioIndex,omitempty"`
	PasswordStrength *int             `json:"passwordStrength,omitempty"`
}

func (n Notification) clone() Notification {
	c := n
	if n.UserFellFor != nil {
		v := *n.UserFellFor
		c.UserFellFor = &v
	}
	if n.ScenarioIndex != nil {
		v := *n.ScenarioIndex
		c.ScenarioIndex = &v
	}
	if n.PasswordStrength != nil {
		v := *n.PasswordStrength
		c.PasswordStrength = &v
	}
	return c
}

// attackNotification builds the type-specific notification an attack
// attempt leaves in the user's inbox. social_engineering carries the
// current scenario cursor so the dialog can rotate its narrative.
func attackNotification(kind Attack, scenarioCursor int) Notification {
	n := Notification{ID: newID(), IsActive: true}

	switch kind {
	case AttackPhishing:
		n.Type = NotifPhishing
		n.Title = "New Email Received"
		n.Message = "You won a prize! Click here to claim it now. Confirm your details to receive it."
		n.RequiresAction = true
		n.CTALabel = "Learn More"
		n.CTAType = CTAPhishingLearnMore
	case AttackSocialEngineering:
		n.Type = NotifSocialEngineering
		n.Title = "New Conversation"
		n.Message = "You have a new message. Click to view."
		n.RequiresAction = true
		cursor := scenarioCursor
		n.ScenarioIndex = &cursor
	case AttackBruteForce:
		n.Type = NotifSecurityAlert
		n.Title = "Security Alert"
		n.Message = "Multiple login attempts detected. Your account may be at risk."
	case AttackKeylogger:
		n.Type = NotifSuspiciousLogin
		n.Title = "Automatic Download"
		n.Message = "A program is trying to install itself on your computer. Allow?"
		n.RequiresAction = true
	case AttackPasswordLeak:
		n.Type = NotifSecurityAlert
		n.Title = "Data Breach"
		n.Message = "Your password may have been exposed in a recent data breach. Consider changing it."
	case AttackSIMSwap:
		n.Type = NotifSIMSwap
		n.Title = "SIM Swap Request"
		n.Message = "A SIM card swap request was received for your number."
		n.RequiresAction = true
		n.CTALabel = "Learn More"
		n.CTAType = CTASIMSwapAlert
	case AttackMalwareInjection:
		n.Type = NotifMalware
		n.Title = "Security Warning"
		n.Message = "A suspicious file was detected on your computer."
		n.RequiresAction = true
		n.CTALabel = "Inspect"
		n.CTAType = CTAMalwarePopup
	case AttackDNSSpoofing:
		n.Type = NotifDNSSpoof
		n.Title = "Security Verification"
		n.Message = "Your account requires a security check. Please sign in again."
		n.RequiresAction = true
		n.CTALabel = "Verify Now"
		n.CTAType = CTADNSSpoofingPage
	case AttackCredentialStuffing:
		n.Type = NotifCredentialStuffing
		n.Title = "Suspicious Activity Detected"
		n.Message = "Several unusual login attempts were identified."
		n.RequiresAction = true
		n.CTALabel = "Review"
		n.CTAType = CTACredentialStuffingAlert
	case AttackSessionHijacking:
		n.Type = NotifSessionHijacking
		n.Title = "Login Detected"
		n.Message = "A new login was detected on your account."
		n.RequiresAction = true
		n.CTALabel = "Review"
		n.CTAType = CTASessionHijackingAlert
	case AttackManInTheMiddle:
		n.Type = NotifMITM
		n.Title = "Insecure Network Detected"
		n.Message = "You are connected to a public Wi-Fi network without encryption."
		n.RequiresAction = true
		n.CTALabel = "Continue"
		n.CTAType = CTAMITMAlert
	default:
		// zero_day_exploit and anything unmapped surfaces as a plain
		// security alert rather than falling through silently.
		n.Type = NotifSecurityAlert
		n.Title = "Security Alert"
		n.Message = "Unusual activity was detected on your account."
	}

	return n
}

// attackScenarioKinds are the notification kinds whose acceptance means
// the user fell for an attack dialog. Phishing is excluded here because
// its acceptance path already compromises and counts the attack.
var attackScenarioKinds = map[NotificationKind]bool{
	NotifSIMSwap:            true,
	NotifDNSSpoof:           true,
	NotifMalware:            true,
	NotifCredentialStuffing: true,
	NotifSessionHijacking:   true,
	NotifMITM:               true,
}

// RespondToNotification resolves the user's accept/reject choice on an
// active notification and applies the per-kind consequences. A second
// response to the same notification fails with ErrNotificationNotFound
// and applies nothing.
func (s *GameState) RespondToNotification(notificationID string, accepted bool, now int64) error {
	idx := -1
	for i := range s.Notifications {
		if s.Notifications[i].ID == notificationID && s.Notifications[i].IsActive {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotificationNotFound
	}

	n := &s.Notifications[idx]
	n.IsActive = false
	fell := accepted
	n.UserFellFor = &fell

	if accepted {
		switch {
		case n.Type == NotifPhishing:
			s.compromise()
			s.Hacker.AttacksSuccessful++
		case n.Type == NotifSocialEngineering, n.Type == NotifSuspiciousLogin:
			// The launch already counted this attempt; acceptance only
			// seals the compromise.
			s.compromise()
		case attackScenarioKinds[n.Type]:
			s.compromise()
			s.Hacker.AttacksSuccessful++
		}

		// Legitimate self-service confirmations activate the measure
		// they advertised instead of compromising anything.
		switch n.CTAType {
		case CTAConfirmEmail:
			if s.CasualUser.SecurityConfig.RecoveryEmail.Email != "" {
				s.CasualUser.SecurityMeasures.BackupEmail = true
				s.CasualUser.SecurityConfig.RecoveryEmail.Verified = true
				s.appendLog(now, ActorUser, "Recovery email confirmed",
					s.CasualUser.SecurityConfig.RecoveryEmail.Email)
			}
		case CTAConfirm2FA:
			s.CasualUser.SecurityMeasures.TwoFactorAuth = true
			s.appendLog(now, ActorUser, "Protection enabled", MeasureTwoFactorAuth.DisplayName())
		case CTAConfirmEmailVerify:
			s.CasualUser.SecurityMeasures.EmailVerification = true
			s.appendLog(now, ActorUser, "Protection enabled", MeasureEmailVerification.DisplayName())
		}
	}

	s.VulnerabilityScore = VulnerabilityScore(s.CasualUser)
	return nil
}

// DeleteNotification removes a notification from the list entirely.
// Used by the inbox's dismiss control; resolved history normally stays.
func (s *GameState) DeleteNotification(notificationID string) {
	kept := s.Notifications[:0]
	for _, n := range s.Notifications {
		if n.ID != notificationID {
			kept = append(kept, n)
		}
	}
	s.Notifications = kept
}

// hasActiveCTA reports whether an unresolved notification with the
// given call-to-action already exists, keeping setup confirmations
// idempotent while one is pending.
func (s *GameState) hasActiveCTA(cta CTAType) bool {
	for _, n := range s.Notifications {
		if n.IsActive && n.RequiresAction && n.CTAType == cta {
			return true
		}
	}
	return false
}

// compromise flips the one-way compromised flag. It never resets within
// a round; only a round reset clears it.
func (s *GameState) compromise() {
	s.CasualUser.AccountCompromised = true
}
