package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/breachsim/breachsim/utils"
)

// APIServer exposes the game engine over HTTP. Each request is scoped
// to a cookie-identified session; all read-modify-write cycles run
// under a per-session lock so concurrent requests cannot lose updates.
type APIServer struct {
	logger   *utils.Logger
	config   utils.Config
	store    SessionStore
	resolver *Resolver
	feed     *EventFeed
	router   *mux.Router
	locks    sync.Map // session id -> *sync.Mutex
}

func NewAPIServer(logger *utils.Logger, config utils.Config, store SessionStore, resolver *Resolver, feed *EventFeed) *APIServer {
	server := &APIServer{
		logger:   logger,
		config:   config,
		store:    store,
		resolver: resolver,
		feed:     feed,
		router:   mux.NewRouter(),
	}

	server.setupRoutes()
	return server
}

func (s *APIServer) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	// Game lifecycle
	api.HandleFunc("/game/state", s.getGameState).Methods("GET")
	api.HandleFunc("/game/start", s.startGame).Methods("POST")
	api.HandleFunc("/game/reset", s.resetGame).Methods("POST")
	api.HandleFunc("/tutorial/complete", s.completeTutorial).Methods("POST")

	// Casual user: account and protections
	api.HandleFunc("/account/create", s.createAccount).Methods("POST")
	api.HandleFunc("/account/step", s.accountStep).Methods("POST")
	api.HandleFunc("/security/update", s.updateSecurity).Methods("POST")
	api.HandleFunc("/security/configure", s.configureSecurity).Methods("POST")
	api.HandleFunc("/security/strong-password", s.setStrongPassword).Methods("POST")
	api.HandleFunc("/security/question", s.setSecurityQuestion).Methods("POST")
	api.HandleFunc("/security/two-factor", s.requestTwoFactor).Methods("POST")
	api.HandleFunc("/security/email-verification", s.requestEmailVerification).Methods("POST")
	api.HandleFunc("/security/recovery-email", s.setRecoveryEmail).Methods("POST")
	api.HandleFunc("/security/flow", s.securityFlowStep).Methods("POST")

	// Password vault
	api.HandleFunc("/passwords/save", s.savePassword).Methods("POST")
	api.HandleFunc("/passwords/delete", s.deletePassword).Methods("POST")
	api.HandleFunc("/passwords/generate", s.generatePassword).Methods("POST")

	// Hacker side
	api.HandleFunc("/attacks", s.listAttacks).Methods("GET")
	api.HandleFunc("/attack/execute", s.executeAttack).Methods("POST")
	api.HandleFunc("/attack/step", s.attackStep).Methods("POST")

	// Notifications
	api.HandleFunc("/notification/respond", s.respondToNotification).Methods("POST")
	api.HandleFunc("/notification/delete", s.deleteNotification).Methods("POST")

	// Live event feed
	api.HandleFunc("/events/ws", s.feed.HandleConnections)

	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir("./static/")))
}

func (s *APIServer) Start(addr string) error {
	s.logger.Info("Starting API server on %s", addr)
	return http.ListenAndServe(addr, s.router)
}

// sessionID returns the caller's session id, minting a new cookie for
// first-time visitors.
func (s *APIServer) sessionID(w http.ResponseWriter, r *http.Request) string {
	cookie, err := r.Cookie(s.config.Session.CookieName)
	if err == nil && cookie.Value != "" {
		return cookie.Value
	}

	id := uuid.NewString()
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.Session.CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		MaxAge:   s.config.Session.TTLMinutes * 60,
	})
	return id
}

func (s *APIServer) sessionLock(sessionID string) *sync.Mutex {
	lock, _ := s.locks.LoadOrStore(sessionID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// withSession runs mutate against the caller's state under the
// per-session lock. The state is only saved, and only responded with,
// when mutate returns nil; an error aborts before any commit. Every
// committed mutation is announced on the event feed.
func (s *APIServer) withSession(w http.ResponseWriter, r *http.Request, mutate func(state *GameState) error) {
	sessionID := s.sessionID(w, r)

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.store.Load(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("Failed to load session %s: %v", sessionID, err)
		s.respondWithError(w, http.StatusInternalServerError, "failed to load game state")
		return
	}

	if err := mutate(state); err != nil {
		s.respondWithEngineError(w, err)
		return
	}

	if err := s.store.Save(r.Context(), sessionID, state); err != nil {
		s.logger.Error("Failed to save session %s: %v", sessionID, err)
		s.respondWithError(w, http.StatusInternalServerError, "failed to save game state")
		return
	}

	s.feed.Broadcast(GameEvent{Type: EventStateUpdated, Payload: map[string]interface{}{
		"vulnerabilityScore": state.VulnerabilityScore,
		"accountCompromised": state.CasualUser.AccountCompromised,
		"roundId":            state.RoundID,
	}})

	s.respondWithJSON(w, http.StatusOK, state)
}

// readSession responds with the caller's state without committing or
// announcing anything.
func (s *APIServer) readSession(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(w, r)

	lock := s.sessionLock(sessionID)
	lock.Lock()
	defer lock.Unlock()

	state, err := s.store.Load(r.Context(), sessionID)
	if err != nil {
		s.logger.Error("Failed to load session %s: %v", sessionID, err)
		s.respondWithError(w, http.StatusInternalServerError, "failed to load game state")
		return
	}

	s.respondWithJSON(w, http.StatusOK, state)
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

func (s *APIServer) getGameState(w http.ResponseWriter, r *http.Request) {
	s.readSession(w, r)
}

func (s *APIServer) startGame(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(state *GameState) error {
		state.StartRound()
		s.feed.Broadcast(GameEvent{Type: EventRoundStarted, Payload: map[string]interface{}{
			"roundId": state.RoundID,
		}})
		return nil
	})
}

func (s *APIServer) resetGame(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(state *GameState) error {
		state.ResetRound()
		return nil
	})
}

func (s *APIServer) completeTutorial(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(state *GameState) error {
		state.TutorialCompleted = true
		return nil
	})
}

func (s *APIServer) createAccount(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(state *GameState) error {
		_, err := state.CreateAccount(request.Name, request.Email, request.Password, nowMillis())
		return err
	})
}

func (s *APIServer) accountStep(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Step int `json:"step"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(state *GameState) error {
		state.SetAccountStep(request.Step)
		return nil
	})
}

func (s *APIServer) updateSecurity(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Measure string `json:"measure"`
		Enabled bool   `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(state *GameState) error {
		return state.UpdateMeasure(request.Measure, request.Enabled, nowMillis())
	})
}

// configureSecurity dispatches the discriminated configure request to
// the typed per-measure update. List-valued configs (trusted devices,
// allowed IPs) merge additively, deduplicated by key.
func (s *APIServer) configureSecurity(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Measure string          `json:"measure"`
		Config  json.RawMessage `json:"config"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || len(request.Config) == 0 {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	measure, err := ParseMeasure(request.Measure)
	if err != nil {
		s.respondWithEngineError(w, err)
		return
	}

	s.withSession(w, r, func(state *GameState) error {
		now := nowMillis()
		switch measure {
		case MeasureStrongPassword:
			var cfg struct {
				Password string `json:"password"`
			}
			if err := json.Unmarshal(request.Config, &cfg); err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			_, err := state.SetStrongPassword(cfg.Password, now)
			return err
		case MeasureAuthenticatorApp:
			var cfg AuthenticatorAppConfig
			if err := json.Unmarshal(request.Config, &cfg); err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			if cfg.Secret == "" || len(cfg.RecoveryCodes) < 4 {
				return fmt.Errorf("%w: authenticator secret and at least 4 recovery codes required", ErrValidation)
			}
			state.ConfigureAuthenticatorApp(cfg, now)
			return nil
		case MeasureSMSBackup:
			var cfg SMSBackupConfig
			if err := json.Unmarshal(request.Config, &cfg); err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			if len(cfg.PhoneNumber) < 10 {
				return fmt.Errorf("%w: phone number must have at least 10 digits", ErrValidation)
			}
			state.ConfigureSMSBackup(cfg, now)
			return nil
		case MeasureTrustedDevices:
			var cfg TrustedDevicesConfig
			if err := json.Unmarshal(request.Config, &cfg); err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			state.ConfigureTrustedDevices(cfg.Devices, now)
			return nil
		case MeasureLoginAlerts:
			var cfg LoginAlertsConfig
			if err := json.Unmarshal(request.Config, &cfg); err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			state.ConfigureLoginAlerts(cfg, now)
			return nil
		case MeasureSessionManagement:
			var cfg SessionManagementConfig
			if err := json.Unmarshal(request.Config, &cfg); err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			if cfg.MaxSessions < 1 || cfg.MaxSessions > 10 || cfg.AutoLogoutMinutes < 5 || cfg.AutoLogoutMinutes > 120 {
				return fmt.Errorf("%w: maxSessions 1-10 and autoLogoutMinutes 5-120", ErrValidation)
			}
			state.ConfigureSessionManagement(cfg, now)
			return nil
		case MeasureIPWhitelist:
			var cfg IPWhitelistConfig
			if err := json.Unmarshal(request.Config, &cfg); err != nil {
				return fmt.Errorf("%w: %v", ErrValidation, err)
			}
			state.ConfigureIPWhitelist(cfg.Enabled, cfg.AllowedIPs, now)
			return nil
		default:
			return fmt.Errorf("%w: measure %q takes no structured configuration", ErrValidation, measure)
		}
	})
}

func (s *APIServer) setStrongPassword(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(state *GameState) error {
		_, err := state.SetStrongPassword(request.Password, nowMillis())
		return err
	})
}

func (s *APIServer) setSecurityQuestion(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(state *GameState) error {
		return state.SetSecurityQuestion(request.Question, request.Answer, nowMillis())
	})
}

func (s *APIServer) requestTwoFactor(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(state *GameState) error {
		state.RequestTwoFactor()
		return nil
	})
}

func (s *APIServer) requestEmailVerification(w http.ResponseWriter, r *http.Request) {
	s.withSession(w, r, func(state *GameState) error {
		state.RequestEmailVerification()
		return nil
	})
}

func (s *APIServer) setRecoveryEmail(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(state *GameState) error {
		return state.SetRecoveryEmail(request.Email)
	})
}

func (s *APIServer) securityFlowStep(w http.ResponseWriter, r *http.Request) {
	var request struct {
		FlowType  string `json:"flowType"`
		Step      int    `json:"step"`
		Method    string `json:"method"`
		Completed bool   `json:"completed"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(state *GameState) error {
		return state.AdvanceSetupFlow(request.FlowType, request.Step, request.Method, request.Completed)
	})
}

func (s *APIServer) savePassword(w http.ResponseWriter, r *http.Request) {
	var request struct {
		Title    string `json:"title"`
		Website  string `json:"website"`
		Username string `json:"username"`
		Password string `json:"password"`
		Category string `json:"category"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(state *GameState) error {
		_, err := state.SaveVaultEntry(request.Title, request.Website, request.Username,
			request.Password, request.Category, nowMillis())
		return err
	})
}

func (s *APIServer) deletePassword(w http.ResponseWriter, r *http.Request) {
	var request struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.ID == "" {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(state *GameState) error {
		return state.DeleteVaultEntry(request.ID, nowMillis())
	})
}

func (s *APIServer) generatePassword(w http.ResponseWriter, r *http.Request) {
	request := struct {
		Length         int   `json:"length"`
		IncludeSymbols *bool `json:"includeSymbols"`
		IncludeNumbers *bool `json:"includeNumbers"`
	}{Length: 16}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	symbols := request.IncludeSymbols == nil || *request.IncludeSymbols
	numbers := request.IncludeNumbers == nil || *request.IncludeNumbers
	password := GeneratePassword(request.Length, numbers, symbols)

	s.respondWithJSON(w, http.StatusOK, map[string]string{"password": password})
}

func (s *APIServer) listAttacks(w http.ResponseWriter, r *http.Request) {
	s.respondWithJSON(w, http.StatusOK, AttackCatalog)
}

func (s *APIServer) executeAttack(w http.ResponseWriter, r *http.Request) {
	var request struct {
		AttackID string `json:"attackId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.AttackID == "" {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(state *GameState) error {
		outcome, err := s.resolver.ExecuteAttack(state, request.AttackID)
		if err != nil {
			return err
		}

		s.logger.Info("Attack %s resolved: success=%t chance=%d%%",
			outcome.Attack.ID, outcome.Success, outcome.Chance)
		s.feed.Broadcast(GameEvent{Type: EventAttackExecuted, Payload: outcome})
		return nil
	})
}

func (s *APIServer) attackStep(w http.ResponseWriter, r *http.Request) {
	var request struct {
		AttackID string `json:"attackId"`
		Step     int    `json:"step"`
		Tool     string `json:"tool"`
		Command  string `json:"command"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.AttackID == "" {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(state *GameState) error {
		return state.AdvanceAttackFlow(request.AttackID, request.Step, request.Tool, request.Command)
	})
}

func (s *APIServer) respondToNotification(w http.ResponseWriter, r *http.Request) {
	var request struct {
		NotificationID string `json:"notificationId"`
		Accepted       bool   `json:"accepted"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.NotificationID == "" {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(state *GameState) error {
		return state.RespondToNotification(request.NotificationID, request.Accepted, nowMillis())
	})
}

func (s *APIServer) deleteNotification(w http.ResponseWriter, r *http.Request) {
	var request struct {
		NotificationID string `json:"notificationId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil || request.NotificationID == "" {
		s.respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	s.withSession(w, r, func(state *GameState) error {
		state.DeleteNotification(request.NotificationID)
		return nil
	})
}

// respondWithEngineError maps the engine's error taxonomy onto HTTP:
// validation 400, unknown ids 404, cooldown 409.
func (s *APIServer) respondWithEngineError(w http.ResponseWriter, err error) {
	var status int
	switch {
	case errors.Is(err, ErrValidation), errors.Is(err, ErrUnknownMeasure):
		status = http.StatusBadRequest
	case errors.Is(err, ErrAttackNotFound), errors.Is(err, ErrNotificationNotFound), errors.Is(err, ErrVaultEntryNotFound):
		status = http.StatusNotFound
	case errors.Is(err, ErrAttackOnCooldown):
		status = http.StatusConflict
	default:
		s.logger.Error("Unhandled engine error: %v", err)
		status = http.StatusInternalServerError
	}
	s.respondWithError(w, status, err.Error())
}

func (s *APIServer) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func (s *APIServer) respondWithError(w http.ResponseWriter, code int, message string) {
	s.respondWithJSON(w, code, map[string]string{"error": message})
}
