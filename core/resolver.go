package core

import (
	"fmt"
	"math/rand"
	"time"
)

// Resolver turns an attack request into a resolved outcome and the
// resulting state mutations. The clock and the random source are owned
// by the resolver so tests can pin both.
type Resolver struct {
	now func() time.Time
	// roll returns a uniform value in [0,100).
	roll func() float64
}

// NewResolver returns a resolver on the wall clock and a seeded
// math/rand source.
func NewResolver() *Resolver {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Resolver{
		now:  time.Now,
		roll: func() float64 { return rng.Float64() * 100 },
	}
}

// NewResolverWith builds a resolver with an explicit clock and roll
// function, for tests and the offline simulator.
func NewResolverWith(now func() time.Time, roll func() float64) *Resolver {
	return &Resolver{now: now, roll: roll}
}

// AttackOutcome reports what a single resolved attempt did.
type AttackOutcome struct {
	Attack  AttackInfo `json:"attack"`
	Chance  int        `json:"chance"`
	Success bool       `json:"success"`
}

// ExecuteAttack runs one attack attempt against the session state:
// cooldown check, success-chance computation, a single uniform draw,
// then the consequential mutations. The state is untouched when an
// error is returned.
func (r *Resolver) ExecuteAttack(s *GameState, attackID string) (AttackOutcome, error) {
	info, err := LookupAttack(attackID)
	if err != nil {
		return AttackOutcome{}, err
	}

	now := r.now().UnixMilli()
	if expiry, ok := s.Hacker.Cooldowns[info.ID]; ok && expiry > now {
		return AttackOutcome{}, fmt.Errorf("%w: %s for another %dms", ErrAttackOnCooldown, info.ID, expiry-now)
	}

	chance := SuccessChance(info.ID, s.CasualUser)
	success := r.roll() < float64(chance)

	s.Hacker.AttacksAttempted++
	if success {
		s.Hacker.AttacksSuccessful++
		s.compromise()
	}
	s.Hacker.Cooldowns[info.ID] = now + info.Cooldown.Milliseconds()

	s.Notifications = append(s.Notifications, attackNotification(info.ID, s.Hacker.ScenarioCursor))

	// The notification carries the current scenario variant; the cursor
	// advances afterwards, win or lose, so the next launch shows the
	// next narrative.
	if info.ID == AttackSocialEngineering {
		s.Hacker.ScenarioCursor = (s.Hacker.ScenarioCursor + 1) % 3
	}

	outcome := "Failed."
	if success {
		outcome = "Success!"
	}
	s.appendLog(now, ActorHacker,
		fmt.Sprintf("Attack executed: %s", info.Name),
		fmt.Sprintf("%s Success chance: %d%%", outcome, chance))

	return AttackOutcome{Attack: info, Chance: chance, Success: success}, nil
}

// AdvanceAttackFlow updates the hacker-side dialog cursor for one
// attack kind. Presentation state only; no scoring effects.
func (s *GameState) AdvanceAttackFlow(attackID string, step int, tool, command string) error {
	info, err := LookupAttack(attackID)
	if err != nil {
		return err
	}
	flow := s.Hacker.AttackFlows[info.ID]
	flow.Step = step
	flow.Progress = 0
	if tool != "" {
		flow.Tool = tool
	}
	if command != "" {
		flow.Command = command
	}
	s.Hacker.AttackFlows[info.ID] = flow
	return nil
}
