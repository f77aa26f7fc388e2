package service

import (
	"context"
	"math"

	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DiceServiceImpl implements ports.DiceService.
type DiceServiceImpl struct {
	ledger ports.Ledger
	fair   ports.FairnessEngine
	rules  GameRules
	log    zerolog.Logger
}

// NewDiceService creates a new DiceServiceImpl.
func NewDiceService(ledger ports.Ledger, fair ports.FairnessEngine, rules GameRules, log zerolog.Logger) *DiceServiceImpl {
	return &DiceServiceImpl{ledger: ledger, fair: fair, rules: rules, log: log}
}

// Play rolls 1-100 against a roll-under or roll-over target. The multiplier
// follows directly from the win probability minus the house edge.
func (s *DiceServiceImpl) Play(ctx context.Context, accountID uuid.UUID, stake int64, target int, mode string) (*ports.DiceResult, error) {
	if err := s.rules.ValidateStake(stake); err != nil {
		return nil, err
	}
	if target < 2 || target > 98 {
		return nil, apperror.Validation("target must be in [2,98]")
	}
	if mode != "under" && mode != "over" {
		return nil, apperror.Validation("mode must be under or over")
	}

	seed, err := s.fair.NewSeed()
	if err != nil {
		return nil, err
	}

	roll := int(math.Floor(s.fair.Roll(seed)*100)) + 1

	var win bool
	var multiplier float64
	if mode == "under" {
		win = roll < target
		multiplier = (100 - 100*s.rules.HouseEdge) / float64(target)
	} else {
		win = roll > target
		multiplier = (100 - 100*s.rules.HouseEdge) / float64(100-target)
	}
	multiplier = math.Min(multiplier, s.rules.MaxMultiplier)

	var payout int64
	result := domain.RoundResultLoss
	if win {
		payout = s.rules.CapPayout(int64(math.Floor(float64(stake) * multiplier)))
		result = domain.RoundResultWin
	}

	settled, err := s.ledger.Settle(ctx, ports.SettleParams{
		AccountID:        accountID,
		GameType:         domain.GameDice,
		Stake:            stake,
		DebitStake:       true,
		Payout:           payout,
		Result:           result,
		Seed:             seed,
		VerificationHash: s.fair.VerificationHash(seed),
		Details: map[string]interface{}{
			"roll":       roll,
			"target":     target,
			"mode":       mode,
			"multiplier": math.Floor(multiplier*10000) / 10000,
			"seed":       seed,
		},
	})
	if err != nil {
		return nil, err
	}

	return &ports.DiceResult{
		WagerOutcome: ports.WagerOutcome{
			Result:           result,
			WinAmount:        payout,
			NewBalance:       settled.NewBalance,
			Seed:             seed,
			VerificationHash: settled.Round.VerificationHash,
		},
		Roll:       roll,
		Target:     target,
		Mode:       mode,
		Multiplier: multiplier,
	}, nil
}
