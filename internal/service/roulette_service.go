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

// RouletteServiceImpl implements ports.RouletteService (single-wager mode).
type RouletteServiceImpl struct {
	ledger ports.Ledger
	fair   ports.FairnessEngine
	rules  GameRules
	log    zerolog.Logger
}

// NewRouletteService creates a new RouletteServiceImpl.
func NewRouletteService(ledger ports.Ledger, fair ports.FairnessEngine, rules GameRules, log zerolog.Logger) *RouletteServiceImpl {
	return &RouletteServiceImpl{ledger: ledger, fair: fair, rules: rules, log: log}
}

// Play draws one pocket in [0,36] and resolves the chosen bet against it.
func (s *RouletteServiceImpl) Play(ctx context.Context, accountID uuid.UUID, stake int64, bet ports.RouletteBet) (*ports.RouletteResult, error) {
	if err := s.rules.ValidateStake(stake); err != nil {
		return nil, err
	}
	if err := validateRouletteBet(bet); err != nil {
		return nil, err
	}

	seed, err := s.fair.NewSeed()
	if err != nil {
		return nil, err
	}

	pocket := int(math.Floor(s.fair.Roll(seed) * 37))
	if pocket > 36 {
		pocket = 36
	}

	multiplier := rouletteMultiplier(bet, pocket)
	payout := s.rules.CapPayout(stake * multiplier)

	result := domain.RoundResultLoss
	if payout > 0 {
		result = domain.RoundResultWin
	}

	settled, err := s.ledger.Settle(ctx, ports.SettleParams{
		AccountID:        accountID,
		GameType:         domain.GameRoulette,
		Stake:            stake,
		DebitStake:       true,
		Payout:           payout,
		Result:           result,
		Seed:             seed,
		VerificationHash: s.fair.VerificationHash(seed),
		Details: map[string]interface{}{
			"pocket": pocket,
			"color":  pocketColor(pocket),
			"bet":    bet,
			"seed":   seed,
		},
	})
	if err != nil {
		return nil, err
	}

	return &ports.RouletteResult{
		WagerOutcome: ports.WagerOutcome{
			Result:           result,
			WinAmount:        payout,
			NewBalance:       settled.NewBalance,
			Seed:             seed,
			VerificationHash: settled.Round.VerificationHash,
		},
		Pocket: pocket,
		Color:  pocketColor(pocket),
	}, nil
}

func validateRouletteBet(bet ports.RouletteBet) error {
	switch bet.Kind {
	case "number":
		if bet.Number < 0 || bet.Number > 36 {
			return apperror.Validation("number must be in [0,36]")
		}
	case "color":
		if bet.Choice != "red" && bet.Choice != "black" {
			return apperror.Validation("color must be red or black")
		}
	case "parity":
		if bet.Choice != "even" && bet.Choice != "odd" {
			return apperror.Validation("parity must be even or odd")
		}
	default:
		return apperror.Validation("unknown roulette bet kind")
	}
	return nil
}

// rouletteMultiplier returns the winning multiplier, or 0 on a loss.
// Zero is neither a color nor a parity.
func rouletteMultiplier(bet ports.RouletteBet, pocket int) int64 {
	switch bet.Kind {
	case "number":
		if bet.Number == pocket {
			return 35
		}
	case "color":
		if pocket != 0 && pocketColor(pocket) == bet.Choice {
			return 2
		}
	case "parity":
		if pocket != 0 {
			even := pocket%2 == 0
			if (bet.Choice == "even" && even) || (bet.Choice == "odd" && !even) {
				return 2
			}
		}
	}
	return 0
}

func pocketColor(pocket int) string {
	switch {
	case pocket == 0:
		return "green"
	case domain.IsRed(pocket):
		return "red"
	default:
		return "black"
	}
}
