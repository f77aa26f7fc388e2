package service

import (
	"context"

	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Slot symbols in weight order. The cumulative thresholds below map one
// uniform sub-draw per reel to a symbol.
var slotSymbols = []string{"cherry", "lemon", "orange", "grape", "diamond", "seven", "money"}

var slotThresholds = []float64{0.40, 0.60, 0.75, 0.85, 0.94, 0.99, 1.00}

// slotPaytable maps symbol -> count -> multiplier. The best single payout
// wins; payouts are not summed across symbols.
var slotPaytable = map[string]map[int]int64{
	"cherry":  {3: 5, 4: 20, 5: 100},
	"lemon":   {3: 10, 4: 40, 5: 200},
	"orange":  {3: 15, 4: 60, 5: 300},
	"grape":   {3: 20, 4: 80, 5: 400},
	"diamond": {3: 50, 4: 200, 5: 1000},
	"seven":   {3: 100, 4: 500, 5: 5000},
	"money":   {3: 250, 4: 2500, 5: 10000},
}

// SlotsServiceImpl implements ports.SlotsService.
type SlotsServiceImpl struct {
	ledger ports.Ledger
	fair   ports.FairnessEngine
	rules  GameRules
	log    zerolog.Logger
}

// NewSlotsService creates a new SlotsServiceImpl.
func NewSlotsService(ledger ports.Ledger, fair ports.FairnessEngine, rules GameRules, log zerolog.Logger) *SlotsServiceImpl {
	return &SlotsServiceImpl{ledger: ledger, fair: fair, rules: rules, log: log}
}

// Play spins five reels as independent sub-draws of one seed and settles in
// a single ledger transaction.
func (s *SlotsServiceImpl) Play(ctx context.Context, accountID uuid.UUID, stake int64) (*ports.SlotsResult, error) {
	if err := s.rules.ValidateStake(stake); err != nil {
		return nil, err
	}

	seed, err := s.fair.NewSeed()
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 5)
	for i := 0; i < 5; i++ {
		symbols[i] = symbolFor(s.fair.RollIndex(seed, i))
	}

	multiplier := bestSlotMultiplier(symbols)
	payout := s.rules.CapPayout(stake * multiplier)

	result := domain.RoundResultLoss
	if payout > 0 {
		result = domain.RoundResultWin
	}

	settled, err := s.ledger.Settle(ctx, ports.SettleParams{
		AccountID:        accountID,
		GameType:         domain.GameSlots,
		Stake:            stake,
		DebitStake:       true,
		Payout:           payout,
		Result:           result,
		Seed:             seed,
		VerificationHash: s.fair.VerificationHash(seed),
		Details: map[string]interface{}{
			"symbols":    symbols,
			"multiplier": multiplier,
			"seed":       seed,
		},
	})
	if err != nil {
		return nil, err
	}

	return &ports.SlotsResult{
		WagerOutcome: ports.WagerOutcome{
			Result:           result,
			WinAmount:        payout,
			NewBalance:       settled.NewBalance,
			Seed:             seed,
			VerificationHash: settled.Round.VerificationHash,
		},
		Symbols:    symbols,
		Multiplier: float64(multiplier),
	}, nil
}

func symbolFor(roll float64) string {
	for i, threshold := range slotThresholds {
		if roll < threshold {
			return slotSymbols[i]
		}
	}
	return slotSymbols[len(slotSymbols)-1]
}

// bestSlotMultiplier returns the highest paytable multiplier across symbols
// appearing at least three times.
func bestSlotMultiplier(symbols []string) int64 {
	counts := map[string]int{}
	for _, sym := range symbols {
		counts[sym]++
	}

	var best int64
	for sym, count := range counts {
		if count < 3 {
			continue
		}
		if m, ok := slotPaytable[sym][count]; ok && m > best {
			best = m
		}
	}
	return best
}
