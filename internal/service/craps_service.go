package service

import (
	"context"
	"fmt"
	"math"

	"casino-core/internal/core/domain"
	"casino-core/internal/core/ports"
	"casino-core/pkg/apperror"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// crapsState is the session payload: the point, the live bets and the roll
// counter that indexes the seed's sub-draws.
type crapsState struct {
	Point int                   `json:"point"`
	Rolls int                   `json:"rolls"`
	Bets  []ports.CrapsBetState `json:"bets"`
}

// CrapsServiceImpl implements ports.CrapsService. The table session is
// created lazily on the first bet and claimed once no bet is left pending.
type CrapsServiceImpl struct {
	ledger   ports.Ledger
	fair     ports.FairnessEngine
	sessions ports.SessionStore
	accounts ports.AccountRepository
	rules    GameRules
	locks    *keyedMutex
	log      zerolog.Logger
}

// NewCrapsService creates a new CrapsServiceImpl.
func NewCrapsService(ledger ports.Ledger, fair ports.FairnessEngine, sessions ports.SessionStore, accounts ports.AccountRepository, rules GameRules, log zerolog.Logger) *CrapsServiceImpl {
	return &CrapsServiceImpl{
		ledger:   ledger,
		fair:     fair,
		sessions: sessions,
		accounts: accounts,
		rules:    rules,
		locks:    newKeyedMutex(),
		log:      log,
	}
}

// PlaceBet escrows one bet into the account's craps session, creating the
// session on the first bet.
func (s *CrapsServiceImpl) PlaceBet(ctx context.Context, accountID uuid.UUID, bet ports.CrapsBetRequest) (*ports.CrapsView, error) {
	if err := s.rules.ValidateStake(bet.Stake); err != nil {
		return nil, err
	}

	session, err := s.sessions.FindActive(ctx, accountID.String(), domain.GameCraps)
	if err != nil {
		return nil, err
	}

	created := false
	var state crapsState
	if session == nil {
		seed, err := s.fair.NewSeed()
		if err != nil {
			return nil, err
		}
		session = domain.NewGameSession(accountID, domain.GameCraps, 0, seed, s.fair.VerificationHash(seed))
		if err := session.SetState(state); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("encode table: %w", err))
		}
		if err := s.sessions.Create(ctx, session, s.rules.SessionTTL); err != nil {
			return nil, err
		}
		created = true
	} else if err := session.DecodeState(&state); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("decode table: %w", err))
	}

	if err := validateCrapsBet(bet, state.Point); err != nil {
		if created {
			s.releaseEmpty(ctx, session)
		}
		return nil, err
	}

	unlock := s.locks.Lock(session.ID)
	defer unlock()

	balance, err := s.ledger.DebitStake(ctx, accountID, bet.Stake)
	if err != nil {
		if created {
			s.releaseEmpty(ctx, session)
		}
		return nil, err
	}

	state.Bets = append(state.Bets, ports.CrapsBetState{
		ID:     uuid.New().String(),
		Kind:   bet.Kind,
		Target: bet.Target,
		Stake:  bet.Stake,
	})
	// The stake is already escrowed; if the bet cannot be written to the
	// table it must be returned, not dropped.
	if err := session.SetState(state); err != nil {
		s.refundLostBet(ctx, accountID, bet.Stake)
		if created {
			s.releaseEmpty(ctx, session)
		}
		return nil, apperror.InternalError(fmt.Errorf("encode table: %w", err))
	}
	if err := s.sessions.Update(ctx, session); err != nil {
		s.refundLostBet(ctx, accountID, bet.Stake)
		if created {
			s.releaseEmpty(ctx, session)
		}
		return nil, err
	}

	return &ports.CrapsView{
		SessionID:        session.ID,
		Point:            state.Point,
		PendingBets:      state.Bets,
		NewBalance:       balance,
		VerificationHash: session.VerificationHash,
	}, nil
}

// Roll throws the dice, resolves every bet tri-state against the total and
// carries pending bets forward. The session is claimed and the seed revealed
// once nothing is left pending.
func (s *CrapsServiceImpl) Roll(ctx context.Context, accountID uuid.UUID) (*ports.CrapsView, error) {
	session, err := s.sessions.FindActive(ctx, accountID.String(), domain.GameCraps)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, apperror.ErrInvalidSession()
	}

	unlock := s.locks.Lock(session.ID)
	defer unlock()

	// Re-read under the lock: a concurrent roll may have advanced the table.
	session, err = s.sessions.Get(ctx, session.ID)
	if err != nil {
		return nil, err
	}
	if !session.OwnedBy(accountID) {
		return nil, apperror.ErrInvalidSession()
	}

	var state crapsState
	if err := session.DecodeState(&state); err != nil {
		return nil, apperror.InternalError(fmt.Errorf("decode table: %w", err))
	}
	if len(state.Bets) == 0 {
		return nil, apperror.ErrBetNotAvailable("no bets on the table")
	}

	d1 := int(math.Floor(s.fair.RollIndex(session.Seed, state.Rolls*2)*6)) + 1
	d2 := int(math.Floor(s.fair.RollIndex(session.Seed, state.Rolls*2+1)*6)) + 1
	state.Rolls++
	total := d1 + d2
	hard := d1 == d2

	pointAtRoll := state.Point
	resolutions := make([]ports.CrapsResolution, 0, len(state.Bets))
	pending := state.Bets[:0]
	newBalance := int64(-1)

	for _, bet := range state.Bets {
		res := resolveCrapsBet(bet, total, hard, pointAtRoll)
		if res.Status == "pending" {
			pending = append(pending, bet)
			resolutions = append(resolutions, res)
			continue
		}

		balance, err := s.settleBet(ctx, session, bet, res, d1, d2, pointAtRoll)
		if err != nil {
			s.log.Error().Err(err).Str("bet_id", bet.ID).Msg("craps bet settlement failed")
			if _, rerr := s.ledger.Refund(ctx, session.AccountID, bet.Stake, "craps settlement failed"); rerr != nil {
				s.log.Error().Err(rerr).Str("bet_id", bet.ID).Msg("refund failed after settlement failure")
			}
			continue
		}
		newBalance = balance
		resolutions = append(resolutions, res)
	}
	state.Bets = pending

	// Point transitions after resolution.
	if pointAtRoll == 0 {
		switch total {
		case 4, 5, 6, 8, 9, 10:
			state.Point = total
		}
	} else if total == pointAtRoll || total == 7 {
		state.Point = 0
	}

	view := &ports.CrapsView{
		SessionID:        session.ID,
		Dice:             []int{d1, d2},
		Point:            state.Point,
		Resolutions:      resolutions,
		PendingBets:      state.Bets,
		VerificationHash: session.VerificationHash,
	}

	if len(state.Bets) == 0 {
		claimed, err := s.sessions.Claim(ctx, session)
		if err != nil {
			return nil, err
		}
		if !claimed {
			return nil, apperror.ErrInvalidSession()
		}
		view.Seed = session.Seed
	} else {
		if err := session.SetState(state); err != nil {
			return nil, apperror.InternalError(fmt.Errorf("encode table: %w", err))
		}
		if err := s.sessions.Update(ctx, session); err != nil {
			return nil, err
		}
	}

	if newBalance < 0 {
		account, err := s.accounts.GetByID(ctx, accountID)
		if err != nil {
			return nil, apperror.InternalError(fmt.Errorf("read balance: %w", err))
		}
		newBalance = account.Balance
	}
	view.NewBalance = newBalance

	return view, nil
}

// refundLostBet returns an escrowed stake whose bet never made it onto the
// table.
func (s *CrapsServiceImpl) refundLostBet(ctx context.Context, accountID uuid.UUID, stake int64) {
	if _, err := s.ledger.Refund(ctx, accountID, stake, "craps bet placement failed"); err != nil {
		s.log.Error().Err(err).Str("account_id", accountID.String()).Msg("refund failed after bet placement failure")
	}
}

// releaseEmpty claims back a session that was created for a bet that never
// landed on the table.
func (s *CrapsServiceImpl) releaseEmpty(ctx context.Context, session *domain.GameSession) {
	if _, err := s.sessions.Claim(ctx, session); err != nil {
		s.log.Warn().Err(err).Str("session_id", session.ID).Msg("failed to release empty craps session")
	}
}

func (s *CrapsServiceImpl) settleBet(ctx context.Context, session *domain.GameSession, bet ports.CrapsBetState, res ports.CrapsResolution, d1, d2, point int) (int64, error) {
	result := domain.RoundResultLoss
	switch res.Status {
	case "win":
		result = domain.RoundResultWin
	case "push":
		result = domain.RoundResultPush
	}

	settled, err := s.ledger.Settle(ctx, ports.SettleParams{
		AccountID:        session.AccountID,
		GameType:         domain.GameCraps,
		Stake:            bet.Stake,
		DebitStake:       false,
		Payout:           s.rules.CapPayout(res.WinAmount),
		Result:           result,
		Seed:             session.Seed,
		VerificationHash: s.fair.VerificationHash(session.Seed),
		Details: map[string]interface{}{
			"bet":   bet,
			"dice":  []int{d1, d2},
			"point": point,
			"seed":  session.Seed,
		},
	})
	if err != nil {
		return 0, err
	}
	return settled.NewBalance, nil
}

func validateCrapsBet(bet ports.CrapsBetRequest, point int) error {
	switch bet.Kind {
	case "pass", "dont_pass":
		if point != 0 {
			return apperror.ErrBetNotAvailable("line bets only before the point is set")
		}
	case "field":
		// one-roll, no target
	case "proposition":
		switch bet.Target {
		case 2, 3, 7, 11, 12:
		default:
			return apperror.Validation("proposition target must be 2, 3, 7, 11 or 12")
		}
	case "hard_way":
		switch bet.Target {
		case 4, 6, 8, 10:
		default:
			return apperror.Validation("hard way target must be 4, 6, 8 or 10")
		}
	case "place":
		switch bet.Target {
		case 4, 5, 6, 8, 9, 10:
		default:
			return apperror.Validation("place target must be 4, 5, 6, 8, 9 or 10")
		}
	default:
		return apperror.Validation("unknown craps bet kind")
	}
	return nil
}

// resolveCrapsBet maps one bet against a single roll. WinAmount is the total
// credited on a win (stake included); a push returns the stake.
func resolveCrapsBet(bet ports.CrapsBetState, total int, hard bool, point int) ports.CrapsResolution {
	res := ports.CrapsResolution{Bet: bet, Status: "loss"}

	switch bet.Kind {
	case "pass":
		if point == 0 {
			switch total {
			case 7, 11:
				res.Status, res.WinAmount = "win", bet.Stake*2
			case 2, 3, 12:
				// loss
			default:
				res.Status = "pending"
			}
		} else {
			switch total {
			case point:
				res.Status, res.WinAmount = "win", bet.Stake*2
			case 7:
				// loss
			default:
				res.Status = "pending"
			}
		}

	case "dont_pass":
		if point == 0 {
			switch total {
			case 2, 3:
				res.Status, res.WinAmount = "win", bet.Stake*2
			case 12:
				res.Status, res.WinAmount = "push", bet.Stake
			case 7, 11:
				// loss
			default:
				res.Status = "pending"
			}
		} else {
			switch total {
			case 7:
				res.Status, res.WinAmount = "win", bet.Stake*2
			case point:
				// loss
			default:
				res.Status = "pending"
			}
		}

	case "field":
		switch total {
		case 2, 12:
			res.Status, res.WinAmount = "win", bet.Stake*3
		case 3, 4, 9, 10, 11:
			res.Status, res.WinAmount = "win", bet.Stake*2
		}

	case "proposition":
		if total == bet.Target {
			switch total {
			case 2, 12:
				res.Status, res.WinAmount = "win", bet.Stake*30
			case 3, 11:
				res.Status, res.WinAmount = "win", bet.Stake*15
			case 7:
				res.Status, res.WinAmount = "win", bet.Stake*4
			}
		}

	case "hard_way":
		switch {
		case total == bet.Target && hard:
			if bet.Target == 4 || bet.Target == 10 {
				res.Status, res.WinAmount = "win", bet.Stake*7
			} else {
				res.Status, res.WinAmount = "win", bet.Stake*9
			}
		case total == 7 || total == bet.Target:
			// easy way or seven-out: loss
		default:
			res.Status = "pending"
		}

	case "place":
		switch total {
		case bet.Target:
			var num, den int64
			switch bet.Target {
			case 4, 10:
				num, den = 9, 5
			case 5, 9:
				num, den = 7, 5
			default: // 6, 8
				num, den = 7, 6
			}
			res.Status, res.WinAmount = "win", bet.Stake+bet.Stake*num/den
		case 7:
			// loss
		default:
			res.Status = "pending"
		}
	}

	return res
}
