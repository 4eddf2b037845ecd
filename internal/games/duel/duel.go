// Package duel это встроенная минимальная игра: у каждого из двух игроков
// пешка на линейной дорожке, побеждает первая дошедшая до конца. Контента
// ровно столько, чтобы прогнать ядро целиком: таблица действий, ордер
// runTurn, первичное и вторичное условия победы.
package duel

import (
	"fmt"

	"github.com/siggame/Cerveau-sub002/internal/gameobject"
	"github.com/siggame/Cerveau-sub002/internal/sanitize"
	"github.com/siggame/Cerveau-sub002/internal/settings"
)

// Pawn это пешка одного игрока на дорожке.
type Pawn struct {
	gameobject.GameObject

	Owner    *gameobject.Player
	Position int64
}

func NewPawn(g *gameobject.Game, owner *gameobject.Player) *Pawn {
	p := &Pawn{Owner: owner}
	g.Track("Pawn", p, &p.GameObject)
	return p
}

func (p *Pawn) Snapshot() map[string]any {
	snap := p.BaseSnapshot()
	snap["owner"] = gameobject.Ref(p.Owner)
	snap["position"] = p.Position
	return snap
}

// Def собирает свежее определение игры. Замыкания хуков держат состояние
// одной партии, поэтому экземпляр нельзя разделять между сессиями.
func Def() *gameobject.GameDef {
	var (
		trackLength int64
		pawns       []*Pawn
		advanced    bool
	)

	pawnOf := func(player *gameobject.Player) *Pawn {
		for _, p := range pawns {
			if p.Owner == player {
				return p
			}
		}
		return nil
	}
	_ = pawnOf

	return &gameobject.GameDef{
		Name:        "duel",
		PlayerCount: 2,

		Schema: settings.Schema{
			"trackLength": {
				Default:     int64(12),
				Description: "Number of cells on the track; a pawn on the last cell wins.",
				Min:         settings.Bound(2),
			},
		},

		Orders: map[string]gameobject.OrderDef{
			"runTurn": {
				Returns: sanitize.Boolean(),
			},
		},

		Actions: map[string]map[string]gameobject.Action{
			"Pawn": {
				"advance": {
					Args: []gameobject.Arg{
						{Name: "steps", Type: sanitize.Int()},
					},
					Returns: sanitize.Boolean(),
					Validate: func(player *gameobject.Player, caller gameobject.Object, args []any) *gameobject.Invalidation {
						pawn, ok := caller.(*Pawn)
						if !ok {
							return &gameobject.Invalidation{Reason: "advance must be run on a Pawn."}
						}
						if pawn.Owner != player {
							return &gameobject.Invalidation{Reason: "You can only advance your own pawn."}
						}
						if advanced {
							return &gameobject.Invalidation{Reason: "Your pawn has already advanced this turn."}
						}
						steps := args[0].(int64)
						if steps < 1 || steps > 3 {
							return &gameobject.Invalidation{Reason: fmt.Sprintf("Cannot advance %d cells: steps must be between 1 and 3.", steps)}
						}
						return nil
					},
					Execute: func(player *gameobject.Player, caller gameobject.Object, args []any) any {
						pawn := caller.(*Pawn)
						pawn.Position += args[0].(int64)
						if pawn.Position > trackLength-1 {
							pawn.Position = trackLength - 1
						}
						advanced = true
						return true
					},
				},
			},
		},

		Build: func(g *gameobject.Game) error {
			trackLength = g.Settings["trackLength"].(int64)
			for _, player := range g.Players {
				pawns = append(pawns, NewPawn(g, player))
			}
			return nil
		},

		BeforeTurn: func(g *gameobject.Game) {
			advanced = false
		},

		CheckWin: func(g *gameobject.Game, d gameobject.Decider) {
			for _, p := range pawns {
				if p.Position >= trackLength-1 {
					d.DeclareWinner(p.Owner, "Reached the end of the track.")
					return
				}
			}
		},

		SecondaryWin: func(g *gameobject.Game, d gameobject.Decider, reason string) {
			var best *Pawn
			tie := false
			for _, p := range pawns {
				switch {
				case best == nil || p.Position > best.Position:
					best, tie = p, false
				case p.Position == best.Position:
					tie = true
				}
			}
			// при равенстве позиции исход разыгрывает монета
			if best != nil && !tie {
				d.DeclareWinner(best.Owner, reason+" Your pawn was the furthest along the track.")
			}
		},
	}
}
