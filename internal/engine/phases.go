package engine

import (
	"fmt"
	"slices"

	"github.com/mossy-p/dalmuti/internal/apperr"
	"github.com/mossy-p/dalmuti/internal/models"
)

// Command names a player action.
type Command string

const (
	CmdJoin       Command = "joinGame"
	CmdLeave      Command = "leaveGame"
	CmdReady      Command = "ready"
	CmdStart      Command = "startGame"
	CmdSelectRole Command = "selectRole"
	CmdSelectDeck Command = "selectDeck"
	CmdRevolution Command = "selectRevolution"
	CmdPlayCard   Command = "playCard"
	CmdPass       Command = "pass"
	CmdVote       Command = "vote"
)

// allowedPhases is the complete list of phases each command may run in.
// leaveGame is accepted everywhere; outside waiting it abandons the room.
var allowedPhases = map[Command][]models.Phase{
	CmdJoin:       {models.PhaseWaiting},
	CmdReady:      {models.PhaseWaiting},
	CmdStart:      {models.PhaseWaiting},
	CmdSelectRole: {models.PhaseRoleSelection},
	CmdSelectDeck: {models.PhaseCardSelection},
	CmdRevolution: {models.PhaseRevolution},
	CmdPlayCard:   {models.PhasePlaying},
	CmdPass:       {models.PhasePlaying},
	CmdVote:       {models.PhaseGameEnd},
	CmdLeave: {
		models.PhaseWaiting,
		models.PhaseRoleSelection,
		models.PhaseRoleSelectionComplete,
		models.PhaseCardSelection,
		models.PhaseRevolution,
		models.PhaseTax,
		models.PhasePlaying,
		models.PhaseGameEnd,
	},
}

func requirePhase(g *models.Game, cmd Command) error {
	if slices.Contains(allowedPhases[cmd], g.Phase) {
		return nil
	}
	return apperr.New(apperr.CodeWrongPhase, fmt.Sprintf("%s not allowed in phase %s", cmd, g.Phase))
}
