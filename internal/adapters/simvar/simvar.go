// Package simvar reads and writes named simulator variables.
package simvar

import (
	"context"
	"errors"
)

// Variables used to drive the ground-services menu.
const (
	VarMenuOpen   = "L:FSDT_GSX_MENU_OPEN"   // 1 opens, 0 closes
	VarMenuChoice = "L:FSDT_GSX_MENU_CHOICE" // option index, or ChoiceRefresh
	VarOnGround   = "SIM ON GROUND"

	// ChoiceRefresh re-renders the current menu without selecting anything.
	ChoiceRefresh = -2
)

// ErrUnknownVariable is returned when the simulator does not know a name.
var ErrUnknownVariable = errors.New("unknown simulator variable")

// Client is the simulator variable capability. Transport failures wrap
// fault.ErrConnectionLost.
type Client interface {
	Get(ctx context.Context, name string) (float64, error)
	Set(ctx context.Context, name string, value float64) error
	OnGround(ctx context.Context) (bool, error)
}
