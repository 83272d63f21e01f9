package judge

import (
	"github.com/tkwin-games/tkwin/internal/bout"
)

type Hat struct {
	X, Y int
}

var (
	HatNeutral = Hat{}
	HatUp      = Hat{X: 0, Y: 1}
	HatRight   = Hat{X: 1, Y: 0}
	HatDown    = Hat{X: 0, Y: -1}
	HatLeft    = Hat{X: -1, Y: 0}
)

type Binding struct {
	Side   bout.Side
	Action bout.Action
}

// Mapping translates controller buttons and hat directions to scoring actions.
type Mapping struct {
	Buttons map[int]Binding
	Hat     map[Hat]Binding
}

// DefaultMapping is the standard layout: the face buttons and right
// triggers score for red, the hat and left triggers score for blue.
func DefaultMapping() Mapping {
	return Mapping{
		Buttons: map[int]Binding{
			0: {Side: bout.SideRed, Action: bout.ActionPoints(1)},
			1: {Side: bout.SideRed, Action: bout.ActionPoints(2)},
			2: {Side: bout.SideRed, Action: bout.ActionPoints(3)},
			3: {Side: bout.SideRed, Action: bout.ActionPoints(4)},
			5: {Side: bout.SideRed, Action: bout.ActionPoints(5)},
			7: {Side: bout.SideRed, Action: bout.ActionGamJeom},
			4: {Side: bout.SideBlue, Action: bout.ActionPoints(5)},
			6: {Side: bout.SideBlue, Action: bout.ActionGamJeom},
		},
		Hat: map[Hat]Binding{
			HatUp:    {Side: bout.SideBlue, Action: bout.ActionPoints(1)},
			HatRight: {Side: bout.SideBlue, Action: bout.ActionPoints(2)},
			HatDown:  {Side: bout.SideBlue, Action: bout.ActionPoints(3)},
			HatLeft:  {Side: bout.SideBlue, Action: bout.ActionPoints(4)},
		},
	}
}
