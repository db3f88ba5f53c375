// Package command parses the chat layer's structured callbacks
// ("action;arg1;arg2") into a closed set of typed commands, once, at
// the boundary.
package command

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var (
	// ErrUnknownCommand is returned for an unrecognized action.
	ErrUnknownCommand = errors.New("unknown command")

	// ErrMalformedCommand is returned when an action is missing or has
	// untypeable arguments.
	ErrMalformedCommand = errors.New("malformed command")
)

// Command is one of the tagged variants below.
type Command interface{ isCommand() }

// ViewAreas shows the area menu.
type ViewAreas struct{}

// ViewVillages lists the villages of one area partition.
type ViewVillages struct {
	Area int // partition index
}

// ViewProperties lists the properties of one village.
type ViewProperties struct {
	Area    int
	Village string
}

// ViewDetails shows one property, triggering enrichment of its empty
// attributes.
type ViewDetails struct {
	Area int
	Row  int // 0-based index into the partition's data rows
}

// ViewITReviews prompts for an IT-review scan keyword.
type ViewITReviews struct{}

// ConfirmSave commits the proposal behind Token.
type ConfirmSave struct {
	Token string
}

// CancelSave discards the proposal behind Token.
type CancelSave struct {
	Token string
}

func (ViewAreas) isCommand()      {}
func (ViewVillages) isCommand()   {}
func (ViewProperties) isCommand() {}
func (ViewDetails) isCommand()    {}
func (ViewITReviews) isCommand()  {}
func (ConfirmSave) isCommand()    {}
func (CancelSave) isCommand()     {}

// Parse decodes one callback string. Free text that is not a command
// should not be passed here; the router sends it to the agent instead.
func Parse(data string) (Command, error) {
	parts := strings.Split(data, ";")
	action := parts[0]
	args := parts[1:]

	switch action {
	case "view_areas":
		return ViewAreas{}, nil
	case "view_desas":
		area, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		return ViewVillages{Area: area}, nil
	case "view_villas":
		area, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		village, err := strArg(args, 1)
		if err != nil {
			return nil, err
		}
		return ViewProperties{Area: area, Village: village}, nil
	case "view_details":
		area, err := intArg(args, 0)
		if err != nil {
			return nil, err
		}
		row, err := intArg(args, 1)
		if err != nil {
			return nil, err
		}
		return ViewDetails{Area: area, Row: row}, nil
	case "view_it_reviews":
		return ViewITReviews{}, nil
	case "confirm_save":
		token, err := strArg(args, 0)
		if err != nil {
			return nil, err
		}
		return ConfirmSave{Token: token}, nil
	case "cancel_save":
		token, err := strArg(args, 0)
		if err != nil {
			return nil, err
		}
		return CancelSave{Token: token}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, action)
	}
}

func strArg(args []string, i int) (string, error) {
	if i >= len(args) || args[i] == "" {
		return "", fmt.Errorf("%w: missing argument %d", ErrMalformedCommand, i)
	}
	return args[i], nil
}

func intArg(args []string, i int) (int, error) {
	s, err := strArg(args, i)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: argument %d is not a number", ErrMalformedCommand, i)
	}
	return n, nil
}
