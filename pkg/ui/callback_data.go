package ui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/smith3v/ancestral-lingo/pkg/vocab"
)

const (
	CallbackPrefix     = "l:"
	MaxCallbackDataLen = 64
)

type ActionKind string

const (
	ActionToggleLanguage ActionKind = "lang"
	ActionStart          ActionKind = "cat"
	ActionOption         ActionKind = "opt"
	ActionCheck          ActionKind = "check"
	ActionCard           ActionKind = "card"
	ActionContinue       ActionKind = "next"
	ActionSay            ActionKind = "say"
	ActionQuit           ActionKind = "quit"
	ActionHome           ActionKind = "home"
	ActionRetry          ActionKind = "retry"
	ActionGoals          ActionKind = "goals"
	ActionClaim          ActionKind = "claim"
	ActionNoop           ActionKind = "noop"
)

// Action is a decoded button press. Question carries the index of the
// question the button was rendered for, so taps on an outdated message can
// be told apart from taps on the current one.
type Action struct {
	Kind     ActionKind
	Category vocab.CategoryID
	Question int
	Option   int
	Card     string
	ID       string
}

var (
	errInvalidPrefix       = errors.New("invalid callback prefix")
	errInvalidAction       = errors.New("invalid callback action")
	errInvalidValue        = errors.New("invalid callback value")
	errCallbackDataTooLong = errors.New("callback data too long")
)

func BuildSimpleCallback(kind ActionKind) (string, error) {
	switch kind {
	case ActionToggleLanguage, ActionCheck, ActionContinue, ActionSay,
		ActionQuit, ActionHome, ActionRetry, ActionGoals, ActionNoop:
		return validateCallbackData(CallbackPrefix + string(kind))
	default:
		return "", errInvalidAction
	}
}

func BuildStartCallback(category vocab.CategoryID) (string, error) {
	if !category.Valid() {
		return "", errInvalidValue
	}
	return validateCallbackData(CallbackPrefix + string(ActionStart) + ":" + string(category))
}

func BuildOptionCallback(question, option int) (string, error) {
	if question < 0 || option < 0 {
		return "", errInvalidValue
	}
	return validateCallbackData(CallbackPrefix + string(ActionOption) + ":" +
		strconv.Itoa(question) + ":" + strconv.Itoa(option))
}

func BuildCardCallback(question int, cardID string) (string, error) {
	if question < 0 || !isToken(cardID) {
		return "", errInvalidValue
	}
	return validateCallbackData(CallbackPrefix + string(ActionCard) + ":" +
		strconv.Itoa(question) + ":" + cardID)
}

func BuildClaimCallback(achievementID string) (string, error) {
	if !isToken(achievementID) {
		return "", errInvalidValue
	}
	return validateCallbackData(CallbackPrefix + string(ActionClaim) + ":" + achievementID)
}

func ParseCallbackData(data string) (Action, error) {
	if data == "" {
		return Action{}, errInvalidAction
	}
	if len(data) > MaxCallbackDataLen {
		return Action{}, errCallbackDataTooLong
	}
	rest, ok := strings.CutPrefix(data, CallbackPrefix)
	if !ok {
		return Action{}, errInvalidPrefix
	}

	parts := strings.Split(rest, ":")
	kind := ActionKind(parts[0])
	args := parts[1:]

	switch kind {
	case ActionToggleLanguage, ActionCheck, ActionContinue, ActionSay,
		ActionQuit, ActionHome, ActionRetry, ActionGoals, ActionNoop:
		if len(args) != 0 {
			return Action{}, errInvalidAction
		}
		return Action{Kind: kind}, nil
	case ActionStart:
		if len(args) != 1 || !vocab.CategoryID(args[0]).Valid() {
			return Action{}, errInvalidValue
		}
		return Action{Kind: kind, Category: vocab.CategoryID(args[0])}, nil
	case ActionOption:
		if len(args) != 2 {
			return Action{}, errInvalidAction
		}
		question, err := parseIndex(args[0])
		if err != nil {
			return Action{}, err
		}
		option, err := parseIndex(args[1])
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: kind, Question: question, Option: option}, nil
	case ActionCard:
		if len(args) != 2 || !isToken(args[1]) {
			return Action{}, errInvalidValue
		}
		question, err := parseIndex(args[0])
		if err != nil {
			return Action{}, err
		}
		return Action{Kind: kind, Question: question, Card: args[1]}, nil
	case ActionClaim:
		if len(args) != 1 || !isToken(args[0]) {
			return Action{}, errInvalidValue
		}
		return Action{Kind: kind, ID: args[0]}, nil
	default:
		return Action{}, errInvalidAction
	}
}

func validateCallbackData(data string) (string, error) {
	if data == "" {
		return "", errInvalidAction
	}
	if len(data) > MaxCallbackDataLen {
		return "", errCallbackDataTooLong
	}
	return data, nil
}

func parseIndex(value string) (int, error) {
	if !isASCIIUnsignedInt(value) || len(value) > 4 {
		return 0, errInvalidValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, errInvalidValue
	}
	return n, nil
}

func isASCIIUnsignedInt(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		if value[i] < '0' || value[i] > '9' {
			return false
		}
	}
	return true
}

// isToken accepts the identifiers the game puts into buttons: ASCII letters,
// digits, '-' and '_'.
func isToken(value string) bool {
	if value == "" {
		return false
	}
	for i := 0; i < len(value); i++ {
		c := value[i]
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			return false
		}
	}
	return true
}
