package core

import (
	"errors"

	"github.com/tolelom/stakeledger/codec"
)

// ErrNotFound is returned when a requested object does not exist in storage
// or a required ledger record is absent.
var ErrNotFound = errors.New("not found")

// Validation failures raised by actions. None of them are retriable; the
// failed attempt's view is discarded and the ledger is left unchanged.
var (
	ErrInvalidLevel         = errors.New("invalid level")
	ErrInvalidRound         = errors.New("invalid round")
	ErrExpired              = errors.New("commitment expired")
	ErrInsufficientBalance  = errors.New("insufficient balance")
	ErrInsufficientMaterial = errors.New("insufficient material")
	ErrAlreadyReceived      = errors.New("reward already received")
	ErrRowNotFound          = errors.New("table row not found")

	ErrRewardNotReady       = errors.New("reward not ready")
	ErrSlotUnavailable      = errors.New("combination slot unavailable")
	ErrNotEnoughActionPoint = errors.New("not enough action point")
	ErrInvalidRecipe        = errors.New("invalid recipe")
	ErrInvalidName          = errors.New("invalid name")
	ErrAvatarIndex          = errors.New("invalid avatar index")
	ErrDuplicate            = errors.New("already exists")
	ErrUnauthorizedMinter   = errors.New("unauthorized minter")
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrUnknownAction        = errors.New("unknown action type")
	ErrSheetNotLoaded       = errors.New("table not loaded")
)

// ErrStructural marks malformed parameter or state encodings.
var ErrStructural = codec.ErrStructural
