package entities

import (
	"bytes"
	"fmt"
	"math/big"
	"strings"

	domainerrors "ballot/contexts/governance/election-engine/domain/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/common/math"
	"github.com/ethereum/go-ethereum/params"
)

// Fees are denominated in wei. They are never mutated after init.
var (
	VotingRightPrice = new(big.Int).Mul(big.NewInt(4), big.NewInt(params.Ether))
	VoteFee          = new(big.Int).Div(big.NewInt(params.Ether), big.NewInt(10))
)

// ZeroAddress is the null identity.
var ZeroAddress = common.Address{}

// ParseAddress accepts a 0x-prefixed (or bare) 40 hex digit account address.
// The zero address parses successfully; callers decide whether it is valid.
func ParseAddress(raw string) (common.Address, error) {
	value := strings.TrimSpace(raw)
	if !common.IsHexAddress(value) {
		return common.Address{}, fmt.Errorf("%w: invalid address %q", domainerrors.ErrInvalidInput, value)
	}
	return common.HexToAddress(value), nil
}

// ParseAmount parses a wei amount in decimal or 0x-prefixed hex. Empty input
// is a zero payment.
func ParseAmount(raw string) (*big.Int, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return new(big.Int), nil
	}
	amount, ok := math.ParseBig256(value)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("%w: invalid amount %q", domainerrors.ErrInvalidInput, value)
	}
	return amount, nil
}

func amountOf(payment *big.Int) *big.Int {
	if payment == nil {
		return new(big.Int)
	}
	return new(big.Int).Set(payment)
}

// Description is the fixed-size opaque election description.
type Description [32]byte

// EncodeDescription packs a short UTF-8 string into a Description, leaving at
// least one trailing zero byte so the text stays recoverable.
func EncodeDescription(text string) (Description, error) {
	var d Description
	if len(text) > len(d)-1 {
		return Description{}, fmt.Errorf("%w: description must be shorter than %d bytes", domainerrors.ErrInvalidInput, len(d))
	}
	copy(d[:], text)
	return d, nil
}

// ParseDescription accepts either a 0x-prefixed 32 byte hex payload or a short
// string that is encoded with EncodeDescription.
func ParseDescription(raw string) (Description, error) {
	value := strings.TrimSpace(raw)
	if strings.HasPrefix(value, "0x") && len(value) == 2+2*len(Description{}) {
		decoded, err := hexutil.Decode(value)
		if err != nil {
			return Description{}, fmt.Errorf("%w: invalid description hex", domainerrors.ErrInvalidInput)
		}
		var d Description
		copy(d[:], decoded)
		return d, nil
	}
	return EncodeDescription(raw)
}

func (d Description) Hex() string {
	return hexutil.Encode(d[:])
}

// Text returns the payload up to the first zero byte.
func (d Description) Text() string {
	if i := bytes.IndexByte(d[:], 0); i >= 0 {
		return string(d[:i])
	}
	return string(d[:])
}

func (d Description) MarshalText() ([]byte, error) {
	return []byte(d.Hex()), nil
}

func (d *Description) UnmarshalText(input []byte) error {
	decoded, err := hexutil.Decode(string(input))
	if err != nil {
		return err
	}
	if len(decoded) != len(d) {
		return fmt.Errorf("%w: description must be %d bytes", domainerrors.ErrInvalidInput, len(d))
	}
	copy(d[:], decoded)
	return nil
}
