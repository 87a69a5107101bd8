package abicodec

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

const (
	WalletInterface = "MultiSigWallet"
	TokenInterface  = "MultiSigToken"
)

var (
	ErrUnknownFunction  = errors.New("unknown function")
	ErrArgumentMismatch = errors.New("argument mismatch")
)

//go:embed abi/*.json
var abiFiles embed.FS

// decodeOrder is the priority in which Decode tries registered interfaces.
var decodeOrder = []string{WalletInterface, TokenInterface}

type registeredInterface struct {
	name string
	abi  abi.ABI
}

// Codec maps structured calls of the built-in wallet and token interfaces
// to calldata and back. It holds only parsed ABI documents and is safe for
// concurrent use.
type Codec struct {
	interfaces []registeredInterface
}

// DecodedCall is the result of matching calldata against a registered interface.
type DecodedCall struct {
	Interface string
	Method    abi.Method
	Params    []any
}

func New() (*Codec, error) {
	codec := &Codec{interfaces: make([]registeredInterface, 0, len(decodeOrder))}
	for _, name := range decodeOrder {
		raw, err := abiFiles.ReadFile("abi/" + name + ".json")
		if err != nil {
			return nil, fmt.Errorf("read %s abi: %w", name, err)
		}
		parsed, err := abi.JSON(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("parse %s abi: %w", name, err)
		}
		codec.interfaces = append(codec.interfaces, registeredInterface{name: name, abi: parsed})
	}
	return codec, nil
}

// ABI returns the parsed document registered under interfaceName.
func (c *Codec) ABI(interfaceName string) (abi.ABI, bool) {
	for _, iface := range c.interfaces {
		if iface.name == interfaceName {
			return iface.abi, true
		}
	}
	return abi.ABI{}, false
}

func (c *Codec) Encode(interfaceName, functionName string, args ...any) ([]byte, error) {
	parsed, ok := c.ABI(interfaceName)
	if !ok {
		return nil, fmt.Errorf("%w: interface %s is not registered", ErrUnknownFunction, interfaceName)
	}
	method, ok := parsed.Methods[functionName]
	if !ok {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownFunction, interfaceName, functionName)
	}
	if len(args) != len(method.Inputs) {
		return nil, fmt.Errorf("%w: %s expects %d arguments, got %d", ErrArgumentMismatch, method.Sig, len(method.Inputs), len(args))
	}
	data, err := parsed.Pack(functionName, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrArgumentMismatch, method.Sig, err)
	}
	return data, nil
}

// Decode returns false when data matches no registered selector, which is
// the normal case for calls to arbitrary contracts.
func (c *Codec) Decode(data []byte) (DecodedCall, bool) {
	if len(data) < 4 {
		return DecodedCall{}, false
	}
	for _, iface := range c.interfaces {
		method, err := iface.abi.MethodById(data[:4])
		if err != nil {
			continue
		}
		params, err := method.Inputs.Unpack(data[4:])
		if err != nil {
			continue
		}
		return DecodedCall{Interface: iface.name, Method: *method, Params: params}, true
	}
	return DecodedCall{}, false
}

// NamedParams renders each parameter for display, keyed by its ABI name.
func (d DecodedCall) NamedParams() map[string]string {
	named := make(map[string]string, len(d.Params))
	for idx, input := range d.Method.Inputs {
		if idx >= len(d.Params) {
			break
		}
		key := input.Name
		if key == "" {
			key = fmt.Sprintf("arg%d", idx)
		}
		named[key] = FormatValue(d.Params[idx])
	}
	return named
}

// Param returns the raw value of the named parameter.
func (d DecodedCall) Param(name string) (any, bool) {
	for idx, input := range d.Method.Inputs {
		if input.Name == name && idx < len(d.Params) {
			return d.Params[idx], true
		}
	}
	return nil, false
}

func (d DecodedCall) String() string {
	var b strings.Builder
	b.WriteString("Interface: ")
	b.WriteString(d.Interface)
	b.WriteString("\nFunction: ")
	b.WriteString(d.Method.Name)
	b.WriteString("\nParameter:")
	for idx, input := range d.Method.Inputs {
		if idx >= len(d.Params) {
			break
		}
		fmt.Fprintf(&b, "\n  %s: %s", input.Name, FormatValue(d.Params[idx]))
	}
	return b.String()
}

// FormatValue renders a decoded ABI value the way proposal summaries show it.
func FormatValue(value any) string {
	switch v := value.(type) {
	case common.Address:
		return v.Hex()
	case []common.Address:
		parts := make([]string, 0, len(v))
		for _, address := range v {
			parts = append(parts, address.Hex())
		}
		return strings.Join(parts, ",")
	case *big.Int:
		if v == nil {
			return "0"
		}
		return v.String()
	case []byte:
		return hexutil.Encode(v)
	default:
		return fmt.Sprint(v)
	}
}
