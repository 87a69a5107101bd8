package abicodec

import (
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

// Event returns the registered event definition.
func (c *Codec) Event(interfaceName, eventName string) (abi.Event, bool) {
	parsed, ok := c.ABI(interfaceName)
	if !ok {
		return abi.Event{}, false
	}
	event, ok := parsed.Events[eventName]
	return event, ok
}

// FindLog returns the first log in logs emitted as eventName. A zero emitter
// matches logs from any address.
func (c *Codec) FindLog(interfaceName, eventName string, emitter common.Address, logs []*types.Log) (*types.Log, bool) {
	event, ok := c.Event(interfaceName, eventName)
	if !ok {
		return nil, false
	}
	for _, log := range logs {
		if log == nil || len(log.Topics) == 0 || log.Topics[0] != event.ID {
			continue
		}
		if emitter != (common.Address{}) && log.Address != emitter {
			continue
		}
		return log, true
	}
	return nil, false
}

// EventValue decodes argument arg of the first matching eventName log.
func (c *Codec) EventValue(interfaceName, eventName, arg string, emitter common.Address, logs []*types.Log) (any, bool) {
	event, ok := c.Event(interfaceName, eventName)
	if !ok {
		return nil, false
	}
	log, ok := c.FindLog(interfaceName, eventName, emitter, logs)
	if !ok {
		return nil, false
	}

	values := make(map[string]any, len(event.Inputs))
	var indexed abi.Arguments
	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}
	if len(indexed) > 0 {
		if len(log.Topics) < len(indexed)+1 {
			return nil, false
		}
		if err := abi.ParseTopicsIntoMap(values, indexed, log.Topics[1:]); err != nil {
			return nil, false
		}
	}
	if len(event.Inputs.NonIndexed()) > 0 {
		if err := event.Inputs.UnpackIntoMap(values, log.Data); err != nil {
			return nil, false
		}
	}
	value, ok := values[arg]
	return value, ok
}

// EventBigInt is EventValue for uint256 arguments such as transactionId.
func (c *Codec) EventBigInt(interfaceName, eventName, arg string, emitter common.Address, logs []*types.Log) (*big.Int, bool) {
	value, ok := c.EventValue(interfaceName, eventName, arg, emitter, logs)
	if !ok {
		return nil, false
	}
	id, ok := value.(*big.Int)
	if !ok || id == nil {
		return nil, false
	}
	return id, true
}
