// Package safeboxtest provides an in-memory ethereum.ContractCaller for tests.
package safeboxtest

import (
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

type key struct {
	to       common.Address
	selector [4]byte
}

type response struct {
	data []byte
	err  error
}

// Caller answers eth_calls from canned responses keyed by contract and selector.
// Unknown calls return empty data, like a call to an account without code.
type Caller struct {
	mu        sync.Mutex
	responses map[key]response
	calls     int
}

func NewCaller() *Caller {
	return &Caller{responses: make(map[key]response)}
}

// Return registers method outputs for calls to method on the contract at to.
func (c *Caller) Return(to common.Address, method abi.Method, outputs ...interface{}) {
	data, err := method.Outputs.Pack(outputs...)
	if err != nil {
		panic(fmt.Sprintf("pack %s outputs: %v", method.Name, err))
	}
	c.set(to, method.ID, response{data: data})
}

// Revert makes calls to method on the contract at to fail with err.
func (c *Caller) Revert(to common.Address, method abi.Method, err error) {
	c.set(to, method.ID, response{err: err})
}

// Calls returns the number of eth_calls served so far.
func (c *Caller) Calls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

func (c *Caller) set(to common.Address, id []byte, resp response) {
	var k key
	k.to = to
	copy(k.selector[:], id)

	c.mu.Lock()
	c.responses[k] = resp
	c.mu.Unlock()
}

// CallContract implements ethereum.ContractCaller.
func (c *Caller) CallContract(_ context.Context, msg ethereum.CallMsg, _ *big.Int) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++

	if msg.To == nil || len(msg.Data) < 4 {
		return nil, fmt.Errorf("malformed call")
	}
	var k key
	k.to = *msg.To
	copy(k.selector[:], msg.Data[:4])

	resp, ok := c.responses[k]
	if !ok {
		return []byte{}, nil
	}
	return resp.data, resp.err
}
