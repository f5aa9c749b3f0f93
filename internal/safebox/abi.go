package safebox

import (
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const safeBoxABIJSON = `[
  {
    "inputs": [],
    "name": "cToken",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "uToken",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint256", "name": "amount", "type": "uint256"}],
    "name": "deposit",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint256", "name": "amount", "type": "uint256"}],
    "name": "withdraw",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

// The native vault takes the deposit as call value.
const safeBoxETHABIJSON = `[
  {
    "inputs": [],
    "name": "cToken",
    "outputs": [{"internalType": "address", "name": "", "type": "address"}],
    "stateMutability": "view",
    "type": "function"
  },
  {
    "inputs": [],
    "name": "deposit",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint256", "name": "amount", "type": "uint256"}],
    "name": "withdraw",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

const cTokenABIJSON = `[
  {
    "inputs": [],
    "name": "exchangeRateStored",
    "outputs": [{"internalType": "uint256", "name": "", "type": "uint256"}],
    "stateMutability": "view",
    "type": "function"
  }
]`

const wethABIJSON = `[
  {
    "inputs": [],
    "name": "deposit",
    "outputs": [],
    "stateMutability": "payable",
    "type": "function"
  },
  {
    "inputs": [{"internalType": "uint256", "name": "wad", "type": "uint256"}],
    "name": "withdraw",
    "outputs": [],
    "stateMutability": "nonpayable",
    "type": "function"
  }
]`

type lazyABI struct {
	once   sync.Once
	source string
	parsed abi.ABI
	err    error
}

func (l *lazyABI) get() (abi.ABI, error) {
	l.once.Do(func() {
		l.parsed, l.err = abi.JSON(strings.NewReader(l.source))
	})
	return l.parsed, l.err
}

var (
	safeBoxABI    = &lazyABI{source: safeBoxABIJSON}
	safeBoxETHABI = &lazyABI{source: safeBoxETHABIJSON}
	cTokenABI     = &lazyABI{source: cTokenABIJSON}
	wethABI       = &lazyABI{source: wethABIJSON}
)

// SafeBoxABI returns the parsed ABI of a token SafeBox.
func SafeBoxABI() (abi.ABI, error) { return safeBoxABI.get() }

// SafeBoxETHABI returns the parsed ABI of the native-asset SafeBox.
func SafeBoxETHABI() (abi.ABI, error) { return safeBoxETHABI.get() }

// CTokenABI returns the parsed ABI of the rate-bearing token.
func CTokenABI() (abi.ABI, error) { return cTokenABI.get() }

// WETHABI returns the parsed ABI of the native-asset wrapper.
func WETHABI() (abi.ABI, error) { return wethABI.get() }
