package validate

import (
	"github.com/ethereum/go-ethereum/common"
	"github.com/fbsobreira/gotron-sdk/pkg/address"
)

// IsDepositAddress checks addr against the format of the given network.
func IsDepositAddress(network, addr string) bool {
	switch network {
	case "TRC-20":
		_, err := address.Base58ToAddress(addr)
		return err == nil
	case "ERC-20", "BEP-20":
		return common.IsHexAddress(addr) && len(addr) == 42
	default:
		return false
	}
}
